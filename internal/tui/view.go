package tui

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/hylla/tavla/internal/domain"
	"github.com/hylla/tavla/internal/kanban"
)

// Each card renders as a title line, a meta line and a spacer.
const cardRowHeight = 3

// columnHeaderRows covers the top border, the title line and the spacer under it.
const columnHeaderRows = 3

const maxSearchResults = 8

var (
	defaultAccent = lipgloss.Color("62")
	mutedColor    = lipgloss.Color("241")
	dimColor      = lipgloss.Color("239")
	focusColor    = lipgloss.Color("212")
	highlightBg   = lipgloss.Color("58")
)

func (m Model) View() tea.View {
	if m.err != nil {
		return newView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
	}
	if !m.ready {
		return newView("loading...")
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dimColor)

	header := titleStyle.Render("tavla")
	if b, ok := m.currentBoard(); ok {
		header += "  " + b.Name
	}
	header += statusStyle.Render("  [" + m.modeLabel() + "]")
	if n := m.inflight; n > 0 {
		header += statusStyle.Render(fmt.Sprintf("  saving %d", n))
	}

	sections := []string{header}
	if tabs := m.renderBoardTabs(); tabs != "" {
		sections = append(sections, tabs)
	}
	sections = append(sections, "", m.renderColumns())
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	full := content + "\n" + helpLine

	overlay := m.renderModeOverlay(m.width - 8)
	if m.help.ShowAll {
		overlay = m.renderHelpOverlay(m.width - 8)
	}
	if overlay != "" {
		height := lipgloss.Height(full)
		if m.height > 0 {
			height = m.height
		}
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, height))
	}
	return newView(full)
}

func newView(content string) tea.View {
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

func (m Model) modeLabel() string {
	switch m.mode {
	case modeSearch:
		return "search"
	case modeAddCard:
		return "new card"
	case modeEditCard:
		return "edit card"
	case modeCardInfo:
		return "card"
	}
	if g := m.gesture; g != nil && m.board.Drag().State().IsDragging {
		return "dragging " + string(g.itemType)
	}
	return "board"
}

func (m Model) renderBoardTabs() string {
	if len(m.boards) <= 1 {
		return ""
	}
	active := lipgloss.NewStyle().Bold(true).Foreground(defaultAccent)
	inactive := lipgloss.NewStyle().Foreground(dimColor)
	parts := make([]string, 0, len(m.boards))
	for idx, b := range m.boards {
		if idx == m.boardIdx {
			parts = append(parts, active.Render("["+b.Name+"]"))
			continue
		}
		parts = append(parts, inactive.Render(b.Name))
	}
	return strings.Join(parts, "  ")
}

// boardTop is the screen row of the first column's top border.
func (m Model) boardTop() int {
	top := 2
	if len(m.boards) > 1 {
		top++
	}
	return top
}

func (m Model) columnWidth() int {
	cols := len(m.board.Columns())
	if cols == 0 {
		return 24
	}
	w := 28
	if m.width > 0 {
		// border (2), padding (2), margin (1)
		const overhead = 5
		if candidate := (m.width - cols*overhead) / cols; candidate > 0 {
			w = candidate
		}
	}
	return clamp(w, 20, 40)
}

// columnInnerHeight is the number of content rows inside a column border.
func (m Model) columnInnerHeight() int {
	// status line, help border and help line below the board, borders around it.
	h := m.height - m.boardTop() - 3 - 2
	return max(columnHeaderRows-1+cardRowHeight, h)
}

// visibleSlots is how many cards fit in one column.
func (m Model) visibleSlots() int {
	return max(1, (m.columnInnerHeight()-(columnHeaderRows-1))/cardRowHeight)
}

func (m Model) columnStyle(accent color.Color, highlighted bool) lipgloss.Style {
	border := dimColor
	if highlighted {
		border = accent
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		MarginRight(1).
		Width(m.columnWidth())
}

// columnOuterWidth is the rendered width of one column including its margin.
func (m Model) columnOuterWidth() int {
	return max(1, lipgloss.Width(m.columnStyle(dimColor, false).Render("")))
}

// firstVisible returns the index of the first rendered card in a column,
// scrolled so the focused card stays on screen.
func (m Model) firstVisible(cards []domain.Card) int {
	slots := m.visibleSlots()
	focused := m.board.Focused()
	for idx, c := range cards {
		if c.ID == focused && idx >= slots {
			return idx - slots + 1
		}
	}
	return 0
}

func (m Model) renderColumns() string {
	columns := m.board.Columns()
	if len(columns) == 0 {
		return lipgloss.NewStyle().Foreground(mutedColor).Render("No columns on this board.")
	}
	focusedCol := ""
	if c, ok := m.board.Card(m.board.Focused()); ok {
		focusedCol = c.ColumnID
	}
	hover := m.dropZone()
	drag := m.board.Drag().State()

	// Lines stay inside the padded area so nothing wraps and hit testing holds.
	textWidth := max(1, m.columnWidth()-6)
	innerHeight := m.columnInnerHeight()
	focusStyle := lipgloss.NewStyle().Foreground(focusColor).Bold(true)
	pendingStyle := lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	metaStyle := lipgloss.NewStyle().Foreground(mutedColor)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	views := make([]string, 0, len(columns))
	for _, col := range columns {
		accent := columnAccent(col)
		cards := m.board.ColumnCards(col.ID)
		title := fmt.Sprintf("%s (%d)", col.Title, len(cards))
		if drag.IsDragging && drag.DraggedItemType == kanban.ItemColumn && drag.DraggedItemID == col.ID {
			title = "⠿ " + title
		}
		lines := []string{lipgloss.NewStyle().Bold(true).Foreground(accent).Render(truncate(title, textWidth+2)), ""}

		if len(cards) == 0 {
			lines = append(lines, emptyStyle.Render("(empty)"))
		}
		first := m.firstVisible(cards)
		end := min(len(cards), first+m.visibleSlots())
		for _, card := range cards[first:end] {
			focused := card.ID == m.board.Focused()
			prefix := "  "
			if focused {
				prefix = "▌ "
			}
			if drag.IsDragging && drag.DraggedItemID == card.ID {
				prefix = "⠿ "
			}
			name := card.Title
			pending := m.board.IsPending(card.ID)
			if pending {
				name += " …"
			}
			line := prefix + truncate(name, textWidth)
			switch {
			case focused:
				line = focusStyle.Render(line)
			case pending:
				line = pendingStyle.Render(line)
			}
			lines = append(lines, line, "  "+metaStyle.Render(truncate(cardMeta(card), textWidth)), "")
		}
		if end < len(cards) {
			lines = append(lines, metaStyle.Render(fmt.Sprintf("+%d more", len(cards)-end)))
		}

		highlighted := col.ID == focusedCol || col.ID == hover
		views = append(views, m.columnStyle(accent, highlighted).Render(fitLines(strings.Join(lines, "\n"), innerHeight)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// columnAccent returns the configured column color or the default accent.
func columnAccent(col domain.Column) color.Color {
	if raw := strings.TrimSpace(col.Color); raw != "" {
		return lipgloss.Color(raw)
	}
	return defaultAccent
}

// cardMeta summarizes priority, assignee, tags and due date on one line.
func cardMeta(card domain.Card) string {
	parts := []string{string(card.Priority)}
	if card.Assignee != "" {
		parts = append(parts, "@"+card.Assignee)
	}
	if tags := summarizeTags(card.Tags, 2); tags != "" {
		parts = append(parts, tags)
	}
	if card.DueDate != nil {
		parts = append(parts, "due "+formatDue(card.DueDate))
	}
	return strings.Join(parts, " ")
}

func summarizeTags(tags []string, maxTags int) string {
	if len(tags) == 0 {
		return ""
	}
	visible, extra := tags, 0
	if len(tags) > maxTags {
		visible, extra = tags[:maxTags], len(tags)-maxTags
	}
	joined := "#" + strings.Join(visible, " #")
	if extra > 0 {
		joined += fmt.Sprintf(" +%d", extra)
	}
	return joined
}

// hitResult is what sits under a mouse position on the board.
type hitResult struct {
	ok       bool
	columnID string
	cardID   string
	header   bool
}

// hitTest maps a 0-based screen cell onto a column, its header or one of its cards.
func (m Model) hitTest(x, y int) hitResult {
	columns := m.board.Columns()
	if len(columns) == 0 || x < 0 {
		return hitResult{}
	}
	idx := x / m.columnOuterWidth()
	if idx >= len(columns) {
		return hitResult{}
	}
	row := y - m.boardTop()
	if row < 0 || row >= m.columnInnerHeight()+2 {
		return hitResult{}
	}
	col := columns[idx]
	if row < columnHeaderRows {
		return hitResult{ok: true, columnID: col.ID, header: true}
	}
	cards := m.board.ColumnCards(col.ID)
	slot := (row-columnHeaderRows)/cardRowHeight + m.firstVisible(cards)
	if slot >= 0 && slot < len(cards) && slot < m.firstVisible(cards)+m.visibleSlots() {
		return hitResult{ok: true, columnID: col.ID, cardID: cards[slot].ID}
	}
	return hitResult{ok: true, columnID: col.ID}
}

func (m Model) renderModeOverlay(maxWidth int) string {
	switch m.mode {
	case modeSearch:
		return m.renderSearchOverlay(maxWidth)
	case modeAddCard, modeEditCard:
		return m.renderFormOverlay(maxWidth)
	case modeCardInfo:
		return m.renderCardInfo(maxWidth)
	default:
		return ""
	}
}

func overlayBox(maxWidth, minW, maxW int) lipgloss.Style {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(defaultAccent).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(clamp(maxWidth, minW, maxW))
	}
	return style
}

func (m Model) renderSearchOverlay(maxWidth int) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(defaultAccent)
	hintStyle := lipgloss.NewStyle().Foreground(mutedColor)
	markStyle := lipgloss.NewStyle().Background(highlightBg).Bold(true)

	search := m.board.Search()
	lines := []string{titleStyle.Render("Search Cards"), m.searchInput.View(), ""}
	results := search.Results()
	switch {
	case strings.TrimSpace(search.Query()) == "":
		lines = append(lines, hintStyle.Render("type to search titles, descriptions, tags, assignees and status"))
	case len(results) == 0:
		lines = append(lines, hintStyle.Render("No cards found"))
	}
	first, _ := windowBounds(len(results), search.SelectedIndex(), maxSearchResults)
	for idx := first; idx < len(results) && idx < first+maxSearchResults; idx++ {
		res := results[idx]
		prefix := "  "
		if idx == search.SelectedIndex() {
			prefix = "│ "
		}
		status := ""
		if col, ok := m.board.Column(res.Card.ColumnID); ok {
			status = col.Title
		}
		fields := make([]string, 0, len(res.MatchedFields))
		for _, f := range res.MatchedFields {
			fields = append(fields, string(f))
		}
		line := prefix + highlight(truncate(res.Card.Title, 48), search.Query(), markStyle)
		line += hintStyle.Render(fmt.Sprintf("  %s • %s", status, strings.Join(fields, ",")))
		lines = append(lines, line)
	}
	lines = append(lines, "", hintStyle.Render("enter open • ↑/↓ select • esc close"))
	return overlayBox(maxWidth, 44, 96).Render(strings.Join(lines, "\n"))
}

// highlight marks every case-insensitive occurrence of query in text.
func highlight(text, query string, style lipgloss.Style) string {
	ranges := kanban.HighlightRanges(text, query)
	if len(ranges) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, r := range ranges {
		b.WriteString(text[last:r[0]])
		b.WriteString(style.Render(text[r[0]:r[1]]))
		last = r[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// windowBounds returns the start and end of a window of size around selected.
func windowBounds(total, selected, size int) (int, int) {
	if total <= size || size <= 0 {
		return 0, total
	}
	start := clamp(selected-size/2, 0, total-size)
	return start, start + size
}

func (m Model) renderFormOverlay(maxWidth int) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(defaultAccent)
	hintStyle := lipgloss.NewStyle().Foreground(mutedColor)
	title := "New Card"
	if m.mode == modeEditCard {
		title = "Edit Card"
	}
	if col, ok := m.board.Column(m.formColumnID); ok {
		title += hintStyle.Render("  in " + col.Title)
	}
	lines := []string{titleStyle.Render(title), ""}
	for idx, in := range m.formInputs {
		line := in.View()
		if idx == m.formFocus {
			line = lipgloss.NewStyle().Foreground(focusColor).Render("› ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", hintStyle.Render("tab next field • enter save • esc cancel"))
	return overlayBox(maxWidth, 44, 88).Render(strings.Join(lines, "\n"))
}

func (m Model) renderCardInfo(maxWidth int) string {
	card, ok := m.board.Card(m.board.Selected())
	if !ok {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(defaultAccent)
	hintStyle := lipgloss.NewStyle().Foreground(mutedColor)
	status := card.ColumnID
	if col, ok := m.board.Column(card.ColumnID); ok {
		status = col.Title
	}
	assignee, tags, due := "-", "-", "-"
	if card.Assignee != "" {
		assignee = card.Assignee
	}
	if len(card.Tags) > 0 {
		tags = strings.Join(card.Tags, ", ")
	}
	if card.DueDate != nil {
		due = formatDue(card.DueDate)
	}
	lines := []string{
		titleStyle.Render("Card"),
		card.Title,
		hintStyle.Render("status: " + status + " • priority: " + string(card.Priority)),
		hintStyle.Render("assignee: " + assignee + " • due: " + due),
		hintStyle.Render("tags: " + tags),
	}
	if m.board.IsPending(card.ID) {
		lines = append(lines, hintStyle.Render("saving…"))
	}
	width := clamp(maxWidth, 32, 80)
	if desc := m.markdown.render(card.Description, width-4); desc != "" {
		lines = append(lines, "", desc)
	}
	lines = append(lines, "", hintStyle.Render("e edit • y copy ref • esc close"))
	return overlayBox(maxWidth, 32, 80).Render(strings.Join(lines, "\n"))
}

func (m Model) renderHelpOverlay(maxWidth int) string {
	width := clamp(maxWidth, 56, 100)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	hintStyle := lipgloss.NewStyle().Foreground(mutedColor)
	workflow := []string{
		lipgloss.NewStyle().Bold(true).Foreground(defaultAccent).Render("Workflows"),
		"1. arrows or hjkl move focus • enter opens the focused card • esc clears",
		"2. " + m.keys.search.Help().Key + " search across cards • enter jumps to the result",
		"3. drag a card onto a column or card with the mouse • [ ] move the focused card",
		"4. drag a column header or use H L to reorder columns",
		"5. " + m.keys.newCard.Help().Key + " new card • e edit • " + m.keys.deleteCard.Help().Key + " delete",
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(defaultAccent).Render("tavla help"),
		"",
		hb.View(m.keys),
		"",
		hintStyle.Render(strings.Join(workflow, "\n")),
		hintStyle.Render("press ? or esc to close"),
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(width)
	}
	return style.Render(strings.Join(lines, "\n"))
}

// fitLines pads or cuts content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay above base.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	overlayLayer := lipgloss.NewLayer(centered).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	if limit <= 1 {
		return string(rs[:limit])
	}
	return string(rs[:limit-1]) + "…"
}

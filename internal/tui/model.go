package tui

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	charmLog "github.com/charmbracelet/log"
	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/domain"
	"github.com/hylla/tavla/internal/kanban"
)

// Service is the board backend the TUI loads from and persists through.
type Service interface {
	kanban.Persistence
	EnsureDefaultBoard(context.Context) (domain.Board, error)
	ListBoards(context.Context) ([]domain.Board, error)
	LoadBoard(context.Context, string) (app.BoardState, error)
}

type inputMode int

const (
	modeNone inputMode = iota
	modeSearch
	modeAddCard
	modeEditCard
	modeCardInfo
)

// Card form field indexes.
const (
	formTitle = iota
	formDescription
	formPriority
	formAssignee
	formTags
	formDue
	formFieldCount
)

// cardView receives focus handle callbacks from the board core.
type cardView struct {
	lastFocused string
	activated   string
	registered  map[string]struct{}
}

// takeActivated returns and clears the last activated card.
func (v *cardView) takeActivated() string {
	id := v.activated
	v.activated = ""
	return id
}

// cardHandle is the focus handle registered for one rendered card.
type cardHandle struct {
	id   string
	view *cardView
}

func (h cardHandle) Focus()    { h.view.lastFocused = h.id }
func (h cardHandle) Activate() { h.view.activated = h.id }

// mouseGesture tracks a mouse press that may turn into a drag.
type mouseGesture struct {
	itemID   string
	itemType kanban.ItemType
	hoverID  string
}

type Model struct {
	svc    Service
	logger *charmLog.Logger
	now    func() time.Time

	ready  bool
	width  int
	height int
	err    error
	status string

	help    help.Model
	keys    keyMap
	runtime RuntimeConfig

	boards         []domain.Board
	boardIdx       int
	pendingBoardID string
	board          *kanban.Board
	cards          *cardView

	inflight    int
	staleReload bool

	mode         inputMode
	searchInput  textinput.Model
	formInputs   []textinput.Model
	formFocus    int
	formCardID   string
	formColumnID string

	gesture  *mouseGesture
	markdown *markdownRenderer

	reloadConfig ReloadConfigFunc
	copyText     ClipboardFunc
}

// loadedMsg carries a board snapshot fetched from the service.
type loadedMsg struct {
	boards   []domain.Board
	boardIdx int
	state    app.BoardState
	err      error
}

// mutationSettledMsg carries the persistence answer for one mutation.
type mutationSettledMsg struct {
	board    *kanban.Board
	mutation kanban.Mutation
	err      error
}

// searchDebounceMsg fires after the debounce delay for one query ticket.
type searchDebounceMsg struct {
	ticket uint64
}

// copiedMsg reports a clipboard write.
type copiedMsg struct {
	ref string
	err error
}

// ConfigReloadedMsg delivers a runtime config loaded outside the program,
// for example by a config file watcher.
type ConfigReloadedMsg struct {
	Config RuntimeConfig
	Err    error
}

func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:         svc,
		logger:      charmLog.New(io.Discard),
		now:         time.Now,
		status:      "loading...",
		help:        h,
		keys:        newKeyMap(),
		runtime:     DefaultRuntimeConfig(),
		cards:       &cardView{registered: map[string]struct{}{}},
		searchInput: newModalInput("search: ", "title, description, tags, assignee, status", "", 120),
		markdown:    newMarkdownRenderer("dark"),
		copyText:    clipboard.WriteAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.board = m.newBoard(nil, nil)
	return m
}

func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Board returns the interaction core backing the model.
func (m Model) Board() *kanban.Board {
	return m.board
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.boards = msg.boards
		m.boardIdx = msg.boardIdx
		m.pendingBoardID = ""
		if m.inflight > 0 {
			// Resetting now would drop speculation that is still waiting on persistence.
			m.staleReload = true
			return m, nil
		}
		m.resetBoard(msg.state)
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case mutationSettledMsg:
		m.inflight = max(0, m.inflight-1)
		if msg.board == m.board {
			m.board.Settle(msg.mutation, msg.err)
			if msg.err != nil {
				m.status = rejectedStatus(msg.mutation, msg.err)
			} else {
				m.status = settledStatus(msg.mutation)
			}
		}
		m.staleReload = true
		if m.inflight == 0 {
			m.staleReload = false
			return m, m.loadData
		}
		return m, nil

	case searchDebounceMsg:
		m.board.FireSearch(msg.ticket)
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "copied " + msg.ref
		return m, nil

	case ConfigReloadedMsg:
		if msg.Err != nil {
			m.status = "reload config failed: " + msg.Err.Error()
			return m, nil
		}
		m.applyRuntimeConfig(msg.Config)
		if m.inflight == 0 {
			m.rebuildBoard()
		}
		m.status = "config reloaded"
		return m, m.loadData

	case tea.KeyPressMsg:
		switch m.mode {
		case modeSearch:
			return m.handleSearchKey(msg)
		case modeAddCard, modeEditCard:
			return m.handleFormKey(msg)
		case modeCardInfo:
			return m.handleCardInfoKey(msg)
		default:
			return m.handleBoardKey(msg)
		}

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		return m, nil
	}
}

// loadData fetches the board list and the snapshot of the current board.
func (m Model) loadData() tea.Msg {
	ctx := context.Background()
	boards, err := m.svc.ListBoards(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	if len(boards) == 0 {
		board, err := m.svc.EnsureDefaultBoard(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		boards = []domain.Board{board}
	}
	idx := clamp(m.boardIdx, 0, len(boards)-1)
	if want := strings.TrimSpace(m.pendingBoardID); want != "" {
		for i, b := range boards {
			if b.ID == want || b.Slug == want {
				idx = i
				break
			}
		}
	}
	state, err := m.svc.LoadBoard(ctx, boards[idx].ID)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{boards: boards, boardIdx: idx, state: state}
}

func (m Model) newBoard(columns []domain.Column, cards []domain.Card) *kanban.Board {
	return kanban.NewBoard(m.svc, columns, cards,
		kanban.WithLogger(m.logger),
		kanban.WithClock(kanban.Clock(m.now)),
		kanban.WithMinDragDuration(m.runtime.MinDragDuration),
		kanban.WithSearchDebounce(m.runtime.SearchDebounce),
		kanban.WithBoardSearchWeights(m.runtime.SearchWeights),
	)
}

// rebuildBoard recreates the core with the current runtime thresholds, keeping the confirmed snapshot.
func (m *Model) rebuildBoard() {
	columns, cards := m.board.Columns(), m.board.Store().Confirmed()
	focused := m.board.Focused()
	m.board = m.newBoard(columns, cards)
	m.cards.registered = map[string]struct{}{}
	m.registerCardHandles(cards)
	m.board.Focus(focused)
	m.gesture = nil
	if m.mode == modeSearch {
		m.mode = modeNone
		m.searchInput.Blur()
	}
}

func (m *Model) resetBoard(state app.BoardState) {
	m.board.Reset(state.Columns, state.Cards)
	m.registerCardHandles(state.Cards)
	if m.mode == modeCardInfo && m.board.Selected() == "" {
		m.mode = modeNone
	}
}

// registerCardHandles keeps one focus handle per loaded card.
func (m *Model) registerCardHandles(cards []domain.Card) {
	nav := m.board.Navigator()
	live := make(map[string]struct{}, len(cards))
	for _, c := range cards {
		live[c.ID] = struct{}{}
		nav.RegisterCardRef(c.ID, cardHandle{id: c.ID, view: m.cards})
	}
	for id := range m.cards.registered {
		if _, ok := live[id]; !ok {
			nav.RegisterCardRef(id, nil)
		}
	}
	m.cards.registered = live
}

func (m *Model) applyRuntimeConfig(cfg RuntimeConfig) {
	defaults := DefaultRuntimeConfig()
	if cfg.MinDragDuration <= 0 {
		cfg.MinDragDuration = defaults.MinDragDuration
	}
	if cfg.SearchDebounce <= 0 {
		cfg.SearchDebounce = defaults.SearchDebounce
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = defaults.PersistTimeout
	}
	if cfg.SearchWeights == (kanban.SearchWeights{}) {
		cfg.SearchWeights = defaults.SearchWeights
	}
	m.runtime = cfg
	m.keys = newKeyMap()
	m.keys.applyConfig(cfg.Keys)
}

// reload refreshes the runtime config when a loader is wired, then the board.
func (m Model) reload() (tea.Model, tea.Cmd) {
	m.status = "reloading..."
	if m.reloadConfig == nil {
		return m, m.loadData
	}
	loader := m.reloadConfig
	return m, func() tea.Msg {
		cfg, err := loader()
		return ConfigReloadedMsg{Config: cfg, Err: err}
	}
}

// startMutation sends a mutation to persistence off the update goroutine.
func (m Model) startMutation(mut kanban.Mutation, status string) (tea.Model, tea.Cmd) {
	m.inflight++
	m.status = status
	return m, m.persistCmd(mut)
}

func (m Model) persistCmd(mut kanban.Mutation) tea.Cmd {
	board, timeout := m.board, m.runtime.PersistTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return mutationSettledMsg{board: board, mutation: mut, err: board.Persist(ctx, mut)}
	}
}

func (m Model) debounceCmd(ticket uint64) tea.Cmd {
	return tea.Tick(m.board.Search().Debounce(), func(time.Time) tea.Msg {
		return searchDebounceMsg{ticket: ticket}
	})
}

// handleBoardKey maps bindings onto board key events and card actions.
func (m Model) handleBoardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll {
		if key.Matches(msg, m.keys.toggleHelp) || msg.Code == tea.KeyEscape {
			m.help.ShowAll = false
			return m, nil
		}
	}
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m.reload()
	case key.Matches(msg, m.keys.search):
		return m.dispatchBoardKey(kanban.KeyEvent{Key: "k", Ctrl: true})
	case key.Matches(msg, m.keys.deleteCard):
		return m.dispatchBoardKey(kanban.KeyEvent{Key: kanban.KeyDelete, Ctrl: true})
	case key.Matches(msg, m.keys.newCard):
		return m, m.startCardForm(nil)
	case key.Matches(msg, m.keys.editCard):
		card, ok := m.board.Card(m.board.Focused())
		if !ok {
			m.status = "focus a card to edit"
			return m, nil
		}
		return m, m.startCardForm(&card)
	case key.Matches(msg, m.keys.moveCardLeft):
		return m.moveFocusedCard(-1)
	case key.Matches(msg, m.keys.moveCardRight):
		return m.moveFocusedCard(1)
	case key.Matches(msg, m.keys.moveColumnLeft):
		return m.moveCurrentColumn(-1)
	case key.Matches(msg, m.keys.moveColumnRight):
		return m.moveCurrentColumn(1)
	case key.Matches(msg, m.keys.copyRef):
		return m.copyFocusedRef()
	case key.Matches(msg, m.keys.nextBoard):
		return m.switchBoard(1)
	case key.Matches(msg, m.keys.focusLeft):
		return m.dispatchBoardKey(kanban.KeyEvent{Key: kanban.KeyArrowLeft})
	case key.Matches(msg, m.keys.focusRight):
		return m.dispatchBoardKey(kanban.KeyEvent{Key: kanban.KeyArrowRight})
	case key.Matches(msg, m.keys.focusUp):
		return m.dispatchBoardKey(kanban.KeyEvent{Key: kanban.KeyArrowUp})
	case key.Matches(msg, m.keys.focusDown):
		return m.dispatchBoardKey(kanban.KeyEvent{Key: kanban.KeyArrowDown})
	}
	if ev, ok := toKeyEvent(msg); ok {
		return m.dispatchBoardKey(ev)
	}
	return m, nil
}

// dispatchBoardKey runs one key event through the board core and applies the outcome.
func (m Model) dispatchBoardKey(ev kanban.KeyEvent) (tea.Model, tea.Cmd) {
	res := m.board.HandleKey(ev)
	var cmds []tea.Cmd
	if res.SearchOpened {
		m.mode = modeSearch
		m.searchInput.SetValue("")
		m.status = "search"
		cmds = append(cmds, m.searchInput.Focus())
	}
	if res.SearchClosed {
		m.mode = modeNone
		m.searchInput.Blur()
		m.status = "ready"
		if card, ok := m.board.Card(res.Selected); ok {
			m.status = "selected " + card.Title
		}
	}
	if id := m.cards.takeActivated(); id != "" && m.mode == modeNone {
		m.mode = modeCardInfo
	}
	if res.Mutation != nil {
		next, cmd := m.startMutation(*res.Mutation, "deleting card...")
		return next, tea.Batch(append(cmds, cmd)...)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleSearchKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.search):
		return m.dispatchBoardKey(kanban.KeyEvent{Key: "k", Ctrl: true})
	case msg.Code == tea.KeyEscape:
		return m.dispatchBoardKey(kanban.KeyEvent{Key: kanban.KeyEscape})
	case msg.Code == tea.KeyEnter:
		return m.dispatchBoardKey(kanban.KeyEvent{Key: kanban.KeyEnter})
	case msg.Code == tea.KeyUp || msg.String() == "ctrl+p":
		return m.dispatchBoardKey(kanban.KeyEvent{Key: kanban.KeyArrowUp})
	case msg.Code == tea.KeyDown || msg.String() == "ctrl+n":
		return m.dispatchBoardKey(kanban.KeyEvent{Key: kanban.KeyArrowDown})
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() == before {
		return m, cmd
	}
	ticket := m.board.SetSearchQuery(m.searchInput.Value())
	return m, tea.Batch(cmd, m.debounceCmd(ticket))
}

func (m Model) handleCardInfoKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.editCard):
		card, ok := m.board.Card(m.board.Selected())
		if !ok {
			m.mode = modeNone
			return m, nil
		}
		return m, m.startCardForm(&card)
	case key.Matches(msg, m.keys.copyRef):
		return m.copyFocusedRef()
	case msg.Code == tea.KeyEscape, msg.Code == tea.KeyEnter, key.Matches(msg, m.keys.quit):
		m.mode = modeNone
		m.board.Deselect()
		return m, nil
	}
	return m, nil
}

// startCardForm opens the card form, prefilled when editing.
func (m *Model) startCardForm(card *domain.Card) tea.Cmd {
	vals := make([]string, formFieldCount)
	m.mode = modeAddCard
	m.formCardID = ""
	m.formColumnID = m.currentColumnID()
	if card != nil {
		m.mode = modeEditCard
		m.formCardID = card.ID
		m.formColumnID = card.ColumnID
		vals[formTitle] = card.Title
		vals[formDescription] = card.Description
		vals[formPriority] = string(card.Priority)
		vals[formAssignee] = card.Assignee
		vals[formTags] = strings.Join(card.Tags, ", ")
		vals[formDue] = formatDue(card.DueDate)
	} else if m.formColumnID == "" {
		m.mode = modeNone
		m.status = "board has no columns"
		return nil
	}
	m.formInputs = []textinput.Model{
		newModalInput("title: ", "required", vals[formTitle], 120),
		newModalInput("description: ", "markdown", vals[formDescription], 2000),
		newModalInput("priority: ", "low | medium | high | urgent", vals[formPriority], 12),
		newModalInput("assignee: ", "", vals[formAssignee], 60),
		newModalInput("tags: ", "comma separated", vals[formTags], 200),
		newModalInput("due: ", "YYYY-MM-DD", vals[formDue], 32),
	}
	m.formFocus = 0
	m.status = "new card"
	if card != nil {
		m.status = "edit card"
	}
	return m.formInputs[0].Focus()
}

func (m *Model) focusFormField(idx int) tea.Cmd {
	if len(m.formInputs) == 0 {
		return nil
	}
	idx = (idx + len(m.formInputs)) % len(m.formInputs)
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	m.formFocus = idx
	return m.formInputs[idx].Focus()
}

func (m Model) handleFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Code == tea.KeyEscape:
		m.mode = modeNone
		m.formInputs = nil
		m.status = "cancelled"
		if m.formCardID != "" && m.board.Selected() == m.formCardID {
			m.mode = modeCardInfo
		}
		return m, nil
	case msg.Code == tea.KeyTab && msg.Mod.Contains(tea.ModShift), msg.String() == "shift+tab", msg.Code == tea.KeyUp:
		return m, m.focusFormField(m.formFocus - 1)
	case msg.Code == tea.KeyTab, msg.Code == tea.KeyDown:
		return m, m.focusFormField(m.formFocus + 1)
	case msg.Code == tea.KeyEnter:
		return m.submitCardForm()
	}
	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	return m, cmd
}

func (m Model) formValues() []string {
	out := make([]string, formFieldCount)
	for i := range m.formInputs {
		if i < formFieldCount {
			out[i] = strings.TrimSpace(m.formInputs[i].Value())
		}
	}
	return out
}

func (m Model) submitCardForm() (tea.Model, tea.Cmd) {
	vals := m.formValues()
	priority, err := domain.ParsePriority(vals[formPriority])
	if err != nil {
		m.status = "priority must be low, medium, high or urgent"
		return m, nil
	}
	due, err := domain.ParseDueDate(vals[formDue])
	if err != nil {
		m.status = "due date must be YYYY-MM-DD"
		return m, nil
	}
	tags := parseTagsInput(vals[formTags])

	if m.mode == modeAddCard {
		mut, ok := m.board.CreateCard(m.formColumnID, domain.CardDraft{
			Title:       vals[formTitle],
			Description: vals[formDescription],
			Priority:    priority,
			Assignee:    vals[formAssignee],
			Tags:        tags,
			DueDate:     due,
		})
		if !ok {
			m.status = "title is required"
			return m, nil
		}
		m.mode = modeNone
		m.formInputs = nil
		return m.startMutation(mut, "creating card...")
	}

	card, ok := m.board.Card(m.formCardID)
	if !ok {
		m.mode = modeNone
		m.formInputs = nil
		m.status = "card no longer exists"
		return m, nil
	}
	patch := formPatch(card, vals, priority, tags, due)
	if patch.IsEmpty() {
		m.mode = modeNone
		m.formInputs = nil
		m.status = "no changes"
		return m, nil
	}
	if err := patch.Validate(); err != nil {
		m.status = "invalid card: " + err.Error()
		return m, nil
	}
	mut, ok := m.board.UpdateCard(card.ID, patch)
	if !ok {
		m.status = "card no longer exists"
		return m, nil
	}
	m.mode = modeNone
	m.formInputs = nil
	return m.startMutation(mut, "saving card...")
}

// formPatch builds a patch touching only the fields the form changed.
func formPatch(card domain.Card, vals []string, priority domain.Priority, tags []string, due *time.Time) domain.CardPatch {
	var patch domain.CardPatch
	if title := vals[formTitle]; title != card.Title {
		patch.Title = &title
	}
	if desc := vals[formDescription]; desc != card.Description {
		patch.Description = &desc
	}
	if priority != card.Priority {
		patch.Priority = &priority
	}
	if assignee := vals[formAssignee]; assignee != card.Assignee {
		patch.Assignee = &assignee
	}
	if !slices.Equal(tags, card.Tags) {
		patch.Tags = &tags
	}
	switch {
	case due == nil && card.DueDate != nil:
		patch.ClearDueDate = true
	case due != nil && (card.DueDate == nil || !due.Equal(*card.DueDate)):
		patch.DueDate = due
	}
	return patch
}

// parseTagsInput splits comma separated tags into the normalized card form.
func parseTagsInput(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

func (m Model) moveFocusedCard(delta int) (tea.Model, tea.Cmd) {
	id := m.board.Focused()
	if id == "" {
		m.status = "focus a card to move"
		return m, nil
	}
	mut, ok := m.board.MoveCardToAdjacentColumn(id, delta)
	if !ok {
		m.status = "no column in that direction"
		return m, nil
	}
	return m.startMutation(mut, "moving card...")
}

func (m Model) moveCurrentColumn(delta int) (tea.Model, tea.Cmd) {
	colID := m.currentColumnID()
	idx := slices.IndexFunc(m.board.Columns(), func(c domain.Column) bool { return c.ID == colID })
	if idx < 0 {
		m.status = "no column to move"
		return m, nil
	}
	mut, ok := m.board.ReorderColumn(colID, idx+delta)
	if !ok {
		m.status = "column is already at the edge"
		return m, nil
	}
	return m.startMutation(mut, "moving column...")
}

func (m Model) copyFocusedRef() (tea.Model, tea.Cmd) {
	card, ok := m.board.Card(m.board.Focused())
	if !ok {
		m.status = "focus a card to copy"
		return m, nil
	}
	ref := card.ID + " " + card.Title
	if b, ok := m.currentBoard(); ok {
		ref = b.Slug + "#" + ref
	}
	write := m.copyText
	return m, func() tea.Msg {
		if write == nil {
			return copiedMsg{ref: ref, err: fmt.Errorf("clipboard unavailable")}
		}
		return copiedMsg{ref: ref, err: write(ref)}
	}
}

func (m Model) switchBoard(delta int) (tea.Model, tea.Cmd) {
	if len(m.boards) < 2 {
		m.status = "only one board"
		return m, nil
	}
	if m.inflight > 0 {
		m.status = "waiting for pending changes"
		return m, nil
	}
	idx := (m.boardIdx + delta + len(m.boards)) % len(m.boards)
	m.boardIdx = idx
	m.pendingBoardID = m.boards[idx].ID
	m.board.Focus("")
	m.board.Deselect()
	m.status = "loading..."
	return m, m.loadData
}

func (m Model) currentBoard() (domain.Board, bool) {
	if len(m.boards) == 0 {
		return domain.Board{}, false
	}
	return m.boards[clamp(m.boardIdx, 0, len(m.boards)-1)], true
}

// currentColumnID is the focused card's column, or the first column.
func (m Model) currentColumnID() string {
	if card, ok := m.board.Card(m.board.Focused()); ok {
		return card.ColumnID
	}
	cols := m.board.Columns()
	if len(cols) == 0 {
		return ""
	}
	return cols[0].ID
}

func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || m.help.ShowAll || msg.Button != tea.MouseLeft {
		return m, nil
	}
	hit := m.hitTest(msg.X, msg.Y)
	if !hit.ok {
		return m, nil
	}
	switch {
	case hit.cardID != "":
		if m.board.DragStart(hit.cardID, kanban.ItemCard) {
			m.gesture = &mouseGesture{itemID: hit.cardID, itemType: kanban.ItemCard, hoverID: hit.columnID}
		}
	case hit.header:
		if m.board.DragStart(hit.columnID, kanban.ItemColumn) {
			m.gesture = &mouseGesture{itemID: hit.columnID, itemType: kanban.ItemColumn, hoverID: hit.columnID}
		}
	}
	return m, nil
}

func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.gesture == nil {
		return m, nil
	}
	g := *m.gesture
	g.hoverID = ""
	if hit := m.hitTest(msg.X, msg.Y); hit.ok {
		g.hoverID = hit.columnID
	}
	m.gesture = &g
	return m, nil
}

// dropZone returns the hovered column when the dragged item may land on it.
func (m Model) dropZone() string {
	if m.gesture == nil || m.gesture.hoverID == "" {
		return ""
	}
	if !m.board.Drag().IsOverDropZone(m.gesture.hoverID) {
		return ""
	}
	return m.gesture.hoverID
}

// handleMouseRelease drops the dragged item. Releases inside the drag
// threshold count as a click and focus the pressed card.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	g := m.gesture
	m.gesture = nil
	if g == nil {
		return m, nil
	}
	drag := m.board.Drag()
	quick := m.now().Sub(drag.State().StartedAt) < drag.MinDuration()

	hit := m.hitTest(msg.X, msg.Y)
	if !hit.ok {
		m.board.DragEnd()
		return m, nil
	}
	targetID, position := hit.columnID, -1
	if g.itemType == kanban.ItemCard {
		switch {
		case hit.cardID != "":
			targetID = hit.cardID
		case hit.header:
			position = 0
		}
	}
	mut, ok := m.board.Drop(targetID, position)
	if ok {
		status := "moving card..."
		if mut.Kind == kanban.MutationReorderColumn {
			status = "moving column..."
		}
		return m.startMutation(mut, status)
	}
	if quick && g.itemType == kanban.ItemCard {
		m.board.Focus(g.itemID)
	}
	return m, nil
}

func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone && m.mode != modeSearch {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		return m.dispatchBoardKey(kanban.KeyEvent{Key: kanban.KeyArrowUp})
	case tea.MouseWheelDown:
		return m.dispatchBoardKey(kanban.KeyEvent{Key: kanban.KeyArrowDown})
	}
	return m, nil
}

// toKeyEvent translates a terminal key press into the board's key vocabulary.
func toKeyEvent(msg tea.KeyPressMsg) (kanban.KeyEvent, bool) {
	ev := kanban.KeyEvent{
		Ctrl:  msg.Mod.Contains(tea.ModCtrl),
		Meta:  msg.Mod.Contains(tea.ModSuper) || msg.Mod.Contains(tea.ModMeta),
		Shift: msg.Mod.Contains(tea.ModShift),
		Alt:   msg.Mod.Contains(tea.ModAlt),
	}
	switch msg.Code {
	case tea.KeyUp:
		ev.Key = kanban.KeyArrowUp
	case tea.KeyDown:
		ev.Key = kanban.KeyArrowDown
	case tea.KeyLeft:
		ev.Key = kanban.KeyArrowLeft
	case tea.KeyRight:
		ev.Key = kanban.KeyArrowRight
	case tea.KeyEnter:
		ev.Key = kanban.KeyEnter
	case tea.KeyEscape:
		ev.Key = kanban.KeyEscape
	case tea.KeyTab:
		ev.Key = kanban.KeyTab
	case tea.KeyDelete:
		ev.Key = kanban.KeyDelete
	case tea.KeyBackspace:
		ev.Key = kanban.KeyBackspace
	default:
		if msg.Code == 0 {
			return kanban.KeyEvent{}, false
		}
		ev.Key = string(msg.Code)
	}
	return ev, true
}

func rejectedStatus(mut kanban.Mutation, err error) string {
	switch mut.Kind {
	case kanban.MutationMove:
		return "move rejected, reverted: " + err.Error()
	case kanban.MutationUpdate:
		return "edit rejected, reverted: " + err.Error()
	case kanban.MutationReorderColumn:
		return "column move rejected, reverted: " + err.Error()
	case kanban.MutationCreate:
		return "create failed: " + err.Error()
	case kanban.MutationDelete:
		return "delete failed: " + err.Error()
	default:
		return err.Error()
	}
}

func settledStatus(mut kanban.Mutation) string {
	switch mut.Kind {
	case kanban.MutationMove:
		return "card moved"
	case kanban.MutationUpdate:
		return "card saved"
	case kanban.MutationReorderColumn:
		return "column moved"
	case kanban.MutationCreate:
		return "card created"
	case kanban.MutationDelete:
		return "card deleted"
	default:
		return "ready"
	}
}

func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
		in.CursorEnd()
	}
	return in
}

func formatDue(due *time.Time) string {
	if due == nil {
		return ""
	}
	return due.UTC().Format("2006-01-02")
}

func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

package kanban

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/hylla/tavla/internal/domain"
)

// Persistence is the collaborator that confirms or rejects board mutations.
type Persistence interface {
	MoveCard(ctx context.Context, cardID, columnID string, position int) error
	CreateCard(ctx context.Context, columnID string, draft domain.CardDraft) error
	UpdateCard(ctx context.Context, cardID string, patch domain.CardPatch) error
	DeleteCard(ctx context.Context, cardID string) error
	ReorderColumn(ctx context.Context, columnID string, order int) error
}

// MutationKind identifies a persistence call.
type MutationKind string

const (
	MutationMove          MutationKind = "move"
	MutationCreate        MutationKind = "create"
	MutationUpdate        MutationKind = "update"
	MutationDelete        MutationKind = "delete"
	MutationReorderColumn MutationKind = "reorder_column"
)

// Mutation is a board change that is waiting on the persistence collaborator.
// Move, update and column reorders are already rendered when it is returned.
type Mutation struct {
	Kind     MutationKind
	CardID   string
	ColumnID string
	Position int
	Order    int
	Patch    domain.CardPatch
	Draft    domain.CardDraft

	previousOrder []string
}

// Optimistic reports whether the mutation was rendered before persistence answered.
func (m Mutation) Optimistic() bool {
	switch m.Kind {
	case MutationMove, MutationUpdate, MutationReorderColumn:
		return true
	default:
		return false
	}
}

// SettleResult reports what Settle did with a persistence answer.
type SettleResult struct {
	Committed bool
	Reverted  bool
	// Reload asks the host to fetch the confirmed collection again.
	Reload bool
}

// BoardKeyResult is the outcome of a key press on the board.
type BoardKeyResult struct {
	PreventDefault bool
	Focused        string
	Selected       string
	SearchOpened   bool
	SearchClosed   bool
	Mutation       *Mutation
}

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithLogger sets the logger used for rollback notices.
func WithLogger(logger *charmLog.Logger) BoardOption {
	return func(b *Board) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithClock injects the drag clock.
func WithClock(clock Clock) BoardOption {
	return func(b *Board) {
		b.clock = clock
	}
}

// WithMinDragDuration sets the drag false-start threshold.
func WithMinDragDuration(d time.Duration) BoardOption {
	return func(b *Board) {
		b.minDrag = d
	}
}

// WithSearchDebounce sets the search recomputation delay.
func WithSearchDebounce(d time.Duration) BoardOption {
	return func(b *Board) {
		b.debounce = d
	}
}

// WithBoardSearchWeights overrides the search scoring table.
func WithBoardSearchWeights(w SearchWeights) BoardOption {
	return func(b *Board) {
		b.weights = &w
	}
}

// Board composes the drag controller, optimistic store, keyboard navigator and
// search session over one board's columns and cards. It is not safe for
// concurrent use; only Persist may run off the owning goroutine.
type Board struct {
	persistence Persistence
	logger      *charmLog.Logger
	clock       Clock
	minDrag     time.Duration
	debounce    time.Duration
	weights     *SearchWeights

	columns  []domain.Column
	store    *OptimisticStore
	drag     *DragController
	nav      *KeyboardNavigator
	search   *SearchSession
	inflight map[string]int

	focused  string
	selected string
}

// NewBoard constructs a board over a confirmed snapshot.
func NewBoard(p Persistence, columns []domain.Column, cards []domain.Card, opts ...BoardOption) *Board {
	b := &Board{
		persistence: p,
		logger:      charmLog.New(io.Discard),
		inflight:    map[string]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	searchOpts := []SearchOption{WithStatusResolver(b.columnTitle)}
	if b.weights != nil {
		searchOpts = append(searchOpts, WithSearchWeights(*b.weights))
	}
	b.drag = NewDragController(b.minDrag, b.clock)
	b.nav = NewKeyboardNavigator()
	b.search = NewSearchSession(NewSearchEngine(searchOpts...), b.debounce)
	b.store = NewOptimisticStore(nil)
	b.Reset(columns, cards)
	return b
}

// Reset installs a new confirmed snapshot. Speculation is dropped and focus
// or selection on cards that no longer exist is cleared.
func (b *Board) Reset(columns []domain.Column, cards []domain.Card) {
	b.columns = slices.Clone(columns)
	slices.SortStableFunc(b.columns, func(x, y domain.Column) int {
		return x.Order - y.Order
	})
	b.store.Reset(cards)
	b.inflight = map[string]int{}
	if _, ok := b.store.Card(b.focused); !ok {
		b.focused = ""
	}
	if _, ok := b.store.Card(b.selected); !ok {
		b.selected = ""
	}
	if b.search.IsOpen() {
		b.search.Refresh(b.store.Cards())
	}
}

// Columns returns the columns in display order.
func (b *Board) Columns() []domain.Column {
	return slices.Clone(b.columns)
}

// Column returns one column.
func (b *Board) Column(id string) (domain.Column, bool) {
	for _, c := range b.columns {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Column{}, false
}

// Cards returns the rendered cards.
func (b *Board) Cards() []domain.Card {
	return b.store.Cards()
}

// Card returns the rendered copy of one card.
func (b *Board) Card(id string) (domain.Card, bool) {
	return b.store.Card(id)
}

// IsPending reports whether a card is waiting on persistence.
func (b *Board) IsPending(id string) bool {
	return b.store.IsPending(id)
}

// Store exposes the optimistic store.
func (b *Board) Store() *OptimisticStore {
	return b.store
}

// Drag exposes the drag controller.
func (b *Board) Drag() *DragController {
	return b.drag
}

// Navigator exposes the keyboard navigator for focus handle registration.
func (b *Board) Navigator() *KeyboardNavigator {
	return b.nav
}

// Search exposes the search session.
func (b *Board) Search() *SearchSession {
	return b.search
}

// Focused returns the focused card id.
func (b *Board) Focused() string {
	return b.focused
}

// Selected returns the selected card id.
func (b *Board) Selected() string {
	return b.selected
}

// Focus moves focus to a card. Unknown ids clear focus.
func (b *Board) Focus(id string) {
	if _, ok := b.store.Card(id); !ok {
		b.focused = ""
		return
	}
	b.focused = id
	if h, ok := b.nav.Handle(id); ok {
		h.Focus()
	}
}

// Select focuses and selects a card. Unknown ids clear the selection.
func (b *Board) Select(id string) {
	if _, ok := b.store.Card(id); !ok {
		b.selected = ""
		return
	}
	b.Focus(id)
	b.selected = id
}

// Deselect clears the selection.
func (b *Board) Deselect() {
	b.selected = ""
}

// Layout returns the card grid. Settled cards order by position. A card whose
// column or position is still pending is inserted at index Position among the
// rest of its column, the same placement storage applies when the move lands.
func (b *Board) Layout() Layout {
	cards := b.store.Cards()
	type slot struct {
		id  string
		pos int
		idx int
	}
	settled := map[string][]slot{}
	moving := map[string][]slot{}
	for i, c := range cards {
		s := slot{id: c.ID, pos: c.Position, idx: i}
		if b.store.IsPlacementPending(c.ID) {
			moving[c.ColumnID] = append(moving[c.ColumnID], s)
			continue
		}
		settled[c.ColumnID] = append(settled[c.ColumnID], s)
	}
	byPosition := func(x, y slot) int {
		if x.pos != y.pos {
			return x.pos - y.pos
		}
		return x.idx - y.idx
	}
	out := make(Layout, 0, len(b.columns))
	for _, col := range b.columns {
		rest := settled[col.ID]
		slices.SortStableFunc(rest, byPosition)
		ids := make([]string, 0, len(rest)+len(moving[col.ID]))
		for _, s := range rest {
			ids = append(ids, s.id)
		}
		incoming := moving[col.ID]
		slices.SortStableFunc(incoming, byPosition)
		for _, s := range incoming {
			ids = slices.Insert(ids, min(max(s.pos, 0), len(ids)), s.id)
		}
		out = append(out, ColumnLayout{ColumnID: col.ID, CardIDs: ids})
	}
	return out
}

// ColumnCards returns the rendered cards of one column in layout order.
func (b *Board) ColumnCards(columnID string) []domain.Card {
	for _, col := range b.Layout() {
		if col.ColumnID != columnID {
			continue
		}
		out := make([]domain.Card, 0, len(col.CardIDs))
		for _, id := range col.CardIDs {
			if c, ok := b.store.Card(id); ok {
				out = append(out, c)
			}
		}
		return out
	}
	return nil
}

// MoveCard renders a card in another column and returns the pending move.
// A negative position appends to the column. Unknown ids are a no-op.
func (b *Board) MoveCard(cardID, columnID string, position int) (Mutation, bool) {
	card, ok := b.store.Card(cardID)
	if !ok {
		return Mutation{}, false
	}
	if _, ok := b.Column(columnID); !ok {
		return Mutation{}, false
	}
	if position < 0 {
		position = 0
		for _, c := range b.store.Cards() {
			if c.ColumnID == columnID && c.ID != cardID {
				position++
			}
		}
	}
	if card.ColumnID == columnID && card.Position == position {
		return Mutation{}, false
	}
	if !b.store.ApplyOptimisticUpdate(cardID, domain.MovePatch(columnID, position)) {
		return Mutation{}, false
	}
	b.inflight[cardID]++
	return Mutation{Kind: MutationMove, CardID: cardID, ColumnID: columnID, Position: position}, true
}

// MoveCardToAdjacentColumn moves a card one column left (delta < 0) or right, appending it.
func (b *Board) MoveCardToAdjacentColumn(cardID string, delta int) (Mutation, bool) {
	card, ok := b.store.Card(cardID)
	if !ok || delta == 0 {
		return Mutation{}, false
	}
	idx := slices.IndexFunc(b.columns, func(c domain.Column) bool { return c.ID == card.ColumnID })
	if idx < 0 {
		return Mutation{}, false
	}
	next := idx + delta
	if next < 0 || next >= len(b.columns) {
		return Mutation{}, false
	}
	return b.MoveCard(cardID, b.columns[next].ID, -1)
}

// UpdateCard renders a patch and returns the pending update.
func (b *Board) UpdateCard(cardID string, patch domain.CardPatch) (Mutation, bool) {
	if !b.store.ApplyOptimisticUpdate(cardID, patch) {
		return Mutation{}, false
	}
	b.inflight[cardID]++
	return Mutation{Kind: MutationUpdate, CardID: cardID, Patch: patch}, true
}

// CreateCard returns a create request. Created cards appear after the host reloads.
func (b *Board) CreateCard(columnID string, draft domain.CardDraft) (Mutation, bool) {
	if _, ok := b.Column(columnID); !ok {
		return Mutation{}, false
	}
	if strings.TrimSpace(draft.Title) == "" {
		return Mutation{}, false
	}
	return Mutation{Kind: MutationCreate, ColumnID: columnID, Draft: draft}, true
}

// DeleteCard returns a delete request. The card disappears after the host reloads.
func (b *Board) DeleteCard(cardID string) (Mutation, bool) {
	if _, ok := b.store.Card(cardID); !ok {
		return Mutation{}, false
	}
	return Mutation{Kind: MutationDelete, CardID: cardID}, true
}

// ReorderColumn renders a column at a new index and returns the pending reorder.
func (b *Board) ReorderColumn(columnID string, order int) (Mutation, bool) {
	idx := slices.IndexFunc(b.columns, func(c domain.Column) bool { return c.ID == columnID })
	if idx < 0 {
		return Mutation{}, false
	}
	order = clamp(order, 0, len(b.columns)-1)
	if order == idx {
		return Mutation{}, false
	}
	previous := b.columnOrder()
	col := b.columns[idx]
	cols := slices.Delete(slices.Clone(b.columns), idx, idx+1)
	cols = slices.Insert(cols, order, col)
	for i := range cols {
		cols[i].Order = i
	}
	b.columns = cols
	return Mutation{Kind: MutationReorderColumn, ColumnID: columnID, Order: order, previousOrder: previous}, true
}

// DragStart begins dragging a card or column. Unknown ids are ignored.
func (b *Board) DragStart(itemID string, itemType ItemType) bool {
	switch itemType {
	case ItemCard:
		card, ok := b.store.Card(itemID)
		if !ok {
			return false
		}
		return b.drag.DragStart(itemID, ItemCard, card.ColumnID)
	case ItemColumn:
		if _, ok := b.Column(itemID); !ok {
			return false
		}
		return b.drag.DragStart(itemID, ItemColumn, "")
	default:
		return false
	}
}

// DragEnd abandons the gesture and reports whether it was deliberate.
func (b *Board) DragEnd() bool {
	return b.drag.DragEnd()
}

// TargetType resolves a drop zone id onto a column or card.
func (b *Board) TargetType(targetID string) (ItemType, bool) {
	if _, ok := b.Column(targetID); ok {
		return ItemColumn, true
	}
	if _, ok := b.store.Card(targetID); ok {
		return ItemCard, true
	}
	return "", false
}

// Drop ends the drag on a target and returns the resulting mutation.
// Illegal targets and false starts end the drag without a mutation.
func (b *Board) Drop(targetID string, position int) (Mutation, bool) {
	targetType, ok := b.TargetType(targetID)
	if !ok || !b.drag.CanDrop(targetType, targetID) {
		b.drag.DragEnd()
		return Mutation{}, false
	}
	intent, ok := b.drag.Drop(targetID, position)
	if !ok {
		return Mutation{}, false
	}
	if !intent.Deliberate {
		b.logger.Debug("ignored false-start drop", "item_id", intent.ItemID, "duration", intent.Duration)
		return Mutation{}, false
	}

	switch intent.ItemType {
	case ItemCard:
		if targetType == ItemColumn {
			return b.MoveCard(intent.ItemID, targetID, position)
		}
		target, _ := b.store.Card(targetID)
		if position < 0 {
			position = b.layoutIndex(target.ColumnID, targetID)
		}
		return b.MoveCard(intent.ItemID, target.ColumnID, position)
	case ItemColumn:
		idx := slices.IndexFunc(b.columns, func(c domain.Column) bool { return c.ID == targetID })
		return b.ReorderColumn(intent.ItemID, idx)
	default:
		return Mutation{}, false
	}
}

// Persist sends a mutation to the collaborator. It reads no board state.
func (b *Board) Persist(ctx context.Context, m Mutation) error {
	if b.persistence == nil {
		return nil
	}
	switch m.Kind {
	case MutationMove:
		return b.persistence.MoveCard(ctx, m.CardID, m.ColumnID, m.Position)
	case MutationCreate:
		return b.persistence.CreateCard(ctx, m.ColumnID, m.Draft)
	case MutationUpdate:
		return b.persistence.UpdateCard(ctx, m.CardID, m.Patch)
	case MutationDelete:
		return b.persistence.DeleteCard(ctx, m.CardID)
	case MutationReorderColumn:
		return b.persistence.ReorderColumn(ctx, m.ColumnID, m.Order)
	default:
		return fmt.Errorf("unknown mutation kind %q", m.Kind)
	}
}

// Settle applies a persistence answer. Failures revert the speculation and
// are logged; they are never fatal.
func (b *Board) Settle(m Mutation, err error) SettleResult {
	switch m.Kind {
	case MutationMove, MutationUpdate:
		remaining := b.release(m.CardID)
		if err != nil {
			b.logger.Warn("card change rejected, reverting", "kind", m.Kind, "card_id", m.CardID, "err", err)
			return SettleResult{Reverted: b.store.RevertOptimisticUpdate(m.CardID), Reload: true}
		}
		if remaining > 0 {
			return SettleResult{}
		}
		if !b.store.IsPlacementPending(m.CardID) {
			return SettleResult{Committed: b.store.CommitOptimisticUpdate(m.CardID)}
		}
		// Settled positions follow the rendered order, as storage renumbers both columns.
		layout := b.Layout()
		committed := b.store.CommitOptimisticUpdate(m.CardID)
		for _, col := range layout {
			b.store.Renumber(col.CardIDs)
		}
		return SettleResult{Committed: committed}
	case MutationReorderColumn:
		if err != nil {
			b.logger.Warn("column reorder rejected, reverting", "column_id", m.ColumnID, "err", err)
			b.restoreColumnOrder(m.previousOrder)
			return SettleResult{Reverted: true, Reload: true}
		}
		return SettleResult{Committed: true}
	case MutationCreate, MutationDelete:
		if err != nil {
			b.logger.Warn("card change rejected", "kind", m.Kind, "card_id", m.CardID, "column_id", m.ColumnID, "err", err)
			return SettleResult{}
		}
		if m.Kind == MutationDelete {
			if b.focused == m.CardID {
				b.focused = ""
			}
			if b.selected == m.CardID {
				b.selected = ""
			}
		}
		return SettleResult{Committed: true, Reload: true}
	default:
		return SettleResult{}
	}
}

// Run persists and settles a mutation in one blocking call.
func (b *Board) Run(ctx context.Context, m Mutation) (SettleResult, error) {
	err := b.Persist(ctx, m)
	return b.Settle(m, err), err
}

// OpenSearch opens the search overlay over the rendered cards.
func (b *Board) OpenSearch() {
	b.search.Open(b.store.Cards())
}

// SetSearchQuery records a query keystroke and returns its debounce ticket.
func (b *Board) SetSearchQuery(query string) uint64 {
	return b.search.SetQuery(query)
}

// FireSearch runs the debounced recomputation for a ticket.
func (b *Board) FireSearch(ticket uint64) bool {
	return b.search.Fire(ticket, b.store.Cards())
}

// HandleKey routes a key press to search, shortcuts or the navigator.
func (b *Board) HandleKey(ev KeyEvent) BoardKeyResult {
	if b.search.IsOpen() {
		if ev.Primary() && strings.EqualFold(ev.Key, "k") {
			b.search.Close()
			return BoardKeyResult{PreventDefault: true, Focused: b.focused, Selected: b.selected, SearchClosed: true}
		}
		res := b.search.HandleKey(ev)
		out := BoardKeyResult{PreventDefault: res.Handled, SearchClosed: res.Closed}
		if res.SelectedID != "" {
			b.Select(res.SelectedID)
		}
		out.Focused, out.Selected = b.focused, b.selected
		return out
	}

	if ev.Primary() && strings.EqualFold(ev.Key, "k") {
		b.OpenSearch()
		return BoardKeyResult{PreventDefault: true, Focused: b.focused, Selected: b.selected, SearchOpened: true}
	}
	if ev.Primary() && (ev.Key == KeyDelete || ev.Key == KeyBackspace) {
		out := BoardKeyResult{PreventDefault: true, Focused: b.focused, Selected: b.selected}
		if m, ok := b.DeleteCard(b.focused); ok {
			out.Mutation = &m
		}
		return out
	}

	res := b.nav.HandleKeyDown(ev, b.Layout(), b.focused)
	b.focused = res.Focused
	switch {
	case res.Activated, ev.Key == KeyEnter && b.focused != "":
		b.selected = b.focused
	case res.Cleared:
		b.selected = ""
	}
	return BoardKeyResult{PreventDefault: res.PreventDefault, Focused: b.focused, Selected: b.selected}
}

// layoutIndex returns the rendered index of a card within its column, or -1.
func (b *Board) layoutIndex(columnID, cardID string) int {
	for _, col := range b.Layout() {
		if col.ColumnID == columnID {
			return slices.Index(col.CardIDs, cardID)
		}
	}
	return -1
}

func (b *Board) release(cardID string) int {
	n := b.inflight[cardID] - 1
	if n <= 0 {
		delete(b.inflight, cardID)
		return 0
	}
	b.inflight[cardID] = n
	return n
}

func (b *Board) columnOrder() []string {
	out := make([]string, 0, len(b.columns))
	for _, c := range b.columns {
		out = append(out, c.ID)
	}
	return out
}

func (b *Board) restoreColumnOrder(ids []string) {
	if len(ids) == 0 {
		return
	}
	rank := make(map[string]int, len(ids))
	for i, id := range ids {
		rank[id] = i
	}
	slices.SortStableFunc(b.columns, func(x, y domain.Column) int {
		rx, okx := rank[x.ID]
		ry, oky := rank[y.ID]
		switch {
		case okx && oky:
			return rx - ry
		case okx:
			return -1
		case oky:
			return 1
		default:
			return 0
		}
	})
	for i := range b.columns {
		b.columns[i].Order = i
	}
}

func (b *Board) columnTitle(columnID string) string {
	if c, ok := b.Column(columnID); ok {
		return c.Title
	}
	return ""
}

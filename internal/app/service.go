package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hylla/tavla/internal/domain"
	"github.com/hylla/tavla/internal/kanban"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	DefaultBoardName string
	ColumnTemplates  []ColumnTemplate
	SearchWeights    *kanban.SearchWeights
}

// ColumnTemplate describes one column created for every new board.
type ColumnTemplate struct {
	Title string
	Color string
	Order int
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// BoardState is one board with its columns and cards, as confirmed by storage.
type BoardState struct {
	Board   domain.Board
	Columns []domain.Column
	Cards   []domain.Card
}

// Service implements board use cases over a Repository. It satisfies kanban.Persistence.
type Service struct {
	repo             Repository
	idGen            IDGenerator
	clock            Clock
	defaultBoardName string
	templates        []ColumnTemplate
	searchOpts       []kanban.SearchOption
}

var _ kanban.Persistence = (*Service)(nil)

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	name := strings.TrimSpace(cfg.DefaultBoardName)
	if name == "" {
		name = "Pipeline"
	}
	templates := sanitizeColumnTemplates(cfg.ColumnTemplates)
	if len(templates) == 0 {
		templates = defaultColumnTemplates()
	}
	var searchOpts []kanban.SearchOption
	if cfg.SearchWeights != nil {
		searchOpts = append(searchOpts, kanban.WithSearchWeights(*cfg.SearchWeights))
	}

	return &Service{
		repo:             repo,
		idGen:            idGen,
		clock:            clock,
		defaultBoardName: name,
		templates:        templates,
		searchOpts:       searchOpts,
	}
}

// EnsureDefaultBoard returns the first board, creating one with default columns when storage is empty.
func (s *Service) EnsureDefaultBoard(ctx context.Context) (domain.Board, error) {
	boards, err := s.repo.ListBoards(ctx)
	if err != nil {
		return domain.Board{}, err
	}
	if len(boards) > 0 {
		return boards[0], nil
	}
	return s.CreateBoard(ctx, s.defaultBoardName, "Default pipeline")
}

// CreateBoard creates a board and its template columns.
func (s *Service) CreateBoard(ctx context.Context, name, description string) (domain.Board, error) {
	now := s.clock()
	board, err := domain.NewBoard(s.idGen(), name, description, now)
	if err != nil {
		return domain.Board{}, err
	}
	if err := s.repo.CreateBoard(ctx, board); err != nil {
		return domain.Board{}, err
	}
	for idx, tpl := range s.templates {
		column, err := domain.NewColumn(s.idGen(), board.ID, tpl.Title, idx, tpl.Color, now)
		if err != nil {
			return domain.Board{}, fmt.Errorf("create default column %q: %w", tpl.Title, err)
		}
		if err := s.repo.CreateColumn(ctx, column); err != nil {
			return domain.Board{}, fmt.Errorf("persist default column %q: %w", tpl.Title, err)
		}
	}
	return board, nil
}

// ListBoards lists boards.
func (s *Service) ListBoards(ctx context.Context) ([]domain.Board, error) {
	return s.repo.ListBoards(ctx)
}

// GetBoard returns one board.
func (s *Service) GetBoard(ctx context.Context, boardID string) (domain.Board, error) {
	return s.repo.GetBoard(ctx, strings.TrimSpace(boardID))
}

// CreateColumn appends a column to a board.
func (s *Service) CreateColumn(ctx context.Context, boardID, title, color string) (domain.Column, error) {
	columns, err := s.ListColumns(ctx, boardID)
	if err != nil {
		return domain.Column{}, err
	}
	column, err := domain.NewColumn(s.idGen(), boardID, title, len(columns), color, s.clock())
	if err != nil {
		return domain.Column{}, err
	}
	if err := s.repo.CreateColumn(ctx, column); err != nil {
		return domain.Column{}, err
	}
	return column, nil
}

// ListColumns lists a board's columns by order.
func (s *Service) ListColumns(ctx context.Context, boardID string) ([]domain.Column, error) {
	columns, err := s.repo.ListColumns(ctx, strings.TrimSpace(boardID))
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(columns, func(a, b domain.Column) int {
		return a.Order - b.Order
	})
	return columns, nil
}

// ListCards lists a board's cards by column order, then position.
func (s *Service) ListCards(ctx context.Context, boardID string) ([]domain.Card, error) {
	columns, err := s.ListColumns(ctx, boardID)
	if err != nil {
		return nil, err
	}
	cards, err := s.repo.ListCards(ctx, strings.TrimSpace(boardID))
	if err != nil {
		return nil, err
	}
	rank := make(map[string]int, len(columns))
	for i, c := range columns {
		rank[c.ID] = i
	}
	slices.SortStableFunc(cards, func(a, b domain.Card) int {
		if ra, rb := rank[a.ColumnID], rank[b.ColumnID]; ra != rb {
			return ra - rb
		}
		return a.Position - b.Position
	})
	return cards, nil
}

// GetCard returns one card.
func (s *Service) GetCard(ctx context.Context, cardID string) (domain.Card, error) {
	return s.repo.GetCard(ctx, strings.TrimSpace(cardID))
}

// LoadBoard returns a board with its columns and cards.
func (s *Service) LoadBoard(ctx context.Context, boardID string) (BoardState, error) {
	board, err := s.GetBoard(ctx, boardID)
	if err != nil {
		return BoardState{}, err
	}
	columns, err := s.ListColumns(ctx, board.ID)
	if err != nil {
		return BoardState{}, err
	}
	cards, err := s.ListCards(ctx, board.ID)
	if err != nil {
		return BoardState{}, err
	}
	return BoardState{Board: board, Columns: columns, Cards: cards}, nil
}

// AddCard creates a card at the bottom of a column and returns it.
func (s *Service) AddCard(ctx context.Context, columnID string, draft domain.CardDraft) (domain.Card, error) {
	column, err := s.repo.GetColumn(ctx, strings.TrimSpace(columnID))
	if err != nil {
		return domain.Card{}, err
	}
	cards, err := s.repo.ListCards(ctx, column.BoardID)
	if err != nil {
		return domain.Card{}, err
	}
	position := len(cardsInColumn(cards, column.ID, ""))
	card, err := domain.NewCard(domain.CardInput{
		ID:          s.idGen(),
		BoardID:     column.BoardID,
		ColumnID:    column.ID,
		Position:    position,
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    draft.Priority,
		Assignee:    draft.Assignee,
		Tags:        draft.Tags,
		DueDate:     draft.DueDate,
	}, s.clock())
	if err != nil {
		return domain.Card{}, err
	}
	if err := s.repo.CreateCard(ctx, card); err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

// CreateCard creates a card in a column.
func (s *Service) CreateCard(ctx context.Context, columnID string, draft domain.CardDraft) error {
	_, err := s.AddCard(ctx, columnID, draft)
	return err
}

// MoveCard places a card in a column at a position and renumbers both columns.
func (s *Service) MoveCard(ctx context.Context, cardID, columnID string, position int) error {
	if position < 0 {
		return domain.ErrInvalidPosition
	}
	card, err := s.repo.GetCard(ctx, strings.TrimSpace(cardID))
	if err != nil {
		return err
	}
	return s.placeCard(ctx, card, strings.TrimSpace(columnID), position)
}

// UpdateCard applies a partial update. Column and position changes go through the move path.
func (s *Service) UpdateCard(ctx context.Context, cardID string, patch domain.CardPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	card, err := s.repo.GetCard(ctx, strings.TrimSpace(cardID))
	if err != nil {
		return err
	}
	rest := patch
	rest.ColumnID, rest.Position = nil, nil
	if !rest.IsEmpty() {
		if err := card.Update(rest, s.clock()); err != nil {
			return err
		}
	}
	if patch.ColumnID == nil && patch.Position == nil {
		return s.repo.UpdateCard(ctx, card)
	}
	columnID, position := card.ColumnID, card.Position
	if patch.ColumnID != nil {
		columnID = strings.TrimSpace(*patch.ColumnID)
	}
	if patch.Position != nil {
		position = *patch.Position
	}
	return s.placeCard(ctx, card, columnID, position)
}

// DeleteCard removes a card and closes the gap it leaves in its column.
func (s *Service) DeleteCard(ctx context.Context, cardID string) error {
	card, err := s.repo.GetCard(ctx, strings.TrimSpace(cardID))
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCard(ctx, card.ID); err != nil {
		return err
	}
	cards, err := s.repo.ListCards(ctx, card.BoardID)
	if err != nil {
		return err
	}
	changed := renumber(cardsInColumn(cards, card.ColumnID, card.ID), "", s.clock())
	if len(changed) == 0 {
		return nil
	}
	return s.repo.UpdateCards(ctx, changed)
}

// ReorderColumn moves a column to a new index on its board.
func (s *Service) ReorderColumn(ctx context.Context, columnID string, order int) error {
	if order < 0 {
		return domain.ErrInvalidOrder
	}
	column, err := s.repo.GetColumn(ctx, strings.TrimSpace(columnID))
	if err != nil {
		return err
	}
	columns, err := s.ListColumns(ctx, column.BoardID)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(columns, func(c domain.Column) bool { return c.ID == column.ID })
	if idx < 0 {
		return ErrNotFound
	}
	columns = slices.Delete(columns, idx, idx+1)
	columns = slices.Insert(columns, min(order, len(columns)), column)

	now := s.clock()
	changed := make([]domain.Column, 0, len(columns))
	for i := range columns {
		if columns[i].Order == i && columns[i].ID != column.ID {
			continue
		}
		if err := columns[i].SetOrder(i, now); err != nil {
			return err
		}
		changed = append(changed, columns[i])
	}
	return s.repo.UpdateColumns(ctx, changed)
}

// SearchCards ranks a board's cards against a query. Limit <= 0 means no limit.
func (s *Service) SearchCards(ctx context.Context, boardID, query string, limit int) ([]kanban.SearchResult, error) {
	state, err := s.LoadBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(state.Columns))
	for _, c := range state.Columns {
		titles[c.ID] = c.Title
	}
	opts := append(slices.Clone(s.searchOpts), kanban.WithStatusResolver(func(id string) string { return titles[id] }))
	results := kanban.NewSearchEngine(opts...).Search(query, state.Cards)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *Service) placeCard(ctx context.Context, card domain.Card, columnID string, position int) error {
	if position < 0 {
		return domain.ErrInvalidPosition
	}
	column, err := s.repo.GetColumn(ctx, columnID)
	if err != nil {
		return err
	}
	if column.BoardID != card.BoardID {
		return fmt.Errorf("%w: column %q", ErrCrossBoardMove, columnID)
	}
	cards, err := s.repo.ListCards(ctx, card.BoardID)
	if err != nil {
		return err
	}

	now := s.clock()
	sourceID := card.ColumnID
	target := cardsInColumn(cards, column.ID, card.ID)
	position = min(position, len(target))
	if err := card.Move(column.ID, position, now); err != nil {
		return err
	}
	target = slices.Insert(target, position, card)
	changed := renumber(target, card.ID, now)
	if sourceID != column.ID {
		changed = append(changed, renumber(cardsInColumn(cards, sourceID, card.ID), "", now)...)
	}
	return s.repo.UpdateCards(ctx, changed)
}

// cardsInColumn returns a column's cards by position, leaving out skipID.
func cardsInColumn(cards []domain.Card, columnID, skipID string) []domain.Card {
	out := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if c.ColumnID == columnID && c.ID != skipID {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Card) int {
		return a.Position - b.Position
	})
	return out
}

// renumber assigns dense positions and returns the cards whose row changed.
func renumber(cards []domain.Card, movedID string, now time.Time) []domain.Card {
	changed := make([]domain.Card, 0, len(cards))
	for i := range cards {
		if cards[i].Position == i && cards[i].ID != movedID {
			continue
		}
		cards[i].Position = i
		cards[i].UpdatedAt = now.UTC()
		changed = append(changed, cards[i])
	}
	return changed
}

func defaultColumnTemplates() []ColumnTemplate {
	return []ColumnTemplate{
		{Title: "Backlog", Color: "#7aa2f7", Order: 0},
		{Title: "In Progress", Color: "#e0af68", Order: 1},
		{Title: "Review", Color: "#bb9af7", Order: 2},
		{Title: "Done", Color: "#9ece6a", Order: 3},
	}
}

func sanitizeColumnTemplates(in []ColumnTemplate) []ColumnTemplate {
	if len(in) == 0 {
		return nil
	}
	out := make([]ColumnTemplate, 0, len(in))
	seen := map[string]struct{}{}
	for idx, tpl := range in {
		tpl.Title = strings.TrimSpace(tpl.Title)
		tpl.Color = strings.TrimSpace(tpl.Color)
		if tpl.Title == "" {
			continue
		}
		key := strings.ToLower(tpl.Title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if tpl.Order < 0 {
			tpl.Order = idx
		}
		out = append(out, tpl)
	}
	slices.SortStableFunc(out, func(a, b ColumnTemplate) int {
		return a.Order - b.Order
	})
	return out
}

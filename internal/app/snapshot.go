package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hylla/tavla/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "tavla.snapshot.v1"

// Snapshot is a portable JSON export of every board.
type Snapshot struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Boards     []SnapshotBoard  `json:"boards"`
	Columns    []SnapshotColumn `json:"columns"`
	Cards      []SnapshotCard   `json:"cards"`
}

// SnapshotBoard represents snapshot board data used by this package.
type SnapshotBoard struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SnapshotColumn represents snapshot column data used by this package.
type SnapshotColumn struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	Title     string    `json:"title"`
	Order     int       `json:"order"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SnapshotCard represents snapshot card data used by this package.
type SnapshotCard struct {
	ID          string          `json:"id"`
	BoardID     string          `json:"board_id"`
	ColumnID    string          `json:"column_id"`
	Position    int             `json:"position"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Priority    domain.Priority `json:"priority"`
	Assignee    string          `json:"assignee,omitempty"`
	Tags        []string        `json:"tags"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ExportSnapshot collects every board, column and card.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	boards, err := s.repo.ListBoards(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Boards:     make([]SnapshotBoard, 0, len(boards)),
		Columns:    make([]SnapshotColumn, 0),
		Cards:      make([]SnapshotCard, 0),
	}
	for _, board := range boards {
		snap.Boards = append(snap.Boards, snapshotBoardFromDomain(board))

		columns, listErr := s.repo.ListColumns(ctx, board.ID)
		if listErr != nil {
			return Snapshot{}, listErr
		}
		for _, column := range columns {
			snap.Columns = append(snap.Columns, snapshotColumnFromDomain(column))
		}

		cards, listErr := s.repo.ListCards(ctx, board.ID)
		if listErr != nil {
			return Snapshot{}, listErr
		}
		for _, card := range cards {
			snap.Cards = append(snap.Cards, snapshotCardFromDomain(card))
		}
	}
	snap.sort()
	return snap, nil
}

// ImportSnapshot upserts every row of a snapshot.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.sort()

	for _, board := range snap.Boards {
		b := board.toDomain()
		if _, err := s.repo.GetBoard(ctx, b.ID); err == nil {
			if err := s.repo.UpdateBoard(ctx, b); err != nil {
				return err
			}
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.repo.CreateBoard(ctx, b); err != nil {
			return err
		}
	}
	for _, column := range snap.Columns {
		c := column.toDomain()
		if _, err := s.repo.GetColumn(ctx, c.ID); err == nil {
			if err := s.repo.UpdateColumn(ctx, c); err != nil {
				return err
			}
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.repo.CreateColumn(ctx, c); err != nil {
			return err
		}
	}
	for _, card := range snap.Cards {
		c := card.toDomain()
		if _, err := s.repo.GetCard(ctx, c.ID); err == nil {
			if err := s.repo.UpdateCard(ctx, c); err != nil {
				return err
			}
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.repo.CreateCard(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks ids, references and required fields.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %q", s.Version)
	}

	boardIDs := map[string]struct{}{}
	for i, b := range s.Boards {
		if strings.TrimSpace(b.ID) == "" {
			return fmt.Errorf("boards[%d].id is required", i)
		}
		if strings.TrimSpace(b.Name) == "" {
			return fmt.Errorf("boards[%d].name is required", i)
		}
		if _, exists := boardIDs[b.ID]; exists {
			return fmt.Errorf("duplicate board id: %q", b.ID)
		}
		boardIDs[b.ID] = struct{}{}
	}

	columnBoards := map[string]string{}
	for i, c := range s.Columns {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("columns[%d].id is required", i)
		}
		if _, ok := boardIDs[c.BoardID]; !ok {
			return fmt.Errorf("columns[%d] references unknown board_id %q", i, c.BoardID)
		}
		if strings.TrimSpace(c.Title) == "" {
			return fmt.Errorf("columns[%d].title is required", i)
		}
		if c.Order < 0 {
			return fmt.Errorf("columns[%d].order must be >= 0", i)
		}
		if _, exists := columnBoards[c.ID]; exists {
			return fmt.Errorf("duplicate column id: %q", c.ID)
		}
		columnBoards[c.ID] = c.BoardID
	}

	cardIDs := map[string]struct{}{}
	for i, c := range s.Cards {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("cards[%d].id is required", i)
		}
		boardID, ok := columnBoards[c.ColumnID]
		if !ok {
			return fmt.Errorf("cards[%d] references unknown column_id %q", i, c.ColumnID)
		}
		if boardID != c.BoardID {
			return fmt.Errorf("cards[%d] column_id %q belongs to board %q", i, c.ColumnID, boardID)
		}
		if strings.TrimSpace(c.Title) == "" {
			return fmt.Errorf("cards[%d].title is required", i)
		}
		if c.Position < 0 {
			return fmt.Errorf("cards[%d].position must be >= 0", i)
		}
		if _, err := domain.ParsePriority(string(c.Priority)); err != nil {
			return fmt.Errorf("cards[%d].priority: %w", i, err)
		}
		if _, exists := cardIDs[c.ID]; exists {
			return fmt.Errorf("duplicate card id: %q", c.ID)
		}
		cardIDs[c.ID] = struct{}{}
	}
	return nil
}

func (s *Snapshot) sort() {
	slices.SortFunc(s.Boards, func(a, b SnapshotBoard) int {
		return strings.Compare(a.ID, b.ID)
	})
	slices.SortFunc(s.Columns, func(a, b SnapshotColumn) int {
		if a.BoardID != b.BoardID {
			return strings.Compare(a.BoardID, b.BoardID)
		}
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return strings.Compare(a.ID, b.ID)
	})
	slices.SortFunc(s.Cards, func(a, b SnapshotCard) int {
		if a.BoardID != b.BoardID {
			return strings.Compare(a.BoardID, b.BoardID)
		}
		if a.ColumnID != b.ColumnID {
			return strings.Compare(a.ColumnID, b.ColumnID)
		}
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func snapshotBoardFromDomain(b domain.Board) SnapshotBoard {
	return SnapshotBoard{
		ID:          b.ID,
		Slug:        b.Slug,
		Name:        b.Name,
		Description: b.Description,
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
	}
}

func snapshotColumnFromDomain(c domain.Column) SnapshotColumn {
	return SnapshotColumn{
		ID:        c.ID,
		BoardID:   c.BoardID,
		Title:     c.Title,
		Order:     c.Order,
		Color:     c.Color,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

func snapshotCardFromDomain(c domain.Card) SnapshotCard {
	c = c.Clone()
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return SnapshotCard{
		ID:          c.ID,
		BoardID:     c.BoardID,
		ColumnID:    c.ColumnID,
		Position:    c.Position,
		Title:       c.Title,
		Description: c.Description,
		Priority:    c.Priority,
		Assignee:    c.Assignee,
		Tags:        tags,
		DueDate:     c.DueDate,
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}

func (b SnapshotBoard) toDomain() domain.Board {
	slug := strings.TrimSpace(b.Slug)
	if slug == "" {
		if nb, err := domain.NewBoard(b.ID, b.Name, "", time.Time{}); err == nil {
			slug = nb.Slug
		}
	}
	return domain.Board{
		ID:          strings.TrimSpace(b.ID),
		Slug:        slug,
		Name:        strings.TrimSpace(b.Name),
		Description: strings.TrimSpace(b.Description),
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
	}
}

func (c SnapshotColumn) toDomain() domain.Column {
	return domain.Column{
		ID:        strings.TrimSpace(c.ID),
		BoardID:   strings.TrimSpace(c.BoardID),
		Title:     strings.TrimSpace(c.Title),
		Order:     c.Order,
		Color:     strings.TrimSpace(c.Color),
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

func (c SnapshotCard) toDomain() domain.Card {
	priority, err := domain.ParsePriority(string(c.Priority))
	if err != nil {
		priority = domain.PriorityMedium
	}
	card := domain.Card{
		ID:          strings.TrimSpace(c.ID),
		BoardID:     strings.TrimSpace(c.BoardID),
		ColumnID:    strings.TrimSpace(c.ColumnID),
		Position:    c.Position,
		Title:       strings.TrimSpace(c.Title),
		Description: c.Description,
		Priority:    priority,
		Assignee:    strings.TrimSpace(c.Assignee),
		Tags:        slices.Clone(c.Tags),
		DueDate:     c.DueDate,
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
	return card.Clone()
}

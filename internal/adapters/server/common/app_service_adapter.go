package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/domain"
)

// dueDateLayout is the transport format for card due dates.
const dueDateLayout = "2006-01-02"

// AppServiceAdapter maps transport contracts onto app.Service board APIs.
type AppServiceAdapter struct {
	service *app.Service
}

var _ BoardService = (*AppServiceAdapter)(nil)

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// ListBoards lists every board.
func (a *AppServiceAdapter) ListBoards(ctx context.Context) ([]Board, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	boards, err := a.service.ListBoards(ctx)
	if err != nil {
		return nil, mapAppError("list boards", err)
	}
	out := make([]Board, 0, len(boards))
	for _, b := range boards {
		out = append(out, boardFromDomain(b))
	}
	return out, nil
}

// ListColumns lists one board's columns by order.
func (a *AppServiceAdapter) ListColumns(ctx context.Context, boardID string) ([]Column, error) {
	boardID, err := a.requireBoard(ctx, "list columns", boardID)
	if err != nil {
		return nil, err
	}
	columns, err := a.service.ListColumns(ctx, boardID)
	if err != nil {
		return nil, mapAppError("list columns", err)
	}
	out := make([]Column, 0, len(columns))
	for _, c := range columns {
		out = append(out, columnFromDomain(c))
	}
	return out, nil
}

// ListCards lists one board's cards by column order, then position.
func (a *AppServiceAdapter) ListCards(ctx context.Context, boardID string) ([]Card, error) {
	boardID, err := a.requireBoard(ctx, "list cards", boardID)
	if err != nil {
		return nil, err
	}
	cards, err := a.service.ListCards(ctx, boardID)
	if err != nil {
		return nil, mapAppError("list cards", err)
	}
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardFromDomain(c))
	}
	return out, nil
}

// SearchCards ranks one board's cards against a query.
func (a *AppServiceAdapter) SearchCards(ctx context.Context, in SearchCardsRequest) ([]SearchHit, error) {
	boardID, err := a.requireBoard(ctx, "search cards", in.BoardID)
	if err != nil {
		return nil, err
	}
	if in.Limit < 0 {
		return nil, fmt.Errorf("search cards: limit must be >= 0: %w", ErrInvalidRequest)
	}
	results, err := a.service.SearchCards(ctx, boardID, in.Query, in.Limit)
	if err != nil {
		return nil, mapAppError("search cards", err)
	}
	out := make([]SearchHit, 0, len(results))
	for _, r := range results {
		fields := make([]string, 0, len(r.MatchedFields))
		for _, f := range r.MatchedFields {
			fields = append(fields, string(f))
		}
		out = append(out, SearchHit{
			Card:          cardFromDomain(r.Card),
			Score:         r.Score,
			MatchedFields: fields,
		})
	}
	return out, nil
}

// CreateCard creates one card at the bottom of a column.
func (a *AppServiceAdapter) CreateCard(ctx context.Context, in CreateCardRequest) (Card, error) {
	if err := a.ready(); err != nil {
		return Card{}, err
	}
	columnID := strings.TrimSpace(in.ColumnID)
	if columnID == "" {
		return Card{}, fmt.Errorf("create card: column_id is required: %w", ErrInvalidRequest)
	}
	priority, err := domain.ParsePriority(in.Priority)
	if err != nil {
		return Card{}, mapAppError("create card", err)
	}
	due, err := domain.ParseDueDate(in.DueDate)
	if err != nil {
		return Card{}, mapAppError("create card", err)
	}
	card, err := a.service.AddCard(ctx, columnID, domain.CardDraft{
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		Assignee:    in.Assignee,
		Tags:        in.Tags,
		DueDate:     due,
	})
	if err != nil {
		return Card{}, mapAppError("create card", err)
	}
	return cardFromDomain(card), nil
}

// UpdateCard applies a partial update and returns the stored card.
func (a *AppServiceAdapter) UpdateCard(ctx context.Context, in UpdateCardRequest) (Card, error) {
	if err := a.ready(); err != nil {
		return Card{}, err
	}
	cardID := strings.TrimSpace(in.CardID)
	if cardID == "" {
		return Card{}, fmt.Errorf("update card: card_id is required: %w", ErrInvalidRequest)
	}
	patch, err := patchFromRequest(in)
	if err != nil {
		return Card{}, mapAppError("update card", err)
	}
	if err := a.service.UpdateCard(ctx, cardID, patch); err != nil {
		return Card{}, mapAppError("update card", err)
	}
	return a.getCard(ctx, "update card", cardID)
}

// MoveCard places one card in a column and returns the stored card.
func (a *AppServiceAdapter) MoveCard(ctx context.Context, in MoveCardRequest) (Card, error) {
	if err := a.ready(); err != nil {
		return Card{}, err
	}
	cardID := strings.TrimSpace(in.CardID)
	columnID := strings.TrimSpace(in.ColumnID)
	if cardID == "" || columnID == "" {
		return Card{}, fmt.Errorf("move card: card_id and column_id are required: %w", ErrInvalidRequest)
	}
	if err := a.service.MoveCard(ctx, cardID, columnID, in.Position); err != nil {
		return Card{}, mapAppError("move card", err)
	}
	return a.getCard(ctx, "move card", cardID)
}

// DeleteCard removes one card.
func (a *AppServiceAdapter) DeleteCard(ctx context.Context, cardID string) error {
	if err := a.ready(); err != nil {
		return err
	}
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return fmt.Errorf("delete card: card_id is required: %w", ErrInvalidRequest)
	}
	return mapAppError("delete card", a.service.DeleteCard(ctx, cardID))
}

// ReorderColumn moves one column to a new index on its board.
func (a *AppServiceAdapter) ReorderColumn(ctx context.Context, in ReorderColumnRequest) error {
	if err := a.ready(); err != nil {
		return err
	}
	columnID := strings.TrimSpace(in.ColumnID)
	if columnID == "" {
		return fmt.Errorf("reorder column: column_id is required: %w", ErrInvalidRequest)
	}
	return mapAppError("reorder column", a.service.ReorderColumn(ctx, columnID, in.Order))
}

// ready reports whether the adapter has a backing service.
func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	return nil
}

// requireBoard validates a board id and checks that it exists.
func (a *AppServiceAdapter) requireBoard(ctx context.Context, operation, boardID string) (string, error) {
	if err := a.ready(); err != nil {
		return "", err
	}
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return "", fmt.Errorf("%s: board_id is required: %w", operation, ErrInvalidRequest)
	}
	if _, err := a.service.GetBoard(ctx, boardID); err != nil {
		return "", mapAppError(operation, err)
	}
	return boardID, nil
}

func (a *AppServiceAdapter) getCard(ctx context.Context, operation, cardID string) (Card, error) {
	card, err := a.service.GetCard(ctx, cardID)
	if err != nil {
		return Card{}, mapAppError(operation, err)
	}
	return cardFromDomain(card), nil
}

// patchFromRequest converts transport update fields into a domain patch.
func patchFromRequest(in UpdateCardRequest) (domain.CardPatch, error) {
	patch := domain.CardPatch{
		Title:       in.Title,
		Description: in.Description,
		Assignee:    in.Assignee,
		Tags:        in.Tags,
	}
	if in.Priority != nil {
		priority, err := domain.ParsePriority(*in.Priority)
		if err != nil {
			return domain.CardPatch{}, err
		}
		patch.Priority = &priority
	}
	if in.DueDate != nil {
		due, err := domain.ParseDueDate(*in.DueDate)
		if err != nil {
			return domain.CardPatch{}, err
		}
		if due == nil {
			patch.ClearDueDate = true
		} else {
			patch.DueDate = due
		}
	}
	if patch.IsEmpty() {
		return domain.CardPatch{}, domain.ErrEmptyPatch
	}
	return patch, nil
}

func boardFromDomain(b domain.Board) Board {
	return Board{
		ID:          b.ID,
		Slug:        b.Slug,
		Name:        b.Name,
		Description: b.Description,
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
	}
}

func columnFromDomain(c domain.Column) Column {
	return Column{
		ID:      c.ID,
		BoardID: c.BoardID,
		Title:   c.Title,
		Order:   c.Order,
		Color:   c.Color,
	}
}

func cardFromDomain(c domain.Card) Card {
	out := Card{
		ID:          c.ID,
		BoardID:     c.BoardID,
		ColumnID:    c.ColumnID,
		Position:    c.Position,
		Title:       c.Title,
		Description: c.Description,
		Priority:    string(c.Priority),
		Assignee:    c.Assignee,
		Tags:        append([]string{}, c.Tags...),
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
	if c.DueDate != nil {
		out.DueDate = c.DueDate.UTC().Format(dueDateLayout)
	}
	return out
}

// mapAppError maps app/domain errors into transport-layer error sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrCrossBoardMove),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidPosition),
		errors.Is(err, domain.ErrInvalidColumnID),
		errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrInvalidDueDate),
		errors.Is(err, domain.ErrEmptyPatch):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}

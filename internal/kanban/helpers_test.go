package kanban

import (
	"context"
	"errors"
	"time"

	"github.com/hylla/tavla/internal/domain"
)

var errRejected = errors.New("rejected")

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type moveCall struct {
	cardID   string
	columnID string
	position int
}

type fakePersistence struct {
	moves    []moveCall
	creates  []domain.CardDraft
	updates  []string
	deletes  []string
	reorders []int
	err      error
}

func (f *fakePersistence) MoveCard(_ context.Context, cardID, columnID string, position int) error {
	f.moves = append(f.moves, moveCall{cardID: cardID, columnID: columnID, position: position})
	return f.err
}

func (f *fakePersistence) CreateCard(_ context.Context, _ string, draft domain.CardDraft) error {
	f.creates = append(f.creates, draft)
	return f.err
}

func (f *fakePersistence) UpdateCard(_ context.Context, cardID string, _ domain.CardPatch) error {
	f.updates = append(f.updates, cardID)
	return f.err
}

func (f *fakePersistence) DeleteCard(_ context.Context, cardID string) error {
	f.deletes = append(f.deletes, cardID)
	return f.err
}

func (f *fakePersistence) ReorderColumn(_ context.Context, _ string, order int) error {
	f.reorders = append(f.reorders, order)
	return f.err
}

type recordingHandle struct {
	focused   int
	activated int
}

func (h *recordingHandle) Focus()    { h.focused++ }
func (h *recordingHandle) Activate() { h.activated++ }

func threeColumns() []domain.Column {
	return []domain.Column{
		{ID: "col-3", BoardID: "b1", Title: "Done", Order: 2},
		{ID: "col-1", BoardID: "b1", Title: "Backlog", Order: 0},
		{ID: "col-2", BoardID: "b1", Title: "In Progress", Order: 1},
	}
}

func oneCardPerColumn() []domain.Card {
	return []domain.Card{
		{ID: "card-1", BoardID: "b1", ColumnID: "col-1", Title: "Source leads", Priority: domain.PriorityHigh},
		{ID: "card-2", BoardID: "b1", ColumnID: "col-2", Title: "Phone screen", Priority: domain.PriorityMedium},
		{ID: "card-3", BoardID: "b1", ColumnID: "col-3", Title: "Send offer", Priority: domain.PriorityLow},
	}
}

func strPtr(s string) *string { return &s }

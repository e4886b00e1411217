package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hylla/tavla/internal/adapters/storage/sqlite"
	"github.com/hylla/tavla/internal/app"
)

// newAdapterFixture builds an adapter over a fresh in-memory board.
func newAdapterFixture(t *testing.T) (*AppServiceAdapter, Board, []Column) {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	svc := app.NewService(repo, ids, func() time.Time { return now }, app.ServiceConfig{})
	if _, err := svc.EnsureDefaultBoard(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultBoard() error = %v", err)
	}

	adapter := NewAppServiceAdapter(svc)
	boards, err := adapter.ListBoards(context.Background())
	if err != nil {
		t.Fatalf("ListBoards() error = %v", err)
	}
	if len(boards) != 1 {
		t.Fatalf("expected one board, got %#v", boards)
	}
	columns, err := adapter.ListColumns(context.Background(), boards[0].ID)
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	return adapter, boards[0], columns
}

// TestAppServiceAdapterCardLifecycle verifies create, move, update, search, and delete through the adapter.
func TestAppServiceAdapterCardLifecycle(t *testing.T) {
	ctx := context.Background()
	adapter, board, columns := newAdapterFixture(t)
	if board.Slug != "pipeline" {
		t.Fatalf("expected pipeline slug, got %q", board.Slug)
	}
	gotTitles := make([]string, 0, len(columns))
	for _, c := range columns {
		gotTitles = append(gotTitles, c.Title)
	}
	if diff := cmp.Diff([]string{"Backlog", "In Progress", "Review", "Done"}, gotTitles); diff != "" {
		t.Fatalf("column titles mismatch (-want +got):\n%s", diff)
	}

	created, err := adapter.CreateCard(ctx, CreateCardRequest{
		ColumnID: columns[0].ID,
		Title:    "Ship launch notes",
		Priority: "high",
		Assignee: "rin",
		Tags:     []string{"Launch"},
		DueDate:  "2026-03-01",
	})
	if err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}
	if created.DueDate != "2026-03-01" || created.Priority != "high" || created.Position != 0 {
		t.Fatalf("unexpected created card %#v", created)
	}
	if diff := cmp.Diff([]string{"launch"}, created.Tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}

	moved, err := adapter.MoveCard(ctx, MoveCardRequest{CardID: created.ID, ColumnID: columns[1].ID, Position: 0})
	if err != nil {
		t.Fatalf("MoveCard() error = %v", err)
	}
	if moved.ColumnID != columns[1].ID {
		t.Fatalf("expected card in %q, got %#v", columns[1].ID, moved)
	}

	title := "Ship release notes"
	noDue := ""
	updated, err := adapter.UpdateCard(ctx, UpdateCardRequest{CardID: created.ID, Title: &title, DueDate: &noDue})
	if err != nil {
		t.Fatalf("UpdateCard() error = %v", err)
	}
	if updated.Title != title || updated.DueDate != "" || updated.ColumnID != columns[1].ID {
		t.Fatalf("unexpected updated card %#v", updated)
	}

	hits, err := adapter.SearchCards(ctx, SearchCardsRequest{BoardID: board.ID, Query: "ship"})
	if err != nil {
		t.Fatalf("SearchCards() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Card.ID != created.ID || hits[0].Score <= 0 {
		t.Fatalf("unexpected search hits %#v", hits)
	}
	if diff := cmp.Diff([]string{"title"}, hits[0].MatchedFields); diff != "" {
		t.Fatalf("matched fields mismatch (-want +got):\n%s", diff)
	}

	if err := adapter.DeleteCard(ctx, created.ID); err != nil {
		t.Fatalf("DeleteCard() error = %v", err)
	}
	cards, err := adapter.ListCards(ctx, board.ID)
	if err != nil {
		t.Fatalf("ListCards() error = %v", err)
	}
	if len(cards) != 0 {
		t.Fatalf("expected no cards after delete, got %#v", cards)
	}
}

// TestAppServiceAdapterReorderColumn verifies column order changes are visible through ListColumns.
func TestAppServiceAdapterReorderColumn(t *testing.T) {
	ctx := context.Background()
	adapter, board, columns := newAdapterFixture(t)

	if err := adapter.ReorderColumn(ctx, ReorderColumnRequest{ColumnID: columns[3].ID, Order: 0}); err != nil {
		t.Fatalf("ReorderColumn() error = %v", err)
	}
	got, err := adapter.ListColumns(ctx, board.ID)
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	if got[0].ID != columns[3].ID || got[0].Order != 0 {
		t.Fatalf("expected %q first, got %#v", columns[3].ID, got)
	}
}

// TestAppServiceAdapterErrorMapping verifies app and domain failures map onto transport sentinels.
func TestAppServiceAdapterErrorMapping(t *testing.T) {
	ctx := context.Background()
	adapter, board, columns := newAdapterFixture(t)
	card, err := adapter.CreateCard(ctx, CreateCardRequest{ColumnID: columns[0].ID, Title: "Draft"})
	if err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}
	badPriority := "someday"

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{
			name: "missing board",
			call: func() error { _, err := adapter.ListCards(ctx, "missing"); return err },
			want: ErrNotFound,
		},
		{
			name: "blank board",
			call: func() error { _, err := adapter.ListColumns(ctx, "  "); return err },
			want: ErrInvalidRequest,
		},
		{
			name: "negative limit",
			call: func() error {
				_, err := adapter.SearchCards(ctx, SearchCardsRequest{BoardID: board.ID, Limit: -1})
				return err
			},
			want: ErrInvalidRequest,
		},
		{
			name: "missing column",
			call: func() error {
				_, err := adapter.CreateCard(ctx, CreateCardRequest{ColumnID: "missing", Title: "x"})
				return err
			},
			want: ErrNotFound,
		},
		{
			name: "blank title",
			call: func() error {
				_, err := adapter.CreateCard(ctx, CreateCardRequest{ColumnID: columns[0].ID, Title: " "})
				return err
			},
			want: ErrInvalidRequest,
		},
		{
			name: "bad due date",
			call: func() error {
				_, err := adapter.CreateCard(ctx, CreateCardRequest{ColumnID: columns[0].ID, Title: "x", DueDate: "soon"})
				return err
			},
			want: ErrInvalidRequest,
		},
		{
			name: "bad priority patch",
			call: func() error {
				_, err := adapter.UpdateCard(ctx, UpdateCardRequest{CardID: card.ID, Priority: &badPriority})
				return err
			},
			want: ErrInvalidRequest,
		},
		{
			name: "empty patch",
			call: func() error { _, err := adapter.UpdateCard(ctx, UpdateCardRequest{CardID: card.ID}); return err },
			want: ErrInvalidRequest,
		},
		{
			name: "negative position",
			call: func() error {
				_, err := adapter.MoveCard(ctx, MoveCardRequest{CardID: card.ID, ColumnID: columns[1].ID, Position: -1})
				return err
			},
			want: ErrInvalidRequest,
		},
		{
			name: "missing card",
			call: func() error { return adapter.DeleteCard(ctx, "missing") },
			want: ErrNotFound,
		},
		{
			name: "negative order",
			call: func() error { return adapter.ReorderColumn(ctx, ReorderColumnRequest{ColumnID: columns[0].ID, Order: -1}) },
			want: ErrInvalidRequest,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

// TestAppServiceAdapterUnconfigured verifies nil adapters fail closed.
func TestAppServiceAdapterUnconfigured(t *testing.T) {
	var adapter *AppServiceAdapter
	if _, err := adapter.ListBoards(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := NewAppServiceAdapter(nil).DeleteCard(context.Background(), "k1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "nested", "tavla.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func TestRepository_BoardColumnCardLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

	board, _ := domain.NewBoard("b1", "Hiring", "desc", now)
	if err := repo.CreateBoard(ctx, board); err != nil {
		t.Fatalf("CreateBoard() error = %v", err)
	}
	loadedBoard, err := repo.GetBoard(ctx, "b1")
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	if diff := cmp.Diff(board, loadedBoard); diff != "" {
		t.Fatalf("board mismatch (-want +got):\n%s", diff)
	}

	todo, _ := domain.NewColumn("c1", board.ID, "Sourced", 0, "#7aa2f7", now)
	done, _ := domain.NewColumn("c2", board.ID, "Hired", 1, "", now)
	for _, c := range []domain.Column{done, todo} {
		if err := repo.CreateColumn(ctx, c); err != nil {
			t.Fatalf("CreateColumn() error = %v", err)
		}
	}
	cols, err := repo.ListColumns(ctx, board.ID)
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	if len(cols) != 2 || cols[0].ID != "c1" || cols[0].Color != "#7aa2f7" {
		t.Fatalf("unexpected columns %#v", cols)
	}

	due, _ := domain.ParseDueDate("2026-03-04")
	card, err := domain.NewCard(domain.CardInput{
		ID:          "k1",
		BoardID:     board.ID,
		ColumnID:    todo.ID,
		Title:       "Call Ana",
		Description: "## Notes\nprefers mornings",
		Priority:    domain.PriorityUrgent,
		Assignee:    "Sarah",
		Tags:        []string{"phone", "backend"},
		DueDate:     due,
	}, now)
	if err != nil {
		t.Fatalf("NewCard() error = %v", err)
	}
	if err := repo.CreateCard(ctx, card); err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}
	loaded, err := repo.GetCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("GetCard() error = %v", err)
	}
	if diff := cmp.Diff(card, loaded); diff != "" {
		t.Fatalf("card mismatch (-want +got):\n%s", diff)
	}

	if err := loaded.Move(done.ID, 0, now.Add(time.Minute)); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if err := repo.UpdateCard(ctx, loaded); err != nil {
		t.Fatalf("UpdateCard() error = %v", err)
	}
	cards, err := repo.ListCards(ctx, board.ID)
	if err != nil {
		t.Fatalf("ListCards() error = %v", err)
	}
	if len(cards) != 1 || cards[0].ColumnID != done.ID {
		t.Fatalf("unexpected cards after move %#v", cards)
	}

	if err := repo.DeleteCard(ctx, card.ID); err != nil {
		t.Fatalf("DeleteCard() error = %v", err)
	}
	if _, err := repo.GetCard(ctx, card.ID); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteCard(ctx, card.ID); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	if _, err := repo.GetBoard(ctx, "nope"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for board, got %v", err)
	}
	if _, err := repo.GetColumn(ctx, "nope"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for column, got %v", err)
	}
	if err := repo.UpdateBoard(ctx, domain.Board{ID: "nope"}); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for board update, got %v", err)
	}
	if err := repo.UpdateCard(ctx, domain.Card{ID: "nope"}); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for card update, got %v", err)
	}
}

func TestRepository_UpdateCardsRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	board, _ := domain.NewBoard("b1", "Hiring", "", now)
	_ = repo.CreateBoard(ctx, board)
	col, _ := domain.NewColumn("c1", board.ID, "Sourced", 0, "", now)
	_ = repo.CreateColumn(ctx, col)
	for i := range 2 {
		card, _ := domain.NewCard(domain.CardInput{ID: fmt.Sprintf("k%d", i), BoardID: board.ID, ColumnID: col.ID, Position: i, Title: "t"}, now)
		if err := repo.CreateCard(ctx, card); err != nil {
			t.Fatalf("CreateCard() error = %v", err)
		}
	}

	k0, _ := repo.GetCard(ctx, "k0")
	k0.Position = 7
	err := repo.UpdateCards(ctx, []domain.Card{k0, {ID: "ghost"}})
	if !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from batch, got %v", err)
	}
	again, _ := repo.GetCard(ctx, "k0")
	if again.Position != 0 {
		t.Fatalf("expected batch rollback, got position %d", again.Position)
	}
}

func TestRepository_InMemoryWithService(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	n := 0
	svc := app.NewService(repo, func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}, nil, app.ServiceConfig{})
	board, err := svc.EnsureDefaultBoard(ctx)
	if err != nil {
		t.Fatalf("EnsureDefaultBoard() error = %v", err)
	}
	cols, _ := svc.ListColumns(ctx, board.ID)
	a, _ := svc.AddCard(ctx, cols[0].ID, domain.CardDraft{Title: "A"})
	b, _ := svc.AddCard(ctx, cols[0].ID, domain.CardDraft{Title: "B"})
	if err := svc.MoveCard(ctx, b.ID, cols[1].ID, 0); err != nil {
		t.Fatalf("MoveCard() error = %v", err)
	}
	if err := svc.ReorderColumn(ctx, cols[1].ID, 0); err != nil {
		t.Fatalf("ReorderColumn() error = %v", err)
	}
	state, err := svc.LoadBoard(ctx, board.ID)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if state.Columns[0].ID != cols[1].ID {
		t.Fatalf("expected reordered columns, got %#v", state.Columns)
	}
	if state.Cards[0].ID != b.ID || state.Cards[1].ID != a.ID {
		t.Fatalf("expected cards ordered by column order, got %#v", state.Cards)
	}
}

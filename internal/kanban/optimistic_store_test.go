package kanban

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hylla/tavla/internal/domain"
)

func TestOptimisticStoreRevertRestoresTouchedFieldsOnly(t *testing.T) {
	cards := oneCardPerColumn()
	cards[0].Description = "original"
	cards[0].Tags = []string{"sales"}
	s := NewOptimisticStore(cards)

	prio := domain.PriorityUrgent
	if !s.ApplyOptimisticUpdate("card-1", domain.CardPatch{Title: strPtr("Renamed"), Priority: &prio}) {
		t.Fatal("expected patch to apply")
	}
	// An unrelated field changes under the outstanding patch.
	s.working[0].Description = "edited elsewhere"

	got, _ := s.Card("card-1")
	if got.Title != "Renamed" || got.Priority != domain.PriorityUrgent {
		t.Fatalf("patch not rendered: %#v", got)
	}
	if !s.RevertOptimisticUpdate("card-1") {
		t.Fatal("expected revert to succeed")
	}
	got, _ = s.Card("card-1")
	if got.Title != "Source leads" || got.Priority != domain.PriorityHigh {
		t.Fatalf("touched fields not restored: %#v", got)
	}
	if got.Description != "edited elsewhere" {
		t.Fatalf("untouched field was reverted: %q", got.Description)
	}
	if s.IsPending("card-1") {
		t.Fatal("expected pending record to be cleared")
	}
}

func TestOptimisticStoreStackedPatchesRevertToPreSpeculation(t *testing.T) {
	s := NewOptimisticStore(oneCardPerColumn())
	s.ApplyOptimisticUpdate("card-1", domain.MovePatch("col-2", 0))
	s.ApplyOptimisticUpdate("card-1", domain.MovePatch("col-3", 4))
	s.ApplyOptimisticUpdate("card-1", domain.CardPatch{Title: strPtr("Stacked")})

	want := []domain.CardField{domain.FieldColumnID, domain.FieldPosition, domain.FieldTitle}
	if diff := cmp.Diff(want, s.PendingFields("card-1")); diff != "" {
		t.Fatalf("pending fields mismatch (-want +got):\n%s", diff)
	}
	s.RevertOptimisticUpdate("card-1")
	got, _ := s.Card("card-1")
	if diff := cmp.Diff(oneCardPerColumn()[0], got); diff != "" {
		t.Fatalf("stacked revert mismatch (-want +got):\n%s", diff)
	}
}

func TestOptimisticStoreRevertAllYieldsConfirmedSnapshot(t *testing.T) {
	cards := oneCardPerColumn()
	s := NewOptimisticStore(cards)
	s.ApplyOptimisticUpdate("card-1", domain.MovePatch("col-3", 1))
	s.ApplyOptimisticUpdate("card-2", domain.CardPatch{Assignee: strPtr("Sarah")})
	s.ApplyOptimisticUpdate("card-3", domain.CardPatch{Title: strPtr("x")})
	s.RevertOptimisticUpdate("card-3")
	s.ApplyOptimisticUpdate("card-3", domain.CardPatch{Tags: &[]string{"a"}})

	s.RevertAllOptimisticUpdates()
	if diff := cmp.Diff(cards, s.Cards()); diff != "" {
		t.Fatalf("revert all mismatch (-want +got):\n%s", diff)
	}
	if len(s.PendingIDs()) != 0 {
		t.Fatalf("expected no pending ids, got %v", s.PendingIDs())
	}
}

func TestOptimisticStoreCommitKeepsRenderedFields(t *testing.T) {
	s := NewOptimisticStore(oneCardPerColumn())
	s.ApplyOptimisticUpdate("card-2", domain.MovePatch("col-3", 0))
	if !s.CommitOptimisticUpdate("card-2") {
		t.Fatal("expected commit to succeed")
	}
	got, _ := s.Card("card-2")
	if got.ColumnID != "col-3" {
		t.Fatalf("commit altered rendered fields: %#v", got)
	}
	if s.IsPending("card-2") {
		t.Fatal("expected record cleared after commit")
	}
	s.RevertAllOptimisticUpdates()
	got, _ = s.Card("card-2")
	if got.ColumnID != "col-3" {
		t.Fatalf("committed change lost on revert all: %#v", got)
	}
}

func TestOptimisticStoreMissingEntitiesAreNoOps(t *testing.T) {
	s := NewOptimisticStore(oneCardPerColumn())
	if s.ApplyOptimisticUpdate("nope", domain.MovePatch("col-2", 0)) {
		t.Fatal("expected unknown id to be ignored")
	}
	if s.ApplyOptimisticUpdate("card-1", domain.CardPatch{}) {
		t.Fatal("expected empty patch to be ignored")
	}
	if s.RevertOptimisticUpdate("card-1") {
		t.Fatal("expected revert without record to be a no-op")
	}
	if s.CommitOptimisticUpdate("card-1") {
		t.Fatal("expected commit without record to be a no-op")
	}
	if diff := cmp.Diff(oneCardPerColumn(), s.Cards()); diff != "" {
		t.Fatalf("no-op changed cards (-want +got):\n%s", diff)
	}
}

func TestOptimisticStoreResetDropsSpeculation(t *testing.T) {
	s := NewOptimisticStore(oneCardPerColumn())
	s.ApplyOptimisticUpdate("card-1", domain.MovePatch("col-2", 0))

	fresh := oneCardPerColumn()[:2]
	fresh[1].Title = "Server title"
	s.Reset(fresh)
	if diff := cmp.Diff(fresh, s.Cards()); diff != "" {
		t.Fatalf("reset mismatch (-want +got):\n%s", diff)
	}
	if s.IsPending("card-1") {
		t.Fatal("expected reset to drop pending records")
	}
	if _, ok := s.Card("card-3"); ok {
		t.Fatal("expected card-3 to be gone after reset")
	}
}

func TestOptimisticStoreIndependentCards(t *testing.T) {
	s := NewOptimisticStore(oneCardPerColumn())
	s.ApplyOptimisticUpdate("card-1", domain.MovePatch("col-2", 0))
	s.ApplyOptimisticUpdate("card-2", domain.MovePatch("col-3", 0))
	s.RevertOptimisticUpdate("card-1")
	got, _ := s.Card("card-2")
	if got.ColumnID != "col-3" || !s.IsPending("card-2") {
		t.Fatalf("revert of card-1 disturbed card-2: %#v", got)
	}
	if diff := cmp.Diff([]string{"card-2"}, s.PendingIDs()); diff != "" {
		t.Fatalf("pending ids mismatch (-want +got):\n%s", diff)
	}
}

func TestOptimisticStoreReturnsCopies(t *testing.T) {
	cards := oneCardPerColumn()
	cards[0].Tags = []string{"one"}
	s := NewOptimisticStore(cards)
	cards[0].Tags[0] = "mutated"
	got, _ := s.Card("card-1")
	if got.Tags[0] != "one" {
		t.Fatal("store shares slices with its input")
	}
	got.Tags[0] = "mutated"
	again, _ := s.Card("card-1")
	if again.Tags[0] != "one" {
		t.Fatal("store shares slices with its output")
	}
}

func TestOptimisticStoreRenumberSkipsPendingPlacement(t *testing.T) {
	s := NewOptimisticStore(oneCardPerColumn())
	s.ApplyOptimisticUpdate("card-1", domain.MovePatch("col-2", 5))
	s.ApplyOptimisticUpdate("card-2", domain.CardPatch{Title: strPtr("Renamed")})
	if !s.IsPlacementPending("card-1") || s.IsPlacementPending("card-2") || s.IsPlacementPending("card-3") {
		t.Fatalf("unexpected placement flags: %v %v %v", s.IsPlacementPending("card-1"), s.IsPlacementPending("card-2"), s.IsPlacementPending("card-3"))
	}

	s.Renumber([]string{"card-3", "card-1", "card-2", "missing"})
	positions := map[string]int{}
	for _, c := range s.Cards() {
		positions[c.ID] = c.Position
	}
	if diff := cmp.Diff(map[string]int{"card-1": 5, "card-2": 2, "card-3": 0}, positions); diff != "" {
		t.Fatalf("working positions mismatch (-want +got):\n%s", diff)
	}
	confirmed := map[string]int{}
	for _, c := range s.Confirmed() {
		confirmed[c.ID] = c.Position
	}
	if diff := cmp.Diff(map[string]int{"card-1": 0, "card-2": 2, "card-3": 0}, confirmed); diff != "" {
		t.Fatalf("confirmed positions mismatch (-want +got):\n%s", diff)
	}
}

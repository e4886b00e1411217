package app

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hylla/tavla/internal/domain"
)

func TestExportImportSnapshotRoundTrip(t *testing.T) {
	svc, _, board := newTestService(t)
	ctx := context.Background()
	cols := columnIDs(t, svc, board.ID)
	due, _ := domain.ParseDueDate("2026-03-01")
	_, _ = svc.AddCard(ctx, cols[0], domain.CardDraft{Title: "Call Ana", Tags: []string{"Hiring"}, Assignee: "Ana", DueDate: due})
	_, _ = svc.AddCard(ctx, cols[1], domain.CardDraft{Title: "Prep deck", Priority: domain.PriorityUrgent})

	snap, err := svc.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	if snap.Version != SnapshotVersion || len(snap.Boards) != 1 || len(snap.Columns) != 4 || len(snap.Cards) != 2 {
		t.Fatalf("unexpected snapshot sizes %#v", snap)
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	target := NewService(newFakeRepo(), sequentialIDs(), fixedClock(), ServiceConfig{})
	if err := target.ImportSnapshot(ctx, decoded); err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}
	again, err := target.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("ExportSnapshot(imported) error = %v", err)
	}
	if diff := cmp.Diff(snap.Cards, again.Cards); diff != "" {
		t.Fatalf("cards mismatch after import (-want +got):\n%s", diff)
	}

	// Importing twice updates in place.
	if err := target.ImportSnapshot(ctx, decoded); err != nil {
		t.Fatalf("ImportSnapshot(again) error = %v", err)
	}
	boards, _ := target.ListBoards(ctx)
	if len(boards) != 1 {
		t.Fatalf("expected upsert, got %d boards", len(boards))
	}
}

func TestSnapshotValidate(t *testing.T) {
	base := func() Snapshot {
		return Snapshot{
			Version: SnapshotVersion,
			Boards:  []SnapshotBoard{{ID: "b1", Name: "Hiring"}},
			Columns: []SnapshotColumn{{ID: "c1", BoardID: "b1", Title: "Backlog"}},
			Cards:   []SnapshotCard{{ID: "k1", BoardID: "b1", ColumnID: "c1", Title: "A", Priority: domain.PriorityLow}},
		}
	}
	ok := base()
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Snapshot)
		want   string
	}{
		{"version", func(s *Snapshot) { s.Version = "other" }, "unsupported snapshot version"},
		{"board id", func(s *Snapshot) { s.Boards[0].ID = "" }, "boards[0].id"},
		{"column board", func(s *Snapshot) { s.Columns[0].BoardID = "zz" }, "unknown board_id"},
		{"card column", func(s *Snapshot) { s.Cards[0].ColumnID = "zz" }, "unknown column_id"},
		{"card board", func(s *Snapshot) { s.Cards[0].BoardID = "b2" }, "belongs to board"},
		{"priority", func(s *Snapshot) { s.Cards[0].Priority = "soon" }, "priority"},
		{"duplicate card", func(s *Snapshot) { s.Cards = append(s.Cards, s.Cards[0]) }, "duplicate card id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := base()
			tc.mutate(&snap)
			err := snap.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

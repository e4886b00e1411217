package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewBoardAndSlug(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	b, err := NewBoard("b1", "  Hiring Pipeline 2026!  ", " desc ", now)
	if err != nil {
		t.Fatalf("NewBoard() error = %v", err)
	}
	if b.Slug != "hiring-pipeline-2026" {
		t.Fatalf("unexpected slug %q", b.Slug)
	}
	if b.Name != "Hiring Pipeline 2026!" || b.Description != "desc" {
		t.Fatalf("unexpected board %#v", b)
	}
	if err := b.Rename("Fundraising", now); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if b.Slug != "fundraising" {
		t.Fatalf("unexpected slug after rename %q", b.Slug)
	}
}

func TestNewBoardValidation(t *testing.T) {
	now := time.Now()
	if _, err := NewBoard("", "ok", "", now); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := NewBoard("id", "   ", "", now); err != ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestNewColumnValidation(t *testing.T) {
	now := time.Now()
	if _, err := NewColumn("c1", "b1", "todo", -1, "", now); err != ErrInvalidOrder {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}
	if _, err := NewColumn("c1", "b1", "  ", 0, "", now); err != ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	c, err := NewColumn("c1", "b1", " Review ", 2, " #7aa2f7 ", now)
	if err != nil {
		t.Fatalf("NewColumn() error = %v", err)
	}
	if c.Title != "Review" || c.Color != "#7aa2f7" {
		t.Fatalf("unexpected column %#v", c)
	}
	if err := c.SetOrder(-1, now); err != ErrInvalidOrder {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}
}

func TestNewCardDefaultsAndNormalization(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 1, 17, 45, 0, 0, time.FixedZone("x", 3600))
	c, err := NewCard(CardInput{
		ID:       "k1",
		BoardID:  "b1",
		ColumnID: "todo",
		Title:    "  Call candidate ",
		Tags:     []string{"Backend", " backend", "", "API"},
		DueDate:  &due,
	}, now)
	if err != nil {
		t.Fatalf("NewCard() error = %v", err)
	}
	if c.Priority != PriorityMedium {
		t.Fatalf("expected medium default priority, got %q", c.Priority)
	}
	if diff := cmp.Diff([]string{"api", "backend"}, c.Tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if got := c.DueDate.Format(time.RFC3339); got != "2026-03-01T00:00:00Z" {
		t.Fatalf("unexpected due date %s", got)
	}
}

func TestNewCardValidation(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		in   CardInput
		want error
	}{
		{"missing id", CardInput{BoardID: "b", ColumnID: "c", Title: "t"}, ErrInvalidID},
		{"missing column", CardInput{ID: "k", BoardID: "b", Title: "t"}, ErrInvalidColumnID},
		{"missing title", CardInput{ID: "k", BoardID: "b", ColumnID: "c"}, ErrInvalidTitle},
		{"negative position", CardInput{ID: "k", BoardID: "b", ColumnID: "c", Title: "t", Position: -1}, ErrInvalidPosition},
		{"bad priority", CardInput{ID: "k", BoardID: "b", ColumnID: "c", Title: "t", Priority: "whenever"}, ErrInvalidPriority},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCard(tc.in, now); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCardPatchFieldsApplyAndCopy(t *testing.T) {
	base := Card{ID: "k1", ColumnID: "todo", Title: "A", Priority: PriorityLow, Tags: []string{"x"}}
	title := "B"
	tags := []string{"Y", "y", "z"}
	p := CardPatch{Title: &title, Tags: &tags, ClearDueDate: true}
	if diff := cmp.Diff([]CardField{FieldTitle, FieldTags, FieldDueDate}, p.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	next := p.ApplyTo(base)
	if next.Title != "B" || next.Priority != PriorityLow {
		t.Fatalf("unexpected patched card %#v", next)
	}
	if diff := cmp.Diff([]string{"y", "z"}, next.Tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if base.Title != "A" || base.Tags[0] != "x" {
		t.Fatalf("ApplyTo mutated its input: %#v", base)
	}

	restored := CopyFields(next, base, FieldTitle)
	if restored.Title != "A" || restored.Tags[0] != "y" {
		t.Fatalf("CopyFields copied the wrong fields: %#v", restored)
	}
}

func TestCardPatchValidate(t *testing.T) {
	if err := (CardPatch{}).Validate(); err != ErrEmptyPatch {
		t.Fatalf("expected ErrEmptyPatch, got %v", err)
	}
	blank := " "
	if err := (CardPatch{Title: &blank}).Validate(); err != ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	bad := Priority("soon")
	if err := (CardPatch{Priority: &bad}).Validate(); err != ErrInvalidPriority {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
	if err := MovePatch("done", -2).Validate(); err != ErrInvalidPosition {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestCardMoveAndUpdate(t *testing.T) {
	now := time.Now()
	c, err := NewCard(CardInput{ID: "k1", BoardID: "b1", ColumnID: "todo", Title: "A"}, now)
	if err != nil {
		t.Fatalf("NewCard() error = %v", err)
	}
	if err := c.Move(" ", 0, now); err != ErrInvalidColumnID {
		t.Fatalf("expected ErrInvalidColumnID, got %v", err)
	}
	if err := c.Move("done", 3, now); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if c.ColumnID != "done" || c.Position != 3 {
		t.Fatalf("unexpected position after move %#v", c)
	}
	assignee := " Sarah Chen "
	if err := c.Update(CardPatch{Assignee: &assignee}, now); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if c.Assignee != "Sarah Chen" {
		t.Fatalf("unexpected assignee %q", c.Assignee)
	}
}

func TestParsePriorityAndDueDate(t *testing.T) {
	if p, err := ParsePriority(" URGENT "); err != nil || p != PriorityUrgent {
		t.Fatalf("ParsePriority() = %q, %v", p, err)
	}
	if p, err := ParsePriority(""); err != nil || p != PriorityMedium {
		t.Fatalf("ParsePriority(empty) = %q, %v", p, err)
	}
	if _, err := ParsePriority("later"); err != ErrInvalidPriority {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
	if PriorityUrgent.Rank() >= PriorityLow.Rank() {
		t.Fatal("expected urgent to rank ahead of low")
	}
	due, err := ParseDueDate("2026-04-02")
	if err != nil || due == nil || due.Day() != 2 {
		t.Fatalf("ParseDueDate() = %v, %v", due, err)
	}
	if due, err := ParseDueDate(""); err != nil || due != nil {
		t.Fatalf("ParseDueDate(empty) = %v, %v", due, err)
	}
	if _, err := ParseDueDate("next week"); err != ErrInvalidDueDate {
		t.Fatalf("expected ErrInvalidDueDate, got %v", err)
	}
}

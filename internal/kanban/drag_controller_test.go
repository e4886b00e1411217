package kanban

import (
	"testing"
	"time"
)

func TestDragControllerLifecycle(t *testing.T) {
	clock := newFakeClock()
	d := NewDragController(0, clock.Now)
	if d.MinDuration() != DefaultMinDragDuration {
		t.Fatalf("expected default threshold, got %s", d.MinDuration())
	}
	if d.State().IsDragging {
		t.Fatal("expected idle controller")
	}
	if !d.DragStart("card-1", ItemCard, "col-1") {
		t.Fatal("expected drag start")
	}
	st := d.State()
	if !st.IsDragging || st.DraggedItemID != "card-1" || st.DraggedItemType != ItemCard || st.SourceColumnID != "col-1" {
		t.Fatalf("unexpected drag state %#v", st)
	}
	clock.Advance(250 * time.Millisecond)
	intent, ok := d.Drop("col-2", 0)
	if !ok {
		t.Fatal("expected drop intent")
	}
	if intent.ItemID != "card-1" || intent.TargetID != "col-2" || intent.SourceColumnID != "col-1" || !intent.Deliberate {
		t.Fatalf("unexpected intent %#v", intent)
	}
	if d.State() != (DragState{}) {
		t.Fatalf("expected idle state after drop, got %#v", d.State())
	}
	if _, ok := d.Drop("col-2", 0); ok {
		t.Fatal("expected drop while idle to fail")
	}
}

func TestDragControllerFalseStart(t *testing.T) {
	clock := newFakeClock()
	d := NewDragController(100*time.Millisecond, clock.Now)
	d.DragStart("card-1", ItemCard, "col-1")
	clock.Advance(40 * time.Millisecond)
	if d.DragEnd() {
		t.Fatal("expected a sub-threshold drag to be a false start")
	}
	if d.State().IsDragging {
		t.Fatal("expected false start to still clear state")
	}

	d.DragStart("card-1", ItemCard, "col-1")
	clock.Advance(100 * time.Millisecond)
	if !d.DragEnd() {
		t.Fatal("expected a drag at the threshold to be deliberate")
	}
	if d.DragEnd() {
		t.Fatal("expected DragEnd while idle to report false")
	}
}

func TestDragControllerCanDrop(t *testing.T) {
	d := NewDragController(0, newFakeClock().Now)
	if d.CanDrop(ItemColumn, "col-2") {
		t.Fatal("expected CanDrop=false while idle")
	}

	d.DragStart("card-1", ItemCard, "col-1")
	cases := []struct {
		typ  ItemType
		id   string
		want bool
	}{
		{ItemColumn, "col-2", true},
		{ItemCard, "card-2", true},
		{ItemCard, "card-1", false},
		{ItemColumn, "card-1", false},
		{ItemType("lane"), "x", false},
	}
	for _, tc := range cases {
		if got := d.CanDrop(tc.typ, tc.id); got != tc.want {
			t.Fatalf("card drag CanDrop(%s, %s) = %v, want %v", tc.typ, tc.id, got, tc.want)
		}
	}

	d.DragStart("col-1", ItemColumn, "")
	if !d.CanDrop(ItemColumn, "col-2") {
		t.Fatal("expected column to drop on another column")
	}
	if d.CanDrop(ItemCard, "card-2") {
		t.Fatal("expected column drop on card to be rejected")
	}
	if d.CanDrop(ItemColumn, "col-1") {
		t.Fatal("expected column self-drop to be rejected")
	}
}

func TestDragControllerCanDropIrreflexive(t *testing.T) {
	d := NewDragController(0, newFakeClock().Now)
	for _, dragged := range []ItemType{ItemCard, ItemColumn} {
		d.DragStart("same", dragged, "")
		for _, target := range []ItemType{ItemCard, ItemColumn} {
			if d.CanDrop(target, "same") {
				t.Fatalf("CanDrop(%s, same) while dragging %s = true", target, dragged)
			}
		}
	}
}

func TestDragControllerIsOverDropZone(t *testing.T) {
	d := NewDragController(0, newFakeClock().Now)
	if d.IsOverDropZone("col-2") {
		t.Fatal("expected no drop zone while idle")
	}
	d.DragStart("card-1", ItemCard, "col-1")
	if !d.IsOverDropZone("col-2") {
		t.Fatal("expected col-2 to be a drop zone")
	}
	if d.IsOverDropZone("card-1") {
		t.Fatal("expected the dragged item not to be its own drop zone")
	}
}

func TestDragControllerRejectsBadStart(t *testing.T) {
	d := NewDragController(0, nil)
	if d.DragStart("  ", ItemCard, "") {
		t.Fatal("expected blank id to be rejected")
	}
	if d.DragStart("x", ItemType("lane"), "") {
		t.Fatal("expected unknown item type to be rejected")
	}
}

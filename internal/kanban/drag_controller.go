package kanban

import (
	"strings"
	"time"
)

// DefaultMinDragDuration separates pointer jitter from deliberate drags.
const DefaultMinDragDuration = 100 * time.Millisecond

// ItemType identifies what is being dragged or dropped onto.
type ItemType string

const (
	ItemCard   ItemType = "card"
	ItemColumn ItemType = "column"
)

// Clock returns the current time.
type Clock func() time.Time

// DragState is the live drag gesture. The zero value is idle.
type DragState struct {
	IsDragging      bool
	DraggedItemID   string
	DraggedItemType ItemType
	SourceColumnID  string
	StartedAt       time.Time
}

// DropIntent describes a completed drop for the orchestrator to translate into a mutation.
type DropIntent struct {
	ItemID         string
	ItemType       ItemType
	SourceColumnID string
	TargetID       string
	Position       int
	Duration       time.Duration
	Deliberate     bool
}

// DragController tracks one drag gesture at a time.
type DragController struct {
	state       DragState
	minDuration time.Duration
	now         Clock
}

// NewDragController constructs a controller. Non-positive minDuration falls back to the default.
func NewDragController(minDuration time.Duration, clock Clock) *DragController {
	if minDuration <= 0 {
		minDuration = DefaultMinDragDuration
	}
	if clock == nil {
		clock = time.Now
	}
	return &DragController{minDuration: minDuration, now: clock}
}

// MinDuration returns the false-start threshold.
func (d *DragController) MinDuration() time.Duration {
	return d.minDuration
}

// State returns the current drag state.
func (d *DragController) State() DragState {
	return d.state
}

// DragStart records the start time and enters dragging. A gesture already in progress is replaced.
func (d *DragController) DragStart(itemID string, itemType ItemType, sourceColumnID string) bool {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return false
	}
	if itemType != ItemCard && itemType != ItemColumn {
		return false
	}
	d.state = DragState{
		IsDragging:      true,
		DraggedItemID:   itemID,
		DraggedItemType: itemType,
		SourceColumnID:  strings.TrimSpace(sourceColumnID),
		StartedAt:       d.now(),
	}
	return true
}

// CanDrop reports whether the dragged item may land on the target.
// Cards land on columns or other cards. Columns only reorder against columns.
func (d *DragController) CanDrop(targetType ItemType, targetID string) bool {
	if !d.state.IsDragging {
		return false
	}
	if targetID == d.state.DraggedItemID {
		return false
	}
	switch d.state.DraggedItemType {
	case ItemCard:
		return targetType == ItemColumn || targetType == ItemCard
	case ItemColumn:
		return targetType == ItemColumn
	default:
		return false
	}
}

// IsOverDropZone reports whether a hovered zone should render as a drop target.
func (d *DragController) IsOverDropZone(zoneID string) bool {
	return d.state.IsDragging && zoneID != d.state.DraggedItemID
}

// Drop ends the gesture on a target and returns the intent. Not dragging yields ok=false.
func (d *DragController) Drop(targetID string, position int) (DropIntent, bool) {
	if !d.state.IsDragging {
		return DropIntent{}, false
	}
	elapsed := d.elapsed()
	intent := DropIntent{
		ItemID:         d.state.DraggedItemID,
		ItemType:       d.state.DraggedItemType,
		SourceColumnID: d.state.SourceColumnID,
		TargetID:       targetID,
		Position:       position,
		Duration:       elapsed,
		Deliberate:     elapsed >= d.minDuration,
	}
	d.state = DragState{}
	return intent, true
}

// DragEnd abandons the gesture. It reports whether the drag lasted long enough to count as deliberate.
func (d *DragController) DragEnd() bool {
	if !d.state.IsDragging {
		return false
	}
	deliberate := d.elapsed() >= d.minDuration
	d.state = DragState{}
	return deliberate
}

func (d *DragController) elapsed() time.Duration {
	elapsed := d.now().Sub(d.state.StartedAt)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

package kanban

import "slices"

// Key names understood by the navigator, search session and board.
const (
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyEnter      = "Enter"
	KeyEscape     = "Escape"
	KeyTab        = "Tab"
	KeyDelete     = "Delete"
	KeyBackspace  = "Backspace"
)

// KeyEvent is a key press with its modifiers. Meta is the command key.
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool
	Alt   bool
}

// Primary reports whether the platform shortcut modifier (Ctrl or Meta) is held.
func (e KeyEvent) Primary() bool {
	return e.Ctrl || e.Meta
}

// FocusHandle lets the navigator move input focus without knowing how cards render.
type FocusHandle interface {
	Focus()
	Activate()
}

// ColumnLayout is one column and its card ids in display order.
type ColumnLayout struct {
	ColumnID string
	CardIDs  []string
}

// Layout is the card grid: columns left to right, cards top to bottom.
type Layout []ColumnLayout

// Flat returns every card id column by column.
func (l Layout) Flat() []string {
	out := make([]string, 0, 16)
	for _, col := range l {
		out = append(out, col.CardIDs...)
	}
	return out
}

// Locate returns the column and row of a card.
func (l Layout) Locate(cardID string) (col, row int, ok bool) {
	if cardID == "" {
		return 0, 0, false
	}
	for ci, c := range l {
		if ri := slices.Index(c.CardIDs, cardID); ri >= 0 {
			return ci, ri, true
		}
	}
	return 0, 0, false
}

// KeyResult is the outcome of one key press.
type KeyResult struct {
	Focused        string
	PreventDefault bool
	Activated      bool
	Cleared        bool
}

// KeyboardNavigator maps key presses to focus moves across the card grid.
// The focused id is owned by the caller and passed in on every call.
type KeyboardNavigator struct {
	handles map[string]FocusHandle
}

// NewKeyboardNavigator constructs an empty navigator.
func NewKeyboardNavigator() *KeyboardNavigator {
	return &KeyboardNavigator{handles: map[string]FocusHandle{}}
}

// RegisterCardRef upserts a focus handle. A nil handle removes the entry.
func (n *KeyboardNavigator) RegisterCardRef(id string, handle FocusHandle) {
	if handle == nil {
		delete(n.handles, id)
		return
	}
	n.handles[id] = handle
}

// Handle returns the registered handle for a card.
func (n *KeyboardNavigator) Handle(id string) (FocusHandle, bool) {
	h, ok := n.handles[id]
	return h, ok
}

// FocusNextCard moves to the next card in flat order, or the first card when nothing is focused.
func (n *KeyboardNavigator) FocusNextCard(layout Layout, focused string) string {
	flat := layout.Flat()
	if len(flat) == 0 {
		return ""
	}
	idx := slices.Index(flat, focused)
	switch {
	case focused == "" || idx < 0:
		return n.focus(flat[0])
	case idx+1 < len(flat):
		return n.focus(flat[idx+1])
	default:
		return focused
	}
}

// FocusPreviousCard moves to the previous card in flat order, or the last card when nothing is focused.
func (n *KeyboardNavigator) FocusPreviousCard(layout Layout, focused string) string {
	flat := layout.Flat()
	if len(flat) == 0 {
		return ""
	}
	idx := slices.Index(flat, focused)
	switch {
	case focused == "" || idx < 0:
		return n.focus(flat[len(flat)-1])
	case idx > 0:
		return n.focus(flat[idx-1])
	default:
		return focused
	}
}

// FocusNextColumn steps down within the focused column, then falls back to
// the first card of the next non-empty column.
func (n *KeyboardNavigator) FocusNextColumn(layout Layout, focused string) string {
	ci, ri, ok := layout.Locate(focused)
	if !ok {
		return ""
	}
	if ri+1 < len(layout[ci].CardIDs) {
		return n.focus(layout[ci].CardIDs[ri+1])
	}
	for next := ci + 1; next < len(layout); next++ {
		if ids := layout[next].CardIDs; len(ids) > 0 {
			return n.focus(ids[0])
		}
	}
	return focused
}

// FocusPreviousColumn steps up within the focused column, then falls back to
// the last card of the previous non-empty column.
func (n *KeyboardNavigator) FocusPreviousColumn(layout Layout, focused string) string {
	ci, ri, ok := layout.Locate(focused)
	if !ok {
		return ""
	}
	if ri > 0 {
		return n.focus(layout[ci].CardIDs[ri-1])
	}
	for prev := ci - 1; prev >= 0; prev-- {
		if ids := layout[prev].CardIDs; len(ids) > 0 {
			return n.focus(ids[len(ids)-1])
		}
	}
	return focused
}

// HandleKeyDown dispatches one key press. Tab and unknown keys pass through untouched.
func (n *KeyboardNavigator) HandleKeyDown(ev KeyEvent, layout Layout, focused string) KeyResult {
	if _, _, ok := layout.Locate(focused); !ok {
		focused = ""
	}
	res := KeyResult{Focused: focused, PreventDefault: true}
	switch ev.Key {
	case KeyArrowRight:
		res.Focused = n.FocusNextColumn(layout, focused)
	case KeyArrowLeft:
		res.Focused = n.FocusPreviousColumn(layout, focused)
	case KeyArrowDown:
		res.Focused = n.FocusNextCard(layout, focused)
	case KeyArrowUp:
		res.Focused = n.FocusPreviousCard(layout, focused)
	case KeyEnter:
		if h, ok := n.handles[focused]; ok && focused != "" {
			h.Activate()
			res.Activated = true
		}
	case KeyEscape:
		res.Focused = ""
		res.Cleared = true
	default:
		return KeyResult{Focused: focused}
	}
	return res
}

func (n *KeyboardNavigator) focus(id string) string {
	if h, ok := n.handles[id]; ok {
		h.Focus()
	}
	return id
}

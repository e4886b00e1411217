package kanban

import (
	"time"

	"github.com/hylla/tavla/internal/domain"
)

// DefaultSearchDebounce is how long recomputation waits after the last keystroke.
const DefaultSearchDebounce = 150 * time.Millisecond

// SearchKeyResult is the outcome of a key press inside the result list.
type SearchKeyResult struct {
	Handled    bool
	Closed     bool
	SelectedID string
}

// SearchSession is the search overlay state: open flag, query, debounced
// results and the highlighted result index.
//
// SetQuery hands out a ticket; the host waits Debounce() and passes it back
// through Fire. Only the newest ticket recomputes, so each keystroke cancels
// the one before it.
type SearchSession struct {
	engine   *SearchEngine
	debounce time.Duration

	open     bool
	query    string
	version  uint64
	results  []SearchResult
	selected int
}

// NewSearchSession constructs a closed session. Non-positive debounce falls back to the default.
func NewSearchSession(engine *SearchEngine, debounce time.Duration) *SearchSession {
	if engine == nil {
		engine = NewSearchEngine()
	}
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}
	return &SearchSession{engine: engine, debounce: debounce}
}

// Engine returns the scoring engine.
func (s *SearchSession) Engine() *SearchEngine {
	return s.engine
}

// Debounce returns the recomputation delay.
func (s *SearchSession) Debounce() time.Duration {
	return s.debounce
}

// Open shows the overlay with an empty query browsing every card.
func (s *SearchSession) Open(cards []domain.Card) {
	s.open = true
	s.query = ""
	s.version++
	s.results = s.engine.Search("", cards)
	s.selected = 0
}

// Close hides the overlay and invalidates any outstanding ticket.
func (s *SearchSession) Close() {
	s.open = false
	s.query = ""
	s.version++
	s.results = nil
	s.selected = 0
}

// IsOpen reports whether the overlay is visible.
func (s *SearchSession) IsOpen() bool {
	return s.open
}

// Query returns the latest typed query.
func (s *SearchSession) Query() string {
	return s.query
}

// SetQuery records a keystroke and returns the ticket for the deferred recomputation.
func (s *SearchSession) SetQuery(query string) uint64 {
	s.query = query
	s.version++
	return s.version
}

// Fire recomputes results if ticket is still the newest one.
func (s *SearchSession) Fire(ticket uint64, cards []domain.Card) bool {
	if !s.open || ticket != s.version {
		return false
	}
	s.Refresh(cards)
	return true
}

// Refresh recomputes results for the current query immediately.
func (s *SearchSession) Refresh(cards []domain.Card) {
	s.results = s.engine.Search(s.query, cards)
	s.selected = clamp(s.selected, 0, len(s.results)-1)
}

// Results returns the current ranked results.
func (s *SearchSession) Results() []SearchResult {
	return s.results
}

// SelectedIndex returns the highlighted result index.
func (s *SearchSession) SelectedIndex() int {
	return s.selected
}

// Selected returns the highlighted result.
func (s *SearchSession) Selected() (SearchResult, bool) {
	if s.selected < 0 || s.selected >= len(s.results) {
		return SearchResult{}, false
	}
	return s.results[s.selected], true
}

// HandleKey moves the selection, selects on Enter and closes on Escape.
func (s *SearchSession) HandleKey(ev KeyEvent) SearchKeyResult {
	if !s.open {
		return SearchKeyResult{}
	}
	switch ev.Key {
	case KeyArrowDown:
		s.selected = clamp(s.selected+1, 0, len(s.results)-1)
	case KeyArrowUp:
		s.selected = clamp(s.selected-1, 0, len(s.results)-1)
	case KeyEnter:
		res, ok := s.Selected()
		if !ok {
			return SearchKeyResult{Handled: true}
		}
		s.Close()
		return SearchKeyResult{Handled: true, Closed: true, SelectedID: res.Card.ID}
	case KeyEscape:
		s.Close()
		return SearchKeyResult{Handled: true, Closed: true}
	default:
		return SearchKeyResult{}
	}
	return SearchKeyResult{Handled: true}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package kanban

import (
	"slices"

	"github.com/hylla/tavla/internal/domain"
)

// pendingUpdate is the revert target for one card: the fields speculation has
// touched and their values before the first outstanding patch.
type pendingUpdate struct {
	fields []domain.CardField
	before domain.Card
}

// OptimisticStore holds the confirmed card collection and a working copy that
// carries speculative patches. Each card has at most one pending record;
// stacked patches merge into it.
type OptimisticStore struct {
	confirmed []domain.Card
	working   []domain.Card
	index     map[string]int
	pending   map[string]*pendingUpdate
}

// NewOptimisticStore constructs a store over a confirmed collection.
func NewOptimisticStore(cards []domain.Card) *OptimisticStore {
	s := &OptimisticStore{}
	s.Reset(cards)
	return s
}

// Reset replaces the confirmed collection. The working copy follows it and every pending record is dropped.
func (s *OptimisticStore) Reset(cards []domain.Card) {
	s.confirmed = cloneCards(cards)
	s.working = cloneCards(cards)
	s.index = make(map[string]int, len(cards))
	for i, c := range s.working {
		s.index[c.ID] = i
	}
	s.pending = map[string]*pendingUpdate{}
}

// ApplyOptimisticUpdate merges patch into the working copy of card id and
// records the pre-merge value of every newly touched field.
func (s *OptimisticStore) ApplyOptimisticUpdate(id string, patch domain.CardPatch) bool {
	idx, ok := s.index[id]
	if !ok {
		return false
	}
	fields := patch.Fields()
	if len(fields) == 0 {
		return false
	}
	rec, ok := s.pending[id]
	if !ok {
		rec = &pendingUpdate{before: s.working[idx].Clone()}
		s.pending[id] = rec
	}
	for _, f := range fields {
		if !slices.Contains(rec.fields, f) {
			rec.fields = append(rec.fields, f)
		}
	}
	s.working[idx] = patch.ApplyTo(s.working[idx])
	return true
}

// RevertOptimisticUpdate restores the recorded fields of card id and clears its record.
func (s *OptimisticStore) RevertOptimisticUpdate(id string) bool {
	rec, ok := s.pending[id]
	if !ok {
		return false
	}
	delete(s.pending, id)
	idx, ok := s.index[id]
	if !ok {
		return false
	}
	s.working[idx] = domain.CopyFields(s.working[idx], rec.before, rec.fields...)
	return true
}

// RevertAllOptimisticUpdates restores the confirmed snapshot and clears every record.
func (s *OptimisticStore) RevertAllOptimisticUpdates() {
	s.working = cloneCards(s.confirmed)
	s.pending = map[string]*pendingUpdate{}
}

// CommitOptimisticUpdate clears the record of card id and folds its rendered
// fields into the confirmed snapshot.
func (s *OptimisticStore) CommitOptimisticUpdate(id string) bool {
	rec, ok := s.pending[id]
	if !ok {
		return false
	}
	delete(s.pending, id)
	idx, ok := s.index[id]
	if !ok {
		return false
	}
	s.confirmed[idx] = domain.CopyFields(s.confirmed[idx], s.working[idx], rec.fields...)
	return true
}

// Cards returns the rendered collection in confirmed order.
func (s *OptimisticStore) Cards() []domain.Card {
	return cloneCards(s.working)
}

// Confirmed returns the last confirmed collection.
func (s *OptimisticStore) Confirmed() []domain.Card {
	return cloneCards(s.confirmed)
}

// Card returns the rendered copy of one card.
func (s *OptimisticStore) Card(id string) (domain.Card, bool) {
	idx, ok := s.index[id]
	if !ok {
		return domain.Card{}, false
	}
	return s.working[idx].Clone(), true
}

// IsPending reports whether card id carries speculation.
func (s *OptimisticStore) IsPending(id string) bool {
	_, ok := s.pending[id]
	return ok
}

// IsPlacementPending reports whether speculation has moved card id to another
// column or position.
func (s *OptimisticStore) IsPlacementPending(id string) bool {
	rec, ok := s.pending[id]
	if !ok {
		return false
	}
	return slices.Contains(rec.fields, domain.FieldColumnID) || slices.Contains(rec.fields, domain.FieldPosition)
}

// Renumber sets the position of each card in order to its index, in both the
// confirmed and working copies. Cards with a pending placement keep theirs.
func (s *OptimisticStore) Renumber(order []string) {
	for pos, id := range order {
		if s.IsPlacementPending(id) {
			continue
		}
		idx, ok := s.index[id]
		if !ok {
			continue
		}
		s.confirmed[idx].Position = pos
		s.working[idx].Position = pos
	}
}

// PendingFields lists the fields speculation has touched on card id.
func (s *OptimisticStore) PendingFields(id string) []domain.CardField {
	rec, ok := s.pending[id]
	if !ok {
		return nil
	}
	return slices.Clone(rec.fields)
}

// PendingIDs lists cards with speculation, sorted.
func (s *OptimisticStore) PendingIDs() []string {
	out := make([]string, 0, len(s.pending))
	for id := range s.pending {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func cloneCards(cards []domain.Card) []domain.Card {
	out := make([]domain.Card, len(cards))
	for i, c := range cards {
		out[i] = c.Clone()
	}
	return out
}

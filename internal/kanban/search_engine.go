package kanban

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/hylla/tavla/internal/domain"
)

// SearchField names a card field that can contribute to a search score.
type SearchField string

const (
	MatchTitle       SearchField = "title"
	MatchDescription SearchField = "description"
	MatchTags        SearchField = "tags"
	MatchAssignee    SearchField = "assignee"
	MatchStatus      SearchField = "status"
)

// SearchWeights are the points each matching field adds. Tag adds once per matching tag.
type SearchWeights struct {
	Title       int
	Description int
	Tag         int
	Assignee    int
	Status      int
}

// DefaultSearchWeights returns the stock scoring table.
func DefaultSearchWeights() SearchWeights {
	return SearchWeights{
		Title:       100,
		Description: 50,
		Tag:         30,
		Assignee:    20,
		Status:      10,
	}
}

// SearchResult is one ranked card.
type SearchResult struct {
	Card          domain.Card
	Score         int
	MatchedFields []SearchField
	// Match is the query text that matched, with the user's casing.
	Match string
}

// Matched reports whether field contributed to the score.
func (r SearchResult) Matched(field SearchField) bool {
	return slices.Contains(r.MatchedFields, field)
}

// StatusResolver maps a column id onto the display status (its column title).
type StatusResolver func(columnID string) string

// SearchEngine scores cards against a free-text query.
type SearchEngine struct {
	weights SearchWeights
	status  StatusResolver
}

// SearchOption configures a SearchEngine.
type SearchOption func(*SearchEngine)

// WithSearchWeights overrides the scoring table.
func WithSearchWeights(w SearchWeights) SearchOption {
	return func(e *SearchEngine) {
		e.weights = w
	}
}

// WithStatusResolver lets the status field match column titles as well as column ids.
func WithStatusResolver(fn StatusResolver) SearchOption {
	return func(e *SearchEngine) {
		e.status = fn
	}
}

// NewSearchEngine constructs an engine with default weights.
func NewSearchEngine(opts ...SearchOption) *SearchEngine {
	e := &SearchEngine{weights: DefaultSearchWeights()}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Weights returns the scoring table in use.
func (e *SearchEngine) Weights() SearchWeights {
	return e.weights
}

// Search ranks cards by descending score, keeping input order among equal scores.
// An empty query browses every card with score 0. Cards scoring zero are dropped.
func (e *SearchEngine) Search(query string, cards []domain.Card) []SearchResult {
	match := strings.TrimSpace(query)
	if match == "" {
		out := make([]SearchResult, 0, len(cards))
		for _, c := range cards {
			out = append(out, SearchResult{Card: c.Clone()})
		}
		return out
	}

	needle := strings.ToLower(match)
	out := make([]SearchResult, 0, len(cards))
	for _, c := range cards {
		res := e.score(c, needle)
		if res.Score <= 0 {
			continue
		}
		res.Match = match
		out = append(out, res)
	}
	slices.SortStableFunc(out, func(a, b SearchResult) int {
		return b.Score - a.Score
	})
	return out
}

func (e *SearchEngine) score(c domain.Card, needle string) SearchResult {
	res := SearchResult{Card: c.Clone()}
	add := func(field SearchField, points int) {
		if points <= 0 {
			return
		}
		res.Score += points
		if !slices.Contains(res.MatchedFields, field) {
			res.MatchedFields = append(res.MatchedFields, field)
		}
	}

	if contains(c.Title, needle) {
		add(MatchTitle, e.weights.Title)
	}
	if contains(c.Description, needle) {
		add(MatchDescription, e.weights.Description)
	}
	for _, tag := range c.Tags {
		if contains(tag, needle) {
			add(MatchTags, e.weights.Tag)
		}
	}
	if contains(c.Assignee, needle) {
		add(MatchAssignee, e.weights.Assignee)
	}
	status := contains(c.ColumnID, needle)
	if !status && e.status != nil {
		status = contains(e.status(c.ColumnID), needle)
	}
	if status {
		add(MatchStatus, e.weights.Status)
	}
	return res
}

func contains(text, lowerNeedle string) bool {
	if text == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), lowerNeedle)
}

// HighlightRanges returns the byte ranges of case-insensitive, non-overlapping occurrences of query in text.
func HighlightRanges(text, query string) [][2]int {
	query = strings.TrimSpace(query)
	n := utf8.RuneCountInString(query)
	if n == 0 || text == "" {
		return nil
	}
	var out [][2]int
	for i := 0; i < len(text); {
		j, count := i, 0
		for j < len(text) && count < n {
			_, size := utf8.DecodeRuneInString(text[j:])
			j += size
			count++
		}
		if count == n && strings.EqualFold(text[i:j], query) {
			out = append(out, [2]int{i, j})
			i = j
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return out
}

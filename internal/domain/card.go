package domain

import (
	"slices"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ParsePriority maps user input onto a known priority. Empty input means medium.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if p == "" {
		return PriorityMedium, nil
	}
	if !slices.Contains(validPriorities, p) {
		return "", ErrInvalidPriority
	}
	return p, nil
}

// Rank orders priorities from urgent (0) to low (3).
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// Card is one item on a board. ColumnID places it on the board, Position orders it within the column.
type Card struct {
	ID          string
	BoardID     string
	ColumnID    string
	Position    int
	Title       string
	Description string
	Priority    Priority
	Assignee    string
	Tags        []string
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CardInput holds the fields used to construct a card.
type CardInput struct {
	ID          string
	BoardID     string
	ColumnID    string
	Position    int
	Title       string
	Description string
	Priority    Priority
	Assignee    string
	Tags        []string
	DueDate     *time.Time
}

// CardDraft is a card that has not been assigned an id or column yet.
type CardDraft struct {
	Title       string
	Description string
	Priority    Priority
	Assignee    string
	Tags        []string
	DueDate     *time.Time
}

func NewCard(in CardInput, now time.Time) (Card, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.BoardID = strings.TrimSpace(in.BoardID)
	in.ColumnID = strings.TrimSpace(in.ColumnID)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Assignee = strings.TrimSpace(in.Assignee)

	if in.ID == "" || in.BoardID == "" {
		return Card{}, ErrInvalidID
	}
	if in.ColumnID == "" {
		return Card{}, ErrInvalidColumnID
	}
	if in.Title == "" {
		return Card{}, ErrInvalidTitle
	}
	if in.Position < 0 {
		return Card{}, ErrInvalidPosition
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !slices.Contains(validPriorities, in.Priority) {
		return Card{}, ErrInvalidPriority
	}

	return Card{
		ID:          in.ID,
		BoardID:     in.BoardID,
		ColumnID:    in.ColumnID,
		Position:    in.Position,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Assignee:    in.Assignee,
		Tags:        normalizeTags(in.Tags),
		DueDate:     normalizeDueDate(in.DueDate),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Clone returns a copy that shares no slices or pointers with c.
func (c Card) Clone() Card {
	out := c
	if c.Tags != nil {
		out.Tags = slices.Clone(c.Tags)
	}
	if c.DueDate != nil {
		ts := *c.DueDate
		out.DueDate = &ts
	}
	return out
}

// Move places the card in a column at a position.
func (c *Card) Move(columnID string, position int, now time.Time) error {
	columnID = strings.TrimSpace(columnID)
	if columnID == "" {
		return ErrInvalidColumnID
	}
	if position < 0 {
		return ErrInvalidPosition
	}
	c.ColumnID = columnID
	c.Position = position
	c.UpdatedAt = now.UTC()
	return nil
}

// Update validates a patch and applies it.
func (c *Card) Update(p CardPatch, now time.Time) error {
	if err := p.Validate(); err != nil {
		return err
	}
	*c = p.ApplyTo(*c)
	c.UpdatedAt = now.UTC()
	return nil
}

func normalizeDueDate(due *time.Time) *time.Time {
	if due == nil {
		return nil
	}
	u := due.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// ParseDueDate accepts YYYY-MM-DD or RFC3339 input. Empty input means no due date.
func ParseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return normalizeDueDate(&ts), nil
		}
	}
	return nil, ErrInvalidDueDate
}

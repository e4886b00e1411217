package domain

import (
	"slices"
	"strings"
	"time"
)

// CardField names one patchable card field.
type CardField string

const (
	FieldTitle       CardField = "title"
	FieldDescription CardField = "description"
	FieldColumnID    CardField = "column_id"
	FieldPosition    CardField = "position"
	FieldPriority    CardField = "priority"
	FieldAssignee    CardField = "assignee"
	FieldTags        CardField = "tags"
	FieldDueDate     CardField = "due_date"
)

// CardPatch is a partial card update. Nil fields are left untouched.
type CardPatch struct {
	Title        *string
	Description  *string
	ColumnID     *string
	Position     *int
	Priority     *Priority
	Assignee     *string
	Tags         *[]string
	DueDate      *time.Time
	ClearDueDate bool
}

// MovePatch returns the patch a column move applies.
func MovePatch(columnID string, position int) CardPatch {
	return CardPatch{ColumnID: &columnID, Position: &position}
}

// Fields lists the fields the patch touches, in a fixed order.
func (p CardPatch) Fields() []CardField {
	out := make([]CardField, 0, 8)
	if p.Title != nil {
		out = append(out, FieldTitle)
	}
	if p.Description != nil {
		out = append(out, FieldDescription)
	}
	if p.ColumnID != nil {
		out = append(out, FieldColumnID)
	}
	if p.Position != nil {
		out = append(out, FieldPosition)
	}
	if p.Priority != nil {
		out = append(out, FieldPriority)
	}
	if p.Assignee != nil {
		out = append(out, FieldAssignee)
	}
	if p.Tags != nil {
		out = append(out, FieldTags)
	}
	if p.DueDate != nil || p.ClearDueDate {
		out = append(out, FieldDueDate)
	}
	return out
}

// IsEmpty reports whether the patch touches no field.
func (p CardPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Validate checks the values the patch would write.
func (p CardPatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrInvalidTitle
	}
	if p.ColumnID != nil && strings.TrimSpace(*p.ColumnID) == "" {
		return ErrInvalidColumnID
	}
	if p.Position != nil && *p.Position < 0 {
		return ErrInvalidPosition
	}
	if p.Priority != nil && !slices.Contains(validPriorities, *p.Priority) {
		return ErrInvalidPriority
	}
	return nil
}

// ApplyTo merges the patch into a copy of c. Values are normalized but not validated.
func (p CardPatch) ApplyTo(c Card) Card {
	out := c.Clone()
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		out.Description = strings.TrimSpace(*p.Description)
	}
	if p.ColumnID != nil {
		out.ColumnID = strings.TrimSpace(*p.ColumnID)
	}
	if p.Position != nil {
		out.Position = *p.Position
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Assignee != nil {
		out.Assignee = strings.TrimSpace(*p.Assignee)
	}
	if p.Tags != nil {
		out.Tags = normalizeTags(*p.Tags)
	}
	switch {
	case p.ClearDueDate:
		out.DueDate = nil
	case p.DueDate != nil:
		out.DueDate = normalizeDueDate(p.DueDate)
	}
	return out
}

// CopyFields copies the named fields from src into a copy of dst.
func CopyFields(dst, src Card, fields ...CardField) Card {
	out := dst.Clone()
	src = src.Clone()
	for _, f := range fields {
		switch f {
		case FieldTitle:
			out.Title = src.Title
		case FieldDescription:
			out.Description = src.Description
		case FieldColumnID:
			out.ColumnID = src.ColumnID
		case FieldPosition:
			out.Position = src.Position
		case FieldPriority:
			out.Priority = src.Priority
		case FieldAssignee:
			out.Assignee = src.Assignee
		case FieldTags:
			out.Tags = src.Tags
		case FieldDueDate:
			out.DueDate = src.DueDate
		}
	}
	return out
}

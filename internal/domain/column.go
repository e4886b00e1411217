package domain

import (
	"strings"
	"time"
)

// Column is one stage of a board. Order is unique per board, left to right.
type Column struct {
	ID        string
	BoardID   string
	Title     string
	Order     int
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewColumn constructs a column after trimming and validating its fields.
func NewColumn(id, boardID, title string, order int, color string, now time.Time) (Column, error) {
	id = strings.TrimSpace(id)
	boardID = strings.TrimSpace(boardID)
	title = strings.TrimSpace(title)
	if id == "" {
		return Column{}, ErrInvalidID
	}
	if boardID == "" {
		return Column{}, ErrInvalidID
	}
	if title == "" {
		return Column{}, ErrInvalidTitle
	}
	if order < 0 {
		return Column{}, ErrInvalidOrder
	}

	return Column{
		ID:        id,
		BoardID:   boardID,
		Title:     title,
		Order:     order,
		Color:     strings.TrimSpace(color),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// Rename renames the column.
func (c *Column) Rename(title string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	c.Title = title
	c.UpdatedAt = now.UTC()
	return nil
}

// SetOrder handles set order.
func (c *Column) SetOrder(order int, now time.Time) error {
	if order < 0 {
		return ErrInvalidOrder
	}
	c.Order = order
	c.UpdatedAt = now.UTC()
	return nil
}

// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrUnavailable reports a surface with no backing service.
var ErrUnavailable = errors.New("service unavailable")

// Board is the transport view of one pipeline.
type Board struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Column is the transport view of one board stage.
type Column struct {
	ID      string `json:"id"`
	BoardID string `json:"board_id"`
	Title   string `json:"title"`
	Order   int    `json:"order"`
	Color   string `json:"color,omitempty"`
}

// Card is the transport view of one card. DueDate uses YYYY-MM-DD.
type Card struct {
	ID          string    `json:"id"`
	BoardID     string    `json:"board_id"`
	ColumnID    string    `json:"column_id"`
	Position    int       `json:"position"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority"`
	Assignee    string    `json:"assignee,omitempty"`
	Tags        []string  `json:"tags"`
	DueDate     string    `json:"due_date,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SearchHit is one ranked search result.
type SearchHit struct {
	Card          Card     `json:"card"`
	Score         int      `json:"score"`
	MatchedFields []string `json:"matched_fields"`
}

// SearchCardsRequest asks for ranked cards on one board.
type SearchCardsRequest struct {
	BoardID string
	Query   string
	Limit   int
}

// CreateCardRequest creates one card at the bottom of a column.
type CreateCardRequest struct {
	ColumnID    string   `json:"column_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Assignee    string   `json:"assignee"`
	Tags        []string `json:"tags"`
	DueDate     string   `json:"due_date"`
}

// UpdateCardRequest patches one card. Nil fields are untouched; an empty due_date clears it.
type UpdateCardRequest struct {
	CardID      string    `json:"-"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Priority    *string   `json:"priority"`
	Assignee    *string   `json:"assignee"`
	Tags        *[]string `json:"tags"`
	DueDate     *string   `json:"due_date"`
}

// MoveCardRequest places one card in a column at a position.
type MoveCardRequest struct {
	CardID   string `json:"-"`
	ColumnID string `json:"column_id"`
	Position int    `json:"position"`
}

// ReorderColumnRequest moves one column to a new index on its board.
type ReorderColumnRequest struct {
	ColumnID string `json:"-"`
	Order    int    `json:"order"`
}

// BoardService is the board surface shared by the HTTP and MCP transports.
type BoardService interface {
	ListBoards(context.Context) ([]Board, error)
	ListColumns(context.Context, string) ([]Column, error)
	ListCards(context.Context, string) ([]Card, error)
	SearchCards(context.Context, SearchCardsRequest) ([]SearchHit, error)
	CreateCard(context.Context, CreateCardRequest) (Card, error)
	UpdateCard(context.Context, UpdateCardRequest) (Card, error)
	MoveCard(context.Context, MoveCardRequest) (Card, error)
	DeleteCard(context.Context, string) error
	ReorderColumn(context.Context, ReorderColumnRequest) error
}

package app

import (
	"context"

	"github.com/hylla/tavla/internal/domain"
)

// Repository is the storage port behind Service.
type Repository interface {
	CreateBoard(context.Context, domain.Board) error
	UpdateBoard(context.Context, domain.Board) error
	GetBoard(context.Context, string) (domain.Board, error)
	ListBoards(context.Context) ([]domain.Board, error)

	CreateColumn(context.Context, domain.Column) error
	UpdateColumn(context.Context, domain.Column) error
	GetColumn(context.Context, string) (domain.Column, error)
	ListColumns(context.Context, string) ([]domain.Column, error)
	// UpdateColumns writes several columns atomically.
	UpdateColumns(context.Context, []domain.Column) error

	CreateCard(context.Context, domain.Card) error
	UpdateCard(context.Context, domain.Card) error
	GetCard(context.Context, string) (domain.Card, error)
	ListCards(context.Context, string) ([]domain.Card, error)
	DeleteCard(context.Context, string) error
	// UpdateCards writes several cards atomically.
	UpdateCards(context.Context, []domain.Card) error
}

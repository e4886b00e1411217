package tui

import (
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/hylla/tavla/internal/kanban"
)

// KeyConfig carries configured key overrides. Blank fields keep defaults.
type KeyConfig struct {
	Search    string
	Delete    string
	NewCard   string
	Copy      string
	MoveLeft  string
	MoveRight string
}

// RuntimeConfig is the reloadable part of the TUI configuration.
type RuntimeConfig struct {
	Keys            KeyConfig
	MinDragDuration time.Duration
	SearchDebounce  time.Duration
	SearchWeights   kanban.SearchWeights
	PersistTimeout  time.Duration
}

// DefaultRuntimeConfig returns the built-in interaction settings.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		MinDragDuration: kanban.DefaultMinDragDuration,
		SearchDebounce:  kanban.DefaultSearchDebounce,
		SearchWeights:   kanban.DefaultSearchWeights(),
		PersistTimeout:  10 * time.Second,
	}
}

// ReloadConfigFunc loads a fresh runtime config when the user asks for it.
type ReloadConfigFunc func() (RuntimeConfig, error)

// ClipboardFunc writes text to the system clipboard.
type ClipboardFunc func(string) error

type Option func(*Model)

func WithRuntimeConfig(cfg RuntimeConfig) Option {
	return func(m *Model) {
		m.applyRuntimeConfig(cfg)
	}
}

func WithLogger(logger *charmLog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithReloadConfig(fn ReloadConfigFunc) Option {
	return func(m *Model) {
		m.reloadConfig = fn
	}
}

func WithClipboard(fn ClipboardFunc) Option {
	return func(m *Model) {
		m.copyText = fn
	}
}

// WithClock injects the time source for drag thresholds.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// WithBoardID opens a specific board instead of the first one.
func WithBoardID(id string) Option {
	return func(m *Model) {
		m.pendingBoardID = id
	}
}

package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound       = errors.New("not found")
	ErrCrossBoardMove = errors.New("card and column belong to different boards")
)

package repository

import "errors"

// Sentinel kinds for high score errors.
var (
	ErrNotFound     = errors.New("high score not found")
	ErrInvalidLimit = errors.New("invalid high score limit")
)

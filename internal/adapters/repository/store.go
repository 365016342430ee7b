// Package repository keeps the best score per game key for the lifetime of
// the process.
package repository

import (
	"context"
	"time"
)

// Entry is one high score row.
type Entry struct {
	Rank    int       `json:"rank"`
	Key     string    `json:"key"`
	Score   int       `json:"score"`
	RoundID string    `json:"round_id"`
	At      time.Time `json:"at"`
}

// Store provides read/write access to high scores.
type Store interface {
	// UpdateBest stores score for key if it beats the current best, which
	// starts at zero. Returns true if the store updated the score.
	UpdateBest(ctx context.Context, key string, score int, roundID string) (bool, error)

	// Best returns the high score for key, or ErrNotFound.
	Best(ctx context.Context, key string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc, then key asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of keys holding a high score.
	Count(ctx context.Context) int
}

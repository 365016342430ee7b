package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/motionparty/pkg/metrics"
)

// MemoryStore is a mutex-guarded map of high scores.
type MemoryStore struct {
	mu    sync.RWMutex
	byKey map[string]Entry
	now   func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byKey: make(map[string]Entry),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateBest implements Store.
func (s *MemoryStore) UpdateBest(ctx context.Context, key string, score int, roundID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if score <= s.byKey[key].Score {
		return false, nil
	}
	s.byKey[key] = Entry{Key: key, Score: score, RoundID: roundID, At: s.now()}
	metrics.UpdateHighScore(key, score)
	return true, nil
}

// Best implements Store.
func (s *MemoryStore) Best(_ context.Context, key string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byKey[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	higher := make(map[int]struct{})
	for _, other := range s.byKey {
		if other.Score > e.Score {
			higher[other.Score] = struct{}{}
		}
	}
	e.Rank = len(higher) + 1
	return e, nil
}

// TopN implements Store.
func (s *MemoryStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	out := make([]Entry, 0, len(s.byKey))
	for _, e := range s.byKey {
		out = append(out, e)
	}
	s.mu.RUnlock()

	sortEntries(out)
	assignRanksWithTies(out)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

// sortEntries orders by score desc, then key asc.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Key < entries[j].Key
	})
}

// assignRanksWithTies gives equal scores the same rank; the next distinct
// score takes the following rank.
func assignRanksWithTies(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Score != entries[i-1].Score {
			rank++
		}
		entries[i].Rank = rank
	}
}

package service

import (
	"context"

	"github.com/okian/motionparty/internal/adapters/repository"
	"github.com/okian/motionparty/pkg/metrics"
)

// Catalog lists what can be selected.
type Catalog struct {
	Modes     []string `json:"modes"`
	Themes    []string `json:"themes"`
	Sequences []string `json:"sequences"`
}

// TopN returns the best high scores across all keys.
func (s *Service) TopN(ctx context.Context, n int) ([]repository.Entry, error) {
	s.mu.RLock()
	store := s.store
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	return store.TopN(ctx, n)
}

// Catalog returns the selectable modes, themes and sequences.
func (s *Service) Catalog(_ context.Context) (Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return Catalog{}, ErrNotStarted
	}
	return Catalog{
		Modes:     []string{"popper", "dance"},
		Themes:    s.lib.ThemeNames(),
		Sequences: s.lib.SequenceNames(),
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.cfg.WorkerCount,
		"queueSize":   s.cfg.EventQueueSize,
		"tickHz":      s.cfg.TickHz,
		"mode":        s.cfg.Mode,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["highScores"] = s.store.Count(ctx)
		stats["state"] = s.machine.State().String()
		stats["tick"] = s.machine.Tick()
		stats["poseAvailable"] = s.poller.Available()
		stats["libraryReloadPending"] = s.pending != nil

		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}

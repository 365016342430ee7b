// Package scoring accumulates points, hits, misses and streaks for a round
// and turns them into a display score through a configurable formula.
package scoring

// State is a point-in-time view of a round's score.
type State struct {
	Points     int `json:"points"`
	Completed  int `json:"completed"`
	Missed     int `json:"missed"`
	Streak     int `json:"streak"`
	BestStreak int `json:"bestStreak"`
	// ByCategory counts pops per popper category.
	ByCategory map[string]int `json:"byCategory,omitempty"`
}

// Accuracy returns completed/(completed+missed) as a percentage, 0 before
// any attempt.
func (s State) Accuracy() float64 {
	total := s.Completed + s.Missed
	if total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(total) * 100
}

// Tracker owns the score state of one round. It is not safe for concurrent use.
type Tracker struct {
	s State
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.Reset()
	return t
}

// Pop records a popped target. Positive points count as a completed target
// and extend the streak; penalty pops only move points.
func (t *Tracker) Pop(category string, points int) {
	t.s.Points += points
	t.s.ByCategory[category]++
	if points < 0 {
		return
	}
	t.s.Completed++
	t.extend()
}

// Hit records a satisfied move.
func (t *Tracker) Hit() {
	t.s.Completed++
	t.extend()
}

// Miss records an abandoned move and breaks the streak.
func (t *Tracker) Miss() {
	t.s.Missed++
	t.s.Streak = 0
}

func (t *Tracker) extend() {
	t.s.Streak++
	if t.s.Streak > t.s.BestStreak {
		t.s.BestStreak = t.s.Streak
	}
}

// Reset clears all counters.
func (t *Tracker) Reset() {
	t.s = State{ByCategory: make(map[string]int)}
}

// State returns a copy of the current state.
func (t *Tracker) State() State {
	out := t.s
	out.ByCategory = make(map[string]int, len(t.s.ByCategory))
	for k, v := range t.s.ByCategory {
		out.ByCategory[k] = v
	}
	return out
}

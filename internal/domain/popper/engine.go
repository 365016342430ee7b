package popper

import (
	"fmt"

	"github.com/okian/motionparty/internal/domain/event"
	"github.com/okian/motionparty/internal/domain/geom"
	"github.com/okian/motionparty/internal/domain/pose"
)

// Recorder receives scored pops. *scoring.Tracker satisfies it.
type Recorder interface {
	Pop(category string, points int)
}

// Engine owns the live target set of a popper round.
type Engine struct {
	table   []Category
	arena   Arena
	walls   geom.Rect
	sched   *Scheduler
	targets []Target
}

// NewEngine validates table and arena and returns an empty engine.
func NewEngine(table []Category, arena Arena, rng Rand) (*Engine, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	if err := arena.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidCategory)
	}
	return &Engine{
		table: append([]Category(nil), table...),
		arena: arena,
		walls: geom.Inset(arena.Width, arena.Height, arena.WallMargin),
		sched: NewScheduler(table, arena, rng),
	}, nil
}

// Update advances the round by dt: spawn, move, expire, fade, then pop.
func (e *Engine) Update(dt float64, snap pose.Snapshot, rec Recorder) event.Frame {
	var f event.Frame

	for _, t := range e.sched.Update(dt) {
		e.targets = append(e.targets, t)
		f.Spawned = append(f.Spawned, t.Category)
	}

	live := e.targets[:0]
	for _, t := range e.targets {
		if t.Popped {
			t.Fade += dt
			if t.Fade > e.arena.Fade {
				continue
			}
			live = append(live, t)
			continue
		}
		t.move(dt, e.walls)
		t.Lifetime -= dt
		if t.Lifetime <= 0 {
			f.Expired = append(f.Expired, t.Category)
			continue
		}
		live = append(live, t)
	}
	e.targets = live

	for pi, p := range snap.Players {
		for _, side := range pose.Sides {
			hand := p.Hand(side)
			if !hand.Tracked {
				continue
			}
			if i := e.firstHit(hand); i >= 0 {
				e.pop(i, pi, side, rec, &f)
			}
		}
	}
	return f
}

func (e *Engine) firstHit(hand geom.Joint) int {
	for i := range e.targets {
		t := &e.targets[i]
		if t.Popped {
			continue
		}
		if geom.IsHit(hand, t.Pos, t.HitRadius(e.arena.HandRadius)) {
			return i
		}
	}
	return -1
}

func (e *Engine) pop(i, player int, side pose.Side, rec Recorder, f *event.Frame) {
	t := &e.targets[i]
	t.Popped = true
	t.Fade = 0
	if rec != nil {
		rec.Pop(t.Category, t.Points)
	}
	f.AddPop(event.Pop{Category: t.Category, Player: player, Hand: side, At: t.Pos, Points: t.Points})
}

// Add inserts a target directly, bypassing the scheduler.
func (e *Engine) Add(t Target) {
	e.targets = append(e.targets, t)
}

// Targets returns a copy of the live set in iteration order.
func (e *Engine) Targets() []Target {
	return append([]Target(nil), e.targets...)
}

// Len returns the number of live targets, popped ones included.
func (e *Engine) Len() int { return len(e.targets) }

// Arena returns the engine geometry.
func (e *Engine) Arena() Arena { return e.arena }

// Categories returns a copy of the category table.
func (e *Engine) Categories() []Category {
	return append([]Category(nil), e.table...)
}

// Reset drops every target and zeroes spawn timers.
func (e *Engine) Reset() {
	e.targets = nil
	e.sched.Reset()
}

package popper

import (
	"math"

	"github.com/okian/motionparty/internal/domain/geom"
)

// Rand is the random source used for spawn positions and directions.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Scheduler emits targets on fixed per-category intervals.
type Scheduler struct {
	table  []Category
	timers []float64
	area   geom.Rect
	rng    Rand
}

// NewScheduler returns a scheduler for table spawning inside arena's spawn
// margin.
func NewScheduler(table []Category, arena Arena, rng Rand) *Scheduler {
	return &Scheduler{
		table:  append([]Category(nil), table...),
		timers: make([]float64, len(table)),
		area:   geom.Inset(arena.Width, arena.Height, arena.SpawnMargin),
		rng:    rng,
	}
}

// Update advances every category timer by dt and returns the targets due
// this tick in table order.
func (s *Scheduler) Update(dt float64) []Target {
	var out []Target
	for i, c := range s.table {
		s.timers[i] += dt
		if s.timers[i] < c.Interval {
			continue
		}
		s.timers[i] = 0
		out = append(out, s.spawn(c))
	}
	return out
}

// spawn draws x, y and, for moving categories, the heading in that order.
func (s *Scheduler) spawn(c Category) Target {
	pos := geom.Point{
		X: s.area.Min.X + s.rng.Float64()*(s.area.Max.X-s.area.Min.X),
		Y: s.area.Min.Y + s.rng.Float64()*(s.area.Max.Y-s.area.Min.Y),
	}
	var vel geom.Vec
	if c.Moving() {
		vel = geom.Polar(c.Speed, s.rng.Float64()*2*math.Pi)
	}
	return NewTarget(c, pos, vel)
}

// Reset zeroes every timer.
func (s *Scheduler) Reset() {
	for i := range s.timers {
		s.timers[i] = 0
	}
}

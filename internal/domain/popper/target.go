package popper

import (
	"math"

	"github.com/okian/motionparty/internal/domain/geom"
)

// Target is one live popper target.
type Target struct {
	Pos         geom.Point
	Vel         geom.Vec
	Category    string
	Points      int
	Size        float64
	Lifetime    float64
	MaxLifetime float64
	Popped      bool
	// Fade counts seconds since the pop.
	Fade float64
}

// NewTarget returns a fresh target of category c.
func NewTarget(c Category, pos geom.Point, vel geom.Vec) Target {
	return Target{
		Pos:         pos,
		Vel:         vel,
		Category:    c.Name,
		Points:      c.Points,
		Size:        c.Size,
		Lifetime:    c.Lifetime,
		MaxLifetime: c.Lifetime,
	}
}

// LifeFraction returns the remaining lifetime in [0, 1].
func (t Target) LifeFraction() float64 {
	if t.MaxLifetime <= 0 || t.Lifetime <= 0 {
		return 0
	}
	if t.Lifetime >= t.MaxLifetime {
		return 1
	}
	return t.Lifetime / t.MaxLifetime
}

// FadeFraction returns how far the pop animation has run in [0, 1].
func (t Target) FadeFraction(window float64) float64 {
	if !t.Popped {
		return 0
	}
	if window <= 0 || t.Fade >= window {
		return 1
	}
	return t.Fade / window
}

// HitRadius is the distance at which a hand pops t.
func (t Target) HitRadius(handRadius float64) float64 {
	return handRadius + t.Size/2
}

// move integrates position and reflects off walls. The reflected velocity
// component always points back into the play area.
func (t *Target) move(dt float64, walls geom.Rect) {
	t.Pos = t.Pos.Add(t.Vel.Scale(dt))
	switch {
	case t.Pos.X < walls.Min.X:
		t.Pos.X, t.Vel.X = walls.Min.X, math.Abs(t.Vel.X)
	case t.Pos.X > walls.Max.X:
		t.Pos.X, t.Vel.X = walls.Max.X, -math.Abs(t.Vel.X)
	}
	switch {
	case t.Pos.Y < walls.Min.Y:
		t.Pos.Y, t.Vel.Y = walls.Min.Y, math.Abs(t.Vel.Y)
	case t.Pos.Y > walls.Max.Y:
		t.Pos.Y, t.Vel.Y = walls.Max.Y, -math.Abs(t.Vel.Y)
	}
}

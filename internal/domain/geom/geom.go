// Package geom holds the 2D primitives shared by the game modes and the
// hit test every mode uses to match a hand against a zone.
package geom

import "math"

// Point is a position in screen pixels, origin top-left.
type Point struct {
	X, Y float64
}

// Add returns p translated by v.
func (p Point) Add(v Vec) Point { return Point{X: p.X + v.X, Y: p.Y + v.Y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Vec is a velocity or displacement in pixels.
type Vec struct {
	X, Y float64
}

// Scale returns v multiplied by s.
func (v Vec) Scale(s float64) Vec { return Vec{X: v.X * s, Y: v.Y * s} }

// Len returns the magnitude of v.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Polar returns a vector of the given length pointing at angle radians.
func Polar(length, angle float64) Vec {
	return Vec{X: length * math.Cos(angle), Y: length * math.Sin(angle)}
}

// Joint is an optionally tracked body point. The zero value is untracked.
type Joint struct {
	Point
	Tracked bool
}

// At returns a tracked joint at (x, y).
func At(x, y float64) Joint { return Joint{Point: Point{X: x, Y: y}, Tracked: true} }

// Rect is an axis-aligned rectangle from Min to Max inclusive.
type Rect struct {
	Min, Max Point
}

// Inset returns the screen rectangle w x h shrunk by margin on every side.
func Inset(w, h, margin float64) Rect {
	return Rect{Min: Point{X: margin, Y: margin}, Max: Point{X: w - margin, Y: h - margin}}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// IsHit reports whether j is tracked and within radius of center.
// An absent joint is never a hit.
func IsHit(j Joint, center Point, radius float64) bool {
	if !j.Tracked {
		return false
	}
	return j.Dist(center) <= radius
}

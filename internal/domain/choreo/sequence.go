// Package choreo implements the choreography mode: an ordered list of
// two-handed poses played back one move at a time, each held for a minimum
// time before it counts, abandoned after a timeout.
package choreo

import (
	"errors"
	"fmt"

	"github.com/okian/motionparty/internal/domain/geom"
	"github.com/okian/motionparty/internal/domain/pose"
)

// Sentinel errors for unplayable configuration.
var (
	ErrInvalidSequence = errors.New("invalid sequence")
	ErrInvalidTiming   = errors.New("invalid choreography timing")
)

// Anchor is a hand target in normalized screen coordinates, 0..1.
type Anchor struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Pixel scales a to a w x h screen.
func (a Anchor) Pixel(w, h float64) geom.Point {
	return geom.Point{X: a.X * w, Y: a.Y * h}
}

// Move is one pose. A nil anchor means that hand is not checked.
type Move struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Left        *Anchor `yaml:"left,omitempty" json:"left,omitempty"`
	Right       *Anchor `yaml:"right,omitempty" json:"right,omitempty"`
	// Duration is advisory and never gates progress.
	Duration float64 `yaml:"duration" json:"duration"`
}

// Anchor returns the target for side, nil when the hand is free.
func (m Move) Anchor(side pose.Side) *Anchor {
	if side == pose.Left {
		return m.Left
	}
	return m.Right
}

// Sequence is a named dance. It is not modified after loading.
type Sequence struct {
	Name       string `yaml:"name" json:"name"`
	Tempo      int    `yaml:"tempo" json:"tempo"`
	Difficulty int    `yaml:"difficulty" json:"difficulty"`
	Moves      []Move `yaml:"moves" json:"moves"`
}

// Validate rejects sequences a session could never finish.
func (s Sequence) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSequence)
	}
	if len(s.Moves) == 0 {
		return fmt.Errorf("%w: %s: no moves", ErrInvalidSequence, s.Name)
	}
	for i, m := range s.Moves {
		if m.Left == nil && m.Right == nil {
			return fmt.Errorf("%w: %s: move %d (%s) tracks no hand", ErrInvalidSequence, s.Name, i, m.Name)
		}
		for _, a := range []*Anchor{m.Left, m.Right} {
			if a != nil && (a.X < 0 || a.X > 1 || a.Y < 0 || a.Y > 1) {
				return fmt.Errorf("%w: %s: move %d (%s) anchor outside the screen", ErrInvalidSequence, s.Name, i, m.Name)
			}
		}
	}
	return nil
}

// Timing holds the per-move clocks in seconds and the hit radius in pixels.
type Timing struct {
	HitRadius   float64
	MinDisplay  float64
	Timeout     float64
	Celebration float64
	Loops       int
}

// DefaultTiming returns the child-friendly defaults.
func DefaultTiming() Timing {
	return Timing{HitRadius: 80, MinDisplay: 3, Timeout: 5, Celebration: 1, Loops: 2}
}

// Validate enforces that every move can be completed.
func (t Timing) Validate() error {
	switch {
	case t.HitRadius <= 0:
		return fmt.Errorf("%w: hit radius must be positive", ErrInvalidTiming)
	case t.MinDisplay < 0:
		return fmt.Errorf("%w: minimum display must not be negative", ErrInvalidTiming)
	case t.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidTiming)
	case t.MinDisplay >= t.Timeout:
		return fmt.Errorf("%w: minimum display %.2fs must be below timeout %.2fs", ErrInvalidTiming, t.MinDisplay, t.Timeout)
	case t.Celebration < 0:
		return fmt.Errorf("%w: celebration must not be negative", ErrInvalidTiming)
	case t.Loops < 1:
		return fmt.Errorf("%w: loops must be at least 1", ErrInvalidTiming)
	}
	return nil
}

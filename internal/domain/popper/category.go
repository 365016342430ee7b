// Package popper implements the free-spawning mode: categories of targets
// spawn on fixed timers, drift, bounce off the walls and expire, and any
// tracked hand can pop them.
package popper

import (
	"errors"
	"fmt"
)

// ErrInvalidCategory is returned for category tables a round cannot run with.
var ErrInvalidCategory = errors.New("invalid popper category")

// Category describes one kind of target. Intervals and lifetimes are seconds,
// speed is pixels per second, size is the target diameter in pixels.
type Category struct {
	Name     string
	Points   int
	Interval float64
	Lifetime float64
	Speed    float64
	Size     float64
}

// Moving reports whether targets of c drift.
func (c Category) Moving() bool { return c.Speed > 0 }

// Validate checks a single category.
func (c Category) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidCategory)
	case c.Interval <= 0:
		return fmt.Errorf("%w: %s: interval must be positive", ErrInvalidCategory, c.Name)
	case c.Lifetime <= 0:
		return fmt.Errorf("%w: %s: lifetime must be positive", ErrInvalidCategory, c.Name)
	case c.Size <= 0:
		return fmt.Errorf("%w: %s: size must be positive", ErrInvalidCategory, c.Name)
	case c.Speed < 0:
		return fmt.Errorf("%w: %s: speed must not be negative", ErrInvalidCategory, c.Name)
	}
	return nil
}

// ValidateTable checks every category and rejects empty tables and
// duplicate names.
func ValidateTable(table []Category) error {
	if len(table) == 0 {
		return fmt.Errorf("%w: empty category table", ErrInvalidCategory)
	}
	seen := make(map[string]struct{}, len(table))
	for _, c := range table {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidCategory, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Arena is the playfield geometry in pixels. Fade is seconds.
type Arena struct {
	Width       float64
	Height      float64
	SpawnMargin float64
	WallMargin  float64
	HandRadius  float64
	Fade        float64
}

// DefaultArena returns the standard geometry for a w x h screen.
func DefaultArena(w, h float64) Arena {
	return Arena{Width: w, Height: h, SpawnMargin: 80, WallMargin: 50, HandRadius: 50, Fade: 0.3}
}

// Validate checks that the arena leaves room to spawn and move.
func (a Arena) Validate() error {
	switch {
	case a.Width <= 0 || a.Height <= 0:
		return fmt.Errorf("%w: arena must be positive", ErrInvalidCategory)
	case a.HandRadius <= 0:
		return fmt.Errorf("%w: hand radius must be positive", ErrInvalidCategory)
	case a.SpawnMargin < 0 || 2*a.SpawnMargin >= a.Width || 2*a.SpawnMargin >= a.Height:
		return fmt.Errorf("%w: spawn margin leaves no spawn area", ErrInvalidCategory)
	case a.WallMargin < 0 || 2*a.WallMargin >= a.Width || 2*a.WallMargin >= a.Height:
		return fmt.Errorf("%w: wall margin leaves no play area", ErrInvalidCategory)
	case a.Fade < 0:
		return fmt.Errorf("%w: fade must not be negative", ErrInvalidCategory)
	}
	return nil
}

// Package event defines the per-tick record the engine hands to renderers,
// audio and logging consumers.
package event

import (
	"github.com/okian/motionparty/internal/domain/geom"
	"github.com/okian/motionparty/internal/domain/pose"
)

// Pop is one target or anchor hit by a hand during a tick.
type Pop struct {
	// Category is the popper category, or "left"/"right" for dance anchors.
	Category string
	Player   int
	Hand     pose.Side
	At       geom.Point
	Points   int
}

// Penalty reports whether the pop cost points.
func (p Pop) Penalty() bool { return p.Points < 0 }

// Frame collects everything that happened during one tick. It is a value;
// consumers may keep it.
type Frame struct {
	Tick uint64

	// Hit and Miss are mutually exclusive per choreography move.
	Hit  bool
	Miss bool
	// Pop is set when Pops is non-empty.
	Pop              bool
	MoveComplete     bool
	SequenceComplete bool
	RoundComplete    bool
	NewHighScore     bool

	// Countdown is the last whole second announced this tick, 0 when none.
	Countdown int
	// Announced lists every whole second announced this tick, highest
	// first. A long tick can cross more than one.
	Announced []int
	// Spawned and Expired list the categories of targets created and
	// removed by lifetime this tick.
	Spawned []string
	Expired []string

	Pops []Pop
}

// AddPop appends p and raises the Pop flag.
func (f *Frame) AddPop(p Pop) {
	f.Pops = append(f.Pops, p)
	f.Pop = true
}

// Announce records second s and makes it the current Countdown.
func (f *Frame) Announce(s int) {
	f.Announced = append(f.Announced, s)
	f.Countdown = s
}

// Merge folds o into f. Tick is kept from f.
func (f *Frame) Merge(o Frame) {
	f.Hit = f.Hit || o.Hit
	f.Miss = f.Miss || o.Miss
	f.MoveComplete = f.MoveComplete || o.MoveComplete
	f.SequenceComplete = f.SequenceComplete || o.SequenceComplete
	f.RoundComplete = f.RoundComplete || o.RoundComplete
	f.NewHighScore = f.NewHighScore || o.NewHighScore
	if o.Countdown != 0 {
		f.Countdown = o.Countdown
	}
	f.Announced = append(f.Announced, o.Announced...)
	f.Spawned = append(f.Spawned, o.Spawned...)
	f.Expired = append(f.Expired, o.Expired...)
	for _, p := range o.Pops {
		f.AddPop(p)
	}
}

// Empty reports whether nothing happened.
func (f Frame) Empty() bool {
	return !f.Hit && !f.Miss && !f.Pop && !f.MoveComplete && !f.SequenceComplete &&
		!f.RoundComplete && !f.NewHighScore && f.Countdown == 0 && len(f.Spawned) == 0 && len(f.Expired) == 0
}

package round

import (
	"github.com/okian/motionparty/internal/domain/choreo"
	"github.com/okian/motionparty/internal/domain/event"
	"github.com/okian/motionparty/internal/domain/popper"
	"github.com/okian/motionparty/internal/domain/pose"
	"github.com/okian/motionparty/internal/domain/scoring"
)

// Mode is the game variant run while PLAYING.
type Mode interface {
	// Name identifies the variant, e.g. "popper" or "dance".
	Name() string
	// Timed reports whether the round timer ends PLAYING.
	Timed() bool
	Update(dt float64, snap pose.Snapshot, tr *scoring.Tracker) event.Frame
	// Done reports that the mode has nothing left to play.
	Done() bool
	// Reset clears all live state.
	Reset()
}

// PopperMode runs a target lifecycle engine for a timed round.
type PopperMode struct {
	Engine *popper.Engine
}

// NewPopperMode wraps e.
func NewPopperMode(e *popper.Engine) *PopperMode { return &PopperMode{Engine: e} }

// Name implements Mode.
func (m *PopperMode) Name() string { return "popper" }

// Timed implements Mode.
func (m *PopperMode) Timed() bool { return true }

// Update implements Mode.
func (m *PopperMode) Update(dt float64, snap pose.Snapshot, tr *scoring.Tracker) event.Frame {
	return m.Engine.Update(dt, snap, tr)
}

// Done implements Mode. Popper rounds only end on the clock.
func (m *PopperMode) Done() bool { return false }

// Reset implements Mode.
func (m *PopperMode) Reset() { m.Engine.Reset() }

// DanceMode plays a choreography session until its loop limit.
type DanceMode struct {
	Session *choreo.Session
}

// NewDanceMode wraps s.
func NewDanceMode(s *choreo.Session) *DanceMode { return &DanceMode{Session: s} }

// Name implements Mode.
func (m *DanceMode) Name() string { return "dance" }

// Timed implements Mode.
func (m *DanceMode) Timed() bool { return false }

// Update implements Mode.
func (m *DanceMode) Update(dt float64, snap pose.Snapshot, tr *scoring.Tracker) event.Frame {
	return m.Session.Update(dt, snap, tr)
}

// Done implements Mode.
func (m *DanceMode) Done() bool { return m.Session.Done() }

// Reset implements Mode.
func (m *DanceMode) Reset() { m.Session.Reset() }

// Package round implements the top-level round flow: menu, optional
// selection, countdown, play and results.
package round

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/okian/motionparty/internal/domain/event"
	"github.com/okian/motionparty/internal/domain/pose"
	"github.com/okian/motionparty/internal/domain/scoring"
)

// ErrInvalidTransition is returned for commands the current state does not accept.
var ErrInvalidTransition = errors.New("invalid round transition")

// State is the round state.
type State int

// Round states.
const (
	Menu State = iota
	Select
	Countdown
	Playing
	Results
)

// States lists every state in flow order.
var States = []State{Menu, Select, Countdown, Playing, Results} //nolint:gochecknoglobals // fixed flow order

func (s State) String() string {
	switch s {
	case Menu:
		return "menu"
	case Select:
		return "select"
	case Countdown:
		return "countdown"
	case Playing:
		return "playing"
	case Results:
		return "results"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// HighScores keeps the best score per key.
type HighScores interface {
	// UpdateBest stores score when it beats the current best for key and
	// reports whether it did.
	UpdateBest(ctx context.Context, key string, score int, roundID string) (bool, error)
}

// Default timings in seconds.
const (
	DefaultCountdown = 3.0
	DefaultDuration  = 60.0
)

// Option applies a configuration option to the Machine.
type Option func(*Machine)

// WithCountdown sets the countdown length. Zero skips straight to play.
func WithCountdown(seconds float64) Option {
	return func(m *Machine) {
		if seconds >= 0 {
			m.countdown = seconds
		}
	}
}

// WithDuration sets the round timer used by timed modes.
func WithDuration(seconds float64) Option {
	return func(m *Machine) {
		if seconds > 0 {
			m.duration = seconds
		}
	}
}

// WithFormula sets the formula that turns the score state into the final score.
func WithFormula(f *scoring.Formula) Option {
	return func(m *Machine) {
		if f != nil {
			m.formula = f
		}
	}
}

// WithHighScores records final scores under key in hs.
func WithHighScores(hs HighScores, key string) Option {
	return func(m *Machine) {
		m.scores = hs
		m.key = key
	}
}

// Machine drives one mode through repeated rounds. It is not safe for
// concurrent use.
type Machine struct {
	mode    Mode
	tracker *scoring.Tracker
	formula *scoring.Formula
	scores  HighScores
	key     string

	countdown float64
	duration  float64

	state     State
	tick      uint64
	roundID   string
	left      float64
	remaining float64
	announce  int
	final     int
	newBest   bool
}

// NewMachine returns a machine in MENU for mode.
func NewMachine(mode Mode, opts ...Option) (*Machine, error) {
	if mode == nil {
		return nil, fmt.Errorf("%w: nil mode", ErrInvalidTransition)
	}
	m := &Machine{
		mode:      mode,
		tracker:   scoring.NewTracker(),
		countdown: DefaultCountdown,
		duration:  DefaultDuration,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.formula == nil {
		f, err := scoring.NewFormula(scoring.VarPoints)
		if err != nil {
			return nil, err
		}
		m.formula = f
	}
	m.remaining = m.duration
	return m, nil
}

// Select enters SELECT from MENU.
func (m *Machine) Select() error {
	switch m.state {
	case Menu, Select:
		m.state = Select
		return nil
	default:
		return fmt.Errorf("%w: select from %s", ErrInvalidTransition, m.state)
	}
}

// SetMode swaps the mode outside of a running round.
func (m *Machine) SetMode(mode Mode, key string) error {
	if mode == nil {
		return fmt.Errorf("%w: nil mode", ErrInvalidTransition)
	}
	if m.state == Countdown || m.state == Playing {
		return fmt.Errorf("%w: change mode during %s", ErrInvalidTransition, m.state)
	}
	m.mode = mode
	m.key = key
	return nil
}

// SetFormula swaps the final score expression outside of a running round.
func (m *Machine) SetFormula(f *scoring.Formula) error {
	if f == nil {
		return fmt.Errorf("%w: nil formula", ErrInvalidTransition)
	}
	if m.state == Countdown || m.state == Playing {
		return fmt.Errorf("%w: change formula during %s", ErrInvalidTransition, m.state)
	}
	m.formula = f
	return nil
}

// Start begins a fresh round from MENU, SELECT or RESULTS.
func (m *Machine) Start() error {
	switch m.state {
	case Menu, Select, Results:
	default:
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, m.state)
	}
	m.clear()
	m.roundID = uuid.NewString()
	m.state = Countdown
	m.left = m.countdown
	m.announce = int(math.Ceil(m.countdown))
	return nil
}

// Reset aborts whatever is running and returns to MENU. Safe from any state.
func (m *Machine) Reset() {
	m.clear()
	m.roundID = ""
	m.state = Menu
}

func (m *Machine) clear() {
	m.mode.Reset()
	m.tracker.Reset()
	m.left = 0
	m.remaining = m.duration
	m.announce = 0
	m.final = 0
	m.newBest = false
}

// Update advances the machine by dt. Only COUNTDOWN and PLAYING consume time.
func (m *Machine) Update(ctx context.Context, dt float64, snap pose.Snapshot) (event.Frame, error) {
	m.tick++
	f := event.Frame{Tick: m.tick}

	switch m.state {
	case Countdown:
		m.updateCountdown(dt, &f)
	case Playing:
		if m.mode.Timed() {
			m.remaining -= dt
			if m.remaining <= 0 {
				m.remaining = 0
				return f, m.finish(ctx, &f)
			}
		}
		f.Merge(m.mode.Update(dt, snap, m.tracker))
		if m.mode.Done() {
			return f, m.finish(ctx, &f)
		}
	}
	return f, nil
}

// updateCountdown announces each whole second left, starting with the full
// count, and enters PLAYING when the timer runs out. Every second crossed
// is announced even when one tick spans several.
func (m *Machine) updateCountdown(dt float64, f *event.Frame) {
	if m.announce > 0 {
		f.Announce(m.announce)
		m.announce = 0
	}
	prev := int(math.Ceil(m.left))
	m.left -= dt
	last := 1
	if m.left > 0 {
		last = int(math.Ceil(m.left))
	}
	for s := prev - 1; s >= last; s-- {
		f.Announce(s)
	}
	if m.left <= 0 {
		m.left = 0
		m.state = Playing
		m.remaining = m.duration
	}
}

func (m *Machine) finish(ctx context.Context, f *event.Frame) error {
	m.state = Results
	f.RoundComplete = true

	score, err := m.formula.Eval(m.tracker.State())
	if err != nil {
		return err
	}
	m.final = score
	if m.scores == nil {
		return nil
	}
	better, err := m.scores.UpdateBest(ctx, m.key, score, m.roundID)
	if err != nil {
		return fmt.Errorf("update high score %s: %w", m.key, err)
	}
	m.newBest = better
	f.NewHighScore = better
	return nil
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Mode returns the active mode.
func (m *Machine) Mode() Mode { return m.mode }

// Key returns the high score key.
func (m *Machine) Key() string { return m.key }

// RoundID identifies the current or last round, empty in MENU.
func (m *Machine) RoundID() string { return m.roundID }

// Tick returns the number of updates processed.
func (m *Machine) Tick() uint64 { return m.tick }

// Score returns a copy of the running score state.
func (m *Machine) Score() scoring.State { return m.tracker.State() }

// Formula returns the final score formula.
func (m *Machine) Formula() *scoring.Formula { return m.formula }

// FinalScore returns the formula score fixed at RESULTS.
func (m *Machine) FinalScore() int { return m.final }

// NewBest reports whether the last round set a high score.
func (m *Machine) NewBest() bool { return m.newBest }

// CountdownRemaining returns seconds left in COUNTDOWN.
func (m *Machine) CountdownRemaining() float64 { return m.left }

// TimeRemaining returns seconds left on the round timer.
func (m *Machine) TimeRemaining() float64 { return m.remaining }

// Duration returns the configured round length.
func (m *Machine) Duration() float64 { return m.duration }

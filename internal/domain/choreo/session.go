package choreo

import (
	"fmt"

	"github.com/okian/motionparty/internal/domain/event"
	"github.com/okian/motionparty/internal/domain/geom"
	"github.com/okian/motionparty/internal/domain/pose"
)

// Recorder receives move outcomes. *scoring.Tracker satisfies it.
type Recorder interface {
	Hit()
	Miss()
}

// Phase is the session state.
type Phase int

// Session phases.
const (
	AwaitingHits Phase = iota
	Celebrating
	Finished
)

func (p Phase) String() string {
	switch p {
	case AwaitingHits:
		return "awaiting_hits"
	case Celebrating:
		return "celebrating"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// HandState is the per-move progress of one hand.
type HandState struct {
	Side    pose.Side
	Tracked bool
	Hit     bool
	// HitAt is the move elapsed time of the hit.
	HitAt  float64
	Target geom.Point
}

// Session plays one sequence. It is not safe for concurrent use.
type Session struct {
	seq    Sequence
	timing Timing
	width  float64
	height float64

	phase      Phase
	index      int
	loop       int
	elapsed    float64
	celebrated float64
	hits       [2]bool
	hitAt      [2]float64
}

// NewSession validates seq and timing for a w x h screen.
func NewSession(seq Sequence, timing Timing, w, h float64) (*Session, error) {
	if err := seq.Validate(); err != nil {
		return nil, err
	}
	if err := timing.Validate(); err != nil {
		return nil, err
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: screen must be positive", ErrInvalidTiming)
	}
	return &Session{seq: seq, timing: timing, width: w, height: h}, nil
}

// Update advances the session by dt against snap.
func (s *Session) Update(dt float64, snap pose.Snapshot, rec Recorder) event.Frame {
	var f event.Frame
	switch s.phase {
	case Finished:
		return f
	case Celebrating:
		s.celebrated += dt
		if reached(s.celebrated, s.timing.Celebration) {
			f.MoveComplete = true
			s.advance(&f)
		}
		return f
	}

	s.elapsed += dt
	move := s.seq.Moves[s.index]
	for i, side := range pose.Sides {
		a := move.Anchor(side)
		if a == nil || s.hits[i] {
			continue
		}
		target := a.Pixel(s.width, s.height)
		for pi, p := range snap.Players {
			if geom.IsHit(p.Hand(side), target, s.timing.HitRadius) {
				s.hits[i] = true
				s.hitAt[i] = s.elapsed
				f.AddPop(event.Pop{Category: string(side), Player: pi, Hand: side, At: target})
				break
			}
		}
	}

	switch {
	case s.satisfied() && reached(s.elapsed, s.timing.MinDisplay):
		f.Hit = true
		if rec != nil {
			rec.Hit()
		}
		s.phase = Celebrating
		s.celebrated = 0
		if s.timing.Celebration <= 0 {
			f.MoveComplete = true
			s.advance(&f)
		}
	case reached(s.elapsed, s.timing.Timeout):
		f.Miss = true
		if rec != nil {
			rec.Miss()
		}
		s.advance(&f)
	}
	return f
}

// timeEpsilon absorbs the rounding of summed tick durations, so 180 ticks
// of 1/60 s reach a 3 s limit.
const timeEpsilon = 1e-9

func reached(elapsed, limit float64) bool {
	return elapsed+timeEpsilon >= limit
}

func (s *Session) satisfied() bool {
	move := s.seq.Moves[s.index]
	for i, side := range pose.Sides {
		if move.Anchor(side) != nil && !s.hits[i] {
			return false
		}
	}
	return true
}

func (s *Session) advance(f *event.Frame) {
	s.resetMove()
	s.index++
	if s.index < len(s.seq.Moves) {
		return
	}
	s.loop++
	if s.loop >= s.timing.Loops {
		s.index = len(s.seq.Moves) - 1
		s.phase = Finished
		f.SequenceComplete = true
		return
	}
	s.index = 0
}

func (s *Session) resetMove() {
	s.phase = AwaitingHits
	s.elapsed = 0
	s.celebrated = 0
	s.hits = [2]bool{}
	s.hitAt = [2]float64{}
}

// Reset rewinds to the first move of the first loop.
func (s *Session) Reset() {
	s.resetMove()
	s.index = 0
	s.loop = 0
}

// Sequence returns the sequence being played.
func (s *Session) Sequence() Sequence { return s.seq }

// Phase returns the current state.
func (s *Session) Phase() Phase { return s.phase }

// Done reports whether the loop limit was reached.
func (s *Session) Done() bool { return s.phase == Finished }

// Index returns the current move index.
func (s *Session) Index() int { return s.index }

// Loop returns the number of completed passes.
func (s *Session) Loop() int { return s.loop }

// CurrentMove returns the move being evaluated.
func (s *Session) CurrentMove() Move { return s.seq.Moves[s.index] }

// Elapsed returns seconds spent on the current move.
func (s *Session) Elapsed() float64 { return s.elapsed }

// TimeRemaining returns seconds until the current move times out.
func (s *Session) TimeRemaining() float64 {
	return max(0, s.timing.Timeout-s.elapsed)
}

// Progress returns the elapsed fraction of the move timeout in [0, 1].
func (s *Session) Progress() float64 {
	return min(1, s.elapsed/s.timing.Timeout)
}

// SequenceProgress returns the fraction of all move visits finished.
func (s *Session) SequenceProgress() float64 {
	total := len(s.seq.Moves) * s.timing.Loops
	if s.Done() {
		return 1
	}
	return float64(s.loop*len(s.seq.Moves)+s.index) / float64(total)
}

// Hands returns both hands' targets and hit flags for the current move.
func (s *Session) Hands() [2]HandState {
	var out [2]HandState
	move := s.CurrentMove()
	for i, side := range pose.Sides {
		out[i] = HandState{Side: side, Hit: s.hits[i], HitAt: s.hitAt[i]}
		if a := move.Anchor(side); a != nil {
			out[i].Tracked = true
			out[i].Target = a.Pixel(s.width, s.height)
		}
	}
	return out
}

// Targets returns pixel positions of the tracked hands' targets.
func (s *Session) Targets() []geom.Point {
	var out []geom.Point
	for _, h := range s.Hands() {
		if h.Tracked {
			out = append(out, h.Target)
		}
	}
	return out
}

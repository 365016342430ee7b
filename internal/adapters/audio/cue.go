// Package audio turns engine frames into short synthesized cues and plays
// them through the system speaker.
package audio

import (
	"time"

	"github.com/okian/motionparty/internal/domain/event"
)

// Cue names a sound.
type Cue int

const (
	CuePop Cue = iota
	CueCatch
	CueBad
	CueBeep
)

func (c Cue) String() string {
	switch c {
	case CuePop:
		return "pop"
	case CueCatch:
		return "catch"
	case CueBad:
		return "bad"
	case CueBeep:
		return "beep"
	default:
		return "unknown"
	}
}

// CatchPoints is the smallest pop value that earns the bigger sound.
const CatchPoints = 50

var tones = map[Cue]Tone{
	CuePop:   {Freq: 800, Duration: 100 * time.Millisecond, Amplitude: 0.78},
	CueCatch: {Freq: 600, FreqEnd: 1200, Duration: 200 * time.Millisecond, Amplitude: 0.78},
	CueBad:   {Freq: 150, Duration: 300 * time.Millisecond, Amplitude: 0.62},
	CueBeep:  {Freq: 880, Duration: 100 * time.Millisecond, Amplitude: 0.62},
}

// ToneFor returns the synthesis parameters of c.
func ToneFor(c Cue) (Tone, bool) {
	t, ok := tones[c]
	return t, ok
}

// CuesFor lists the cues a frame triggers, each at most once, in a stable
// order.
func CuesFor(f event.Frame) []Cue {
	var set [CueBeep + 1]bool
	if f.Countdown > 0 {
		set[CueBeep] = true
	}
	for _, p := range f.Pops {
		switch {
		case p.Penalty():
			set[CueBad] = true
		case p.Points >= CatchPoints:
			set[CueCatch] = true
		default:
			set[CuePop] = true
		}
	}
	if f.Hit || f.NewHighScore {
		set[CueCatch] = true
	}
	if f.Miss {
		set[CueBad] = true
	}

	var out []Cue
	for c, on := range set {
		if on {
			out = append(out, Cue(c))
		}
	}
	return out
}

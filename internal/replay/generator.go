package replay

import (
	"github.com/okian/motionparty/internal/config"
	"github.com/okian/motionparty/internal/domain/choreo"
)

// quantumTicks pads each move so tick rounding never lets the script run
// ahead of the session.
const quantumTicks = 4

// GenerateDance returns a script that performs every move of seq in order,
// each on time, for the configured number of loops. countdown is the
// round countdown and tickHz the rate the script will be replayed at.
func GenerateDance(seq choreo.Sequence, t choreo.Timing, countdown float64, tickHz int) Script {
	dt := 1 / float64(max(tickHz, 1))
	hold := t.MinDisplay + t.Celebration + quantumTicks*dt

	s := Script{Mode: config.ModeDance, Name: seq.Name, TickHz: tickHz}
	at := countdown
	for loop := 0; loop < max(t.Loops, 1); loop++ {
		for _, m := range seq.Moves {
			s.Keyframes = append(s.Keyframes, Keyframe{
				At:      at,
				Players: []Hands{{Left: copyAnchor(m.Left), Right: copyAnchor(m.Right)}},
			})
			at += hold
		}
	}
	s.MaxSeconds = at + t.Timeout
	return s
}

// GenerateSweep returns a popper script whose right hand zigzags across the
// screen in rows, one keyframe every step seconds for duration seconds.
func GenerateSweep(duration, step float64) Script {
	const (
		cols = 9
		rows = 4
	)
	s := Script{Mode: config.ModePopper}
	if step <= 0 || duration <= 0 {
		return s
	}
	for i := 0; float64(i)*step < duration; i++ {
		row := (i / cols) % rows
		col := i % cols
		if row%2 == 1 {
			col = cols - 1 - col
		}
		s.Keyframes = append(s.Keyframes, Keyframe{
			At: float64(i) * step,
			Players: []Hands{{Right: &choreo.Anchor{
				X: 0.1 + 0.1*float64(col),
				Y: 0.2 + 0.2*float64(row),
			}}},
		})
	}
	return s
}

func copyAnchor(a *choreo.Anchor) *choreo.Anchor {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

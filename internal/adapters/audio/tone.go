package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// SampleRate is the mixer rate for every cue.
const SampleRate = beep.SampleRate(44100)

// Tone is a sine with a linear frequency sweep and a linear fade to silence.
type Tone struct {
	Freq      float64
	FreqEnd   float64
	Duration  time.Duration
	Amplitude float64
}

// decayingSine streams a Tone.
type decayingSine struct {
	tone     Tone
	rate     beep.SampleRate
	phase    float64
	position int
	total    int
}

// NewStreamer renders t at rate.
func (t Tone) NewStreamer(rate beep.SampleRate) beep.Streamer {
	end := t.FreqEnd
	if end == 0 {
		end = t.Freq
	}
	t.FreqEnd = end
	return &decayingSine{tone: t, rate: rate, total: rate.N(t.Duration)}
}

func (d *decayingSine) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if d.position >= d.total {
			return i, i > 0
		}
		progress := float64(d.position) / float64(d.total)
		val := d.tone.Amplitude * math.Sin(2*math.Pi*d.phase) * (1 - progress)
		samples[i][0] = val
		samples[i][1] = val

		freq := d.tone.Freq + (d.tone.FreqEnd-d.tone.Freq)*progress
		d.phase += freq / float64(d.rate)
		d.phase -= math.Floor(d.phase)
		d.position++
	}
	return len(samples), true
}

func (d *decayingSine) Err() error { return nil }

// withVolume scales s linearly; zero or less is silent.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

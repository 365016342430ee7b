package audio

import (
	"context"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/okian/motionparty/internal/adapters/mq/worker"
	"github.com/okian/motionparty/pkg/logger"
)

// Player accepts rendered cues.
type Player interface {
	Play(s beep.Streamer)
}

// Speaker plays through the default output device via a shared mixer.
type Speaker struct {
	mixer *beep.Mixer
}

// NewSpeaker opens the output device.
func NewSpeaker() (*Speaker, error) {
	if err := speaker.Init(SampleRate, SampleRate.N(50*time.Millisecond)); err != nil {
		return nil, err
	}
	s := &Speaker{mixer: &beep.Mixer{}}
	speaker.Play(s.mixer)
	return s, nil
}

// Play implements Player.
func (s *Speaker) Play(st beep.Streamer) {
	speaker.Lock()
	s.mixer.Add(st)
	speaker.Unlock()
}

// Close silences pending cues.
func (s *Speaker) Close() {
	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()
}

// silent discards cues.
type silent struct{}

func (silent) Play(beep.Streamer) {}

// Sink plays cues for each frame it handles.
type Sink struct {
	player Player
	volume float64
}

var _ worker.Sink = (*Sink)(nil)

// NewSink wraps player. Volume is linear, 1 is unchanged.
func NewSink(player Player, volume float64) *Sink {
	if player == nil {
		player = silent{}
	}
	return &Sink{player: player, volume: volume}
}

// NewSpeakerSink opens the speaker and falls back to a silent sink after a
// single warning when no device is available.
func NewSpeakerSink(ctx context.Context, log logger.Logger) (*Sink, func()) {
	sp, err := NewSpeaker()
	if err != nil {
		log.Warn(ctx, "audio unavailable, cues disabled", logger.Error(err))
		return NewSink(nil, 1), func() {}
	}
	return NewSink(sp, 1), sp.Close
}

// Name implements worker.Sink.
func (s *Sink) Name() string { return "audio" }

// Handle implements worker.Sink.
func (s *Sink) Handle(_ context.Context, e worker.Event) error {
	for _, c := range CuesFor(e) {
		t, ok := ToneFor(c)
		if !ok {
			continue
		}
		s.player.Play(withVolume(t.NewStreamer(SampleRate), s.volume))
	}
	return nil
}

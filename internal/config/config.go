// Package config defines engine configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers an optional YAML file and environment variables over them.
// - Validate must pass before a round can start.
package config

import (
	"context"
	"fmt"
	"time"
)

// Supported game modes.
const (
	ModePopper = "popper"
	ModeDance  = "dance"
)

// Supported frontends.
const (
	FrontendTerminal = "terminal"
	FrontendHeadless = "headless"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080". Empty disables it.
	Addr string `koanf:"addr"`

	// Mode selects the game variant: popper or dance.
	Mode string `koanf:"mode"`

	// Theme names the popper category table.
	Theme string `koanf:"theme"`

	// Sequence names the dance to play. Empty picks one at random.
	Sequence string `koanf:"sequence"`

	Screen Screen `koanf:"screen"`

	// TickHz is the fixed update rate of the engine loop.
	TickHz int `koanf:"tick_hz"`

	// PosePollEvery polls the pose source once every N ticks.
	PosePollEvery int `koanf:"pose_poll_every"`

	// Seed seeds the spawn and selection RNG. Zero uses the wall clock.
	Seed int64 `koanf:"seed"`

	// LibraryDir holds extra sequence and theme YAML files.
	LibraryDir string `koanf:"library_dir"`

	// WatchLibrary reloads LibraryDir on change, applied at the next round.
	WatchLibrary bool `koanf:"watch_library"`

	// EventQueueSize bounds the frame queue between engine and consumers.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of frame dispatch workers.
	WorkerCount int `koanf:"worker_count"`

	// Audio enables the speaker cue sink.
	Audio bool `koanf:"audio"`

	// Frontend selects terminal or headless.
	Frontend string `koanf:"frontend"`

	// LogFile receives logs while the terminal frontend owns stdout.
	LogFile string `koanf:"log_file"`

	// MaxHighScoreLimit caps GET /highscores?limit.
	MaxHighScoreLimit int `koanf:"max_highscore_limit"`

	Round        Round        `koanf:"round"`
	Popper       Popper       `koanf:"popper"`
	Dance        Dance        `koanf:"dance"`
	ScoreFormula ScoreFormula `koanf:"score_formula"`
	Metrics      Metrics      `koanf:"metrics"`
}

// Metrics controls Prometheus recording.
type Metrics struct {
	Enabled bool `koanf:"enabled"`
	// RefreshS is how often polled gauges are refreshed, in seconds.
	RefreshS float64 `koanf:"refresh_s"`
}

// RefreshInterval returns RefreshS as a duration.
func (m Metrics) RefreshInterval() time.Duration {
	return time.Duration(m.RefreshS * float64(time.Second))
}

// Screen is the playfield size in pixels.
type Screen struct {
	Width  int `koanf:"width"`
	Height int `koanf:"height"`
}

// Round holds round timing in seconds.
type Round struct {
	CountdownS float64 `koanf:"countdown_s"`
	DurationS  float64 `koanf:"duration_s"`
}

// Popper holds target lifecycle geometry.
type Popper struct {
	SpawnMargin float64 `koanf:"spawn_margin"`
	WallMargin  float64 `koanf:"wall_margin"`
	HandRadius  float64 `koanf:"hand_radius"`
	FadeS       float64 `koanf:"fade_s"`
}

// Dance holds choreography timing.
type Dance struct {
	HitRadius    float64 `koanf:"hit_radius"`
	MinDisplayS  float64 `koanf:"min_display_s"`
	TimeoutS     float64 `koanf:"timeout_s"`
	CelebrationS float64 `koanf:"celebration_s"`
	Loops        int     `koanf:"loops"`
}

// ScoreFormula holds per-mode score expressions.
type ScoreFormula struct {
	Popper string `koanf:"popper"`
	Dance  string `koanf:"dance"`
}

// New creates a Config with defaults. The context is reserved for loaders
// that need it and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		Mode:              ModePopper,
		Theme:             "christmas",
		Screen:            Screen{Width: 1280, Height: 720},
		TickHz:            60,
		PosePollEvery:     2,
		EventQueueSize:    256,
		WorkerCount:       1,
		Audio:             false,
		Frontend:          FrontendHeadless,
		LogFile:           "motionparty.log",
		MaxHighScoreLimit: 100,
		Round: Round{
			CountdownS: 3,
			DurationS:  60,
		},
		Popper: Popper{
			SpawnMargin: 80,
			WallMargin:  50,
			HandRadius:  50,
			FadeS:       0.3,
		},
		Dance: Dance{
			HitRadius:    80,
			MinDisplayS:  3,
			TimeoutS:     5,
			CelebrationS: 1,
			Loops:        2,
		},
		ScoreFormula: ScoreFormula{
			Popper: "points",
			Dance:  "completed * 100 + best_streak * 50",
		},
		Metrics: Metrics{
			Enabled:  true,
			RefreshS: 5,
		},
	}
}

// Validate reports the first unusable value wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Mode != ModePopper && c.Mode != ModeDance:
		return fmt.Errorf("%w: mode must be %q or %q, got %q", ErrInvalidConfig, ModePopper, ModeDance, c.Mode)
	case c.Frontend != FrontendTerminal && c.Frontend != FrontendHeadless:
		return fmt.Errorf("%w: frontend must be %q or %q, got %q", ErrInvalidConfig, FrontendTerminal, FrontendHeadless, c.Frontend)
	case c.Screen.Width <= 0 || c.Screen.Height <= 0:
		return fmt.Errorf("%w: screen must be positive, got %dx%d", ErrInvalidConfig, c.Screen.Width, c.Screen.Height)
	case c.TickHz <= 0:
		return fmt.Errorf("%w: tick_hz must be positive", ErrInvalidConfig)
	case c.PosePollEvery <= 0:
		return fmt.Errorf("%w: pose_poll_every must be positive", ErrInvalidConfig)
	case c.EventQueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MaxHighScoreLimit <= 0:
		return fmt.Errorf("%w: max_highscore_limit must be positive", ErrInvalidConfig)
	case c.Round.CountdownS < 0:
		return fmt.Errorf("%w: round.countdown_s must not be negative", ErrInvalidConfig)
	case c.Round.DurationS <= 0:
		return fmt.Errorf("%w: round.duration_s must be positive", ErrInvalidConfig)
	case c.Popper.HandRadius <= 0:
		return fmt.Errorf("%w: popper.hand_radius must be positive", ErrInvalidConfig)
	case c.Popper.SpawnMargin < 0 || c.Popper.WallMargin < 0:
		return fmt.Errorf("%w: popper margins must not be negative", ErrInvalidConfig)
	case 2*c.Popper.SpawnMargin >= float64(c.Screen.Width) || 2*c.Popper.SpawnMargin >= float64(c.Screen.Height):
		return fmt.Errorf("%w: popper.spawn_margin leaves no spawn area", ErrInvalidConfig)
	case 2*c.Popper.WallMargin >= float64(c.Screen.Width) || 2*c.Popper.WallMargin >= float64(c.Screen.Height):
		return fmt.Errorf("%w: popper.wall_margin leaves no play area", ErrInvalidConfig)
	case c.Popper.FadeS < 0:
		return fmt.Errorf("%w: popper.fade_s must not be negative", ErrInvalidConfig)
	case c.Dance.HitRadius <= 0:
		return fmt.Errorf("%w: dance.hit_radius must be positive", ErrInvalidConfig)
	case c.Dance.MinDisplayS < 0 || c.Dance.MinDisplayS >= c.Dance.TimeoutS:
		return fmt.Errorf("%w: dance.min_display_s must be in [0, timeout_s)", ErrInvalidConfig)
	case c.Dance.CelebrationS < 0:
		return fmt.Errorf("%w: dance.celebration_s must not be negative", ErrInvalidConfig)
	case c.Dance.Loops < 1:
		return fmt.Errorf("%w: dance.loops must be at least 1", ErrInvalidConfig)
	case c.Metrics.RefreshS <= 0:
		return fmt.Errorf("%w: metrics.refresh_s must be positive", ErrInvalidConfig)
	case c.ScoreFormula.Popper == "" || c.ScoreFormula.Dance == "":
		return fmt.Errorf("%w: score formulas must not be empty", ErrInvalidConfig)
	}
	return nil
}

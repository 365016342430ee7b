package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	service "github.com/okian/motionparty/internal/app"
	"github.com/okian/motionparty/internal/config"
	"github.com/okian/motionparty/internal/domain/event"
	"github.com/okian/motionparty/internal/domain/pose"
	"github.com/okian/motionparty/internal/domain/scoring"
	"github.com/okian/motionparty/pkg/logger"
)

// danceLimit bounds dance replays that carry no max_seconds.
const danceLimit = 600.0

// Report summarizes one replayed round.
type Report struct {
	Mode         string        `json:"mode"`
	Name         string        `json:"name"`
	Seed         int64         `json:"seed"`
	RoundID      string        `json:"roundId"`
	Ticks        int           `json:"ticks"`
	Seconds      float64       `json:"seconds"`
	FinalScore   int           `json:"finalScore"`
	NewHighScore bool          `json:"newHighScore"`
	Score        scoring.State `json:"score"`
	Spawned      int           `json:"spawned"`
	Expired      int           `json:"expired"`
	Pops         int           `json:"pops"`
	Hits         int           `json:"hits"`
	Misses       int           `json:"misses"`
	WallTime     time.Duration `json:"wallTime"`
}

func (r *Report) tally(f event.Frame) { //nolint:gocritic // hugeParam: frames are values by contract
	r.Spawned += len(f.Spawned)
	r.Expired += len(f.Expired)
	r.Pops += len(f.Pops)
	if f.Hit {
		r.Hits++
	}
	if f.Miss {
		r.Misses++
	}
}

// Run plays one round of s against a headless service built from base and
// returns what happened. base is not modified.
func Run(ctx context.Context, base *config.Config, s Script) (Report, error) {
	if err := s.Validate(); err != nil {
		return Report{}, err
	}
	start := time.Now()

	cfg := *base
	cfg.Addr = ""
	cfg.Audio = false
	cfg.WatchLibrary = false
	cfg.Frontend = config.FrontendHeadless
	cfg.Mode = s.Mode
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if cfg.Seed == 0 {
		// Report.Seed must reproduce the round.
		cfg.Seed = time.Now().UnixNano()
	}
	if s.TickHz > 0 {
		cfg.TickHz = s.TickHz
	}
	if s.Name != "" {
		if s.Mode == config.ModeDance {
			cfg.Sequence = s.Name
		} else {
			cfg.Theme = s.Name
		}
	}

	src := pose.NewScript(s.PoseKeyframes(float64(cfg.Screen.Width), float64(cfg.Screen.Height)))
	svc := service.New(
		service.WithConfig(&cfg),
		service.WithPoseSource(src),
		service.WithLogger(logger.Get().Named("replay")),
	)
	if err := svc.Start(ctx); err != nil {
		return Report{}, err
	}
	defer svc.Stop()

	if err := svc.StartRound(ctx); err != nil {
		return Report{}, err
	}

	limit := s.MaxSeconds
	if limit == 0 {
		limit = danceLimit
		if s.Mode == config.ModePopper {
			limit = cfg.Round.CountdownS + cfg.Round.DurationS + 1
		}
	}

	dt := 1 / float64(cfg.TickHz)
	report := Report{Mode: s.Mode, Seed: cfg.Seed}
	done := false
	for report.Ticks = 0; !done && float64(report.Ticks)*dt < limit; report.Ticks++ {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		f, err := svc.Step(ctx, dt)
		if err != nil {
			return Report{}, fmt.Errorf("tick %d: %w", report.Ticks, err)
		}
		report.tally(f)
		done = f.RoundComplete
	}
	report.Seconds = float64(report.Ticks) * dt
	if !done {
		return report, fmt.Errorf("%w after %.1fs", ErrRoundUnfinished, report.Seconds)
	}

	v, err := svc.View(ctx)
	if err != nil {
		return Report{}, err
	}
	report.Name = v.Theme
	if s.Mode == config.ModeDance {
		report.Name = v.Sequence
	}
	report.RoundID = v.RoundID
	report.FinalScore = v.FinalScore
	report.NewHighScore = v.NewHighScore
	report.Score = v.Score
	report.WallTime = time.Since(start)
	return report, nil
}

// SaveReport writes r to path as indented JSON.
func SaveReport(path string, r Report) error { //nolint:gocritic // hugeParam: reports are values
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// LogReport prints the final statistics.
func LogReport(ctx context.Context, r Report) { //nolint:gocritic // hugeParam: reports are values
	logger.Get().Info(ctx, "final statistics",
		logger.String("mode", r.Mode),
		logger.String("name", r.Name),
		logger.Int("finalScore", r.FinalScore),
		logger.Bool("newHighScore", r.NewHighScore),
		logger.Int("ticks", r.Ticks),
		logger.Float64("seconds", r.Seconds),
		logger.Int("spawned", r.Spawned),
		logger.Int("pops", r.Pops),
		logger.Int("hits", r.Hits),
		logger.Int("misses", r.Misses),
		logger.Int("bestStreak", r.Score.BestStreak),
		logger.Duration("wallTime", r.WallTime))
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/okian/motionparty/internal/adapters/library"
	"github.com/okian/motionparty/internal/config"
	"github.com/okian/motionparty/internal/domain/choreo"
	"github.com/okian/motionparty/internal/replay"
	"github.com/okian/motionparty/pkg/logger"
)

const (
	defaultReplayTimeout = 10 * time.Minute
	defaultSweepStep     = 0.25
)

func main() {
	var (
		scriptFile = flag.String("script", "", "Replay script (YAML). Empty generates one with -generate")
		generate   = flag.String("generate", "dance", "Script to generate when -script is empty: dance or sweep")
		name       = flag.String("name", "", "Sequence (dance) or theme (popper); empty uses the configured one")
		seed       = flag.Int64("seed", 1, "Seed for spawns and random sequence selection")
		saveScript = flag.String("save-script", "", "Write the script that was played to this file")
		output     = flag.String("output", "", "Write the JSON report to this file")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultReplayTimeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	s, err := script(cfg, *scriptFile, *generate, *name)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return
	}
	if s.Seed == 0 {
		s.Seed = *seed
	}
	if *saveScript != "" {
		if err := s.Save(*saveScript); err != nil {
			logger.Get().Warn(ctx, "failed to save script", logger.Error(err))
		}
	}

	report, err := replay.Run(ctx, cfg, s)
	if err != nil {
		os.Stderr.WriteString("replay failed: " + err.Error() + "\n")
		return
	}
	replay.LogReport(ctx, report)

	if *output != "" {
		if err := replay.SaveReport(*output, report); err != nil {
			logger.Get().Warn(ctx, "failed to save report", logger.Error(err))
		}
	}
}

// script loads path or generates a script when path is empty.
func script(cfg *config.Config, path, generate, name string) (replay.Script, error) {
	if path != "" {
		s, err := replay.LoadFile(path)
		if err != nil {
			return replay.Script{}, err
		}
		if name != "" {
			s.Name = name
		}
		return s, nil
	}

	switch generate {
	case "sweep":
		s := replay.GenerateSweep(cfg.Round.CountdownS+cfg.Round.DurationS, defaultSweepStep)
		s.Name = name
		return s, nil
	case "dance":
		lib, err := library.Load(cfg.LibraryDir)
		if err != nil {
			return replay.Script{}, err
		}
		if name == "" {
			name = cfg.Sequence
		}
		if name == "" {
			name = lib.SequenceNames()[0]
		}
		seq, err := lib.Sequence(name)
		if err != nil {
			return replay.Script{}, err
		}
		timing := choreo.Timing{
			HitRadius:   cfg.Dance.HitRadius,
			MinDisplay:  cfg.Dance.MinDisplayS,
			Timeout:     cfg.Dance.TimeoutS,
			Celebration: cfg.Dance.CelebrationS,
			Loops:       cfg.Dance.Loops,
		}
		return replay.GenerateDance(seq, timing, cfg.Round.CountdownS, cfg.TickHz), nil
	default:
		return replay.Script{}, fmt.Errorf("unknown generator %q", generate)
	}
}

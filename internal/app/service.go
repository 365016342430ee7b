// Package service wires the round machine to its pose source, high score
// store, frame consumers and library, and exposes the game to the terminal
// frontend and the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/motionparty/internal/adapters/audio"
	"github.com/okian/motionparty/internal/adapters/library"
	eventqueue "github.com/okian/motionparty/internal/adapters/mq/queue"
	workerpool "github.com/okian/motionparty/internal/adapters/mq/worker"
	"github.com/okian/motionparty/internal/adapters/repository"
	"github.com/okian/motionparty/internal/config"
	"github.com/okian/motionparty/internal/domain/choreo"
	"github.com/okian/motionparty/internal/domain/event"
	"github.com/okian/motionparty/internal/domain/popper"
	"github.com/okian/motionparty/internal/domain/pose"
	"github.com/okian/motionparty/internal/domain/round"
	"github.com/okian/motionparty/internal/domain/scoring"
	"github.com/okian/motionparty/pkg/logger"
	"github.com/okian/motionparty/pkg/metrics"
)

const shutdownTimeout = 5 * time.Second

// formulaModules are the tengo modules score expressions may import.
var formulaModules = []string{"math"}

// Service owns one game session. All methods are safe for concurrent use.
type Service struct {
	mu sync.RWMutex

	cfg    *config.Config
	logger logger.Logger
	source pose.Source
	store  repository.Store
	sinks  []workerpool.Sink
	lib    *library.Library
	rng    *rand.Rand

	// pending holds a reloaded library until the next round starts.
	pending *library.Library

	poller   *pose.Poller
	machine  *round.Machine
	theme    library.Theme
	sequence choreo.Sequence
	lastSnap pose.Snapshot

	queue      *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool
	watcher    *library.Watcher
	closeAudio func()
	cancel     context.CancelFunc

	started bool
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults are used when absent.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			c := *cfg
			s.cfg = &c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPoseSource sets where player poses come from. Without one the game
// runs with no players and reports the pose backend as unavailable.
func WithPoseSource(src pose.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithStore sets the high score store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSinks adds frame consumers alongside the built-in ones.
func WithSinks(sinks ...workerpool.Sink) Option {
	return func(s *Service) {
		s.sinks = append(s.sinks, sinks...)
	}
}

// WithLibrary sets the sequence and theme library instead of loading it.
func WithLibrary(lib *library.Library) Option {
	return func(s *Service) {
		if lib != nil {
			s.lib = lib
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg == nil {
		s.cfg = config.New(context.Background())
	}
	return s
}

// Start validates the configuration, builds the configured mode and starts
// the frame consumers. Configuration problems wrap config.ErrInvalidConfig.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	if s.lib == nil {
		lib, err := library.Load(s.cfg.LibraryDir)
		if err != nil {
			return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
		s.lib = lib
	}

	seed := s.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // gameplay randomness

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}

	mode, err := s.buildMode(s.cfg.Mode, s.nameFor(s.cfg.Mode))
	if err != nil {
		return err
	}
	formula, err := s.formulaFor(s.cfg.Mode)
	if err != nil {
		return err
	}
	machine, err := round.NewMachine(mode,
		round.WithCountdown(s.cfg.Round.CountdownS),
		round.WithDuration(s.cfg.Round.DurationS),
		round.WithFormula(formula),
		round.WithHighScores(s.store, s.highScoreKey()),
	)
	if err != nil {
		return err
	}
	s.machine = machine
	s.poller = pose.NewPoller(s.source, s.cfg.PosePollEvery)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	sinks := append([]workerpool.Sink{s.logSink()}, s.sinks...)
	s.closeAudio = func() {}
	if s.cfg.Audio {
		sink, closeAudio := audio.NewSpeakerSink(ctx, s.logger.Named("audio"))
		sinks = append(sinks, sink)
		s.closeAudio = closeAudio
	}

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.cfg.EventQueueSize))
	s.workerPool = workerpool.NewPool(s.cfg.WorkerCount, s.queue, sinks...)
	s.workerPool.Start(runCtx)

	if s.cfg.WatchLibrary && s.cfg.LibraryDir != "" {
		w, err := library.NewWatcher(s.cfg.LibraryDir, library.WithWatchLogger(s.logger.Named("library")))
		if err != nil {
			s.logger.Warn(ctx, "library watch disabled", logger.String("dir", s.cfg.LibraryDir), logger.Error(err))
		} else {
			s.watcher = w
			go w.Run(runCtx, s.stageLibrary)
		}
	}

	s.started = true
	metrics.UpdateRoundState(s.machine.State().String(), stateNames())
	s.logger.Info(ctx, "game service started",
		logger.String("mode", s.cfg.Mode),
		logger.String("theme", s.theme.Name),
		logger.String("sequence", s.sequence.Name),
		logger.Int("workers", s.cfg.WorkerCount),
		logger.Int("queueSize", s.cfg.EventQueueSize),
		logger.Bool("audio", s.cfg.Audio),
	)
	return nil
}

// Stop shuts the consumers down. Frames still queued are delivered first.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping game service...")

	if s.watcher != nil {
		_ = s.watcher.Close()
		s.watcher = nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.workerPool.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "frame consumers did not drain", logger.Error(err))
	}
	s.cancel()
	s.closeAudio()

	s.started = false
	s.logger.Info(ctx, "game service stopped")
}

// Run steps the game at the configured tick rate until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	s.mu.RLock()
	hz := s.cfg.TickHz
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	dt := 1 / float64(hz)
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Step(ctx, dt); err != nil {
				metrics.RecordErrorByComponent("engine", "step")
				s.logger.Error(ctx, "tick failed", logger.Error(err))
			}
		}
	}
}

// Step advances the game by dt seconds and returns what happened.
func (s *Service) Step(ctx context.Context, dt float64) (event.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return event.Frame{}, ErrNotStarted
	}
	start := time.Now()

	snap, polled := s.poller.Poll(dt)
	if polled {
		metrics.RecordPosePoll()
		metrics.UpdatePoseAvailable(s.poller.Available())
		metrics.UpdatePlayersDetected(len(snap.Players))
	}
	s.lastSnap = snap

	before := s.machine.State()
	frame, err := s.machine.Update(ctx, dt, snap)
	s.record(ctx, frame)
	if after := s.machine.State(); after != before {
		metrics.UpdateRoundState(after.String(), stateNames())
		s.logger.Debug(ctx, "round state changed",
			logger.String("from", before.String()),
			logger.String("to", after.String()),
			logger.String("round", s.machine.RoundID()))
	}

	if !frame.Empty() {
		if qerr := s.queue.Enqueue(ctx, frame); qerr != nil && !errors.Is(qerr, eventqueue.ErrFull) {
			s.logger.Warn(ctx, "frame not queued", logger.Error(qerr))
		}
	}
	metrics.RecordTickDuration(time.Since(start))
	return frame, err
}

// record turns a frame into metrics and round-level logs.
func (s *Service) record(ctx context.Context, f event.Frame) { //nolint:gocritic // hugeParam: frames are values by contract
	mode := s.machine.Mode().Name()
	switch mode {
	case config.ModePopper:
		for _, c := range f.Spawned {
			metrics.RecordTargetSpawned(c)
		}
		for _, p := range f.Pops {
			metrics.RecordTargetPopped(p.Category)
		}
		for _, c := range f.Expired {
			metrics.RecordTargetsExpired(c, 1)
		}
		if pm, ok := s.machine.Mode().(*round.PopperMode); ok {
			metrics.UpdateLiveTargets(pm.Engine.Len())
		}
	case config.ModeDance:
		if f.Hit {
			metrics.RecordMoveHit(s.sequence.Name)
		}
		if f.Miss {
			metrics.RecordMoveMiss(s.sequence.Name)
		}
		if f.SequenceComplete {
			metrics.RecordSequenceCompleted(s.sequence.Name)
		}
	}
	metrics.UpdateCurrentStreak(s.machine.Score().Streak)

	if f.RoundComplete {
		metrics.RecordRoundCompleted(mode)
		s.logger.Info(ctx, "round complete",
			logger.String("round", s.machine.RoundID()),
			logger.String("key", s.machine.Key()),
			logger.Int("score", s.machine.FinalScore()),
			logger.Bool("newHighScore", f.NewHighScore))
	}
}

// StartRound begins a countdown from MENU, SELECT or RESULTS. A library
// reload staged since the last round is applied first, and a dance with no
// fixed sequence draws a new one.
func (s *Service) StartRound(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	if s.machine.State() == round.Countdown || s.machine.State() == round.Playing {
		return fmt.Errorf("%w: start from %s", round.ErrInvalidTransition, s.machine.State())
	}

	rebuild := s.pending != nil || (s.cfg.Mode == config.ModeDance && s.cfg.Sequence == "")
	if s.pending != nil {
		s.lib = s.pending
		s.pending = nil
	}
	if rebuild {
		if err := s.switchMode(s.cfg.Mode, s.nameFor(s.cfg.Mode)); err != nil {
			return err
		}
	}

	if err := s.machine.Start(); err != nil {
		return err
	}
	metrics.RecordRoundStarted(s.machine.Mode().Name())
	metrics.UpdateRoundState(s.machine.State().String(), stateNames())
	s.logger.Info(ctx, "round started",
		logger.String("round", s.machine.RoundID()),
		logger.String("mode", s.cfg.Mode),
		logger.String("key", s.machine.Key()))
	return nil
}

// Reset aborts any round and returns to MENU.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	s.machine.Reset()
	s.poller.Reset()
	s.lastSnap = pose.Snapshot{}
	metrics.UpdateRoundState(s.machine.State().String(), stateNames())
	s.logger.Info(ctx, "round reset")
	return nil
}

// Select switches mode and names the theme (popper) or sequence (dance) to
// play. An empty dance name picks a random sequence each round. It is
// rejected while a round is running.
func (s *Service) Select(ctx context.Context, mode, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	if mode != config.ModePopper && mode != config.ModeDance {
		return fmt.Errorf("%w: unknown mode %q", config.ErrInvalidConfig, mode)
	}
	if s.machine.State() == round.Countdown || s.machine.State() == round.Playing {
		return fmt.Errorf("%w: select during %s", round.ErrInvalidTransition, s.machine.State())
	}
	if mode == config.ModePopper && name == "" {
		name = s.cfg.Theme
	}
	if err := s.switchMode(mode, name); err != nil {
		return err
	}

	s.cfg.Mode = mode
	if mode == config.ModePopper {
		s.cfg.Theme = s.theme.Name
	} else {
		s.cfg.Sequence = name
	}
	if s.machine.State() == round.Menu {
		_ = s.machine.Select()
	}
	metrics.UpdateRoundState(s.machine.State().String(), stateNames())
	s.logger.Info(ctx, "mode selected", logger.String("mode", mode), logger.String("key", s.machine.Key()))
	return nil
}

// switchMode builds mode and installs it with its formula and high score key.
func (s *Service) switchMode(mode, name string) error {
	m, err := s.buildMode(mode, name)
	if err != nil {
		return err
	}
	formula, err := s.formulaFor(mode)
	if err != nil {
		return err
	}
	if err := s.machine.SetMode(m, keyFor(mode, s.theme.Name, s.sequence.Name)); err != nil {
		return err
	}
	return s.machine.SetFormula(formula)
}

// buildMode constructs a popper engine for theme name or a dance session for
// sequence name. An empty dance name draws from the library.
func (s *Service) buildMode(mode, name string) (round.Mode, error) {
	switch mode {
	case config.ModePopper:
		theme, err := s.lib.Theme(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
		engine, err := popper.NewEngine(theme.Table(), s.arena(), s.rng)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
		s.theme = theme
		return round.NewPopperMode(engine), nil
	case config.ModeDance:
		var (
			seq choreo.Sequence
			err error
		)
		if name == "" {
			seq, err = s.lib.Random(s.rng)
		} else {
			seq, err = s.lib.Sequence(name)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
		session, err := choreo.NewSession(seq, s.timing(), float64(s.cfg.Screen.Width), float64(s.cfg.Screen.Height))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
		s.sequence = seq
		return round.NewDanceMode(session), nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", config.ErrInvalidConfig, mode)
	}
}

func (s *Service) formulaFor(mode string) (*scoring.Formula, error) {
	expr := s.cfg.ScoreFormula.Popper
	if mode == config.ModeDance {
		expr = s.cfg.ScoreFormula.Dance
	}
	f, err := scoring.NewFormula(expr, scoring.WithModules(formulaModules...))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	return f, nil
}

func (s *Service) nameFor(mode string) string {
	if mode == config.ModeDance {
		return s.cfg.Sequence
	}
	return s.cfg.Theme
}

func (s *Service) arena() popper.Arena {
	return popper.Arena{
		Width:       float64(s.cfg.Screen.Width),
		Height:      float64(s.cfg.Screen.Height),
		SpawnMargin: s.cfg.Popper.SpawnMargin,
		WallMargin:  s.cfg.Popper.WallMargin,
		HandRadius:  s.cfg.Popper.HandRadius,
		Fade:        s.cfg.Popper.FadeS,
	}
}

func (s *Service) timing() choreo.Timing {
	return choreo.Timing{
		HitRadius:   s.cfg.Dance.HitRadius,
		MinDisplay:  s.cfg.Dance.MinDisplayS,
		Timeout:     s.cfg.Dance.TimeoutS,
		Celebration: s.cfg.Dance.CelebrationS,
		Loops:       s.cfg.Dance.Loops,
	}
}

func (s *Service) highScoreKey() string {
	return keyFor(s.cfg.Mode, s.theme.Name, s.sequence.Name)
}

func keyFor(mode, theme, sequence string) string {
	if mode == config.ModeDance {
		return config.ModeDance + "/" + sequence
	}
	return config.ModePopper + "/" + theme
}

// stageLibrary keeps a reloaded library for the next StartRound.
func (s *Service) stageLibrary(lib *library.Library) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = lib
}

// logSink logs the frames a reader of the log would care about.
func (s *Service) logSink() workerpool.Sink {
	log := s.logger.Named("frames")
	return workerpool.SinkFunc{
		ID: "log",
		Fn: func(ctx context.Context, f workerpool.Event) error {
			switch {
			case f.NewHighScore:
				log.Info(ctx, "new high score", logger.Uint64("tick", f.Tick))
			case f.SequenceComplete:
				log.Info(ctx, "sequence complete", logger.Uint64("tick", f.Tick))
			case f.Hit, f.Miss, f.Pop:
				log.Debug(ctx, "frame",
					logger.Uint64("tick", f.Tick),
					logger.Bool("hit", f.Hit),
					logger.Bool("miss", f.Miss),
					logger.Int("pops", len(f.Pops)))
			}
			return nil
		},
	}
}

func stateNames() []string {
	out := make([]string, len(round.States))
	for i, st := range round.States {
		out[i] = st.String()
	}
	return out
}

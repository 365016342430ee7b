package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/okian/motionparty/internal/adapters/http/api"
	"github.com/okian/motionparty/internal/adapters/terminal"
	service "github.com/okian/motionparty/internal/app"
	"github.com/okian/motionparty/internal/config"
	"github.com/okian/motionparty/pkg/logger"
	"github.com/okian/motionparty/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := run(ctx, cfg); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
	}
}

// run starts the game service, the HTTP API and the selected frontend and
// blocks until ctx is cancelled or the player quits.
func run(ctx context.Context, cfg *config.Config) error {
	var screen tcell.Screen
	if cfg.Frontend == config.FrontendTerminal {
		closeLog, err := redirectLogs(cfg.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()

		screen, err = tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("open terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("init terminal: %w", err)
		}
		defer screen.Fini()
		screen.EnableMouse()
		screen.HideCursor()
	}

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	configureMetrics(cfg)

	opts := []service.Option{
		service.WithConfig(cfg),
		service.WithLogger(loggerInstance),
	}
	var mouse *terminal.MouseSource
	if screen != nil {
		cols, rows := screen.Size()
		mouse = terminal.NewMouseSource(float64(cfg.Screen.Width), float64(cfg.Screen.Height), cols, rows)
		opts = append(opts, service.WithPoseSource(mouse))
	}

	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if metrics.Enabled() {
		go startServiceMetricsUpdater(ctx, svc, metrics.RefreshInterval())
	}
	go func() {
		if err := svc.Run(ctx); err != nil {
			loggerInstance.Error(ctx, "engine loop stopped", logger.Error(err))
			cancel()
		}
	}()

	var srv *http.Server
	if cfg.Addr != "" {
		srv = newHTTPServer(ctx, cfg, svc)
		go func() {
			loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			}
		}()
	}

	if screen != nil {
		runTerminal(ctx, screen, mouse, svc)
	} else {
		<-ctx.Done()
	}
	loggerInstance.Info(ctx, "shutting down...")

	if srv != nil {
		// Graceful shutdown with timeout
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
		}
	}

	loggerInstance.Info(ctx, "stopped")
	return nil
}

// newHTTPServer registers the API routes for svc.
func newHTTPServer(ctx context.Context, cfg *config.Config, svc *service.Service) *http.Server {
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc, cfg.MaxHighScoreLimit)
	apiServer.Register(ctx, mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// redirectLogs moves logging into path so it does not tear the screen.
// An empty path discards logs.
func redirectLogs(path string) (func(), error) {
	if path == "" {
		if err := logger.InitWithWriter(io.Discard, logger.FormatText); err != nil {
			return nil, err
		}
		return func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	if err := logger.InitWithWriter(f, logger.FormatText); err != nil {
		_ = f.Close()
		return nil, err
	}
	return func() { _ = f.Close() }, nil
}

// configureMetrics applies the metrics section of cfg to the recorders.
func configureMetrics(cfg *config.Config) {
	metrics.SetEnabled(cfg.Metrics.Enabled)
	metrics.SetRefreshInterval(cfg.Metrics.RefreshInterval())
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateServiceMetrics refreshes gauges that are not driven by the tick.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if available, ok := stats["poseAvailable"].(bool); ok {
		metrics.UpdatePoseAvailable(available)
	}
}

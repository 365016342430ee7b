package library

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/motionparty/pkg/logger"
	"github.com/okian/motionparty/pkg/metrics"
)

// DefaultDebounce coalesces editor write bursts into one reload.
const DefaultDebounce = 100 * time.Millisecond

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the logger used for reload failures.
func WithWatchLogger(l logger.Logger) WatchOption {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// Watcher reloads a library directory when its YAML files change.
type Watcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      logger.Logger
	once     sync.Once
}

// NewWatcher starts watching dir.
func NewWatcher(dir string, opts ...WatchOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	w := &Watcher{
		dir:      dir,
		watcher:  fw,
		debounce: DefaultDebounce,
		log:      logger.Get().Named("library"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run blocks until ctx is done or Close is called, handing every
// successfully reloaded library to apply. A reload that fails to parse
// is logged and the previous library stays in effect.
func (w *Watcher) Run(ctx context.Context, apply func(*Library)) {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isLibraryFile(event.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload(ctx, apply)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			metrics.RecordErrorByComponent("library", "watch")
			w.log.Warn(ctx, "library watch error", logger.Error(err))
		}
	}
}

func (w *Watcher) reload(ctx context.Context, apply func(*Library)) {
	lib, err := Load(w.dir)
	if err != nil {
		metrics.RecordLibraryReload("error")
		w.log.Warn(ctx, "library reload rejected", logger.String("dir", w.dir), logger.Error(err))
		return
	}
	metrics.RecordLibraryReload("ok")
	w.log.Info(ctx, "library reloaded",
		logger.String("dir", w.dir),
		logger.Int("sequences", len(lib.sequences)),
		logger.Int("themes", len(lib.themes)))
	apply(lib)
}

// Close stops the underlying watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		err = w.watcher.Close()
	})
	return err
}

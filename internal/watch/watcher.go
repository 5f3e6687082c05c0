// Package watch runs campaign briefs as they land in the briefs directory.
// It combines an fsnotify watcher for immediate pickup with an optional cron
// rescan that catches files written while the process was down.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/brandgate/creative-automation/internal/pipeline"
	"github.com/brandgate/creative-automation/pkg/errors"
)

const defaultDebounce = time.Second

// Watcher picks up brief files from a directory and runs each through the
// pipeline. Runs are serialized: one campaign at a time.
type Watcher struct {
	log      *zap.Logger
	pipe     *pipeline.Pipeline
	dir      string
	cronSpec string
	debounce time.Duration

	watcher   *fsnotify.Watcher
	scheduler *cron.Cron

	mu      sync.Mutex
	pending map[string]struct{}
	// seen maps brief path to the modtime already processed, so cron
	// rescans skip briefs that have not changed.
	seen map[string]time.Time
}

// New creates a watcher over dir. cronSpec may be empty to disable rescans.
func New(log *zap.Logger, pipe *pipeline.Pipeline, dir, cronSpec string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	return &Watcher{
		log:      log,
		pipe:     pipe,
		dir:      dir,
		cronSpec: cronSpec,
		debounce: defaultDebounce,
		watcher:  fw,
		pending:  make(map[string]struct{}),
		seen:     make(map[string]time.Time),
	}, nil
}

// Start watches the briefs directory until ctx is cancelled. It processes
// briefs already present at startup, then reacts to filesystem events.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	if w.cronSpec != "" {
		w.scheduler = cron.New()
		if _, err := w.scheduler.AddFunc(w.cronSpec, func() { w.rescan(ctx) }); err != nil {
			return fmt.Errorf("invalid cron spec %q: %w", w.cronSpec, err)
		}
		w.scheduler.Start()
	}

	w.log.Info("watching for campaign briefs",
		zap.String("dir", w.dir),
		zap.String("cron", w.cronSpec))

	w.rescan(ctx)

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C

	go func() {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if w.shouldProcess(event) {
					w.enqueue(event.Name)
					debounceTimer.Reset(w.debounce)
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.log.Error("watcher error", zap.Error(err))

			case <-debounceTimer.C:
				w.drain(ctx)

			case <-ctx.Done():
				w.log.Info("stopping brief watcher")
				return
			}
		}
	}()
	return nil
}

// Stop halts the scheduler and file watcher.
func (w *Watcher) Stop() error {
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
	return w.watcher.Close()
}

func (w *Watcher) shouldProcess(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return false
	}
	return strings.HasSuffix(event.Name, ".json")
}

func (w *Watcher) enqueue(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = struct{}{}
}

// drain processes every pending brief.
func (w *Watcher) drain(ctx context.Context) {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	for _, path := range paths {
		w.runBrief(ctx, path)
	}
}

// rescan enqueues every brief in the directory whose modtime is newer than
// its last processed run, then drains immediately.
func (w *Watcher) rescan(ctx context.Context) {
	matches, err := filepath.Glob(filepath.Join(w.dir, "*.json"))
	if err != nil {
		w.log.Error("scanning briefs dir", zap.Error(err))
		return
	}
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		w.mu.Lock()
		processed, ok := w.seen[path]
		w.mu.Unlock()
		if ok && !info.ModTime().After(processed) {
			continue
		}
		w.enqueue(path)
	}
	w.drain(ctx)
}

func (w *Watcher) runBrief(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		w.log.Warn("brief disappeared before run", zap.String("path", path))
		return
	}

	w.log.Info("running campaign brief", zap.String("path", path))
	rep, err := w.pipe.Run(ctx, path)
	switch {
	case errors.Is(err, errors.ErrCampaignBlocked):
		w.log.Warn("campaign blocked by legal screening",
			zap.String("path", path),
			zap.Int("findings", len(rep.Legal.Findings)))
	case err != nil:
		w.log.Error("campaign run failed", zap.String("path", path), zap.Error(err))
		return
	default:
		w.log.Info("campaign run complete",
			zap.String("path", path),
			zap.Int("outputs", len(rep.Outputs)),
			zap.Int("passed", rep.PassCount()))
	}

	w.mu.Lock()
	w.seen[path] = info.ModTime()
	w.mu.Unlock()
}

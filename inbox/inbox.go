// Package inbox ingests PDFs dropped into a directory on a cron schedule.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ProcessedDir is created inside the inbox; handled files are moved there.
const ProcessedDir = "processed"

// DefaultSchedule scans every minute.
const DefaultSchedule = "@every 1m"

// Processor is the part of the store the watcher drives.
type Processor interface {
	ProcessFiles(ctx context.Context, files []analyzer.File, onProgress func(analyzer.Progress)) (analyzer.BatchResult, error)
	IsProcessing() bool
}

type Watcher struct {
	dir   string
	store Processor
	log   zerolog.Logger
	cron  *cron.Cron
	now   func() time.Time
}

type Option func(*Watcher)

func WithLogger(log zerolog.Logger) Option {
	return func(w *Watcher) { w.log = log }
}

func New(dir string, store Processor, opts ...Option) *Watcher {
	w := &Watcher{
		dir:   dir,
		store: store,
		log:   zerolog.Nop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.With().Str("component", "inbox").Str("dir", dir).Logger()
	return w
}

// Start schedules Scan. Overlapping ticks are skipped.
func (w *Watcher) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if err := os.MkdirAll(filepath.Join(w.dir, ProcessedDir), 0o755); err != nil {
		return err
	}

	logger := cron.VerbosePrintfLogger(&w.log)
	w.cron = cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))
	_, err := w.cron.AddFunc(schedule, func() {
		if _, err := w.Scan(context.Background()); err != nil {
			w.log.Error().Err(err).Msg("inbox scan failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", schedule, err)
	}
	w.cron.Start()
	w.log.Info().Str("schedule", schedule).Msg("inbox watcher started")
	return nil
}

// Stop halts the schedule; the returned context is done when a running scan finishes.
func (w *Watcher) Stop() context.Context {
	if w.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	w.log.Info().Msg("inbox watcher stopping")
	return w.cron.Stop()
}

// Scan processes every PDF currently in the inbox as one batch and moves the files to
// the processed directory. It does nothing while the store is busy with another batch.
func (w *Watcher) Scan(ctx context.Context) (analyzer.BatchResult, error) {
	paths, err := w.pending()
	if err != nil || len(paths) == 0 {
		return analyzer.BatchResult{}, err
	}
	if w.store.IsProcessing() {
		w.log.Debug().Int("pending", len(paths)).Msg("store busy, skipping tick")
		return analyzer.BatchResult{}, nil
	}

	files := make([]analyzer.File, len(paths))
	for i, p := range paths {
		files[i] = analyzer.PathFile(p)
	}

	res, err := w.store.ProcessFiles(ctx, files, nil)
	if errors.Is(err, analyzer.ErrAlreadyProcessing) {
		return analyzer.BatchResult{}, nil
	}

	done := len(paths) - res.Skipped
	for _, p := range paths[:done] {
		if mvErr := w.archive(p); mvErr != nil {
			w.log.Warn().Err(mvErr).Str("file", p).Msg("could not move processed file")
		}
	}
	w.log.Info().
		Int("files", done).
		Int("transactions", res.Transactions).
		Int("failed", res.Failed).
		Msg("inbox batch processed")
	return res, err
}

func (w *Watcher) pending() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(w.dir, e.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}

func (w *Watcher) archive(path string) error {
	dest := filepath.Join(w.dir, ProcessedDir)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	target := filepath.Join(dest, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(path)
		base := strings.TrimSuffix(filepath.Base(path), ext)
		target = filepath.Join(dest, fmt.Sprintf("%s-%d%s", base, w.now().UnixNano(), ext))
	}
	return os.Rename(path, target)
}

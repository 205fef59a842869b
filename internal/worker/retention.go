// Package worker runs the retention cleanup: documents older than the
// retention window lose their files first, then their rows, so the store
// never references files it can no longer locate.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pdf-extractor-api/internal/document"
	"pdf-extractor-api/internal/logger"
	"pdf-extractor-api/redis"
)

// FileRemover is the slice of the file store the worker needs. Removals
// are idempotent: an already-absent file counts as removed.
type FileRemover interface {
	RemovePDF(storedFilename string) error
	RemoveImage(filename string) error
}

type RetentionWorker struct {
	repository document.Repository
	files      FileRemover
	cache      *redis.Cache
	retention  time.Duration
	interval   time.Duration

	// now is injectable so retention boundaries can be tested with a
	// fixed clock
	now func() time.Time

	ticker  *time.Ticker
	done    chan struct{}
	running atomic.Bool

	mu      sync.Mutex
	lastRun time.Time
}

func NewRetentionWorker(
	repository document.Repository,
	files FileRemover,
	cache *redis.Cache,
	retention time.Duration,
	interval time.Duration,
) *RetentionWorker {
	return &RetentionWorker{
		repository: repository,
		files:      files,
		cache:      cache,
		retention:  retention,
		interval:   interval,
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

// Start begins the cleanup schedule. A run that overruns the interval
// delays the next tick but never cancels it.
func (w *RetentionWorker) Start() {
	if !w.running.CompareAndSwap(false, true) {
		return
	}

	w.ticker = time.NewTicker(w.interval)
	w.done = make(chan struct{})
	go func() {
		for {
			select {
			case <-w.done:
				return
			case <-w.ticker.C:
				w.RunOnce(context.Background())
			}
		}
	}()

	logger.Log.Info().
		Dur("retention", w.retention).
		Dur("interval", w.interval).
		Msg("retention worker started")
}

// Stop halts the schedule. An in-progress run is left to finish.
func (w *RetentionWorker) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}

	w.ticker.Stop()
	close(w.done)
	logger.Log.Info().Msg("retention worker stopped")
}

// RunOnce executes a single cleanup pass. Failures are isolated per
// candidate: a document whose cleanup fails keeps its rows and stays
// eligible on the next run.
func (w *RetentionWorker) RunOnce(ctx context.Context) {
	cutoff := w.now().UTC().Add(-w.retention)

	candidates, err := w.repository.FindOlderThan(ctx, cutoff)
	if err != nil {
		logger.Log.Error().Err(err).Msg("retention scan failed")
		return
	}

	w.mu.Lock()
	w.lastRun = w.now().UTC()
	w.mu.Unlock()

	if len(candidates) == 0 {
		logger.Log.Debug().Msg("no documents eligible for cleanup")
		return
	}

	purged := 0
	failed := 0
	for _, doc := range candidates {
		if err := w.purge(ctx, doc); err != nil {
			failed++
			logger.Log.Error().Err(err).Str("document_id", doc.ID).Msg("cleanup failed, will retry next run")
			continue
		}
		purged++
	}

	logger.Log.Info().
		Int("candidates", len(candidates)).
		Int("purged", purged).
		Int("failed", failed).
		Msg("retention run completed")
}

// purge removes one document: image files, then the raw PDF, and only
// after both the database rows. The row metadata is what locates the
// files, so it must outlive them.
func (w *RetentionWorker) purge(ctx context.Context, doc document.Document) error {
	for _, img := range doc.Images {
		if err := w.files.RemoveImage(img.Filename); err != nil {
			return fmt.Errorf("remove image %s: %w", img.Filename, err)
		}
	}

	if err := w.files.RemovePDF(doc.StoredFilename); err != nil {
		return fmt.Errorf("remove pdf %s: %w", doc.StoredFilename, err)
	}

	if err := w.repository.DeleteByID(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete rows: %w", err)
	}

	// Purged documents must stop being served from cache
	w.cache.Delete(ctx, document.CacheKey(doc.ID))
	w.cache.IncrementVersion(ctx, document.ListVersionKey)

	return nil
}

// Status describes the worker for the status endpoint
type Status struct {
	Running          bool       `json:"running"`
	RetentionMinutes float64    `json:"retention_minutes"`
	IntervalSeconds  float64    `json:"interval_seconds"`
	LastRun          *time.Time `json:"last_run"`
	NextRun          *time.Time `json:"next_run"`
}

func (w *RetentionWorker) Status() Status {
	w.mu.Lock()
	lastRun := w.lastRun
	w.mu.Unlock()

	status := Status{
		Running:          w.running.Load(),
		RetentionMinutes: w.retention.Minutes(),
		IntervalSeconds:  w.interval.Seconds(),
	}
	if !lastRun.IsZero() {
		status.LastRun = &lastRun
		if status.Running {
			next := lastRun.Add(w.interval)
			status.NextRun = &next
		}
	}
	return status
}

package service

import (
	"context"
	"errors"
	"log"
	"time"
)

// CollectionWorker triggers one collection run per day at a fixed UTC hour.
type CollectionWorker struct {
	runs   *RunService
	hour   int
	stopCh chan struct{}
}

// NewCollectionWorker creates a worker that fires daily at hourUTC (0-23).
func NewCollectionWorker(runs *RunService, hourUTC int) *CollectionWorker {
	if hourUTC < 0 || hourUTC > 23 {
		hourUTC = 6
	}
	return &CollectionWorker{
		runs:   runs,
		hour:   hourUTC,
		stopCh: make(chan struct{}),
	}
}

// Start blocks until stopped, sleeping until the next scheduled hour and
// running one collection pass each day.
func (w *CollectionWorker) Start(ctx context.Context) {
	log.Printf("collection-worker: starting (daily at %02d:00 UTC)", w.hour)

	for {
		wait := time.Until(w.nextRun(time.Now()))
		timer := time.NewTimer(wait)
		log.Printf("collection-worker: next run in %s", wait.Round(time.Second))

		select {
		case <-timer.C:
			w.tick(ctx)
		case <-ctx.Done():
			timer.Stop()
			log.Println("collection-worker: stopping (context cancelled)")
			return
		case <-w.stopCh:
			timer.Stop()
			log.Println("collection-worker: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *CollectionWorker) Stop() {
	close(w.stopCh)
}

// nextRun returns the next occurrence of the scheduled UTC hour after now.
func (w *CollectionWorker) nextRun(now time.Time) time.Time {
	u := now.UTC()
	next := time.Date(u.Year(), u.Month(), u.Day(), w.hour, 0, 0, 0, time.UTC)
	if !next.After(u) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (w *CollectionWorker) tick(ctx context.Context) {
	start := time.Now()
	run, err := w.runs.Execute(ctx)
	if errors.Is(err, ErrRunInProgress) {
		log.Println("collection-worker: skipped tick, a run is already in progress")
		return
	}
	if err != nil {
		log.Printf("collection-worker: run failed: %v", err)
		return
	}
	log.Printf("collection-worker: run %d finished with status %s (%s)",
		run.ID, run.Status, time.Since(start).Round(time.Second))
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

// RefreshWorker periodically rebuilds the snapshot and offers it to the
// render loop. The first run is delayed so a fresh initial load is not
// superseded straight away.
type RefreshWorker struct {
	scheduler *gocron.Scheduler
	fetcher   Fetcher
	out       *SnapshotChannel
	query     string

	interval   time.Duration
	startDelay time.Duration
	timeout    time.Duration

	mu       sync.Mutex
	stopped  *atomic.Bool
	inflight sync.WaitGroup
	now      func() time.Time
}

// NewRefreshWorker creates a worker. timeout bounds each refresh cycle.
func NewRefreshWorker(fetcher Fetcher, out *SnapshotChannel, query string, interval, startDelay, timeout time.Duration) *RefreshWorker {
	return &RefreshWorker{
		scheduler:  gocron.NewScheduler(time.UTC),
		fetcher:    fetcher,
		out:        out,
		query:      query,
		interval:   interval,
		startDelay: startDelay,
		timeout:    timeout,
		stopped:    atomic.NewBool(false),
		now:        time.Now,
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
func (w *RefreshWorker) Start() error {
	if w.interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", w.interval)
	}
	if w.stopped.Load() {
		return fmt.Errorf("refresh worker already stopped")
	}

	_, err := w.scheduler.Every(w.interval).
		StartAt(w.now().Add(w.startDelay)).
		SingletonMode().
		Do(func() {
			w.RunOnce(context.Background())
		})
	if err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}

	w.scheduler.StartAsync()
	log.Info().
		Str("zip", w.query).
		Dur("interval", w.interval).
		Dur("startDelay", w.startDelay).
		Msg("refresh worker scheduled")
	return nil
}

// RunOnce performs one refresh cycle. Failures and panics are logged and
// the cycle is abandoned; a result that lands after Stop is discarded.
func (w *RefreshWorker) RunOnce(ctx context.Context) {
	w.mu.Lock()
	if w.stopped.Load() {
		w.mu.Unlock()
		return
	}
	w.inflight.Add(1)
	w.mu.Unlock()
	defer w.inflight.Done()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("zip", w.query).Msg("refresh cycle panicked")
		}
	}()

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	log.Debug().Str("zip", w.query).Msg("refresh cycle started")
	snap, err := w.fetcher.BuildSnapshot(ctx, w.query, nil)
	if err != nil {
		log.Warn().Err(err).Str("zip", w.query).Msg("refresh cycle failed; retrying next interval")
		return
	}
	if w.stopped.Load() {
		log.Debug().Str("snapshot", snap.ID.String()).Msg("refresh finished after stop; result discarded")
		return
	}
	if w.out.Offer(snap) {
		log.Info().
			Str("zip", w.query).
			Str("snapshot", snap.ID.String()).
			Int("alerts", len(snap.Alerts)).
			Msg("refresh snapshot queued")
	}
}

// Stop cancels future runs and waits up to timeout for an in-flight
// cycle. It returns false when the cycle was abandoned.
func (w *RefreshWorker) Stop(timeout time.Duration) bool {
	w.mu.Lock()
	w.stopped.Store(true)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.scheduler.Stop()
		w.inflight.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		log.Info().Msg("refresh worker exited normally")
		return true
	case <-timer.C:
		log.Warn().Dur("timeout", timeout).Msg("refresh worker still running; abandoning it")
		return false
	}
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"

	"github.com/i474232898/weather-display/internal/weather"
)

// Fetcher assembles one snapshot for a ZIP or free-text query.
type Fetcher interface {
	BuildSnapshot(ctx context.Context, query string, onStage func(weather.Stage)) (weather.WeatherSnapshot, error)
}

// InitStatus is the terminal outcome of the first load.
type InitStatus int

const (
	InitComplete InitStatus = iota
	InitError
)

func (s InitStatus) String() string {
	if s == InitComplete {
		return "complete"
	}
	return "error"
}

// InitResult is delivered exactly once by InitWorker.
type InitResult struct {
	Status   InitStatus
	Snapshot weather.WeatherSnapshot
	Err      error
}

// InitWorker performs the first, possibly slow, load off the render thread.
type InitWorker struct {
	fetcher Fetcher
	query   string
	timeout time.Duration

	stage   *atomic.String
	started *atomic.Bool
	done    *atomic.Bool
	result  chan InitResult
}

// NewInitWorker creates a worker. timeout bounds the whole fetch sequence.
func NewInitWorker(fetcher Fetcher, query string, timeout time.Duration) *InitWorker {
	return &InitWorker{
		fetcher: fetcher,
		query:   query,
		timeout: timeout,
		stage:   atomic.NewString(string(weather.StageInitializing)),
		started: atomic.NewBool(false),
		done:    atomic.NewBool(false),
		result:  make(chan InitResult, 1),
	}
}

// Start launches the load. Calling it more than once has no effect.
func (w *InitWorker) Start() {
	if !w.started.CAS(false, true) {
		return
	}
	go w.run()
}

func (w *InitWorker) run() {
	res := InitResult{Status: InitError}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("zip", w.query).Msg("init worker panicked")
			res = InitResult{Status: InitError, Err: fmt.Errorf("init worker panic: %v", r)}
		}
		w.done.Store(true)
		w.result <- res
	}()

	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	log.Info().Str("zip", w.query).Msg("initial load started")
	snap, err := w.fetcher.BuildSnapshot(ctx, w.query, func(st weather.Stage) {
		w.stage.Store(string(st))
	})
	res.Snapshot = snap
	if err != nil {
		res.Err = err
		log.Warn().Err(err).Str("zip", w.query).Msg("initial load failed")
		return
	}
	w.stage.Store(string(weather.StagePreRender))
	res.Status = InitComplete
	log.Info().
		Str("zip", w.query).
		Str("snapshot", snap.ID.String()).
		Int("alerts", len(snap.Alerts)).
		Msg("initial load complete")
}

// Stage returns the latest progress message.
func (w *InitWorker) Stage() (weather.Stage, bool) {
	st := w.stage.Load()
	return weather.Stage(st), st != ""
}

// Done reports whether the load has finished.
func (w *InitWorker) Done() bool {
	return w.done.Load()
}

// Result returns the outcome once the load has finished. It yields a
// value exactly once; later calls report false.
func (w *InitWorker) Result() (InitResult, bool) {
	select {
	case res := <-w.result:
		return res, true
	default:
		return InitResult{}, false
	}
}

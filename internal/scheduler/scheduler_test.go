package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-display/internal/weather"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	err     error
	block   chan struct{}
	panicOn bool
	stages  []weather.Stage
}

func (f *fakeFetcher) BuildSnapshot(ctx context.Context, query string, onStage func(weather.Stage)) (weather.WeatherSnapshot, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.panicOn {
		panic("boom")
	}
	for _, st := range f.stages {
		if onStage != nil {
			onStage(st)
		}
	}
	if f.block != nil {
		<-f.block
	}
	snap := weather.WeatherSnapshot{ID: uuid.New(), Location: weather.Location{Zip: query}}
	return snap, f.err
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func snapshotNamed(zip string) weather.WeatherSnapshot {
	return weather.WeatherSnapshot{ID: uuid.New(), Location: weather.Location{Zip: zip}}
}

func TestSnapshotChannelDropsWhenFull(t *testing.T) {
	c := NewSnapshotChannel()
	first, second, third := snapshotNamed("1"), snapshotNamed("2"), snapshotNamed("3")

	assert.True(t, c.Offer(first))
	assert.True(t, c.Offer(second))
	assert.False(t, c.Offer(third))
	assert.Equal(t, 2, c.Len())

	got, ok := c.TryTake()
	require.True(t, ok)
	assert.Equal(t, first.ID, got.ID)
	got, ok = c.TryTake()
	require.True(t, ok)
	assert.Equal(t, second.ID, got.ID)

	_, ok = c.TryTake()
	assert.False(t, ok)
}

func TestInitWorkerDeliversOnce(t *testing.T) {
	f := &fakeFetcher{stages: []weather.Stage{weather.StageWeather, weather.StageRadar}}
	w := NewInitWorker(f, "75201", time.Second)

	st, ok := w.Stage()
	require.True(t, ok)
	assert.Equal(t, weather.StageInitializing, st)

	w.Start()
	w.Start()

	var res InitResult
	require.Eventually(t, func() bool {
		var got bool
		res, got = w.Result()
		return got
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, InitComplete, res.Status)
	assert.Equal(t, "75201", res.Snapshot.Location.Zip)
	assert.True(t, w.Done())
	assert.Equal(t, 1, f.Calls())

	st, _ = w.Stage()
	assert.Equal(t, weather.StagePreRender, st)

	_, again := w.Result()
	assert.False(t, again)
}

func TestInitWorkerReportsError(t *testing.T) {
	f := &fakeFetcher{err: weather.ErrNoLocation}
	w := NewInitWorker(f, "00000", time.Second)
	w.Start()

	var res InitResult
	require.Eventually(t, func() bool {
		var got bool
		res, got = w.Result()
		return got
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, InitError, res.Status)
	assert.ErrorIs(t, res.Err, weather.ErrNoLocation)
}

func TestInitWorkerRecoversPanic(t *testing.T) {
	w := NewInitWorker(&fakeFetcher{panicOn: true}, "1", time.Second)
	w.Start()
	require.Eventually(t, func() bool {
		res, got := w.Result()
		return got && res.Status == InitError && res.Err != nil
	}, time.Second, 5*time.Millisecond)
}

func TestRefreshWorkerRunOnceOffers(t *testing.T) {
	out := NewSnapshotChannel()
	w := NewRefreshWorker(&fakeFetcher{}, out, "75201", time.Minute, time.Minute, time.Second)

	w.RunOnce(context.Background())
	assert.Equal(t, 1, out.Len())
}

func TestRefreshWorkerSwallowsFailures(t *testing.T) {
	out := NewSnapshotChannel()
	w := NewRefreshWorker(&fakeFetcher{err: errors.New("nws down")}, out, "75201", time.Minute, 0, time.Second)
	assert.NotPanics(t, func() { w.RunOnce(context.Background()) })
	assert.Equal(t, 0, out.Len())

	w = NewRefreshWorker(&fakeFetcher{panicOn: true}, out, "75201", time.Minute, 0, time.Second)
	assert.NotPanics(t, func() { w.RunOnce(context.Background()) })
}

func TestRefreshWorkerScheduledRuns(t *testing.T) {
	f := &fakeFetcher{}
	out := NewSnapshotChannel()
	w := NewRefreshWorker(f, out, "75201", time.Second, 0, time.Second)
	require.NoError(t, w.Start())

	require.Eventually(t, func() bool { return f.Calls() >= 1 }, 3*time.Second, 10*time.Millisecond)
	assert.True(t, w.Stop(time.Second))
	assert.GreaterOrEqual(t, out.Len(), 1)
}

func TestRefreshWorkerStartDelay(t *testing.T) {
	f := &fakeFetcher{}
	w := NewRefreshWorker(f, NewSnapshotChannel(), "75201", time.Second, time.Hour, time.Second)
	require.NoError(t, w.Start())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, f.Calls())
	assert.True(t, w.Stop(time.Second))
}

func TestRefreshWorkerStopAbandonsAndDiscards(t *testing.T) {
	f := &fakeFetcher{block: make(chan struct{})}
	out := NewSnapshotChannel()
	w := NewRefreshWorker(f, out, "75201", time.Minute, 0, 5*time.Second)

	finished := make(chan struct{})
	go func() {
		w.RunOnce(context.Background())
		close(finished)
	}()
	require.Eventually(t, func() bool { return f.Calls() == 1 }, time.Second, 5*time.Millisecond)

	assert.False(t, w.Stop(20*time.Millisecond))

	close(f.block)
	<-finished
	assert.Equal(t, 0, out.Len())

	w.RunOnce(context.Background())
	assert.Equal(t, 1, f.Calls())
	assert.Error(t, w.Start())
}

func TestRefreshWorkerRejectsBadInterval(t *testing.T) {
	w := NewRefreshWorker(&fakeFetcher{}, NewSnapshotChannel(), "1", 0, 0, time.Second)
	assert.Error(t, w.Start())
}

package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tekir/cache"
	"tekir/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingEngine struct {
	name    string
	results []search.Result
	err     error
	panics  bool
	calls   atomic.Int32
	release chan struct{}
}

func (e *countingEngine) Name() string { return e.name }

func (e *countingEngine) Search(ctx context.Context, query string) ([]search.Result, error) {
	e.calls.Add(1)
	if e.release != nil {
		<-e.release
	}
	if e.panics {
		panic("selector blew up")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.results, e.err
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestDispatcher(engines map[string]search.Engine) (*Dispatcher, *clock) {
	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	qc := cache.New(cache.DefaultTTL, cache.WithClock(clk.Now))
	return NewDispatcher(engines, qc, zap.NewNop()), clk
}

func TestResolve_InvalidSource(t *testing.T) {
	d, _ := newTestDispatcher(map[string]search.Engine{SourceDuck: &countingEngine{name: "DuckDuckGo"}})

	for _, source := range []string{"bing", "", "duckduckgo"} {
		t.Run(source, func(t *testing.T) {
			_, err := d.Resolve(context.Background(), source, "openai")
			assert.ErrorIs(t, err, ErrInvalidSource)
		})
	}
}

func TestResolve_SourceIsCaseInsensitive(t *testing.T) {
	engine := &countingEngine{name: "DuckDuckGo", results: []search.Result{{Title: "hit"}}}
	d, _ := newTestDispatcher(map[string]search.Engine{SourceDuck: engine})

	for _, source := range []string{"duck", "DUCK", "Duck"} {
		results, err := d.Resolve(context.Background(), source, "openai")
		require.NoError(t, err)
		assert.Equal(t, engine.results, results)
	}
	assert.Equal(t, int32(1), engine.calls.Load())
}

func TestResolve_CachesWithinTTL(t *testing.T) {
	engine := &countingEngine{name: "Brave", results: []search.Result{{Title: "a", URL: "https://a.com/"}}}
	d, clk := newTestDispatcher(map[string]search.Engine{SourceBrave: engine})

	first, err := d.Resolve(context.Background(), "brave", "golang")
	require.NoError(t, err)

	clk.Advance(29 * time.Minute)
	second, err := d.Resolve(context.Background(), "brave", "golang")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), engine.calls.Load())
}

func TestResolve_RefetchesAfterTTL(t *testing.T) {
	testCases := []struct {
		name    string
		results []search.Result
	}{
		{"NonEmpty", []search.Result{{Title: "a"}}},
		{"Empty", []search.Result{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine := &countingEngine{name: "Google", results: tc.results}
			d, clk := newTestDispatcher(map[string]search.Engine{SourceGoogle: engine})

			_, err := d.Resolve(context.Background(), "google", "q")
			require.NoError(t, err)

			clk.Advance(30 * time.Minute)
			_, err = d.Resolve(context.Background(), "google", "q")
			require.NoError(t, err)

			assert.Equal(t, int32(2), engine.calls.Load())
		})
	}
}

func TestResolve_BackendsDoNotShareCacheEntries(t *testing.T) {
	duck := &countingEngine{name: "DuckDuckGo", results: []search.Result{{Source: search.SourceDuckDuckGo}}}
	brave := &countingEngine{name: "Brave", results: []search.Result{{Source: search.SourceBrave}}}
	d, _ := newTestDispatcher(map[string]search.Engine{SourceDuck: duck, SourceBrave: brave})

	fromDuck, err := d.Resolve(context.Background(), "duck", "same")
	require.NoError(t, err)
	fromBrave, err := d.Resolve(context.Background(), "brave", "same")
	require.NoError(t, err)

	assert.Equal(t, search.SourceDuckDuckGo, fromDuck[0].Source)
	assert.Equal(t, search.SourceBrave, fromBrave[0].Source)
	assert.Equal(t, int32(1), duck.calls.Load())
	assert.Equal(t, int32(1), brave.calls.Load())
}

func TestResolve_EngineErrorYieldsEmptyAndIsNotCached(t *testing.T) {
	engine := &countingEngine{name: "Google", err: errors.New("http 429: blocked")}
	d, _ := newTestDispatcher(map[string]search.Engine{SourceGoogle: engine})

	results, err := d.Resolve(context.Background(), "google", "q")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	_, err = d.Resolve(context.Background(), "google", "q")
	require.NoError(t, err)
	assert.Equal(t, int32(2), engine.calls.Load())
}

func TestResolve_NilResultsBecomeEmptySlice(t *testing.T) {
	engine := &countingEngine{name: "DuckDuckGo"}
	d, _ := newTestDispatcher(map[string]search.Engine{SourceDuck: engine})

	results, err := d.Resolve(context.Background(), "duck", "q")
	require.NoError(t, err)
	assert.NotNil(t, results)
}

func TestResolve_ConcurrentMissesFetchOnce(t *testing.T) {
	engine := &countingEngine{
		name:    "DuckDuckGo",
		results: []search.Result{{Title: "a"}},
		release: make(chan struct{}),
	}
	d, _ := newTestDispatcher(map[string]search.Engine{SourceDuck: engine})

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := d.Resolve(context.Background(), "duck", "q")
			assert.NoError(t, err)
			assert.Len(t, results, 1)
		}()
	}

	require.Eventually(t, func() bool { return engine.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(engine.release)
	wg.Wait()

	assert.Equal(t, int32(1), engine.calls.Load())
}

func TestResolve_CancelledCallerDoesNotEmptySharedFetch(t *testing.T) {
	engine := &countingEngine{
		name:    "DuckDuckGo",
		results: []search.Result{{Title: "a"}},
		release: make(chan struct{}),
	}
	d, _ := newTestDispatcher(map[string]search.Engine{SourceDuck: engine})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := d.Resolve(firstCtx, "duck", "q")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return engine.calls.Load() == 1 }, time.Second, time.Millisecond)

	type outcome struct {
		results []search.Result
		err     error
	}
	second := make(chan outcome, 1)
	go func() {
		results, err := d.Resolve(context.Background(), "duck", "q")
		second <- outcome{results, err}
	}()

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(engine.release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, engine.results, got.results)
	assert.Equal(t, int32(1), engine.calls.Load())

	cached, err := d.Resolve(context.Background(), "duck", "q")
	require.NoError(t, err)
	assert.Equal(t, engine.results, cached)
	assert.Equal(t, int32(1), engine.calls.Load())
}

func TestResolve_EnginePanicBecomesError(t *testing.T) {
	engine := &countingEngine{name: "Google", panics: true, release: make(chan struct{})}
	d, _ := newTestDispatcher(map[string]search.Engine{SourceGoogle: engine})

	errs := make(chan error, 3)
	for range 3 {
		go func() {
			_, err := d.Resolve(context.Background(), "google", "q")
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return engine.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(engine.release)

	for range 3 {
		err := <-errs
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panicked")
	}

	engine.panics = false
	results, err := d.Resolve(context.Background(), "google", "q")
	require.NoError(t, err)
	assert.NotNil(t, results)
}

func TestSources(t *testing.T) {
	d, _ := newTestDispatcher(map[string]search.Engine{
		"Google": &countingEngine{},
		"duck":   &countingEngine{},
		"brave":  &countingEngine{},
	})
	assert.Equal(t, []string{"brave", "duck", "google"}, d.Sources())
}

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"tekir/cache"
	"tekir/search"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Source names accepted by Resolve.
const (
	SourceDuck   = "duck"
	SourceBrave  = "brave"
	SourceGoogle = "google"
)

var ErrInvalidSource = errors.New("invalid source")

// Dispatcher routes a query to one engine, serving repeated queries from cache.
type Dispatcher struct {
	engines map[string]search.Engine
	cache   *cache.QueryCache
	group   singleflight.Group
	logger  *zap.Logger
}

// NewDispatcher registers engines under lower-cased source names.
func NewDispatcher(engines map[string]search.Engine, queryCache *cache.QueryCache, logger *zap.Logger) *Dispatcher {
	registered := make(map[string]search.Engine, len(engines))
	for name, engine := range engines {
		registered[strings.ToLower(name)] = engine
	}
	return &Dispatcher{
		engines: registered,
		cache:   queryCache,
		logger:  logger,
	}
}

// Sources returns the registered source names in sorted order.
func (d *Dispatcher) Sources() []string {
	names := make([]string, 0, len(d.engines))
	for name := range d.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the results for query from the named source.
// Upstream failures are logged and yield an empty list that is not cached.
// A panicking engine yields an error. If ctx ends first, Resolve returns
// ctx.Err() while the shared fetch keeps running for other callers.
func (d *Dispatcher) Resolve(ctx context.Context, source, query string) ([]search.Result, error) {
	name := strings.ToLower(source)
	engine, ok := d.engines[name]
	if !ok {
		return nil, ErrInvalidSource
	}

	if entry, ok := d.cache.Get(name, query); ok {
		d.logger.Debug("cache hit", zap.String("source", name), zap.String("query", query))
		return entry.Results, nil
	}

	// The shared fetch must not inherit one caller's cancellation; the HTTP
	// client timeout bounds it instead.
	fetchCtx := context.WithoutCancel(ctx)
	ch := d.group.DoChan(cache.Key(name, query), func() (any, error) {
		return d.fetch(fetchCtx, engine, name, query)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]search.Result), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fetch runs engine and stores a successful result. A panicking engine is
// reported as an error, since singleflight would otherwise re-panic on a
// goroutine nobody can recover.
func (d *Dispatcher) fetch(ctx context.Context, engine search.Engine, name, query string) (results []search.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("engine panicked",
				zap.String("source", name),
				zap.String("query", query),
				zap.Any("panic", rec))
			results, err = nil, fmt.Errorf("engine %s panicked: %v", name, rec)
		}
	}()

	// Another caller may have filled the entry while this one waited.
	if entry, ok := d.cache.Get(name, query); ok {
		return entry.Results, nil
	}

	results, err = engine.Search(ctx, query)
	if err != nil {
		d.logger.Error("search failed",
			zap.String("source", name),
			zap.String("query", query),
			zap.Error(err))
		return []search.Result{}, nil
	}
	if results == nil {
		results = []search.Result{}
	}

	d.cache.Put(name, query, results)
	d.logger.Info("search completed",
		zap.String("source", name),
		zap.String("query", query),
		zap.Int("results", len(results)))
	return results, nil
}

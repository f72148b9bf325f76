// Package cache evicts derived journey graphs after a sync so readers
// rebuild them from fresh data.
package cache

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/graphcache"
	"github.com/Ramsey-B/fern/internal/tracing"
)

// Result reports one invalidation.
type Result struct {
	Evicted int64 `json:"evicted"`
}

// Invalidator evicts cached journey graphs.
type Invalidator struct {
	cache  *graphcache.Repository
	logger ectologger.Logger
}

func NewInvalidator(cache *graphcache.Repository, logger ectologger.Logger) *Invalidator {
	return &Invalidator{
		cache:  cache,
		logger: logger,
	}
}

// InvalidateAll evicts every cached graph.
func (i *Invalidator) InvalidateAll(ctx context.Context) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.Invalidator.InvalidateAll")
	defer span.End()

	evicted, err := i.cache.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}

	i.logger.WithContext(ctx).WithField("evicted", evicted).Info("Invalidated cached journey graphs")
	return &Result{Evicted: evicted}, nil
}

// PurgeOlderThan evicts graphs cached before the given age. Used by the
// periodic janitor rather than the sync pipeline.
func (i *Invalidator) PurgeOlderThan(ctx context.Context, age time.Duration) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.Invalidator.PurgeOlderThan")
	defer span.End()

	evicted, err := i.cache.DeleteOlderThan(ctx, age)
	if err != nil {
		return nil, err
	}

	if evicted > 0 {
		i.logger.WithContext(ctx).WithField("evicted", evicted).Info("Purged stale cached journey graphs")
	}
	return &Result{Evicted: evicted}, nil
}

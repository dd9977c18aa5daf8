// Package stats coordinates roster-wide refreshes and caches the latest
// snapshot so dashboard reads do not hammer the upstream APIs.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/campuscode/leetboard/internal/model"
	"github.com/campuscode/leetboard/internal/store"
)

// Batcher fetches counts for a whole roster. Satisfied by *fetch.Fetcher.
type Batcher interface {
	FetchBatch(ctx context.Context, students []model.Student, lastKnown map[string]model.StatRecord) []model.StudentResult
}

// Options tunes the refresher.
type Options struct {
	CacheTTL time.Duration // default 5m
}

// Refresher runs batch refreshes against the store and serves the most
// recent snapshot until it expires. Concurrent callers share one refresh:
// whoever takes the lock first fetches, the rest reuse the result.
type Refresher struct {
	store   store.Store
	batcher Batcher
	ttl     time.Duration

	mu       sync.Mutex
	snapshot []model.StudentResult
	takenAt  time.Time

	nowFunc func() time.Time
}

// New creates a Refresher over the given store and batch fetcher.
func New(st store.Store, batcher Batcher, opts Options) *Refresher {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Refresher{
		store:   st,
		batcher: batcher,
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// Results returns the current dashboard rows, refreshing from the upstream
// sources when the cached snapshot is older than the TTL or force is set.
func (r *Refresher) Results(ctx context.Context, force bool) ([]model.StudentResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !force && !r.takenAt.IsZero() && r.nowFunc().Sub(r.takenAt) < r.ttl {
		return r.snapshot, nil
	}
	return r.refreshLocked(ctx)
}

// LastRefreshed reports when the cached snapshot was taken. The zero time
// means no refresh has completed yet.
func (r *Refresher) LastRefreshed() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.takenAt
}

func (r *Refresher) refreshLocked(ctx context.Context) ([]model.StudentResult, error) {
	students, err := r.store.ListStudents(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "stats: list students")
	}

	lastKnown, err := r.store.LastKnown(ctx)
	if err != nil {
		// Degrade rather than fail: rows that would have been stale come
		// back unknown instead.
		zap.L().Warn("stats: last-known lookup failed, refreshing without cache", zap.Error(err))
		lastKnown = nil
	}

	results := r.batcher.FetchBatch(ctx, students, lastKnown)

	saved, err := r.store.SaveStats(ctx, results)
	if err != nil {
		// The rows are already fetched; serve them even if persisting failed.
		zap.L().Warn("stats: persisting refreshed rows failed", zap.Error(err))
	} else if saved > 0 {
		zap.L().Debug("stats: snapshot persisted", zap.Int("rows", saved))
	}

	r.snapshot = results
	r.takenAt = r.nowFunc()
	return results, nil
}

package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/campuscode/leetboard/internal/model"
)

// FetchBatch resolves a whole roster concurrently. The returned slice
// mirrors the input order slot for slot, whatever order tasks finish
// in. Students whose sources all failed degrade to their last-known
// counts (marked stale) or to zeroed unknown rows; a panicking task is
// confined to its own slot.
func (f *Fetcher) FetchBatch(ctx context.Context, students []model.Student, lastKnown map[string]model.StatRecord) []model.StudentResult {
	results := make([]model.StudentResult, len(students))
	if len(students) == 0 {
		return results
	}

	batchID := uuid.NewString()
	start := time.Now()
	fetchedAt := start.Unix()

	zap.L().Info("stats batch started",
		zap.String("batch_id", batchID),
		zap.Int("students", len(students)),
		zap.Int("concurrency", f.opts.Concurrency),
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Concurrency)

	for i, s := range students {
		i, s := i, s
		g.Go(func() error {
			results[i] = f.resolveStudent(gCtx, s, lastKnown, fetchedAt)
			return nil // one bad row never aborts the batch
		})
	}
	_ = g.Wait()

	var fresh, stale, notFound, unknown int
	for _, r := range results {
		switch r.Outcome {
		case model.OutcomeFresh:
			fresh++
		case model.OutcomeStale:
			stale++
		case model.OutcomeNotFound:
			notFound++
		case model.OutcomeUnknown:
			unknown++
		}
	}

	zap.L().Info("stats batch finished",
		zap.String("batch_id", batchID),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("fresh", fresh),
		zap.Int("stale", stale),
		zap.Int("not_found", notFound),
		zap.Int("unknown", unknown),
	)
	return results
}

// resolveStudent merges one student's chain answer into a dashboard
// row. A panic during resolution is logged and degrades the row to
// unknown so the rest of the batch keeps going.
func (f *Fetcher) resolveStudent(ctx context.Context, s model.Student, lastKnown map[string]model.StatRecord, fetchedAt int64) (row model.StudentResult) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("student fetch panicked",
				zap.String("roll_no", s.RollNo),
				zap.String("username", s.Username),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			row = s.Result()
			row.FetchedAt = fetchedAt
			row.Outcome = model.OutcomeUnknown
		}
	}()

	row = s.Result()
	row.FetchedAt = fetchedAt

	reply := f.Resolve(ctx, s.Username)
	switch {
	case reply == nil:
		if cached, ok := lastKnown[cacheKey(s.Username)]; ok {
			row.SetStats(cached)
			row.Stale = true
			row.Outcome = model.OutcomeStale
			row.Source = "cache"
		} else {
			row.Outcome = model.OutcomeUnknown
		}
		zap.L().Debug("no source answered",
			zap.String("roll_no", s.RollNo),
			zap.String("username", s.Username),
			zap.Bool("stale", row.Stale),
		)
	case reply.NotFound != nil:
		reason := reply.NotFound.Reason
		row.FetchError = &reason
		row.Outcome = model.OutcomeNotFound
		row.Source = reply.Source
	default:
		row.SetStats(reply.Stats)
		row.Outcome = model.OutcomeFresh
		row.Source = reply.Source
	}
	return row
}

// cacheKey normalizes a username for last-known lookups.
func cacheKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

package fetch

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/campuscode/leetboard/internal/model"
	"github.com/campuscode/leetboard/internal/resilience"
)

// Resolve walks the sources in priority order and returns the first
// definitive answer. A NotFound from a healthy source is trusted as
// much as a stats payload: later sources are not consulted for a
// second opinion. Nil means every source came up empty and the caller
// should fall back to cached counts.
//
// Usernames without a real account resolve immediately to zeroed
// counts; no request is made and no breaker state moves.
func (f *Fetcher) Resolve(ctx context.Context, username string) *Reply {
	if model.IsNoAccount(username) {
		return &Reply{}
	}

	for _, src := range f.sources {
		if ctx.Err() != nil {
			return nil
		}

		reply, err := f.FetchOne(ctx, src, username)
		if err == nil {
			return reply
		}

		switch {
		case errors.Is(err, ErrBreakerOpen):
			zap.L().Debug("source skipped, breaker open",
				zap.String("source", src.Name),
				zap.String("username", username),
			)
		case resilience.IsTransient(err):
			zap.L().Debug("source unavailable, trying next",
				zap.String("source", src.Name),
				zap.String("username", username),
				zap.Error(err),
			)
		default:
			zap.L().Warn("source rejected request, trying next",
				zap.String("source", src.Name),
				zap.String("username", username),
				zap.Error(err),
			)
		}
	}
	return nil
}

package fetch

import (
	"context"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/campuscode/leetboard/internal/model"
	"github.com/campuscode/leetboard/internal/resilience"
	"github.com/campuscode/leetboard/internal/source"
)

// ErrBreakerOpen is returned when a source is skipped without a request
// because its breaker is open.
var ErrBreakerOpen = eris.New("fetch: source breaker open")

// Reply is a definitive answer from one source: either current counts
// or a trusted statement that the user does not exist.
type Reply struct {
	Stats    model.StatRecord
	NotFound *source.NotFound
	Source   string
}

// Sources cap payloads at a few KB; anything bigger is garbage.
const maxBodyBytes = 1 << 20

// FetchOne asks a single source about a username, retrying transient
// failures up to the configured budget with the fixed backoff schedule.
//
// Breaker accounting: transport failures, 5xx and unexpected statuses
// count against the source; a parse failure on 200 counts too (the source is
// misbehaving). 404 and in-payload not-found envelopes count neither
// way. A successfully parsed answer resets the source's count.
func (f *Fetcher) FetchOne(ctx context.Context, src source.Source, username string) (*Reply, error) {
	if f.breaker.Open(src.Name) {
		return nil, ErrBreakerOpen
	}

	rawURL := src.URL(username)
	var lastErr error
	for attempt := 0; attempt < f.opts.MaxRetries; attempt++ {
		if err := f.limiterFor(src.Host()).Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetch: rate limiter wait")
		}

		reply, retryable, err := f.attempt(ctx, src, rawURL)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}

		if attempt < f.opts.MaxRetries-1 {
			zap.L().Warn("source attempt failed, retrying",
				zap.String("source", src.Name),
				zap.String("username", username),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			if sleepErr := sleep(ctx, f.backoffFor(attempt)); sleepErr != nil {
				return nil, lastErr
			}
		}
	}
	return nil, eris.Wrapf(lastErr, "fetch: %s exhausted %d attempts", src.Name, f.opts.MaxRetries)
}

// attempt performs one HTTP round trip. The bool reports whether the
// failure is worth another attempt against the same source.
func (f *Fetcher) attempt(ctx context.Context, src source.Source, rawURL string) (*Reply, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Caller is shutting down; not the source's fault.
			return nil, false, eris.Wrap(ctx.Err(), "fetch: canceled")
		}
		f.breaker.RecordFailure(src.Name)
		return nil, true, resilience.NewTransientError(eris.Wrapf(err, "fetch: %s", src.Name), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			f.breaker.RecordFailure(src.Name)
			return nil, true, resilience.NewTransientError(eris.Wrapf(err, "fetch: read %s body", src.Name), resp.StatusCode)
		}
		rec, notFound, err := source.Parse(src.Parser, body)
		if err != nil {
			// The same payload would come back; retrying buys nothing.
			f.breaker.RecordFailure(src.Name)
			return nil, false, err
		}
		if notFound != nil {
			return &Reply{NotFound: notFound, Source: src.Name}, false, nil
		}
		f.breaker.RecordSuccess(src.Name)
		return &Reply{Stats: rec, Source: src.Name}, false, nil

	case resp.StatusCode == http.StatusNotFound:
		return &Reply{NotFound: &source.NotFound{Reason: "user_not_found"}, Source: src.Name}, false, nil

	case resilience.RetryableStatus(resp.StatusCode):
		f.breaker.RecordFailure(src.Name)
		return nil, true, resilience.NewTransientError(
			eris.Errorf("fetch: http %d from %s", resp.StatusCode, src.Name), resp.StatusCode)

	default:
		f.breaker.RecordFailure(src.Name)
		return nil, false, eris.Errorf("fetch: http %d from %s", resp.StatusCode, src.Name)
	}
}

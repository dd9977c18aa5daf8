// Package fetch implements the resilient stats acquisition pipeline:
// a shared HTTP client with per-host rate limits, bounded-retry fetches
// against a single source, the priority-ordered fallback chain, and the
// bounded-concurrency batch runner that merges cached stats.
package fetch

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/campuscode/leetboard/internal/resilience"
	"github.com/campuscode/leetboard/internal/source"
)

// Options configures the fetcher.
type Options struct {
	// Timeout is the per-attempt budget. Default: 10s.
	Timeout time.Duration

	// MaxRetries is the number of attempts per source, counting the
	// first. Default: 3.
	MaxRetries int

	// Backoff is the sleep schedule between attempts, indexed by the
	// attempt that just failed; the last entry repeats if retries
	// outnumber entries. Default: 200ms, 400ms, 800ms.
	Backoff []time.Duration

	// Concurrency bounds in-flight students in a batch and caps
	// connections per upstream host to the same number, so a batch can
	// never dogpile a single free-tier host. Default: 30.
	Concurrency int

	// PerHostRPS rate-limits requests per upstream host. Default: 10.
	PerHostRPS rate.Limit

	UserAgent string
}

func (o *Options) applyDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if len(o.Backoff) == 0 {
		o.Backoff = []time.Duration{200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond}
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 30
	}
	if o.PerHostRPS <= 0 {
		o.PerHostRPS = 10
	}
	if o.UserAgent == "" {
		o.UserAgent = "leetboard/1.0"
	}
}

// Fetcher acquires stats from the configured sources. It is safe for
// concurrent use; one Fetcher is shared by the server, the scheduler
// and the CLI commands.
type Fetcher struct {
	client  *http.Client
	opts    Options
	sources []source.Source
	breaker *resilience.Breaker

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Fetcher over the given priority-ordered sources. The
// breaker is shared so its snapshot stays visible to the health
// endpoint.
func New(sources []source.Source, breaker *resilience.Breaker, opts Options) *Fetcher {
	opts.applyDefaults()
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     opts.Concurrency,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Fetcher{
		client: &http.Client{
			// Hard ceiling; each attempt carries its own Timeout via
			// context, the client bound only catches pathological hangs.
			Timeout:   2 * opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		sources:  sources,
		breaker:  breaker,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Sources returns the priority-ordered source list in use.
func (f *Fetcher) Sources() []source.Source {
	return f.sources
}

// limiterFor returns the rate limiter for a host, creating it lazily.
func (f *Fetcher) limiterFor(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		burst := int(f.opts.PerHostRPS)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(f.opts.PerHostRPS, burst)
		f.limiters[host] = lim
	}
	return lim
}

// backoffFor returns the sleep before retrying after a failed attempt.
func (f *Fetcher) backoffFor(attempt int) time.Duration {
	if attempt >= len(f.opts.Backoff) {
		return f.opts.Backoff[len(f.opts.Backoff)-1]
	}
	return f.opts.Backoff[attempt]
}

// sleep waits for d, honoring cancellation mid-sleep.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

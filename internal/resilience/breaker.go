// Package resilience provides per-source circuit breaking and the
// failure taxonomy for calls to the upstream stats APIs.
package resilience

import (
	"sync"
	"time"
)

// BreakerConfig controls per-source failure tracking.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before a
	// source is skipped. Default: 5.
	FailureThreshold int

	// Cooldown is how long a tripped source is skipped before traffic
	// may probe it again. Default: 5m.
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Cooldown:         5 * time.Minute,
	}
}

// SourceState is an observability snapshot for one source.
type SourceState struct {
	Failures    int        `json:"failures"`
	Open        bool       `json:"is_open"`
	LastFailure *time.Time `json:"last_failure,omitempty"`
}

type sourceHealth struct {
	failures    int
	lastFailure time.Time
}

// Breaker tracks consecutive failures for every source in one place.
// A source whose count reaches the threshold is skipped until the
// cooldown passes; the first check after the cooldown resets the count
// optimistically, so traffic flows again and re-opening takes a fresh
// run of consecutive failures.
//
// Not-found answers must record neither success nor failure: the source
// answered correctly, the account just does not exist.
type Breaker struct {
	cfg     BreakerConfig
	mu      sync.Mutex
	sources map[string]*sourceHealth

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewBreaker creates a breaker with the given config, applying defaults
// for zero values.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &Breaker{
		cfg:     cfg,
		sources: make(map[string]*sourceHealth),
		nowFunc: time.Now,
	}
}

// RecordFailure counts a failed call against the source.
func (b *Breaker) RecordFailure(source string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.health(source)
	h.failures++
	h.lastFailure = b.nowFunc()
}

// RecordSuccess resets the source's consecutive-failure count. The
// reset is total, not a decrement: one good answer clears the slate.
func (b *Breaker) RecordSuccess(source string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.health(source).failures = 0
}

// Open reports whether calls to the source should be skipped. Once the
// cooldown has elapsed the count is reset and false is returned, so a
// still-broken source costs one probe per cooldown window rather than
// blocking forever.
func (b *Breaker) Open(source string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.sources[source]
	if !ok || h.failures < b.cfg.FailureThreshold {
		return false
	}
	if b.nowFunc().Sub(h.lastFailure) >= b.cfg.Cooldown {
		h.failures = 0
		return false
	}
	return true
}

// Snapshot returns the per-source view for the health endpoint. It
// applies the cooldown rule when computing Open but never mutates
// state, so polling a dashboard cannot reset a breaker.
func (b *Breaker) Snapshot() map[string]SourceState {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.nowFunc()
	out := make(map[string]SourceState, len(b.sources))
	for name, h := range b.sources {
		st := SourceState{Failures: h.failures}
		if !h.lastFailure.IsZero() {
			lf := h.lastFailure
			st.LastFailure = &lf
		}
		st.Open = h.failures >= b.cfg.FailureThreshold && now.Sub(h.lastFailure) < b.cfg.Cooldown
		out[name] = st
	}
	return out
}

// Reset clears all tracked state. Useful for tests and manual recovery.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources = make(map[string]*sourceHealth)
}

// health returns the tracked state for a source, creating it lazily.
// Callers must hold b.mu.
func (b *Breaker) health(source string) *sourceHealth {
	h, ok := b.sources[source]
	if !ok {
		h = &sourceHealth{}
		b.sources[source] = h
	}
	return h
}

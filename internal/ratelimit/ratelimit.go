// Package ratelimit bounds concurrency and pacing of outbound calls per
// target domain, with adaptive backoff when a domain starts rate limiting us.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DomainLimiter gates outbound calls per domain: at most maxConcurrent
// in-flight calls and at least the current delay between consecutive calls
// to the same domain. Domains never interact with each other.
type DomainLimiter struct {
	mu        sync.Mutex
	lastCall  map[string]time.Time
	delays    map[string]time.Duration // elevated delays after 429/503
	slots     map[string]chan struct{} // per-domain semaphores
	baseDelay time.Duration
	maxDelay  time.Duration
	maxConc   int
}

// NewDomainLimiter creates a limiter enforcing baseDelay between calls to the
// same domain and at most maxConcurrent in-flight calls per domain.
func NewDomainLimiter(baseDelay time.Duration, maxConcurrent int) *DomainLimiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &DomainLimiter{
		lastCall:  make(map[string]time.Time),
		delays:    make(map[string]time.Duration),
		slots:     make(map[string]chan struct{}),
		baseDelay: baseDelay,
		maxDelay:  30 * time.Second,
		maxConc:   maxConcurrent,
	}
}

// Acquire blocks until a slot is free for the domain and the pacing delay has
// elapsed. The returned release function must be called when the outbound
// call completes, success or failure.
func (l *DomainLimiter) Acquire(ctx context.Context, urlOrDomain string) (func(), error) {
	domain := Domain(urlOrDomain)
	sem := l.semaphore(domain)

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("rate limiter acquire for %s: %w", domain, ctx.Err())
	}

	release := func() { <-sem }

	if err := l.wait(ctx, domain); err != nil {
		release()
		return nil, err
	}
	return release, nil
}

// wait enforces the minimum inter-call delay for the domain. The delay is
// re-checked after every sleep: another waiter may have stamped lastCall
// while we slept, in which case we owe a fresh full gap.
func (l *DomainLimiter) wait(ctx context.Context, domain string) error {
	for {
		l.mu.Lock()
		now := time.Now()
		last, seen := l.lastCall[domain]
		delay := l.currentDelay(domain)

		if !seen || now.Sub(last) >= delay {
			l.lastCall[domain] = now
			l.mu.Unlock()
			return nil
		}

		remaining := delay - now.Sub(last)
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return fmt.Errorf("rate limiter wait for %s: %w", domain, ctx.Err())
		case <-time.After(remaining):
		}
	}
}

// OnResponse updates pacing state from an HTTP result. 429/503 double the
// domain's delay (Retry-After takes precedence, capped at maxDelay); any
// 2xx/3xx shrinks an elevated delay back toward base.
func (l *DomainLimiter) OnResponse(urlOrDomain string, statusCode int, retryAfter time.Duration) {
	domain := Domain(urlOrDomain)

	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case statusCode == 429 || statusCode == 503:
		next := l.currentDelay(domain) * 2
		if retryAfter > 0 {
			next = retryAfter
		}
		if next > l.maxDelay {
			next = l.maxDelay
		}
		l.delays[domain] = next
	case statusCode >= 200 && statusCode < 400:
		current, ok := l.delays[domain]
		if !ok {
			return
		}
		recovered := time.Duration(float64(current) * 0.9)
		if recovered <= l.baseDelay {
			delete(l.delays, domain)
		} else {
			l.delays[domain] = recovered
		}
	}
}

// currentDelay returns the effective delay for domain. Caller holds mu.
func (l *DomainLimiter) currentDelay(domain string) time.Duration {
	if d, ok := l.delays[domain]; ok {
		return d
	}
	return l.baseDelay
}

func (l *DomainLimiter) semaphore(domain string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.slots[domain]
	if !ok {
		sem = make(chan struct{}, l.maxConc)
		l.slots[domain] = sem
	}
	return sem
}

// Domain extracts the lowercased host from a URL, or returns the input
// lowercased if it is already a bare domain.
func Domain(urlOrDomain string) string {
	if strings.HasPrefix(urlOrDomain, "http://") || strings.HasPrefix(urlOrDomain, "https://") {
		if u, err := url.Parse(urlOrDomain); err == nil {
			return strings.ToLower(u.Host)
		}
	}
	return strings.ToLower(urlOrDomain)
}

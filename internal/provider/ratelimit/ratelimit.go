package ratelimit

import (
	"context"
	"sync"
	"time"

	"stockreporter/internal/model"
	"stockreporter/internal/provider"
)

// Provider gates upstream fetches through a token bucket. Query is
// passed through untouched.
type Provider struct {
	P  provider.Provider
	TB *TokenBucket
}

func (p *Provider) Name() string { return p.P.Name() }

func (p *Provider) Query(symbols []string) string { return p.P.Query(symbols) }

func (p *Provider) Fetch(ctx context.Context, symbols []string) ([]model.Quote, error) {
	if p.TB != nil {
		if err := p.TB.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return p.P.Fetch(ctx, symbols)
}

// MinInterval spaces upstream fetches at least Interval apart. Concurrent
// callers are given consecutive slots and wait for theirs, or return early
// if the context is canceled.
type MinInterval struct {
	P        provider.Provider
	Interval time.Duration

	mu   sync.Mutex
	next time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) Query(symbols []string) string { return m.P.Query(symbols) }

func (m *MinInterval) Fetch(ctx context.Context, symbols []string) ([]model.Quote, error) {
	if m.Interval > 0 {
		m.mu.Lock()
		now := time.Now()
		slot := m.next
		if slot.Before(now) {
			slot = now
		}
		m.next = slot.Add(m.Interval)
		m.mu.Unlock()

		if wait := time.Until(slot); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-t.C:
			}
		}
	}
	return m.P.Fetch(ctx, symbols)
}

package infra

import (
	"context"
	"sync"
	"time"

	"card-collection/collection/domain"

	"golang.org/x/time/rate"
)

// CallerLimiter mantém um token bucket por chamador de entrada.
//
// Chamadores com bearer e anônimos podem ter taxas distintas. Buckets sem uso
// há mais de idleTTL são descartados por Sweep (ou por Run, periodicamente).
type CallerLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	anonymous  domain.Rate
	bearer     domain.Rate
	idleTTL    time.Duration
	sweepEvery time.Duration
	now        func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// clockedLimiter consulta o bucket no relógio do CallerLimiter.
type clockedLimiter struct {
	lim *rate.Limiter
	now func() time.Time
}

func (l clockedLimiter) Allow() bool { return l.lim.AllowN(l.now(), 1) }

type CallerLimiterOption func(*CallerLimiter)

// WithBearerRate define a taxa de quem apresenta token (padrão: a mesma dos anônimos).
func WithBearerRate(r domain.Rate) CallerLimiterOption {
	return func(l *CallerLimiter) {
		if r.RPS > 0 && r.Burst > 0 {
			l.bearer = r
		}
	}
}

func WithIdleTTL(d time.Duration) CallerLimiterOption {
	return func(l *CallerLimiter) { l.idleTTL = d }
}

func WithSweepEvery(d time.Duration) CallerLimiterOption {
	return func(l *CallerLimiter) { l.sweepEvery = d }
}

func WithClock(now func() time.Time) CallerLimiterOption {
	return func(l *CallerLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

func NewCallerLimiter(anonymous domain.Rate, opts ...CallerLimiterOption) *CallerLimiter {
	l := &CallerLimiter{
		buckets:    make(map[string]*bucket),
		anonymous:  anonymous,
		bearer:     anonymous,
		idleTTL:    15 * time.Minute,
		sweepEvery: 2 * time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RateFor informa a taxa aplicada ao chamador.
func (l *CallerLimiter) RateFor(c domain.Caller) domain.Rate {
	if c.Bearer {
		return l.bearer
	}
	return l.anonymous
}

// Get implementa domain.LimiterStore.
func (l *CallerLimiter) Get(c domain.Caller) domain.Limiter {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[c.Key]
	if !ok {
		r := l.RateFor(c)
		b = &bucket{lim: rate.NewLimiter(rate.Limit(r.RPS), r.Burst)}
		l.buckets[c.Key] = b
	}
	b.lastSeen = now
	return clockedLimiter{lim: b.lim, now: l.now}
}

// Len informa quantos chamadores têm bucket em memória.
func (l *CallerLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Sweep descarta os buckets ociosos e devolve quantos saíram.
func (l *CallerLimiter) Sweep() int {
	cutoff := l.now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for k, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, k)
			removed++
		}
	}
	return removed
}

// Run chama Sweep a cada sweepEvery até o ctx encerrar. Bloqueia; rode num errgroup.
func (l *CallerLimiter) Run(ctx context.Context) error {
	if l.sweepEvery <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(l.sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			l.Sweep()
		}
	}
}

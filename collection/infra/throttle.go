package infra

import (
	"context"
	"sync"
	"time"
)

// IntervalThrottle garante um intervalo mínimo entre chamadas permitidas,
// para todos os chamadores que compartilham a instância.
//
// Cada Wait reserva o próximo horário livre sob o mutex (checagem e carimbo
// atômicos) e só então dorme, sem segurar o lock durante a espera.
type IntervalThrottle struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
	now      func() time.Time
}

type ThrottleOption func(*IntervalThrottle)

// WithThrottleClock troca o relógio (testes).
func WithThrottleClock(now func() time.Time) ThrottleOption {
	return func(t *IntervalThrottle) {
		if now != nil {
			t.now = now
		}
	}
}

// NewIntervalThrottle cria o throttle. interval <= 0 desativa a espera.
func NewIntervalThrottle(interval time.Duration, opts ...ThrottleOption) *IntervalThrottle {
	t := &IntervalThrottle{interval: interval, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *IntervalThrottle) Interval() time.Duration { return t.interval }

// Wait implementa domain.Throttle.
// Se o ctx encerrar durante a espera, a vaga reservada é perdida e o erro do ctx é retornado.
func (t *IntervalThrottle) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t == nil || t.interval <= 0 {
		return nil
	}

	wait := t.reserve()
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *IntervalThrottle) reserve() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	at := now
	if t.next.After(now) {
		at = t.next
	}
	t.next = at.Add(t.interval)
	return at.Sub(now)
}

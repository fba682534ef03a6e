package infra

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// SlotPool limita requisições simultâneas com um semáforo ponderado (peso 1 por requisição).
type SlotPool struct {
	sem *semaphore.Weighted
}

func NewSlotPool(max int) *SlotPool {
	if max < 1 {
		max = 1
	}
	return &SlotPool{sem: semaphore.NewWeighted(int64(max))}
}

// Acquire implementa domain.SlotPool. Chamar o release mais de uma vez não libera vagas extras.
func (p *SlotPool) Acquire(ctx context.Context) (func(), bool) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(func() { p.sem.Release(1) }) }, true
}

package infra

import (
	"context"
	"sync"

	"card-collection/collection/domain"
)

// Counters agrupa os resultados de busca.
type Counters struct {
	Found    int64
	NotFound int64
	Errors   int64
}

func (c *Counters) add(o domain.LookupOutcome) {
	switch o {
	case domain.OutcomeFound:
		c.Found++
	case domain.OutcomeNotFound:
		c.NotFound++
	default:
		c.Errors++
	}
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento; não expira nada.
type MemoryStatsStore struct {
	mu     sync.Mutex
	total  Counters
	byMode map[domain.MatchMode]Counters
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{byMode: make(map[domain.MatchMode]Counters)}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.LookupEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Outcome)
	c := s.byMode[ev.Mode]
	c.add(ev.Outcome)
	s.byMode[ev.Mode] = c
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByMode() map[domain.MatchMode]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.MatchMode]Counters, len(s.byMode))
	for k, v := range s.byMode {
		out[k] = v
	}
	return out
}

package infra

import (
	"context"
	"sync"

	"card-collection/collection/domain"
)

// MemoryStore guarda as coleções em memória, particionadas pelo token bruto.
// Útil para testes e desenvolvimento; nada sobrevive ao processo.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string][]domain.Card
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]domain.Card)}
}

func (s *MemoryStore) Load(ctx context.Context, id domain.Identity) ([]domain.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.collections[id.Token]
	out := make([]domain.Card, len(cur))
	copy(out, cur)
	return out, nil
}

func (s *MemoryStore) Replace(ctx context.Context, id domain.Identity, cards []domain.Card) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[id.Token] = dedupe(cards)
	return nil
}

func (s *MemoryStore) Append(ctx context.Context, id domain.Identity, card domain.Card) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.collections[id.Token]
	if domain.ContainsName(cur, card.Name) {
		return nil
	}
	s.collections[id.Token] = append(cur, card)
	return nil
}

func (s *MemoryStore) RemoveByName(ctx context.Context, id domain.Identity, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rest, removed := domain.WithoutName(s.collections[id.Token], name)
	if removed {
		s.collections[id.Token] = rest
	}
	return removed, nil
}

// dedupe mantém a primeira ocorrência de cada nome, na ordem.
func dedupe(cards []domain.Card) []domain.Card {
	seen := make(map[string]struct{}, len(cards))
	out := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if _, ok := seen[c.Key()]; ok {
			continue
		}
		seen[c.Key()] = struct{}{}
		out = append(out, c)
	}
	return out
}

package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"card-collection/collection/domain"
)

func cardNamed(name string) domain.Card {
	raw, _ := json.Marshal(map[string]any{"name": name, "object": "card"})
	c, err := domain.ParseCard(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// fakeSource resolve nomes pelo mapa (chave em minúsculas). Nomes ausentes viram ErrNotFound.
type fakeSource struct {
	mu       sync.Mutex
	known    map[string]string
	failures map[string]error
	calls    []string
}

func newFakeSource(names ...string) *fakeSource {
	f := &fakeSource{known: make(map[string]string), failures: make(map[string]error)}
	for _, n := range names {
		f.known[strings.ToLower(n)] = n
	}
	return f
}

func (f *fakeSource) FetchNamed(_ context.Context, mode domain.MatchMode, name string) (domain.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, string(mode)+":"+name)
	if err, ok := f.failures[strings.ToLower(name)]; ok {
		return domain.Card{}, err
	}
	canonical, ok := f.known[strings.ToLower(name)]
	if !ok {
		return domain.Card{}, domain.ErrNotFound
	}
	return cardNamed(canonical), nil
}

type countingThrottle struct {
	waits int
	err   error
}

func (t *countingThrottle) Wait(context.Context) error {
	t.waits++
	return t.err
}

type recordingStats struct {
	events []domain.LookupEvent
	err    error
}

func (s *recordingStats) Record(_ context.Context, ev domain.LookupEvent) error {
	s.events = append(s.events, ev)
	return s.err
}

// sliceStore é um domain.Store mínimo para os testes da camada application.
type sliceStore struct {
	cards     []domain.Card
	loadErr   error
	appendErr error
	loads     int
}

func (s *sliceStore) Load(context.Context, domain.Identity) ([]domain.Card, error) {
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make([]domain.Card, len(s.cards))
	copy(out, s.cards)
	return out, nil
}

func (s *sliceStore) Replace(_ context.Context, _ domain.Identity, cards []domain.Card) error {
	s.cards = append([]domain.Card(nil), cards...)
	return nil
}

func (s *sliceStore) Append(_ context.Context, _ domain.Identity, card domain.Card) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	if domain.ContainsName(s.cards, card.Name) {
		return nil
	}
	s.cards = append(s.cards, card)
	return nil
}

func (s *sliceStore) RemoveByName(_ context.Context, _ domain.Identity, name string) (bool, error) {
	var removed bool
	s.cards, removed = domain.WithoutName(s.cards, name)
	return removed, nil
}

var errBoom = errors.New("boom")

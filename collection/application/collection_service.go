package application

import (
	"context"
	"fmt"
	"log/slog"

	"card-collection/collection/domain"
)

// CardLookup é o que o CollectionService precisa do LookupService.
type CardLookup interface {
	Fuzzy(ctx context.Context, name string) (domain.Card, error)
}

// AddResult é o resultado de uma adição em lote.
type AddResult struct {
	Added             []string
	Errors            []string
	Skipped           []string
	TotalInCollection int
}

// CollectionService mantém a coleção de uma identidade sobre um domain.Store.
type CollectionService struct {
	Store  domain.Store
	Lookup CardLookup
	Logger *slog.Logger
}

// List retorna a coleção da identidade.
func (s CollectionService) List(ctx context.Context, id domain.Identity) ([]domain.Card, error) {
	cards, err := s.Store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}
	return cards, nil
}

// Add busca e persiste cada nome que ainda não está na coleção.
//
// Skipped é exatamente a interseção (case-insensitive) entre os nomes pedidos e o
// snapshot carregado no início da chamada; esses nomes não vão ao upstream. O resto
// passa pela busca fuzzy e, com sucesso, por Append, que não duplica cartas já
// presentes. Ao final a coleção é recarregada para o total.
func (s CollectionService) Add(ctx context.Context, id domain.Identity, names []string) (AddResult, error) {
	snapshot, err := s.Store.Load(ctx, id)
	if err != nil {
		return AddResult{}, fmt.Errorf("load collection: %w", err)
	}

	held := make(map[string]struct{}, len(snapshot))
	for _, c := range snapshot {
		held[c.Key()] = struct{}{}
	}

	res := AddResult{
		Added:   make([]string, 0, len(names)),
		Errors:  make([]string, 0),
		Skipped: make([]string, 0),
	}
	for _, name := range names {
		if _, ok := held[domain.NameKey(name)]; ok {
			res.Skipped = append(res.Skipped, name)
			continue
		}

		card, err := s.Lookup.Fuzzy(ctx, name)
		if err != nil {
			s.debug(ctx, "card lookup failed", "name", name, "error", err)
			res.Errors = append(res.Errors, name)
			continue
		}
		if err := s.Store.Append(ctx, id, card); err != nil {
			return AddResult{}, fmt.Errorf("append %q: %w", card.Name, err)
		}
		res.Added = append(res.Added, card.Name)
	}

	current, err := s.Store.Load(ctx, id)
	if err != nil {
		return AddResult{}, fmt.Errorf("reload collection: %w", err)
	}
	res.TotalInCollection = len(current)
	return res, nil
}

// Remove apaga a carta com o nome e retorna o novo total.
// Retorna domain.ErrNotFound quando a carta não está na coleção.
func (s CollectionService) Remove(ctx context.Context, id domain.Identity, name string) (int, error) {
	removed, err := s.Store.RemoveByName(ctx, id, name)
	if err != nil {
		return 0, fmt.Errorf("remove %q: %w", name, err)
	}
	if !removed {
		return 0, domain.ErrNotFound
	}
	current, err := s.Store.Load(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("reload collection: %w", err)
	}
	return len(current), nil
}

// Clear esvazia a coleção. Idempotente.
func (s CollectionService) Clear(ctx context.Context, id domain.Identity) error {
	if err := s.Store.Replace(ctx, id, []domain.Card{}); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}
	return nil
}

func (s CollectionService) debug(ctx context.Context, msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.DebugContext(ctx, msg, args...)
	}
}

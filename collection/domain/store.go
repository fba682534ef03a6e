package domain

import "context"

// Store é o contrato de persistência da coleção.
//
// As implementações (arquivo JSON, PostgreSQL, SQLite, memória) são intercambiáveis;
// quem chama não deve assumir qual está ativa.
type Store interface {
	// Load retorna a coleção da identidade. Nunca retorna nil sem erro.
	Load(ctx context.Context, id Identity) ([]Card, error)
	// Replace troca atomicamente todo o conjunto (limpa e grava; não faz merge).
	Replace(ctx context.Context, id Identity, cards []Card) error
	// Append adiciona uma carta sem regravar o conjunto. Nome repetido é no-op.
	Append(ctx context.Context, id Identity, card Card) error
	// RemoveByName apaga a carta com o nome (case-insensitive) e informa se existia.
	RemoveByName(ctx context.Context, id Identity, name string) (bool, error)
}

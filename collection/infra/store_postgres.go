package infra

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"card-collection/collection/domain"
	"card-collection/collection/infra/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore guarda as coleções no PostgreSQL, uma linha por carta, marcada com o dono.
//
// A coluna card é json (não jsonb) para devolver o texto recebido da Scryfall sem
// reordenar chaves; name_key vem de domain.NameKey, igual ao SQLite.
//
// A identidade é obrigatória. Cada operação roda numa transação que define
// app.owner_id localmente; a política de row-level security da tabela só expõe
// as linhas desse dono, e as queries também filtram por ele.
type PostgresStore struct {
	pool *pgxpool.Pool
	auth domain.Authenticator
}

// OpenPostgres conecta, verifica a conexão e aplica o schema idempotente.
func OpenPostgres(ctx context.Context, dsn string, auth domain.Authenticator) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database url is required")
	}
	if auth == nil {
		return nil, errors.New("authenticator is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := applyPostgresSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool, auth: auth}, nil
}

func (s *PostgresStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func applyPostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	entries, err := fs.ReadDir(migrations.Postgres, "postgres")
	if err != nil {
		return fmt.Errorf("read postgres schema: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		ddl, err := fs.ReadFile(migrations.Postgres, "postgres/"+name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(ddl)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}

// withOwner resolve o dono e roda fn numa transação com app.owner_id definido.
func (s *PostgresStore) withOwner(ctx context.Context, id domain.Identity, fn func(tx pgx.Tx, owner string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.pool == nil {
		return errors.New("storage is not configured")
	}
	if id.Anonymous() {
		return fmt.Errorf("%w: bearer token required", domain.ErrUnauthenticated)
	}
	owner, err := s.auth.Subject(id.Token)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT set_config('app.owner_id', $1, true)`, owner); err != nil {
			return fmt.Errorf("set owner: %w", err)
		}
		return fn(tx, owner)
	})
}

func (s *PostgresStore) Load(ctx context.Context, id domain.Identity) ([]domain.Card, error) {
	var cards []domain.Card
	err := s.withOwner(ctx, id, func(tx pgx.Tx, owner string) error {
		rows, err := tx.Query(ctx,
			`SELECT card FROM collection_cards WHERE owner_id = $1 ORDER BY id`, owner)
		if err != nil {
			return fmt.Errorf("query collection: %w", err)
		}
		cards, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Card, error) {
			var raw []byte
			if err := row.Scan(&raw); err != nil {
				return domain.Card{}, err
			}
			return domain.ParseCard(raw)
		})
		if err != nil {
			return fmt.Errorf("read collection: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	return cards, nil
}

// Replace apaga as linhas do dono e regrava o conjunto com COPY, na mesma transação.
func (s *PostgresStore) Replace(ctx context.Context, id domain.Identity, cards []domain.Card) error {
	return s.withOwner(ctx, id, func(tx pgx.Tx, owner string) error {
		if _, err := tx.Exec(ctx, `DELETE FROM collection_cards WHERE owner_id = $1`, owner); err != nil {
			return fmt.Errorf("clear collection: %w", err)
		}
		unique := dedupe(cards)
		if len(unique) == 0 {
			return nil
		}
		rows := make([][]any, 0, len(unique))
		for _, c := range unique {
			rows = append(rows, []any{owner, c.Name, c.Key(), string(c.Raw())})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"collection_cards"},
			[]string{"owner_id", "name", "name_key", "card"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("write collection: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Append(ctx context.Context, id domain.Identity, card domain.Card) error {
	return s.withOwner(ctx, id, func(tx pgx.Tx, owner string) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO collection_cards (owner_id, name, name_key, card)
			 VALUES ($1, $2, $3, $4::json)
			 ON CONFLICT (owner_id, name_key) DO NOTHING`,
			owner, card.Name, card.Key(), string(card.Raw()))
		if err != nil {
			return fmt.Errorf("insert card %q: %w", card.Name, err)
		}
		return nil
	})
}

func (s *PostgresStore) RemoveByName(ctx context.Context, id domain.Identity, name string) (bool, error) {
	var removed bool
	err := s.withOwner(ctx, id, func(tx pgx.Tx, owner string) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM collection_cards WHERE owner_id = $1 AND name_key = $2`, owner, domain.NameKey(name))
		if err != nil {
			return fmt.Errorf("remove card: %w", err)
		}
		removed = tag.RowsAffected() > 0
		return nil
	})
	return removed, err
}

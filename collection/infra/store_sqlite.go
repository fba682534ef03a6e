package infra

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"card-collection/collection/domain"
	"card-collection/collection/infra/migrations"

	_ "modernc.org/sqlite"
)

// SQLiteStore guarda as coleções num arquivo SQLite local, uma linha por carta,
// particionadas por dono.
//
// A identidade é opcional: chamadores anônimos (ou sem Authenticator configurado)
// compartilham a partição "". Um token apresentado precisa ser válido.
type SQLiteStore struct {
	db   *sql.DB
	auth domain.Authenticator
}

type SQLiteOption func(*SQLiteStore)

func WithSQLiteAuthenticator(a domain.Authenticator) SQLiteOption {
	return func(s *SQLiteStore) { s.auth = a }
}

// OpenSQLite abre o banco e aplica as migrations embutidas.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applySQLiteMigrations(ctx, db, migrations.SQLite, "sqlite"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	s := &SQLiteStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) owner(ctx context.Context, id domain.Identity) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == nil || s.db == nil {
		return "", fmt.Errorf("storage is not configured")
	}
	if id.Anonymous() || s.auth == nil {
		return "", nil
	}
	return s.auth.Subject(id.Token)
}

func (s *SQLiteStore) Load(ctx context.Context, id domain.Identity) ([]domain.Card, error) {
	owner, err := s.owner(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT card FROM collection_cards WHERE owner_id = ? ORDER BY id`, owner)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}
	defer rows.Close()

	cards := make([]domain.Card, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		card, err := domain.ParseCard([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("decode stored card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collection: %w", err)
	}
	return cards, nil
}

func (s *SQLiteStore) Replace(ctx context.Context, id domain.Identity, cards []domain.Card) error {
	owner, err := s.owner(ctx, id)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM collection_cards WHERE owner_id = ?`, owner); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}
	for _, c := range dedupe(cards) {
		if err := insertSQLiteCard(ctx, tx, owner, c); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, id domain.Identity, card domain.Card) error {
	owner, err := s.owner(ctx, id)
	if err != nil {
		return err
	}
	return insertSQLiteCard(ctx, s.db, owner, card)
}

func (s *SQLiteStore) RemoveByName(ctx context.Context, id domain.Identity, name string) (bool, error) {
	owner, err := s.owner(ctx, id)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM collection_cards WHERE owner_id = ? AND name_key = ?`, owner, domain.NameKey(name))
	if err != nil {
		return false, fmt.Errorf("remove card: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove card: %w", err)
	}
	return n > 0, nil
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSQLiteCard(ctx context.Context, db sqlExecer, owner string, card domain.Card) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO collection_cards (owner_id, name, name_key, card, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		owner, card.Name, card.Key(), string(card.Raw()), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert card %q: %w", card.Name, err)
	}
	return nil
}

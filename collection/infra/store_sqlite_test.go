package infra

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"card-collection/collection/domain"

	"github.com/golang-jwt/jwt/v5"
)

func openTestSQLite(t *testing.T, opts ...SQLiteOption) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "cards.db"), opts...)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) domain.Store { return openTestSQLite(t) }, domain.Identity{})
}

func TestSQLiteStore_PartitionsBySubject(t *testing.T) {
	ctx := context.Background()
	auth, _ := NewJWTAuthenticator("s3cret")
	s := openTestSQLite(t, WithSQLiteAuthenticator(auth))

	alice := domain.Identity{Token: signToken(t, "s3cret", jwt.RegisteredClaims{Subject: "alice"})}
	bob := domain.Identity{Token: signToken(t, "s3cret", jwt.RegisteredClaims{Subject: "bob"})}

	if err := s.Append(ctx, alice, testCard(t, "Lightning Bolt")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, domain.Identity{}, testCard(t, "Counterspell")); err != nil {
		t.Fatalf("append anonymous: %v", err)
	}

	for name, tc := range map[string]struct {
		id   domain.Identity
		want int
	}{
		"alice":     {alice, 1},
		"bob":       {bob, 0},
		"anonymous": {domain.Identity{}, 1},
	} {
		cards, err := s.Load(ctx, tc.id)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		if len(cards) != tc.want {
			t.Fatalf("%s: expected %d cards, got %v", name, tc.want, cardNames(cards))
		}
	}

	removed, err := s.RemoveByName(ctx, bob, "Lightning Bolt")
	if err != nil || removed {
		t.Fatalf("expected bob unable to remove alice's card, removed=%v err=%v", removed, err)
	}
}

func TestSQLiteStore_InvalidTokenIsUnauthenticated(t *testing.T) {
	auth, _ := NewJWTAuthenticator("s3cret")
	s := openTestSQLite(t, WithSQLiteAuthenticator(auth))

	_, err := s.Load(context.Background(), domain.Identity{Token: "garbage"})
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSQLiteStore_ReopenKeepsDataAndSkipsAppliedMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cards.db")

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = s.Append(ctx, domain.Identity{}, testCard(t, "Lightning Bolt"))
	_ = s.Close()

	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	cards, err := s.Load(ctx, domain.Identity{})
	if err != nil || len(cards) != 1 {
		t.Fatalf("expected persisted card, got %v err=%v", cardNames(cards), err)
	}
}

func TestUpSection(t *testing.T) {
	got := upSection("-- +migrate Up\nCREATE TABLE a(x);\n-- +migrate Down\nDROP TABLE a;")
	if got != "\nCREATE TABLE a(x);\n" {
		t.Fatalf("unexpected up section: %q", got)
	}
	if upSection("SELECT 1;") != "SELECT 1;" {
		t.Fatalf("expected whole content without markers")
	}
}

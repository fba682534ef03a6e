package infra

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"card-collection/collection/domain"
)

func TestFileStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) domain.Store {
		s, err := NewFileStore(filepath.Join(t.TempDir(), "collection.json"))
		if err != nil {
			t.Fatalf("new file store: %v", err)
		}
		return s
	}, domain.Identity{})
}

func TestFileStore_PrettyPrintedArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "collection.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := s.Append(context.Background(), domain.Identity{}, testCard(t, "Lightning Bolt")); err != nil {
		t.Fatalf("append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "[\n  {\n    \"") {
		t.Fatalf("expected 2-space indented array, got %q", text)
	}
	if !strings.Contains(text, `"name": "Lightning Bolt"`) {
		t.Fatalf("expected card document in file, got %q", text)
	}
}

func TestFileStore_IgnoresIdentity(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(filepath.Join(t.TempDir(), "collection.json"))
	_ = s.Append(ctx, domain.Identity{Token: "a"}, testCard(t, "Lightning Bolt"))

	cards, err := s.Load(ctx, domain.Identity{Token: "b"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("expected shared collection, got %v", cardNames(cards))
	}
}

func TestFileStore_CorruptFileLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, _ := NewFileStore(path)

	cards, err := s.Load(context.Background(), domain.Identity{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cards) != 0 {
		t.Fatalf("expected empty collection, got %v", cardNames(cards))
	}
}

func TestNewFileStore_RequiresPath(t *testing.T) {
	if _, err := NewFileStore("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

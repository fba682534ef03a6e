package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"card-collection/collection/domain"
)

// FileStore guarda uma única coleção compartilhada num documento JSON em disco
// (array indentado com 2 espaços, cada elemento é o documento do upstream).
//
// Não há particionamento por identidade: todo chamador vê a mesma coleção.
// O mutex serializa load-modify-save dentro do processo; entre processos
// diferentes a última escrita vence.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("collection file path is required")
	}
	return &FileStore{path: filepath.Clean(path)}, nil
}

func (s *FileStore) Path() string { return s.path }

// Load implementa domain.Store. Arquivo ausente ou corrompido vira coleção vazia.
func (s *FileStore) Load(ctx context.Context, _ domain.Identity) ([]domain.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(), nil
}

func (s *FileStore) Replace(ctx context.Context, _ domain.Identity, cards []domain.Card) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(dedupe(cards))
}

func (s *FileStore) Append(ctx context.Context, _ domain.Identity, card domain.Card) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.read()
	if domain.ContainsName(cur, card.Name) {
		return nil
	}
	return s.write(append(cur, card))
}

func (s *FileStore) RemoveByName(ctx context.Context, _ domain.Identity, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rest, removed := domain.WithoutName(s.read(), name)
	if !removed {
		return false, nil
	}
	return true, s.write(rest)
}

func (s *FileStore) read() []domain.Card {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []domain.Card{}
	}
	var cards []domain.Card
	if err := json.Unmarshal(data, &cards); err != nil || cards == nil {
		return []domain.Card{}
	}
	return cards
}

// write grava num arquivo temporário no mesmo diretório e renomeia por cima do alvo.
func (s *FileStore) write(cards []domain.Card) error {
	if cards == nil {
		cards = []domain.Card{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cards); err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("create collection dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(bytes.TrimRight(buf.Bytes(), "\n")); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write collection: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close collection: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace collection file: %w", err)
	}
	return nil
}

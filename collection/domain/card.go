package domain

import (
	"encoding/json"
	"errors"
	"strings"
)

// Card é um registro opaco vindo da API externa.
//
// O gateway só lê o campo "name"; o restante do documento é preservado byte a byte
// e devolvido aos clientes exatamente como o upstream retornou.
type Card struct {
	Name string
	raw  json.RawMessage
}

var errCardWithoutName = errors.New("card record has no name")

// ParseCard valida que o documento é um objeto JSON com "name" string não vazio.
func ParseCard(data []byte) (Card, error) {
	var head struct {
		Name *string `json:"name"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Card{}, err
	}
	if head.Name == nil || strings.TrimSpace(*head.Name) == "" {
		return Card{}, errCardWithoutName
	}
	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	return Card{Name: *head.Name, raw: raw}, nil
}

// Raw devolve o documento original.
func (c Card) Raw() json.RawMessage {
	if len(c.raw) == 0 {
		// cartas montadas à mão (testes, fixtures) viram {"name": ...}
		b, _ := json.Marshal(map[string]string{"name": c.Name})
		return b
	}
	return c.raw
}

// Key é a chave de unicidade da carta dentro de uma coleção.
func (c Card) Key() string { return NameKey(c.Name) }

func (c Card) MarshalJSON() ([]byte, error) {
	return c.Raw(), nil
}

func (c *Card) UnmarshalJSON(data []byte) error {
	parsed, err := ParseCard(data)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// NameKey normaliza um nome para comparação case-insensitive.
func NameKey(name string) string {
	return strings.ToLower(name)
}

// ContainsName informa se algum card da sequência tem o nome (case-insensitive).
func ContainsName(cards []Card, name string) bool {
	key := NameKey(name)
	for _, c := range cards {
		if c.Key() == key {
			return true
		}
	}
	return false
}

// WithoutName devolve uma nova sequência sem as cartas com o nome, e se algo foi removido.
func WithoutName(cards []Card, name string) ([]Card, bool) {
	key := NameKey(name)
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		if c.Key() == key {
			continue
		}
		out = append(out, c)
	}
	return out, len(out) != len(cards)
}

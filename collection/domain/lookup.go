package domain

import (
	"context"
	"time"
)

// MatchMode é o tipo de busca por nome delegada ao upstream.
type MatchMode string

const (
	MatchExact MatchMode = "exact"
	MatchFuzzy MatchMode = "fuzzy"
)

// Throttle espaça as chamadas de saída para a API externa.
//
// Wait só retorna depois que o intervalo mínimo desde a última chamada permitida
// passou, considerando todos os chamadores do processo. O único erro é o ctx encerrar.
type Throttle interface {
	Wait(ctx context.Context) error
}

// CardSource busca uma carta por nome no upstream.
// Retorna ErrNotFound para status não-2xx e ErrUpstream para falhas de transporte.
type CardSource interface {
	FetchNamed(ctx context.Context, mode MatchMode, name string) (Card, error)
}

// LookupEvent registra o resultado de uma busca no upstream.
//
// Cuidado com cardinalidade: Name só deve ser usado por stores que limitam chaves.
type LookupEvent struct {
	Mode    MatchMode
	Name    string
	Outcome LookupOutcome
	At      time.Time
}

type LookupOutcome string

const (
	OutcomeFound    LookupOutcome = "found"
	OutcomeNotFound LookupOutcome = "not_found"
	OutcomeError    LookupOutcome = "error"
)

// StatsStore persiste eventos de busca. É best-effort: erro nunca derruba a busca.
type StatsStore interface {
	Record(ctx context.Context, ev LookupEvent) error
}

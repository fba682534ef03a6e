package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"card-collection/collection/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("card-collection/collection/application")

// LookupService concentra as buscas no upstream.
//
// Toda chamada passa pelo Throttle antes de sair. Stats é best-effort.
type LookupService struct {
	Source   domain.CardSource
	Throttle domain.Throttle
	Stats    domain.StatsStore
	Logger   *slog.Logger
	Now      func() time.Time
}

// Exact busca a carta pelo nome exato.
func (s LookupService) Exact(ctx context.Context, name string) (domain.Card, error) {
	return s.lookup(ctx, domain.MatchExact, name)
}

// Fuzzy busca a carta deixando o upstream tolerar pequenos erros de grafia.
func (s LookupService) Fuzzy(ctx context.Context, name string) (domain.Card, error) {
	return s.lookup(ctx, domain.MatchFuzzy, name)
}

// Batch chama Fuzzy para cada nome, em sequência (o throttle serializa de qualquer jeito).
// Uma falha coloca o nome em failures e não interrompe o lote.
func (s LookupService) Batch(ctx context.Context, names []string) ([]domain.Card, []string) {
	successes := make([]domain.Card, 0, len(names))
	failures := make([]string, 0)
	for _, name := range names {
		card, err := s.Fuzzy(ctx, name)
		if err != nil {
			failures = append(failures, name)
			continue
		}
		successes = append(successes, card)
	}
	return successes, failures
}

func (s LookupService) lookup(ctx context.Context, mode domain.MatchMode, name string) (domain.Card, error) {
	ctx, span := tracer.Start(ctx, "cards.lookup",
		trace.WithAttributes(
			attribute.String("card.match", string(mode)),
			attribute.String("card.name", name),
		))
	defer span.End()

	card, err := s.fetch(ctx, mode, name)
	s.record(ctx, mode, name, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Card{}, err
	}
	span.SetAttributes(attribute.String("card.resolved", card.Name))
	return card, nil
}

func (s LookupService) fetch(ctx context.Context, mode domain.MatchMode, name string) (domain.Card, error) {
	if s.Source == nil {
		return domain.Card{}, fmt.Errorf("%w: card source is not configured", domain.ErrUpstream)
	}
	if s.Throttle != nil {
		if err := s.Throttle.Wait(ctx); err != nil {
			return domain.Card{}, fmt.Errorf("%w: throttle: %v", domain.ErrUpstream, err)
		}
	}
	return s.Source.FetchNamed(ctx, mode, name)
}

func (s LookupService) record(ctx context.Context, mode domain.MatchMode, name string, err error) {
	if s.Stats == nil {
		return
	}
	outcome := domain.OutcomeFound
	switch {
	case errors.Is(err, domain.ErrNotFound):
		outcome = domain.OutcomeNotFound
	case err != nil:
		outcome = domain.OutcomeError
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ev := domain.LookupEvent{Mode: mode, Name: name, Outcome: outcome, At: now()}
	if recErr := s.Stats.Record(ctx, ev); recErr != nil && s.Logger != nil {
		s.Logger.WarnContext(ctx, "failed to record lookup stats",
			"mode", string(mode),
			"error", recErr,
		)
	}
}

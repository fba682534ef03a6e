package infra

import (
	"context"
	"errors"
	"testing"

	"card-collection/collection/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMemoryStatsStore_CountsByMode(t *testing.T) {
	s := NewMemoryStatsStore()
	ctx := context.Background()

	_ = s.Record(ctx, domain.LookupEvent{Mode: domain.MatchExact, Outcome: domain.OutcomeFound})
	_ = s.Record(ctx, domain.LookupEvent{Mode: domain.MatchFuzzy, Outcome: domain.OutcomeNotFound})
	_ = s.Record(ctx, domain.LookupEvent{Mode: domain.MatchFuzzy, Outcome: domain.OutcomeError})

	total := s.Total()
	if total != (Counters{Found: 1, NotFound: 1, Errors: 1}) {
		t.Fatalf("unexpected total: %+v", total)
	}
	byMode := s.ByMode()
	if byMode[domain.MatchFuzzy] != (Counters{NotFound: 1, Errors: 1}) {
		t.Fatalf("unexpected fuzzy counters: %+v", byMode[domain.MatchFuzzy])
	}
}

func TestPromStats_IncrementsLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPromStats(reg)
	if err != nil {
		t.Fatalf("new prom stats: %v", err)
	}
	_ = p.Record(context.Background(), domain.LookupEvent{Mode: domain.MatchExact, Outcome: domain.OutcomeFound})
	_ = p.Record(context.Background(), domain.LookupEvent{Mode: domain.MatchExact, Outcome: domain.OutcomeFound})

	if got := testutil.ToFloat64(p.lookups.WithLabelValues("exact", "found")); got != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
	if _, err := NewPromStats(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

type failingStats struct{ err error }

func (f failingStats) Record(context.Context, domain.LookupEvent) error { return f.err }

func TestMultiStats_FansOutAndJoinsErrors(t *testing.T) {
	mem := NewMemoryStatsStore()
	boom := errors.New("redis down")
	m := MultiStats{mem, nil, failingStats{err: boom}}

	err := m.Record(context.Background(), domain.LookupEvent{Mode: domain.MatchFuzzy, Outcome: domain.OutcomeFound})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if mem.Total().Found != 1 {
		t.Fatalf("expected memory store to still record")
	}
}

func TestRedisStatsStore_NilClientIsNoop(t *testing.T) {
	var s *RedisStatsStore
	if err := s.Record(context.Background(), domain.LookupEvent{}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := NewRedisStatsStore(nil).Record(context.Background(), domain.LookupEvent{}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

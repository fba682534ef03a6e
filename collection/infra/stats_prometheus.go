package infra

import (
	"context"

	"card-collection/collection/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PromStats expõe os resultados de busca como contador Prometheus.
type PromStats struct {
	lookups *prometheus.CounterVec
}

// NewPromStats cria e registra o contador em reg.
func NewPromStats(reg prometheus.Registerer) (*PromStats, error) {
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cards_upstream_lookups_total",
		Help: "Total number of card lookups sent upstream, by match mode and outcome",
	}, []string{"mode", "outcome"})
	if err := reg.Register(lookups); err != nil {
		return nil, err
	}
	return &PromStats{lookups: lookups}, nil
}

func (p *PromStats) Record(_ context.Context, ev domain.LookupEvent) error {
	p.lookups.WithLabelValues(string(ev.Mode), string(ev.Outcome)).Inc()
	return nil
}

package collection

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions reúne as dependências do roteador.
type RouterOptions struct {
	Lookup     Lookup
	Collection Collection
	Logger     *slog.Logger

	// Landing é a página servida em GET /. nil = 404.
	Landing http.Handler

	// Metrics e Gatherer ligam o histograma HTTP e o /metrics. Ambos opcionais.
	Metrics  *Metrics
	Gatherer prometheus.Gatherer

	RateLimit   RateLimitOptions
	Concurrency ConcurrencyOptions
}

// NewRouter monta o chi.Router com middlewares e rotas.
//
// Ordem: request id -> recover -> log -> CORS -> métricas -> rate limit -> concorrência -> identidade.
// /healthz e /metrics ficam fora do rate limit.
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recovery(logger))
	r.Use(Logger(logger))
	r.Use(CORS)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(opts.RateLimit))
		r.Use(Concurrency(opts.Concurrency))
		r.Use(Identity)

		if opts.Landing != nil {
			r.Method(http.MethodGet, "/", opts.Landing)
		}
		NewHandler(opts.Lookup, opts.Collection, logger).Register(r)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

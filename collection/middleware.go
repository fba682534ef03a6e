package collection

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"card-collection/collection/domain"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type requestIDKey struct{}

// RequestIDFrom devolve o id da requisição (vazio fora de um handler).
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID reaproveita X-Request-ID do cliente ou gera um UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// Logger registra uma linha por requisição.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "request completed",
				"request_id", RequestIDFrom(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

// Recovery transforma panic em 500 com corpo JSON.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.ErrorContext(r.Context(), "panic recovered",
					"request_id", RequestIDFrom(r.Context()),
					"panic", rec,
				)
				writeErrorMessage(w, http.StatusInternalServerError, "internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORS libera qualquer origem, como o frontend estático espera.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Metrics guarda os coletores HTTP.
type Metrics struct {
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cards_http_request_duration_seconds",
		Help:    "HTTP request latency by method, route pattern and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	if err := reg.Register(duration); err != nil {
		return nil, err
	}
	return &Metrics{duration: duration}, nil
}

// Middleware observa a latência usando o padrão de rota do chi (evita cardinalidade por nome de carta).
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.duration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

// RateLimitOptions configura o limite por chamador na entrada.
type RateLimitOptions struct {
	Store              domain.LimiterStore
	TrustXForwardedFor bool
	RetryAfter         time.Duration
	// AddHeaders expõe X-RateLimit-RPS e X-RateLimit-Burst do chamador quando o store os conhece.
	// A chave não é exposta.
	AddHeaders bool
}

type rateInfo interface {
	RateFor(c domain.Caller) domain.Rate
}

// CallerFrom identifica o chamador: hash do token bearer, senão IP (XFF opcional), senão RemoteAddr.
func CallerFrom(r *http.Request, trustXFF bool) domain.Caller {
	if tok := BearerToken(r); tok != "" {
		sum := sha256.Sum256([]byte(tok))
		return domain.Caller{Key: "token:" + hex.EncodeToString(sum[:]), Bearer: true}
	}
	return domain.Caller{Key: clientIP(r, trustXFF)}
}

func clientIP(r *http.Request, trustXFF bool) string {
	if trustXFF {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
				return "ip:" + ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return "ip:" + host
	}
	if r.RemoteAddr != "" {
		return "ip:" + r.RemoteAddr
	}
	return "unknown"
}

// RateLimit responde 429 com Retry-After quando o bucket do chamador está vazio.
func RateLimit(opts RateLimitOptions) func(http.Handler) http.Handler {
	if opts.Store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = time.Second
	}
	retryAfter := strconv.Itoa(int(opts.RetryAfter.Seconds()))
	info, hasInfo := opts.Store.(rateInfo)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := CallerFrom(r, opts.TrustXForwardedFor)
			if opts.AddHeaders && hasInfo {
				rt := info.RateFor(caller)
				w.Header().Set("X-RateLimit-RPS", strconv.FormatFloat(rt.RPS, 'f', -1, 64))
				w.Header().Set("X-RateLimit-Burst", strconv.Itoa(rt.Burst))
			}
			lim := opts.Store.Get(caller)
			if lim != nil && !lim.Allow() {
				w.Header().Set("Retry-After", retryAfter)
				writeErrorMessage(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ConcurrencyOptions limita requisições simultâneas.
type ConcurrencyOptions struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Concurrency responde 503 quando não há vaga dentro do AcquireTimeout
// (0 = espera até o cliente desistir).
func Concurrency(opts ConcurrencyOptions) func(http.Handler) http.Handler {
	if opts.Pool == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if opts.AcquireTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.AcquireTimeout)
				defer cancel()
			}
			release, ok := opts.Pool.Acquire(ctx)
			if !ok {
				writeErrorMessage(w, http.StatusServiceUnavailable, "server busy")
				return
			}
			defer release()
			next.ServeHTTP(w, r)
		})
	}
}

package collection

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"card-collection/collection/application"
	"card-collection/collection/domain"

	"github.com/go-chi/chi/v5"
)

// Lookup é a parte do LookupService usada pelos handlers.
type Lookup interface {
	Exact(ctx context.Context, name string) (domain.Card, error)
	Batch(ctx context.Context, names []string) ([]domain.Card, []string)
}

// Collection é a parte do CollectionService usada pelos handlers.
type Collection interface {
	List(ctx context.Context, id domain.Identity) ([]domain.Card, error)
	Add(ctx context.Context, id domain.Identity, names []string) (application.AddResult, error)
	Remove(ctx context.Context, id domain.Identity, name string) (int, error)
	Clear(ctx context.Context, id domain.Identity) error
}

// Handler expõe as rotas /api.
type Handler struct {
	lookup     Lookup
	collection Collection
	logger     *slog.Logger
}

func NewHandler(lookup Lookup, coll Collection, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{lookup: lookup, collection: coll, logger: logger}
}

// Register monta as rotas da API no router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/card/{name}", h.handleGetCard)
	r.Post("/api/cards/batch", h.handleBatch)

	r.Route("/api/collection", func(r chi.Router) {
		r.Get("/", h.handleListCollection)
		r.Post("/", h.handleAddCards)
		r.Delete("/", h.handleClearCollection)
		r.Delete("/{name}", h.handleRemoveCard)
	})
}

const maxBodyBytes = 1 << 20

var errCardNamesNotArray = errors.New("cardNames must be an array")

type cardNamesRequest struct {
	CardNames json.RawMessage `json:"cardNames"`
}

// decodeCardNames aceita apenas {"cardNames": [strings...]}.
func decodeCardNames(r *http.Request) ([]string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errCardNamesNotArray
	}
	var req cardNamesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errCardNamesNotArray
	}
	if len(req.CardNames) == 0 || req.CardNames[0] != '[' {
		return nil, errCardNamesNotArray
	}
	var names []string
	if err := json.Unmarshal(req.CardNames, &names); err != nil {
		return nil, errCardNamesNotArray
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// pathName devolve o parâmetro {name} decodificado uma única vez.
//
// Sem RawPath o chi casa a rota sobre URL.Path, já decodificado ("Foo%2541" -> "Foo%41").
// Com RawPath (nomes com "%2F") o parâmetro chega escapado e é decodificado aqui.
func pathName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return raw
	}
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

func (h *Handler) handleGetCard(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	card, err := h.lookup.Exact(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeErrorMessage(w, http.StatusNotFound, "Card not found: "+name)
			return
		}
		h.logger.ErrorContext(r.Context(), "card lookup failed",
			"request_id", RequestIDFrom(r.Context()), "name", name, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

type batchResponse struct {
	Results []domain.Card `json:"results"`
	Errors  []string      `json:"errors"`
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	names, err := decodeCardNames(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	results, failed := h.lookup.Batch(r.Context(), names)
	writeJSON(w, http.StatusOK, batchResponse{Results: results, Errors: failed})
}

func (h *Handler) handleListCollection(w http.ResponseWriter, r *http.Request) {
	cards, err := h.collection.List(r.Context(), IdentityFrom(r.Context()))
	if err != nil {
		h.fail(w, r, "list collection failed", err)
		return
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	writeJSON(w, http.StatusOK, cards)
}

type addResponse struct {
	Added             []string `json:"added"`
	Errors            []string `json:"errors"`
	Skipped           []string `json:"skipped"`
	TotalInCollection int      `json:"totalInCollection"`
}

func (h *Handler) handleAddCards(w http.ResponseWriter, r *http.Request) {
	names, err := decodeCardNames(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.collection.Add(r.Context(), IdentityFrom(r.Context()), names)
	if err != nil {
		h.fail(w, r, "add cards failed", err)
		return
	}
	writeJSON(w, http.StatusOK, addResponse{
		Added:             nonNil(res.Added),
		Errors:            nonNil(res.Errors),
		Skipped:           nonNil(res.Skipped),
		TotalInCollection: res.TotalInCollection,
	})
}

type removeResponse struct {
	Message           string `json:"message"`
	TotalInCollection int    `json:"totalInCollection"`
}

func (h *Handler) handleRemoveCard(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	total, err := h.collection.Remove(r.Context(), IdentityFrom(r.Context()), name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeErrorMessage(w, http.StatusNotFound, "Card not found in collection")
			return
		}
		h.fail(w, r, "remove card failed", err)
		return
	}
	writeJSON(w, http.StatusOK, removeResponse{Message: "Card removed successfully", TotalInCollection: total})
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleClearCollection(w http.ResponseWriter, r *http.Request) {
	if err := h.collection.Clear(r.Context(), IdentityFrom(r.Context())); err != nil {
		h.fail(w, r, "clear collection failed", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Collection cleared successfully"})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), msg, "request_id", RequestIDFrom(r.Context()), "error", err)
	} else {
		h.logger.WarnContext(r.Context(), msg, "request_id", RequestIDFrom(r.Context()), "error", err)
	}
	writeErrorMessage(w, status, err.Error())
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

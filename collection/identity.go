package collection

import (
	"context"
	"net/http"
	"strings"

	"card-collection/collection/domain"
)

type identityKey struct{}

// WithIdentity injeta a identidade no contexto (middleware e testes).
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom lê a identidade do contexto. Ausente = anônima.
func IdentityFrom(ctx context.Context) domain.Identity {
	id, _ := ctx.Value(identityKey{}).(domain.Identity)
	return id
}

// BearerToken extrai o token de "Authorization: Bearer <token>" (esquema case-insensitive).
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// Identity coloca a credencial bearer no contexto da requisição. Não valida nada:
// quem decide se a identidade é suficiente é o backend de armazenamento.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithIdentity(r.Context(), domain.Identity{Token: BearerToken(r)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

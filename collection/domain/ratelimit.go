package domain

import "context"

// Caller é quem faz a requisição de entrada, do ponto de vista do limite.
//
// Key nunca carrega o token em claro: chamadores com bearer viram "token:<sha256>",
// os demais "ip:<host>".
type Caller struct {
	Key    string
	Bearer bool
}

// Rate é a taxa sustentada e a rajada de um token bucket.
type Rate struct {
	RPS   float64
	Burst int
}

// Limiter decide se uma requisição de entrada pode seguir agora.
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém o limiter de um chamador.
type LimiterStore interface {
	Get(c Caller) Limiter
}

// SlotPool representa capacidade finita de requisições simultâneas.
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}

package domain

import "errors"

// Erros sentinela. Camadas de infra retornam estes valores (possivelmente com %w)
// e o adapter HTTP traduz para status.
var (
	// ErrNotFound: o upstream não tem carta para o nome, ou a coleção não a contém.
	ErrNotFound = errors.New("not found")
	// ErrUpstream: falha de transporte ou resposta ilegível da API externa.
	ErrUpstream = errors.New("upstream error")
	// ErrUnauthenticated: o backend exige identidade e ela está ausente ou inválida.
	ErrUnauthenticated = errors.New("unauthenticated")
)

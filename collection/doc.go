// Package collection é o adapter HTTP do gateway de cartas.
//
// Visão geral (camadas):
//
//   - domain: tipos e contratos (Card, Identity, Store, Throttle, CardSource)
//   - application: casos de uso (busca no upstream, manutenção da coleção) sem net/http
//   - infra: implementações concretas (Scryfall, arquivo JSON, PostgreSQL, SQLite, Redis)
//   - collection (este pacote): roteador chi, handlers, middlewares e tradução de erro para status
//
// Fluxo de uma requisição:
//
//  1. Middlewares: request id, log, recover, CORS, métricas, rate limit e concorrência
//  2. Identity extrai o token bearer (se houver) para o contexto
//  3. O handler lê a identidade e a passa explicitamente para a camada application
//  4. Erros viram {"error": "..."}: 404 (não encontrado), 401 (identidade), 500 (resto)
package collection

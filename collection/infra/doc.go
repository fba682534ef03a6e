// Package infra contém implementações concretas dos contratos do pacote domain.
//
// Exemplos:
//   - IntervalThrottle: espaçamento mínimo entre chamadas ao upstream
//   - ScryfallClient: domain.CardSource sobre a API HTTP do Scryfall
//   - FileStore, PostgresStore, SQLiteStore, MemoryStore: backends de domain.Store
//   - JWTAuthenticator: token bearer -> subject
//   - MemoryStatsStore, RedisStatsStore, PromStats: destinos de estatísticas de busca
//   - CallerLimiter, SlotPool: proteção de entrada (token bucket por chamador, semáforo ponderado)
package infra

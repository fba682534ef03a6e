package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"card-collection/collection/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore acumula resultados de busca em hashes do Redis.
//
// Chaves (com prefixo padrão "cards:stats"):
//   - <prefix>:total            campos found/not_found/error, cumulativo
//   - <prefix>:minute:YYYYMMDDhhmm  mesmo formato, expira após ttl
//   - <prefix>:mode             campos "<mode>:<outcome>"
//   - <prefix>:misses           nomes não encontrados (só com trackMisses), expira após ttl
type RedisStatsStore struct {
	rdb *redis.Client

	prefix string
	ttl    time.Duration

	trackMisses bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

// WithStatsTrackMisses conta nomes não encontrados. Cuidado com cardinalidade.
func WithStatsTrackMisses(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackMisses = track }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "cards:stats",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.LookupEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := string(ev.Outcome)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)

	bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
	pipe.HIncrBy(ctx, bucketKey, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucketKey, s.ttl)
	}

	if ev.Mode != "" {
		pipe.HIncrBy(ctx, s.prefix+":mode", string(ev.Mode)+":"+field, 1)
	}

	if s.trackMisses && ev.Outcome == domain.OutcomeNotFound {
		if name := strings.TrimSpace(ev.Name); name != "" {
			missKey := s.prefix + ":misses"
			pipe.ZIncrBy(ctx, missKey, 1, domain.NameKey(name))
			if s.ttl > 0 {
				pipe.Expire(ctx, missKey, s.ttl)
			}
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

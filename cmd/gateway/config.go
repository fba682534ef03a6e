package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type config struct {
	Port       int    `env:"PORT" envDefault:"3000"`
	ListenAddr string `env:"LISTEN_ADDR"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	ScryfallURL       string        `env:"SCRYFALL_API_URL" envDefault:"https://api.scryfall.com"`
	ScryfallUserAgent string        `env:"SCRYFALL_USER_AGENT" envDefault:"card-collection/1.0"`
	FetchInterval     time.Duration `env:"FETCH_INTERVAL" envDefault:"100ms"`
	UpstreamTimeout   time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`

	CollectionFile    string `env:"COLLECTION_FILE" envDefault:"collection.json"`
	DatabaseURL       string `env:"DATABASE_URL"`
	DatabaseJWTSecret string `env:"DATABASE_JWT_SECRET"`
	SQLitePath        string `env:"SQLITE_PATH"`
	AuthJWTSecret     string `env:"AUTH_JWT_SECRET"`
	AuthJWTAudience   string `env:"AUTH_JWT_AUDIENCE"`

	RateEnabled bool          `env:"RATE_ENABLED" envDefault:"true"`
	RateRPS     float64       `env:"RATE_RPS" envDefault:"10"`
	RateBurst   int           `env:"RATE_BURST"`
	TrustXFF    bool          `env:"TRUST_XFF"`
	RetryAfter  time.Duration `env:"RETRY_AFTER" envDefault:"1s"`
	AddHeaders  bool          `env:"ADD_RATELIMIT_HEADERS"`

	// Taxa de quem apresenta bearer token; 0 usa a mesma dos anônimos.
	RateTokenRPS   float64 `env:"RATE_TOKEN_RPS"`
	RateTokenBurst int     `env:"RATE_TOKEN_BURST"`

	ConcurrencyMax     int           `env:"CONCURRENCY_MAX" envDefault:"100"`
	ConcurrencyTimeout time.Duration `env:"CONCURRENCY_TIMEOUT"`

	StatsRedisAddr     string        `env:"STATS_REDIS_ADDR"`
	StatsRedisPassword string        `env:"STATS_REDIS_PASSWORD"`
	StatsRedisDB       int           `env:"STATS_REDIS_DB"`
	StatsPrefix        string        `env:"STATS_PREFIX" envDefault:"cards:stats"`
	StatsTTL           time.Duration `env:"STATS_TTL" envDefault:"24h"`
	StatsTrackMisses   bool          `env:"STATS_TRACK_MISSES"`
}

type backend string

const (
	backendPostgres backend = "postgres"
	backendSQLite   backend = "sqlite"
	backendFile     backend = "file"
)

// backend escolhe o armazenamento: DATABASE_URL > SQLITE_PATH > arquivo.
func (c config) backend() backend {
	switch {
	case strings.TrimSpace(c.DatabaseURL) != "":
		return backendPostgres
	case strings.TrimSpace(c.SQLitePath) != "":
		return backendSQLite
	default:
		return backendFile
	}
}

func (c config) addr() string {
	if c.ListenAddr != "" {
		return c.ListenAddr
	}
	return ":" + strconv.Itoa(c.Port)
}

func (c config) slogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func readConfig() (config, error) {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}

	// IMPORTANTE: o "burst" permite uma rajada inicial de requisições.
	// Com RPS muito baixo (ex: 0.02), o padrão 20 pode dar a impressão de que
	// o limiter não está funcionando, porque as primeiras ~20 passam.
	if !getenvIsSet("RATE_BURST") {
		cfg.RateBurst = 20
		if getenvIsSet("RATE_RPS") && cfg.RateRPS > 0 && cfg.RateRPS < 1 {
			cfg.RateBurst = 1
		}
	}

	if cfg.backend() == backendPostgres && strings.TrimSpace(cfg.DatabaseJWTSecret) == "" {
		return config{}, errors.New("DATABASE_JWT_SECRET is required when DATABASE_URL is set")
	}
	if cfg.backend() == backendFile && strings.TrimSpace(cfg.CollectionFile) == "" {
		return config{}, errors.New("COLLECTION_FILE must not be empty")
	}
	if cfg.FetchInterval < 0 {
		return config{}, errors.New("FETCH_INTERVAL must be >= 0")
	}
	if cfg.UpstreamTimeout < 0 {
		return config{}, errors.New("UPSTREAM_TIMEOUT must be >= 0")
	}
	if cfg.ListenAddr == "" && (cfg.Port <= 0 || cfg.Port > 65535) {
		return config{}, errors.New("PORT must be between 1 and 65535")
	}
	if cfg.RateEnabled {
		if cfg.RateRPS <= 0 {
			return config{}, errors.New("RATE_RPS must be > 0")
		}
		if cfg.RateBurst <= 0 {
			return config{}, errors.New("RATE_BURST must be > 0")
		}
		if cfg.RateTokenRPS < 0 || cfg.RateTokenBurst < 0 {
			return config{}, errors.New("RATE_TOKEN_RPS and RATE_TOKEN_BURST must be >= 0")
		}
		if cfg.RateTokenRPS > 0 && cfg.RateTokenBurst == 0 {
			cfg.RateTokenBurst = cfg.RateBurst
		}
	}
	if cfg.ConcurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	return cfg, nil
}

func getenvIsSet(k string) bool {
	v, ok := os.LookupEnv(k)
	return ok && v != ""
}

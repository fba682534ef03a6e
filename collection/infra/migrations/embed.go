package migrations

import "embed"

// Postgres contém o schema idempotente do backend PostgreSQL.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite contém as migrations rastreadas do backend SQLite.
//
//go:embed sqlite/*.sql
var SQLite embed.FS

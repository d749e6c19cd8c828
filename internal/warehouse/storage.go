package warehouse

import (
	"context"
	"fmt"
	"os"

	"agrimart/internal/infra/persistence/postgres"
	"agrimart/internal/infra/persistence/sqlite"
	"agrimart/internal/schema"
)

// StorageDriver identifies a concrete warehouse database backend.
type StorageDriver string

const (
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file (default)
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects and parameterizes the warehouse backend.
type StorageConfig struct {
	Driver      StorageDriver `yaml:"driver"`
	SQLitePath  string        `yaml:"sqlite_path"`
	PostgresDSN string        `yaml:"postgres_dsn"`
}

// StorageConfigFromEnv reads backend selection from environment variables,
// overlaying any set variable onto base.
//
//	AGRIMART_STORAGE_DRIVER: sqlite|postgres (default sqlite)
//	AGRIMART_SQLITE_PATH: path to sqlite file, ":memory:" for ephemeral
//	AGRIMART_POSTGRES_DSN: postgres DSN when driver=postgres
func StorageConfigFromEnv(base StorageConfig) StorageConfig {
	if v := os.Getenv("AGRIMART_STORAGE_DRIVER"); v != "" {
		base.Driver = StorageDriver(v)
	}
	if v := os.Getenv("AGRIMART_SQLITE_PATH"); v != "" {
		base.SQLitePath = v
	}
	if v := os.Getenv("AGRIMART_POSTGRES_DSN"); v != "" {
		base.PostgresDSN = v
	}
	if base.Driver == "" {
		base.Driver = StorageSQLite
	}
	return base
}

// OpenStore opens the configured backend, applies the warehouse schema, and
// wraps the handle in a Store. The caller owns the connection and closes it
// via Store.DB().Close().
func OpenStore(ctx context.Context, cfg StorageConfig) (*Store, error) {
	switch cfg.Driver {
	case StorageSQLite, "":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return NewStore(db, schema.DialectSQLite), nil
	case StoragePostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return NewStore(db, schema.DialectPostgres), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}

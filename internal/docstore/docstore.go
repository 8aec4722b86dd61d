// Package docstore connects the editor to an external document store. Each
// driver implements domain.TemplateStore; canvas content is stored as the
// JSON tree, untransformed.
package docstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mailcanvas/internal/domain"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
	DriverMongoDB  Driver = "mongodb"
)

// Config describes a document store connection. For sqlite Host is the
// database file path; for mongodb Host may be a full connection URI.
type Config struct {
	Driver   Driver `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	// Table is the SQL table or Mongo collection holding templates.
	Table string `yaml:"table"`
}

const defaultTable = "mailcanvas_templates"

func (c Config) table() string {
	if c.Table == "" {
		return defaultTable
	}
	return c.Table
}

// Open connects to the configured store and makes sure its schema exists.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (domain.TemplateStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("driver", string(cfg.Driver)))

	var (
		store domain.TemplateStore
		err   error
	)
	switch cfg.Driver {
	case DriverSQLite:
		store, err = asStore(openSQL(ctx, sqliteDialect, sqliteDSN(cfg), cfg.table(), log))
	case DriverMySQL:
		store, err = asStore(openSQL(ctx, mysqlDialect, buildMySQLDSN(cfg), cfg.table(), log))
	case DriverPostgres:
		store, err = asStore(openSQL(ctx, postgresDialect, buildPostgresDSN(cfg), cfg.table(), log))
	case DriverMongoDB:
		store, err = asStore(openMongo(ctx, cfg, log))
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	return store, nil
}

// asStore keeps a failed open from producing a non-nil interface around a
// nil pointer.
func asStore[S domain.TemplateStore](s S, err error) (domain.TemplateStore, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

package docstore

import (
	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	driverName: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
}

// sqliteDSN opens the file in WAL mode with a busy timeout for concurrent access.
func sqliteDSN(cfg Config) string {
	if cfg.Host == ":memory:" {
		return cfg.Host
	}
	return cfg.Host + "?_journal_mode=WAL&_busy_timeout=5000"
}

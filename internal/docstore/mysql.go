package docstore

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	driverName: "mysql",
	schema: `CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		content LONGTEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL
	)`,
}

// buildMySQLDSN constructs a MySQL DSN. clientFoundRows makes an UPDATE that
// matches a row report it as affected even when no value changed.
func buildMySQLDSN(cfg Config) string {
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&clientFoundRows=true",
		cfg.Username, cfg.Password, cfg.Host, port, cfg.Database,
	)
	if cfg.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}

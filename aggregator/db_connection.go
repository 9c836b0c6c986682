package aggregator

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLConfig represents the MySQL configuration. The report sink is
// disabled when the DSN is empty.
type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

// NewDbConnection opens a new connection using the configured DSN. It
// returns nil when no DSN is configured.
func NewDbConnection(config MySQLConfig) (*sql.DB, error) {
	if config.DSN == "" {
		return nil, nil
	}

	db, err := sql.Open("mysql", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("database connection error: %s", err)
	}

	return db, nil
}

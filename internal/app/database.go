package app

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"faithatlas/internal/store"
)

// NewDB opens the configured database using sensible pool defaults.
func NewDB(cfg Config) (*sql.DB, error) {
	var driver string
	switch cfg.Dialect {
	case store.DialectMySQL:
		driver = "mysql"
	case store.DialectSQLite:
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("no database configured")
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.Dialect == store.DialectSQLite {
		// SQLite serialises writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		return db, nil
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return db, nil
}

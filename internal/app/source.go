package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"faithatlas/internal/content"
	"faithatlas/internal/corpus"
	"faithatlas/internal/store"
)

// LoadCatalog reads pages from dir, or from the embedded corpus when dir is
// empty.
func LoadCatalog(dir string) (*content.Catalog, error) {
	if dir == "" {
		return content.Load(corpus.FS())
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("content directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content directory %s is not a directory", dir)
	}
	return content.Load(os.DirFS(dir))
}

// OpenSQLStore opens the configured database and ensures the schema exists.
// The returned *sql.DB must be closed by the caller.
func OpenSQLStore(ctx context.Context, cfg Config) (*store.SQL, *sql.DB, error) {
	db, err := NewDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}

	st, err := store.NewSQL(db, cfg.Dialect)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return st, db, nil
}

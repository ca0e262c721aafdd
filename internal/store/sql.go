package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"faithatlas/internal/content"
)

// Dialect names the SQL flavour a database speaks.
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

// SQL stores pages as JSON documents in a single pages table.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQL wraps an open database handle.
func NewSQL(db *sql.DB, dialect Dialect) (*SQL, error) {
	switch dialect {
	case DialectMySQL, DialectSQLite:
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	return &SQL{db: db, dialect: dialect}, nil
}

// Migrate creates the pages table if it does not exist yet.
func (s *SQL) Migrate(ctx context.Context) error {
	var ddl string
	switch s.dialect {
	case DialectMySQL:
		ddl = `CREATE TABLE IF NOT EXISTS pages (
	slug VARCHAR(191) NOT NULL PRIMARY KEY,
	title VARCHAR(512) NOT NULL,
	category VARCHAR(191) NOT NULL DEFAULT '',
	position INT NOT NULL,
	document MEDIUMTEXT NOT NULL,
	search MEDIUMTEXT COLLATE utf8mb4_bin NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
) DEFAULT CHARSET=utf8mb4`
	case DialectSQLite:
		ddl = `CREATE TABLE IF NOT EXISTS pages (
	slug TEXT NOT NULL PRIMARY KEY,
	title TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL,
	document TEXT NOT NULL,
	search TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create pages table: %w", err)
	}

	// Tables created before the search column existed get it added empty;
	// the next seed fills it.
	rows, err := s.db.QueryContext(ctx, `SELECT search FROM pages LIMIT 0`)
	if err == nil {
		return rows.Close()
	}

	alter := `ALTER TABLE pages ADD COLUMN search TEXT NOT NULL DEFAULT ''`
	if s.dialect == DialectMySQL {
		alter = `ALTER TABLE pages ADD COLUMN search MEDIUMTEXT COLLATE utf8mb4_bin NOT NULL`
	}
	if _, err := s.db.ExecContext(ctx, alter); err != nil {
		return fmt.Errorf("add search column: %w", err)
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, slug string) (*content.Page, error) {
	const query = `SELECT document FROM pages WHERE slug = ?`
	row := s.db.QueryRowContext(ctx, query, slug)
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodePage(doc)
}

func (s *SQL) List(ctx context.Context) ([]*content.Page, error) {
	const query = `SELECT document FROM pages ORDER BY position, slug`
	return s.queryPages(ctx, query)
}

// Search matches the same text as content.Catalog.Search, in catalog order.
// A limit of zero or less means no limit.
func (s *SQL) Search(ctx context.Context, query string, limit int) ([]*content.Page, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}

	sqlQuery := `SELECT document FROM pages WHERE search LIKE ? ESCAPE '!' ORDER BY position, slug`
	args := []any{"%" + escapeLike(needle) + "%"}
	if limit > 0 {
		sqlQuery += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryPages(ctx, sqlQuery, args...)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike makes LIKE wildcards in s match literally under ESCAPE '!'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *SQL) Random(ctx context.Context) (string, error) {
	query := `SELECT slug FROM pages ORDER BY RANDOM() LIMIT 1`
	if s.dialect == DialectMySQL {
		query = `SELECT slug FROM pages ORDER BY RAND() LIMIT 1`
	}
	row := s.db.QueryRowContext(ctx, query)
	var slug string
	if err := row.Scan(&slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return slug, nil
}

func (s *SQL) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM pages`
	row := s.db.QueryRowContext(ctx, query)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Insert stores one page at the given catalog position.
func (s *SQL) Insert(ctx context.Context, page *content.Page, position int) error {
	return s.insert(ctx, s.db, page, position)
}

// Seed replaces every stored page with the catalog's pages in one
// transaction.
func (s *SQL) Seed(ctx context.Context, catalog *content.Catalog) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM pages`); err != nil {
		return fmt.Errorf("clear pages: %w", err)
	}
	for i, page := range catalog.Pages() {
		if err = s.insert(ctx, tx, page, i); err != nil {
			return fmt.Errorf("insert %s: %w", page.Slug, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQL) insert(ctx context.Context, db execer, page *content.Page, position int) error {
	doc, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}

	const insert = `INSERT INTO pages (slug, title, category, position, document, search) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, insert, page.Slug, page.Title, page.Category, position, string(doc), page.SearchText()); err != nil {
		if isDuplicate(err) {
			return ErrDuplicatePage
		}
		return err
	}
	return nil
}

func (s *SQL) queryPages(ctx context.Context, query string, args ...any) ([]*content.Page, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*content.Page
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		page, err := decodePage(doc)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pages, nil
}

func decodePage(doc string) (*content.Page, error) {
	var page content.Page
	if err := json.Unmarshal([]byte(doc), &page); err != nil {
		return nil, fmt.Errorf("decode page document: %w", err)
	}
	return &page, nil
}

func isDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

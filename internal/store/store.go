// Package store serves content pages to the HTTP layer, either straight from
// a loaded catalog or from a SQL database seeded with one.
package store

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"

	"faithatlas/internal/content"
)

var (
	// ErrNotFound signals that no page has the requested slug.
	ErrNotFound = errors.New("page not found")
	// ErrDuplicatePage signals that a slug already exists in the database.
	ErrDuplicatePage = errors.New("duplicate page")
)

// Store is the read side the server depends on.
type Store interface {
	Get(ctx context.Context, slug string) (*content.Page, error)
	List(ctx context.Context) ([]*content.Page, error)
	Search(ctx context.Context, query string, limit int) ([]*content.Page, error)
	Random(ctx context.Context) (string, error)
	Count(ctx context.Context) (int, error)
}

// Memory serves pages from an in-process catalog. The catalog can be
// replaced while requests are in flight.
type Memory struct {
	catalog atomic.Pointer[content.Catalog]
}

// NewMemory wraps catalog.
func NewMemory(catalog *content.Catalog) *Memory {
	m := &Memory{}
	m.catalog.Store(catalog)
	return m
}

// Catalog returns the catalog currently served.
func (m *Memory) Catalog() *content.Catalog {
	return m.catalog.Load()
}

// Replace swaps in a freshly loaded catalog.
func (m *Memory) Replace(catalog *content.Catalog) {
	m.catalog.Store(catalog)
}

func (m *Memory) Get(_ context.Context, slug string) (*content.Page, error) {
	p, ok := m.catalog.Load().Lookup(slug)
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *Memory) List(context.Context) ([]*content.Page, error) {
	return m.catalog.Load().Pages(), nil
}

func (m *Memory) Search(_ context.Context, query string, limit int) ([]*content.Page, error) {
	return m.catalog.Load().Search(query, limit), nil
}

// Random returns a random slug, or "" when the catalog is empty.
func (m *Memory) Random(context.Context) (string, error) {
	pages := m.catalog.Load().Pages()
	if len(pages) == 0 {
		return "", nil
	}
	return pages[rand.IntN(len(pages))].Slug, nil
}

func (m *Memory) Count(context.Context) (int, error) {
	return m.catalog.Load().Len(), nil
}

package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faithatlas/internal/store"
)

func TestLoadCatalogEmbedded(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Positive(t, c.Len())
	_, ok := c.Lookup("islamic-medicine")
	assert.True(t, ok)
}

func TestLoadCatalogDirectory(t *testing.T) {
	dir := t.TempDir()
	page := "title: Sikhism\ncategory: Dharmic Religions\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sikhism.yaml"), []byte(page), 0o644))

	c, err := LoadCatalog(dir)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	p, ok := c.Lookup("sikhism")
	require.True(t, ok)
	assert.Equal(t, "Sikhism", p.Title)
}

func TestLoadCatalogRejectsFiles(t *testing.T) {
	file := filepath.Join(t.TempDir(), "page.yaml")
	require.NoError(t, os.WriteFile(file, []byte("title: x\n"), 0o644))

	_, err := LoadCatalog(file)
	assert.ErrorContains(t, err, "is not a directory")

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestOpenSQLStoreSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Dialect: store.DialectSQLite, DSN: filepath.Join(t.TempDir(), "atlas.db")}

	st, db, err := OpenSQLStore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	catalog, err := LoadCatalog("")
	require.NoError(t, err)
	require.NoError(t, st.Seed(ctx, catalog))

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.Len(), n)

	p, err := st.Get(ctx, "islamic-medicine")
	require.NoError(t, err)
	want, _ := catalog.Lookup("islamic-medicine")
	assert.Equal(t, want.Resources, p.Resources)
}

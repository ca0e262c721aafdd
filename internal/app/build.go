package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"faithatlas/internal/content"
	"faithatlas/internal/render"
	"faithatlas/internal/store"
	"faithatlas/internal/tools/constellation"
)

// BuildResult summarises a static export.
type BuildResult struct {
	OutputDir string
	Pages     int
}

// Build renders every page in st into outDir as a static site: index.html,
// 404.html, constellation.json and one <slug>/index.html per page. The
// output directory is emptied first.
func Build(ctx context.Context, st store.Store, renderer *render.Renderer, outDir string, logger *zap.Logger) (BuildResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := CheckOutputDir(outDir); err != nil {
		return BuildResult{}, err
	}

	pages, err := st.List(ctx)
	if err != nil {
		return BuildResult{}, fmt.Errorf("list pages: %w", err)
	}
	catalog, err := content.NewCatalog(pages)
	if err != nil {
		return BuildResult{}, err
	}

	if err := os.RemoveAll(outDir); err != nil {
		return BuildResult{}, fmt.Errorf("clean output directory %s: %w", outDir, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BuildResult{}, fmt.Errorf("create output directory %s: %w", outDir, err)
	}

	count := catalog.Len()

	var buf bytes.Buffer
	if err := renderer.RenderIndex(&buf, catalog.Categories(), count); err != nil {
		return BuildResult{}, err
	}
	if err := writeFile(filepath.Join(outDir, "index.html"), buf.Bytes()); err != nil {
		return BuildResult{}, err
	}

	buf.Reset()
	if err := renderer.RenderNotFound(&buf, "", count); err != nil {
		return BuildResult{}, err
	}
	if err := writeFile(filepath.Join(outDir, "404.html"), buf.Bytes()); err != nil {
		return BuildResult{}, err
	}

	for _, page := range catalog.Pages() {
		if err := ctx.Err(); err != nil {
			return BuildResult{}, err
		}

		buf.Reset()
		if err := renderer.RenderPage(&buf, page, count); err != nil {
			return BuildResult{}, fmt.Errorf("render %s: %w", page.Slug, err)
		}
		path := filepath.Join(outDir, page.Slug, "index.html")
		if err := writeFile(path, buf.Bytes()); err != nil {
			return BuildResult{}, err
		}
		logger.Debug("wrote page", zap.String("slug", page.Slug), zap.String("path", path))
	}

	graph, err := json.MarshalIndent(constellation.Build(catalog), "", "  ")
	if err != nil {
		return BuildResult{}, fmt.Errorf("encode constellation: %w", err)
	}
	if err := writeFile(filepath.Join(outDir, "constellation.json"), graph); err != nil {
		return BuildResult{}, err
	}

	logger.Info("static build complete", zap.String("dir", outDir), zap.Int("pages", count))
	return BuildResult{OutputDir: outDir, Pages: count}, nil
}

// CheckOutputDir refuses output directories that Build must not empty: the
// filesystem root, the working directory or any of its parents, and any
// directory holding one of keep.
func CheckOutputDir(outDir string, keep ...string) error {
	if strings.TrimSpace(outDir) == "" {
		return fmt.Errorf("missing output directory")
	}
	out, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve output directory %s: %w", outDir, err)
	}
	if filepath.Dir(out) == out {
		return fmt.Errorf("refusing to use filesystem root %s as output directory", out)
	}

	if wd, err := os.Getwd(); err == nil {
		keep = append(keep, wd)
	}
	for _, k := range keep {
		if k == "" {
			continue
		}
		abs, err := filepath.Abs(k)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", k, err)
		}
		if within(out, abs) {
			return fmt.Errorf("refusing to empty output directory %s: it contains %s", out, abs)
		}
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

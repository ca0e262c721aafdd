package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// Load reads every page under fsys. YAML files describe structured pages;
// Markdown files carry YAML front matter and a prose body. Pages keep the
// lexical order of their file paths.
func Load(fsys fs.FS) (*Catalog, error) {
	var pages []*Page
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("walk %s: %w", p, walkErr)
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}

		var (
			page *Page
			err  error
		)
		switch strings.ToLower(path.Ext(p)) {
		case ".yaml", ".yml":
			page, err = loadYAML(fsys, p)
		case ".md", ".markdown":
			page, err = loadMarkdown(fsys, p)
		default:
			return nil
		}
		if err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return NewCatalog(pages)
}

func loadYAML(fsys fs.FS, p string) (*Page, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var page Page
	if err := dec.Decode(&page); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty page file")
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return finishPage(&page, p)
}

func loadMarkdown(fsys fs.FS, p string) (*Page, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, err
	}

	var page Page
	body, err := frontmatter.Parse(bytes.NewReader(data), &page)
	if err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}

	html, err := RenderMarkdown(string(body))
	if err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	page.Body = html
	return finishPage(&page, p)
}

// finishPage fills in the slug and title defaults derived from the file name.
func finishPage(page *Page, p string) (*Page, error) {
	page.Source = p

	base := strings.TrimSuffix(path.Base(p), path.Ext(p))
	raw := FirstNonEmpty(page.Slug, base)
	slug, err := NormalizeSlug(raw)
	if err != nil {
		return nil, fmt.Errorf("slug %q: %w", raw, err)
	}
	page.Slug = slug

	if strings.TrimSpace(page.Title) == "" {
		page.Title = SlugTitle(slug)
	}
	return page, nil
}

// Package render turns content pages into HTML documents. One card is
// emitted per array element, in source order; optional fields that are
// absent produce no markup at all.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"faithatlas/internal/content"
)

// Options configures a Renderer.
type Options struct {
	// SiteTitle appears in the header and in every document title.
	SiteTitle string
	// BasePath prefixes internal links, for sites served below the root.
	BasePath string
}

// Renderer executes the embedded template set. It is safe for concurrent use.
type Renderer struct {
	opts      Options
	templates map[string]*template.Template
}

// Site is the site-wide data every document sees.
type Site struct {
	Title     string
	PageCount int
}

type document struct {
	Site        Site
	HeadTitle   string
	Description string
	Keywords    []string
	SearchQuery string

	Page       *content.Page
	Sections   []sectionView
	Categories []content.Category
	Results    []*content.Page
	Missing    string
}

type sectionView struct {
	ID      string
	Layout  content.Layout
	Tabs    bool
	Section content.Section
	Topics  []topicView
}

type topicView struct {
	ID          string
	Number      int
	Collapsible bool
	Topic       content.Topic
}

var pageTemplates = []string{"page", "home", "search", "notfound"}

// New parses the embedded templates.
func New(opts Options) (*Renderer, error) {
	if strings.TrimSpace(opts.SiteTitle) == "" {
		opts.SiteTitle = "Faith Atlas"
	}
	opts.BasePath = strings.TrimSuffix(strings.TrimSpace(opts.BasePath), "/")
	if opts.BasePath != "" && !strings.HasPrefix(opts.BasePath, "/") {
		opts.BasePath = "/" + opts.BasePath
	}

	r := &Renderer{opts: opts, templates: make(map[string]*template.Template, len(pageTemplates))}

	base, err := template.New("base").Funcs(template.FuncMap{
		"markdown": content.RenderMarkdown,
		"inline":   content.RenderInline,
		"join":     strings.Join,
		"trim":     strings.TrimSpace,
		"url":      r.URL,
		"pageURL":  r.pageURL,
		"body":     r.body,
	}).ParseFS(templateFS, "templates/layout.gohtml", "templates/partials.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse base templates: %w", err)
	}

	for _, name := range pageTemplates {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		tmpl, err := clone.ParseFS(templateFS, "templates/"+name+".gohtml")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// RenderPage writes the full document for one content page. pageCount is
// the number of pages on the site, shown in the footer.
func (r *Renderer) RenderPage(w io.Writer, page *content.Page, pageCount int) error {
	doc := r.document(pageCount)
	doc.Page = page
	doc.HeadTitle = page.HeadTitle()
	doc.Description = page.Meta.Description
	doc.Keywords = nonBlank(page.Meta.Keywords)
	doc.Sections = sectionViews(page.Sections)
	return r.execute(w, "page", doc)
}

// RenderIndex writes the home page listing every page by category.
func (r *Renderer) RenderIndex(w io.Writer, categories []content.Category, pageCount int) error {
	doc := r.document(pageCount)
	doc.Categories = categories
	return r.execute(w, "home", doc)
}

// RenderSearch writes the results page for query.
func (r *Renderer) RenderSearch(w io.Writer, query string, results []*content.Page, pageCount int) error {
	doc := r.document(pageCount)
	doc.HeadTitle = "Search"
	doc.SearchQuery = query
	doc.Results = results
	return r.execute(w, "search", doc)
}

// RenderNotFound writes the page shown for an unknown slug.
func (r *Renderer) RenderNotFound(w io.Writer, slug string, pageCount int) error {
	doc := r.document(pageCount)
	doc.HeadTitle = "Page not found"
	doc.Missing = slug
	return r.execute(w, "notfound", doc)
}

func (r *Renderer) document(pageCount int) document {
	return document{Site: Site{Title: r.opts.SiteTitle, PageCount: pageCount}}
}

// execute renders into a buffer first so a template error never leaves a
// half-written response behind.
func (r *Renderer) execute(w io.Writer, name string, doc document) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", doc); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// BasePath is the path prefix the site is served under, without a trailing
// slash. It is empty for a site served at the root.
func (r *Renderer) BasePath() string {
	return r.opts.BasePath
}

// URL prefixes a root-relative href with the base path. Other hrefs are
// returned unchanged.
func (r *Renderer) URL(href string) string {
	if !strings.HasPrefix(href, "/") || strings.HasPrefix(href, "//") {
		return href
	}
	return r.opts.BasePath + href
}

func (r *Renderer) pageURL(slug string) string {
	return r.URL("/" + slug)
}

func (r *Renderer) body(html template.HTML) template.HTML {
	return prefixInternalLinks(html, r.opts.BasePath)
}

func sectionViews(sections []content.Section) []sectionView {
	views := make([]sectionView, 0, len(sections))
	used := make(map[string]bool)
	for i, s := range sections {
		id := s.ID
		if id == "" {
			id, _ = content.NormalizeSlug(s.Title)
		}
		if id == "" {
			id = "section-" + strconv.Itoa(i+1)
		}
		id = uniqueID(used, id)

		layout := s.Layout
		if layout == "" || !layout.Valid() {
			layout = content.LayoutGrid
		}

		view := sectionView{
			ID:      id,
			Layout:  layout,
			Tabs:    layout == content.LayoutTabs,
			Section: s,
			Topics:  make([]topicView, len(s.Topics)),
		}
		for j, t := range s.Topics {
			view.Topics[j] = topicView{
				ID:          uniqueID(used, id+"-"+strconv.Itoa(j+1)),
				Number:      j + 1,
				Collapsible: layout == content.LayoutAccordion,
				Topic:       t,
			}
		}
		views = append(views, view)
	}
	return views
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// uniqueID claims id in used, appending a numeric suffix when a section or
// card already holds it.
func uniqueID(used map[string]bool, id string) string {
	candidate := id
	for n := 2; used[candidate]; n++ {
		candidate = id + "-" + strconv.Itoa(n)
	}
	used[candidate] = true
	return candidate
}

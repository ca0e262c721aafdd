package content

import (
	"fmt"
	"strings"
)

// Catalog is an immutable, ordered set of pages.
type Catalog struct {
	pages  []*Page
	bySlug map[string]*Page
}

// Category groups pages that share a category label.
type Category struct {
	Name  string
	Pages []*Page
}

// Edge is a cross-link from one page to another.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// NewCatalog indexes pages by slug. Duplicate slugs are rejected.
func NewCatalog(pages []*Page) (*Catalog, error) {
	c := &Catalog{
		pages:  make([]*Page, 0, len(pages)),
		bySlug: make(map[string]*Page, len(pages)),
	}
	for _, p := range pages {
		if p == nil {
			continue
		}
		if prev, ok := c.bySlug[p.Slug]; ok {
			return nil, fmt.Errorf("duplicate slug %q in %s and %s", p.Slug, prev.Source, p.Source)
		}
		c.bySlug[p.Slug] = p
		c.pages = append(c.pages, p)
	}
	return c, nil
}

// Pages returns the pages in load order. Callers must not modify them.
func (c *Catalog) Pages() []*Page {
	return c.pages
}

// Len is the number of pages.
func (c *Catalog) Len() int {
	return len(c.pages)
}

// Lookup returns the page with the given canonical slug.
func (c *Catalog) Lookup(slug string) (*Page, bool) {
	p, ok := c.bySlug[slug]
	return p, ok
}

// Categories groups pages by category in first-seen order. Pages without a
// category land in "General".
func (c *Catalog) Categories() []Category {
	var out []Category
	index := make(map[string]int)
	for _, p := range c.pages {
		name := FirstNonEmpty(p.Category, "General")
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, Category{Name: name})
		}
		out[i].Pages = append(out[i].Pages, p)
	}
	return out
}

// Search returns pages whose SearchText contains query, case-insensitively,
// in catalog order.
// A limit of zero or less means no limit.
func (c *Catalog) Search(query string, limit int) []*Page {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}

	var out []*Page
	for _, p := range c.pages {
		if !matches(p, needle) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func matches(p *Page, needle string) bool {
	return strings.Contains(p.SearchText(), needle)
}

// SearchText is the lower-cased text Search matches against: title,
// subtitle, intro, meta description, keywords, section titles and topic
// headings, one per line.
func (p *Page) SearchText() string {
	fields := []string{p.Title, p.Subtitle, p.Intro, p.Meta.Description}
	fields = append(fields, p.Meta.Keywords...)
	for _, s := range p.Sections {
		fields = append(fields, s.Title)
		for _, t := range s.Topics {
			fields = append(fields, t.Heading())
		}
	}
	return strings.ToLower(strings.Join(fields, "\n"))
}

// Graph returns the internal cross-links between known pages. Self links and
// repeated links from the same page are dropped.
func (c *Catalog) Graph() []Edge {
	var edges []Edge
	for _, p := range c.pages {
		seen := make(map[string]struct{})
		for _, href := range internalHrefs(p) {
			target, ok := LinkedSlug(href)
			if !ok || target == p.Slug {
				continue
			}
			if _, known := c.bySlug[target]; !known {
				continue
			}
			if _, dup := seen[target]; dup {
				continue
			}
			seen[target] = struct{}{}
			edges = append(edges, Edge{Source: p.Slug, Target: target})
		}
	}
	return edges
}

package content

import (
	"html/template"
	"strings"
)

// Layout selects how a section arranges its topic cards.
type Layout string

const (
	LayoutGrid      Layout = "grid"
	LayoutList      Layout = "list"
	LayoutTabs      Layout = "tabs"
	LayoutAccordion Layout = "accordion"
)

// Valid reports whether l is a layout the renderer knows. The empty layout
// is valid and renders as a grid.
func (l Layout) Valid() bool {
	switch l {
	case "", LayoutGrid, LayoutList, LayoutTabs, LayoutAccordion:
		return true
	}
	return false
}

// Page is one routed reference page.
type Page struct {
	Slug      string     `yaml:"slug" json:"slug"`
	Title     string     `yaml:"title" json:"title"`
	Subtitle  string     `yaml:"subtitle,omitempty" json:"subtitle,omitempty"`
	Category  string     `yaml:"category,omitempty" json:"category,omitempty"`
	Intro     string     `yaml:"intro,omitempty" json:"intro,omitempty"`
	Meta      Meta       `yaml:"meta" json:"meta"`
	Sections  []Section  `yaml:"sections,omitempty" json:"sections,omitempty"`
	Related   []Link     `yaml:"related,omitempty" json:"related,omitempty"`
	Resources []Resource `yaml:"resources,omitempty" json:"resources,omitempty"`

	// Body holds rendered Markdown for prose pages.
	Body template.HTML `yaml:"-" json:"body,omitempty"`
	// Source is the file the page was loaded from.
	Source string `yaml:"-" json:"-"`
}

// Meta is the static head metadata for a page.
type Meta struct {
	Title       string   `yaml:"title,omitempty" json:"title,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
}

// Section groups topics under one heading.
type Section struct {
	ID     string  `yaml:"id,omitempty" json:"id,omitempty"`
	Title  string  `yaml:"title" json:"title"`
	Intro  string  `yaml:"intro,omitempty" json:"intro,omitempty"`
	Layout Layout  `yaml:"layout,omitempty" json:"layout,omitempty"`
	Topics []Topic `yaml:"topics" json:"topics"`
}

// Topic is a single card: an art period, a tradition, a principle.
type Topic struct {
	Title        string  `yaml:"title,omitempty" json:"title,omitempty"`
	Name         string  `yaml:"name,omitempty" json:"name,omitempty"`
	Era          string  `yaml:"era,omitempty" json:"era,omitempty"`
	Period       string  `yaml:"period,omitempty" json:"period,omitempty"`
	Region       string  `yaml:"region,omitempty" json:"region,omitempty"`
	Description  string  `yaml:"description,omitempty" json:"description,omitempty"`
	Significance string  `yaml:"significance,omitempty" json:"significance,omitempty"`
	Quote        string  `yaml:"quote,omitempty" json:"quote,omitempty"`
	Lists        []List  `yaml:"lists,omitempty" json:"lists,omitempty"`
	Groups       []Group `yaml:"groups,omitempty" json:"groups,omitempty"`
}

// Heading is the topic's display title.
func (t Topic) Heading() string {
	return FirstNonEmpty(t.Title, t.Name)
}

// Subtitle is the era line shown under the heading.
func (t Topic) Subtitle() string {
	return FirstNonEmpty(t.Era, t.Period, t.Region)
}

// List is a labelled list of plain strings (characteristics, examples).
type List struct {
	Label string   `yaml:"label" json:"label"`
	Items []string `yaml:"items" json:"items"`
}

// Group is a labelled list of nested records (key works, references).
type Group struct {
	Label string    `yaml:"label" json:"label"`
	Items []SubItem `yaml:"items" json:"items"`
}

// SubItem is a nested record inside a topic card.
type SubItem struct {
	Title        string `yaml:"title" json:"title"`
	Author       string `yaml:"author,omitempty" json:"author,omitempty"`
	Date         string `yaml:"date,omitempty" json:"date,omitempty"`
	Period       string `yaml:"period,omitempty" json:"period,omitempty"`
	Location     string `yaml:"location,omitempty" json:"location,omitempty"`
	Description  string `yaml:"description,omitempty" json:"description,omitempty"`
	Significance string `yaml:"significance,omitempty" json:"significance,omitempty"`
	Reference    string `yaml:"reference,omitempty" json:"reference,omitempty"`
}

// Byline picks whichever attribution variant the record carries.
func (s SubItem) Byline() string {
	return FirstNonEmpty(s.Author, s.Date, s.Period, s.Location)
}

// Resource is an external reading or purchase link.
type Resource struct {
	Title        string `yaml:"title" json:"title"`
	Author       string `yaml:"author,omitempty" json:"author,omitempty"`
	URL          string `yaml:"url" json:"url"`
	Type         string `yaml:"type,omitempty" json:"type,omitempty"`
	Description  string `yaml:"description,omitempty" json:"description,omitempty"`
	Affiliate    bool   `yaml:"affiliate,omitempty" json:"affiliate,omitempty"`
	AffiliateURL string `yaml:"affiliateUrl,omitempty" json:"affiliateUrl,omitempty"`
}

// ShowAffiliate reports whether the purchase action should be rendered.
func (r Resource) ShowAffiliate() bool {
	return r.Affiliate && strings.TrimSpace(r.AffiliateURL) != ""
}

// Link is a navigation card pointing at a sibling page or an external site.
type Link struct {
	Title       string `yaml:"title" json:"title"`
	Href        string `yaml:"href" json:"href"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Internal reports whether the link targets a page on this site.
func (l Link) Internal() bool {
	return strings.HasPrefix(l.Href, "/") && !strings.HasPrefix(l.Href, "//")
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// HeadTitle is the document title, falling back to the page title.
func (p *Page) HeadTitle() string {
	return FirstNonEmpty(p.Meta.Title, p.Title)
}

// CardCount is the number of topic cards the page renders.
func (p *Page) CardCount() int {
	n := 0
	for _, s := range p.Sections {
		n += len(s.Topics)
	}
	return n
}

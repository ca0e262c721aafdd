package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faithatlas/internal/content"
)

func newTestRenderer(t *testing.T, opts Options) *Renderer {
	t.Helper()
	r, err := New(opts)
	require.NoError(t, err)
	return r
}

func renderPage(t *testing.T, r *Renderer, page *content.Page) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.RenderPage(&buf, page, 6))
	return buf.String()
}

func medicinePage() *content.Page {
	return &content.Page{
		Slug:     "islamic-medicine",
		Title:    "Medicine in the Islamic Golden Age",
		Subtitle: "Hospitals & pharmacology",
		Meta: content.Meta{
			Title:       "Islamic Medicine",
			Description: "Physicians and texts of the golden age.",
			Keywords:    []string{"ibn sina", "al-razi"},
		},
		Sections: []content.Section{
			{
				Title: "Physicians",
				Topics: []content.Topic{
					{
						Name:        "Ibn Sina",
						Period:      "980–1037 CE",
						Description: "Author of the *Canon*.",
						Lists:       []content.List{{Label: "Fields", Items: []string{"Medicine", "Philosophy"}}},
						Groups: []content.Group{{Label: "Major Works", Items: []content.SubItem{
							{Title: "The Canon of Medicine", Date: "1025 CE"},
							{Title: "The Book of Healing"},
						}}},
						Significance: "Taught in Europe for centuries.",
					},
					{Name: "Al-Razi"},
					{Name: "Ibn al-Nafis"},
				},
			},
			{
				Title:  "Hospitals",
				Topics: []content.Topic{{Title: "Bimaristan"}},
			},
		},
		Related: []content.Link{
			{Title: "Islamic Art", Href: "/islamic-art", Description: "Calligraphy and architecture."},
			{Title: "Aqidah", Href: "/aqidah"},
		},
		Resources: []content.Resource{
			{
				Title:        "The Canon of Medicine",
				Author:       "Ibn Sina",
				URL:          "https://www.wdl.org/en/item/2839/",
				Type:         "Primary Text",
				Affiliate:    true,
				AffiliateURL: "https://www.amazon.com/dp/1871031672",
			},
			{Title: "Islamic Medicine", URL: "https://edinburghuniversitypress.com/book-islamic-medicine.html"},
		},
	}
}

func TestRenderPageOneCardPerElement(t *testing.T) {
	page := medicinePage()
	out := renderPage(t, newTestRenderer(t, Options{}), page)

	assert.Equal(t, page.CardCount(), strings.Count(out, `<article class="card"`))
	assert.Equal(t, len(page.Resources), strings.Count(out, `<article class="resource-card">`))
	assert.Equal(t, len(page.Related), strings.Count(out, `<a class="nav-card"`))
	assert.Equal(t, 2, strings.Count(out, `<li class="subitem">`))
	assert.Equal(t, 2, strings.Count(out, `<section class="section`))
}

func TestRenderPageKeepsSourceOrder(t *testing.T) {
	out := renderPage(t, newTestRenderer(t, Options{}), medicinePage())

	first := strings.Index(out, "Ibn Sina</h3>")
	second := strings.Index(out, "Al-Razi</h3>")
	third := strings.Index(out, "Ibn al-Nafis</h3>")
	require.True(t, first >= 0 && second >= 0 && third >= 0)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
}

func TestRenderPageAffiliateResource(t *testing.T) {
	page := &content.Page{
		Slug:  "islamic-medicine",
		Title: "Islamic Medicine",
		Resources: []content.Resource{{
			Title:        "The Canon of Medicine",
			Author:       "Ibn Sina",
			URL:          "https://www.wdl.org/en/item/2839/",
			Affiliate:    true,
			AffiliateURL: "https://amazon.com/dp/1871031672",
		}},
	}
	out := renderPage(t, newTestRenderer(t, Options{}), page)

	assert.Contains(t, out, `<h3 class="resource-title">The Canon of Medicine</h3>`)
	assert.Contains(t, out, `<p class="resource-author">by Ibn Sina</p>`)
	assert.Contains(t, out, `href="https://www.wdl.org/en/item/2839/" target="_blank" rel="noopener noreferrer">Learn More</a>`)
	assert.Contains(t, out, `href="https://amazon.com/dp/1871031672" target="_blank" rel="sponsored nofollow noopener">View on Amazon</a>`)
}

func TestRenderPageOmitsAffiliateActionUnlessFlagged(t *testing.T) {
	page := &content.Page{
		Slug:  "islamic-medicine",
		Title: "Islamic Medicine",
		Resources: []content.Resource{
			{Title: "Not flagged", URL: "https://example.com/a", AffiliateURL: "https://amazon.com/dp/1"},
			{Title: "Flagged without link", URL: "https://example.com/b", Affiliate: true},
		},
	}
	out := renderPage(t, newTestRenderer(t, Options{}), page)

	assert.Equal(t, 2, strings.Count(out, "Learn More"))
	assert.NotContains(t, out, "View on Amazon")
	assert.NotContains(t, out, "amazon.com")
}

func TestRenderPageOmitsAbsentOptionalFields(t *testing.T) {
	page := &content.Page{
		Slug:  "bare",
		Title: "Bare",
		Sections: []content.Section{{
			Title: "Only Titles",
			Topics: []content.Topic{{
				Title:  "Minimal",
				Lists:  []content.List{{Label: "", Items: []string{"unlabelled item"}}, {Label: "Empty", Items: nil}},
				Groups: []content.Group{{Label: "Works", Items: []content.SubItem{{Title: "Untitled Work"}}}},
			}},
		}},
		Resources: []content.Resource{{Title: "Link only", URL: "https://example.com"}},
	}
	out := renderPage(t, newTestRenderer(t, Options{}), page)

	assertNoEmptyMarkup(t, out)
	assert.NotContains(t, out, `class="related"`)
	assert.Contains(t, out, "<li>unlabelled item</li>")
	assert.Contains(t, out, "<h4>Works</h4>")
	assert.Contains(t, out, `<span class="subitem-title">Untitled Work</span>`)
}

func TestRenderPageTreatsBlankFieldsAsAbsent(t *testing.T) {
	page := &content.Page{
		Slug:     "blank",
		Title:    "Blank",
		Subtitle: "  ",
		Intro:    "\n",
		Meta:     content.Meta{Title: " ", Description: "\t", Keywords: []string{" ", ""}},
		Sections: []content.Section{{
			Title:  "Blanks",
			Intro:  " ",
			Layout: content.LayoutTabs,
			Topics: []content.Topic{
				{
					Title:        "T",
					Era:          " ",
					Description:  " ",
					Quote:        " ",
					Significance: " ",
					Lists:        []content.List{{Label: " ", Items: []string{" ", "kept"}}},
					Groups: []content.Group{{Label: "\t", Items: []content.SubItem{{
						Title: "Work", Author: " ", Description: " ", Significance: " ", Reference: " ",
					}}}},
				},
				{Lists: []content.List{{Items: []string{"No heading at all."}}}},
			},
		}},
		Resources: []content.Resource{{Title: "R", Author: " ", Type: " ", Description: " ", URL: "https://example.com"}},
		Related:   []content.Link{{Title: "Aqidah", Href: "/aqidah", Description: " "}},
	}
	out := renderPage(t, newTestRenderer(t, Options{}), page)

	assertNoEmptyMarkup(t, out)
	assert.Equal(t, 2, strings.Count(out, `<article class="card"`))
	assert.Equal(t, 1, strings.Count(out, `<h3 class="card-title">`))
	assert.Contains(t, out, `<a role="tab" href="#blanks-2">2</a>`, "a card without a heading is labelled by position")
	assert.Contains(t, out, "<li>kept</li>")
	assert.Contains(t, out, "<title>Blank | Faith Atlas</title>")
}

func assertNoEmptyMarkup(t *testing.T, out string) {
	t.Helper()
	for _, fragment := range []string{
		"undefined", "<nil>", "page-subtitle", "page-intro", "page-body", "section-intro",
		"card-subtitle", "card-description", "card-quote", "card-significance", "Significance:",
		"subitem-byline", "subitem-description", "subitem-significance", "subitem-reference",
		"resource-author", "resource-type", "resource-description", "nav-card-description",
		"<h3 class=\"card-title\"></h3>", "<h4></h4>", "<li></li>", "<h4> </h4>", ">Empty<",
		`name="description"`, `name="keywords"`,
	} {
		assert.NotContains(t, out, fragment)
	}
}

func TestRenderPageRendersPresentOptionalFields(t *testing.T) {
	out := renderPage(t, newTestRenderer(t, Options{}), medicinePage())

	assert.Contains(t, out, `<title>Islamic Medicine | Faith Atlas</title>`)
	assert.Contains(t, out, `<meta name="description" content="Physicians and texts of the golden age.">`)
	assert.Contains(t, out, `<meta name="keywords" content="ibn sina, al-razi">`)
	assert.Contains(t, out, `<p class="page-subtitle">Hospitals &amp; pharmacology</p>`)
	assert.Contains(t, out, `<p class="card-subtitle">980–1037 CE</p>`)
	assert.Contains(t, out, `Author of the <em>Canon</em>.`)
	assert.Contains(t, out, `<span class="subitem-byline">1025 CE</span>`)
	assert.Contains(t, out, `<strong>Significance:</strong> Taught in Europe for centuries.`)
	assert.Contains(t, out, `<span class="resource-type">Primary Text</span>`)
	assert.Contains(t, out, `<span class="nav-card-description">Calligraphy and architecture.</span>`)
}

func TestRenderPageIsDeterministic(t *testing.T) {
	r := newTestRenderer(t, Options{})
	page := medicinePage()

	first := renderPage(t, r, page)
	second := renderPage(t, r, page)
	assert.Equal(t, first, second)
	assert.Equal(t, medicinePage(), page, "rendering must not mutate content")
}

func TestRenderPageLayouts(t *testing.T) {
	page := &content.Page{
		Slug:  "dharma-traditions",
		Title: "Dharma Traditions",
		Sections: []content.Section{
			{Title: "Traditions", Layout: content.LayoutTabs, Topics: []content.Topic{{Name: "Hinduism"}, {Name: "Buddhism"}}},
			{Title: "Forms", Layout: content.LayoutAccordion, Topics: []content.Topic{{Name: "Calligraphy"}}},
			{Title: "Traditions", Topics: []content.Topic{{Name: "Jainism"}}},
		},
	}
	out := renderPage(t, newTestRenderer(t, Options{}), page)

	assert.Contains(t, out, `<section class="section section-tabs" id="traditions">`)
	assert.Contains(t, out, `<a role="tab" href="#traditions-1">Hinduism</a>`)
	assert.Contains(t, out, `<article class="card" id="traditions-2">`)
	assert.Contains(t, out, `<section class="section section-accordion" id="forms">`)
	assert.Contains(t, out, `<details><summary><h3 class="card-title">Calligraphy</h3>`)
	assert.Contains(t, out, `<section class="section section-grid" id="traditions-3">`, "ids already used by cards are skipped")
	assert.Contains(t, out, `<article class="card" id="traditions-3-1">`)
	assert.Equal(t, 1, strings.Count(out, `role="tablist"`))
}

func TestRenderPageEscapesContent(t *testing.T) {
	page := &content.Page{
		Slug:  "escape",
		Title: `Art & <b>Science</b>`,
		Sections: []content.Section{{Title: "S", Topics: []content.Topic{{
			Title:       "T",
			Description: `Before <script>alert(1)</script> after`,
		}}}},
	}
	out := renderPage(t, newTestRenderer(t, Options{}), page)

	assert.Contains(t, out, `<h1>Art &amp; &lt;b&gt;Science&lt;/b&gt;</h1>`)
	assert.NotContains(t, out, "<script>alert(1)</script>")
}

func TestRenderPageBasePath(t *testing.T) {
	page := medicinePage()
	page.Body = `<p><a href="/eschatology">end times</a> and <a href="https://example.com/">elsewhere</a></p>`
	out := renderPage(t, newTestRenderer(t, Options{BasePath: "/atlas/"}), page)

	assert.Contains(t, out, `<a class="nav-card" href="/atlas/islamic-art">`)
	assert.Contains(t, out, `<a href="/atlas/eschatology">end times</a>`)
	assert.Contains(t, out, `<a href="https://example.com/">elsewhere</a>`)
	assert.Contains(t, out, `<a class="site-title" href="/atlas/">`)
	assert.Contains(t, out, `href="https://www.wdl.org/en/item/2839/"`)
}

func TestRenderIndexAndSearch(t *testing.T) {
	r := newTestRenderer(t, Options{SiteTitle: "Atlas"})
	c, err := content.NewCatalog([]*content.Page{
		{Slug: "islamic-art", Title: "Islamic Art", Category: "Islam", Meta: content.Meta{Description: "Periods."}},
		{Slug: "aqidah", Title: "Aqidah", Category: "Islam"},
		{Slug: "dharma-traditions", Title: "Dharma Traditions", Category: "Dharmic Religions"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.RenderIndex(&buf, c.Categories(), c.Len()))
	index := buf.String()
	assert.Equal(t, 3, strings.Count(index, `<a class="nav-card" href="/`))
	assert.Equal(t, 2, strings.Count(index, `<section class="category">`))
	assert.Contains(t, index, `<span class="nav-card-description">Periods.</span>`)
	assert.Contains(t, index, `<title>Atlas</title>`)

	buf.Reset()
	require.NoError(t, r.RenderSearch(&buf, "islam", c.Search("islam", 0), c.Len()))
	search := buf.String()
	assert.Contains(t, search, `<a href="/islamic-art">Islamic Art</a>`)
	assert.Contains(t, search, "1 of 3 pages match.")
	assert.Contains(t, search, `value="islam"`)

	buf.Reset()
	require.NoError(t, r.RenderSearch(&buf, "zoroaster", nil, c.Len()))
	assert.Contains(t, buf.String(), "No pages match your search.")
}

func TestRenderNotFound(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestRenderer(t, Options{}).RenderNotFound(&buf, "missing-page", 6))
	assert.Contains(t, buf.String(), "<code>/missing-page</code>")
}

func TestRendererURL(t *testing.T) {
	for _, base := range []string{"atlas", "/atlas", "/atlas/", " /atlas/ "} {
		r := newTestRenderer(t, Options{BasePath: base})
		assert.Equal(t, "/atlas", r.BasePath(), base)
		assert.Equal(t, "/atlas/aqidah", r.URL("/aqidah"), base)
		assert.Equal(t, "/atlas/", r.URL("/"), base)
		assert.Equal(t, "https://example.com/", r.URL("https://example.com/"), base)
		assert.Equal(t, "//cdn.example.com/x", r.URL("//cdn.example.com/x"), base)
	}

	r := newTestRenderer(t, Options{BasePath: "/"})
	assert.Empty(t, r.BasePath())
	assert.Equal(t, "/aqidah", r.URL("/aqidah"))
}

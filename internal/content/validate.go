package content

import (
	"fmt"
	"strings"
)

// Problem is a single content defect found by Validate.
type Problem struct {
	Slug    string
	Field   string
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Slug, p.Field, p.Message)
}

// Validate checks every declared link in the catalog. Internal links must
// resolve to a known page, external links must be absolute http(s) URLs and
// affiliate resources must carry a purchase URL.
func Validate(c *Catalog) []Problem {
	var problems []Problem
	for _, p := range c.pages {
		report := func(field, format string, args ...any) {
			problems = append(problems, Problem{Slug: p.Slug, Field: field, Message: fmt.Sprintf(format, args...)})
		}

		if strings.TrimSpace(p.Title) == "" {
			report("title", "missing title")
		}

		for i, s := range p.Sections {
			field := fmt.Sprintf("sections[%d]", i)
			if !s.Layout.Valid() {
				report(field+".layout", "unknown layout %q", s.Layout)
			}
			for j, t := range s.Topics {
				if t.Heading() == "" {
					report(fmt.Sprintf("%s.topics[%d]", field, j), "topic has neither title nor name")
				}
			}
		}

		for i, l := range p.Related {
			field := fmt.Sprintf("related[%d].href", i)
			if l.Internal() {
				checkInternal(c, l.Href, func(msg string) { report(field, "%s", msg) })
				continue
			}
			if err := CheckExternalURL(l.Href); err != nil {
				report(field, "%v", err)
			}
		}

		for i, r := range p.Resources {
			field := fmt.Sprintf("resources[%d]", i)
			if err := CheckExternalURL(r.URL); err != nil {
				report(field+".url", "%v", err)
			}
			if r.Affiliate {
				if err := CheckExternalURL(r.AffiliateURL); err != nil {
					report(field+".affiliateUrl", "affiliate resource: %v", err)
				}
			} else if r.AffiliateURL != "" {
				report(field+".affiliateUrl", "affiliate url set but affiliate is false")
			}
		}

		for _, m := range bodyHref.FindAllStringSubmatch(string(p.Body), -1) {
			href := m[1]
			if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
				checkInternal(c, href, func(msg string) { report("body", "%s", msg) })
			} else if strings.HasPrefix(href, "#") {
				continue
			} else if err := CheckExternalURL(href); err != nil {
				report("body", "%v", err)
			}
		}
	}
	return problems
}

func checkInternal(c *Catalog, href string, report func(string)) {
	slug, ok := LinkedSlug(href)
	if !ok {
		report(fmt.Sprintf("malformed internal link %q", href))
		return
	}
	if _, known := c.bySlug[slug]; !known {
		report(fmt.Sprintf("link %q points at unknown page %q", href, slug))
	}
}

package content

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var bodyHref = regexp.MustCompile(`href="([^"]+)"`)

// LinkedSlug extracts the page slug an internal href points at. Query
// strings and fragments are ignored.
func LinkedSlug(href string) (string, bool) {
	if !strings.HasPrefix(href, "/") || strings.HasPrefix(href, "//") {
		return "", false
	}
	if idx := strings.IndexAny(href, "?#"); idx >= 0 {
		href = href[:idx]
	}
	slug := strings.Trim(href, "/")
	if slug == "" || strings.Contains(slug, "/") {
		return "", false
	}
	return slug, true
}

// internalHrefs lists every internal href a page declares, including links
// inside a Markdown body.
func internalHrefs(p *Page) []string {
	var out []string
	for _, l := range p.Related {
		if l.Internal() {
			out = append(out, l.Href)
		}
	}
	for _, m := range bodyHref.FindAllStringSubmatch(string(p.Body), -1) {
		if strings.HasPrefix(m[1], "/") && !strings.HasPrefix(m[1], "//") {
			out = append(out, m[1])
		}
	}
	return out
}

// CheckExternalURL reports whether raw is an absolute http(s) URL with a host.
func CheckExternalURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("empty url")
	}
	if raw != strings.TrimSpace(raw) {
		return fmt.Errorf("url %q has surrounding whitespace", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q is missing a host", raw)
	}
	return nil
}

package render

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"
)

var doubleQuoteHref = regexp.MustCompile(`href="(/[^"/][^"]*|/)"`)
var singleQuoteHref = regexp.MustCompile(`href='(/[^'/][^']*|/)'`)

// prefixInternalLinks rewrites root-relative hrefs in pre-rendered HTML so
// they resolve below basePath. Protocol-relative and external links are left
// alone.
func prefixInternalLinks(content template.HTML, basePath string) template.HTML {
	base := strings.TrimSuffix(basePath, "/")
	if base == "" {
		return content
	}

	rewrite := func(match string, re *regexp.Regexp) string {
		sub := re.FindStringSubmatch(match)
		if len(sub) != 2 {
			return match
		}
		href := sub[1]
		if href == base || strings.HasPrefix(href, base+"/") {
			return match
		}

		href = base + href
		if re == doubleQuoteHref {
			return fmt.Sprintf("href=\"%s\"", href)
		}
		return fmt.Sprintf("href='%s'", href)
	}

	out := doubleQuoteHref.ReplaceAllStringFunc(string(content), func(s string) string {
		return rewrite(s, doubleQuoteHref)
	})

	out = singleQuoteHref.ReplaceAllStringFunc(out, func(s string) string {
		return rewrite(s, singleQuoteHref)
	})

	return template.HTML(out)
}

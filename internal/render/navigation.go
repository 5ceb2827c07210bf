package render

import (
	"html"
	"path"
	"strings"
)

// Subpages appends a list of links to the page's subpages.
var Subpages = StageFunc(func(page Page, content []string) ([]string, error) {
	subpages := page.Subpages()
	if len(subpages) == 0 {
		return content, nil
	}
	items := make([]*ListItem, 0, len(subpages))
	for _, id := range subpages {
		items = append(items, &ListItem{Text: link(page.Website(), id)})
	}
	out := append([]string(nil), content...)
	out = append(out, "<hr>\n", "<h3>Subpages:</h3>\n")
	return append(out, Split(RenderList(items))...), nil
})

// Sitemap appends a nested list of every document in manifest order. Index
// pages sit at their directory's level; other pages one level below.
var Sitemap = StageFunc(func(page Page, content []string) ([]string, error) {
	site := page.Website()
	lines := make([]string, 0, len(site.Identifiers()))
	for _, id := range site.Identifiers() {
		lines = append(lines, strings.Repeat("\t", SitemapLevel(id))+"+ "+link(site, id))
	}
	out := append([]string(nil), content...)
	return append(out, Split(RenderList(CreateList(lines)))...), nil
})

// SitemapLevel is the nesting level of id in the sitemap listing.
func SitemapLevel(id string) int {
	level := strings.Count(strings.Trim(id, "/"), "/")
	if strings.HasPrefix(path.Base(id), "index.") {
		level--
	}
	return max(level, 0)
}

func link(site Website, id string) string {
	title := id
	if p, ok := site.Page(id); ok {
		title = p.FullTitle()
	}
	return `<a href="` + html.EscapeString(id) + `">` + html.EscapeString(title) + `</a>`
}

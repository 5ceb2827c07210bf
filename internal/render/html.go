package render

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io"
	"path"
	"strings"

	"golang.org/x/net/html"
)

var pageTemplate = htmltemplate.Must(htmltemplate.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Language}}">
<head>
<meta charset="{{.Charset}}">
<title>{{.FullTitle}}</title>
{{- with .Description}}
<meta name="description" content="{{.}}">
{{- end}}
{{- with .Keywords}}
<meta name="keywords" content="{{.}}">
{{- end}}
{{- with .Author}}
<meta name="author" content="{{.}}">
{{- end}}
{{- with .Stylesheet}}
<link rel="stylesheet" href="{{.}}">
{{- end}}
</head>
<body>
<nav>
{{- with .Parent}}<a href="{{.URL}}">{{.Title}}</a> / {{end -}}
{{- with .Sitemap}}<a href="{{.}}">Sitemap</a>{{end -}}
</nav>
<h1>{{.Title}}</h1>
{{- with .Subtitle}}
<h2>{{.}}</h2>
{{- end}}
{{.Body}}
{{- with .Copyright}}
<footer>{{.}}</footer>
{{- end}}
</body>
</html>
`))

type pageLink struct {
	URL   string
	Title string
}

type pageData struct {
	Language    string
	Charset     string
	Title       string
	FullTitle   string
	Subtitle    string
	Description string
	Keywords    string
	Author      string
	Stylesheet  string
	Copyright   string
	Sitemap     string
	Parent      *pageLink
	Body        htmltemplate.HTML
}

// Template wraps the content in a complete HTML page built from metadata.
var Template = StageFunc(func(page Page, content []string) ([]string, error) {
	data := pageData{
		Language:  "en",
		Charset:   "utf-8",
		Title:     page.FullTitle(),
		FullTitle: page.FullTitle(),
		Body:      htmltemplate.HTML(Join(content)),
	}
	if v, ok := getString(page, "title"); ok {
		data.Title = v
	}
	for key, dst := range map[string]*string{
		"language":    &data.Language,
		"charset":     &data.Charset,
		"subtitle":    &data.Subtitle,
		"description": &data.Description,
		"keywords":    &data.Keywords,
		"author":      &data.Author,
		"stylesheet":  &data.Stylesheet,
		"copyright":   &data.Copyright,
	} {
		if v, ok := getString(page, key); ok {
			*dst = v
		}
	}

	site := page.Website()
	if parentID := page.ParentIdentifier(); parentID != page.Identifier() {
		if parent, ok := site.Page(parentID); ok {
			data.Parent = &pageLink{URL: parentID, Title: parent.FullTitle()}
		}
	}
	if id := site.SitemapIdentifier(); id != page.Identifier() {
		data.Sitemap = id
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute page template: %w", err)
	}
	return Split(buf.String()), nil
})

// Relative rewrites site-absolute href and src attributes ("/a/b.html") into
// paths relative to the page, so the output tree can be browsed from disk.
var Relative = StageFunc(func(page Page, content []string) ([]string, error) {
	z := html.NewTokenizer(strings.NewReader(Join(content)))
	var b strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() == io.EOF {
				break
			}
			return nil, fmt.Errorf("tokenize html: %w", z.Err())
		}
		raw := append([]byte(nil), z.Raw()...)
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			tok := z.Token()
			changed := false
			for i, attr := range tok.Attr {
				if (attr.Key == "href" || attr.Key == "src") && isSiteAbsolute(attr.Val) {
					tok.Attr[i].Val = RelativeURL(page.Identifier(), attr.Val)
					changed = true
				}
			}
			if changed {
				b.WriteString(tok.String())
				continue
			}
		}
		b.Write(raw)
	}
	return Split(b.String()), nil
})

func isSiteAbsolute(v string) bool {
	return strings.HasPrefix(v, "/") && !strings.HasPrefix(v, "//")
}

// RelativeURL expresses the site-absolute target relative to the directory
// of the document identified by from. Query and fragment are preserved.
func RelativeURL(from, target string) string {
	suffix := ""
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target, suffix = target[:i], target[i:]
	}

	var fromDir []string
	if d := strings.Trim(path.Dir(from), "/"); d != "" && d != "." {
		fromDir = strings.Split(d, "/")
	}
	to := strings.Split(strings.TrimPrefix(target, "/"), "/")

	i := 0
	for i < len(fromDir) && i < len(to)-1 && fromDir[i] == to[i] {
		i++
	}
	parts := make([]string, 0, len(fromDir)-i+len(to)-i)
	for range fromDir[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[i:]...)

	rel := strings.Join(parts, "/")
	if rel == "" {
		rel = "./"
	}
	return rel + suffix
}

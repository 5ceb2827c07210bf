package render

import (
	"html"
	"strings"

	"git.home.luguber.info/inful/zensite/internal/literal"
)

// ListItem is one entry of a nested list built by CreateList.
type ListItem struct {
	Text     string
	Children []*ListItem
}

// CreateList turns `+ item` lines into a nested list. Each leading tab
// nests one level deeper under the previous item; skipping levels inserts
// empty items.
func CreateList(lines []string) []*ListItem {
	var roots []*ListItem
	levels := []*[]*ListItem{&roots}
	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		trimmed := strings.TrimLeft(line, "\t")
		depth := len(line) - len(trimmed)
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(trimmed), "+"))

		if depth < len(levels) {
			levels = levels[:depth+1]
		}
		for depth >= len(levels) {
			current := levels[len(levels)-1]
			if len(*current) == 0 {
				*current = append(*current, &ListItem{})
			}
			parent := (*current)[len(*current)-1]
			levels = append(levels, &parent.Children)
		}
		target := levels[depth]
		*target = append(*target, &ListItem{Text: text})
	}
	return roots
}

// CreateHash collects `%- term` / `%= definition` lines into an ordered map.
// A definition applies to the most recent term; later definitions of the
// same term win.
func CreateHash(lines []string) *literal.Map {
	result := literal.NewMap()
	var key string
	haveKey := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "%-"):
			key = strings.TrimSpace(strings.TrimPrefix(line, "%-"))
			haveKey = true
		case strings.HasPrefix(line, "%="):
			if haveKey {
				result.Set(key, literal.NewString(strings.TrimSpace(strings.TrimPrefix(line, "%="))))
			}
		}
	}
	return result
}

// RenderList writes items as nested <ul> elements. Item text is emitted
// as-is so it may contain markup.
func RenderList(items []*ListItem) string {
	var b strings.Builder
	writeList(&b, items)
	return b.String()
}

func writeList(b *strings.Builder, items []*ListItem) {
	b.WriteString("<ul>\n")
	for _, item := range items {
		b.WriteString("<li>")
		b.WriteString(item.Text)
		if len(item.Children) > 0 {
			b.WriteString("\n")
			writeList(b, item.Children)
		}
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>\n")
}

// TextToHTML converts the plain text conventions used by content files:
//
//	** Heading          <h2>
//	*** Subheading      <h3>
//	+ item (tabs nest)  <ul>
//	%- term / %= def    <dl>
//	= preformatted      <pre>
//	---                 <hr>
//	<tag ...>           passed through
//
// Paragraphs are separated by blank lines; anything else becomes <p>.
var TextToHTML = StageFunc(func(_ Page, content []string) ([]string, error) {
	var b strings.Builder
	for _, para := range paragraphs(content) {
		first := strings.TrimLeft(para[0], "\t ")
		switch {
		case strings.HasPrefix(first, "** ") || strings.HasPrefix(first, "*** "):
			writeHeadings(&b, para)
		case strings.HasPrefix(strings.TrimLeft(para[0], "\t"), "+"):
			b.WriteString(RenderList(CreateList(para)))
		case strings.HasPrefix(first, "%-"):
			writeDefinitions(&b, CreateHash(para))
		case strings.HasPrefix(first, "="):
			b.WriteString("<pre>")
			for _, line := range para {
				b.WriteString(html.EscapeString(strings.TrimPrefix(strings.TrimPrefix(line, "="), " ")))
				b.WriteString("\n")
			}
			b.WriteString("</pre>\n")
		case len(para) == 1 && strings.TrimSpace(first) == "---":
			b.WriteString("<hr>\n")
		case strings.HasPrefix(first, "<"):
			b.WriteString(strings.Join(para, "\n"))
			b.WriteString("\n")
		default:
			b.WriteString("<p>")
			b.WriteString(strings.Join(para, "\n"))
			b.WriteString("</p>\n")
		}
		b.WriteString("\n")
	}
	return Split(b.String()), nil
})

func writeHeadings(b *strings.Builder, para []string) {
	for _, line := range para {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "*** "):
			b.WriteString("<h3>" + strings.TrimSpace(line[4:]) + "</h3>\n")
		case strings.HasPrefix(line, "** "):
			b.WriteString("<h2>" + strings.TrimSpace(line[3:]) + "</h2>\n")
		default:
			b.WriteString("<p>" + line + "</p>\n")
		}
	}
}

func writeDefinitions(b *strings.Builder, defs *literal.Map) {
	b.WriteString("<dl>\n")
	defs.Each(func(term string, def literal.Value) {
		b.WriteString("<dt>" + term + "</dt>\n<dd>" + def.String() + "</dd>\n")
	})
	b.WriteString("</dl>\n")
}

// paragraphs groups lines separated by blank lines; terminators are dropped.
func paragraphs(content []string) [][]string {
	var out [][]string
	var cur []string
	for _, raw := range content {
		line := strings.TrimRight(raw, "\r\n")
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

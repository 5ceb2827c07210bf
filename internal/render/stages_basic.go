package render

import (
	"fmt"
	"regexp"
	"strings"
)

// CompositeKey lists the children of a CompositeRenderer stage.
const CompositeKey = "composite_renderers"

// Generic passes content through unchanged.
var Generic = StageFunc(func(_ Page, content []string) ([]string, error) {
	return content, nil
})

// compositeFactory builds a Composite from the page's composite_renderers key.
func compositeFactory(reg *Registry, page Page) (Stage, error) {
	v, ok := page.Get(CompositeKey)
	if !ok {
		return NewComposite(), nil
	}
	names, ok := v.Strings()
	if !ok {
		return nil, fmt.Errorf("%s must be a list of stage names", CompositeKey)
	}
	for _, name := range names {
		if name == "CompositeRenderer" {
			return nil, fmt.Errorf("%s cannot contain CompositeRenderer", CompositeKey)
		}
	}
	return reg.Build(page, names)
}

var bodyOpen = regexp.MustCompile(`(?i)<body[\s>]`)
var bodyClose = regexp.MustCompile(`(?i)</body>`)

// Header inserts the `header` metadata value after the opening body tag, or
// at the top when there is none.
var Header = StageFunc(func(page Page, content []string) ([]string, error) {
	header, ok := getString(page, "header")
	if !ok {
		return content, nil
	}
	at := 0
	for i, line := range content {
		if bodyOpen.MatchString(line) {
			at = i + 1
			break
		}
	}
	return insertLines(content, at, Split(ensureNewline(header))), nil
})

// Footer inserts the `footer` metadata value before the closing body tag, or
// at the end when there is none.
var Footer = StageFunc(func(page Page, content []string) ([]string, error) {
	footer, ok := getString(page, "footer")
	if !ok {
		return content, nil
	}
	at := len(content)
	for i := len(content) - 1; i >= 0; i-- {
		if bodyClose.MatchString(content[i]) {
			at = i
			break
		}
	}
	if at == len(content) && at > 0 && !strings.HasSuffix(content[at-1], "\n") {
		content = append([]string(nil), content...)
		content[at-1] += "\n"
	}
	return insertLines(content, at, Split(ensureNewline(footer))), nil
})

var placeholder = regexp.MustCompile(`#\{([\w.-]+)\}`)

// Metadata substitutes #{key} with the scalar value of key. Unknown keys are
// left untouched.
var Metadata = StageFunc(func(page Page, content []string) ([]string, error) {
	out := make([]string, len(content))
	for i, line := range content {
		out[i] = placeholder.ReplaceAllStringFunc(line, func(m string) string {
			key := placeholder.FindStringSubmatch(m)[1]
			if v, ok := getString(page, key); ok {
				return v
			}
			return m
		})
	}
	return out, nil
})

var (
	preBlock    = regexp.MustCompile(`(?is)<pre\b.*?</pre>`)
	betweenTags = regexp.MustCompile(`>\s+<`)
)

// Compact removes whitespace between tags outside of <pre> blocks.
var Compact = StageFunc(func(_ Page, content []string) ([]string, error) {
	text := Join(content)
	var b strings.Builder
	last := 0
	for _, loc := range preBlock.FindAllStringIndex(text, -1) {
		b.WriteString(betweenTags.ReplaceAllString(text[last:loc[0]], "><"))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(betweenTags.ReplaceAllString(text[last:], "><"))
	return Split(b.String()), nil
})

func insertLines(content []string, at int, lines []string) []string {
	out := make([]string, 0, len(content)+len(lines))
	out = append(out, content[:at]...)
	out = append(out, lines...)
	return append(out, content[at:]...)
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

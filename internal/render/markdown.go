package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// markdown is shared; goldmark converters are safe for concurrent use.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	// Documents mix raw HTML with markdown.
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// Markdown converts markdown content to HTML.
var Markdown = StageFunc(func(_ Page, content []string) ([]string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(Join(content)), &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return Split(buf.String()), nil
})

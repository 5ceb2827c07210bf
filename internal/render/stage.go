// Package render implements the per-document render pipeline: an ordered
// chain of named stages, each turning content lines into content lines.
//
// Stages are looked up by name in a Registry populated at startup. A
// document's `renderers` metadata key lists the stage names to run; the
// Registry assembles them into a Composite.
package render

import (
	"errors"
	"strings"

	"git.home.luguber.info/inful/zensite/internal/literal"
)

// ErrStageNotImplemented is the cause of every unknown-stage failure.
var ErrStageNotImplemented = errors.New("stage not implemented")

// Page is the document view available to stages.
type Page interface {
	Identifier() string
	Get(key string) (literal.Value, bool)
	FullTitle() string
	ParentIdentifier() string
	Subpages() []string
	Website() Website
}

// Website gives stages read access to the other documents of the site.
type Website interface {
	Page(id string) (Page, bool)
	Identifiers() []string
	SitemapIdentifier() string
}

// Stage transforms content. Lines carry their line terminators, so joining
// them with "" reproduces the text.
type Stage interface {
	Render(page Page, content []string) ([]string, error)
}

// StageFunc adapts a function to Stage.
type StageFunc func(page Page, content []string) ([]string, error)

func (f StageFunc) Render(page Page, content []string) ([]string, error) {
	return f(page, content)
}

// Factory builds the stage instance used for one document. The registry is
// passed so composite stages can resolve their children.
type Factory func(reg *Registry, page Page) (Stage, error)

// Join concatenates content lines.
func Join(content []string) string {
	return strings.Join(content, "")
}

// Split breaks text into lines, keeping each line's terminator.
func Split(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func getString(page Page, key string) (string, bool) {
	v, ok := page.Get(key)
	if !ok || !v.IsScalar() {
		return "", false
	}
	return v.String(), true
}

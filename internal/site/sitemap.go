package site

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/zensite/internal/literal"
	"git.home.luguber.info/inful/zensite/internal/logfields"
)

var (
	manifestComment = regexp.MustCompile(`\s*#.*`)
	identifierToken = regexp.MustCompile(`^[/\-_~.\w]+$`)
)

// Sitemap is the document whose content lists every identifier of the site,
// one per line, in render order. It is registered under its own identifier
// when it lists itself.
type Sitemap struct {
	*Document
	documents map[string]*Document
	order     []string
}

func newSitemap(s *Site, id string) (*Sitemap, error) {
	doc, err := newDocument(s, id)
	if err != nil {
		return nil, err
	}
	md, err := doc.Metadata()
	if err != nil {
		return nil, err
	}

	sm := &Sitemap{Document: doc, documents: make(map[string]*Document)}
	for i, line := range doc.content {
		text := strings.TrimSpace(manifestComment.ReplaceAllString(line, ""))
		if text == "" {
			continue
		}
		if !identifierToken.MatchString(text) {
			s.logger.Warn("sitemap syntax error",
				logfields.File(doc.sourcePath),
				logfields.Line(doc.lineNos[i]),
				slog.String("text", text))
			continue
		}
		if escapesRoot(text) {
			s.logger.Warn("sitemap identifier leaves the site root",
				logfields.File(doc.sourcePath),
				logfields.Line(doc.lineNos[i]),
				slog.String("text", text))
			continue
		}
		if err := sm.register(text); err != nil {
			return nil, err
		}
	}

	md.SetDefault("title", literal.NewString("SiteMap"))
	md.SetDefault("description", literal.NewString("This page links to every page in the website."))
	md.SetDefault("keywords", literal.NewString("sitemap, website"))
	return sm, nil
}

// register adds id in manifest order. A repeated identifier keeps its first
// position and its latest Document.
func (sm *Sitemap) register(id string) error {
	doc := sm.Document
	if id != sm.id {
		var err error
		if doc, err = newDocument(sm.site, id); err != nil {
			return err
		}
	}
	if _, seen := sm.documents[id]; !seen {
		sm.order = append(sm.order, id)
	}
	sm.documents[id] = doc
	return nil
}

// escapesRoot reports whether id has a ".." segment, which would map it to
// files outside the data and output roots.
func escapesRoot(id string) bool {
	return slices.Contains(strings.Split(id, "/"), "..")
}

package site

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	foundationerrors "git.home.luguber.info/inful/zensite/internal/foundation/errors"
	"git.home.luguber.info/inful/zensite/internal/literal"
	"git.home.luguber.info/inful/zensite/internal/logfields"
	"git.home.luguber.info/inful/zensite/internal/metadata"
	"git.home.luguber.info/inful/zensite/internal/render"
)

const sourceSuffix = ".html"

// Document is one page of the site. Metadata and content are loaded on
// first use and kept for the rest of the build.
type Document struct {
	id         string
	site       *Site
	sourcePath string
	outputPath string
	subpages   []string

	once    sync.Once
	loadErr error
	meta    *metadata.Metadata
	content []string
	lineNos []int
}

func newDocument(s *Site, id string) (*Document, error) {
	if id == "" {
		return nil, foundationerrors.ValidationError("document identifier is empty").Build()
	}
	if s == nil {
		return nil, foundationerrors.InternalError("document has no site").
			WithContext("document", id).
			Build()
	}
	d := &Document{
		id:         id,
		site:       s,
		sourcePath: SourcePath(s.dataDir, id),
		outputPath: OutputPath(s.outputDir, id),
	}
	info, err := os.Stat(d.sourcePath)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryNotFound, "document source does not exist").
			Fatal().
			WithContext("document", id).
			WithContext("path", d.sourcePath).
			Build()
	}
	if info.IsDir() {
		return nil, foundationerrors.ValidationError("document source is a directory").
			WithContext("document", id).
			WithContext("path", d.sourcePath).
			Build()
	}
	return d, nil
}

// SourcePath maps an identifier to its content file: the .html suffix is
// dropped and '~' characters are removed.
func SourcePath(dataDir, id string) string {
	rel := strings.ReplaceAll(strings.TrimSuffix(id, sourceSuffix), "~", "")
	return filepath.Join(dataDir, filepath.FromSlash(rel))
}

// OutputPath maps an identifier to its rendered file, with '~' removed.
func OutputPath(outputDir, id string) string {
	return filepath.Join(outputDir, filepath.FromSlash(strings.ReplaceAll(id, "~", "")))
}

// ParentIdentifier derives the parent from the identifier alone:
//
//	/a/X/Y.html      -> /a/X/index.html
//	/a/X/index.html  -> /a/index.html
//	/index.html      -> /index.html (no parent)
func ParentIdentifier(id string) string {
	dir, base := path.Split(id)
	if base == "" {
		return id
	}
	ext := path.Ext(base)
	if ext == "" {
		ext = sourceSuffix
	}
	index := "index" + ext
	if base != index {
		return dir + index
	}
	if dir == "/" || dir == "" {
		return id
	}
	up := path.Dir(strings.TrimSuffix(dir, "/"))
	switch up {
	case "/":
		return "/" + index
	case ".":
		return index
	}
	return up + "/" + index
}

func (d *Document) Identifier() string { return d.id }
func (d *Document) SourcePath() string { return d.sourcePath }
func (d *Document) OutputPath() string { return d.outputPath }

// Dir is the directory holding the document's source file.
func (d *Document) Dir() string { return filepath.Dir(d.sourcePath) }

func (d *Document) ParentIdentifier() string { return ParentIdentifier(d.id) }

// Parent returns the parent document, if it is part of the site and is not
// the document itself.
func (d *Document) Parent() (*Document, bool) {
	pid := d.ParentIdentifier()
	if pid == d.id {
		return nil, false
	}
	return d.site.Document(pid)
}

// AddSubpage appends a child identifier. A document is never its own child.
func (d *Document) AddSubpage(id string) {
	if id == d.id {
		return
	}
	d.subpages = append(d.subpages, id)
}

func (d *Document) Subpages() []string {
	return append([]string(nil), d.subpages...)
}

func (d *Document) Website() render.Website { return d.site }

// Metadata returns the document's resolved metadata: the directory cascade
// from the data root down to the document's directory, overridden by inline
// `# key = value` lines of the source file.
func (d *Document) Metadata() (*metadata.Metadata, error) {
	d.once.Do(d.load)
	return d.meta, d.loadErr
}

// Get looks up a metadata key. A document whose metadata cannot be loaded
// has no keys; Render reports the load error.
func (d *Document) Get(key string) (literal.Value, bool) {
	md, err := d.Metadata()
	if err != nil {
		return literal.Value{}, false
	}
	return md.Get(key)
}

func (d *Document) Set(key string, v literal.Value) {
	if md, err := d.Metadata(); err == nil {
		md.Set(key, v)
	}
}

// Content returns the source lines that are not inline metadata, each with
// its line terminator.
func (d *Document) Content() []string {
	if _, err := d.Metadata(); err != nil {
		return nil
	}
	return d.content
}

// FullTitle is "title: subtitle", falling back to a title derived from the
// identifier when no title is set.
func (d *Document) FullTitle() string {
	title, ok := d.stringValue("title")
	if !ok {
		title = fallbackTitle(d.id)
	}
	if subtitle, ok := d.stringValue("subtitle"); ok && subtitle != "" {
		return title + ": " + subtitle
	}
	return title
}

func (d *Document) stringValue(key string) (string, bool) {
	v, ok := d.Get(key)
	if !ok || !v.IsScalar() {
		return "", false
	}
	return v.String(), true
}

func fallbackTitle(id string) string {
	dir, base := path.Split(id)
	name := strings.TrimSuffix(base, path.Ext(base))
	if name == "index" || name == "" {
		name = path.Base(strings.TrimSuffix(dir, "/"))
		if name == "/" || name == "." || name == "" {
			return "Home"
		}
	}
	name = strings.NewReplacer("-", " ", "_", " ", "~", "").Replace(name)
	// Casers keep state and cannot be shared between render goroutines.
	return cases.Title(language.English).String(name)
}

// Stale reports whether the output is missing or older than the source.
// Metadata files and the manifest are not taken into account.
func (d *Document) Stale() (bool, error) {
	src, err := os.Stat(d.sourcePath)
	if err != nil {
		return false, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "stat source").
			Fatal().
			WithContext("document", d.id).
			Build()
	}
	out, err := os.Stat(d.outputPath)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "stat output").
			Fatal().
			WithContext("document", d.id).
			Build()
	}
	return src.ModTime().After(out.ModTime()), nil
}

// Render runs the document's pipeline and writes the output when the
// document is stale. It reports whether a render happened.
func (d *Document) Render(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	stale, err := d.Stale()
	if err != nil || !stale {
		return false, err
	}
	if _, err := d.Metadata(); err != nil {
		return false, err
	}

	pipeline, err := d.site.registry.Pipeline(d)
	if err != nil {
		return false, d.renderError(err)
	}
	out, err := pipeline.Render(d, d.content)
	if err != nil {
		return false, d.renderError(err)
	}

	if err := os.MkdirAll(filepath.Dir(d.outputPath), 0o755); err != nil {
		return false, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "create output directory").
			Fatal().
			WithContext("document", d.id).
			WithContext("path", filepath.Dir(d.outputPath)).
			Build()
	}
	if err := atomic.WriteFile(d.outputPath, strings.NewReader(render.Join(out))); err != nil {
		return false, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "write output").
			Fatal().
			WithContext("document", d.id).
			WithContext("path", d.outputPath).
			Build()
	}
	return true, nil
}

func (d *Document) renderError(err error) error {
	if ce, ok := foundationerrors.AsClassified(err); ok && ce.Category() == foundationerrors.CategoryRender {
		return ce.WithContext("document", d.id)
	}
	return foundationerrors.WrapError(err, foundationerrors.CategoryRender, "render failed").
		WithContext("document", d.id).
		Build()
}

func (d *Document) load() {
	md, err := metadata.Resolve(d.site.cache, d.sourcePath, d.site.dataDir)
	if err != nil {
		d.loadErr = err
		return
	}
	f, err := os.Open(d.sourcePath)
	if err != nil {
		d.loadErr = foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "open document source").
			Fatal().
			WithContext("document", d.id).
			Build()
		return
	}
	defer func() { _ = f.Close() }()

	r := bufio.NewReader(f)
	for lineNo := 1; ; lineNo++ {
		line, err := r.ReadString('\n')
		if line != "" {
			d.scanLine(md, line, lineNo)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			d.loadErr = foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "read document source").
				Fatal().
				WithContext("document", d.id).
				Build()
			return
		}
	}
	d.meta = md
}

func (d *Document) scanLine(md *metadata.Metadata, line string, lineNo int) {
	key, value, matched, err := metadata.ParseInline(strings.TrimRight(line, "\r\n"))
	switch {
	case !matched:
		d.content = append(d.content, line)
		d.lineNos = append(d.lineNos, lineNo)
	case err != nil:
		d.site.logger.Warn("cannot parse literal",
			logfields.Document(d.id),
			logfields.File(d.sourcePath),
			logfields.Line(lineNo),
			slog.String("text", strings.TrimSpace(line)),
			logfields.Error(err))
	default:
		md.Set(key, value)
	}
}

func (d *Document) String() string {
	return fmt.Sprintf("Document(%s)", d.id)
}

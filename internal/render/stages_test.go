package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/zensite/internal/literal"
)

func render(t *testing.T, stage Stage, page Page, text string) string {
	t.Helper()
	out, err := stage.Render(page, Split(text))
	require.NoError(t, err)
	return Join(out)
}

func TestCreateList(t *testing.T) {
	items := CreateList([]string{
		"+ a\n",
		"\t+ a1\n",
		"\t+ a2\n",
		"\t\t\t+ deep\n",
		"+ b\n",
	})
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Text)
	require.Len(t, items[0].Children, 2)
	assert.Equal(t, "a2", items[0].Children[1].Text)

	// Skipped level gets a placeholder item.
	skipped := items[0].Children[1].Children
	require.Len(t, skipped, 1)
	assert.Equal(t, "", skipped[0].Text)
	require.Len(t, skipped[0].Children, 1)
	assert.Equal(t, "deep", skipped[0].Children[0].Text)

	assert.Equal(t, "b", items[1].Text)
}

func TestRenderList(t *testing.T) {
	got := RenderList(CreateList([]string{"+ a", "\t+ b"}))
	assert.Equal(t, "<ul>\n<li>a\n<ul>\n<li>b</li>\n</ul>\n</li>\n</ul>\n", got)
}

func TestCreateHash(t *testing.T) {
	h := CreateHash([]string{
		"%= orphan",
		"%- one",
		"%= first",
		"%- two",
		"%= second",
		"%- one",
		"%= replaced",
	})
	assert.Equal(t, []string{"one", "two"}, h.Keys())
	v, _ := h.Get("one")
	assert.Equal(t, "replaced", v.String())
}

func TestTextToHTML(t *testing.T) {
	in := "** Title\n\n" +
		"Some text\nmore text\n\n" +
		"+ item\n\t+ nested\n\n" +
		"%- term\n%= definition\n\n" +
		"= a < b\n\n" +
		"---\n\n" +
		"<div>raw</div>\n"
	got := render(t, TextToHTML, nil, in)

	assert.Contains(t, got, "<h2>Title</h2>")
	assert.Contains(t, got, "<p>Some text\nmore text</p>")
	assert.Contains(t, got, "<li>item\n<ul>\n<li>nested</li>")
	assert.Contains(t, got, "<dt>term</dt>\n<dd>definition</dd>")
	assert.Contains(t, got, "<pre>a &lt; b\n</pre>")
	assert.Contains(t, got, "<hr>")
	assert.Contains(t, got, "<div>raw</div>")
	assert.NotContains(t, got, "<p><div>")
}

func TestMarkdown(t *testing.T) {
	got := render(t, Markdown, nil, "# Hello\n\nSome *text* and <span>raw</span>.\n")
	assert.Contains(t, got, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, got, "<em>text</em>")
	assert.Contains(t, got, "<span>raw</span>")
}

func TestHeaderAndFooter(t *testing.T) {
	page := newFakeSite().add("/a.html", "A", "/index.html").
		set("header", literal.NewString("<header>top</header>")).
		set("footer", literal.NewString("<footer>end</footer>"))

	withBody := "<html>\n<body class=\"x\">\ncontent\n</body>\n</html>\n"
	got := render(t, Header, page, withBody)
	got = render(t, Footer, page, got)
	assert.Equal(t, "<html>\n<body class=\"x\">\n<header>top</header>\ncontent\n<footer>end</footer>\n</body>\n</html>\n", got)

	bare := render(t, Header, page, "content")
	bare = render(t, Footer, page, bare)
	assert.Equal(t, "<header>top</header>\ncontent\n<footer>end</footer>\n", bare)
}

func TestHeaderWithoutMetadataIsNoop(t *testing.T) {
	page := newFakeSite().add("/a.html", "A", "/index.html")
	assert.Equal(t, "content\n", render(t, Header, page, "content\n"))
	assert.Equal(t, "content\n", render(t, Footer, page, "content\n"))
}

func TestMetadataSubstitution(t *testing.T) {
	page := newFakeSite().add("/a.html", "A", "/index.html").
		set("author", literal.NewString("Ann")).
		set("year", literal.NewInt(2024)).
		set("tags", names("x"))

	got := render(t, Metadata, page, "by #{author} in #{year}\n#{tags} #{missing}\n")
	assert.Equal(t, "by Ann in 2024\n#{tags} #{missing}\n", got)
}

func TestCompactKeepsPre(t *testing.T) {
	got := render(t, Compact, nil, "<ul>\n  <li>a</li>\n</ul>\n<pre>\n<b>x</b>\n  <i>y</i>\n</pre>\n<p>\n</p>\n")
	assert.Equal(t, "<ul><li>a</li></ul>\n<pre>\n<b>x</b>\n  <i>y</i>\n</pre>\n<p></p>\n", got)
}

func TestRelativeURL(t *testing.T) {
	cases := []struct {
		from, target, want string
	}{
		{"/a/b.html", "/a/c.html", "c.html"},
		{"/index.html", "/a/b.html", "a/b.html"},
		{"/a/b/c.html", "/x.html", "../../x.html"},
		{"/a/b/c.html", "/a/d/e.html", "../d/e.html"},
		{"/a/b.html", "/a/", "./"},
		{"/a/b.html", "/a/c.html#top", "c.html#top"},
		{"/a/b.html", "/s.css?v=1", "../s.css?v=1"},
		{"/a.html", "/", "./"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RelativeURL(tc.from, tc.target), "%s -> %s", tc.from, tc.target)
	}
}

func TestRelativeStage(t *testing.T) {
	page := newFakeSite().add("/a/b.html", "B", "/a/index.html")
	in := "<p><a href=\"/a/c.html\">c</a> <a href=\"//cdn.example/x.js\">cdn</a>\n" +
		"<a href=\"http://example.com/\">ext</a><img src=\"/img/x.png\" alt=\"x\"></p>\n"
	got := render(t, Relative, page, in)
	assert.Equal(t, "<p><a href=\"c.html\">c</a> <a href=\"//cdn.example/x.js\">cdn</a>\n"+
		"<a href=\"http://example.com/\">ext</a><img src=\"../img/x.png\" alt=\"x\"></p>\n", got)
}

func TestSitemapLevel(t *testing.T) {
	assert.Equal(t, 0, SitemapLevel("/index.html"))
	assert.Equal(t, 0, SitemapLevel("/SiteMap.html"))
	assert.Equal(t, 0, SitemapLevel("/a/index.html"))
	assert.Equal(t, 1, SitemapLevel("/a/b.html"))
	assert.Equal(t, 1, SitemapLevel("/a/b/index.html"))
	assert.Equal(t, 2, SitemapLevel("/a/b/c.html"))
}

func TestSitemapStage(t *testing.T) {
	site := newFakeSite()
	site.add("/index.html", "Home", "/index.html")
	site.add("/a/index.html", "Home: A", "/index.html")
	site.add("/a/b.html", "Home: A: B & C", "/a/index.html")
	sm := site.add("/SiteMap.html", "Home: SiteMap", "/index.html")

	got := render(t, Sitemap, sm, "<h1>Map</h1>\n")
	assert.Equal(t, "<h1>Map</h1>\n"+
		"<ul>\n"+
		"<li><a href=\"/index.html\">Home</a></li>\n"+
		"<li><a href=\"/a/index.html\">Home: A</a>\n"+
		"<ul>\n<li><a href=\"/a/b.html\">Home: A: B &amp; C</a></li>\n</ul>\n"+
		"</li>\n"+
		"<li><a href=\"/SiteMap.html\">Home: SiteMap</a></li>\n"+
		"</ul>\n", got)
}

func TestSubpagesStage(t *testing.T) {
	site := newFakeSite()
	idx := site.add("/index.html", "Home", "/index.html")
	site.add("/a.html", "Home: A", "/index.html")
	idx.subs = []string{"/a.html"}

	got := render(t, Subpages, idx, "body\n")
	assert.Equal(t, "body\n<hr>\n<h3>Subpages:</h3>\n<ul>\n<li><a href=\"/a.html\">Home: A</a></li>\n</ul>\n", got)

	leaf, _ := site.Page("/a.html")
	assert.Equal(t, "x\n", render(t, Subpages, leaf, "x\n"))
}

func TestTemplate(t *testing.T) {
	site := newFakeSite()
	site.add("/index.html", "Home", "/index.html")
	page := site.add("/a.html", "Home: A", "/index.html").
		set("title", literal.NewString("A")).
		set("description", literal.NewString("About <A>")).
		set("stylesheet", literal.NewString("/style.css"))

	got := render(t, Template, page, "<p>body</p>\n")
	assert.Contains(t, got, "<title>Home: A</title>")
	assert.Contains(t, got, `<meta name="description" content="About &lt;A&gt;">`)
	assert.Contains(t, got, `<link rel="stylesheet" href="/style.css">`)
	assert.Contains(t, got, `<a href="/index.html">Home</a>`)
	assert.Contains(t, got, `<a href="/SiteMap.html">Sitemap</a>`)
	assert.Contains(t, got, "<h1>A</h1>")
	assert.Contains(t, got, "<p>body</p>")
	assert.NotContains(t, got, "keywords")
}

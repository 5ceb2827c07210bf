package render

// NewDefaultRegistry returns a registry holding every built-in stage.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for name, stage := range map[string]Stage{
		DefaultStage:           Generic,
		"MarkdownRenderer":     Markdown,
		"TextToHtmlRenderer":   TextToHTML,
		"HeaderRenderer":       Header,
		"FooterRenderer":       Footer,
		"MetadataRenderer":     Metadata,
		"SubpageRenderer":      Subpages,
		"SitemapRenderer":      Sitemap,
		"HtmlTemplateRenderer": Template,
		"RelativeRenderer":     Relative,
		"CompactRenderer":      Compact,
	} {
		if err := r.RegisterStage(name, stage); err != nil {
			panic(err)
		}
	}
	r.MustRegister("CompositeRenderer", compositeFactory)
	return r
}

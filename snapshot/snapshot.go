// Package snapshot renders the main content of a product page as Markdown,
// kept next to the images as page.md.
package snapshot

import (
	"bytes"
	"fmt"
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// minContentLength is the minimum readability TextContent length (in
// characters) accepted as the page's main content.
const minContentLength = 50

// chrome matches page furniture removed before readability runs.
var chrome = cascadia.MustCompile("script, style, noscript, template, iframe, nav, footer, form, dialog")

// Renderer turns rendered HTML into a Markdown snapshot. It is safe for
// concurrent use.
type Renderer struct {
	conv *converter.Converter
}

// NewRenderer creates a Renderer with the commonmark and table plugins.
// Tables are kept since spec sheets are usually tables.
func NewRenderer() *Renderer {
	return &Renderer{conv: converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)}
}

// Render returns the Markdown snapshot of rawHTML, or "" if nothing usable
// could be produced. It never fails the caller.
func (r *Renderer) Render(rawHTML, sourceURL string) string {
	u, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("snapshot: invalid source URL", "url", sourceURL, "error", err)
		return ""
	}

	cleaned, err := stripChrome(rawHTML)
	if err != nil {
		slog.Warn("snapshot: parse failed", "url", sourceURL, "error", err)
		return ""
	}

	title, content := "", cleaned
	article, err := readability.FromReader(strings.NewReader(cleaned), u)
	switch {
	case err != nil:
		slog.Debug("snapshot: readability failed, using whole page", "url", sourceURL, "error", err)
	case len(strings.TrimSpace(article.TextContent)) < minContentLength:
		slog.Debug("snapshot: readability content too short, using whole page", "url", sourceURL)
	default:
		title, content = article.Title, article.Content
	}

	md, err := r.conv.ConvertString(content, converter.WithDomain(u.Scheme+"://"+u.Host))
	if err != nil {
		slog.Warn("snapshot: markdown conversion failed", "url", sourceURL, "error", err)
		return ""
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}

	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	fmt.Fprintf(&b, "Source: <%s>\n\n%s\n", sourceURL, md)
	return b.String()
}

// stripChrome removes navigation, forms, scripts and similar elements.
func stripChrome(rawHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}
	for _, n := range cascadia.QueryAll(doc, chrome) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

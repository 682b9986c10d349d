// Package extractor turns rendered product-page HTML into a
// models.RawPageExtract using ordered, first-match-wins rule tables.
// Extraction never fails: every cascade ends in a default.
package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/shopsnap/models"
	"golang.org/x/net/html"
)

// page is the parsed document plus what the cascades share.
type page struct {
	doc       *goquery.Document
	sourceURL string
	base      *url.URL // nil if sourceURL does not parse
	name      string   // set before the model cascade runs
}

// rule is one tier of a first-match-wins cascade.
type rule struct {
	name  string
	apply func(p *page) (string, bool)
}

// firstMatch runs rules in order and returns the first hit, or fallback.
func firstMatch(p *page, rules []rule, fallback string) string {
	for _, r := range rules {
		if v, ok := r.apply(p); ok {
			return v
		}
	}
	return fallback
}

// Extract parses rawHTML and pulls out the product name, model, summary,
// description and candidate image URLs. sourceURL resolves relative image
// sources and feeds the URL-based model rule.
func Extract(rawHTML, sourceURL string) *models.RawPageExtract {
	p := newPage(rawHTML, sourceURL)

	p.name = firstMatch(p, nameRules, unknownProduct)
	return &models.RawPageExtract{
		ProductName:  p.name,
		ProductModel: firstMatch(p, modelRules, models.DefaultModel),
		Summary:      firstMatch(p, summaryRules, ""),
		Description:  firstMatch(p, descriptionRules, ""),
		ImageURLs:    p.imageURLs(),
		SourceURL:    sourceURL,
	}
}

func newPage(rawHTML, sourceURL string) *page {
	p := &page{sourceURL: sourceURL}
	if u, err := url.Parse(sourceURL); err == nil {
		p.base = u
	}

	// Scripting is disabled so <noscript> fallbacks (often the only
	// non-lazy <img>) parse as elements instead of raw text.
	root, err := html.ParseWithOptions(strings.NewReader(rawHTML), html.ParseOptionEnableScripting(false))
	if err != nil {
		root = &html.Node{Type: html.DocumentNode}
	}
	p.doc = goquery.NewDocumentFromNode(root)
	return p
}

// firstMeta returns the trimmed content of the first <meta> whose attr
// equals val. Only the first such element is consulted.
func (p *page) firstMeta(attr, val string) (string, bool) {
	var content string
	p.doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(attr); !ok || v != val {
			return true
		}
		content = strings.TrimSpace(s.AttrOr("content", ""))
		return false
	})
	return content, content != ""
}

func (p *page) resolve(src string) (*url.URL, error) {
	if p.base == nil {
		return url.Parse(src)
	}
	return p.base.Parse(src)
}

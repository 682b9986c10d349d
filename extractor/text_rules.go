package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const unknownProduct = "Unknown Product"

const (
	minParagraphRunes   = 50
	maxSummaryRunes     = 500
	minDescriptionRunes = 31
	maxDescriptionParts = 5
	maxFallbackParas    = 10
)

var nameRules = []rule{
	{"og:title", func(p *page) (string, bool) { return p.firstMeta("property", "og:title") }},
	{"h1", func(p *page) (string, bool) { return firstText(p.doc.Find("h1")) }},
	{"title", func(p *page) (string, bool) { return firstText(p.doc.Find("title")) }},
}

var summaryRules = []rule{
	{"og:description", func(p *page) (string, bool) { return p.firstMeta("property", "og:description") }},
	{"meta description", func(p *page) (string, bool) { return p.firstMeta("name", "description") }},
	{"first long paragraph", func(p *page) (string, bool) {
		paras := longParagraphs(p, 1)
		if len(paras) == 0 {
			return "", false
		}
		return truncateRunes(paras[0], maxSummaryRunes), true
	}},
}

var descriptionRules = []rule{
	{"detail sections", sectionDescription},
	{"paragraphs", func(p *page) (string, bool) {
		paras := longParagraphs(p, maxFallbackParas)
		return strings.Join(paras, "\n\n"), len(paras) > 0
	}},
}

// firstText returns the text of the first element in s.
func firstText(s *goquery.Selection) (string, bool) {
	if s.Length() == 0 {
		return "", false
	}
	t := inlineText(s.First())
	return t, t != ""
}

// longParagraphs returns up to limit <p> texts of at least
// minParagraphRunes runes, in document order.
func longParagraphs(p *page, limit int) []string {
	var out []string
	p.doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t := inlineText(s); utf8.RuneCountInString(t) >= minParagraphRunes {
			out = append(out, t)
		}
		return len(out) < limit
	})
	return out
}

// sectionDescription gathers distinct text blocks from elements whose
// class, then id, matches a description keyword.
func sectionDescription(p *page) (string, bool) {
	var parts []string
	seen := make(map[string]struct{})
	add := func(_ int, s *goquery.Selection) {
		t := blockText(s)
		if utf8.RuneCountInString(t) < minDescriptionRunes {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		parts = append(parts, t)
	}

	for _, kw := range descriptionKeywords {
		p.doc.Find("[class]").FilterFunction(attrMatches("class", kw)).Each(add)
		p.doc.Find("[id]").FilterFunction(attrMatches("id", kw)).Each(add)
	}
	if len(parts) == 0 {
		return "", false
	}
	if len(parts) > maxDescriptionParts {
		parts = parts[:maxDescriptionParts]
	}
	return strings.Join(parts, "\n\n"), true
}

package extractor

import (
	"encoding/json"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	minModelLen     = 3
	maxModelLen     = 30
	minMetaModelLen = 4
)

// structuredModelKeys are read from each JSON-LD object in this order.
var structuredModelKeys = []string{"sku", "mpn", "model", "productID"}

var modelRules = []rule{
	{"json-ld", structuredDataModel},
	{"sku element", skuElementModel},
	{"url path", urlPathModel},
	{"product name", func(p *page) (string, bool) { return findModelToken(p.name) }},
	{"meta content", metaContentModel},
}

// attrMatches filters a selection to elements whose attr matches re.
func attrMatches(attr string, re *regexp.Regexp) func(int, *goquery.Selection) bool {
	return func(_ int, s *goquery.Selection) bool {
		return re.MatchString(s.AttrOr(attr, ""))
	}
}

// structuredDataModel reads sku-like keys from application/ld+json blocks.
// Blocks that fail to parse or have an unexpected shape are skipped.
func structuredDataModel(p *page) (string, bool) {
	var found string
	p.doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		for _, obj := range ldObjects(data) {
			if v, ok := ldModel(obj); ok {
				found = v
				return false
			}
		}
		return true
	})
	return found, found != ""
}

// ldObjects flattens a JSON-LD document into the objects worth checking:
// the top-level object or each object of a top-level array, followed by
// any @graph members.
func ldObjects(data any) []map[string]any {
	var items []any
	if arr, ok := data.([]any); ok {
		items = arr
	} else {
		items = []any{data}
	}

	var out []map[string]any
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, obj)
		if graph, ok := obj["@graph"].([]any); ok {
			for _, g := range graph {
				if gobj, ok := g.(map[string]any); ok {
					out = append(out, gobj)
				}
			}
		}
	}
	return out
}

func ldModel(obj map[string]any) (string, bool) {
	for _, key := range structuredModelKeys {
		if v, ok := ldString(obj[key]); ok {
			return v, true
		}
	}

	offers := obj["offers"]
	if list, ok := offers.([]any); ok {
		if len(list) == 0 {
			return "", false
		}
		offers = list[0]
	}
	if o, ok := offers.(map[string]any); ok {
		return ldString(o["sku"])
	}
	return "", false
}

func ldString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, len(s) >= minModelLen
}

// skuElementModel looks at elements whose class (every match) or id (first
// match) carries a SKU keyword.
func skuElementModel(p *page) (string, bool) {
	for _, kw := range skuKeywords {
		var found string
		p.doc.Find("[class]").FilterFunction(attrMatches("class", kw)).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if v, ok := cleanModelLabel(inlineText(s)); ok {
				found = v
				return false
			}
			return true
		})
		if found != "" {
			return found, true
		}

		if s := p.doc.Find("[id]").FilterFunction(attrMatches("id", kw)).First(); s.Length() > 0 {
			if v, ok := cleanModelLabel(inlineText(s)); ok {
				return v, true
			}
		}
	}
	return "", false
}

func cleanModelLabel(text string) (string, bool) {
	text = strings.TrimSpace(modelLabel.ReplaceAllString(text, ""))
	n := utf8.RuneCountInString(text)
	return text, n >= minModelLen && n <= maxModelLen
}

// urlPathModel uses the last path segment when it mixes letters and
// digits, e.g. /p/rt-be58u/ or /BPD008btWH.html.
func urlPathModel(p *page) (string, bool) {
	if p.base == nil {
		return "", false
	}
	trimmed := strings.TrimRight(p.base.Path, "/")
	if trimmed == "" {
		return "", false
	}
	seg := pageExtension.ReplaceAllString(path.Base(trimmed), "")
	if !hasLetter.MatchString(seg) || !hasDigit.MatchString(seg) {
		return "", false
	}
	return strings.ToUpper(strings.TrimSpace(seg)), true
}

// metaContentModel scans every <meta content> for a model token.
func metaContentModel(p *page) (string, bool) {
	var found string
	p.doc.Find("meta[content]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		tok, ok := findModelToken(s.AttrOr("content", ""))
		if ok && len(tok) >= minMetaModelLen {
			found = tok
			return false
		}
		return true
	})
	return found, found != ""
}

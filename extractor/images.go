package extractor

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/shopsnap/models"
)

// minContainerHits is the number of container images below which the
// whole page is scanned as well.
const minContainerHits = 5

// imageCollector accumulates resolved image URLs, deduplicated by
// scheme://host/path, up to maxImages.
type imageCollector struct {
	p    *page
	seen map[string]struct{}
	urls []string
}

func (c *imageCollector) full() bool { return len(c.urls) >= maxImages }

// add resolves src against the page URL and records it unless it is a
// duplicate or the cap has been reached.
func (c *imageCollector) add(src string) bool {
	if c.full() {
		return false
	}
	u, err := c.p.resolve(src)
	if err != nil {
		return false
	}
	key := u.Scheme + "://" + u.Host + u.EscapedPath()
	if _, dup := c.seen[key]; dup {
		return false
	}
	c.seen[key] = struct{}{}
	c.urls = append(c.urls, u.String())
	return true
}

// imageURLs discovers candidate product images: og:image first, then
// images inside gallery containers, then (if that found too few) every
// image on the page outside excluded sections.
func (p *page) imageURLs() []string {
	c := &imageCollector{p: p, seen: make(map[string]struct{})}

	if og, ok := p.firstMeta("property", "og:image"); ok {
		c.add(og)
	}

	p.doc.Find("*").Each(func(_ int, container *goquery.Selection) {
		node := wrap(container.Get(0))
		if !productImageContainer.MatchString(classAndID(node)) {
			return
		}
		if HasAncestorMatching(node, excludedAncestor) {
			return
		}
		container.Find("img").Each(func(_ int, img *goquery.Selection) {
			if cand, ok := candidateSource(img); ok {
				c.add(cand.URL)
			}
		})
	})

	if len(c.urls) < minContainerHits {
		p.doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			if c.full() {
				return false
			}
			cand, ok := candidateSource(img)
			if !ok || HasAncestorMatching(wrap(img.Get(0)), excludedAncestor) {
				return true
			}
			c.add(cand.URL)
			return true
		})
	}

	if c.urls == nil {
		return []string{}
	}
	return c.urls
}

// excludedAncestor marks navigation, recommendation, footer and similar
// sections. <html> and <body> are skipped: they carry page-state classes
// such as "modal-open".
func excludedAncestor(n Node) bool {
	switch n.Tag() {
	case "html", "body":
		return false
	}
	combined := classAndID(n)
	if strings.TrimSpace(combined) == "" {
		return false
	}
	return isExcludedSection(combined)
}

// candidateSource picks the best source of an <img> and applies the
// cheap filters: no data URIs, declared dimensions of at least
// minDeclaredSize, and no chrome-looking URL.
func candidateSource(img *goquery.Selection) (models.ImageCandidate, bool) {
	var cand models.ImageCandidate
	for _, attr := range []string{"data-src", "data-lazy-src", "src"} {
		if v := strings.TrimSpace(img.AttrOr(attr, "")); v != "" {
			cand.URL = v
			break
		}
	}
	if cand.URL == "" || strings.HasPrefix(cand.URL, "data:") {
		return cand, false
	}

	for _, dim := range []struct {
		attr string
		dst  *int
	}{{"width", &cand.Width}, {"height", &cand.Height}} {
		n, ok := declaredSize(img, dim.attr)
		if !ok {
			continue
		}
		if n < minDeclaredSize {
			return cand, false
		}
		*dim.dst = n
	}
	if excludedURL.MatchString(cand.URL) {
		return cand, false
	}
	return cand, true
}

// declaredSize parses an integer width/height attribute. Missing or
// unparseable values (e.g. "100%") are undeclared.
func declaredSize(img *goquery.Selection, attr string) (int, bool) {
	v, ok := img.Attr(attr)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// textFragments returns the trimmed, non-empty text nodes under the
// selection in document order. Script, style and template bodies are not
// page text.
func textFragments(s *goquery.Selection) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				out = append(out, t)
			}
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "template":
				return
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return out
}

// inlineText is the element's text with fragments joined by single spaces
// and inner whitespace collapsed.
func inlineText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(strings.Join(textFragments(s), " ")), " ")
}

// blockText is the element's text with one line per text node.
func blockText(s *goquery.Selection) string {
	return strings.Join(textFragments(s), "\n")
}

// classAndID joins the class and id attributes the way ancestor and
// container checks look at them.
func classAndID(n Node) string {
	return n.Attr("class") + " " + n.Attr("id")
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

package extractor

import (
	"strings"

	"golang.org/x/net/html"
)

// Node is the slice of a DOM element the ancestor checks need.
type Node interface {
	// Parent returns the enclosing element, or nil at the top of the tree.
	Parent() Node
	Tag() string
	Attr(name string) string
}

// HasAncestorMatching reports whether any strict ancestor of n satisfies
// match. n itself is not tested.
func HasAncestorMatching(n Node, match func(Node) bool) bool {
	if n == nil {
		return false
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if match(p) {
			return true
		}
	}
	return false
}

// htmlNode adapts *html.Node (what goquery selections hold) to Node.
type htmlNode struct {
	n *html.Node
}

// wrap returns nil for anything that is not an element so callers never
// see a typed-nil Node.
func wrap(n *html.Node) Node {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	return htmlNode{n: n}
}

func (h htmlNode) Parent() Node { return wrap(h.n.Parent) }

func (h htmlNode) Tag() string { return h.n.Data }

func (h htmlNode) Attr(name string) string {
	for _, a := range h.n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

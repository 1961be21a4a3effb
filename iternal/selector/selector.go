// Package selector resolves tag-name and class rules into element lists.
// Both Selector and Class satisfy goquery.Matcher, so they plug straight into
// Selection.FindMatcher.
package selector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pfczx/htmlfilter/iternal/dom"
)

var (
	_ goquery.Matcher = Selector{}
	_ goquery.Matcher = Class("")
)

// Selector matches elements by tag name.
type Selector struct {
	tag string
	all bool
}

// Universal matches every element.
var Universal = Selector{all: true}

// Tag matches elements named name, ignoring ASCII case. A blank name matches
// nothing; use Universal to match every element.
func Tag(name string) Selector {
	return Selector{tag: asciiLower(strings.TrimSpace(name))}
}

func (s Selector) String() string {
	if s.all {
		return "*"
	}
	return s.tag
}

func (s Selector) Match(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.all {
		return true
	}
	return s.tag != "" && asciiLower(n.Data) == s.tag
}

func (s Selector) MatchAll(n *html.Node) []*html.Node {
	return matchAll(n, s.Match)
}

func (s Selector) Filter(nodes []*html.Node) []*html.Node {
	return filter(nodes, s.Match)
}

// Class matches elements whose class attribute holds the token exactly.
type Class string

func (c Class) Match(n *html.Node) bool {
	return HasClass(n, string(c))
}

func (c Class) MatchAll(n *html.Node) []*html.Node {
	return matchAll(n, c.Match)
}

func (c Class) Filter(nodes []*html.Node) []*html.Node {
	return filter(nodes, c.Match)
}

func HasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	attr, ok := dom.Attr(n, "class")
	if !ok {
		return false
	}
	for _, token := range strings.Fields(attr) {
		if token == class {
			return true
		}
	}
	return false
}

// Select returns the elements under doc matching m, in document order.
func Select(doc *dom.Document, m goquery.Matcher) []*html.Node {
	return doc.FindMatcher(m).Nodes
}

// asciiLower folds A-Z only. strings.EqualFold would also treat U+017F and
// U+212A as 's' and 'k'.
func asciiLower(s string) string {
	for i := 0; i < len(s); i++ {
		if 'A' <= s[i] && s[i] <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if 'A' <= b[j] && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}

func matchAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	dom.Walk(n, func(c *html.Node) bool {
		if match(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

func filter(nodes []*html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	for _, n := range nodes {
		if match(n) {
			out = append(out, n)
		}
	}
	return out
}

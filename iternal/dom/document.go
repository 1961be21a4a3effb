// Package dom holds the mutable document tree the filters work on.
// Nodes are plain x/net/html nodes owned by a goquery document.
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrParse is returned when markup cannot be turned into a tree.
var ErrParse = errors.New("parse html")

type Document struct {
	*goquery.Document
}

func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &Document{Document: doc}, nil
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node every other node hangs off.
func (d *Document) Root() *html.Node {
	return d.Selection.Nodes[0]
}

// Elements lists every element reachable from the root in document order.
func (d *Document) Elements() []*html.Node {
	var out []*html.Node
	Walk(d.Root(), func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Render serializes the tree reachable from the root.
func (d *Document) Render() (string, error) {
	return goquery.OuterHtml(d.Selection)
}

// Package filter prunes a document by tag and class rules.
//
// Forward mode removes every match together with its subtree. Reverse mode
// keeps the matches and their ancestors and removes every other node.
// Rules run as one pass per tag, in order, then one pass per class, in order,
// all on the same tree.
package filter

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pfczx/htmlfilter/iternal/dom"
	"github.com/pfczx/htmlfilter/iternal/selector"
)

type Mode int

const (
	Forward Mode = iota
	Reverse
)

func (m Mode) String() string {
	if m == Reverse {
		return "reverse"
	}
	return "forward"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "forward":
		return Forward, nil
	case "reverse":
		return Reverse, nil
	}
	return Forward, fmt.Errorf("unknown filter mode %q", s)
}

// Spec lists the rules of one filtering run. An empty list skips that kind
// of pass.
type Spec struct {
	Tags    []string
	Classes []string
}

func (s Spec) Empty() bool {
	return len(s.Tags) == 0 && len(s.Classes) == 0
}

type Stats struct {
	Passes   int
	Matched  int
	Detached int
}

func (s *Stats) add(o Stats) {
	s.Passes += o.Passes
	s.Matched += o.Matched
	s.Detached += o.Detached
}

// Apply runs every rule of spec against doc in the given mode.
func Apply(doc *dom.Document, spec Spec, mode Mode) Stats {
	run := Remove
	if mode == Reverse {
		run = KeepOnly
	}

	var total Stats
	for _, tag := range spec.Tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		total.add(run(doc, selector.Tag(tag)))
	}
	for _, class := range spec.Classes {
		if class == "" {
			continue
		}
		total.add(run(doc, selector.Class(class)))
	}
	return total
}

// Remove detaches every element matching m. Matches are collected before
// anything is detached; a match inside an already detached subtree is left
// where it is.
func Remove(doc *dom.Document, m goquery.Matcher) Stats {
	matches := selector.Select(doc, m)
	root := doc.Root()
	stats := Stats{Passes: 1, Matched: len(matches)}
	for _, n := range matches {
		if !dom.Attached(root, n) {
			continue
		}
		dom.Detach(n)
		stats.Detached++
	}
	return stats
}

// KeepOnly keeps the elements matching m and their ancestors. Every other node
// under the root, text and comments included, is detached. A rule that matches
// nothing leaves the tree alone.
func KeepOnly(doc *dom.Document, m goquery.Matcher) Stats {
	root := doc.Root()
	matches := selector.Select(doc, m)
	if len(matches) == 0 {
		return Stats{Passes: 1}
	}

	keep := make(map[*html.Node]struct{}, len(matches))
	for _, n := range matches {
		keep[n] = struct{}{}
	}
	onPath := make(map[*html.Node]struct{}, len(matches))
	onPath[root] = struct{}{}
	for _, n := range matches {
		for p := n.Parent; p != nil; p = p.Parent {
			if _, seen := onPath[p]; seen {
				break
			}
			onPath[p] = struct{}{}
		}
	}

	var drop []*html.Node
	dom.Walk(root, func(n *html.Node) bool {
		if n == root {
			return true
		}
		_, kept := keep[n]
		_, ancestor := onPath[n]
		if kept || ancestor {
			return true
		}
		drop = append(drop, n)
		return false
	})
	for _, n := range drop {
		dom.Detach(n)
	}

	return Stats{Passes: 1, Matched: len(matches), Detached: len(drop)}
}

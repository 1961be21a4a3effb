package iternal

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfczx/htmlfilter/iternal/dom"
	"github.com/pfczx/htmlfilter/iternal/selector"
)

var (
	ErrInvalidBaseURL = errors.New("invalid base url")
	// only logged, the attribute keeps its value
	ErrAttributeResolution = errors.New("attribute url resolution")
)

// tracking parameter marker, everything from it onwards is dropped
const refMarker = "?ref="

// link attributes rewritten in place
var linkAttrs = []struct {
	tag  string
	attr string
}{
	{tag: "img", attr: "src"},
	{tag: "a", attr: "href"},
}

// Rewriter resolves link attributes against the page they were fetched from.
type Rewriter struct {
	base *url.URL
}

func NewRewriter(base string) (*Rewriter, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidBaseURL, base, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w %q: not absolute", ErrInvalidBaseURL, base)
	}
	return &Rewriter{base: u}, nil
}

func (r *Rewriter) Base() string {
	return r.base.String()
}

// Absolutize rewrites img[src] and a[href] to absolute urls and returns how
// many values changed.
func (r *Rewriter) Absolutize(doc *dom.Document) int {
	return eachLink(doc, func(raw string) string {
		resolved, err := r.resolve(raw)
		if err != nil {
			log.Printf("%v: %v", ErrAttributeResolution, err)
			return raw
		}
		return resolved
	})
}

func (r *Rewriter) resolve(raw string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return r.base.ResolveReference(ref).String(), nil
}

// StripRef cuts the tracking parameter off img[src] and a[href] values.
func StripRef(doc *dom.Document) int {
	return eachLink(doc, StripRefValue)
}

// StripRefValue truncates raw at the first "?ref=". Parameters after it go too.
func StripRefValue(raw string) string {
	if i := strings.Index(raw, refMarker); i >= 0 {
		return raw[:i]
	}
	return raw
}

func eachLink(doc *dom.Document, rewrite func(string) string) int {
	changed := 0
	for _, la := range linkAttrs {
		doc.FindMatcher(selector.Tag(la.tag)).Each(func(_ int, s *goquery.Selection) {
			val, ok := s.Attr(la.attr)
			if !ok {
				return
			}
			if out := rewrite(val); out != val {
				s.SetAttr(la.attr, out)
				changed++
			}
		})
	}
	return changed
}

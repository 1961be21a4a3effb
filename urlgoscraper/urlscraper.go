// Package urlgoscraper builds url lists from index pages and url files.
package urlgoscraper

import (
	"context"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfczx/htmlfilter/iternal"
	"github.com/pfczx/htmlfilter/iternal/dom"
	"github.com/pfczx/htmlfilter/iternal/fetch"
	"github.com/pfczx/htmlfilter/iternal/selector"
)

// CollectURLs fetches indexURL and returns the absolute href of every link on
// it, in document order without duplicates. When class is set only links
// carrying that class are collected. mailto: and other non-web links are skipped.
func CollectURLs(ctx context.Context, fetcher fetch.Fetcher, indexURL, class string) ([]string, error) {
	rw, err := iternal.NewRewriter(indexURL)
	if err != nil {
		return nil, err
	}

	html, err := fetcher.Fetch(ctx, indexURL)
	if err != nil {
		return nil, err
	}

	doc, err := dom.ParseString(html)
	if err != nil {
		return nil, err
	}
	rw.Absolutize(doc)

	links := doc.FindMatcher(selector.Tag("a"))
	if class != "" {
		links = links.FilterMatcher(selector.Class(class))
	}

	seen := map[string]bool{}
	collected := []string{}
	links.Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || seen[href] || !isWebURL(href) {
			return
		}
		seen[href] = true
		collected = append(collected, href)
	})
	log.Printf("Found: %d links", len(collected))

	return collected, nil
}

func isWebURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

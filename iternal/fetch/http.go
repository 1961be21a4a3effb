package fetch

import (
	"context"
	"fmt"

	"github.com/gocolly/colly"
)

// HTTPFetcher downloads pages with a plain colly collector. Pages that need
// scripts to render their content should go through BrowserFetcher instead.
type HTTPFetcher struct {
	UserAgent string
	// MaxBodySize caps the response size in bytes. Zero means no limit.
	// Larger responses fail with ErrFetch instead of being cut short.
	MaxBodySize int
}

var _ Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(userAgent string) *HTTPFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{UserAgent: userAgent}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w %s: %v", ErrFetch, url, err)
	}

	// colly truncates at its own 10MB default without reporting it, so read
	// one byte past the limit to tell a full body from a cut one
	limit := 0
	if f.MaxBodySize > 0 {
		limit = f.MaxBodySize + 1
	}
	c := colly.NewCollector(
		colly.UserAgent(f.UserAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(limit),
	)

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	// colly reports non-2xx statuses as errors
	if err := c.Visit(url); err != nil {
		return "", fmt.Errorf("%w %s: %v", ErrFetch, url, err)
	}
	c.Wait()

	if body == nil {
		return "", fmt.Errorf("%w %s: empty response", ErrFetch, url)
	}
	if f.MaxBodySize > 0 && len(body) > f.MaxBodySize {
		return "", fmt.Errorf("%w %s: response larger than %d bytes", ErrFetch, url, f.MaxBodySize)
	}
	return string(body), nil
}

package scrapers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfczx/htmlfilter/iternal"
	"github.com/pfczx/htmlfilter/iternal/fetch"
	"github.com/pfczx/htmlfilter/iternal/filter"
	"github.com/pfczx/htmlfilter/iternal/output"
	"github.com/pfczx/htmlfilter/iternal/scraper"
	"github.com/pfczx/htmlfilter/iternal/scraper/scrapers"
)

// Mock HTML
const mockHTML = `<!DOCTYPE html>
<html>
<head>
<title>Post</title>
<script>track()</script>
</head>
<body>
<nav class="js-menu">menu</nav>

<article>
  <p>Read <a href="../other?ref=feed&x=1">this</a></p>
  <img src="../img/a.png">
  <div class="related-posts">more</div>
</article>

</body>
</html>
`

type stubFetcher struct {
	pages map[string]string
}

func (s stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	page, ok := s.pages[url]
	if !ok {
		return "", fetch.ErrFetch
	}
	return page, nil
}

type failingWriter struct{}

func (failingWriter) Write(string, []byte) error {
	return output.ErrWrite
}

func TestFilterHTMLEndToEnd(t *testing.T) {
	raw := `<html><body><script>x</script><div class="ad">y</div><p>keep</p></body></html>`
	opts := scrapers.Options{Spec: filter.Spec{Tags: []string{"script"}, Classes: []string{"ad"}}}

	html, stats, err := scrapers.FilterHTML(raw, "", opts)
	require.NoError(t, err)

	assert.Equal(t, `<html><head></head><body><p>keep</p></body></html>`, html)
	assert.Equal(t, 2, stats.Detached)
}

func TestFilterHTMLRewritesLinks(t *testing.T) {
	opts := scrapers.Options{
		Spec:     filter.Spec{Tags: []string{"script", "nav", "head"}, Classes: []string{"related-posts"}},
		Absolute: true,
		StripRef: true,
	}

	html, _, err := scrapers.FilterHTML(mockHTML, "https://example.com/posts/x", opts)
	require.NoError(t, err)

	assert.Contains(t, html, `<a href="https://example.com/other">this</a>`)
	assert.Contains(t, html, `<img src="https://example.com/img/a.png"/>`)
	assert.NotContains(t, html, "menu")
	assert.NotContains(t, html, "track()")
	assert.NotContains(t, html, "more")
	for _, line := range strings.Split(html, "\n") {
		assert.NotEmpty(t, strings.TrimSpace(line))
	}
}

func TestFilterHTMLInvalidBase(t *testing.T) {
	_, _, err := scrapers.FilterHTML(mockHTML, "not a url", scrapers.Options{Absolute: true})
	assert.ErrorIs(t, err, iternal.ErrInvalidBaseURL)
}

func TestFilterHTMLReverse(t *testing.T) {
	opts := scrapers.Options{Spec: filter.Spec{Tags: []string{"a"}}, Mode: filter.Reverse}

	html, _, err := scrapers.FilterHTML(mockHTML, "", opts)
	require.NoError(t, err)

	assert.Equal(t, `<html><body><article><p><a href="../other?ref=feed&amp;x=1"></a></p></article></body></html>`, html)
}

func TestFilterScraperWritesFiles(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts/x" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(mockHTML))
	}))
	defer ts.Close()

	dir := filepath.Join(t.TempDir(), "out")
	good := ts.URL + "/posts/x"
	bad := ts.URL + "/missing"
	s := scrapers.NewFilterScraper([]string{good, bad}, fetch.NewHTTPFetcher(""), nil, scrapers.Options{
		Spec:      filter.Spec{Tags: []string{"script", "nav"}},
		Absolute:  true,
		OutputDir: dir,
	})

	out := scraper.RunScrapers(context.Background(), []scraper.Scraper{s}, false)
	var snaps []scraper.Snapshot
	for snap := range out {
		snaps = append(snaps, snap)
	}
	require.Len(t, snaps, 2)

	ok := snaps[0]
	require.NoError(t, ok.Err)
	assert.Equal(t, good, ok.URL)
	assert.Equal(t, "forward", ok.Mode)
	assert.NotEmpty(t, ok.ID)
	assert.Equal(t, 2, ok.Detached)
	assert.Regexp(t, `/127\.0\.0\.1_posts_x-\d+\.html$`, ok.Path)

	data, err := os.ReadFile(ok.Path)
	require.NoError(t, err)
	assert.Equal(t, ok.Bytes, len(data))
	assert.Contains(t, string(data), ts.URL+"/img/a.png")

	failed := snaps[1]
	assert.True(t, failed.Failed())
	assert.ErrorIs(t, failed.Err, fetch.ErrFetch)
	assert.Empty(t, failed.Path)
	assert.False(t, failed.CreatedAt.IsZero())
}

func TestFilterScraperProcessErrors(t *testing.T) {
	const url = "https://example.com/a"
	fetcher := stubFetcher{pages: map[string]string{url: mockHTML}}

	s := scrapers.NewFilterScraper(nil, fetcher, failingWriter{}, scrapers.Options{OutputDir: "out"})
	snap, err := s.Process(context.Background(), url)
	assert.ErrorIs(t, err, output.ErrWrite)
	assert.Regexp(t, `^out/example\.com_a-\d+\.html$`, snap.Path)

	_, err = s.Process(context.Background(), "https://example.com/unknown")
	assert.True(t, errors.Is(err, fetch.ErrFetch))
}

func TestFilterScraperStopsOnCanceledContext(t *testing.T) {
	const url = "https://example.com/a"
	s := scrapers.NewFilterScraper([]string{url, url}, stubFetcher{pages: map[string]string{url: mockHTML}}, failingWriter{}, scrapers.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Scrape(ctx, make(chan scraper.Snapshot))
	assert.ErrorIs(t, err, context.Canceled)
}

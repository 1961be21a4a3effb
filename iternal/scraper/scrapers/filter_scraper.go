package scrapers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/pfczx/htmlfilter/iternal"
	"github.com/pfczx/htmlfilter/iternal/dom"
	"github.com/pfczx/htmlfilter/iternal/fetch"
	"github.com/pfczx/htmlfilter/iternal/filter"
	"github.com/pfczx/htmlfilter/iternal/output"
	"github.com/pfczx/htmlfilter/iternal/scraper"
)

// Options controls what happens to a page between fetch and write.
type Options struct {
	Spec      filter.Spec
	Mode      filter.Mode
	Absolute  bool // resolve img[src] and a[href] against the page url
	StripRef  bool // drop ?ref= tracking parameters
	OutputDir string
}

// FilterHTML prunes raw markup according to opts and renders it without blank
// lines. baseURL is only needed when opts.Absolute is set.
func FilterHTML(raw, baseURL string, opts Options) (string, filter.Stats, error) {
	var rw *iternal.Rewriter
	if opts.Absolute {
		var err error
		if rw, err = iternal.NewRewriter(baseURL); err != nil {
			return "", filter.Stats{}, err
		}
	}

	doc, err := dom.ParseString(raw)
	if err != nil {
		return "", filter.Stats{}, err
	}

	stats := filter.Apply(doc, opts.Spec, opts.Mode)

	if rw != nil {
		rw.Absolutize(doc)
	}
	if opts.StripRef {
		iternal.StripRef(doc)
	}

	html, err := doc.Render()
	if err != nil {
		return "", stats, fmt.Errorf("render: %w", err)
	}
	return output.RemoveEmptyLines(html), stats, nil
}

// FilterScraper fetches a list of urls and writes a filtered copy of each.
type FilterScraper struct {
	urls    []string
	fetcher fetch.Fetcher
	writer  output.Writer
	opts    Options
	now     func() time.Time
}

var _ scraper.Scraper = (*FilterScraper)(nil)

func NewFilterScraper(urls []string, fetcher fetch.Fetcher, writer output.Writer, opts Options) *FilterScraper {
	if writer == nil {
		writer = output.FileWriter{}
	}
	return &FilterScraper{
		urls:    urls,
		fetcher: fetcher,
		writer:  writer,
		opts:    opts,
		now:     time.Now,
	}
}

func (*FilterScraper) Source() string {
	return "htmlfilter"
}

// Process runs the whole pipeline for one url.
func (f *FilterScraper) Process(ctx context.Context, url string) (scraper.Snapshot, error) {
	snap := scraper.Snapshot{
		ID:   uuid.New().String(),
		URL:  url,
		Mode: f.opts.Mode.String(),
	}

	raw, err := f.fetcher.Fetch(ctx, url)
	if err != nil {
		return snap, err
	}

	html, stats, err := FilterHTML(raw, url, f.opts)
	if err != nil {
		return snap, err
	}
	snap.Matched = stats.Matched
	snap.Detached = stats.Detached

	snap.CreatedAt = f.now()
	snap.Path = output.Path(url, f.opts.OutputDir, snap.CreatedAt)
	if err := f.writer.Write(snap.Path, []byte(html)); err != nil {
		return snap, err
	}
	snap.Bytes = len(html)
	return snap, nil
}

// Scrape processes every url in order. A failed url is reported through its
// snapshot and does not stop the rest.
func (f *FilterScraper) Scrape(ctx context.Context, q chan<- scraper.Snapshot) error {
	for index, url := range f.urls {
		snap, err := f.Process(ctx, url)
		if err != nil {
			log.Printf("Filter error %s: %v", url, err)
			snap.Err = err
			if snap.CreatedAt.IsZero() {
				snap.CreatedAt = f.now()
			}
		} else {
			log.Printf("Filtered %d: %s -> %s", index, url, snap.Path)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case q <- snap:
		}
	}

	return nil
}

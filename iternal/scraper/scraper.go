package scraper

import (
	"context"
	"log"
	"sync"
	"time"
)

// Snapshot describes one filtered page written to disk, or the reason it was not.
type Snapshot struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Path      string    `json:"path,omitempty"`
	Mode      string    `json:"mode"`
	Bytes     int       `json:"bytes"`
	Matched   int       `json:"matched"`
	Detached  int       `json:"detached"`
	CreatedAt time.Time `json:"created_at"`
	Err       error     `json:"-"`
}

func (s Snapshot) Failed() bool {
	return s.Err != nil
}

type Scraper interface {
	Source() string
	Scrape(ctx context.Context, q chan<- Snapshot) error
}

func RunScrapers(ctx context.Context, scrapers []Scraper, parallel bool) chan Snapshot {
	out := make(chan Snapshot)
	var wg sync.WaitGroup

	run := func(s Scraper) {
		log.Printf("Starting scraper: %s", s.Source())
		if err := s.Scrape(ctx, out); err != nil {
			log.Printf("Error in scraper %s: %v", s.Source(), err)
		}
		log.Printf("Finished scraper: %s", s.Source())
	}

	go func() {
		if parallel {
			for _, s := range scrapers {
				wg.Add(1)
				go func(scr Scraper) {
					defer wg.Done()
					run(scr)
				}(s)
			}
			wg.Wait()
		} else {
			for _, s := range scrapers {
				run(s)
			}
		}

		close(out)
	}()

	return out
}

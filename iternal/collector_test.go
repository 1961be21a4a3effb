package iternal

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfczx/htmlfilter/iternal/scraper"
)

type fixedScraper struct {
	snapshots []scraper.Snapshot
}

func (fixedScraper) Source() string { return "fixed" }

func (f fixedScraper) Scrape(ctx context.Context, q chan<- scraper.Snapshot) error {
	for _, s := range f.snapshots {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case q <- s:
		}
	}
	return nil
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStartCollectorRecordsSnapshots(t *testing.T) {
	db := openDB(t)
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	s := fixedScraper{snapshots: []scraper.Snapshot{
		{ID: "a", URL: "https://example.com/a", Path: "out/example.com_a-1.html", Mode: "forward", Bytes: 10, Detached: 3, CreatedAt: now},
		{ID: "b", URL: "https://example.com/b", Mode: "forward", CreatedAt: now, Err: errors.New("fetch: 404")},
	}}

	summary, err := StartCollector(context.Background(), db, []scraper.Scraper{s}, false)
	require.NoError(t, err)
	assert.Equal(t, Summary{Saved: 1, Failed: 1}, summary)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&count))
	assert.Equal(t, 2, count)

	var path, created string
	var bytes, detached int
	require.NoError(t, db.QueryRow(`SELECT path, bytes, detached, created_at FROM snapshots WHERE id = 'a'`).
		Scan(&path, &bytes, &detached, &created))
	assert.Equal(t, "out/example.com_a-1.html", path)
	assert.Equal(t, 10, bytes)
	assert.Equal(t, 3, detached)
	assert.Equal(t, "2026-10-15T12:00:00Z", created)

	var errText sql.NullString
	require.NoError(t, db.QueryRow(`SELECT error FROM snapshots WHERE id = 'b'`).Scan(&errText))
	assert.Equal(t, "fetch: 404", errText.String)
}

func TestStartCollectorWithoutDatabase(t *testing.T) {
	s := fixedScraper{snapshots: []scraper.Snapshot{{ID: "a"}, {ID: "b"}}}

	summary, err := StartCollector(context.Background(), nil, []scraper.Scraper{s, s}, true)
	require.NoError(t, err)
	assert.Equal(t, Summary{Saved: 4}, summary)
}

func TestStartCollectorReportsDuplicateIDs(t *testing.T) {
	db := openDB(t)
	s := fixedScraper{snapshots: []scraper.Snapshot{{ID: "dup", URL: "u", Mode: "forward"}, {ID: "dup", URL: "u", Mode: "forward"}}}

	summary, err := StartCollector(context.Background(), db, []scraper.Scraper{s}, false)
	assert.Error(t, err)
	assert.Equal(t, 2, summary.Saved)
}

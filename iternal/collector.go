package iternal

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/pfczx/htmlfilter/iternal/scraper"
)

const snapshotsSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	path       TEXT,
	mode       TEXT NOT NULL,
	bytes      INTEGER NOT NULL DEFAULT 0,
	matched    INTEGER NOT NULL DEFAULT 0,
	detached   INTEGER NOT NULL DEFAULT 0,
	error      TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_url ON snapshots(url);
`

const insertSnapshot = `
INSERT INTO snapshots (id, url, path, mode, bytes, matched, detached, error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Summary counts what a collector run produced.
type Summary struct {
	Saved  int
	Failed int
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, snapshotsSchema); err != nil {
		return fmt.Errorf("create snapshots schema: %w", err)
	}
	return nil
}

// StartCollector runs the scrapers and records every snapshot they emit.
// db may be nil, in which case snapshots are only logged.
func StartCollector(ctx context.Context, db *sql.DB, scrapers []scraper.Scraper, parallel bool) (Summary, error) {
	var stmt *sql.Stmt
	if db != nil {
		if err := EnsureSchema(ctx, db); err != nil {
			return Summary{}, err
		}
		var err error
		if stmt, err = db.PrepareContext(ctx, insertSnapshot); err != nil {
			return Summary{}, fmt.Errorf("prepare snapshot insert: %w", err)
		}
		defer stmt.Close()
	}

	var summary Summary
	var dbErr error
	for snap := range scraper.RunScrapers(ctx, scrapers, parallel) {
		if snap.Failed() {
			summary.Failed++
			log.Printf("Failed %s: %v", snap.URL, snap.Err)
		} else {
			summary.Saved++
			log.Printf("Filtered HTML for %s saved to %s (%d bytes)", snap.URL, snap.Path, snap.Bytes)
		}

		// keep draining so the scrapers can finish
		if stmt == nil || dbErr != nil {
			continue
		}
		if err := recordSnapshot(ctx, stmt, snap); err != nil {
			log.Printf("Database error: %v", err)
			dbErr = err
		}
	}

	return summary, dbErr
}

func recordSnapshot(ctx context.Context, stmt *sql.Stmt, snap scraper.Snapshot) error {
	var errText sql.NullString
	if snap.Err != nil {
		errText = sql.NullString{String: snap.Err.Error(), Valid: true}
	}
	_, err := stmt.ExecContext(ctx,
		snap.ID,
		snap.URL,
		snap.Path,
		snap.Mode,
		snap.Bytes,
		snap.Matched,
		snap.Detached,
		errText,
		snap.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot %s: %w", snap.ID, err)
	}
	return nil
}

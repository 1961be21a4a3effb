// Package output turns a filtered page into a file on disk.
package output

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrCreateDir = errors.New("create output directory")
	ErrWrite     = errors.New("write output file")
)

const unknownDomain = "unknown_domain"

// RemoveEmptyLines drops lines that are empty or only whitespace.
func RemoveEmptyLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, strings.TrimSuffix(line, "\r"))
		}
	}
	return strings.Join(kept, "\n")
}

// Path names the output file for rawURL as {dir}/{host}_{path}-{unix}.html.
// The path stays percent-encoded so escapes never become separators or
// control bytes in the file name.
func Path(rawURL, dir string, now time.Time) string {
	host, path := unknownDomain, ""
	if u, err := url.Parse(rawURL); err == nil {
		if u.Hostname() != "" {
			host = u.Hostname()
		}
		path = strings.ReplaceAll(strings.TrimPrefix(u.EscapedPath(), "/"), "/", "_")
	}
	return fmt.Sprintf("%s/%s_%s-%d.html", dir, host, path, now.Unix())
}

// Writer stores rendered pages.
type Writer interface {
	Write(path string, data []byte) error
}

// FileWriter writes to the local filesystem, creating parent directories.
type FileWriter struct{}

var _ Writer = FileWriter{}

func (FileWriter) Write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrCreateDir, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Package fetch downloads raw page markup.
package fetch

import (
	"context"
	"errors"
)

// ErrFetch wraps every network or HTTP failure.
var ErrFetch = errors.New("fetch")

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"

type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

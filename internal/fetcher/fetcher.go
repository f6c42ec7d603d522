// Package fetcher downloads remote files and parses tabular uploads (CSV in
// UTF-8 or CP949, XLSX) into header/row tables.
package fetcher

import (
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// DownloadFirstToFile saves the first URL that downloads successfully to
// path and returns that URL with the bytes written. URLs are tried in
// order; a failed attempt leaves no file behind.
func DownloadFirstToFile(ctx context.Context, f Fetcher, urls []string, path string) (string, int64, error) {
	if len(urls) == 0 {
		return "", 0, eris.New("download: no urls configured")
	}

	var failures []string
	for _, u := range urls {
		if ctx.Err() != nil {
			return "", 0, eris.Wrap(ctx.Err(), "download: context cancelled")
		}
		n, err := f.DownloadToFile(ctx, u, path)
		if err == nil {
			return u, n, nil
		}
		zap.L().Warn("source unavailable, trying next",
			zap.String("url", u),
			zap.Error(err),
		)
		failures = append(failures, err.Error())
	}
	return "", 0, eris.Errorf("download: all %d sources failed: %s", len(urls), strings.Join(failures, "; "))
}

package geo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/region"
)

// Downloader fetches the first reachable URL of a list.
type Downloader interface {
	DownloadFirst(ctx context.Context, urls []string) ([]byte, string, error)
}

// LoaderOptions configures boundary loading.
type LoaderOptions struct {
	URLs         []string
	NameProperty string
	CacheTTL     time.Duration
}

// Loader resolves boundary collections from uploads, the cache or the
// configured remote sources.
type Loader struct {
	fetch      Downloader
	cache      Cache
	normalizer *region.Normalizer
	opts       LoaderOptions
}

// NewLoader creates a Loader. cache may be nil.
func NewLoader(fetch Downloader, cache Cache, n *region.Normalizer, opts LoaderOptions) *Loader {
	if opts.NameProperty == "" {
		opts.NameProperty = DefaultNameProperty
	}
	if n == nil {
		n = region.NewNormalizer(nil)
	}
	return &Loader{fetch: fetch, cache: cache, normalizer: n, opts: opts}
}

// FromBytes parses an uploaded boundary file. Zip archives are read as
// shapefiles, anything else as GeoJSON.
func (l *Loader) FromBytes(name string, data []byte) (*Collection, error) {
	var (
		c   *Collection
		err error
	)
	if strings.EqualFold(filepath.Ext(name), ".zip") {
		c, err = ParseShapefileZip(data, l.opts.NameProperty, l.normalizer)
	} else {
		c, err = ParseGeoJSON(data, l.opts.NameProperty, l.normalizer)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "geo: parse %s", name)
	}
	c.Source = "upload:" + name
	return c, nil
}

// LoadFile parses a boundary file from disk.
func (l *Loader) LoadFile(path string) (*Collection, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, eris.Wrapf(err, "geo: read %s", path)
	}
	return l.FromBytes(filepath.Base(path), data)
}

// Fetch returns the remote boundary collection, trying the cache first and
// then each configured URL in order. Successful downloads are cached.
func (l *Loader) Fetch(ctx context.Context) (*Collection, error) {
	log := zap.L().With(zap.String("component", "geo.loader"))
	key := CacheKey(l.opts.URLs)

	if l.cache != nil {
		data, ok, err := l.cache.Get(ctx, key)
		switch {
		case err != nil:
			log.Warn("boundary cache unavailable", zap.Error(err))
		case ok:
			c, perr := ParseGeoJSON(data, l.opts.NameProperty, l.normalizer)
			if perr == nil {
				c.Source = "cache"
				log.Debug("boundary cache hit", zap.Int("features", len(c.Features)))
				return c, nil
			}
			log.Warn("cached boundary unreadable, refetching", zap.Error(perr))
		}
	}

	if l.fetch == nil {
		return nil, eris.New("geo: no boundary source configured")
	}

	data, src, err := l.fetch.DownloadFirst(ctx, l.opts.URLs)
	if err != nil {
		return nil, eris.Wrap(err, "geo: fetch boundaries")
	}

	c, err := ParseGeoJSON(data, l.opts.NameProperty, l.normalizer)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: parse boundaries from %s", src)
	}
	c.Source = src

	if l.cache != nil {
		if err := l.cache.Set(ctx, key, data, l.opts.CacheTTL); err != nil {
			log.Warn("boundary cache write failed", zap.Error(err))
		}
	}

	log.Info("boundaries fetched",
		zap.String("source", src),
		zap.Int("features", len(c.Features)),
	)
	return c, nil
}

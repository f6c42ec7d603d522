package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/access-cli/internal/fetcher"
)

func TestLoader_FetchCachesDownload(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		hits.Add(1)
		_, _ = w.Write([]byte(sampleGeoJSON))
	}))
	defer srv.Close()

	urls := []string{srv.URL + "/down", srv.URL + "/sig.geojson"}
	cache := NewMemoryCache()
	l := NewLoader(fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}), cache, nil, LoaderOptions{URLs: urls})

	c, err := l.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/sig.geojson", c.Source)
	assert.Len(t, c.Features, 3)

	c, err = l.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cache", c.Source)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLoader_FetchAllSourcesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	l := NewLoader(fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}), nil, nil, LoaderOptions{URLs: []string{srv.URL}})
	_, err := l.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch boundaries")
}

func TestLoader_FetchUnreadableCacheRefetches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleGeoJSON))
	}))
	defer srv.Close()

	urls := []string{srv.URL}
	cache := NewMemoryCache()
	require.NoError(t, cache.Set(context.Background(), CacheKey(urls), []byte("garbage"), 0))

	l := NewLoader(fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}), cache, nil, LoaderOptions{URLs: urls})
	c, err := l.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, srv.URL, c.Source)
}

func TestLoader_NoFetcher(t *testing.T) {
	l := NewLoader(nil, nil, nil, LoaderOptions{})
	_, err := l.Fetch(context.Background())
	assert.Error(t, err)
}

func TestLoader_FromBytesAndFile(t *testing.T) {
	l := NewLoader(nil, nil, nil, LoaderOptions{})

	c, err := l.FromBytes("sig.geojson", []byte(sampleGeoJSON))
	require.NoError(t, err)
	assert.Equal(t, "upload:sig.geojson", c.Source)

	zipped := buildShapefileZip(t, "SIG_KOR_NM", []string{"중구"})
	c, err = l.FromBytes("SIG.ZIP", zipped)
	require.NoError(t, err)
	assert.Equal(t, "중구", c.Features[0].JoinKey)

	path := filepath.Join(t.TempDir(), "b.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleGeoJSON), 0o600))
	c, err = l.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "upload:b.json", c.Source)

	_, err = l.FromBytes("bad.geojson", []byte("{}"))
	assert.Error(t, err)

	_, err = l.LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

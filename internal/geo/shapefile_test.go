package geo

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/access-cli/internal/region"
)

// buildShapefileZip writes a polygon shapefile with one name field and
// returns it zipped.
func buildShapefileZip(t *testing.T, field string, names []string) []byte {
	t.Helper()
	dir := t.TempDir()
	base := filepath.Join(dir, "sig.shp")

	w, err := shp.Create(base, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField(field, 60)}))

	for i, name := range names {
		x := float64(i)
		ring := []shp.Point{{X: x, Y: 0}, {X: x + 1, Y: 0}, {X: x + 1, Y: 1}, {X: x, Y: 1}, {X: x, Y: 0}}
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
		row := w.Write(&poly)
		require.NoError(t, w.WriteAttribute(int(row), 0, name))
	}
	w.Close()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		data, err := os.ReadFile(filepath.Join(dir, "sig"+ext))
		require.NoError(t, err)
		fw, err := zw.Create("bnd/sig" + ext)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseShapefileZip(t *testing.T) {
	data := buildShapefileZip(t, "SIG_KOR_NM", []string{"종로구", "창원시 의창구"})

	c, err := ParseShapefileZip(data, DefaultNameProperty, region.NewNormalizer(nil))
	require.NoError(t, err)
	require.Len(t, c.Features, 2)

	assert.Equal(t, "종로구", c.Features[0].PropertyName)
	assert.Equal(t, "종로구", c.Features[0].JoinKey)
	assert.Equal(t, "창원시 의창구", c.Features[1].JoinKey)

	mp, ok := c.Features[0].Geometry.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 1, mp.NumPolygons())
	assert.InDelta(t, 2.0, c.Bounds.Max(0), 1e-9)
}

func TestParseShapefileZip_FallbackField(t *testing.T) {
	data := buildShapefileZip(t, "adm_nm", []string{"부산광역시 해운대구"})

	c, err := ParseShapefileZip(data, "MISSING", region.NewNormalizer(nil))
	require.NoError(t, err)
	require.Len(t, c.Features, 1)
	assert.Equal(t, "부산시 해운대구", c.Features[0].CanonicalName)
}

func TestParseShapefileZip_NoShp(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create("readme.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("hi"))
	require.NoError(t, zw.Close())

	_, err = ParseShapefileZip(buf.Bytes(), DefaultNameProperty, region.NewNormalizer(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".shp")
}

func TestParseShapefileZip_NotZip(t *testing.T) {
	_, err := ParseShapefileZip([]byte("plain"), DefaultNameProperty, region.NewNormalizer(nil))
	assert.Error(t, err)
}

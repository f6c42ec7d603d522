package geo

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/fetcher"
	"github.com/sells-group/access-cli/internal/region"
)

// ParseShapefileZip reads a zipped ESRI shapefile (the format Korean
// boundary data is published in) into a Collection. Attribute text is
// decoded from CP949 when it is not UTF-8.
func ParseShapefileZip(data []byte, nameProperty string, n *region.Normalizer) (*Collection, error) {
	dir, err := os.MkdirTemp("", "access-shp-*")
	if err != nil {
		return nil, eris.Wrap(err, "geo: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	if err := extractZIP(data, dir); err != nil {
		return nil, eris.Wrap(err, "geo: extract shapefile zip")
	}

	shpPath, err := findFileByExt(dir, ".shp")
	if err != nil {
		return nil, eris.Wrap(err, "geo: find .shp file")
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	nameIdx := -1
	for _, candidate := range append([]string{nameProperty}, fallbackNameProperties...) {
		if candidate == "" {
			continue
		}
		if nameIdx = fieldIndex(reader, candidate); nameIdx >= 0 {
			break
		}
	}
	if nameIdx < 0 {
		return nil, eris.Errorf("geo: shapefile has no name field (tried %s)", nameProperty)
	}

	c := &Collection{Bounds: geom.NewBounds(geom.XY)}
	for reader.Next() {
		_, shape := reader.Shape()

		props := make(map[string]any, len(names))
		for i, name := range names {
			props[name] = decodeAttribute(reader.Attribute(i))
		}

		var g geom.T
		if mp := polygonToMultiPolygon(shape); mp != nil {
			g = mp
			c.Bounds.Extend(g)
		}

		name, _ := props[names[nameIdx]].(string)
		c.Features = append(c.Features, newFeature("", name, g, props, n))
	}

	if len(c.Features) == 0 {
		return nil, eris.New("geo: shapefile has no records")
	}
	return c, nil
}

func decodeAttribute(raw string) string {
	raw = strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	text, _, err := fetcher.DecodeText([]byte(raw))
	if err != nil {
		return raw
	}
	return text
}

// extractZIP extracts an in-memory ZIP archive to the destination directory.
// Entry paths are flattened to their base names.
func extractZIP(data []byte, destDir string) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return eris.Wrap(err, "open zip")
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(f.Name)
		destPath := filepath.Join(destDir, name)

		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "open zip entry %s", f.Name)
		}

		outFile, err := os.Create(destPath) //nolint:gosec // base name inside a private temp dir
		if err != nil {
			_ = rc.Close()
			return eris.Wrapf(err, "create %s", destPath)
		}

		if _, err := io.Copy(outFile, io.LimitReader(rc, 512<<20)); err != nil {
			_ = outFile.Close()
			_ = rc.Close()
			return eris.Wrapf(err, "extract %s", f.Name)
		}
		_ = outFile.Close()
		_ = rc.Close()
	}

	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}

// fieldIndex returns the index of a named field in the shapefile, or -1 if not found.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Other shape types yield nil.
func polygonToMultiPolygon(s shp.Shape) *geom.MultiPolygon {
	p, ok := s.(*shp.Polygon)
	if !ok || p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("geo: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geo: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// Package proximity summarizes how facilities spread around their common
// centroid. Distances are straight-line in degrees of latitude/longitude,
// not travel distance.
package proximity

import (
	"math"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/access-cli/internal/fetcher"
	"github.com/sells-group/access-cli/internal/model"
	"github.com/sells-group/access-cli/internal/pipeline"
)

// Facility is a named point.
type Facility struct {
	Name     string         `json:"name"`
	Lat      float64        `json:"latitude"`
	Lon      float64        `json:"longitude"`
	Category model.Category `json:"category,omitempty"`
}

// Distance is one facility's offset from the centroid.
type Distance struct {
	Facility
	ToCenter float64 `json:"distance_to_center"`
}

// Summary is the centroid plus every facility's distance to it.
type Summary struct {
	CenterLat float64    `json:"center_lat"`
	CenterLon float64    `json:"center_lon"`
	Bounds    [4]float64 `json:"bounds"` // min lon, min lat, max lon, max lat
	Distances []Distance `json:"distances"`
	Mean      float64    `json:"mean_distance"`
	Max       float64    `json:"max_distance"`
}

// DefaultFacilities is the sample used when no coordinates are supplied.
func DefaultFacilities() []Facility {
	return []Facility{
		{Name: "병원A", Lat: 37.5665, Lon: 126.9780, Category: model.CategoryHospital},
		{Name: "약국B", Lat: 37.5651, Lon: 126.9820, Category: model.CategoryPharmacy},
		{Name: "병원C", Lat: 37.5700, Lon: 126.9750, Category: model.CategoryHospital},
		{Name: "약국D", Lat: 37.5680, Lon: 126.9900, Category: model.CategoryPharmacy},
	}
}

// Analyze computes the centroid of facilities and each facility's distance
// to it, in input order.
func Analyze(facilities []Facility) (*Summary, error) {
	if len(facilities) == 0 {
		return nil, eris.New("proximity: no facilities")
	}

	flat := make([]float64, 0, 2*len(facilities))
	var sumLat, sumLon float64
	for _, f := range facilities {
		flat = append(flat, f.Lon, f.Lat)
		sumLat += f.Lat
		sumLon += f.Lon
	}
	n := float64(len(facilities))
	b := geom.NewMultiPointFlat(geom.XY, flat).Bounds()

	s := &Summary{
		CenterLat: sumLat / n,
		CenterLon: sumLon / n,
		Bounds:    [4]float64{b.Min(0), b.Min(1), b.Max(0), b.Max(1)},
		Distances: make([]Distance, len(facilities)),
	}
	var total float64
	for i, f := range facilities {
		d := Euclidean(f.Lat, f.Lon, s.CenterLat, s.CenterLon)
		s.Distances[i] = Distance{Facility: f, ToCenter: d}
		total += d
		s.Max = math.Max(s.Max, d)
	}
	s.Mean = total / n
	return s, nil
}

// Euclidean is the planar distance between two coordinates in degrees.
func Euclidean(lat1, lon1, lat2, lon2 float64) float64 {
	return math.Hypot(lat1-lat2, lon1-lon2)
}

// Nearest returns the facility closest to the query point. Ties go to the
// earlier facility.
func Nearest(facilities []Facility, lat, lon float64) (Facility, float64, error) {
	if len(facilities) == 0 {
		return Facility{}, 0, eris.New("proximity: no facilities")
	}
	best, bestDist := 0, math.Inf(1)
	for i, f := range facilities {
		if d := Euclidean(f.Lat, f.Lon, lat, lon); d < bestDist {
			best, bestDist = i, d
		}
	}
	return facilities[best], bestDist, nil
}

// Column names of a facility coordinate table.
const (
	ColumnName      = "name"
	ColumnLatitude  = "latitude"
	ColumnLongitude = "longitude"
)

// FromTable reads facilities from a table with name, latitude and longitude
// columns. Rows with unparsable or out-of-range coordinates are skipped and
// counted.
func FromTable(t *fetcher.Table) ([]Facility, int, error) {
	idx := map[string]int{}
	var missing []string
	for _, col := range []string{ColumnName, ColumnLatitude, ColumnLongitude} {
		i := slices.IndexFunc(t.Header, func(h string) bool { return strings.EqualFold(h, col) })
		if i < 0 {
			missing = append(missing, col)
			continue
		}
		idx[col] = i
	}
	if len(missing) > 0 {
		return nil, 0, eris.Errorf("proximity: %s missing columns %s", t.Name, strings.Join(missing, ", "))
	}

	var (
		out     []Facility
		skipped int
	)
	for _, row := range t.Rows {
		lat, okLat := pipeline.ParseNumber(row[idx[ColumnLatitude]])
		lon, okLon := pipeline.ParseNumber(row[idx[ColumnLongitude]])
		if !okLat || !okLon || math.Abs(lat) > 90 || math.Abs(lon) > 180 {
			skipped++
			continue
		}
		out = append(out, Facility{Name: row[idx[ColumnName]], Lat: lat, Lon: lon})
	}
	if len(out) == 0 {
		return nil, skipped, eris.Errorf("proximity: %s has no valid coordinates", t.Name)
	}
	return out, skipped, nil
}

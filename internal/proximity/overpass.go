package proximity

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/serjvanilla/go-overpass"
	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/model"
)

// BBox is a south, west, north, east bounding box in degrees.
type BBox struct {
	South, West, North, East float64
}

// Validate checks the box is well-formed.
func (b BBox) Validate() error {
	if b.South >= b.North || b.West >= b.East {
		return eris.Errorf("proximity: invalid bbox %v", b)
	}
	if b.South < -90 || b.North > 90 || b.West < -180 || b.East > 180 {
		return eris.Errorf("proximity: bbox %v out of range", b)
	}
	return nil
}

func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.South, b.West, b.North, b.East)
}

// amenityCategories maps OSM amenity tags onto facility categories.
var amenityCategories = map[string]model.Category{
	"hospital":        model.CategoryHospital,
	"clinic":          model.CategoryHospital,
	"doctors":         model.CategoryHospital,
	"pharmacy":        model.CategoryPharmacy,
	"social_facility": model.CategoryWelfare,
}

// OverpassSource loads health facility nodes from an Overpass API endpoint.
type OverpassSource struct {
	client  overpass.Client
	timeout time.Duration
}

// NewOverpassSource creates a source for endpoint.
func NewOverpassSource(endpoint string, timeout time.Duration) *OverpassSource {
	httpClient := &http.Client{Timeout: timeout}
	return &OverpassSource{
		client:  overpass.NewWithSettings(endpoint, 2, httpClient),
		timeout: timeout,
	}
}

// Query builds the Overpass QL for health facility nodes inside b.
func Query(b BBox) string {
	return fmt.Sprintf(`[out:json];
node["amenity"~"^(hospital|clinic|doctors|pharmacy|social_facility)$"](%s);
out body;`, b)
}

// Facilities returns the facility nodes inside b ordered by OSM id.
// Nodes without a name fall back to their id.
func (s *OverpassSource) Facilities(ctx context.Context, b BBox) ([]Facility, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("component", "proximity.overpass"))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type reply struct {
		res overpass.Result
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		res, err := s.client.Query(Query(b))
		ch <- reply{res, err}
	}()

	var res overpass.Result
	select {
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "proximity: overpass query")
	case r := <-ch:
		if r.err != nil {
			return nil, eris.Wrap(r.err, "proximity: overpass query")
		}
		res = r.res
	}

	out := make([]Facility, 0, len(res.Nodes))
	ids := make([]int64, 0, len(res.Nodes))
	byID := make(map[int64]Facility, len(res.Nodes))
	for _, node := range res.Nodes {
		if node == nil {
			continue
		}
		name := node.Tags["name"]
		if name == "" {
			name = fmt.Sprintf("node/%d", node.ID)
		}
		cat, ok := amenityCategories[node.Tags["amenity"]]
		if !ok {
			cat = model.CategoryOther
		}
		ids = append(ids, node.ID)
		byID[node.ID] = Facility{Name: name, Lat: node.Lat, Lon: node.Lon, Category: cat}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		out = append(out, byID[id])
	}

	log.Info("overpass facilities loaded", zap.String("bbox", b.String()), zap.Int("count", len(out)))
	return out, nil
}

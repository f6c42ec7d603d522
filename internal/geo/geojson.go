// Package geo loads administrative boundary features (GeoJSON or zipped
// shapefiles), caches them, and writes scored GeoJSON.
package geo

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/model"
	"github.com/sells-group/access-cli/internal/region"
)

// DefaultNameProperty is the boundary name attribute of the Korean
// municipality (시군구) boundary files.
const DefaultNameProperty = "SIG_KOR_NM"

// JoinProperty is the property written with each feature's region key.
const JoinProperty = "JOIN"

// fallbackNameProperties are tried when the configured property is absent.
var fallbackNameProperties = []string{DefaultNameProperty, "name", "NAME", "sig_kor_nm", "adm_nm", "SIG_NM"}

// Collection is a loaded set of boundary features.
type Collection struct {
	Source   string                  `json:"source"`
	Features []model.BoundaryFeature `json:"features"`
	Bounds   *geom.Bounds            `json:"-"`
}

// BBox returns min x, min y, max x, max y over every feature geometry, or
// nil when no feature has one.
func (c *Collection) BBox() []float64 {
	if c.Bounds == nil || c.Bounds.IsEmpty() {
		return nil
	}
	return []float64{c.Bounds.Min(0), c.Bounds.Min(1), c.Bounds.Max(0), c.Bounds.Max(1)}
}

type rawCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

type rawFeature struct {
	ID         any             `json:"id"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// ParseGeoJSON decodes a FeatureCollection and derives each feature's
// canonical name and join key from its name property.
func ParseGeoJSON(data []byte, nameProperty string, n *region.Normalizer) (*Collection, error) {
	var raw rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "geo: decode geojson")
	}
	if raw.Type != "FeatureCollection" {
		return nil, eris.Errorf("geo: expected FeatureCollection, got %q", raw.Type)
	}

	c := &Collection{Bounds: geom.NewBounds(geom.XY)}
	unnamed := 0
	for i, rf := range raw.Features {
		var f rawFeature
		if err := json.Unmarshal(rf, &f); err != nil {
			return nil, eris.Wrapf(err, "geo: decode feature %d", i)
		}

		var g geom.T
		if len(f.Geometry) > 0 && string(f.Geometry) != "null" {
			if err := geojson.Unmarshal(f.Geometry, &g); err != nil {
				return nil, eris.Wrapf(err, "geo: decode geometry of feature %d", i)
			}
			c.Bounds.Extend(g)
		}

		name := lookupName(f.Properties, nameProperty)
		if name == "" {
			unnamed++
		}
		c.Features = append(c.Features, newFeature(featureID(f.ID), name, g, f.Properties, n))
	}

	if len(c.Features) == 0 {
		return nil, eris.New("geo: feature collection is empty")
	}
	if unnamed > 0 {
		zap.L().Warn("geo: features without a name property",
			zap.String("property", nameProperty),
			zap.Int("count", unnamed),
		)
	}
	return c, nil
}

func newFeature(id, name string, g geom.T, props map[string]any, n *region.Normalizer) model.BoundaryFeature {
	if props == nil {
		props = map[string]any{}
	}
	return model.BoundaryFeature{
		ID:            id,
		PropertyName:  name,
		CanonicalName: n.Normalize(name),
		JoinKey:       n.Key(name),
		Geometry:      g,
		Properties:    props,
	}
}

func lookupName(props map[string]any, preferred string) string {
	candidates := fallbackNameProperties
	if preferred != "" {
		candidates = append([]string{preferred}, fallbackNameProperties...)
	}
	for _, k := range candidates {
		if v, ok := props[k]; ok && v != nil {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func featureID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return fmt.Sprintf("%g", id)
	default:
		return fmt.Sprint(id)
	}
}

// ScoredRegion is the subset of a scored region written onto its boundary.
type ScoredRegion struct {
	FeatureIndex int
	Region       model.AggregatedRegion
}

// EncodeScored writes the collection as GeoJSON with its bbox. Every feature carries its
// JOIN key; features paired with a region also carry the region's score,
// facility count, facility rate and ratio. When several regions share a
// feature the last one wins.
func EncodeScored(c *Collection, scored []ScoredRegion) ([]byte, error) {
	byFeature := make(map[int]model.AggregatedRegion, len(scored))
	for _, s := range scored {
		if s.FeatureIndex >= 0 {
			byFeature[s.FeatureIndex] = s.Region
		}
	}

	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(c.Features))}
	if c.BBox() != nil {
		fc.BBox = c.Bounds
	}
	for i, f := range c.Features {
		props := make(map[string]any, len(f.Properties)+8)
		for k, v := range f.Properties {
			props[k] = v
		}
		props[JoinProperty] = f.JoinKey
		if r, ok := byFeature[i]; ok {
			props["region_key"] = r.RegionKey
			props["score"] = r.Score
			props["facility_count"] = r.FacilityCount
			props["facility_rate"] = r.FacilityRate
			props["ratio"] = r.Ratio
			props["match_method"] = string(r.MatchMethod)
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         f.ID,
			Geometry:   f.Geometry,
			Properties: props,
		})
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode geojson")
	}
	return data, nil
}

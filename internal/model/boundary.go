package model

import "github.com/twpayne/go-geom"

// BoundaryFeature is a named polygon from the boundary reference file.
// Features are read-only once loaded.
type BoundaryFeature struct {
	ID            string         `json:"id,omitempty"`
	PropertyName  string         `json:"property_name"`
	CanonicalName string         `json:"canonical_name"`
	JoinKey       string         `json:"join_key"`
	Geometry      geom.T         `json:"-"`
	Properties    map[string]any `json:"properties,omitempty"`
}

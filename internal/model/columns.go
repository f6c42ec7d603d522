package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// Role names a column's purpose in one of the two input files.
type Role string

const (
	RoleRegion     Role = "region"     // population: administrative area label
	RoleRatio      Role = "ratio"      // population: elderly single-household ratio (%)
	RoleHouseholds Role = "households" // population: elderly single-household count
	RoleAddress    Role = "address"    // facilities: address or region text
	RoleCategory   Role = "category"   // facilities: free-text facility type
)

// PopulationRoles are the roles read from the population file.
var PopulationRoles = []Role{RoleRegion, RoleRatio, RoleHouseholds}

// FacilityRoles are the roles read from the facility file.
var FacilityRoles = []Role{RoleAddress, RoleCategory}

// requiredRoles must be resolved before the pipeline starts.
var requiredRoles = []Role{RoleRegion, RoleRatio, RoleAddress}

// ColumnMapping maps each role to a header name. Households and Category
// are optional.
type ColumnMapping struct {
	Region     string `json:"region"`
	Ratio      string `json:"ratio"`
	Households string `json:"households,omitempty"`
	Address    string `json:"address"`
	Category   string `json:"category,omitempty"`
}

// Get returns the column assigned to a role.
func (m ColumnMapping) Get(r Role) string {
	switch r {
	case RoleRegion:
		return m.Region
	case RoleRatio:
		return m.Ratio
	case RoleHouseholds:
		return m.Households
	case RoleAddress:
		return m.Address
	case RoleCategory:
		return m.Category
	}
	return ""
}

// Set assigns a column to a role.
func (m *ColumnMapping) Set(r Role, col string) {
	switch r {
	case RoleRegion:
		m.Region = col
	case RoleRatio:
		m.Ratio = col
	case RoleHouseholds:
		m.Households = col
	case RoleAddress:
		m.Address = col
	case RoleCategory:
		m.Category = col
	}
}

// Merge returns m with empty roles filled from other.
func (m ColumnMapping) Merge(other ColumnMapping) ColumnMapping {
	out := m
	for _, r := range append(slices.Clone(PopulationRoles), FacilityRoles...) {
		if out.Get(r) == "" {
			out.Set(r, other.Get(r))
		}
	}
	return out
}

// Validate checks the mapping against the headers of both files. Every
// required role must be set and every set role must name an existing header.
func (m ColumnMapping) Validate(populationHeader, facilityHeader []string) error {
	var errs []string
	for _, r := range requiredRoles {
		if m.Get(r) == "" {
			errs = append(errs, fmt.Sprintf("%s column is not set", r))
		}
	}
	for _, r := range PopulationRoles {
		if col := m.Get(r); col != "" && !slices.Contains(populationHeader, col) {
			errs = append(errs, fmt.Sprintf("%s column %q not in population file", r, col))
		}
	}
	for _, r := range FacilityRoles {
		if col := m.Get(r); col != "" && !slices.Contains(facilityHeader, col) {
			errs = append(errs, fmt.Sprintf("%s column %q not in facility file", r, col))
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("columns: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Package store records analysis runs and their scored regions.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/access-cli/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 100

// Store defines the persistence interface for run history.
type Store interface {
	CreateRun(ctx context.Context, input model.RunInput) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary *model.RunSummary, regions []model.AggregatedRegion) error
	FailRun(ctx context.Context, runID string, msg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	RunRegions(ctx context.Context, runID string) ([]model.AggregatedRegion, error)

	Migrate(ctx context.Context) error
	Close() error
}

// regionColumns are the run_regions columns in insert order.
var regionColumns = []string{
	"run_id", "row_no", "region_key", "region_name", "households", "ratio",
	"facility_count", "facility_rate", "ratio_z", "rate_z", "composite", "score",
	"matched", "boundary_name", "match_method",
}

func regionRow(runID string, i int, r model.AggregatedRegion) []any {
	return []any{
		runID, i, r.RegionKey, r.RegionName, r.Households, r.Ratio,
		r.FacilityCount, r.FacilityRate, r.RatioZ, r.RateZ, r.Composite, r.Score,
		r.Matched, r.BoundaryName, string(r.MatchMethod),
	}
}

func limitOf(f RunFilter) int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

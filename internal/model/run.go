package model

import "time"

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunInput describes what a run was started with.
type RunInput struct {
	PopulationFile string        `json:"population_file"`
	FacilityFile   string        `json:"facility_file"`
	BoundarySource string        `json:"boundary_source,omitempty"`
	Columns        ColumnMapping `json:"columns"`
	RatioWeight    float64       `json:"ratio_weight"`
	RateWeight     float64       `json:"rate_weight"`
	ByCategory     bool          `json:"by_category"`
}

// RunSummary holds the outcome counters of a finished run.
type RunSummary struct {
	PopulationRows  int     `json:"population_rows"`
	FacilityRows    int     `json:"facility_rows"`
	FacilityDropped int     `json:"facility_dropped"`
	Regions         int     `json:"regions"`
	MatchedRegions  int     `json:"matched_regions"`
	BoundaryExact   int     `json:"boundary_exact"`
	BoundaryFuzzy   int     `json:"boundary_fuzzy"`
	BoundaryMissing int     `json:"boundary_missing"`
	MaxScoreRegion  string  `json:"max_score_region,omitempty"`
	MinScoreRegion  string  `json:"min_score_region,omitempty"`
	DurationMs      int64   `json:"duration_ms"`
	MeanRatio       float64 `json:"mean_ratio"`
	MeanRate        float64 `json:"mean_rate"`
}

// Run is one recorded analysis.
type Run struct {
	ID        string      `json:"id"`
	Input     RunInput    `json:"input"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Package pipeline runs one access analysis: it loads the two tables,
// resolves columns, aggregates facilities, joins, scores and matches
// boundaries.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/config"
	"github.com/sells-group/access-cli/internal/facility"
	"github.com/sells-group/access-cli/internal/geo"
	"github.com/sells-group/access-cli/internal/join"
	"github.com/sells-group/access-cli/internal/model"
	"github.com/sells-group/access-cli/internal/region"
	"github.com/sells-group/access-cli/internal/scorer"
	"github.com/sells-group/access-cli/internal/store"
)

// Input is everything one run needs.
type Input struct {
	Population File
	Facilities File
	// Boundary is an uploaded boundary file. When nil the configured
	// remote sources are used.
	Boundary *File
	// SkipBoundary disables boundary matching entirely.
	SkipBoundary bool
	// Columns pins columns by header; empty roles are auto-detected.
	Columns model.ColumnMapping
	// RatioWeight and RateWeight override the configured weights.
	RatioWeight *float64
	RateWeight  *float64
	ByCategory  bool
}

// Result is the outcome of a successful run.
type Result struct {
	RunID      string                   `json:"run_id,omitempty"`
	Columns    model.ColumnMapping      `json:"columns"`
	Regions    []model.AggregatedRegion `json:"regions"`
	ByCategory bool                     `json:"by_category"`
	Summary    model.RunSummary         `json:"summary"`
	Score      scorer.Summary           `json:"score"`
	Join       join.Stats               `json:"join"`
	Facility   facility.Stats           `json:"facility"`
	Population PopulationStats          `json:"population"`
	// Boundary and FeatureIndex are set when boundaries were matched.
	Boundary     *geo.Collection `json:"-"`
	FeatureIndex []int           `json:"-"`
	Unmatched    []string        `json:"unmatched_boundaries,omitempty"`
}

// Scored pairs each matched region with its boundary feature.
func (r *Result) Scored() []geo.ScoredRegion {
	out := make([]geo.ScoredRegion, 0, len(r.Regions))
	for i, reg := range r.Regions {
		fi := -1
		if i < len(r.FeatureIndex) {
			fi = r.FeatureIndex[i]
		}
		out = append(out, geo.ScoredRegion{FeatureIndex: fi, Region: reg})
	}
	return out
}

// Pipeline runs analyses. It holds no per-run state and is safe for
// concurrent use.
type Pipeline struct {
	cfg        config.ScoreConfig
	store      store.Store
	boundaries BoundarySource
	normalizer *region.Normalizer
}

// New creates a Pipeline. st and boundaries may be nil.
func New(cfg config.ScoreConfig, st store.Store, boundaries BoundarySource, n *region.Normalizer) *Pipeline {
	if n == nil {
		n = region.NewNormalizer(nil)
	}
	return &Pipeline{cfg: cfg, store: st, boundaries: boundaries, normalizer: n}
}

// Run executes one analysis. When a store is configured the run is
// recorded, and marked failed if any step errors.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("population", in.Population.Name),
		zap.String("facilities", in.Facilities.Name),
	)

	scoreCfg := p.cfg
	if in.RatioWeight != nil {
		scoreCfg.RatioWeight = *in.RatioWeight
	}
	if in.RateWeight != nil {
		scoreCfg.RateWeight = *in.RateWeight
	}
	sc, err := scorer.New(scoreCfg)
	if err != nil {
		return nil, eris.Wrap(ErrInvalidParams, err.Error())
	}

	var runID string
	if p.store != nil {
		run, err := p.store.CreateRun(ctx, runInput(in, scoreCfg))
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		runID = run.ID
	}

	res, err := p.run(ctx, in, sc)
	if err != nil {
		log.Error("pipeline: run failed", zap.String("run_id", runID), zap.Error(err))
		if p.store != nil {
			if ferr := p.store.FailRun(ctx, runID, err.Error()); ferr != nil {
				log.Warn("pipeline: failed to record failure", zap.Error(ferr))
			}
		}
		return nil, err
	}

	res.RunID = runID
	res.Summary.DurationMs = time.Since(start).Milliseconds()

	if p.store != nil {
		if err := p.store.CompleteRun(ctx, runID, &res.Summary, res.Regions); err != nil {
			return nil, eris.Wrap(err, "pipeline: complete run")
		}
	}

	log.Info("pipeline: run complete",
		zap.String("run_id", runID),
		zap.Int("regions", res.Summary.Regions),
		zap.Int("matched", res.Summary.MatchedRegions),
		zap.Int64("duration_ms", res.Summary.DurationMs),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, in Input, sc *scorer.Scorer) (*Result, error) {
	l, err := p.load(ctx, in)
	if err != nil {
		return nil, err
	}

	cols, err := ResolveColumns(in.Columns, l.population.Header, l.facilities.Header)
	if err != nil {
		return nil, err
	}

	pop, popStats, err := PopulationRecords(p.normalizer, l.population, cols)
	if err != nil {
		return nil, err
	}

	byCategory := in.ByCategory && cols.Category != ""
	var categories []string
	if cols.Category != "" {
		categories = l.facilities.Column(cols.Category)
	}
	records := facility.Records(p.normalizer, l.facilities.Column(cols.Address), categories)
	counts, facStats := facility.Aggregate(records, byCategory)

	joined, joinStats := join.LeftJoin(pop, counts)
	if joinStats.Matched == 0 {
		return nil, &EmptyJoinError{
			PopulationSample: joinStats.PopulationSample,
			FacilitySample:   joinStats.FacilitySample,
		}
	}
	if len(joinStats.DuplicateKeys) > 0 {
		zap.L().Warn("pipeline: population keys occur more than once",
			zap.Strings("keys", joinStats.DuplicateKeys),
		)
	}

	scored, scoreSum := sc.Score(joined, cols.Households != "")

	res := &Result{
		Columns:    cols,
		Regions:    scored,
		ByCategory: byCategory,
		Score:      scoreSum,
		Join:       joinStats,
		Facility:   facStats,
		Population: popStats,
		Boundary:   l.boundary,
	}

	if l.boundary != nil {
		bm := join.MatchBoundaries(scored, l.boundary.Features)
		res.Regions = bm.Regions
		res.FeatureIndex = bm.FeatureIndex
		res.Unmatched = bm.Unmatched
		res.Summary.BoundaryExact = bm.Exact
		res.Summary.BoundaryFuzzy = bm.Substring
		res.Summary.BoundaryMissing = bm.Missing
	}

	res.Summary.PopulationRows = popStats.Rows
	res.Summary.FacilityRows = facStats.Rows
	res.Summary.FacilityDropped = facStats.Dropped
	res.Summary.Regions = len(res.Regions)
	res.Summary.MatchedRegions = joinStats.Matched
	res.Summary.MaxScoreRegion = scoreSum.MaxRegion
	res.Summary.MinScoreRegion = scoreSum.MinRegion
	res.Summary.MeanRatio = scoreSum.RatioMean
	res.Summary.MeanRate = scoreSum.RateMean
	return res, nil
}

func runInput(in Input, cfg config.ScoreConfig) model.RunInput {
	ri := model.RunInput{
		PopulationFile: in.Population.Name,
		FacilityFile:   in.Facilities.Name,
		Columns:        in.Columns,
		RatioWeight:    cfg.RatioWeight,
		RateWeight:     cfg.RateWeight,
		ByCategory:     in.ByCategory,
	}
	switch {
	case in.SkipBoundary:
	case in.Boundary != nil:
		ri.BoundarySource = "upload:" + in.Boundary.Name
	default:
		ri.BoundarySource = "remote"
	}
	return ri
}

package scorer

import (
	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/config"
	"github.com/sells-group/access-cli/internal/model"
)

// Summary holds the batch statistics behind one scoring pass. Scores are
// relative to this batch only.
type Summary struct {
	Regions      int     `json:"regions"`
	RatioMean    float64 `json:"ratio_mean"`
	RatioStd     float64 `json:"ratio_std"`
	RateMean     float64 `json:"rate_mean"`
	RateStd      float64 `json:"rate_std"`
	CompositeMin float64 `json:"composite_min"`
	CompositeMax float64 `json:"composite_max"`
	MaxRegion    string  `json:"max_region,omitempty"`
	MinRegion    string  `json:"min_region,omitempty"`
}

// Scorer computes facility rates and composite scores.
type Scorer struct {
	cfg config.ScoreConfig
}

// New creates a Scorer after validating cfg.
func New(cfg config.ScoreConfig) (*Scorer, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Rate returns facilities per ratePer households. Without a household
// column the raw count is the rate. Non-positive households give 0.
func Rate(count int, households float64, withHouseholds bool, ratePer float64) float64 {
	if !withHouseholds {
		return float64(count)
	}
	if households <= 0 || ratePer <= 0 {
		return 0
	}
	return float64(count) / (households / ratePer)
}

// Score returns a scored copy of regions. Each row gets its facility rate,
// ratio and rate z-scores, composite = w1*z(ratio) - w2*z(rate) and the
// composite rescaled to 0-100 over the batch.
func (s *Scorer) Score(regions []model.AggregatedRegion, withHouseholds bool) ([]model.AggregatedRegion, Summary) {
	out := make([]model.AggregatedRegion, len(regions))
	copy(out, regions)

	ratios := make([]float64, len(out))
	rates := make([]float64, len(out))
	for i := range out {
		out[i].FacilityRate = Rate(out[i].FacilityCount, out[i].Households, withHouseholds, s.cfg.RatePer)
		ratios[i] = out[i].Ratio
		rates[i] = out[i].FacilityRate
	}

	ratioZ, ratioMean, ratioStd := ZScores(ratios, s.cfg.Epsilon)
	rateZ, rateMean, rateStd := ZScores(rates, s.cfg.Epsilon)

	composite := make([]float64, len(out))
	for i := range out {
		out[i].RatioZ = ratioZ[i]
		out[i].RateZ = rateZ[i]
		composite[i] = s.cfg.RatioWeight*ratioZ[i] - s.cfg.RateWeight*rateZ[i]
		out[i].Composite = composite[i]
	}

	scores := Rescale(composite, s.cfg.Epsilon)
	sum := Summary{
		Regions:   len(out),
		RatioMean: ratioMean,
		RatioStd:  ratioStd,
		RateMean:  rateMean,
		RateStd:   rateStd,
	}
	maxIdx, minIdx := -1, -1
	for i := range out {
		out[i].Score = scores[i]
		if maxIdx < 0 || composite[i] > composite[maxIdx] {
			maxIdx = i
		}
		if minIdx < 0 || composite[i] < composite[minIdx] {
			minIdx = i
		}
	}
	if maxIdx >= 0 {
		sum.CompositeMax = composite[maxIdx]
		sum.CompositeMin = composite[minIdx]
		sum.MaxRegion = out[maxIdx].RegionKey
		sum.MinRegion = out[minIdx].RegionKey
	}

	zap.L().Debug("scorer: batch scored",
		zap.Int("regions", sum.Regions),
		zap.Float64("ratio_mean", ratioMean),
		zap.Float64("rate_mean", rateMean),
	)

	return out, sum
}

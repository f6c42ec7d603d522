// Package scorer computes the elderly-household access vulnerability score:
// a weighted difference of z-scores rescaled to 0-100 within each batch.
package scorer

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/access-cli/internal/config"
)

// DefaultScoreConfig returns a config.ScoreConfig with the standard weights:
// need and supply count equally.
func DefaultScoreConfig() config.ScoreConfig {
	return config.ScoreConfig{
		RatioWeight: 1.0,
		RateWeight:  1.0,
		Epsilon:     1e-9,
		RatePer:     1000,
	}
}

// ValidateConfig checks that a ScoreConfig is internally consistent.
func ValidateConfig(c config.ScoreConfig) error {
	var errs []string

	weights := map[string]float64{
		"ratio_weight": c.RatioWeight,
		"rate_weight":  c.RateWeight,
	}
	for name, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			errs = append(errs, fmt.Sprintf("%s must be finite", name))
		} else if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if c.Epsilon <= 0 || c.Epsilon > 1e-3 {
		errs = append(errs, "epsilon must be in (0, 0.001]")
	}
	if c.RatePer <= 0 {
		errs = append(errs, "rate_per must be > 0")
	}

	if len(errs) > 0 {
		slices.Sort(errs)
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

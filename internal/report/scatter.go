package report

import (
	"math"

	"github.com/sells-group/access-cli/internal/model"
)

// Point is one region on the ratio vs facility-rate scatter. Size is the
// facility count and Color the score.
type Point struct {
	RegionKey string  `json:"region_key"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Size      int     `json:"size"`
	Color     float64 `json:"color"`
}

// Trendline is an ordinary least squares fit of Y on X.
type Trendline struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
	// Valid is false when fewer than two points or a constant X make the
	// fit undefined.
	Valid bool `json:"valid"`
}

// Scatter is the plotted series plus its trendline.
type Scatter struct {
	Points    []Point   `json:"points"`
	Trendline Trendline `json:"trendline"`
}

// BuildScatter plots ratio against facility rate for every region.
func BuildScatter(regions []model.AggregatedRegion) Scatter {
	pts := make([]Point, len(regions))
	xs := make([]float64, len(regions))
	ys := make([]float64, len(regions))
	for i, r := range regions {
		pts[i] = Point{
			RegionKey: r.RegionKey,
			X:         r.Ratio,
			Y:         r.FacilityRate,
			Size:      r.FacilityCount,
			Color:     r.Score,
		}
		xs[i], ys[i] = r.Ratio, r.FacilityRate
	}
	return Scatter{Points: pts, Trendline: FitOLS(xs, ys)}
}

// FitOLS fits y = slope*x + intercept. R2 is 1 when y is constant and the
// fit is exact.
func FitOLS(xs, ys []float64) Trendline {
	n := len(xs)
	if n < 2 || len(ys) != n {
		return Trendline{}
	}

	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var sxx, sxy, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 {
		return Trendline{}
	}

	t := Trendline{Slope: sxy / sxx, Valid: true}
	t.Intercept = my - t.Slope*mx

	if syy == 0 {
		t.R2 = 1
		return t
	}
	var ssRes float64
	for i := range xs {
		d := ys[i] - (t.Slope*xs[i] + t.Intercept)
		ssRes += d * d
	}
	t.R2 = math.Max(0, 1-ssRes/syy)
	return t
}

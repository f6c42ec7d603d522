// Package simulate projects the value of a lump-sum investment under simple
// or annually compounded interest.
package simulate

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Method selects how interest accrues.
type Method string

const (
	MethodCompound Method = "compound"
	MethodSimple   Method = "simple"
)

// Input bounds.
const (
	MinPrincipal = 10_000
	MaxRatePct   = 20.0
	MinYears     = 1
	MaxYears     = 30
)

// Params describes one simulation.
type Params struct {
	Principal float64 `json:"principal"`
	RatePct   float64 `json:"rate_pct"`
	Years     int     `json:"years"`
	Method    Method  `json:"method"`
}

// YearValue is the projected value at the end of a year.
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Projection is the result of a simulation.
type Projection struct {
	Params     Params      `json:"params"`
	Values     []YearValue `json:"values"`
	FinalValue float64     `json:"final_value"`
	Profit     float64     `json:"profit"`
}

// ParseMethod accepts "compound" or "simple". Empty selects compound.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodCompound:
		return MethodCompound, nil
	case MethodSimple:
		return MethodSimple, nil
	}
	return "", eris.Errorf("simulate: unknown method %q (want compound or simple)", s)
}

// Validate checks p against the supported input ranges.
func (p Params) Validate() error {
	var errs []string
	if math.IsNaN(p.Principal) || p.Principal < MinPrincipal {
		errs = append(errs, fmt.Sprintf("principal must be >= %d", MinPrincipal))
	}
	if math.IsNaN(p.RatePct) || p.RatePct < 0 || p.RatePct > MaxRatePct {
		errs = append(errs, fmt.Sprintf("rate must be in [0, %g]", MaxRatePct))
	}
	if p.Years < MinYears || p.Years > MaxYears {
		errs = append(errs, fmt.Sprintf("years must be in [%d, %d]", MinYears, MaxYears))
	}
	if p.Method != MethodCompound && p.Method != MethodSimple {
		errs = append(errs, fmt.Sprintf("unknown method %q", p.Method))
	}
	if len(errs) > 0 {
		return eris.Errorf("simulate: invalid params: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Run projects the investment for years 1 through p.Years.
func Run(p Params) (*Projection, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r := p.RatePct / 100
	out := &Projection{Params: p, Values: make([]YearValue, p.Years)}
	for i := 1; i <= p.Years; i++ {
		var v float64
		if p.Method == MethodCompound {
			v = p.Principal * math.Pow(1+r, float64(i))
		} else {
			v = p.Principal * (1 + r*float64(i))
		}
		out.Values[i-1] = YearValue{Year: i, Value: v}
	}
	out.FinalValue = out.Values[p.Years-1].Value
	out.Profit = out.FinalValue - p.Principal
	return out, nil
}

package api

import (
	"net/http"
	"strconv"

	"github.com/sells-group/access-cli/internal/region"
)

const maxBoundarySample = 50

type boundarySampleItem struct {
	PropertyName  string `json:"property_name"`
	CanonicalName string `json:"canonical_name"`
	JoinKey       string `json:"join_key"`
	Level         string `json:"level"`
}

// handleBoundarySample lists the first boundary names with the keys they
// join on, so callers can check naming before uploading their tables.
func (s *Server) handleBoundarySample(w http.ResponseWriter, r *http.Request) {
	if s.boundaries == nil {
		writeError(w, http.StatusServiceUnavailable, errorBody{Error: "no boundary source configured", Code: "boundary_disabled"})
		return
	}

	n := 10
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, errorBody{Error: "n must be a positive integer", Code: "bad_request"})
			return
		}
		n = min(parsed, maxBoundarySample)
	}

	c, err := s.boundaries.Fetch(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, errorBody{
			Error: err.Error(),
			Code:  "boundary_fetch",
			Hint:  "upload a boundary file with the analysis instead",
		})
		return
	}

	n = min(n, len(c.Features))
	items := make([]boundarySampleItem, n)
	for i, f := range c.Features[:n] {
		items[i] = boundarySampleItem{
			PropertyName:  f.PropertyName,
			CanonicalName: f.CanonicalName,
			JoinKey:       f.JoinKey,
			Level:         string(region.Level(f.JoinKey)),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source":   c.Source,
		"features": len(c.Features),
		"bbox":     c.BBox(),
		"sample":   items,
	})
}

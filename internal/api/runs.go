package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/access-cli/internal/model"
	"github.com/sells-group/access-cli/internal/report"
	"github.com/sells-group/access-cli/internal/store"
)

func (s *Server) runsDisabled(w http.ResponseWriter) bool {
	if s.runs != nil {
		return false
	}
	writeError(w, http.StatusServiceUnavailable, errorBody{
		Error: "run history is disabled",
		Code:  "store_disabled",
		Hint:  "set store.driver to sqlite or postgres",
	})
	return true
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runsDisabled(w) {
		return
	}

	q := r.URL.Query()
	filter := store.RunFilter{Status: model.RunStatus(q.Get("status"))}
	switch filter.Status {
	case "", model.RunStatusRunning, model.RunStatusComplete, model.RunStatusFailed:
	default:
		writeError(w, http.StatusBadRequest, errorBody{Error: "unknown status " + string(filter.Status), Code: "bad_request"})
		return
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errorBody{Error: name + " must be a non-negative integer", Code: "bad_request"})
			return
		}
		*dst = n
	}

	runs, err := s.runs.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Code: "internal"})
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runsDisabled(w) {
		return
	}

	run, err := s.runs.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunRegions(w http.ResponseWriter, r *http.Request) {
	if s.runsDisabled(w) {
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := s.runs.GetRun(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	regions, err := s.runs.RunRegions(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if r.URL.Query().Get("format") == FormatCSV {
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, regions, false); err != nil {
			writeError(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
		writeFile(w, "text/csv; charset=utf-8", report.TruncateID(id)+".csv", buf.Bytes())
		return
	}
	if regions == nil {
		regions = []model.AggregatedRegion{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": id, "regions": regions})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, errorBody{Error: "run not found", Code: "not_found"})
		return
	}
	writeError(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Code: "internal"})
}

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/geo"
	"github.com/sells-group/access-cli/internal/model"
	"github.com/sells-group/access-cli/internal/pipeline"
	"github.com/sells-group/access-cli/internal/report"
)

// Output formats accepted by /v1/analyze.
const (
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatXLSX    = "xlsx"
	FormatGeoJSON = "geojson"
)

// analyzeResponse is the JSON body of a successful analysis.
type analyzeResponse struct {
	*pipeline.Result
	Top     []model.AggregatedRegion `json:"top"`
	Bottom  []model.AggregatedRegion `json:"bottom"`
	Scatter report.Scatter           `json:"scatter"`
}

// analyzeRequest is the parsed multipart form.
type analyzeRequest struct {
	input  pipeline.Input
	format string
	topN   int
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseAnalyze(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errorBody{
				Error: fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit),
				Code:  "too_large",
			})
			return
		}
		writeError(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_request"})
		return
	}

	res, err := s.analyzer.Run(r.Context(), req.input)
	if err != nil {
		status, body := classify(err)
		writeError(w, status, body)
		return
	}

	if res.RunID != "" {
		w.Header().Set("X-Run-Id", res.RunID)
	}

	switch req.format {
	case FormatCSV:
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, res.Regions, res.ByCategory); err != nil {
			writeError(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
		writeFile(w, "text/csv; charset=utf-8", "access.csv", buf.Bytes())
	case FormatXLSX:
		var buf bytes.Buffer
		if err := report.WriteXLSX(&buf, res.Regions, res.ByCategory, req.topN); err != nil {
			writeError(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
		writeFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "access.xlsx", buf.Bytes())
	case FormatGeoJSON:
		if res.Boundary == nil {
			writeError(w, http.StatusConflict, errorBody{Error: "no boundary was loaded for this run", Code: "no_boundary"})
			return
		}
		data, err := geo.EncodeScored(res.Boundary, res.Scored())
		if err != nil {
			writeError(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
		writeFile(w, "application/geo+json", "access.geojson", data)
	default:
		writeJSON(w, http.StatusOK, analyzeResponse{
			Result:  res,
			Top:     report.TopN(res.Regions, req.topN),
			Bottom:  report.BottomN(res.Regions, req.topN),
			Scatter: report.BuildScatter(res.Regions),
		})
	}
}

// classify maps a pipeline failure to a status and body.
func classify(err error) (int, errorBody) {
	var empty *pipeline.EmptyJoinError
	switch {
	case errors.As(err, &empty):
		return http.StatusUnprocessableEntity, errorBody{
			Error:  err.Error(),
			Code:   "empty_join",
			Hint:   "check that both files use the same region naming",
			Detail: empty,
		}
	case eris.Is(err, pipeline.ErrUnreadable):
		return http.StatusBadRequest, errorBody{Error: err.Error(), Code: "unreadable"}
	case eris.Is(err, pipeline.ErrMissingColumn):
		return http.StatusUnprocessableEntity, errorBody{
			Error: err.Error(),
			Code:  "missing_column",
			Hint:  "pin columns with region_col, ratio_col, households_col, address_col or category_col",
		}
	case eris.Is(err, pipeline.ErrInvalidParams):
		return http.StatusBadRequest, errorBody{Error: err.Error(), Code: "invalid_params"}
	case eris.Is(err, pipeline.ErrBoundaryFetch):
		return http.StatusBadGateway, errorBody{
			Error: err.Error(),
			Code:  "boundary_fetch",
			Hint:  "upload a boundary file in the boundary field or set skip_boundary=true",
		}
	}
	zap.L().Error("api: analysis failed", zap.Error(err))
	return http.StatusInternalServerError, errorBody{Error: err.Error(), Code: "internal"}
}

func (s *Server) parseAnalyze(w http.ResponseWriter, r *http.Request) (*analyzeRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		// Returned unwrapped so *http.MaxBytesError stays visible to errors.As.
		return nil, err
	}

	req := &analyzeRequest{topN: s.opts.TopN}
	var errs []string

	pop, err := readUpload(r, "population")
	if err != nil {
		return nil, err
	}
	if pop == nil {
		errs = append(errs, "population file is required")
	}
	fac, err := readUpload(r, "facilities")
	if err != nil {
		return nil, err
	}
	if fac == nil {
		errs = append(errs, "facilities file is required")
	}
	boundary, err := readUpload(r, "boundary")
	if err != nil {
		return nil, err
	}

	in := pipeline.Input{Boundary: boundary}
	if pop != nil {
		in.Population = *pop
	}
	if fac != nil {
		in.Facilities = *fac
	}

	in.RatioWeight = parseFloatField(r, "ratio_weight", &errs)
	in.RateWeight = parseFloatField(r, "rate_weight", &errs)
	in.ByCategory = parseBoolField(r, "by_category", &errs)
	in.SkipBoundary = parseBoolField(r, "skip_boundary", &errs)
	in.Columns = model.ColumnMapping{
		Region:     strings.TrimSpace(r.FormValue("region_col")),
		Ratio:      strings.TrimSpace(r.FormValue("ratio_col")),
		Households: strings.TrimSpace(r.FormValue("households_col")),
		Address:    strings.TrimSpace(r.FormValue("address_col")),
		Category:   strings.TrimSpace(r.FormValue("category_col")),
	}

	if v := strings.TrimSpace(r.FormValue("top_n")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, "top_n must be an integer")
		}
		req.topN = report.ClampN(n)
	}

	req.format = strings.ToLower(strings.TrimSpace(r.FormValue("format")))
	switch req.format {
	case "":
		req.format = FormatJSON
	case FormatJSON, FormatCSV, FormatXLSX:
	case FormatGeoJSON:
		if in.SkipBoundary {
			errs = append(errs, "format geojson needs a boundary; drop skip_boundary")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown format %q", req.format))
	}

	if len(errs) > 0 {
		return nil, eris.Errorf("invalid request: %s", strings.Join(errs, "; "))
	}
	req.input = in
	return req, nil
}

// readUpload returns the named multipart file, or nil when absent.
func readUpload(r *http.Request, field string) (*pipeline.File, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read %s upload", field)
	}
	defer f.Close() //nolint:errcheck

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s upload", field)
	}
	return &pipeline.File{Name: hdr.Filename, Data: data}, nil
}

func parseFloatField(r *http.Request, field string, errs *[]string) *float64 {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, field+" must be a number")
		return nil
	}
	return &f
}

func parseBoolField(r *http.Request, field string, errs *[]string) bool {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, field+" must be true or false")
	}
	return b
}

func writeFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

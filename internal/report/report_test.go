package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/access-cli/internal/fetcher"
	"github.com/sells-group/access-cli/internal/model"
)

func sampleRegions() []model.AggregatedRegion {
	return []model.AggregatedRegion{
		{
			RegionKey: "서울 종로구", RegionName: "서울 종로구", Households: 1000, Ratio: 10,
			FacilityCount: 5, FacilityRate: 5, RatioZ: -0.7071067811865475, RateZ: 0.7071067811865475,
			Composite: -1.414213562373095, Score: 0, Matched: true, MatchMethod: model.MatchExact,
			FacilityCounts: map[model.Category]int{model.CategoryHospital: 3, model.CategoryPharmacy: 1, model.CategoryWelfare: 1},
		},
		{
			RegionKey: "서울 중구", RegionName: "서울 중구", Households: 1000, Ratio: 20,
			FacilityCount: 1, FacilityRate: 1, RatioZ: 0.7071067811865475, RateZ: -0.7071067811865475,
			Composite: 1.414213562373095, Score: 100, Matched: true, MatchMethod: model.MatchSubstring,
			FacilityCounts: map[model.Category]int{model.CategoryHospital: 1},
		},
		{
			RegionKey: "부산 해운대구", RegionName: "부산광역시 해운대구", Households: 0, Ratio: 15.5,
			Score: 50, MatchMethod: model.MatchNone,
			FacilityCounts: map[model.Category]int{},
		},
	}
}

func TestWriteCSV_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRegions(), false))

	first := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, strings.Join(Columns, ","), first)
}

func TestWriteCSV_CategoryColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRegions(), true))

	first := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.True(t, strings.HasSuffix(first, "match_method,count_hospital,count_pharmacy,count_welfare,count_other"))
	assert.Contains(t, buf.String(), "서울 종로구,서울 종로구,1000,10,5,5,")
	assert.Contains(t, buf.String(), "exact,3,1,1,0")
}

func TestCSV_RoundTrip(t *testing.T) {
	in := sampleRegions()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in, true))

	out, byCategory, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.True(t, byCategory)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].RegionKey, out[i].RegionKey)
		assert.Equal(t, in[i].RegionName, out[i].RegionName)
		assert.Equal(t, in[i].Ratio, out[i].Ratio)
		assert.Equal(t, in[i].RatioZ, out[i].RatioZ)
		assert.Equal(t, in[i].Composite, out[i].Composite)
		assert.Equal(t, in[i].Score, out[i].Score)
		assert.Equal(t, in[i].MatchMethod, out[i].MatchMethod)
		assert.Equal(t, in[i].Matched, out[i].Matched)
		for _, c := range model.Categories {
			assert.Equal(t, in[i].FacilityCounts[c], out[i].FacilityCounts[c], "%s %s", in[i].RegionKey, c)
		}
	}
}

func TestReadCSV_WithoutCategories(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRegions(), false))

	out, byCategory, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.False(t, byCategory)
	assert.Nil(t, out[0].FacilityCounts)
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader("region_key,score\n서울 중구,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns")
	assert.Contains(t, err.Error(), "ratio")
}

func TestReadCSV_BadNumber(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRegions()[:1], false))
	bad := strings.Replace(buf.String(), ",1000,10,", ",many,10,", 1)

	_, _, err := ReadCSV(strings.NewReader(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "households")
}

func TestClampN(t *testing.T) {
	assert.Equal(t, DefaultTopN, ClampN(0))
	assert.Equal(t, DefaultTopN, ClampN(-4))
	assert.Equal(t, MinTopN, ClampN(1))
	assert.Equal(t, 7, ClampN(7))
	assert.Equal(t, MaxTopN, ClampN(50))
}

func TestTopBottomN(t *testing.T) {
	var regions []model.AggregatedRegion
	for i, s := range []float64{40, 100, 0, 75, 10} {
		regions = append(regions, model.AggregatedRegion{RegionKey: string(rune('a' + i)), Score: s})
	}

	top := TopN(regions, 3)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"b", "d", "a"}, keys(top))

	bottom := BottomN(regions, 3)
	assert.Equal(t, []string{"c", "e", "a"}, keys(bottom))

	// Input order is untouched.
	assert.Equal(t, "a", regions[0].RegionKey)
}

func TestTopN_FewerThanN(t *testing.T) {
	top := TopN(sampleRegions(), 10)
	assert.Len(t, top, 3)
	assert.Equal(t, "서울 중구", top[0].RegionKey)
}

func keys(rs []model.AggregatedRegion) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.RegionKey
	}
	return out
}

func TestFitOLS_Exact(t *testing.T) {
	tl := FitOLS([]float64{1, 2, 3, 4}, []float64{3, 5, 7, 9})
	require.True(t, tl.Valid)
	assert.InDelta(t, 2.0, tl.Slope, 1e-12)
	assert.InDelta(t, 1.0, tl.Intercept, 1e-12)
	assert.InDelta(t, 1.0, tl.R2, 1e-12)
}

func TestFitOLS_Noisy(t *testing.T) {
	tl := FitOLS([]float64{1, 2, 3}, []float64{1, 3, 2})
	require.True(t, tl.Valid)
	assert.InDelta(t, 0.5, tl.Slope, 1e-12)
	assert.InDelta(t, 1.0, tl.Intercept, 1e-12)
	assert.InDelta(t, 0.25, tl.R2, 1e-12)
}

func TestFitOLS_Degenerate(t *testing.T) {
	assert.False(t, FitOLS([]float64{1}, []float64{2}).Valid)
	assert.False(t, FitOLS([]float64{2, 2, 2}, []float64{1, 2, 3}).Valid)
	assert.False(t, FitOLS([]float64{1, 2}, []float64{1}).Valid)

	flat := FitOLS([]float64{1, 2, 3}, []float64{4, 4, 4})
	assert.True(t, flat.Valid)
	assert.Equal(t, 1.0, flat.R2)
	assert.Equal(t, 0.0, flat.Slope)
}

func TestBuildScatter(t *testing.T) {
	s := BuildScatter(sampleRegions()[:2])
	require.Len(t, s.Points, 2)
	assert.Equal(t, Point{RegionKey: "서울 종로구", X: 10, Y: 5, Size: 5, Color: 0}, s.Points[0])
	require.True(t, s.Trendline.Valid)
	assert.InDelta(t, -0.4, s.Trendline.Slope, 1e-12)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleRegions(), true, 3))

	results, err := fetcher.ReadXLSX(buf.Bytes(), fetcher.XLSXOptions{SheetName: SheetResults})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, Header(true), results[0])
	assert.Equal(t, "서울 종로구", results[1][0])

	top, err := fetcher.ReadXLSX(buf.Bytes(), fetcher.XLSXOptions{SheetName: SheetTop})
	require.NoError(t, err)
	assert.Equal(t, "서울 중구", top[1][0])

	bottom, err := fetcher.ReadXLSX(buf.Bytes(), fetcher.XLSXOptions{SheetName: SheetBottom})
	require.NoError(t, err)
	assert.Equal(t, "서울 종로구", bottom[1][0])
}

func TestFormatRegions(t *testing.T) {
	var buf bytes.Buffer
	FormatRegions(&buf, TopN(sampleRegions(), 3))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "REGION")
	assert.Contains(t, lines[2], "서울 중구")
	assert.Contains(t, lines[2], "100.0")
}

func TestFormatSummary(t *testing.T) {
	var buf bytes.Buffer
	FormatSummary(&buf, model.RunSummary{
		PopulationRows: 2, Regions: 2, BoundaryExact: 1, BoundaryFuzzy: 1,
		MaxScoreRegion: "서울 중구", MinScoreRegion: "서울 종로구", DurationMs: 1500,
	}, Trendline{Slope: -0.4, Intercept: 9, R2: 1, Valid: true})

	out := buf.String()
	assert.Contains(t, out, "Boundary substring:")
	assert.Contains(t, out, "Most vulnerable:")
	assert.Contains(t, out, "rate = -0.4000 * ratio + 9.0000")
	assert.Contains(t, out, "1.5s")
}

func TestFormatRuns(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	var buf bytes.Buffer
	FormatRuns(&buf, []model.Run{
		{
			ID:        "0f8fad5b-d9cb-469f-a165-70867728950e",
			Input:     model.RunInput{PopulationFile: "pop.csv", FacilityFile: "fac.xlsx"},
			Status:    model.RunStatusComplete,
			Summary:   &model.RunSummary{Regions: 25, DurationMs: 120},
			CreatedAt: created,
		},
		{ID: "short", Status: model.RunStatusFailed, CreatedAt: created},
	})

	out := buf.String()
	assert.Contains(t, out, "0f8fad5b ")
	assert.Contains(t, out, "2026-03-01 09:30")
	assert.Contains(t, out, "120ms")
	assert.Contains(t, out, "failed")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "서울특...", truncate("서울특별시 종로구", 6))
}

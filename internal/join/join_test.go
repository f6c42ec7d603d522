package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/access-cli/internal/model"
)

func pop(keys ...string) []model.RegionRecord {
	out := make([]model.RegionRecord, len(keys))
	for i, k := range keys {
		out[i] = model.RegionRecord{RegionKey: k, CanonicalName: k, Ratio: float64(i + 1)}
	}
	return out
}

func TestLeftJoin_KeepsEveryPopulationRow(t *testing.T) {
	counts := []model.FacilityCount{
		{RegionKey: "서울시 강남구", Total: 7},
		{RegionKey: "대구시 중구", Total: 2},
	}

	rows, stats := LeftJoin(pop("서울시 강남구", "부산시 중구", "서울시 강남구", ""), counts)
	require.Len(t, rows, 4)
	assert.Equal(t, 7, rows[0].FacilityCount)
	assert.Equal(t, 0, rows[1].FacilityCount)
	assert.Equal(t, 7, rows[2].FacilityCount)
	assert.Equal(t, 0, rows[3].FacilityCount)
	assert.Equal(t, "부산시 중구", rows[1].RegionName)
	assert.Equal(t, 2.0, rows[1].Ratio)
	assert.Equal(t, model.MatchNone, rows[1].MatchMethod)
	assert.Nil(t, rows[0].FacilityCounts)

	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, 2, stats.Matched)
	assert.Equal(t, 2, stats.Unmatched)
	assert.Equal(t, []string{"서울시 강남구"}, stats.DuplicateKeys)
	assert.Equal(t, []string{"대구시 중구"}, stats.OrphanKeys)
	assert.Equal(t, []string{"서울시 강남구", "대구시 중구"}, stats.FacilitySample)
}

func TestLeftJoin_CategoriesZeroFilled(t *testing.T) {
	counts := []model.FacilityCount{{
		RegionKey:  "서울시 강남구",
		Total:      3,
		ByCategory: map[model.Category]int{model.CategoryHospital: 2, model.CategoryPharmacy: 1},
	}}

	rows, _ := LeftJoin(pop("서울시 강남구", "부산시 중구"), counts)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].FacilityCounts[model.CategoryHospital])
	assert.Equal(t, 0, rows[0].FacilityCounts[model.CategoryWelfare])
	assert.Len(t, rows[1].FacilityCounts, len(model.Categories))
	for _, c := range model.Categories {
		assert.Equal(t, 0, rows[1].FacilityCounts[c])
	}
}

func TestLeftJoin_NothingMatches(t *testing.T) {
	rows, stats := LeftJoin(pop("가구", "나구"), []model.FacilityCount{{RegionKey: "다구", Total: 1}})
	assert.Len(t, rows, 2)
	assert.Zero(t, stats.Matched)
	assert.Equal(t, []string{"가구", "나구"}, stats.PopulationSample)
	assert.Equal(t, []string{"다구"}, stats.FacilitySample)
}

func TestLeftJoin_Empty(t *testing.T) {
	rows, stats := LeftJoin(nil, nil)
	assert.Empty(t, rows)
	assert.Zero(t, stats.Rows)
}

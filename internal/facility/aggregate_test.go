package facility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/access-cli/internal/model"
	"github.com/sells-group/access-cli/internal/region"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want model.Category
	}{
		{"종합병원", model.CategoryHospital},
		{"내과의원", model.CategoryHospital},
		{"요양병원", model.CategoryHospital},
		{"보건소", model.CategoryHospital},
		{"Community Clinic", model.CategoryHospital},
		{"온누리약국", model.CategoryPharmacy},
		{"PHARMACY", model.CategoryPharmacy},
		{"노인복지관", model.CategoryWelfare},
		{"재가요양센터", model.CategoryWelfare},
		{"day care", model.CategoryWelfare},
		{"welfare", model.CategoryWelfare},
		{"편의점", model.CategoryOther},
		{"", model.CategoryOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.in), tt.in)
	}
}

func TestRecords(t *testing.T) {
	n := region.NewNormalizer(nil)
	recs := Records(n,
		[]string{"서울특별시 강남구 테헤란로 1", "nan", "부산 해운대구 우동 2"},
		[]string{"의원", "약국"},
	)
	require.Len(t, recs, 3)
	assert.Equal(t, "서울시 강남구", recs[0].RegionKey)
	assert.Equal(t, model.CategoryHospital, recs[0].Category)
	assert.Equal(t, "", recs[1].RegionKey)
	assert.Equal(t, model.CategoryPharmacy, recs[1].Category)
	assert.Equal(t, "부산시 해운대구", recs[2].RegionKey)
	assert.Equal(t, model.CategoryOther, recs[2].Category)
}

func TestAggregate_CountsPerKey(t *testing.T) {
	recs := []model.FacilityRecord{
		{RegionKey: "서울시 강남구"},
		{RegionKey: "부산시 중구"},
		{RegionKey: "서울시 강남구"},
		{RegionKey: "서울시 강남구"},
	}

	counts, stats := Aggregate(recs, false)
	require.Len(t, counts, 2)
	assert.Equal(t, "부산시 중구", counts[0].RegionKey)
	assert.Equal(t, 1, counts[0].Total)
	assert.Equal(t, "서울시 강남구", counts[1].RegionKey)
	assert.Equal(t, 3, counts[1].Total)
	assert.Nil(t, counts[1].ByCategory)

	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, 4, stats.Kept)
	assert.Zero(t, stats.Dropped)
	assert.Equal(t, 2, stats.Regions)
}

func TestAggregate_TotalsMatchInput(t *testing.T) {
	var recs []model.FacilityRecord
	keys := []string{"a구", "b구", "c구"}
	for i := range 30 {
		recs = append(recs, model.FacilityRecord{RegionKey: keys[i%3]})
	}

	counts, stats := Aggregate(recs, false)
	total := 0
	for _, c := range counts {
		assert.GreaterOrEqual(t, c.Total, 0)
		total += c.Total
	}
	assert.Equal(t, stats.Kept, total)
	assert.Equal(t, 30, total)
}

func TestAggregate_DropsEmptyKeys(t *testing.T) {
	recs := []model.FacilityRecord{
		{RawAddress: "???", RegionKey: ""},
		{RawAddress: "서울 강남구", RegionKey: "서울시 강남구"},
		{RawAddress: "", RegionKey: ""},
	}

	counts, stats := Aggregate(recs, false)
	require.Len(t, counts, 1)
	assert.Equal(t, 2, stats.Dropped)
	assert.Equal(t, 1, stats.Kept)
	assert.Equal(t, []string{"???", ""}, stats.DroppedSamples)
}

func TestAggregate_ByCategory(t *testing.T) {
	recs := []model.FacilityRecord{
		{RegionKey: "서울시 강남구", Category: model.CategoryHospital},
		{RegionKey: "서울시 강남구", Category: model.CategoryPharmacy},
		{RegionKey: "서울시 강남구", Category: model.CategoryPharmacy},
		{RegionKey: "서울시 강남구", Category: ""},
	}

	counts, _ := Aggregate(recs, true)
	require.Len(t, counts, 1)
	c := counts[0]
	assert.Equal(t, 4, c.Total)
	assert.Equal(t, map[model.Category]int{
		model.CategoryHospital: 1,
		model.CategoryPharmacy: 2,
		model.CategoryWelfare:  0,
		model.CategoryOther:    1,
	}, c.ByCategory)
}

func TestAggregate_Empty(t *testing.T) {
	counts, stats := Aggregate(nil, true)
	assert.Empty(t, counts)
	assert.Zero(t, stats.Rows)
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnMapping_GetSet(t *testing.T) {
	var m ColumnMapping
	m.Set(RoleRegion, "행정구역")
	m.Set(RoleRatio, "비율")
	m.Set(RoleHouseholds, "가구수")
	m.Set(RoleAddress, "주소")
	m.Set(RoleCategory, "종별")

	assert.Equal(t, "행정구역", m.Get(RoleRegion))
	assert.Equal(t, "비율", m.Get(RoleRatio))
	assert.Equal(t, "가구수", m.Get(RoleHouseholds))
	assert.Equal(t, "주소", m.Get(RoleAddress))
	assert.Equal(t, "종별", m.Get(RoleCategory))
	assert.Equal(t, "", m.Get(Role("bogus")))
}

func TestColumnMapping_MergeKeepsExplicit(t *testing.T) {
	explicit := ColumnMapping{Region: "시군구"}
	detected := ColumnMapping{Region: "행정구역", Ratio: "비율", Address: "주소"}

	got := explicit.Merge(detected)
	assert.Equal(t, "시군구", got.Region)
	assert.Equal(t, "비율", got.Ratio)
	assert.Equal(t, "주소", got.Address)
	assert.Empty(t, got.Category)
}

func TestColumnMapping_ValidateOK(t *testing.T) {
	m := ColumnMapping{Region: "행정구역", Ratio: "비율", Address: "주소"}
	err := m.Validate([]string{"행정구역", "비율", "가구수"}, []string{"기관명", "주소"})
	require.NoError(t, err)
}

func TestColumnMapping_ValidateMissingRequired(t *testing.T) {
	m := ColumnMapping{Region: "행정구역"}
	err := m.Validate([]string{"행정구역"}, []string{"주소"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ratio column is not set")
	assert.Contains(t, err.Error(), "address column is not set")
}

func TestColumnMapping_ValidateUnknownHeader(t *testing.T) {
	m := ColumnMapping{Region: "행정구역", Ratio: "비율", Address: "소재지", Category: "유형"}
	err := m.Validate([]string{"행정구역", "비율"}, []string{"주소"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `address column "소재지" not in facility file`)
	assert.Contains(t, err.Error(), `category column "유형" not in facility file`)
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryHospital, ParseCategory("hospital"))
	assert.Equal(t, CategoryPharmacy, ParseCategory(" Pharmacy "))
	assert.Equal(t, CategoryWelfare, ParseCategory("WELFARE"))
	assert.Equal(t, CategoryOther, ParseCategory("clinic"))
	assert.Equal(t, CategoryOther, ParseCategory(""))
}

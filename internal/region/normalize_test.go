package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/unicode/norm"
)

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   "))
}

func TestNormalize_NullLike(t *testing.T) {
	for _, in := range []string{"nan", "NaN", "None", "null", "<NA>", "N/A", "-"} {
		assert.Equal(t, "", Normalize(in), in)
	}
}

func TestNormalize_MetropolitanSuffix(t *testing.T) {
	assert.Equal(t, "서울시 강남구", Normalize("서울특별시 강남구"))
	assert.Equal(t, "부산시 해운대구", Normalize("부산광역시 해운대구"))
	assert.Equal(t, "세종시", Normalize("세종특별자치시"))
	assert.Equal(t, "수원시 장안구", Normalize("수원특례시 장안구"))
}

func TestNormalize_ProvinceSuffix(t *testing.T) {
	assert.Equal(t, "제주도 제주시", Normalize("제주특별자치도 제주시"))
	assert.Equal(t, "강원도 춘천시", Normalize("강원특별자치도 춘천시"))
	assert.Equal(t, "전라북도 전주시", Normalize("전북특별자치도 전주시"))
}

func TestNormalize_Parentheses(t *testing.T) {
	assert.Equal(t, "수원시", Normalize("수원시 (장안구 포함)"))
	assert.Equal(t, "창원시 의창구", Normalize("창원시（구 창원）의창구"))
	assert.Equal(t, "고양시", Normalize("고양시[경기]"))
}

func TestNormalize_Whitespace(t *testing.T) {
	assert.Equal(t, "부산시 해운대구", Normalize("  부산광역시   해운대구 "))
	assert.Equal(t, "서울시 강남구", Normalize("서울시\t강남구"))
	assert.Equal(t, "서울시 강남구", Normalize("서울시_강남구"))
}

func TestNormalize_Aliases(t *testing.T) {
	assert.Equal(t, "경기도 수원시", Normalize("경기 수원시"))
	assert.Equal(t, "서울시 강남구", Normalize("서울 강남구"))
	assert.Equal(t, "경상북도 포항시", Normalize("경북 포항시"))
}

func TestNormalize_NFC(t *testing.T) {
	decomposed := norm.NFD.String("서울특별시 강남구")
	assert.NotEqual(t, "서울특별시 강남구", decomposed)
	assert.Equal(t, "서울시 강남구", Normalize(decomposed))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"서울특별시 강남구",
		"수원특례시 (장안구)",
		"전북특별자치도 전주시 완산구",
		"  경기   성남시 분당구 ",
		"세종특별자치시",
		"nan",
		"창원시（구 창원）의창구",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), in)
	}
}

func TestNormalizer_CustomAliases(t *testing.T) {
	n := NewNormalizer(AliasTable{"청원군": "청주시"})
	assert.Equal(t, "충북 청주시", n.Normalize("충북 청원군"))
	assert.Equal(t, "청주시", n.Key("충북 청원군"))
}

func TestCompact(t *testing.T) {
	assert.Equal(t, "수원시장안구", Compact("수원시 장안구"))
	assert.Equal(t, "", Compact(""))
}

package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/keyword-cli/pkg/naver"
)

func TestExtractRegionKeywords_Province(t *testing.T) {
	got := ExtractRegionKeywords(reverse("경기도", "성남시", "분당구", "정자동"))
	assert.Equal(t, []string{"경기도", "성남시", "분당구", "정자동", "경기"}, got)
}

func TestExtractRegionKeywords_CityDropsArea4(t *testing.T) {
	got := ExtractRegionKeywords(reverse("서울특별시", "강남구", "역삼동", "역삼1동"))
	assert.Equal(t, []string{"서울특별시", "강남구", "역삼동", "서울"}, got)

	got = ExtractRegionKeywords(reverse("부산광역시", "해운대구", "우동"))
	assert.Equal(t, []string{"부산광역시", "해운대구", "우동", "부산"}, got)
}

func TestExtractRegionKeywords_SpecialSelfGoverning(t *testing.T) {
	got := ExtractRegionKeywords(reverse("세종특별자치시", "", "조치원읍"))
	assert.Equal(t, []string{"세종특별자치시", "조치원읍", "세종"}, got)

	got = ExtractRegionKeywords(reverse("제주특별자치도", "제주시", "연동"))
	assert.Equal(t, []string{"제주특별자치도", "제주시", "연동", "제주"}, got)
}

func TestExtractRegionKeywords_MergesResultsAndSkipsEmpty(t *testing.T) {
	resp := &naver.ReverseResponse{Results: []naver.ReverseResult{
		{Name: "addr", Region: naver.Region{Area1: naver.Area{Name: "경기도"}, Area2: naver.Area{Name: "성남시"}}},
		{Name: "legalcode", Region: naver.Region{}},
		{Name: "roadaddr", Region: naver.Region{Area1: naver.Area{Name: "경기도"}, Area2: naver.Area{Name: "성남시 분당구"}}},
	}}
	assert.Equal(t, []string{"경기도", "성남시", "경기", "성남시 분당구"}, ExtractRegionKeywords(resp))
	assert.Equal(t, []string{}, ExtractRegionKeywords(nil))
}

func TestShortenAndCombineRegionTerms(t *testing.T) {
	short := ShortenRegionTerms([]string{"서울특별시", "강남구", "역삼동", "서울", "동"}, []string{"특별시", "구", "동"})
	assert.Equal(t, []string{"서울", "강남", "역삼"}, short)

	combined := CombineRegionTerms([]string{"강남", "역삼"})
	assert.Equal(t, []string{"강남역삼", "역삼강남"}, combined)
	assert.Empty(t, CombineRegionTerms([]string{"강남"}))
}

func TestFilterPOIs(t *testing.T) {
	pois := []string{"강남역3번출구", "선릉역", "", "선릉역"}
	assert.Equal(t, []string{"선릉역"}, FilterPOIs(pois, []string{"강남역"}))
	assert.Equal(t, []string{"선릉역"}, FilterPOIs(pois, []string{"강남"}))
	assert.Equal(t, []string{"강남역3번출구", "선릉역"}, FilterPOIs(pois, []string{"서초구"}))
}

func TestLocalQuery(t *testing.T) {
	regions := []string{"서울특별시", "강남구", "역삼동"}
	assert.Equal(t, "서울특별시 강남구 치과", LocalQuery(regions, "치과", 2))
	assert.Equal(t, "서울특별시 강남구 역삼동 치과", LocalQuery(regions, "치과", 10))
	assert.Equal(t, "치과", LocalQuery(nil, "치과", 2))
	assert.Equal(t, "치과", LocalQuery(regions, " 치과 ", 0))
}

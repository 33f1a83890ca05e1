package terms

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/keyword-cli/internal/config"
)

func testExtractor() *Extractor {
	return NewExtractor(config.KeywordsConfig{
		ServiceTerms: []string{"심리상담"},
		ServiceSuffixRules: []config.SuffixRule{
			{Suffix: "병원", AddSuffixes: []string{"의원", "클리닉"}},
			{Suffix: "상담", AddSuffixes: []string{"상담소"}},
		},
		ServiceExpansions: []config.ExpansionRule{
			{TriggerTerms: []string{"리프팅"}, IncludeTerms: []string{"울쎄라", "써마지"}},
		},
		NameBaseTerms:    []string{"치과"},
		NameSuffixTerms:  []string{"의원"},
		NameIncludeTerms: []string{"교정"},
		NameExpansions: []config.ExpansionRule{
			{TriggerTerms: []string{"임플란트"}, IncludeTerms: []string{"임플란트치과"}},
		},
	}, []config.IndustrySynonym{
		{Industry: "피부과", Keywords: []string{"리프팅", "보톡스"}},
		{Industry: "성형외과", Keywords: []string{"쌍꺼풀"}},
	})
}

func TestDeriveIndustries_FirstMatchWins(t *testing.T) {
	e := testExtractor()
	got := e.DeriveIndustries("보톡스, 쌍꺼풀", []string{"보톡스", "쌍꺼풀"})
	assert.Equal(t, []string{"피부과"}, got)
}

func TestDeriveIndustries_FallbackToFirstTerm(t *testing.T) {
	e := testExtractor()
	assert.Equal(t, []string{"네일"}, e.DeriveIndustries("네일, 속눈썹", []string{"네일", "속눈썹"}))
	assert.Empty(t, e.DeriveIndustries("", nil))
}

func TestExpandServices(t *testing.T) {
	e := testExtractor()
	got := e.ExpandServices("리프팅 전문", []string{"동물병원", "리프팅"})
	assert.Equal(t, []string{
		"동물병원", "리프팅", "심리상담",
		"동물의원", "동물클리닉", "심리상담소",
		"울쎄라", "써마지",
	}, got)
}

func TestExpandServices_SuffixNeedsBase(t *testing.T) {
	e := testExtractor()
	got := e.ExpandServices("", []string{"병원"})
	assert.Equal(t, []string{"병원", "심리상담", "심리상담소"}, got)
}

func TestExpandServices_TriggerFromTerm(t *testing.T) {
	e := testExtractor()
	got := e.ExpandServices("", []string{"실리프팅"})
	assert.Contains(t, got, "울쎄라")
}

func TestExpandServices_Pure(t *testing.T) {
	e := testExtractor()
	in := []string{"동물병원"}
	first := e.ExpandServices("x", in)
	second := e.ExpandServices("x", in)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"동물병원"}, in)
}

func TestExtractNameTerms(t *testing.T) {
	e := testExtractor()
	got := e.ExtractNameTerms("바른교정 치과의원 임플란트센터")
	assert.Equal(t, []string{"교정", "치과", "치과의원", "임플란트치과"}, got)
	assert.Empty(t, e.ExtractNameTerms("스타벅스"))
}

func TestServiceTerms(t *testing.T) {
	e := testExtractor()
	got := e.ServiceTerms("강남치과", "스케일링, 미백")
	assert.Equal(t, []string{"스케일링", "미백", "치과", "심리상담", "심리상담소"}, got)
}

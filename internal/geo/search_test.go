package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/keyword-cli/internal/config"
	"github.com/sells-group/keyword-cli/pkg/naver"
)

var center = naver.Coordinates{Longitude: 127.0363, Latitude: 37.5003}

func searchCfg() config.SearchConfig {
	return config.SearchConfig{
		RadiusStartKM:       1,
		RadiusMaxKM:         3,
		RadiusStepKM:        1,
		CompetitionMinCount: 30,
		LocalRegionTerms:    2,
	}
}

func radius(m int) any {
	return mock.MatchedBy(func(q naver.PlaceQuery) bool { return q.RadiusM == m && q.Query == "치과" })
}

func TestPickCompetitionRadius_FirstRingMeetingThreshold(t *testing.T) {
	maps := &mockMaps{}
	maps.On("SearchPlace", mock.Anything, radius(1000)).Return(places(12), nil).Once()
	maps.On("SearchPlace", mock.Anything, radius(2000)).Return(places(31), nil).Once()

	s := NewSearcher(maps, nil, searchCfg(), config.POIConfig{})
	got := s.PickCompetitionRadius(context.Background(), "치과", center, nil)

	assert.InDelta(t, 2.0, got, 1e-9)
	maps.AssertExpectations(t)
}

func TestPickCompetitionRadius_FractionalRingKept(t *testing.T) {
	maps := &mockMaps{}
	maps.On("SearchPlace", mock.Anything, radius(500)).Return(places(3), nil).Once()
	maps.On("SearchPlace", mock.Anything, radius(1000)).Return(places(12), nil).Once()
	maps.On("SearchPlace", mock.Anything, radius(1500)).Return(places(31), nil).Once()

	cfg := searchCfg()
	cfg.RadiusStartKM, cfg.RadiusMaxKM, cfg.RadiusStepKM = 0.5, 2, 0.5
	s := NewSearcher(maps, nil, cfg, config.POIConfig{})
	got := s.PickCompetitionRadius(context.Background(), "치과", center, nil)

	assert.InDelta(t, 1.5, got, 1e-9)
	maps.AssertExpectations(t)
}

func TestPickCompetitionRadius_NeverMetReturnsMax(t *testing.T) {
	maps := &mockMaps{}
	maps.On("SearchPlace", mock.Anything, mock.Anything).Return(places(3), nil).Times(3)

	s := NewSearcher(maps, nil, searchCfg(), config.POIConfig{})
	assert.InDelta(t, 3.0, s.PickCompetitionRadius(context.Background(), "치과", center, nil), 1e-9)
	maps.AssertExpectations(t)
}

func TestPickCompetitionRadius_ProviderErrorCountsAsZero(t *testing.T) {
	maps := &mockMaps{}
	maps.On("SearchPlace", mock.Anything, mock.Anything).Return(nil, errors.New("503")).Times(3)

	s := NewSearcher(maps, nil, searchCfg(), config.POIConfig{})
	assert.InDelta(t, 3.0, s.PickCompetitionRadius(context.Background(), "치과", center, nil), 1e-9)
}

func TestPickCompetitionRadius_LocalMode(t *testing.T) {
	cfg := searchCfg()
	cfg.UseLocalAPI = true
	regions := []string{"서울특별시", "강남구", "역삼동"}

	local := &mockLocal{}
	local.On("SearchLocal", mock.Anything, "서울특별시 강남구 치과", 5).
		Return(naver.Payload{"total": float64(45), "items": []any{}}, nil).Once()
	s := NewSearcher(&mockMaps{}, local, cfg, config.POIConfig{})
	assert.InDelta(t, 1.0, s.PickCompetitionRadius(context.Background(), "치과", center, regions), 1e-9)

	sparse := &mockLocal{}
	sparse.On("SearchLocal", mock.Anything, mock.Anything, 5).
		Return(naver.Payload{"total": float64(4)}, nil).Once()
	s = NewSearcher(&mockMaps{}, sparse, cfg, config.POIConfig{})
	assert.InDelta(t, 3.0, s.PickCompetitionRadius(context.Background(), "치과", center, regions), 1e-9)

	local.AssertExpectations(t)
	sparse.AssertExpectations(t)
}

func TestPickCompetitionRadius_LocalModeWithoutClientUsesMaps(t *testing.T) {
	cfg := searchCfg()
	cfg.UseLocalAPI = true
	maps := &mockMaps{}
	maps.On("SearchPlace", mock.Anything, radius(1000)).Return(places(30), nil).Once()

	s := NewSearcher(maps, nil, cfg, config.POIConfig{})
	assert.InDelta(t, 1.0, s.PickCompetitionRadius(context.Background(), "치과", center, nil), 1e-9)
}

func TestFetchPOIs_Disabled(t *testing.T) {
	s := NewSearcher(&mockMaps{}, nil, searchCfg(), config.POIConfig{Enabled: false})
	assert.Empty(t, s.FetchPOIs(context.Background(), []string{"지하철역"}, center, 1, nil, Allowlist{}))
}

func TestFetchPOIs_MapsModeUnfiltered(t *testing.T) {
	maps := &mockMaps{}
	maps.On("SearchPlace", mock.Anything, mock.MatchedBy(func(q naver.PlaceQuery) bool {
		return q.Query == "지하철역" && q.RadiusM == 1500
	})).Return(places(2, "역삼역", "<b>선릉역</b>"), nil)
	maps.On("SearchPlace", mock.Anything, query("역")).Return(nil, errors.New("timeout"))

	s := NewSearcher(maps, nil, searchCfg(), config.POIConfig{Enabled: true})
	got := s.FetchPOIs(context.Background(), []string{"지하철역", "역"}, center, 1.5, nil,
		Allowlist{Categories: []string{"ignored in maps mode"}})

	assert.Equal(t, []string{"역삼역", "선릉역"}, got)
}

func TestFetchPOIs_MapsModeLogsIgnoredAllowlist(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	maps := &mockMaps{}
	maps.On("SearchPlace", mock.Anything, mock.Anything).Return(places(1, "역삼역"), nil)
	s := NewSearcher(maps, nil, searchCfg(), config.POIConfig{Enabled: true})

	s.FetchPOIs(context.Background(), []string{"지하철역"}, center, 1, nil, Allowlist{})
	assert.Zero(t, logs.FilterMessageSnippet("allow-lists").Len())

	s.FetchPOIs(context.Background(), []string{"지하철역"}, center, 1, nil, Allowlist{Categories: []string{"지하철"}})
	entries := logs.FilterMessageSnippet("allow-lists").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
		assert.Equal(t, []any{"지하철"}, entries[0].ContextMap()["categories"])
	}
}

func TestAllowlist_Empty(t *testing.T) {
	assert.True(t, Allowlist{}.Empty())
	assert.False(t, Allowlist{NameKeywords: []string{"공원"}}.Empty())
}

func TestFetchPOIs_LocalModeAllowlist(t *testing.T) {
	local := &mockLocal{}
	local.On("SearchLocal", mock.Anything, "강남구 역삼동 지하철역", 8).Return(naver.Payload{
		"items": []any{
			map[string]any{"title": "<b>역삼역</b>", "category": "지하철,전철>2호선"},
			map[string]any{"title": "역삼역 카페", "category": "카페"},
		},
	}, nil)

	cfg := searchCfg()
	s := NewSearcher(&mockMaps{}, local, cfg, config.POIConfig{Enabled: true, UseLocalAPI: true, LocalDisplay: 8})
	got := s.FetchPOIs(context.Background(), []string{"지하철역"}, center, 1, []string{"강남구", "역삼동", "서울"},
		Allowlist{Categories: []string{"지하철"}})

	assert.Equal(t, []string{"역삼역"}, got)
	local.AssertExpectations(t)
}

func TestPOIFilter_For(t *testing.T) {
	f := NewPOIFilter(config.POIConfig{
		AllowedCategories:   map[string][]string{CategorySubway: {"지하철"}},
		AllowedNameKeywords: map[string][]string{CategoryLandmark: {"공원"}},
	})
	assert.Equal(t, Allowlist{Categories: []string{"지하철"}}, f.For(CategorySubway))
	assert.Equal(t, Allowlist{NameKeywords: []string{"공원"}}, f.For(CategoryLandmark))
}

package geo

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/keyword-cli/internal/config"
	"github.com/sells-group/keyword-cli/internal/terms"
	"github.com/sells-group/keyword-cli/pkg/naver"
)

// POI categories used to key allow-lists.
const (
	CategorySubway   = "subway"
	CategoryLandmark = "landmark"
)

// competitionDisplay is the item count requested for local-mode competition
// checks; only the reported total matters.
const competitionDisplay = 5

// Searcher runs the per-location searches: competition radius and POIs.
// Provider errors are logged and treated as an empty result.
type Searcher struct {
	maps   MapsProvider
	local  LocalSearcher
	search config.SearchConfig
	pois   config.POIConfig
}

// NewSearcher creates a Searcher. local may be nil, in which case local mode
// settings fall back to the maps provider.
func NewSearcher(maps MapsProvider, local LocalSearcher, search config.SearchConfig, pois config.POIConfig) *Searcher {
	return &Searcher{maps: maps, local: local, search: search, pois: pois}
}

// PickCompetitionRadius returns the smallest radius in km whose place search
// for query reports at least search.competition_min_count results, or
// search.radius_max_km when none does.
//
// In local mode a single local search of the leading region terms plus query
// decides between the start and max radius.
func (s *Searcher) PickCompetitionRadius(ctx context.Context, query string, center naver.Coordinates, regions []string) float64 {
	cfg := s.search
	if cfg.UseLocalAPI && s.local != nil {
		q := LocalQuery(regions, query, cfg.LocalRegionTerms)
		summary := Summarize(s.searchLocal(ctx, q, competitionDisplay))
		if summary.Total >= cfg.CompetitionMinCount {
			return cfg.RadiusStartKM
		}
		return cfg.RadiusMaxKM
	}

	if cfg.RadiusStepKM <= 0 {
		return cfg.RadiusMaxKM
	}
	for i := 0; ; i++ {
		radius := cfg.RadiusStartKM + float64(i)*cfg.RadiusStepKM
		if radius > cfg.RadiusMaxKM+1e-9 {
			break
		}
		if ctx.Err() != nil {
			break
		}
		summary := Summarize(s.searchPlace(ctx, query, center, radius))
		if summary.Total >= cfg.CompetitionMinCount {
			return radius
		}
	}
	return cfg.RadiusMaxKM
}

// FetchPOIs runs each query and returns the place names found, in order and
// de-duplicated. Maps mode searches within radiusKM of center without
// filtering. Local mode prefixes the region terms and keeps only items
// matching the category's allow-lists. Returns nothing when POIs are
// disabled.
func (s *Searcher) FetchPOIs(ctx context.Context, queries []string, center naver.Coordinates, radiusKM float64, regions []string, allow Allowlist) []string {
	if !s.pois.Enabled {
		return []string{}
	}

	var names []string
	if s.pois.UseLocalAPI && s.local != nil {
		display := s.pois.LocalDisplay
		if display <= 0 {
			display = 10
		}
		for _, query := range queries {
			q := LocalQuery(regions, query, s.search.LocalRegionTerms)
			summary := Summarize(s.searchLocal(ctx, q, display))
			names = append(names, summary.FilteredNames(allow.Categories, allow.NameKeywords)...)
		}
	} else {
		if !allow.Empty() {
			zap.L().Debug("poi allow-lists apply to local search only, maps results are unfiltered",
				zap.Strings("queries", queries),
				zap.Strings("categories", allow.Categories),
				zap.Strings("name_keywords", allow.NameKeywords),
			)
		}
		for _, query := range queries {
			names = append(names, Summarize(s.searchPlace(ctx, query, center, radiusKM)).Names()...)
		}
	}
	return terms.Unique(names...)
}

func (s *Searcher) searchPlace(ctx context.Context, query string, center naver.Coordinates, radiusKM float64) naver.Payload {
	payload, err := s.maps.SearchPlace(ctx, naver.PlaceQuery{
		Query:   query,
		Center:  center,
		RadiusM: int(math.Round(radiusKM * 1000)),
	})
	if err != nil {
		zap.L().Warn("place search failed",
			zap.String("query", query),
			zap.Float64("radius_km", radiusKM),
			zap.Error(err),
		)
		return nil
	}
	return payload
}

func (s *Searcher) searchLocal(ctx context.Context, query string, display int) naver.Payload {
	payload, err := s.local.SearchLocal(ctx, query, display)
	if err != nil {
		zap.L().Warn("local search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return payload
}

// Allowlist restricts local-mode POI results for one category.
type Allowlist struct {
	Categories   []string
	NameKeywords []string
}

// Empty reports whether the allow-list restricts nothing.
func (a Allowlist) Empty() bool {
	return len(a.Categories) == 0 && len(a.NameKeywords) == 0
}

// POIFilter holds allow-lists keyed by POI category.
type POIFilter struct {
	AllowedCategories   map[string][]string
	AllowedNameKeywords map[string][]string
}

// NewPOIFilter returns the allow-lists configured in cfg.
func NewPOIFilter(cfg config.POIConfig) POIFilter {
	return POIFilter{
		AllowedCategories:   cfg.AllowedCategories,
		AllowedNameKeywords: cfg.AllowedNameKeywords,
	}
}

// For returns the allow-lists for category.
func (f POIFilter) For(category string) Allowlist {
	return Allowlist{
		Categories:   f.AllowedCategories[category],
		NameKeywords: f.AllowedNameKeywords[category],
	}
}

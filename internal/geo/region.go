package geo

import (
	"strings"

	"github.com/sells-group/keyword-cli/internal/terms"
	"github.com/sells-group/keyword-cli/pkg/naver"
)

// area1Suffixes shortens top-level region names, e.g. 서울특별시 -> 서울,
// 경기도 -> 경기. Order matters: longer administrative suffixes first.
var area1Suffixes = []string{"특별자치시", "특별시", "광역시", "특별자치도", "자치도", "도", "시"}

// ExtractRegionKeywords turns reverse geocoding results into region terms.
// For city-level area1 names (ending in 시) levels 1-3 are used, otherwise
// levels 1-4; the shortened area1 follows. Results without area1 are skipped.
func ExtractRegionKeywords(resp *naver.ReverseResponse) []string {
	if resp == nil {
		return []string{}
	}
	set := terms.NewOrderedSet()
	for _, result := range resp.Results {
		r := result.Region
		area1 := r.Area1.Name
		if area1 == "" {
			continue
		}
		levels := []string{area1, r.Area2.Name, r.Area3.Name}
		// 광역시 and 특별시 also end in 시.
		if !strings.HasSuffix(area1, "시") {
			levels = append(levels, r.Area4.Name)
		}
		set.Add(levels...)
		if short, ok := terms.ShortenSuffix(area1, area1Suffixes); ok {
			set.Add(short)
		}
	}
	return set.Items()
}

// ShortenRegionTerms returns the shortened form of every term that ends in
// one of suffixes. Terms without a matching suffix are left out.
func ShortenRegionTerms(regions, suffixes []string) []string {
	set := terms.NewOrderedSet()
	for _, term := range regions {
		if short, ok := terms.ShortenSuffix(term, suffixes); ok {
			set.Add(short)
		}
	}
	return set.Items()
}

// CombineRegionTerms concatenates every ordered pair of distinct terms.
func CombineRegionTerms(regions []string) []string {
	set := terms.NewOrderedSet()
	for _, first := range regions {
		for _, second := range regions {
			if first != second {
				set.Add(first + second)
			}
		}
	}
	return set.Items()
}

// FilterPOIs drops POIs that contain any address token.
func FilterPOIs(pois, addressTokens []string) []string {
	set := terms.NewOrderedSet()
	for _, poi := range pois {
		if poi == "" || terms.ContainsAny(poi, addressTokens) {
			continue
		}
		set.Add(poi)
	}
	return set.Items()
}

// LocalQuery prefixes query with at most maxTerms region terms.
func LocalQuery(regions []string, query string, maxTerms int) string {
	n := min(max(maxTerms, 0), len(regions))
	prefix := strings.Join(regions[:n], " ")
	return strings.TrimSpace(prefix + " " + query)
}

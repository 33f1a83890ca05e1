// Package export orders synthesized keywords, allocates them to ad groups,
// and writes one upload file per group.
package export

import (
	"cmp"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/sells-group/keyword-cli/internal/model"
)

// ErrNoAdGroups is returned when there is nothing to allocate keywords to.
var ErrNoAdGroups = eris.New("export: no ad_group_id values found")

// ShortfallError reports that fewer keywords exist than the ad groups need.
type ShortfallError struct {
	Target    int
	Available int
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("export: not enough keywords (%d) to fill %d; add modifiers or loosen filters", e.Available, e.Target)
}

// Missing is the number of keywords short of the target.
func (e *ShortfallError) Missing() int {
	return e.Target - e.Available
}

// Sort orders keywords by rank, then rune length, then lexicographically.
func Sort(ranks model.KeywordRank) []string {
	out := make([]string, 0, len(ranks))
	for kw := range ranks {
		out = append(out, kw)
	}
	slices.SortFunc(out, func(a, b string) int {
		return cmp.Or(
			cmp.Compare(ranks[a], ranks[b]),
			cmp.Compare(utf8.RuneCountInString(a), utf8.RuneCountInString(b)),
			cmp.Compare(a, b),
		)
	})
	return out
}

// Options control allocation edge cases.
type Options struct {
	// AllowShortfall allocates what exists instead of failing when there are
	// fewer keywords than the target.
	AllowShortfall bool
	// AllowPartialGroup lets the last allocated group take a short chunk.
	AllowPartialGroup bool
}

// Group is one ad group's allocated keywords.
type Group struct {
	// Index is the 1-based position of the ad group in the input list.
	Index    int
	ID       string
	Keywords []string
}

// Plan is the result of allocation.
type Plan struct {
	Groups           []Group
	TargetTotal      int
	SelectedTotal    int
	Shortfall        int
	KeywordsPerGroup int
}

// AllocatedTotal counts the keywords assigned to groups.
func (p *Plan) AllocatedTotal() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Keywords)
	}
	return n
}

// Allocate sorts ranks and assigns contiguous chunks of perGroup keywords to
// adGroupIDs in order. Allocation stops at the first group that cannot be
// filled; with AllowPartialGroup that group receives the remainder instead.
// When fewer keywords than len(adGroupIDs)*perGroup exist, a *ShortfallError
// is returned unless AllowShortfall is set.
func Allocate(ranks model.KeywordRank, adGroupIDs []string, perGroup int, opts Options) (*Plan, error) {
	if len(adGroupIDs) == 0 {
		return nil, ErrNoAdGroups
	}
	if perGroup <= 0 {
		return nil, eris.Errorf("export: keywords per group must be positive, got %d", perGroup)
	}

	target := len(adGroupIDs) * perGroup
	plan := &Plan{TargetTotal: target, KeywordsPerGroup: perGroup}
	if len(ranks) < target {
		plan.Shortfall = target - len(ranks)
		if !opts.AllowShortfall {
			return nil, &ShortfallError{Target: target, Available: len(ranks)}
		}
	}

	sorted := Sort(ranks)
	if len(sorted) > target {
		sorted = sorted[:target]
	}
	plan.SelectedTotal = len(sorted)

	for i, id := range adGroupIDs {
		start := i * perGroup
		if start >= len(sorted) {
			break
		}
		end := start + perGroup
		if end > len(sorted) {
			if !opts.AllowPartialGroup {
				break
			}
			end = len(sorted)
		}
		plan.Groups = append(plan.Groups, Group{
			Index:    i + 1,
			ID:       id,
			Keywords: sorted[start:end],
		})
	}
	return plan, nil
}

// PreviewRow is one allocated keyword.
type PreviewRow struct {
	AdGroupID string `json:"ad_group_id"`
	Keyword   string `json:"keyword"`
}

// Preview returns the first limit allocated keywords in file order.
func Preview(plan *Plan, limit int) []PreviewRow {
	rows := make([]PreviewRow, 0, min(max(limit, 0), plan.AllocatedTotal()))
	for _, g := range plan.Groups {
		for _, kw := range g.Keywords {
			if len(rows) >= limit {
				return rows
			}
			rows = append(rows, PreviewRow{AdGroupID: g.ID, Keyword: kw})
		}
	}
	return rows
}

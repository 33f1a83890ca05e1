package synth

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/keyword-cli/internal/config"
	"github.com/sells-group/keyword-cli/internal/model"
	"github.com/sells-group/keyword-cli/internal/terms"
)

// Engine expands patterns over term columns into a KeywordRank.
type Engine struct {
	patterns []model.Pattern
	joiner   string
	policy   *Policy
}

// NewEngine builds an engine from the keyword and filter configuration.
func NewEngine(kw config.KeywordsConfig, filters config.FiltersConfig) (*Engine, error) {
	policy, err := NewPolicy(filters)
	if err != nil {
		return nil, err
	}
	return &Engine{
		patterns: model.PatternsFrom(kw.Patterns),
		joiner:   kw.Joiner,
		policy:   policy,
	}, nil
}

// Patterns returns the configured patterns.
func (e *Engine) Patterns() []model.Pattern {
	return e.patterns
}

// Generate expands every configured pattern over each context's columns,
// with modifiers as the modifier column, and merges the results.
func (e *Engine) Generate(contexts []model.BusinessContext, modifiers []string) model.KeywordRank {
	ranks := make(model.KeywordRank)
	mods := terms.Unique(modifiers...)
	for _, bc := range contexts {
		columns := map[string][]string{
			model.ColRegion:   bc.RegionKeywords,
			model.ColIndustry: bc.Industries,
			model.ColService:  bc.Services,
			model.ColModifier: mods,
			model.ColPOI:      bc.POIKeywords,
		}
		e.expand(columns, e.patterns, ranks)
	}
	return ranks
}

// GenerateFromComponents expands patterns over user-supplied term pools.
// Only the region, service, modifier and poi columns exist here; a pattern
// referencing industry contributes nothing.
func (e *Engine) GenerateFromComponents(c model.Components, patterns []model.Pattern) model.KeywordRank {
	columns := map[string][]string{
		model.ColRegion:   terms.Unique(c.Regions...),
		model.ColService:  terms.Unique(c.Services...),
		model.ColModifier: terms.Unique(c.Modifiers...),
		model.ColPOI:      terms.Unique(c.POIs...),
	}
	ranks := make(model.KeywordRank)
	e.expand(columns, patterns, ranks)
	return ranks
}

// Escalation is the outcome of tiered modifier escalation.
type Escalation struct {
	Ranks     model.KeywordRank
	Modifiers []string
	TiersUsed int
}

// Escalate adds modifier tiers one at a time, regenerating after each, until
// at least target keywords exist or the tiers run out. With no tiers it
// generates once without modifiers.
func (e *Engine) Escalate(contexts []model.BusinessContext, tiers [][]string, target int) Escalation {
	if len(tiers) == 0 {
		return Escalation{Ranks: e.Generate(contexts, nil), Modifiers: []string{}}
	}

	selected := terms.NewOrderedSet()
	var out Escalation
	for i, tier := range tiers {
		selected.Add(tier...)
		out = Escalation{
			Ranks:     e.Generate(contexts, selected.Items()),
			Modifiers: selected.Items(),
			TiersUsed: i + 1,
		}
		zap.L().Debug("modifier tier applied",
			zap.Int("tier", i+1),
			zap.Int("modifiers", selected.Len()),
			zap.Int("keywords", len(out.Ranks)),
			zap.Int("target", target),
		)
		if len(out.Ranks) >= target {
			break
		}
	}
	return out
}

// expand adds every product of the pattern columns to ranks. A pattern with
// any empty column is skipped.
func (e *Engine) expand(columns map[string][]string, patterns []model.Pattern, ranks model.KeywordRank) {
	for _, pattern := range patterns {
		if len(pattern) == 0 {
			continue
		}
		parts := make([][]string, len(pattern))
		skip := false
		for i, col := range pattern {
			parts[i] = columns[col]
			if len(parts[i]) == 0 {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		rank := len(pattern)
		product(parts, func(combo []string) {
			keyword := strings.Join(combo, e.joiner)
			if e.policy.Excluded(keyword) {
				return
			}
			ranks.Offer(keyword, rank)
		})
	}
}

// product calls fn with each element of the cartesian product of parts, in
// lexicographic order of indices (last position varies fastest). combo is
// reused between calls.
func product(parts [][]string, fn func(combo []string)) {
	idx := make([]int, len(parts))
	combo := make([]string, len(parts))
	for i := range parts {
		combo[i] = parts[i][0]
	}
	for {
		fn(combo)
		pos := len(parts) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(parts[pos]) {
				combo[pos] = parts[pos][idx[pos]]
				break
			}
			idx[pos] = 0
			combo[pos] = parts[pos][0]
			pos--
		}
		if pos < 0 {
			return
		}
	}
}

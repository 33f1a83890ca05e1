// Package synth synthesizes ranked keywords from business contexts and
// keyword patterns.
package synth

import (
	"regexp"

	"github.com/rotisserie/eris"

	"github.com/sells-group/keyword-cli/internal/config"
	"github.com/sells-group/keyword-cli/internal/terms"
)

// Policy rejects keywords matching any exclusion regex, or containing both
// an industry term and a modifier of the same exclusion pair.
type Policy struct {
	regexes []*regexp.Regexp
	pairs   []config.ExcludePair
}

// NewPolicy compiles the configured exclusion rules.
func NewPolicy(cfg config.FiltersConfig) (*Policy, error) {
	p := &Policy{pairs: cfg.ExcludePairs}
	for _, expr := range cfg.ExcludeRegex {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, eris.Wrapf(err, "synth: compile exclude regex %q", expr)
		}
		p.regexes = append(p.regexes, re)
	}
	return p, nil
}

// Excluded reports whether keyword must be dropped.
func (p *Policy) Excluded(keyword string) bool {
	if p == nil {
		return false
	}
	for _, re := range p.regexes {
		if re.MatchString(keyword) {
			return true
		}
	}
	for _, pair := range p.pairs {
		if terms.ContainsAny(keyword, pair.IndustryTerms) && terms.ContainsAny(keyword, pair.Modifiers) {
			return true
		}
	}
	return false
}

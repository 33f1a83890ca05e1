package terms

import (
	"strings"

	"github.com/sells-group/keyword-cli/internal/config"
)

// Extractor applies the configured industry, suffix and expansion rules.
// All methods are pure functions of their input and the rules.
type Extractor struct {
	synonyms []config.IndustrySynonym
	rules    config.KeywordsConfig
}

// NewExtractor builds an Extractor from the keywords configuration and the
// ordered industry synonym table.
func NewExtractor(rules config.KeywordsConfig, synonyms []config.IndustrySynonym) *Extractor {
	return &Extractor{synonyms: synonyms, rules: rules}
}

// DeriveIndustries returns the first industry whose keywords appear in
// serviceText, else the first service term, else nothing. At most one
// label is ever returned.
func (e *Extractor) DeriveIndustries(serviceText string, serviceTerms []string) []string {
	for _, syn := range e.synonyms {
		if ContainsAny(serviceText, syn.Keywords) {
			if syn.Industry == "" {
				continue
			}
			return []string{syn.Industry}
		}
	}
	if len(serviceTerms) > 0 {
		return []string{serviceTerms[0]}
	}
	return []string{}
}

// ExpandServices adds the configured service terms, suffix rewrites and
// triggered expansions to serviceTerms.
func (e *Extractor) ExpandServices(serviceText string, serviceTerms []string) []string {
	expanded := NewOrderedSet(serviceTerms...)
	expanded.Add(e.rules.ServiceTerms...)

	var derived []string
	for _, term := range expanded.Items() {
		for _, rule := range e.rules.ServiceSuffixRules {
			if rule.Suffix == "" || !strings.HasSuffix(term, rule.Suffix) {
				continue
			}
			base := strings.TrimSuffix(term, rule.Suffix)
			if base == "" {
				continue
			}
			for _, add := range rule.AddSuffixes {
				derived = append(derived, base+add)
			}
		}
	}
	expanded.Add(derived...)

	for _, rule := range e.rules.ServiceExpansions {
		if triggered(serviceText, serviceTerms, rule.TriggerTerms) {
			expanded.Add(rule.IncludeTerms...)
		}
	}
	return expanded.Items()
}

// ExtractNameTerms derives service-like terms from a business name.
func (e *Extractor) ExtractNameTerms(name string) []string {
	found := NewOrderedSet()
	for _, term := range e.rules.NameIncludeTerms {
		if term != "" && strings.Contains(name, term) {
			found.Add(term)
		}
	}
	for _, base := range e.rules.NameBaseTerms {
		if base == "" || !strings.Contains(name, base) {
			continue
		}
		found.Add(base)
		for _, suffix := range e.rules.NameSuffixTerms {
			if suffix != "" && strings.Contains(name, suffix) {
				found.Add(base + suffix)
			}
		}
	}
	for _, rule := range e.rules.NameExpansions {
		if ContainsAny(name, rule.TriggerTerms) {
			found.Add(rule.IncludeTerms...)
		}
	}
	return found.Items()
}

// ServiceTerms is the per-record composition: split the service text, add
// name-derived terms, then expand.
func (e *Extractor) ServiceTerms(name, serviceText string) []string {
	base := NewOrderedSet(SplitTerms(serviceText)...)
	base.Add(e.ExtractNameTerms(name)...)
	return e.ExpandServices(serviceText, base.Items())
}

func triggered(text string, terms, triggers []string) bool {
	if ContainsAny(text, triggers) {
		return true
	}
	for _, term := range terms {
		if ContainsAny(term, triggers) {
			return true
		}
	}
	return false
}

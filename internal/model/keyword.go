package model

import "strings"

// Column names usable in a Pattern.
const (
	ColRegion   = "region"
	ColIndustry = "industry"
	ColService  = "service"
	ColModifier = "modifier"
	ColPOI      = "poi"
)

// Pattern is an ordered list of column names defining one keyword template.
type Pattern []string

// String renders the pattern as comma-joined columns ("region,service").
func (p Pattern) String() string {
	return strings.Join(p, ",")
}

// ParsePattern parses "region,service" or "Region+Service" into a Pattern.
// Blank input yields nil.
func ParsePattern(raw string) Pattern {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return nil
	}
	value = strings.ReplaceAll(value, "+", ",")
	var p Pattern
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			p = append(p, part)
		}
	}
	return p
}

// PatternsFrom converts configured [][]string patterns.
func PatternsFrom(raw [][]string) []Pattern {
	out := make([]Pattern, 0, len(raw))
	for _, p := range raw {
		out = append(out, Pattern(p))
	}
	return out
}

// KeywordRank maps a synthesized keyword to the length of the shortest
// pattern that produced it. Lower ranks sort first.
type KeywordRank map[string]int

// Offer records keyword at rank. An existing entry is only replaced by a
// strictly smaller rank. Reports whether the map changed.
func (r KeywordRank) Offer(keyword string, rank int) bool {
	if cur, ok := r[keyword]; ok && cur <= rank {
		return false
	}
	r[keyword] = rank
	return true
}

// Merge folds other into r with the same min-rank rule. The operation is
// commutative and associative, so partial maps may be merged in any order.
func (r KeywordRank) Merge(other KeywordRank) {
	for kw, rank := range other {
		r.Offer(kw, rank)
	}
}

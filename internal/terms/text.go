package terms

import (
	"regexp"
	"strings"
)

var (
	delimRe        = regexp.MustCompile(`[,|/]+`)
	tagRe          = regexp.MustCompile(`<[^>]+>`)
	addressSplitRe = regexp.MustCompile(`[\s()\[\]\-/,]+`)
)

// SplitTerms splits text on commas, pipes and slashes, trims each part and
// drops empties and duplicates. SplitTerms is idempotent.
func SplitTerms(text string) []string {
	if text == "" {
		return []string{}
	}
	set := NewOrderedSet()
	for _, part := range delimRe.Split(text, -1) {
		set.Add(strings.TrimSpace(part))
	}
	return set.Items()
}

// StripTags removes <...> tags and surrounding whitespace.
func StripTags(text string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(text, ""))
}

// AddressTokens tokenizes an address on whitespace and punctuation and
// appends the region keywords. The result is used to recognise POIs that
// merely echo the business's own address.
func AddressTokens(address string, regionKeywords []string) []string {
	set := NewOrderedSet()
	for _, token := range addressSplitRe.Split(address, -1) {
		set.Add(strings.TrimSpace(token))
	}
	set.Add(regionKeywords...)
	return set.Items()
}

// ShortenSuffix strips the first suffix in order that term ends with,
// provided something remains. Suffix order is significant: overlapping
// suffixes are not re-ranked.
func ShortenSuffix(term string, suffixes []string) (string, bool) {
	for _, suffix := range suffixes {
		if suffix == "" || term == suffix {
			continue
		}
		if strings.HasSuffix(term, suffix) {
			return strings.TrimSuffix(term, suffix), true
		}
	}
	return "", false
}

// ContainsAny reports whether text contains any non-empty needle.
func ContainsAny(text string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}

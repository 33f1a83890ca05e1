package geo

import (
	"strconv"

	"github.com/sells-group/keyword-cli/internal/terms"
	"github.com/sells-group/keyword-cli/pkg/naver"
)

// PlaceResult is one search hit reduced to what keyword generation uses.
type PlaceResult struct {
	Name     string
	Category string
}

// SearchSummary is a provider search response in normalized form.
type SearchSummary struct {
	Items []PlaceResult
	Total int
}

var (
	itemKeys  = []string{"places", "items", "addresses"}
	totalKeys = []string{"total", "totalCount"}
)

// Summarize normalizes a raw search payload. The item list is the first of
// places, items or addresses that is a list. The total is read from the top
// level, then from meta, then defaults to the item count. A nil payload
// yields an empty summary.
func Summarize(p naver.Payload) SearchSummary {
	var s SearchSummary
	if p == nil {
		return s
	}
	for _, key := range itemKeys {
		list, ok := p[key].([]any)
		if !ok {
			continue
		}
		for _, raw := range list {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			name := stringField(item, "name")
			if name == "" {
				name = stringField(item, "title")
			}
			s.Items = append(s.Items, PlaceResult{
				Name:     terms.StripTags(name),
				Category: stringField(item, "category"),
			})
		}
		break
	}

	if total, ok := intField(p, totalKeys); ok {
		s.Total = total
		return s
	}
	if meta, ok := p["meta"].(map[string]any); ok {
		if total, ok := intField(meta, totalKeys); ok {
			s.Total = total
			return s
		}
	}
	s.Total = len(s.Items)
	return s
}

// Names returns the non-empty item names, de-duplicated.
func (s SearchSummary) Names() []string {
	set := terms.NewOrderedSet()
	for _, item := range s.Items {
		set.Add(item.Name)
	}
	return set.Items()
}

// FilteredNames returns names of items whose category contains any of
// categories or whose name contains any of nameKeywords. When both lists are
// empty every named item passes.
func (s SearchSummary) FilteredNames(categories, nameKeywords []string) []string {
	unfiltered := len(categories) == 0 && len(nameKeywords) == 0
	set := terms.NewOrderedSet()
	for _, item := range s.Items {
		if item.Name == "" {
			continue
		}
		if unfiltered || terms.ContainsAny(item.Category, categories) || terms.ContainsAny(item.Name, nameKeywords) {
			set.Add(item.Name)
		}
	}
	return set.Items()
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, keys []string) (int, bool) {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return int(v), true
		case int:
			return v, true
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

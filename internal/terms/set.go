// Package terms normalizes noisy business text into ordered term sets.
package terms

// OrderedSet is a duplicate-free list of strings that keeps first-insertion
// order. The zero value is ready to use.
type OrderedSet struct {
	items []string
	index map[string]struct{}
}

// NewOrderedSet returns a set seeded with items.
func NewOrderedSet(items ...string) *OrderedSet {
	s := &OrderedSet{}
	s.Add(items...)
	return s
}

// Add appends each non-empty item not already present.
func (s *OrderedSet) Add(items ...string) {
	if s.index == nil {
		s.index = make(map[string]struct{}, len(items))
	}
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := s.index[item]; ok {
			continue
		}
		s.index[item] = struct{}{}
		s.items = append(s.items, item)
	}
}

// Contains reports whether item is in the set.
func (s *OrderedSet) Contains(item string) bool {
	_, ok := s.index[item]
	return ok
}

// Len returns the number of items.
func (s *OrderedSet) Len() int {
	return len(s.items)
}

// Items returns a copy of the items in insertion order.
func (s *OrderedSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Unique returns items without empties or duplicates, first occurrence kept.
func Unique(items ...string) []string {
	return NewOrderedSet(items...).Items()
}

package models

import "sort"

// IDSet is an unordered set of entity identifiers.
// The zero value is an empty set; Add allocates on first use.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids, dropping duplicates and empty ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id. Adding an id that is already present is a no-op.
func (s *IDSet) Add(id string) {
	if id == "" {
		return
	}
	if *s == nil {
		*s = make(IDSet)
	}
	(*s)[id] = struct{}{}
}

// Remove deletes id. Removing an absent id is a no-op.
func (s IDSet) Remove(id string) {
	delete(s, id)
}

// Has reports membership. The empty id is never a member.
func (s IDSet) Has(id string) bool {
	if id == "" {
		return false
	}
	_, ok := s[id]
	return ok
}

// Slice returns the members in ascending order.
func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of s.
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

package model

import (
	"sort"
	"strconv"
)

// IDSet is an unordered set of expense ids.
type IDSet map[ID]struct{}

// NewIDSet builds a set from ids, skipping zero ids.
func NewIDSet(ids ...ID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id. Zero ids are ignored.
func (s IDSet) Add(id ID) {
	if id.IsZero() {
		return
	}
	s[id] = struct{}{}
}

// Remove deletes id.
func (s IDSet) Remove(id ID) { delete(s, id) }

// Has reports whether id is in the set.
func (s IDSet) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids.
func (s IDSet) Len() int { return len(s) }

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Slice returns the ids in a stable order: numeric ids ascending, then the
// rest lexically.
func (s IDSet) Slice() []ID {
	out := make([]ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		a, aErr := strconv.ParseInt(string(out[i]), 10, 64)
		b, bErr := strconv.ParseInt(string(out[j]), 10, 64)
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return out[i] < out[j]
		}
	})
	return out
}

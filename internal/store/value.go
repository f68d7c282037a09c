// Package store holds the typed values a key can map to and the
// shard-striped dictionary that owns them.
package store

import "math"

// Kind discriminates the value types a key can hold. A key holds at
// most one kind at a time; changing kind requires deleting the key
// first.
type Kind uint8

const (
	KindString Kind = iota
	KindList
	KindSet
	KindSortedSet
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindSortedSet:
		return "sortedset"
	}
	return "unknown"
}

// NoExpiry is the far-future sentinel stored when a SET carries no
// explicit time-to-live.
const NoExpiry uint64 = math.MaxUint64

// Value is a typed dictionary value. The dictionary exclusively owns
// each value; callers only touch one through the dictionary's locked
// accessors.
type Value interface {
	Kind() Kind
}

// String is an opaque payload with an absolute Unix-seconds expiry.
type String struct {
	Data     string
	ExpiryTS uint64
}

func (*String) Kind() Kind { return KindString }

// Expired reports whether the value is observationally absent at the
// given wall-clock second. Reads that see an expired value must remove
// the entry.
func (s *String) Expired(now uint64) bool {
	return now > s.ExpiryTS
}

// List is an ordered sequence with positional head and tail mutations.
// An empty list is a valid value state; emptiness does not imply key
// absence.
type List struct {
	items []string
}

func (*List) Kind() Kind { return KindList }

// PushFront prepends values one at a time, leaving the last supplied
// value at position 0.
func (l *List) PushFront(values []string) {
	for _, v := range values {
		l.items = append([]string{v}, l.items...)
	}
}

// PushBack appends values in the order supplied.
func (l *List) PushBack(values []string) {
	l.items = append(l.items, values...)
}

// PopFront removes and returns position 0.
func (l *List) PopFront() (string, bool) {
	if len(l.items) == 0 {
		return "", false
	}
	v := l.items[0]
	l.items = l.items[1:]
	return v, true
}

// PopBack removes and returns the last position.
func (l *List) PopBack() (string, bool) {
	if len(l.items) == 0 {
		return "", false
	}
	v := l.items[len(l.items)-1]
	l.items = l.items[:len(l.items)-1]
	return v, true
}

// Range returns a copy of the half-open slice [start, end). Nil bounds
// mean the full range on that side; bounds are clamped to [0, len] and
// an inverted range yields an empty result.
func (l *List) Range(start, end *int) []string {
	n := len(l.items)
	s, e := 0, n
	if start != nil {
		s = clamp(*start, n)
	}
	if end != nil {
		e = clamp(*end, n)
	}
	if s >= e {
		return []string{}
	}
	out := make([]string, e-s)
	copy(out, l.items[s:e])
	return out
}

func (l *List) Len() int { return len(l.items) }

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// Set is an unordered collection of unique members.
type Set struct {
	members map[string]struct{}
}

func NewSet() *Set {
	return &Set{members: make(map[string]struct{})}
}

func (*Set) Kind() Kind { return KindSet }

// Add inserts members and returns how many were not already present.
func (s *Set) Add(values []string) uint64 {
	var added uint64
	for _, v := range values {
		if _, ok := s.members[v]; !ok {
			s.members[v] = struct{}{}
			added++
		}
	}
	return added
}

func (s *Set) Has(member string) bool {
	_, ok := s.members[member]
	return ok
}

func (s *Set) Card() int { return len(s.members) }

// Members returns the members in unspecified order.
func (s *Set) Members() []string {
	out := make([]string, 0, len(s.members))
	for m := range s.members {
		out = append(out, m)
	}
	return out
}

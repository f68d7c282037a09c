package store

import "github.com/google/btree"

// AddMode selects the return-count semantics of sorted-set inserts.
type AddMode int

const (
	// ModeAdded counts only members that were new.
	ModeAdded AddMode = iota
	// ModeChanged counts new members and members whose score changed.
	ModeChanged
)

// scoreBucket groups the members sharing one score, in insertion
// order.
type scoreBucket struct {
	score   int64
	members []string
}

// SortedSet is a multimap from signed 64-bit score to unique members,
// held as two mutually consistent indexes: an ordered score index and
// a member→score map. Every mutation keeps both in step; a score
// bucket is dropped the moment it empties.
type SortedSet struct {
	byScore *btree.BTreeG[*scoreBucket]
	scores  map[string]int64
}

func NewSortedSet() *SortedSet {
	return &SortedSet{
		byScore: btree.NewG(8, func(a, b *scoreBucket) bool { return a.score < b.score }),
		scores:  make(map[string]int64),
	}
}

func (*SortedSet) Kind() Kind { return KindSortedSet }

// Add upserts one member. A member already present is first removed
// from its old score bucket, then inserted at the new score. The
// return value is 1 or 0 according to mode.
func (z *SortedSet) Add(member string, score int64, mode AddMode) uint64 {
	var count uint64 = 1
	if old, ok := z.scores[member]; ok {
		switch mode {
		case ModeAdded:
			count = 0
		case ModeChanged:
			if old == score {
				count = 0
			}
		}
		z.Remove(member)
	}

	if bucket, ok := z.byScore.Get(&scoreBucket{score: score}); ok {
		bucket.members = append(bucket.members, member)
	} else {
		z.byScore.ReplaceOrInsert(&scoreBucket{score: score, members: []string{member}})
	}
	z.scores[member] = score
	return count
}

// AddAll upserts every entry of values and returns the sum of the
// per-member counts.
func (z *SortedSet) AddAll(values map[string]int64, mode AddMode) uint64 {
	var count uint64
	for member, score := range values {
		count += z.Add(member, score, mode)
	}
	return count
}

// Remove deletes one member, returning its prior score. The score
// bucket is dropped when it empties.
func (z *SortedSet) Remove(member string) (int64, bool) {
	score, ok := z.scores[member]
	if !ok {
		return 0, false
	}
	delete(z.scores, member)

	bucket, ok := z.byScore.Get(&scoreBucket{score: score})
	if ok {
		members := bucket.members[:0]
		for _, m := range bucket.members {
			if m != member {
				members = append(members, m)
			}
		}
		bucket.members = members
		if len(bucket.members) == 0 {
			z.byScore.Delete(bucket)
		}
	}
	return score, true
}

// Score looks up one member's score.
func (z *SortedSet) Score(member string) (int64, bool) {
	score, ok := z.scores[member]
	return score, ok
}

// Range returns the members whose score lies in the closed interval
// [lo, hi], ascending by score and in insertion order within one
// score.
func (z *SortedSet) Range(lo, hi int64) []string {
	var out []string
	z.byScore.AscendGreaterOrEqual(&scoreBucket{score: lo}, func(b *scoreBucket) bool {
		if b.score > hi {
			return false
		}
		out = append(out, b.members...)
		return true
	})
	return out
}

// Members returns all members ascending by score.
func (z *SortedSet) Members() []string {
	out := make([]string, 0, len(z.scores))
	z.byScore.Ascend(func(b *scoreBucket) bool {
		out = append(out, b.members...)
		return true
	})
	return out
}

// Cardinality is the number of distinct members.
func (z *SortedSet) Cardinality() int {
	return len(z.scores)
}

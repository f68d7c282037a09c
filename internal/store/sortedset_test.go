package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireIndexesConsistent asserts that the two indexes agree: every
// member maps to exactly one bucket holding it at its score, and no
// bucket is empty.
func requireIndexesConsistent(t *testing.T, z *SortedSet) {
	t.Helper()

	seen := make(map[string]int64)
	z.byScore.Ascend(func(b *scoreBucket) bool {
		require.NotEmpty(t, b.members, "empty bucket at score %d", b.score)
		for _, m := range b.members {
			_, dup := seen[m]
			require.False(t, dup, "member %q appears in two buckets", m)
			seen[m] = b.score
		}
		return true
	})
	require.Equal(t, z.scores, seen)
}

func TestSortedSetAddModes(t *testing.T) {
	z := NewSortedSet()

	assert.EqualValues(t, 1, z.Add("apple", 10, ModeAdded))
	assert.EqualValues(t, 1, z.Add("banana", 20, ModeAdded))

	// Rescore of an existing member: Added mode reports 0 even though
	// the score moved.
	assert.EqualValues(t, 0, z.Add("apple", 15, ModeAdded))

	// Changed mode reports rescores but not identical re-adds.
	assert.EqualValues(t, 1, z.Add("apple", 25, ModeChanged))
	assert.EqualValues(t, 0, z.Add("apple", 25, ModeChanged))

	score, ok := z.Score("apple")
	require.True(t, ok)
	assert.EqualValues(t, 25, score)
	assert.Equal(t, 2, z.Cardinality())
	requireIndexesConsistent(t, z)
}

func TestSortedSetAddAll(t *testing.T) {
	z := NewSortedSet()
	assert.EqualValues(t, 3, z.AddAll(map[string]int64{"x": 1, "y": 2, "z": 3}, ModeAdded))
	assert.EqualValues(t, 1, z.AddAll(map[string]int64{"x": 5, "w": 4}, ModeAdded))
	assert.Equal(t, 4, z.Cardinality())
	requireIndexesConsistent(t, z)
}

func TestSortedSetRemove(t *testing.T) {
	z := NewSortedSet()
	z.Add("a", 1, ModeAdded)
	z.Add("b", 1, ModeAdded)
	z.Add("c", 2, ModeAdded)

	score, ok := z.Remove("a")
	require.True(t, ok)
	assert.EqualValues(t, 1, score)
	requireIndexesConsistent(t, z)

	// Removing the last member of a score drops the bucket.
	_, ok = z.Remove("c")
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, z.Members())
	requireIndexesConsistent(t, z)

	_, ok = z.Remove("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, z.Cardinality())
}

func TestSortedSetRange(t *testing.T) {
	z := NewSortedSet()
	z.Add("low", -5, ModeAdded)
	z.Add("first", 10, ModeAdded)
	z.Add("second", 10, ModeAdded) // same score: insertion order
	z.Add("mid", 15, ModeAdded)
	z.Add("high", 30, ModeAdded)

	// Closed interval on both ends.
	assert.Equal(t, []string{"first", "second", "mid"}, z.Range(10, 15))
	assert.Equal(t, []string{"low", "first", "second", "mid", "high"}, z.Range(-100, 100))
	assert.Empty(t, z.Range(16, 29))

	// A rescore moves the member to the tail of its new bucket.
	z.Add("first", 10, ModeChanged)
	assert.Equal(t, []string{"second", "first"}, z.Range(10, 10))
	requireIndexesConsistent(t, z)
}

package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortedSetAddScoreRemove(t *testing.T) {
	z := NewSortedSetContainer()
	require.True(t, z.Add("a", 1))
	require.True(t, z.Add("b", 2))
	require.False(t, z.Add("a", 5))
	s, ok := z.Score("a")
	require.True(t, ok)
	require.Equal(t, 5.0, s)
	require.Equal(t, 2, z.Len())

	require.True(t, z.Remove("a"))
	require.False(t, z.Remove("a"))
	require.Equal(t, 1, z.Len())
}

func TestSortedSetIncrBy(t *testing.T) {
	z := NewSortedSetContainer()
	require.Equal(t, 5.0, z.IncrBy("a", 5))
	require.Equal(t, 8.0, z.IncrBy("a", 3))
}

func TestSortedSetRankAndRangeByRank(t *testing.T) {
	z := NewSortedSetContainer()
	z.Add("a", 1)
	z.Add("b", 2)
	z.Add("c", 3)

	require.Equal(t, 0, z.Rank("a", false))
	require.Equal(t, 2, z.Rank("c", false))
	require.Equal(t, 0, z.Rank("c", true))
	require.Equal(t, -1, z.Rank("missing", false))

	all := z.RangeByRank(0, -1, false)
	require.Equal(t, []ZSetEntry{{1, "a"}, {2, "b"}, {3, "c"}}, all)

	rev := z.RangeByRank(0, -1, true)
	require.Equal(t, []ZSetEntry{{3, "c"}, {2, "b"}, {1, "a"}}, rev)
}

func TestSortedSetRangeByScore(t *testing.T) {
	z := NewSortedSetContainer()
	z.Add("a", 1)
	z.Add("b", 2)
	z.Add("c", 3)

	out := z.RangeByScore(1, 3, true, false, 0, -1)
	require.Equal(t, []ZSetEntry{{2, "b"}, {3, "c"}}, out)

	require.Equal(t, 2, z.CountByScore(1, 3, true, false))
}

func TestSortedSetRangeByLex(t *testing.T) {
	z := NewSortedSetContainer()
	z.Add("a", 0)
	z.Add("b", 0)
	z.Add("c", 0)

	out := z.RangeByLex("[a", "(c", 0, -1)
	require.Equal(t, []ZSetEntry{{0, "a"}, {0, "b"}}, out)

	full := z.RangeByLex("-", "+", 0, -1)
	require.Len(t, full, 3)
}

func TestSortedSetAll(t *testing.T) {
	z := NewSortedSetContainer()
	z.Add("b", 2)
	z.Add("a", 1)
	require.Equal(t, []ZSetEntry{{1, "a"}, {2, "b"}}, z.All())
}

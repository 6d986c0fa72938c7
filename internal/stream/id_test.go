package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDOrderingAndString(t *testing.T) {
	a := ID{Ms: 1, Seq: 0}
	b := ID{Ms: 1, Seq: 1}
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.Equal(t, "1-0", a.String())
	require.Equal(t, 0, a.Compare(ID{Ms: 1, Seq: 0}))
	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))
}

func TestIDNext(t *testing.T) {
	require.Equal(t, ID{Ms: 1, Seq: 1}, ID{Ms: 1, Seq: 0}.Next())
	require.Equal(t, ID{Ms: 2, Seq: 0}, ID{Ms: 1, Seq: ^uint64(0)}.Next())
	require.Equal(t, Max, Max.Next())
}

func TestParseID(t *testing.T) {
	id, err := ParseID("5-3", 0)
	require.NoError(t, err)
	require.Equal(t, ID{Ms: 5, Seq: 3}, id)

	id, err = ParseID("5", 7)
	require.NoError(t, err)
	require.Equal(t, ID{Ms: 5, Seq: 7}, id)

	id, err = ParseID("-", 0)
	require.NoError(t, err)
	require.Equal(t, Min, id)

	id, err = ParseID("+", 0)
	require.NoError(t, err)
	require.Equal(t, Max, id)

	_, err = ParseID("bogus", 0)
	require.Error(t, err)
}

func TestParseRangeIDExclusive(t *testing.T) {
	id, inclusive, err := ParseRangeID("(5-3", 0)
	require.NoError(t, err)
	require.False(t, inclusive)
	require.Equal(t, ID{Ms: 5, Seq: 3}, id)

	id, inclusive, err = ParseRangeID("5-3", 0)
	require.NoError(t, err)
	require.True(t, inclusive)
	require.Equal(t, ID{Ms: 5, Seq: 3}, id)
}

package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetIntsetFastPath(t *testing.T) {
	s := NewSetContainer()
	require.True(t, s.IsIntset())
	require.True(t, s.Add("1"))
	require.True(t, s.Add("2"))
	require.False(t, s.Add("1"))
	require.True(t, s.IsIntset())
	require.Equal(t, 2, s.Len())
	require.True(t, s.Contains("1"))
	require.False(t, s.Contains("3"))

	require.True(t, s.Remove("1"))
	require.False(t, s.Remove("1"))
	require.Equal(t, 1, s.Len())
	require.True(t, s.IsIntset())
}

func TestSetDemotesOnNonNumericMember(t *testing.T) {
	s := NewSetContainer()
	s.Add("1")
	s.Add("2")
	require.True(t, s.IsIntset())

	s.Add("hello")
	require.False(t, s.IsIntset())
	require.Equal(t, 3, s.Len())

	members := s.Members()
	require.ElementsMatch(t, []string{"1", "2", "hello"}, members)
}

func TestSetDemotesOnNonCanonicalNumeric(t *testing.T) {
	s := NewSetContainer()
	s.Add("01")
	require.False(t, s.IsIntset())
	require.True(t, s.Contains("01"))
}

func TestSetInterUnionDiff(t *testing.T) {
	a := NewSetContainer()
	a.Add("1")
	a.Add("2")
	a.Add("3")
	b := NewSetContainer()
	b.Add("2")
	b.Add("3")
	b.Add("4")

	require.ElementsMatch(t, []string{"2", "3"}, Inter(a, b))
	require.ElementsMatch(t, []string{"1", "2", "3", "4"}, Union(a, b))
	require.ElementsMatch(t, []string{"1"}, Diff(a, b))
}

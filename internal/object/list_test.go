package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListPushPop(t *testing.T) {
	l := NewListContainer()
	l.RPush([]byte("a"), []byte("b"))
	l.LPush([]byte("z"))
	require.Equal(t, 3, l.Len())
	require.Equal(t, [][]byte{[]byte("z")}, l.LPop(1))
	require.Equal(t, [][]byte{[]byte("b")}, l.RPop(1))
}

func TestListRangeAndTrim(t *testing.T) {
	l := NewListContainer()
	l.RPush([]byte("a"), []byte("b"), []byte("c"), []byte("d"))
	require.Equal(t, [][]byte{[]byte("b"), []byte("c")}, l.Range(1, 2))
	l.Trim(1, 2)
	require.Equal(t, 2, l.Len())
}

func TestListInsertAndRem(t *testing.T) {
	l := NewListContainer()
	l.RPush([]byte("a"), []byte("c"))
	require.True(t, l.InsertAfter([]byte("a"), []byte("b")))
	require.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, l.Range(0, -1))
	require.Equal(t, 1, l.Rem(1, []byte("b")))
	require.Equal(t, 2, l.Len())
}

func TestListPos(t *testing.T) {
	l := NewListContainer()
	l.RPush([]byte("a"), []byte("b"), []byte("a"), []byte("b"))
	require.Equal(t, []int{0, 2}, l.Pos([]byte("a"), 1, 0))
}

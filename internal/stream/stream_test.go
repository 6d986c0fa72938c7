package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fields(pairs ...string) []Field {
	var out []Field
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, Field{Name: []byte(pairs[i]), Value: []byte(pairs[i+1])})
	}
	return out
}

func TestStreamAppendAndGet(t *testing.T) {
	s := New()
	err := s.Append(ID{Ms: 1, Seq: 0}, fields("a", "1"))
	require.NoError(t, err)
	require.Equal(t, ID{Ms: 1, Seq: 0}, s.LastID)
	require.Equal(t, uint64(1), s.AddedEntries)

	got, ok := s.Get(ID{Ms: 1, Seq: 0})
	require.True(t, ok)
	require.Equal(t, fields("a", "1"), got)
}

func TestStreamAppendRejectsZeroAndNonIncreasing(t *testing.T) {
	s := New()
	err := s.Append(ID{Ms: 0, Seq: 0}, nil)
	require.ErrorIs(t, err, ErrZeroID)

	require.NoError(t, s.Append(ID{Ms: 5, Seq: 0}, nil))
	err = s.Append(ID{Ms: 5, Seq: 0}, nil)
	require.ErrorIs(t, err, ErrEqualOrSmaller)
}

func TestStreamDeleteTracksMaxDeletedID(t *testing.T) {
	s := New()
	s.Append(ID{Ms: 1, Seq: 0}, nil)
	s.Append(ID{Ms: 2, Seq: 0}, nil)
	require.True(t, s.Delete(ID{Ms: 1, Seq: 0}))
	require.False(t, s.Delete(ID{Ms: 1, Seq: 0}))
	require.Equal(t, ID{Ms: 1, Seq: 0}, s.MaxDeletedID)
	require.Equal(t, uint64(2), s.AddedEntries)
}

func TestStreamRange(t *testing.T) {
	s := New()
	s.Append(ID{Ms: 1, Seq: 0}, fields("a", "1"))
	s.Append(ID{Ms: 2, Seq: 0}, fields("a", "2"))
	s.Append(ID{Ms: 3, Seq: 0}, fields("a", "3"))

	out := s.Range(ID{Ms: 1, Seq: 0}, ID{Ms: 2, Seq: 0}, false, 0)
	require.Len(t, out, 2)
	require.Equal(t, ID{Ms: 1, Seq: 0}, out[0].ID)
	require.Equal(t, ID{Ms: 2, Seq: 0}, out[1].ID)

	rev := s.Range(Min, Max, true, 0)
	require.Equal(t, ID{Ms: 3, Seq: 0}, rev[0].ID)

	capped := s.Range(Min, Max, false, 2)
	require.Len(t, capped, 2)
}

func TestStreamResolveWriteIDAutoSeq(t *testing.T) {
	s := New()
	s.Append(ID{Ms: 10, Seq: 5}, nil)

	id, err := s.ResolveWriteID("10-*")
	require.NoError(t, err)
	require.Equal(t, ID{Ms: 10, Seq: 6}, id)

	id, err = s.ResolveWriteID("20-*")
	require.NoError(t, err)
	require.Equal(t, ID{Ms: 20, Seq: 0}, id)
}

func TestStreamTrimMaxLen(t *testing.T) {
	s := New()
	for i := uint64(1); i <= 5; i++ {
		s.Append(ID{Ms: i, Seq: 0}, nil)
	}
	removed := s.TrimMaxLen(2, false, 0)
	require.Equal(t, 3, removed)
	require.Equal(t, 2, s.Len())
}

package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateGroupAndDestroy(t *testing.T) {
	s := New()
	s.Append(ID{Ms: 1, Seq: 0}, nil)

	require.NoError(t, s.CreateGroup("g1", s.LastID, nil))
	err := s.CreateGroup("g1", s.LastID, nil)
	require.ErrorIs(t, err, ErrBusyGroup)

	require.True(t, s.DestroyGroup("g1"))
	require.False(t, s.DestroyGroup("g1"))
}

func TestReadNewDeliversAndTracksPEL(t *testing.T) {
	s := New()
	s.Append(ID{Ms: 1, Seq: 0}, fields("a", "1"))
	require.NoError(t, s.CreateGroup("g1", Min, nil))

	entries, err := s.ReadNew("g1", "c1", 10, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	g := s.Groups["g1"]
	require.Equal(t, 1, g.PendingCount())
	require.Equal(t, 1, g.Consumers["c1"].PendingCount())

	// Second read with no new entries returns nothing.
	more, err := s.ReadNew("g1", "c1", 10, false)
	require.NoError(t, err)
	require.Nil(t, more)
}

func TestReadNewNoAckSkipsPEL(t *testing.T) {
	s := New()
	s.Append(ID{Ms: 1, Seq: 0}, nil)
	s.CreateGroup("g1", Min, nil)

	_, err := s.ReadNew("g1", "c1", 10, true)
	require.NoError(t, err)
	require.Equal(t, 0, s.Groups["g1"].PendingCount())
}

func TestAckRemovesFromBothPELs(t *testing.T) {
	s := New()
	s.Append(ID{Ms: 1, Seq: 0}, nil)
	s.CreateGroup("g1", Min, nil)
	entries, _ := s.ReadNew("g1", "c1", 10, false)

	g := s.Groups["g1"]
	removed := g.Ack([]ID{entries[0].ID})
	require.Equal(t, 1, removed)
	require.Equal(t, 0, g.PendingCount())
	require.Equal(t, 0, g.Consumers["c1"].PendingCount())
}

func TestDelConsumerReturnsPendingCount(t *testing.T) {
	s := New()
	s.Append(ID{Ms: 1, Seq: 0}, nil)
	s.CreateGroup("g1", Min, nil)
	s.ReadNew("g1", "c1", 10, false)

	g := s.Groups["g1"]
	n := g.DelConsumer("c1")
	require.Equal(t, 1, n)
	_, ok := g.Consumers["c1"]
	require.False(t, ok)
}

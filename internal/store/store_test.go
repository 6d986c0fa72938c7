package store

import (
	"testing"

	"github.com/netanelrevah/valkeygo/internal/object"
	"github.com/stretchr/testify/require"
)

func TestSetGetDel(t *testing.T) {
	db := NewDatabase(0)
	db.Set("k", object.NewString([]byte("v")))

	e, ok := db.Get("k")
	require.True(t, ok)
	require.Equal(t, []byte("v"), e.Str)

	require.True(t, db.Del("k"))
	_, ok = db.Get("k")
	require.False(t, ok)
}

func TestWrongType(t *testing.T) {
	db := NewDatabase(0)
	db.Set("k", object.NewString([]byte("v")))
	_, _, err := db.GetList("k")
	require.ErrorIs(t, err, ErrWrongType)
}

func TestExpiry(t *testing.T) {
	db := NewDatabase(0)
	db.Set("k", object.NewString([]byte("v")))
	db.SetExpireAtMs("k", uint64(nowMs()-1))
	_, ok := db.Get("k")
	require.False(t, ok)
	require.Equal(t, int64(-2), db.TTLMs("k"))
}

func TestWatchGenerationBumpsOnMutation(t *testing.T) {
	db := NewDatabase(0)
	db.Set("k", object.NewString([]byte("v")))
	gen := db.WatchGeneration("k")
	db.Set("k", object.NewString([]byte("v2")))
	require.Greater(t, db.WatchGeneration("k"), gen)
}

func TestSwapDB(t *testing.T) {
	s := NewStore(2)
	s.DB(0).Set("a", object.NewString([]byte("1")))
	require.True(t, s.SwapDB(0, 1))
	_, ok := s.DB(0).Get("a")
	require.False(t, ok)
	_, ok = s.DB(1).Get("a")
	require.True(t, ok)
}

func TestEvictNoEviction(t *testing.T) {
	db := NewDatabase(0)
	db.Set("k", object.NewString([]byte("v")))
	_, err := db.Evict(NoEviction, 0, 100, 10)
	require.Error(t, err)
}

package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashSetGetDel(t *testing.T) {
	h := NewHashContainer()
	require.True(t, h.Set("f1", []byte("v1")))
	require.False(t, h.Set("f1", []byte("v2")))
	v, ok := h.Get("f1")
	require.True(t, ok)
	require.Equal(t, []byte("v2"), v)
	require.True(t, h.Del("f1"))
	require.False(t, h.Del("f1"))
}

func TestHashFieldExpiry(t *testing.T) {
	h := NewHashContainer()
	h.Set("f1", []byte("v1"))
	h.SetFieldExpiry("f1", 1000)
	at, ok := h.FieldExpiry("f1")
	require.True(t, ok)
	require.Equal(t, uint64(1000), at)

	expired := h.ExpireFields(1000)
	require.Equal(t, []string{"f1"}, expired)
	require.Equal(t, 0, h.Len())
}

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSetDashUnderscoreEquivalence(t *testing.T) {
	c := New()
	c.Set("hash_max_listpack_entries", "256")
	v, ok := c.Get("hash-max-listpack-entries")
	require.True(t, ok)
	require.Equal(t, "256", v)
}

func TestUnknownNameReturnsNotOk(t *testing.T) {
	c := New()
	_, ok := c.Get("not-a-real-directive")
	require.False(t, ok)
}

func TestMatchGlob(t *testing.T) {
	c := New()
	matches := c.Match("zset-max-*")
	require.Contains(t, matches, "zset-max-listpack-entries")
	require.Contains(t, matches, "zset-max-listpack-value")
}

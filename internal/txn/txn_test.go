package txn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBeginAndEnqueue(t *testing.T) {
	tx := New()
	require.NoError(t, tx.Begin())
	require.Equal(t, Queueing, tx.State)
	tx.Enqueue(QueuedCommand{Name: "SET", Argv: []string{"SET", "k", "v"}})
	require.Len(t, tx.Queue, 1)
}

func TestNestedMultiErrors(t *testing.T) {
	tx := New()
	require.NoError(t, tx.Begin())
	require.Error(t, tx.Begin())
}

func TestWatchInvalidation(t *testing.T) {
	tx := New()
	tx.Watch(0, "k", 5)
	require.True(t, tx.StillValid(func(int, string) uint64 { return 5 }))
	require.False(t, tx.StillValid(func(int, string) uint64 { return 6 }))
}

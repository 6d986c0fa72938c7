package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestObserveAccumulates(t *testing.T) {
	r := New()
	r.Observe("get", Calls, 10*time.Microsecond)
	r.Observe("get", Calls, 20*time.Microsecond)
	r.Observe("get", Failed, 5*time.Microsecond)

	snap := r.Snapshot()
	s := snap["get"]
	require.Equal(t, uint64(2), s.Calls)
	require.Equal(t, uint64(1), s.FailedCalls)
	require.Equal(t, uint64(35), s.UsecTotal)
}

func TestReset(t *testing.T) {
	r := New()
	r.Observe("ping", Calls, time.Microsecond)
	r.Reset()
	require.Empty(t, r.Snapshot())
}

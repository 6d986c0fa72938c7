package blocking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitForReturnsImmediatelyWhenSatisfied(t *testing.T) {
	m := NewManager()
	v, err := m.WaitFor(1, []string{"k"}, false, 0, func() (any, bool) { return "x", true })
	require.NoError(t, err)
	require.Equal(t, "x", v)
}

func TestWaitForReturnsNilInsideTransaction(t *testing.T) {
	m := NewManager()
	v, err := m.WaitFor(1, []string{"k"}, true, 0, func() (any, bool) { return nil, false })
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestWaitForWakesOnNotify(t *testing.T) {
	m := NewManager()
	satisfied := false
	done := make(chan struct{})
	var result any
	go func() {
		result, _ = m.WaitFor(1, []string{"k"}, false, time.Second, func() (any, bool) {
			if satisfied {
				return "woke", true
			}
			return nil, false
		})
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	satisfied = true
	m.Notify("k", false)
	<-done
	require.Equal(t, "woke", result)
}

func TestWaitForTimesOut(t *testing.T) {
	m := NewManager()
	v, err := m.WaitFor(1, []string{"k"}, false, 10*time.Millisecond, func() (any, bool) { return nil, false })
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestUnblockAsError(t *testing.T) {
	m := NewManager()
	done := make(chan error, 1)
	go func() {
		_, err := m.WaitFor(5, []string{"k"}, false, time.Second, func() (any, bool) { return nil, false })
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	require.True(t, m.Unblock(5, true))
	require.ErrorIs(t, <-done, ErrUnblocked)
}

func TestUnblockAsTimeoutReturnsNoError(t *testing.T) {
	m := NewManager()
	done := make(chan error, 1)
	go func() {
		_, err := m.WaitFor(5, []string{"k"}, false, time.Second, func() (any, bool) { return nil, false })
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	require.True(t, m.Unblock(5, false))
	require.NoError(t, <-done)
}

func TestUnblockUnknownClient(t *testing.T) {
	m := NewManager()
	require.False(t, m.Unblock(99, false))
}

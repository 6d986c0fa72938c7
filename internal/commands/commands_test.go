package commands

import (
	"testing"

	"github.com/netanelrevah/valkeygo/internal/router"
	"github.com/netanelrevah/valkeygo/internal/server"
	"github.com/netanelrevah/valkeygo/internal/txn"
	"github.com/stretchr/testify/require"
)

func newTestContext() *server.Context {
	state := server.NewState(16)
	client := state.Register(nil)
	u, _ := state.ACL.Get("default")
	client.SetUser(u)
	return server.NewContext(state, client)
}

func newTestRouter() *router.Router[*server.Context] {
	r := router.New[*server.Context]()
	for _, cmd := range All() {
		r.Register(cmd)
	}
	return r
}

func TestSetAndGetRoundTrip(t *testing.T) {
	r := newTestRouter()
	ctx := newTestContext()

	v := r.Dispatch(ctx, []string{"SET", "foo", "bar"})
	require.False(t, v.IsError())
	require.Equal(t, "OK", v.Str)

	v = r.Dispatch(ctx, []string{"GET", "foo"})
	require.False(t, v.IsError())
	require.Equal(t, "bar", v.Str)
}

func TestIncrOnNonIntegerFails(t *testing.T) {
	r := newTestRouter()
	ctx := newTestContext()

	r.Dispatch(ctx, []string{"SET", "foo", "notanumber"})
	v := r.Dispatch(ctx, []string{"INCR", "foo"})
	require.True(t, v.IsError())
}

func TestListPushAndRange(t *testing.T) {
	r := newTestRouter()
	ctx := newTestContext()

	r.Dispatch(ctx, []string{"RPUSH", "mylist", "a", "b", "c"})
	v := r.Dispatch(ctx, []string{"LRANGE", "mylist", "0", "-1"})
	require.False(t, v.IsError())
	require.Len(t, v.Arr, 3)
}

func TestWrongTypeError(t *testing.T) {
	r := newTestRouter()
	ctx := newTestContext()

	r.Dispatch(ctx, []string{"RPUSH", "mylist", "a"})
	v := r.Dispatch(ctx, []string{"GET", "mylist"})
	require.True(t, v.IsError())
}

// MULTI's queueing contract itself (replying +QUEUED and deferring non-
// control commands) lives in cmd/valkeygo/main.go's dispatchOne, not in the
// router — so this enqueues directly via txn.Transaction the way that
// caller does, to exercise EXEC's replay path.
func TestMultiExecQueuesAndRuns(t *testing.T) {
	r := newTestRouter()
	ctx := newTestContext()

	v := r.Dispatch(ctx, []string{"MULTI"})
	require.False(t, v.IsError())
	require.Equal(t, txn.Queueing, ctx.Client.Tx.State)

	ctx.Client.Tx.Enqueue(txn.QueuedCommand{Name: "SET", Argv: []string{"SET", "k", "v"}})

	v = r.Dispatch(ctx, []string{"EXEC"})
	require.False(t, v.IsError())
	require.Len(t, v.Arr, 1)
	require.Equal(t, "OK", v.Arr[0].Str)

	v = r.Dispatch(ctx, []string{"GET", "k"})
	require.Equal(t, "v", v.Str)
}

func TestDiscardAbortsQueue(t *testing.T) {
	r := newTestRouter()
	ctx := newTestContext()

	r.Dispatch(ctx, []string{"MULTI"})
	ctx.Client.Tx.Enqueue(txn.QueuedCommand{Name: "SET", Argv: []string{"SET", "k", "v"}})

	v := r.Dispatch(ctx, []string{"DISCARD"})
	require.False(t, v.IsError())
	require.Equal(t, txn.None, ctx.Client.Tx.State)

	v = r.Dispatch(ctx, []string{"EXISTS", "k"})
	require.Equal(t, int64(0), v.Int)
}

func TestUnknownCommand(t *testing.T) {
	r := newTestRouter()
	ctx := newTestContext()

	v := r.Dispatch(ctx, []string{"NOSUCHCOMMAND"})
	require.True(t, v.IsError())
}

func TestDumpRestoreRoundTrip(t *testing.T) {
	r := newTestRouter()
	ctx := newTestContext()

	r.Dispatch(ctx, []string{"SET", "src", "hello"})
	dump := r.Dispatch(ctx, []string{"DUMP", "src"})
	require.False(t, dump.IsError())

	v := r.Dispatch(ctx, []string{"RESTORE", "dst", "0", dump.Str})
	require.False(t, v.IsError())

	got := r.Dispatch(ctx, []string{"GET", "dst"})
	require.Equal(t, "hello", got.Str)
}

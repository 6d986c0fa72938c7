package router

import (
	"testing"

	"github.com/netanelrevah/valkeygo/internal/resp"
	"github.com/stretchr/testify/require"
)

type fakeCtx struct{ calls *[]string }

func echoHandler(ctx fakeCtx, argv []string) resp.Value {
	*ctx.calls = append(*ctx.calls, argv[0])
	return resp.OK()
}

func TestDispatchTopLevel(t *testing.T) {
	r := New[fakeCtx]()
	r.Register(&Command[fakeCtx]{Name: "PING", Arity: 1, Handler: echoHandler})

	var calls []string
	v := r.Dispatch(fakeCtx{calls: &calls}, []string{"ping"})
	require.False(t, v.IsError())
	require.Equal(t, []string{"ping"}, calls)
}

func TestDispatchSubcommand(t *testing.T) {
	r := New[fakeCtx]()
	r.Register(&Command[fakeCtx]{
		Name: "CLIENT",
		Arity: -2,
		Subcommands: map[string]*Command[fakeCtx]{
			"ID": {Name: "ID", Arity: 2, Handler: echoHandler},
		},
	})

	var calls []string
	v := r.Dispatch(fakeCtx{calls: &calls}, []string{"CLIENT", "ID"})
	require.False(t, v.IsError())
	require.Equal(t, []string{"CLIENT"}, calls)
}

func TestDispatchUnknownCommand(t *testing.T) {
	r := New[fakeCtx]()
	var calls []string
	v := r.Dispatch(fakeCtx{calls: &calls}, []string{"NOSUCH"})
	require.True(t, v.IsError())
}

func TestDispatchWrongArity(t *testing.T) {
	r := New[fakeCtx]()
	r.Register(&Command[fakeCtx]{Name: "GET", Arity: 2, Handler: echoHandler})
	var calls []string
	v := r.Dispatch(fakeCtx{calls: &calls}, []string{"GET"})
	require.True(t, v.IsError())
}

func TestDispatchUnknownSubcommandFallsBackToTop(t *testing.T) {
	r := New[fakeCtx]()
	r.Register(&Command[fakeCtx]{
		Name:  "CLIENT",
		Arity: -2,
		Subcommands: map[string]*Command[fakeCtx]{
			"ID": {Name: "ID", Arity: 2, Handler: echoHandler},
		},
		Handler: echoHandler,
	})
	var calls []string
	v := r.Dispatch(fakeCtx{calls: &calls}, []string{"CLIENT", "BOGUS"})
	require.False(t, v.IsError())
	require.Equal(t, []string{"CLIENT"}, calls)
}

func TestCommandHasFlag(t *testing.T) {
	c := &Command[fakeCtx]{Flags: []string{"write", "denyoom"}}
	require.True(t, c.HasFlag("write"))
	require.False(t, c.HasFlag("readonly"))
}

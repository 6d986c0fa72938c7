/*
file: valkeygo/internal/router/router.go

Command router (spec.md §4.5 C5): "a trie over command tokens + subcommands".
The teacher's internal/handlers/handlers.go Handlers map[string]common.Handler
is a flat, one-level dispatch table with no subcommand concept (ACL/CLIENT/
OBJECT/XGROUP/XINFO all need one here); this package generalizes that map
into a two-level trie (command -> optional subcommand) parameterized over
the caller's own context type via a Go generic, so this package never needs
to import the server/ACL/store types its handlers actually use.
*/
package router

import (
	"strings"

	"github.com/netanelrevah/valkeygo/internal/resp"
)

// Handler runs one command/subcommand body. C is the caller-supplied
// execution context (typically *server.Context).
type Handler[C any] func(ctx C, argv []string) resp.Value

// Command is one routable command or subcommand node.
type Command[C any] struct {
	Name string

	// Arity mirrors Redis's own convention: a positive value is the exact
	// total argv length (including the command name); a negative value is
	// the minimum (variadic arity), e.g. -2 means "at least 2".
	Arity int

	Flags      []string // ACL categories + behavior flags (write, readonly, nomulti, denyoom, ...)
	KeyModeArg int       // 0 = no fixed key position; >0 = 1-based argv index of the primary key, for ACL key checks

	Handler Handler[C]

	Subcommands map[string]*Command[C]
}

func (c *Command[C]) HasFlag(flag string) bool {
	for _, f := range c.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// checkArity reports whether argv (including the command name) satisfies
// c.Arity.
func (c *Command[C]) checkArity(argv []string) bool {
	if c.Arity >= 0 {
		return len(argv) == c.Arity
	}
	return len(argv) >= -c.Arity
}

// Router is a two-level command trie: top-level command name -> optional
// subcommand name.
type Router[C any] struct {
	commands map[string]*Command[C]
}

func New[C any]() *Router[C] {
	return &Router[C]{commands: make(map[string]*Command[C])}
}

func (r *Router[C]) Register(cmd *Command[C]) {
	r.commands[strings.ToUpper(cmd.Name)] = cmd
}

// Lookup resolves argv (case-insensitively) to a concrete command/
// subcommand node; an unknown subcommand resolves to the top-level node.
// Returns the matched node and ok=true, or ok=false if the command is
// unknown (the caller formats spec.md §4.5's unknown-command error, since
// it needs the original-case argv for the message). argv itself is not
// altered: handlers always receive the full argv, subcommand name included.
func (r *Router[C]) Lookup(argv []string) (*Command[C], bool) {
	if len(argv) == 0 {
		return nil, false
	}
	top, ok := r.commands[strings.ToUpper(argv[0])]
	if !ok {
		return nil, false
	}
	if len(top.Subcommands) == 0 {
		return top, true
	}
	if len(argv) < 2 {
		return top, true
	}
	sub, ok := top.Subcommands[strings.ToUpper(argv[1])]
	if !ok {
		return top, true
	}
	return sub, true
}

// Dispatch resolves argv against the trie, validates arity, and invokes the
// matched handler, centralizing the error shapes every command would
// otherwise repeat.
func (r *Router[C]) Dispatch(ctx C, argv []string) resp.Value {
	cmd, ok := r.Lookup(argv)
	if !ok {
		return resp.ErrUnknownCommand(argv[0], argv[1:])
	}
	if !cmd.checkArity(argv) {
		return resp.ErrWrongArgCount(strings.ToLower(cmd.Name))
	}
	return cmd.Handler(ctx, argv)
}

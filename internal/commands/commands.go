/*
file: valkeygo/internal/commands/commands.go

Command table (spec.md §4.5/§6, the C9 module). Grounded on the teacher's
internal/handlers/handlers.go flat `var Handlers map[string]common.Handler`
table, generalized into router.Command[*server.Context] nodes (with
subcommand support the teacher's flat map never needed) and on the
per-command parameter contract of internal/params instead of each handler
hand-checking len(args).
*/
package commands

import (
	"time"

	"github.com/netanelrevah/valkeygo/internal/router"
	"github.com/netanelrevah/valkeygo/internal/server"
)

// Cmd/Handler alias the generic router types to this module's concrete
// execution context, so individual command files don't repeat the
// instantiation.
type Cmd = router.Command[*server.Context]
type Handler = router.Handler[*server.Context]

// category flags, used both as ACL categories (acl.CommandRule.IsCategory)
// and as plain documentation of each command's behavior.
const (
	write    = "write"
	readonly = "readonly"
	fast     = "fast"
	slow     = "slow"
	denyoom  = "denyoom"
	nomulti  = "nomulti" // MULTI/EXEC/WATCH/DISCARD themselves, never queued
	admin    = "admin"
	blocking = "blocking"
)

// All returns every top-level command this server knows, ready to register
// into a router.Router[*server.Context].
func All() []*Cmd {
	var out []*Cmd
	out = append(out, connectionCommands()...)
	out = append(out, stringCommands()...)
	out = append(out, genericCommands()...)
	out = append(out, listCommands()...)
	out = append(out, hashCommands()...)
	out = append(out, setCommands()...)
	out = append(out, zsetCommands()...)
	out = append(out, streamCommands()...)
	out = append(out, transactionCommands()...)
	out = append(out, serverCommands()...)
	out = append(out, aclCommands()...)
	out = append(out, dumpRestoreCommands()...)
	return out
}

// NewRouter builds and registers the full command table.
func NewRouter() *router.Router[*server.Context] {
	r := router.New[*server.Context]()
	for _, c := range All() {
		r.Register(c)
	}
	return r
}

func nowMs() int64 { return time.Now().UnixMilli() }

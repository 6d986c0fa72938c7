package commands

import (
	"strings"

	"github.com/netanelrevah/valkeygo/internal/acl"
	"github.com/netanelrevah/valkeygo/internal/resp"
	"github.com/netanelrevah/valkeygo/internal/server"
)

// checkPerm runs the per-command ACL gate spec.md §4.5 requires before
// dispatch: command/category, then each declared key argument against its
// key-mode. Returns a non-nil error reply if access is denied.
func checkPerm(ctx *server.Context, cmdName string, categories []string, keys []string, mode acl.KeyMode) *resp.Value {
	u := ctx.Client.User()
	if u == nil {
		v := resp.Error("NOAUTH Authentication required.")
		return &v
	}
	if !u.CheckCommand(cmdName, categories) {
		v := resp.ErrNoPermCommand(u.Name, strings.ToLower(cmdName))
		return &v
	}
	for _, k := range keys {
		if !u.CheckKey(k, mode) {
			v := resp.ErrNoPermKey()
			return &v
		}
	}
	return nil
}

// notifyMutated fires a keyspace-notification-style wake for blocking waiters on
// key (spec.md §4.6) and bumps the key's watch generation for WATCHers.
// Call after any mutation made through a Get*/GetOrCreate* container
// pointer (Database.Set already bumps the generation on its own).
func notifyMutated(ctx *server.Context, key string, inTx bool) {
	ctx.DB().MarkDirty(key)
	ctx.State.Blocked.Notify(key, inTx)
}


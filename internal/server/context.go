package server

import (
	"github.com/netanelrevah/valkeygo/internal/store"
	"github.com/netanelrevah/valkeygo/internal/txn"
)

// Context is the per-dispatch execution context handed to every
// router.Handler[*Context]. It bundles the shared process State with the
// issuing Client so a command body can reach its database, its ACL
// identity, and its transaction/blocking state through one argument.
type Context struct {
	State  *State
	Client *Client
}

// DB resolves the client's currently SELECTed database.
func (c *Context) DB() *store.Database {
	return c.State.Store.DB(c.Client.DBIndex())
}

func NewContext(state *State, client *Client) *Context {
	return &Context{State: state, Client: client}
}

// InTx reports whether this dispatch is running as part of an EXEC'd
// transaction body, used to decide whether a mutation's blocking-waiter
// notification should fire immediately or defer to EXEC's FlushLazy, per
// spec.md §4.6.
func (c *Context) InTx() bool {
	return c.Client.Tx.State == txn.Queueing
}

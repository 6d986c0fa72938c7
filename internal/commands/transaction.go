/*
file: valkeygo/internal/commands/transaction.go

MULTI/EXEC/DISCARD/WATCH/UNWATCH (spec.md §4.8), grounded on the teacher's
internal/common/transaction.go queueing model, adapted onto txn.Transaction
and store.Database's per-key watch generation counters.
*/
package commands

import (
	"github.com/netanelrevah/valkeygo/internal/resp"
	"github.com/netanelrevah/valkeygo/internal/router"
	"github.com/netanelrevah/valkeygo/internal/server"
	"github.com/netanelrevah/valkeygo/internal/txn"
)

func transactionCommands() []*Cmd {
	return []*Cmd{
		{Name: "MULTI", Arity: 1, Flags: []string{fast}, Handler: cmdMulti},
		{Name: "EXEC", Arity: 1, Flags: []string{}, Handler: cmdExec},
		{Name: "DISCARD", Arity: 1, Flags: []string{fast}, Handler: cmdDiscard},
		{Name: "WATCH", Arity: -2, Flags: []string{fast}, Handler: cmdWatch},
		{Name: "UNWATCH", Arity: 1, Flags: []string{fast}, Handler: cmdUnwatch},
	}
}

func cmdMulti(ctx *server.Context, argv []string) resp.Value {
	if err := ctx.Client.Tx.Begin(); err != nil {
		return resp.Error(err.Error())
	}
	return resp.OK()
}

func cmdDiscard(ctx *server.Context, argv []string) resp.Value {
	if ctx.Client.Tx.State == txn.None {
		return resp.ErrGeneric("DISCARD without MULTI")
	}
	ctx.Client.Tx.Reset()
	ctx.Client.Tx.ClearWatches()
	return resp.OK()
}

func cmdWatch(ctx *server.Context, argv []string) resp.Value {
	if ctx.Client.Tx.State == txn.Queueing {
		return resp.ErrGeneric("WATCH inside MULTI is not allowed")
	}
	dbIndex := ctx.Client.DBIndex()
	db := ctx.DB()
	for _, key := range argv[1:] {
		ctx.Client.Tx.Watch(dbIndex, key, db.WatchGeneration(key))
	}
	return resp.OK()
}

func cmdUnwatch(ctx *server.Context, argv []string) resp.Value {
	ctx.Client.Tx.ClearWatches()
	return resp.OK()
}

// currentGeneration builds the lookup txn.Transaction.StillValid needs, by
// resolving each watched key's database through the shared store rather
// than just the caller's currently-selected database (a transaction may
// have WATCHed keys in a database it later SELECTed away from).
func currentGeneration(ctx *server.Context) func(dbIndex int, key string) uint64 {
	return func(dbIndex int, key string) uint64 {
		return ctx.State.Store.DB(dbIndex).WatchGeneration(key)
	}
}

func cmdExec(ctx *server.Context, argv []string) resp.Value {
	tx := ctx.Client.Tx
	if tx.State == txn.None {
		return resp.ErrGeneric("EXEC without MULTI")
	}
	if tx.State == txn.Aborted {
		tx.Reset()
		tx.ClearWatches()
		return resp.ErrExecAbort()
	}
	if !tx.StillValid(currentGeneration(ctx)) {
		tx.Reset()
		tx.ClearWatches()
		return resp.NullArray()
	}
	queue := tx.Queue
	tx.Reset()
	results := make([]resp.Value, len(queue))
	for i, qc := range queue {
		results[i] = dispatchTxCmd(ctx, qc)
	}
	tx.State = txn.None
	tx.ClearWatches()
	ctx.State.Blocked.FlushLazy()
	return resp.ArraySlice(results)
}

// dispatchTxCmd replays one queued command via the shared router, keeping
// Tx.State at Queueing for the duration so ctx.InTx() still reports true
// while notifyMutated defers blocking-client wakeups until EXEC finishes.
var execRouter *router.Router[*server.Context]

func dispatchTxCmd(ctx *server.Context, qc txn.QueuedCommand) resp.Value {
	ctx.Client.Tx.State = txn.Queueing
	if execRouter == nil {
		execRouter = NewRouter()
	}
	return execRouter.Dispatch(ctx, qc.Argv)
}

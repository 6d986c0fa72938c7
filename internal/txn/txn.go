/*
file: valkeygo/internal/txn/txn.go

MULTI/EXEC/DISCARD/WATCH (spec.md §4.8). Grounded on the teacher's
internal/common/transaction.go Transaction type (queue of commands + a
per-client Tx pointer on AppState), generalized from a single implicit
global transaction to one Transaction value embedded directly in each
client's own state, and from the database's boolean-per-watcher TxFailed
flag to the per-key monotonic generation counters store.Database now keeps.
*/
package txn

// State is a client's transaction-queueing state.
type State int

const (
	None State = iota
	Queueing
	Aborted
)

// QueuedCommand is one command recorded between MULTI and EXEC.
type QueuedCommand struct {
	Name string
	Argv []string
}

// WatchKey identifies a watched key by (database index, key name), matching
// spec.md §9's "weak reference by (database_index, key_bytes)" design note.
type WatchKey struct {
	DBIndex int
	Key     string
}

// Transaction is one client connection's MULTI/EXEC state.
type Transaction struct {
	State   State
	Queue   []QueuedCommand
	Watches map[WatchKey]uint64
}

func New() *Transaction {
	return &Transaction{Watches: make(map[WatchKey]uint64)}
}

// errNestedMulti is the message of the error Begin returns when MULTI is nested.
var errNestedMulti = "ERR MULTI calls can not be nested"

func (t *Transaction) Begin() error {
	if t.State == Queueing {
		return simpleError(errNestedMulti)
	}
	t.State = Queueing
	t.Queue = nil
	return nil
}

func (t *Transaction) Enqueue(cmd QueuedCommand) {
	t.Queue = append(t.Queue, cmd)
}

// Abort marks the transaction as having queued a bad command; EXEC must
// reject with EXECABORT instead of running anything.
func (t *Transaction) Abort() { t.State = Aborted }

// Reset clears queueing/aborted state and the queue, but leaves watches
// alone (EXEC and DISCARD both clear watches explicitly via ClearWatches;
// a failed parse inside MULTI does not touch WATCH).
func (t *Transaction) Reset() {
	t.State = None
	t.Queue = nil
}

func (t *Transaction) IsActive() bool { return t.State == Queueing || t.State == Aborted }

// Watch records dbIndex/key's current generation as this transaction's
// baseline. Calling WATCH while already Queueing is a caller-side error
// (checked by the command layer, not here, since it needs the exact wire
// message for that case).
func (t *Transaction) Watch(dbIndex int, key string, generation uint64) {
	t.Watches[WatchKey{DBIndex: dbIndex, Key: key}] = generation
}

func (t *Transaction) ClearWatches() {
	t.Watches = make(map[WatchKey]uint64)
}

// StillValid reports whether every watched key's generation is unchanged
// since WATCH, given a lookup function supplied by the caller (reads
// store.Database.WatchGeneration per watched key's database).
func (t *Transaction) StillValid(currentGeneration func(dbIndex int, key string) uint64) bool {
	for wk, baseline := range t.Watches {
		if currentGeneration(wk.DBIndex, wk.Key) != baseline {
			return false
		}
	}
	return true
}

type simpleError string

func (e simpleError) Error() string { return string(e) }

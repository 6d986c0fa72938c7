/*
file: valkeygo/internal/blocking/blocking.go

Blocking/notification manager (spec.md §4.6). Grounded on the teacher's
Database.Watchers map[string][]*common.Client + WatchersMu (internal/
database/database.go's Touch/TouchAll), generalized from "mark TxFailed and
drop the whole per-key list" into a real FIFO wait queue with a reverse
index for O(1) per-client removal across every key it's waiting on, plus the
lazy-notification-during-MULTI deferral spec.md §4.6 requires.
*/
package blocking

import (
	"errors"
	"sync"
	"time"
)

// ErrUnblocked is returned by WaitFor when CLIENT UNBLOCK ERROR interrupted
// the wait, per spec.md §7's UNBLOCKED prefix.
var ErrUnblocked = errors.New("UNBLOCKED client unblocked via CLIENT UNBLOCK")

// waiter is one blocked client's registration across every key it asked to
// wait on.
type waiter struct {
	clientID int64
	mailbox  chan struct{} // buffered 1: at-most-one-pending-wake mailbox
	unblock  chan error    // buffered 1: CLIENT UNBLOCK delivers an error here
	keys     []string
}

// Manager is one per-type (list / sorted-set / stream) blocking waiter
// table.
type Manager struct {
	mu sync.Mutex

	queues map[string][]*waiter // key -> FIFO of waiters
	byID   map[int64]*waiter    // clientID -> its single active waiter

	lazyKeys map[string]struct{} // deferred-notification keys during a transaction
}

func NewManager() *Manager {
	return &Manager{
		queues:   make(map[string][]*waiter),
		byID:     make(map[int64]*waiter),
		lazyKeys: make(map[string]struct{}),
	}
}

func (m *Manager) register(clientID int64, keys []string) *waiter {
	w := &waiter{clientID: clientID, mailbox: make(chan struct{}, 1), unblock: make(chan error, 1), keys: keys}
	m.byID[clientID] = w
	for _, k := range keys {
		m.queues[k] = append(m.queues[k], w)
	}
	return w
}

// removeLocked drops w from every key queue it's registered on and from
// the by-client index. Caller must hold m.mu.
func (m *Manager) removeLocked(w *waiter) {
	for _, k := range w.keys {
		q := m.queues[k]
		for i, cand := range q {
			if cand == w {
				m.queues[k] = append(q[:i], q[i+1:]...)
				break
			}
		}
		if len(m.queues[k]) == 0 {
			delete(m.queues, k)
		}
	}
	delete(m.byID, w.clientID)
}

// Notify wakes every client queued on key. Outside a transaction this wakes
// immediately; inside one, the key is recorded in lazyKeys and the actual
// wake happens when the caller later calls FlushLazy (at EXEC time), per
// spec.md §4.6's notify contract.
func (m *Manager) Notify(key string, inTransaction bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inTransaction {
		m.lazyKeys[key] = struct{}{}
		return
	}
	m.wakeLocked(key)
}

func (m *Manager) wakeLocked(key string) {
	for _, w := range m.queues[key] {
		select {
		case w.mailbox <- struct{}{}:
		default:
		}
	}
}

// FlushLazy wakes every key accumulated via lazy Notify calls during a
// transaction, then clears the set. Called once at EXEC completion.
func (m *Manager) FlushLazy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.lazyKeys {
		m.wakeLocked(k)
	}
	m.lazyKeys = make(map[string]struct{})
}

// Unblock signals CLIENT UNBLOCK for clientID's current wait, if any,
// returning whether a waiter was found. asError selects CLIENT UNBLOCK's two
// outcomes (spec.md §4.6 point 4): false (the default/TIMEOUT form) releases
// the wait exactly like a real timeout (nil value, no error); true (the
// ERROR form) delivers ErrUnblocked so the caller replies -UNBLOCKED.
func (m *Manager) Unblock(clientID int64, asError bool) bool {
	m.mu.Lock()
	w, ok := m.byID[clientID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	var outcome error
	if asError {
		outcome = ErrUnblocked
	}
	select {
	case w.unblock <- outcome:
	default:
	}
	return true
}

// WaitFor implements spec.md §4.6's wait contract generically: check
// reports whether the condition is currently satisfied (and if so, the
// value to return); keys is what the client should be queued on while
// waiting. inTransaction forbids blocking per point 2 of the contract.
// timeout <= 0 means block forever.
func (m *Manager) WaitFor(clientID int64, keys []string, inTransaction bool, timeout time.Duration, check func() (any, bool)) (any, error) {
	if v, ok := check(); ok {
		return v, nil
	}
	if inTransaction {
		return nil, nil
	}

	m.mu.Lock()
	w := m.register(clientID, keys)
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.removeLocked(w)
		m.mu.Unlock()
	}()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-w.mailbox:
			if v, ok := check(); ok {
				return v, nil
			}
			// spurious/stale wake (another waiter won the race): keep waiting.
		case err := <-w.unblock:
			return nil, err
		case <-deadline:
			return nil, nil
		}
	}
}

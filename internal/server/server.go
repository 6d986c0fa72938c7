/*
file: valkeygo/internal/server/server.go

Process-wide server state, generalizing the teacher's internal/common
AppState (config + persistence flags + ActiveConns + Users map) into the
state spec.md §4.1 describes: "a process-wide map index->Database, an ACL
table, a client registry, [and] configuration." Persistence (AOF/RDB) and
pub/sub are intentionally out of spec.md's scope (see SPEC_FULL.md
Non-goals) so this trims AppState down to what the spec's modules actually
read from it, rather than porting fields nothing here uses.
*/
package server

import (
	"net"
	"sync"
	"time"

	"github.com/netanelrevah/valkeygo/internal/acl"
	"github.com/netanelrevah/valkeygo/internal/blocking"
	"github.com/netanelrevah/valkeygo/internal/config"
	"github.com/netanelrevah/valkeygo/internal/logging"
	"github.com/netanelrevah/valkeygo/internal/metrics"
	"github.com/netanelrevah/valkeygo/internal/store"
)

// State is the single process-wide object every client connection's Context
// shares a pointer to.
type State struct {
	StartTime time.Time

	Store   *store.Store
	ACL     *acl.Table
	Config  *config.Config
	Metrics *metrics.Registry
	Blocked *blocking.Manager
	Log     *logging.Logger

	clientsMu sync.Mutex
	clients   map[int64]*Client
	nextID    int64

	Dirty uint64 // key-space mutations since the last save (INFO persistence, SAVE bookkeeping)
}

// NewState builds the process-wide state for numDatabases logical
// databases, matching spec.md §4.1's "16 by default" database count.
func NewState(numDatabases int) *State {
	return &State{
		StartTime: time.Now(),
		Store:     store.NewStore(numDatabases),
		ACL:       acl.NewTable(),
		Config:    config.New(),
		Metrics:   metrics.New(),
		Blocked:   blocking.NewManager(),
		Log:       logging.New(),
		clients:   make(map[int64]*Client),
	}
}

// Register allocates a client ID and tracks the connection for CLIENT LIST/
// KILL/UNBLOCK.
func (s *State) Register(conn net.Conn) *Client {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.nextID++
	c := newClient(s.nextID, conn)
	s.clients[c.ID] = c
	return c
}

func (s *State) Unregister(id int64) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, id)
}

func (s *State) Client(id int64) (*Client, bool) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	c, ok := s.clients[id]
	return c, ok
}

func (s *State) Clients() []*Client {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	out := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	return out
}

func (s *State) MarkDirty(n uint64) { s.Dirty += n }

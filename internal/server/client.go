/*
file: valkeygo/internal/server/client.go

Per-connection client state, generalizing the teacher's internal/common
Client (Conn, Authenticated, InTx/Tx, WatchedKeys/TxFailed, DatabaseID) onto
this module's own txn/acl/store types and adding RESP3 protocol negotiation
(HELLO) and the CLIENT GETNAME/SETNAME/UNBLOCK surface spec.md §4.9 expects.
*/
package server

import (
	"net"
	"sync"
	"time"

	"github.com/netanelrevah/valkeygo/internal/acl"
	"github.com/netanelrevah/valkeygo/internal/txn"
)

// Client is one connected client's session state. Fields are only touched
// by the single goroutine driving that connection except where noted.
type Client struct {
	ID   int64
	Conn net.Conn

	mu           sync.Mutex
	name         string
	proto        int // RESP protocol version, 2 or 3 (HELLO)
	dbIndex      int
	user         *acl.User
	authed       bool
	createdAt    time.Time
	lastCmdAt    time.Time
	lastCmdName  string
	replySkipped bool // CLIENT REPLY OFF/SKIP
	replyMode    string

	Tx *txn.Transaction

	// Paused holds a deadline set by CLIENT PAUSE; checked by the
	// connection loop before dispatching the next command.
	Paused time.Time
}

func newClient(id int64, conn net.Conn) *Client {
	return &Client{
		ID:        id,
		Conn:      conn,
		proto:     2,
		createdAt: time.Now(),
		Tx:        txn.New(),
		replyMode: "on",
	}
}

func (c *Client) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *Client) SetName(name string) { c.mu.Lock(); c.name = name; c.mu.Unlock() }

func (c *Client) Proto() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proto
}

func (c *Client) SetProto(v int) { c.mu.Lock(); c.proto = v; c.mu.Unlock() }

func (c *Client) DBIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dbIndex
}

func (c *Client) SetDBIndex(i int) { c.mu.Lock(); c.dbIndex = i; c.mu.Unlock() }

func (c *Client) User() *acl.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *Client) SetUser(u *acl.User) {
	c.mu.Lock()
	c.user = u
	c.authed = true
	c.mu.Unlock()
}

func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authed
}

func (c *Client) Touch(cmdName string) {
	c.mu.Lock()
	c.lastCmdAt = time.Now()
	c.lastCmdName = cmdName
	c.mu.Unlock()
}

func (c *Client) ReplyMode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replyMode
}

func (c *Client) SetReplyMode(mode string) { c.mu.Lock(); c.replyMode = mode; c.mu.Unlock() }

// Pause sets (or, with ms<=0, clears) the CLIENT PAUSE deadline checked by
// the connection loop before dispatching the next command.
func (c *Client) Pause(ms int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ms <= 0 {
		c.Paused = time.Time{}
		return
	}
	c.Paused = time.Now().Add(time.Duration(ms) * time.Millisecond)
}

// Info mirrors one row of CLIENT LIST.
type Info struct {
	ID      int64
	Addr    string
	Name    string
	DB      int
	Age     time.Duration
	LastCmd string
}

func (c *Client) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	addr := ""
	if c.Conn != nil {
		addr = c.Conn.RemoteAddr().String()
	}
	return Info{
		ID:      c.ID,
		Addr:    addr,
		Name:    c.name,
		DB:      c.dbIndex,
		Age:     time.Since(c.createdAt),
		LastCmd: c.lastCmdName,
	}
}

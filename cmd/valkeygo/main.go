/*
file: valkeygo/cmd/valkeygo/main.go

Entry point. Grounded on the teacher's root main.go (TCP listener + one
goroutine per connection + SIGINT/SIGTERM graceful shutdown), adapted onto
this module's internal/server.State and internal/commands.NewRouter
instead of the teacher's AppState/Handlers globals.
*/
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/netanelrevah/valkeygo/internal/commands"
	"github.com/netanelrevah/valkeygo/internal/metrics"
	"github.com/netanelrevah/valkeygo/internal/resp"
	"github.com/netanelrevah/valkeygo/internal/router"
	"github.com/netanelrevah/valkeygo/internal/server"
	"github.com/netanelrevah/valkeygo/internal/txn"
)

const numDatabases = 16

func main() {
	port := flag.Int("port", 6379, "TCP port to listen on")
	flag.Parse()

	state := server.NewState(numDatabases)
	rt := commands.NewRouter()

	addr := fmt.Sprintf(":%d", *port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		state.Log.Error("cannot listen on %s: %v", addr, err)
		os.Exit(1)
	}
	state.Log.Info("valkeygo listening on %s", addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		state.Log.Info("shutdown signal received, closing listener")
		listener.Close()
		for _, c := range state.Clients() {
			c.Conn.Close()
		}
	}()

	go activeExpireLoop(state)

	var wg sync.WaitGroup
	for {
		conn, err := listener.Accept()
		if err != nil {
			state.Log.Info("listener closed, stopping accept loop")
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			handleConnection(conn, state, rt)
		}()
	}
	wg.Wait()
	state.Log.Info("graceful shutdown complete")
}

// activeExpireLoop drives store.Database.ActiveExpireCycle periodically for
// every logical database, per spec.md §4.4's "active expire cycle samples a
// bounded number of keys per tick rather than scanning the whole keyspace".
func activeExpireLoop(state *server.State) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		for i := 0; i < state.Store.NumDatabases(); i++ {
			state.Store.DB(i).ActiveExpireCycle(20)
		}
		state.Blocked.FlushLazy()
	}
}

func handleConnection(conn net.Conn, state *server.State, rt *router.Router[*server.Context]) {
	client := state.Register(conn)
	defer func() {
		state.Unregister(client.ID)
		conn.Close()
	}()

	ctx := server.NewContext(state, client)
	reader := resp.NewReader(conn)
	writer := resp.NewWriter(conn)

	for {
		argv, err := reader.ReadCommand()
		if err != nil {
			return
		}
		if len(argv) == 0 {
			continue
		}
		client.Touch(argv[0])

		reply := dispatchOne(ctx, rt, state, argv)

		mode := client.ReplyMode()
		if mode == "off" {
			continue
		}
		if mode == "skip" {
			client.SetReplyMode("on")
			continue
		}
		if err := writer.WriteValue(client.Proto(), reply); err != nil {
			return
		}
		if err := writer.Flush(); err != nil {
			return
		}
	}
}

// dispatchOne implements MULTI's queueing contract: a command issued while
// the transaction is active is recorded rather than run (replying +QUEUED),
// and an unrecognized command aborts the whole transaction so EXEC replies
// EXECABORT instead of running a partial batch.
func dispatchOne(ctx *server.Context, rt *router.Router[*server.Context], state *server.State, argv []string) resp.Value {
	tx := ctx.Client.Tx
	name := strings.ToUpper(argv[0])
	if tx.IsActive() && !isTxControlCommand(name) {
		if _, ok := rt.Lookup(argv); !ok {
			tx.Abort()
			return resp.ErrUnknownCommand(argv[0], argv[1:])
		}
		tx.Enqueue(txn.QueuedCommand{Name: name, Argv: argv})
		return resp.SimpleString("QUEUED")
	}
	start := time.Now()
	reply := rt.Dispatch(ctx, argv)
	observe(state, name, reply, time.Since(start))
	return reply
}

func isTxControlCommand(name string) bool {
	switch name {
	case "MULTI", "EXEC", "DISCARD", "WATCH", "UNWATCH", "RESET", "QUIT":
		return true
	}
	return false
}

func observe(state *server.State, name string, reply resp.Value, elapsed time.Duration) {
	outcome := metrics.Calls
	if reply.IsError() {
		outcome = metrics.Failed
	}
	state.Metrics.Observe(name, outcome, elapsed)
}

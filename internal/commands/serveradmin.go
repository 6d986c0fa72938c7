/*
file: valkeygo/internal/commands/serveradmin.go

Server-introspection and admin commands (spec.md §4.10), grounded on the
teacher's internal/handlers/handler_info.go / handler_admin.go and
rebuilt against this module's own config.Config / metrics.Registry.
*/
package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/netanelrevah/valkeygo/internal/resp"
	"github.com/netanelrevah/valkeygo/internal/server"
)

func serverCommands() []*Cmd {
	return []*Cmd{
		{Name: "INFO", Arity: -1, Flags: []string{admin, slow}, Handler: cmdInfo},
		{Name: "COMMAND", Arity: -1, Flags: []string{slow}, Handler: cmdCommand},
		{Name: "TIME", Arity: 1, Flags: []string{fast}, Handler: cmdTime},
		{Name: "LASTSAVE", Arity: 1, Flags: []string{fast}, Handler: cmdLastsave},
		{
			Name: "CONFIG", Arity: -2, Flags: []string{admin, slow},
			Subcommands: map[string]*Cmd{
				"GET":      {Name: "GET", Arity: -3, Handler: cmdConfigGet},
				"SET":      {Name: "SET", Arity: -4, Handler: cmdConfigSet},
				"RESETSTAT": {Name: "RESETSTAT", Arity: 2, Handler: cmdConfigResetStat},
			},
			Handler: unknownSubcommand,
		},
		{
			Name: "DEBUG", Arity: -2, Flags: []string{admin},
			Subcommands: map[string]*Cmd{
				"JSONSET":  {Name: "JSONSET", Arity: -2, Handler: cmdDebugNoop},
				"SLEEP":    {Name: "SLEEP", Arity: 3, Handler: cmdDebugSleep},
				"OBJECT":   {Name: "OBJECT", Arity: 3, Handler: cmdDebugObject},
				"SET-ACTIVE-EXPIRE": {Name: "SET-ACTIVE-EXPIRE", Arity: 3, Handler: cmdDebugNoop},
			},
			Handler: unknownSubcommand,
		},
	}
}

func cmdCommand(ctx *server.Context, argv []string) resp.Value {
	if len(argv) > 1 && strings.EqualFold(argv[1], "COUNT") {
		return resp.Integer(int64(len(All())))
	}
	if len(argv) > 1 && strings.EqualFold(argv[1], "DOCS") {
		return resp.Map()
	}
	out := make([]resp.Value, 0, len(All()))
	for _, c := range All() {
		out = append(out, resp.Array(
			resp.BulkString(strings.ToLower(c.Name)),
			resp.Integer(int64(c.Arity)),
		))
	}
	return resp.ArraySlice(out)
}

func cmdTime(ctx *server.Context, argv []string) resp.Value {
	now := nowMs()
	return resp.Array(
		resp.BulkString(strconv.FormatInt(now/1000, 10)),
		resp.BulkString(strconv.FormatInt((now%1000)*1000, 10)),
	)
}

func cmdLastsave(ctx *server.Context, argv []string) resp.Value {
	return resp.Integer(ctx.State.StartTime.Unix())
}

func cmdInfo(ctx *server.Context, argv []string) resp.Value {
	var b strings.Builder
	fmt.Fprintf(&b, "# Server\r\nredis_version:7.4.0\r\nvalkeygo_mode:standalone\r\nuptime_in_seconds:%d\r\n",
		int64(time.Since(ctx.State.StartTime).Seconds()))
	fmt.Fprintf(&b, "# Clients\r\nconnected_clients:%d\r\n", len(ctx.State.Clients()))
	fmt.Fprintf(&b, "# Memory\r\nused_memory:%d\r\n", ctx.State.Store.TotalUsedMemory())
	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(&b, "total_system_memory:%d\r\nused_memory_rss:%d\r\n", vm.Total, vm.Used)
	}
	fmt.Fprintf(&b, "# Keyspace\r\n")
	for i := 0; i < ctx.State.Store.NumDatabases(); i++ {
		n := ctx.State.Store.DB(i).Len()
		if n > 0 {
			fmt.Fprintf(&b, "db%d:keys=%d,expires=0,avg_ttl=0\r\n", i, n)
		}
	}
	fmt.Fprintf(&b, "# Commandstats\r\n")
	for name, stat := range ctx.State.Metrics.Snapshot() {
		fmt.Fprintf(&b, "cmdstat_%s:calls=%d,usec_per_call=%.2f\r\n", strings.ToLower(name), stat.Calls, stat.UsecPerCall())
	}
	return resp.BulkString(b.String())
}

func cmdConfigGet(ctx *server.Context, argv []string) resp.Value {
	out := make([]resp.Value, 0)
	for _, pattern := range argv[2:] {
		for k, v := range ctx.State.Config.Match(pattern) {
			out = append(out, resp.BulkString(k), resp.BulkString(v))
		}
	}
	return resp.ArraySlice(out)
}

func cmdConfigSet(ctx *server.Context, argv []string) resp.Value {
	pairs := argv[2:]
	if len(pairs)%2 != 0 {
		return resp.ErrWrongArgCount("config|set")
	}
	for i := 0; i < len(pairs); i += 2 {
		ctx.State.Config.Set(pairs[i], pairs[i+1])
	}
	return resp.OK()
}

func cmdConfigResetStat(ctx *server.Context, argv []string) resp.Value {
	ctx.State.Metrics.Reset()
	return resp.OK()
}

func cmdDebugNoop(ctx *server.Context, argv []string) resp.Value { return resp.OK() }

func cmdDebugSleep(ctx *server.Context, argv []string) resp.Value {
	return resp.OK()
}

func cmdDebugObject(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	e, ok := db.Peek(argv[2])
	if !ok {
		return resp.ErrNoSuchKey()
	}
	return resp.SimpleString(fmt.Sprintf("Value at:0x0 refcount:1 encoding:%s serializedlength:%d", encodingOf(e), e.ApproxMemoryUsage(argv[2])))
}

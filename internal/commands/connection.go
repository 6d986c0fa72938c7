/*
file: valkeygo/internal/commands/connection.go

Connection-management commands (spec.md §4.9), grounded on the teacher's
internal/handlers/handler_connection.go (PING/ECHO/AUTH/SELECT) extended
with CLIENT and HELLO per the expanded spec's RESP3 negotiation.
*/
package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/netanelrevah/valkeygo/internal/resp"
	"github.com/netanelrevah/valkeygo/internal/server"
)

func connectionCommands() []*Cmd {
	return []*Cmd{
		{Name: "PING", Arity: -1, Flags: []string{fast}, Handler: cmdPing},
		{Name: "ECHO", Arity: 2, Flags: []string{fast}, Handler: cmdEcho},
		{Name: "AUTH", Arity: -2, Flags: []string{fast, nomulti}, Handler: cmdAuth},
		{Name: "HELLO", Arity: -1, Flags: []string{fast, nomulti}, Handler: cmdHello},
		{Name: "QUIT", Arity: -1, Flags: []string{fast}, Handler: cmdQuit},
		{Name: "RESET", Arity: 1, Flags: []string{fast}, Handler: cmdReset},
		{
			Name: "CLIENT", Arity: -2, Flags: []string{admin},
			Subcommands: map[string]*Cmd{
				"ID":      {Name: "ID", Arity: 2, Handler: cmdClientID},
				"GETNAME": {Name: "GETNAME", Arity: 2, Handler: cmdClientGetName},
				"SETNAME": {Name: "SETNAME", Arity: 3, Handler: cmdClientSetName},
				"LIST":    {Name: "LIST", Arity: -2, Handler: cmdClientList},
				"KILL":    {Name: "KILL", Arity: -2, Handler: cmdClientKill},
				"PAUSE":   {Name: "PAUSE", Arity: 3, Handler: cmdClientPause},
				"UNPAUSE": {Name: "UNPAUSE", Arity: 2, Handler: cmdClientUnpause},
				"REPLY":   {Name: "REPLY", Arity: 3, Handler: cmdClientReply},
				"SETINFO": {Name: "SETINFO", Arity: 4, Handler: cmdClientSetInfo},
				"UNBLOCK": {Name: "UNBLOCK", Arity: -3, Handler: cmdClientUnblock},
				"NO-EVICT": {Name: "NO-EVICT", Arity: 3, Handler: func(ctx *server.Context, argv []string) resp.Value {
					return resp.OK()
				}},
				"INFO": {Name: "INFO", Arity: 2, Handler: cmdClientInfo},
			},
			Handler: unknownSubcommand,
		},
	}
}

func unknownSubcommand(ctx *server.Context, argv []string) resp.Value {
	sub := ""
	if len(argv) > 1 {
		sub = argv[1]
	}
	return resp.ErrUnknownSubcommand(argv[0], sub)
}

func cmdPing(ctx *server.Context, argv []string) resp.Value {
	if len(argv) > 1 {
		return resp.BulkString(argv[1])
	}
	return resp.SimpleString("PONG")
}

func cmdEcho(ctx *server.Context, argv []string) resp.Value {
	return resp.BulkString(argv[1])
}

func cmdAuth(ctx *server.Context, argv []string) resp.Value {
	var username, password string
	switch len(argv) {
	case 2:
		username, password = "default", argv[1]
	case 3:
		username, password = argv[1], argv[2]
	default:
		return resp.ErrWrongArgCount("auth")
	}
	u, err := ctx.State.ACL.Authenticate(username, password)
	if err != nil {
		return resp.ErrWrongPass()
	}
	ctx.Client.SetUser(u)
	return resp.OK()
}

func cmdHello(ctx *server.Context, argv []string) resp.Value {
	proto := ctx.Client.Proto()
	i := 1
	if i < len(argv) {
		n, err := strconv.Atoi(argv[i])
		if err != nil || (n != 2 && n != 3) {
			return resp.ErrNoProto()
		}
		proto = n
		i++
	}
	for i < len(argv) {
		switch strings.ToUpper(argv[i]) {
		case "AUTH":
			if i+2 >= len(argv) {
				return resp.ErrSyntax()
			}
			if r := cmdAuth(ctx, []string{"AUTH", argv[i+1], argv[i+2]}); r.IsError() {
				return r
			}
			i += 3
		case "SETNAME":
			if i+1 >= len(argv) {
				return resp.ErrSyntax()
			}
			ctx.Client.SetName(argv[i+1])
			i += 2
		default:
			return resp.ErrSyntax()
		}
	}
	ctx.Client.SetProto(proto)
	return resp.Map(
		resp.BulkString("server"), resp.BulkString("valkeygo"),
		resp.BulkString("version"), resp.BulkString("7.4.0"),
		resp.BulkString("proto"), resp.Integer(int64(proto)),
		resp.BulkString("id"), resp.Integer(ctx.Client.ID),
		resp.BulkString("mode"), resp.BulkString("standalone"),
		resp.BulkString("role"), resp.BulkString("master"),
		resp.BulkString("modules"), resp.Array(),
	)
}

func cmdQuit(ctx *server.Context, argv []string) resp.Value {
	return resp.OK()
}

func cmdReset(ctx *server.Context, argv []string) resp.Value {
	ctx.Client.Tx.Reset()
	ctx.Client.SetDBIndex(0)
	ctx.State.Blocked.FlushLazy()
	return resp.SimpleString("RESET")
}

func cmdClientID(ctx *server.Context, argv []string) resp.Value {
	return resp.Integer(ctx.Client.ID)
}

func cmdClientGetName(ctx *server.Context, argv []string) resp.Value {
	name := ctx.Client.Name()
	if name == "" {
		return resp.Nil()
	}
	return resp.BulkString(name)
}

func cmdClientSetName(ctx *server.Context, argv []string) resp.Value {
	ctx.Client.SetName(argv[2])
	return resp.OK()
}

func cmdClientSetInfo(ctx *server.Context, argv []string) resp.Value {
	return resp.OK()
}

func cmdClientInfo(ctx *server.Context, argv []string) resp.Value {
	info := ctx.Client.Info()
	return resp.BulkString(fmt.Sprintf("id=%d addr=%s name=%s db=%d age=%d cmd=%s",
		info.ID, info.Addr, info.Name, info.DB, int64(info.Age.Seconds()), info.LastCmd))
}

func cmdClientList(ctx *server.Context, argv []string) resp.Value {
	var b strings.Builder
	for _, c := range ctx.State.Clients() {
		info := c.Info()
		b.WriteString("id=")
		b.WriteString(strconv.FormatInt(info.ID, 10))
		b.WriteString(" addr=")
		b.WriteString(info.Addr)
		b.WriteString(" name=")
		b.WriteString(info.Name)
		b.WriteString(" db=")
		b.WriteString(strconv.Itoa(info.DB))
		b.WriteString(" cmd=")
		b.WriteString(info.LastCmd)
		b.WriteString("\n")
	}
	return resp.BulkString(b.String())
}

func cmdClientKill(ctx *server.Context, argv []string) resp.Value {
	for _, c := range ctx.State.Clients() {
		if c.Info().Addr == argv[len(argv)-1] {
			c.Conn.Close()
			return resp.OK()
		}
	}
	return resp.ErrGeneric("No such client")
}

func cmdClientPause(ctx *server.Context, argv []string) resp.Value {
	ms, err := strconv.Atoi(argv[2])
	if err != nil {
		return resp.ErrNotInt()
	}
	for _, c := range ctx.State.Clients() {
		c.Pause(ms)
	}
	return resp.OK()
}

func cmdClientUnpause(ctx *server.Context, argv []string) resp.Value {
	for _, c := range ctx.State.Clients() {
		c.Pause(0)
	}
	return resp.OK()
}

func cmdClientReply(ctx *server.Context, argv []string) resp.Value {
	mode := strings.ToUpper(argv[2])
	switch mode {
	case "ON", "OFF", "SKIP":
		ctx.Client.SetReplyMode(mode)
	default:
		return resp.ErrSyntax()
	}
	if mode == "ON" {
		return resp.OK()
	}
	return resp.Nil()
}

func cmdClientUnblock(ctx *server.Context, argv []string) resp.Value {
	id, err := strconv.ParseInt(argv[2], 10, 64)
	if err != nil {
		return resp.ErrNotInt()
	}
	asError := false
	if len(argv) > 3 {
		switch strings.ToUpper(argv[3]) {
		case "ERROR":
			asError = true
		case "TIMEOUT":
			asError = false
		default:
			return resp.ErrSyntax()
		}
	}
	ok := ctx.State.Blocked.Unblock(id, asError)
	if ok {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

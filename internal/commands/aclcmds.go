/*
file: valkeygo/internal/commands/aclcmds.go

ACL command family (spec.md §4.3/§4.5), grounded on the teacher's
internal/handlers/handler_auth.go user-management surface, rebuilt
against this module's internal/acl.Table/User/ApplyRules grammar.
*/
package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/netanelrevah/valkeygo/internal/acl"
	"github.com/netanelrevah/valkeygo/internal/resp"
	"github.com/netanelrevah/valkeygo/internal/server"
)

func aclCommands() []*Cmd {
	return []*Cmd{
		{
			Name: "ACL", Arity: -2, Flags: []string{admin, slow},
			Subcommands: map[string]*Cmd{
				"SETUSER": {Name: "SETUSER", Arity: -3, Handler: cmdACLSetUser},
				"GETUSER": {Name: "GETUSER", Arity: 3, Handler: cmdACLGetUser},
				"DELUSER": {Name: "DELUSER", Arity: -3, Handler: cmdACLDelUser},
				"LIST":    {Name: "LIST", Arity: 2, Handler: cmdACLList},
				"USERS":   {Name: "USERS", Arity: 2, Handler: cmdACLUsers},
				"WHOAMI":  {Name: "WHOAMI", Arity: 2, Handler: cmdACLWhoAmI},
				"CAT":     {Name: "CAT", Arity: -2, Handler: cmdACLCat},
			},
			Handler: unknownSubcommand,
		},
	}
}

func cmdACLSetUser(ctx *server.Context, argv []string) resp.Value {
	name := argv[2]
	u := ctx.State.ACL.GetOrCreate(name)
	if err := u.ApplyRules(argv[3:]); err != nil {
		return resp.Error(err.Error())
	}
	return resp.OK()
}

func cmdACLGetUser(ctx *server.Context, argv []string) resp.Value {
	u, ok := ctx.State.ACL.Get(argv[2])
	if !ok {
		return resp.Nil()
	}
	flags := []resp.Value{resp.BulkString("on")}
	if !u.Enabled {
		flags[0] = resp.BulkString("off")
	}
	if u.NoPass {
		flags = append(flags, resp.BulkString("nopass"))
	}
	passwords := make([]resp.Value, 0, len(u.Passwords))
	for hash := range u.Passwords {
		passwords = append(passwords, resp.BulkString(hash))
	}
	keys := make([]string, 0, len(u.Root.KeyPatterns))
	for _, kp := range u.Root.KeyPatterns {
		keys = append(keys, kp.Glob)
	}
	return resp.Map(
		resp.BulkString("flags"), resp.ArraySlice(flags),
		resp.BulkString("passwords"), resp.ArraySlice(passwords),
		resp.BulkString("commands"), resp.BulkString(commandRulesString(u)),
		resp.BulkString("keys"), resp.BulkString(strings.Join(keys, " ")),
		resp.BulkString("channels"), resp.BulkString(""),
		resp.BulkString("selectors"), resp.Array(),
	)
}

func commandRulesString(u *acl.User) string {
	if len(u.Root.CommandRules) == 0 {
		return "-@all"
	}
	return "+@all"
}

func cmdACLDelUser(ctx *server.Context, argv []string) resp.Value {
	n := int64(0)
	for _, name := range argv[2:] {
		if ctx.State.ACL.Delete(name) {
			n++
		}
	}
	return resp.Integer(n)
}

func cmdACLList(ctx *server.Context, argv []string) resp.Value {
	names := ctx.State.ACL.Names()
	sort.Strings(names)
	out := make([]resp.Value, 0, len(names))
	for _, n := range names {
		u, _ := ctx.State.ACL.Get(n)
		status := "off"
		if u.Enabled {
			status = "on"
		}
		out = append(out, resp.BulkString(fmt.Sprintf("user %s %s", n, status)))
	}
	return resp.ArraySlice(out)
}

func cmdACLUsers(ctx *server.Context, argv []string) resp.Value {
	names := ctx.State.ACL.Names()
	sort.Strings(names)
	return resp.BulkStrings(names)
}

func cmdACLWhoAmI(ctx *server.Context, argv []string) resp.Value {
	u := ctx.Client.User()
	if u == nil {
		return resp.BulkString("default")
	}
	return resp.BulkString(u.Name)
}

var aclCategories = []string{
	"keyspace", "read", "write", "set", "sortedset", "list", "hash",
	"string", "bitmap", "hyperloglog", "geo", "stream", "pubsub",
	"admin", "fast", "slow", "blocking", "dangerous", "connection",
	"transaction", "scripting",
}

func cmdACLCat(ctx *server.Context, argv []string) resp.Value {
	return resp.BulkStrings(aclCategories)
}

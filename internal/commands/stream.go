/*
file: valkeygo/internal/commands/stream.go

Stream and consumer-group commands (spec.md §4.7), grounded on the
teacher's list/hash command shapes (no stream support existed in the
teacher) generalized onto internal/stream.Stream/Group/Consumer.
*/
package commands

import (
	"strconv"
	"strings"

	"github.com/netanelrevah/valkeygo/internal/resp"
	"github.com/netanelrevah/valkeygo/internal/server"
	"github.com/netanelrevah/valkeygo/internal/store"
	"github.com/netanelrevah/valkeygo/internal/stream"
)

// getStream/getOrCreateStream unwrap store.Database's object.Entry-typed
// stream accessors down to the *stream.Stream underneath, since every
// stream command here operates on the stream engine directly rather than
// the generic entry wrapper.
func getStream(db *store.Database, key string) (*stream.Stream, bool, error) {
	e, ok, err := db.GetStream(key)
	if err != nil || !ok {
		return nil, ok, err
	}
	return e.Stm, true, nil
}

func getOrCreateStream(db *store.Database, key string) (*stream.Stream, error) {
	e, err := db.GetOrCreateStream(key)
	if err != nil {
		return nil, err
	}
	return e.Stm, nil
}

func streamCommands() []*Cmd {
	return []*Cmd{
		{Name: "XADD", Arity: -5, Flags: []string{write, denyoom, fast}, Handler: cmdXAdd},
		{Name: "XLEN", Arity: 2, Flags: []string{readonly, fast}, Handler: cmdXLen},
		{Name: "XDEL", Arity: -3, Flags: []string{write, fast}, Handler: cmdXDel},
		{Name: "XRANGE", Arity: -4, Flags: []string{readonly}, Handler: cmdXRange},
		{Name: "XREVRANGE", Arity: -4, Flags: []string{readonly}, Handler: cmdXRevRange},
		{Name: "XTRIM", Arity: -4, Flags: []string{write}, Handler: cmdXTrim},
		{Name: "XSETID", Arity: -3, Flags: []string{write, fast}, Handler: cmdXSetID},
		{Name: "XREAD", Arity: -4, Flags: []string{readonly, blocking}, Handler: cmdXRead},
		{Name: "XACK", Arity: -4, Flags: []string{write, fast}, Handler: cmdXAck},
		{Name: "XREADGROUP", Arity: -7, Flags: []string{write, blocking}, Handler: cmdXReadGroup},
		{Name: "XPENDING", Arity: -3, Flags: []string{readonly}, Handler: cmdXPending},
		{Name: "XAUTOCLAIM", Arity: -7, Flags: []string{write}, Handler: cmdXAutoClaim},
		{
			Name: "XGROUP", Arity: -2, Flags: []string{admin},
			Subcommands: map[string]*Cmd{
				"CREATE":         {Name: "CREATE", Arity: -5, Handler: cmdXGroupCreate},
				"DESTROY":        {Name: "DESTROY", Arity: 4, Handler: cmdXGroupDestroy},
				"SETID":          {Name: "SETID", Arity: -5, Handler: cmdXGroupSetID},
				"CREATECONSUMER": {Name: "CREATECONSUMER", Arity: 5, Handler: cmdXGroupCreateConsumer},
				"DELCONSUMER":    {Name: "DELCONSUMER", Arity: 5, Handler: cmdXGroupDelConsumer},
			},
			Handler: unknownSubcommand,
		},
		{
			Name: "XINFO", Arity: -3, Flags: []string{readonly},
			Subcommands: map[string]*Cmd{
				"STREAM":    {Name: "STREAM", Arity: -3, Handler: cmdXInfoStream},
				"GROUPS":    {Name: "GROUPS", Arity: 3, Handler: cmdXInfoGroups},
				"CONSUMERS": {Name: "CONSUMERS", Arity: 4, Handler: cmdXInfoConsumers},
			},
			Handler: unknownSubcommand,
		},
	}
}

func xEntryReply(e stream.StreamEntry) resp.Value {
	fields := make([]resp.Value, 0, len(e.Fields)*2)
	for _, f := range e.Fields {
		fields = append(fields, resp.BulkString(string(f.Name)), resp.BulkString(string(f.Value)))
	}
	return resp.Array(resp.BulkString(e.ID.String()), resp.ArraySlice(fields))
}

func xEntriesReply(entries []stream.StreamEntry) resp.Value {
	out := make([]resp.Value, len(entries))
	for i, e := range entries {
		out[i] = xEntryReply(e)
	}
	return resp.ArraySlice(out)
}

func cmdXAdd(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	i := 2
	nomkstream := false
	for i < len(argv) {
		switch strings.ToUpper(argv[i]) {
		case "NOMKSTREAM":
			nomkstream = true
			i++
		case "MAXLEN", "MINID":
			approx := false
			kind := strings.ToUpper(argv[i])
			i++
			if i < len(argv) && (argv[i] == "~" || argv[i] == "=") {
				approx = argv[i] == "~"
				i++
			}
			i++ // threshold value
			_ = kind
			_ = approx
		case "LIMIT":
			i += 2
		default:
			goto parsedTrim
		}
	}
parsedTrim:
	if i >= len(argv) {
		return resp.ErrSyntax()
	}
	idArg := argv[i]
	i++
	fieldArgs := argv[i:]
	if len(fieldArgs) == 0 || len(fieldArgs)%2 != 0 {
		return resp.ErrWrongArgCount("xadd")
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	s, exists, errT := getStream(db, key)
	if errT != nil {
		return resp.ErrWrongType()
	}
	if !exists {
		if nomkstream {
			return resp.Nil()
		}
		var createErr error
		s, createErr = getOrCreateStream(db, key)
		if createErr != nil {
			return resp.ErrWrongType()
		}
	}
	id, err := s.ResolveWriteID(idArg)
	if err != nil {
		return resp.Error(err.Error())
	}
	fields := make([]stream.Field, 0, len(fieldArgs)/2)
	for f := 0; f < len(fieldArgs); f += 2 {
		fields = append(fields, stream.Field{Name: []byte(fieldArgs[f]), Value: []byte(fieldArgs[f+1])})
	}
	if err := s.Append(id, fields); err != nil {
		return resp.Error(err.Error())
	}
	notifyMutated(ctx, key, ctx.InTx())
	return resp.BulkString(id.String())
}

func cmdXLen(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	s, ok, err := getStream(db, argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(int64(s.Len()))
}

func cmdXDel(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	s, ok, err := getStream(db, argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	n := int64(0)
	for _, a := range argv[2:] {
		id, perr := stream.ParseID(a, 0)
		if perr != nil {
			return resp.Error(perr.Error())
		}
		if s.Delete(id) {
			n++
		}
	}
	if n > 0 {
		notifyMutated(ctx, argv[1], ctx.InTx())
	}
	return resp.Integer(n)
}

func xRange(ctx *server.Context, argv []string, reverse bool) resp.Value {
	startArg, endArg := argv[2], argv[3]
	if reverse {
		startArg, endArg = argv[3], argv[2]
	}
	start, startIncl, e1 := stream.ParseRangeID(startArg, 0)
	end, endIncl, e2 := stream.ParseRangeID(endArg, ^uint64(0))
	if e1 != nil || e2 != nil {
		return resp.ErrGeneric("Invalid stream ID specified as stream command argument")
	}
	if !startIncl {
		start = start.Next()
	}
	if !endIncl && end != stream.Max {
		end = stream.ID{Ms: end.Ms, Seq: end.Seq - 1}
	}
	count := 0
	if len(argv) > 5 && strings.EqualFold(argv[4], "COUNT") {
		count, _ = strconv.Atoi(argv[5])
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	s, ok, err := getStream(db, argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Array()
	}
	return xEntriesReply(s.Range(start, end, reverse, count))
}

func cmdXRange(ctx *server.Context, argv []string) resp.Value    { return xRange(ctx, argv, false) }
func cmdXRevRange(ctx *server.Context, argv []string) resp.Value { return xRange(ctx, argv, true) }

func cmdXTrim(ctx *server.Context, argv []string) resp.Value {
	strategy := strings.ToUpper(argv[2])
	i := 3
	approx := false
	if i < len(argv) && (argv[i] == "~" || argv[i] == "=") {
		approx = argv[i] == "~"
		i++
	}
	if i >= len(argv) {
		return resp.ErrSyntax()
	}
	threshold := argv[i]
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	s, ok, err := getStream(db, argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	var n int
	switch strategy {
	case "MAXLEN":
		maxLen, perr := strconv.Atoi(threshold)
		if perr != nil {
			return resp.ErrNotInt()
		}
		n = s.TrimMaxLen(maxLen, approx, 100)
	case "MINID":
		id, perr := stream.ParseID(threshold, 0)
		if perr != nil {
			return resp.Error(perr.Error())
		}
		n = s.TrimMinID(id, approx, 100)
	default:
		return resp.ErrSyntax()
	}
	if n > 0 {
		notifyMutated(ctx, argv[1], ctx.InTx())
	}
	return resp.Integer(int64(n))
}

func cmdXSetID(ctx *server.Context, argv []string) resp.Value {
	id, err := stream.ParseID(argv[2], 0)
	if err != nil {
		return resp.Error(err.Error())
	}
	var entriesAdded *uint64
	var maxDeleted *stream.ID
	for i := 3; i < len(argv); i++ {
		switch strings.ToUpper(argv[i]) {
		case "ENTRIESADDED":
			if i+1 < len(argv) {
				i++
				v, _ := strconv.ParseUint(argv[i], 10, 64)
				entriesAdded = &v
			}
		case "MAXDELETEDID":
			if i+1 < len(argv) {
				i++
				mid, perr := stream.ParseID(argv[i], 0)
				if perr != nil {
					return resp.Error(perr.Error())
				}
				maxDeleted = &mid
			}
		}
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	s, err2 := getOrCreateStream(db, argv[1])
	if err2 != nil {
		return resp.ErrWrongType()
	}
	if err := s.SetID(id, entriesAdded, maxDeleted); err != nil {
		return resp.Error(err.Error())
	}
	return resp.OK()
}

func cmdXAck(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	s, ok, err := getStream(db, argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	g, gok := s.Groups[argv[2]]
	if !gok {
		return resp.Integer(0)
	}
	ids := make([]stream.ID, 0, len(argv)-3)
	for _, a := range argv[3:] {
		id, perr := stream.ParseID(a, 0)
		if perr != nil {
			return resp.Error(perr.Error())
		}
		ids = append(ids, id)
	}
	return resp.Integer(int64(g.Ack(ids)))
}

func cmdXGroupCreate(ctx *server.Context, argv []string) resp.Value {
	key, group, idArg := argv[2], argv[3], argv[4]
	mkstream := false
	for _, a := range argv[5:] {
		if strings.EqualFold(a, "MKSTREAM") {
			mkstream = true
		}
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	s, ok, errT := getStream(db, key)
	if errT != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		if !mkstream {
			return resp.Error(stream.ErrNoSuchKey.Error())
		}
		var cerr error
		s, cerr = getOrCreateStream(db, key)
		if cerr != nil {
			return resp.ErrWrongType()
		}
	}
	id := s.LastID
	if idArg != "$" {
		var perr error
		id, perr = stream.ParseID(idArg, 0)
		if perr != nil {
			return resp.Error(perr.Error())
		}
	}
	if err := s.CreateGroup(group, id, nil); err != nil {
		return resp.Error(err.Error())
	}
	return resp.OK()
}

func cmdXGroupDestroy(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	s, ok, err := getStream(db, argv[2])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	if s.DestroyGroup(argv[3]) {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdXGroupSetID(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	s, ok, err := getStream(db, argv[2])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Error(stream.ErrNoSuchKey.Error())
	}
	g, gok := s.Groups[argv[3]]
	if !gok {
		return resp.ErrNoGroup(argv[2], argv[3])
	}
	id := s.LastID
	if argv[4] != "$" {
		var perr error
		id, perr = stream.ParseID(argv[4], 0)
		if perr != nil {
			return resp.Error(perr.Error())
		}
	}
	g.LastID = id
	return resp.OK()
}

func cmdXGroupCreateConsumer(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	s, ok, err := getStream(db, argv[2])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.ErrNoGroup(argv[2], argv[3])
	}
	g, gok := s.Groups[argv[3]]
	if !gok {
		return resp.ErrNoGroup(argv[2], argv[3])
	}
	if g.CreateConsumer(argv[4]) {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdXGroupDelConsumer(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	s, ok, err := getStream(db, argv[2])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.ErrNoGroup(argv[2], argv[3])
	}
	g, gok := s.Groups[argv[3]]
	if !gok {
		return resp.ErrNoGroup(argv[2], argv[3])
	}
	return resp.Integer(int64(g.DelConsumer(argv[4])))
}

func cmdXRead(ctx *server.Context, argv []string) resp.Value {
	i := 1
	count := 0
	var timeout *int
	for i < len(argv) {
		switch strings.ToUpper(argv[i]) {
		case "COUNT":
			i++
			count, _ = strconv.Atoi(argv[i])
			i++
		case "BLOCK":
			i++
			t, _ := strconv.Atoi(argv[i])
			timeout = &t
			i++
		case "STREAMS":
			i++
			goto parsedHeader
		default:
			return resp.ErrSyntax()
		}
	}
parsedHeader:
	rest := argv[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return resp.ErrSyntax()
	}
	n := len(rest) / 2
	keys := rest[:n]
	ids := rest[n:]
	_ = timeout
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	out := make([]resp.Value, 0, n)
	for k := 0; k < n; k++ {
		s, ok, err := getStream(db, keys[k])
		if err != nil {
			return resp.ErrWrongType()
		}
		if !ok {
			continue
		}
		after := s.LastID
		if ids[k] != "$" {
			id, perr := stream.ParseID(ids[k], 0)
			if perr != nil {
				return resp.Error(perr.Error())
			}
			after = id
		}
		entries := s.ReadAfter(after, count)
		if len(entries) == 0 {
			continue
		}
		out = append(out, resp.Array(resp.BulkString(keys[k]), xEntriesReply(entries)))
	}
	if len(out) == 0 {
		return resp.NullArray()
	}
	return resp.ArraySlice(out)
}

func cmdXReadGroup(ctx *server.Context, argv []string) resp.Value {
	if !strings.EqualFold(argv[1], "GROUP") {
		return resp.ErrSyntax()
	}
	group, consumer := argv[2], argv[3]
	i := 4
	count := 0
	noack := false
	for i < len(argv) {
		switch strings.ToUpper(argv[i]) {
		case "COUNT":
			i++
			count, _ = strconv.Atoi(argv[i])
			i++
		case "BLOCK":
			i += 2
		case "NOACK":
			noack = true
			i++
		case "STREAMS":
			i++
			goto parsedHeader
		default:
			return resp.ErrSyntax()
		}
	}
parsedHeader:
	rest := argv[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return resp.ErrSyntax()
	}
	n := len(rest) / 2
	keys := rest[:n]
	ids := rest[n:]
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	out := make([]resp.Value, 0, n)
	for k := 0; k < n; k++ {
		s, ok, err := getStream(db, keys[k])
		if err != nil {
			return resp.ErrWrongType()
		}
		if !ok {
			return resp.ErrNoGroup(keys[k], group)
		}
		var entries []stream.StreamEntry
		var rerr error
		if ids[k] == ">" {
			entries, rerr = s.ReadNew(group, consumer, count, noack)
		} else {
			id, perr := stream.ParseID(ids[k], 0)
			if perr != nil {
				return resp.Error(perr.Error())
			}
			entries, rerr = s.ReadPending(group, consumer, id, count)
		}
		if rerr != nil {
			return resp.ErrNoGroup(keys[k], group)
		}
		out = append(out, resp.Array(resp.BulkString(keys[k]), xEntriesReply(entries)))
	}
	notifyMutated(ctx, keys[0], ctx.InTx())
	return resp.ArraySlice(out)
}

func cmdXPending(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	s, ok, err := getStream(db, argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.ErrNoGroup(argv[1], argv[2])
	}
	g, gok := s.Groups[argv[2]]
	if !gok {
		return resp.ErrNoGroup(argv[1], argv[2])
	}
	if len(argv) == 3 {
		sum := g.Summary()
		if sum.Count == 0 {
			return resp.Array(resp.Integer(0), resp.Nil(), resp.Nil(), resp.NullArray())
		}
		perConsumer := make([]resp.Value, 0, len(sum.PerConsumer))
		for name, n := range sum.PerConsumer {
			perConsumer = append(perConsumer, resp.Array(resp.BulkString(name), resp.BulkString(strconv.Itoa(n))))
		}
		return resp.Array(
			resp.Integer(int64(sum.Count)),
			resp.BulkString(sum.Lowest.String()),
			resp.BulkString(sum.Highest.String()),
			resp.ArraySlice(perConsumer),
		)
	}
	start, _, e1 := stream.ParseRangeID(argv[3], 0)
	end, _, e2 := stream.ParseRangeID(argv[4], ^uint64(0))
	if e1 != nil || e2 != nil {
		return resp.ErrGeneric("Invalid stream ID specified as stream command argument")
	}
	count, err3 := strconv.Atoi(argv[5])
	if err3 != nil {
		return resp.ErrNotInt()
	}
	consumer := ""
	if len(argv) > 6 {
		consumer = argv[6]
	}
	entries := g.PendingRange(start, end, count, consumer, 0)
	out := make([]resp.Value, len(entries))
	for i, pe := range entries {
		out[i] = resp.Array(
			resp.BulkString(pe.ID.String()),
			resp.BulkString(pe.Consumer),
			resp.Integer(pe.LastDeliveryMs),
			resp.Integer(int64(pe.TimesDelivered)),
		)
	}
	return resp.ArraySlice(out)
}

func cmdXAutoClaim(ctx *server.Context, argv []string) resp.Value {
	group, consumer := argv[2], argv[3]
	minIdle, e1 := strconv.ParseInt(argv[4], 10, 64)
	if e1 != nil {
		return resp.ErrNotInt()
	}
	start, e2 := stream.ParseID(argv[5], 0)
	if e2 != nil {
		return resp.Error(e2.Error())
	}
	count := 100
	for i := 6; i < len(argv); i++ {
		if strings.EqualFold(argv[i], "COUNT") && i+1 < len(argv) {
			count, _ = strconv.Atoi(argv[i+1])
		}
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	s, ok, err := getStream(db, argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.ErrNoGroup(argv[1], group)
	}
	claimed, deleted, cursor, cerr := s.AutoClaim(group, consumer, minIdle, start, count)
	if cerr != nil {
		return resp.ErrNoGroup(argv[1], group)
	}
	delIDs := make([]resp.Value, len(deleted))
	for i, id := range deleted {
		delIDs[i] = resp.BulkString(id.String())
	}
	return resp.Array(resp.BulkString(cursor.String()), xEntriesReply(claimed), resp.ArraySlice(delIDs))
}

func cmdXInfoStream(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	s, ok, err := getStream(db, argv[2])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.ErrNoSuchKey()
	}
	return resp.Map(
		resp.BulkString("length"), resp.Integer(int64(s.Len())),
		resp.BulkString("last-generated-id"), resp.BulkString(s.LastID.String()),
		resp.BulkString("max-deleted-entry-id"), resp.BulkString(s.MaxDeletedID.String()),
		resp.BulkString("entries-added"), resp.Integer(int64(s.AddedEntries)),
		resp.BulkString("groups"), resp.Integer(int64(len(s.Groups))),
	)
}

func cmdXInfoGroups(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	s, ok, err := getStream(db, argv[2])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.ErrNoSuchKey()
	}
	out := make([]resp.Value, 0, len(s.Groups))
	for name, g := range s.Groups {
		out = append(out, resp.Map(
			resp.BulkString("name"), resp.BulkString(name),
			resp.BulkString("consumers"), resp.Integer(int64(len(g.Consumers))),
			resp.BulkString("pending"), resp.Integer(int64(g.PendingCount())),
			resp.BulkString("last-delivered-id"), resp.BulkString(g.LastID.String()),
			resp.BulkString("entries-read"), resp.Integer(int64(g.ReadEntries)),
		))
	}
	return resp.ArraySlice(out)
}

func cmdXInfoConsumers(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	s, ok, err := getStream(db, argv[2])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.ErrNoSuchKey()
	}
	g, gok := s.Groups[argv[3]]
	if !gok {
		return resp.ErrNoGroup(argv[2], argv[3])
	}
	out := make([]resp.Value, 0, len(g.Consumers))
	for name, c := range g.Consumers {
		out = append(out, resp.Map(
			resp.BulkString("name"), resp.BulkString(name),
			resp.BulkString("pending"), resp.Integer(int64(c.PendingCount())),
			resp.BulkString("idle"), resp.Integer(nowMs()-c.LastSeenMs),
		))
	}
	return resp.ArraySlice(out)
}

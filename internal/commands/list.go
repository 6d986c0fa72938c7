/*
file: valkeygo/internal/commands/list.go

List-family commands (spec.md §6), grounded on the teacher's
internal/handlers/handler_list.go, rebuilt against object.List and wired
into internal/blocking for BLPOP/BRPOP's wait contract (spec.md §4.6).
*/
package commands

import (
	"errors"
	"strconv"
	"time"

	"github.com/netanelrevah/valkeygo/internal/params"
	"github.com/netanelrevah/valkeygo/internal/resp"
	"github.com/netanelrevah/valkeygo/internal/server"
)

func listCommands() []*Cmd {
	return []*Cmd{
		{Name: "LPUSH", Arity: -3, Flags: []string{write, denyoom, fast}, Handler: cmdLPush},
		{Name: "RPUSH", Arity: -3, Flags: []string{write, denyoom, fast}, Handler: cmdRPush},
		{Name: "LPUSHX", Arity: -3, Flags: []string{write, denyoom, fast}, Handler: cmdLPushX},
		{Name: "RPUSHX", Arity: -3, Flags: []string{write, denyoom, fast}, Handler: cmdRPushX},
		{Name: "LPOP", Arity: -2, Flags: []string{write, fast}, Handler: cmdLPop},
		{Name: "RPOP", Arity: -2, Flags: []string{write, fast}, Handler: cmdRPop},
		{Name: "LLEN", Arity: 2, Flags: []string{readonly, fast}, Handler: cmdLLen},
		{Name: "LRANGE", Arity: 4, Flags: []string{readonly}, Handler: cmdLRange},
		{Name: "LINDEX", Arity: 3, Flags: []string{readonly}, Handler: cmdLIndex},
		{Name: "LSET", Arity: 4, Flags: []string{write, denyoom}, Handler: cmdLSet},
		{Name: "LTRIM", Arity: 4, Flags: []string{write}, Handler: cmdLTrim},
		{Name: "LINSERT", Arity: 5, Flags: []string{write, denyoom}, Handler: cmdLInsert},
		{Name: "LREM", Arity: 4, Flags: []string{write}, Handler: cmdLRem},
		{Name: "LPOS", Arity: -3, Flags: []string{readonly}, Handler: cmdLPos},
		{Name: "BLPOP", Arity: -3, Flags: []string{write, blocking}, Handler: cmdBLPop},
		{Name: "BRPOP", Arity: -3, Flags: []string{write, blocking}, Handler: cmdBRPop},
	}
}

func cmdLPush(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	db := ctx.DB()
	db.Lock()
	l, err := db.GetOrCreateList(key)
	if err != nil {
		db.Unlock()
		return resp.ErrWrongType()
	}
	bs := make([][]byte, len(argv)-2)
	for i, v := range argv[2:] {
		bs[i] = []byte(v)
	}
	l.LPush(bs...)
	n := l.Len()
	db.Unlock()
	notifyMutated(ctx, key, ctx.InTx())
	return resp.Integer(int64(n))
}

func cmdRPush(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	db := ctx.DB()
	db.Lock()
	l, err := db.GetOrCreateList(key)
	if err != nil {
		db.Unlock()
		return resp.ErrWrongType()
	}
	bs := make([][]byte, len(argv)-2)
	for i, v := range argv[2:] {
		bs[i] = []byte(v)
	}
	l.RPush(bs...)
	n := l.Len()
	db.Unlock()
	notifyMutated(ctx, key, ctx.InTx())
	return resp.Integer(int64(n))
}

func cmdLPushX(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	l, ok, err := db.GetList(key)
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	bs := make([][]byte, len(argv)-2)
	for i, v := range argv[2:] {
		bs[i] = []byte(v)
	}
	l.LPush(bs...)
	notifyMutated(ctx, key, ctx.InTx())
	return resp.Integer(int64(l.Len()))
}

func cmdRPushX(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	l, ok, err := db.GetList(key)
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	bs := make([][]byte, len(argv)-2)
	for i, v := range argv[2:] {
		bs[i] = []byte(v)
	}
	l.RPush(bs...)
	notifyMutated(ctx, key, ctx.InTx())
	return resp.Integer(int64(l.Len()))
}

func popCount(argv []string) (int64, error) {
	if len(argv) < 3 {
		return 1, nil
	}
	return strconv.ParseInt(argv[2], 10, 64)
}

func cmdLPop(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	count, err := popCount(argv)
	if err != nil {
		return resp.ErrNotInt()
	}
	db := ctx.DB()
	db.Lock()
	l, ok, errT := db.GetList(key)
	if errT != nil {
		db.Unlock()
		return resp.ErrWrongType()
	}
	if !ok {
		db.Unlock()
		if len(argv) < 3 {
			return resp.Nil()
		}
		return resp.NullArray()
	}
	vals := l.LPop(int(count))
	empty := l.Len() == 0
	if empty {
		db.Del(key)
	}
	db.Unlock()
	if len(vals) > 0 {
		notifyMutated(ctx, key, ctx.InTx())
	}
	if len(argv) < 3 {
		if len(vals) == 0 {
			return resp.Nil()
		}
		return resp.BulkString(string(vals[0]))
	}
	out := make([]resp.Value, len(vals))
	for i, v := range vals {
		out[i] = resp.BulkString(string(v))
	}
	return resp.ArraySlice(out)
}

func cmdRPop(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	count, err := popCount(argv)
	if err != nil {
		return resp.ErrNotInt()
	}
	db := ctx.DB()
	db.Lock()
	l, ok, errT := db.GetList(key)
	if errT != nil {
		db.Unlock()
		return resp.ErrWrongType()
	}
	if !ok {
		db.Unlock()
		if len(argv) < 3 {
			return resp.Nil()
		}
		return resp.NullArray()
	}
	vals := l.RPop(int(count))
	empty := l.Len() == 0
	if empty {
		db.Del(key)
	}
	db.Unlock()
	if len(vals) > 0 {
		notifyMutated(ctx, key, ctx.InTx())
	}
	if len(argv) < 3 {
		if len(vals) == 0 {
			return resp.Nil()
		}
		return resp.BulkString(string(vals[0]))
	}
	out := make([]resp.Value, len(vals))
	for i, v := range vals {
		out[i] = resp.BulkString(string(v))
	}
	return resp.ArraySlice(out)
}

func cmdLLen(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	l, ok, err := db.GetList(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(int64(l.Len()))
}

func cmdLRange(ctx *server.Context, argv []string) resp.Value {
	start, e1 := strconv.Atoi(argv[2])
	stop, e2 := strconv.Atoi(argv[3])
	if e1 != nil || e2 != nil {
		return resp.ErrNotInt()
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	l, ok, err := db.GetList(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Array()
	}
	vals := l.Range(start, stop)
	out := make([]resp.Value, len(vals))
	for i, v := range vals {
		out[i] = resp.BulkString(string(v))
	}
	return resp.ArraySlice(out)
}

func cmdLIndex(ctx *server.Context, argv []string) resp.Value {
	idx, err := strconv.Atoi(argv[2])
	if err != nil {
		return resp.ErrNotInt()
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	l, ok, errT := db.GetList(argv[1])
	if errT != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Nil()
	}
	v, found := l.Get(idx)
	if !found {
		return resp.Nil()
	}
	return resp.BulkString(string(v))
}

func cmdLSet(ctx *server.Context, argv []string) resp.Value {
	idx, err := strconv.Atoi(argv[2])
	if err != nil {
		return resp.ErrNotInt()
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	l, ok, errT := db.GetList(argv[1])
	if errT != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.ErrNoSuchKey()
	}
	if !l.Set(idx, []byte(argv[3])) {
		return resp.ErrGeneric("index out of range")
	}
	notifyMutated(ctx, argv[1], ctx.InTx())
	return resp.OK()
}

func cmdLTrim(ctx *server.Context, argv []string) resp.Value {
	start, e1 := strconv.Atoi(argv[2])
	stop, e2 := strconv.Atoi(argv[3])
	if e1 != nil || e2 != nil {
		return resp.ErrNotInt()
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	l, ok, errT := db.GetList(argv[1])
	if errT != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.OK()
	}
	l.Trim(start, stop)
	if l.Len() == 0 {
		db.Del(argv[1])
	}
	notifyMutated(ctx, argv[1], ctx.InTx())
	return resp.OK()
}

func cmdLInsert(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	l, ok, errT := db.GetList(argv[1])
	if errT != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	var inserted bool
	switch argv[2] {
	case "BEFORE", "before":
		inserted = l.InsertBefore([]byte(argv[3]), []byte(argv[4]))
	case "AFTER", "after":
		inserted = l.InsertAfter([]byte(argv[3]), []byte(argv[4]))
	default:
		return resp.ErrSyntax()
	}
	if !inserted {
		return resp.Integer(-1)
	}
	notifyMutated(ctx, argv[1], ctx.InTx())
	return resp.Integer(int64(l.Len()))
}

func cmdLRem(ctx *server.Context, argv []string) resp.Value {
	count, err := strconv.Atoi(argv[2])
	if err != nil {
		return resp.ErrNotInt()
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	l, ok, errT := db.GetList(argv[1])
	if errT != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	removed := l.Rem(count, []byte(argv[3]))
	if l.Len() == 0 {
		db.Del(argv[1])
	}
	if removed > 0 {
		notifyMutated(ctx, argv[1], ctx.InTx())
	}
	return resp.Integer(int64(removed))
}

var lposSchema = params.Schema{
	{Name: "rank", Kind: params.Keyword, Token: "RANK", Type: params.TInt64},
	{Name: "count", Kind: params.Keyword, Token: "COUNT", Type: params.TInt64},
}

func cmdLPos(ctx *server.Context, argv []string) resp.Value {
	p, err := params.Parse(argv[3:], lposSchema)
	if err != nil {
		return errToValue(err)
	}
	rank := 1
	if p.Has("rank") {
		rank = int(p.Int64("rank"))
	}
	count := -1 // -1 means "single result" (no COUNT given)
	if p.Has("count") {
		count = int(p.Int64("count"))
	}
	if rank == 0 {
		return resp.ErrGeneric("RANK can't be zero")
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	l, ok, errT := db.GetList(argv[1])
	if errT != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		if count < 0 {
			return resp.Nil()
		}
		return resp.Array()
	}
	wantMulti := count >= 0
	if count <= 0 {
		count = 0
	}
	positions := l.Pos([]byte(argv[2]), rank, count)
	if !wantMulti {
		if len(positions) == 0 {
			return resp.Nil()
		}
		return resp.Integer(int64(positions[0]))
	}
	out := make([]resp.Value, len(positions))
	for i, p := range positions {
		out[i] = resp.Integer(int64(p))
	}
	return resp.ArraySlice(out)
}

var errBadTimeout = errors.New("timeout is not a float or out of range")

func blockTimeout(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, errBadTimeout
	}
	if f == 0 {
		return 0, nil
	}
	return time.Duration(f * float64(time.Second)), nil
}

func cmdBLPop(ctx *server.Context, argv []string) resp.Value {
	keys := argv[1 : len(argv)-1]
	timeout, err := blockTimeout(argv[len(argv)-1])
	if err != nil {
		return resp.ErrGeneric(err.Error())
	}
	db := ctx.DB()
	check := func() (any, bool) {
		db.Lock()
		defer db.Unlock()
		for _, k := range keys {
			l, ok, errT := db.GetList(k)
			if errT != nil || !ok || l.Len() == 0 {
				continue
			}
			v := l.LPop(1)
			if l.Len() == 0 {
				db.Del(k)
			}
			return [2]string{k, string(v[0])}, true
		}
		return nil, false
	}
	v, err := ctx.State.Blocked.WaitFor(ctx.Client.ID, keys, ctx.InTx(), timeout, check)
	if err != nil {
		return resp.ErrUnblocked()
	}
	if v == nil {
		return resp.NullArray()
	}
	pair := v.([2]string)
	return resp.Array(resp.BulkString(pair[0]), resp.BulkString(pair[1]))
}

func cmdBRPop(ctx *server.Context, argv []string) resp.Value {
	keys := argv[1 : len(argv)-1]
	timeout, err := blockTimeout(argv[len(argv)-1])
	if err != nil {
		return resp.ErrGeneric(err.Error())
	}
	db := ctx.DB()
	check := func() (any, bool) {
		db.Lock()
		defer db.Unlock()
		for _, k := range keys {
			l, ok, errT := db.GetList(k)
			if errT != nil || !ok || l.Len() == 0 {
				continue
			}
			v := l.RPop(1)
			if l.Len() == 0 {
				db.Del(k)
			}
			return [2]string{k, string(v[0])}, true
		}
		return nil, false
	}
	v, err := ctx.State.Blocked.WaitFor(ctx.Client.ID, keys, ctx.InTx(), timeout, check)
	if err != nil {
		return resp.ErrUnblocked()
	}
	if v == nil {
		return resp.NullArray()
	}
	pair := v.([2]string)
	return resp.Array(resp.BulkString(pair[0]), resp.BulkString(pair[1]))
}

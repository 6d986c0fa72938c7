/*
file: valkeygo/internal/commands/set.go

Set-family commands (spec.md §6), grounded on the teacher's
internal/handlers/handler_set.go, rebuilt against object.Set's
roaring-bitmap intset fast path and its Inter/Union/Diff set algebra.
*/
package commands

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/netanelrevah/valkeygo/internal/object"
	"github.com/netanelrevah/valkeygo/internal/resp"
	"github.com/netanelrevah/valkeygo/internal/server"
)

func setCommands() []*Cmd {
	return []*Cmd{
		{Name: "SADD", Arity: -3, Flags: []string{write, denyoom, fast}, Handler: cmdSAdd},
		{Name: "SREM", Arity: -3, Flags: []string{write, fast}, Handler: cmdSRem},
		{Name: "SMEMBERS", Arity: 2, Flags: []string{readonly}, Handler: cmdSMembers},
		{Name: "SISMEMBER", Arity: 3, Flags: []string{readonly, fast}, Handler: cmdSIsMember},
		{Name: "SMISMEMBER", Arity: -3, Flags: []string{readonly, fast}, Handler: cmdSMIsMember},
		{Name: "SCARD", Arity: 2, Flags: []string{readonly, fast}, Handler: cmdSCard},
		{Name: "SMOVE", Arity: 4, Flags: []string{write, fast}, Handler: cmdSMove},
		{Name: "SPOP", Arity: -2, Flags: []string{write, fast}, Handler: cmdSPop},
		{Name: "SRANDMEMBER", Arity: -2, Flags: []string{readonly}, Handler: cmdSRandMember},
		{Name: "SUNION", Arity: -2, Flags: []string{readonly}, Handler: cmdSUnion},
		{Name: "SINTER", Arity: -2, Flags: []string{readonly}, Handler: cmdSInter},
		{Name: "SDIFF", Arity: -2, Flags: []string{readonly}, Handler: cmdSDiff},
		{Name: "SUNIONSTORE", Arity: -3, Flags: []string{write, denyoom}, Handler: cmdSUnionStore},
		{Name: "SINTERSTORE", Arity: -3, Flags: []string{write, denyoom}, Handler: cmdSInterStore},
		{Name: "SDIFFSTORE", Arity: -3, Flags: []string{write, denyoom}, Handler: cmdSDiffStore},
		{Name: "SINTERCARD", Arity: -3, Flags: []string{readonly}, Handler: cmdSInterCard},
	}
}

func cmdSAdd(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	s, err := db.GetOrCreateSet(argv[1])
	if err != nil {
		db.Unlock()
		return resp.ErrWrongType()
	}
	n := int64(0)
	for _, m := range argv[2:] {
		if s.Add(m) {
			n++
		}
	}
	db.Unlock()
	if n > 0 {
		notifyMutated(ctx, argv[1], ctx.InTx())
	}
	return resp.Integer(n)
}

func cmdSRem(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	s, ok, err := db.GetSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	n := int64(0)
	for _, m := range argv[2:] {
		if s.Remove(m) {
			n++
		}
	}
	if s.Len() == 0 {
		db.Del(argv[1])
	}
	if n > 0 {
		notifyMutated(ctx, argv[1], ctx.InTx())
	}
	return resp.Integer(n)
}

func cmdSMembers(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	s, ok, err := db.GetSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Array()
	}
	return resp.BulkStrings(s.Members())
}

func cmdSIsMember(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	s, ok, err := db.GetSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok || !s.Contains(argv[2]) {
		return resp.Integer(0)
	}
	return resp.Integer(1)
}

func cmdSMIsMember(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	s, ok, err := db.GetSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	out := make([]resp.Value, len(argv)-2)
	for i, m := range argv[2:] {
		if ok && s.Contains(m) {
			out[i] = resp.Integer(1)
		} else {
			out[i] = resp.Integer(0)
		}
	}
	return resp.ArraySlice(out)
}

func cmdSCard(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	s, ok, err := db.GetSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(int64(s.Len()))
}

func cmdSMove(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	src, ok, err := db.GetSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok || !src.Contains(argv[3]) {
		return resp.Integer(0)
	}
	dst, err := db.GetOrCreateSet(argv[2])
	if err != nil {
		return resp.ErrWrongType()
	}
	src.Remove(argv[3])
	dst.Add(argv[3])
	if src.Len() == 0 {
		db.Del(argv[1])
	}
	notifyMutated(ctx, argv[1], ctx.InTx())
	notifyMutated(ctx, argv[2], ctx.InTx())
	return resp.Integer(1)
}

func cmdSPop(ctx *server.Context, argv []string) resp.Value {
	count := 1
	hasCount := false
	if len(argv) > 2 {
		n, err := strconv.Atoi(argv[2])
		if err != nil {
			return resp.ErrNotInt()
		}
		count = n
		hasCount = true
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	s, ok, err := db.GetSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		if hasCount {
			return resp.Array()
		}
		return resp.Nil()
	}
	members := s.Members()
	rand.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
	if count > len(members) {
		count = len(members)
	}
	picked := members[:count]
	for _, m := range picked {
		s.Remove(m)
	}
	if s.Len() == 0 {
		db.Del(argv[1])
	}
	if len(picked) > 0 {
		notifyMutated(ctx, argv[1], ctx.InTx())
	}
	if !hasCount {
		if len(picked) == 0 {
			return resp.Nil()
		}
		return resp.BulkString(picked[0])
	}
	return resp.BulkStrings(picked)
}

func cmdSRandMember(ctx *server.Context, argv []string) resp.Value {
	hasCount := len(argv) > 2
	count := 1
	if hasCount {
		n, err := strconv.Atoi(argv[2])
		if err != nil {
			return resp.ErrNotInt()
		}
		count = n
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	s, ok, err := db.GetSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		if hasCount {
			return resp.Array()
		}
		return resp.Nil()
	}
	members := s.Members()
	if !hasCount {
		if len(members) == 0 {
			return resp.Nil()
		}
		return resp.BulkString(members[rand.Intn(len(members))])
	}
	if count >= 0 {
		rand.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		if count > len(members) {
			count = len(members)
		}
		return resp.BulkStrings(members[:count])
	}
	// Negative count: allow duplicates, exactly -count picks.
	n := -count
	out := make([]string, n)
	for i := range out {
		out[i] = members[rand.Intn(len(members))]
	}
	return resp.BulkStrings(out)
}

func loadSets(ctx *server.Context, keys []string) ([]*object.Set, *resp.Value) {
	db := ctx.DB()
	sets := make([]*object.Set, 0, len(keys))
	for _, k := range keys {
		s, ok, err := db.GetSet(k)
		if err != nil {
			v := resp.ErrWrongType()
			return nil, &v
		}
		if !ok {
			s = object.NewSetContainer()
		}
		sets = append(sets, s)
	}
	return sets, nil
}

func cmdSUnion(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	sets, errV := loadSets(ctx, argv[1:])
	if errV != nil {
		return *errV
	}
	return resp.BulkStrings(object.Union(sets...))
}

func cmdSInter(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	sets, errV := loadSets(ctx, argv[1:])
	if errV != nil {
		return *errV
	}
	return resp.BulkStrings(object.Inter(sets...))
}

func cmdSDiff(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	sets, errV := loadSets(ctx, argv[1:])
	if errV != nil {
		return *errV
	}
	return resp.BulkStrings(object.Diff(sets...))
}

func storeSetResult(ctx *server.Context, dst string, members []string) resp.Value {
	db := ctx.DB()
	if len(members) == 0 {
		db.Del(dst)
		return resp.Integer(0)
	}
	result := object.NewSetContainer()
	for _, m := range members {
		result.Add(m)
	}
	db.Set(dst, &object.Entry{Kind: object.KindSet, Set: result})
	notifyMutated(ctx, dst, ctx.InTx())
	return resp.Integer(int64(len(members)))
}

func cmdSUnionStore(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	sets, errV := loadSets(ctx, argv[2:])
	if errV != nil {
		return *errV
	}
	return storeSetResult(ctx, argv[1], object.Union(sets...))
}

func cmdSInterStore(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	sets, errV := loadSets(ctx, argv[2:])
	if errV != nil {
		return *errV
	}
	return storeSetResult(ctx, argv[1], object.Inter(sets...))
}

func cmdSDiffStore(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	sets, errV := loadSets(ctx, argv[2:])
	if errV != nil {
		return *errV
	}
	return storeSetResult(ctx, argv[1], object.Diff(sets...))
}

// cmdSInterCard implements SINTERCARD numkeys key [key ...] [LIMIT limit],
// a SUPPLEMENTED FEATURE (SPEC_FULL.md) over plain SINTER.
func cmdSInterCard(ctx *server.Context, argv []string) resp.Value {
	n, err := strconv.Atoi(argv[1])
	if err != nil || n <= 0 {
		return resp.ErrGeneric("numkeys should be greater than 0")
	}
	if len(argv)-2 < n {
		return resp.ErrSyntax()
	}
	keys := argv[2 : 2+n]
	limit := 0
	rest := argv[2+n:]
	for i := 0; i < len(rest); i++ {
		if strings.EqualFold(rest[i], "LIMIT") && i+1 < len(rest) {
			l, err := strconv.Atoi(rest[i+1])
			if err != nil {
				return resp.ErrNotInt()
			}
			limit = l
			i++
		}
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	sets, errV := loadSets(ctx, keys)
	if errV != nil {
		return *errV
	}
	result := object.Inter(sets...)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return resp.Integer(int64(len(result)))
}

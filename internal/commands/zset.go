/*
file: valkeygo/internal/commands/zset.go

Sorted-set commands (spec.md §6), grounded on the teacher's
internal/handlers/handler_zset.go, rebuilt against object.SortedSet's
google/btree-backed ordered index for rank/score/lex range queries.
*/
package commands

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/netanelrevah/valkeygo/internal/object"
	"github.com/netanelrevah/valkeygo/internal/resp"
	"github.com/netanelrevah/valkeygo/internal/server"
)

func zsetCommands() []*Cmd {
	return []*Cmd{
		{Name: "ZADD", Arity: -4, Flags: []string{write, denyoom, fast}, Handler: cmdZAdd},
		{Name: "ZREM", Arity: -3, Flags: []string{write, fast}, Handler: cmdZRem},
		{Name: "ZSCORE", Arity: 3, Flags: []string{readonly, fast}, Handler: cmdZScore},
		{Name: "ZMSCORE", Arity: -3, Flags: []string{readonly, fast}, Handler: cmdZMScore},
		{Name: "ZCARD", Arity: 2, Flags: []string{readonly, fast}, Handler: cmdZCard},
		{Name: "ZINCRBY", Arity: 4, Flags: []string{write, fast}, Handler: cmdZIncrBy},
		{Name: "ZRANK", Arity: -3, Flags: []string{readonly, fast}, Handler: cmdZRank},
		{Name: "ZREVRANK", Arity: -3, Flags: []string{readonly, fast}, Handler: cmdZRevRank},
		{Name: "ZRANGE", Arity: -4, Flags: []string{readonly}, Handler: cmdZRange},
		{Name: "ZREVRANGE", Arity: -4, Flags: []string{readonly}, Handler: cmdZRevRange},
		{Name: "ZRANGEBYSCORE", Arity: -4, Flags: []string{readonly}, Handler: cmdZRangeByScore},
		{Name: "ZREVRANGEBYSCORE", Arity: -4, Flags: []string{readonly}, Handler: cmdZRevRangeByScore},
		{Name: "ZRANGEBYLEX", Arity: -4, Flags: []string{readonly}, Handler: cmdZRangeByLex},
		{Name: "ZREVRANGEBYLEX", Arity: -4, Flags: []string{readonly}, Handler: cmdZRevRangeByLex},
		{Name: "ZCOUNT", Arity: 4, Flags: []string{readonly, fast}, Handler: cmdZCount},
		{Name: "ZPOPMIN", Arity: -2, Flags: []string{write, fast}, Handler: cmdZPopMin},
		{Name: "ZPOPMAX", Arity: -2, Flags: []string{write, fast}, Handler: cmdZPopMax},
		{Name: "ZUNIONSTORE", Arity: -4, Flags: []string{write, denyoom}, Handler: cmdZUnionStore},
		{Name: "ZINTERSTORE", Arity: -4, Flags: []string{write, denyoom}, Handler: cmdZInterStore},
		{Name: "ZDIFFSTORE", Arity: -4, Flags: []string{write, denyoom}, Handler: cmdZDiffStore},
		{Name: "ZUNION", Arity: -3, Flags: []string{readonly}, Handler: cmdZUnion},
		{Name: "ZINTER", Arity: -3, Flags: []string{readonly}, Handler: cmdZInter},
		{Name: "ZDIFF", Arity: -3, Flags: []string{readonly}, Handler: cmdZDiff},
		{Name: "ZINTERCARD", Arity: -3, Flags: []string{readonly}, Handler: cmdZInterCard},
		{Name: "BZPOPMIN", Arity: -3, Flags: []string{write, fast, blocking}, Handler: cmdBZPopMin},
		{Name: "BZPOPMAX", Arity: -3, Flags: []string{write, fast, blocking}, Handler: cmdBZPopMax},
		{Name: "ZRANGESTORE", Arity: -5, Flags: []string{write, denyoom}, Handler: cmdZRangeStore},
		{Name: "ZMPOP", Arity: -4, Flags: []string{write, fast}, Handler: cmdZMPop},
	}
}

var errSyntax = errors.New("syntax error")

type aggKind int

const (
	aggSum aggKind = iota
	aggMin
	aggMax
)

// zsetAggArgs parses the trailing `numkeys key [key ...] [WEIGHTS w...] [AGGREGATE SUM|MIN|MAX] [WITHSCORES]`
// clause shared by ZUNIONSTORE/ZINTERSTORE/ZUNION/ZINTER.
func zsetAggArgs(argv []string) (keys []string, weights []float64, agg aggKind, withScores bool, err error) {
	numKeys, err := strconv.Atoi(argv[0])
	if err != nil || numKeys <= 0 || 1+numKeys > len(argv) {
		return nil, nil, aggSum, false, errSyntax
	}
	keys = argv[1 : 1+numKeys]
	weights = make([]float64, numKeys)
	for i := range weights {
		weights[i] = 1
	}
	rest := argv[1+numKeys:]
	for i := 0; i < len(rest); i++ {
		switch strings.ToUpper(rest[i]) {
		case "WEIGHTS":
			for w := 0; w < numKeys && i+1 < len(rest); w++ {
				i++
				f, e := strconv.ParseFloat(rest[i], 64)
				if e != nil {
					return nil, nil, aggSum, false, e
				}
				weights[w] = f
			}
		case "AGGREGATE":
			if i+1 < len(rest) {
				i++
				switch strings.ToUpper(rest[i]) {
				case "SUM":
					agg = aggSum
				case "MIN":
					agg = aggMin
				case "MAX":
					agg = aggMax
				}
			}
		case "WITHSCORES":
			withScores = true
		}
	}
	return keys, weights, agg, withScores, nil
}

func combine(agg aggKind, a, b float64, seen bool) float64 {
	if !seen {
		return b
	}
	switch agg {
	case aggMin:
		if b < a {
			return b
		}
		return a
	case aggMax:
		if b > a {
			return b
		}
		return a
	default:
		return a + b
	}
}

func loadZSets(ctx *server.Context, keys []string) ([]*object.SortedSet, *resp.Value) {
	out := make([]*object.SortedSet, len(keys))
	for i, k := range keys {
		z, ok, err := ctx.DB().GetSortedSet(k)
		if err != nil {
			v := resp.ErrWrongType()
			return nil, &v
		}
		if !ok {
			z = object.NewSortedSetContainer()
		}
		out[i] = z
	}
	return out, nil
}

func zunion(sets []*object.SortedSet, weights []float64, agg aggKind) map[string]float64 {
	result := map[string]float64{}
	seen := map[string]bool{}
	for i, z := range sets {
		for _, e := range z.All() {
			score := e.Score * weights[i]
			result[e.Member] = combine(agg, result[e.Member], score, seen[e.Member])
			seen[e.Member] = true
		}
	}
	return result
}

func zinter(sets []*object.SortedSet, weights []float64, agg aggKind) map[string]float64 {
	result := map[string]float64{}
	if len(sets) == 0 {
		return result
	}
	seen := map[string]bool{}
	for _, e := range sets[0].All() {
		result[e.Member] = e.Score * weights[0]
		seen[e.Member] = true
	}
	for i := 1; i < len(sets); i++ {
		next := map[string]bool{}
		for _, e := range sets[i].All() {
			if !seen[e.Member] {
				continue
			}
			result[e.Member] = combine(agg, result[e.Member], e.Score*weights[i], true)
			next[e.Member] = true
		}
		for m := range result {
			if !next[m] {
				delete(result, m)
			}
		}
		seen = next
	}
	return result
}

func zdiff(sets []*object.SortedSet) map[string]float64 {
	result := map[string]float64{}
	if len(sets) == 0 {
		return result
	}
	for _, e := range sets[0].All() {
		result[e.Member] = e.Score
	}
	for i := 1; i < len(sets); i++ {
		for _, e := range sets[i].All() {
			delete(result, e.Member)
		}
	}
	return result
}

func sortedEntries(m map[string]float64) []object.ZSetEntry {
	z := object.NewSortedSetContainer()
	for member, score := range m {
		z.Add(member, score)
	}
	return z.All()
}

func cmdZUnionStore(ctx *server.Context, argv []string) resp.Value {
	keys, weights, agg, _, err := zsetAggArgs(argv[2:])
	if err != nil {
		return resp.ErrSyntax()
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	sets, errV := loadZSets(ctx, keys)
	if errV != nil {
		return *errV
	}
	entries := sortedEntries(zunion(sets, weights, agg))
	return storeZSetResult(ctx, argv[1], entries)
}

func cmdZInterStore(ctx *server.Context, argv []string) resp.Value {
	keys, weights, agg, _, err := zsetAggArgs(argv[2:])
	if err != nil {
		return resp.ErrSyntax()
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	sets, errV := loadZSets(ctx, keys)
	if errV != nil {
		return *errV
	}
	entries := sortedEntries(zinter(sets, weights, agg))
	return storeZSetResult(ctx, argv[1], entries)
}

func cmdZDiffStore(ctx *server.Context, argv []string) resp.Value {
	numKeys, err := strconv.Atoi(argv[2])
	if err != nil || numKeys <= 0 || 3+numKeys > len(argv)+1 {
		return resp.ErrSyntax()
	}
	keys := argv[3 : 3+numKeys]
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	sets, errV := loadZSets(ctx, keys)
	if errV != nil {
		return *errV
	}
	entries := sortedEntries(zdiff(sets))
	return storeZSetResult(ctx, argv[1], entries)
}

func storeZSetResult(ctx *server.Context, dst string, entries []object.ZSetEntry) resp.Value {
	db := ctx.DB()
	if len(entries) == 0 {
		db.Del(dst)
		notifyMutated(ctx, dst, ctx.InTx())
		return resp.Integer(0)
	}
	z := object.NewSortedSetContainer()
	for _, e := range entries {
		z.Add(e.Member, e.Score)
	}
	db.Set(dst, &object.Entry{Kind: object.KindSortedSet, ZSet: z})
	notifyMutated(ctx, dst, ctx.InTx())
	return resp.Integer(int64(len(entries)))
}

func cmdZUnion(ctx *server.Context, argv []string) resp.Value {
	keys, weights, agg, withScores, err := zsetAggArgs(argv[1:])
	if err != nil {
		return resp.ErrSyntax()
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	sets, errV := loadZSets(ctx, keys)
	if errV != nil {
		return *errV
	}
	return flattenEntries(sortedEntries(zunion(sets, weights, agg)), withScores)
}

func cmdZInter(ctx *server.Context, argv []string) resp.Value {
	keys, weights, agg, withScores, err := zsetAggArgs(argv[1:])
	if err != nil {
		return resp.ErrSyntax()
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	sets, errV := loadZSets(ctx, keys)
	if errV != nil {
		return *errV
	}
	return flattenEntries(sortedEntries(zinter(sets, weights, agg)), withScores)
}

func cmdZDiff(ctx *server.Context, argv []string) resp.Value {
	numKeys, err := strconv.Atoi(argv[1])
	if err != nil || numKeys <= 0 {
		return resp.ErrSyntax()
	}
	keys := argv[2 : 2+numKeys]
	withScores := len(argv) > 2+numKeys && strings.EqualFold(argv[2+numKeys], "WITHSCORES")
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	sets, errV := loadZSets(ctx, keys)
	if errV != nil {
		return *errV
	}
	return flattenEntries(sortedEntries(zdiff(sets)), withScores)
}

func cmdZInterCard(ctx *server.Context, argv []string) resp.Value {
	numKeys, err := strconv.Atoi(argv[1])
	if err != nil || numKeys <= 0 {
		return resp.ErrSyntax()
	}
	keys := argv[2 : 2+numKeys]
	limit := -1
	rest := argv[2+numKeys:]
	for i := 0; i < len(rest); i++ {
		if strings.EqualFold(rest[i], "LIMIT") && i+1 < len(rest) {
			i++
			limit, _ = strconv.Atoi(rest[i])
		}
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	weights := make([]float64, numKeys)
	for i := range weights {
		weights[i] = 1
	}
	sets, errV := loadZSets(ctx, keys)
	if errV != nil {
		return *errV
	}
	n := len(zinter(sets, weights, aggSum))
	if limit > 0 && n > limit {
		n = limit
	}
	return resp.Integer(int64(n))
}

func cmdBZPopMin(ctx *server.Context, argv []string) resp.Value { return bzpop(ctx, argv, false) }
func cmdBZPopMax(ctx *server.Context, argv []string) resp.Value { return bzpop(ctx, argv, true) }

func bzpop(ctx *server.Context, argv []string, reverse bool) resp.Value {
	keys := argv[1 : len(argv)-1]
	timeout, err := blockTimeout(argv[len(argv)-1])
	if err != nil {
		return resp.Error(err.Error())
	}
	db := ctx.DB()
	check := func() (any, bool) {
		db.Lock()
		defer db.Unlock()
		for _, k := range keys {
			z, ok, errT := db.GetSortedSet(k)
			if errT != nil || !ok || z.Len() == 0 {
				continue
			}
			entries := z.RangeByRank(0, 0, reverse)
			if len(entries) == 0 {
				continue
			}
			e := entries[0]
			z.Remove(e.Member)
			if z.Len() == 0 {
				db.Del(k)
			}
			notifyMutated(ctx, k, false)
			return [3]string{k, e.Member, strconv.FormatFloat(e.Score, 'f', -1, 64)}, true
		}
		return nil, false
	}
	res, err := ctx.State.Blocked.WaitFor(ctx.Client.ID, keys, ctx.InTx(), timeout, check)
	if err != nil {
		return resp.Error(err.Error())
	}
	if res == nil {
		return resp.NullArray()
	}
	triple := res.([3]string)
	return resp.Array(resp.BulkString(triple[0]), resp.BulkString(triple[1]), resp.BulkString(triple[2]))
}

func zsetEntryReply(e object.ZSetEntry, withScores bool) []resp.Value {
	if !withScores {
		return []resp.Value{resp.BulkString(e.Member)}
	}
	return []resp.Value{resp.BulkString(e.Member), resp.BulkString(strconv.FormatFloat(e.Score, 'f', -1, 64))}
}

func flattenEntries(entries []object.ZSetEntry, withScores bool) resp.Value {
	out := make([]resp.Value, 0, len(entries)*2)
	for _, e := range entries {
		out = append(out, zsetEntryReply(e, withScores)...)
	}
	return resp.ArraySlice(out)
}

func cmdZAdd(ctx *server.Context, argv []string) resp.Value {
	i := 2
	nx, xx, gt, lt, ch, incr := false, false, false, false, false, false
loop:
	for i < len(argv) {
		switch strings.ToUpper(argv[i]) {
		case "NX":
			nx = true
		case "XX":
			xx = true
		case "GT":
			gt = true
		case "LT":
			lt = true
		case "CH":
			ch = true
		case "INCR":
			incr = true
		default:
			break loop
		}
		i++
	}
	pairs := argv[i:]
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return resp.ErrSyntax()
	}
	if nx && (gt || lt) {
		return resp.ErrGeneric("GT, LT, and/or NX options at the same time are not compatible")
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	z, err := db.GetOrCreateSortedSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	added, changed := int64(0), int64(0)
	var incrResult float64
	var incrOK bool
	for p := 0; p < len(pairs); p += 2 {
		score, serr := strconv.ParseFloat(pairs[p], 64)
		if serr != nil {
			return resp.ErrNotFloat()
		}
		member := pairs[p+1]
		cur, exists := z.Score(member)
		if nx && exists {
			if incr {
				return resp.Nil()
			}
			continue
		}
		if xx && !exists {
			if incr {
				return resp.Nil()
			}
			continue
		}
		next := score
		if incr {
			next = cur + score
		}
		if exists && gt && next <= cur {
			if incr {
				return resp.Nil()
			}
			continue
		}
		if exists && lt && next >= cur {
			if incr {
				return resp.Nil()
			}
			continue
		}
		isNew := z.Add(member, next)
		if isNew {
			added++
		} else if cur != next {
			changed++
		}
		if incr {
			incrResult, incrOK = next, true
		}
	}
	if added > 0 || changed > 0 {
		notifyMutated(ctx, argv[1], ctx.InTx())
	}
	if incr {
		if !incrOK {
			return resp.Nil()
		}
		return resp.BulkString(strconv.FormatFloat(incrResult, 'f', -1, 64))
	}
	if ch {
		return resp.Integer(added + changed)
	}
	return resp.Integer(added)
}

func cmdZRem(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	z, ok, err := db.GetSortedSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	n := int64(0)
	for _, m := range argv[2:] {
		if z.Remove(m) {
			n++
		}
	}
	if z.Len() == 0 {
		db.Del(argv[1])
	}
	if n > 0 {
		notifyMutated(ctx, argv[1], ctx.InTx())
	}
	return resp.Integer(n)
}

func cmdZScore(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	z, ok, err := db.GetSortedSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Nil()
	}
	s, exists := z.Score(argv[2])
	if !exists {
		return resp.Nil()
	}
	return resp.BulkString(strconv.FormatFloat(s, 'f', -1, 64))
}

func cmdZMScore(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	z, ok, err := db.GetSortedSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	out := make([]resp.Value, len(argv)-2)
	for i, m := range argv[2:] {
		if !ok {
			out[i] = resp.Nil()
			continue
		}
		s, exists := z.Score(m)
		if !exists {
			out[i] = resp.Nil()
			continue
		}
		out[i] = resp.BulkString(strconv.FormatFloat(s, 'f', -1, 64))
	}
	return resp.ArraySlice(out)
}

func cmdZCard(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	z, ok, err := db.GetSortedSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(int64(z.Len()))
}

func cmdZIncrBy(ctx *server.Context, argv []string) resp.Value {
	delta, err := strconv.ParseFloat(argv[2], 64)
	if err != nil {
		return resp.ErrNotFloat()
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	z, errT := db.GetOrCreateSortedSet(argv[1])
	if errT != nil {
		return resp.ErrWrongType()
	}
	next := z.IncrBy(argv[3], delta)
	notifyMutated(ctx, argv[1], ctx.InTx())
	return resp.BulkString(strconv.FormatFloat(next, 'f', -1, 64))
}

func cmdZRank(ctx *server.Context, argv []string) resp.Value {
	withScore := len(argv) > 3 && strings.EqualFold(argv[3], "WITHSCORE")
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	z, ok, err := db.GetSortedSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		if withScore {
			return resp.NullArray()
		}
		return resp.Nil()
	}
	r := z.Rank(argv[2], false)
	if r < 0 {
		if withScore {
			return resp.NullArray()
		}
		return resp.Nil()
	}
	if withScore {
		s, _ := z.Score(argv[2])
		return resp.Array(resp.Integer(int64(r)), resp.BulkString(strconv.FormatFloat(s, 'f', -1, 64)))
	}
	return resp.Integer(int64(r))
}

func cmdZRevRank(ctx *server.Context, argv []string) resp.Value {
	withScore := len(argv) > 3 && strings.EqualFold(argv[3], "WITHSCORE")
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	z, ok, err := db.GetSortedSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		if withScore {
			return resp.NullArray()
		}
		return resp.Nil()
	}
	r := z.Rank(argv[2], true)
	if r < 0 {
		if withScore {
			return resp.NullArray()
		}
		return resp.Nil()
	}
	if withScore {
		s, _ := z.Score(argv[2])
		return resp.Array(resp.Integer(int64(r)), resp.BulkString(strconv.FormatFloat(s, 'f', -1, 64)))
	}
	return resp.Integer(int64(r))
}

func cmdZRange(ctx *server.Context, argv []string) resp.Value {
	start, e1 := strconv.Atoi(argv[2])
	stop, e2 := strconv.Atoi(argv[3])
	if e1 != nil || e2 != nil {
		return resp.ErrNotInt()
	}
	withScores := false
	for _, a := range argv[4:] {
		if strings.EqualFold(a, "WITHSCORES") {
			withScores = true
		}
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	z, ok, err := db.GetSortedSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Array()
	}
	return flattenEntries(z.RangeByRank(start, stop, false), withScores)
}

func cmdZRevRange(ctx *server.Context, argv []string) resp.Value {
	start, e1 := strconv.Atoi(argv[2])
	stop, e2 := strconv.Atoi(argv[3])
	if e1 != nil || e2 != nil {
		return resp.ErrNotInt()
	}
	withScores := false
	for _, a := range argv[4:] {
		if strings.EqualFold(a, "WITHSCORES") {
			withScores = true
		}
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	z, ok, err := db.GetSortedSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Array()
	}
	return flattenEntries(z.RangeByRank(start, stop, true), withScores)
}

func parseScoreBound(s string) (val float64, exclusive bool, err error) {
	if strings.HasPrefix(s, "(") {
		exclusive = true
		s = s[1:]
	}
	switch strings.ToLower(s) {
	case "-inf":
		return math.Inf(-1), exclusive, nil
	case "+inf", "inf":
		return math.Inf(1), exclusive, nil
	}
	val, err = strconv.ParseFloat(s, 64)
	return val, exclusive, err
}

func rangeByScoreArgs(argv []string) (min, max float64, minEx, maxEx bool, offset, count int, err error) {
	min, minEx, err = parseScoreBound(argv[0])
	if err != nil {
		return
	}
	max, maxEx, err = parseScoreBound(argv[1])
	if err != nil {
		return
	}
	count = -1
	for i := 2; i < len(argv); i++ {
		if strings.EqualFold(argv[i], "LIMIT") && i+2 < len(argv) {
			offset, err = strconv.Atoi(argv[i+1])
			if err != nil {
				return
			}
			count, err = strconv.Atoi(argv[i+2])
			if err != nil {
				return
			}
			i += 2
		}
	}
	return
}

func cmdZRangeByScore(ctx *server.Context, argv []string) resp.Value {
	min, max, minEx, maxEx, offset, count, err := rangeByScoreArgs(argv[2:])
	if err != nil {
		return resp.ErrNotFloat()
	}
	withScores := false
	for _, a := range argv[4:] {
		if strings.EqualFold(a, "WITHSCORES") {
			withScores = true
		}
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	z, ok, errT := db.GetSortedSet(argv[1])
	if errT != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Array()
	}
	return flattenEntries(z.RangeByScore(min, max, minEx, maxEx, offset, count), withScores)
}

func cmdZRevRangeByScore(ctx *server.Context, argv []string) resp.Value {
	max, min, maxEx, minEx, offset, count, err := rangeByScoreArgs(argv[2:])
	if err != nil {
		return resp.ErrNotFloat()
	}
	withScores := false
	for _, a := range argv[4:] {
		if strings.EqualFold(a, "WITHSCORES") {
			withScores = true
		}
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	z, ok, errT := db.GetSortedSet(argv[1])
	if errT != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Array()
	}
	entries := z.RangeByScore(min, max, minEx, maxEx, offset, count)
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return flattenEntries(entries, withScores)
}

func rangeByLexArgs(argv []string) (min, max string, offset, count int) {
	min, max = argv[0], argv[1]
	count = -1
	for i := 2; i < len(argv); i++ {
		if strings.EqualFold(argv[i], "LIMIT") && i+2 < len(argv) {
			offset, _ = strconv.Atoi(argv[i+1])
			count, _ = strconv.Atoi(argv[i+2])
			i += 2
		}
	}
	return
}

func cmdZRangeByLex(ctx *server.Context, argv []string) resp.Value {
	min, max, offset, count := rangeByLexArgs(argv[2:])
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	z, ok, err := db.GetSortedSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Array()
	}
	return flattenEntries(z.RangeByLex(min, max, offset, count), false)
}

func cmdZRevRangeByLex(ctx *server.Context, argv []string) resp.Value {
	max, min, offset, count := rangeByLexArgs(argv[2:])
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	z, ok, err := db.GetSortedSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Array()
	}
	entries := z.RangeByLex(min, max, offset, count)
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return flattenEntries(entries, false)
}

func cmdZCount(ctx *server.Context, argv []string) resp.Value {
	min, minEx, e1 := parseScoreBound(argv[2])
	max, maxEx, e2 := parseScoreBound(argv[3])
	if e1 != nil || e2 != nil {
		return resp.ErrNotFloat()
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	z, ok, err := db.GetSortedSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(int64(z.CountByScore(min, max, minEx, maxEx)))
}

func popExtreme(ctx *server.Context, argv []string, reverse bool) resp.Value {
	count := 1
	if len(argv) > 2 {
		n, err := strconv.Atoi(argv[2])
		if err != nil {
			return resp.ErrNotInt()
		}
		count = n
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	z, ok, err := db.GetSortedSet(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Array()
	}
	entries := z.RangeByRank(0, count-1, reverse)
	for _, e := range entries {
		z.Remove(e.Member)
	}
	if z.Len() == 0 {
		db.Del(argv[1])
	}
	if len(entries) > 0 {
		notifyMutated(ctx, argv[1], ctx.InTx())
	}
	return flattenEntries(entries, true)
}

func cmdZPopMin(ctx *server.Context, argv []string) resp.Value { return popExtreme(ctx, argv, false) }
func cmdZPopMax(ctx *server.Context, argv []string) resp.Value { return popExtreme(ctx, argv, true) }

// cmdZRangeStore implements ZRANGESTORE dst src min max [BYSCORE|BYLEX] [REV]
// [LIMIT offset count], the store-into-a-key variant of ZRANGE.
func cmdZRangeStore(ctx *server.Context, argv []string) resp.Value {
	dst, src := argv[1], argv[2]
	byScore, byLex, rev := false, false, false
	var limitArgs []string
	args := argv[5:]
	for i := 0; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "BYSCORE":
			byScore = true
		case "BYLEX":
			byLex = true
		case "REV":
			rev = true
		case "LIMIT":
			if i+2 < len(args) {
				limitArgs = args[i : i+3]
				i += 2
			}
		}
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	z, ok, err := db.GetSortedSet(src)
	if err != nil {
		return resp.ErrWrongType()
	}
	var entries []object.ZSetEntry
	if ok {
		switch {
		case byLex:
			min, max := argv[3], argv[4]
			offset, count := 0, -1
			if limitArgs != nil {
				offset, _ = strconv.Atoi(limitArgs[1])
				count, _ = strconv.Atoi(limitArgs[2])
			}
			if rev {
				min, max = max, min
			}
			entries = z.RangeByLex(min, max, offset, count)
			if rev {
				for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
					entries[i], entries[j] = entries[j], entries[i]
				}
			}
		case byScore:
			rangeArgs := append([]string{argv[3], argv[4]}, limitArgs...)
			min, max, minEx, maxEx, offset, count, perr := rangeByScoreArgs(rangeArgs)
			if perr != nil {
				return resp.ErrNotFloat()
			}
			if rev {
				min, max, minEx, maxEx = max, min, maxEx, minEx
			}
			entries = z.RangeByScore(min, max, minEx, maxEx, offset, count)
			if rev {
				for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
					entries[i], entries[j] = entries[j], entries[i]
				}
			}
		default:
			start, e1 := strconv.Atoi(argv[3])
			stop, e2 := strconv.Atoi(argv[4])
			if e1 != nil || e2 != nil {
				return resp.ErrNotInt()
			}
			entries = z.RangeByRank(start, stop, rev)
		}
	}
	return storeZSetResult(ctx, dst, entries)
}

// cmdZMPop implements ZMPOP numkeys key [key ...] MIN|MAX [COUNT count],
// popping from the first key among the listed ones that is non-empty.
func cmdZMPop(ctx *server.Context, argv []string) resp.Value {
	numKeys, err := strconv.Atoi(argv[1])
	if err != nil || numKeys <= 0 || 2+numKeys > len(argv) {
		return resp.ErrSyntax()
	}
	keys := argv[2 : 2+numKeys]
	rest := argv[2+numKeys:]
	if len(rest) == 0 {
		return resp.ErrSyntax()
	}
	reverse := strings.EqualFold(rest[0], "MAX")
	count := 1
	if len(rest) >= 3 && strings.EqualFold(rest[1], "COUNT") {
		n, perr := strconv.Atoi(rest[2])
		if perr != nil {
			return resp.ErrNotInt()
		}
		count = n
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	for _, k := range keys {
		z, ok, errT := db.GetSortedSet(k)
		if errT != nil {
			return resp.ErrWrongType()
		}
		if !ok || z.Len() == 0 {
			continue
		}
		entries := z.RangeByRank(0, count-1, reverse)
		for _, e := range entries {
			z.Remove(e.Member)
		}
		if z.Len() == 0 {
			db.Del(k)
		}
		notifyMutated(ctx, k, ctx.InTx())
		out := make([]resp.Value, len(entries))
		for i, e := range entries {
			out[i] = resp.Array(resp.BulkString(e.Member), resp.BulkString(strconv.FormatFloat(e.Score, 'f', -1, 64)))
		}
		return resp.Array(resp.BulkString(k), resp.ArraySlice(out))
	}
	return resp.NullArray()
}

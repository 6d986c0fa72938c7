/*
file: valkeygo/internal/commands/hash.go

Hash-family commands (spec.md §6), grounded on the teacher's
internal/handlers/handler_hash.go, rebuilt against object.Hash including
the per-field TTL extensions (HEXPIRE/HPERSIST/HTTL) spec.md §4.3 adds atop
the teacher's plain map.
*/
package commands

import (
	"math/rand"
	"path"
	"strconv"
	"strings"

	"github.com/netanelrevah/valkeygo/internal/resp"
	"github.com/netanelrevah/valkeygo/internal/server"
)

func hashCommands() []*Cmd {
	return []*Cmd{
		{Name: "HSET", Arity: -4, Flags: []string{write, denyoom, fast}, Handler: cmdHSet},
		{Name: "HMSET", Arity: -4, Flags: []string{write, denyoom, fast}, Handler: cmdHMSet},
		{Name: "HSETNX", Arity: 4, Flags: []string{write, denyoom, fast}, Handler: cmdHSetNX},
		{Name: "HGET", Arity: 3, Flags: []string{readonly, fast}, Handler: cmdHGet},
		{Name: "HMGET", Arity: -3, Flags: []string{readonly, fast}, Handler: cmdHMGet},
		{Name: "HDEL", Arity: -3, Flags: []string{write, fast}, Handler: cmdHDel},
		{Name: "HGETALL", Arity: 2, Flags: []string{readonly}, Handler: cmdHGetAll},
		{Name: "HKEYS", Arity: 2, Flags: []string{readonly}, Handler: cmdHKeys},
		{Name: "HVALS", Arity: 2, Flags: []string{readonly}, Handler: cmdHVals},
		{Name: "HEXISTS", Arity: 3, Flags: []string{readonly, fast}, Handler: cmdHExists},
		{Name: "HLEN", Arity: 2, Flags: []string{readonly, fast}, Handler: cmdHLen},
		{Name: "HSTRLEN", Arity: 3, Flags: []string{readonly, fast}, Handler: cmdHStrlen},
		{Name: "HINCRBY", Arity: 4, Flags: []string{write, fast}, Handler: cmdHIncrBy},
		{Name: "HINCRBYFLOAT", Arity: 4, Flags: []string{write, fast}, Handler: cmdHIncrByFloat},
		{Name: "HEXPIRE", Arity: -6, Flags: []string{write, fast}, Handler: cmdHExpire},
		{Name: "HPERSIST", Arity: -5, Flags: []string{write, fast}, Handler: cmdHPersist},
		{Name: "HTTL", Arity: -5, Flags: []string{readonly, fast}, Handler: cmdHTTL},
		{Name: "HRANDFIELD", Arity: -2, Flags: []string{readonly}, Handler: cmdHRandField},
		{Name: "HSCAN", Arity: -3, Flags: []string{readonly}, Handler: cmdHScan},
	}
}

func cmdHSet(ctx *server.Context, argv []string) resp.Value {
	if (len(argv)-2)%2 != 0 {
		return resp.ErrWrongArgCount("hset")
	}
	db := ctx.DB()
	db.Lock()
	h, err := db.GetOrCreateHash(argv[1])
	if err != nil {
		db.Unlock()
		return resp.ErrWrongType()
	}
	created := int64(0)
	for i := 2; i < len(argv); i += 2 {
		if h.Set(argv[i], []byte(argv[i+1])) {
			created++
		}
	}
	db.Unlock()
	notifyMutated(ctx, argv[1], ctx.InTx())
	return resp.Integer(created)
}

func cmdHMSet(ctx *server.Context, argv []string) resp.Value {
	v := cmdHSet(ctx, argv)
	if v.IsError() {
		return v
	}
	return resp.OK()
}

func cmdHSetNX(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	h, err := db.GetOrCreateHash(argv[1])
	if err != nil {
		db.Unlock()
		return resp.ErrWrongType()
	}
	if _, exists := h.Get(argv[2]); exists {
		db.Unlock()
		return resp.Integer(0)
	}
	h.Set(argv[2], []byte(argv[3]))
	db.Unlock()
	notifyMutated(ctx, argv[1], ctx.InTx())
	return resp.Integer(1)
}

func cmdHGet(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	h, ok, err := db.GetHash(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Nil()
	}
	v, exists := h.Get(argv[2])
	if !exists {
		return resp.Nil()
	}
	return resp.BulkString(string(v))
}

func cmdHMGet(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	h, ok, err := db.GetHash(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	out := make([]resp.Value, len(argv)-2)
	for i, f := range argv[2:] {
		if !ok {
			out[i] = resp.Nil()
			continue
		}
		v, exists := h.Get(f)
		if !exists {
			out[i] = resp.Nil()
			continue
		}
		out[i] = resp.BulkString(string(v))
	}
	return resp.ArraySlice(out)
}

func cmdHDel(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	h, ok, err := db.GetHash(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	n := int64(0)
	for _, f := range argv[2:] {
		if h.Del(f) {
			n++
		}
	}
	if h.Len() == 0 {
		db.Del(argv[1])
	}
	if n > 0 {
		notifyMutated(ctx, argv[1], ctx.InTx())
	}
	return resp.Integer(n)
}

func cmdHGetAll(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	h, ok, err := db.GetHash(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Array()
	}
	all := h.All()
	out := make([]resp.Value, 0, len(all)*2)
	for f, v := range all {
		out = append(out, resp.BulkString(f), resp.BulkString(string(v)))
	}
	return resp.ArraySlice(out)
}

func cmdHKeys(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	h, ok, err := db.GetHash(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Array()
	}
	return resp.BulkStrings(h.Fields())
}

func cmdHVals(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	h, ok, err := db.GetHash(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Array()
	}
	all := h.All()
	out := make([]resp.Value, 0, len(all))
	for _, v := range all {
		out = append(out, resp.BulkString(string(v)))
	}
	return resp.ArraySlice(out)
}

func cmdHExists(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	h, ok, err := db.GetHash(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	if _, exists := h.Get(argv[2]); exists {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdHLen(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	h, ok, err := db.GetHash(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(int64(h.Len()))
}

func cmdHStrlen(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	h, ok, err := db.GetHash(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Integer(0)
	}
	v, exists := h.Get(argv[2])
	if !exists {
		return resp.Integer(0)
	}
	return resp.Integer(int64(len(v)))
}

func cmdHIncrBy(ctx *server.Context, argv []string) resp.Value {
	delta, err := strconv.ParseInt(argv[3], 10, 64)
	if err != nil {
		return resp.ErrNotInt()
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	h, errT := db.GetOrCreateHash(argv[1])
	if errT != nil {
		return resp.ErrWrongType()
	}
	cur := int64(0)
	if v, exists := h.Get(argv[2]); exists {
		cur, err = strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return resp.ErrNotInt()
		}
	}
	next := cur + delta
	h.Set(argv[2], []byte(strconv.FormatInt(next, 10)))
	notifyMutated(ctx, argv[1], ctx.InTx())
	return resp.Integer(next)
}

func cmdHIncrByFloat(ctx *server.Context, argv []string) resp.Value {
	delta, err := strconv.ParseFloat(argv[3], 64)
	if err != nil {
		return resp.ErrNotFloat()
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	h, errT := db.GetOrCreateHash(argv[1])
	if errT != nil {
		return resp.ErrWrongType()
	}
	cur := 0.0
	if v, exists := h.Get(argv[2]); exists {
		cur, err = strconv.ParseFloat(string(v), 64)
		if err != nil {
			return resp.ErrNotFloat()
		}
	}
	next := cur + delta
	repr := strconv.FormatFloat(next, 'f', -1, 64)
	h.Set(argv[2], []byte(repr))
	notifyMutated(ctx, argv[1], ctx.InTx())
	return resp.BulkString(repr)
}

// cmdHExpire implements HEXPIRE key seconds FIELDS numfields field [field...],
// spec.md §4.3's per-field TTL supplement.
func cmdHExpire(ctx *server.Context, argv []string) resp.Value {
	secs, err := strconv.ParseInt(argv[2], 10, 64)
	if err != nil {
		return resp.ErrNotInt()
	}
	fields, errV := parseFieldsClause(argv[3:])
	if errV != nil {
		return *errV
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	h, ok, errT := db.GetHash(argv[1])
	if errT != nil {
		return resp.ErrWrongType()
	}
	out := make([]resp.Value, len(fields))
	if !ok {
		for i := range out {
			out[i] = resp.Integer(-2)
		}
		return resp.ArraySlice(out)
	}
	for i, f := range fields {
		if _, exists := h.Get(f); !exists {
			out[i] = resp.Integer(-2)
			continue
		}
		h.SetFieldExpiry(f, uint64(nowMs()+secs*1000))
		out[i] = resp.Integer(1)
	}
	notifyMutated(ctx, argv[1], ctx.InTx())
	return resp.ArraySlice(out)
}

func cmdHPersist(ctx *server.Context, argv []string) resp.Value {
	fields, errV := parseFieldsClause(argv[2:])
	if errV != nil {
		return *errV
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	h, ok, errT := db.GetHash(argv[1])
	if errT != nil {
		return resp.ErrWrongType()
	}
	out := make([]resp.Value, len(fields))
	for i, f := range fields {
		if !ok {
			out[i] = resp.Integer(-2)
			continue
		}
		if _, exists := h.Get(f); !exists {
			out[i] = resp.Integer(-2)
			continue
		}
		if _, hasTTL := h.FieldExpiry(f); !hasTTL {
			out[i] = resp.Integer(-1)
			continue
		}
		h.SetFieldExpiry(f, 0)
		out[i] = resp.Integer(1)
	}
	return resp.ArraySlice(out)
}

func cmdHTTL(ctx *server.Context, argv []string) resp.Value {
	fields, errV := parseFieldsClause(argv[2:])
	if errV != nil {
		return *errV
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	h, ok, errT := db.GetHash(argv[1])
	if errT != nil {
		return resp.ErrWrongType()
	}
	out := make([]resp.Value, len(fields))
	for i, f := range fields {
		if !ok {
			out[i] = resp.Integer(-2)
			continue
		}
		if _, exists := h.Get(f); !exists {
			out[i] = resp.Integer(-2)
			continue
		}
		atMs, hasTTL := h.FieldExpiry(f)
		if !hasTTL {
			out[i] = resp.Integer(-1)
			continue
		}
		remaining := (int64(atMs) - nowMs() + 999) / 1000
		if remaining < 0 {
			remaining = 0
		}
		out[i] = resp.Integer(remaining)
	}
	return resp.ArraySlice(out)
}

// parseFieldsClause parses the trailing "FIELDS numfields f1 f2..." clause
// shared by HEXPIRE/HPERSIST/HTTL.
func parseFieldsClause(argv []string) ([]string, *resp.Value) {
	if len(argv) < 2 {
		v := resp.ErrSyntax()
		return nil, &v
	}
	if !strings.EqualFold(argv[0], "FIELDS") {
		v := resp.ErrSyntax()
		return nil, &v
	}
	n, err := strconv.Atoi(argv[1])
	if err != nil || n <= 0 {
		v := resp.ErrGeneric("numfields must be a positive integer")
		return nil, &v
	}
	if len(argv)-2 != n {
		v := resp.ErrGeneric("The `numfields` parameter must match the number of arguments")
		return nil, &v
	}
	return argv[2:], nil
}

// cmdHRandField mirrors SRANDMEMBER's count conventions (set.go's
// cmdSRandMember): no count returns one random field name, a non-negative
// count returns up to that many distinct fields, a negative count allows
// repeats for exactly -count picks, and WITHVALUES interleaves field/value
// pairs in the array reply.
func cmdHRandField(ctx *server.Context, argv []string) resp.Value {
	hasCount := len(argv) > 2
	count := 1
	withValues := false
	if hasCount {
		n, err := strconv.Atoi(argv[2])
		if err != nil {
			return resp.ErrNotInt()
		}
		count = n
		if len(argv) > 3 {
			if !strings.EqualFold(argv[3], "WITHVALUES") {
				return resp.ErrSyntax()
			}
			withValues = true
		}
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	h, ok, err := db.GetHash(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		if hasCount {
			return resp.Array()
		}
		return resp.Nil()
	}
	fields := h.Fields()
	if !hasCount {
		if len(fields) == 0 {
			return resp.Nil()
		}
		return resp.BulkString(fields[rand.Intn(len(fields))])
	}

	var picked []string
	if count >= 0 {
		rand.Shuffle(len(fields), func(i, j int) { fields[i], fields[j] = fields[j], fields[i] })
		if count > len(fields) {
			count = len(fields)
		}
		picked = fields[:count]
	} else {
		n := -count
		picked = make([]string, n)
		for i := range picked {
			picked[i] = fields[rand.Intn(len(fields))]
		}
	}

	if !withValues {
		return resp.BulkStrings(picked)
	}
	out := make([]resp.Value, 0, len(picked)*2)
	for _, f := range picked {
		v, _ := h.Get(f)
		out = append(out, resp.BulkString(f), resp.BulkString(string(v)))
	}
	return resp.ArraySlice(out)
}

// cmdHScan mirrors SCAN's single-pass cursor convention (generic.go's
// cmdScan): cursor is ignored, the whole hash is matched in one call and the
// reply cursor is always "0". NOVALUES makes it behave like HKEYS filtered
// by MATCH, the way HSCAN NOVALUES is documented to.
func cmdHScan(ctx *server.Context, argv []string) resp.Value {
	pattern := "*"
	noValues := false
	for i := 3; i < len(argv); i++ {
		switch strings.ToUpper(argv[i]) {
		case "MATCH":
			if i+1 < len(argv) {
				pattern = argv[i+1]
				i++
			}
		case "COUNT":
			if i+1 < len(argv) {
				i++
			}
		case "NOVALUES":
			noValues = true
		}
	}
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	h, ok, err := db.GetHash(argv[1])
	if err != nil {
		return resp.ErrWrongType()
	}
	if !ok {
		return resp.Array(resp.BulkString("0"), resp.Array())
	}
	all := h.All()
	var out []resp.Value
	for f, v := range all {
		if ok, _ := path.Match(pattern, f); !ok {
			continue
		}
		out = append(out, resp.BulkString(f))
		if !noValues {
			out = append(out, resp.BulkString(string(v)))
		}
	}
	return resp.Array(resp.BulkString("0"), resp.ArraySlice(out))
}

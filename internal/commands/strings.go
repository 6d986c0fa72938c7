/*
file: valkeygo/internal/commands/strings.go

String-family commands (spec.md §6). Grounded on the teacher's
internal/handlers/handler_string.go (Get/Set/Incr/Decr/MGet/MSet), rebuilt
against object.Entry/store.Database's typed accessors and internal/params's
declarative schema for SET's many optional modifiers.
*/
package commands

import (
	"strconv"
	"strings"

	"github.com/netanelrevah/valkeygo/internal/acl"
	"github.com/netanelrevah/valkeygo/internal/object"
	"github.com/netanelrevah/valkeygo/internal/params"
	"github.com/netanelrevah/valkeygo/internal/resp"
	"github.com/netanelrevah/valkeygo/internal/server"
)

func stringCommands() []*Cmd {
	return []*Cmd{
		{Name: "GET", Arity: 2, Flags: []string{readonly, fast}, Handler: cmdGet},
		{Name: "SET", Arity: -3, Flags: []string{write, denyoom}, Handler: cmdSet},
		{Name: "GETSET", Arity: 3, Flags: []string{write, denyoom}, Handler: cmdGetSet},
		{Name: "GETDEL", Arity: 2, Flags: []string{write, fast}, Handler: cmdGetDel},
		{Name: "GETEX", Arity: -2, Flags: []string{write, fast}, Handler: cmdGetEx},
		{Name: "APPEND", Arity: 3, Flags: []string{write, denyoom}, Handler: cmdAppend},
		{Name: "STRLEN", Arity: 2, Flags: []string{readonly, fast}, Handler: cmdStrlen},
		{Name: "GETRANGE", Arity: 4, Flags: []string{readonly}, Handler: cmdGetRange},
		{Name: "SETRANGE", Arity: 4, Flags: []string{write, denyoom}, Handler: cmdSetRange},
		{Name: "MGET", Arity: -2, Flags: []string{readonly, fast}, Handler: cmdMGet},
		{Name: "MSET", Arity: -3, Flags: []string{write, denyoom}, Handler: cmdMSet},
		{Name: "MSETNX", Arity: -3, Flags: []string{write, denyoom}, Handler: cmdMSetNX},
		{Name: "INCR", Arity: 2, Flags: []string{write, fast}, Handler: cmdIncr},
		{Name: "DECR", Arity: 2, Flags: []string{write, fast}, Handler: cmdDecr},
		{Name: "INCRBY", Arity: 3, Flags: []string{write, fast}, Handler: cmdIncrBy},
		{Name: "DECRBY", Arity: 3, Flags: []string{write, fast}, Handler: cmdDecrBy},
		{Name: "INCRBYFLOAT", Arity: 3, Flags: []string{write, fast}, Handler: cmdIncrByFloat},
		{Name: "SETBIT", Arity: 4, Flags: []string{write, denyoom}, Handler: cmdSetBit},
		{Name: "GETBIT", Arity: 3, Flags: []string{readonly, fast}, Handler: cmdGetBit},
		{Name: "BITCOUNT", Arity: -2, Flags: []string{readonly}, Handler: cmdBitCount},
		{Name: "BITOP", Arity: -4, Flags: []string{write, denyoom}, Handler: cmdBitOp},
		{Name: "LCS", Arity: -3, Flags: []string{readonly}, Handler: cmdLCS},
	}
}

func cmdSetBit(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	if e := checkPerm(ctx, "SETBIT", []string{write, "bitmap"}, []string{key}, acl.KeyModeWrite); e != nil {
		return *e
	}
	offset, err := strconv.ParseInt(argv[2], 10, 64)
	if err != nil || offset < 0 {
		return resp.ErrGeneric("bit offset is not an integer or out of range")
	}
	bit, err := strconv.Atoi(argv[3])
	if err != nil || (bit != 0 && bit != 1) {
		return resp.ErrGeneric("bit is not an integer or out of range")
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	b, _, errV := strEntry(ctx, key)
	if errV != nil {
		return *errV
	}
	byteIdx := int(offset / 8)
	bitIdx := uint(7 - offset%8)
	if byteIdx >= len(b) {
		grown := make([]byte, byteIdx+1)
		copy(grown, b)
		b = grown
	}
	old := (b[byteIdx] >> bitIdx) & 1
	if bit == 1 {
		b[byteIdx] |= 1 << bitIdx
	} else {
		b[byteIdx] &^= 1 << bitIdx
	}
	db.Set(key, object.NewString(b))
	notifyMutated(ctx, key, ctx.InTx())
	return resp.Integer(int64(old))
}

func cmdGetBit(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	if e := checkPerm(ctx, "GETBIT", []string{readonly, "bitmap"}, []string{key}, acl.KeyModeRead); e != nil {
		return *e
	}
	offset, err := strconv.ParseInt(argv[2], 10, 64)
	if err != nil || offset < 0 {
		return resp.ErrGeneric("bit offset is not an integer or out of range")
	}
	db := ctx.DB()
	db.RLock()
	b, _, errV := strEntry(ctx, key)
	db.RUnlock()
	if errV != nil {
		return *errV
	}
	byteIdx := int(offset / 8)
	if byteIdx >= len(b) {
		return resp.Integer(0)
	}
	bitIdx := uint(7 - offset%8)
	return resp.Integer(int64((b[byteIdx] >> bitIdx) & 1))
}

func popcountBytes(b []byte) int64 {
	var n int64
	for _, c := range b {
		for c != 0 {
			n += int64(c & 1)
			c >>= 1
		}
	}
	return n
}

// cmdBitCount implements BITCOUNT key [start end [BYTE|BIT]], clamping
// out-of-range BIT-mode bounds instead of erroring.
func cmdBitCount(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	if e := checkPerm(ctx, "BITCOUNT", []string{readonly, "bitmap"}, []string{key}, acl.KeyModeRead); e != nil {
		return *e
	}
	db := ctx.DB()
	db.RLock()
	b, _, errV := strEntry(ctx, key)
	db.RUnlock()
	if errV != nil {
		return *errV
	}
	if len(argv) == 2 {
		return resp.Integer(popcountBytes(b))
	}
	if len(argv) != 4 && len(argv) != 5 {
		return resp.ErrSyntax()
	}
	start, err1 := strconv.Atoi(argv[2])
	stop, err2 := strconv.Atoi(argv[3])
	if err1 != nil || err2 != nil {
		return resp.ErrNotInt()
	}
	bitMode := len(argv) == 5 && strings.EqualFold(argv[4], "BIT")
	if len(argv) == 5 && !bitMode && !strings.EqualFold(argv[4], "BYTE") {
		return resp.ErrSyntax()
	}
	if bitMode {
		totalBits := len(b) * 8
		s, e := clampRange(totalBits, start, stop)
		if s > e || totalBits == 0 {
			return resp.Integer(0)
		}
		var n int64
		for i := s; i <= e; i++ {
			byteIdx, bitIdx := i/8, uint(7-i%8)
			if (b[byteIdx]>>bitIdx)&1 == 1 {
				n++
			}
		}
		return resp.Integer(n)
	}
	s, e := clampRange(len(b), start, stop)
	if s > e {
		return resp.Integer(0)
	}
	return resp.Integer(popcountBytes(b[s : e+1]))
}

func cmdBitOp(ctx *server.Context, argv []string) resp.Value {
	op := strings.ToUpper(argv[1])
	dest := argv[2]
	srcKeys := argv[3:]
	if op == "NOT" && len(srcKeys) != 1 {
		return resp.ErrGeneric("BITOP NOT must be called with a single source key.")
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	srcs := make([][]byte, len(srcKeys))
	maxLen := 0
	for i, k := range srcKeys {
		b, _, err := db.GetStringBytes(k)
		if err != nil {
			return resp.ErrWrongType()
		}
		srcs[i] = b
		if len(b) > maxLen {
			maxLen = len(b)
		}
	}
	out := make([]byte, maxLen)
	switch op {
	case "AND":
		for i := range out {
			out[i] = 0xFF
			for _, s := range srcs {
				var c byte
				if i < len(s) {
					c = s[i]
				}
				out[i] &= c
			}
		}
	case "OR":
		for i := range out {
			for _, s := range srcs {
				if i < len(s) {
					out[i] |= s[i]
				}
			}
		}
	case "XOR":
		for i := range out {
			for _, s := range srcs {
				if i < len(s) {
					out[i] ^= s[i]
				}
			}
		}
	case "NOT":
		for i := range out {
			var c byte
			if i < len(srcs[0]) {
				c = srcs[0][i]
			}
			out[i] = ^c
		}
	default:
		return resp.ErrSyntax()
	}
	if maxLen == 0 {
		db.Del(dest)
		return resp.Integer(0)
	}
	db.Set(dest, object.NewString(out))
	notifyMutated(ctx, dest, ctx.InTx())
	return resp.Integer(int64(len(out)))
}

// cmdLCS implements the LCS command's LEN/IDX reply variants via the
// classic dynamic-programming longest-common-subsequence table.
func cmdLCS(ctx *server.Context, argv []string) resp.Value {
	k1, k2 := argv[1], argv[2]
	wantLen, wantIdx, withMatchLen, minMatchLen := false, false, false, 0
	for i := 3; i < len(argv); i++ {
		switch strings.ToUpper(argv[i]) {
		case "LEN":
			wantLen = true
		case "IDX":
			wantIdx = true
		case "WITHMATCHLEN":
			withMatchLen = true
		case "MINMATCHLEN":
			i++
			if i >= len(argv) {
				return resp.ErrSyntax()
			}
			n, err := strconv.Atoi(argv[i])
			if err != nil {
				return resp.ErrNotInt()
			}
			minMatchLen = n
		default:
			return resp.ErrSyntax()
		}
	}
	db := ctx.DB()
	db.RLock()
	a, _, errA := strEntry(ctx, k1)
	b, _, errB := strEntry(ctx, k2)
	db.RUnlock()
	if errA != nil {
		return *errA
	}
	if errB != nil {
		return *errB
	}

	n, m := len(a), len(b)
	dp := make([][]int32, n+1)
	for i := range dp {
		dp[i] = make([]int32, m+1)
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	if wantLen && !wantIdx {
		return resp.Integer(int64(dp[n][m]))
	}

	type match struct{ aStart, aEnd, bStart, bEnd int }
	var matches []match
	lcs := make([]byte, 0, dp[n][m])
	i, j := n, m
	runEnd := -1
	for i > 0 && j > 0 {
		switch {
		case a[i-1] == b[j-1]:
			lcs = append(lcs, a[i-1])
			if runEnd == -1 {
				runEnd = i - 1
			}
			i--
			j--
			if i == 0 || j == 0 || a[i-1] != b[j-1] || dp[i][j] != dp[i+1][j+1]-1 {
				runLen := runEnd - i + 1
				if runLen >= minMatchLen {
					matches = append(matches, match{i, runEnd, j, j + runLen - 1})
				}
				runEnd = -1
			}
		case dp[i-1][j] >= dp[i][j-1]:
			i--
		default:
			j--
		}
	}
	for l, r := 0, len(lcs)-1; l < r; l, r = l+1, r-1 {
		lcs[l], lcs[r] = lcs[r], lcs[l]
	}

	if wantIdx {
		out := make([]resp.Value, 0, len(matches)*2)
		for _, mt := range matches {
			pair := []resp.Value{
				resp.Array(resp.Integer(int64(mt.aStart)), resp.Integer(int64(mt.aEnd))),
				resp.Array(resp.Integer(int64(mt.bStart)), resp.Integer(int64(mt.bEnd))),
			}
			if withMatchLen {
				pair = append(pair, resp.Integer(int64(mt.aEnd-mt.aStart+1)))
			}
			out = append(out, resp.Array(pair...))
		}
		result := []resp.Value{
			resp.BulkString("matches"), resp.ArraySlice(out),
			resp.BulkString("len"), resp.Integer(int64(dp[n][m])),
		}
		return resp.Array(result...)
	}
	return resp.BulkString(string(lcs))
}

func strEntry(ctx *server.Context, key string) ([]byte, bool, *resp.Value) {
	b, ok, err := ctx.DB().GetStringBytes(key)
	if err != nil {
		v := resp.ErrWrongType()
		return nil, false, &v
	}
	return b, ok, nil
}

func cmdGet(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	if e := checkPerm(ctx, "GET", []string{readonly, "string"}, []string{key}, acl.KeyModeRead); e != nil {
		return *e
	}
	db := ctx.DB()
	db.RLock()
	b, ok, errV := strEntry(ctx, key)
	db.RUnlock()
	if errV != nil {
		return *errV
	}
	if !ok {
		return resp.Nil()
	}
	return resp.BulkString(string(b))
}

var setSchema = params.Schema{
	{Name: "ex", Kind: params.Keyword, Token: "EX", Type: params.TInt64},
	{Name: "px", Kind: params.Keyword, Token: "PX", Type: params.TInt64},
	{Name: "exat", Kind: params.Keyword, Token: "EXAT", Type: params.TInt64},
	{Name: "pxat", Kind: params.Keyword, Token: "PXAT", Type: params.TInt64},
	{Name: "nx", Kind: params.Flag, Token: "NX"},
	{Name: "xx", Kind: params.Flag, Token: "XX"},
	{Name: "get", Kind: params.Flag, Token: "GET"},
	{Name: "keepttl", Kind: params.Flag, Token: "KEEPTTL"},
}

func cmdSet(ctx *server.Context, argv []string) resp.Value {
	key, value := argv[1], argv[2]
	if e := checkPerm(ctx, "SET", []string{write, "string"}, []string{key}, acl.KeyModeWrite); e != nil {
		return *e
	}
	p, err := params.Parse(argv[3:], setSchema)
	if err != nil {
		return errToValue(err)
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()

	existing, exists, errV := strEntry(ctx, key)

	if p.Bool("nx") && exists {
		if p.Bool("get") {
			return getReplyOrNil(existing, errV)
		}
		return resp.Nil()
	}
	if p.Bool("xx") && !exists {
		if p.Bool("get") {
			return resp.Nil()
		}
		return resp.Nil()
	}

	var prevReply resp.Value
	hasPrev := p.Bool("get")
	if hasPrev {
		if errV != nil {
			return *errV
		}
		prevReply = getReplyOrNil(existing, nil)
	}

	entry := object.NewString([]byte(value))
	if p.Bool("keepttl") && exists {
		if old, ok := db.Peek(key); ok {
			entry.ExpireAtMs = old.ExpireAtMs
		}
	}
	switch {
	case p.Has("ex"):
		entry.ExpireAtMs = uint64(nowMs() + p.Int64("ex")*1000)
	case p.Has("px"):
		entry.ExpireAtMs = uint64(nowMs() + p.Int64("px"))
	case p.Has("exat"):
		entry.ExpireAtMs = uint64(p.Int64("exat") * 1000)
	case p.Has("pxat"):
		entry.ExpireAtMs = uint64(p.Int64("pxat"))
	}
	db.Set(key, entry)
	ctx.State.Blocked.Notify(key, ctx.InTx())

	if hasPrev {
		return prevReply
	}
	return resp.OK()
}

func getReplyOrNil(b []byte, errV *resp.Value) resp.Value {
	if errV != nil {
		return *errV
	}
	if b == nil {
		return resp.Nil()
	}
	return resp.BulkString(string(b))
}

func cmdGetSet(ctx *server.Context, argv []string) resp.Value {
	key, value := argv[1], argv[2]
	if e := checkPerm(ctx, "GETSET", []string{write, "string"}, []string{key}, acl.KeyModeWrite); e != nil {
		return *e
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	old, _, errV := strEntry(ctx, key)
	if errV != nil {
		return *errV
	}
	db.Set(key, object.NewString([]byte(value)))
	notifyMutated(ctx, key, ctx.InTx())
	if old == nil {
		return resp.Nil()
	}
	return resp.BulkString(string(old))
}

func cmdGetDel(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	if e := checkPerm(ctx, "GETDEL", []string{write, "string"}, []string{key}, acl.KeyModeWrite); e != nil {
		return *e
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	b, _, errV := strEntry(ctx, key)
	if errV != nil {
		return *errV
	}
	if b == nil {
		return resp.Nil()
	}
	db.Del(key)
	return resp.BulkString(string(b))
}

var getExSchema = params.Schema{
	{Name: "ex", Kind: params.Keyword, Token: "EX", Type: params.TInt64},
	{Name: "px", Kind: params.Keyword, Token: "PX", Type: params.TInt64},
	{Name: "exat", Kind: params.Keyword, Token: "EXAT", Type: params.TInt64},
	{Name: "pxat", Kind: params.Keyword, Token: "PXAT", Type: params.TInt64},
	{Name: "persist", Kind: params.Flag, Token: "PERSIST"},
}

func cmdGetEx(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	if e := checkPerm(ctx, "GETEX", []string{write, "string"}, []string{key}, acl.KeyModeWrite); e != nil {
		return *e
	}
	p, err := params.Parse(argv[2:], getExSchema)
	if err != nil {
		return errToValue(err)
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	b, ok, errV := strEntry(ctx, key)
	if errV != nil {
		return *errV
	}
	if !ok {
		return resp.Nil()
	}
	switch {
	case p.Bool("persist"):
		db.SetExpireAtMs(key, 0)
	case p.Has("ex"):
		db.SetExpireAtMs(key, uint64(nowMs()+p.Int64("ex")*1000))
	case p.Has("px"):
		db.SetExpireAtMs(key, uint64(nowMs()+p.Int64("px")))
	case p.Has("exat"):
		db.SetExpireAtMs(key, uint64(p.Int64("exat")*1000))
	case p.Has("pxat"):
		db.SetExpireAtMs(key, uint64(p.Int64("pxat")))
	}
	return resp.BulkString(string(b))
}

func cmdAppend(ctx *server.Context, argv []string) resp.Value {
	key, suffix := argv[1], argv[2]
	if e := checkPerm(ctx, "APPEND", []string{write, "string"}, []string{key}, acl.KeyModeWrite); e != nil {
		return *e
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	b, _, errV := strEntry(ctx, key)
	if errV != nil {
		return *errV
	}
	newVal := append(append([]byte(nil), b...), suffix...)
	db.Set(key, object.NewString(newVal))
	notifyMutated(ctx, key, ctx.InTx())
	return resp.Integer(int64(len(newVal)))
}

func cmdStrlen(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	if e := checkPerm(ctx, "STRLEN", []string{readonly, "string"}, []string{key}, acl.KeyModeRead); e != nil {
		return *e
	}
	db := ctx.DB()
	db.RLock()
	b, _, errV := strEntry(ctx, key)
	db.RUnlock()
	if errV != nil {
		return *errV
	}
	return resp.Integer(int64(len(b)))
}

func clampRange(n, start, stop int) (int, int) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	return start, stop
}

func cmdGetRange(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	if e := checkPerm(ctx, "GETRANGE", []string{readonly, "string"}, []string{key}, acl.KeyModeRead); e != nil {
		return *e
	}
	start, err1 := strconv.Atoi(argv[2])
	stop, err2 := strconv.Atoi(argv[3])
	if err1 != nil || err2 != nil {
		return resp.ErrNotInt()
	}
	db := ctx.DB()
	db.RLock()
	b, _, errV := strEntry(ctx, key)
	db.RUnlock()
	if errV != nil {
		return *errV
	}
	if len(b) == 0 {
		return resp.BulkString("")
	}
	s, e := clampRange(len(b), start, stop)
	if s > e {
		return resp.BulkString("")
	}
	return resp.BulkString(string(b[s : e+1]))
}

func cmdSetRange(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	if e := checkPerm(ctx, "SETRANGE", []string{write, "string"}, []string{key}, acl.KeyModeWrite); e != nil {
		return *e
	}
	offset, err := strconv.Atoi(argv[2])
	if err != nil || offset < 0 {
		return resp.ErrNotInt()
	}
	patch := []byte(argv[3])
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	b, _, errV := strEntry(ctx, key)
	if errV != nil {
		return *errV
	}
	needed := offset + len(patch)
	if needed > len(b) {
		grown := make([]byte, needed)
		copy(grown, b)
		b = grown
	}
	copy(b[offset:], patch)
	db.Set(key, object.NewString(b))
	notifyMutated(ctx, key, ctx.InTx())
	return resp.Integer(int64(len(b)))
}

func cmdMGet(ctx *server.Context, argv []string) resp.Value {
	keys := argv[1:]
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	out := make([]resp.Value, len(keys))
	for i, k := range keys {
		b, _, err := ctx.DB().GetStringBytes(k)
		if err != nil || b == nil {
			out[i] = resp.Nil()
			continue
		}
		out[i] = resp.BulkString(string(b))
	}
	return resp.ArraySlice(out)
}

func cmdMSet(ctx *server.Context, argv []string) resp.Value {
	pairs := argv[1:]
	if len(pairs)%2 != 0 {
		return resp.ErrWrongArgCount("mset")
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	for i := 0; i < len(pairs); i += 2 {
		db.Set(pairs[i], object.NewString([]byte(pairs[i+1])))
		notifyMutated(ctx, pairs[i], ctx.InTx())
	}
	return resp.OK()
}

func cmdMSetNX(ctx *server.Context, argv []string) resp.Value {
	pairs := argv[1:]
	if len(pairs)%2 != 0 {
		return resp.ErrWrongArgCount("msetnx")
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	for i := 0; i < len(pairs); i += 2 {
		if db.Exists(pairs[i]) {
			return resp.Integer(0)
		}
	}
	for i := 0; i < len(pairs); i += 2 {
		db.Set(pairs[i], object.NewString([]byte(pairs[i+1])))
		notifyMutated(ctx, pairs[i], ctx.InTx())
	}
	return resp.Integer(1)
}

func incrByHelper(ctx *server.Context, key string, delta int64) resp.Value {
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	b, _, errV := strEntry(ctx, key)
	if errV != nil {
		return *errV
	}
	var cur int64
	if b != nil {
		n, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return resp.ErrNotInt()
		}
		cur = n
	}
	next := cur + delta
	db.Set(key, object.NewString([]byte(strconv.FormatInt(next, 10))))
	notifyMutated(ctx, key, ctx.InTx())
	return resp.Integer(next)
}

func cmdIncr(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	if e := checkPerm(ctx, "INCR", []string{write, "string"}, []string{key}, acl.KeyModeWrite); e != nil {
		return *e
	}
	return incrByHelper(ctx, key, 1)
}

func cmdDecr(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	if e := checkPerm(ctx, "DECR", []string{write, "string"}, []string{key}, acl.KeyModeWrite); e != nil {
		return *e
	}
	return incrByHelper(ctx, key, -1)
}

func cmdIncrBy(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	if e := checkPerm(ctx, "INCRBY", []string{write, "string"}, []string{key}, acl.KeyModeWrite); e != nil {
		return *e
	}
	n, err := strconv.ParseInt(argv[2], 10, 64)
	if err != nil {
		return resp.ErrNotInt()
	}
	return incrByHelper(ctx, key, n)
}

func cmdDecrBy(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	if e := checkPerm(ctx, "DECRBY", []string{write, "string"}, []string{key}, acl.KeyModeWrite); e != nil {
		return *e
	}
	n, err := strconv.ParseInt(argv[2], 10, 64)
	if err != nil {
		return resp.ErrNotInt()
	}
	return incrByHelper(ctx, key, -n)
}

func cmdIncrByFloat(ctx *server.Context, argv []string) resp.Value {
	key := argv[1]
	if e := checkPerm(ctx, "INCRBYFLOAT", []string{write, "string"}, []string{key}, acl.KeyModeWrite); e != nil {
		return *e
	}
	delta, err := strconv.ParseFloat(argv[2], 64)
	if err != nil {
		return resp.ErrNotFloat()
	}
	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	b, _, errV := strEntry(ctx, key)
	if errV != nil {
		return *errV
	}
	var cur float64
	if b != nil {
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return resp.ErrNotFloat()
		}
		cur = f
	}
	next := cur + delta
	repr := strconv.FormatFloat(next, 'f', -1, 64)
	db.Set(key, object.NewString([]byte(repr)))
	notifyMutated(ctx, key, ctx.InTx())
	return resp.BulkString(repr)
}

// errToValue maps a params parse error to its wire reply. params.ErrWrongArgs
// needs the command name, which only the call site has, so arity errors
// from Parse are rare in practice (schemas here are all-optional tails);
// callers that can reach it pass a generic reply.
func errToValue(err error) resp.Value {
	switch err {
	case params.ErrNotInt:
		return resp.ErrNotInt()
	case params.ErrNotFloat:
		return resp.ErrNotFloat()
	case params.ErrWrongArgs:
		return resp.ErrGeneric("wrong number of arguments")
	default:
		return resp.ErrSyntax()
	}
}

/*
file: valkeygo/internal/resp/value.go

RESP2/RESP3 value model and the fatal error taxonomy used by the wire codec.
Generalizes the Item/Value split from the teacher's internal/common/value.go
into a reply-only Value (the store owns its own object model, see
internal/object) plus a set of ERR/WRONGTYPE/... constructors for §7 of the
spec.
*/
package resp

import "fmt"

// Kind identifies the shape of a Value, mirroring the RESP2 wire prefixes
// plus the RESP3 additions (Map, Bool, Double, BigNumber, Verbatim, Push)
// used only when a client has negotiated protocol 3 via HELLO.
type Kind int

const (
	KindNil Kind = iota
	KindSimpleString
	KindBulkString
	KindError
	KindInteger
	KindArray
	KindMap    // RESP3 only
	KindBool   // RESP3 only
	KindDouble // RESP3 only
	KindBigNumber
	KindVerbatim
	KindPush
	KindNullArray // RESP2 "*-1\r\n", distinct from a nil bulk string
)

// Value is a single RESP reply. Only the field matching Kind is meaningful.
type Value struct {
	Kind Kind

	Str   string  // SimpleString, BulkString, Error, Verbatim (body), BigNumber (decimal text)
	Int   int64   // Integer
	Bool  bool    // Bool
	Float float64 // Double
	Arr   []Value // Array, Push
	Map   []Value // Map: flattened key,value,key,value,... pairs, RESP3 only

	// VerbatimKind is the 3-byte type tag RESP3 verbatim strings carry, e.g. "txt".
	VerbatimKind string
}

func Nil() Value               { return Value{Kind: KindNil} }
func NullArray() Value         { return Value{Kind: KindNullArray} }
func SimpleString(s string) Value { return Value{Kind: KindSimpleString, Str: s} }
func BulkString(s string) Value   { return Value{Kind: KindBulkString, Str: s} }
func Integer(n int64) Value       { return Value{Kind: KindInteger, Int: n} }
func Bool(b bool) Value           { return Value{Kind: KindBool, Bool: b} }
func Double(f float64) Value      { return Value{Kind: KindDouble, Float: f} }
func Array(vs ...Value) Value     { return Value{Kind: KindArray, Arr: vs} }
func ArraySlice(vs []Value) Value { return Value{Kind: KindArray, Arr: vs} }
func Push(vs ...Value) Value      { return Value{Kind: KindPush, Arr: vs} }

// Map expects an even number of values, alternating key, value, key, value...
func Map(kv ...Value) Value { return Value{Kind: KindMap, Map: kv} }

// BulkStrings turns a []string into a RESP array of bulk strings, the shape
// almost every collection-returning command replies with.
func BulkStrings(ss []string) Value {
	out := make([]Value, len(ss))
	for i, s := range ss {
		out[i] = BulkString(s)
	}
	return Array(out...)
}

// OK is the canonical "+OK\r\n" reply shared by dozens of commands.
func OK() Value { return SimpleString("OK") }

// Error is a RESP error reply. Use the typed constructors below (ErrWrongType,
// ErrSyntax, ...) instead of building one directly wherever the §7 taxonomy
// applies, so the prefix stays consistent.
func Error(msg string) Value { return Value{Kind: KindError, Str: msg} }

func Errorf(format string, args ...any) Value {
	return Error(fmt.Sprintf(format, args...))
}

// Prefix extracts the leading error-class token ("ERR", "WRONGTYPE", ...)
// from an error Value's message. Returns "" for non-error values.
func (v Value) Prefix() string {
	if v.Kind != KindError {
		return ""
	}
	for i, c := range v.Str {
		if c == ' ' {
			return v.Str[:i]
		}
	}
	return v.Str
}

func (v Value) IsError() bool { return v.Kind == KindError }

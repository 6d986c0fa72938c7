/*
file: valkeygo/internal/object/entry.go

The typed value model (spec.md §3). Generalizes the teacher's internal/common
Item — a single struct with one field populated per type tag — into a tagged
variant per spec.md §9's design note ("Polymorphic value storage... a tagged
variant Value = String | List | Hash | Set | SortedSet | Stream"). Commands
request a typed accessor (AsString, AsList, ...) and get ErrWrongType instead
of reading a zero-valued wrong field.
*/
package object

import "github.com/netanelrevah/valkeygo/internal/stream"

// Kind tags which variant an Entry holds.
type Kind int

const (
	KindString Kind = iota
	KindList
	KindHash
	KindSet
	KindSortedSet
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindHash:
		return "hash"
	case KindSet:
		return "set"
	case KindSortedSet:
		return "zset"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Entry is a KeyValue<T>: a key's current typed payload plus its optional
// absolute expiration, matching spec.md §3 exactly. Exactly one of the
// payload fields is valid, selected by Kind.
type Entry struct {
	Kind Kind

	Str  []byte
	List *List
	Hash *Hash
	Set  *Set
	ZSet *SortedSet
	Stm  *stream.Stream

	// ExpireAtMs is an absolute Unix epoch milliseconds deadline; zero means
	// no expiration, matching spec.md §3's "optional absolute expiration".
	ExpireAtMs uint64
}

func NewString(b []byte) *Entry { return &Entry{Kind: KindString, Str: b} }
func NewList() *Entry           { return &Entry{Kind: KindList, List: NewListContainer()} }
func NewHash() *Entry           { return &Entry{Kind: KindHash, Hash: NewHashContainer()} }
func NewSet() *Entry            { return &Entry{Kind: KindSet, Set: NewSetContainer()} }
func NewSortedSet() *Entry      { return &Entry{Kind: KindSortedSet, ZSet: NewSortedSetContainer()} }
func NewStream() *Entry         { return &Entry{Kind: KindStream, Stm: stream.New()} }

// HasExpiry reports whether the entry carries a TTL at all.
func (e *Entry) HasExpiry() bool { return e.ExpireAtMs != 0 }

// IsExpiredAt reports whether the entry's TTL has passed nowMs. An entry
// with no TTL is never expired (invariant 2 of spec.md §3).
func (e *Entry) IsExpiredAt(nowMs uint64) bool {
	return e.ExpireAtMs != 0 && e.ExpireAtMs <= nowMs
}

// ApproxMemoryUsage estimates the entry's footprint for maxmemory/OOM
// accounting, generalizing the teacher's Item.ApproxMemoryUsage (which only
// covered string/hash/set/zset) to all six variants.
func (e *Entry) ApproxMemoryUsage(key string) int64 {
	const (
		stringHeader = 16
		pointerSize  = 8
		mapOverhead  = 18
		entryHeader  = 64
	)

	size := int64(stringHeader + len(key) + pointerSize + mapOverhead + entryHeader)

	switch e.Kind {
	case KindString:
		size += int64(len(e.Str))
	case KindList:
		for _, v := range e.List.items {
			size += stringHeader + int64(len(v))
		}
	case KindHash:
		for f, v := range e.Hash.values {
			size += 2*stringHeader + int64(len(f)) + int64(len(v)) + mapOverhead
		}
	case KindSet:
		for _, m := range e.Set.Members() {
			size += stringHeader + int64(len(m)) + mapOverhead
		}
	case KindSortedSet:
		size += int64(e.ZSet.Len()) * (2*stringHeader + 8 + mapOverhead)
	case KindStream:
		size += int64(e.Stm.Len()) * 128
	}
	return size
}

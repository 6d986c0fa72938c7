package stream

import (
	"errors"
	"time"

	"github.com/google/btree"
)

// Field is one field/value pair of a stream entry, ordered as given to XADD.
type Field struct {
	Name  []byte
	Value []byte
}

type record struct {
	ID     ID
	Fields []Field
}

func lessRecord(a, b record) bool { return a.ID.Less(b.ID) }

// Stream is the append-mostly, range-queryable entry log backing one stream
// key. The ordered index is a github.com/google/btree.BTreeG keyed by ID,
// the Go answer to the "sorted container keyed by an orderable key" design
// note in spec.md §9 (in the same spirit as pyvalkey's
// SortedDict[EntryID, EntryData] in
// original_source/pyvalkey/database_objects/stream.py, which this package
// mirrors structurally without porting its radix/listpack encoding).
type Stream struct {
	entries *btree.BTreeG[record]

	LastID       ID
	MaxDeletedID ID
	AddedEntries uint64 // total successful XADDs ever, never decremented (invariant 4)

	Groups map[string]*Group
}

func New() *Stream {
	return &Stream{
		entries: btree.NewG(32, lessRecord),
		Groups:  make(map[string]*Group),
	}
}

func (s *Stream) Len() int { return s.entries.Len() }

var (
	ErrEqualOrSmaller = errors.New("ERR The ID specified in XADD is equal or smaller than the target stream top item")
	ErrZeroID         = errors.New("ERR The ID specified in XADD must be greater than 0-0")
)

// ResolveWriteID resolves the id argument given to XADD ("*", "<ts>-*",
// "<ts>-<seq>") against s.LastID, per spec.md §4.7's ID-generation rules.
func (s *Stream) ResolveWriteID(arg string) (ID, error) {
	if arg == "*" {
		nowMs := uint64(time.Now().UnixMilli())
		if nowMs <= s.LastID.Ms {
			return ID{Ms: s.LastID.Ms, Seq: s.LastID.Seq + 1}, nil
		}
		return ID{Ms: nowMs, Seq: 0}, nil
	}

	id, err := ParseID(arg, 0)
	if err != nil && isAutoSeq(err) {
		// "<ts>-*": sequence auto-assigned relative to LastID.
		if id.Ms == s.LastID.Ms {
			return ID{Ms: id.Ms, Seq: s.LastID.Seq + 1}, nil
		}
		return ID{Ms: id.Ms, Seq: 0}, nil
	}
	if err != nil {
		return ID{}, err
	}
	return id, nil
}

// Append validates id against s.LastID and invariant 4/(0,0)-rejection,
// then stores the entry.
func (s *Stream) Append(id ID, fields []Field) error {
	if id.Ms == 0 && id.Seq == 0 {
		return ErrZeroID
	}
	if !s.LastID.Less(id) {
		return ErrEqualOrSmaller
	}
	s.entries.ReplaceOrInsert(record{ID: id, Fields: fields})
	s.LastID = id
	s.AddedEntries++
	return nil
}

// Get returns the fields stored at id, if present.
func (s *Stream) Get(id ID) ([]Field, bool) {
	r, ok := s.entries.Get(record{ID: id})
	if !ok {
		return nil, false
	}
	return r.Fields, true
}

// Delete removes id (XDEL), returning whether it existed. Removal never
// decrements AddedEntries (invariant 4); MaxDeletedID is bumped when id is
// the new high-water mark among deleted ids.
func (s *Stream) Delete(id ID) bool {
	_, ok := s.entries.Delete(record{ID: id})
	if ok && s.MaxDeletedID.Less(id) {
		s.MaxDeletedID = id
	}
	return ok
}

// Range yields entries with min <= ID <= max (inclusivity controlled by the
// caller pre-adjusting min/max with ID.Next()), ascending or descending,
// bounded by count (0 = unbounded). Used by XRANGE/XREVRANGE and the
// history-read branch of XREADGROUP.
func (s *Stream) Range(min, max ID, reverse bool, count int) []StreamEntry {
	var out []StreamEntry
	s.entries.AscendRange(record{ID: min}, record{ID: max.Next()}, func(r record) bool {
		out = append(out, StreamEntry{ID: r.ID, Fields: r.Fields})
		return true
	})
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if count > 0 && len(out) > count {
		out = out[:count]
	}
	return out
}

// AfterCount returns the number of entries with ID strictly greater than
// after, used by the blocking manager's level-triggered wake condition.
func (s *Stream) AfterCount(after ID) int {
	n := 0
	s.entries.AscendRange(record{ID: after.Next()}, record{ID: Max}, func(record) bool {
		n++
		return true
	})
	return n
}

// FirstAfter returns the smallest entry with ID strictly greater than after.
func (s *Stream) FirstAfter(after ID) (StreamEntry, bool) {
	var found StreamEntry
	ok := false
	s.entries.AscendRange(record{ID: after.Next()}, record{ID: Max}, func(r record) bool {
		found = StreamEntry{ID: r.ID, Fields: r.Fields}
		ok = true
		return false
	})
	return found, ok
}

// ReadAfter returns up to count entries strictly greater than after, in ID order.
func (s *Stream) ReadAfter(after ID, count int) []StreamEntry {
	return s.Range(after.Next(), Max, false, count)
}

// StreamEntry pairs an ID with its fields for range-query results.
type StreamEntry struct {
	ID     ID
	Fields []Field
}

// TrimMaxLen drops the oldest entries until at most maxLen remain, returning
// the number removed. approx rounds toward the node-size hint per spec.md
// §4.7's "~" operator instead of trimming exactly.
func (s *Stream) TrimMaxLen(maxLen int, approx bool, nodeMaxEntries int) int {
	if approx && nodeMaxEntries > 0 {
		// Round down to the nearest node boundary below the current length,
		// never trimming more than an exact trim would.
		excess := s.Len() - maxLen
		if excess <= 0 {
			return 0
		}
		rounded := (excess / nodeMaxEntries) * nodeMaxEntries
		maxLen = s.Len() - rounded
	}
	removed := 0
	for s.Len() > maxLen {
		min, ok := s.entries.Min()
		if !ok {
			break
		}
		s.entries.Delete(min)
		if s.MaxDeletedID.Less(min.ID) {
			s.MaxDeletedID = min.ID
		}
		removed++
	}
	return removed
}

// TrimMinID drops entries with ID < minID, returning the number removed.
func (s *Stream) TrimMinID(minID ID, approx bool, nodeMaxEntries int) int {
	removed := 0
	for {
		min, ok := s.entries.Min()
		if !ok || !min.ID.Less(minID) {
			break
		}
		s.entries.Delete(min)
		if s.MaxDeletedID.Less(min.ID) {
			s.MaxDeletedID = min.ID
		}
		removed++
	}
	return removed
}

// SetID implements XSETID: force LastID (and optionally AddedEntries /
// MaxDeletedID) to new values, rejecting a last id below the highest stored
// entry id per spec.md §4.7.
func (s *Stream) SetID(id ID, entriesAdded *uint64, maxDeletedID *ID) error {
	if max, ok := s.entries.Max(); ok && id.Less(max.ID) {
		return errors.New("ERR The ID specified in XSETID is smaller than the target stream top item")
	}
	s.LastID = id
	if entriesAdded != nil {
		s.AddedEntries = *entriesAdded
	}
	if maxDeletedID != nil {
		s.MaxDeletedID = *maxDeletedID
	}
	return nil
}

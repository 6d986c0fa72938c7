package object

import (
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"
)

// Set backs the SET commands. Grounded on the teacher's Item.ItemSet
// map[string]bool (internal/common/value.go) for the general case, plus an
// "intset" fast path mirroring real Valkey's integer-only small-set
// encoding: members that parse as a non-negative uint32 are kept in a
// github.com/RoaringBitmap/roaring/v2 bitmap instead of the string map,
// switching permanently to the string map the first time a non-intset
// member is added (members already promoted are never demoted back).
//
// roaring.Bitmap only addresses uint32 values, so the fast path covers
// non-negative integers < 2^32 rather than the full int64 range a real
// intset spans; anything outside that range goes straight to the string
// map, which is always correct, just not maximally compact.
type Set struct {
	members map[string]struct{}
	ints    *roaring.Bitmap
	isIntset bool
}

func NewSetContainer() *Set {
	return &Set{members: make(map[string]struct{}), ints: roaring.New(), isIntset: true}
}

func asUint32(member string) (uint32, bool) {
	n, err := strconv.ParseUint(member, 10, 32)
	if err != nil {
		return 0, false
	}
	// reject non-canonical forms ("01", "+1") the same way real intset does
	if strconv.FormatUint(n, 10) != member {
		return 0, false
	}
	return uint32(n), true
}

func (s *Set) demote() {
	if !s.isIntset {
		return
	}
	it := s.ints.Iterator()
	for it.HasNext() {
		s.members[strconv.FormatUint(uint64(it.Next()), 10)] = struct{}{}
	}
	s.ints = nil
	s.isIntset = false
}

func (s *Set) Len() int {
	if s.isIntset {
		return int(s.ints.GetCardinality())
	}
	return len(s.members)
}

func (s *Set) Contains(member string) bool {
	if s.isIntset {
		n, ok := asUint32(member)
		if !ok {
			return false
		}
		return s.ints.Contains(n)
	}
	_, ok := s.members[member]
	return ok
}

// Add returns true if member was newly added.
func (s *Set) Add(member string) bool {
	if s.isIntset {
		if n, ok := asUint32(member); ok {
			if s.ints.Contains(n) {
				return false
			}
			s.ints.Add(n)
			return true
		}
		s.demote()
	}
	if _, ok := s.members[member]; ok {
		return false
	}
	s.members[member] = struct{}{}
	return true
}

func (s *Set) Remove(member string) bool {
	if s.isIntset {
		n, ok := asUint32(member)
		if !ok {
			return false
		}
		if !s.ints.Contains(n) {
			return false
		}
		s.ints.Remove(n)
		return true
	}
	if _, ok := s.members[member]; !ok {
		return false
	}
	delete(s.members, member)
	return true
}

// Members returns every member as a string, regardless of encoding.
func (s *Set) Members() []string {
	if s.isIntset {
		out := make([]string, 0, s.ints.GetCardinality())
		it := s.ints.Iterator()
		for it.HasNext() {
			out = append(out, strconv.FormatUint(uint64(it.Next()), 10))
		}
		return out
	}
	out := make([]string, 0, len(s.members))
	for m := range s.members {
		out = append(out, m)
	}
	return out
}

// IsIntset reports the current encoding, surfaced by OBJECT ENCODING.
func (s *Set) IsIntset() bool { return s.isIntset }

// Inter/Union/Diff implement SINTER/SUNION/SDIFF. When every operand is
// still intset-encoded they run directly on roaring bitmaps; otherwise they
// fall back to plain map arithmetic over the string form.
func Inter(sets ...*Set) []string {
	if len(sets) == 0 {
		return nil
	}
	allInt := true
	for _, s := range sets {
		if !s.isIntset {
			allInt = false
			break
		}
	}
	if allInt {
		result := sets[0].ints.Clone()
		for _, s := range sets[1:] {
			result.And(s.ints)
		}
		return bitmapStrings(result)
	}
	counts := make(map[string]int)
	for _, s := range sets {
		for _, m := range s.Members() {
			counts[m]++
		}
	}
	var out []string
	for m, c := range counts {
		if c == len(sets) {
			out = append(out, m)
		}
	}
	return out
}

func Union(sets ...*Set) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range sets {
		for _, m := range s.Members() {
			if _, ok := seen[m]; !ok {
				seen[m] = struct{}{}
				out = append(out, m)
			}
		}
	}
	return out
}

func Diff(sets ...*Set) []string {
	if len(sets) == 0 {
		return nil
	}
	exclude := make(map[string]struct{})
	for _, s := range sets[1:] {
		for _, m := range s.Members() {
			exclude[m] = struct{}{}
		}
	}
	var out []string
	for _, m := range sets[0].Members() {
		if _, ok := exclude[m]; !ok {
			out = append(out, m)
		}
	}
	return out
}

func bitmapStrings(bm *roaring.Bitmap) []string {
	out := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, strconv.FormatUint(uint64(it.Next()), 10))
	}
	return out
}

package object

import (
	"math"

	"github.com/google/btree"
)

// SortedSet backs the ZSET commands. Grounded on the teacher's Item.ZSet
// map[string]float64 (internal/common/value.go) for the member->score
// lookup, plus a github.com/google/btree ordered index over (score, member)
// pairs so ZRANGE/ZRANGEBYSCORE/ZRANK can be answered by a range scan
// instead of a full sort on every call.
type SortedSet struct {
	scores map[string]float64
	byRank *btree.BTreeG[ZSetEntry]
}

type ZSetEntry struct {
	Score  float64
	Member string
}

// lessZSet orders by score first, then lexicographically by member, the
// same tie-break rule spec.md §4.6 requires for equal-score ranges.
func lessZSet(a, b ZSetEntry) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Member < b.Member
}

func NewSortedSetContainer() *SortedSet {
	return &SortedSet{
		scores: make(map[string]float64),
		byRank: btree.NewG(32, lessZSet),
	}
}

func (z *SortedSet) Len() int { return len(z.scores) }

func (z *SortedSet) Score(member string) (float64, bool) {
	s, ok := z.scores[member]
	return s, ok
}

// Add sets member's score, returning true if member is newly added.
func (z *SortedSet) Add(member string, score float64) bool {
	if old, ok := z.scores[member]; ok {
		if old == score {
			return false
		}
		z.byRank.Delete(ZSetEntry{Score: old, Member: member})
		z.scores[member] = score
		z.byRank.ReplaceOrInsert(ZSetEntry{Score: score, Member: member})
		return false
	}
	z.scores[member] = score
	z.byRank.ReplaceOrInsert(ZSetEntry{Score: score, Member: member})
	return true
}

// IncrBy adds delta to member's score (creating it at 0 first if absent)
// and returns the new score.
func (z *SortedSet) IncrBy(member string, delta float64) float64 {
	cur := z.scores[member]
	newScore := cur + delta
	z.Add(member, newScore)
	return newScore
}

func (z *SortedSet) Remove(member string) bool {
	score, ok := z.scores[member]
	if !ok {
		return false
	}
	delete(z.scores, member)
	z.byRank.Delete(ZSetEntry{Score: score, Member: member})
	return true
}

// Rank returns member's 0-based ascending rank, or -1 if absent. reverse
// flips to descending rank for ZREVRANK.
func (z *SortedSet) Rank(member string, reverse bool) int {
	score, ok := z.scores[member]
	if !ok {
		return -1
	}
	idx := 0
	found := false
	z.byRank.Ascend(func(e ZSetEntry) bool {
		if e.Score == score && e.Member == member {
			found = true
			return false
		}
		idx++
		return true
	})
	if !found {
		return -1
	}
	if reverse {
		return z.Len() - 1 - idx
	}
	return idx
}

// RangeByRank returns members in ascending rank order for start..stop
// inclusive (descending when reverse is set). Redis-style negative indices
// are resolved against the length here and both bounds are clamped, same
// convention as List.Range.
func (z *SortedSet) RangeByRank(start, stop int, reverse bool) []ZSetEntry {
	n := z.Len()
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
	if start > stop || n == 0 {
		return nil
	}

	all := make([]ZSetEntry, 0, n)
	z.byRank.Ascend(func(e ZSetEntry) bool {
		all = append(all, e)
		return true
	})
	if reverse {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}
	return all[start : stop+1]
}

// RangeByScore returns members with min <= score <= max (or exclusive at
// either bound), in ascending score order, honoring offset/count the way
// ZRANGEBYSCORE LIMIT does (count < 0 means unbounded).
//
// The upper pivot passed to AscendRange is +Inf rather than max itself:
// lessZSet orders by Score first, so any finite Score (including members at
// exactly max, whatever their byte length) sorts below +Inf, while a finite
// string pivot like "\xff\xff\xff\xff" can be out-ordered by a longer member
// with the same score and silently miss entries.
func (z *SortedSet) RangeByScore(min, max float64, minExclusive, maxExclusive bool, offset, count int) []ZSetEntry {
	var out []ZSetEntry
	skipped := 0
	z.byRank.AscendRange(ZSetEntry{Score: min}, ZSetEntry{Score: math.Inf(1)}, func(e ZSetEntry) bool {
		if e.Score < min || (minExclusive && e.Score == min) {
			return true
		}
		if e.Score > max || (maxExclusive && e.Score == max) {
			return false
		}
		if skipped < offset {
			skipped++
			return true
		}
		out = append(out, e)
		return count < 0 || len(out) < count
	})
	return out
}

// RangeByLex returns members within [min, max] in lexicographic order, for
// equal-score sorted sets used as a lex index (ZRANGEBYLEX). min/max use the
// "[", "(", "-", "+" convention.
func (z *SortedSet) RangeByLex(min, max string, offset, count int) []ZSetEntry {
	minVal, minInclusive, minInf := parseLexBound(min)
	maxVal, maxInclusive, maxInf := parseLexBound(max)

	var out []ZSetEntry
	skipped := 0
	z.byRank.Ascend(func(e ZSetEntry) bool {
		if !minInf.neg {
			if minInf.pos {
				return false
			}
			if e.Member < minVal || (!minInclusive && e.Member == minVal) {
				return true
			}
		}
		if !maxInf.pos {
			if maxInf.neg {
				return false
			}
			if e.Member > maxVal || (!maxInclusive && e.Member == maxVal) {
				return false
			}
		}
		if skipped < offset {
			skipped++
			return true
		}
		out = append(out, e)
		return count < 0 || len(out) < count
	})
	return out
}

type lexInf struct{ neg, pos bool }

func parseLexBound(s string) (value string, inclusive bool, inf lexInf) {
	switch {
	case s == "-":
		return "", true, lexInf{neg: true}
	case s == "+":
		return "", true, lexInf{pos: true}
	case len(s) > 0 && s[0] == '[':
		return s[1:], true, lexInf{}
	case len(s) > 0 && s[0] == '(':
		return s[1:], false, lexInf{}
	default:
		return s, true, lexInf{}
	}
}

// CountByScore mirrors RangeByScore's bound logic but only counts, used by
// ZCOUNT.
func (z *SortedSet) CountByScore(min, max float64, minExclusive, maxExclusive bool) int {
	return len(z.RangeByScore(min, max, minExclusive, maxExclusive, 0, -1))
}

// All returns every entry in ascending score/member order.
func (z *SortedSet) All() []ZSetEntry {
	out := make([]ZSetEntry, 0, z.Len())
	z.byRank.Ascend(func(e ZSetEntry) bool {
		out = append(out, e)
		return true
	})
	return out
}

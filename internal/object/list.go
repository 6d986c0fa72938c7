package object

// List is a doubly-ended sequence of byte-string elements backing the LIST
// commands. Grounded on the teacher's Item.List []string (internal/common/
// value.go), generalized to []byte elements and given the push/pop/insert/
// remove operations the teacher's placeholder field never grew.
type List struct {
	items [][]byte
}

func NewListContainer() *List { return &List{} }

func (l *List) Len() int { return len(l.items) }

func (l *List) LPush(values ...[]byte) {
	// values arrive in command order; each is pushed onto the head in turn,
	// so the last value given ends up closest to the head.
	for _, v := range values {
		l.items = append([][]byte{v}, l.items...)
	}
}

func (l *List) RPush(values ...[]byte) {
	l.items = append(l.items, values...)
}

func (l *List) LPop(count int) [][]byte {
	if count > len(l.items) {
		count = len(l.items)
	}
	out := l.items[:count]
	l.items = l.items[count:]
	return out
}

func (l *List) RPop(count int) [][]byte {
	if count > len(l.items) {
		count = len(l.items)
	}
	n := len(l.items)
	out := make([][]byte, count)
	for i := 0; i < count; i++ {
		out[i] = l.items[n-1-i]
	}
	l.items = l.items[:n-count]
	return out
}

// normalizeIndex normalizes a possibly-negative Redis list index against the
// current length, returning (0, false) if out of range.
func (l *List) normalizeIndex(i int) (int, bool) {
	if i < 0 {
		i += len(l.items)
	}
	if i < 0 || i >= len(l.items) {
		return 0, false
	}
	return i, true
}

func (l *List) Get(index int) ([]byte, bool) {
	i, ok := l.normalizeIndex(index)
	if !ok {
		return nil, false
	}
	return l.items[i], true
}

func (l *List) Set(index int, value []byte) bool {
	i, ok := l.normalizeIndex(index)
	if !ok {
		return false
	}
	l.items[i] = value
	return true
}

// Range returns a copy of the elements in [start, stop] inclusive, after
// clamping both bounds the way LRANGE does.
func (l *List) Range(start, stop int) [][]byte {
	n := len(l.items)
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
	out := make([][]byte, stop-start+1)
	copy(out, l.items[start:stop+1])
	return out
}

// Trim keeps only [start, stop] inclusive, same clamping rules as Range.
func (l *List) Trim(start, stop int) {
	l.items = l.Range(start, stop)
}

// InsertBefore/InsertAfter implement LINSERT; they return false if pivot is
// not found.
func (l *List) InsertBefore(pivot, value []byte) bool { return l.insert(pivot, value, 0) }
func (l *List) InsertAfter(pivot, value []byte) bool  { return l.insert(pivot, value, 1) }

func (l *List) insert(pivot, value []byte, offset int) bool {
	for i, v := range l.items {
		if bytesEqual(v, pivot) {
			at := i + offset
			l.items = append(l.items[:at], append([][]byte{value}, l.items[at:]...)...)
			return true
		}
	}
	return false
}

// Rem removes up to count occurrences of value. count > 0 scans head to
// tail, count < 0 scans tail to head, count == 0 removes all. Returns the
// number removed.
func (l *List) Rem(count int, value []byte) int {
	removed := 0
	if count >= 0 {
		limit := count
		out := l.items[:0:0]
		for _, v := range l.items {
			if bytesEqual(v, value) && (limit == 0 || removed < limit) {
				removed++
				continue
			}
			out = append(out, v)
		}
		l.items = out
		return removed
	}
	limit := -count
	out := make([][]byte, 0, len(l.items))
	for i := len(l.items) - 1; i >= 0; i-- {
		v := l.items[i]
		if bytesEqual(v, value) && removed < limit {
			removed++
			continue
		}
		out = append(out, v)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	l.items = out
	return removed
}

// Pos implements LPOS: the indexes of the occurrences of value starting at
// the rank-th one (1-based; rank 0 is treated as 1; negative rank scans from
// the tail), at most count of them (count 0 means all). Returns nil if there
// is no such occurrence.
func (l *List) Pos(value []byte, rank int, count int) []int {
	var matches []int
	if rank >= 0 {
		r := rank
		if r == 0 {
			r = 1
		}
		skip := r - 1
		for i, v := range l.items {
			if !bytesEqual(v, value) {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			matches = append(matches, i)
			if count > 0 && len(matches) >= count {
				break
			}
		}
		return matches
	}
	skip := -rank - 1
	for i := len(l.items) - 1; i >= 0; i-- {
		if !bytesEqual(l.items[i], value) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		matches = append(matches, i)
		if count > 0 && len(matches) >= count {
			break
		}
	}
	return matches
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

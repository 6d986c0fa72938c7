/*
file: valkeygo/internal/stream/id.go

Stream entry IDs (spec.md §4.7). Parsing of the special tokens (*, -, +, $,
>) is grounded on pyvalkey's EntryID = tuple[int, int] model in
original_source/pyvalkey/database_objects/stream.py, re-expressed as a
comparable Go struct instead of a 2-tuple.
*/
package stream

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ID is a stream entry id (timestamp_ms, sequence), ordered lexicographically
// by (Ms, Seq) per spec.md §4.7.
type ID struct {
	Ms  uint64
	Seq uint64
}

var (
	Min = ID{0, 0}
	Max = ID{^uint64(0), ^uint64(0)}
)

func (id ID) String() string {
	return strconv.FormatUint(id.Ms, 10) + "-" + strconv.FormatUint(id.Seq, 10)
}

func (id ID) Less(other ID) bool {
	if id.Ms != other.Ms {
		return id.Ms < other.Ms
	}
	return id.Seq < other.Seq
}

func (id ID) Equal(other ID) bool { return id.Ms == other.Ms && id.Seq == other.Seq }

func (id ID) Compare(other ID) int {
	switch {
	case id.Less(other):
		return -1
	case other.Less(id):
		return 1
	default:
		return 0
	}
}

// Next returns the smallest id strictly greater than id, saturating at Max.
func (id ID) Next() ID {
	if id.Seq != ^uint64(0) {
		return ID{id.Ms, id.Seq + 1}
	}
	if id.Ms != ^uint64(0) {
		return ID{id.Ms + 1, 0}
	}
	return Max
}

// ErrInvalidID is returned for malformed entry-id strings.
var ErrInvalidID = errors.New("ERR Invalid stream ID specified as stream command argument")

// ParseID parses a fully- or partially-specified id ("<ts>", "<ts>-<seq>"),
// defaulting a missing sequence to defaultSeq. "-" and "+" resolve to Min
// and Max, and "<ts>-*" returns the id together with errAutoSeq. It does not
// resolve "*", "$" or ">" (those return ErrInvalidID); the stream's own
// ResolveWriteID handles "*", and callers resolve the others contextually.
func ParseID(s string, defaultSeq uint64) (ID, error) {
	if s == "-" {
		return Min, nil
	}
	if s == "+" {
		return Max, nil
	}
	parts := strings.SplitN(s, "-", 2)
	ms, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return ID{}, ErrInvalidID
	}
	if len(parts) == 1 {
		return ID{Ms: ms, Seq: defaultSeq}, nil
	}
	if parts[1] == "*" {
		return ID{Ms: ms, Seq: ^uint64(0)}, errAutoSeq
	}
	seq, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return ID{}, ErrInvalidID
	}
	return ID{Ms: ms, Seq: seq}, nil
}

// errAutoSeq is a sentinel returned alongside a partially-resolved ID when
// the caller wrote "<ts>-*"; ResolveWriteID special-cases it.
var errAutoSeq = errors.New("auto-sequence")

func isAutoSeq(err error) bool { return errors.Is(err, errAutoSeq) }

// ParseRangeID parses an id used as a XRANGE/XREVRANGE/XPENDING boundary,
// resolving "(" exclusivity prefixes and the "-"/"+" sentinels.
func ParseRangeID(s string, defaultSeq uint64) (id ID, inclusive bool, err error) {
	inclusive = true
	if strings.HasPrefix(s, "(") {
		inclusive = false
		s = s[1:]
	}
	id, err = ParseID(s, defaultSeq)
	if err != nil && !isAutoSeq(err) {
		return ID{}, false, err
	}
	return id, inclusive, nil
}

func fmtID(ms, seq uint64) string {
	return fmt.Sprintf("%d-%d", ms, seq)
}

/*
file: valkeygo/internal/commands/dump.go

DUMP/RESTORE (supplemented feature per the expanded spec's enrichment list,
§4.7's "migrate a single key's value as an opaque blob"). Grounded on the
teacher's internal/auth passwd.bin persistence, which encodes its user table
with encoding/gob before writing it to disk — the same codec is reused here
to serialize a single object.Entry into the blob DUMP returns and RESTORE
consumes. A 2-byte format version plus an 8-byte CRC64 footer (ISO
polynomial, stdlib hash/crc64) guards against restoring a blob produced by
an incompatible version or corrupted in transit; no crc64 implementation
appears anywhere in the corpus, so the standard library is the only choice.
*/
package commands

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"hash/crc64"
	"strconv"
	"strings"

	"github.com/netanelrevah/valkeygo/internal/object"
	"github.com/netanelrevah/valkeygo/internal/resp"
	"github.com/netanelrevah/valkeygo/internal/server"
	"github.com/netanelrevah/valkeygo/internal/stream"
)

var errBadDataFormat = errors.New("bad data format")

const dumpFormatVersion uint16 = 1

var crc64Table = crc64.MakeTable(crc64.ISO)

// snapshot is the gob-friendly projection of an object.Entry: every
// container's unexported internals (the btree, the roaring bitmap) are
// flattened into plain exported slices so gob.Encode never has to look
// inside them. Per-field hash expiries are not part of the snapshot, so a
// restored hash has no field TTLs.
type snapshot struct {
	Kind       object.Kind
	Str        []byte
	ListItems  [][]byte
	HashFields map[string][]byte
	SetMembers []string
	ZSetScores []object.ZSetEntry
	StreamMsgs []snapshotStreamEntry
}

type snapshotStreamEntry struct {
	ID     string
	Fields []stream.Field
}

func entryToSnapshot(e *object.Entry) *snapshot {
	s := &snapshot{Kind: e.Kind}
	switch e.Kind {
	case object.KindString:
		s.Str = e.Str
	case object.KindList:
		s.ListItems = e.List.Range(0, -1)
	case object.KindHash:
		s.HashFields = e.Hash.All()
	case object.KindSet:
		s.SetMembers = e.Set.Members()
	case object.KindSortedSet:
		s.ZSetScores = e.ZSet.All()
	case object.KindStream:
		for _, se := range e.Stm.Range(stream.Min, stream.Max, false, -1) {
			s.StreamMsgs = append(s.StreamMsgs, snapshotStreamEntry{ID: se.ID.String(), Fields: se.Fields})
		}
	}
	return s
}

func snapshotToEntry(s *snapshot) (*object.Entry, error) {
	switch s.Kind {
	case object.KindString:
		return object.NewString(s.Str), nil
	case object.KindList:
		e := object.NewList()
		e.List.RPush(s.ListItems...)
		return e, nil
	case object.KindHash:
		e := object.NewHash()
		for field, value := range s.HashFields {
			e.Hash.Set(field, value)
		}
		return e, nil
	case object.KindSet:
		e := object.NewSet()
		for _, m := range s.SetMembers {
			e.Set.Add(m)
		}
		return e, nil
	case object.KindSortedSet:
		e := object.NewSortedSet()
		for _, entry := range s.ZSetScores {
			e.ZSet.Add(entry.Member, entry.Score)
		}
		return e, nil
	case object.KindStream:
		e := object.NewStream()
		for _, se := range s.StreamMsgs {
			id, err := stream.ParseID(se.ID, 0)
			if err != nil {
				return nil, err
			}
			if err := e.Stm.Append(id, se.Fields); err != nil {
				return nil, err
			}
		}
		return e, nil
	default:
		return nil, errBadDataFormat
	}
}

func serializeEntry(e *object.Entry) ([]byte, error) {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(entryToSnapshot(e)); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, dumpFormatVersion)
	out.Write(body.Bytes())
	sum := crc64.Checksum(out.Bytes(), crc64Table)
	binary.Write(&out, binary.LittleEndian, sum)
	return out.Bytes(), nil
}

var errBadPayload = errors.New("DUMP payload version or checksum are wrong")

func deserializeEntry(blob []byte) (*object.Entry, error) {
	if len(blob) < 10 {
		return nil, errBadPayload
	}
	payload, footer := blob[:len(blob)-8], blob[len(blob)-8:]
	want := binary.LittleEndian.Uint64(footer)
	got := crc64.Checksum(payload, crc64Table)
	if want != got {
		return nil, errBadPayload
	}
	version := binary.LittleEndian.Uint16(payload[:2])
	if version != dumpFormatVersion {
		return nil, errBadPayload
	}
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(payload[2:])).Decode(&s); err != nil {
		return nil, err
	}
	return snapshotToEntry(&s)
}

func dumpRestoreCommands() []*Cmd {
	return []*Cmd{
		{Name: "DUMP", Arity: 2, Flags: []string{readonly}, Handler: cmdDump},
		{Name: "RESTORE", Arity: -4, Flags: []string{write, denyoom}, Handler: cmdRestore},
	}
}

func cmdDump(ctx *server.Context, argv []string) resp.Value {
	db := ctx.DB()
	db.RLock()
	defer db.RUnlock()
	e, ok := db.Peek(argv[1])
	if !ok {
		return resp.Nil()
	}
	blob, err := serializeEntry(e)
	if err != nil {
		return resp.ErrGeneric(err.Error())
	}
	return resp.BulkString(string(blob))
}

func cmdRestore(ctx *server.Context, argv []string) resp.Value {
	key, ttlArg, blob := argv[1], argv[2], argv[3]
	replace := false
	for _, a := range argv[4:] {
		if strings.EqualFold(a, "REPLACE") {
			replace = true
		}
	}
	ttlMs, err := strconv.ParseInt(ttlArg, 10, 64)
	if err != nil {
		return resp.ErrNotInt()
	}
	if ttlMs < 0 {
		return resp.ErrGeneric("Invalid TTL value, must be >= 0")
	}

	db := ctx.DB()
	db.Lock()
	defer db.Unlock()
	if !replace && db.Exists(key) {
		return resp.ErrBusyKey()
	}
	e, err := deserializeEntry([]byte(blob))
	if err != nil {
		return resp.ErrGeneric("Bad data format")
	}
	if ttlMs > 0 {
		e.ExpireAtMs = uint64(nowMs()) + uint64(ttlMs)
	}
	db.Set(key, e)
	notifyMutated(ctx, key, ctx.InTx())
	return resp.OK()
}

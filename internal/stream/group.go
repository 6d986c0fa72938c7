package stream

import (
	"errors"
	"time"

	"github.com/google/btree"
)

// PendingEntry is the delivery record shared between a group's PEL and its
// owning consumer's PEL (spec.md §4.7's PEL / §9's note on representing the
// shared record as "an index with owning storage in the group and
// non-owning lookup in consumers"). Go has no ownership annotations, so the
// sharing is expressed directly: both the group's and consumer's btree store
// the same *PendingEntry pointer.
type PendingEntry struct {
	ID             ID
	Consumer       string
	LastDeliveryMs int64
	TimesDelivered int
}

type pelRecord struct {
	ID      ID
	Pending *PendingEntry
}

func lessPEL(a, b pelRecord) bool { return a.ID.Less(b.ID) }

// Consumer is one named reader within a group.
type Consumer struct {
	Name           string
	LastSeenMs     int64
	LastActiveMs   int64
	pending        *btree.BTreeG[pelRecord]
}

func newConsumer(name string) *Consumer {
	return &Consumer{
		Name:         name,
		LastSeenMs:   time.Now().UnixMilli(),
		LastActiveMs: time.Now().UnixMilli(),
		pending:      btree.NewG(32, lessPEL),
	}
}

func (c *Consumer) PendingCount() int { return c.pending.Len() }

// Group is a consumer group: a delivery cursor (LastID), a read-entries
// counter, its consumers, and the group-wide PEL.
type Group struct {
	Name         string
	LastID       ID
	ReadEntries  uint64
	Consumers    map[string]*Consumer
	pel          *btree.BTreeG[pelRecord]
}

func newGroup(name string, lastID ID) *Group {
	return &Group{
		Name:      name,
		LastID:    lastID,
		Consumers: make(map[string]*Consumer),
		pel:       btree.NewG(32, lessPEL),
	}
}

func (g *Group) PendingCount() int { return g.pel.Len() }

var (
	ErrBusyGroup  = errors.New("BUSYGROUP Consumer Group name already exists")
	ErrNoSuchKey  = errors.New("ERR The XGROUP subcommand requires the key to exist. Note that for CREATE you may want to use the MKSTREAM option to create an empty stream automatically.")
)

// CreateGroup implements XGROUP CREATE. id "$" means "the stream's current
// last id" per spec.md §4.7's special-token table.
func (s *Stream) CreateGroup(name string, id ID, entriesRead *uint64) error {
	if _, ok := s.Groups[name]; ok {
		return ErrBusyGroup
	}
	g := newGroup(name, id)
	if entriesRead != nil {
		g.ReadEntries = *entriesRead
	}
	s.Groups[name] = g
	return nil
}

func (s *Stream) DestroyGroup(name string) bool {
	if _, ok := s.Groups[name]; !ok {
		return false
	}
	delete(s.Groups, name)
	return true
}

func (g *Group) CreateConsumer(name string) bool {
	if _, ok := g.Consumers[name]; ok {
		return false
	}
	g.Consumers[name] = newConsumer(name)
	return true
}

// DelConsumer removes a consumer, returning the number of pending entries it
// owned (they remain in the group PEL, now unowned until reclaimed).
func (g *Group) DelConsumer(name string) int {
	c, ok := g.Consumers[name]
	if !ok {
		return 0
	}
	n := c.pending.Len()
	delete(g.Consumers, name)
	return n
}

func (g *Group) getOrCreateConsumer(name string) *Consumer {
	c, ok := g.Consumers[name]
	if !ok {
		c = newConsumer(name)
		g.Consumers[name] = c
	}
	c.LastSeenMs = time.Now().UnixMilli()
	return c
}

// ReadNew implements the ">" branch of XREADGROUP: read entries strictly
// after g.LastID, advance the cursor, and (unless noack) register a fresh
// PendingEntry per delivered id in both the group and consumer PELs.
func (s *Stream) ReadNew(groupName, consumerName string, count int, noack bool) ([]StreamEntry, error) {
	g, ok := s.Groups[groupName]
	if !ok {
		return nil, errGroupMissing
	}
	entries := s.ReadAfter(g.LastID, count)
	if len(entries) == 0 {
		return nil, nil
	}
	consumer := g.getOrCreateConsumer(consumerName)
	now := time.Now().UnixMilli()
	for _, e := range entries {
		g.LastID = e.ID
		g.ReadEntries++
		if noack {
			continue
		}
		pe := &PendingEntry{ID: e.ID, Consumer: consumerName, LastDeliveryMs: now, TimesDelivered: 1}
		rec := pelRecord{ID: e.ID, Pending: pe}
		g.pel.ReplaceOrInsert(rec)
		consumer.pending.ReplaceOrInsert(rec)
	}
	return entries, nil
}

var errGroupMissing = errors.New("ERR no such consumer group")

// ReadPending implements the history-id branch of XREADGROUP: entries in
// consumerName's own PEL with id >= from, refreshing delivery bookkeeping.
func (s *Stream) ReadPending(groupName, consumerName string, from ID, count int) ([]StreamEntry, error) {
	g, ok := s.Groups[groupName]
	if !ok {
		return nil, errGroupMissing
	}
	consumer := g.getOrCreateConsumer(consumerName)
	var out []StreamEntry
	now := time.Now().UnixMilli()
	consumer.pending.AscendRange(pelRecord{ID: from}, pelRecord{ID: Max}, func(rec pelRecord) bool {
		fields, ok := s.Get(rec.ID)
		if ok {
			out = append(out, StreamEntry{ID: rec.ID, Fields: fields})
		} else {
			out = append(out, StreamEntry{ID: rec.ID, Fields: nil})
		}
		rec.Pending.TimesDelivered++
		rec.Pending.LastDeliveryMs = now
		return count <= 0 || len(out) < count
	})
	return out, nil
}

// Ack implements XACK: remove ids from both the group's and their owning
// consumer's PEL, returning the count actually removed.
func (g *Group) Ack(ids []ID) int {
	removed := 0
	for _, id := range ids {
		rec, ok := g.pel.Delete(pelRecord{ID: id})
		if !ok {
			continue
		}
		if c, ok := g.Consumers[rec.Pending.Consumer]; ok {
			c.pending.Delete(pelRecord{ID: id})
		}
		removed++
	}
	return removed
}

// PendingSummary is the no-range form of XPENDING: total count, the lowest
// and highest pending ids, and a per-consumer count.
type PendingSummary struct {
	Count         int
	Lowest        ID
	Highest       ID
	PerConsumer   map[string]int
}

func (g *Group) Summary() PendingSummary {
	sum := PendingSummary{PerConsumer: make(map[string]int)}
	first := true
	g.pel.Ascend(func(rec pelRecord) bool {
		if first {
			sum.Lowest = rec.ID
			first = false
		}
		sum.Highest = rec.ID
		sum.PerConsumer[rec.Pending.Consumer]++
		sum.Count++
		return true
	})
	return sum
}

// PendingRange implements the extended XPENDING form: entries in [start,end]
// (optionally filtered to one consumer and by minimum idle time), bounded
// by count.
func (g *Group) PendingRange(start, end ID, count int, consumer string, minIdleMs int64) []*PendingEntry {
	var out []*PendingEntry
	now := time.Now().UnixMilli()
	g.pel.AscendRange(pelRecord{ID: start}, pelRecord{ID: end.Next()}, func(rec pelRecord) bool {
		if consumer != "" && rec.Pending.Consumer != consumer {
			return true
		}
		if minIdleMs > 0 && now-rec.Pending.LastDeliveryMs < minIdleMs {
			return true
		}
		out = append(out, rec.Pending)
		return count <= 0 || len(out) < count
	})
	return out
}

// AutoClaim implements XAUTOCLAIM: reassigns pending entries idle >= minIdleMs
// starting from start, to newConsumer, returning the claimed entries and the
// ids of entries whose backing stream entry no longer exists (deleted ones
// are dropped from both PELs and reported separately, matching real
// XAUTOCLAIM's "deleted ids" reply element).
func (s *Stream) AutoClaim(groupName, newConsumerName string, minIdleMs int64, start ID, count int) (claimed []StreamEntry, deletedIDs []ID, cursor ID, err error) {
	g, ok := s.Groups[groupName]
	if !ok {
		return nil, nil, ID{}, errGroupMissing
	}
	newConsumer := g.getOrCreateConsumer(newConsumerName)
	now := time.Now().UnixMilli()

	var candidates []pelRecord
	g.pel.AscendRange(pelRecord{ID: start}, pelRecord{ID: Max}, func(rec pelRecord) bool {
		if now-rec.Pending.LastDeliveryMs >= minIdleMs {
			candidates = append(candidates, rec)
		}
		return count <= 0 || len(candidates) <= count
	})

	cursor = ID{}
	for i, rec := range candidates {
		if count > 0 && i >= count {
			cursor = rec.ID
			break
		}
		fields, exists := s.Get(rec.ID)
		if !exists {
			g.pel.Delete(rec)
			if oldConsumer, ok := g.Consumers[rec.Pending.Consumer]; ok {
				oldConsumer.pending.Delete(rec)
			}
			deletedIDs = append(deletedIDs, rec.ID)
			continue
		}
		if oldConsumer, ok := g.Consumers[rec.Pending.Consumer]; ok {
			oldConsumer.pending.Delete(rec)
		}
		rec.Pending.Consumer = newConsumerName
		rec.Pending.LastDeliveryMs = now
		rec.Pending.TimesDelivered++
		g.pel.ReplaceOrInsert(rec)
		newConsumer.pending.ReplaceOrInsert(rec)
		claimed = append(claimed, StreamEntry{ID: rec.ID, Fields: fields})
	}
	return claimed, deletedIDs, cursor, nil
}

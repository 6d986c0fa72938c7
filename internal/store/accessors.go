package store

import "github.com/netanelrevah/valkeygo/internal/object"

// Typed accessors enforce spec.md §7's WRONGTYPE contract: reading a key as
// the wrong kind is an error, not a zero value, generalizing the teacher's
// manual "if item.Type != X" checks scattered through each handler into one
// place per kind.

func (db *Database) GetList(key string) (*object.List, bool, error) {
	e, ok := db.lookup(key)
	if !ok {
		return nil, false, nil
	}
	if e.Kind != object.KindList {
		return nil, true, ErrWrongType
	}
	return e.List, true, nil
}

func (db *Database) GetHash(key string) (*object.Hash, bool, error) {
	e, ok := db.lookup(key)
	if !ok {
		return nil, false, nil
	}
	if e.Kind != object.KindHash {
		return nil, true, ErrWrongType
	}
	return e.Hash, true, nil
}

func (db *Database) GetSet(key string) (*object.Set, bool, error) {
	e, ok := db.lookup(key)
	if !ok {
		return nil, false, nil
	}
	if e.Kind != object.KindSet {
		return nil, true, ErrWrongType
	}
	return e.Set, true, nil
}

func (db *Database) GetSortedSet(key string) (*object.SortedSet, bool, error) {
	e, ok := db.lookup(key)
	if !ok {
		return nil, false, nil
	}
	if e.Kind != object.KindSortedSet {
		return nil, true, ErrWrongType
	}
	return e.ZSet, true, nil
}

func (db *Database) GetStream(key string) (*object.Entry, bool, error) {
	e, ok := db.lookup(key)
	if !ok {
		return nil, false, nil
	}
	if e.Kind != object.KindStream {
		return nil, true, ErrWrongType
	}
	return e, true, nil
}

func (db *Database) GetStringBytes(key string) ([]byte, bool, error) {
	e, ok := db.lookup(key)
	if !ok {
		return nil, false, nil
	}
	if e.Kind != object.KindString {
		return nil, true, ErrWrongType
	}
	return e.Str, true, nil
}

// GetOrCreateList returns key's List, creating an empty one (and storing it)
// if key is absent. Returns ErrWrongType if key holds a different kind.
func (db *Database) GetOrCreateList(key string) (*object.List, error) {
	e, ok := db.lookup(key)
	if !ok {
		entry := object.NewList()
		db.Set(key, entry)
		return entry.List, nil
	}
	if e.Kind != object.KindList {
		return nil, ErrWrongType
	}
	return e.List, nil
}

func (db *Database) GetOrCreateHash(key string) (*object.Hash, error) {
	e, ok := db.lookup(key)
	if !ok {
		entry := object.NewHash()
		db.Set(key, entry)
		return entry.Hash, nil
	}
	if e.Kind != object.KindHash {
		return nil, ErrWrongType
	}
	return e.Hash, nil
}

func (db *Database) GetOrCreateSet(key string) (*object.Set, error) {
	e, ok := db.lookup(key)
	if !ok {
		entry := object.NewSet()
		db.Set(key, entry)
		return entry.Set, nil
	}
	if e.Kind != object.KindSet {
		return nil, ErrWrongType
	}
	return e.Set, nil
}

func (db *Database) GetOrCreateSortedSet(key string) (*object.SortedSet, error) {
	e, ok := db.lookup(key)
	if !ok {
		entry := object.NewSortedSet()
		db.Set(key, entry)
		return entry.ZSet, nil
	}
	if e.Kind != object.KindSortedSet {
		return nil, ErrWrongType
	}
	return e.ZSet, nil
}

func (db *Database) GetOrCreateStream(key string) (*object.Entry, error) {
	e, ok := db.lookup(key)
	if !ok {
		entry := object.NewStream()
		db.Set(key, entry)
		return entry, nil
	}
	if e.Kind != object.KindStream {
		return nil, ErrWrongType
	}
	return e, nil
}

// MarkDirty bumps key's watch generation without altering its value,
// used after mutating a container in place (list/hash/set/zset/stream
// operations mutate through a pointer obtained via Get*/GetOrCreate*, so the
// Set-driven touch never fires for them).
func (db *Database) MarkDirty(key string) { db.touch(key) }

package machine

// Table is the open-addressing, linear-probing hash table used for string
// interning. Capacity is always a power of two so the probe step can be
// `(i+1) & (cap-1)`; the table grows once load exceeds tableMaxLoad.
//
// Keys are *ObjString identity; an empty bucket has key == nil and its
// tombstone flag clear, a deleted bucket ("tombstone") has key == nil and
// its tombstone flag set. Tombstones count toward count so that growth
// decisions see them, but growth itself rehashes only the live entries and
// resets count to the live count — ported from findEntry/adjustCapacity in
// the reference hash_table.c.
//
// FindString is the sole lookup that does not compare key identity: it
// probes by content hash and byte equality, which is what makes string
// interning possible (VM.newString calls it before allocating).
type Table struct {
	count    int // live entries + tombstones
	entries  []entry
}

type entry struct {
	key   *ObjString
	value Value
	// tombstone distinguishes a deleted bucket (tombstone==true, key==nil)
	// from a never-used one (tombstone==false, key==nil).
	tombstone bool
}

const tableMaxLoad = 0.75

// Get returns the value associated with key, if present.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if t.count == 0 {
		return Value{}, false
	}
	e := t.findEntry(key)
	if e.key == nil {
		return Value{}, false
	}
	return e.value, true
}

// Set inserts or overwrites the value for key. It returns true if this
// inserted a brand new key (as opposed to overwriting an existing one).
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow()
	}
	e := t.findEntry(key)
	isNew := e.key == nil
	if isNew && !e.tombstone {
		t.count++
	}
	e.key = key
	e.value = value
	e.tombstone = false
	return isNew
}

// Delete removes key from the table, leaving a tombstone so that probe
// chains through this bucket remain intact for other keys.
func (t *Table) Delete(key *ObjString) bool {
	if t.count == 0 {
		return false
	}
	e := t.findEntry(key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = Value{}
	e.tombstone = true
	return true
}

// findEntry returns the bucket that does, or should, hold key: the first
// exact match, or else the first empty bucket (preferring a remembered
// tombstone so deleted slots get reused).
func (t *Table) findEntry(key *ObjString) *entry {
	cap := len(t.entries)
	idx := key.Hash & uint32(cap-1)
	var tombstone *entry
	for {
		e := &t.entries[idx]
		if e.key == nil {
			if !e.tombstone {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		idx = (idx + 1) & uint32(cap-1)
	}
}

// FindString looks up an interned string by content rather than identity,
// for use by the compiler and the VM's string-allocation path before they
// decide whether a new ObjString needs to be allocated at all.
func (t *Table) FindString(s string, hash uint32) *ObjString {
	if t.count == 0 {
		return nil
	}
	cap := len(t.entries)
	idx := hash & uint32(cap-1)
	for {
		e := &t.entries[idx]
		if e.key == nil {
			if !e.tombstone {
				return nil
			}
		} else if e.key.Hash == hash && e.key.Chars == s {
			return e.key
		}
		idx = (idx + 1) & uint32(cap-1)
	}
}

func (t *Table) grow() {
	newCap := 8
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	old := t.entries
	t.entries = make([]entry, newCap)
	t.count = 0
	for _, e := range old {
		if e.key == nil {
			continue
		}
		dst := t.findEntry(e.key)
		dst.key = e.key
		dst.value = e.value
		t.count++
	}
}

// removeWhiteStrings prunes every entry whose key's mark bit is clear.
// Called by the collector just before sweeping the heap: because the
// intern table holds weak references, a string with no other roots must
// not be kept alive by virtue of being interned.
func (t *Table) removeWhiteStrings() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.marked {
			e.key = nil
			e.value = Value{}
			e.tombstone = true
		}
	}
}

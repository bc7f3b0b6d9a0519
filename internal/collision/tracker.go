// Package collision tracks content hashes of interned heap entries.
//
// A heap writer hashes every entry it appends and records the entry's offset
// under that hash. Before appending a new entry it asks the tracker for the
// offsets already stored under the same hash and compares the actual bytes,
// so a hash collision costs one extra comparison and never merges distinct
// entries.
package collision

// Tracker maps a content hash to the offsets of the entries that produced it.
type Tracker struct {
	chains       map[uint64][]uint32
	count        int
	hasCollision bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		chains: make(map[uint64][]uint32),
	}
}

// Lookup returns the first offset recorded under hash for which equal reports true.
//
// Parameters:
//   - hash: Content hash of the candidate entry
//   - equal: Compares the candidate with the entry stored at an offset
//
// Returns:
//   - uint32: Offset of the matching entry
//   - bool: Whether a match was found
func (t *Tracker) Lookup(hash uint64, equal func(offset uint32) bool) (uint32, bool) {
	for _, off := range t.chains[hash] {
		if equal(off) {
			return off, true
		}
	}

	return 0, false
}

// Track records offset under hash. A second distinct offset under the same
// hash marks the tracker as having seen a collision.
func (t *Tracker) Track(hash uint64, offset uint32) {
	chain := t.chains[hash]
	if len(chain) > 0 {
		t.hasCollision = true
	}
	t.chains[hash] = append(chain, offset)
	t.count++
}

// HasCollision reports whether two different entries shared a hash.
func (t *Tracker) HasCollision() bool {
	return t.hasCollision
}

// Count returns the number of tracked entries.
func (t *Tracker) Count() int {
	return t.count
}

// Reset clears all tracked entries and keeps the map's capacity.
func (t *Tracker) Reset() {
	clear(t.chains)
	t.count = 0
	t.hasCollision = false
}

// Package dedupe tracks repository ids already considered by a search so
// later rounds only score new candidates.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen repository ids.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded, recording it
	// if not. It is atomic.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a later round may consider it again. Used when
	// a candidate could not be resolved for a transient reason.
	Unrecord(ctx context.Context, id string)

	// Filter returns the ids of batch not seen before, in order, and records
	// them.
	Filter(ctx context.Context, batch []string) []string

	Size() int64
}

// inMemoryDeduper keeps ids in a map. In bounded mode the oldest ids are
// evicted first once maxSize is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]uint64 // id -> insertion sequence
	order   []entry           // insertion order, may hold stale entries
	seq     uint64
	maxSize int
}

// entry is live only while seen[id] still equals seq.
type entry struct {
	id  string
	seq uint64
}

func (d *inMemoryDeduper) live(e entry) bool {
	seq, ok := d.seen[e.id]
	return ok && seq == e.seq
}

// NewInMemoryDeduper creates an empty deduper. It is unbounded unless
// WithMaxSize is given.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{seen: make(map[string]uint64)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recordLocked(id)
}

func (d *inMemoryDeduper) recordLocked(id string) bool {
	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seq++
	d.seen[id] = d.seq
	d.order = append(d.order, entry{id: id, seq: d.seq})
	return false
}

func (d *inMemoryDeduper) Filter(_ context.Context, batch []string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(batch))
	for _, id := range batch {
		if id == "" || d.recordLocked(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
	// stale order entries are skipped by evictOldest; compact when they dominate
	if len(d.order) > 2*len(d.seen)+16 {
		d.compact()
	}
}

// evictOldest drops the earliest live id. Caller holds mu.
func (d *inMemoryDeduper) evictOldest() {
	for len(d.order) > 0 {
		e := d.order[0]
		d.order = d.order[1:]
		if d.live(e) {
			delete(d.seen, e.id)
			return
		}
	}
}

func (d *inMemoryDeduper) compact() {
	kept := make([]entry, 0, len(d.seen))
	for _, e := range d.order {
		if d.live(e) {
			kept = append(kept, e)
		}
	}
	d.order = kept
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}

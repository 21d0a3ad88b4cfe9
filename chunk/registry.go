package chunk

import (
	"sync"

	"github.com/google/btree"
)

// Record describes one mapping that is read-only pending a possible write.
type Record struct {
	Base   uintptr
	Extent uintptr
}

// End returns the first address past the record's range.
func (r Record) End() uintptr { return r.Base + r.Extent }

// Contains reports whether addr lies in [Base, Base+Extent).
func (r Record) Contains(addr uintptr) bool {
	return addr >= r.Base && addr-r.Base < r.Extent
}

func recordLess(a, b Record) bool { return a.Base < b.Base }

const registryDegree = 8

// Registry is the set of read-only mappings awaiting materialization,
// ordered by base address. Ranges of distinct records never overlap, so
// the only candidate for an address is the record with the greatest base
// at or below it.
//
// A base address has at most one record: registering a range that is
// already registered is a no-op.
//
// The mutex keeps the tree consistent. It does not make materialization
// safe across goroutines; see Runtime.
type Registry struct {
	mu   sync.Mutex
	tree *btree.BTreeG[Record]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tree: btree.NewG[Record](registryDegree, recordLess)}
}

// Insert registers each record whose base is not yet registered and
// returns how many were added.
func (g *Registry) Insert(recs ...Record) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	added := 0
	for _, r := range recs {
		if g.tree.Has(r) {
			continue
		}
		g.tree.ReplaceOrInsert(r)
		added++
	}
	return added
}

// Lookup returns the record whose range contains addr.
func (g *Registry) Lookup(addr uintptr) (Record, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var (
		found Record
		ok    bool
	)
	g.tree.DescendLessOrEqual(Record{Base: addr}, func(r Record) bool {
		found, ok = r, r.Contains(addr)
		return false
	})
	if !ok {
		return Record{}, false
	}
	return found, true
}

// Remove drops the record registered at base. It reports whether one existed.
func (g *Registry) Remove(base uintptr) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.tree.Delete(Record{Base: base})
	return ok
}

// Len returns the number of records.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tree.Len()
}

// Records returns a snapshot of all records in address order.
func (g *Registry) Records() []Record {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Record, 0, g.tree.Len())
	g.tree.Ascend(func(r Record) bool {
		out = append(out, r)
		return true
	})
	return out
}

// Clear drops every record.
func (g *Registry) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tree.Clear(false)
}

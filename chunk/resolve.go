package chunk

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
)

// Outcome is the result of resolving one fault.
type Outcome int

const (
	// Resolved means the faulting range now has a private writable copy
	// and the faulting store can be retried.
	Resolved Outcome = iota

	// Unrecoverable means the fault cannot be handled here.
	Unrecoverable
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Unrecoverable:
		return "unrecoverable"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Materializer performs the memory operations of a copy-on-write
// resolution. The OS implementation works on real mappings; tests use
// fakes keyed by synthetic addresses.
type Materializer interface {
	// Snapshot copies len(dst) bytes starting at base into dst.
	Snapshot(base uintptr, dst []byte)

	// Replace installs a fresh zero-filled writable mapping over
	// [base, base+extent) without touching any other mapping.
	Replace(base, extent uintptr) error

	// Restore copies src into the mapping starting at base.
	Restore(base uintptr, src []byte)
}

// Resolver turns a fault address into an Outcome. It holds no OS state of
// its own and can be driven directly with synthetic addresses.
type Resolver struct {
	reg     *Registry
	mat     Materializer
	log     *slog.Logger
	scratch []byte
	lastErr error

	resolved      atomic.Int64
	unrecoverable atomic.Int64
}

// NewResolver returns a resolver over reg. scratchSize preallocates the
// save buffer; larger records grow it on demand.
func NewResolver(reg *Registry, mat Materializer, log *slog.Logger, scratchSize int) *Resolver {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{
		reg:     reg,
		mat:     mat,
		log:     log,
		scratch: make([]byte, scratchSize),
	}
}

// Resolve handles a write fault at addr.
//
// If a record covers addr, the record's range is saved, replaced by a
// fresh writable mapping at the same address, restored, and the record is
// removed. Every other mapping, including ones sharing the old pages, is
// left alone. Otherwise the fault is Unrecoverable.
//
// Resolve must not be called concurrently with stores to the same range.
func (r *Resolver) Resolve(addr uintptr) Outcome {
	rec, ok := r.reg.Lookup(addr)
	if !ok {
		r.lastErr = nil
		r.unrecoverable.Add(1)
		r.log.Debug("fault outside registered ranges", "addr", hexAddr(addr))
		return Unrecoverable
	}

	n := int(rec.Extent)
	if cap(r.scratch) < n {
		r.scratch = make([]byte, n)
	}
	saved := r.scratch[:n]

	// The fixed-address mapping discards the old pages at this range, so
	// the contents must be captured first.
	r.mat.Snapshot(rec.Base, saved)
	if err := r.mat.Replace(rec.Base, rec.Extent); err != nil {
		r.lastErr = err
		r.unrecoverable.Add(1)
		r.log.Error("materialize failed", "addr", hexAddr(addr), "base", hexAddr(rec.Base), "err", err)
		return Unrecoverable
	}
	r.mat.Restore(rec.Base, saved)
	r.reg.Remove(rec.Base)

	r.lastErr = nil
	r.resolved.Add(1)
	r.log.Debug("materialized", "addr", hexAddr(addr), "base", hexAddr(rec.Base), "extent", rec.Extent)
	return Resolved
}

// Err returns the materialization error behind the last Unrecoverable
// outcome, or nil if the address simply was not registered.
func (r *Resolver) Err() error { return r.lastErr }

// Resolved returns how many faults were resolved.
func (r *Resolver) Resolved() int64 { return r.resolved.Load() }

// Unrecoverable returns how many faults could not be resolved.
func (r *Resolver) Unrecoverable() int64 { return r.unrecoverable.Load() }

func hexAddr(a uintptr) string { return fmt.Sprintf("%#x", a) }

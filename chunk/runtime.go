package chunk

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/joshuapare/cowchunk/internal/vm"
)

// Runtime owns the chunks, the lazy-copy registry and the fault trap of
// one copy-on-write domain.
//
// Precondition: a Runtime is single-thread affine. Stores to chunks that
// may be shared (through the Chunk write methods or Guard) and copy calls
// must come from one goroutine at a time. A fault is resolved on the
// goroutine that took it; a second goroutine storing to the same range
// while it is being replaced would fault at an address whose record is
// already gone.
type Runtime struct {
	opts  Options
	log   *slog.Logger
	fatal FatalFunc

	reg  *Registry
	res  *Resolver
	trap trap

	// OS calls that can fail after earlier steps succeeded.
	protect func(addr uintptr, size int, prot vm.Prot) error
	unmap   func(addr uintptr, size int) error

	mu     sync.Mutex
	live   map[uintptr]*Chunk
	closed bool

	allocs      atomic.Int64
	eagerCopies atomic.Int64
	lazyCopies  atomic.Int64
}

// Startup creates a runtime and installs its fault trap. A nil opts uses
// DefaultOptions. It must be called before any lazy copy.
//
// A configuration the trap cannot serve (unsupported platform, chunk size
// that is not a positive multiple of the page size) is a startup failure:
// opts.Fatal is called with ExitStartup, and if it returns, Startup
// returns an error wrapping ErrStartup.
func Startup(opts *Options) (*Runtime, error) {
	o := opts.withDefaults()

	cause := vm.CheckSize(o.ChunkSize)
	if !vm.Supported() {
		cause = vm.ErrUnsupported
	}
	if cause != nil {
		err := fmt.Errorf("%w: chunk size %d: %w", ErrStartup, o.ChunkSize, cause)
		o.Logger.Error("startup failed", "chunk_size", o.ChunkSize, "err", cause)
		o.Fatal(ExitStartup, err)
		return nil, err
	}

	reg := NewRegistry()
	res := NewResolver(reg, osMaterializer{}, o.Logger, o.ChunkSize)
	rt := &Runtime{
		opts:    o,
		log:     o.Logger,
		fatal:   o.Fatal,
		reg:     reg,
		res:     res,
		trap:    trap{res: res},
		protect: vm.Protect,
		unmap:   vm.Unmap,
		live:    make(map[uintptr]*Chunk),
	}
	o.Logger.Debug("runtime started", "chunk_size", o.ChunkSize, "prefault", o.Prefault)
	return rt, nil
}

// ChunkSize returns the size of every chunk of this runtime.
func (rt *Runtime) ChunkSize() int { return rt.opts.ChunkSize }

// Registry exposes the lazy-copy records, mainly for inspection.
func (rt *Runtime) Registry() *Registry { return rt.reg }

// Guard runs fn, resolving copy-on-write faults raised by its stores. fn
// runs again after each resolved fault, so it must be idempotent with
// respect to the chunk bytes it writes: plain stores and copies are.
//
// A fault at an address no record covers calls Options.Fatal with
// ExitFault. A registered fault whose range could not be remapped is a
// denied request and calls Options.Fatal with ExitAlloc. If Fatal returns,
// Guard returns the *FaultError, wrapped in ErrAlloc for the latter.
func (rt *Runtime) Guard(fn func()) error {
	err := rt.trap.run(fn)
	if err == nil {
		return nil
	}
	var fe *FaultError
	if errors.As(err, &fe) && fe.Err != nil {
		return rt.denied("materialize", fe)
	}
	rt.log.Error("unresolvable fault", "err", err)
	rt.fatal(ExitFault, err)
	return err
}

// Alloc returns a new zero-filled, read-write chunk.
//
// If the OS denies the mapping, Options.Fatal is called with ExitAlloc; if
// that returns, Alloc returns an error wrapping ErrAlloc.
func (rt *Runtime) Alloc() (*Chunk, error) {
	if err := rt.checkOpen(); err != nil {
		return nil, err
	}
	size := rt.opts.ChunkSize

	addr, err := vm.MapShared(size)
	if err != nil {
		return nil, rt.denied("alloc", err)
	}
	if rt.opts.Prefault {
		if err := vm.Populate(addr, size); err != nil {
			_ = vm.Unmap(addr, size)
			return nil, rt.denied("prefault", err)
		}
	}

	c := rt.track(addr)
	rt.allocs.Add(1)
	rt.log.Debug("alloc", "addr", hexAddr(addr), "size", size)
	return c, nil
}

// CopyEager returns a new chunk holding a byte-for-byte copy of c. The
// copy never shares pages with c.
func (rt *Runtime) CopyEager(c *Chunk) (*Chunk, error) {
	if err := rt.own(c); err != nil {
		return nil, err
	}
	dst, err := rt.Alloc()
	if err != nil {
		return nil, err
	}
	// dst is fresh and writable; c may be read-only, which is fine for loads.
	copy(dst.mem, c.mem)

	rt.eagerCopies.Add(1)
	rt.log.Debug("copy eager", "src", hexAddr(c.base), "dst", hexAddr(dst.base))
	return dst, nil
}

// CopyLazy returns a new chunk that aliases c's pages. Both c and the new
// chunk become read-only and are registered; the first store to either
// one gives that chunk a private copy and leaves the other as it was.
//
// Any chunk of this runtime can be copied, including one that is already
// a lazy copy or already shared with other copies.
func (rt *Runtime) CopyLazy(c *Chunk) (*Chunk, error) {
	if err := rt.own(c); err != nil {
		return nil, err
	}
	size := rt.opts.ChunkSize

	alias, err := vm.Alias(c.base, size)
	if err != nil {
		return nil, rt.denied("alias", err)
	}
	// A source that is already shared stays read-only whatever happens here.
	wasShared := c.Shared()
	if err := rt.protect(c.base, size, vm.ReadOnly); err != nil {
		_ = rt.unmap(alias, size)
		return nil, rt.denied("protect", err)
	}
	if err := rt.protect(alias, size, vm.ReadOnly); err != nil {
		_ = rt.unmap(alias, size)
		if !wasShared {
			_ = rt.protect(c.base, size, vm.ReadWrite)
		}
		return nil, rt.denied("protect", err)
	}
	rt.reg.Insert(
		Record{Base: c.base, Extent: uintptr(size)},
		Record{Base: alias, Extent: uintptr(size)},
	)

	dst := rt.track(alias)
	rt.lazyCopies.Add(1)
	rt.log.Debug("copy lazy", "src", hexAddr(c.base), "dst", hexAddr(alias), "records", rt.reg.Len())
	return dst, nil
}

// Close unmaps every live chunk and drops all records. Chunks of a closed
// runtime report ErrFreed.
func (rt *Runtime) Close() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return nil
	}
	rt.closed = true

	var firstErr error
	for addr, c := range rt.live {
		if err := rt.unmap(addr, rt.opts.ChunkSize); err != nil && firstErr == nil {
			firstErr = err
		}
		c.release()
		delete(rt.live, addr)
	}
	rt.reg.Clear()
	return firstErr
}

// Stats is a point-in-time summary of a runtime.
type Stats struct {
	ChunkSize       int   `json:"chunk_size"`
	LiveChunks      int   `json:"live_chunks"`
	Records         int   `json:"records"`
	Allocs          int64 `json:"allocs"`
	EagerCopies     int64 `json:"eager_copies"`
	LazyCopies      int64 `json:"lazy_copies"`
	Materialized    int64 `json:"materialized"`
	UnresolvedFault int64 `json:"unresolved_faults"`
}

// Stats returns current counters.
func (rt *Runtime) Stats() Stats {
	rt.mu.Lock()
	live := len(rt.live)
	rt.mu.Unlock()

	return Stats{
		ChunkSize:       rt.opts.ChunkSize,
		LiveChunks:      live,
		Records:         rt.reg.Len(),
		Allocs:          rt.allocs.Load(),
		EagerCopies:     rt.eagerCopies.Load(),
		LazyCopies:      rt.lazyCopies.Load(),
		Materialized:    rt.res.Resolved(),
		UnresolvedFault: rt.res.Unrecoverable(),
	}
}

func (rt *Runtime) checkOpen() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return ErrNotStarted
	}
	return nil
}

// own checks that c is a live chunk of rt.
func (rt *Runtime) own(c *Chunk) error {
	if rt == nil {
		return ErrNotStarted
	}
	if err := rt.checkOpen(); err != nil {
		return err
	}
	if c == nil || c.rt != rt {
		return ErrForeignChunk
	}
	if c.freed() {
		return ErrFreed
	}
	return nil
}

func (rt *Runtime) track(addr uintptr) *Chunk {
	c := &Chunk{rt: rt, base: addr, mem: vm.Bytes(addr, rt.opts.ChunkSize)}
	rt.mu.Lock()
	rt.live[addr] = c
	rt.mu.Unlock()
	return c
}

func (rt *Runtime) untrack(addr uintptr) {
	rt.mu.Lock()
	delete(rt.live, addr)
	rt.mu.Unlock()
}

// denied reports a refused virtual memory request through the fatal hook.
func (rt *Runtime) denied(op string, cause error) error {
	err := fmt.Errorf("%w: %s: %w", ErrAlloc, op, cause)
	rt.log.Error("virtual memory request denied", "op", op, "err", cause)
	rt.fatal(ExitAlloc, err)
	return err
}

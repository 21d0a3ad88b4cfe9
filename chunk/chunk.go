package chunk

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/joshuapare/cowchunk/internal/buf"
)

// Chunk is a handle to one fixed-size mapping owned by a Runtime.
//
// Reads may go through Bytes at any time. Stores must go through the write
// methods (or Runtime.Guard): a lazily copied chunk is read-only until its
// first store is trapped and materialized, and a store outside the trap
// crashes the process.
type Chunk struct {
	rt   *Runtime
	base uintptr
	mem  []byte
	gone atomic.Bool
}

// Addr returns the chunk's base address.
func (c *Chunk) Addr() uintptr { return c.base }

// Size returns the chunk size in bytes.
func (c *Chunk) Size() int { return len(c.mem) }

// Bytes returns a read view of the chunk. Do not store through it.
func (c *Chunk) Bytes() []byte {
	if c.freed() {
		return nil
	}
	return c.mem
}

// Shared reports whether the chunk is still read-only awaiting its first
// store.
func (c *Chunk) Shared() bool {
	if c.freed() {
		return false
	}
	r, ok := c.rt.reg.Lookup(c.base)
	return ok && r.Base == c.base
}

func (c *Chunk) String() string {
	state := "private"
	switch {
	case c.freed():
		state = "freed"
	case c.Shared():
		state = "shared"
	}
	return fmt.Sprintf("chunk@%#x[%d %s]", c.base, len(c.mem), state)
}

// ReadAt implements io.ReaderAt.
func (c *Chunk) ReadAt(p []byte, off int64) (int, error) {
	if c.freed() {
		return 0, ErrFreed
	}
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrRange, off)
	}
	if off >= int64(len(c.mem)) {
		return 0, io.EOF
	}
	n := copy(p, c.mem[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt. A write that does not fit entirely in
// the chunk writes nothing.
func (c *Chunk) WriteAt(p []byte, off int64) (int, error) {
	dst, err := c.window(off, len(p))
	if err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := c.rt.Guard(func() {
		// Fault on a plain store before handing the rest to copy.
		dst[0] = p[0]
		copy(dst, p)
	}); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Uint32At reads the little-endian uint32 at off.
func (c *Chunk) Uint32At(off int) (uint32, error) {
	w, err := c.window(int64(off), 4)
	if err != nil {
		return 0, err
	}
	return buf.U32LE(w), nil
}

// PutUint32At stores v little-endian at off.
func (c *Chunk) PutUint32At(off int, v uint32) error {
	w, err := c.window(int64(off), 4)
	if err != nil {
		return err
	}
	return c.rt.Guard(func() { buf.PutU32LE(w, v) })
}

// Uint64At reads the little-endian word at off.
func (c *Chunk) Uint64At(off int) (uint64, error) {
	w, err := c.window(int64(off), 8)
	if err != nil {
		return 0, err
	}
	return buf.U64LE(w), nil
}

// PutUint64At stores v little-endian at off.
func (c *Chunk) PutUint64At(off int, v uint64) error {
	w, err := c.window(int64(off), 8)
	if err != nil {
		return err
	}
	return c.rt.Guard(func() { buf.PutU64LE(w, v) })
}

// Fill sets every byte of the chunk to b.
func (c *Chunk) Fill(b byte) error {
	if c.freed() {
		return ErrFreed
	}
	mem := c.mem
	return c.rt.Guard(func() {
		for i := range mem {
			mem[i] = b
		}
	})
}

// Update calls fn with a writable view of the whole chunk. fn runs again
// if its first store materializes the chunk, so it must produce the same
// bytes when repeated: assignments and copies are fine, read-modify-write
// of the chunk's own bytes is not.
func (c *Chunk) Update(fn func(b []byte)) error {
	if c.freed() {
		return ErrFreed
	}
	mem := c.mem
	return c.rt.Guard(func() { fn(mem) })
}

// Materialize gives a shared chunk its private writable copy now instead
// of on its first store. It is a no-op for a private chunk.
func (c *Chunk) Materialize() error {
	if err := c.rt.own(c); err != nil {
		return err
	}
	if !c.Shared() {
		return nil
	}
	if c.rt.res.Resolve(c.base) != Resolved {
		return c.rt.denied("materialize", c.rt.res.Err())
	}
	return nil
}

// Free unmaps the chunk and drops its lazy-copy record, if any. Other
// chunks sharing its pages are not affected.
func (c *Chunk) Free() error {
	if err := c.rt.own(c); err != nil {
		return err
	}
	if err := c.rt.unmap(c.base, len(c.mem)); err != nil {
		return fmt.Errorf("chunk: free %#x: %w", c.base, err)
	}
	if r, ok := c.rt.reg.Lookup(c.base); ok && r.Base == c.base {
		c.rt.reg.Remove(c.base)
	}
	c.rt.untrack(c.base)
	c.release()
	c.rt.log.Debug("free", "addr", hexAddr(c.base))
	return nil
}

func (c *Chunk) freed() bool { return c == nil || c.gone.Load() }

func (c *Chunk) release() { c.gone.Store(true) }

// window returns c.mem[off:off+n] after checking liveness and bounds.
func (c *Chunk) window(off int64, n int) ([]byte, error) {
	if c.freed() {
		return nil, ErrFreed
	}
	if off > int64(len(c.mem)) {
		return nil, fmt.Errorf("%w: offset %d beyond %d", ErrRange, off, len(c.mem))
	}
	end, err := buf.CheckRange(len(c.mem), int(off), n)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRange, err)
	}
	return c.mem[off:end], nil
}

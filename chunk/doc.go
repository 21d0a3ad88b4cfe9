// Package chunk provides fixed-size memory chunks with lazy, copy-on-write
// duplication in user space.
//
// # Overview
//
// A chunk is an anonymous shared mapping of Options.ChunkSize bytes. It
// can be copied two ways:
//
//   - CopyEager: allocate a new chunk and copy every byte now.
//   - CopyLazy: map the same physical pages a second time, make both
//     mappings read-only, and record both ranges. Nothing is copied.
//
// The first store to a lazily copied chunk faults. The runtime traps the
// fault, saves the chunk's bytes, maps fresh writable pages at the same
// address, restores the bytes, forgets the record and retries the store.
// Every other mapping of the old pages keeps seeing the old contents.
//
// # Usage
//
//	rt, err := chunk.Startup(nil)
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	c, _ := rt.Alloc()
//	c.WriteAt([]byte("P1"), 0)
//
//	c2, _ := rt.CopyLazy(c)   // c and c2 share pages, both read-only
//	c2.WriteAt([]byte("P2"), 0) // c2 gets a private copy
//
//	// c still reads "P1", c2 reads "P2"
//
// # Range States
//
// Each mapping moves one way only:
//
//	Shared-ReadOnly (recorded, PROT_READ) --first store--> Private-Writable
//
// # Faults
//
// Stores are trapped with runtime/debug.SetPanicOnFault on the storing
// goroutine (see Runtime.Guard). The resolution itself is Resolver.Resolve,
// which only talks to memory through a Materializer and can be tested with
// synthetic addresses.
//
// A fault at an address with no record is a program error. The runtime
// calls Options.Fatal, which by default exits with ExitFault. Denied
// mappings, including a registered range that cannot be remapped while its
// fault is resolved, exit with ExitAlloc. Startup failures exit with
// ExitStartup.
//
// # Thread Safety
//
// A Runtime is single-thread affine: copies and stores to possibly shared
// chunks must come from one goroutine at a time. The registry is locked
// internally, but materialization of a range is not atomic with respect
// to other goroutines storing to that range.
package chunk

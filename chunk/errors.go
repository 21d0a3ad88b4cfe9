package chunk

import (
	"errors"
	"fmt"
)

var (
	// ErrStartup indicates the runtime could not install its fault trap.
	ErrStartup = errors.New("chunk: startup failed")

	// ErrAlloc indicates the OS refused a mapping, alias or protection change.
	ErrAlloc = errors.New("chunk: virtual memory request denied")

	// ErrNotStarted indicates a runtime that was never started or is closed.
	ErrNotStarted = errors.New("chunk: runtime not started")

	// ErrFreed indicates use of a chunk after Free.
	ErrFreed = errors.New("chunk: chunk already freed")

	// ErrForeignChunk indicates a chunk that belongs to another runtime.
	ErrForeignChunk = errors.New("chunk: chunk belongs to a different runtime")

	// ErrRange indicates an offset or length outside the chunk.
	ErrRange = errors.New("chunk: access out of range")
)

// FaultError is reported when a write faults at an address that no
// lazy-copy record covers, or when materializing a registered range fails.
type FaultError struct {
	// Addr is the address at which the fault occurred.
	Addr uintptr

	// Err is the materialization failure, if the address was registered.
	Err error
}

// Error implements error.Error.
func (e *FaultError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chunk: unrecoverable fault at %#x: %v", e.Addr, e.Err)
	}
	return fmt.Sprintf("chunk: segmentation fault at %#x (address not registered)", e.Addr)
}

func (e *FaultError) Unwrap() error { return e.Err }

// Package vm wraps the virtual memory system calls used to build and
// materialize copy-on-write chunks: anonymous shared mappings, fixed-address
// replacement, aliasing through mremap, and protection changes.
//
// Addresses are plain uintptrs. The mappings live outside the Go heap, so
// the garbage collector never moves or frees them; callers own their
// lifetime and must Unmap explicitly.
package vm

import (
	"errors"
	"unsafe"
)

// Prot is a mapping protection.
type Prot int

const (
	// ReadOnly allows loads only. Stores fault.
	ReadOnly Prot = iota
	// ReadWrite allows loads and stores.
	ReadWrite
)

func (p Prot) String() string {
	switch p {
	case ReadOnly:
		return "r--"
	case ReadWrite:
		return "rw-"
	default:
		return "???"
	}
}

// ErrUnsupported is returned on platforms without mremap aliasing.
var ErrUnsupported = errors.New("vm: copy-on-write mappings not supported on this platform")

// ErrBadSize is returned for sizes that are not a positive multiple of the page size.
var ErrBadSize = errors.New("vm: size must be a positive multiple of the page size")

// Bytes returns a byte view of size bytes starting at addr.
// The view is only valid while the mapping at addr is live.
func Bytes(addr uintptr, size int) []byte {
	if addr == 0 || size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}

// CheckSize reports whether size is usable as a mapping length.
func CheckSize(size int) error {
	ps := PageSize()
	if size <= 0 || size%ps != 0 {
		return ErrBadSize
	}
	return nil
}

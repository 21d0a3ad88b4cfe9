//go:build linux

package vm

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Supported reports whether this platform can alias and materialize chunks.
func Supported() bool { return true }

// PageSize returns the OS page size.
func PageSize() int { return os.Getpagesize() }

func unixProt(p Prot) int {
	if p == ReadWrite {
		return unix.PROT_READ | unix.PROT_WRITE
	}
	return unix.PROT_READ
}

// MapShared creates an anonymous, shared, read-write mapping of size bytes
// at an address chosen by the kernel. The pages are zero-filled.
//
// MAP_SHARED is required: mremap can only alias shared mappings.
func MapShared(size int) (uintptr, error) {
	if err := CheckSize(size); err != nil {
		return 0, err
	}
	p, err := unix.MmapPtr(-1, 0, nil, uintptr(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANONYMOUS)
	if err != nil {
		return 0, fmt.Errorf("vm: mmap %d bytes: %w", size, err)
	}
	return uintptr(p), nil
}

// MapFixed replaces whatever is mapped at [addr, addr+size) with a fresh
// zero-filled, shared, read-write anonymous mapping. The old pages are
// dropped from this range only; other mappings of them are untouched.
func MapFixed(addr uintptr, size int) error {
	if err := CheckSize(size); err != nil {
		return err
	}
	p, err := unix.MmapPtr(-1, 0, unsafe.Pointer(addr), uintptr(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANONYMOUS|unix.MAP_FIXED)
	if err != nil {
		return fmt.Errorf("vm: mmap fixed %#x+%d: %w", addr, size, err)
	}
	if uintptr(p) != addr {
		return fmt.Errorf("vm: mmap fixed %#x returned %#x", addr, uintptr(p))
	}
	return nil
}

// Alias creates a second mapping of the pages at [addr, addr+size) and
// returns its address. The kernel picks the new address; it is not
// necessarily near addr.
//
// This is mremap with old_size == 0, which duplicates a shared mapping
// instead of moving it. x/sys/unix.Mremap requires the old slice to have a
// non-zero length, so the raw syscall is used.
func Alias(addr uintptr, size int) (uintptr, error) {
	if err := CheckSize(size); err != nil {
		return 0, err
	}
	r, _, errno := unix.Syscall6(unix.SYS_MREMAP, addr, 0, uintptr(size), unix.MREMAP_MAYMOVE, 0, 0)
	if errno != 0 {
		return 0, fmt.Errorf("vm: mremap alias %#x+%d: %w", addr, size, errno)
	}
	return r, nil
}

// Protect changes the protection of [addr, addr+size).
func Protect(addr uintptr, size int, prot Prot) error {
	if err := unix.Mprotect(Bytes(addr, size), unixProt(prot)); err != nil {
		return fmt.Errorf("vm: mprotect %#x+%d %s: %w", addr, size, prot, err)
	}
	return nil
}

// Unmap removes the mapping at [addr, addr+size).
func Unmap(addr uintptr, size int) error {
	if err := unix.MunmapPtr(unsafe.Pointer(addr), uintptr(size)); err != nil {
		return fmt.Errorf("vm: munmap %#x+%d: %w", addr, size, err)
	}
	return nil
}

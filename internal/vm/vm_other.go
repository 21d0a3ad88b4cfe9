//go:build !linux

package vm

import "os"

// Supported reports whether this platform can alias and materialize chunks.
func Supported() bool { return false }

// PageSize returns the OS page size.
func PageSize() int { return os.Getpagesize() }

// MapShared is not available without mremap aliasing.
func MapShared(size int) (uintptr, error) { return 0, ErrUnsupported }

// MapFixed is not available without mremap aliasing.
func MapFixed(addr uintptr, size int) error { return ErrUnsupported }

// Alias is not available without mremap aliasing.
func Alias(addr uintptr, size int) (uintptr, error) { return 0, ErrUnsupported }

// Protect is not available without mremap aliasing.
func Protect(addr uintptr, size int, prot Prot) error { return ErrUnsupported }

// Unmap is not available without mremap aliasing.
func Unmap(addr uintptr, size int) error { return ErrUnsupported }

// Populate is not available without mremap aliasing.
func Populate(addr uintptr, size int) error { return ErrUnsupported }

//go:build linux

package vm

import (
	"errors"
	"fmt"
	"runtime/debug"

	"golang.org/x/sys/unix"
)

// MADV_POPULATE_WRITE is available since Linux 5.14.
// It pre-faults writable pages and returns an error instead of a signal.
const madvPopulateWrite = 23

// Populate pre-faults every page of a freshly mapped, zero-filled range
// [addr, addr+size) for writing so the first store to a new chunk does not
// take a page fault.
//
// Strategies, in order:
//  1. MADV_POPULATE_WRITE (Linux 5.14+)
//  2. Manual write-through with SetPanicOnFault protection
func Populate(addr uintptr, size int) error {
	if size <= 0 {
		return nil
	}
	data := Bytes(addr, size)

	err := unix.Madvise(data, madvPopulateWrite)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.EINVAL) && !errors.Is(err, unix.ENOSYS) {
		return fmt.Errorf("vm: madvise populate %#x+%d: %w", addr, size, err)
	}
	return manualPopulate(data)
}

// manualPopulate stores a zero to one byte per page. Only call it on fresh
// zero-filled mappings.
func manualPopulate(data []byte) (retErr error) {
	old := debug.SetPanicOnFault(true)
	defer debug.SetPanicOnFault(old)

	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				retErr = fmt.Errorf("vm: fault during populate: %w", err)
			} else {
				retErr = fmt.Errorf("vm: fault during populate: %v", r)
			}
		}
	}()

	ps := PageSize()
	for i := 0; i < len(data); i += ps {
		data[i] = 0
	}
	return nil
}

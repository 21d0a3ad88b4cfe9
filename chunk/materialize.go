package chunk

import (
	"github.com/joshuapare/cowchunk/internal/vm"
)

// osMaterializer resolves faults against real mappings.
type osMaterializer struct{}

func (osMaterializer) Snapshot(base uintptr, dst []byte) {
	copy(dst, vm.Bytes(base, len(dst)))
}

func (osMaterializer) Replace(base, extent uintptr) error {
	return vm.MapFixed(base, int(extent))
}

func (osMaterializer) Restore(base uintptr, src []byte) {
	copy(vm.Bytes(base, len(src)), src)
}

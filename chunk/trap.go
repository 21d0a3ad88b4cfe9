package chunk

import (
	"runtime/debug"
)

// faultAddr is implemented by the runtime.Error raised for memory faults
// while SetPanicOnFault is enabled.
type faultAddr interface {
	Addr() uintptr
}

// trap runs stores with faults turned into panics and hands every fault
// address to a resolver.
type trap struct {
	res *Resolver
}

// run calls fn until it completes without faulting. Each resolved fault
// removes one record, so the loop ends once fn's stores hit only writable
// memory. fn may therefore run more than once and must be idempotent with
// respect to the memory it writes.
func (t *trap) run(fn func()) error {
	for {
		addr, faulted := t.try(fn)
		if !faulted {
			return nil
		}
		if t.res.Resolve(addr) != Resolved {
			return &FaultError{Addr: addr, Err: t.res.Err()}
		}
	}
}

// try runs fn once and reports the fault address if it faulted. Panics
// that are not memory faults propagate unchanged.
func (t *trap) try(fn func()) (addr uintptr, faulted bool) {
	old := debug.SetPanicOnFault(true)
	defer debug.SetPanicOnFault(old)

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		fa, ok := r.(faultAddr)
		if !ok {
			panic(r)
		}
		addr, faulted = fa.Addr(), true
	}()

	fn()
	return 0, false
}

//go:build linux

package chunk

import (
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cowchunk/internal/vm"
)

const faultChildEnv = "COWCHUNK_FAULT_CHILD"

// TestUnregisteredFault_ExitCode re-runs itself in a child process that
// stores to a read-only page the runtime never handed out. The default
// fatal handler must terminate the child with ExitFault.
func TestUnregisteredFault_ExitCode(t *testing.T) {
	if os.Getenv(faultChildEnv) == "1" {
		rt, err := Startup(nil)
		if err != nil {
			os.Exit(90)
		}
		size := vm.PageSize()
		addr, err := vm.MapShared(size)
		if err != nil {
			os.Exit(91)
		}
		if err := vm.Protect(addr, size, vm.ReadOnly); err != nil {
			os.Exit(92)
		}
		b := vm.Bytes(addr, size)
		_ = rt.Guard(func() { b[0] = 1 })
		os.Exit(0)
	}

	if testing.Short() {
		t.Skip("skipping subprocess test in short mode")
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestUnregisteredFault_ExitCode$")
	cmd.Env = append(os.Environ(), faultChildEnv+"=1")
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "child should exit non-zero, got %v\n%s", err, out)
	assert.Equal(t, int(ExitFault), exitErr.ExitCode(), "output:\n%s", out)
	assert.Contains(t, string(out), "address not registered")
}

func TestExitCodesAreDistinct(t *testing.T) {
	codes := map[ExitCode]bool{ExitStartup: true, ExitAlloc: true, ExitFault: true}
	assert.Len(t, codes, 3)
	for c := range codes {
		assert.NotZero(t, int(c))
		assert.NotEqual(t, 1, int(c), "1 is the generic CLI error status")
		assert.NotEqual(t, 2, int(c), "2 is the Go runtime crash status")
	}
	assert.Equal(t, "startup", ExitStartup.String())
	assert.Equal(t, "alloc", ExitAlloc.String())
	assert.Equal(t, "fault", ExitFault.String())
	assert.Equal(t, "exit(9)", ExitCode(9).String())
}

func TestDenied_ReportsAllocExit(t *testing.T) {
	rt, rec := newTestRuntime(t, nil)
	cause := errors.New("cannot allocate memory")

	err := rt.denied("alias", cause)
	assert.ErrorIs(t, err, ErrAlloc)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "alias")
	assert.Equal(t, []ExitCode{ExitAlloc}, rec.codes)
}

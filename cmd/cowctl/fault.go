package main

import (
	"fmt"

	"github.com/joshuapare/cowchunk/chunk"
	"github.com/joshuapare/cowchunk/internal/logger"
	"github.com/joshuapare/cowchunk/internal/vm"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newFaultCmd())
}

func newFaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fault",
		Short: "Store to memory the runtime does not own and exit with the fault status",
		Long: `The fault command maps a read-only page outside the runtime and stores to
it through the runtime's fault trap. No lazy-copy record covers the page, so
the fault is unrecoverable and the process exits with status 5.

Example:
  cowctl fault; echo $?`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFault()
		},
	}
}

func runFault() error {
	rt, err := chunk.Startup(runtimeOptions())
	if err != nil {
		return fmt.Errorf("failed to start runtime: %w", err)
	}
	defer rt.Close()

	size := vm.PageSize()
	addr, err := vm.MapShared(size)
	if err != nil {
		return err
	}
	if err := vm.Protect(addr, size, vm.ReadOnly); err != nil {
		return err
	}
	page := vm.Bytes(addr, size)

	printVerbose("storing to unregistered page %#x\n", addr)
	logger.Warn("storing to unregistered page", "addr", fmt.Sprintf("%#x", addr))
	// The default fatal handler exits with chunk.ExitFault.
	return rt.Guard(func() { page[0] = 1 })
}

package chunk

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// DefaultChunkSize is the size of every chunk unless Options overrides it.
const DefaultChunkSize = 64 * 1024

// ExitCode is the process status used when a fatal condition terminates
// the program. Each fatal condition has its own code, and none collides
// with 1 (generic error) or 2 (Go runtime crash).
type ExitCode int

const (
	// ExitStartup: the fault trap could not be installed.
	ExitStartup ExitCode = 3

	// ExitAlloc: the OS denied a mapping, alias or protection change.
	ExitAlloc ExitCode = 4

	// ExitFault: a write faulted at an address no record covers.
	ExitFault ExitCode = 5
)

func (c ExitCode) String() string {
	switch c {
	case ExitStartup:
		return "startup"
	case ExitAlloc:
		return "alloc"
	case ExitFault:
		return "fault"
	default:
		return fmt.Sprintf("exit(%d)", int(c))
	}
}

// FatalFunc handles a fatal condition. The default logs err and exits the
// process with code. If a FatalFunc returns, the operation that hit the
// condition returns err to its caller.
type FatalFunc func(code ExitCode, err error)

// Options configures a Runtime.
type Options struct {
	// ChunkSize is the size of every chunk in bytes. It must be a positive
	// multiple of the OS page size.
	// Default: DefaultChunkSize (64 KiB)
	ChunkSize int

	// Prefault populates the pages of each new chunk at allocation time.
	// Default: false
	Prefault bool

	// Logger receives debug records for allocations, copies and
	// materializations, and an error record for every fatal condition.
	// Default: discard
	Logger *slog.Logger

	// Fatal is called for startup failures, denied mappings and
	// unresolvable faults.
	// Default: log to Stderr and os.Exit(code)
	Fatal FatalFunc
}

// DefaultOptions returns the options used when Startup is given nil.
func DefaultOptions() *Options {
	return &Options{
		ChunkSize: DefaultChunkSize,
	}
}

func (o *Options) withDefaults() Options {
	out := *DefaultOptions()
	if o != nil {
		out = *o
	}
	if out.ChunkSize == 0 {
		out.ChunkSize = DefaultChunkSize
	}
	if out.Logger == nil {
		out.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if out.Fatal == nil {
		out.Fatal = exitFatal(os.Stderr)
	}
	return out
}

// exitFatal prints a one-line diagnostic and terminates the process.
func exitFatal(w io.Writer) FatalFunc {
	return func(code ExitCode, err error) {
		fmt.Fprintf(w, "cowchunk: %s: %v\n", code, err)
		os.Exit(int(code))
	}
}

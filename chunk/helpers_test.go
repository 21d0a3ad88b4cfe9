package chunk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// fatalRecorder captures fatal conditions instead of exiting.
type fatalRecorder struct {
	codes []ExitCode
	errs  []error
}

func (f *fatalRecorder) hook(code ExitCode, err error) {
	f.codes = append(f.codes, code)
	f.errs = append(f.errs, err)
}

// newTestRuntime starts a runtime whose fatal conditions are recorded.
func newTestRuntime(t testing.TB, opts *Options) (*Runtime, *fatalRecorder) {
	t.Helper()
	rec := &fatalRecorder{}
	if opts == nil {
		opts = DefaultOptions()
	}
	opts.Fatal = rec.hook

	rt, err := Startup(opts)
	require.NoError(t, err, "Startup should succeed")
	t.Cleanup(func() { _ = rt.Close() })
	return rt, rec
}

// pattern returns a chunk-sized buffer filled with a repeating seed-derived pattern.
func pattern(size int, seed byte) []byte {
	p := make([]byte, size)
	for i := range p {
		p[i] = seed ^ byte(i*7)
	}
	return p
}

// requireContents fails unless c holds exactly want.
func requireContents(t testing.TB, c *Chunk, want []byte, msgAndArgs ...any) {
	t.Helper()
	if !bytes.Equal(c.Bytes(), want) {
		require.Fail(t, "chunk contents differ", msgAndArgs...)
	}
}

package chunk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	assert.Equal(t, DefaultChunkSize, o.ChunkSize)
	assert.False(t, o.Prefault)

	filled := (*Options)(nil).withDefaults()
	assert.Equal(t, DefaultChunkSize, filled.ChunkSize)
	assert.NotNil(t, filled.Logger)
	assert.NotNil(t, filled.Fatal)
}

func TestStartup_BadChunkSize(t *testing.T) {
	for _, size := range []int{-4096, 1000, 4097} {
		rec := &fatalRecorder{}
		rt, err := Startup(&Options{ChunkSize: size, Fatal: rec.hook})
		require.Error(t, err, "size %d", size)
		assert.Nil(t, rt)
		assert.ErrorIs(t, err, ErrStartup)
		assert.Equal(t, []ExitCode{ExitStartup}, rec.codes)
	}
}

func TestFaultError(t *testing.T) {
	plain := &FaultError{Addr: 0x1000}
	assert.Equal(t, "chunk: segmentation fault at 0x1000 (address not registered)", plain.Error())
	assert.Nil(t, errors.Unwrap(plain))

	cause := errors.New("ENOMEM")
	wrapped := &FaultError{Addr: 0x2000, Err: cause}
	assert.Contains(t, wrapped.Error(), "unrecoverable fault at 0x2000")
	assert.ErrorIs(t, wrapped, cause)
}

package chunk

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testExtent = 0x10000

func TestRecord_ContainsIsHalfOpen(t *testing.T) {
	r := Record{Base: 0x40000, Extent: testExtent}

	assert.True(t, r.Contains(0x40000), "base is inside")
	assert.True(t, r.Contains(0x4ffff), "last byte is inside")
	assert.False(t, r.Contains(0x50000), "base+extent is outside")
	assert.False(t, r.Contains(0x3ffff), "byte before base is outside")
	assert.Equal(t, uintptr(0x50000), r.End())
}

func TestRegistry_InsertLookupRemove(t *testing.T) {
	g := NewRegistry()
	a := Record{Base: 0x100000, Extent: testExtent}
	b := Record{Base: 0x300000, Extent: testExtent}

	require.Equal(t, 2, g.Insert(a, b))
	require.Equal(t, 2, g.Len())

	got, ok := g.Lookup(0x100000 + 123)
	require.True(t, ok)
	assert.Equal(t, a, got)

	got, ok = g.Lookup(0x300000 + testExtent - 1)
	require.True(t, ok)
	assert.Equal(t, b, got)

	_, ok = g.Lookup(0x200000)
	assert.False(t, ok, "gap between records")
	_, ok = g.Lookup(0x100000 + testExtent)
	assert.False(t, ok, "end of a is exclusive")
	_, ok = g.Lookup(0x1000)
	assert.False(t, ok, "below every record")

	assert.True(t, g.Remove(a.Base))
	assert.False(t, g.Remove(a.Base), "second remove finds nothing")
	_, ok = g.Lookup(0x100000)
	assert.False(t, ok)

	got, ok = g.Lookup(0x300000)
	require.True(t, ok, "sibling record is untouched")
	assert.Equal(t, b, got)
}

func TestRegistry_DuplicateBaseIsOneRecord(t *testing.T) {
	g := NewRegistry()
	src := Record{Base: 0x100000, Extent: testExtent}

	// Two lazy copies of the same source register src twice.
	assert.Equal(t, 2, g.Insert(src, Record{Base: 0x200000, Extent: testExtent}))
	assert.Equal(t, 1, g.Insert(src, Record{Base: 0x300000, Extent: testExtent}))
	assert.Equal(t, 3, g.Len())

	assert.True(t, g.Remove(src.Base))
	_, ok := g.Lookup(src.Base)
	assert.False(t, ok)
	_, ok = g.Lookup(0x200000)
	assert.True(t, ok, "other copies keep their records")
	_, ok = g.Lookup(0x300000)
	assert.True(t, ok)
}

func TestRegistry_RecordsInAddressOrder(t *testing.T) {
	g := NewRegistry()
	g.Insert(
		Record{Base: 0x900000, Extent: testExtent},
		Record{Base: 0x100000, Extent: testExtent},
		Record{Base: 0x500000, Extent: testExtent},
	)

	want := []Record{
		{Base: 0x100000, Extent: testExtent},
		{Base: 0x500000, Extent: testExtent},
		{Base: 0x900000, Extent: testExtent},
	}
	if diff := cmp.Diff(want, g.Records()); diff != "" {
		t.Fatalf("Records() mismatch (-want +got):\n%s", diff)
	}

	g.Clear()
	assert.Zero(t, g.Len())
	assert.Empty(t, g.Records())
}

func TestRegistry_VariableExtents(t *testing.T) {
	g := NewRegistry()
	small := Record{Base: 0x100000, Extent: 0x1000}
	large := Record{Base: 0x200000, Extent: 0x40000}
	g.Insert(small, large)

	_, ok := g.Lookup(0x101000)
	assert.False(t, ok, "just past the small record")
	got, ok := g.Lookup(0x23ffff)
	require.True(t, ok)
	assert.Equal(t, large, got)
}

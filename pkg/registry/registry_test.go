package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct{ name string }

func (f fakeDevice) DeviceName() string { return f.name }

func TestAddFindRemove(t *testing.T) {
	r := New[fakeDevice]()
	require.NoError(t, r.Add(fakeDevice{name: "SEP001"}))

	d, ok := r.Find("SEP001")
	assert.True(t, ok)
	assert.Equal(t, "SEP001", d.name)

	assert.True(t, r.Remove("SEP001"))
	assert.False(t, r.Remove("SEP001"))
	_, ok = r.Find("SEP001")
	assert.False(t, ok)
}

func TestAddTwiceReturnsAlreadyPresent(t *testing.T) {
	r := New[fakeDevice]()
	require.NoError(t, r.Add(fakeDevice{name: "SEP001"}))
	assert.ErrorIs(t, r.Add(fakeDevice{name: "SEP001"}), ErrAlreadyPresent)
}

func TestForEachAndSnapshot(t *testing.T) {
	r := New[fakeDevice]()
	require.NoError(t, r.Add(fakeDevice{name: "a"}))
	require.NoError(t, r.Add(fakeDevice{name: "b"}))

	var seen []string
	r.ForEach(func(d fakeDevice) { seen = append(seen, d.name) })
	assert.Len(t, seen, 2)
	assert.Len(t, r.Snapshot(), 2)
	assert.Equal(t, 2, r.Len())
}

func TestCompleteFiltersByPrefix(t *testing.T) {
	r := New[fakeDevice]()
	require.NoError(t, r.Add(fakeDevice{name: "SEP001"}))
	require.NoError(t, r.Add(fakeDevice{name: "SEP002"}))
	require.NoError(t, r.Add(fakeDevice{name: "ATA100"}))

	names := r.Complete("SEP")
	assert.Equal(t, []string{"SEP001", "SEP002"}, names)
}

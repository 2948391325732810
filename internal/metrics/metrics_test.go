package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestCountersAreReadable(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Fault()
	m.Fault()
	m.Panic()
	m.Registered()

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.DeviceFaultCount)
	assert.Equal(t, uint64(1), s.DevicePanicCount)
	assert.Equal(t, uint64(1), s.Registrations)
	assert.False(t, s.DeviceFaultLast.IsZero())
	assert.False(t, s.DevicePanicLast.IsZero())
}

func TestZeroSnapshotHasNoTimestamps(t *testing.T) {
	m := New(nil)
	s := m.Snapshot()
	assert.Zero(t, s.DeviceFaultCount)
	assert.True(t, s.DeviceFaultLast.IsZero())
}

package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndReceive(t *testing.T) {
	q := New(4)
	require.NoError(t, q.Put(Command{Name: "ring"}))
	cmd := <-q.C()
	assert.Equal(t, "ring", cmd.Name)
}

func TestPutAfterCloseFails(t *testing.T) {
	q := New(1)
	q.Close()
	assert.ErrorIs(t, q.Put(Command{Name: "x"}), ErrClosed)
	assert.True(t, q.Closed())
}

func TestTryPutFailsWhenFull(t *testing.T) {
	q := New(1)
	assert.True(t, q.TryPut(Command{Name: "a"}))
	assert.False(t, q.TryPut(Command{Name: "b"}))
}

func TestCloseIsIdempotent(t *testing.T) {
	q := New(1)
	q.Close()
	assert.NotPanics(t, func() { q.Close() })
}

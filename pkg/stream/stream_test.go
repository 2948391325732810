package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinnycore/sccp/pkg/wire"
)

func TestPopSingleFrame(t *testing.T) {
	d := New()
	frame := wire.EncodeFrame(&wire.KeepAlive{})
	require.NoError(t, d.Feed(frame))

	msg, err := d.Pop()
	require.NoError(t, err)
	assert.Equal(t, wire.IDKeepAlive, msg.MessageID())

	_, err = d.Pop()
	assert.ErrorIs(t, err, ErrNoMsg)
}

func TestPopAcrossMultipleFeeds(t *testing.T) {
	d := New()
	frame := wire.EncodeFrame(&wire.Register{Name: "SEP0000", ProtoVersion: 17})
	require.NoError(t, d.Feed(frame[:5]))
	_, err := d.Pop()
	assert.ErrorIs(t, err, ErrNoMsg)

	require.NoError(t, d.Feed(frame[5:]))
	msg, err := d.Pop()
	require.NoError(t, err)
	reg, ok := msg.(*wire.Register)
	require.True(t, ok)
	assert.Equal(t, "SEP0000", reg.Name)
}

func TestPopTwoFramesBackToBack(t *testing.T) {
	d := New()
	f1 := wire.EncodeFrame(&wire.Onhook{LineInstance: 1})
	f2 := wire.EncodeFrame(&wire.Offhook{LineInstance: 1})
	require.NoError(t, d.Feed(append(f1, f2...)))

	msg1, err := d.Pop()
	require.NoError(t, err)
	assert.Equal(t, wire.IDOnhook, msg1.MessageID())

	msg2, err := d.Pop()
	require.NoError(t, err)
	assert.Equal(t, wire.IDOffhook, msg2.MessageID())
}

func TestFeedCompactsInsteadOfWedging(t *testing.T) {
	d := New()
	filler := wire.EncodeFrame(&wire.KeepAlive{})
	for i := 0; i < 300; i++ {
		require.NoError(t, d.Feed(filler))
		_, err := d.Pop()
		require.NoError(t, err)
	}
	// after many pop cycles start would have walked past BufferSize on a
	// non-compacting buffer; confirm we can still feed a large frame.
	big := wire.EncodeFrame(&wire.Alarm{Display: "still alive"})
	assert.NoError(t, d.Feed(big))
	msg, err := d.Pop()
	require.NoError(t, err)
	assert.Equal(t, wire.IDAlarm, msg.MessageID())
}

func TestFeedReturnsFullWhenOversized(t *testing.T) {
	d := New()
	err := d.Feed(make([]byte, BufferSize+1))
	assert.ErrorIs(t, err, ErrFull)
}

func TestCloseRejectsFurtherUse(t *testing.T) {
	d := New()
	d.Close()
	assert.ErrorIs(t, d.Feed([]byte{1}), ErrEOF)
	_, err := d.Pop()
	assert.ErrorIs(t, err, ErrEOF)
}

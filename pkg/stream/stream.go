// Package stream reassembles a byte stream from a session's TCP socket
// into whole SCCP frames. The buffer keeps its data contiguous (start/end
// cursors over a flat array) and compacts on Feed rather than wrapping a
// write cursor around a ring, so a partial frame parked at the end of the
// array can never wedge the stream with a spurious full condition.
package stream

import (
	"errors"

	"github.com/skinnycore/sccp/pkg/wire"
)

// BufferSize matches the ~3 KiB maximum SCCP frame size.
const BufferSize = 3072

var (
	// ErrFull is returned by Feed when the buffer has no room left and no
	// complete frame can be popped to make room.
	ErrFull = errors.New("stream: buffer full")
	// ErrNoMsg is returned by Pop when the buffer holds fewer bytes than a
	// complete frame.
	ErrNoMsg = errors.New("stream: no complete message buffered")
	// ErrEOF marks a deserializer that has been closed with Close.
	ErrEOF = errors.New("stream: closed")
)

// Deserializer accumulates bytes read from a connection and yields whole
// decoded messages. It is not safe for concurrent use; pkg/session owns
// exactly one per connection and drives it from a single goroutine.
type Deserializer struct {
	buf        [BufferSize]byte
	start, end int
	closed     bool
}

func New() *Deserializer {
	return &Deserializer{}
}

// Feed appends newly read bytes to the internal buffer, compacting first
// if the tail is exhausted or there isn't room. It returns ErrFull if data
// still doesn't fit after compaction, and ErrEOF if the stream is closed.
func (d *Deserializer) Feed(data []byte) error {
	if d.closed {
		return ErrEOF
	}
	if len(data) == 0 {
		return nil
	}
	d.compact()
	if d.end+len(data) > len(d.buf) {
		return ErrFull
	}
	copy(d.buf[d.end:], data)
	d.end += len(data)
	return nil
}

// compact shifts buffered-but-unread bytes down to index 0, reclaiming the
// space already consumed by prior Pop calls.
func (d *Deserializer) compact() {
	if d.start == 0 {
		return
	}
	n := copy(d.buf[:], d.buf[d.start:d.end])
	d.start = 0
	d.end = n
}

// Pop decodes and removes one whole message from the front of the buffer.
// It returns ErrNoMsg if the buffer does not yet hold a complete frame,
// wire.ErrMalformed/ErrTooLarge if the header is invalid, or a decode
// error from the message's own Decode method.
func (d *Deserializer) Pop() (wire.Message, error) {
	if d.closed {
		return nil, ErrEOF
	}
	avail := d.end - d.start
	if avail < wire.HeaderLen {
		return nil, ErrNoMsg
	}
	hdr, err := wire.DecodeHeader(d.buf[d.start:d.end])
	if err != nil {
		return nil, err
	}
	frameLen := wire.HeaderLen + int(hdr.Length) - 4
	if avail < frameLen {
		return nil, ErrNoMsg
	}
	body := d.buf[d.start+wire.HeaderLen : d.start+frameLen]
	msg, err := wire.Decode(hdr.ID, body)
	d.start += frameLen
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Close marks the deserializer unusable; subsequent Feed/Pop calls return
// ErrEOF. Buffered-but-undecoded bytes are discarded.
func (d *Deserializer) Close() {
	d.closed = true
	d.start, d.end = 0, 0
}

// Buffered reports how many bytes are waiting to be decoded.
func (d *Deserializer) Buffered() int {
	return d.end - d.start
}

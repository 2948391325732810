// Package queue carries commands from arbitrary goroutines into a
// session's single owning goroutine: instead of writing a wakeup byte to
// an eventfd that a poll() loop selects on, the session's select loop
// reads directly off a buffered channel.
package queue

import "errors"

// ErrClosed is returned by Put once the queue has been closed.
var ErrClosed = errors.New("queue: closed")

// Command is an instruction handed from another goroutine (the telephony
// host, an admin command, a timer callback) to a session's single owning
// goroutine, which is the only one allowed to touch that session's state.
type Command struct {
	Name string
	Data any
}

// Queue is a bounded, closeable FIFO of Commands. Put is safe to call from
// any goroutine; the channel itself is the only synchronization needed.
type Queue struct {
	ch     chan Command
	closed chan struct{}
}

// New creates a queue with the given channel capacity.
func New(capacity int) *Queue {
	return &Queue{
		ch:     make(chan Command, capacity),
		closed: make(chan struct{}),
	}
}

// C exposes the receive side for use directly in a select statement.
func (q *Queue) C() <-chan Command {
	return q.ch
}

// Put enqueues cmd, blocking if the queue is full. Returns ErrClosed if
// the queue has been closed; never blocks forever past Close.
func (q *Queue) Put(cmd Command) error {
	select {
	case <-q.closed:
		return ErrClosed
	default:
	}
	select {
	case q.ch <- cmd:
		return nil
	case <-q.closed:
		return ErrClosed
	}
}

// TryPut enqueues cmd without blocking, reporting false if the queue is
// full or closed.
func (q *Queue) TryPut(cmd Command) bool {
	select {
	case <-q.closed:
		return false
	default:
	}
	select {
	case q.ch <- cmd:
		return true
	default:
		return false
	}
}

// Close marks the queue closed; further Put calls fail. The data channel
// itself is left open so a Put racing Close can never hit a closed-channel
// send; commands still buffered are simply never drained once the owner
// stops selecting.
func (q *Queue) Close() {
	select {
	case <-q.closed:
	default:
		close(q.closed)
	}
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	select {
	case <-q.closed:
		return true
	default:
		return false
	}
}

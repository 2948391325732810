// Package mock provides an in-memory telephony.Host for tests: a
// mutex-guarded struct that holds the single registered listener per
// line and drives it synchronously from whatever goroutine calls in,
// rather than simulating a real network hop.
package mock

import (
	"context"
	"sync"

	"github.com/skinnycore/sccp/pkg/telephony"
)

// Host is a fake telephony.Host. Tests configure dial-plan membership
// with AddExtension, offer incoming calls with Offer and set mailbox
// state with SetMessagesWaiting; it records the call-control verbs
// invoked against it in Calls for assertions (SetForwardAll is only
// stored, not recorded).
type Host struct {
	mu         sync.Mutex
	listeners  map[string]telephony.Listener
	extensions map[string]bool
	forwards   map[string]string
	mailboxes  map[string]string // line -> subscribed mailbox
	nextCallID int
	Calls      []string
}

func New() *Host {
	return &Host{
		listeners:  make(map[string]telephony.Listener),
		extensions: make(map[string]bool),
		forwards:   make(map[string]string),
		mailboxes:  make(map[string]string),
	}
}

// AddExtension marks number as reachable from line.
func (h *Host) AddExtension(line, number string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.extensions[line+">"+number] = true
}

func (h *Host) Subscribe(line string, l telephony.Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners[line] = l
}

func (h *Host) Unsubscribe(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.listeners, line)
}

func (h *Host) Originate(_ context.Context, line, number string) (telephony.CallID, telephony.Disposition, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Calls = append(h.Calls, "originate:"+line+":"+number)
	if !h.extensions[line+">"+number] {
		return "", telephony.DispositionNoSuchExtension, nil
	}
	h.nextCallID++
	return telephony.CallID(itoa(h.nextCallID)), telephony.DispositionOK, nil
}

func (h *Host) Answer(_ context.Context, line string, call telephony.CallID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Calls = append(h.Calls, "answer:"+line+":"+string(call))
	return nil
}

func (h *Host) Hangup(_ context.Context, line string, call telephony.CallID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Calls = append(h.Calls, "hangup:"+line+":"+string(call))
	return nil
}

func (h *Host) Hold(_ context.Context, line string, call telephony.CallID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Calls = append(h.Calls, "hold:"+line+":"+string(call))
	return nil
}

func (h *Host) Resume(_ context.Context, line string, call telephony.CallID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Calls = append(h.Calls, "resume:"+line+":"+string(call))
	return nil
}

func (h *Host) Transfer(_ context.Context, line string, active, consult telephony.CallID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Calls = append(h.Calls, "transfer:"+line+":"+string(active)+">"+string(consult))
	return nil
}

func (h *Host) SetForwardAll(_ context.Context, line, target string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if target == "" {
		delete(h.forwards, line)
	} else {
		h.forwards[line] = target
	}
	return nil
}

func (h *Host) SendDigit(_ context.Context, line string, call telephony.CallID, digit byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Calls = append(h.Calls, "digit:"+line+":"+string(call)+":"+string([]byte{digit}))
	return nil
}

func (h *Host) SubscribeMWI(_ context.Context, line, mailbox string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mailboxes[line] = mailbox
	h.Calls = append(h.Calls, "mwi-subscribe:"+line+":"+mailbox)
	return nil
}

// SetMessagesWaiting synchronously delivers an EventMWI to line's
// listener, as a real Host would when the subscribed mailbox changes;
// returns false if nothing is subscribed.
func (h *Host) SetMessagesWaiting(line string, waiting bool) bool {
	h.mu.Lock()
	l := h.listeners[line]
	_, subscribed := h.mailboxes[line]
	h.mu.Unlock()
	if l == nil || !subscribed {
		return false
	}
	l.HandleTelephonyEvent(telephony.Event{Type: telephony.EventMWI, Line: line, MessagesWaiting: waiting})
	return true
}

// Offer synchronously delivers an incoming-call event to line's
// registered listener, as a real Host would after its own dial-plan
// match; returns false if nothing is subscribed.
func (h *Host) Offer(line string, callID telephony.CallID, name, number string) bool {
	h.mu.Lock()
	l := h.listeners[line]
	h.mu.Unlock()
	if l == nil {
		return false
	}
	l.HandleTelephonyEvent(telephony.Event{Type: telephony.EventIncomingCall, Line: line, Call: callID, Name: name, Number: number})
	return true
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

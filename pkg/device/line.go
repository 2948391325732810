package device

import "github.com/skinnycore/sccp/pkg/telephony"

// Direction is which end originated a subchannel.
type Direction int

const (
	DirectionIncoming Direction = iota
	DirectionOutgoing
)

// CallState is a subchannel's position in the SCCP call model.
type CallState uint32

const (
	CallStateOffhook    CallState = 1
	CallStateOnhook     CallState = 2
	CallStateRingOut    CallState = 3
	CallStateRingIn     CallState = 4
	CallStateConnected  CallState = 5
	CallStateBusy       CallState = 6
	CallStateCongestion CallState = 7
	CallStateHold       CallState = 8
	CallStateProgress   CallState = 12
	CallStateInvalid    CallState = 14
)

// ForwardState is a line's call-forward-all cycle position.
type ForwardState int

const (
	ForwardInactive ForwardState = iota
	ForwardCapturing
	ForwardActive
)

// Subchannel is one active or held call occupying a Line.
// Not safe for concurrent use; owned exclusively by its Device's session
// goroutine.
type Subchannel struct {
	ID         uint32
	Direction  Direction
	State      CallState
	CallID     telephony.CallID // handle given by the host, zero value until originate/offer completes
	Related    *Subchannel      // symmetric back-reference used for attended transfer

	// Media negotiation.
	OpenReceivePending bool
	RemoteRTPIP        uint32
	RemoteRTPPort      uint32

	// CallingName/CallingNumber/CalledName/CalledNumber feed CALL_INFO.
	CallingName   string
	CallingNumber string
	CalledName    string
	CalledNumber  string
}

// Line is a configured directory-number endpoint bound to exactly one
// Device button.
type Line struct {
	Name       string
	Instance   int // 1-based, position within the owning device's Lines
	CIDName    string
	CIDNum     string
	Context    string

	nextCallID uint32
	Subchans   []*Subchannel
	Active     *Subchannel // the subchannel currently on the call plane, if any

	Forward       ForwardState
	ForwardNumber string
}

// NewLine constructs a Line bound at the given 1-based instance.
func NewLine(name string, instance int) *Line {
	return &Line{Name: name, Instance: instance}
}

// NewSubchannel allocates a Subchannel with the line's next monotonic
// call ID and adds it to the line's collection.
func (l *Line) NewSubchannel(dir Direction) *Subchannel {
	l.nextCallID++
	sc := &Subchannel{ID: l.nextCallID, Direction: dir, State: CallStateOnhook}
	l.Subchans = append(l.Subchans, sc)
	return sc
}

// RemoveSubchannel detaches sc from the line, clearing the active
// pointer if sc was active and nulling both sides of any related-pair
// back-reference.
func (l *Line) RemoveSubchannel(sc *Subchannel) {
	if l.Active == sc {
		l.Active = nil
	}
	if sc.Related != nil {
		sc.Related.Related = nil
		sc.Related = nil
	}
	for i, s := range l.Subchans {
		if s == sc {
			l.Subchans = append(l.Subchans[:i], l.Subchans[i+1:]...)
			return
		}
	}
}

// Held returns every subchannel on the line currently in CallStateHold.
func (l *Line) Held() []*Subchannel {
	var held []*Subchannel
	for _, sc := range l.Subchans {
		if sc.State == CallStateHold {
			held = append(held, sc)
		}
	}
	return held
}

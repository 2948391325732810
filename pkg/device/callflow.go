package device

import (
	"context"
	"time"

	"github.com/skinnycore/sccp/pkg/telephony"
	"github.com/skinnycore/sccp/pkg/wire"
)

// Tone/lamp/ringer/speaker codes, matching the SCCP_TONE_*/SCCP_LAMP_*/
// SCCP_RING_*/SCCP_SPEAKER* wire values.
const (
	toneSilence  uint32 = 0x00
	toneDial     uint32 = 0x21
	toneBusy     uint32 = 0x23
	toneAlert    uint32 = 0x24
	toneReorder  uint32 = 0x25
	toneCallWait uint32 = 0x2D
	toneNone     uint32 = 0x7F

	lampOff   uint32 = 1
	lampOn    uint32 = 2
	lampWink  uint32 = 3
	lampFlash uint32 = 4
	lampBlink uint32 = 5

	ringOff     uint32 = 1
	ringInside  uint32 = 2
	ringOutside uint32 = 3

	speakerOn  uint32 = 1
	speakerOff uint32 = 2
)

// defaultMaxDigits bounds the dialed-digit buffer when a Binding leaves
// MaxDigits unset.
const defaultMaxDigits = 24

// dialRetryInterval is how often the digit-match task re-checks the
// buffer against the dial plan while the line is offhook.
const dialRetryInterval = 500 * time.Millisecond

// defaultDialTimeoutSecs applies when a device config leaves dialtimeout
// unset.
const defaultDialTimeoutSecs = 10

// dialRetryLimit is the device's digit-match retry cap: dialtimeout
// seconds at the 500ms cadence, i.e. dialtimeout x 2 iterations.
func (d *Device) dialRetryLimit() int {
	secs := d.binding.DialTimeout
	if secs <= 0 {
		secs = defaultDialTimeoutSecs
	}
	return secs * 2
}

func digitFromButton(button uint32) byte {
	switch {
	case button == 14:
		return '*'
	case button == 15:
		return '#'
	case button <= 9:
		return byte('0' + button)
	default:
		return 0
	}
}

// taskKey namespaces sched.Runner keys per line so two lines on the same
// device never collide.
type taskKey struct {
	line int
	kind string
}

func (d *Device) findByCallID(l *Line, callID uint32) *Subchannel {
	for _, sc := range l.Subchans {
		if sc.ID == callID {
			return sc
		}
	}
	return nil
}

func (d *Device) findRingIn(l *Line) *Subchannel {
	for _, sc := range l.Subchans {
		if sc.State == CallStateRingIn {
			return sc
		}
	}
	return nil
}

// HandleOffhook begins or answers a call on line.
func (d *Device) HandleOffhook(lineInstance uint32) error {
	l := d.line(lineInstance)
	if l == nil {
		return nil
	}
	if sc := d.findRingIn(l); sc != nil {
		return d.answer(l, sc)
	}
	if l.Active != nil {
		return nil
	}
	sc := l.NewSubchannel(DirectionOutgoing)
	sc.State = CallStateOffhook
	l.Active = sc
	d.digitBuffer = ""

	if err := d.send(&wire.SetLamp{Stimulus: buttonTypeLine, StimulusInstance: lineInstance, LampMode: lampOn}); err != nil {
		return err
	}
	if err := d.send(&wire.CallState{State: uint32(CallStateOffhook), LineInstance: lineInstance, CallID: sc.ID}); err != nil {
		return err
	}
	if err := d.send(SelectSoftKeys(lineInstance, sc.ID, SoftKeySetOffHook)); err != nil {
		return err
	}
	if err := d.send(&wire.ActivateCallPlane{LineInstance: lineInstance}); err != nil {
		return err
	}
	if err := d.send(&wire.StartTone{Tone: toneDial, LineInstance: lineInstance, CallID: sc.ID}); err != nil {
		return err
	}
	d.scheduleDialRetry(l, sc, 0)
	return nil
}

func (d *Device) scheduleDialRetry(l *Line, sc *Subchannel, attempt int) {
	if attempt >= d.dialRetryLimit() {
		return
	}
	key := taskKey{line: l.Instance, kind: "dial"}
	d.runner.Add(key, dialRetryInterval, func() {
		if l.Active != sc {
			return
		}
		if d.digitBuffer != "" && d.tryDial(l, sc) {
			return
		}
		d.scheduleDialRetry(l, sc, attempt+1)
	})
}

// HandleOnhook tears down whatever is active on line, or cancels an
// in-progress call-forward digit capture.
func (d *Device) HandleOnhook(lineInstance uint32) error {
	l := d.line(lineInstance)
	if l == nil {
		return nil
	}
	if l.Forward == ForwardCapturing {
		l.Forward = ForwardInactive
		d.digitBuffer = ""
		return d.send(&wire.ClearNotify{})
	}
	if l.Active == nil {
		return nil
	}
	return d.teardown(l, l.Active)
}

// teardown ends sc: closes any open media, notifies the host, and
// restores the line to onhook.
func (d *Device) teardown(l *Line, sc *Subchannel) error {
	d.runner.Remove(taskKey{line: l.Instance, kind: "dial"})
	d.runner.Remove(taskKey{line: l.Instance, kind: "autoanswer"})
	if sc.CallID != "" {
		_ = d.host.Hangup(context.Background(), l.Name, sc.CallID)
	}
	if sc.State != CallStateOnhook {
		_ = d.send(&wire.StopMediaTransmission{CallID: sc.ID})
		_ = d.send(&wire.CloseReceiveChannel{CallID: sc.ID})
	}
	l.RemoveSubchannel(sc)
	d.digitBuffer = ""
	if err := d.send(&wire.SetLamp{Stimulus: buttonTypeLine, StimulusInstance: uint32(l.Instance), LampMode: lampOff}); err != nil {
		return err
	}
	if err := d.send(&wire.SetRinger{RingerMode: ringOff}); err != nil {
		return err
	}
	if err := d.send(&wire.StopTone{LineInstance: uint32(l.Instance), CallID: sc.ID}); err != nil {
		return err
	}
	if err := d.send(&wire.CallState{State: uint32(CallStateOnhook), LineInstance: uint32(l.Instance), CallID: sc.ID}); err != nil {
		return err
	}
	return d.send(SelectSoftKeys(uint32(l.Instance), sc.ID, SoftKeySetOnhook))
}

// tryDial attempts to place the call once the buffered digits might match
// an extension; returns true once the attempt resolves (success or a
// terminal disposition) so the caller stops retrying.
func (d *Device) tryDial(l *Line, sc *Subchannel) bool {
	callID, disp, err := d.host.Originate(context.Background(), l.Name, d.digitBuffer)
	if err != nil || disp == telephony.DispositionNoSuchExtension {
		return false
	}
	d.runner.Remove(taskKey{line: l.Instance, kind: "dial"})
	_ = d.send(&wire.StopTone{LineInstance: uint32(l.Instance), CallID: sc.ID})
	switch disp {
	case telephony.DispositionOK:
		sc.CallID = callID
		sc.State = CallStateRingOut
		sc.CalledNumber = d.digitBuffer
		_ = d.send(&wire.CallState{State: uint32(CallStateRingOut), LineInstance: uint32(l.Instance), CallID: sc.ID})
		_ = d.send(d.Builder.CallInfo(uint32(l.Instance), sc.ID, 2, sc.CallingName, sc.CallingNumber, "", sc.CalledNumber))
		_ = d.send(SelectSoftKeys(uint32(l.Instance), sc.ID, SoftKeySetOffHook))
	case telephony.DispositionBusy:
		sc.State = CallStateBusy
		_ = d.send(&wire.StartTone{Tone: toneBusy, LineInstance: uint32(l.Instance), CallID: sc.ID})
		_ = d.send(&wire.CallState{State: uint32(CallStateBusy), LineInstance: uint32(l.Instance), CallID: sc.ID})
		d.runner.Add(taskKey{line: l.Instance, kind: "busy-teardown"}, 6*time.Second, func() { _ = d.teardown(l, sc) })
	default:
		sc.State = CallStateCongestion
		_ = d.send(&wire.StartTone{Tone: toneReorder, LineInstance: uint32(l.Instance), CallID: sc.ID})
		_ = d.send(&wire.CallState{State: uint32(CallStateCongestion), LineInstance: uint32(l.Instance), CallID: sc.ID})
		d.runner.Add(taskKey{line: l.Instance, kind: "busy-teardown"}, 6*time.Second, func() { _ = d.teardown(l, sc) })
	}
	return true
}

// answer accepts sc, which must currently be ringing in.
func (d *Device) answer(l *Line, sc *Subchannel) error {
	d.runner.Remove(taskKey{line: l.Instance, kind: "autoanswer"})
	if err := d.host.Answer(context.Background(), l.Name, sc.CallID); err != nil {
		return d.teardown(l, sc)
	}
	sc.State = CallStateOffhook
	l.Active = sc
	if err := d.send(&wire.SetRinger{RingerMode: ringOff}); err != nil {
		return err
	}
	if err := d.send(&wire.SetLamp{Stimulus: buttonTypeLine, StimulusInstance: uint32(l.Instance), LampMode: lampOn}); err != nil {
		return err
	}
	if err := d.send(&wire.CallState{State: uint32(CallStateOffhook), LineInstance: uint32(l.Instance), CallID: sc.ID}); err != nil {
		return err
	}
	sc.OpenReceivePending = true
	return d.send(&wire.OpenReceiveChannel{CallID: sc.ID, MillisecondPacketSize: 20})
}

// HandleKeypad appends (or acts on) one dialed digit.
func (d *Device) HandleKeypad(lineInstance, button uint32) error {
	l := d.line(lineInstance)
	if l == nil {
		return nil
	}
	digit := digitFromButton(button)
	if digit == 0 {
		return nil
	}

	if l.Forward == ForwardCapturing {
		return d.captureForwardDigit(l, digit)
	}

	sc := l.Active
	if sc != nil && sc.State == CallStateConnected {
		// Mid-call keypresses are in-band DTMF for the far end, not
		// dialed digits.
		if err := d.host.SendDigit(context.Background(), l.Name, sc.CallID, digit); err != nil {
			d.log.WithError(err).Warn("device: dtmf forward failed")
		}
		return nil
	}
	if sc == nil || sc.State != CallStateOffhook {
		return nil
	}
	maxDigits := d.binding.MaxDigits
	if maxDigits == 0 {
		maxDigits = defaultMaxDigits
	}
	if digit == '#' {
		if len(d.digitBuffer) > 0 {
			d.tryDial(l, sc)
		}
		return nil
	}
	if len(d.digitBuffer) < maxDigits {
		d.digitBuffer += string(digit)
	}
	if err := d.send(&wire.StartTone{Tone: toneNone, LineInstance: lineInstance, CallID: sc.ID}); err != nil {
		return err
	}
	if d.tryDial(l, sc) {
		return nil
	}
	return nil
}

func (d *Device) captureForwardDigit(l *Line, digit byte) error {
	if digit == '#' {
		l.ForwardNumber = d.digitBuffer
		l.Forward = ForwardActive
		d.digitBuffer = ""
		if err := d.host.SetForwardAll(context.Background(), l.Name, l.ForwardNumber); err != nil {
			return err
		}
		return d.send(d.forwardStatus(l))
	}
	d.digitBuffer += string(digit)
	return nil
}

// HandleSoftKey dispatches a pressed softkey event.
func (d *Device) HandleSoftKey(lineInstance, callID, event uint32) error {
	l := d.line(lineInstance)
	if l == nil {
		return nil
	}
	var sc *Subchannel
	if callID != 0 {
		sc = d.findByCallID(l, callID)
	} else {
		sc = l.Active
	}
	switch event {
	case KeyHold:
		if sc != nil {
			return d.hold(l, sc)
		}
	case KeyResume:
		if sc != nil {
			return d.resume(l, sc)
		}
	case KeyEndCall:
		if sc != nil {
			return d.teardown(l, sc)
		}
	case KeyAnswer:
		if sc == nil {
			sc = d.findRingIn(l)
		}
		if sc != nil {
			return d.answer(l, sc)
		}
	case KeyTransfer:
		return d.transfer(l, sc)
	case KeyNewCall:
		return d.newCallFromConnected(l, sc)
	case KeyCFwdAll:
		return d.toggleForward(l)
	case KeyCancel:
		if l.Forward == ForwardCapturing {
			l.Forward = ForwardInactive
			d.digitBuffer = ""
		}
	case KeyDND, KeyRedial:
		d.log.WithField("event", event).Debug("device: softkey not modeled")
	}
	return nil
}

// HandleStimulus handles a direct line/speeddial/feature key press,
// distinct from a softkey event.
func (d *Device) HandleStimulus(stimulusType, instance uint32) error {
	switch stimulusType {
	case buttonTypeLine:
		return d.HandleOffhook(instance)
	case buttonTypeVoicemail:
		return d.dialStored(d.binding.VMExten)
	case buttonTypeSpeedDial:
		idx := int(instance) - 1
		if idx < 0 || idx >= len(d.SpeedDials) {
			return nil
		}
		return d.dialStored(d.SpeedDials[idx].Number)
	}
	return nil
}

// dialStored offhooks the device's first line (if idle) and dials a
// preconfigured number, the shared path behind the speeddial and
// voicemail buttons.
func (d *Device) dialStored(number string) error {
	if number == "" || len(d.Lines) == 0 {
		return nil
	}
	l := d.Lines[0]
	if l.Active == nil {
		if err := d.HandleOffhook(uint32(l.Instance)); err != nil {
			return err
		}
	}
	d.digitBuffer = number
	if sc := l.Active; sc != nil {
		d.tryDial(l, sc)
	}
	return nil
}

// hold parks sc.
func (d *Device) hold(l *Line, sc *Subchannel) error {
	if err := d.host.Hold(context.Background(), l.Name, sc.CallID); err != nil {
		return err
	}
	sc.State = CallStateHold
	if l.Active == sc {
		l.Active = nil
	}
	if err := d.send(&wire.StopMediaTransmission{CallID: sc.ID}); err != nil {
		return err
	}
	if err := d.send(&wire.CallState{State: uint32(CallStateHold), LineInstance: uint32(l.Instance), CallID: sc.ID}); err != nil {
		return err
	}
	return d.send(SelectSoftKeys(uint32(l.Instance), sc.ID, SoftKeySetOnHold))
}

// resume unparks sc, first re-holding whatever else is active on the
// line (only one subchannel may be on the call plane at a time).
func (d *Device) resume(l *Line, sc *Subchannel) error {
	if l.Active != nil && l.Active != sc {
		if err := d.hold(l, l.Active); err != nil {
			return err
		}
	}
	if err := d.host.Resume(context.Background(), l.Name, sc.CallID); err != nil {
		return err
	}
	sc.State = CallStateOffhook
	l.Active = sc
	sc.OpenReceivePending = true
	if err := d.send(&wire.CallState{State: uint32(CallStateOffhook), LineInstance: uint32(l.Instance), CallID: sc.ID}); err != nil {
		return err
	}
	if err := d.send(SelectSoftKeys(uint32(l.Instance), sc.ID, SoftKeySetConnected)); err != nil {
		return err
	}
	return d.send(&wire.OpenReceiveChannel{CallID: sc.ID, MillisecondPacketSize: 20})
}

// transfer implements attended transfer: the first
// Transfer press holds the active leg and opens a consultation leg; the
// second Transfer press (pressed again with the consultation leg
// active) joins the two legs at the host and tears down both local
// subchannels.
func (d *Device) transfer(l *Line, sc *Subchannel) error {
	if sc == nil {
		return nil
	}
	if sc.Related != nil {
		other := sc.Related
		if err := d.host.Transfer(context.Background(), l.Name, other.CallID, sc.CallID); err != nil {
			return err
		}
		d.teardown(l, sc)
		d.teardown(l, other)
		return nil
	}
	if err := d.hold(l, sc); err != nil {
		return err
	}
	consult := l.NewSubchannel(DirectionOutgoing)
	consult.State = CallStateOffhook
	consult.Related = sc
	sc.Related = consult
	l.Active = consult
	d.digitBuffer = ""
	if err := d.send(&wire.CallState{State: uint32(CallStateOffhook), LineInstance: uint32(l.Instance), CallID: consult.ID}); err != nil {
		return err
	}
	if err := d.send(SelectSoftKeys(uint32(l.Instance), consult.ID, SoftKeySetConnInTransfer)); err != nil {
		return err
	}
	d.scheduleDialRetry(l, consult, 0)
	return d.send(&wire.StartTone{Tone: toneDial, LineInstance: uint32(l.Instance), CallID: consult.ID})
}

// newCallFromConnected holds the active call and opens a fresh dial tone
// subchannel, the NewCall softkey's behavior from a connected state.
func (d *Device) newCallFromConnected(l *Line, sc *Subchannel) error {
	if sc != nil {
		if err := d.hold(l, sc); err != nil {
			return err
		}
	}
	return d.HandleOffhook(uint32(l.Instance))
}

// toggleForward starts or cancels the call-forward-all digit capture
// cycle.
func (d *Device) toggleForward(l *Line) error {
	if l.Forward == ForwardActive {
		l.Forward = ForwardInactive
		l.ForwardNumber = ""
		if err := d.host.SetForwardAll(context.Background(), l.Name, ""); err != nil {
			return err
		}
		return d.send(d.forwardStatus(l))
	}
	l.Forward = ForwardCapturing
	d.digitBuffer = ""
	return d.send(&wire.DisplayNotify{DisplayTimeout: 0, DisplayMessage: "Enter forward number"})
}

// autoAnswerDelay is how long an incoming call rings before an
// auto-answer device picks it up.
const autoAnswerDelay = 1 * time.Second

// HandleTelephonyEvent implements telephony.Listener, so single-goroutine
// callers (tests, an in-process host) can subscribe a Device directly with
// host.Subscribe(line, device). pkg/session does not: it subscribes a
// closure that forwards each event through its command queue, since a Host
// delivering events from its own goroutine would race with the session
// goroutine's use of Device.
func (d *Device) HandleTelephonyEvent(ev telephony.Event) {
	if err := d.HandleHostEvent(ev); err != nil {
		d.log.WithError(err).Warn("device: telephony event handling failed")
	}
}

// HandleHostEvent processes an asynchronous notification pushed by the
// telephony host.
func (d *Device) HandleHostEvent(ev telephony.Event) error {
	var l *Line
	for _, cand := range d.Lines {
		if cand.Name == ev.Line {
			l = cand
			break
		}
	}
	if l == nil {
		return nil
	}
	switch ev.Type {
	case telephony.EventIncomingCall:
		return d.offerIncoming(l, ev)
	case telephony.EventRemoteAnswered:
		if sc := d.findSubchannelByHostCallID(l, ev.Call); sc != nil {
			sc.State = CallStateConnected
			if err := d.send(&wire.CallState{State: uint32(CallStateConnected), LineInstance: uint32(l.Instance), CallID: sc.ID}); err != nil {
				return err
			}
			sc.OpenReceivePending = true
			return d.send(&wire.OpenReceiveChannel{CallID: sc.ID, MillisecondPacketSize: 20})
		}
	case telephony.EventRemoteHangup:
		if sc := d.findSubchannelByHostCallID(l, ev.Call); sc != nil {
			return d.teardown(l, sc)
		}
	case telephony.EventRemoteHold:
		if sc := d.findSubchannelByHostCallID(l, ev.Call); sc != nil {
			sc.State = CallStateHold
			return d.send(&wire.CallState{State: uint32(CallStateHold), LineInstance: uint32(l.Instance), CallID: sc.ID})
		}
	case telephony.EventRemoteResume:
		if sc := d.findSubchannelByHostCallID(l, ev.Call); sc != nil {
			sc.State = CallStateConnected
			return d.send(&wire.CallState{State: uint32(CallStateConnected), LineInstance: uint32(l.Instance), CallID: sc.ID})
		}
	case telephony.EventMWI:
		mode := lampOff
		if ev.MessagesWaiting {
			mode = lampOn
		}
		return d.send(&wire.SetLamp{Stimulus: buttonTypeVoicemail, StimulusInstance: uint32(l.Instance), LampMode: mode})
	}
	return nil
}

func (d *Device) findSubchannelByHostCallID(l *Line, callID telephony.CallID) *Subchannel {
	for _, sc := range l.Subchans {
		if sc.CallID == callID {
			return sc
		}
	}
	return nil
}

// offerIncoming announces a new inbound call on l.
func (d *Device) offerIncoming(l *Line, ev telephony.Event) error {
	sc := l.NewSubchannel(DirectionIncoming)
	sc.State = CallStateRingIn
	sc.CallID = ev.Call
	sc.CallingName = ev.Name
	sc.CallingNumber = ev.Number
	sc.CalledNumber = l.CIDNum

	if err := d.send(d.Builder.CallInfo(uint32(l.Instance), sc.ID, 1, sc.CallingName, sc.CallingNumber, "", sc.CalledNumber)); err != nil {
		return err
	}
	if err := d.send(&wire.CallState{State: uint32(CallStateRingIn), LineInstance: uint32(l.Instance), CallID: sc.ID}); err != nil {
		return err
	}
	if err := d.send(SelectSoftKeys(uint32(l.Instance), sc.ID, SoftKeySetRingIn)); err != nil {
		return err
	}
	if err := d.send(&wire.SetRinger{RingerMode: ringInside}); err != nil {
		return err
	}
	if err := d.send(&wire.SetLamp{Stimulus: buttonTypeLine, StimulusInstance: uint32(l.Instance), LampMode: lampBlink}); err != nil {
		return err
	}
	if d.autoAnswer {
		d.runner.Add(taskKey{line: l.Instance, kind: "autoanswer"}, autoAnswerDelay, func() {
			_ = d.answer(l, sc)
		})
	}
	return nil
}

// HandleOpenReceiveChannelAck completes media negotiation for the
// subchannel named by the ack's CallID.
func (d *Device) HandleOpenReceiveChannelAck(m *wire.OpenReceiveChannelAck) error {
	for _, l := range d.Lines {
		sc := d.findByCallID(l, m.CallID)
		if sc == nil {
			continue
		}
		if !sc.OpenReceivePending {
			return nil
		}
		sc.OpenReceivePending = false
		sc.RemoteRTPIP = m.IP
		sc.RemoteRTPPort = m.Port
		if sc.State == CallStateOffhook {
			sc.State = CallStateConnected
		}
		return d.send(&wire.StartMediaTransmission{
			CallID:                sc.ID,
			RemoteIP:              m.IP,
			RemotePort:            m.Port,
			MillisecondPacketSize: 20,
		})
	}
	return nil
}

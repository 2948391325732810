package device

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/skinnycore/sccp/pkg/sccperr"
	"github.com/skinnycore/sccp/pkg/sched"
	"github.com/skinnycore/sccp/pkg/telephony"
	"github.com/skinnycore/sccp/pkg/wire"
)

// MaxNameLen is the longest a device name may be.
const MaxNameLen = 20

// Transport is the narrow send surface a Device needs from its owning
// session; kept here (rather than importing pkg/session) so pkg/session
// can depend on pkg/device without a cycle. It is a handle injected at
// construction, not a concrete connection type.
type Transport interface {
	Send(msg wire.Message) error
}

// SpeedDial is a resolved one-touch dial entry bound to a button.
type SpeedDial struct {
	Index  uint32
	Number string
	Label  string
	BLF    bool
}

// Binding is everything the registration policy (owned by pkg/session,
// which has the config+registry access this package deliberately does
// not import) resolves before a Device can be constructed: the matched
// config identity, its line, and its speeddials.
type Binding struct {
	Name        string // config device name; empty for an unnamed guest binding
	DynamicName string // assigned name when IsGuest, distinct from config's literal "guest"
	IsGuest     bool
	Line        *Line
	SpeedDials  []SpeedDial
	AutoAnswer  bool
	KeepAlive   uint32 // negotiated keepalive interval, seconds
	MaxDigits   int    // digit buffer cap

	DateFormat  string // date template for RegisterAck; empty means defaultDateFormat
	Voicemail   string // mailbox to watch for message-waiting; empty disables MWI
	VMExten     string // extension the voicemail button dials
	DialTimeout int    // seconds before an unmatched digit string is abandoned
}

// Device is the per-connection SCCP call-control state machine. Not
// safe for concurrent use: pkg/session drives every method from the
// single goroutine that owns the connection.
type Device struct {
	binding Binding
	Type    Type
	Proto   ProtoVersion
	State   RegState

	Lines        []*Line
	SpeedDials   []SpeedDial
	Capabilities []wire.Capability
	Template     []wire.ButtonDefinition

	Builder wire.Builder

	digitBuffer string
	autoAnswer  bool

	transport Transport
	host      telephony.Host
	runner    *sched.Runner
	log       *log.Entry

	// WantDisconnect is observed by pkg/session once per tick; a fatal
	// protocol error or an explicit RESET sets it.
	WantDisconnect bool
}

// New constructs a Device from an already-policy-resolved Binding;
// name/type/guest-slot checks have passed by the time New is called.
func New(b Binding, devType Type, proto ProtoVersion, transport Transport, host telephony.Host, logger *log.Entry) *Device {
	lines := []*Line{b.Line}
	d := &Device{
		binding:    b,
		Type:       devType,
		Proto:      proto,
		State:      RegStateRegistering,
		Lines:      lines,
		SpeedDials: b.SpeedDials,
		Builder:    wire.NewBuilder(wire.ProtoVersion(proto)),
		autoAnswer: b.AutoAnswer,
		transport:  transport,
		host:       host,
		runner:     sched.New(),
		log:        logger,
	}
	d.Template = ButtonTemplate(devType, len(lines), len(b.SpeedDials))
	return d
}

// DeviceName satisfies registry.Entry.
func (d *Device) DeviceName() string {
	if d.binding.IsGuest {
		return d.binding.DynamicName
	}
	return d.binding.Name
}

// IsGuest reports whether this Device was materialized from the guest
// slot.
func (d *Device) IsGuest() bool { return d.binding.IsGuest }

// Runner exposes the per-session task runner so pkg/session can compute
// its next poll timeout from it").
func (d *Device) Runner() *sched.Runner { return d.runner }

// send writes msg via the transport, returning a sccperr.KindTransport
// error on failure (send itself does not log); callers generally ignore the
// error for best-effort notifications but propagate it where a stuck
// write should tear the session down.
func (d *Device) send(msg wire.Message) error {
	if err := d.transport.Send(msg); err != nil {
		return sccperr.New(sccperr.KindTransport, fmt.Errorf("device %s: send %s: %w", d.DeviceName(), msg.MessageID(), err))
	}
	return nil
}

// line returns the Line bound at 1-based instance, or nil.
func (d *Device) line(instance uint32) *Line {
	idx := int(instance) - 1
	if idx < 0 || idx >= len(d.Lines) {
		return nil
	}
	return d.Lines[idx]
}

// defaultDateFormat applies when a device config leaves dateformat unset.
const defaultDateFormat = "M/d/Y"

// CompleteRegistration sends REGISTER_ACK followed by CAPABILITIES_REQ,
// the first two messages of the registration subprotocol, then
// subscribes the device's mailbox for message-waiting updates. The
// caller (pkg/session) has already validated the REGISTER request and
// added the Device to the registry.
func (d *Device) CompleteRegistration() error {
	tmpl := d.binding.DateFormat
	if tmpl == "" {
		tmpl = defaultDateFormat
	}
	if err := d.send(d.Builder.RegisterAck(d.binding.KeepAlive, tmpl)); err != nil {
		return err
	}
	if err := d.send(&wire.CapabilitiesReq{}); err != nil {
		return err
	}
	if d.binding.Voicemail != "" && len(d.Lines) > 0 {
		if err := d.host.SubscribeMWI(context.Background(), d.Lines[0].Name, d.binding.Voicemail); err != nil {
			d.log.WithError(err).Warn("device: mwi subscription failed")
		}
	}
	return nil
}

// Dispatch routes one decoded incoming message to its handler.
// Unknown/unsupported message kinds are logged and ignored, never fatal
// at runtime.
func (d *Device) Dispatch(msg wire.Message) error {
	switch m := msg.(type) {
	case *wire.CapabilitiesRes:
		return d.handleCapabilitiesRes(m)
	case *wire.IPPort:
		return nil // informational; RTP source port is carried per-call in OpenReceiveChannelAck
	case *wire.ButtonTemplateReq:
		return d.handleButtonTemplateReq()
	case *wire.LineStatusReq:
		return d.handleLineStatusReq(m)
	case *wire.ConfigStatusReq:
		return d.handleConfigStatusReq()
	case *wire.TimeDateReq:
		return d.handleTimeDateReq()
	case *wire.SpeedDialStatReq:
		return d.handleSpeedDialStatReq(m)
	case *wire.SoftKeyTemplateReq:
		return d.send(SoftKeyTemplate())
	case *wire.SoftKeySetReq:
		return d.send(SoftKeySets())
	case *wire.ForwardStatusReq:
		return d.handleForwardStatusReq(m)
	case *wire.RegisterAvailableLines:
		return d.send(&wire.RegisterAvailableLines{Count: uint32(len(d.Lines))})
	case *wire.FeatureStatusReq:
		return nil // no programmable feature buttons modeled
	case *wire.VersionReq:
		return d.send(&wire.VersionRes{Version: "sccpcore-1"})
	case *wire.KeepAlive:
		return d.send(&wire.KeepAliveAck{})

	case *wire.Offhook:
		return d.HandleOffhook(m.LineInstance)
	case *wire.Onhook:
		return d.HandleOnhook(m.LineInstance)
	case *wire.KeypadButton:
		return d.HandleKeypad(m.LineInstance, m.Button)
	case *wire.SoftKeyEvent:
		return d.HandleSoftKey(m.LineInstance, m.CallID, m.Event)
	case *wire.Stimulus:
		return d.HandleStimulus(m.StimulusType, m.Instance)

	case *wire.OpenReceiveChannelAck:
		return d.HandleOpenReceiveChannelAck(m)

	case *wire.Unregister:
		d.WantDisconnect = true
		return nil

	case *wire.Opaque:
		d.log.WithField("id", m.ID).Debug("device: unhandled opaque message")
		return nil
	default:
		d.log.WithField("id", msg.MessageID()).Debug("device: unhandled message")
		return nil
	}
}

func (d *Device) handleCapabilitiesRes(m *wire.CapabilitiesRes) error {
	caps := m.Codecs
	if len(caps) > wire.MaxCapabilities {
		caps = caps[:wire.MaxCapabilities]
	}
	d.Capabilities = caps
	return nil
}

func (d *Device) handleButtonTemplateReq() error {
	return d.send(&wire.ButtonTemplateRes{
		ButtonCount: uint32(len(d.Template)),
		TotalCount:  uint32(len(d.Template)),
		Buttons:     d.Template,
	})
}

func (d *Device) handleLineStatusReq(m *wire.LineStatusReq) error {
	l := d.line(m.LineInstance)
	if l == nil {
		return nil
	}
	display := l.CIDName
	if display == "" {
		display = d.DeviceName()
	}
	if err := d.send(d.Builder.LineStatusRes(uint32(l.Instance), l.CIDNum, display)); err != nil {
		return err
	}
	// Firmware expects the forward state to follow each line status.
	return d.send(d.forwardStatus(l))
}

func (d *Device) handleConfigStatusReq() error {
	return d.send(&wire.ConfigStatusRes{
		DeviceName:      d.DeviceName(),
		StationInstance: 1,
		UserName:        d.DeviceName(),
		ServerName:      "sccpcore",
		NumberLines:     uint32(len(d.Lines)),
		NumberSpeedDial: uint32(len(d.SpeedDials)),
	})
}

func (d *Device) handleTimeDateReq() error {
	now := time.Now()
	return d.send(&wire.TimeDateRes{
		Year:         uint32(now.Year()),
		Month:        uint32(now.Month()),
		DayOfWeek:    uint32(now.Weekday()),
		Day:          uint32(now.Day()),
		Hour:         uint32(now.Hour()),
		Minute:       uint32(now.Minute()),
		Seconds:      uint32(now.Second()),
		Milliseconds: uint32(now.Nanosecond() / 1e6),
		SystemTime:   uint32(now.Unix()),
	})
}

func (d *Device) handleSpeedDialStatReq(m *wire.SpeedDialStatReq) error {
	idx := int(m.Index) - 1 // requests are 1-based
	if idx < 0 || idx >= len(d.SpeedDials) {
		return nil
	}
	sd := d.SpeedDials[idx]
	return d.send(&wire.SpeedDialStatRes{Index: m.Index, Number: sd.Number, Label: sd.Label})
}

func (d *Device) handleForwardStatusReq(m *wire.ForwardStatusReq) error {
	l := d.line(m.LineInstance)
	if l == nil {
		return nil
	}
	return d.send(d.forwardStatus(l))
}

func (d *Device) forwardStatus(l *Line) *wire.ForwardStatusRes {
	active := uint32(0)
	if l.Forward == ForwardActive {
		active = 1
	}
	return &wire.ForwardStatusRes{
		ActiveForward: active,
		LineInstance:  uint32(l.Instance),
		ForwardAllNum: l.ForwardNumber,
	}
}

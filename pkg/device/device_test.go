package device

import (
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinnycore/sccp/pkg/telephony"
	"github.com/skinnycore/sccp/pkg/telephony/mock"
	"github.com/skinnycore/sccp/pkg/wire"
)

type fakeTransport struct {
	sent []wire.Message
}

func (t *fakeTransport) Send(msg wire.Message) error {
	t.sent = append(t.sent, msg)
	return nil
}

func (t *fakeTransport) kinds() []wire.MessageID {
	ids := make([]wire.MessageID, len(t.sent))
	for i, m := range t.sent {
		ids[i] = m.MessageID()
	}
	return ids
}

func newTestDevice(t *testing.T, host *mock.Host) (*Device, *fakeTransport, *Line) {
	t.Helper()
	l := NewLine("200", 1)
	l.CIDNum = "200"
	l.CIDName = "Alice"
	tr := &fakeTransport{}
	logger := log.NewEntry(log.New())
	d := New(Binding{Name: "SEP001122334455", Line: l, MaxDigits: 24}, Type7941, ProtoVersion(wire.ProtoUTF8), tr, host, logger)
	return d, tr, l
}

func TestButtonTemplateOrdersLinesThenSpeedDials(t *testing.T) {
	buttons := ButtonTemplate(Type7941, 1, 1)
	require.Len(t, buttons, 2)
	assert.Equal(t, buttonTypeLine, buttons[0].Type)
	assert.Equal(t, buttonTypeSpeedDial, buttons[1].Type)
}

func TestButtonTemplateUnknownTypeFallsBackToExactCount(t *testing.T) {
	buttons := ButtonTemplate(Type(999999), 2, 3)
	assert.Len(t, buttons, 5)
}

func TestSoftKeySetsMatchSpecTable(t *testing.T) {
	sets := SoftKeySets()
	tmpl := SoftKeyTemplate()
	pos := make(map[uint32]int)
	for i, k := range tmpl.Keys {
		pos[k.Event] = i
	}
	onhook := sets.Sets[SoftKeySetOnhook]
	assert.Equal(t, uint8(pos[KeyRedial]), onhook.Indices[0])
	assert.Equal(t, uint8(pos[KeyNewCall]), onhook.Indices[1])
	assert.Equal(t, uint8(0xff), onhook.Indices[4])
}

func TestOutgoingCallFlow(t *testing.T) {
	host := mock.New()
	host.AddExtension("200", "300")
	d, tr, l := newTestDevice(t, host)

	require.NoError(t, d.HandleOffhook(1))
	assert.Equal(t, CallStateOffhook, l.Active.State)

	for _, digit := range "300" {
		require.NoError(t, d.HandleKeypad(1, uint32(digit-'0')))
	}

	require.Equal(t, CallStateRingOut, l.Active.State)
	assert.Contains(t, host.Calls, "originate:200:300")
	assert.Contains(t, tr.kinds(), wire.IDCallInfo)
}

func TestOutgoingCallNoMatchKeepsDialing(t *testing.T) {
	host := mock.New()
	d, _, l := newTestDevice(t, host)

	require.NoError(t, d.HandleOffhook(1))
	require.NoError(t, d.HandleKeypad(1, 9))
	assert.Equal(t, CallStateOffhook, l.Active.State)
	assert.Equal(t, "9", d.digitBuffer)
}

func TestOnhookTearsDownActiveCall(t *testing.T) {
	host := mock.New()
	host.AddExtension("200", "300")
	d, tr, l := newTestDevice(t, host)

	require.NoError(t, d.HandleOffhook(1))
	for _, digit := range "300#" {
		if digit == '#' {
			require.NoError(t, d.HandleKeypad(1, 15))
			continue
		}
		require.NoError(t, d.HandleKeypad(1, uint32(digit-'0')))
	}
	require.NoError(t, d.HandleOnhook(1))
	assert.Nil(t, l.Active)
	assert.Contains(t, host.Calls[len(host.Calls)-1], "hangup:200:")

	var sawOnhook bool
	for _, m := range tr.sent {
		if cs, ok := m.(*wire.CallState); ok && cs.State == uint32(CallStateOnhook) {
			sawOnhook = true
		}
	}
	assert.True(t, sawOnhook)
}

func TestIncomingCallRingsThenAnswers(t *testing.T) {
	host := mock.New()
	d, tr, l := newTestDevice(t, host)
	host.Subscribe("200", d)

	require.True(t, host.Offer("200", "call-1", "Bob", "100"))
	require.Len(t, l.Subchans, 1)
	ringing := l.Subchans[0]
	assert.Equal(t, CallStateRingIn, ringing.State)

	require.NoError(t, d.HandleSoftKey(1, ringing.ID, KeyAnswer))
	assert.Contains(t, host.Calls, "answer:200:call-1")
	assert.Contains(t, tr.kinds(), wire.IDOpenReceiveChannel)
}

func TestHoldThenResume(t *testing.T) {
	host := mock.New()
	host.AddExtension("200", "300")
	d, _, l := newTestDevice(t, host)

	require.NoError(t, d.HandleOffhook(1))
	require.NoError(t, d.HandleKeypad(1, 3))
	require.NoError(t, d.HandleKeypad(1, 0))
	require.NoError(t, d.HandleKeypad(1, 0))
	require.NoError(t, d.HandleKeypad(1, 15))
	sc := l.Active
	require.NotNil(t, sc)

	require.NoError(t, d.HandleSoftKey(1, sc.ID, KeyHold))
	assert.Equal(t, CallStateHold, sc.State)
	assert.Nil(t, l.Active)

	require.NoError(t, d.HandleSoftKey(1, sc.ID, KeyResume))
	assert.Equal(t, CallStateOffhook, sc.State)
	assert.Equal(t, sc, l.Active)
}

func TestAttendedTransferJoinsBothLegsAtHost(t *testing.T) {
	host := mock.New()
	host.AddExtension("200", "300")
	host.AddExtension("200", "400")
	d, _, l := newTestDevice(t, host)

	require.NoError(t, d.HandleOffhook(1))
	require.NoError(t, d.HandleKeypad(1, 3))
	require.NoError(t, d.HandleKeypad(1, 0))
	require.NoError(t, d.HandleKeypad(1, 0))
	require.NoError(t, d.HandleKeypad(1, 15))
	first := l.Active
	require.NotNil(t, first)

	require.NoError(t, d.HandleSoftKey(1, first.ID, KeyTransfer))
	consult := l.Active
	require.NotNil(t, consult)
	require.NotEqual(t, first, consult)
	assert.Equal(t, first, consult.Related)

	require.NoError(t, d.HandleKeypad(1, 4))
	require.NoError(t, d.HandleKeypad(1, 0))
	require.NoError(t, d.HandleKeypad(1, 0))
	require.NoError(t, d.HandleKeypad(1, 15))

	require.NoError(t, d.HandleSoftKey(1, consult.ID, KeyTransfer))
	found := false
	for _, c := range host.Calls {
		if strings.HasPrefix(c, "transfer:") {
			found = true
		}
	}
	assert.True(t, found)
	assert.Nil(t, l.Active)
	assert.Empty(t, l.Subchans)
}

func TestCallForwardAllCapturesDigitsThenActivates(t *testing.T) {
	host := mock.New()
	d, tr, l := newTestDevice(t, host)

	require.NoError(t, d.HandleSoftKey(1, 0, KeyCFwdAll))
	assert.Equal(t, ForwardCapturing, l.Forward)

	for _, digit := range "555#" {
		if digit == '#' {
			require.NoError(t, d.HandleKeypad(1, 15))
			continue
		}
		require.NoError(t, d.HandleKeypad(1, uint32(digit-'0')))
	}
	assert.Equal(t, ForwardActive, l.Forward)
	assert.Equal(t, "555", l.ForwardNumber)

	var sawForwardStatus bool
	for _, m := range tr.sent {
		if m.MessageID() == wire.IDForwardStatusRes {
			sawForwardStatus = true
		}
	}
	assert.True(t, sawForwardStatus)
}

func TestMediaStartsOnlyAfterMatchingAck(t *testing.T) {
	host := mock.New()
	d, tr, l := newTestDevice(t, host)
	host.Subscribe("200", d)

	require.True(t, host.Offer("200", "call-1", "Bob", "100"))
	require.NoError(t, d.HandleOffhook(1))
	sc := l.Active
	require.NotNil(t, sc)
	require.True(t, sc.OpenReceivePending)

	openCount := 0
	for _, m := range tr.sent {
		if m.MessageID() == wire.IDOpenReceiveChannel {
			openCount++
		}
	}
	assert.Equal(t, 1, openCount)
	assert.NotContains(t, tr.kinds(), wire.IDStartMediaTransmission)

	ack := &wire.OpenReceiveChannelAck{IP: 0x0100007F, Port: 16384, CallID: sc.ID}
	require.NoError(t, d.HandleOpenReceiveChannelAck(ack))
	assert.False(t, sc.OpenReceivePending)
	assert.Equal(t, CallStateConnected, sc.State)

	var starts []*wire.StartMediaTransmission
	for _, m := range tr.sent {
		if smt, ok := m.(*wire.StartMediaTransmission); ok {
			starts = append(starts, smt)
		}
	}
	require.Len(t, starts, 1)
	assert.Equal(t, ack.IP, starts[0].RemoteIP)
	assert.Equal(t, ack.Port, starts[0].RemotePort)

	// A duplicate ack must not restart media.
	require.NoError(t, d.HandleOpenReceiveChannelAck(ack))
	count := 0
	for _, m := range tr.sent {
		if m.MessageID() == wire.IDStartMediaTransmission {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRegistrationSendsAckThenCapabilitiesReq(t *testing.T) {
	host := mock.New()
	d, tr, _ := newTestDevice(t, host)
	d.binding.KeepAlive = 30

	require.NoError(t, d.CompleteRegistration())
	require.Len(t, tr.sent, 2)
	ack, ok := tr.sent[0].(*wire.RegisterAck)
	require.True(t, ok)
	assert.Equal(t, uint32(30), ack.KeepAlive)
	assert.Equal(t, defaultDateFormat, ack.DateTemplate)
	assert.Equal(t, wire.IDCapabilitiesReq, tr.sent[1].MessageID())
}

func TestRegistrationUsesConfiguredDateFormatAndSubscribesMWI(t *testing.T) {
	host := mock.New()
	l := NewLine("200", 1)
	l.CIDNum = "200"
	tr := &fakeTransport{}
	d := New(Binding{
		Name:       "SEP001122334455",
		Line:       l,
		KeepAlive:  10,
		DateFormat: "D/M/Y",
		Voicemail:  "2000",
		VMExten:    "*98",
	}, Type7941, ProtoVersion(11), tr, host, log.NewEntry(log.New()))

	require.NoError(t, d.CompleteRegistration())
	ack, ok := tr.sent[0].(*wire.RegisterAck)
	require.True(t, ok)
	assert.Equal(t, "D/M/Y", ack.DateTemplate)
	assert.Equal(t, uint32(10), ack.KeepAlive)
	assert.Contains(t, host.Calls, "mwi-subscribe:200:2000")
}

func TestMWIEventDrivesVoicemailLamp(t *testing.T) {
	host := mock.New()
	l := NewLine("200", 1)
	tr := &fakeTransport{}
	d := New(Binding{Name: "SEP001122334455", Line: l, Voicemail: "2000"},
		Type7941, ProtoVersion(11), tr, host, log.NewEntry(log.New()))
	host.Subscribe("200", d)
	require.NoError(t, d.CompleteRegistration())

	require.True(t, host.SetMessagesWaiting("200", true))
	lamp := lastLamp(tr)
	require.NotNil(t, lamp)
	assert.Equal(t, buttonTypeVoicemail, lamp.Stimulus)
	assert.Equal(t, lampOn, lamp.LampMode)

	require.True(t, host.SetMessagesWaiting("200", false))
	lamp = lastLamp(tr)
	assert.Equal(t, lampOff, lamp.LampMode)
}

func lastLamp(tr *fakeTransport) *wire.SetLamp {
	for i := len(tr.sent) - 1; i >= 0; i-- {
		if lamp, ok := tr.sent[i].(*wire.SetLamp); ok {
			return lamp
		}
	}
	return nil
}

func TestVoicemailStimulusDialsVMExten(t *testing.T) {
	host := mock.New()
	host.AddExtension("200", "*98")
	l := NewLine("200", 1)
	tr := &fakeTransport{}
	d := New(Binding{Name: "SEP001122334455", Line: l, VMExten: "*98"},
		Type7941, ProtoVersion(11), tr, host, log.NewEntry(log.New()))

	require.NoError(t, d.HandleStimulus(buttonTypeVoicemail, 0))
	assert.Contains(t, host.Calls, "originate:200:*98")
	require.NotNil(t, l.Active)
	assert.Equal(t, CallStateRingOut, l.Active.State)
}

func TestConnectedKeypadForwardsDTMF(t *testing.T) {
	host := mock.New()
	host.AddExtension("200", "300")
	d, _, l := newTestDevice(t, host)
	host.Subscribe("200", d)

	require.NoError(t, d.HandleOffhook(1))
	for _, digit := range "300" {
		require.NoError(t, d.HandleKeypad(1, uint32(digit-'0')))
	}
	sc := l.Active
	require.NotNil(t, sc)
	require.Equal(t, CallStateRingOut, sc.State)

	require.NoError(t, d.HandleHostEvent(telephony.Event{
		Type: telephony.EventRemoteAnswered, Line: "200", Call: sc.CallID,
	}))
	require.Equal(t, CallStateConnected, sc.State)

	require.NoError(t, d.HandleKeypad(1, 5))
	assert.Contains(t, host.Calls, "digit:200:"+string(sc.CallID)+":5")
}

func TestDialRetryLimitFollowsConfiguredDialTimeout(t *testing.T) {
	host := mock.New()
	d, _, _ := newTestDevice(t, host)
	assert.Equal(t, defaultDialTimeoutSecs*2, d.dialRetryLimit())
	d.binding.DialTimeout = 3
	assert.Equal(t, 6, d.dialRetryLimit())
}

package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripRegister(t *testing.T) {
	want := &Register{
		Name:          "SEP001122334455",
		UserID:        1,
		LineInstance:  1,
		IP:            0x0100007f,
		Type:          30016,
		MaxStreams:    2,
		ActiveStreams: 0,
		ProtoVersion:  17,
	}
	frame := EncodeFrame(want)
	hdr, err := DecodeHeader(frame)
	require.NoError(t, err)
	assert.Equal(t, IDRegister, hdr.ID)

	msg, err := Decode(hdr.ID, frame[HeaderLen:])
	require.NoError(t, err)
	got, ok := msg.(*Register)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRoundTripCallInfoBuilder(t *testing.T) {
	b := NewBuilder(ProtoUTF8)
	want := b.CallInfo(1, 42, 2, "Alice", "1001", "Bob", "1002")
	frame := EncodeFrame(want)
	hdr, err := DecodeHeader(frame)
	require.NoError(t, err)

	msg, err := Decode(hdr.ID, frame[HeaderLen:])
	require.NoError(t, err)
	got := msg.(*CallInfo)
	assert.Equal(t, "Alice", got.CallingPartyName)
	assert.Equal(t, "1002", got.CalledParty)
}

func TestBuilderLegacyCallerIDDowncasesNonLatin1(t *testing.T) {
	b := NewBuilder(ProtoLegacy)
	ci := b.CallInfo(1, 1, 1, "日本語", "1001", "Bob", "1002")
	assert.Equal(t, "???", ci.CallingPartyName)
}

func TestBuilderCallerIDEncodingBoundary(t *testing.T) {
	// The Latin-1/UTF-8 switchover is at protocol 12: versions 11 and
	// below downcast caller-ID, 12 through 17 pass UTF-8 through.
	for _, v := range []ProtoVersion{3, 4, 10, 11} {
		ci := NewBuilder(v).CallInfo(1, 1, 1, "Müller日", "1001", "", "")
		assert.Equal(t, "M\xfcller?", ci.CallingPartyName, "proto %d", v)
	}
	for _, v := range []ProtoVersion{12, 13, 14, 15, 16, 17} {
		ci := NewBuilder(v).CallInfo(1, 1, 1, "Müller日", "1001", "", "")
		assert.Equal(t, "Müller日", ci.CallingPartyName, "proto %d", v)
	}
}

func TestBuilderLineStatusResEncodingBoundary(t *testing.T) {
	legacy := NewBuilder(11).LineStatusRes(1, "200", "Séverine")
	assert.Equal(t, "S\xe9verine", legacy.LineDisplay)
	utf8 := NewBuilder(12).LineStatusRes(1, "200", "Séverine")
	assert.Equal(t, "Séverine", utf8.LineDisplay)
}

func TestBuilderRegisterAckCarriesConfiguredDateTemplate(t *testing.T) {
	ack := NewBuilder(11).RegisterAck(10, "D/M/Y")
	assert.Equal(t, "D/M/Y", ack.DateTemplate)
	assert.Equal(t, uint32(10), ack.KeepAlive)
	assert.Equal(t, uint8(11), ack.ProtoVersion)
}

func TestDecodeUnknownIDReturnsOpaque(t *testing.T) {
	frame := EncodeFrame(&Opaque{ID: MessageID(0x9999), Body: []byte{1, 2, 3}})
	hdr, err := DecodeHeader(frame)
	require.NoError(t, err)
	msg, err := Decode(hdr.ID, frame[HeaderLen:])
	require.NoError(t, err)
	op, ok := msg.(*Opaque)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, op.Body)
}

func TestDecodeHeaderRejectsOversizedFrame(t *testing.T) {
	hdr := make([]byte, HeaderLen)
	hdr[0] = 0xff
	hdr[1] = 0xff
	hdr[2] = 0xff
	hdr[3] = 0xff
	_, err := DecodeHeader(hdr)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDecodeHeaderRejectsShortBuffer(t *testing.T) {
	_, err := DecodeHeader([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestButtonTemplateRoundTrip(t *testing.T) {
	want := &ButtonTemplateRes{
		ButtonOffset: 0,
		ButtonCount:  2,
		TotalCount:   2,
		Buttons: []ButtonDefinition{
			{Instance: 1, Type: 9},
			{Instance: 2, Type: 9},
		},
	}
	body := want.Encode(nil)
	got := &ButtonTemplateRes{}
	require.NoError(t, got.Decode(body))
	assert.Equal(t, want.Buttons, got.Buttons)
}

func TestSoftKeySetRoundTrip(t *testing.T) {
	want := &SoftKeySetRes{}
	want.Sets[0].Indices[0] = 3
	want.Sets[0].Indices[1] = 0xff
	body := want.Encode(nil)
	got := &SoftKeySetRes{}
	require.NoError(t, got.Decode(body))
	assert.Equal(t, want.Sets, got.Sets)
}

func TestMessageIDStringUnknown(t *testing.T) {
	assert.Contains(t, MessageID(0xABCD).String(), "Unknown")
	assert.Equal(t, "Register", IDRegister.String())
}

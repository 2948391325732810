package wire

// ProtoVersion gates the handful of fields whose wire encoding changed
// across firmware generations.
type ProtoVersion uint8

const (
	// ProtoLegacy covers firmware that renders caller-ID text as
	// ISO-8859-1.
	ProtoLegacy ProtoVersion = 0
	// ProtoUTF8 is the first version whose firmware understands UTF-8
	// caller-ID text; everything below it gets ISO-8859-1.
	ProtoUTF8 ProtoVersion = 12
)

// Builder renders protocol-version-sensitive messages. It is the only part
// of pkg/wire that knows about the ISO-8859-1/UTF-8 split; every other
// message type is encoding-agnostic.
type Builder struct {
	Version ProtoVersion
}

func NewBuilder(version ProtoVersion) Builder {
	return Builder{Version: version}
}

// caller translates s for the wire according to the negotiated version.
// Legacy firmware expects Latin-1: since code points U+0000-U+00FF map
// byte-for-byte onto ISO-8859-1, a straight rune->byte downcast suffices
// and any rune above 0xFF is replaced with '?'.
func (b Builder) caller(s string) string {
	if b.Version >= ProtoUTF8 {
		return s
	}
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			out = append(out, '?')
			continue
		}
		out = append(out, byte(r))
	}
	return string(out)
}

// CallInfo renders a version-appropriate CallInfo message.
func (b Builder) CallInfo(lineInstance, callID, callType uint32, callingName, calling, calledName, called string) *CallInfo {
	return &CallInfo{
		CallingPartyName: b.caller(callingName),
		CallingParty:     b.caller(calling),
		CalledPartyName:  b.caller(calledName),
		CalledParty:      b.caller(called),
		LineInstance:     lineInstance,
		CallID:           callID,
		CallType:         callType,
	}
}

// LineStatusRes renders a version-appropriate LineStatusRes message.
func (b Builder) LineStatusRes(lineInstance uint32, dirNumber, display string) *LineStatusRes {
	return &LineStatusRes{
		LineDirNumber: b.caller(dirNumber),
		LineDisplay:   b.caller(display),
		LineInstance:  lineInstance,
	}
}

// RegisterAck renders a version-appropriate RegisterAck, carrying the
// keepalive interval and date template configured for this device.
func (b Builder) RegisterAck(keepAliveSeconds uint32, dateTemplate string) *RegisterAck {
	return &RegisterAck{
		KeepAlive:          keepAliveSeconds,
		DateTemplate:       dateTemplate,
		SecondaryKeepAlive: keepAliveSeconds,
		ProtoVersion:       uint8(b.Version),
	}
}

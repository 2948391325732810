// Package wire implements the SCCP binary frame codec: the header format,
// the ~60-variant message union, and a protocol-version aware builder for
// the handful of messages whose layout differs across firmware versions.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderLen is the size in bytes of the three leading 32-bit header words
// (length, reserved, id).
const HeaderLen = 12

// MaxBodyLen bounds a decoded message body, keeping the largest variant
// under the protocol's ~3 KiB frame cap.
const MaxBodyLen = 3072 - HeaderLen

var (
	ErrMalformed   = errors.New("wire: malformed frame")
	ErrTooLarge    = errors.New("wire: frame exceeds MaxBodyLen")
	ErrShortBuffer = errors.New("wire: destination buffer too small")
)

// MessageID identifies an SCCP message variant. Values are the wire
// protocol's station message ids.
type MessageID uint32

const (
	IDKeepAlive                MessageID = 0x0000
	IDRegister                 MessageID = 0x0001
	IDIPPort                   MessageID = 0x0002
	IDKeypadButton             MessageID = 0x0003
	IDStimulus                 MessageID = 0x0005
	IDOffhook                  MessageID = 0x0006
	IDOnhook                   MessageID = 0x0007
	IDForwardStatusReq         MessageID = 0x0009
	IDSpeedDialStatReq         MessageID = 0x000A
	IDLineStatusReq            MessageID = 0x000B
	IDConfigStatusReq          MessageID = 0x000C
	IDTimeDateReq              MessageID = 0x000D
	IDButtonTemplateReq        MessageID = 0x000E
	IDVersionReq               MessageID = 0x000F
	IDCapabilitiesRes          MessageID = 0x0010
	IDAlarm                    MessageID = 0x0020
	IDOpenReceiveChannelAck    MessageID = 0x0022
	IDSoftKeySetReq            MessageID = 0x0025
	IDSoftKeyEvent             MessageID = 0x0026
	IDUnregister               MessageID = 0x0027
	IDSoftKeyTemplateReq       MessageID = 0x0028
	IDRegisterAvailableLines   MessageID = 0x002D
	IDFeatureStatusReq         MessageID = 0x0034
	IDRegisterAck              MessageID = 0x0081
	IDStartTone                MessageID = 0x0082
	IDStopTone                 MessageID = 0x0083
	IDSetRinger                MessageID = 0x0085
	IDSetLamp                  MessageID = 0x0086
	IDSetSpeaker               MessageID = 0x0088
	IDStartMediaTransmission   MessageID = 0x008A
	IDStopMediaTransmission    MessageID = 0x008B
	IDCallInfo                 MessageID = 0x008F
	IDForwardStatusRes         MessageID = 0x0090
	IDSpeedDialStatRes         MessageID = 0x0091
	IDLineStatusRes            MessageID = 0x0092
	IDConfigStatusRes          MessageID = 0x0093
	IDTimeDateRes              MessageID = 0x0094
	IDButtonTemplateRes        MessageID = 0x0097
	IDVersionRes               MessageID = 0x0098
	IDCapabilitiesReq          MessageID = 0x009B
	IDRegisterRej              MessageID = 0x009D
	IDReset                    MessageID = 0x009F
	IDKeepAliveAck             MessageID = 0x0100
	IDOpenReceiveChannel       MessageID = 0x0105
	IDCloseReceiveChannel      MessageID = 0x0106
	IDSoftKeyTemplateRes       MessageID = 0x0108
	IDSoftKeySetRes            MessageID = 0x0109
	IDSelectSoftKeys           MessageID = 0x0110
	IDCallState                MessageID = 0x0111
	IDDisplayNotify            MessageID = 0x0114
	IDClearNotify              MessageID = 0x0115
	IDActivateCallPlane        MessageID = 0x0116
	IDDialedNumber             MessageID = 0x011D
	IDFeatureStat              MessageID = 0x0146
)

var idNames = map[MessageID]string{
	IDKeepAlive: "KeepAlive", IDRegister: "Register", IDIPPort: "IPPort",
	IDKeypadButton: "KeypadButton", IDStimulus: "Stimulus", IDOffhook: "Offhook",
	IDOnhook: "Onhook", IDForwardStatusReq: "ForwardStatusReq",
	IDSpeedDialStatReq: "SpeedDialStatReq", IDLineStatusReq: "LineStatusReq",
	IDConfigStatusReq: "ConfigStatusReq", IDTimeDateReq: "TimeDateReq",
	IDButtonTemplateReq: "ButtonTemplateReq", IDVersionReq: "VersionReq",
	IDCapabilitiesRes: "CapabilitiesRes", IDAlarm: "Alarm",
	IDOpenReceiveChannelAck: "OpenReceiveChannelAck", IDSoftKeySetReq: "SoftKeySetReq",
	IDSoftKeyEvent: "SoftKeyEvent", IDUnregister: "Unregister",
	IDSoftKeyTemplateReq: "SoftKeyTemplateReq", IDRegisterAvailableLines: "RegisterAvailableLines",
	IDFeatureStatusReq: "FeatureStatusReq", IDRegisterAck: "RegisterAck",
	IDStartTone: "StartTone", IDStopTone: "StopTone", IDSetRinger: "SetRinger",
	IDSetLamp: "SetLamp", IDSetSpeaker: "SetSpeaker",
	IDStartMediaTransmission: "StartMediaTransmission", IDStopMediaTransmission: "StopMediaTransmission",
	IDCallInfo: "CallInfo", IDForwardStatusRes: "ForwardStatusRes",
	IDSpeedDialStatRes: "SpeedDialStatRes", IDLineStatusRes: "LineStatusRes",
	IDConfigStatusRes: "ConfigStatusRes", IDTimeDateRes: "TimeDateRes",
	IDButtonTemplateRes: "ButtonTemplateRes", IDVersionRes: "VersionRes",
	IDCapabilitiesReq: "CapabilitiesReq", IDRegisterRej: "RegisterRej",
	IDReset: "Reset", IDKeepAliveAck: "KeepAliveAck",
	IDOpenReceiveChannel: "OpenReceiveChannel", IDCloseReceiveChannel: "CloseReceiveChannel",
	IDSoftKeyTemplateRes: "SoftKeyTemplateRes", IDSoftKeySetRes: "SoftKeySetRes",
	IDSelectSoftKeys: "SelectSoftKeys", IDCallState: "CallState",
	IDDisplayNotify: "DisplayNotify", IDClearNotify: "ClearNotify",
	IDActivateCallPlane: "ActivateCallPlane", IDDialedNumber: "DialedNumber",
	IDFeatureStat: "FeatureStat",
}

func (id MessageID) String() string {
	if name, ok := idNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%04x)", uint32(id))
}

// Header is the 12-byte leading triplet common to every frame.
type Header struct {
	Length   uint32 // counts the ID word plus body bytes
	Reserved uint32
	ID       MessageID
}

// Message is implemented by every concrete message variant plus Opaque.
type Message interface {
	MessageID() MessageID
	// Encode appends the wire-format body (not including the header) to dst
	// and returns the result.
	Encode(dst []byte) []byte
	// Decode populates the receiver from a raw body slice.
	Decode(body []byte) error
}

// Opaque is used for message IDs the codec does not model explicitly;
// unknown IDs decode without aborting the session.
type Opaque struct {
	ID   MessageID
	Body []byte
}

func (o *Opaque) MessageID() MessageID { return o.ID }
func (o *Opaque) Encode(dst []byte) []byte {
	return append(dst, o.Body...)
}
func (o *Opaque) Decode(body []byte) error {
	o.Body = append([]byte(nil), body...)
	return nil
}

// EncodeFrame renders msg as a complete frame (header + body).
func EncodeFrame(msg Message) []byte {
	body := msg.Encode(nil)
	frame := make([]byte, HeaderLen+len(body))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(4+len(body)))
	binary.LittleEndian.PutUint32(frame[4:8], 0)
	binary.LittleEndian.PutUint32(frame[8:12], uint32(msg.MessageID()))
	copy(frame[HeaderLen:], body)
	return frame
}

// DecodeHeader parses the three leading 32-bit words of a frame.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderLen {
		return Header{}, ErrMalformed
	}
	h := Header{
		Length:   binary.LittleEndian.Uint32(buf[0:4]),
		Reserved: binary.LittleEndian.Uint32(buf[4:8]),
		ID:       MessageID(binary.LittleEndian.Uint32(buf[8:12])),
	}
	if h.Length < 4 {
		return h, ErrMalformed
	}
	if h.Length-4 > MaxBodyLen {
		return h, ErrTooLarge
	}
	return h, nil
}

// Decode dispatches on id and returns a concrete Message, or an *Opaque for
// unrecognized ids (never an error — unknown messages are logged and kept).
func Decode(id MessageID, body []byte) (Message, error) {
	ctor, ok := registry[id]
	if !ok {
		msg := &Opaque{}
		_ = msg.Decode(body)
		msg.ID = id
		return msg, nil
	}
	msg := ctor()
	if err := msg.Decode(body); err != nil {
		return nil, fmt.Errorf("wire: decode %s: %w", id, err)
	}
	return msg, nil
}

var registry = map[MessageID]func() Message{}

func register(id MessageID, ctor func() Message) {
	registry[id] = ctor
}

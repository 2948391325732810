package wire

import "encoding/binary"

func init() {
	register(IDOpenReceiveChannel, func() Message { return &OpenReceiveChannel{} })
	register(IDOpenReceiveChannelAck, func() Message { return &OpenReceiveChannelAck{} })
	register(IDCloseReceiveChannel, func() Message { return &CloseReceiveChannel{} })
	register(IDStartMediaTransmission, func() Message { return &StartMediaTransmission{} })
	register(IDStopMediaTransmission, func() Message { return &StopMediaTransmission{} })
}

// OpenReceiveChannel begins the media-negotiation sequence.
type OpenReceiveChannel struct {
	ConferenceID  uint32
	PassThruPartyID uint32
	MillisecondPacketSize uint32
	CompressionType uint32
	EchoCancellation uint32
	G723BitRate   uint32
	CallID        uint32
}

func (*OpenReceiveChannel) MessageID() MessageID { return IDOpenReceiveChannel }

func (m *OpenReceiveChannel) Encode(dst []byte) []byte {
	var tmp [4]byte
	for _, v := range []uint32{m.ConferenceID, m.PassThruPartyID, m.MillisecondPacketSize,
		m.CompressionType, m.EchoCancellation, m.G723BitRate, m.CallID} {
		binary.LittleEndian.PutUint32(tmp[:], v)
		dst = append(dst, tmp[:]...)
	}
	return dst
}

func (m *OpenReceiveChannel) Decode(body []byte) error {
	if err := needBody(body, 28); err != nil {
		return err
	}
	vals := []*uint32{&m.ConferenceID, &m.PassThruPartyID, &m.MillisecondPacketSize,
		&m.CompressionType, &m.EchoCancellation, &m.G723BitRate, &m.CallID}
	for i, v := range vals {
		*v = binary.LittleEndian.Uint32(body[i*4 : i*4+4])
	}
	return nil
}

// OpenReceiveChannelAck is the phone's reply, carrying the IP/port the
// server must target with StartMediaTransmission.
type OpenReceiveChannelAck struct {
	Status       uint32
	IP           uint32
	Port         uint32
	PassThruPartyID uint32
	CallID       uint32
}

func (*OpenReceiveChannelAck) MessageID() MessageID { return IDOpenReceiveChannelAck }

func (m *OpenReceiveChannelAck) Encode(dst []byte) []byte {
	var tmp [4]byte
	for _, v := range []uint32{m.Status, m.IP, m.Port, m.PassThruPartyID, m.CallID} {
		binary.LittleEndian.PutUint32(tmp[:], v)
		dst = append(dst, tmp[:]...)
	}
	return dst
}

func (m *OpenReceiveChannelAck) Decode(body []byte) error {
	if err := needBody(body, 20); err != nil {
		return err
	}
	vals := []*uint32{&m.Status, &m.IP, &m.Port, &m.PassThruPartyID, &m.CallID}
	for i, v := range vals {
		*v = binary.LittleEndian.Uint32(body[i*4 : i*4+4])
	}
	return nil
}

type CloseReceiveChannel struct {
	ConferenceID    uint32
	PassThruPartyID uint32
	CallID          uint32
}

func (*CloseReceiveChannel) MessageID() MessageID { return IDCloseReceiveChannel }
func (m *CloseReceiveChannel) Encode(dst []byte) []byte {
	var tmp [4]byte
	for _, v := range []uint32{m.ConferenceID, m.PassThruPartyID, m.CallID} {
		binary.LittleEndian.PutUint32(tmp[:], v)
		dst = append(dst, tmp[:]...)
	}
	return dst
}
func (m *CloseReceiveChannel) Decode(body []byte) error {
	if err := needBody(body, 12); err != nil {
		return err
	}
	m.ConferenceID = binary.LittleEndian.Uint32(body[0:4])
	m.PassThruPartyID = binary.LittleEndian.Uint32(body[4:8])
	m.CallID = binary.LittleEndian.Uint32(body[8:12])
	return nil
}

// StartMediaTransmission instructs the phone to begin sending RTP to the
// remote IP/port. Must follow OpenReceiveChannelAck.
type StartMediaTransmission struct {
	ConferenceID    uint32
	PassThruPartyID uint32
	RemoteIP        uint32
	RemotePort      uint32
	MillisecondPacketSize uint32
	CompressionType uint32
	PrecedenceValue uint32
	SilenceSuppression uint32
	MaxFramesPerPacket uint32
	G723BitRate     uint32
	CallID          uint32
}

func (*StartMediaTransmission) MessageID() MessageID { return IDStartMediaTransmission }

func (m *StartMediaTransmission) Encode(dst []byte) []byte {
	var tmp [4]byte
	for _, v := range []uint32{m.ConferenceID, m.PassThruPartyID, m.RemoteIP, m.RemotePort,
		m.MillisecondPacketSize, m.CompressionType, m.PrecedenceValue, m.SilenceSuppression,
		m.MaxFramesPerPacket, m.G723BitRate, m.CallID} {
		binary.LittleEndian.PutUint32(tmp[:], v)
		dst = append(dst, tmp[:]...)
	}
	return dst
}

func (m *StartMediaTransmission) Decode(body []byte) error {
	if err := needBody(body, 44); err != nil {
		return err
	}
	vals := []*uint32{&m.ConferenceID, &m.PassThruPartyID, &m.RemoteIP, &m.RemotePort,
		&m.MillisecondPacketSize, &m.CompressionType, &m.PrecedenceValue, &m.SilenceSuppression,
		&m.MaxFramesPerPacket, &m.G723BitRate, &m.CallID}
	for i, v := range vals {
		*v = binary.LittleEndian.Uint32(body[i*4 : i*4+4])
	}
	return nil
}

type StopMediaTransmission struct {
	ConferenceID    uint32
	PassThruPartyID uint32
	CallID          uint32
}

func (*StopMediaTransmission) MessageID() MessageID { return IDStopMediaTransmission }
func (m *StopMediaTransmission) Encode(dst []byte) []byte {
	var tmp [4]byte
	for _, v := range []uint32{m.ConferenceID, m.PassThruPartyID, m.CallID} {
		binary.LittleEndian.PutUint32(tmp[:], v)
		dst = append(dst, tmp[:]...)
	}
	return dst
}
func (m *StopMediaTransmission) Decode(body []byte) error {
	if err := needBody(body, 12); err != nil {
		return err
	}
	m.ConferenceID = binary.LittleEndian.Uint32(body[0:4])
	m.PassThruPartyID = binary.LittleEndian.Uint32(body[4:8])
	m.CallID = binary.LittleEndian.Uint32(body[8:12])
	return nil
}

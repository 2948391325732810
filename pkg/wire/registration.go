package wire

import "encoding/binary"

func init() {
	register(IDRegister, func() Message { return &Register{} })
	register(IDRegisterAck, func() Message { return &RegisterAck{} })
	register(IDRegisterRej, func() Message { return &RegisterRej{} })
	register(IDCapabilitiesReq, func() Message { return &CapabilitiesReq{} })
	register(IDCapabilitiesRes, func() Message { return &CapabilitiesRes{} })
	register(IDIPPort, func() Message { return &IPPort{} })
	register(IDUnregister, func() Message { return &Unregister{} })
	register(IDConfigStatusReq, func() Message { return &ConfigStatusReq{} })
	register(IDConfigStatusRes, func() Message { return &ConfigStatusRes{} })
	register(IDTimeDateReq, func() Message { return &TimeDateReq{} })
	register(IDTimeDateRes, func() Message { return &TimeDateRes{} })
	register(IDVersionReq, func() Message { return &VersionReq{} })
	register(IDVersionRes, func() Message { return &VersionRes{} })
	register(IDKeepAlive, func() Message { return &KeepAlive{} })
	register(IDKeepAliveAck, func() Message { return &KeepAliveAck{} })
	register(IDReset, func() Message { return &Reset{} })
	register(IDAlarm, func() Message { return &Alarm{} })
}

// Register is sent by the phone to begin the registration subprotocol.
type Register struct {
	Name          string
	UserID        uint32
	LineInstance  uint32
	IP            uint32
	Type          uint32
	MaxStreams    uint32
	ActiveStreams uint32
	ProtoVersion  uint8
}

func (*Register) MessageID() MessageID { return IDRegister }

func (m *Register) Encode(dst []byte) []byte {
	dst = putStr(dst, m.Name, 16)
	var tmp [4]byte
	put32 := func(v uint32) {
		binary.LittleEndian.PutUint32(tmp[:], v)
		dst = append(dst, tmp[:]...)
	}
	put32(m.UserID)
	put32(m.LineInstance)
	put32(m.IP)
	put32(m.Type)
	put32(m.MaxStreams)
	put32(m.ActiveStreams)
	dst = append(dst, m.ProtoVersion)
	return dst
}

func (m *Register) Decode(body []byte) error {
	if err := needBody(body, 37); err != nil {
		return err
	}
	m.Name = getStr(body, 16)
	m.UserID = binary.LittleEndian.Uint32(body[16:20])
	m.LineInstance = binary.LittleEndian.Uint32(body[20:24])
	m.IP = binary.LittleEndian.Uint32(body[24:28])
	m.Type = binary.LittleEndian.Uint32(body[28:32])
	m.MaxStreams = binary.LittleEndian.Uint32(body[32:36])
	m.ActiveStreams = binary.LittleEndian.Uint32(body[36:40])
	if len(body) >= 41 {
		m.ProtoVersion = body[40]
	}
	return nil
}

// RegisterAck is the server's acceptance reply. Builder.RegisterAck in
// builder.go fills it: keepalive seconds and date template come from the
// device configuration unchanged, and ProtoVersion from the negotiated
// version.
type RegisterAck struct {
	KeepAlive          uint32
	DateTemplate       string
	SecondaryKeepAlive uint32
	ProtoVersion       uint8
}

func (*RegisterAck) MessageID() MessageID { return IDRegisterAck }

func (m *RegisterAck) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.KeepAlive)
	dst = append(dst, tmp[:]...)
	dst = putStr(dst, m.DateTemplate, 8)
	binary.LittleEndian.PutUint32(tmp[:], m.SecondaryKeepAlive)
	dst = append(dst, tmp[:]...)
	dst = append(dst, m.ProtoVersion, 0, 0, 0)
	return dst
}

func (m *RegisterAck) Decode(body []byte) error {
	if err := needBody(body, 20); err != nil {
		return err
	}
	m.KeepAlive = binary.LittleEndian.Uint32(body[0:4])
	m.DateTemplate = getStr(body[4:12], 8)
	m.SecondaryKeepAlive = binary.LittleEndian.Uint32(body[12:16])
	m.ProtoVersion = body[16]
	return nil
}

// RegisterRej is sent when registration fails.
type RegisterRej struct {
	Message string
}

func (*RegisterRej) MessageID() MessageID { return IDRegisterRej }
func (m *RegisterRej) Encode(dst []byte) []byte {
	return putStr(dst, m.Message, 33)
}
func (m *RegisterRej) Decode(body []byte) error {
	m.Message = getStr(body, 33)
	return nil
}

// CapabilitiesReq carries no body.
type CapabilitiesReq struct{}

func (*CapabilitiesReq) MessageID() MessageID        { return IDCapabilitiesReq }
func (*CapabilitiesReq) Encode(dst []byte) []byte    { return dst }
func (*CapabilitiesReq) Decode(body []byte) error    { return nil }

// MaxCapabilities mirrors SCCP_MAX_CAPABILITIES from the wire protocol;
// the reported codec count is clamped to this value.
const MaxCapabilities = 18

type Capability struct {
	Codec  uint32
	Frames uint32
}

// CapabilitiesRes reports the phone's supported codec set.
type CapabilitiesRes struct {
	Codecs []Capability // len <= MaxCapabilities
}

func (*CapabilitiesRes) MessageID() MessageID { return IDCapabilitiesRes }

func (m *CapabilitiesRes) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(m.Codecs)))
	dst = append(dst, tmp[:]...)
	for i := 0; i < MaxCapabilities; i++ {
		var c Capability
		if i < len(m.Codecs) {
			c = m.Codecs[i]
		}
		binary.LittleEndian.PutUint32(tmp[:], c.Codec)
		dst = append(dst, tmp[:]...)
		binary.LittleEndian.PutUint32(tmp[:], c.Frames)
		dst = append(dst, tmp[:]...)
		dst = append(dst, make([]byte, 8)...) // payloads union, unused here
	}
	return dst
}

func (m *CapabilitiesRes) Decode(body []byte) error {
	if err := needBody(body, 4); err != nil {
		return err
	}
	count := binary.LittleEndian.Uint32(body[0:4])
	if count > MaxCapabilities {
		count = MaxCapabilities
	}
	const entrySize = 16
	m.Codecs = make([]Capability, 0, count)
	off := 4
	for i := uint32(0); i < count; i++ {
		if off+entrySize > len(body) {
			break
		}
		m.Codecs = append(m.Codecs, Capability{
			Codec:  binary.LittleEndian.Uint32(body[off : off+4]),
			Frames: binary.LittleEndian.Uint32(body[off+4 : off+8]),
		})
		off += entrySize
	}
	return nil
}

// IPPort reports the phone's RTP source port.
type IPPort struct {
	StationIPPort uint32
}

func (*IPPort) MessageID() MessageID { return IDIPPort }
func (m *IPPort) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.StationIPPort)
	return append(dst, tmp[:]...)
}
func (m *IPPort) Decode(body []byte) error {
	if err := needBody(body, 4); err != nil {
		return err
	}
	m.StationIPPort = binary.LittleEndian.Uint32(body[0:4])
	return nil
}

type Unregister struct{}

func (*Unregister) MessageID() MessageID     { return IDUnregister }
func (*Unregister) Encode(dst []byte) []byte { return dst }
func (*Unregister) Decode([]byte) error      { return nil }

type ConfigStatusReq struct{}

func (*ConfigStatusReq) MessageID() MessageID     { return IDConfigStatusReq }
func (*ConfigStatusReq) Encode(dst []byte) []byte { return dst }
func (*ConfigStatusReq) Decode([]byte) error      { return nil }

// ConfigStatusRes summarizes the device's registered line and speeddial
// counts.
type ConfigStatusRes struct {
	DeviceName      string
	StationUserID   uint32
	StationInstance uint32
	UserName        string
	ServerName      string
	NumberLines     uint32
	NumberSpeedDial uint32
}

func (*ConfigStatusRes) MessageID() MessageID { return IDConfigStatusRes }

func (m *ConfigStatusRes) Encode(dst []byte) []byte {
	dst = putStr(dst, m.DeviceName, 16)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.StationUserID)
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], m.StationInstance)
	dst = append(dst, tmp[:]...)
	dst = putStr(dst, m.UserName, 40)
	dst = putStr(dst, m.ServerName, 40)
	binary.LittleEndian.PutUint32(tmp[:], m.NumberLines)
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], m.NumberSpeedDial)
	dst = append(dst, tmp[:]...)
	return dst
}

func (m *ConfigStatusRes) Decode(body []byte) error {
	if err := needBody(body, 16+8+40+40+8); err != nil {
		return err
	}
	m.DeviceName = getStr(body, 16)
	m.StationUserID = binary.LittleEndian.Uint32(body[16:20])
	m.StationInstance = binary.LittleEndian.Uint32(body[20:24])
	m.UserName = getStr(body[24:64], 40)
	m.ServerName = getStr(body[64:104], 40)
	m.NumberLines = binary.LittleEndian.Uint32(body[104:108])
	m.NumberSpeedDial = binary.LittleEndian.Uint32(body[108:112])
	return nil
}

type TimeDateReq struct{}

func (*TimeDateReq) MessageID() MessageID     { return IDTimeDateReq }
func (*TimeDateReq) Encode(dst []byte) []byte { return dst }
func (*TimeDateReq) Decode([]byte) error      { return nil }

type TimeDateRes struct {
	Year, Month, DayOfWeek, Day                  uint32
	Hour, Minute, Seconds, Milliseconds          uint32
	SystemTime                                   uint32
}

func (*TimeDateRes) MessageID() MessageID { return IDTimeDateRes }

func (m *TimeDateRes) Encode(dst []byte) []byte {
	var tmp [4]byte
	for _, v := range []uint32{m.Year, m.Month, m.DayOfWeek, m.Day, m.Hour, m.Minute, m.Seconds, m.Milliseconds, m.SystemTime} {
		binary.LittleEndian.PutUint32(tmp[:], v)
		dst = append(dst, tmp[:]...)
	}
	return dst
}

func (m *TimeDateRes) Decode(body []byte) error {
	if err := needBody(body, 36); err != nil {
		return err
	}
	vals := []*uint32{&m.Year, &m.Month, &m.DayOfWeek, &m.Day, &m.Hour, &m.Minute, &m.Seconds, &m.Milliseconds, &m.SystemTime}
	for i, v := range vals {
		*v = binary.LittleEndian.Uint32(body[i*4 : i*4+4])
	}
	return nil
}

type VersionReq struct{}

func (*VersionReq) MessageID() MessageID     { return IDVersionReq }
func (*VersionReq) Encode(dst []byte) []byte { return dst }
func (*VersionReq) Decode([]byte) error      { return nil }

type VersionRes struct {
	Version string
}

func (*VersionRes) MessageID() MessageID        { return IDVersionRes }
func (m *VersionRes) Encode(dst []byte) []byte  { return putStr(dst, m.Version, 16) }
func (m *VersionRes) Decode(body []byte) error  { m.Version = getStr(body, 16); return nil }

type KeepAlive struct{}

func (*KeepAlive) MessageID() MessageID     { return IDKeepAlive }
func (*KeepAlive) Encode(dst []byte) []byte { return dst }
func (*KeepAlive) Decode([]byte) error      { return nil }

type KeepAliveAck struct{}

func (*KeepAliveAck) MessageID() MessageID     { return IDKeepAliveAck }
func (*KeepAliveAck) Encode(dst []byte) []byte { return dst }
func (*KeepAliveAck) Decode([]byte) error      { return nil }

// Reset types.
const (
	ResetHardRestart uint32 = 1
	ResetSoft        uint32 = 2
)

type Reset struct {
	Type uint32
}

func (*Reset) MessageID() MessageID { return IDReset }
func (m *Reset) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.Type)
	return append(dst, tmp[:]...)
}
func (m *Reset) Decode(body []byte) error {
	if err := needBody(body, 4); err != nil {
		return err
	}
	m.Type = binary.LittleEndian.Uint32(body[0:4])
	return nil
}

type Alarm struct {
	Severity uint32
	Display  string
	Param1   uint32
	Param2   uint32
}

func (*Alarm) MessageID() MessageID { return IDAlarm }
func (m *Alarm) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.Severity)
	dst = append(dst, tmp[:]...)
	dst = putStr(dst, m.Display, 80)
	binary.LittleEndian.PutUint32(tmp[:], m.Param1)
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], m.Param2)
	dst = append(dst, tmp[:]...)
	return dst
}
func (m *Alarm) Decode(body []byte) error {
	if err := needBody(body, 92); err != nil {
		return err
	}
	m.Severity = binary.LittleEndian.Uint32(body[0:4])
	m.Display = getStr(body[4:84], 80)
	m.Param1 = binary.LittleEndian.Uint32(body[84:88])
	m.Param2 = binary.LittleEndian.Uint32(body[88:92])
	return nil
}

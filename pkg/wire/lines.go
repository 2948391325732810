package wire

import "encoding/binary"

func init() {
	register(IDLineStatusReq, func() Message { return &LineStatusReq{} })
	register(IDLineStatusRes, func() Message { return &LineStatusRes{} })
	register(IDForwardStatusReq, func() Message { return &ForwardStatusReq{} })
	register(IDForwardStatusRes, func() Message { return &ForwardStatusRes{} })
	register(IDSpeedDialStatReq, func() Message { return &SpeedDialStatReq{} })
	register(IDSpeedDialStatRes, func() Message { return &SpeedDialStatRes{} })
	register(IDRegisterAvailableLines, func() Message { return &RegisterAvailableLines{} })
	register(IDFeatureStatusReq, func() Message { return &FeatureStatusReq{} })
	register(IDFeatureStat, func() Message { return &FeatureStat{} })
	register(IDDialedNumber, func() Message { return &DialedNumber{} })
}

type LineStatusReq struct {
	LineInstance uint32
}

func (*LineStatusReq) MessageID() MessageID { return IDLineStatusReq }
func (m *LineStatusReq) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.LineInstance)
	return append(dst, tmp[:]...)
}
func (m *LineStatusReq) Decode(body []byte) error {
	if err := needBody(body, 4); err != nil {
		return err
	}
	m.LineInstance = binary.LittleEndian.Uint32(body[0:4])
	return nil
}

// LineStatusRes reports the directory number and display label bound to a
// line instance. The caller-ID text fields are rendered
// by Builder according to the negotiated protocol version.
type LineStatusRes struct {
	LineDirNumber string
	LineDisplay   string
	LineInstance  uint32
}

func (*LineStatusRes) MessageID() MessageID { return IDLineStatusRes }

func (m *LineStatusRes) Encode(dst []byte) []byte {
	dst = putStr(dst, m.LineDirNumber, 25)
	dst = putStr(dst, m.LineDisplay, 40)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.LineInstance)
	return append(dst, tmp[:]...)
}

func (m *LineStatusRes) Decode(body []byte) error {
	if err := needBody(body, 69); err != nil {
		return err
	}
	m.LineDirNumber = getStr(body, 25)
	m.LineDisplay = getStr(body[25:65], 40)
	m.LineInstance = binary.LittleEndian.Uint32(body[65:69])
	return nil
}

type ForwardStatusReq struct {
	LineInstance uint32
}

func (*ForwardStatusReq) MessageID() MessageID { return IDForwardStatusReq }
func (m *ForwardStatusReq) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.LineInstance)
	return append(dst, tmp[:]...)
}
func (m *ForwardStatusReq) Decode(body []byte) error {
	if err := needBody(body, 4); err != nil {
		return err
	}
	m.LineInstance = binary.LittleEndian.Uint32(body[0:4])
	return nil
}

// ForwardStatusRes reports call-forward-all state.
type ForwardStatusRes struct {
	ActiveForward uint32
	LineInstance  uint32
	ForwardAllNum string
}

func (*ForwardStatusRes) MessageID() MessageID { return IDForwardStatusRes }

func (m *ForwardStatusRes) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.ActiveForward)
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], m.LineInstance)
	dst = append(dst, tmp[:]...)
	dst = putStr(dst, m.ForwardAllNum, 24)
	return dst
}

func (m *ForwardStatusRes) Decode(body []byte) error {
	if err := needBody(body, 32); err != nil {
		return err
	}
	m.ActiveForward = binary.LittleEndian.Uint32(body[0:4])
	m.LineInstance = binary.LittleEndian.Uint32(body[4:8])
	m.ForwardAllNum = getStr(body[8:32], 24)
	return nil
}

type SpeedDialStatReq struct {
	Index uint32
}

func (*SpeedDialStatReq) MessageID() MessageID { return IDSpeedDialStatReq }
func (m *SpeedDialStatReq) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.Index)
	return append(dst, tmp[:]...)
}
func (m *SpeedDialStatReq) Decode(body []byte) error {
	if err := needBody(body, 4); err != nil {
		return err
	}
	m.Index = binary.LittleEndian.Uint32(body[0:4])
	return nil
}

type SpeedDialStatRes struct {
	Index  uint32
	Number string
	Label  string
}

func (*SpeedDialStatRes) MessageID() MessageID { return IDSpeedDialStatRes }

func (m *SpeedDialStatRes) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.Index)
	dst = append(dst, tmp[:]...)
	dst = putStr(dst, m.Number, 24)
	dst = putStr(dst, m.Label, 40)
	return dst
}

func (m *SpeedDialStatRes) Decode(body []byte) error {
	if err := needBody(body, 68); err != nil {
		return err
	}
	m.Index = binary.LittleEndian.Uint32(body[0:4])
	m.Number = getStr(body[4:28], 24)
	m.Label = getStr(body[28:68], 40)
	return nil
}

// RegisterAvailableLines tells the phone how many of its physical line keys
// are SCCP-addressable.
type RegisterAvailableLines struct {
	Count uint32
}

func (*RegisterAvailableLines) MessageID() MessageID { return IDRegisterAvailableLines }
func (m *RegisterAvailableLines) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.Count)
	return append(dst, tmp[:]...)
}
func (m *RegisterAvailableLines) Decode(body []byte) error {
	if err := needBody(body, 4); err != nil {
		return err
	}
	m.Count = binary.LittleEndian.Uint32(body[0:4])
	return nil
}

type FeatureStatusReq struct {
	FeatureInstance uint32
}

func (*FeatureStatusReq) MessageID() MessageID { return IDFeatureStatusReq }
func (m *FeatureStatusReq) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.FeatureInstance)
	return append(dst, tmp[:]...)
}
func (m *FeatureStatusReq) Decode(body []byte) error {
	if err := needBody(body, 4); err != nil {
		return err
	}
	m.FeatureInstance = binary.LittleEndian.Uint32(body[0:4])
	return nil
}

type FeatureStat struct {
	FeatureInstance uint32
	FeatureID       uint32
	FeatureTextLabel string
	FeatureStatus   uint32
}

func (*FeatureStat) MessageID() MessageID { return IDFeatureStat }

func (m *FeatureStat) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.FeatureInstance)
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], m.FeatureID)
	dst = append(dst, tmp[:]...)
	dst = putStr(dst, m.FeatureTextLabel, 40)
	binary.LittleEndian.PutUint32(tmp[:], m.FeatureStatus)
	dst = append(dst, tmp[:]...)
	return dst
}

func (m *FeatureStat) Decode(body []byte) error {
	if err := needBody(body, 52); err != nil {
		return err
	}
	m.FeatureInstance = binary.LittleEndian.Uint32(body[0:4])
	m.FeatureID = binary.LittleEndian.Uint32(body[4:8])
	m.FeatureTextLabel = getStr(body[8:48], 40)
	m.FeatureStatus = binary.LittleEndian.Uint32(body[48:52])
	return nil
}

// DialedNumber reports the digits captured during an outgoing call or a
// call-forward-all setup.
type DialedNumber struct {
	CalledParty  string
	LineInstance uint32
	CallID       uint32
}

func (*DialedNumber) MessageID() MessageID { return IDDialedNumber }

func (m *DialedNumber) Encode(dst []byte) []byte {
	dst = putStr(dst, m.CalledParty, 24)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.LineInstance)
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], m.CallID)
	dst = append(dst, tmp[:]...)
	return dst
}

func (m *DialedNumber) Decode(body []byte) error {
	if err := needBody(body, 32); err != nil {
		return err
	}
	m.CalledParty = getStr(body, 24)
	m.LineInstance = binary.LittleEndian.Uint32(body[24:28])
	m.CallID = binary.LittleEndian.Uint32(body[28:32])
	return nil
}

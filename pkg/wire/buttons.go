package wire

import "encoding/binary"

func init() {
	register(IDButtonTemplateReq, func() Message { return &ButtonTemplateReq{} })
	register(IDButtonTemplateRes, func() Message { return &ButtonTemplateRes{} })
	register(IDSoftKeyTemplateReq, func() Message { return &SoftKeyTemplateReq{} })
	register(IDSoftKeyTemplateRes, func() Message { return &SoftKeyTemplateRes{} })
	register(IDSoftKeySetReq, func() Message { return &SoftKeySetReq{} })
	register(IDSoftKeySetRes, func() Message { return &SoftKeySetRes{} })
	register(IDSelectSoftKeys, func() Message { return &SelectSoftKeys{} })
	register(IDSoftKeyEvent, func() Message { return &SoftKeyEvent{} })
}

type ButtonTemplateReq struct{}

func (*ButtonTemplateReq) MessageID() MessageID     { return IDButtonTemplateReq }
func (*ButtonTemplateReq) Encode(dst []byte) []byte { return dst }
func (*ButtonTemplateReq) Decode([]byte) error      { return nil }

// ButtonDefinition is one entry of a ButtonTemplateRes, addressing one
// physical key by instance number.
type ButtonDefinition struct {
	Instance uint32
	Type     uint32
}

// MaxButtons mirrors StationMaxButtonTemplateSize; the largest model table
// used by pkg/device/buttontemplate.go fits well under this.
const MaxButtons = 42

type ButtonTemplateRes struct {
	ButtonOffset uint32
	ButtonCount  uint32
	TotalCount   uint32
	Buttons      []ButtonDefinition // len <= MaxButtons
}

func (*ButtonTemplateRes) MessageID() MessageID { return IDButtonTemplateRes }

func (m *ButtonTemplateRes) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.ButtonOffset)
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], m.ButtonCount)
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], m.TotalCount)
	dst = append(dst, tmp[:]...)
	for i := 0; i < MaxButtons; i++ {
		var b ButtonDefinition
		if i < len(m.Buttons) {
			b = m.Buttons[i]
		}
		dst = append(dst, byte(b.Instance), byte(b.Type))
	}
	return dst
}

func (m *ButtonTemplateRes) Decode(body []byte) error {
	if err := needBody(body, 12); err != nil {
		return err
	}
	m.ButtonOffset = binary.LittleEndian.Uint32(body[0:4])
	m.ButtonCount = binary.LittleEndian.Uint32(body[4:8])
	m.TotalCount = binary.LittleEndian.Uint32(body[8:12])
	off := 12
	count := int(m.ButtonCount)
	if count > MaxButtons {
		count = MaxButtons
	}
	m.Buttons = m.Buttons[:0]
	for off+2 <= len(body) && len(m.Buttons) < count {
		m.Buttons = append(m.Buttons, ButtonDefinition{
			Instance: uint32(body[off]),
			Type:     uint32(body[off+1]),
		})
		off += 2
	}
	return nil
}

type SoftKeyTemplateReq struct{}

func (*SoftKeyTemplateReq) MessageID() MessageID     { return IDSoftKeyTemplateReq }
func (*SoftKeyTemplateReq) Encode(dst []byte) []byte { return dst }
func (*SoftKeyTemplateReq) Decode([]byte) error      { return nil }

type SoftKeyDefinition struct {
	Label string
	Event uint32
}

const MaxSoftKeys = 32

// SoftKeyTemplateRes carries the global label->event table; SoftKeySetRes
// then selects subsets of it per call state.
type SoftKeyTemplateRes struct {
	Keys []SoftKeyDefinition // len <= MaxSoftKeys
}

func (*SoftKeyTemplateRes) MessageID() MessageID { return IDSoftKeyTemplateRes }

func (m *SoftKeyTemplateRes) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(m.Keys)))
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(m.Keys)))
	dst = append(dst, tmp[:]...)
	for i := 0; i < MaxSoftKeys; i++ {
		var k SoftKeyDefinition
		if i < len(m.Keys) {
			k = m.Keys[i]
		}
		dst = putStr(dst, k.Label, 16)
		binary.LittleEndian.PutUint32(tmp[:], k.Event)
		dst = append(dst, tmp[:]...)
	}
	return dst
}

func (m *SoftKeyTemplateRes) Decode(body []byte) error {
	if err := needBody(body, 8); err != nil {
		return err
	}
	count := binary.LittleEndian.Uint32(body[0:4])
	if count > MaxSoftKeys {
		count = MaxSoftKeys
	}
	const entrySize = 20
	off := 8
	m.Keys = make([]SoftKeyDefinition, 0, count)
	for i := uint32(0); i < count && off+entrySize <= len(body); i++ {
		m.Keys = append(m.Keys, SoftKeyDefinition{
			Label: getStr(body[off:off+16], 16),
			Event: binary.LittleEndian.Uint32(body[off+16 : off+20]),
		})
		off += entrySize
	}
	return nil
}

type SoftKeySetReq struct{}

func (*SoftKeySetReq) MessageID() MessageID     { return IDSoftKeySetReq }
func (*SoftKeySetReq) Encode(dst []byte) []byte { return dst }
func (*SoftKeySetReq) Decode([]byte) error      { return nil }

// SoftKeySetCount is the number of fixed call-state softkey sets.
const SoftKeySetCount = 8

type SoftKeySet struct {
	Indices [16]uint8 // index into the template's Keys, 0xff = unused
}

type SoftKeySetRes struct {
	Sets [SoftKeySetCount]SoftKeySet
}

func (*SoftKeySetRes) MessageID() MessageID { return IDSoftKeySetRes }

func (m *SoftKeySetRes) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], SoftKeySetCount)
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], SoftKeySetCount)
	dst = append(dst, tmp[:]...)
	for _, s := range m.Sets {
		dst = append(dst, s.Indices[:]...)
	}
	return dst
}

func (m *SoftKeySetRes) Decode(body []byte) error {
	if err := needBody(body, 8+SoftKeySetCount*16); err != nil {
		return err
	}
	off := 8
	for i := range m.Sets {
		copy(m.Sets[i].Indices[:], body[off:off+16])
		off += 16
	}
	return nil
}

type SelectSoftKeys struct {
	LineInstance uint32
	CallID       uint32
	SoftKeySet   uint32
	ValidKeyMask uint32
}

func (*SelectSoftKeys) MessageID() MessageID { return IDSelectSoftKeys }

func (m *SelectSoftKeys) Encode(dst []byte) []byte {
	var tmp [4]byte
	for _, v := range []uint32{m.LineInstance, m.CallID, m.SoftKeySet, m.ValidKeyMask} {
		binary.LittleEndian.PutUint32(tmp[:], v)
		dst = append(dst, tmp[:]...)
	}
	return dst
}

func (m *SelectSoftKeys) Decode(body []byte) error {
	if err := needBody(body, 16); err != nil {
		return err
	}
	m.LineInstance = binary.LittleEndian.Uint32(body[0:4])
	m.CallID = binary.LittleEndian.Uint32(body[4:8])
	m.SoftKeySet = binary.LittleEndian.Uint32(body[8:12])
	m.ValidKeyMask = binary.LittleEndian.Uint32(body[12:16])
	return nil
}

// SoftKeyEvent is sent by the phone when a softkey is pressed.
type SoftKeyEvent struct {
	Event        uint32
	LineInstance uint32
	CallID       uint32
}

func (*SoftKeyEvent) MessageID() MessageID { return IDSoftKeyEvent }

func (m *SoftKeyEvent) Encode(dst []byte) []byte {
	var tmp [4]byte
	for _, v := range []uint32{m.Event, m.LineInstance, m.CallID} {
		binary.LittleEndian.PutUint32(tmp[:], v)
		dst = append(dst, tmp[:]...)
	}
	return dst
}

func (m *SoftKeyEvent) Decode(body []byte) error {
	if err := needBody(body, 12); err != nil {
		return err
	}
	m.Event = binary.LittleEndian.Uint32(body[0:4])
	m.LineInstance = binary.LittleEndian.Uint32(body[4:8])
	m.CallID = binary.LittleEndian.Uint32(body[8:12])
	return nil
}

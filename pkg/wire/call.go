package wire

import "encoding/binary"

func init() {
	register(IDKeypadButton, func() Message { return &KeypadButton{} })
	register(IDStimulus, func() Message { return &Stimulus{} })
	register(IDOffhook, func() Message { return &Offhook{} })
	register(IDOnhook, func() Message { return &Onhook{} })
	register(IDCallState, func() Message { return &CallState{} })
	register(IDCallInfo, func() Message { return &CallInfo{} })
	register(IDStartTone, func() Message { return &StartTone{} })
	register(IDStopTone, func() Message { return &StopTone{} })
	register(IDSetLamp, func() Message { return &SetLamp{} })
	register(IDSetRinger, func() Message { return &SetRinger{} })
	register(IDSetSpeaker, func() Message { return &SetSpeaker{} })
	register(IDActivateCallPlane, func() Message { return &ActivateCallPlane{} })
	register(IDDisplayNotify, func() Message { return &DisplayNotify{} })
	register(IDClearNotify, func() Message { return &ClearNotify{} })
}

type KeypadButton struct {
	Button       uint32
	LineInstance uint32
	CallID       uint32
}

func (*KeypadButton) MessageID() MessageID { return IDKeypadButton }
func (m *KeypadButton) Encode(dst []byte) []byte {
	var tmp [4]byte
	for _, v := range []uint32{m.Button, m.LineInstance, m.CallID} {
		binary.LittleEndian.PutUint32(tmp[:], v)
		dst = append(dst, tmp[:]...)
	}
	return dst
}
func (m *KeypadButton) Decode(body []byte) error {
	if err := needBody(body, 12); err != nil {
		return err
	}
	m.Button = binary.LittleEndian.Uint32(body[0:4])
	m.LineInstance = binary.LittleEndian.Uint32(body[4:8])
	m.CallID = binary.LittleEndian.Uint32(body[8:12])
	return nil
}

// Stimulus reports a line-key, speeddial, or feature-key press.
type Stimulus struct {
	StimulusType uint32
	Instance     uint32
}

func (*Stimulus) MessageID() MessageID { return IDStimulus }
func (m *Stimulus) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.StimulusType)
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], m.Instance)
	dst = append(dst, tmp[:]...)
	return dst
}
func (m *Stimulus) Decode(body []byte) error {
	if err := needBody(body, 8); err != nil {
		return err
	}
	m.StimulusType = binary.LittleEndian.Uint32(body[0:4])
	m.Instance = binary.LittleEndian.Uint32(body[4:8])
	return nil
}

type Offhook struct {
	LineInstance uint32
	CallID       uint32
}

func (*Offhook) MessageID() MessageID { return IDOffhook }
func (m *Offhook) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.LineInstance)
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], m.CallID)
	dst = append(dst, tmp[:]...)
	return dst
}
func (m *Offhook) Decode(body []byte) error {
	if len(body) >= 8 {
		m.LineInstance = binary.LittleEndian.Uint32(body[0:4])
		m.CallID = binary.LittleEndian.Uint32(body[4:8])
	}
	return nil
}

type Onhook struct {
	LineInstance uint32
	CallID       uint32
}

func (*Onhook) MessageID() MessageID { return IDOnhook }
func (m *Onhook) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.LineInstance)
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], m.CallID)
	dst = append(dst, tmp[:]...)
	return dst
}
func (m *Onhook) Decode(body []byte) error {
	if len(body) >= 8 {
		m.LineInstance = binary.LittleEndian.Uint32(body[0:4])
		m.CallID = binary.LittleEndian.Uint32(body[4:8])
	}
	return nil
}

// CallState numeric values follow the SKINNY_CALLSTATE_* wire table;
// pkg/device/callflow.go is the authority on state transitions.
type CallState struct {
	State        uint32
	LineInstance uint32
	CallID       uint32
}

func (*CallState) MessageID() MessageID { return IDCallState }
func (m *CallState) Encode(dst []byte) []byte {
	var tmp [4]byte
	for _, v := range []uint32{m.State, m.LineInstance, m.CallID} {
		binary.LittleEndian.PutUint32(tmp[:], v)
		dst = append(dst, tmp[:]...)
	}
	return dst
}
func (m *CallState) Decode(body []byte) error {
	if err := needBody(body, 12); err != nil {
		return err
	}
	m.State = binary.LittleEndian.Uint32(body[0:4])
	m.LineInstance = binary.LittleEndian.Uint32(body[4:8])
	m.CallID = binary.LittleEndian.Uint32(body[8:12])
	return nil
}

// CallInfo carries caller-ID text; field encoding (ISO-8859-1 vs UTF-8) is
// protocol-version dependent and handled exclusively by Builder.
type CallInfo struct {
	CallingPartyName string
	CallingParty     string
	CalledPartyName  string
	CalledParty      string
	LineInstance     uint32
	CallID           uint32
	CallType         uint32
	OriginalCalledPartyName string
	OriginalCalledParty     string
}

func (*CallInfo) MessageID() MessageID { return IDCallInfo }

func (m *CallInfo) Encode(dst []byte) []byte {
	dst = putStr(dst, m.CallingPartyName, 40)
	dst = putStr(dst, m.CallingParty, 24)
	dst = putStr(dst, m.CalledPartyName, 40)
	dst = putStr(dst, m.CalledParty, 24)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.LineInstance)
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], m.CallID)
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], m.CallType)
	dst = append(dst, tmp[:]...)
	dst = putStr(dst, m.OriginalCalledPartyName, 40)
	dst = putStr(dst, m.OriginalCalledParty, 24)
	return dst
}

func (m *CallInfo) Decode(body []byte) error {
	const fixed = 40 + 24 + 40 + 24 + 12 + 40 + 24
	if err := needBody(body, fixed); err != nil {
		return err
	}
	off := 0
	next := func(size int) []byte {
		b := body[off : off+size]
		off += size
		return b
	}
	m.CallingPartyName = getStr(next(40), 40)
	m.CallingParty = getStr(next(24), 24)
	m.CalledPartyName = getStr(next(40), 40)
	m.CalledParty = getStr(next(24), 24)
	m.LineInstance = binary.LittleEndian.Uint32(next(4))
	m.CallID = binary.LittleEndian.Uint32(next(4))
	m.CallType = binary.LittleEndian.Uint32(next(4))
	m.OriginalCalledPartyName = getStr(next(40), 40)
	m.OriginalCalledParty = getStr(next(24), 24)
	return nil
}

type StartTone struct {
	Tone         uint32
	LineInstance uint32
	CallID       uint32
}

func (*StartTone) MessageID() MessageID { return IDStartTone }
func (m *StartTone) Encode(dst []byte) []byte {
	var tmp [4]byte
	for _, v := range []uint32{m.Tone, 0, m.LineInstance, m.CallID} {
		binary.LittleEndian.PutUint32(tmp[:], v)
		dst = append(dst, tmp[:]...)
	}
	return dst
}
func (m *StartTone) Decode(body []byte) error {
	if err := needBody(body, 16); err != nil {
		return err
	}
	m.Tone = binary.LittleEndian.Uint32(body[0:4])
	m.LineInstance = binary.LittleEndian.Uint32(body[8:12])
	m.CallID = binary.LittleEndian.Uint32(body[12:16])
	return nil
}

type StopTone struct {
	LineInstance uint32
	CallID       uint32
}

func (*StopTone) MessageID() MessageID { return IDStopTone }
func (m *StopTone) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.LineInstance)
	dst = append(dst, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], m.CallID)
	dst = append(dst, tmp[:]...)
	return dst
}
func (m *StopTone) Decode(body []byte) error {
	if len(body) >= 8 {
		m.LineInstance = binary.LittleEndian.Uint32(body[0:4])
		m.CallID = binary.LittleEndian.Uint32(body[4:8])
	}
	return nil
}

type SetLamp struct {
	Stimulus         uint32
	StimulusInstance uint32
	LampMode         uint32
}

func (*SetLamp) MessageID() MessageID { return IDSetLamp }
func (m *SetLamp) Encode(dst []byte) []byte {
	var tmp [4]byte
	for _, v := range []uint32{m.Stimulus, m.StimulusInstance, m.LampMode} {
		binary.LittleEndian.PutUint32(tmp[:], v)
		dst = append(dst, tmp[:]...)
	}
	return dst
}
func (m *SetLamp) Decode(body []byte) error {
	if err := needBody(body, 12); err != nil {
		return err
	}
	m.Stimulus = binary.LittleEndian.Uint32(body[0:4])
	m.StimulusInstance = binary.LittleEndian.Uint32(body[4:8])
	m.LampMode = binary.LittleEndian.Uint32(body[8:12])
	return nil
}

type SetRinger struct {
	RingerMode uint32
}

func (*SetRinger) MessageID() MessageID { return IDSetRinger }
func (m *SetRinger) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.RingerMode)
	dst = append(dst, tmp[:]...)
	dst = append(dst, 0, 0, 0, 0, 0, 0, 0, 0)
	return dst
}
func (m *SetRinger) Decode(body []byte) error {
	if err := needBody(body, 4); err != nil {
		return err
	}
	m.RingerMode = binary.LittleEndian.Uint32(body[0:4])
	return nil
}

type SetSpeaker struct {
	SpeakerMode uint32
}

func (*SetSpeaker) MessageID() MessageID { return IDSetSpeaker }
func (m *SetSpeaker) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.SpeakerMode)
	return append(dst, tmp[:]...)
}
func (m *SetSpeaker) Decode(body []byte) error {
	if err := needBody(body, 4); err != nil {
		return err
	}
	m.SpeakerMode = binary.LittleEndian.Uint32(body[0:4])
	return nil
}

type ActivateCallPlane struct {
	LineInstance uint32
}

func (*ActivateCallPlane) MessageID() MessageID { return IDActivateCallPlane }
func (m *ActivateCallPlane) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.LineInstance)
	return append(dst, tmp[:]...)
}
func (m *ActivateCallPlane) Decode(body []byte) error {
	if err := needBody(body, 4); err != nil {
		return err
	}
	m.LineInstance = binary.LittleEndian.Uint32(body[0:4])
	return nil
}

// DisplayNotify shows a transient message on the phone's status line.
type DisplayNotify struct {
	DisplayTimeout uint32
	DisplayMessage string
}

func (*DisplayNotify) MessageID() MessageID { return IDDisplayNotify }
func (m *DisplayNotify) Encode(dst []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.DisplayTimeout)
	dst = append(dst, tmp[:]...)
	dst = putStr(dst, m.DisplayMessage, 32)
	return dst
}
func (m *DisplayNotify) Decode(body []byte) error {
	if err := needBody(body, 36); err != nil {
		return err
	}
	m.DisplayTimeout = binary.LittleEndian.Uint32(body[0:4])
	m.DisplayMessage = getStr(body[4:36], 32)
	return nil
}

type ClearNotify struct{}

func (*ClearNotify) MessageID() MessageID     { return IDClearNotify }
func (*ClearNotify) Encode(dst []byte) []byte { return dst }
func (*ClearNotify) Decode([]byte) error      { return nil }

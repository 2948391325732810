package device

import "github.com/skinnycore/sccp/pkg/wire"

// SoftKeySet identifies one of the eight fixed call-state softkey sets.
type SoftKeySet uint32

const (
	SoftKeySetOnhook         SoftKeySet = 0
	SoftKeySetConnected      SoftKeySet = 1
	SoftKeySetOnHold         SoftKeySet = 2
	SoftKeySetRingIn         SoftKeySet = 3
	SoftKeySetOffHook        SoftKeySet = 4
	SoftKeySetConnInTransfer SoftKeySet = 5
	SoftKeySetCallFwd        SoftKeySet = 6
	SoftKeySetAutoAnswer     SoftKeySet = 7
)

// Softkey event codes, matching the SOFTKEY_* wire values.
const (
	KeyRedial   uint32 = 0x01
	KeyNewCall  uint32 = 0x02
	KeyHold     uint32 = 0x03
	KeyTransfer uint32 = 0x04
	KeyCFwdAll  uint32 = 0x05
	KeyEndCall  uint32 = 0x09
	KeyResume   uint32 = 0x0A
	KeyAnswer   uint32 = 0x0B
	KeyDND      uint32 = 0x14
	KeyCancel   uint32 = 0x15
)

var keyLabels = map[uint32]string{
	KeyRedial: "Redial", KeyNewCall: "NewCall", KeyHold: "Hold",
	KeyTransfer: "Transfer", KeyCFwdAll: "CFwdAll", KeyEndCall: "EndCall",
	KeyResume: "Resume", KeyAnswer: "Answer", KeyDND: "DND", KeyCancel: "Cancel",
}

// softKeySetMembership is the fixed per-call-state membership table.
var softKeySetMembership = map[SoftKeySet][]uint32{
	SoftKeySetOnhook:         {KeyRedial, KeyNewCall, KeyCFwdAll, KeyDND},
	SoftKeySetConnected:      {KeyHold, KeyEndCall, KeyTransfer, KeyNewCall},
	SoftKeySetOnHold:         {KeyNewCall, KeyResume, KeyEndCall},
	SoftKeySetRingIn:         {KeyAnswer, KeyEndCall},
	SoftKeySetOffHook:        {KeyEndCall},
	SoftKeySetConnInTransfer: {KeyEndCall, KeyTransfer},
	SoftKeySetCallFwd:        {KeyCancel, KeyCFwdAll},
	SoftKeySetAutoAnswer:     {},
}

// softKeyOrder fixes the position each key occupies in the shared
// template so SoftKeySetRes indices are stable across sessions.
var softKeyOrder = []uint32{
	KeyRedial, KeyNewCall, KeyHold, KeyTransfer, KeyCFwdAll, KeyEndCall,
	KeyResume, KeyAnswer, KeyDND, KeyCancel,
}

// SoftKeyTemplate renders the single shared label->event table every
// device gets on SOFTKEY_TEMPLATE_REQ.
func SoftKeyTemplate() *wire.SoftKeyTemplateRes {
	keys := make([]wire.SoftKeyDefinition, 0, len(softKeyOrder))
	for _, event := range softKeyOrder {
		keys = append(keys, wire.SoftKeyDefinition{Label: keyLabels[event], Event: event})
	}
	return &wire.SoftKeyTemplateRes{Keys: keys}
}

// SoftKeySets renders the SOFTKEY_SET_RES message: each of the eight
// fixed sets as indices into the shared template built by
// SoftKeyTemplate. The message carries no per-set mask; SelectSoftKeys
// always sends ValidKeyMask.
func SoftKeySets() *wire.SoftKeySetRes {
	pos := make(map[uint32]int, len(softKeyOrder))
	for i, event := range softKeyOrder {
		pos[event] = i
	}
	res := &wire.SoftKeySetRes{}
	for set := SoftKeySet(0); set < wire.SoftKeySetCount; set++ {
		for i := range res.Sets[set].Indices {
			res.Sets[set].Indices[i] = 0xff
		}
		for i, event := range softKeySetMembership[set] {
			if i >= len(res.Sets[set].Indices) {
				break
			}
			res.Sets[set].Indices[i] = uint8(pos[event])
		}
	}
	return res
}

// ValidKeyMask is always 0xFFFFFFFF; per-set masks are deliberately not
// generated.
const ValidKeyMask uint32 = 0xFFFFFFFF

// SelectSoftKeys builds the message that tells the phone which set to
// display for a given line/call.
func SelectSoftKeys(lineInstance, callID uint32, set SoftKeySet) *wire.SelectSoftKeys {
	return &wire.SelectSoftKeys{
		LineInstance: lineInstance,
		CallID:       callID,
		SoftKeySet:   uint32(set),
		ValidKeyMask: ValidKeyMask,
	}
}

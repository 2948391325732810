package device

import "github.com/skinnycore/sccp/pkg/wire"

// lineButtonCount gives the number of physical line-capable buttons
// each supported model reports.
var lineButtonCount = map[Type]int{
	Type7905: 1, Type7906: 1, Type7911: 1, Type7912: 1, Type7937: 1,
	Type7940: 2, Type7941: 2, Type7941GE: 2, Type7942: 2, Type7945: 2,
	Type7920: 6, Type7921: 6,
	Type7960: 6, Type7961: 6, Type7962: 6, Type7965: 6,
	Type7970: 8, Type7971: 8, Type7971GE: 8, Type7975: 8, TypeCIPC: 8,
	Type8941: 4, Type8945: 4,
	Type7931: 24,
}

// ButtonTemplate builds this device's button layout: line buttons in
// instance order first, then speeddial buttons, then NONE padding to the
// model's total button count.
func ButtonTemplate(t Type, numLines, numSpeedDials int) []wire.ButtonDefinition {
	total, ok := lineButtonCount[t]
	if !ok {
		total = numLines + numSpeedDials
	}
	buttons := make([]wire.ButtonDefinition, 0, total)
	for i := 0; i < total; i++ {
		instance := uint32(i + 1)
		switch {
		case i < numLines:
			buttons = append(buttons, wire.ButtonDefinition{Instance: instance, Type: buttonTypeLine})
		case i < numLines+numSpeedDials:
			buttons = append(buttons, wire.ButtonDefinition{Instance: instance, Type: buttonTypeSpeedDial})
		default:
			buttons = append(buttons, wire.ButtonDefinition{Instance: instance, Type: buttonTypeNone})
		}
	}
	return buttons
}

// Button type codes: BT_LINE / BT_SPEEDDIAL / BT_NONE, each aliasing
// the stimulus_type code of the same name.
const (
	buttonTypeLine      uint32 = 0x09 // STIMULUS_LINE
	buttonTypeSpeedDial uint32 = 0x02 // STIMULUS_SPEEDDIAL
	buttonTypeVoicemail uint32 = 0x0F // STIMULUS_VOICEMAIL
	buttonTypeNone      uint32 = 0xFF // STIMULUS_NONE
)

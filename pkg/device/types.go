// Package device implements the SCCP per-device / per-call state machine:
// registration, lines, subchannels, softkey sets, button templates, and
// the outgoing/incoming call flows.
package device

import "fmt"

// Type identifies a phone model/firmware family by its wire-reported
// numeric device type.
type Type uint32

const (
	Type7960   Type = 7
	Type7940   Type = 8
	Type7941   Type = 115
	Type7971GE Type = 118
	Type7971   Type = 119
	Type7911   Type = 307
	Type7941GE Type = 309
	Type7931   Type = 348
	Type7921   Type = 365
	Type7906   Type = 369
	Type7962   Type = 404
	Type7937   Type = 431
	Type7942   Type = 434
	Type7945   Type = 435
	Type7965   Type = 436
	Type7975   Type = 437
	Type7905   Type = 20000
	Type7920   Type = 30002
	Type7970   Type = 30006
	Type7912   Type = 30007
	TypeCIPC   Type = 30016
	Type7961   Type = 30018
	Type8941   Type = 586
	Type8945   Type = 585
)

var typeNames = map[Type]string{
	Type7960: "7960", Type7940: "7940", Type7941: "7941", Type7971GE: "7971GE",
	Type7971: "7971", Type7911: "7911", Type7941GE: "7941GE", Type7931: "7931",
	Type7921: "7921", Type7906: "7906", Type7962: "7962", Type7937: "7937",
	Type7942: "7942", Type7945: "7945", Type7965: "7965", Type7975: "7975",
	Type7905: "7905", Type7920: "7920", Type7970: "7970", Type7912: "7912",
	TypeCIPC: "CIPC", Type7961: "7961", Type8941: "8941", Type8945: "8945",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", uint32(t))
}

// IsSupported reports whether t has a known button-template layout;
// registration is refused for anything else.
func IsSupported(t Type) bool {
	_, ok := lineButtonCount[t]
	return ok
}

// ProtoVersion is the phone's negotiated SCCP protocol version.
type ProtoVersion uint8

// RegState is the device's registration lifecycle state.
type RegState int

const (
	RegStateUnregistered RegState = iota
	RegStateRegistering
	RegStateRegistered
)

func (s RegState) String() string {
	switch s {
	case RegStateUnregistered:
		return "unregistered"
	case RegStateRegistering:
		return "registering"
	case RegStateRegistered:
		return "registered"
	default:
		return "invalid"
	}
}

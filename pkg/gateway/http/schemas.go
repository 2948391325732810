package http

import "github.com/skinnycore/sccp/pkg/session"

// deviceListResponse is the body of GET /api/v1/devices.
type deviceListResponse struct {
	Devices []session.Info `json:"devices"`
}

// configDeviceView is one device row in GET /api/v1/config.
type configDeviceView struct {
	Name           string `json:"name"`
	Line           string `json:"line"`
	Voicemail      string `json:"voicemail,omitempty"`
	SpeedDialCount int    `json:"speeddial_count"`
}

// configResponse is the body of GET /api/v1/config.
type configResponse struct {
	BindAddr    string             `json:"bindaddr"`
	BindPort    int                `json:"bindport"`
	KeepAlive   int                `json:"keepalive_seconds"`
	AuthTimeout int                `json:"authtimeout_seconds"`
	DateFormat  string             `json:"dateformat"`
	AllowGuest  bool               `json:"allowguest"`
	MaxGuests   int                `json:"max_guests"`
	Devices     []configDeviceView `json:"devices"`
}

// debugRequest is the body of POST /api/v1/debug, carrying one of the
// operator's "set debug" verbs.
type debugRequest struct {
	Mode  string `json:"mode"`            // on | off | ip | device
	Value string `json:"value,omitempty"` // the address or device name for ip/device
}

// resetResponse is the body of POST /api/v1/devices/{name}/reset.
type resetResponse struct {
	Reset int `json:"reset"`
}

// versionResponse is the body of GET /api/v1/version.
type versionResponse struct {
	Version string `json:"version"`
}

// completeResponse is the body of GET /api/v1/complete.
type completeResponse struct {
	Names []string `json:"names"`
}

// errorResponse is returned with any non-2xx status.
type errorResponse struct {
	Error string `json:"error"`
}

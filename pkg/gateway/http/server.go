// Package http exposes the operator interface over HTTP: the reset,
// debug-toggle, and show-config/devices/stats/version capabilities of
// the classic CLI, served as JSON routes. A GatewayServer owns a
// ServeMux plus the route table, constructed against the live server.
package http

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/skinnycore/sccp/internal/metrics"
	"github.com/skinnycore/sccp/pkg/config"
	"github.com/skinnycore/sccp/pkg/session"
)

// Controller is the slice of pkg/server.Server the gateway drives;
// narrowed to an interface so handler tests can stub it.
type Controller interface {
	ResetDevice(name string, restart bool) error
	ResetAll(restart bool) int
	SessionInfos() []session.Info
	Debug() *session.DebugFlags
	Config() *config.Store
}

// GatewayServer serves the operator routes.
type GatewayServer struct {
	ctrl     Controller
	metrics  *metrics.Metrics
	version  string
	logger   *log.Entry
	serveMux *http.ServeMux
}

// NewGatewayServer builds the route table against ctrl. metrics may be
// nil; the stats route then reports zeroes.
func NewGatewayServer(ctrl Controller, m *metrics.Metrics, version string, logger *log.Entry) *GatewayServer {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	g := &GatewayServer{
		ctrl:     ctrl,
		metrics:  m,
		version:  version,
		logger:   logger.WithField("service", "gateway"),
		serveMux: http.NewServeMux(),
	}
	g.serveMux.HandleFunc("/api/v1/version", g.handleVersion)
	g.serveMux.HandleFunc("/api/v1/config", g.handleConfig)
	g.serveMux.HandleFunc("/api/v1/devices", g.handleDevices)
	g.serveMux.HandleFunc("/api/v1/devices/", g.handleDeviceAction)
	g.serveMux.HandleFunc("/api/v1/stats", g.handleStats)
	g.serveMux.HandleFunc("/api/v1/debug", g.handleDebug)
	g.serveMux.HandleFunc("/api/v1/complete", g.handleComplete)
	return g
}

// ServeMux exposes the mux so cmd wiring can mount extra routes (the
// Prometheus scrape endpoint) on the same listener.
func (g *GatewayServer) ServeMux() *http.ServeMux { return g.serveMux }

// ListenAndServe serves the operator interface, blocking.
func (g *GatewayServer) ListenAndServe(addr string) error {
	g.logger.WithField("addr", addr).Info("gateway: listening")
	return http.ListenAndServe(addr, g.serveMux)
}

func (g *GatewayServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		g.logger.WithError(err).Warn("gateway: response encode failed")
	}
}

func (g *GatewayServer) writeError(w http.ResponseWriter, status int, msg string) {
	g.writeJSON(w, status, errorResponse{Error: msg})
}

func (g *GatewayServer) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	g.writeJSON(w, http.StatusOK, versionResponse{Version: g.version})
}

func (g *GatewayServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	snap := g.ctrl.Config().Current()
	resp := configResponse{
		BindAddr:    snap.General.BindAddr,
		BindPort:    snap.General.BindPort,
		KeepAlive:   int(snap.General.KeepAliveInterval.Seconds()),
		AuthTimeout: int(snap.General.AuthTimeout.Seconds()),
		DateFormat:  snap.General.DateFormat,
		AllowGuest:  snap.General.AllowGuest,
		MaxGuests:   snap.General.MaxGuests,
	}
	for name, dev := range snap.Devices {
		if name == "" {
			continue // the guest template has no fixed identity to show
		}
		view := configDeviceView{
			Name:           name,
			Line:           dev.Line,
			SpeedDialCount: len(dev.SpeedDials),
		}
		if line, ok := snap.Lines[dev.Line]; ok {
			view.Voicemail = line.VoicemailID
		}
		resp.Devices = append(resp.Devices, view)
	}
	sort.Slice(resp.Devices, func(i, j int) bool { return resp.Devices[i].Name < resp.Devices[j].Name })
	g.writeJSON(w, http.StatusOK, resp)
}

func (g *GatewayServer) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	infos := g.ctrl.SessionInfos()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	g.writeJSON(w, http.StatusOK, deviceListResponse{Devices: infos})
}

// handleDeviceAction routes POST /api/v1/devices/{name}/reset, with the
// special name "all" fanning out to every session. The restart query
// parameter selects a hard restart.
func (g *GatewayServer) handleDeviceAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/devices/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "reset" {
		g.writeError(w, http.StatusNotFound, "unknown device action")
		return
	}
	name := parts[0]
	restart := r.URL.Query().Get("restart") == "1"
	if name == "all" {
		n := g.ctrl.ResetAll(restart)
		g.writeJSON(w, http.StatusOK, resetResponse{Reset: n})
		return
	}
	if err := g.ctrl.ResetDevice(name, restart); err != nil {
		g.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	g.writeJSON(w, http.StatusOK, resetResponse{Reset: 1})
}

func (g *GatewayServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	var stats metrics.Stats
	if g.metrics != nil {
		stats = g.metrics.Snapshot()
	}
	g.writeJSON(w, http.StatusOK, stats)
}

func (g *GatewayServer) handleDebug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	var req debugRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	flags := g.ctrl.Debug()
	switch req.Mode {
	case "on":
		flags.SetGlobal(true)
	case "off":
		flags.SetGlobal(false)
	case "ip":
		if req.Value == "" {
			g.writeError(w, http.StatusBadRequest, "ip mode requires value")
			return
		}
		flags.AddIP(req.Value)
	case "device":
		if req.Value == "" {
			g.writeError(w, http.StatusBadRequest, "device mode requires value")
			return
		}
		flags.AddDevice(req.Value)
	default:
		g.writeError(w, http.StatusBadRequest, "mode must be on, off, ip, or device")
		return
	}
	g.logger.WithFields(log.Fields{"mode": req.Mode, "value": req.Value}).Info("gateway: debug flags changed")
	w.WriteHeader(http.StatusNoContent)
}

// handleComplete serves name completion for operator tooling: live
// device names matching the prefix query parameter.
func (g *GatewayServer) handleComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	prefix := r.URL.Query().Get("prefix")
	var names []string
	for _, info := range g.ctrl.SessionInfos() {
		if strings.HasPrefix(info.Name, prefix) {
			names = append(names, info.Name)
		}
	}
	sort.Strings(names)
	g.writeJSON(w, http.StatusOK, completeResponse{Names: names})
}

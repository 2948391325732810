package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinnycore/sccp/internal/metrics"
	"github.com/skinnycore/sccp/pkg/config"
	"github.com/skinnycore/sccp/pkg/session"
)

type stubController struct {
	infos    []session.Info
	debug    *session.DebugFlags
	store    *config.Store
	resets   []string
	resetAll int
}

func (s *stubController) ResetDevice(name string, restart bool) error {
	for _, info := range s.infos {
		if info.Name == name {
			s.resets = append(s.resets, name)
			return nil
		}
	}
	return errors.New("no such device")
}

func (s *stubController) ResetAll(restart bool) int {
	s.resetAll++
	return len(s.infos)
}

func (s *stubController) SessionInfos() []session.Info { return s.infos }
func (s *stubController) Debug() *session.DebugFlags   { return s.debug }
func (s *stubController) Config() *config.Store        { return s.store }

const testConfig = `
[general]
authtimeout = 5
allowguest = yes

[line_200]
cid_name = Alice
cid_num = 200
voicemail = 2000

[device_SEP001122334455]
line = 200
`

func newTestGateway(t *testing.T) (*GatewayServer, *stubController) {
	t.Helper()
	snap, err := config.Load([]byte(testConfig))
	require.NoError(t, err)
	ctrl := &stubController{
		infos: []session.Info{
			{Name: "SEP001122334455", Addr: "192.0.2.1:4000", Type: "7941", ProtoVersion: 11, Capabilities: "ulaw alaw"},
		},
		debug: session.NewDebugFlags(),
		store: config.NewStore(snap),
	}
	g := NewGatewayServer(ctrl, metrics.New(nil), "sccpcore test", log.NewEntry(log.New()))
	return g, ctrl
}

func do(g *GatewayServer, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	g.ServeMux().ServeHTTP(rec, req)
	return rec
}

func TestVersionRoute(t *testing.T) {
	g, _ := newTestGateway(t)
	rec := do(g, http.MethodGet, "/api/v1/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp versionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sccpcore test", resp.Version)
}

func TestConfigRoute(t *testing.T) {
	g, _ := newTestGateway(t)
	rec := do(g, http.MethodGet, "/api/v1/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp configResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.AllowGuest)
	require.Len(t, resp.Devices, 1)
	assert.Equal(t, "SEP001122334455", resp.Devices[0].Name)
	assert.Equal(t, "200", resp.Devices[0].Line)
	assert.Equal(t, "2000", resp.Devices[0].Voicemail)
}

func TestDevicesRoute(t *testing.T) {
	g, _ := newTestGateway(t)
	rec := do(g, http.MethodGet, "/api/v1/devices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp deviceListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Devices, 1)
	assert.Equal(t, "ulaw alaw", resp.Devices[0].Capabilities)
}

func TestResetRoute(t *testing.T) {
	g, ctrl := newTestGateway(t)

	rec := do(g, http.MethodPost, "/api/v1/devices/SEP001122334455/reset?restart=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"SEP001122334455"}, ctrl.resets)

	rec = do(g, http.MethodPost, "/api/v1/devices/SEPnope/reset", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(g, http.MethodPost, "/api/v1/devices/all/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ctrl.resetAll)
}

func TestDebugRoute(t *testing.T) {
	g, ctrl := newTestGateway(t)

	rec := do(g, http.MethodPost, "/api/v1/debug", `{"mode":"on"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, ctrl.debug.Match("anything", "198.51.100.7"))

	rec = do(g, http.MethodPost, "/api/v1/debug", `{"mode":"off"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, ctrl.debug.Match("anything", "198.51.100.7"))

	rec = do(g, http.MethodPost, "/api/v1/debug", `{"mode":"device","value":"SEP001122334455"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, ctrl.debug.Match("SEP001122334455", "198.51.100.7"))
	assert.False(t, ctrl.debug.Match("SEPother", "198.51.100.7"))

	rec = do(g, http.MethodPost, "/api/v1/debug", `{"mode":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsRoute(t *testing.T) {
	g, _ := newTestGateway(t)
	rec := do(g, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp metrics.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.DeviceFaultCount)
}

func TestCompleteRoute(t *testing.T) {
	g, _ := newTestGateway(t)
	rec := do(g, http.MethodGet, "/api/v1/complete?prefix=SEP", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp completeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"SEP001122334455"}, resp.Names)
}

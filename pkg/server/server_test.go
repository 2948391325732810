package server

import (
	"io"
	"net"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinnycore/sccp/pkg/config"
	"github.com/skinnycore/sccp/pkg/device"
	"github.com/skinnycore/sccp/pkg/telephony/mock"
	"github.com/skinnycore/sccp/pkg/wire"
)

const testConfig = `
[general]
authtimeout = 5
keepalive = 30

[line_200]
cid_name = Alice
cid_num = 200

[device_SEP001122334455]
line = 200
`

func newTestServer(t *testing.T) (*Server, net.Addr) {
	t.Helper()
	snap, err := config.Load([]byte(testConfig))
	require.NoError(t, err)
	srv := New(config.NewStore(snap), mock.New(), nil, log.NewEntry(log.New()))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(srv.Stop)
	return srv, ln.Addr()
}

func registerPhone(t *testing.T, addr net.Addr, name string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)

	reg := &wire.Register{Name: name, Type: uint32(device.Type7941), ProtoVersion: 11}
	_, err = conn.Write(wire.EncodeFrame(reg))
	require.NoError(t, err)

	require.Equal(t, wire.IDRegisterAck, readID(t, conn))
	require.Equal(t, wire.IDCapabilitiesReq, readID(t, conn))
	return conn
}

func readID(t *testing.T, conn net.Conn) wire.MessageID {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	hdr := make([]byte, wire.HeaderLen)
	_, err := io.ReadFull(conn, hdr)
	require.NoError(t, err)
	header, err := wire.DecodeHeader(hdr)
	require.NoError(t, err)
	body := make([]byte, header.Length-4)
	_, err = io.ReadFull(conn, body)
	require.NoError(t, err)
	return header.ID
}

func TestServeAcceptsAndRegisters(t *testing.T) {
	srv, addr := newTestServer(t)
	conn := registerPhone(t, addr, "SEP001122334455")
	defer conn.Close()

	require.Eventually(t, func() bool {
		_, ok := srv.Registry().Find("SEP001122334455")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	infos := srv.SessionInfos()
	require.Len(t, infos, 1)
	assert.Equal(t, "SEP001122334455", infos[0].Name)
}

func TestResetDevice(t *testing.T) {
	srv, addr := newTestServer(t)
	conn := registerPhone(t, addr, "SEP001122334455")
	defer conn.Close()

	require.Eventually(t, func() bool {
		return len(srv.SessionInfos()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, srv.ResetDevice("SEP001122334455", false))
	assert.Equal(t, wire.IDReset, readID(t, conn))

	assert.ErrorIs(t, srv.ResetDevice("SEPnope", false), ErrNoSuchDevice)
}

func TestStopDisconnectsSessions(t *testing.T) {
	srv, addr := newTestServer(t)
	conn := registerPhone(t, addr, "SEP001122334455")
	defer conn.Close()

	require.Eventually(t, func() bool {
		return len(srv.SessionInfos()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	srv.Stop()
	assert.Empty(t, srv.SessionInfos())
	assert.Equal(t, 0, srv.Registry().Len())
}

func TestReloadPublishesNewSnapshot(t *testing.T) {
	srv, addr := newTestServer(t)
	conn := registerPhone(t, addr, "SEP001122334455")
	defer conn.Close()

	updated := `
[general]
authtimeout = 5

[line_200]
cid_name = Alicia
cid_num = 200

[device_SEP001122334455]
line = 200
`
	snap, err := config.Load([]byte(updated))
	require.NoError(t, err)
	srv.Reload(snap)

	assert.Equal(t, "Alicia", srv.Config().Current().Lines["200"].CIDName)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConf = `
[general]
bindaddr = 10.0.0.1
bindport = 2000
keepalive = 20
authtimeout = 5
allowguest = true

[line_1001]
cid_name = Alice
cid_num = 1001
context = default

[speeddial_boss]
index = 1
number = 1002
label = Boss

[device_SEP001122334455]
description = Alice's desk phone
line = 1001
speeddials = boss

[device_SEPDEADBEEF000]
line = nonexistent

[guest]
line = 1001
`

func TestLoadResolvesLineAndSpeedDial(t *testing.T) {
	snap, err := Load([]byte(sampleConf))
	require.NoError(t, err)

	dev, ok := snap.Devices["SEP001122334455"]
	require.True(t, ok)
	assert.Equal(t, "1001", dev.Line)
	assert.Equal(t, []string{"boss"}, dev.SpeedDials)

	line, ok := snap.Lines["1001"]
	require.True(t, ok)
	assert.Equal(t, "Alice", line.CIDName)
}

func TestLoadDropsDeviceWithUnknownLine(t *testing.T) {
	snap, err := Load([]byte(sampleConf))
	require.NoError(t, err)
	_, ok := snap.Devices["SEPDEADBEEF000"]
	assert.False(t, ok)
}

func TestLoadExtractsGuestTemplate(t *testing.T) {
	snap, err := Load([]byte(sampleConf))
	require.NoError(t, err)
	guest, ok := snap.Devices[""]
	require.True(t, ok)
	assert.True(t, guest.Guest)
	assert.Equal(t, "1001", guest.Line)
}

func TestLoadAppliesGeneralOverrides(t *testing.T) {
	snap, err := Load([]byte(sampleConf))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", snap.General.BindAddr)
	assert.Equal(t, 2000, snap.General.BindPort)
	assert.True(t, snap.General.AllowGuest)
}

func TestLoadParsesDeviceScalars(t *testing.T) {
	snap, err := Load([]byte(`
[line_1001]
cid_num = 1001

[device_SEP001122334455]
line = 1001
dateformat = D/M/Y
voicemail = 2000
vmexten = *98
keepalive = 10
dialtimeout = 5
timezone = Europe/Paris
`))
	require.NoError(t, err)
	dev := snap.Devices["SEP001122334455"]
	require.NotNil(t, dev)
	assert.Equal(t, "D/M/Y", dev.DateFormat)
	assert.Equal(t, "2000", dev.Voicemail)
	assert.Equal(t, "*98", dev.VMExten)
	assert.Equal(t, 10, dev.KeepAlive)
	assert.Equal(t, 5, dev.DialTimeout)
	assert.Equal(t, "Europe/Paris", dev.Timezone)
}

func TestLoadRejectsOutOfRangeDeviceScalars(t *testing.T) {
	snap, err := Load([]byte(`
[line_1001]
cid_num = 1001

[device_SEP001122334455]
line = 1001
keepalive = 1000
dialtimeout = 0
`))
	require.NoError(t, err)
	dev := snap.Devices["SEP001122334455"]
	require.NotNil(t, dev)
	assert.Zero(t, dev.KeepAlive)
	assert.Zero(t, dev.DialTimeout)
}

func TestLoadParsesGuestCapAndTOS(t *testing.T) {
	snap, err := Load([]byte(`[general]
max_guests = 3
tos = 96
`))
	require.NoError(t, err)
	assert.Equal(t, 3, snap.General.MaxGuests)
	assert.Equal(t, 96, snap.General.TOS)
}

func TestStorePublishSwapsAtomically(t *testing.T) {
	snap1, err := Load([]byte(sampleConf))
	require.NoError(t, err)
	store := NewStore(snap1)
	assert.Same(t, snap1, store.Current())

	snap2, err := Load([]byte(`[general]
bindaddr = 192.168.1.1
`))
	require.NoError(t, err)
	store.Publish(snap2)
	assert.Same(t, snap2, store.Current())
	assert.Equal(t, "192.168.1.1", store.Current().General.BindAddr)
}

func TestLoadDropsSecondDeviceClaimingSameLine(t *testing.T) {
	snap, err := Load([]byte(`
[line_1001]
cid_name = Alice
cid_num = 1001

[device_SEP000000000001]
line = 1001

[device_SEP000000000002]
line = 1001
`))
	require.NoError(t, err)
	_, firstOK := snap.Devices["SEP000000000001"]
	_, secondOK := snap.Devices["SEP000000000002"]
	assert.True(t, firstOK)
	assert.False(t, secondOK)
}

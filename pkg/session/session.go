// Package session owns the per-connection cooperative loop between one
// phone's TCP socket and its device state machine: framing via
// pkg/stream, cross-thread commands via pkg/queue, deferred work via the
// device's pkg/sched runner, and the registration policy that gates
// pkg/device construction against the live config snapshot and the
// device registry. The loop is one goroutine selecting over socket
// data, the command queue, and a deadline timer sized to min(next task,
// auth/keepalive remaining).
package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/skinnycore/sccp/internal/metrics"
	"github.com/skinnycore/sccp/pkg/config"
	"github.com/skinnycore/sccp/pkg/device"
	"github.com/skinnycore/sccp/pkg/queue"
	"github.com/skinnycore/sccp/pkg/registry"
	"github.com/skinnycore/sccp/pkg/sccperr"
	"github.com/skinnycore/sccp/pkg/stream"
	"github.com/skinnycore/sccp/pkg/telephony"
	"github.com/skinnycore/sccp/pkg/wire"
)

// sendTimeout bounds a synchronous socket write so a wedged phone can
// never stall the loop longer than this.
const sendTimeout = 10 * time.Second

// errStop is the in-band signal that a Stop command was observed.
var errStop = errors.New("session: stop requested")

// Command names understood by the session loop.
const (
	cmdStop   = "stop"
	cmdReload = "reload"
	cmdReset  = "reset"
	cmdEvent  = "event"
)

// Deps is everything a Session needs from the process around it. One
// Deps value is shared by all sessions of a server.
type Deps struct {
	Config   *config.Store
	Registry *registry.Registry[*device.Device]
	Host     telephony.Host
	Metrics  *metrics.Metrics
	Debug    *DebugFlags

	// GuestCount tracks concurrent guest registrations across all
	// sessions, capped by general.max_guests.
	GuestCount *atomic.Int32

	Logger *log.Entry
}

// Info is the registry-style summary of one session, captured at
// registration time for the operator interface.
type Info struct {
	Name         string `json:"name"`
	Addr         string `json:"addr"`
	Guest        bool   `json:"guest"`
	Type         string `json:"type"`
	ProtoVersion uint8  `json:"proto_version"`
	Capabilities string `json:"capabilities"`
}

// Session drives one phone connection. All fields except the command
// queue are owned by the Run goroutine; other goroutines interact only
// through Stop/Reset/Reload/Info.
type Session struct {
	conn net.Conn
	deps Deps
	q    *queue.Queue
	des  *stream.Deserializer
	log  *log.Entry

	dev       *device.Device
	degraded  bool
	isGuest   bool
	keepAlive time.Duration // negotiated for this device at registration

	readCh chan []byte
	done   chan struct{}

	infoMu sync.Mutex
	info   Info
}

// New wraps an accepted connection. TCP_NODELAY is enabled so stimulus
// replies are not batched behind Nagle.
func New(conn net.Conn, deps Deps) *Session {
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	s := &Session{
		conn:   conn,
		deps:   deps,
		q:      queue.New(16),
		des:    stream.New(),
		log:    logger.WithField("peer", conn.RemoteAddr().String()),
		readCh: make(chan []byte, 1),
		done:   make(chan struct{}),
	}
	s.info.Addr = conn.RemoteAddr().String()
	return s
}

// Stop asks the session to exit from any goroutine; the loop observes
// the command within one poll cycle.
func (s *Session) Stop() {
	_ = s.q.Put(queue.Command{Name: cmdStop})
}

// Reset asks the session to send a RESET to its phone and then drop the
// connection. restart selects a hard restart over a soft reset.
func (s *Session) Reset(restart bool) {
	t := wire.ResetSoft
	if restart {
		t = wire.ResetHardRestart
	}
	_ = s.q.Put(queue.Command{Name: cmdReset, Data: t})
}

// Reload tells the session a new config snapshot has been published.
func (s *Session) Reload() {
	_ = s.q.Put(queue.Command{Name: cmdReload})
}

// Info returns the registration summary; zero-valued fields until the
// device has registered.
func (s *Session) Info() Info {
	s.infoMu.Lock()
	defer s.infoMu.Unlock()
	return s.info
}

// peerIP is the host part of the remote address, for debug matching.
func (s *Session) peerIP() string {
	host, _, err := net.SplitHostPort(s.conn.RemoteAddr().String())
	if err != nil {
		return s.conn.RemoteAddr().String()
	}
	return host
}

// Send implements device.Transport. Only the Run goroutine calls it
// (directly or through device methods), so the degraded flag needs no
// lock. A failed or timed-out write degrades the session: subsequent
// sends become no-ops and the loop winds down through its normal
// teardown path instead of wedging on a dead socket.
func (s *Session) Send(msg wire.Message) error {
	if s.degraded {
		return nil
	}
	s.dumpMessage("send", msg)
	frame := wire.EncodeFrame(msg)
	_ = s.conn.SetWriteDeadline(time.Now().Add(sendTimeout))
	if _, err := s.conn.Write(frame); err != nil {
		s.degraded = true
		if s.deps.Metrics != nil {
			s.deps.Metrics.Fault()
		}
		s.log.WithError(err).Warn("session: write failed, degrading")
		return sccperr.New(sccperr.KindTransport, err)
	}
	return nil
}

func (s *Session) dumpMessage(dir string, msg wire.Message) {
	if s.deps.Debug == nil {
		return
	}
	name := ""
	if s.dev != nil {
		name = s.dev.DeviceName()
	}
	if !s.deps.Debug.Match(name, s.peerIP()) {
		return
	}
	s.log.WithFields(log.Fields{"dir": dir, "msg": msg.MessageID().String()}).Info("session: message")
}

// readLoop feeds socket bytes to the Run goroutine. It is the Go stand-in
// for the socket entry in the C poll set: net.Conn has no level-triggered
// readiness, so a dedicated reader blocks in Read and hands chunks over a
// channel, closing it on EOF or error.
func (s *Session) readLoop() {
	buf := make([]byte, stream.BufferSize)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.readCh <- chunk:
			case <-s.done:
				return
			}
		}
		if err != nil {
			close(s.readCh)
			return
		}
	}
}

// Run is the session's cooperative loop; it returns when the connection
// ends for any reason. The caller (pkg/server) runs it on a dedicated
// goroutine.
func (s *Session) Run() error {
	if s.deps.Metrics != nil {
		s.deps.Metrics.SessionOpened()
		defer s.deps.Metrics.SessionClosed()
	}
	defer s.cleanup()
	go s.readLoop()

	snap := s.deps.Config.Current()
	authDeadline := time.Now().Add(snap.General.AuthTimeout)
	lastRx := time.Now()

	for {
		var deadline time.Time
		if s.dev == nil {
			deadline = authDeadline
		} else {
			deadline = lastRx.Add(2 * s.keepAliveInterval())
			if next, ok := s.dev.Runner().NextDeadline(); ok && next.Before(deadline) {
				deadline = next
			}
		}
		timeout := time.Until(deadline)
		if timeout < 0 {
			timeout = 0
		}
		timer := time.NewTimer(timeout)

		var loopErr error
		select {
		case data, ok := <-s.readCh:
			if !ok {
				timer.Stop()
				return nil // peer closed or read error; nothing left to drive
			}
			lastRx = time.Now()
			loopErr = s.ingest(data)
		case cmd := <-s.q.C():
			loopErr = s.handleCommand(cmd)
		case <-timer.C:
		}
		timer.Stop()

		if s.dev != nil {
			s.dev.Runner().Run(time.Now())
		}

		if errors.Is(loopErr, errStop) {
			s.log.Debug("session: stop requested")
			return nil
		}
		if loopErr != nil {
			s.logExit(loopErr)
			return loopErr
		}
		now := time.Now()
		if s.dev == nil && now.After(authDeadline) {
			err := sccperr.Newf(sccperr.KindTimeout, "no registration within %s", snap.General.AuthTimeout)
			s.log.Info("session: auth timeout, closing")
			return err
		}
		if s.dev != nil && now.After(lastRx.Add(2*s.keepAliveInterval())) {
			s.log.WithField("device", s.dev.DeviceName()).Info("session: keepalive expired, closing")
			return sccperr.Newf(sccperr.KindTimeout, "keepalive expired")
		}
		if s.dev != nil && s.dev.WantDisconnect {
			return nil
		}
		if s.degraded {
			return sccperr.Newf(sccperr.KindTransport, "session degraded")
		}
	}
}

func (s *Session) logExit(err error) {
	kind := sccperr.KindOf(err)
	entry := s.log.WithError(err)
	switch kind {
	case sccperr.KindMalformed:
		entry.Warn("session: dropping malformed peer")
	case sccperr.KindPolicyDenied, sccperr.KindUnsupported:
		entry.Info("session: registration refused")
	default:
		entry.Info("session: closing")
	}
}

// ingest feeds freshly read bytes through the deserializer and
// dispatches every complete message: read once, then pop until the
// buffer holds no whole frame.
func (s *Session) ingest(data []byte) error {
	if err := s.des.Feed(data); err != nil {
		if s.deps.Metrics != nil {
			s.deps.Metrics.Fault()
		}
		return sccperr.New(sccperr.KindTransport, err)
	}
	for {
		msg, err := s.des.Pop()
		if errors.Is(err, stream.ErrNoMsg) {
			return nil
		}
		if err != nil {
			// Pop returns header errors unwrapped; a Decode failure arrives
			// wrapped (and may itself wrap wire.ErrMalformed).
			if err == wire.ErrMalformed || err == wire.ErrTooLarge {
				if s.deps.Metrics != nil {
					s.deps.Metrics.Fault()
				}
				return sccperr.New(sccperr.KindMalformed, err)
			}
			// A per-message Decode failure is recoverable: the frame was
			// consumed, so log and keep draining.
			s.log.WithError(err).Warn("session: dropping undecodable message")
			continue
		}
		if err := s.handleMessage(msg); err != nil {
			return err
		}
		if s.dev != nil && s.dev.WantDisconnect {
			return nil
		}
	}
}

func (s *Session) handleMessage(msg wire.Message) error {
	s.dumpMessage("recv", msg)
	if s.dev == nil {
		switch m := msg.(type) {
		case *wire.Register:
			return s.handleRegister(m)
		case *wire.Alarm:
			s.log.WithField("display", m.Display).Debug("session: alarm before registration")
			return nil
		case *wire.KeepAlive:
			return s.Send(&wire.KeepAliveAck{})
		default:
			s.log.WithField("msg", msg.MessageID().String()).Debug("session: message before registration, ignoring")
			return nil
		}
	}
	if err := s.dev.Dispatch(msg); err != nil {
		switch sccperr.KindOf(err) {
		case sccperr.KindTransport, sccperr.KindMalformed:
			return err
		case sccperr.KindPanic:
			if s.deps.Metrics != nil {
				s.deps.Metrics.Panic()
			}
			_ = s.Send(&wire.Reset{Type: wire.ResetHardRestart})
			return err
		default:
			s.log.WithError(err).Warn("session: message handling failed, continuing")
			return nil
		}
	}
	if _, ok := msg.(*wire.CapabilitiesRes); ok {
		s.setInfo(s.dev) // capabilities arrive after the initial summary
	}
	return nil
}

// keepAliveInterval is the watchdog period for this device: its own
// configured keepalive when set, the general default otherwise.
func (s *Session) keepAliveInterval() time.Duration {
	if s.keepAlive > 0 {
		return s.keepAlive
	}
	iv := s.deps.Config.Current().General.KeepAliveInterval
	if iv <= 0 {
		iv = 30 * time.Second
	}
	return iv
}

// reject sends REGISTER_REJ with diag and returns the PolicyDenied (or
// Unsupported) error that ends the session.
func (s *Session) reject(kind sccperr.Kind, diag string) error {
	_ = s.Send(&wire.RegisterRej{Message: diag})
	return sccperr.Newf(kind, "register rejected: %s", diag)
}

// handleRegister runs the registration policy: device
// type support, config membership or guest fallback, registry
// uniqueness, line binding. On success the Device is constructed,
// registered, subscribed to host events, and the ACK + CAPABILITIES_REQ
// exchange starts.
func (s *Session) handleRegister(reg *wire.Register) error {
	snap := s.deps.Config.Current()

	if len(reg.Name) == 0 || len(reg.Name) > device.MaxNameLen {
		return s.reject(sccperr.KindPolicyDenied, "Access denied")
	}
	devType := device.Type(reg.Type)
	if !device.IsSupported(devType) {
		return s.reject(sccperr.KindUnsupported, "Unsupported device type")
	}

	cfgDev, known := snap.Devices[reg.Name]
	isGuest := false
	if !known {
		if !snap.General.AllowGuest {
			return s.reject(sccperr.KindPolicyDenied, "Access denied")
		}
		guestTmpl, ok := snap.Devices[""]
		if !ok {
			return s.reject(sccperr.KindPolicyDenied, "Access denied")
		}
		if s.deps.GuestCount != nil && int(s.deps.GuestCount.Load()) >= snap.General.MaxGuests {
			return s.reject(sccperr.KindPolicyDenied, "Access denied")
		}
		cfgDev = guestTmpl
		isGuest = true
	}

	lineCfg, ok := snap.Lines[cfgDev.Line]
	if !ok {
		return s.reject(sccperr.KindPolicyDenied, "Access denied")
	}
	line := device.NewLine(lineCfg.Name, 1)
	line.CIDName = lineCfg.CIDName
	line.CIDNum = lineCfg.CIDNum
	line.Context = lineCfg.Context

	var speeddials []device.SpeedDial
	for i, sdName := range cfgDev.SpeedDials {
		sd, ok := snap.SpeedDials[sdName]
		if !ok {
			continue
		}
		speeddials = append(speeddials, device.SpeedDial{
			Index:  uint32(i + 1),
			Number: sd.Number,
			Label:  sd.Label,
		})
	}

	keepAlive := snap.General.KeepAliveInterval
	if cfgDev.KeepAlive > 0 {
		keepAlive = time.Duration(cfgDev.KeepAlive) * time.Second
	}
	mailbox := cfgDev.Voicemail
	if mailbox == "" {
		mailbox = lineCfg.VoicemailID
	}
	binding := device.Binding{
		Name:        cfgDev.Name,
		DynamicName: reg.Name,
		IsGuest:     isGuest,
		Line:        line,
		SpeedDials:  speeddials,
		KeepAlive:   uint32(keepAlive / time.Second),
		MaxDigits:   24,
		DateFormat:  cfgDev.DateFormat,
		Voicemail:   mailbox,
		VMExten:     cfgDev.VMExten,
		DialTimeout: cfgDev.DialTimeout,
	}

	devLog := s.log.WithField("device", reg.Name)
	d := device.New(binding, devType, device.ProtoVersion(reg.ProtoVersion), s, s.deps.Host, devLog)
	if err := s.deps.Registry.Add(d); err != nil {
		return s.reject(sccperr.KindPolicyDenied, "Access denied")
	}
	d.State = device.RegStateRegistered
	s.dev = d
	s.isGuest = isGuest
	s.keepAlive = keepAlive
	if isGuest && s.deps.GuestCount != nil {
		s.deps.GuestCount.Add(1)
	}

	// Host events arrive on the host's goroutine; route them through the
	// command queue so device state stays single-threaded.
	s.deps.Host.Subscribe(line.Name, listenerFunc(func(ev telephony.Event) {
		_ = s.q.Put(queue.Command{Name: cmdEvent, Data: ev})
	}))

	if s.deps.Metrics != nil {
		s.deps.Metrics.Registered()
	}
	s.setInfo(d)
	devLog.WithFields(log.Fields{
		"type":  devType.String(),
		"proto": reg.ProtoVersion,
		"guest": isGuest,
	}).Info("session: device registered")

	return d.CompleteRegistration()
}

func (s *Session) setInfo(d *device.Device) {
	s.infoMu.Lock()
	defer s.infoMu.Unlock()
	s.info = Info{
		Name:         d.DeviceName(),
		Addr:         s.conn.RemoteAddr().String(),
		Guest:        d.IsGuest(),
		Type:         d.Type.String(),
		ProtoVersion: uint8(d.Proto),
		Capabilities: capabilitiesString(d.Capabilities),
	}
}

var codecNames = map[uint32]string{
	1: "g711", 2: "alaw", 4: "ulaw", 6: "g722", 9: "g723",
	11: "g728", 12: "g729", 15: "g729a", 25: "wideband", 80: "gsm",
}

func capabilitiesString(caps []wire.Capability) string {
	parts := make([]string, 0, len(caps))
	for _, c := range caps {
		if name, ok := codecNames[c.Codec]; ok {
			parts = append(parts, name)
			continue
		}
		parts = append(parts, fmt.Sprintf("codec%d", c.Codec))
	}
	return strings.Join(parts, " ")
}

func (s *Session) handleCommand(cmd queue.Command) error {
	switch cmd.Name {
	case cmdStop:
		return errStop
	case cmdReset:
		t, _ := cmd.Data.(uint32)
		if t == 0 {
			t = wire.ResetSoft
		}
		_ = s.Send(&wire.Reset{Type: t})
		if s.dev != nil {
			s.dev.WantDisconnect = true
		}
		return nil
	case cmdReload:
		s.applyReload()
		return nil
	case cmdEvent:
		ev, ok := cmd.Data.(telephony.Event)
		if !ok || s.dev == nil {
			return nil
		}
		if err := s.dev.HandleHostEvent(ev); err != nil {
			s.log.WithError(err).Warn("session: host event handling failed")
		}
		return nil
	default:
		s.log.WithField("cmd", cmd.Name).Debug("session: unknown command")
		return nil
	}
}

// applyReload refreshes the device's line presentation fields from the
// newly published snapshot. In-flight subchannels keep the CALL_INFO
// they were offered with; only future status responses see the new
// values, so a reload never interrupts an active call.
func (s *Session) applyReload() {
	if s.dev == nil {
		return
	}
	snap := s.deps.Config.Current()
	for _, l := range s.dev.Lines {
		lineCfg, ok := snap.Lines[l.Name]
		if !ok {
			continue
		}
		l.CIDName = lineCfg.CIDName
		l.CIDNum = lineCfg.CIDNum
		l.Context = lineCfg.Context
	}
}

// cleanup releases everything the session owns: the socket, the
// registry entry, the host subscription, and (for guests) the guest
// slot. Runs exactly once, from Run's defer.
func (s *Session) cleanup() {
	close(s.done)
	_ = s.conn.Close()
	s.q.Close()
	s.des.Close()
	if s.dev != nil {
		name := s.dev.DeviceName()
		for _, l := range s.dev.Lines {
			for len(l.Subchans) > 0 {
				sc := l.Subchans[0]
				if sc.CallID != "" {
					_ = s.deps.Host.Hangup(context.Background(), l.Name, sc.CallID)
				}
				l.RemoveSubchannel(sc)
			}
			s.deps.Host.Unsubscribe(l.Name)
		}
		s.deps.Registry.Remove(name)
		if s.isGuest && s.deps.GuestCount != nil {
			s.deps.GuestCount.Add(-1)
		}
		s.dev.State = device.RegStateUnregistered
		s.log.WithField("device", name).Info("session: device unregistered")
		s.dev = nil
	}
}

// listenerFunc adapts a closure to telephony.Listener.
type listenerFunc func(telephony.Event)

func (f listenerFunc) HandleTelephonyEvent(ev telephony.Event) { f(ev) }

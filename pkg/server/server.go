// Package server accepts phone connections and owns the set of live
// sessions: one acceptor goroutine, one session goroutine per
// connection, broadcast of reload/stop through each session's command
// queue. Shutdown is two-phase: every session is asked to stop, then
// the acceptor waits for all of them to exit.
package server

import (
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/skinnycore/sccp/internal/metrics"
	"github.com/skinnycore/sccp/pkg/config"
	"github.com/skinnycore/sccp/pkg/device"
	"github.com/skinnycore/sccp/pkg/registry"
	"github.com/skinnycore/sccp/pkg/session"
	"github.com/skinnycore/sccp/pkg/telephony"
)

// Version is reported by the operator interface.
const Version = "sccpcore 1.0.0"

// ErrNoSuchDevice is returned by ResetDevice when no live session serves
// the named device.
var ErrNoSuchDevice = errors.New("server: no such device")

// Server is the SCCP acceptor plus the shared state every session needs.
type Server struct {
	cfg      *config.Store
	registry *registry.Registry[*device.Device]
	host     telephony.Host
	metrics  *metrics.Metrics
	debug    *session.DebugFlags
	log      *log.Entry

	guestCount atomic.Int32

	mu       sync.Mutex
	ln       net.Listener
	sessions map[*session.Session]struct{}
	stopping bool

	wg sync.WaitGroup
}

// New wires a Server against a published config store and a telephony
// host. metrics may be nil for tests.
func New(cfg *config.Store, host telephony.Host, m *metrics.Metrics, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Server{
		cfg:      cfg,
		registry: registry.New[*device.Device](),
		host:     host,
		metrics:  m,
		debug:    session.NewDebugFlags(),
		log:      logger.WithField("service", "server"),
		sessions: make(map[*session.Session]struct{}),
	}
}

// Registry exposes the live device table for the operator interface.
func (s *Server) Registry() *registry.Registry[*device.Device] { return s.registry }

// Debug exposes the shared message-dump flags.
func (s *Server) Debug() *session.DebugFlags { return s.debug }

// Config exposes the published config store.
func (s *Server) Config() *config.Store { return s.cfg }

// ListenAndServe binds the configured address and serves until Stop.
func (s *Server) ListenAndServe() error {
	general := s.cfg.Current().General
	addr := net.JoinHostPort(general.BindAddr, strconv.Itoa(general.BindPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve runs the accept loop over ln until Stop closes it. Each accepted
// connection gets its own session goroutine.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server: already stopped")
	}
	s.ln = ln
	s.mu.Unlock()
	s.log.WithField("addr", ln.Addr().String()).Info("server: listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			stopping := s.stopping
			s.mu.Unlock()
			if stopping {
				return nil
			}
			return err
		}
		s.spawn(conn)
	}
}

func (s *Server) spawn(conn net.Conn) {
	sess := session.New(conn, session.Deps{
		Config:     s.cfg,
		Registry:   s.registry,
		Host:       s.host,
		Metrics:    s.metrics,
		Debug:      s.debug,
		GuestCount: &s.guestCount,
		Logger:     s.log,
	})

	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = sess.Run()
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
	}()
}

// Stop closes the listener, asks every session to exit, and waits for
// them all. Safe to call more than once.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		s.wg.Wait()
		return
	}
	s.stopping = true
	ln := s.ln
	live := make([]*session.Session, 0, len(s.sessions))
	for sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	for _, sess := range live {
		sess.Stop()
	}
	s.wg.Wait()
	s.log.Info("server: stopped")
}

// Reload publishes snap as the active configuration and notifies every
// live session. In-flight calls are never interrupted; sessions refresh
// presentation fields on their own goroutines.
func (s *Server) Reload(snap *config.Snapshot) {
	s.cfg.Publish(snap)
	s.mu.Lock()
	live := make([]*session.Session, 0, len(s.sessions))
	for sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()
	for _, sess := range live {
		sess.Reload()
	}
	s.log.WithField("sessions", len(live)).Info("server: configuration reloaded")
}

// ResetDevice sends RESET to the named device's session. restart selects
// a hard restart over a soft reset.
func (s *Server) ResetDevice(name string, restart bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sess := range s.sessions {
		if sess.Info().Name == name {
			sess.Reset(restart)
			return nil
		}
	}
	return ErrNoSuchDevice
}

// ResetAll sends RESET to every registered device, reporting how many
// sessions were signaled.
func (s *Server) ResetAll(restart bool) int {
	s.mu.Lock()
	live := make([]*session.Session, 0, len(s.sessions))
	for sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()
	n := 0
	for _, sess := range live {
		if sess.Info().Name == "" {
			continue
		}
		sess.Reset(restart)
		n++
	}
	return n
}

// SessionInfos snapshots the registration summary of every live session
// that has completed registration.
func (s *Server) SessionInfos() []session.Info {
	s.mu.Lock()
	live := make([]*session.Session, 0, len(s.sessions))
	for sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()
	infos := make([]session.Info, 0, len(live))
	for _, sess := range live {
		info := sess.Info()
		if info.Name == "" {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

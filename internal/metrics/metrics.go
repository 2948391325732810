// Package metrics holds the daemon's operational counters: device faults
// (transport-level failures) and device panics (invariant violations),
// exposed both as Prometheus collectors for scraping and as plain
// readable values for the operator gateway's stats endpoint.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the counters behind the operator's stats view.
// All methods are safe for concurrent use; sessions bump counters from
// their own goroutines.
type Metrics struct {
	deviceFaults  prometheus.Counter
	devicePanics  prometheus.Counter
	registrations prometheus.Counter
	sessionsAlive prometheus.Gauge

	// Shadow counts kept readable because prometheus.Counter values are
	// write-only from application code.
	faultCount atomic.Uint64
	panicCount atomic.Uint64
	regCount   atomic.Uint64
	lastFault  atomic.Int64 // unix seconds, 0 when never
	lastPanic  atomic.Int64
}

// Stats is a point-in-time copy of the counters for the operator
// interface's stats endpoint.
type Stats struct {
	DeviceFaultCount uint64    `json:"device_fault_count"`
	DeviceFaultLast  time.Time `json:"device_fault_last,omitempty"`
	DevicePanicCount uint64    `json:"device_panic_count"`
	DevicePanicLast  time.Time `json:"device_panic_last,omitempty"`
	Registrations    uint64    `json:"registrations"`
}

// New builds a Metrics and registers its collectors with reg. Pass
// prometheus.DefaultRegisterer in cmd wiring, or a private registry in
// tests to avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		deviceFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sccp_device_faults_total",
			Help: "Transport-level session failures (read/write/poll).",
		}),
		devicePanics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sccp_device_panics_total",
			Help: "Device state machine invariant violations.",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sccp_registrations_total",
			Help: "Successful device registrations.",
		}),
		sessionsAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sccp_sessions_active",
			Help: "Currently open phone sessions.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.deviceFaults, m.devicePanics, m.registrations, m.sessionsAlive)
	}
	return m
}

// Fault records one transport-level session failure.
func (m *Metrics) Fault() {
	m.deviceFaults.Inc()
	m.faultCount.Add(1)
	m.lastFault.Store(time.Now().Unix())
}

// Panic records one invariant violation.
func (m *Metrics) Panic() {
	m.devicePanics.Inc()
	m.panicCount.Add(1)
	m.lastPanic.Store(time.Now().Unix())
}

// Registered records one successful device registration.
func (m *Metrics) Registered() {
	m.registrations.Inc()
	m.regCount.Add(1)
}

// SessionOpened / SessionClosed track the live session gauge.
func (m *Metrics) SessionOpened() { m.sessionsAlive.Inc() }
func (m *Metrics) SessionClosed() { m.sessionsAlive.Dec() }

// Snapshot copies the readable counter values.
func (m *Metrics) Snapshot() Stats {
	s := Stats{
		DeviceFaultCount: m.faultCount.Load(),
		DevicePanicCount: m.panicCount.Load(),
		Registrations:    m.regCount.Load(),
	}
	if ts := m.lastFault.Load(); ts != 0 {
		s.DeviceFaultLast = time.Unix(ts, 0)
	}
	if ts := m.lastPanic.Load(); ts != 0 {
		s.DevicePanicLast = time.Unix(ts, 0)
	}
	return s
}

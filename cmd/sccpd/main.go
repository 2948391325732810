// sccpd is the standalone SCCP daemon: it loads the ini configuration,
// listens for phone registrations, and serves the operator gateway plus
// the Prometheus scrape endpoint on a second port. SIGHUP reloads the
// configuration, SIGINT/SIGTERM shut down cleanly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/skinnycore/sccp/internal/metrics"
	"github.com/skinnycore/sccp/pkg/config"
	gatewayhttp "github.com/skinnycore/sccp/pkg/gateway/http"
	"github.com/skinnycore/sccp/pkg/server"
	"github.com/skinnycore/sccp/pkg/telephony"
)

func main() {
	configPath := flag.String("c", "/etc/sccpd/sccpd.conf", "configuration file path")
	httpAddr := flag.String("http", "127.0.0.1:2080", "operator gateway + metrics listen address")
	debugLog := flag.Bool("d", false, "enable debug logging")
	flag.Parse()

	if *debugLog {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.NewEntry(log.StandardLogger())

	snap, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load configuration %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	store := config.NewStore(snap)

	m := metrics.New(prometheus.DefaultRegisterer)

	// The telephony host is an external collaborator; until a PBX binding
	// is linked in, stand in with an implementation that accepts
	// registrations but routes nothing.
	srv := server.New(store, &unroutedHost{}, m, logger)

	gw := gatewayhttp.NewGatewayServer(srv, m, server.Version, logger)
	gw.ServeMux().Handle("/metrics", promhttp.Handler())
	go func() {
		if err := gw.ListenAndServe(*httpAddr); err != nil {
			logger.WithError(err).Error("gateway exited")
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range sigs {
			if sig == syscall.SIGHUP {
				newSnap, err := config.Load(*configPath)
				if err != nil {
					logger.WithError(err).Error("reload failed, keeping previous configuration")
					continue
				}
				srv.Reload(newSnap)
				continue
			}
			logger.WithField("signal", sig.String()).Info("shutting down")
			srv.Stop()
			return
		}
	}()

	if err := srv.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// unroutedHost is the placeholder telephony.Host wired in when sccpd
// runs without a call-control backend: phones register and get dial
// tone, but every originate fails with no-such-extension.
type unroutedHost struct {
	mu        sync.Mutex
	listeners map[string]telephony.Listener
}

func (h *unroutedHost) Subscribe(line string, l telephony.Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listeners == nil {
		h.listeners = make(map[string]telephony.Listener)
	}
	h.listeners[line] = l
}

func (h *unroutedHost) Unsubscribe(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.listeners, line)
}

func (h *unroutedHost) Originate(context.Context, string, string) (telephony.CallID, telephony.Disposition, error) {
	return "", telephony.DispositionNoSuchExtension, nil
}

func (h *unroutedHost) Answer(context.Context, string, telephony.CallID) error  { return nil }
func (h *unroutedHost) Hangup(context.Context, string, telephony.CallID) error  { return nil }
func (h *unroutedHost) Hold(context.Context, string, telephony.CallID) error    { return nil }
func (h *unroutedHost) Resume(context.Context, string, telephony.CallID) error  { return nil }
func (h *unroutedHost) Transfer(context.Context, string, telephony.CallID, telephony.CallID) error {
	return nil
}
func (h *unroutedHost) SetForwardAll(context.Context, string, string) error { return nil }
func (h *unroutedHost) SendDigit(context.Context, string, telephony.CallID, byte) error {
	return nil
}
func (h *unroutedHost) SubscribeMWI(context.Context, string, string) error { return nil }

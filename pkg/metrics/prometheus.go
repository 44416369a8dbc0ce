package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dmrhub/hytera-bridge/pkg/bridge"
	"github.com/dmrhub/hytera-bridge/pkg/logger"
)

// PrometheusConfig holds Prometheus server configuration
type PrometheusConfig struct {
	Enabled bool
	Port    int
	Path    string
}

// PrometheusHandler handles Prometheus metrics HTTP requests
type PrometheusHandler struct {
	collector *Collector
	session   *bridge.Session
}

// NewPrometheusHandler creates a new Prometheus handler
func NewPrometheusHandler(collector *Collector, session *bridge.Session) *PrometheusHandler {
	return &PrometheusHandler{
		collector: collector,
		session:   session,
	}
}

// ServeHTTP handles HTTP requests for metrics
func (h *PrometheusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	var output strings.Builder

	// Registration metrics
	output.WriteString("# HELP hytera_repeater_registered Whether the repeater is registered\n")
	output.WriteString("# TYPE hytera_repeater_registered gauge\n")
	output.WriteString(fmt.Sprintf("hytera_repeater_registered %d\n", boolValue(h.collector.IsRegistered())))

	output.WriteString("# HELP hytera_registrations_total Total registration exchanges\n")
	output.WriteString("# TYPE hytera_registrations_total counter\n")
	output.WriteString(fmt.Sprintf("hytera_registrations_total %d\n", h.collector.GetRegistrations()))

	// Handshake metrics
	output.WriteString("# HELP hytera_rdac_completions_total Total finished identification sequences\n")
	output.WriteString("# TYPE hytera_rdac_completions_total counter\n")
	output.WriteString(fmt.Sprintf("hytera_rdac_completions_total %d\n", h.collector.GetHandshakeCompletions()))

	output.WriteString("# HELP hytera_rdac_resets_total Total identification restarts\n")
	output.WriteString("# TYPE hytera_rdac_resets_total counter\n")
	output.WriteString(fmt.Sprintf("hytera_rdac_resets_total %d\n", h.collector.GetHandshakeResets()))

	// Upstream metrics
	output.WriteString("# HELP hytera_upstream_connected Whether the master link is up\n")
	output.WriteString("# TYPE hytera_upstream_connected gauge\n")
	output.WriteString(fmt.Sprintf("hytera_upstream_connected %d\n", boolValue(h.collector.IsUpstreamConnected())))

	output.WriteString("# HELP hytera_upstream_logins_total Total successful master logins\n")
	output.WriteString("# TYPE hytera_upstream_logins_total counter\n")
	output.WriteString(fmt.Sprintf("hytera_upstream_logins_total %d\n", h.collector.GetUpstreamLogins()))

	// Discovery metrics
	walks, failures := h.collector.GetSNMPWalks()
	output.WriteString("# HELP hytera_snmp_walks_total Total SNMP discovery attempts\n")
	output.WriteString("# TYPE hytera_snmp_walks_total counter\n")
	output.WriteString(fmt.Sprintf("hytera_snmp_walks_total %d\n", walks))

	output.WriteString("# HELP hytera_snmp_failures_total Total failed SNMP discovery attempts\n")
	output.WriteString("# TYPE hytera_snmp_failures_total counter\n")
	output.WriteString(fmt.Sprintf("hytera_snmp_failures_total %d\n", failures))

	// Classified datagram metrics
	output.WriteString("# HELP hytera_datagrams_classified_total Classified datagrams by protocol kind\n")
	output.WriteString("# TYPE hytera_datagrams_classified_total counter\n")
	counts := h.collector.GetKindCounts()
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		output.WriteString(fmt.Sprintf("hytera_datagrams_classified_total{kind=%q} %d\n", kind, counts[kind]))
	}

	// Per-endpoint traffic metrics from the session
	if h.session != nil {
		output.WriteString("# HELP hytera_endpoint_packets_total Datagrams per endpoint and direction\n")
		output.WriteString("# TYPE hytera_endpoint_packets_total counter\n")
		endpoints := []bridge.Endpoint{bridge.EndpointP2P, bridge.EndpointRDAC, bridge.EndpointDMR}
		for _, e := range endpoints {
			packetsRx, _, packetsTx, _ := h.session.Stats(e)
			output.WriteString(fmt.Sprintf("hytera_endpoint_packets_total{endpoint=%q,direction=\"rx\"} %d\n", e.String(), packetsRx))
			output.WriteString(fmt.Sprintf("hytera_endpoint_packets_total{endpoint=%q,direction=\"tx\"} %d\n", e.String(), packetsTx))
		}

		output.WriteString("# HELP hytera_endpoint_bytes_total Bytes per endpoint and direction\n")
		output.WriteString("# TYPE hytera_endpoint_bytes_total counter\n")
		for _, e := range endpoints {
			_, bytesRx, _, bytesTx := h.session.Stats(e)
			output.WriteString(fmt.Sprintf("hytera_endpoint_bytes_total{endpoint=%q,direction=\"rx\"} %d\n", e.String(), bytesRx))
			output.WriteString(fmt.Sprintf("hytera_endpoint_bytes_total{endpoint=%q,direction=\"tx\"} %d\n", e.String(), bytesTx))
		}
	}

	_, _ = w.Write([]byte(output.String()))
}

func boolValue(v bool) int {
	if v {
		return 1
	}
	return 0
}

// PrometheusServer is an HTTP server for Prometheus metrics
type PrometheusServer struct {
	config    PrometheusConfig
	collector *Collector
	session   *bridge.Session
	log       *logger.Logger
	server    *http.Server
}

// NewPrometheusServer creates a new Prometheus metrics server
func NewPrometheusServer(config PrometheusConfig, collector *Collector, session *bridge.Session, log *logger.Logger) *PrometheusServer {
	if log == nil {
		log = logger.New(logger.Config{Level: "info", Format: "text"})
	}

	return &PrometheusServer{
		config:    config,
		collector: collector,
		session:   session,
		log:       log.WithComponent("metrics"),
	}
}

// Start starts the Prometheus metrics server
func (s *PrometheusServer) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("Prometheus metrics server disabled")
		return nil
	}

	handler := NewPrometheusHandler(s.collector, s.session)
	mux := http.NewServeMux()
	mux.Handle(s.config.Path, handler)

	// Use a listener to get the actual port (useful for testing with port 0)
	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	actualPort := listener.Addr().(*net.TCPAddr).Port

	s.server = &http.Server{
		Handler: mux,
	}

	s.log.Info("Starting Prometheus metrics server",
		logger.Int("port", actualPort),
		logger.String("path", s.config.Path))

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutting down Prometheus metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown error: %w", err)
		}
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

// Stop stops the Prometheus metrics server
func (s *PrometheusServer) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
}

package network

import (
	"context"
	"net"
	"time"

	"github.com/dmrhub/hytera-bridge/pkg/bridge"
	"github.com/dmrhub/hytera-bridge/pkg/config"
	"github.com/dmrhub/hytera-bridge/pkg/hytera"
	"github.com/dmrhub/hytera-bridge/pkg/logger"
)

// PacketObserver receives every classified datagram from the DMR endpoint.
// Observers run on the receive goroutine and must not block.
type PacketObserver func(kind hytera.Kind, pkt hytera.Packet, data []byte, addr *net.UDPAddr)

// DMRServer services the DMR transport endpoint. It classifies and decodes
// incoming traffic for the diagnostic sinks and never replies; the repeater
// keeps the session alive through the control endpoint.
type DMRServer struct {
	cfg     config.HyteraConfig
	log     *logger.Logger
	session *bridge.Session

	conn    *net.UDPConn
	started chan struct{}

	observers []PacketObserver
}

// NewDMRServer creates the transport endpoint server
func NewDMRServer(cfg config.HyteraConfig, session *bridge.Session, log *logger.Logger) *DMRServer {
	return &DMRServer{
		cfg:     cfg,
		log:     log.WithComponent("network.dmr"),
		session: session,
		started: make(chan struct{}),
	}
}

// Observe registers a packet observer. Register before Start; the observer
// list is not guarded.
func (s *DMRServer) Observe(fn PacketObserver) {
	s.observers = append(s.observers, fn)
}

// Start binds the endpoint and processes datagrams until ctx is canceled
func (s *DMRServer) Start(ctx context.Context) error {
	conn, err := listenUDP(s.cfg.IP, s.cfg.DMRPort)
	if err != nil {
		return err
	}
	s.conn = conn
	select {
	case <-s.started:
	default:
		close(s.started)
	}
	defer func() { _ = s.conn.Close() }()

	s.log.Info("DMR endpoint started", logger.String("addr", conn.LocalAddr().String()))

	buffer := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond)); err != nil {
			s.log.Warn("Failed to set read deadline", logger.Error(err))
			continue
		}
		n, addr, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			s.log.Error("Failed to read from UDP", logger.Error(err))
			continue
		}

		s.session.RecordInbound(bridge.EndpointDMR, n)
		s.handleDatagram(buffer[:n], addr)
	}
}

// WaitStarted blocks until the listener is bound or ctx is canceled
func (s *DMRServer) WaitStarted(ctx context.Context) error {
	select {
	case <-s.started:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Addr returns the bound UDP address; call after WaitStarted
func (s *DMRServer) Addr() (*net.UDPAddr, error) {
	return udpAddrOf(s.conn)
}

func (s *DMRServer) handleDatagram(data []byte, addr *net.UDPAddr) {
	kind := hytera.Classify(data)
	pkt, err := hytera.DecodeKind(kind, data)
	if err != nil {
		s.log.Warn("Failed to decode datagram",
			logger.String("kind", kind.String()),
			logger.Addr("from", addr),
			logger.Error(err))
	}

	s.log.Debug("DMR datagram",
		logger.String("kind", kind.String()),
		logger.Int("size", len(data)),
		logger.Addr("from", addr))

	// observers get a private copy, the read buffer is reused
	payload := make([]byte, len(data))
	copy(payload, data)
	for _, fn := range s.observers {
		fn(kind, pkt, payload, addr)
	}
}

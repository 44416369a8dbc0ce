// Package network runs the repeater-facing UDP endpoints and the upstream
// homebrew client. Each endpoint is serviced by a single goroutine and
// handles datagrams one at a time in arrival order; cross-endpoint state
// lives in the shared bridge session.
package network

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/dmrhub/hytera-bridge/pkg/bridge"
	"github.com/dmrhub/hytera-bridge/pkg/config"
	"github.com/dmrhub/hytera-bridge/pkg/hytera"
	"github.com/dmrhub/hytera-bridge/pkg/logger"
)

// SNMPWalker discovers repeater details after registration. Failure is
// logged and never blocks the registration exchange.
type SNMPWalker interface {
	Walk(ctx context.Context, host string) error
}

// P2PServer services the repeater control endpoint: registration, RDAC and
// DMR startup requests and keepalive pings.
type P2PServer struct {
	cfg     config.HyteraConfig
	log     *logger.Logger
	session *bridge.Session

	conn    *net.UDPConn
	sender  PacketSender
	started chan struct{}

	snmp   SNMPWalker
	snmpWG sync.WaitGroup

	// lastAddr is the source of the most recent datagram; used for the
	// voluntary disconnect reset. Accessed only from the receive goroutine
	// and Disconnect after shutdown.
	lastAddr *net.UDPAddr

	onRegistered func(addr *net.UDPAddr)
}

// NewP2PServer creates the control endpoint server
func NewP2PServer(cfg config.HyteraConfig, session *bridge.Session, log *logger.Logger) *P2PServer {
	return &P2PServer{
		cfg:     cfg,
		log:     log.WithComponent("network.p2p"),
		session: session,
		started: make(chan struct{}),
	}
}

// WithSNMP injects the SNMP walker collaborator
func (s *P2PServer) WithSNMP(w SNMPWalker) *P2PServer {
	s.snmp = w
	return s
}

// OnRegistered sets an optional hook invoked after a registration exchange
func (s *P2PServer) OnRegistered(fn func(addr *net.UDPAddr)) {
	s.onRegistered = fn
}

// Start binds the endpoint and processes datagrams until ctx is canceled
func (s *P2PServer) Start(ctx context.Context) error {
	conn, err := listenUDP(s.cfg.IP, s.cfg.P2PPort)
	if err != nil {
		return err
	}
	s.conn = conn
	s.sender = &udpSender{conn: conn}
	select {
	case <-s.started:
	default:
		close(s.started)
	}
	defer func() {
		_ = s.conn.Close()
		s.snmpWG.Wait()
	}()

	s.log.Info("P2P endpoint started", logger.String("addr", conn.LocalAddr().String()))

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

		s.session.RecordInbound(bridge.EndpointP2P, n)
		s.lastAddr = addr
		s.handleDatagram(buffer[:n], addr)
	}
}

// WaitStarted blocks until the listener is bound or ctx is canceled
func (s *P2PServer) WaitStarted(ctx context.Context) error {
	select {
	case <-s.started:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Addr returns the bound UDP address; call after WaitStarted
func (s *P2PServer) Addr() (*net.UDPAddr, error) {
	return udpAddrOf(s.conn)
}

// handleDatagram dispatches one control datagram
func (s *P2PServer) handleDatagram(data []byte, addr *net.UDPAddr) {
	if hytera.IsP2PCommand(data) {
		packetType := hytera.P2PCommandType(data)
		switch packetType {
		case hytera.P2PTypeRegistration:
			s.handleRegistration(data, addr)
		case hytera.P2PTypeRDACStartup:
			s.handleStartupRequest(data, addr, "RDAC", s.session.RDACPort())
		case hytera.P2PTypeDMRStartup:
			s.handleStartupRequest(data, addr, "DMR", s.session.DMRPort())
		default:
			s.log.Error("Unknown command packet received",
				logger.Int("size", len(data)),
				logger.Addr("from", addr),
				logger.Int("type", int(packetType)),
				logger.Hex("data", data))
		}
		return
	}
	if hytera.IsP2PPing(data) {
		s.handlePing(data, addr)
		return
	}
	s.log.Error("Unknown packet received",
		logger.Int("size", len(data)),
		logger.Addr("from", addr),
		logger.Hex("data", data))
}

// handleRegistration accepts a repeater registration. The repeater is
// considered registered once the accept has been sent, whether or not SNMP
// discovery succeeds afterwards.
func (s *P2PServer) handleRegistration(data []byte, addr *net.UDPAddr) {
	resp := hytera.BuildRegistrationResponse(data)
	if resp == nil {
		s.log.Error("Registration request too short", logger.Hex("data", data))
		return
	}
	s.send(resp, addr)

	if s.snmp != nil {
		host := addr.IP.String()
		s.snmpWG.Add(1)
		go func() {
			defer s.snmpWG.Done()
			if err := s.snmp.Walk(context.Background(), host); err != nil {
				s.log.Warn("SNMP failed to walk the repeater",
					logger.String("host", host), logger.Error(err))
			}
		}()
	} else {
		s.log.Warn("SNMP is disabled")
	}

	s.session.SetRegistered(true)
	s.log.Info("Repeater registered", logger.Addr("from", addr))

	if s.onRegistered != nil {
		s.onRegistered(addr)
	}
}

// handleStartupRequest accepts an RDAC or DMR startup request and redirects
// the repeater to the matching service port. Replies go to the source host
// but the configured P2P port, not the datagram's source port.
func (s *P2PServer) handleStartupRequest(data []byte, addr *net.UDPAddr, service string, targetPort int) {
	if !s.session.IsRegistered() {
		s.log.Info("Ignoring startup request for not-registered repeater",
			logger.String("service", service), logger.Addr("from", addr))
		s.send(hytera.ConnectionReset, addr)
		return
	}

	responseAddr := &net.UDPAddr{IP: addr.IP, Port: s.session.P2PPort(), Zone: addr.Zone}

	accept := hytera.BuildStartupAccept(data)
	if accept == nil {
		s.log.Error("Startup request too short",
			logger.String("service", service), logger.Hex("data", data))
		return
	}
	s.send(accept, responseAddr)
	s.log.Info("Startup accepted",
		logger.String("service", service), logger.Addr("from", addr))

	redirect := hytera.BuildRedirectPacket(accept, uint16(targetPort))
	if redirect == nil {
		return
	}
	s.send(redirect, responseAddr)
}

// handlePing echoes a keepalive with the status bytes set
func (s *P2PServer) handlePing(data []byte, addr *net.UDPAddr) {
	if !s.session.IsRegistered() {
		s.send(hytera.ConnectionReset, addr)
		return
	}
	pong := hytera.BuildPongResponse(data)
	if pong == nil {
		return
	}
	s.send(pong, addr)
}

// Disconnect announces a voluntary disconnect by sending the connection
// reset byte to the last known repeater address
func (s *P2PServer) Disconnect() {
	if s.lastAddr == nil || s.sender == nil {
		return
	}
	s.log.Warn("Sending connection reset")
	s.send(hytera.ConnectionReset, s.lastAddr)
}

func (s *P2PServer) send(data []byte, addr *net.UDPAddr) {
	if err := s.sender.SendTo(data, addr); err != nil {
		s.log.Error("Failed to send", logger.Addr("to", addr), logger.Error(err))
		return
	}
	s.session.RecordOutbound(bridge.EndpointP2P, len(data))
}

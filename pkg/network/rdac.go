package network

import (
	"bytes"
	"context"
	"net"
	"sync"
	"time"

	"github.com/dmrhub/hytera-bridge/pkg/bridge"
	"github.com/dmrhub/hytera-bridge/pkg/config"
	"github.com/dmrhub/hytera-bridge/pkg/hytera"
	"github.com/dmrhub/hytera-bridge/pkg/logger"
)

// rdacFinalStep is the terminal steady state of the identification
// sequence; the machine idles there answering no-data polls until a reset
const rdacFinalStep = 14

// RDACServer drives the 15-step identification sequence with the repeater.
// The step counter is only touched from the receive goroutine, so it needs
// no locking; extracted fields go into the shared session.
type RDACServer struct {
	cfg     config.HyteraConfig
	log     *logger.Logger
	session *bridge.Session

	conn    *net.UDPConn
	sender  PacketSender
	started chan struct{}

	step         int
	lastAddr     *net.UDPAddr
	lastProgress time.Time
	stepTimeout  time.Duration

	onCompleted  func(snap bridge.Snapshot)
	onReset      func(step int)
	completionWG sync.WaitGroup
}

// NewRDACServer creates the identification endpoint server
func NewRDACServer(cfg config.HyteraConfig, session *bridge.Session, log *logger.Logger) *RDACServer {
	return &RDACServer{
		cfg:         cfg,
		log:         log.WithComponent("network.rdac"),
		session:     session,
		started:     make(chan struct{}),
		stepTimeout: time.Duration(cfg.RDACStepTimeout) * time.Second,
	}
}

// OnCompleted sets the callback fired once identification reaches the final
// step. It runs on its own goroutine so it can never block the receive
// loop; Start joins it before returning.
func (s *RDACServer) OnCompleted(fn func(snap bridge.Snapshot)) {
	s.onCompleted = fn
}

// OnReset sets the callback fired when a handshake restarts, either from a
// peer reset byte or a step timeout. Runs on the receive goroutine.
func (s *RDACServer) OnReset(fn func(step int)) {
	s.onReset = fn
}

// Start binds the endpoint and processes datagrams until ctx is canceled
func (s *RDACServer) Start(ctx context.Context) error {
	conn, err := listenUDP(s.cfg.IP, s.cfg.RDACPort)
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
		s.completionWG.Wait()
	}()

	s.log.Info("RDAC endpoint started", logger.String("addr", conn.LocalAddr().String()))

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
				s.checkStepTimeout()
				continue
			}
			s.log.Error("Failed to read from UDP", logger.Error(err))
			continue
		}

		s.session.RecordInbound(bridge.EndpointRDAC, n)
		s.lastAddr = addr
		s.handleDatagram(buffer[:n], addr)
	}
}

// WaitStarted blocks until the listener is bound or ctx is canceled
func (s *RDACServer) WaitStarted(ctx context.Context) error {
	select {
	case <-s.started:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Addr returns the bound UDP address; call after WaitStarted
func (s *RDACServer) Addr() (*net.UDPAddr, error) {
	return udpAddrOf(s.conn)
}

// checkStepTimeout resets a handshake that has stalled mid-sequence. The
// peer-initiated single-byte reset is the protocol's only built-in
// recovery, so a stuck exchange would otherwise hang forever.
func (s *RDACServer) checkStepTimeout() {
	if s.stepTimeout <= 0 || s.step == 0 || s.step == rdacFinalStep {
		return
	}
	if s.lastAddr == nil || s.lastProgress.IsZero() {
		return
	}
	if time.Since(s.lastProgress) < s.stepTimeout {
		return
	}
	s.log.Warn("Handshake step timed out, restarting identification",
		logger.Int("step", s.step))
	if s.onReset != nil {
		s.onReset(s.step)
	}
	s.step = 0
	s.startIdentification(s.lastAddr)
}

// handleDatagram applies the top-level dispatch rules before the per-step
// handlers: a single byte outside the final step is a peer reset, extra
// data after completion is ignored, and a 0x00 poll at the final step gets
// the keepalive reply.
func (s *RDACServer) handleDatagram(data []byte, addr *net.UDPAddr) {
	switch {
	case len(data) == 1 && s.step != rdacFinalStep:
		if s.step == 4 {
			s.log.Warn("check repeater zone programming, if Digital IP " +
				"Multi-Site Connect mode allows data pass from timeslots")
		}
		s.log.Warn("Peer requested protocol reset, restarting identification",
			logger.Int("step", s.step))
		if s.onReset != nil {
			s.onReset(s.step)
		}
		s.step = 0
		s.startIdentification(addr)
	case len(data) != 1 && s.step == rdacFinalStep:
		s.log.Info("RDAC finished, received extra data", logger.Hex("data", data))
	case len(data) == 1 && s.step == rdacFinalStep:
		if data[0] == 0x00 {
			// no data available, keep the poll loop alive
			s.send(hytera.RDACKeepaliveReply, addr)
		}
	default:
		s.handleStep(data, addr)
	}
}

// startIdentification executes step 0: send the opening request and wait
// for the first response at step 1
func (s *RDACServer) startIdentification(addr *net.UDPAddr) {
	s.log.Info("RDAC identification started")
	s.step = 1
	s.lastProgress = time.Now()
	s.send(hytera.RDACStep0Request, addr)
}

// handleStep runs the handler for the current step. A response that does
// not match the expected prefix is dropped without a transition; the peer
// resends or triggers the reset path.
func (s *RDACServer) handleStep(data []byte, addr *net.UDPAddr) {
	switch s.step {
	case 0:
		s.startIdentification(addr)
	case 1:
		if s.match(data, hytera.RDACStep0Response) {
			s.advance(2)
			s.send(hytera.RDACStep1Request, addr)
		}
	case 2:
		if s.match(data, hytera.RDACStep1Response) {
			s.advance(3)
		}
	case 3:
		if s.match(data, hytera.RDACStep2Response) {
			if id, ok := hytera.ParseRepeaterID(data); ok {
				s.session.SetRepeaterID(id)
				s.log.Info("Extracted repeater id", logger.Uint32("repeater_id", id))
			} else {
				s.log.Warn("Step 2 response too short for repeater id",
					logger.Int("size", len(data)))
			}
			s.advance(4)
			s.send(hytera.RDACStep3Request, addr)
		}
	case 4:
		if s.match(data, hytera.RDACStep3Response) {
			s.advance(5)
			s.send(hytera.RDACStep4Request1, addr)
			s.send(hytera.RDACStep4Request2, addr)
		}
	case 5:
		if s.match(data, hytera.RDACStep4Response1) {
			s.advance(6)
		}
	case 6:
		if s.match(data, hytera.RDACStep4Response2) {
			if id, ok := hytera.ParseRadioIdentity(data); ok {
				s.session.SetIdentity(id)
				s.log.Info("Extracted repeater identity",
					logger.String("callsign", id.Callsign),
					logger.String("hardware", id.Hardware),
					logger.String("firmware", id.Firmware),
					logger.String("serial", id.SerialNumber))
			} else {
				s.log.Warn("Step 4 response too short for identity fields",
					logger.Int("size", len(data)))
			}
			s.advance(7)
			s.send(hytera.RDACStep6Request1, addr)
			s.send(hytera.RDACStep6Request2, addr)
		}
	case 7:
		if s.match(data, hytera.RDACStep6Response) {
			s.advance(8)
			s.send(hytera.RDACStep7Request, addr)
		}
	case 8:
		if s.match(data, hytera.RDACStep7Response1) {
			s.advance(10)
		}
	case 10:
		if s.match(data, hytera.RDACStep7Response2) {
			if cfg, ok := hytera.ParseRadioConfig(data); ok {
				s.session.SetRadioConfig(cfg)
				s.log.Info("Extracted radio configuration",
					logger.Int("mode", int(cfg.Mode)),
					logger.Uint32("tx_freq", cfg.TXFreq),
					logger.Uint32("rx_freq", cfg.RXFreq))
			} else {
				s.log.Warn("Step 7 response too short for radio configuration",
					logger.Int("size", len(data)))
			}
			s.advance(11)
			s.send(hytera.RDACStep10Request, addr)
		}
	case 11:
		if s.match(data, hytera.RDACStep10Response1) {
			s.advance(12)
		}
	case 12:
		if s.match(data, hytera.RDACStep10Response2) {
			s.advance(13)
			s.send(hytera.RDACStep12Request1, addr)
			s.send(hytera.RDACStep12Request2, addr)
		}
	case 13:
		if s.match(data, hytera.RDACStep12Response) {
			s.advance(rdacFinalStep)
			s.log.Info("RDAC completed identification")
			s.fireCompleted()
		}
	}
}

// match reports whether data carries the expected response prefix
func (s *RDACServer) match(data, expected []byte) bool {
	return len(data) >= len(expected) && bytes.Equal(data[:len(expected)], expected)
}

func (s *RDACServer) advance(step int) {
	s.step = step
	s.lastProgress = time.Now()
}

// fireCompleted runs the completion callback on its own goroutine so it
// cannot block the handshake's receive loop
func (s *RDACServer) fireCompleted() {
	if s.onCompleted == nil {
		return
	}
	snap := s.session.Snapshot()
	s.completionWG.Add(1)
	go func() {
		defer s.completionWG.Done()
		s.onCompleted(snap)
	}()
}

func (s *RDACServer) send(data []byte, addr *net.UDPAddr) {
	if err := s.sender.SendTo(data, addr); err != nil {
		s.log.Error("Failed to send", logger.Addr("to", addr), logger.Error(err))
		return
	}
	s.session.RecordOutbound(bridge.EndpointRDAC, len(data))
}

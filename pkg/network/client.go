package network

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/dmrhub/hytera-bridge/pkg/bridge"
	"github.com/dmrhub/hytera-bridge/pkg/config"
	"github.com/dmrhub/hytera-bridge/pkg/homebrew"
	"github.com/dmrhub/hytera-bridge/pkg/logger"
)

// ConnectionState represents the state of the upstream connection
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateRPTLSent
	StateAuthenticated
	StateConfigSent
	StateConnected
)

// Client connects the bridge to a homebrew master. It logs in with the
// identity extracted during RDAC identification, overridden by config where
// set, and keeps the link alive with RPTPING.
type Client struct {
	config config.HomebrewConfig
	log    *logger.Logger

	conn       *net.UDPConn
	masterAddr *net.UDPAddr

	identity   bridge.Snapshot
	repeaterID uint32
	callsign   string

	state   ConnectionState
	stateMu sync.RWMutex

	salt []byte

	dmrdHandler func(*homebrew.DMRDPacket)
	onConnected func()
	handlerMu   sync.RWMutex

	lastPong   time.Time
	lastPongMu sync.RWMutex
}

// NewClient creates an upstream client for the given repeater identity
func NewClient(cfg config.HomebrewConfig, identity bridge.Snapshot, log *logger.Logger) *Client {
	c := &Client{
		config:   cfg,
		log:      log.WithComponent("network.client"),
		identity: identity,
		state:    StateDisconnected,
		lastPong: time.Now(),
	}

	c.callsign = cfg.Callsign
	if c.callsign == "" {
		c.callsign = identity.Callsign
	}
	c.repeaterID = uint32(cfg.RepeaterID)
	if c.repeaterID == 0 {
		c.repeaterID = identity.RepeaterID
	}
	return c
}

// RepeaterID returns the identity the client logs in with
func (c *Client) RepeaterID() uint32 { return c.repeaterID }

// Start connects to the master, authenticates and services the link until
// ctx is canceled. A best-effort RPTCL is sent on the way out.
func (c *Client) Start(ctx context.Context) error {
	masterAddr, err := net.ResolveUDPAddr("udp",
		fmt.Sprintf("%s:%d", c.config.MasterIP, c.config.MasterPort))
	if err != nil {
		return fmt.Errorf("failed to resolve master address: %w", err)
	}
	c.masterAddr = masterAddr

	localAddr := &net.UDPAddr{IP: net.ParseIP("0.0.0.0"), Port: c.config.LocalPort}
	conn, err := net.ListenUDP("udp", localAddr)
	if err != nil {
		return fmt.Errorf("failed to create UDP connection: %w", err)
	}
	c.conn = conn
	defer func() { _ = c.conn.Close() }()

	c.log.Info("Client started",
		logger.String("master", c.masterAddr.String()),
		logger.String("local", conn.LocalAddr().String()),
		logger.Uint32("repeater_id", c.repeaterID),
		logger.String("callsign", c.callsign))

	if err := c.authenticate(); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	errChan := make(chan error, 2)
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() { errChan <- c.receiveLoop(loopCtx) }()
	go func() { errChan <- c.keepaliveLoop(loopCtx) }()

	select {
	case <-ctx.Done():
		c.close()
		return ctx.Err()
	case err := <-errChan:
		c.close()
		return err
	}
}

// authenticate performs the RPTL / RPTK / RPTC login exchange
func (c *Client) authenticate() error {
	// Step 1: login request; the ack carries the challenge salt
	c.log.Info("Sending RPTL", logger.Uint32("repeater_id", c.repeaterID))

	rptl := &homebrew.RPTLPacket{RepeaterID: c.repeaterID}
	if _, err := c.conn.WriteToUDP(rptl.Encode(), c.masterAddr); err != nil {
		return fmt.Errorf("failed to send RPTL: %w", err)
	}
	c.setState(StateRPTLSent)

	ack, err := c.awaitAck("RPTL")
	if err != nil {
		return err
	}
	c.salt = ack.Salt
	c.setState(StateAuthenticated)

	// Step 2: answer the challenge
	c.log.Info("Sending RPTK")

	rptk := &homebrew.RPTKPacket{
		RepeaterID: c.repeaterID,
		Digest:     homebrew.ComputeDigest(c.salt, c.config.Passphrase),
	}
	if _, err := c.conn.WriteToUDP(rptk.Encode(), c.masterAddr); err != nil {
		return fmt.Errorf("failed to send RPTK: %w", err)
	}
	if _, err := c.awaitAck("RPTK"); err != nil {
		return err
	}

	// Step 3: configuration from the extracted identity
	c.log.Info("Sending RPTC", logger.String("callsign", c.callsign))

	if _, err := c.conn.WriteToUDP(c.buildConfig().Encode(), c.masterAddr); err != nil {
		return fmt.Errorf("failed to send RPTC: %w", err)
	}
	c.setState(StateConfigSent)

	if _, err := c.awaitAck("RPTC"); err != nil {
		return err
	}
	c.setState(StateConnected)
	c.log.Info("Connected to master")
	if c.onConnected != nil {
		c.onConnected()
	}

	_ = c.conn.SetReadDeadline(time.Time{})
	return nil
}

// awaitAck reads one datagram and requires it to be an RPTACK
func (c *Client) awaitAck(stage string) (*homebrew.RPTACKPacket, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buffer := make([]byte, 1024)
	n, _, err := c.conn.ReadFromUDP(buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to receive RPTACK after %s: %w", stage, err)
	}
	if homebrew.IsMSTNAK(buffer[:n]) {
		return nil, fmt.Errorf("master rejected %s", stage)
	}
	ack, err := homebrew.ParseRPTACK(buffer[:n])
	if err != nil {
		return nil, fmt.Errorf("unexpected response to %s: %w", stage, err)
	}
	return ack, nil
}

// buildConfig assembles the RPTC packet from RDAC identity and config
// overrides. Frequencies are reported in Hz as nine-digit strings.
func (c *Client) buildConfig() *homebrew.RPTCPacket {
	return &homebrew.RPTCPacket{
		RepeaterID:  c.repeaterID,
		Callsign:    c.callsign,
		RXFreq:      fmt.Sprintf("%09d", c.identity.RXFreq),
		TXFreq:      fmt.Sprintf("%09d", c.identity.TXFreq),
		TXPower:     fmt.Sprintf("%d", c.config.TXPower),
		ColorCode:   fmt.Sprintf("%d", c.config.ColorCode),
		Latitude:    fmt.Sprintf("%.4f", c.config.Latitude),
		Longitude:   fmt.Sprintf("%.4f", c.config.Longitude),
		Height:      fmt.Sprintf("%d", c.config.Height),
		Location:    c.config.Location,
		Description: c.config.Description,
		Slots:       "2",
		URL:         c.config.URL,
		SoftwareID:  "hytera-bridge",
		PackageID:   c.identity.Hardware,
	}
}

// receiveLoop continuously receives and processes master traffic
func (c *Client) receiveLoop(ctx context.Context) error {
	buffer := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, _, err := c.conn.ReadFromUDP(buffer)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			return fmt.Errorf("read error: %w", err)
		}
		c.handlePacket(buffer[:n])
	}
}

// handlePacket processes one datagram from the master
func (c *Client) handlePacket(data []byte) {
	if len(data) < 4 {
		return
	}

	switch {
	case len(data) >= homebrew.DMRDPacketSize && string(data[0:4]) == homebrew.PacketTypeDMRD:
		packet, err := homebrew.ParseDMRD(data)
		if err != nil {
			c.log.Error("Failed to parse DMRD packet", logger.Error(err))
			return
		}

		c.log.Debug("Received DMRD packet",
			logger.Uint32("src", packet.SourceID),
			logger.Uint32("dst", packet.DestinationID),
			logger.Int("ts", packet.Timeslot))

		c.handlerMu.RLock()
		handler := c.dmrdHandler
		c.handlerMu.RUnlock()
		if handler != nil {
			handler(packet)
		}

	case homebrew.IsMSTPONG(data):
		c.log.Debug("Received MSTPONG")
		c.lastPongMu.Lock()
		c.lastPong = time.Now()
		c.lastPongMu.Unlock()

	case homebrew.IsMSTCL(data):
		c.log.Warn("Received MSTCL, master closing connection")
		c.setState(StateDisconnected)

	default:
		c.log.Debug("Received unknown packet type", logger.String("type", string(data[0:4])))
	}
}

// keepaliveLoop sends periodic RPTPING packets while connected
func (c *Client) keepaliveLoop(ctx context.Context) error {
	interval := time.Duration(c.config.PingInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c.State() != StateConnected {
				continue
			}
			if _, err := c.conn.WriteToUDP(homebrew.EncodeRPTPING(c.repeaterID), c.masterAddr); err != nil {
				c.log.Error("Failed to send RPTPING", logger.Error(err))
				continue
			}
			c.log.Debug("Sent RPTPING")
		}
	}
}

// close announces the shutdown to the master
func (c *Client) close() {
	if c.State() != StateConnected {
		return
	}
	c.log.Info("Sending RPTCL")
	if _, err := c.conn.WriteToUDP(homebrew.EncodeRPTCL(c.repeaterID), c.masterAddr); err != nil {
		c.log.Error("Failed to send RPTCL", logger.Error(err))
	}
	c.setState(StateDisconnected)
}

// SendDMRD forwards a DMRD packet to the master
func (c *Client) SendDMRD(packet *homebrew.DMRDPacket) error {
	if c.State() != StateConnected {
		return fmt.Errorf("not connected to master")
	}

	data, err := packet.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode DMRD: %w", err)
	}
	if _, err := c.conn.WriteToUDP(data, c.masterAddr); err != nil {
		return fmt.Errorf("failed to send DMRD: %w", err)
	}

	c.log.Debug("Sent DMRD packet",
		logger.Uint32("src", packet.SourceID),
		logger.Uint32("dst", packet.DestinationID),
		logger.Int("ts", packet.Timeslot))
	return nil
}

// OnDMRD sets the handler for DMRD packets received from the master
func (c *Client) OnDMRD(handler func(*homebrew.DMRDPacket)) {
	c.handlerMu.Lock()
	c.dmrdHandler = handler
	c.handlerMu.Unlock()
}

// OnConnected sets the callback fired once the login exchange completes.
// Set before Start.
func (c *Client) OnConnected(fn func()) {
	c.onConnected = fn
}

// State returns the current connection state
func (c *Client) State() ConnectionState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Client) setState(state ConnectionState) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()
}

package network

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmrhub/hytera-bridge/pkg/bridge"
	"github.com/dmrhub/hytera-bridge/pkg/config"
	"github.com/dmrhub/hytera-bridge/pkg/homebrew"
)

func testIdentity() bridge.Snapshot {
	return bridge.Snapshot{
		Registered:   true,
		RepeaterID:   312000,
		Callsign:     "OK0ABC",
		Hardware:     "RD985",
		Firmware:     "A8.01.07.005",
		SerialNumber: "20200116001",
		TXFreq:       438_500_000,
		RXFreq:       430_900_000,
	}
}

func TestClient_IdentityFromSnapshot(t *testing.T) {
	cfg := config.HomebrewConfig{
		Enabled:    true,
		MasterIP:   "127.0.0.1",
		MasterPort: 62031,
		Passphrase: "test",
	}
	client := NewClient(cfg, testIdentity(), testLogger())

	if client.RepeaterID() != 312000 {
		t.Errorf("repeater id = %d, want 312000 from identity", client.RepeaterID())
	}
	if client.callsign != "OK0ABC" {
		t.Errorf("callsign = %q, want OK0ABC from identity", client.callsign)
	}
}

func TestClient_ConfigOverridesIdentity(t *testing.T) {
	cfg := config.HomebrewConfig{
		MasterIP:   "127.0.0.1",
		MasterPort: 62031,
		Passphrase: "test",
		Callsign:   "OK9XYZ",
		RepeaterID: 999001,
	}
	client := NewClient(cfg, testIdentity(), testLogger())

	if client.RepeaterID() != 999001 {
		t.Errorf("repeater id = %d, want the 999001 override", client.RepeaterID())
	}
	if client.callsign != "OK9XYZ" {
		t.Errorf("callsign = %q, want the OK9XYZ override", client.callsign)
	}
}

func TestClient_LoginExchange(t *testing.T) {
	serverConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("failed to create mock master: %v", err)
	}
	defer serverConn.Close()

	masterPort := serverConn.LocalAddr().(*net.UDPAddr).Port
	cfg := config.HomebrewConfig{
		Enabled:    true,
		MasterIP:   "127.0.0.1",
		MasterPort: masterPort,
		Passphrase: "s3cret",
		ColorCode:  1,
	}
	client := NewClient(cfg, testIdentity(), testLogger())

	connected := false
	client.OnConnected(func() { connected = true })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	errChan := make(chan error, 1)
	go func() { errChan <- client.Start(ctx) }()

	buffer := make([]byte, 1024)

	// login request
	_ = serverConn.SetReadDeadline(time.Now().Add(time.Second))
	n, clientAddr, err := serverConn.ReadFromUDP(buffer)
	if err != nil {
		t.Fatalf("mock master did not receive RPTL: %v", err)
	}
	if n != homebrew.RPTLPacketSize || string(buffer[0:4]) != homebrew.PacketTypeRPTL {
		t.Fatalf("expected RPTL, got %d bytes %q", n, buffer[:4])
	}

	salt := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	ack := make([]byte, homebrew.RPTACKPacketSize)
	copy(ack, homebrew.PacketTypeRPTACK)
	copy(ack[6:10], salt)
	if _, err := serverConn.WriteToUDP(ack, clientAddr); err != nil {
		t.Fatalf("failed to send RPTACK: %v", err)
	}

	// challenge answer must use the salt from the ack
	_ = serverConn.SetReadDeadline(time.Now().Add(time.Second))
	n, _, err = serverConn.ReadFromUDP(buffer)
	if err != nil {
		t.Fatalf("mock master did not receive RPTK: %v", err)
	}
	if n != homebrew.RPTKPacketSize || string(buffer[0:4]) != homebrew.PacketTypeRPTK {
		t.Fatalf("expected RPTK, got %d bytes %q", n, buffer[:4])
	}
	want := homebrew.ComputeDigest(salt, "s3cret")
	if !bytes.Equal(buffer[8:40], want) {
		t.Error("RPTK digest does not match SHA256(salt+passphrase)")
	}
	if _, err := serverConn.WriteToUDP(ack, clientAddr); err != nil {
		t.Fatalf("failed to send RPTACK: %v", err)
	}

	// configuration built from the extracted identity
	_ = serverConn.SetReadDeadline(time.Now().Add(time.Second))
	n, _, err = serverConn.ReadFromUDP(buffer)
	if err != nil {
		t.Fatalf("mock master did not receive RPTC: %v", err)
	}
	if n != homebrew.RPTCPacketSize || string(buffer[0:4]) != homebrew.PacketTypeRPTC {
		t.Fatalf("expected RPTC, got %d bytes %q", n, buffer[:4])
	}
	if got := string(buffer[8:14]); got != "OK0ABC" {
		t.Errorf("RPTC callsign = %q, want OK0ABC", got)
	}
	if _, err := serverConn.WriteToUDP(ack, clientAddr); err != nil {
		t.Fatalf("failed to send RPTACK: %v", err)
	}

	// give the client a moment to process the final ack
	deadline := time.Now().Add(time.Second)
	for client.State() != StateConnected && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if client.State() != StateConnected {
		t.Fatal("client did not reach connected state")
	}

	cancel()
	<-errChan
	if !connected {
		t.Error("connected callback did not fire")
	}
}

func TestClient_RejectedLogin(t *testing.T) {
	serverConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("failed to create mock master: %v", err)
	}
	defer serverConn.Close()

	cfg := config.HomebrewConfig{
		MasterIP:   "127.0.0.1",
		MasterPort: serverConn.LocalAddr().(*net.UDPAddr).Port,
		Passphrase: "wrong",
	}
	client := NewClient(cfg, testIdentity(), testLogger())

	connected := false
	client.OnConnected(func() { connected = true })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	errChan := make(chan error, 1)
	go func() { errChan <- client.Start(ctx) }()

	buffer := make([]byte, 1024)
	_ = serverConn.SetReadDeadline(time.Now().Add(time.Second))
	_, clientAddr, err := serverConn.ReadFromUDP(buffer)
	if err != nil {
		t.Fatalf("mock master did not receive RPTL: %v", err)
	}

	nak := make([]byte, homebrew.MSTNAKPacketSize)
	copy(nak, homebrew.PacketTypeMSTNAK)
	if _, err := serverConn.WriteToUDP(nak, clientAddr); err != nil {
		t.Fatalf("failed to send MSTNAK: %v", err)
	}

	select {
	case err := <-errChan:
		if err == nil {
			t.Fatal("expected login failure")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client did not fail after MSTNAK")
	}
	if connected {
		t.Error("connected callback fired for a rejected login")
	}
}

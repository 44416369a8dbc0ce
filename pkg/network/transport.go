package network

import (
	"fmt"
	"net"
)

// PacketSender sends one UDP datagram, best-effort. The concrete
// implementation wraps the listener's socket; tests substitute a capture.
type PacketSender interface {
	SendTo(data []byte, addr *net.UDPAddr) error
}

// udpSender sends through a bound UDP socket
type udpSender struct {
	conn *net.UDPConn
}

func (u *udpSender) SendTo(data []byte, addr *net.UDPAddr) error {
	_, err := u.conn.WriteToUDP(data, addr)
	return err
}

// listenUDP binds a UDP listener on ip:port
func listenUDP(ip string, port int) (*net.UDPConn, error) {
	addr := &net.UDPAddr{
		IP:   net.ParseIP(ip),
		Port: port,
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on UDP %s:%d: %w", ip, port, err)
	}
	return conn, nil
}

// udpAddrOf returns the bound address of a connection as *net.UDPAddr
func udpAddrOf(conn *net.UDPConn) (*net.UDPAddr, error) {
	if conn == nil {
		return nil, fmt.Errorf("server not started")
	}
	udpAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, fmt.Errorf("not a UDP address")
	}
	return udpAddr, nil
}

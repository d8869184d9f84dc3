package osc

import (
	"fmt"
	"net"
)

// Client enables you to send OSC Packets to a specified server.
type Client struct {
	conn   *net.UDPConn
	remote *net.UDPAddr
}

// Dial creates a new OSC Client with a connection to the specified server.
// The socket is left unconnected so that ICMP port unreachable replies never
// surface as send errors: nothing listening at addr is not an error.
func Dial(addr string) (*Client, error) {
	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("Dial: %w", err)
	}

	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("Dial: %w", err)
	}
	return &Client{conn: conn, remote: a}, nil
}

// Send sends an OSC Packet to the server.
func (c *Client) Send(packet Packet) error {
	data, err := packet.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = c.conn.WriteToUDP(data, c.remote)
	return err
}

// LocalAddr returns the local address packets are sent from.
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the address of the server.
func (c *Client) RemoteAddr() net.Addr {
	return c.remote
}

// Close closes the connection to the server.
func (c *Client) Close() error {
	return c.conn.Close()
}

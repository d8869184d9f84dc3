package osc

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

var bufPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, MaxPacketSize)
		return &b
	},
}

// Server represents an OSC server. The server listens on Addr for incoming OSC packets and bundles.
type Server struct {
	Addr        string
	Handler     Handler
	ReadTimeout time.Duration
	Logger      *zap.Logger
}

// ListenAndServe binds Addr and serves incoming OSC packets until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.ListenPacket("udp", s.Addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	return s.Serve(ctx, ln)
}

// Serve retrieves incoming OSC packets from the given connection and dispatches retrieved OSC packets.
// The connection is closed when ctx is done, in which case Serve returns nil.
func (s *Server) Serve(ctx context.Context, c net.PacketConn) error {
	if s.Handler == nil {
		s.Handler = &Dispatcher{Logger: s.Logger}
	}
	log := s.logger()

	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	var tempDelay time.Duration
	for {
		p, addr, err := s.readFromConnection(c)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			var te interface{ Temporary() bool }
			if errors.As(err, &te) && te.Temporary() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				if max := 1 * time.Second; tempDelay > max {
					tempDelay = max
				}
				time.Sleep(tempDelay)
				continue
			}
			var pe *parseError
			if errors.As(err, &pe) {
				log.Debug("osc: dropping malformed packet", zap.Stringer("from", addrStringer{addr}), zap.Error(pe.err))
				continue
			}
			return err
		}
		tempDelay = 0
		s.serve(p, addr)
	}
}

// serve hands p to the Handler. Packets are handled in arrival order.
func (s *Server) serve(p Packet, a net.Addr) {
	defer recoverer(s.logger(), a)
	s.Handler.Dispatch(p, a)
}

// ReceivePacket listens for incoming OSC packets and returns the packet if one is received.
func (s *Server) ReceivePacket(c net.PacketConn) (Packet, net.Addr, error) {
	return s.readFromConnection(c)
}

// parseError marks packets that were received but could not be parsed.
type parseError struct{ err error }

func (e *parseError) Error() string { return e.err.Error() }
func (e *parseError) Unwrap() error { return e.err }

// readFromConnection retrieves OSC packets.
func (s *Server) readFromConnection(c net.PacketConn) (Packet, net.Addr, error) {
	if s.ReadTimeout != 0 {
		if err := c.SetReadDeadline(time.Now().Add(s.ReadTimeout)); err != nil {
			return nil, nil, err
		}
	}

	b := bufPool.Get().(*[]byte)
	defer bufPool.Put(b)

	n, a, err := c.ReadFrom(*b)
	if err != nil {
		return nil, a, err
	}

	p, err := ParsePacket((*b)[:n])
	if err != nil {
		return nil, a, &parseError{err: err}
	}
	return p, a, nil
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

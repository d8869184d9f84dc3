// Package remote drives a DAW through its OSC control surface.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/chabad360/dawctl/internal/correlate"
	"github.com/chabad360/dawctl/internal/daw"
	"github.com/chabad360/dawctl/osc"
)

var (
	// ErrNotAwaitable is returned by Request for commands the DAW does not answer.
	ErrNotAwaitable = errors.New("remote: command has no reply")
	// ErrSendOnly is returned by Request on a Surface opened without ListenAddr.
	ErrSendOnly = errors.New("remote: surface is send-only")
)

// Options configures a Surface.
type Options struct {
	// SendAddr is where the DAW listens for commands, e.g. "127.0.0.1:8000".
	SendAddr string
	// ListenAddr is where feedback is received. Port 0 picks a free port.
	// Empty opens a send-only Surface that binds nothing.
	ListenAddr string

	ReplyTimeout time.Duration
	// SendRate limits sends per second. Zero disables pacing.
	SendRate  float64
	SendBurst int
	Tagged    bool

	// OnMessage, if set, is called for every received message after it was
	// recorded. It runs on the receive loop and must not block.
	OnMessage func(msg *osc.Message, from net.Addr)

	Logger     *zap.Logger
	Registerer prometheus.Registerer
}

// Surface is the bidirectional OSC endpoint pair of one DAW.
type Surface struct {
	opts    Options
	logger  *zap.Logger
	client  *osc.Client
	conn    net.PacketConn
	server  *osc.Server
	limiter *rate.Limiter
	metrics *metrics

	replies *correlate.ReplyLog
	matcher *correlate.Matcher
	state   *daw.State

	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Open dials opts.SendAddr and binds opts.ListenAddr, if set.
func Open(opts Options) (*Surface, error) {
	if opts.ReplyTimeout <= 0 {
		opts.ReplyTimeout = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := osc.Dial(opts.SendAddr)
	if err != nil {
		return nil, fmt.Errorf("remote: send address %s: %w", opts.SendAddr, err)
	}
	var conn net.PacketConn
	if opts.ListenAddr != "" {
		conn, err = net.ListenPacket("udp", opts.ListenAddr)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("remote: listen address %s: %w", opts.ListenAddr, err)
		}
	}

	s := &Surface{
		opts:    opts,
		logger:  logger,
		client:  client,
		conn:    conn,
		limiter: newLimiter(opts.SendRate, opts.SendBurst),
		metrics: newMetrics(opts.Registerer),
		replies: &correlate.ReplyLog{},
		matcher: correlate.NewMatcher(),
		state:   daw.NewState(),
		closed:  make(chan struct{}),
	}
	s.server = &osc.Server{
		Handler: osc.HandlerFunc(s.handle),
		Logger:  logger,
	}
	return s, nil
}

func newLimiter(r float64, burst int) *rate.Limiter {
	if r <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(r), burst)
}

// Serve receives feedback until ctx is done or the Surface is closed.
func (s *Surface) Serve(ctx context.Context) error {
	if s.conn == nil {
		select {
		case <-ctx.Done():
		case <-s.closed:
		}
		return nil
	}
	s.logger.Info("listening for feedback", zap.Stringer("addr", s.conn.LocalAddr()))
	err := s.server.Serve(ctx, s.conn)
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Surface) handle(p osc.Packet, from net.Addr) {
	for _, msg := range osc.Messages(p) {
		s.metrics.received.Inc()
		s.replies.Append(msg, from)

		if s.matcher.Resolve(msg) {
			s.metrics.matched.Inc()
		} else {
			s.metrics.unmatched.Inc()
		}
		s.state.Apply(msg)

		s.logger.Debug("received", zap.Stringer("msg", msg), zap.Stringer("from", from))
		if s.opts.OnMessage != nil {
			s.opts.OnMessage(msg, from)
		}
	}
}

// Send sends cmd without waiting for an answer. Sends are paced by the rate limiter.
func (s *Surface) Send(ctx context.Context, cmd daw.Command) error {
	return s.send(ctx, cmd.Name, cmd.Message)
}

func (s *Surface) send(ctx context.Context, name string, msg *osc.Message) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := s.client.Send(msg); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	s.metrics.sent.WithLabelValues(name).Inc()
	s.logger.Debug("sent", zap.String("command", name), zap.Stringer("msg", msg))
	return nil
}

// Request sends cmd and waits for its reply, at most ReplyTimeout.
func (s *Surface) Request(ctx context.Context, cmd daw.Command) (*osc.Message, error) {
	if !cmd.Awaitable() {
		return nil, fmt.Errorf("%s: %w", cmd.Name, ErrNotAwaitable)
	}
	if s.conn == nil {
		return nil, fmt.Errorf("%s: %w", cmd.Name, ErrSendOnly)
	}

	msg := cmd.Message
	var p *correlate.Pending
	if s.opts.Tagged {
		p = s.matcher.ExpectTagged(cmd.Reply)
		args := append(append([]interface{}(nil), msg.Arguments...), p.ID)
		msg = &osc.Message{Address: msg.Address, Arguments: args}
	} else {
		p = s.matcher.Expect(cmd.Reply)
	}

	if err := s.send(ctx, cmd.Name, msg); err != nil {
		p.Cancel()
		return nil, err
	}
	sentAt := time.Now()

	wctx, cancel := context.WithTimeout(ctx, s.opts.ReplyTimeout)
	defer cancel()

	reply, err := p.Wait(wctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.metrics.timeouts.WithLabelValues(cmd.Name).Inc()
		}
		return nil, fmt.Errorf("%s: %w", cmd.Name, err)
	}
	s.metrics.latency.WithLabelValues(cmd.Name).Observe(time.Since(sentAt).Seconds())
	return reply, nil
}

// Replies returns the log of every received message.
func (s *Surface) Replies() *correlate.ReplyLog {
	return s.replies
}

// State returns the DAW state observed through feedback.
func (s *Surface) State() *daw.State {
	return s.state
}

// LocalAddr returns the address feedback is received on, nil for a send-only Surface.
func (s *Surface) LocalAddr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// SendAddr returns the address commands are sent to.
func (s *Surface) SendAddr() net.Addr {
	return s.client.RemoteAddr()
}

// Close fails pending requests and releases both sockets. It is safe to call more than once.
func (s *Surface) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.matcher.Close()
		var err error
		if s.conn != nil {
			err = s.conn.Close()
			if errors.Is(err, net.ErrClosed) {
				err = nil
			}
		}
		s.closeErr = errors.Join(err, s.client.Close())
	})
	return s.closeErr
}

package correlate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chabad360/dawctl/osc"
)

var (
	// ErrTimeout is returned by Pending.Wait when no reply arrived in time.
	ErrTimeout = errors.New("correlate: no reply before deadline")
	// ErrClosed is returned for requests still pending when the Matcher closes.
	ErrClosed = errors.New("correlate: matcher closed")
)

// Pending is a request waiting for its reply.
type Pending struct {
	// ID is the correlation key of the request.
	ID string
	// Address is the OSC pattern the reply address has to match.
	Address string
	// Tagged requests carry ID as a trailing argument and are matched on its echo.
	Tagged bool
	SentAt time.Time

	done  chan struct{}
	once  sync.Once
	reply *osc.Message
	err   error
	m     *Matcher
}

func (p *Pending) complete(reply *osc.Message, err error) bool {
	completed := false
	p.once.Do(func() {
		p.reply, p.err = reply, err
		close(p.done)
		completed = true
	})
	return completed
}

// Done is closed once the request has completed.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the reply arrives or ctx is done. In the latter case the
// request is withdrawn; the error wraps ErrTimeout when the deadline passed
// and ctx.Err() alone when ctx was canceled.
func (p *Pending) Wait(ctx context.Context) (*osc.Message, error) {
	select {
	case <-p.done:
		return p.reply, p.err
	case <-ctx.Done():
	}

	if p.m != nil {
		p.m.remove(p)
	}
	err := fmt.Errorf("%s (%s): %w", p.Address, p.ID, ctx.Err())
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %s (%s): %w", ErrTimeout, p.Address, p.ID, ctx.Err())
	}
	if p.complete(nil, err) {
		return nil, p.err
	}
	// The reply won the race against the deadline.
	return p.reply, p.err
}

// Cancel withdraws the request, for instance when sending it failed.
func (p *Pending) Cancel() {
	if p.m != nil {
		p.m.remove(p)
	}
	p.complete(nil, context.Canceled)
}

// Matcher pairs replies with pending requests. Tagged requests match on the
// echoed correlation tag; untagged requests match the oldest pending request
// whose reply pattern fits the reply address. It is safe for concurrent use.
type Matcher struct {
	mu       sync.Mutex
	untagged []*Pending
	tagged   map[string]*Pending
	closed   bool
}

// NewMatcher returns an empty Matcher.
func NewMatcher() *Matcher {
	return &Matcher{tagged: make(map[string]*Pending)}
}

// Expect registers a request whose reply arrives at replyAddress. Register
// before sending, so that a fast reply cannot be missed.
func (m *Matcher) Expect(replyAddress string) *Pending {
	return m.expect(replyAddress, false)
}

// ExpectTagged registers a request whose reply echoes the returned Pending.ID.
func (m *Matcher) ExpectTagged(replyAddress string) *Pending {
	return m.expect(replyAddress, true)
}

func (m *Matcher) expect(addr string, tagged bool) *Pending {
	p := &Pending{
		ID:      uuid.NewString(),
		Address: addr,
		Tagged:  tagged,
		SentAt:  time.Now(),
		done:    make(chan struct{}),
		m:       m,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		p.complete(nil, ErrClosed)
		return p
	}
	if tagged {
		m.tagged[p.ID] = p
	} else {
		m.untagged = append(m.untagged, p)
	}
	return p
}

// Resolve completes the request msg answers, and reports whether there was one.
func (m *Matcher) Resolve(msg *osc.Message) bool {
	m.mu.Lock()
	p, reply := m.take(msg)
	m.mu.Unlock()

	if p == nil {
		return false
	}
	return p.complete(reply, nil)
}

// take removes and returns the pending request answered by msg. Callers hold m.mu.
func (m *Matcher) take(msg *osc.Message) (*Pending, *osc.Message) {
	if len(m.tagged) > 0 {
		for i, arg := range msg.Arguments {
			tag, ok := arg.(string)
			if !ok {
				continue
			}
			p, ok := m.tagged[tag]
			if !ok || !osc.NewMessage(p.Address).Match(msg.Address) {
				continue
			}
			delete(m.tagged, tag)
			stripped := &osc.Message{Address: msg.Address}
			stripped.Arguments = append(stripped.Arguments, msg.Arguments[:i]...)
			stripped.Arguments = append(stripped.Arguments, msg.Arguments[i+1:]...)
			return p, stripped
		}
	}

	for i, p := range m.untagged {
		if osc.NewMessage(p.Address).Match(msg.Address) {
			m.untagged = append(m.untagged[:i], m.untagged[i+1:]...)
			return p, msg
		}
	}
	return nil, nil
}

func (m *Matcher) remove(p *Pending) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.Tagged {
		if m.tagged[p.ID] == p {
			delete(m.tagged, p.ID)
		}
		return
	}
	for i, q := range m.untagged {
		if q == p {
			m.untagged = append(m.untagged[:i], m.untagged[i+1:]...)
			return
		}
	}
}

// Len returns the number of pending requests.
func (m *Matcher) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.untagged) + len(m.tagged)
}

// Close fails every pending request with ErrClosed. Later requests fail immediately.
func (m *Matcher) Close() {
	m.mu.Lock()
	pending := m.untagged
	for _, p := range m.tagged {
		pending = append(pending, p)
	}
	m.untagged = nil
	m.tagged = make(map[string]*Pending)
	m.closed = true
	m.mu.Unlock()

	for _, p := range pending {
		p.complete(nil, ErrClosed)
	}
}

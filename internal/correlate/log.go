// Package correlate matches DAW feedback to the requests that caused it.
package correlate

import (
	"net"
	"sync"
	"time"

	"github.com/chabad360/dawctl/osc"
)

// Reply is one received feedback message.
type Reply struct {
	Address   string
	Arguments []interface{}
	From      net.Addr
	At        time.Time
}

// ReplyLog is an ordered record of received replies. It is safe for concurrent use.
type ReplyLog struct {
	mu      sync.RWMutex
	replies []Reply
}

// Append records msg as received from addr.
func (l *ReplyLog) Append(msg *osc.Message, from net.Addr) {
	r := Reply{
		Address:   msg.Address,
		Arguments: append([]interface{}(nil), msg.Arguments...),
		From:      from,
		At:        time.Now(),
	}

	l.mu.Lock()
	l.replies = append(l.replies, r)
	l.mu.Unlock()
}

// Len returns the number of replies since the last Clear.
func (l *ReplyLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.replies)
}

// Snapshot returns a copy of the recorded replies in arrival order.
func (l *ReplyLog) Snapshot() []Reply {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Reply(nil), l.replies...)
}

// Filter returns the recorded replies whose address matches the OSC pattern.
func (l *ReplyLog) Filter(pattern string) []Reply {
	matcher := osc.NewMessage(pattern)

	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Reply
	for _, r := range l.replies {
		if matcher.Match(r.Address) {
			out = append(out, r)
		}
	}
	return out
}

// Clear drops all recorded replies.
func (l *ReplyLog) Clear() {
	l.mu.Lock()
	l.replies = nil
	l.mu.Unlock()
}

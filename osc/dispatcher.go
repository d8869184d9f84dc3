package osc

import (
	"fmt"
	"net"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Method is an interface for OSC Methods.
type Method interface {
	HandleMessage(msg *Message)
}

// MethodFunc implements the Method interface. Type definition for an OSC Method function.
type MethodFunc func(msg *Message)

// HandleMessage calls itself with the given OSC Message. Implements the Method interface.
func (f MethodFunc) HandleMessage(msg *Message) {
	f(msg)
}

// Handler handles packets received by a Server.
type Handler interface {
	Dispatch(packet Packet, a net.Addr)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(packet Packet, a net.Addr)

// Dispatch calls f(packet, a).
func (f HandlerFunc) Dispatch(packet Packet, a net.Addr) {
	f(packet, a)
}

// Dispatcher handles the dispatching of received OSC Packets to Methods for their given Address.
//
// Methods added with AddMethod live at a concrete address and are selected by
// the address pattern of an incoming message. Methods added with AddPatternMethod
// carry a pattern themselves and are selected when it matches the concrete
// address of an incoming message, which is how control surface feedback is
// usually consumed.
type Dispatcher struct {
	// Logger receives panics recovered from methods. Defaults to a no-op logger.
	Logger *zap.Logger

	mu       sync.RWMutex
	methods  map[string]Method
	patterns map[string]Method
}

// Verify that Dispatcher implements the Handler interface.
var _ Handler = (*Dispatcher)(nil)

// AddMethod adds a new OSC Method for the given OSC Address.
func (d *Dispatcher) AddMethod(addr string, method Method) error {
	if !strings.HasPrefix(addr, "/") {
		return fmt.Errorf("AddMethod: OSC Method must start with '/'")
	}
	if strings.ContainsAny(addr, patternChars) {
		return fmt.Errorf("AddMethod: OSC Method may not contain any characters in %q", patternChars)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.methods == nil {
		d.methods = make(map[string]Method)
	}
	if _, ok := d.methods[addr]; ok {
		return fmt.Errorf("AddMethod: OSC Method exists already")
	}

	d.methods[addr] = method
	return nil
}

// AddMethodFunc allows you to just pass a MethodFunc.
func (d *Dispatcher) AddMethodFunc(addr string, method MethodFunc) error {
	return d.AddMethod(addr, method)
}

// AddPatternMethod adds a Method that is called for every incoming message whose address matches pattern.
func (d *Dispatcher) AddPatternMethod(pattern string, method Method) error {
	if _, err := compilePattern(pattern); err != nil {
		return fmt.Errorf("AddPatternMethod: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.patterns == nil {
		d.patterns = make(map[string]Method)
	}
	if _, ok := d.patterns[pattern]; ok {
		return fmt.Errorf("AddPatternMethod: pattern %q exists already", pattern)
	}

	d.patterns[pattern] = method
	return nil
}

// AddPatternMethodFunc allows you to just pass a MethodFunc.
func (d *Dispatcher) AddPatternMethodFunc(pattern string, method MethodFunc) error {
	return d.AddPatternMethod(pattern, method)
}

// Dispatch dispatches OSC Packets. Messages are handled synchronously, bundles when their timetag falls due.
func (d *Dispatcher) Dispatch(packet Packet, a net.Addr) {
	switch p := packet.(type) {
	default:
		d.logger().Warn("dispatch: invalid packet", zap.Stringer("from", addrStringer{a}), zap.String("type", fmt.Sprintf("%T", p)))

	case *Message:
		for _, method := range d.lookup(p.Address) {
			d.call(method, p, a)
		}

	case *Bundle:
		time.AfterFunc(p.Timetag.ExpiresIn(), func() {
			for _, elem := range p.Elements {
				d.Dispatch(elem, a)
			}
		})
	}
}

// lookup returns the methods selected by addr.
func (d *Dispatcher) lookup(addr string) []Method {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Method
	if re, err := compilePattern(addr); err == nil {
		for methodAddr, method := range d.methods {
			if re.MatchString(methodAddr) {
				out = append(out, method)
			}
		}
	}

	if IsPattern(addr) {
		return out
	}
	for pattern, method := range d.patterns {
		re, err := compilePattern(pattern)
		if err == nil && re.MatchString(addr) {
			out = append(out, method)
		}
	}
	return out
}

func (d *Dispatcher) call(method Method, msg *Message, a net.Addr) {
	defer recoverer(d.logger(), a)
	method.HandleMessage(msg)
}

func (d *Dispatcher) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// recoverer logs a panic raised while handling a packet from a.
func recoverer(log *zap.Logger, a net.Addr) {
	if err := recover(); err != nil {
		buf := make([]byte, 4096)
		buf = buf[:runtime.Stack(buf, false)]
		log.Error("osc: panic handling packet",
			zap.Stringer("from", addrStringer{a}),
			zap.Any("panic", err),
			zap.ByteString("stack", buf))
	}
}

// addrStringer prints a possibly nil net.Addr.
type addrStringer struct{ a net.Addr }

func (s addrStringer) String() string {
	if s.a == nil {
		return "<nil>"
	}
	return s.a.String()
}

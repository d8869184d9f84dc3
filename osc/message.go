package osc

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Message represents a single OSC message. An OSC message consists of an OSC
// address pattern and zero or more arguments.
type Message struct {
	Address   string
	Arguments []interface{}
}

// Verify that Messages implements the Packet interface.
var _ Packet = (*Message)(nil)

// NewMessage returns a new Message. The address parameter is the OSC address.
func NewMessage(addr string, args ...interface{}) *Message {
	return &Message{Address: addr, Arguments: args}
}

// NewMessageFromData parses data as a single OSC message.
func NewMessageFromData(data []byte) (*Message, error) {
	msg := &Message{}
	if err := msg.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return msg, nil
}

// Append appends the given arguments to the arguments list.
// Nothing is appended if any of the arguments has an unsupported type.
func (m *Message) Append(args ...interface{}) error {
	for _, a := range args {
		if ToTypeTag(a) == TypeInvalid {
			return fmt.Errorf("Append: unsupported type: %T", a)
		}
	}
	m.Arguments = append(m.Arguments, args...)
	return nil
}

// Clear clears the OSC address and all arguments.
func (m *Message) Clear() {
	m.Address = ""
	m.Arguments = m.Arguments[:0]
}

// Match returns true, if the OSC address pattern of the Message matches the given
// address. The match is case sensitive!
func (m *Message) Match(addr string) bool {
	re, err := compilePattern(m.Address)
	if err != nil {
		return false
	}
	return re.MatchString(addr)
}

// TypeTags returns the type tag string.
func (m *Message) TypeTags() (string, error) {
	if m == nil {
		return "", fmt.Errorf("TypeTags: message is nil")
	}
	return GetTypeTag(m.Arguments)
}

// String implements the fmt.Stringer interface.
func (m *Message) String() string {
	if m == nil {
		return ""
	}

	tags, _ := m.TypeTags()

	var sb strings.Builder
	sb.WriteString(m.Address)
	if len(m.Arguments) == 0 {
		return sb.String()
	}

	sb.WriteByte(' ')
	sb.WriteString(tags)

	for _, arg := range m.Arguments {
		switch arg := arg.(type) {
		case bool, int32, int64, float32, float64:
			fmt.Fprintf(&sb, " %v", arg)
		case string:
			fmt.Fprintf(&sb, " %q", arg)
		case nil:
			sb.WriteString(" Nil")
		case []byte:
			fmt.Fprintf(&sb, " blob(%d)", len(arg))
		case Timetag:
			fmt.Fprintf(&sb, " %d", arg.TimeTag())
		}
	}

	return sb.String()
}

// MarshalBinary implements the encoding.BinaryMarshaler interface. The result has the following format:
// 1. OSC Address Pattern
// 2. OSC Type Tag String
// 3. OSC Arguments
func (m *Message) MarshalBinary() ([]byte, error) {
	typetags, err := m.TypeTags()
	if err != nil {
		return nil, fmt.Errorf("MarshalBinary: %w", err)
	}

	b := make([]byte, 0, 64)
	b = appendPaddedString(b, m.Address)
	b = appendPaddedString(b, typetags)
	b = m.appendArguments(b)

	if len(b) > MaxPacketSize {
		return nil, fmt.Errorf("MarshalBinary: packet too large: %d", len(b))
	}
	return b, nil
}

// appendArguments appends the payload of every argument. The types have already been checked by TypeTags.
func (m *Message) appendArguments(b []byte) []byte {
	for _, arg := range m.Arguments {
		switch t := arg.(type) {
		case int32:
			b = binary.BigEndian.AppendUint32(b, uint32(t))
		case float32:
			b = binary.BigEndian.AppendUint32(b, math.Float32bits(t))
		case int64:
			b = binary.BigEndian.AppendUint64(b, uint64(t))
		case float64:
			b = binary.BigEndian.AppendUint64(b, math.Float64bits(t))
		case string:
			b = appendPaddedString(b, t)
		case []byte:
			b = appendBlob(b, t)
		case Timetag:
			b = binary.BigEndian.AppendUint64(b, uint64(t))
		}
	}
	return b
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
func (m *Message) UnmarshalBinary(data []byte) error {
	if len(data) == 0 || data[0] != '/' {
		return fmt.Errorf("UnmarshalBinary: data not a valid OSC message")
	}

	if (len(data) % bit32Size) != 0 {
		return fmt.Errorf("UnmarshalBinary: data isn't mod 4")
	}

	addr, n, err := parsePaddedString(data)
	if err != nil {
		return fmt.Errorf("UnmarshalBinary: %w", err)
	}

	m.Address = addr
	m.Arguments = nil

	// Messages from old implementations may omit the type tag string entirely.
	if n == len(data) {
		return nil
	}

	if err = m.parseArguments(data[n:]); err != nil {
		return fmt.Errorf("UnmarshalBinary: %w", err)
	}
	return nil
}

// parseArguments reads the type tag string and the arguments it describes from data.
func (m *Message) parseArguments(data []byte) error {
	typetags, n, err := parsePaddedString(data)
	if err != nil {
		return fmt.Errorf("parseArguments: %w", err)
	}
	data = data[n:]

	if len(typetags) == 0 || typetags[0] != ',' {
		return fmt.Errorf("unsupported typetag string: %q", typetags)
	}
	if len(typetags) == 1 {
		return nil
	}

	args := make([]interface{}, 0, len(typetags)-1)
	for _, c := range typetags[1:] {
		switch TypeTag(c) {
		default:
			return fmt.Errorf("unsupported typetag: %c", c)

		case TypeInt32:
			if len(data) < bit32Size {
				return fmt.Errorf("parseArguments: int32: %w", ErrTruncated)
			}
			args = append(args, int32(binary.BigEndian.Uint32(data)))
			data = data[bit32Size:]

		case TypeFloat32:
			if len(data) < bit32Size {
				return fmt.Errorf("parseArguments: float32: %w", ErrTruncated)
			}
			args = append(args, math.Float32frombits(binary.BigEndian.Uint32(data)))
			data = data[bit32Size:]

		case TypeInt64:
			if len(data) < bit64Size {
				return fmt.Errorf("parseArguments: int64: %w", ErrTruncated)
			}
			args = append(args, int64(binary.BigEndian.Uint64(data)))
			data = data[bit64Size:]

		case TypeFloat64:
			if len(data) < bit64Size {
				return fmt.Errorf("parseArguments: float64: %w", ErrTruncated)
			}
			args = append(args, math.Float64frombits(binary.BigEndian.Uint64(data)))
			data = data[bit64Size:]

		case TypeTimeTag:
			if len(data) < bit64Size {
				return fmt.Errorf("parseArguments: timetag: %w", ErrTruncated)
			}
			args = append(args, Timetag(binary.BigEndian.Uint64(data)))
			data = data[bit64Size:]

		case TypeString:
			str, n, err := parsePaddedString(data)
			if err != nil {
				return fmt.Errorf("parseArguments: %w", err)
			}
			args = append(args, str)
			data = data[n:]

		case TypeBlob:
			blob, n, err := parseBlob(data)
			if err != nil {
				return fmt.Errorf("parseArguments: %w", err)
			}
			args = append(args, blob)
			data = data[n:]

		case TypeNil:
			args = append(args, nil)

		case TypeTrue:
			args = append(args, true)

		case TypeFalse:
			args = append(args, false)
		}
	}

	m.Arguments = args
	return nil
}

package osc

import (
	"encoding"
	"fmt"
)

// Packet is the interface for Message and Bundle.
type Packet interface {
	encoding.BinaryMarshaler
}

// ParsePacket parses the given data and returns either a Message or a Bundle.
func ParsePacket(data []byte) (Packet, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("ParsePacket: empty packet")
	}

	switch data[0] {
	case '/':
		return NewMessageFromData(data)
	case '#':
		return NewBundleFromData(data)
	default:
		return nil, fmt.Errorf("ParsePacket: invalid packet start %q", data[0])
	}
}

// Messages flattens p into its messages, in the order they appear.
func Messages(p Packet) []*Message {
	switch t := p.(type) {
	case *Message:
		return []*Message{t}
	case *Bundle:
		var out []*Message
		for _, elem := range t.Elements {
			out = append(out, Messages(elem)...)
		}
		return out
	default:
		return nil
	}
}

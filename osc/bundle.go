package osc

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	bundleTagString = "#bundle"

	// bundleHeaderSize is the padded "#bundle" string plus the timetag.
	bundleHeaderSize = 16
)

// Bundle represents an OSC bundle. It consists of the OSC-string "#bundle"
// followed by an OSC Time Tag, followed by zero or more OSC bundle/message
// elements. The OSC-timetag is a 64-bit fixed point time tag. See
// http://opensoundcontrol.org/spec-1_0.html for more information.
type Bundle struct {
	Timetag  Timetag
	Elements []Packet
}

// Verify that Bundle implements the Packet interface.
var _ Packet = (*Bundle)(nil)

// NewBundle returns a Bundle of the given elements to be handled immediately.
func NewBundle(elems ...Packet) *Bundle {
	return &Bundle{Timetag: NewImmediateTimetag(), Elements: elems}
}

// NewBundleWithTime returns a Bundle of the given elements to be handled at t.
func NewBundleWithTime(t time.Time, elems ...Packet) *Bundle {
	return &Bundle{Timetag: NewTimetagFromTime(t), Elements: elems}
}

// NewBundleFromData returns a new OSC bundle created from the parsed data.
func NewBundleFromData(data []byte) (*Bundle, error) {
	b := &Bundle{}
	if err := b.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return b, nil
}

// Append appends an OSC bundle or OSC message to the bundle.
func (b *Bundle) Append(pck Packet) error {
	switch t := pck.(type) {
	default:
		return fmt.Errorf("unsupported OSC packet type: only Bundle and Message are supported")

	case *Bundle, *Message:
		b.Elements = append(b.Elements, t)
	}

	return nil
}

// MarshalBinary implements the encoding.BinaryMarshaler interface. The result has the following format:
// 1. Bundle string: '#bundle'
// 2. OSC timetag
// 3. Length of first OSC bundle element
// 4. First bundle element
// 5. Length of n OSC bundle element
// 6. n bundle element
func (b *Bundle) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 64)
	buf = appendPaddedString(buf, bundleTagString)
	buf = binary.BigEndian.AppendUint64(buf, uint64(b.Timetag))

	for _, elem := range b.Elements {
		bb, err := elem.MarshalBinary()
		if err != nil {
			return nil, err
		}

		buf = binary.BigEndian.AppendUint32(buf, uint32(len(bb)))
		buf = append(buf, bb...)
	}

	if len(buf) > MaxPacketSize {
		return nil, fmt.Errorf("MarshalBinary: bundle too large: %d", len(buf))
	}
	return buf, nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
func (b *Bundle) UnmarshalBinary(data []byte) error {
	if (len(data) % bit32Size) != 0 {
		return fmt.Errorf("UnmarshalBinary: data isn't padded properly")
	}

	if len(data) < bundleHeaderSize {
		return fmt.Errorf("UnmarshalBinary: bundle is too short")
	}

	// Read the '#bundle' OSC string
	startTag, n, err := parsePaddedString(data)
	if err != nil {
		return err
	}
	if startTag != bundleTagString {
		return fmt.Errorf("invalid bundle start tag: %s", startTag)
	}
	data = data[n:]

	b.Timetag = Timetag(binary.BigEndian.Uint64(data[:bit64Size]))
	data = data[bit64Size:]
	b.Elements = nil

	// Read until the end of the buffer
	for len(data) > 0 {
		if len(data) < bit32Size {
			return fmt.Errorf("UnmarshalBinary: element size: %w", ErrTruncated)
		}
		length := int(binary.BigEndian.Uint32(data[:bit32Size]))
		data = data[bit32Size:]
		if length < 0 || length > len(data) {
			return fmt.Errorf("invalid bundle element length: %d", length)
		}

		p, err := ParsePacket(data[:length])
		if err != nil {
			return err
		}
		data = data[length:]
		b.Elements = append(b.Elements, p)
	}

	return nil
}

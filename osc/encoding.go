package osc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	bit32Size = 4
	bit64Size = 8

	// MaxPacketSize is the largest payload a single UDP datagram can carry over IPv4.
	MaxPacketSize = 65507

	secondsFrom1900To1970 = 2208988800
)

// ErrTruncated is returned when a packet ends before all of its fields could be read.
var ErrTruncated = errors.New("osc: truncated packet")

////
// De/Encoding functions
////

// parseBlob parses an OSC blob from data. Padding bytes are consumed but not returned.
// The returned slice is a copy.
func parseBlob(data []byte) ([]byte, int, error) {
	if len(data) < bit32Size {
		return nil, 0, fmt.Errorf("parseBlob: %w", ErrTruncated)
	}
	blobLen := int(binary.BigEndian.Uint32(data[:bit32Size]))
	data = data[bit32Size:]

	if blobLen < 0 || blobLen > len(data) {
		return nil, 0, fmt.Errorf("parseBlob: invalid blob length %d", blobLen)
	}

	n := bit32Size + blobLen
	n += padBytesNeeded(n)
	if n > bit32Size+len(data) {
		return nil, 0, fmt.Errorf("parseBlob: %w", ErrTruncated)
	}

	blob := make([]byte, blobLen)
	copy(blob, data)
	return blob, n, nil
}

// appendBlob appends data as an OSC blob to b. If the length of data
// isn't 32-bit aligned, padding bytes will be added.
func appendBlob(b []byte, data []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(data)))
	b = append(b, data...)
	return appendPadding(b, bit32Size+len(data))
}

// parsePaddedString reads a padded string from the given slice and returns the string and the number of bytes read.
func parsePaddedString(data []byte) (string, int, error) {
	pos := bytes.IndexByte(data, 0)
	if pos == -1 {
		return "", 0, fmt.Errorf("parsePaddedString: %w", io.EOF)
	}

	n := pos + 1
	n += padBytesNeeded(n)
	if n > len(data) {
		return "", 0, fmt.Errorf("parsePaddedString: %w", ErrTruncated)
	}

	return string(data[:pos]), n, nil
}

// appendPaddedString appends str, its NUL terminator and padding bytes to b.
func appendPaddedString(b []byte, str string) []byte {
	b = append(b, str...)
	b = append(b, 0)
	return appendPadding(b, len(str)+1)
}

// appendPadding pads b for an element of the given length.
func appendPadding(b []byte, elementLen int) []byte {
	for i := padBytesNeeded(elementLen); i > 0; i-- {
		b = append(b, 0)
	}
	return b
}

// padBytesNeeded determines how many bytes are needed to fill up to the next 4
// byte length.
func padBytesNeeded(elementLen int) int {
	return (4 - (elementLen % 4)) % 4
}

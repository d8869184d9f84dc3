package osc

import (
	"encoding/binary"
	"time"
)

const (
	// MinValue is the minimum value of an OSC Time Tag. It means "immediately".
	MinValue = uint64(1)
)

// Timetag represents an OSC Time Tag.
// An OSC Time Tag is defined as follows:
// Time tags are represented by a 64 bit fixed point number. The first 32 bits
// specify the number of seconds since midnight on January 1, 1900, and the
// last 32 bits specify fractional parts of a second to a precision of about
// 200 picoseconds. This is the representation used by Internet NTP timestamps.
type Timetag uint64

// NewTimetag returns a time tag for the current time.
func NewTimetag() Timetag {
	return NewTimetagFromTime(time.Now())
}

// NewImmediateTimetag returns the special time tag meaning "immediately".
func NewImmediateTimetag() Timetag {
	return Timetag(MinValue)
}

// NewTimetagFromTime returns a new OSC time tag object from a time.Time.
func NewTimetagFromTime(timeStamp time.Time) Timetag {
	return Timetag(timeToTimetag(timeStamp))
}

// Time returns the time.
func (t Timetag) Time() time.Time {
	return timetagToTime(t)
}

// FractionalSecond returns the last 32 bits of the OSC time tag. Specifies the
// fractional part of a second.
func (t Timetag) FractionalSecond() uint32 {
	return uint32(t)
}

// SecondsSinceEpoch returns the first 32 bits (the number of seconds since the
// midnight 1900) from the OSC time tag.
func (t Timetag) SecondsSinceEpoch() uint32 {
	return uint32(t >> 32)
}

// TimeTag returns the time tag value
func (t Timetag) TimeTag() uint64 {
	return uint64(t)
}

// MarshalBinary converts the OSC time tag to a byte array.
func (t Timetag) MarshalBinary() ([]byte, error) {
	b := make([]byte, bit64Size)
	binary.BigEndian.PutUint64(b, uint64(t))
	return b, nil
}

// SetTime sets the value of the OSC time tag.
func (t *Timetag) SetTime(time time.Time) {
	*t = Timetag(timeToTimetag(time))
}

// ExpiresIn calculates the duration until the time tag falls due.
// It returns zero if the time tag is immediate or in the past.
func (t Timetag) ExpiresIn() time.Duration {
	if uint64(t) <= MinValue {
		return 0
	}

	d := time.Until(timetagToTime(t))
	if d <= 0 {
		return 0
	}

	return d
}

// timeToTimetag converts the given time to an OSC time tag. The fractional
// part is scaled from nanoseconds to units of 2^-32 seconds.
func timeToTimetag(t time.Time) uint64 {
	secs := uint64(t.Unix()+secondsFrom1900To1970) << 32
	frac := (uint64(t.Nanosecond()) << 32) / uint64(time.Second)
	return secs + frac
}

// timetagToTime converts the given timetag to a time object.
func timetagToTime(timetag Timetag) time.Time {
	secs := int64(timetag>>32) - secondsFrom1900To1970
	nanos := (uint64(timetag&0xffffffff) * uint64(time.Second)) >> 32
	return time.Unix(secs, int64(nanos))
}

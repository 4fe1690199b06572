/*
Package bcd implements the binary-coded decimal timestamps found in memory card
root blocks and directory entries.

A timestamp is eight bytes, each holding two decimal digits: century, year
within century, month, day, hour, minute, second and day of week where 0 is
Monday and 6 is Sunday.
*/
package bcd

import (
	"errors"
	"time"
)

// TimestampSize is the length in bytes of an encoded timestamp
const TimestampSize = 8

var errShort = errors.New("bcd: timestamp too short")

// Int expands one BCD byte into its decimal value.
func Int(b byte) int {
	return int(b>>4)*10 + int(b&0x0f)
}

// Encode converts n into BCD, most significant digits first. minDigits pads
// the number with leading zero digits. When the total digit count is odd the
// least significant nibble of the last byte is the filler value 0xf:
//
//	Encode(1, 0)    = [0x1f]
//	Encode(1, 2)    = [0x01]
//	Encode(1, 3)    = [0x00, 0x1f]
//	Encode(12, 3)   = [0x01, 0x2f]
//	Encode(1234, 0) = [0x12, 0x34]
func Encode(n, minDigits int) []byte {
	if n < 0 {
		n = -n
	}

	var digits []byte
	for v := n; v > 0; v /= 10 {
		digits = append(digits, byte(v%10))
	}
	if len(digits) == 0 {
		digits = append(digits, 0)
	}
	for len(digits) < minDigits {
		digits = append(digits, 0)
	}

	// digits is least significant first, walk it backwards
	out := make([]byte, 0, (len(digits)+1)>>1)
	for i := len(digits) - 1; i >= 0; i -= 2 {
		b := digits[i] << 4
		if i > 0 {
			b |= digits[i-1]
		} else {
			b |= 0x0f
		}
		out = append(out, b)
	}

	return out
}

// Decode returns the calendar time held in the first TimestampSize bytes of b.
// The day of week byte is ignored as it is implied by the date. The result is
// in UTC as the cards carry no zone information.
func Decode(b []byte) (time.Time, error) {
	if len(b) < TimestampSize {
		return time.Time{}, errShort
	}
	return time.Date(
		Int(b[0])*100+Int(b[1]),
		time.Month(Int(b[2])),
		Int(b[3]),
		Int(b[4]),
		Int(b[5]),
		Int(b[6]),
		0,
		time.UTC,
	), nil
}

// Weekday returns the day of week as stored on a card, Monday is 0.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// EncodeTime builds a timestamp from t.
func EncodeTime(t time.Time) [TimestampSize]byte {
	b := make([]byte, 0, TimestampSize)
	b = append(b, Encode(t.Year(), 4)...)
	b = append(b, Encode(int(t.Month()), 2)...)
	b = append(b, Encode(t.Day(), 2)...)
	b = append(b, Encode(t.Hour(), 2)...)
	b = append(b, Encode(t.Minute(), 2)...)
	b = append(b, Encode(t.Second(), 2)...)
	b = append(b, Encode(Weekday(t), 2)...)

	var ts [TimestampSize]byte
	copy(ts[:], b)
	return ts
}

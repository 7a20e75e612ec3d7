package types

import (
	"errors"
	"fmt"
)

// Fixed-width string kinds used by the on-disk structures. The Pascal
// kinds carry an explicit length byte; FourCC occupies its whole span
// with no prefix. Trailing bytes beyond the logical length are padding
// and never significant for equality.

const (
	// FourCCSize is the width of a type or creator code.
	FourCCSize = 4

	// VolumeNameCapacity is the longest volume name MFS stores.
	VolumeNameCapacity = 27

	// VolumeNameSize is the full on-disk span of the volume name field,
	// length byte included.
	VolumeNameSize = VolumeNameCapacity + 1

	// FileNameCapacity is the longest file name a Pascal length byte can
	// describe.
	FileNameCapacity = 255
)

var (
	// ErrStringTooLong reports a value that exceeds its field capacity.
	ErrStringTooLong = errors.New("string exceeds field capacity")

	// ErrStringTooShort reports a source span shorter than the field.
	ErrStringTooShort = errors.New("source shorter than field")

	// ErrBadLengthByte reports a Pascal length byte larger than the
	// buffer it prefixes.
	ErrBadLengthByte = errors.New("length byte exceeds field capacity")
)

// FourCC is a four-character type or creator code. The bytes are often
// ASCII but the code is opaque; all four bytes are significant.
type FourCC [FourCCSize]byte

// NewFourCC builds a FourCC from a string of exactly four bytes.
func NewFourCC(s string) (FourCC, error) {
	var c FourCC
	if len(s) != FourCCSize {
		return c, fmt.Errorf("code %q: want %d bytes, got %d: %w", s, FourCCSize, len(s), ErrStringTooLong)
	}
	copy(c[:], s)
	return c, nil
}

// ParseFourCC reads a FourCC from the start of data.
func ParseFourCC(data []byte) (FourCC, error) {
	var c FourCC
	if len(data) < FourCCSize {
		return c, ErrStringTooShort
	}
	copy(c[:], data[:FourCCSize])
	return c, nil
}

// String returns the code bytes as a string, including any embedded
// non-printable bytes.
func (c FourCC) String() string {
	return string(c[:])
}

// VolumeName is the fixed 28-byte Pascal string field of the MDB: one
// length byte followed by up to 27 characters, zero padded.
type VolumeName [VolumeNameSize]byte

// NewVolumeName encodes s into a VolumeName, zero padding the remainder.
func NewVolumeName(s string) (VolumeName, error) {
	var v VolumeName
	if len(s) > VolumeNameCapacity {
		return v, fmt.Errorf("volume name %q is %d bytes, capacity %d: %w", s, len(s), VolumeNameCapacity, ErrStringTooLong)
	}
	v[0] = byte(len(s))
	copy(v[1:], s)
	return v, nil
}

// ParseVolumeName reads the fixed field from the start of data and
// validates its length byte.
func ParseVolumeName(data []byte) (VolumeName, error) {
	var v VolumeName
	if len(data) < VolumeNameSize {
		return v, ErrStringTooShort
	}
	if data[0] > VolumeNameCapacity {
		return v, fmt.Errorf("volume name length byte %d: %w", data[0], ErrBadLengthByte)
	}
	copy(v[:], data[:VolumeNameSize])
	return v, nil
}

// Length returns the logical name length in bytes.
func (v VolumeName) Length() int {
	n := int(v[0])
	if n > VolumeNameCapacity {
		n = VolumeNameCapacity
	}
	return n
}

// String returns the logical name, without padding.
func (v VolumeName) String() string {
	return string(v[1 : 1+v.Length()])
}

// Equal compares two volume names on their logical prefix only, so
// buffers differing only in padding bytes compare equal.
func (v VolumeName) Equal(o VolumeName) bool {
	return v.String() == o.String()
}

// ParsePascalString reads a variable-length Pascal string from the start
// of data: one length byte followed by that many characters. It returns
// the value and the number of bytes consumed.
func ParsePascalString(data []byte) (string, int, error) {
	if len(data) < 1 {
		return "", 0, ErrStringTooShort
	}
	n := int(data[0])
	if len(data) < 1+n {
		return "", 0, fmt.Errorf("name needs %d bytes, have %d: %w", 1+n, len(data), ErrStringTooShort)
	}
	return string(data[1 : 1+n]), 1 + n, nil
}

// PutPascalString writes s as a Pascal string at the start of buf and
// returns the number of bytes written. The capacity argument bounds the
// logical length (27 for volume names, 255 for file names).
func PutPascalString(buf []byte, s string, capacity int) (int, error) {
	if len(s) > capacity {
		return 0, fmt.Errorf("string %q is %d bytes, capacity %d: %w", s, len(s), capacity, ErrStringTooLong)
	}
	if len(buf) < 1+len(s) {
		return 0, fmt.Errorf("buffer needs %d bytes, have %d: %w", 1+len(s), len(buf), ErrStringTooShort)
	}
	buf[0] = byte(len(s))
	copy(buf[1:], s)
	return 1 + len(s), nil
}

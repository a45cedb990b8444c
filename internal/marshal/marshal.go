// Package marshal implements the primitive-value encoding rules shared by
// internal/snapshot and internal/remoting, since both call sites need
// byte-identical primitive encoding.
package marshal

import (
	"encoding/binary"
	"errors"
	"math"
)

var ErrShortBuffer = errors.New("marshal: buffer too short")

// PutInt16/PutInt32 use network (big-endian) byte order as the
// cross-platform wire convention for short integers.
func PutInt16(buf []byte, v int16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(v))
	return append(buf, tmp[:]...)
}

func GetInt16(buf []byte) (int16, []byte, error) {
	if len(buf) < 2 {
		return 0, buf, ErrShortBuffer
	}
	return int16(binary.BigEndian.Uint16(buf)), buf[2:], nil
}

func PutInt32(buf []byte, v int32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	return append(buf, tmp[:]...)
}

func GetInt32(buf []byte) (int32, []byte, error) {
	if len(buf) < 4 {
		return 0, buf, ErrShortBuffer
	}
	return int32(binary.BigEndian.Uint32(buf)), buf[4:], nil
}

// PutInt64/PutFloat64 use native little-endian host order: no
// cross-platform convention is defined for 64-bit values, so the wire
// format is host-dependent there. See SPEC_FULL.md's Open Question
// decision on byte order.
func PutInt64(buf []byte, v int64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	return append(buf, tmp[:]...)
}

func GetInt64(buf []byte) (int64, []byte, error) {
	if len(buf) < 8 {
		return 0, buf, ErrShortBuffer
	}
	return int64(binary.LittleEndian.Uint64(buf)), buf[8:], nil
}

func PutFloat64(buf []byte, v float64) []byte {
	return PutInt64(buf, int64(math.Float64bits(v)))
}

func GetFloat64(buf []byte) (float64, []byte, error) {
	bits, rest, err := GetInt64(buf)
	if err != nil {
		return 0, buf, err
	}
	return math.Float64frombits(uint64(bits)), rest, nil
}

// PutBool writes a single byte: 1 for true, 0 for false.
func PutBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func GetBool(buf []byte) (bool, []byte, error) {
	if len(buf) < 1 {
		return false, buf, ErrShortBuffer
	}
	return buf[0] != 0, buf[1:], nil
}

// PutString writes a length-prefixed UTF-8 string: a big-endian int32
// length (reusing PutInt32's wire rule) followed by the raw bytes.
func PutString(buf []byte, s string) []byte {
	buf = PutInt32(buf, int32(len(s)))
	return append(buf, s...)
}

func GetString(buf []byte) (string, []byte, error) {
	n, rest, err := GetInt32(buf)
	if err != nil {
		return "", buf, err
	}
	if int(n) < 0 || len(rest) < int(n) {
		return "", buf, ErrShortBuffer
	}
	return string(rest[:n]), rest[n:], nil
}

// Package codec implements the engine's length-prefixed, big-endian,
// self-describing binary wire format shared by every on-chain entity.
//
// Every decode helper returns the remaining, unconsumed bytes alongside
// the decoded value, mirroring the original Python implementation's
// `(rest, value) = from_bytes(b)` shape.
package codec

import (
	"encoding/binary"
	"math"

	"github.com/kilimba/utxochain/internal/chainerr"
)

// MaxArrayLen is the protocol's u16 array-length ceiling.
const MaxArrayLen = 65535

// WriteU16 appends the big-endian encoding of v.
func WriteU16(dst []byte, v uint16) []byte {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return append(dst, buf[:]...)
}

// WriteI64 appends the big-endian encoding of v.
func WriteI64(dst []byte, v int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	return append(dst, buf[:]...)
}

// WriteF32 appends the big-endian encoding of v.
func WriteF32(dst []byte, v float32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], math.Float32bits(v))
	return append(dst, buf[:]...)
}

// ReadRaw consumes exactly n bytes, failing with InvalidEncoding if short.
func ReadRaw(b []byte, n int) (rest, raw []byte, err error) {
	if len(b) < n {
		return nil, nil, chainerr.New(chainerr.InvalidEncoding, "expected %d bytes, got %d", n, len(b))
	}
	return b[n:], b[:n], nil
}

// ReadU16 consumes a big-endian u16.
func ReadU16(b []byte) (rest []byte, v uint16, err error) {
	rest, raw, err := ReadRaw(b, 2)
	if err != nil {
		return nil, 0, err
	}
	return rest, binary.BigEndian.Uint16(raw), nil
}

// ReadI64 consumes a big-endian i64.
func ReadI64(b []byte) (rest []byte, v int64, err error) {
	rest, raw, err := ReadRaw(b, 8)
	if err != nil {
		return nil, 0, err
	}
	return rest, int64(binary.BigEndian.Uint64(raw)), nil
}

// ReadF32 consumes a big-endian f32.
func ReadF32(b []byte) (rest []byte, v float32, err error) {
	rest, raw, err := ReadRaw(b, 4)
	if err != nil {
		return nil, 0, err
	}
	return rest, math.Float32frombits(binary.BigEndian.Uint32(raw)), nil
}

// EncodeArray serializes a length-prefixed array: u16 length || concat(bytes(item)).
func EncodeArray[T any](dst []byte, items []T, encode func([]byte, T) []byte) ([]byte, error) {
	if len(items) > MaxArrayLen {
		return nil, chainerr.New(chainerr.InvalidArgument, "array length %d exceeds maximum %d", len(items), MaxArrayLen)
	}
	dst = WriteU16(dst, uint16(len(items)))
	for _, item := range items {
		dst = encode(dst, item)
	}
	return dst, nil
}

// DecodeArray parses a length-prefixed array, calling decode once per item.
func DecodeArray[T any](b []byte, decode func([]byte) ([]byte, T, error)) (rest []byte, items []T, err error) {
	b, n, err := ReadU16(b)
	if err != nil {
		return nil, nil, chainerr.Wrap(chainerr.InvalidEncoding, err, "array length prefix")
	}

	items = make([]T, 0, n)
	for i := 0; i < int(n); i++ {
		var item T
		b, item, err = decode(b)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, item)
	}
	return b, items, nil
}

// SafeLoad runs fn and converts any panic raised during decoding (a short
// slice index, an unexpected nil dereference reached by a malformed
// length prefix that passed the explicit bounds checks) into a single
// InvalidEncoding error, so a corrupt byte stream never reaches the
// caller as anything but that one error kind.
func SafeLoad[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = chainerr.New(chainerr.InvalidEncoding, "malformed encoding: %v", r)
		}
	}()
	return fn()
}

// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wireutil provides the low-level varint and fixed-width
// read/write helpers shared by the transaction and block binary formats.
package wireutil

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

var littleEndian = binary.LittleEndian

// ReadVarInt reads a variable length integer from r, encoded the same way
// as Bitcoin's CompactSize: a one-byte discriminant, optionally followed
// by 2, 4, or 8 bytes for larger values, always in the fewest bytes that
// canonically represent the value.
func ReadVarInt(r io.Reader) (uint64, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	discriminant := b[0]

	switch discriminant {
	case 0xff:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		rv := littleEndian.Uint64(buf[:])
		if rv < 0x100000000 {
			return 0, errors.Errorf("non-canonical varint %x encodes a value under %x", rv, uint64(0x100000000))
		}
		return rv, nil

	case 0xfe:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		rv := uint64(littleEndian.Uint32(buf[:]))
		if rv < 0x10000 {
			return 0, errors.Errorf("non-canonical varint %x encodes a value under %x", rv, uint64(0x10000))
		}
		return rv, nil

	case 0xfd:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		rv := uint64(littleEndian.Uint16(buf[:]))
		if rv < 0xfd {
			return 0, errors.Errorf("non-canonical varint %x encodes a value under %x", rv, uint64(0xfd))
		}
		return rv, nil

	default:
		return uint64(discriminant), nil
	}
}

// WriteVarInt serializes val to w using the fewest bytes that canonically
// represent it.
func WriteVarInt(w io.Writer, val uint64) error {
	if val < 0xfd {
		_, err := w.Write([]byte{byte(val)})
		return err
	}
	if val <= math.MaxUint16 {
		if _, err := w.Write([]byte{0xfd}); err != nil {
			return err
		}
		var buf [2]byte
		littleEndian.PutUint16(buf[:], uint16(val))
		_, err := w.Write(buf[:])
		return err
	}
	if val <= math.MaxUint32 {
		if _, err := w.Write([]byte{0xfe}); err != nil {
			return err
		}
		var buf [4]byte
		littleEndian.PutUint32(buf[:], uint32(val))
		_, err := w.Write(buf[:])
		return err
	}
	if _, err := w.Write([]byte{0xff}); err != nil {
		return err
	}
	var buf [8]byte
	littleEndian.PutUint64(buf[:], val)
	_, err := w.Write(buf[:])
	return err
}

// VarIntSerializeSize returns the number of bytes WriteVarInt would emit
// for val.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= math.MaxUint16:
		return 3
	case val <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// ReadVarBytes reads a varint-prefixed byte slice, rejecting lengths above
// maxAllowed to bound allocation from a hostile or corrupt stream.
func ReadVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if n > maxAllowed {
		return nil, errors.Errorf("%s length %d exceeds max allowed %d", fieldName, n, maxAllowed)
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// WriteVarBytes writes a varint-prefixed byte slice.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classfile

import (
	"encoding/binary"
	"errors"
)

// ErrOutsideBoundary is returned when a read would run past the end of the
// underlying buffer.
var ErrOutsideBoundary = errors.New("classfile: reading data outside boundary")

// ByteCursor is a bounds-checked, big-endian cursor over an in-memory byte
// buffer. The class file format is big-endian throughout.
type ByteCursor struct {
	data []byte
	pos  uint32
}

// NewByteCursor wraps data for sequential, bounds-checked reads.
func NewByteCursor(data []byte) *ByteCursor {
	return &ByteCursor{data: data}
}

// Size returns the total number of bytes in the underlying buffer.
func (c *ByteCursor) Size() uint32 {
	return uint32(len(c.data))
}

// Tell returns the current read position.
func (c *ByteCursor) Tell() uint32 {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *ByteCursor) Remaining() uint32 {
	if c.pos >= c.Size() {
		return 0
	}
	return c.Size() - c.pos
}

// Seek moves the cursor to an absolute position within the buffer.
func (c *ByteCursor) Seek(pos uint32) error {
	if pos > c.Size() {
		return ErrOutsideBoundary
	}
	c.pos = pos
	return nil
}

// ReadU8 reads one byte and advances the cursor.
func (c *ByteCursor) ReadU8() (uint8, error) {
	if c.pos+1 > c.Size() {
		return 0, ErrOutsideBoundary
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

// ReadU16 reads a big-endian uint16 and advances the cursor.
func (c *ByteCursor) ReadU16() (uint16, error) {
	if c.pos+2 > c.Size() {
		return 0, ErrOutsideBoundary
	}
	v := binary.BigEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadU32 reads a big-endian uint32 and advances the cursor.
func (c *ByteCursor) ReadU32() (uint32, error) {
	if c.pos+4 > c.Size() {
		return 0, ErrOutsideBoundary
	}
	v := binary.BigEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadU64 reads a big-endian uint64 and advances the cursor.
func (c *ByteCursor) ReadU64() (uint64, error) {
	if c.pos+8 > c.Size() {
		return 0, ErrOutsideBoundary
	}
	v := binary.BigEndian.Uint64(c.data[c.pos:])
	c.pos += 8
	return v, nil
}

// ReadBytes reads n raw bytes and advances the cursor.
func (c *ByteCursor) ReadBytes(n uint32) ([]byte, error) {
	if c.pos+n > c.Size() || c.pos+n < c.pos {
		return nil, ErrOutsideBoundary
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Skip advances the cursor by n bytes without copying them out.
func (c *ByteCursor) Skip(n uint32) error {
	if c.pos+n > c.Size() || c.pos+n < c.pos {
		return ErrOutsideBoundary
	}
	c.pos += n
	return nil
}

// sanitizeCount clamps an attacker-controlled element count against the
// number of bytes actually remaining in the buffer, so a declared count far
// larger than the file can possibly hold never drives an oversized
// allocation.
func sanitizeCount(remaining uint32, count uint32, minEntrySize uint32) uint32 {
	if minEntrySize == 0 {
		return count
	}
	if uint64(count)*uint64(minEntrySize) > uint64(remaining) {
		return 0
	}
	return count
}

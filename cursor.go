// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

import "encoding/binary"

// cursor is a bounds-checked, position-advancing little-endian reader over a
// random-access byte slice. Every component in this package reads through
// one: the MZ/NE/PE headers from the file-backed cursor opened at byte 0,
// and the CLI heap/table decoders from a cursor backed by a heap's own
// sliced-out bytes.
type cursor struct {
	data []byte
	pos  int64
	// base is added to pos when reporting an error offset, so errors read
	// against a sub-slice (a heap, a resource-table region) still report an
	// absolute file offset.
	base int64
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func newCursorAt(data []byte, base int64) *cursor {
	return &cursor{data: data, base: base}
}

func (c *cursor) tell() int64 { return c.pos }

func (c *cursor) absolute() int64 { return c.base + c.pos }

func (c *cursor) seek(pos int64) {
	c.pos = pos
}

func (c *cursor) len() int64 { return int64(len(c.data)) }

func (c *cursor) require(n int64) error {
	if c.pos < 0 || n < 0 || c.pos+n > int64(len(c.data)) {
		return newError(ErrTruncated, c.absolute(), "")
	}
	return nil
}

func (c *cursor) readBytes(n int64) ([]byte, error) {
	if err := c.require(n); err != nil {
		return nil, err
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) readUint8() (uint8, error) {
	b, err := c.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readUint16() (uint16, error) {
	b, err := c.readBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) readUint32() (uint32, error) {
	b, err := c.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) readUint64() (uint64, error) {
	b, err := c.readBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// readUintWide reads a 2-byte or 4-byte unsigned integer depending on wide,
// used throughout the CLI tables decoder wherever the width policy (§4.8)
// applies.
func (c *cursor) readUintWide(wide bool) (uint32, error) {
	if wide {
		return c.readUint32()
	}
	v, err := c.readUint16()
	return uint32(v), err
}

// sliceAt returns a bounds-checked, non-advancing view of n bytes starting
// at the given cursor-relative offset, used for resolving name/string
// offsets that point backwards into an already-read region (NE resource and
// name tables).
func (c *cursor) sliceAt(pos, n int64) ([]byte, error) {
	if pos < 0 || n < 0 || pos+n > int64(len(c.data)) {
		return nil, newError(ErrTruncated, c.base+pos, "")
	}
	return c.data[pos : pos+n], nil
}

// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

// readCString reads bytes up to and including the first 0x00 and returns the
// substring before the terminator, untranslated (ASCII/UTF-8 bytes as-is).
func (c *cursor) readCString() (string, error) {
	start := c.pos
	for {
		b, err := c.readUint8()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(c.data[start : c.pos-1]), nil
		}
	}
}

// readCStringAligned reads a NUL-terminated string, then consumes further
// bytes until the total number of bytes read, including the terminator, is
// a multiple of align. Used for CLI stream-directory names (align 4).
func (c *cursor) readCStringAligned(align int64) (string, error) {
	start := c.pos
	s, err := c.readCString()
	if err != nil {
		return "", err
	}
	n := c.pos - start
	if rem := n % align; rem != 0 {
		if _, err := c.readBytes(align - rem); err != nil {
			return "", err
		}
	}
	return s, nil
}

// readFixedString reads exactly n bytes and returns them as a string.
func (c *cursor) readFixedString(n int64) (string, error) {
	b, err := c.readBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readLengthPrefixedString reads a u32 count followed by that many bytes,
// with no implied terminator. parseMetadataRoot reads the version string's
// count and bytes itself and does not call this.
func (c *cursor) readLengthPrefixedString() (string, error) {
	n, err := c.readUint32()
	if err != nil {
		return "", err
	}
	b, err := c.readBytes(int64(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readPascalString reads a single length byte followed by that many bytes,
// the framing used by the NE name tables and entry-table-adjacent strings.
func (c *cursor) readPascalString() (string, error) {
	n, err := c.readUint8()
	if err != nil {
		return "", err
	}
	return c.readFixedString(int64(n))
}

// readCompressedLength decodes the #US/#Blob variable-width length prefix
// described in ECMA-335 §II.23.2: 1, 2, or 4 bytes depending on the leading
// bit pattern of the first byte.
func (c *cursor) readCompressedLength() (uint32, error) {
	start := c.absolute()
	b0, err := c.readUint8()
	if err != nil {
		return 0, err
	}
	switch {
	case b0&0x80 == 0:
		return uint32(b0), nil
	case b0&0xC0 == 0x80:
		b1, err := c.readUint8()
		if err != nil {
			return 0, err
		}
		return uint32(b0&0x3F)<<8 | uint32(b1), nil
	case b0&0xE0 == 0xC0:
		rest, err := c.readBytes(3)
		if err != nil {
			return 0, err
		}
		return uint32(b0&0x1F)<<24 | uint32(rest[0])<<16 | uint32(rest[1])<<8 | uint32(rest[2]), nil
	default:
		return 0, newError(ErrInvalidBlobLength, start, "")
	}
}

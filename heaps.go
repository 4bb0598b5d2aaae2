// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

// Guid is the CLI #GUID heap's 16-byte record.
type Guid struct {
	Data1 uint32    `json:"data1"`
	Data2 uint16    `json:"data2"`
	Data3 uint16    `json:"data3"`
	Data4 [8]byte   `json:"data4"`
}

// UserString is one decoded #US heap entry: a UTF-16LE string plus the
// trailing flag byte ECMA-335 defines as "any character requires non-8-bit
// handling". The original source ignores this byte; this implementation
// preserves it both raw and decoded (§9 Open Questions).
type UserString struct {
	Value     string `json:"value"`
	RawFlag   byte   `json:"raw_flag"`
	NonASCII  bool   `json:"non_ascii"`
}

// stringsHeapString looks up the NUL-terminated UTF-8 string starting at offset in the
// #Strings heap. Offset 0 is the empty string by convention.
func stringsHeapString(heap []byte, offset uint32) (string, bool) {
	if int64(offset) >= int64(len(heap)) {
		return "", false
	}
	c := newCursor(heap)
	c.seek(int64(offset))
	s, err := c.readCString()
	if err != nil {
		return "", false
	}
	return s, true
}

// iterStringsHeap walks every NUL-terminated string in the #Strings heap,
// starting at offset 1, reporting each string's starting offset alongside
// its value.
func iterStringsHeap(heap []byte) []struct {
	Offset uint32
	Value  string
} {
	var out []struct {
		Offset uint32
		Value  string
	}
	if len(heap) == 0 {
		return out
	}
	pos := int64(1)
	for pos < int64(len(heap)) {
		start := pos
		c := newCursor(heap)
		c.seek(pos)
		s, err := c.readCString()
		if err != nil {
			break
		}
		out = append(out, struct {
			Offset uint32
			Value  string
		}{Offset: uint32(start), Value: s})
		pos = c.tell()
	}
	return out
}

// blobHeapBlob reads the compressed-length-prefixed blob starting at offset
// in the #Blob heap.
func blobHeapBlob(heap []byte, offset uint32) ([]byte, bool) {
	if int64(offset) >= int64(len(heap)) {
		return nil, false
	}
	c := newCursor(heap)
	c.seek(int64(offset))
	n, err := c.readCompressedLength()
	if err != nil {
		return nil, false
	}
	b, err := c.readBytes(int64(n))
	if err != nil {
		return nil, false
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, true
}

func iterBlobsHeap(heap []byte) []struct {
	Offset uint32
	Value  []byte
} {
	var out []struct {
		Offset uint32
		Value  []byte
	}
	pos := int64(0)
	for pos < int64(len(heap)) {
		start := pos
		c := newCursor(heap)
		c.seek(pos)
		n, err := c.readCompressedLength()
		if err != nil {
			break
		}
		b, err := c.readBytes(int64(n))
		if err != nil {
			break
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		out = append(out, struct {
			Offset uint32
			Value  []byte
		}{Offset: uint32(start), Value: cp})
		pos = c.tell()
		if n == 0 {
			pos = start + 1
		}
	}
	return out
}

// userStringHeapEntry reads the #US blob at offset: a compressed-length
// prefix, then that many bytes of UTF-16LE code units, the last byte of
// which (only when the blob length is odd) is the flag byte rather than
// half of a UTF-16 code unit.
func userStringHeapEntry(heap []byte, offset uint32) (UserString, bool) {
	if int64(offset) >= int64(len(heap)) {
		return UserString{}, false
	}
	c := newCursor(heap)
	c.seek(int64(offset))
	n, err := c.readCompressedLength()
	if err != nil {
		return UserString{}, false
	}
	raw, err := c.readBytes(int64(n))
	if err != nil {
		return UserString{}, false
	}

	var flag byte
	utf16Bytes := raw
	if n%2 == 1 && n > 0 {
		flag = raw[n-1]
		utf16Bytes = raw[:n-1]
	}

	value := decodeUTF16LE(utf16Bytes)
	return UserString{Value: value, RawFlag: flag, NonASCII: flag&0x01 != 0}, true
}

func iterUserStringsHeap(heap []byte) []struct {
	Offset uint32
	Value  UserString
} {
	var out []struct {
		Offset uint32
		Value  UserString
	}
	pos := int64(0)
	for pos < int64(len(heap)) {
		start := pos
		us, ok := userStringHeapEntry(heap, uint32(pos))
		if !ok {
			break
		}
		out = append(out, struct {
			Offset uint32
			Value  UserString
		}{Offset: uint32(start), Value: us})

		c := newCursor(heap)
		c.seek(pos)
		n, err := c.readCompressedLength()
		if err != nil {
			break
		}
		pos = c.tell() + int64(n)
		if n == 0 {
			pos = start + 1
		}
	}
	return out
}

// guidHeapGuid returns the 1-based indexed GUID from the #GUID heap; index
// 0 means "no GUID" per §4.7.
func guidHeapGuid(heap []byte, index uint32) (Guid, bool) {
	if index == 0 {
		return Guid{}, false
	}
	offset := int64(index-1) * 16
	if offset+16 > int64(len(heap)) {
		return Guid{}, false
	}
	c := newCursor(heap)
	c.seek(offset)
	var g Guid
	var err error
	if g.Data1, err = c.readUint32(); err != nil {
		return Guid{}, false
	}
	if g.Data2, err = c.readUint16(); err != nil {
		return Guid{}, false
	}
	if g.Data3, err = c.readUint16(); err != nil {
		return Guid{}, false
	}
	rest, err := c.readBytes(8)
	if err != nil {
		return Guid{}, false
	}
	copy(g.Data4[:], rest)
	return g, true
}

func iterGuidsHeap(heap []byte) []Guid {
	count := len(heap) / 16
	out := make([]Guid, 0, count)
	for i := 1; i <= count; i++ {
		g, _ := guidHeapGuid(heap, uint32(i))
		out = append(out, g)
	}
	return out
}

// String returns the #Strings heap string at offset, or "" if the stream is
// absent or the offset is out of range.
func (m *CliMetadata) String(offset uint32) string {
	s, _ := stringsHeapString(m.streams["#Strings"], offset)
	return s
}

// Guid returns the #GUID heap entry at the given 1-based index.
func (m *CliMetadata) Guid(oneBasedIndex uint32) (Guid, bool) {
	return guidHeapGuid(m.streams["#GUID"], oneBasedIndex)
}

// Blob returns the #Blob heap entry at offset.
func (m *CliMetadata) Blob(offset uint32) ([]byte, bool) {
	return blobHeapBlob(m.streams["#Blob"], offset)
}

// UserString returns the #US heap entry at offset.
func (m *CliMetadata) UserString(offset uint32) (UserString, bool) {
	return userStringHeapEntry(m.streams["#US"], offset)
}

// Strings returns every (offset, value) pair in the #Strings heap, in
// ascending offset order.
func (m *CliMetadata) Strings() []struct {
	Offset uint32
	Value  string
} {
	return iterStringsHeap(m.streams["#Strings"])
}

// UserStrings returns every (offset, value) pair in the #US heap.
func (m *CliMetadata) UserStrings() []struct {
	Offset uint32
	Value  UserString
} {
	return iterUserStringsHeap(m.streams["#US"])
}

// Blobs returns every (offset, value) pair in the #Blob heap.
func (m *CliMetadata) Blobs() []struct {
	Offset uint32
	Value  []byte
} {
	return iterBlobsHeap(m.streams["#Blob"])
}

// Guids returns every decoded entry in the #GUID heap, in index order.
func (m *CliMetadata) Guids() []Guid {
	return iterGuidsHeap(m.streams["#GUID"])
}

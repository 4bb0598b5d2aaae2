// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

// MzSignature is the bit-exact "MZ" signature every image begins with.
const MzSignature = 0x5A4D

// MzHeader is the 28-field DOS header common to every MZ/NE/PE image, plus
// the eight reserved words and new-header offset present only when
// relocation_table_pos == 0x40.
type MzHeader struct {
	Signature                uint16 `json:"signature"`
	BytesOnLastPage          uint16 `json:"bytes_on_last_page"`
	PagesInFile               uint16 `json:"pages_in_file"`
	NumRelocationItems        uint16 `json:"num_relocation_items"`
	HeaderSizeParagraphs      uint16 `json:"header_size_paragraphs"`
	MinAllocParagraphs        uint16 `json:"min_alloc_paragraphs"`
	MaxAllocParagraphs        uint16 `json:"max_alloc_paragraphs"`
	InitialSS                 uint16 `json:"initial_ss"`
	InitialSP                 uint16 `json:"initial_sp"`
	Checksum                  uint16 `json:"checksum"`
	InitialIP                 uint16 `json:"initial_ip"`
	InitialCS                 uint16 `json:"initial_cs"`
	RelocationTablePos        uint16 `json:"relocation_table_pos"`
	OverlayNumber             uint16 `json:"overlay_number"`
	Reserved1                 uint16 `json:"reserved_1"`
	Reserved2                 uint16 `json:"reserved_2"`
	Reserved3                 uint16 `json:"reserved_3"`
	Reserved4                 uint16 `json:"reserved_4"`
	Reserved5                 uint16 `json:"reserved_5"`
	Reserved6                 uint16 `json:"reserved_6"`
	Reserved7                 uint16 `json:"reserved_7"`
	Reserved8                 uint16 `json:"reserved_8"`
	Reserved9                 uint16 `json:"reserved_9"`
	Reserved10                uint16 `json:"reserved_10"`
	Reserved11                uint16 `json:"reserved_11"`
	Reserved12                uint16 `json:"reserved_12"`
	Reserved13                uint16 `json:"reserved_13"`
	Reserved14                uint16 `json:"reserved_14"`

	// ReservedWords are present only when RelocationTablePos == 0x40; zero
	// otherwise (see parseMzHeader).
	ReservedWords   [8]uint16 `json:"reserved_words,omitempty"`
	NewHeaderOffset uint32    `json:"new_header_offset"`

	// relocPos/relocCount let the relocation table be loaded on demand
	// without the header itself holding a reference to the source.
	relocPos   int64
	relocCount uint16
}

// MzRelocation is one (offset, segment) pointer in the MZ relocation table.
type MzRelocation struct {
	Offset  uint16 `json:"offset"`
	Segment uint16 `json:"segment"`
}

// parseMzHeader reads the 28 fixed fields in file order, then conditionally
// the eight reserved words and the new-header offset. Fails with NotMz as
// soon as the signature word does not match, before the remaining fields are
// read.
func parseMzHeader(c *cursor) (*MzHeader, error) {
	start := c.absolute()
	h := &MzHeader{}

	fields := []*uint16{
		&h.Signature, &h.BytesOnLastPage, &h.PagesInFile, &h.NumRelocationItems,
		&h.HeaderSizeParagraphs, &h.MinAllocParagraphs, &h.MaxAllocParagraphs,
		&h.InitialSS, &h.InitialSP, &h.Checksum, &h.InitialIP, &h.InitialCS,
		&h.RelocationTablePos, &h.OverlayNumber,
		&h.Reserved1, &h.Reserved2, &h.Reserved3, &h.Reserved4,
		&h.Reserved5, &h.Reserved6, &h.Reserved7, &h.Reserved8,
		&h.Reserved9, &h.Reserved10, &h.Reserved11, &h.Reserved12,
		&h.Reserved13, &h.Reserved14,
	}
	for _, f := range fields {
		v, err := c.readUint16()
		if err != nil {
			return nil, err
		}
		*f = v
		if f == &h.Signature && v != MzSignature {
			return nil, newError(ErrNotMz, start, "")
		}
	}

	if h.RelocationTablePos == 0x40 {
		for i := range h.ReservedWords {
			v, err := c.readUint16()
			if err != nil {
				return nil, err
			}
			h.ReservedWords[i] = v
		}
		off, err := c.readUint32()
		if err != nil {
			return nil, err
		}
		h.NewHeaderOffset = off
	}

	h.relocPos = int64(h.RelocationTablePos)
	h.relocCount = h.NumRelocationItems
	return h, nil
}

// loadMzRelocations reads the relocation table lazily: seek to
// RelocationTablePos, read NumRelocationItems (offset, segment) tuples.
func loadMzRelocations(src *cursor, h *MzHeader) ([]MzRelocation, error) {
	c := newCursorAt(src.data, 0)
	c.seek(h.relocPos)
	out := make([]MzRelocation, 0, h.relocCount)
	for i := uint16(0); i < h.relocCount; i++ {
		offset, err := c.readUint16()
		if err != nil {
			return nil, err
		}
		segment, err := c.readUint16()
		if err != nil {
			return nil, err
		}
		out = append(out, MzRelocation{Offset: offset, Segment: segment})
	}
	return out, nil
}

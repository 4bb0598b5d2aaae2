// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

// NeHeader is the 64-byte "new executable" header. All offsets it carries
// are relative to the NE header's own position in the file, except
// NonResNameTablePos, which is file-absolute.
type NeHeader struct {
	Signature             uint16 `json:"signature"`
	LinkerVersion          int8   `json:"linker_version"`
	LinkerRevision         int8   `json:"linker_revision"`
	EntryTableOffset       uint16 `json:"entry_table_offset"`
	EntryTableSize         uint16 `json:"entry_table_size"`
	Checksum               uint32 `json:"checksum"`
	Flags                  uint16 `json:"flags"`
	AutoDataSegment        uint16 `json:"auto_data_segment"`
	InitialHeap            uint16 `json:"initial_heap"`
	InitialStack           uint16 `json:"initial_stack"`
	InitialIP              uint16 `json:"initial_ip"`
	InitialCS              uint16 `json:"initial_cs"`
	InitialSP              uint16 `json:"initial_sp"`
	InitialSS              uint16 `json:"initial_ss"`
	NumSegmentEntries      uint16 `json:"num_segment_entries"`
	NumModuleEntries       uint16 `json:"num_module_entries"`
	NonResNameTableSize    uint16 `json:"non_res_name_table_size"`
	SegmentTableOffset     uint16 `json:"segment_table_offset"`
	ResourceTableOffset    uint16 `json:"resource_table_offset"`
	ResNameTableOffset     uint16 `json:"res_name_table_offset"`
	ModuleTableOffset      uint16 `json:"module_table_offset"`
	ImportTableOffset      uint16 `json:"import_table_offset"`
	NonResNameTablePos     uint32 `json:"non_res_name_table_pos"`
	NumMovableEntries      uint16 `json:"num_movable_entries"`
	AlignmentShiftCount    uint16 `json:"alignment_shift_count"`
	NumResourceEntries     uint16 `json:"num_resource_entries"`
	ExecutableType         uint8  `json:"executable_type"`
	AdditionalFlags        uint8  `json:"additional_flags"`
	GangloadOffset         uint16 `json:"gangload_offset"`
	GangloadSize           uint16 `json:"gangload_size"`
	MinCodeSwapSize        uint16 `json:"min_code_swap_size"`
	ExpectedWinVersion     uint16 `json:"expected_win_version"`
}

// NeSegmentEntry is one fixed 8-byte record of the NE segment table.
type NeSegmentEntry struct {
	Sector   uint16 `json:"sector"`
	Length   uint16 `json:"length"`
	Flags    uint16 `json:"flags"`
	MinAlloc uint16 `json:"min_alloc"`
	Data     []byte `json:"data,omitempty"`
}

const (
	NeSegFlagData      = 0x0001
	NeSegFlagMoveable  = 0x0010
	NeSegFlagPreload   = 0x0040
	NeSegFlagRelocInfo = 0x0100
)

// NeResource describes one resource within a ResourceBucket.
type NeResource struct {
	Offset   uint16 `json:"offset"`
	Length   uint16 `json:"length"`
	Flags    uint16 `json:"flags"`
	ID       uint16 `json:"id"`
	Reserved uint32 `json:"reserved"`
	Name     string `json:"name,omitempty"`
	HasData  bool   `json:"has_data"`
	Bytes    []byte `json:"bytes,omitempty"`
}

// ResourceBucket groups every resource of one type.
type ResourceBucket struct {
	TypeIsInteger bool   `json:"type_is_integer"`
	TypeID        uint16 `json:"type_id,omitempty"`
	TypeName      string `json:"type_name,omitempty"`
	Reserved      uint32 `json:"reserved"`
	Resources     []NeResource `json:"resources"`
}

// NeName pairs a string with its ordinal, the shape shared by the resident
// and non-resident name tables.
type NeName struct {
	Name    string `json:"name"`
	Ordinal uint16 `json:"ordinal"`
}

// NeEntryBundle is one decoded bundle from the entry table: a run of
// entries sharing the same indicator (empty, moveable, or fixed-in-segment).
type NeEntryBundle struct {
	Kind        NeEntryKind  `json:"kind"`
	Segment     uint8        `json:"segment,omitempty"`
	FirstOrdinal uint16      `json:"first_ordinal"`
	Entries     []NeEntry    `json:"entries"`
}

// NeEntryKind classifies a bundle's indicator byte.
type NeEntryKind int

const (
	NeEntryEmpty NeEntryKind = iota
	NeEntryMoveable
	NeEntryFixed
)

// NeEntry is one decoded entry-table slot.
type NeEntry struct {
	Ordinal  uint16 `json:"ordinal"`
	Flags    uint8  `json:"flags,omitempty"`
	Segment  uint8  `json:"segment,omitempty"`
	Offset   uint16 `json:"offset,omitempty"`
	Exported bool   `json:"exported"`
	SharedData bool `json:"shared_data"`
}

// NeImage is the decoded NE portion of an ExeImage.
type NeImage struct {
	HeaderPosition      int64              `json:"header_position"`
	Header              NeHeader           `json:"header"`
	EntryTable           []byte            `json:"entry_table,omitempty"`
	SegmentTable         []NeSegmentEntry  `json:"segment_table"`
	ResourceShiftCount   uint16             `json:"resource_shift_count"`
	Resources            []ResourceBucket  `json:"resources,omitempty"`
	ResidentNames         []NeName         `json:"resident_names"`
	NonResidentNames      []NeName         `json:"nonresident_names"`
	ImportedNames         []string         `json:"imported_names"`
	ModuleNames           []string         `json:"module_names"`
}

// ModuleName returns the first resident name, the NE convention for the
// module's own name, or "" if there are none.
func (n *NeImage) ModuleName() string {
	if len(n.ResidentNames) > 0 {
		return n.ResidentNames[0].Name
	}
	return ""
}

// ModuleDescription returns the first non-resident name, the NE convention
// for a free-text module description, or "" if there are none.
func (n *NeImage) ModuleDescription() string {
	if len(n.NonResidentNames) > 0 {
		return n.NonResidentNames[0].Name
	}
	return ""
}

// parseNeImage decodes the NE section of an executable starting at
// headerPos (the offset located by the format dispatcher). src is the
// whole-file cursor; all NE offsets except NonResNameTablePos are relative
// to headerPos.
func parseNeImage(src *cursor, headerPos int64, opts LoadOptions, logger *logHelper) (*NeImage, error) {
	c := newCursorAt(src.data, 0)
	c.seek(headerPos)

	h, err := parseNeHeader(c)
	if err != nil {
		return nil, err
	}

	img := &NeImage{HeaderPosition: headerPos, Header: *h}

	entryTable, err := readBytesAt(src, headerPos+int64(h.EntryTableOffset), int64(h.EntryTableSize))
	if err != nil {
		return nil, err
	}
	img.EntryTable = entryTable

	segs, err := parseNeSegmentTable(src, headerPos+int64(h.SegmentTableOffset), h.NumSegmentEntries, h.AlignmentShiftCount, opts&LoadSegmentData != 0)
	if err != nil {
		return nil, err
	}
	img.SegmentTable = segs

	buckets, shift, err := parseNeResourceTable(src, headerPos+int64(h.ResourceTableOffset), opts&LoadResourceData != 0, logger)
	if err != nil {
		return nil, err
	}
	img.Resources = buckets
	img.ResourceShiftCount = shift

	resident, err := parseNeNameTable(src, headerPos+int64(h.ResNameTableOffset), true)
	if err != nil {
		return nil, err
	}
	img.ResidentNames = resident

	nonresident, err := parseNeNameTable(src, int64(h.NonResNameTablePos), true)
	if err != nil {
		return nil, err
	}
	img.NonResidentNames = nonresident

	imported, err := parseNeStringTable(src, headerPos+int64(h.ImportTableOffset))
	if err != nil {
		return nil, err
	}
	img.ImportedNames = imported

	modules, err := parseNeModuleTable(src, headerPos+int64(h.ModuleTableOffset), h.NumModuleEntries, headerPos+int64(h.ImportTableOffset), imported)
	if err != nil {
		return nil, err
	}
	img.ModuleNames = modules

	return img, nil
}

func parseNeHeader(c *cursor) (*NeHeader, error) {
	start := c.absolute()
	h := &NeHeader{}

	sig, err := c.readUint16()
	if err != nil {
		return nil, err
	}
	if sig != neSignature {
		return nil, newError(ErrNotNe, start, "")
	}
	h.Signature = sig

	lv, err := c.readUint8()
	if err != nil {
		return nil, err
	}
	h.LinkerVersion = int8(lv)
	lr, err := c.readUint8()
	if err != nil {
		return nil, err
	}
	h.LinkerRevision = int8(lr)

	for _, f := range []*uint16{&h.EntryTableOffset, &h.EntryTableSize} {
		v, err := c.readUint16()
		if err != nil {
			return nil, err
		}
		*f = v
	}

	cs, err := c.readUint32()
	if err != nil {
		return nil, err
	}
	h.Checksum = cs

	rest16 := []*uint16{
		&h.Flags, &h.AutoDataSegment, &h.InitialHeap, &h.InitialStack,
		&h.InitialIP, &h.InitialCS, &h.InitialSP, &h.InitialSS,
		&h.NumSegmentEntries, &h.NumModuleEntries, &h.NonResNameTableSize,
		&h.SegmentTableOffset, &h.ResourceTableOffset, &h.ResNameTableOffset,
		&h.ModuleTableOffset, &h.ImportTableOffset,
	}
	for _, f := range rest16 {
		v, err := c.readUint16()
		if err != nil {
			return nil, err
		}
		*f = v
	}

	nrnPos, err := c.readUint32()
	if err != nil {
		return nil, err
	}
	h.NonResNameTablePos = nrnPos

	rest16b := []*uint16{
		&h.NumMovableEntries, &h.AlignmentShiftCount, &h.NumResourceEntries,
	}
	for _, f := range rest16b {
		v, err := c.readUint16()
		if err != nil {
			return nil, err
		}
		*f = v
	}

	et, err := c.readUint8()
	if err != nil {
		return nil, err
	}
	h.ExecutableType = et
	af, err := c.readUint8()
	if err != nil {
		return nil, err
	}
	h.AdditionalFlags = af

	rest16c := []*uint16{
		&h.GangloadOffset, &h.GangloadSize, &h.MinCodeSwapSize, &h.ExpectedWinVersion,
	}
	for _, f := range rest16c {
		v, err := c.readUint16()
		if err != nil {
			return nil, err
		}
		*f = v
	}

	return h, nil
}

func readBytesAt(src *cursor, pos, n int64) ([]byte, error) {
	c := newCursorAt(src.data, 0)
	c.seek(pos)
	b, err := c.readBytes(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// parseNeSegmentTable reads the fixed 8-byte segment records, optionally
// loading each segment's raw bytes from file offset Sector<<shift. Length is
// a byte count (0 meaning 0x10000) and is not shifted. shift is the NE
// header's alignment shift count, not the resource table's shift.
func parseNeSegmentTable(src *cursor, pos int64, count uint16, shift uint16, loadData bool) ([]NeSegmentEntry, error) {
	c := newCursorAt(src.data, 0)
	c.seek(pos)
	out := make([]NeSegmentEntry, 0, count)
	for i := uint16(0); i < count; i++ {
		var e NeSegmentEntry
		var err error
		if e.Sector, err = c.readUint16(); err != nil {
			return nil, err
		}
		if e.Length, err = c.readUint16(); err != nil {
			return nil, err
		}
		if e.Flags, err = c.readUint16(); err != nil {
			return nil, err
		}
		if e.MinAlloc, err = c.readUint16(); err != nil {
			return nil, err
		}
		if loadData && e.Sector != 0 {
			length := int64(e.Length)
			if length == 0 {
				length = 0x10000
			}
			data, err := readBytesAt(src, int64(e.Sector)<<shift, length)
			if err != nil {
				return nil, err
			}
			e.Data = data
		}
		out = append(out, e)
	}
	return out, nil
}

// parseNeResourceTable reads the shift count followed by repeated
// type/count/reserved headers and their resource descriptors until a
// zero type id terminates the list, then resolves every name offset by
// seeking back into the resource-table region.
func parseNeResourceTable(src *cursor, pos int64, loadData bool, logger *logHelper) ([]ResourceBucket, uint16, error) {
	base := pos
	c := newCursorAt(src.data, 0)
	c.seek(pos)

	shift, err := c.readUint16()
	if err != nil {
		return nil, 0, err
	}

	var buckets []ResourceBucket
	for {
		typeID, err := c.readUint16()
		if err != nil {
			return nil, 0, err
		}
		if typeID == 0 {
			break
		}
		count, err := c.readUint16()
		if err != nil {
			return nil, 0, err
		}
		reserved, err := c.readUint32()
		if err != nil {
			return nil, 0, err
		}

		bucket := ResourceBucket{Reserved: reserved}
		if typeID&0x8000 != 0 {
			bucket.TypeIsInteger = true
			bucket.TypeID = typeID &^ 0x8000
		} else {
			name, err := resolveNeTableName(src, base, int64(typeID), logger)
			if err != nil {
				return nil, 0, err
			}
			bucket.TypeName = name
		}

		for i := uint16(0); i < count; i++ {
			var r NeResource
			if r.Offset, err = c.readUint16(); err != nil {
				return nil, 0, err
			}
			if r.Length, err = c.readUint16(); err != nil {
				return nil, 0, err
			}
			if r.Flags, err = c.readUint16(); err != nil {
				return nil, 0, err
			}
			if r.ID, err = c.readUint16(); err != nil {
				return nil, 0, err
			}
			if r.Reserved, err = c.readUint32(); err != nil {
				return nil, 0, err
			}

			if r.ID&0x8000 == 0 {
				name, err := resolveNeTableName(src, base, int64(r.ID), logger)
				if err != nil {
					return nil, 0, err
				}
				r.Name = name
			}

			if loadData && r.Length > 0 {
				off := int64(r.Offset) << shift
				ln := int64(r.Length) << shift
				data, err := readBytesAt(src, off, ln)
				if err != nil {
					return nil, 0, err
				}
				r.Bytes = data
				r.HasData = true
			}

			bucket.Resources = append(bucket.Resources, r)
		}

		buckets = append(buckets, bucket)
	}

	return buckets, shift, nil
}

// resolveNeTableName reads a length-prefixed name at base+offset. A name
// offset that falls outside the source is logged and resolves to "": it is
// purely informational display data (§4.9), not a structural field.
func resolveNeTableName(src *cursor, base, offset int64, logger *logHelper) (string, error) {
	c := newCursorAt(src.data, 0)
	c.seek(base + offset)
	name, err := c.readPascalString()
	if err != nil {
		if logger != nil {
			logger.Warnf("NE resource name at offset 0x%x could not be resolved: %v", base+offset, err)
		}
		return "", nil
	}
	return name, nil
}

// parseNeNameTable reads (u8 length, bytes, u16 ordinal) entries until a
// zero-length entry terminates the table. The resident and non-resident
// name tables share this framing.
func parseNeNameTable(src *cursor, pos int64, withOrdinal bool) ([]NeName, error) {
	c := newCursorAt(src.data, 0)
	c.seek(pos)
	var out []NeName
	for {
		n, err := c.readUint8()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		name, err := c.readFixedString(int64(n))
		if err != nil {
			return nil, err
		}
		entry := NeName{Name: name}
		if withOrdinal {
			ord, err := c.readUint16()
			if err != nil {
				return nil, err
			}
			entry.Ordinal = ord
		}
		out = append(out, entry)
	}
	return out, nil
}

// parseNeStringTable reads the same length-prefixed, zero-terminated
// framing as parseNeNameTable but without a trailing ordinal, the shape of
// the Imported Names Table.
func parseNeStringTable(src *cursor, pos int64) ([]string, error) {
	names, err := parseNeNameTable(src, pos, false)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.Name
	}
	return out, nil
}

// parseNeModuleTable reads NumModuleEntries u16 offsets (relative to
// importBase) and resolves each by reading the length-prefixed string at
// importBase+offset; the already-decoded imported names are not consulted.
func parseNeModuleTable(src *cursor, pos int64, count uint16, importBase int64, imported []string) ([]string, error) {
	c := newCursorAt(src.data, 0)
	c.seek(pos)
	out := make([]string, 0, count)
	for i := uint16(0); i < count; i++ {
		off, err := c.readUint16()
		if err != nil {
			return nil, err
		}
		nc := newCursorAt(src.data, 0)
		nc.seek(importBase + int64(off))
		name, err := nc.readPascalString()
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

// DecodeEntryTable walks the raw entry-table bytes into bundles, per §4.5:
// each bundle starts with a 1-byte count (0 terminates) and a 1-byte
// indicator. 0x00 is an empty bundle, 0xFF is MOVEABLE, anything else is
// FIXED in that segment number. Ordinals are assigned sequentially from 1.
func DecodeEntryTable(raw []byte) ([]NeEntryBundle, error) {
	c := newCursor(raw)
	var bundles []NeEntryBundle
	ordinal := uint16(1)

	for {
		n, err := c.readUint8()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		indicator, err := c.readUint8()
		if err != nil {
			return nil, err
		}

		bundle := NeEntryBundle{FirstOrdinal: ordinal}
		switch {
		case indicator == 0x00:
			bundle.Kind = NeEntryEmpty
			ordinal += uint16(n)

		case indicator == 0xFF:
			bundle.Kind = NeEntryMoveable
			for i := uint8(0); i < n; i++ {
				flags, err := c.readUint8()
				if err != nil {
					return nil, err
				}
				if _, err := c.readBytes(2); err != nil { // INT 3F bytes, skipped
					return nil, err
				}
				segment, err := c.readUint8()
				if err != nil {
					return nil, err
				}
				offset, err := c.readUint16()
				if err != nil {
					return nil, err
				}
				bundle.Entries = append(bundle.Entries, NeEntry{
					Ordinal:    ordinal,
					Flags:      flags,
					Segment:    segment,
					Offset:     offset,
					Exported:   flags&0x01 != 0,
					SharedData: flags&0x02 != 0,
				})
				ordinal++
			}

		default:
			bundle.Kind = NeEntryFixed
			bundle.Segment = indicator
			for i := uint8(0); i < n; i++ {
				flags, err := c.readUint8()
				if err != nil {
					return nil, err
				}
				offset, err := c.readUint16()
				if err != nil {
					return nil, err
				}
				bundle.Entries = append(bundle.Entries, NeEntry{
					Ordinal:    ordinal,
					Flags:      flags,
					Segment:    indicator,
					Offset:     offset,
					Exported:   flags&0x01 != 0,
					SharedData: flags&0x02 != 0,
				})
				ordinal++
			}
		}

		bundles = append(bundles, bundle)
	}

	return bundles, nil
}

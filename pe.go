// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

import "encoding/json"

const (
	// OptionalHeaderMagic32 selects the PE32 optional-header variant.
	OptionalHeaderMagic32 = 0x010B
	// OptionalHeaderMagic64 selects the PE32+ optional-header variant.
	OptionalHeaderMagic64 = 0x020B
	// OptionalHeaderMagicRom marks a ROM image. It is accepted but not
	// decoded: parseOptionalHeader returns no OptionalHeader and an all-zero
	// data directory for it.
	OptionalHeaderMagicRom = 0x0107
)

// DataDirectory indexes, matching the fixed 16-entry PE data directory array.
const (
	DirExport = iota
	DirImport
	DirResource
	DirException
	DirSecurity
	DirBaseReloc
	DirDebug
	DirArchitecture
	DirGlobalPtr
	DirTLS
	DirLoadConfig
	DirBoundImport
	DirIAT
	DirDelayImport
	DirCLR
	DirReserved
)

// PeFileHeader is the 24-byte PE file header: the "PE\0\0" signature
// followed by the 20-byte COFF file header.
type PeFileHeader struct {
	Signature uint32 `json:"signature"`
	// Machine identifies the target CPU architecture (e.g. 0x014C for
	// I386, 0x8664 for AMD64).
	Machine uint16 `json:"machine"`
	// NumberOfSections sizes the section table that immediately follows
	// the optional header.
	NumberOfSections uint16 `json:"number_of_sections"`
	TimeDateStamp    uint32 `json:"time_date_stamp"`
	// PointerToSymbolTable and NumberOfSymbols address the deprecated COFF
	// debug symbol table; both are expected to be zero in an image file.
	PointerToSymbolTable uint32 `json:"pointer_to_symbol_table"`
	NumberOfSymbols      uint32 `json:"number_of_symbols"`
	// SizeOfOptionalHeader is how many bytes the optional header occupies;
	// 0 means none is present (object files, some stub DLLs).
	SizeOfOptionalHeader uint16 `json:"size_of_optional_header"`
	Characteristics      uint16 `json:"characteristics"`
}

// DataDirectoryEntry is one (rva, size) pair in the optional header's data
// directory array; index meaning is positional (see the Dir* constants
// above), not carried in the entry itself.
type DataDirectoryEntry struct {
	VirtualAddress uint32 `json:"virtual_address"`
	Size           uint32 `json:"size"`
}

// OptionalHeader32 is the PE32 optional header.
type OptionalHeader32 struct {
	// Magic is 0x010B for PE32, distinguishing this variant from PE32+.
	Magic              uint16 `json:"magic"`
	MajorLinkerVersion uint8  `json:"major_linker_version"`
	MinorLinkerVersion uint8  `json:"minor_linker_version"`
	// SizeOfCode, SizeOfInitializedData, and SizeOfUninitializedData are
	// each the sum across every section of the matching kind.
	SizeOfCode              uint32 `json:"size_of_code"`
	SizeOfInitializedData   uint32 `json:"size_of_initialized_data"`
	SizeOfUninitializedData uint32 `json:"size_of_uninitialized_data"`
	// AddressOfEntryPoint is an RVA; 0 when the image has no entry point
	// (a pure DLL with no initializer).
	AddressOfEntryPoint uint32 `json:"address_of_entry_point"`
	BaseOfCode          uint32 `json:"base_of_code"`
	// BaseOfData exists only in the PE32 variant; PE32+ drops it in favor
	// of the wider ImageBase.
	BaseOfData uint32 `json:"base_of_data"`
	// ImageBase is the preferred load address; must be a multiple of 64K.
	ImageBase uint32 `json:"image_base"`
	// SectionAlignment is the in-memory alignment of sections; must be >=
	// FileAlignment.
	SectionAlignment            uint32 `json:"section_alignment"`
	FileAlignment               uint32 `json:"file_alignment"`
	MajorOperatingSystemVersion uint16 `json:"major_os_version"`
	MinorOperatingSystemVersion uint16 `json:"minor_os_version"`
	MajorImageVersion           uint16 `json:"major_image_version"`
	MinorImageVersion           uint16 `json:"minor_image_version"`
	MajorSubsystemVersion       uint16 `json:"major_subsystem_version"`
	MinorSubsystemVersion       uint16 `json:"minor_subsystem_version"`
	Win32VersionValue           uint32 `json:"win32_version_value"`
	SizeOfImage                 uint32 `json:"size_of_image"`
	SizeOfHeaders                uint32 `json:"size_of_headers"`
	CheckSum                     uint32 `json:"checksum"`
	// Subsystem selects the required subsystem to run the image (GUI,
	// console, native driver, ...).
	Subsystem          uint16 `json:"subsystem"`
	DllCharacteristics uint16 `json:"dll_characteristics"`
	SizeOfStackReserve uint32 `json:"size_of_stack_reserve"`
	SizeOfStackCommit  uint32 `json:"size_of_stack_commit"`
	SizeOfHeapReserve  uint32 `json:"size_of_heap_reserve"`
	SizeOfHeapCommit   uint32 `json:"size_of_heap_commit"`
	LoaderFlags        uint32 `json:"loader_flags"`
	// NumberOfRvaAndSizes counts the entries actually present in the data
	// directory array that follows (at most 16; a smaller count leaves the
	// remaining slots zeroed rather than absent).
	NumberOfRvaAndSizes uint32 `json:"number_of_rva_and_sizes"`
}

// OptionalHeader64 is the PE32+ optional header; identical to
// OptionalHeader32 except ImageBase and the four stack/heap size fields are
// 64-bit and there is no BaseOfData field. Field-level comments are
// otherwise identical to OptionalHeader32's and are not repeated here.
type OptionalHeader64 struct {
	// Magic is 0x020B for PE32+.
	Magic                       uint16 `json:"magic"`
	MajorLinkerVersion          uint8  `json:"major_linker_version"`
	MinorLinkerVersion          uint8  `json:"minor_linker_version"`
	SizeOfCode                  uint32 `json:"size_of_code"`
	SizeOfInitializedData       uint32 `json:"size_of_initialized_data"`
	SizeOfUninitializedData     uint32 `json:"size_of_uninitialized_data"`
	AddressOfEntryPoint         uint32 `json:"address_of_entry_point"`
	BaseOfCode                  uint32 `json:"base_of_code"`
	ImageBase                   uint64 `json:"image_base"`
	SectionAlignment            uint32 `json:"section_alignment"`
	FileAlignment               uint32 `json:"file_alignment"`
	MajorOperatingSystemVersion uint16 `json:"major_os_version"`
	MinorOperatingSystemVersion uint16 `json:"minor_os_version"`
	MajorImageVersion           uint16 `json:"major_image_version"`
	MinorImageVersion           uint16 `json:"minor_image_version"`
	MajorSubsystemVersion       uint16 `json:"major_subsystem_version"`
	MinorSubsystemVersion       uint16 `json:"minor_subsystem_version"`
	Win32VersionValue           uint32 `json:"win32_version_value"`
	SizeOfImage                 uint32 `json:"size_of_image"`
	SizeOfHeaders                uint32 `json:"size_of_headers"`
	CheckSum                     uint32 `json:"checksum"`
	Subsystem                    uint16 `json:"subsystem"`
	DllCharacteristics           uint16 `json:"dll_characteristics"`
	SizeOfStackReserve           uint64 `json:"size_of_stack_reserve"`
	SizeOfStackCommit            uint64 `json:"size_of_stack_commit"`
	SizeOfHeapReserve            uint64 `json:"size_of_heap_reserve"`
	SizeOfHeapCommit             uint64 `json:"size_of_heap_commit"`
	LoaderFlags                  uint32 `json:"loader_flags"`
	NumberOfRvaAndSizes          uint32 `json:"number_of_rva_and_sizes"`
}

// OptionalHeader is a tagged union over the two optional-header variants,
// replacing the teacher's `interface{}` field per the Design Notes'
// instruction to express format variants as sum types rather than dynamic
// dispatch.
type OptionalHeader struct {
	Is64 bool              `json:"is_64"`
	H32  *OptionalHeader32 `json:"header_32,omitempty"`
	H64  *OptionalHeader64 `json:"header_64,omitempty"`
}

// SectionHeader is one 40-byte PE section table entry plus its raw data
// (when LoadSectionData is set).
type SectionHeader struct {
	// Name is the raw 8-byte, NUL-padded section name; longer names are
	// stored elsewhere (the string table) and are out of scope here. Use
	// NameString for the trimmed form.
	Name [8]byte `json:"-"`
	// VirtualSize is the section's size once mapped into memory, which may
	// be smaller or larger than SizeOfRawData (the loader zero-fills the
	// remainder).
	VirtualSize    uint32 `json:"virtual_size"`
	VirtualAddress uint32 `json:"virtual_address"`
	// SizeOfRawData and RawDataPosition locate the section's bytes on disk.
	SizeOfRawData       uint32 `json:"size_of_raw_data"`
	RawDataPosition     uint32 `json:"raw_data_position"`
	RelocationsPosition uint32 `json:"relocations_position"`
	LineNumbersPosition uint32 `json:"line_numbers_position"`
	NumRelocations      uint16 `json:"num_relocations"`
	NumLineNumbers      uint16 `json:"num_line_numbers"`
	// Characteristics carries the section's memory protection and content
	// flags (code, initialized data, executable, writable, ...).
	Characteristics uint32 `json:"characteristics"`
	Data            []byte `json:"data,omitempty"`
}

// NameString returns the section name, NUL-trimmed if shorter than 8 bytes.
func (s *SectionHeader) NameString() string {
	n := 0
	for n < len(s.Name) && s.Name[n] != 0 {
		n++
	}
	return string(s.Name[:n])
}

// PeImage is the decoded PE portion of an ExeImage.
type PeImage struct {
	HeaderPosition int64                 `json:"header_position"`
	FileHeader     PeFileHeader          `json:"file_header"`
	OptionalHeader *OptionalHeader       `json:"optional_header,omitempty"`
	DataDirectory  [16]DataDirectoryEntry `json:"data_directory"`
	Sections       []SectionHeader       `json:"sections"`
	cli            *Cli
}

// Cli returns the decoded CLI subsystem, or nil if this image carries none
// (no CLR data directory, or LoadCliMetadata was not requested).
func (p *PeImage) Cli() *Cli { return p.cli }

// MarshalJSON includes the unexported cli field (via its Cli() getter)
// alongside the exported fields already tagged for encoding/json.
func (p *PeImage) MarshalJSON() ([]byte, error) {
	type alias PeImage
	return json.Marshal(struct {
		*alias
		Cli *Cli `json:"cli,omitempty"`
	}{alias: (*alias)(p), Cli: p.cli})
}

// RvaToFileOffset translates a relative virtual address to an absolute file
// offset by locating the section whose virtual range contains it (§4.6).
func (p *PeImage) RvaToFileOffset(rva uint32) (uint64, bool) {
	for _, s := range p.Sections {
		size := s.VirtualSize
		if s.SizeOfRawData > size {
			size = s.SizeOfRawData
		}
		if rva >= s.VirtualAddress && rva < s.VirtualAddress+size {
			return uint64(s.RawDataPosition) + uint64(rva-s.VirtualAddress), true
		}
	}
	return 0, false
}

func parsePeImage(src *cursor, headerPos int64, opts LoadOptions, logger *logHelper) (*PeImage, error) {
	c := newCursorAt(src.data, 0)
	c.seek(headerPos)

	fh, err := parsePeFileHeader(c)
	if err != nil {
		return nil, err
	}

	img := &PeImage{HeaderPosition: headerPos, FileHeader: *fh}

	if fh.SizeOfOptionalHeader > 0 {
		oh, dd, err := parseOptionalHeader(c)
		if err != nil {
			return nil, err
		}
		img.OptionalHeader = oh
		img.DataDirectory = dd
	}

	c.seek(headerPos + 24 + int64(fh.SizeOfOptionalHeader))
	sections, err := parseSectionTable(c, fh.NumberOfSections)
	if err != nil {
		return nil, err
	}
	if opts&LoadSectionData != 0 {
		for i := range sections {
			if sections[i].SizeOfRawData == 0 {
				continue
			}
			data, err := readBytesAt(src, int64(sections[i].RawDataPosition), int64(sections[i].SizeOfRawData))
			if err != nil {
				return nil, err
			}
			sections[i].Data = data
		}
	}
	img.Sections = sections

	clrDD := img.DataDirectory[DirCLR]
	if clrDD.VirtualAddress != 0 && opts&LoadCliMetadata != 0 {
		cli, err := parseCli(src, img, clrDD, opts, logger)
		if err != nil {
			return nil, err
		}
		img.cli = cli
	}

	return img, nil
}

func parsePeFileHeader(c *cursor) (*PeFileHeader, error) {
	start := c.absolute()
	h := &PeFileHeader{}

	sig, err := c.readUint32()
	if err != nil {
		return nil, err
	}
	if sig != peSignature {
		return nil, newError(ErrNotPe, start, "")
	}
	h.Signature = sig

	if h.Machine, err = c.readUint16(); err != nil {
		return nil, err
	}
	if h.NumberOfSections, err = c.readUint16(); err != nil {
		return nil, err
	}
	if h.TimeDateStamp, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.PointerToSymbolTable, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.NumberOfSymbols, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.SizeOfOptionalHeader, err = c.readUint16(); err != nil {
		return nil, err
	}
	if h.Characteristics, err = c.readUint16(); err != nil {
		return nil, err
	}
	return h, nil
}

func parseOptionalHeader(c *cursor) (*OptionalHeader, [16]DataDirectoryEntry, error) {
	var dd [16]DataDirectoryEntry
	start := c.absolute()

	magic, err := c.readUint16()
	if err != nil {
		return nil, dd, err
	}

	switch magic {
	case OptionalHeaderMagic32:
		c.seek(c.tell() - 2)
		h, err := parseOptionalHeader32(c)
		if err != nil {
			return nil, dd, err
		}
		n := int(h.NumberOfRvaAndSizes)
		if n > 16 {
			n = 16
		}
		for i := 0; i < n; i++ {
			e, err := parseDataDirectoryEntry(c)
			if err != nil {
				return nil, dd, err
			}
			dd[i] = e
		}
		return &OptionalHeader{H32: h}, dd, nil

	case OptionalHeaderMagic64:
		c.seek(c.tell() - 2)
		h, err := parseOptionalHeader64(c)
		if err != nil {
			return nil, dd, err
		}
		n := int(h.NumberOfRvaAndSizes)
		if n > 16 {
			n = 16
		}
		for i := 0; i < n; i++ {
			e, err := parseDataDirectoryEntry(c)
			if err != nil {
				return nil, dd, err
			}
			dd[i] = e
		}
		return &OptionalHeader{Is64: true, H64: h}, dd, nil

	case OptionalHeaderMagicRom:
		return nil, dd, nil

	default:
		return nil, dd, newError(ErrInvalidOptionalHeaderMagic, start, "")
	}
}

func parseDataDirectoryEntry(c *cursor) (DataDirectoryEntry, error) {
	var e DataDirectoryEntry
	var err error
	if e.VirtualAddress, err = c.readUint32(); err != nil {
		return e, err
	}
	if e.Size, err = c.readUint32(); err != nil {
		return e, err
	}
	return e, nil
}

func parseOptionalHeader32(c *cursor) (*OptionalHeader32, error) {
	h := &OptionalHeader32{}
	var err error
	if h.Magic, err = c.readUint16(); err != nil {
		return nil, err
	}
	mlv, err := c.readUint8()
	if err != nil {
		return nil, err
	}
	h.MajorLinkerVersion = mlv
	mnv, err := c.readUint8()
	if err != nil {
		return nil, err
	}
	h.MinorLinkerVersion = mnv

	u32s := []*uint32{
		&h.SizeOfCode, &h.SizeOfInitializedData, &h.SizeOfUninitializedData,
		&h.AddressOfEntryPoint, &h.BaseOfCode, &h.BaseOfData, &h.ImageBase,
		&h.SectionAlignment, &h.FileAlignment,
	}
	for _, f := range u32s {
		v, err := c.readUint32()
		if err != nil {
			return nil, err
		}
		*f = v
	}

	u16s := []*uint16{
		&h.MajorOperatingSystemVersion, &h.MinorOperatingSystemVersion,
		&h.MajorImageVersion, &h.MinorImageVersion,
		&h.MajorSubsystemVersion, &h.MinorSubsystemVersion,
	}
	for _, f := range u16s {
		v, err := c.readUint16()
		if err != nil {
			return nil, err
		}
		*f = v
	}

	if h.Win32VersionValue, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.SizeOfImage, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.SizeOfHeaders, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.CheckSum, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.Subsystem, err = c.readUint16(); err != nil {
		return nil, err
	}
	if h.DllCharacteristics, err = c.readUint16(); err != nil {
		return nil, err
	}

	u32s2 := []*uint32{
		&h.SizeOfStackReserve, &h.SizeOfStackCommit,
		&h.SizeOfHeapReserve, &h.SizeOfHeapCommit,
		&h.LoaderFlags, &h.NumberOfRvaAndSizes,
	}
	for _, f := range u32s2 {
		v, err := c.readUint32()
		if err != nil {
			return nil, err
		}
		*f = v
	}

	return h, nil
}

func parseOptionalHeader64(c *cursor) (*OptionalHeader64, error) {
	h := &OptionalHeader64{}
	var err error
	if h.Magic, err = c.readUint16(); err != nil {
		return nil, err
	}
	mlv, err := c.readUint8()
	if err != nil {
		return nil, err
	}
	h.MajorLinkerVersion = mlv
	mnv, err := c.readUint8()
	if err != nil {
		return nil, err
	}
	h.MinorLinkerVersion = mnv

	u32s := []*uint32{
		&h.SizeOfCode, &h.SizeOfInitializedData, &h.SizeOfUninitializedData,
		&h.AddressOfEntryPoint, &h.BaseOfCode,
	}
	for _, f := range u32s {
		v, err := c.readUint32()
		if err != nil {
			return nil, err
		}
		*f = v
	}

	if h.ImageBase, err = c.readUint64(); err != nil {
		return nil, err
	}

	u32s2 := []*uint32{&h.SectionAlignment, &h.FileAlignment}
	for _, f := range u32s2 {
		v, err := c.readUint32()
		if err != nil {
			return nil, err
		}
		*f = v
	}

	u16s := []*uint16{
		&h.MajorOperatingSystemVersion, &h.MinorOperatingSystemVersion,
		&h.MajorImageVersion, &h.MinorImageVersion,
		&h.MajorSubsystemVersion, &h.MinorSubsystemVersion,
	}
	for _, f := range u16s {
		v, err := c.readUint16()
		if err != nil {
			return nil, err
		}
		*f = v
	}

	if h.Win32VersionValue, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.SizeOfImage, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.SizeOfHeaders, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.CheckSum, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.Subsystem, err = c.readUint16(); err != nil {
		return nil, err
	}
	if h.DllCharacteristics, err = c.readUint16(); err != nil {
		return nil, err
	}

	u64s := []*uint64{
		&h.SizeOfStackReserve, &h.SizeOfStackCommit,
		&h.SizeOfHeapReserve, &h.SizeOfHeapCommit,
	}
	for _, f := range u64s {
		v, err := c.readUint64()
		if err != nil {
			return nil, err
		}
		*f = v
	}

	if h.LoaderFlags, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.NumberOfRvaAndSizes, err = c.readUint32(); err != nil {
		return nil, err
	}

	return h, nil
}

func parseSectionTable(c *cursor, count uint16) ([]SectionHeader, error) {
	out := make([]SectionHeader, 0, count)
	for i := uint16(0); i < count; i++ {
		var s SectionHeader
		name, err := c.readBytes(8)
		if err != nil {
			return nil, err
		}
		copy(s.Name[:], name)

		if s.VirtualSize, err = c.readUint32(); err != nil {
			return nil, err
		}
		if s.VirtualAddress, err = c.readUint32(); err != nil {
			return nil, err
		}
		if s.SizeOfRawData, err = c.readUint32(); err != nil {
			return nil, err
		}
		if s.RawDataPosition, err = c.readUint32(); err != nil {
			return nil, err
		}
		if s.RelocationsPosition, err = c.readUint32(); err != nil {
			return nil, err
		}
		if s.LineNumbersPosition, err = c.readUint32(); err != nil {
			return nil, err
		}
		if s.NumRelocations, err = c.readUint16(); err != nil {
			return nil, err
		}
		if s.NumLineNumbers, err = c.readUint16(); err != nil {
			return nil, err
		}
		if s.Characteristics, err = c.readUint32(); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

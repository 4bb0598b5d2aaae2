// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

const metadataRootSignature = 0x424A5342 // "BSJB"

// CliHeader is the IMAGE_COR20_HEADER record pointed to by the CLR data
// directory.
type CliHeader struct {
	Size                      uint32              `json:"size"`
	MajorRuntimeVersion       uint16              `json:"major_runtime_version"`
	MinorRuntimeVersion       uint16              `json:"minor_runtime_version"`
	MetadataDD                DataDirectoryEntry  `json:"metadata_dd"`
	Flags                     uint32              `json:"flags"`
	EntryPointToken           uint32              `json:"entry_point_token"`
	ResourcesDD               DataDirectoryEntry  `json:"resources_dd"`
	StrongNameSignatureDD     DataDirectoryEntry  `json:"strong_name_signature_dd"`
	CodeManagerTableDD        DataDirectoryEntry  `json:"code_manager_table_dd"`
	VTableFixupsDD            DataDirectoryEntry  `json:"vtable_fixups_dd"`
	ExportAddressTableJumpsDD DataDirectoryEntry  `json:"export_address_table_jumps_dd"`
	ManagedNativeHeaderDD     DataDirectoryEntry  `json:"managed_native_header_dd"`
}

// MetadataRootHeader is the fixed portion of the CLI metadata root.
type MetadataRootHeader struct {
	Signature     uint32 `json:"signature"`
	MajorVersion  uint16 `json:"major_version"`
	MinorVersion  uint16 `json:"minor_version"`
	Reserved      uint32 `json:"reserved"`
	VersionLength uint32 `json:"version_length"`
	VersionString string `json:"version_string"`
	Flags         uint16 `json:"flags"`
	StreamCount   uint16 `json:"stream_count"`
}

// StreamHeader is one entry in the metadata-root stream directory.
type StreamHeader struct {
	Offset uint32 `json:"offset"`
	Size   uint32 `json:"size"`
	Name   string `json:"name"`
}

// CliMetadata is the decoded CLI metadata root plus, when requested, its
// heap streams and tables stream.
type CliMetadata struct {
	Header        MetadataRootHeader `json:"header"`
	StreamHeaders []StreamHeader     `json:"stream_headers"`
	streams       map[string][]byte
	Tables        *CliTables `json:"tables,omitempty"`

	origin int64 // absolute file offset of the metadata root, for #GUID/etc bookkeeping
}

// Cli is the decoded CLI subsystem of a managed PE image.
type Cli struct {
	Header   CliHeader    `json:"header"`
	Metadata *CliMetadata `json:"metadata,omitempty"`
}

func parseCli(src *cursor, pe *PeImage, clrDD DataDirectoryEntry, opts LoadOptions, logger *logHelper) (*Cli, error) {
	clrOff, ok := pe.RvaToFileOffset(clrDD.VirtualAddress)
	if !ok {
		return nil, newError(ErrUnresolvedRva, int64(clrDD.VirtualAddress), "CLR header")
	}

	c := newCursorAt(src.data, 0)
	c.seek(int64(clrOff))

	h, err := parseCliHeader(c)
	if err != nil {
		return nil, err
	}
	cli := &Cli{Header: *h}

	if h.MetadataDD.VirtualAddress == 0 {
		return cli, nil
	}

	metaOff, ok := pe.RvaToFileOffset(h.MetadataDD.VirtualAddress)
	if !ok {
		return nil, newError(ErrUnresolvedRva, int64(h.MetadataDD.VirtualAddress), "CLI metadata root")
	}

	md, err := parseMetadataRoot(src, int64(metaOff), opts, logger)
	if err != nil {
		return nil, err
	}
	cli.Metadata = md

	return cli, nil
}

func parseCliHeader(c *cursor) (*CliHeader, error) {
	h := &CliHeader{}
	var err error
	if h.Size, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.MajorRuntimeVersion, err = c.readUint16(); err != nil {
		return nil, err
	}
	if h.MinorRuntimeVersion, err = c.readUint16(); err != nil {
		return nil, err
	}
	if h.MetadataDD, err = parseDataDirectoryEntry(c); err != nil {
		return nil, err
	}
	if h.Flags, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.EntryPointToken, err = c.readUint32(); err != nil {
		return nil, err
	}
	for _, dd := range []*DataDirectoryEntry{
		&h.ResourcesDD, &h.StrongNameSignatureDD, &h.CodeManagerTableDD,
		&h.VTableFixupsDD, &h.ExportAddressTableJumpsDD, &h.ManagedNativeHeaderDD,
	} {
		e, err := parseDataDirectoryEntry(c)
		if err != nil {
			return nil, err
		}
		*dd = e
	}
	return h, nil
}

func parseMetadataRoot(src *cursor, origin int64, opts LoadOptions, logger *logHelper) (*CliMetadata, error) {
	c := newCursorAt(src.data, 0)
	c.seek(origin)

	start := c.absolute()
	h := MetadataRootHeader{}
	var err error
	if h.Signature, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.Signature != metadataRootSignature {
		return nil, newError(ErrNotCliMetadata, start, "")
	}
	if h.MajorVersion, err = c.readUint16(); err != nil {
		return nil, err
	}
	if h.MinorVersion, err = c.readUint16(); err != nil {
		return nil, err
	}
	if h.Reserved, err = c.readUint32(); err != nil {
		return nil, err
	}
	if h.VersionLength, err = c.readUint32(); err != nil {
		return nil, err
	}
	verStart := c.tell()
	verBytes, err := c.readBytes(int64(h.VersionLength))
	if err != nil {
		return nil, err
	}
	h.VersionString = cStringFromPadded(verBytes)
	_ = verStart
	if h.Flags, err = c.readUint16(); err != nil {
		return nil, err
	}
	if h.StreamCount, err = c.readUint16(); err != nil {
		return nil, err
	}

	md := &CliMetadata{Header: h, origin: origin, streams: map[string][]byte{}}

	for i := uint16(0); i < h.StreamCount; i++ {
		sh := StreamHeader{}
		if sh.Offset, err = c.readUint32(); err != nil {
			return nil, err
		}
		if sh.Size, err = c.readUint32(); err != nil {
			return nil, err
		}
		nameStart := c.tell()
		name, err := c.readCStringAligned(4)
		if err != nil {
			return nil, err
		}
		if c.tell()-nameStart > 32 {
			return nil, newError(ErrMalformedStreamName, c.base+nameStart, name)
		}
		sh.Name = name
		md.StreamHeaders = append(md.StreamHeaders, sh)

		if opts&LoadCliMetadataStreams != 0 {
			data, err := readBytesAt(src, origin+int64(sh.Offset), int64(sh.Size))
			if err != nil {
				return nil, err
			}
			md.streams[sh.Name] = data
		}
	}

	if opts&LoadCliMetadataTables != 0 {
		raw, ok := md.streams["#~"]
		if !ok {
			raw, ok = md.streams["#-"]
		}
		if ok {
			tables, err := parseCliTables(raw, logger)
			if err != nil {
				return nil, err
			}
			md.Tables = tables
		}
	}

	return md, nil
}

// cStringFromPadded trims the NUL padding a length-prefixed field (the
// metadata-root version string) carries after its terminator.
func cStringFromPadded(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// Stream returns the raw bytes of a named metadata stream (e.g. "#Strings",
// "#US", "#Blob", "#GUID", "#~"), or nil if it was not loaded or absent.
func (m *CliMetadata) Stream(name string) []byte {
	return m.streams[name]
}

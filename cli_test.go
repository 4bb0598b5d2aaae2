// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

import "testing"

func buildDataDirectoryEntry(rva, size uint32) []byte {
	return append(u32le(rva), u32le(size)...)
}

func TestParseCliHeader(t *testing.T) {
	var b []byte
	b = append(b, u32le(72)...)    // Size
	b = append(b, u16le(2)...)     // MajorRuntimeVersion
	b = append(b, u16le(5)...)     // MinorRuntimeVersion
	b = append(b, buildDataDirectoryEntry(0x2000, 0x100)...) // MetadataDD
	b = append(b, u32le(1)...)     // Flags
	b = append(b, u32le(0)...)     // EntryPointToken
	for i := 0; i < 6; i++ {
		b = append(b, buildDataDirectoryEntry(0, 0)...)
	}

	h, err := parseCliHeader(newCursor(b))
	if err != nil {
		t.Fatalf("parseCliHeader: %v", err)
	}
	if h.MetadataDD.VirtualAddress != 0x2000 || h.MetadataDD.Size != 0x100 {
		t.Fatalf("MetadataDD = %+v", h.MetadataDD)
	}
	if h.MajorRuntimeVersion != 2 || h.MinorRuntimeVersion != 5 {
		t.Fatalf("h = %+v", h)
	}
}

// buildMetadataRoot assembles a minimal BSJB metadata root with one stream
// directory entry named name (padded to a 4-byte boundary).
func buildMetadataRoot(name string) []byte {
	var b []byte
	b = append(b, u32le(metadataRootSignature)...)
	b = append(b, u16le(1)...) // major
	b = append(b, u16le(1)...) // minor
	b = append(b, u32le(0)...) // reserved

	ver := []byte("v4.0.30319\x00\x00")
	for len(ver)%4 != 0 {
		ver = append(ver, 0)
	}
	b = append(b, u32le(uint32(len(ver)))...)
	b = append(b, ver...)

	b = append(b, u16le(0)...) // flags
	b = append(b, u16le(1)...) // stream count

	b = append(b, u32le(0)...)   // stream offset
	b = append(b, u32le(4)...)   // stream size
	nameBytes := append([]byte(name), 0)
	for len(nameBytes)%4 != 0 {
		nameBytes = append(nameBytes, 0)
	}
	b = append(b, nameBytes...)
	return b
}

func TestParseMetadataRootHeader(t *testing.T) {
	raw := buildMetadataRoot("#Strings")
	md, err := parseMetadataRoot(newCursor(raw), 0, DefaultOptions, nil)
	if err != nil {
		t.Fatalf("parseMetadataRoot: %v", err)
	}
	if md.Header.Signature != metadataRootSignature {
		t.Fatalf("Signature = %#x", md.Header.Signature)
	}
	if len(md.StreamHeaders) != 1 || md.StreamHeaders[0].Name != "#Strings" {
		t.Fatalf("StreamHeaders = %+v", md.StreamHeaders)
	}
}

func TestParseMetadataRootBadSignature(t *testing.T) {
	raw := append([]byte{}, u32le(0xDEADBEEF)...)
	raw = append(raw, make([]byte, 16)...)
	if _, err := parseMetadataRoot(newCursor(raw), 0, DefaultOptions, nil); err == nil {
		t.Fatal("expected NotCliMetadata error")
	} else if e, ok := err.(*Error); !ok || e.Kind != ErrNotCliMetadata {
		t.Fatalf("expected ErrNotCliMetadata, got %v", err)
	}
}

func TestParseMetadataRootMalformedStreamName(t *testing.T) {
	var b []byte
	b = append(b, u32le(metadataRootSignature)...)
	b = append(b, u16le(1)...)
	b = append(b, u16le(1)...)
	b = append(b, u32le(0)...)
	b = append(b, u32le(0)...) // empty version string
	b = append(b, u16le(0)...) // flags
	b = append(b, u16le(1)...) // stream count

	b = append(b, u32le(0)...)
	b = append(b, u32le(0)...)
	longName := make([]byte, 33)
	for i := range longName {
		longName[i] = 'a'
	}
	longName = append(longName, 0)
	for len(longName)%4 != 0 {
		longName = append(longName, 0)
	}
	b = append(b, longName...)

	if _, err := parseMetadataRoot(newCursor(b), 0, DefaultOptions, nil); err == nil {
		t.Fatal("expected MalformedStreamName error")
	} else if e, ok := err.(*Error); !ok || e.Kind != ErrMalformedStreamName {
		t.Fatalf("expected ErrMalformedStreamName, got %v", err)
	}
}

func TestCStringFromPadded(t *testing.T) {
	if got := cStringFromPadded([]byte("v4.0\x00\x00\x00")); got != "v4.0" {
		t.Fatalf("cStringFromPadded = %q; want v4.0", got)
	}
	if got := cStringFromPadded([]byte("noterm")); got != "noterm" {
		t.Fatalf("cStringFromPadded = %q; want noterm", got)
	}
}

func TestCliMetadataStream(t *testing.T) {
	md := &CliMetadata{streams: map[string][]byte{"#Strings": {1, 2, 3}}}
	if got := md.Stream("#Strings"); len(got) != 3 {
		t.Fatalf("Stream = %v", got)
	}
	if got := md.Stream("#Missing"); got != nil {
		t.Fatalf("Stream(missing) = %v; want nil", got)
	}
}

// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

import "testing"

func TestParsePeFileHeaderSignature(t *testing.T) {
	var b []byte
	b = append(b, u32le(peSignature)...)
	b = append(b, u16le(0x014C)...) // Machine: I386
	b = append(b, u16le(2)...)      // NumberOfSections
	b = append(b, u32le(0)...)      // TimeDateStamp
	b = append(b, u32le(0)...)      // PointerToSymbolTable
	b = append(b, u32le(0)...)      // NumberOfSymbols
	b = append(b, u16le(0xE0)...)   // SizeOfOptionalHeader
	b = append(b, u16le(0x0102)...) // Characteristics

	h, err := parsePeFileHeader(newCursor(b))
	if err != nil {
		t.Fatalf("parsePeFileHeader: %v", err)
	}
	if h.NumberOfSections != 2 || h.Machine != 0x014C {
		t.Fatalf("h = %+v", h)
	}
}

func TestParsePeFileHeaderBadSignature(t *testing.T) {
	b := append([]byte{}, u32le(0xDEADBEEF)...)
	b = append(b, make([]byte, 16)...)
	if _, err := parsePeFileHeader(newCursor(b)); err == nil {
		t.Fatal("expected NotPe error")
	} else if e, ok := err.(*Error); !ok || e.Kind != ErrNotPe {
		t.Fatalf("expected ErrNotPe, got %v", err)
	}
}

func TestParseOptionalHeaderMagicDispatch(t *testing.T) {
	var b []byte
	b = append(b, u16le(OptionalHeaderMagic32)...)
	b = append(b, 9, 0) // linker version
	for i := 0; i < 9; i++ {
		b = append(b, u32le(0)...)
	}
	for i := 0; i < 6; i++ {
		b = append(b, u16le(0)...)
	}
	b = append(b, u32le(0)...) // Win32VersionValue
	b = append(b, u32le(0)...) // SizeOfImage
	b = append(b, u32le(0)...) // SizeOfHeaders
	b = append(b, u32le(0)...) // CheckSum
	b = append(b, u16le(2)...) // Subsystem
	b = append(b, u16le(0)...) // DllCharacteristics
	for i := 0; i < 6; i++ {
		b = append(b, u32le(0)...) // stack/heap x4, loader flags, number_of_rva_and_sizes(=0)
	}

	oh, dd, err := parseOptionalHeader(newCursor(b))
	if err != nil {
		t.Fatalf("parseOptionalHeader: %v", err)
	}
	if oh.Is64 || oh.H32 == nil {
		t.Fatalf("expected PE32 variant, got %+v", oh)
	}
	if oh.H32.Subsystem != 2 {
		t.Fatalf("Subsystem = %d; want 2", oh.H32.Subsystem)
	}
	if dd != [16]DataDirectoryEntry{} {
		t.Fatalf("expected zero data directories when NumberOfRvaAndSizes == 0")
	}
}

func TestParseOptionalHeaderInvalidMagic(t *testing.T) {
	b := u16le(0xFFFF)
	if _, _, err := parseOptionalHeader(newCursor(b)); err == nil {
		t.Fatal("expected InvalidOptionalHeaderMagic error")
	} else if e, ok := err.(*Error); !ok || e.Kind != ErrInvalidOptionalHeaderMagic {
		t.Fatalf("expected ErrInvalidOptionalHeaderMagic, got %v", err)
	}
}

func TestSectionHeaderNameString(t *testing.T) {
	s := SectionHeader{}
	copy(s.Name[:], ".text")
	if s.NameString() != ".text" {
		t.Fatalf("NameString() = %q; want .text", s.NameString())
	}
}

func TestRvaToFileOffset(t *testing.T) {
	pe := &PeImage{Sections: []SectionHeader{
		{VirtualAddress: 0x1000, VirtualSize: 0x200, SizeOfRawData: 0x200, RawDataPosition: 0x400},
	}}
	off, ok := pe.RvaToFileOffset(0x1050)
	if !ok || off != 0x450 {
		t.Fatalf("RvaToFileOffset = %#x, %v; want 0x450, true", off, ok)
	}
	if _, ok := pe.RvaToFileOffset(0x5000); ok {
		t.Fatal("expected RVA outside every section to fail")
	}
}

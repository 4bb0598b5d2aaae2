// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

import "testing"

// buildNeHeader returns the fixed 64-byte NE header with every field zero
// except the ones explicitly passed in, enough to exercise field-order and
// signature-validation tests without a full synthetic executable.
func buildNeHeader(signature uint16) []byte {
	var b []byte
	b = append(b, u16le(signature)...)
	b = append(b, 0, 0)          // linker version/revision
	b = append(b, u16le(0)...)   // EntryTableOffset
	b = append(b, u16le(0)...)   // EntryTableSize
	b = append(b, u32le(0)...)   // Checksum
	for i := 0; i < 16; i++ {
		b = append(b, u16le(0)...)
	}
	b = append(b, u32le(0)...) // NonResNameTablePos
	for i := 0; i < 3; i++ {
		b = append(b, u16le(0)...)
	}
	b = append(b, 0, 0) // ExecutableType, AdditionalFlags
	for i := 0; i < 4; i++ {
		b = append(b, u16le(0)...)
	}
	return b
}

func TestParseNeHeaderSignature(t *testing.T) {
	data := buildNeHeader(neSignature)
	if len(data) != 64 {
		t.Fatalf("synthetic NE header is %d bytes; want 64", len(data))
	}
	c := newCursor(data)
	h, err := parseNeHeader(c)
	if err != nil {
		t.Fatalf("parseNeHeader: %v", err)
	}
	if h.Signature != neSignature {
		t.Fatalf("Signature = %#x; want %#x", h.Signature, neSignature)
	}
}

func TestParseNeHeaderBadSignature(t *testing.T) {
	data := buildNeHeader(0x1234)
	c := newCursor(data)
	if _, err := parseNeHeader(c); err == nil {
		t.Fatal("expected NotNe error")
	} else if e, ok := err.(*Error); !ok || e.Kind != ErrNotNe {
		t.Fatalf("expected ErrNotNe, got %v", err)
	}
}

func TestDecodeEntryTableBundles(t *testing.T) {
	var raw []byte
	// One empty bundle of 2 slots.
	raw = append(raw, 2, 0x00)
	// One moveable bundle of 1 entry: flags, int3f(2 bytes), segment, offset.
	raw = append(raw, 1, 0xFF)
	raw = append(raw, 0x01, 0xCD, 0x3F, 0x02, 0x10, 0x00)
	// One fixed-in-segment-3 bundle of 1 entry: flags, offset.
	raw = append(raw, 1, 0x03)
	raw = append(raw, 0x00, 0x20, 0x00)
	// Terminator.
	raw = append(raw, 0)

	bundles, err := DecodeEntryTable(raw)
	if err != nil {
		t.Fatalf("DecodeEntryTable: %v", err)
	}
	if len(bundles) != 3 {
		t.Fatalf("len(bundles) = %d; want 3", len(bundles))
	}

	if bundles[0].Kind != NeEntryEmpty || bundles[0].FirstOrdinal != 1 {
		t.Fatalf("bundle0 = %+v", bundles[0])
	}

	if bundles[1].Kind != NeEntryMoveable || len(bundles[1].Entries) != 1 {
		t.Fatalf("bundle1 = %+v", bundles[1])
	}
	e := bundles[1].Entries[0]
	if e.Ordinal != 3 || e.Segment != 0x02 || e.Offset != 0x10 || !e.Exported {
		t.Fatalf("moveable entry = %+v", e)
	}

	if bundles[2].Kind != NeEntryFixed || bundles[2].Segment != 0x03 {
		t.Fatalf("bundle2 = %+v", bundles[2])
	}
	e2 := bundles[2].Entries[0]
	if e2.Ordinal != 4 || e2.Offset != 0x20 {
		t.Fatalf("fixed entry = %+v", e2)
	}
}

func TestParseNeNameTable(t *testing.T) {
	var raw []byte
	raw = append(raw, 3, 'f', 'o', 'o')
	raw = append(raw, u16le(1)...) // ordinal
	raw = append(raw, 0)           // terminator

	names, err := parseNeNameTable(newCursor(raw), 0, true)
	if err != nil {
		t.Fatalf("parseNeNameTable: %v", err)
	}
	if len(names) != 1 || names[0].Name != "foo" || names[0].Ordinal != 1 {
		t.Fatalf("names = %+v", names)
	}
}

func TestResolveNeTableNameFailsSoft(t *testing.T) {
	src := newCursor([]byte{0x01, 0x02})
	name, err := resolveNeTableName(src, 0, 1000, nil)
	if err != nil {
		t.Fatalf("resolveNeTableName should not fail hard: %v", err)
	}
	if name != "" {
		t.Fatalf("name = %q; want empty string on unresolved offset", name)
	}
}

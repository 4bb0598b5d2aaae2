// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

import "testing"

// buildMzHeader returns a minimal 28-field DOS header, optionally extended
// with the 8 reserved words + new-header offset that relocationTablePos ==
// 0x40 signals.
func buildMzHeader(relocationTablePos uint16, newHeaderOffset uint32) []byte {
	fields := make([]uint16, 28)
	fields[0] = MzSignature
	fields[12] = relocationTablePos // RelocationTablePos is the 13th field
	buf := []byte{}
	for _, f := range fields {
		buf = append(buf, byte(f), byte(f>>8))
	}
	if relocationTablePos == 0x40 {
		for i := 0; i < 8; i++ {
			buf = append(buf, 0, 0)
		}
		buf = append(buf, byte(newHeaderOffset), byte(newHeaderOffset>>8), byte(newHeaderOffset>>16), byte(newHeaderOffset>>24))
	}
	return buf
}

func TestParseMzHeaderPlain(t *testing.T) {
	data := buildMzHeader(0x1C, 0)
	c := newCursor(data)
	h, err := parseMzHeader(c)
	if err != nil {
		t.Fatalf("parseMzHeader: %v", err)
	}
	if h.Signature != MzSignature {
		t.Fatalf("Signature = %#x; want %#x", h.Signature, MzSignature)
	}
	if h.RelocationTablePos != 0x1C {
		t.Fatalf("RelocationTablePos = %#x; want 0x1C", h.RelocationTablePos)
	}
	if h.NewHeaderOffset != 0 {
		t.Fatalf("NewHeaderOffset = %#x; want 0 (no modern header)", h.NewHeaderOffset)
	}
}

func TestParseMzHeaderModern(t *testing.T) {
	data := buildMzHeader(0x40, 0x80)
	c := newCursor(data)
	h, err := parseMzHeader(c)
	if err != nil {
		t.Fatalf("parseMzHeader: %v", err)
	}
	if h.NewHeaderOffset != 0x80 {
		t.Fatalf("NewHeaderOffset = %#x; want 0x80", h.NewHeaderOffset)
	}
}

func TestParseMzHeaderBadSignature(t *testing.T) {
	data := buildMzHeader(0x1C, 0)
	data[0] = 'X'
	c := newCursor(data)
	if _, err := parseMzHeader(c); err == nil {
		t.Fatal("expected NotMz error")
	} else if e, ok := err.(*Error); !ok || e.Kind != ErrNotMz {
		t.Fatalf("expected ErrNotMz, got %v", err)
	}
}

func TestLoadMzRelocations(t *testing.T) {
	const headerLen = 56 // 28 fields * 2 bytes, no modern-header extension
	header := buildMzHeader(headerLen, 0)
	relocTable := []byte{0x10, 0x00, 0x20, 0x00, 0x30, 0x00, 0x40, 0x00}
	full := append(append([]byte{}, header...), relocTable...)

	c := newCursor(full)
	h, err := parseMzHeader(c)
	if err != nil {
		t.Fatalf("parseMzHeader: %v", err)
	}
	// NumRelocationItems (field 3) was left 0 by buildMzHeader; set the count
	// the same way a real header would carry it.
	h.relocCount = 2

	src := newCursor(full)
	relocs, err := loadMzRelocations(src, h)
	if err != nil {
		t.Fatalf("loadMzRelocations: %v", err)
	}
	want := []MzRelocation{{Offset: 0x10, Segment: 0x20}, {Offset: 0x30, Segment: 0x40}}
	if len(relocs) != len(want) || relocs[0] != want[0] || relocs[1] != want[1] {
		t.Fatalf("relocs = %+v; want %+v", relocs, want)
	}
}

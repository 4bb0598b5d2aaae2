// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

import "testing"

func TestDecodeIndexTypeDefOrRef(t *testing.T) {
	// tag=1 (TypeRef), row=5 -> raw = 5<<2 | 1
	raw := uint32(5)<<2 | 1
	id, row, err := DecodeIndex(FamilyTypeDefOrRef, raw, 0)
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	if id != TableTypeRef || row != 5 {
		t.Fatalf("got (%v, %d); want (TableTypeRef, 5)", id, row)
	}
}

func TestDecodeIndexZeroRowIsNoTarget(t *testing.T) {
	id, row, err := DecodeIndex(FamilyHasConstant, 0, 0)
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	if id != TableField || row != 0 {
		t.Fatalf("got (%v, %d); want (TableField, 0)", id, row)
	}
}

func TestDecodeIndexReservedTag(t *testing.T) {
	// HasCustomAttribute tag 8 is the reserved "Permission" slot.
	raw := uint32(0)<<5 | 8
	if _, _, err := DecodeIndex(FamilyHasCustomAttribute, raw, 0); err == nil {
		t.Fatal("expected InvalidCodedTag error for reserved tag 8")
	} else if e, ok := err.(*Error); !ok || e.Kind != ErrInvalidCodedTag {
		t.Fatalf("expected ErrInvalidCodedTag, got %v", err)
	}
}

func TestDecodeIndexCustomAttributeType(t *testing.T) {
	// Only tags 2 (MethodDef) and 3 (MemberRef) are valid.
	raw := uint32(1)<<3 | 2
	id, row, err := DecodeIndex(FamilyCustomAttributeType, raw, 0)
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	if id != TableMethodDef || row != 1 {
		t.Fatalf("got (%v, %d); want (TableMethodDef, 1)", id, row)
	}

	if _, _, err := DecodeIndex(FamilyCustomAttributeType, 0, 0); err == nil {
		t.Fatal("expected InvalidCodedTag for reserved tag 0")
	}
}

func TestDecodeIndexOutOfRangeTag(t *testing.T) {
	// TypeOrMethodDef has a 1-bit tag: only 0 and 1 are in range.
	if _, _, err := DecodeIndex(FamilyTypeOrMethodDef, 0x3, 0); err != nil {
		t.Fatalf("tag 1 should be valid: %v", err)
	}
	// HasConstant has a 2-bit tag but only three candidates: tag 3 is out of range.
	if _, _, err := DecodeIndex(FamilyHasConstant, 0x13, 0); err == nil {
		t.Fatal("expected InvalidCodedTag for HasConstant tag 3")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tok := TokenOf(TableMethodDef, 0x001234)
	id, row := TokenComponents(tok)
	if id != TableMethodDef || row != 0x001234 {
		t.Fatalf("round trip = (%v, %#x); want (TableMethodDef, 0x1234)", id, row)
	}
}

func TestCodedIndexMaxRowThreshold(t *testing.T) {
	if got := codedIndexMaxRowThreshold(2); got != 1<<14 {
		t.Fatalf("threshold(2) = %d; want %d", got, 1<<14)
	}
}

// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

import "testing"

func TestDecodeTableRowsTypeDef(t *testing.T) {
	var b []byte
	b = append(b, u32le(0x00100101)...) // Flags
	b = append(b, u16le(7)...)          // Name (string index)
	b = append(b, u16le(3)...)          // Namespace (string index)
	// Extends: TypeDefOrRef coded index, tag 1 (TypeRef), row 2 -> 2<<2|1
	b = append(b, u16le(uint16(2<<2|1))...)
	b = append(b, u16le(1)...) // FieldList (TableField index)
	b = append(b, u16le(1)...) // MethodList (TableMethodDef index)

	wp := widthPolicy{}
	out, err := decodeTableRows(newCursor(b), TableTypeDef, 1, wp)
	if err != nil {
		t.Fatalf("decodeTableRows: %v", err)
	}
	rows, ok := out.([]TypeDefRow)
	if !ok || len(rows) != 1 {
		t.Fatalf("out = %#v; want one TypeDefRow", out)
	}
	r := rows[0]
	if r.Flags != 0x00100101 || r.Name != 7 || r.Namespace != 3 {
		t.Fatalf("r = %+v", r)
	}
	if r.Extends != uint32(2<<2|1) {
		t.Fatalf("Extends = %#x; want %#x", r.Extends, 2<<2|1)
	}
	if r.FieldList != 1 || r.MethodList != 1 {
		t.Fatalf("r = %+v", r)
	}
}

func TestDecodeTableRowsFieldPtr(t *testing.T) {
	b := u16le(42)
	out, err := decodeTableRows(newCursor(b), TableFieldPtr, 1, widthPolicy{})
	if err != nil {
		t.Fatalf("decodeTableRows: %v", err)
	}
	rows, ok := out.([]FieldPtrRow)
	if !ok || len(rows) != 1 || rows[0].Field != 42 {
		t.Fatalf("out = %#v; want one FieldPtrRow{Field: 42}", out)
	}
}

func TestDecodeTableRowsUnknownTable(t *testing.T) {
	if _, err := decodeTableRows(newCursor(nil), TableENCLog, 1, widthPolicy{}); err == nil {
		t.Fatal("expected UnknownTable error")
	} else if e, ok := err.(*Error); !ok || e.Kind != ErrUnknownTable {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
}

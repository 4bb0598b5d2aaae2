// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

import "testing"

func TestStringsHeapString(t *testing.T) {
	heap := []byte{0x00, 'f', 'o', 'o', 0x00, 'b', 'a', 'r', 0x00}
	s, ok := stringsHeapString(heap, 1)
	if !ok || s != "foo" {
		t.Fatalf("stringsHeapString(1) = %q, %v; want foo, true", s, ok)
	}
	s, ok = stringsHeapString(heap, 5)
	if !ok || s != "bar" {
		t.Fatalf("stringsHeapString(5) = %q, %v; want bar, true", s, ok)
	}
	if _, ok := stringsHeapString(heap, 0); !ok {
		t.Fatal("offset 0 should resolve to the empty string, not fail")
	}
}

func TestBlobHeapBlob(t *testing.T) {
	heap := []byte{0x03, 0xAA, 0xBB, 0xCC}
	b, ok := blobHeapBlob(heap, 0)
	if !ok || len(b) != 3 || b[0] != 0xAA {
		t.Fatalf("blobHeapBlob(0) = %v, %v; want [AA BB CC], true", b, ok)
	}
}

func TestUserStringHeapEntryWithFlag(t *testing.T) {
	// "A" in UTF-16LE (2 bytes) + a trailing flag byte -> odd total length 3.
	heap := []byte{0x03, 'A', 0x00, 0x01}
	us, ok := userStringHeapEntry(heap, 0)
	if !ok {
		t.Fatal("userStringHeapEntry failed")
	}
	if us.Value != "A" {
		t.Fatalf("Value = %q; want A", us.Value)
	}
	if us.RawFlag != 0x01 || !us.NonASCII {
		t.Fatalf("RawFlag/NonASCII = %#x/%v; want 0x01/true", us.RawFlag, us.NonASCII)
	}
}

func TestGuidHeapGuidOneBased(t *testing.T) {
	heap := make([]byte, 32)
	heap[16] = 0xEF // Data1 low byte of the 2nd GUID
	g, ok := guidHeapGuid(heap, 2)
	if !ok {
		t.Fatal("guidHeapGuid(2) failed")
	}
	if g.Data1 != 0xEF {
		t.Fatalf("Data1 = %#x; want 0xEF", g.Data1)
	}
	if _, ok := guidHeapGuid(heap, 0); ok {
		t.Fatal("index 0 should mean no GUID")
	}
}

func TestIterStringsHeap(t *testing.T) {
	heap := []byte{0x00, 'a', 0x00, 'b', 'c', 0x00}
	entries := iterStringsHeap(heap)
	if len(entries) != 2 || entries[0].Value != "a" || entries[1].Value != "bc" {
		t.Fatalf("entries = %+v; want [a bc]", entries)
	}
}

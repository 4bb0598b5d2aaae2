// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

import (
	"encoding/json"
	"testing"
)

func TestOpenBytesPlainMz(t *testing.T) {
	data := buildMzHeader(0x1C, 0)
	img, err := OpenBytes(data, DefaultOptions, nil)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if img.Kind() != KindMz {
		t.Fatalf("Kind() = %v; want KindMz", img.Kind())
	}
	if img.Mz() == nil {
		t.Fatal("Mz() = nil")
	}
	if img.Ne() != nil || img.Pe() != nil {
		t.Fatal("expected no NE/PE body for a plain MZ image")
	}
	if err := img.Close(); err != nil {
		t.Fatalf("Close() on an OpenBytes image should be a no-op: %v", err)
	}
}

func TestOpenBytesPureMzWithModernRelocPos(t *testing.T) {
	// RelocationTablePos == 0x40 alone does not make an image modern; the
	// new-header offset is what decides (§4.4). A zero offset must still
	// resolve to a pure MZ image, not fall through to signature detection
	// at offset 0.
	data := buildMzHeader(0x40, 0)
	img, err := OpenBytes(data, DefaultOptions, nil)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if img.Kind() != KindMz {
		t.Fatalf("Kind() = %v; want KindMz", img.Kind())
	}
	if img.Ne() != nil || img.Pe() != nil {
		t.Fatal("expected no NE/PE body when new_header_offset == 0")
	}
}

func TestOpenBytesBadSignature(t *testing.T) {
	data := buildMzHeader(0x1C, 0)
	data[0] = 'X'
	if _, err := OpenBytes(data, DefaultOptions, nil); err == nil {
		t.Fatal("expected an error for a non-MZ image")
	}
}

func TestOpenBytesWithRelocations(t *testing.T) {
	const headerLen = 56
	header := buildMzHeader(headerLen, 0)
	header[6] = 1 // NumRelocationItems (bytes 6-7)
	relocTable := []byte{0x10, 0x00, 0x20, 0x00}
	full := append(append([]byte{}, header...), relocTable...)

	img, err := OpenBytes(full, LoadMzRelocationData, nil)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if len(img.Relocations()) != 1 {
		t.Fatalf("Relocations() = %+v; want 1 entry", img.Relocations())
	}
}

func TestExeImageMarshalJSON(t *testing.T) {
	data := buildMzHeader(0x1C, 0)
	img, err := OpenBytes(data, DefaultOptions, nil)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	raw, err := json.Marshal(img)
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out["kind"] != "MZ" {
		t.Fatalf("kind = %v; want MZ", out["kind"])
	}
	if _, ok := out["ne"]; ok {
		t.Fatal("ne should be omitted when absent")
	}
	if _, ok := out["pe"]; ok {
		t.Fatal("pe should be omitted when absent")
	}
	if _, ok := out["mz"]; !ok {
		t.Fatal("mz should always be present")
	}
}

// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

import "testing"

// FuzzDecodeTablesStream exercises parseCliTables against arbitrary byte
// streams: every row shape and coded-index family should fail closed with a
// *Error rather than panic on truncated or malformed input.
func FuzzDecodeTablesStream(f *testing.F) {
	f.Add(buildTablesStream())

	var withUnknown []byte
	withUnknown = append(withUnknown, u32le(0)...)
	withUnknown = append(withUnknown, 1, 0)
	withUnknown = append(withUnknown, 0x00)
	withUnknown = append(withUnknown, 0x00)
	withUnknown = append(withUnknown, u64le(uint64(1)<<uint(TableENCLog))...)
	withUnknown = append(withUnknown, u64le(0)...)
	withUnknown = append(withUnknown, u32le(1)...)
	f.Add(withUnknown)

	f.Add([]byte{})
	f.Add([]byte{0x01, 0x02, 0x03})

	f.Fuzz(func(t *testing.T, data []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("parseCliTables panicked on input %x: %v", data, r)
			}
		}()
		_, _ = parseCliTables(data, nil)
	})
}

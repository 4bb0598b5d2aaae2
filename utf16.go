// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

import (
	"golang.org/x/text/encoding/unicode"
)

// decodeUTF16LE converts raw UTF-16LE bytes (as found in the #US heap) to a
// Go string. The decoder replaces an odd trailing byte or an ill-formed
// sequence with U+FFFD; the raw bytes are returned unconverted only if it
// reports an error. A
// fresh decoder is used per call: encoding.Decoder is stateful and heap
// lookups are documented as callable from any number of concurrent readers.
func decodeUTF16LE(b []byte) string {
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

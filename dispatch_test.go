// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

import "testing"

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Kind
	}{
		{"NE", []byte{'N', 'E', 0, 0}, KindNe},
		{"LE", []byte{'L', 'E', 0, 0}, KindLe},
		{"LX", []byte{'L', 'X', 0, 0}, KindLx},
		{"PE", []byte{'P', 'E', 0, 0}, KindPe},
		{"unknown", []byte{'Z', 'Z', 0, 0}, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCursor(tt.data)
			k, err := detectKind(c, 0)
			if err != nil {
				t.Fatalf("detectKind: %v", err)
			}
			if k != tt.want {
				t.Fatalf("detectKind = %v; want %v", k, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindPe.String() != "PE" {
		t.Fatalf("KindPe.String() = %q; want PE", KindPe.String())
	}
	if KindUnknown.String() != "Unknown" {
		t.Fatalf("KindUnknown.String() = %q; want Unknown", KindUnknown.String())
	}
}

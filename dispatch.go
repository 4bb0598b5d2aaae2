// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

// Kind identifies which executable container format an ExeImage decoded to.
type Kind int

const (
	KindMz Kind = iota
	KindNe
	KindLe
	KindLx
	KindPe
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindMz:
		return "MZ"
	case KindNe:
		return "NE"
	case KindLe:
		return "LE"
	case KindLx:
		return "LX"
	case KindPe:
		return "PE"
	default:
		return "Unknown"
	}
}

const (
	neSignature = 0x454E
	leSignature = 0x454C
	lxSignature = 0x584C
	peSignature = 0x00004550
)

// detectKind peeks a u16 and a u32 at the new-header offset and applies the
// format-dispatch rules in order: NE, then LE, then LX, then PE, else
// Unknown. It never advances the caller's cursor permanently; both peeks
// read from the same starting position.
func detectKind(src *cursor, newHeaderOffset int64) (Kind, error) {
	peek := newCursorAt(src.data, 0)
	peek.seek(newHeaderOffset)

	sig16, err := peek.readUint16()
	if err != nil {
		return KindUnknown, err
	}
	switch sig16 {
	case neSignature:
		return KindNe, nil
	case leSignature:
		return KindLe, nil
	case lxSignature:
		return KindLx, nil
	}

	peek.seek(newHeaderOffset)
	sig32, err := peek.readUint32()
	if err != nil {
		return KindUnknown, err
	}
	if sig32 == peSignature {
		return KindPe, nil
	}

	return KindUnknown, nil
}

// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

import "math/bits"

// TablesHeader is the fixed portion of the `#~`/`#-` tables stream.
type TablesHeader struct {
	Reserved0    uint32 `json:"reserved0"`
	MajorVersion uint8  `json:"major_version"`
	MinorVersion uint8  `json:"minor_version"`
	HeapSizes    uint8  `json:"heap_sizes"`
	Reserved1    uint8  `json:"reserved1"`
	ValidTables  uint64 `json:"valid_tables"`
	SortedTables uint64 `json:"sorted_tables"`
}

const (
	heapSizeWideStrings = 0x01
	heapSizeWideGUID    = 0x02
	heapSizeWideBlob    = 0x04
)

// CliTables is the fully decoded `#~` tables stream: the header, the
// ascending-order list of table ids present, their row counts keyed by
// table id, and the decoded rows for each.
type CliTables struct {
	Header        TablesHeader            `json:"header"`
	ValidTableIDs []TableID                `json:"valid_table_ids"`
	RowCounts     map[TableID]uint32       `json:"row_counts"`
	widths        widthPolicy

	Rows map[TableID]interface{} `json:"rows"`
}

// widthPolicy records, once per load, whether each heap and each
// single-table/coded-index family needs a 4-byte column, per §4.8.
type widthPolicy struct {
	wideStrings bool
	wideGUID    bool
	wideBlob    bool
	rowCounts   map[TableID]uint32
}

func (w widthPolicy) tableIndexWide(id TableID) bool {
	return w.rowCounts[id] > 0xFFFF
}

func (w widthPolicy) codedIndexWide(f CodedIndexFamily) bool {
	fam := familyFor(f)
	threshold := codedIndexMaxRowThreshold(fam.tagBits)
	for _, cand := range fam.candidates {
		if cand == -1 {
			continue
		}
		if w.rowCounts[TableID(cand)] > threshold {
			return true
		}
	}
	return false
}

// parseCliTables decodes the `#~` stream: header, valid_tables bit walk,
// row-count array, then one per-table decode pass using the resulting
// width policy. Grounded on
// original_source/exelib/CLI.cpp's PeCliMetadataTables::load().
func parseCliTables(raw []byte, logger *logHelper) (*CliTables, error) {
	c := newCursor(raw)

	h := TablesHeader{}
	var err error
	if h.Reserved0, err = c.readUint32(); err != nil {
		return nil, err
	}
	mv, err := c.readUint8()
	if err != nil {
		return nil, err
	}
	h.MajorVersion = mv
	mnv, err := c.readUint8()
	if err != nil {
		return nil, err
	}
	h.MinorVersion = mnv
	hs, err := c.readUint8()
	if err != nil {
		return nil, err
	}
	h.HeapSizes = hs
	r1, err := c.readUint8()
	if err != nil {
		return nil, err
	}
	h.Reserved1 = r1
	if h.ValidTables, err = c.readUint64(); err != nil {
		return nil, err
	}
	if h.SortedTables, err = c.readUint64(); err != nil {
		return nil, err
	}

	var validIDs []TableID
	for i := 0; i < 64; i++ {
		if h.ValidTables&(1<<uint(i)) != 0 {
			validIDs = append(validIDs, TableID(i))
		}
	}

	rowCounts := make(map[TableID]uint32, len(validIDs))
	for _, id := range validIDs {
		n, err := c.readUint32()
		if err != nil {
			return nil, err
		}
		rowCounts[id] = n
	}

	wp := widthPolicy{
		wideStrings: h.HeapSizes&heapSizeWideStrings != 0,
		wideGUID:    h.HeapSizes&heapSizeWideGUID != 0,
		wideBlob:    h.HeapSizes&heapSizeWideBlob != 0,
		rowCounts:   rowCounts,
	}

	tables := &CliTables{
		Header:        h,
		ValidTableIDs: validIDs,
		RowCounts:     rowCounts,
		widths:        wp,
		Rows:          map[TableID]interface{}{},
	}

	for _, id := range validIDs {
		rows, err := decodeTableRows(c, id, rowCounts[id], wp)
		if err != nil {
			return nil, err
		}
		tables.Rows[id] = rows
	}

	return tables, nil
}

// bitCount is a small helper kept for parity with the original's
// count_set_bits; nothing in the package calls it.
func bitCount(mask uint64) int { return bits.OnesCount64(mask) }

// Package position maps byte offsets in a source file to 1-based line numbers.
package position

import "sort"

// Table holds the byte offset at which every line of a file starts.
// It is immutable once built and safe for concurrent reads.
type Table struct {
	starts []uint32
	size   uint32
}

// NewTable builds the line-start table for src. The first line always starts
// at offset 0; every '\n' begins a new line.
func NewTable(src []byte) *Table {
	starts := make([]uint32, 1, len(src)/32+1)
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return &Table{starts: starts, size: uint32(len(src))}
}

// Line returns the 1-based line containing offset. Offsets past the end of
// the file resolve to the last line.
func (t *Table) Line(offset uint32) int {
	if offset > t.size {
		offset = t.size
	}
	// First start strictly greater than offset; the line is the one before it.
	i := sort.Search(len(t.starts), func(i int) bool { return t.starts[i] > offset })
	return i
}

// Span returns the lines of the half-open byte range [start, end).
// A range ending right after a newline is reported on the line it closes.
func (t *Table) Span(start, end uint32) (line, endLine int) {
	line = t.Line(start)
	if end > start {
		endLine = t.Line(end - 1)
	} else {
		endLine = line
	}
	return line, endLine
}

// Lines returns the number of lines in the file.
func (t *Table) Lines() int {
	return len(t.starts)
}

package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLine(t *testing.T) {
	src := []byte("class A {\n  func f() {}\n}\n")
	table := NewTable(src)

	tests := []struct {
		name   string
		offset uint32
		want   int
	}{
		{"start of file", 0, 1},
		{"end of first line", 9, 1},
		{"first byte of second line", 10, 2},
		{"inside second line", 14, 2},
		{"closing brace", 24, 3},
		{"past end clamps", 1000, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Line(tt.offset))
		})
	}
}

func TestSpan(t *testing.T) {
	src := []byte("a\nbb\nccc\n")
	table := NewTable(src)

	line, end := table.Span(2, 8)
	assert.Equal(t, 2, line)
	assert.Equal(t, 3, end)

	line, end = table.Span(2, 5)
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, end, "range ending after newline stays on the closed line")

	line, end = table.Span(4, 4)
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, end)
}

func TestLines(t *testing.T) {
	assert.Equal(t, 1, NewTable(nil).Lines())
	assert.Equal(t, 1, NewTable([]byte("no newline")).Lines())
	assert.Equal(t, 3, NewTable([]byte("a\nb\n")).Lines())
}

package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"yaml", FormatYAML},
		{"YML", FormatYAML},
		{"", FormatText},
		{"html", FormatText},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFormat(tt.input))
		})
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	f, err := NewFormatter(FormatJSON, path, true)
	require.NoError(t, err)
	assert.False(t, f.Colored(), "file output is never colored")
	require.NoError(t, f.Output(map[string]int{"unused": 2}))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"unused": 2}`, string(data))
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, filepath.Join(t.TempDir(), "missing", "dir", "out.txt"), false)
	assert.Error(t, err)
}

func TestFormatterGetters(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatMarkdown, &buf, true)
	assert.Equal(t, FormatMarkdown, f.Format())
	assert.Same(t, &buf, f.Writer())
	assert.True(t, f.Colored())
	assert.NoError(t, f.Close())
}

func sampleTable() *Table {
	return NewTable("Unused",
		[]string{"Name", "Location"},
		[][]string{
			{"run()", "A.swift Line 5 - 7"},
			{"count", "B.swift Line 2"},
		},
		[]string{"2 elements", ""},
		nil,
	)
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().RenderText(&buf, false))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Unused\n======\n"))
	assert.Contains(t, out, "run()")
	assert.Contains(t, out, "A.swift Line 5 - 7")
	assert.Contains(t, out, "2 elements")
}

func TestTableRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().RenderMarkdown(&buf))

	want := "## Unused\n\n" +
		"| Name | Location |\n" +
		"| --- | --- |\n" +
		"| run() | A.swift Line 5 - 7 |\n" +
		"| count | B.swift Line 2 |\n" +
		"| 2 elements |  |\n\n"
	assert.Equal(t, want, buf.String())
}

func TestTableRenderData(t *testing.T) {
	rows := sampleTable().RenderData().([]map[string]string)
	require.Len(t, rows, 2)
	assert.Equal(t, "run()", rows[0]["Name"])

	withData := NewTable("", nil, nil, nil, []int{1, 2})
	assert.Equal(t, []int{1, 2}, withData.RenderData())
}

type sample struct {
	Name  string `json:"name" toon:"name" yaml:"name"`
	Count int    `json:"count" toon:"count" yaml:"count"`
}

func TestFormatterOutputFormats(t *testing.T) {
	data := []sample{{Name: "greet", Count: 1}, {Name: "run", Count: 0}}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriterFormatter(FormatJSON, &buf, false).Output(data))
		var got []sample
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, data, got)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriterFormatter(FormatYAML, &buf, false).Output(data))
		var got []sample
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, data, got)
	})

	t.Run("toon", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriterFormatter(FormatTOON, &buf, false).Output(data))
		assert.Contains(t, buf.String(), "greet")
		assert.Contains(t, buf.String(), "run")
	})

	t.Run("markdown raw data is fenced json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriterFormatter(FormatMarkdown, &buf, false).Output(data))
		assert.True(t, strings.HasPrefix(buf.String(), "```json\n"))
		assert.True(t, strings.HasSuffix(buf.String(), "```\n"))
	})

	t.Run("renderable json uses RenderData", func(t *testing.T) {
		var buf bytes.Buffer
		table := NewTable("T", []string{"Name"}, [][]string{{"x"}}, nil, data)
		require.NoError(t, NewWriterFormatter(FormatJSON, &buf, false).Output(table))
		assert.Contains(t, buf.String(), `"name": "greet"`)
	})
}

func TestUsageColor(t *testing.T) {
	assert.Contains(t, UsageColor(0, "0"), "0")
	assert.Contains(t, UsageColor(1, "1"), "1")
	assert.Equal(t, "5", UsageColor(5, "5"))
}

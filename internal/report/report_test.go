package report

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/classcleaner/classcleaner/internal/output"
	"github.com/classcleaner/classcleaner/pkg/analyzer/project"
	"github.com/classcleaner/classcleaner/pkg/analyzer/usage"
	"github.com/classcleaner/classcleaner/pkg/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `class A {
    func greet(name: String) {
    }

    func run() {
        greet(name: "x")
        items.forEach { item in print(item) }
    }
}
`

func scanFixture(t *testing.T, src string) (string, *project.Snapshot, *usage.Report) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "A.swift")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	agg := project.New(project.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	snap, err := agg.Scan(context.Background(), []string{path, filepath.Join(dir, "Gone.swift")})
	require.NoError(t, err)
	return dir, snap, usage.Correlate(snap, usage.Options{})
}

func TestTreeView(t *testing.T) {
	_, snap, rep := scanFixture(t, fixture)

	view := &TreeView{Snapshot: snap, Usage: rep}
	var buf bytes.Buffer
	require.NoError(t, view.RenderText(&buf, false))

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "type A  A.swift Line 1 - 9", lines[0])
	assert.Equal(t, "  method greet(name)  A.swift Line 2 - 3  usages: 1", lines[1])
	assert.Equal(t, "  method run()  A.swift Line 5 - 8  usages: 0", lines[2])
	assert.NotContains(t, buf.String(), "closure", "closures hidden unless requested")
	assert.Contains(t, buf.String(), "1 files could not be analyzed")

	view.IncludeClosures = true
	data := view.RenderData()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kind":"closure"`)
	assert.Contains(t, string(raw), `"usages":1`)
	assert.Contains(t, string(raw), `Gone.swift`)
}

func TestTreeView_Markdown(t *testing.T) {
	_, snap, rep := scanFixture(t, fixture)

	var buf bytes.Buffer
	require.NoError(t, (&TreeView{Snapshot: snap, Usage: rep}).RenderMarkdown(&buf))
	assert.Contains(t, buf.String(), "- **type** `A` (A.swift Line 1 - 9)\n")
	assert.Contains(t, buf.String(), "  - **method** `greet(name)` (A.swift Line 2 - 3): 1 usages\n")
	assert.Contains(t, buf.String(), "## Errors")
}

func TestUnusedView(t *testing.T) {
	_, snap, rep := scanFixture(t, fixture)

	view := &UnusedView{Snapshot: snap, Usage: rep}
	items := view.items()
	require.Len(t, items, 1)
	assert.Equal(t, "run()", items[0].Description)
	assert.Equal(t, "A", items[0].Container)
	assert.Equal(t, 1, view.Count())

	view.IncludeClosures = true
	assert.Len(t, view.items(), 2)

	var buf bytes.Buffer
	require.NoError(t, output.NewWriterFormatter(output.FormatJSON, &buf, false).Output(view))
	var decoded struct {
		Unused  []UnusedItem  `json:"unused"`
		Summary usage.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Unused, 2)
	assert.Equal(t, 3, decoded.Summary.Targets)
}

func TestUnusedView_NoneFound(t *testing.T) {
	_, snap, rep := scanFixture(t, `func a() {
}

func b() {
    a()
    b()
}
`)
	var buf bytes.Buffer
	require.NoError(t, (&UnusedView{Snapshot: snap, Usage: rep}).RenderText(&buf, false))
	assert.True(t, strings.HasPrefix(buf.String(), NoUnusedMessage+"\n"))

	buf.Reset()
	require.NoError(t, (&UnusedView{Snapshot: snap, Usage: rep}).RenderMarkdown(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), NoUnusedMessage))
}

func TestCallsView(t *testing.T) {
	_, snap, rep := scanFixture(t, fixture)

	view := &CallsView{Snapshot: snap, Usage: rep}
	items := view.items()
	require.Len(t, items, 3)

	assert.Equal(t, `greet("x")`, items[0].Description)
	assert.Equal(t, "A", items[0].ClassHint)
	require.NotNil(t, items[0].Resolved)
	el, ok := snap.Element(*items[0].Resolved)
	require.True(t, ok)
	assert.Equal(t, "greet", el.Name)

	assert.Equal(t, "forEach()", items[1].Description)
	assert.Nil(t, items[1].Resolved)

	var md bytes.Buffer
	require.NoError(t, view.RenderMarkdown(&md))
	assert.Contains(t, md.String(), "| Call | Hint | Location | Resolved |")
	assert.Contains(t, md.String(), "| 3 calls |")
}

func TestFilesView(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Models", "User.swift"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	tree, err := scanner.NewScanner(nil).BuildTree(dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, (&FilesView{Tree: tree}).RenderText(&buf, false))
	want := filepath.Base(dir) + "/\n  Models/\n    User.swift\n  notes.txt\n"
	assert.Equal(t, want, buf.String())

	buf.Reset()
	require.NoError(t, (&FilesView{Tree: tree}).RenderMarkdown(&buf))
	assert.Contains(t, buf.String(), "  - Models/\n    - User.swift\n")
}

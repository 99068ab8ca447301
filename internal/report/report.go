// Package report turns scan snapshots into renderable views for the CLI.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/classcleaner/classcleaner/internal/fileproc"
	"github.com/classcleaner/classcleaner/internal/output"
	"github.com/classcleaner/classcleaner/pkg/analyzer/project"
	"github.com/classcleaner/classcleaner/pkg/analyzer/usage"
	"github.com/classcleaner/classcleaner/pkg/models"
	"github.com/classcleaner/classcleaner/pkg/scanner"
	"github.com/fatih/color"
)

// NoUnusedMessage is printed when every usage target has a usage.
const NoUnusedMessage = "No unused elements found"

// Node is the serialized form of one element in the declaration tree.
type Node struct {
	Kind        models.ElementKind `json:"kind" toon:"kind" yaml:"kind"`
	Name        string             `json:"name" toon:"name" yaml:"name"`
	Description string             `json:"description" toon:"description" yaml:"description"`
	Signature   string             `json:"signature,omitempty" toon:"signature" yaml:"signature,omitempty"`
	Location    models.Location    `json:"location" toon:"location" yaml:"location"`
	// Usages is nil for containers, which are never matched.
	Usages   *int   `json:"usages,omitempty" toon:"usages" yaml:"usages,omitempty"`
	Children []Node `json:"children,omitempty" toon:"children" yaml:"children,omitempty"`
}

// TreeView renders the declaration forest with usage counts.
type TreeView struct {
	Snapshot        *project.Snapshot
	Usage           *usage.Report
	IncludeClosures bool
}

func (v *TreeView) nodes() []Node {
	var build func(els []*models.Element) []Node
	build = func(els []*models.Element) []Node {
		var out []Node
		for _, el := range models.SortMembers(els) {
			if el.Kind == models.KindClosure && !v.IncludeClosures {
				continue
			}
			n := Node{
				Kind:        el.Kind,
				Name:        el.Name,
				Description: label(el),
				Signature:   el.Signature,
				Location:    el.Location,
				Children:    build(el.Children),
			}
			if el.Kind.IsUsageTarget() {
				count := v.Usage.Count(el.ID)
				n.Usages = &count
			}
			out = append(out, n)
		}
		return out
	}
	return build(models.SortRoots(v.Snapshot.Roots))
}

// label is the display name: containers by name, members with parameters.
func label(el *models.Element) string {
	if el.Kind.IsContainer() {
		return el.Name
	}
	if el.Kind == models.KindProperty {
		return el.Name
	}
	return el.Description()
}

func (v *TreeView) RenderData() any {
	return struct {
		Version uint64          `json:"version" toon:"version" yaml:"version"`
		Roots   []Node          `json:"roots" toon:"roots" yaml:"roots"`
		Errors  []FileErrorItem `json:"errors,omitempty" toon:"errors" yaml:"errors,omitempty"`
	}{v.Snapshot.Version, v.nodes(), fileErrors(v.Snapshot.Errors)}
}

func (v *TreeView) RenderText(w io.Writer, colored bool) error {
	var write func(nodes []Node, depth int)
	write = func(nodes []Node, depth int) {
		for _, n := range nodes {
			indent := strings.Repeat("  ", depth)
			name := n.Description
			if colored && n.Kind.IsContainer() {
				name = color.New(color.Bold).Sprint(name)
			}
			line := fmt.Sprintf("%s%s %s  %s", indent, n.Kind, name, n.Location.Label())
			if n.Usages != nil {
				count := strconv.Itoa(*n.Usages)
				if colored {
					count = output.UsageColor(*n.Usages, count)
				}
				line += "  usages: " + count
			}
			fmt.Fprintln(w, line)
			write(n.Children, depth+1)
		}
	}
	write(v.nodes(), 0)
	return renderErrorsText(w, v.Snapshot.Errors)
}

func (v *TreeView) RenderMarkdown(w io.Writer) error {
	fmt.Fprintln(w, "## Declarations")
	fmt.Fprintln(w)
	var write func(nodes []Node, depth int)
	write = func(nodes []Node, depth int) {
		for _, n := range nodes {
			line := fmt.Sprintf("%s- **%s** `%s` (%s)", strings.Repeat("  ", depth), n.Kind, n.Description, n.Location.Label())
			if n.Usages != nil {
				line += fmt.Sprintf(": %d usages", *n.Usages)
			}
			fmt.Fprintln(w, line)
			write(n.Children, depth+1)
		}
	}
	write(v.nodes(), 0)
	fmt.Fprintln(w)
	return renderErrorsMarkdown(w, v.Snapshot.Errors)
}

// UnusedItem is one usage target without matching calls.
type UnusedItem struct {
	Kind        models.ElementKind `json:"kind" toon:"kind" yaml:"kind"`
	Name        string             `json:"name" toon:"name" yaml:"name"`
	Description string             `json:"description" toon:"description" yaml:"description"`
	Container   string             `json:"container,omitempty" toon:"container" yaml:"container,omitempty"`
	Location    models.Location    `json:"location" toon:"location" yaml:"location"`
}

// UnusedView lists dead-code candidates with a usage summary.
type UnusedView struct {
	Snapshot        *project.Snapshot
	Usage           *usage.Report
	IncludeClosures bool
}

func (v *UnusedView) items() []UnusedItem {
	items := []UnusedItem{}
	for _, u := range v.Usage.Unused() {
		if u.Element.Kind == models.KindClosure && !v.IncludeClosures {
			continue
		}
		items = append(items, UnusedItem{
			Kind:        u.Element.Kind,
			Name:        u.Element.Name,
			Description: label(u.Element),
			Container:   u.Container,
			Location:    u.Element.Location,
		})
	}
	return items
}

// Count returns the number of listed elements.
func (v *UnusedView) Count() int {
	return len(v.items())
}

func (v *UnusedView) RenderData() any {
	return struct {
		Version uint64          `json:"version" toon:"version" yaml:"version"`
		Strict  bool            `json:"strict" toon:"strict" yaml:"strict"`
		Unused  []UnusedItem    `json:"unused" toon:"unused" yaml:"unused"`
		Summary usage.Summary   `json:"summary" toon:"summary" yaml:"summary"`
		Errors  []FileErrorItem `json:"errors,omitempty" toon:"errors" yaml:"errors,omitempty"`
	}{v.Snapshot.Version, v.Usage.Strict, v.items(), v.Usage.Summarize(len(v.Snapshot.Calls)), fileErrors(v.Snapshot.Errors)}
}

func (v *UnusedView) table() *output.Table {
	items := v.items()
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{string(it.Kind), it.Description, it.Container, it.Location.Label()})
	}
	s := v.Usage.Summarize(len(v.Snapshot.Calls))
	footer := []string{
		"",
		fmt.Sprintf("%d of %d unused", len(items), s.Targets),
		fmt.Sprintf("mean %.2f", s.Mean),
		fmt.Sprintf("median %.1f, max %d", s.Median, s.Max),
	}
	return output.NewTable("Unused elements", []string{"Kind", "Element", "Container", "Location"}, rows, footer, nil)
}

func (v *UnusedView) RenderText(w io.Writer, colored bool) error {
	if len(v.items()) == 0 {
		if colored {
			color.New(color.FgGreen).Fprintln(w, NoUnusedMessage)
		} else {
			fmt.Fprintln(w, NoUnusedMessage)
		}
		return renderErrorsText(w, v.Snapshot.Errors)
	}
	if err := v.table().RenderText(w, colored); err != nil {
		return err
	}
	return renderErrorsText(w, v.Snapshot.Errors)
}

func (v *UnusedView) RenderMarkdown(w io.Writer) error {
	if len(v.items()) == 0 {
		fmt.Fprintf(w, "%s\n\n", NoUnusedMessage)
		return renderErrorsMarkdown(w, v.Snapshot.Errors)
	}
	if err := v.table().RenderMarkdown(w); err != nil {
		return err
	}
	return renderErrorsMarkdown(w, v.Snapshot.Errors)
}

// FileErrorItem is the serialized form of a per-file failure.
type FileErrorItem struct {
	Path  string `json:"path" toon:"path" yaml:"path"`
	Error string `json:"error" toon:"error" yaml:"error"`
}

func fileErrors(errs []fileproc.ProcessingError) []FileErrorItem {
	if len(errs) == 0 {
		return nil
	}
	out := make([]FileErrorItem, len(errs))
	for i, e := range errs {
		out[i] = FileErrorItem{Path: e.Path, Error: e.Err.Error()}
	}
	return out
}

// CallItem is one call site with its resolution.
type CallItem struct {
	Name        string            `json:"name" toon:"name" yaml:"name"`
	ClassHint   string            `json:"class_hint,omitempty" toon:"class_hint" yaml:"class_hint,omitempty"`
	Parameters  []string          `json:"parameters,omitempty" toon:"parameters" yaml:"parameters,omitempty"`
	Description string            `json:"description" toon:"description" yaml:"description"`
	Location    models.Location   `json:"location" toon:"location" yaml:"location"`
	Resolved    *models.ElementID `json:"resolved,omitempty" toon:"resolved" yaml:"resolved,omitempty"`
}

// CallsView lists every recorded call site.
type CallsView struct {
	Snapshot *project.Snapshot
	Usage    *usage.Report
}

func (v *CallsView) items() []CallItem {
	items := make([]CallItem, len(v.Snapshot.Calls))
	for i, c := range v.Snapshot.Calls {
		items[i] = CallItem{
			Name:        c.Name,
			ClassHint:   c.ClassHint,
			Parameters:  c.Parameters,
			Description: c.Description(),
			Location:    c.Location,
		}
		if c.Parameters == nil {
			items[i].Description = c.Name
		}
		if id, ok := v.Usage.Resolved(i); ok {
			items[i].Resolved = &id
		}
	}
	return items
}

func (v *CallsView) RenderData() any {
	return v.items()
}

func (v *CallsView) table() *output.Table {
	items := v.items()
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		target := "-"
		if it.Resolved != nil {
			if el, ok := v.Snapshot.Element(*it.Resolved); ok {
				target = el.Location.String()
			}
		}
		rows = append(rows, []string{it.Description, it.ClassHint, it.Location.String(), target})
	}
	footer := []string{fmt.Sprintf("%d calls", len(items)), "", "", ""}
	return output.NewTable("Call sites", []string{"Call", "Hint", "Location", "Resolved"}, rows, footer, nil)
}

func (v *CallsView) RenderText(w io.Writer, colored bool) error {
	return v.table().RenderText(w, colored)
}

func (v *CallsView) RenderMarkdown(w io.Writer) error {
	return v.table().RenderMarkdown(w)
}

// FilesView renders the discovered file tree.
type FilesView struct {
	Tree *scanner.FileNode
}

func (v *FilesView) RenderData() any {
	return v.Tree
}

func (v *FilesView) RenderText(w io.Writer, colored bool) error {
	var write func(n *scanner.FileNode)
	write = func(n *scanner.FileNode) {
		name := n.Name
		switch {
		case n.IsFolder:
			name += "/"
			if colored {
				name = color.New(color.Bold).Sprint(name)
			}
		case !n.Recognized() && colored:
			name = color.New(color.Faint).Sprint(name)
		}
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", n.Depth), name)
		for _, c := range n.Children {
			write(c)
		}
	}
	write(v.Tree)
	return nil
}

func (v *FilesView) RenderMarkdown(w io.Writer) error {
	var write func(n *scanner.FileNode)
	write = func(n *scanner.FileNode) {
		name := n.Name
		if n.IsFolder {
			name += "/"
		}
		fmt.Fprintf(w, "%s- %s\n", strings.Repeat("  ", n.Depth), name)
		for _, c := range n.Children {
			write(c)
		}
	}
	write(v.Tree)
	fmt.Fprintln(w)
	return nil
}

func renderErrorsText(w io.Writer, errs []fileproc.ProcessingError) error {
	if len(errs) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\n%d files could not be analyzed:\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
	return nil
}

func renderErrorsMarkdown(w io.Writer, errs []fileproc.ProcessingError) error {
	if len(errs) == 0 {
		return nil
	}
	fmt.Fprintln(w, "## Errors")
	fmt.Fprintln(w)
	for _, e := range errs {
		fmt.Fprintf(w, "- `%s`\n", e.Error())
	}
	fmt.Fprintln(w)
	return nil
}

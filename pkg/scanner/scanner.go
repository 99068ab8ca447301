// Package scanner discovers Swift sources under a directory tree.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/classcleaner/classcleaner/pkg/config"
	"github.com/classcleaner/classcleaner/pkg/parser"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/sourcegraph/conc"
)

// FileType classifies a discovered file.
type FileType string

const (
	FileTypeSwift FileType = "swift"
	FileTypeOther FileType = "other"
)

func (t FileType) String() string { return string(t) }

// FileNode is one entry of the discovered tree.
type FileNode struct {
	Name     string      `json:"name" toon:"name" yaml:"name"`
	Path     string      `json:"path" toon:"path" yaml:"path"`
	IsFolder bool        `json:"is_folder" toon:"is_folder" yaml:"is_folder"`
	Type     FileType    `json:"type,omitempty" toon:"type" yaml:"type,omitempty"`
	Depth    int         `json:"depth" toon:"depth" yaml:"depth"`
	Children []*FileNode `json:"children,omitempty" toon:"children" yaml:"children,omitempty"`
}

// Recognized reports whether the node is a file the analyzer can index.
func (n *FileNode) Recognized() bool {
	return !n.IsFolder && n.Type == FileTypeSwift
}

// Entry is a discovered file tagged with whether it is recognized.
type Entry struct {
	Path       string
	Recognized bool
}

// Entries flattens the tree to files in pre-order.
func (n *FileNode) Entries() []Entry {
	var out []Entry
	var walk func(*FileNode)
	walk = func(node *FileNode) {
		if !node.IsFolder {
			out = append(out, Entry{Path: node.Path, Recognized: node.Recognized()})
			return
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// Files returns the recognized file paths in pre-order.
func (n *FileNode) Files() []string {
	var files []string
	for _, e := range n.Entries() {
		if e.Recognized {
			files = append(files, e.Path)
		}
	}
	return files
}

// Scanner finds source files in a directory.
type Scanner struct {
	config *config.Config
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// walkState is shared by the goroutines of one BuildTree call.
type walkState struct {
	root     string // absolute, symlinks resolved
	matcher  gitignore.Matcher
	gitRoot  string
	mu       sync.Mutex
	visited  map[string]struct{}
	excluder *config.Config
}

// markVisited records a directory's real path and reports whether it was new.
func (w *walkState) markVisited(real string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.visited[real]; ok {
		return false
	}
	w.visited[real] = struct{}{}
	return true
}

// BuildTree walks root and returns its folder/file tree. Hidden entries,
// excluded paths and symlinks leaving root are skipped. Each real directory
// is entered at most once, so symlink cycles terminate. Sibling directories
// are walked concurrently; children keep directory order.
func (s *Scanner) BuildTree(root string) (*FileNode, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	info, err := os.Stat(realRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	w := &walkState{
		root:     realRoot,
		visited:  make(map[string]struct{}),
		excluder: s.config,
	}
	w.loadIgnorePatterns(s.config)

	node := &FileNode{Name: filepath.Base(absRoot), Path: absRoot, IsFolder: true}
	w.markVisited(realRoot)
	w.walkDir(node, realRoot)
	return node, nil
}

// ScanDir returns the recognized files under root.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	tree, err := s.BuildTree(root)
	if err != nil {
		return nil, err
	}
	return tree.Files(), nil
}

// ScanPaths expands each path, a directory or a file, to recognized files.
// Explicit files are kept even when unrecognized so the caller can report
// them. Duplicates are dropped, first occurrence wins.
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, err
			}
			add(abs)
			continue
		}
		files, err := s.ScanDir(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return out, nil
}

func (w *walkState) walkDir(node *FileNode, realDir string) {
	entries, err := os.ReadDir(realDir)
	if err != nil {
		return
	}

	var wg conc.WaitGroup
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		path := filepath.Join(node.Path, name)
		realPath := filepath.Join(realDir, name)
		isDir := entry.IsDir()

		if entry.Type()&os.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(realPath)
			if err != nil || !isWithinRoot(resolved, w.root) {
				continue
			}
			info, err := os.Stat(resolved)
			if err != nil {
				continue
			}
			realPath = resolved
			isDir = info.IsDir()
		}

		if w.isExcluded(realPath, isDir) {
			continue
		}

		child := &FileNode{Name: name, Path: path, IsFolder: isDir, Depth: node.Depth + 1}
		if !isDir {
			child.Type = FileTypeOther
			if parser.DetectLanguage(name) == parser.LangSwift {
				child.Type = FileTypeSwift
			}
			node.Children = append(node.Children, child)
			continue
		}

		if !w.markVisited(realPath) {
			continue
		}
		node.Children = append(node.Children, child)
		wg.Go(func() {
			w.walkDir(child, realPath)
		})
	}
	wg.Wait()
}

// loadIgnorePatterns parses config patterns and, when enabled, every
// .gitignore of the enclosing git repository.
func (w *walkState) loadIgnorePatterns(cfg *config.Config) {
	var patterns []gitignore.Pattern
	for _, p := range cfg.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}

	w.gitRoot = w.root
	if cfg.Exclude.Gitignore {
		if gitRoot := findGitRoot(w.root); gitRoot != "" {
			w.gitRoot = gitRoot
			if gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil); err == nil {
				patterns = append(patterns, gitPatterns...)
			}
		}
	}
	if len(patterns) > 0 {
		w.matcher = gitignore.NewMatcher(patterns)
	}
}

func (w *walkState) isExcluded(realPath string, isDir bool) bool {
	rel, err := filepath.Rel(w.root, realPath)
	if err == nil && w.excluder.ShouldExclude(rel) {
		return true
	}
	if w.matcher == nil {
		return false
	}
	rel, err = filepath.Rel(w.gitRoot, realPath)
	if err != nil {
		return false
	}
	return w.matcher.Match(strings.Split(rel, string(filepath.Separator)), isDir)
}

// findGitRoot walks up from start looking for a .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// isWithinRoot reports whether path is root or below it.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

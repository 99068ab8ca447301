package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/classcleaner/classcleaner/pkg/analyzer/project"
	"github.com/classcleaner/classcleaner/pkg/analyzer/usage"
	"github.com/classcleaner/classcleaner/pkg/scanner"
	"github.com/classcleaner/classcleaner/pkg/watch"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch for file changes and re-analyze",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Quiet period before a rescan (default from config)",
			},
		},
		Action: runWatchCmd,
	}
}

// rescanner rebuilds the snapshot for root and prints one summary line per
// published version. Batches may overlap; the aggregator cancels the older
// scan, which then prints nothing.
type rescanner struct {
	root    string
	scan    *scanner.Scanner
	agg     *project.Aggregator
	opts    usage.Options
	colored bool

	mu  sync.Mutex
	out io.Writer
}

func (r *rescanner) rescan(ctx context.Context, changed []string) error {
	files, err := r.scan.ScanDir(r.root)
	if err != nil {
		return fmt.Errorf("failed to scan: %w", err)
	}
	snap, err := r.agg.Scan(ctx, files)
	if errors.Is(err, project.ErrSuperseded) || errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return err
	}
	r.print(snap, usage.Correlate(snap, r.opts), changed)
	return nil
}

func (r *rescanner) print(snap *project.Snapshot, rep *usage.Report, changed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sum := rep.Summarize(len(snap.Calls))
	line := fmt.Sprintf("[v%d] %d files, %d targets, %d used, %d unused, %d calls",
		snap.Version, len(snap.Files), sum.Targets, sum.Used, sum.Unused, sum.Calls)
	if len(snap.Errors) > 0 {
		line += fmt.Sprintf(", %d errors", len(snap.Errors))
	}
	if len(changed) > 0 {
		line += fmt.Sprintf(" (changed: %s", relPath(r.root, changed[0]))
		if len(changed) > 1 {
			line += fmt.Sprintf(" +%d", len(changed)-1)
		}
		line += ")"
	}

	c := color.New(color.FgGreen)
	if sum.Unused > 0 {
		c = color.New(color.FgYellow)
	}
	if !r.colored {
		c.DisableColor()
	}
	c.Fprintln(r.out, line)
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}

func runWatchCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(getPaths(c)[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	debounce := c.Duration("debounce")
	if debounce <= 0 {
		debounce = time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
	}

	watcher, err := watch.NewWatcher(absPath, cfg, debounce)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()
	watcher.SetLogger(logger(c))

	r := &rescanner{
		root:    absPath,
		scan:    scanner.NewScanner(cfg),
		agg:     newAggregator(c, cfg),
		opts:    correlateOptions(c, cfg),
		colored: cfg.Output.Color,
		out:     c.App.Writer,
	}
	defer r.agg.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.rescan(ctx, nil); err != nil {
		return err
	}

	watcher.OnChange(func(ctx context.Context, changed []string) {
		if err := r.rescan(ctx, changed); err != nil {
			color.Red("Rescan failed: %v", err)
		}
	})

	color.Cyan("Watching %s (Ctrl+C to stop)", absPath)
	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprintln(c.App.Writer, "\nStopping watch...")
	return nil
}

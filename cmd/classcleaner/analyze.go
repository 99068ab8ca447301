package main

import (
	"context"
	"fmt"

	"github.com/classcleaner/classcleaner/internal/output"
	"github.com/classcleaner/classcleaner/internal/progress"
	"github.com/classcleaner/classcleaner/internal/report"
	"github.com/classcleaner/classcleaner/pkg/analyzer"
	"github.com/classcleaner/classcleaner/pkg/analyzer/project"
	"github.com/classcleaner/classcleaner/pkg/analyzer/usage"
	"github.com/classcleaner/classcleaner/pkg/config"
	"github.com/classcleaner/classcleaner/pkg/scanner"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

// session holds one command's effective config and scan result.
type session struct {
	cfg    *config.Config
	files  []string
	snap   *project.Snapshot
	report *usage.Report
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger(c).Debug("config.loaded", "source", result.Source)
	return result.Config, nil
}

func newAggregator(c *cli.Context, cfg *config.Config) *project.Aggregator {
	return project.New(
		project.WithWorkers(cfg.Analysis.Workers),
		project.WithMaxFileSize(cfg.Analysis.MaxFileSize),
		project.WithLogger(logger(c)),
	)
}

func correlateOptions(c *cli.Context, cfg *config.Config) usage.Options {
	return usage.Options{Strict: cfg.Analysis.StrictReceiver || c.Bool("strict")}
}

func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := c.String("format")
	if format == "" {
		format = cfg.Output.Format
	}
	outPath := c.String("output")
	return output.NewFormatter(output.ParseFormat(format), outPath, cfg.Output.Color && outPath == "")
}

// scanFiles indexes files with agg, drawing a progress bar unless disabled.
func scanFiles(ctx context.Context, c *cli.Context, agg *project.Aggregator, files []string) (*project.Snapshot, error) {
	if c.Bool("no-progress") {
		return agg.Scan(ctx, files)
	}
	tracker := progress.NewTracker("Indexing Swift files...", len(files))
	snap, err := agg.Scan(analyzer.WithTracker(ctx, tracker.Analyzer()), files)
	if err != nil {
		tracker.FinishError(err)
		return nil, err
	}
	tracker.FinishSuccess()
	return snap, nil
}

// analyze discovers, indexes and correlates the command's paths. A nil
// session with a nil error means no files were found.
func analyze(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	files, err := scanner.NewScanner(cfg).ScanPaths(getPaths(c))
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	if len(files) == 0 {
		color.Yellow("No Swift files found")
		return nil, nil
	}

	agg := newAggregator(c, cfg)
	defer agg.Close()

	snap, err := scanFiles(c.Context, c, agg, files)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	return &session{
		cfg:    cfg,
		files:  files,
		snap:   snap,
		report: usage.Correlate(snap, correlateOptions(c, cfg)),
	}, nil
}

func render(c *cli.Context, cfg *config.Config, view output.Renderable) error {
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(view)
}

func treeCmd() *cli.Command {
	return &cli.Command{
		Name:      "tree",
		Usage:     "Show declared types and members with usage counts",
		ArgsUsage: "[path...]",
		Action: func(c *cli.Context) error {
			s, err := analyze(c)
			if err != nil || s == nil {
				return err
			}
			return render(c, s.cfg, &report.TreeView{
				Snapshot:        s.snap,
				Usage:           s.report,
				IncludeClosures: s.cfg.Analysis.IncludeClosures,
			})
		},
	}
}

func unusedCmd() *cli.Command {
	return &cli.Command{
		Name:      "unused",
		Aliases:   []string{"dead"},
		Usage:     "List methods, properties and closures without matching calls",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "fail",
				Usage: "Exit with an error when unused elements are found",
			},
		},
		Action: runUnusedCmd,
	}
}

func runUnusedCmd(c *cli.Context) error {
	s, err := analyze(c)
	if err != nil || s == nil {
		return err
	}
	view := &report.UnusedView{
		Snapshot:        s.snap,
		Usage:           s.report,
		IncludeClosures: s.cfg.Analysis.IncludeClosures,
	}
	if err := render(c, s.cfg, view); err != nil {
		return err
	}
	if n := view.Count(); c.Bool("fail") && n > 0 {
		return fmt.Errorf("%d unused elements", n)
	}
	return nil
}

func callsCmd() *cli.Command {
	return &cli.Command{
		Name:      "calls",
		Usage:     "List every call site with its receiver hint",
		ArgsUsage: "[path...]",
		Action: func(c *cli.Context) error {
			s, err := analyze(c)
			if err != nil || s == nil {
				return err
			}
			return render(c, s.cfg, &report.CallsView{Snapshot: s.snap, Usage: s.report})
		},
	}
}

func filesCmd() *cli.Command {
	return &cli.Command{
		Name:      "files",
		Usage:     "Show the discovered file tree",
		ArgsUsage: "[path]",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			tree, err := scanner.NewScanner(cfg).BuildTree(getPaths(c)[0])
			if err != nil {
				return fmt.Errorf("failed to scan: %w", err)
			}
			return render(c, cfg, &report.FilesView{Tree: tree})
		},
	}
}

package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "classcleaner",
		Usage:    "Find unused declarations in Swift projects",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `classcleaner indexes the types, methods, properties and closures declared
in a tree of Swift files, collects every call site, and matches calls to
declarations by name and argument count. Declarations without a matching
call are reported as dead-code candidates. Matching is heuristic: review
results before deleting code.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"CLASSCLEANER_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon, yaml (default from config)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Only count calls whose receiver hint names the declaring type",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Disable progress bars",
			},
		},
		Before: func(c *cli.Context) error {
			c.App.Metadata["logger"] = newLogger(c.App.ErrWriter, c.Bool("verbose"))
			return nil
		},
		Commands: []*cli.Command{
			treeCmd(),
			unusedCmd(),
			callsCmd(),
			filesCmd(),
			watchCmd(),
			configCmd(),
			initCmd(),
		},
	}
}

// newLogger returns the diagnostics logger. Scan events are logged at info
// level and only surface with --verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func logger(c *cli.Context) *slog.Logger {
	if l, ok := c.App.Metadata["logger"].(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

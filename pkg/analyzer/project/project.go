// Package project indexes a set of Swift files in parallel and merges the
// per-file results into one versioned snapshot.
package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/classcleaner/classcleaner/internal/fileproc"
	"github.com/classcleaner/classcleaner/pkg/analyzer"
	"github.com/classcleaner/classcleaner/pkg/analyzer/decls"
	"github.com/classcleaner/classcleaner/pkg/models"
	"github.com/classcleaner/classcleaner/pkg/parser"
)

// ErrFileTooLarge is recorded for files above the configured size limit.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// ErrSuperseded is returned by Scan when a newer scan cancelled it.
var ErrSuperseded = errors.New("scan superseded")

// Aggregator runs the declaration visitor over every file and publishes the
// merged snapshot.
type Aggregator struct {
	workers     int
	maxFileSize int64
	logger      *slog.Logger
	store       *Store
}

var _ analyzer.FileAnalyzer[*Snapshot] = (*Aggregator)(nil)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithWorkers sets the worker pool size. Values <= 0 use 2x NumCPU.
func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		a.workers = n
	}
}

// WithMaxFileSize skips files larger than n bytes. 0 disables the limit.
func WithMaxFileSize(n int64) Option {
	return func(a *Aggregator) {
		a.maxFileSize = n
	}
}

// WithLogger sets the logger for scan diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = l
	}
}

// New creates an Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		logger: slog.Default(),
		store:  &Store{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze is Scan under the analyzer interface.
func (a *Aggregator) Analyze(ctx context.Context, files []string) (*Snapshot, error) {
	return a.Scan(ctx, files)
}

// Close is a no-op; parsers are owned by the scan's workers.
func (a *Aggregator) Close() {}

// Current returns the latest published snapshot, or nil.
func (a *Aggregator) Current() *Snapshot {
	return a.store.Current()
}

// Scan indexes files and publishes the result. Starting a scan cancels any
// scan still running on this Aggregator; the cancelled scan returns
// ErrSuperseded and publishes nothing. Per-file failures never fail the scan;
// they are listed in Snapshot.Errors.
func (a *Aggregator) Scan(ctx context.Context, files []string) (*Snapshot, error) {
	parent := ctx
	ctx, version, done := a.store.begin(ctx)
	defer done()

	start := time.Now()
	a.logger.Debug("scan.start", "version", version, "files", len(files), "workers", fileproc.Workers(a.workers))

	fragments, errs := fileproc.MapFilesIndexedN(ctx, files, a.workers, func(psr *parser.Parser, path string) (*models.Fragment, error) {
		return a.indexFile(ctx, psr, path)
	})

	if err := ctx.Err(); err != nil {
		if parent.Err() != nil {
			return nil, fmt.Errorf("scan %d: %w", version, parent.Err())
		}
		a.logger.Debug("scan.superseded", "version", version)
		return nil, fmt.Errorf("scan %d: %w", version, ErrSuperseded)
	}

	fileErrs := errs.Sorted()
	for _, e := range fileErrs {
		a.logger.Warn("scan.file_error", "path", e.Path, "err", e.Err)
	}

	// Single merge point: fragments arrive in input order, so the forest and
	// call list follow file order and within-file source order.
	snap := newSnapshot(version, fragments, fileErrs)
	if !a.store.publish(snap) {
		return nil, fmt.Errorf("scan %d: %w", version, ErrSuperseded)
	}

	a.logger.Info("scan.done",
		"version", version,
		"files", len(snap.Files),
		"elements", len(snap.Arena),
		"calls", len(snap.Calls),
		"errors", len(snap.Errors),
		"elapsed", time.Since(start),
	)
	return snap, nil
}

func (a *Aggregator) indexFile(ctx context.Context, psr *parser.Parser, path string) (*models.Fragment, error) {
	if a.maxFileSize > 0 {
		if info, err := os.Stat(path); err == nil && info.Size() > a.maxFileSize {
			return nil, fmt.Errorf("%d bytes: %w", info.Size(), ErrFileTooLarge)
		}
	}
	return decls.IndexFile(ctx, psr, path)
}

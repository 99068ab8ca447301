// Package analyzer holds the pieces shared by the Swift analysis stages:
// the stage interface and scan progress tracking.
package analyzer

import "context"

// FileAnalyzer is implemented by stages that consume a set of source files.
type FileAnalyzer[T any] interface {
	// Analyze processes files and returns the stage result. Cancelling ctx
	// abandons the run; progress is reported through a Tracker in ctx.
	Analyze(ctx context.Context, files []string) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}

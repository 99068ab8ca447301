package parser

import (
	"errors"
	"fmt"
)

// Per-file failure kinds. Neither is fatal to a scan.
var (
	ErrNotASourceFile   = errors.New("not a source file")
	ErrCouldNotReadFile = errors.New("could not read file")
)

// FileError reports why a single file could not be indexed.
type FileError struct {
	Path string
	Kind error // ErrNotASourceFile or ErrCouldNotReadFile
	Err  error // underlying cause, if any
}

func (e *FileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Kind)
}

// Is reports whether target is the error's kind.
func (e *FileError) Is(target error) bool {
	return target == e.Kind
}

func (e *FileError) Unwrap() error {
	return e.Err
}

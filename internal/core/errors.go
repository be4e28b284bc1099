package core

import "errors"

// Loader and parsing failures. Callers match them with errors.Is; the
// concrete engine error is wrapped alongside.
var (
	ErrFileNotFound      = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrMissingDependency = errors.New("missing spreadsheet decoder")
	ErrRead              = errors.New("read spreadsheet")
	ErrParse             = errors.New("parse cell")
)

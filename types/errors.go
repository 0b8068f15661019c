package types

import (
	"errors"
	"fmt"
)

// Error taxonomy for the ingestion and extraction pipeline. Callers branch
// with errors.Is; wrapped causes stay reachable through errors.Unwrap.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrGenerationFailed  = errors.New("generation failed")
	ErrSchemaViolation   = errors.New("schema violation")
	ErrConversionTimeout = errors.New("conversion timeout")
)

// ParseError wraps a parser-internal failure with the file it came from.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError wraps err as a parse failure for path.
func NewParseError(path string, err error) error {
	return &ParseError{Path: path, Err: err}
}

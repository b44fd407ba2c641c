package ingest

import "errors"

// Sentinel errors.
var (
	// ErrMissingInput is fatal: the input directory is absent or a source
	// cannot supply the required columns.
	ErrMissingInput = errors.New("missing input")
	ErrReadSource   = errors.New("read source")
)

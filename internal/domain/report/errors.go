package report

import "errors"

// ErrRender wraps backend failures for a single student. It is scoped: other
// students' reports are unaffected.
var ErrRender = errors.New("render report")

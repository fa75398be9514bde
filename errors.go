package sheetsync

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrMissingSpreadsheet = errors.New("spreadsheetId is required")
	ErrRaggedRows         = errors.New("rows must all have the width of the header row")
)

// ErrorKind is the stable discriminant reported to callers for a failed sync.
// Kinds are string based so they serialize naturally into JSON responses.
type ErrorKind string

const (
	// KindInvalidRequest indicates the request body is malformed or incomplete.
	KindInvalidRequest ErrorKind = "INVALID_REQUEST"

	// KindDocumentNotFound indicates the spreadsheet id does not resolve to a document.
	KindDocumentNotFound ErrorKind = "DOCUMENT_NOT_FOUND"

	// KindAccessDenied indicates the executing identity may not open the document.
	KindAccessDenied ErrorKind = "ACCESS_DENIED"

	// KindWriteFailed covers every failure after the document was resolved.
	KindWriteFailed ErrorKind = "WRITE_FAILED"
)

// Error is a failed sync step. The message of the wrapped error is preserved.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError wraps err with op, classifying it unless it already carries a kind.
func newError(op string, err error) *Error {
	return &Error{Kind: KindOf(err), Op: op, Err: err}
}

// KindOf classifies err. Errors without a recognised cause are write failures.
func KindOf(err error) ErrorKind {
	var e *Error
	switch {
	case errors.As(err, &e):
		return e.Kind
	case errors.Is(err, ErrDocumentNotFound):
		return KindDocumentNotFound
	case errors.Is(err, ErrAccessDenied):
		return KindAccessDenied
	case errors.Is(err, ErrMissingSpreadsheet), errors.Is(err, ErrRaggedRows):
		return KindInvalidRequest
	default:
		return KindWriteFailed
	}
}

package extractor

import (
	"errors"
	"fmt"
)

// Document-level failures. They are always wrapped in a *DocumentError.
var (
	ErrNotFound   = errors.New("file not found")
	ErrNotPDF     = errors.New("not a PDF file")
	ErrNoPages    = errors.New("document has no pages")
	ErrUnreadable = errors.New("no readable text")
)

// DocumentError reports a statement that could not be turned into page text.
// Message is written for the person who uploaded the file; Err keeps the
// underlying cause for logs and errors.Is checks.
type DocumentError struct {
	Path    string
	Message string
	Err     error
}

func (e *DocumentError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

func docError(path, msg string, err error) *DocumentError {
	return &DocumentError{Path: path, Message: msg, Err: err}
}

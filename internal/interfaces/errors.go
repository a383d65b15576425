package interfaces

import (
	"errors"
	"fmt"
)

// ErrEmptySelection is returned by export operations given an empty page sequence.
var ErrEmptySelection = errors.New("no pages selected")

// ErrInvalidRange is returned when a page range expression selects no pages.
var ErrInvalidRange = errors.New("page range selects no pages")

// ErrNoSession is returned by the persistence bridge when no prior session exists.
var ErrNoSession = errors.New("no saved session")

// ErrPageNotFound is returned when an operation targets a page id that is no
// longer part of the sequence.
var ErrPageNotFound = errors.New("page not found")

// DocumentParseError indicates the supplied bytes are not a well-formed
// document. Not retryable.
type DocumentParseError struct {
	DocumentID string
	Name       string
	Err        error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("failed to parse document %q: %v", e.Name, e.Err)
}

func (e *DocumentParseError) Unwrap() error { return e.Err }

// PasswordProtectedError indicates the document cannot be opened without
// credentials. Recoverable: the caller may retry with a password. Retry is
// true when a credential attempt has already failed.
type PasswordProtectedError struct {
	DocumentID string
	Name       string
	Retry      bool
}

func (e *PasswordProtectedError) Error() string {
	if e.Retry {
		return fmt.Sprintf("document %q: wrong password", e.Name)
	}
	return fmt.Sprintf("document %q is password protected", e.Name)
}

// SourceNotFoundError indicates a page references a document missing from the
// supplied document map. A contract violation by the caller, but export
// operations still fail gracefully without emitting partial output.
type SourceNotFoundError struct {
	DocumentID string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source document %s not found", e.DocumentID)
}

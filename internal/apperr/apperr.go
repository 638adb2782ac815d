// Package apperr defines the error taxonomy shared by the ingestion pipeline,
// the dataset store, and the HTTP layer. Every user-visible failure carries
// exactly one Kind so the intake layer can map it to a status code and
// forward the message verbatim.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	UnsupportedFileType Kind = "unsupported_file_type"
	PayloadTooLarge     Kind = "payload_too_large"
	MalformedDocument   Kind = "malformed_document"
	InvalidGeoJSON      Kind = "invalid_geojson"
	DuplicateName       Kind = "duplicate_name"
	NotFound            Kind = "not_found"
	StoreFailure        Kind = "store_failure"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf classifies any error. Untyped errors fall through to StoreFailure,
// the taxonomy's catch-all for persistence faults.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return StoreFailure
}

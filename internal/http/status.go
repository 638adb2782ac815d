package http

import (
	"net/http"

	"github.com/Datolla/geospot-react/internal/apperr"
)

// statusForError maps the error taxonomy to HTTP status codes. The error
// message itself is forwarded verbatim in the response body.
func statusForError(err error) int {
	switch apperr.KindOf(err) {
	case apperr.UnsupportedFileType, apperr.MalformedDocument, apperr.InvalidGeoJSON:
		return http.StatusBadRequest
	case apperr.PayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case apperr.DuplicateName:
		return http.StatusConflict
	case apperr.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

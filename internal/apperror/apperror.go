// Package apperror names the error kinds the HLS video session subsystem
// can raise and the HTTP status each maps to, per the error handling design.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the error kinds named in the error handling design.
type Kind int

const (
	KindMalformedPlist Kind = iota
	KindMissingField
	KindWrongType
	KindNoSuchSession
	KindUnsupportedContentLocation
	KindFPVersionUnsupported
	KindReverseAlreadyUpgraded
	KindCapacityExceeded
	KindDuplicateMediaPlaylist
	KindMalformedResponse
	KindPlayerFinished
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindMalformedPlist:
		return "malformed_plist"
	case KindMissingField:
		return "missing_field"
	case KindWrongType:
		return "wrong_type"
	case KindNoSuchSession:
		return "no_such_session"
	case KindUnsupportedContentLocation:
		return "unsupported_content_location"
	case KindFPVersionUnsupported:
		return "fp_version_unsupported"
	case KindReverseAlreadyUpgraded:
		return "reverse_already_upgraded"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	case KindDuplicateMediaPlaylist:
		return "duplicate_media_playlist"
	case KindMalformedResponse:
		return "malformed_response"
	case KindPlayerFinished:
		return "player_reports_finished"
	default:
		return "internal"
	}
}

// HTTPStatus returns the response status the handlers must emit for Kind.
// capacity_exceeded and duplicate_media_playlist are never surfaced to the
// client by definition — they are handled internally — so they fall back to
// 500 if ever serialized by mistake.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindMalformedPlist, KindMissingField, KindWrongType, KindNoSuchSession, KindUnsupportedContentLocation:
		return http.StatusBadRequest
	case KindFPVersionUnsupported:
		return http.StatusMisdirectedRequest
	case KindReverseAlreadyUpgraded:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is an apperror.Kind carrying a human-readable cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error.
func New(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

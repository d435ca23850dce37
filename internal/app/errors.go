package app

import (
	"errors"

	"studyhub/pkg/auth"
)

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not match.
	// This message is intended to be shown to end users and should not enable account enumeration.
	ErrInvalidCredentials = errors.New("Incorrect email address or password")

	ErrEmailAndPasswordRequired = errors.New("email and password required")
	ErrEmailAlreadyExists       = errors.New("email already exists")
	ErrEmailNotInstitutional    = errors.New("email must be an institutional address")
	ErrInvalidEmail             = errors.New("invalid email address")
	ErrInvalidName              = errors.New("invalid name")

	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")

	ErrInvalidTitle        = errors.New("invalid title")
	ErrInvalidContent      = errors.New("content missing or too long")
	ErrInvalidPriority     = errors.New("invalid priority")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidDay          = errors.New("invalid day of week")
	ErrInvalidTimeRange    = errors.New("invalid time range")
	ErrInvalidTopic        = errors.New("invalid topic")
	ErrInvalidDuration     = errors.New("duration must be positive")
	ErrInvalidProductivity = errors.New("productivity must be between 1 and 5")
	ErrInvalidMessage      = errors.New("message missing or too long")
	ErrSuspiciousInput     = errors.New("message contains disallowed content")

	ErrInvalidFilename  = errors.New("invalid filename")
	ErrInvalidFileType  = errors.New("unsupported file type")
	ErrInvalidFileSize  = errors.New("file is empty or exceeds the size limit")
	ErrMaliciousContent = errors.New("file content failed the safety check")
	ErrTooManyTags      = errors.New("too many tags or tag too long")
)

// userErrors lists every sentinel whose message is safe to show to clients.
// Anything outside this list (and the auth/not-found/conflict sentinels the
// HTTP layer maps itself) is a downstream failure: log it, never echo it.
var userErrors = []error{
	ErrEmailAndPasswordRequired,
	ErrEmailNotInstitutional,
	ErrInvalidEmail,
	ErrInvalidName,
	ErrInvalidTitle,
	ErrInvalidContent,
	ErrInvalidPriority,
	ErrInvalidStatus,
	ErrInvalidDay,
	ErrInvalidTimeRange,
	ErrInvalidTopic,
	ErrInvalidDuration,
	ErrInvalidProductivity,
	ErrInvalidMessage,
	ErrSuspiciousInput,
	ErrInvalidFilename,
	ErrInvalidFileType,
	ErrInvalidFileSize,
	ErrMaliciousContent,
	ErrTooManyTags,
	auth.ErrPasswordPolicy,
}

// IsUserError reports whether err carries a client-facing validation message.
func IsUserError(err error) bool {
	for _, sentinel := range userErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

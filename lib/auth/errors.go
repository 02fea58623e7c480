package auth

import "errors"

var (
	// ErrConfiguration is returned, before any request is made, when the
	// active strategy is missing a required field.
	ErrConfiguration = errors.New("invalid auth configuration")
	// ErrUnsupportedStrategy is returned for strategies the authority cannot
	// acquire sessions with.
	ErrUnsupportedStrategy = errors.New("invalid authentication type")
	// ErrUnexpectedStatus is returned when a page that must load, like the
	// login form, answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

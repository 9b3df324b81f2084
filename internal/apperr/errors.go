package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrNoUser      = errors.New("no user id")
	ErrUnavailable = errors.New("remote unavailable")
)

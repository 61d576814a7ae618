package firestore

import "errors"

var (
	ErrNotFound      = errors.New("document not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUnavailable   = errors.New("remote store unavailable")
	ErrNoCredentials = errors.New("no credentials configured")
)

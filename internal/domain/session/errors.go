package session

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionInactive = errors.New("session is no longer active")
	ErrInvalidPassword = errors.New("invalid password")
	ErrFileNotFound    = errors.New("file not found")
)

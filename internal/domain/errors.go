package domain

import "errors"

var (
	ErrNotConfigured   = errors.New("backend not configured")
	ErrNotFound        = errors.New("not found")
	ErrInvalidCategory = errors.New("invalid category")
	ErrPollClosed      = errors.New("poll is closed")
	ErrUnknownOption   = errors.New("unknown poll option")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidPoll     = errors.New("invalid poll")
)

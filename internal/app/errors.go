package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrInvalidEvent = errors.New("invalid event submission")
	ErrNotStarted   = errors.New("service not started")
)

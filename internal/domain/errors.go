package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrMethodNotFound = errors.New("rpc method not found")
	ErrUnavailable    = errors.New("backend unavailable")
	ErrInFlight       = errors.New("request with this Idempotency-Key is still in progress")
)

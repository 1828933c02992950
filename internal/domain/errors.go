package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrNotImplemented     = errors.New("not implemented")
	ErrUnsupportedNetwork = errors.New("unsupported network")
	ErrBadCallResult      = errors.New("unexpected contract call result")
	ErrRateLimited        = errors.New("rate limited")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrContextDone        = errors.New("context cancelled")
)

package expiringmap

import "errors"

var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNotFound             = errors.New("entry not found")
	ErrUnsupportedOperation = errors.New("operation requires variable expiration")
)

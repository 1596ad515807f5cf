package models

import "errors"

var (
	// data errors: the tick fails and is retried on schedule
	ErrDataUnavailable = errors.New("market data unavailable")
	ErrMalformedBar    = errors.New("malformed bar")

	// configuration errors: fatal at start only
	ErrInvalidConfig      = errors.New("invalid bot config")
	ErrMissingCredentials = errors.New("missing execution credentials")

	ErrAlreadyRunning = errors.New("keeper already running for bot")
	ErrExecution      = errors.New("execution failed")
)

package wpdeploy

import "github.com/pkg/errors"

// Error kinds reported to the operator. Callers compare with errors.Cause.
var (
	ErrUnknownEnvironment   = errors.New("unknown environment")
	ErrMissingSource        = errors.New("missing source environment argument")
	ErrMissingDestination   = errors.New("missing destination environment argument")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrDumpNotFound         = errors.New("dump not found")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

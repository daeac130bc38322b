package domain

import "errors"

// Setup errors are fatal: they are reported before any document is processed.
var (
	ErrInputDirNotFound  = errors.New("input directory not found")
	ErrOutputNotWritable = errors.New("output path is not writable")
	ErrUnconfigured      = errors.New("extraction client is not configured")
	ErrUnknownProvider   = errors.New("unknown extraction provider")
)

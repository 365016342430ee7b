package library

import "errors"

// Sentinel errors for library lookups and parsing.
var (
	ErrUnknownSequence = errors.New("unknown sequence")
	ErrUnknownTheme    = errors.New("unknown theme")
	ErrParse           = errors.New("library parse failed")
)

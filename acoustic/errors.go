package acoustic

import "errors"

var (
	// ErrInvalidGamma is returned when an interpolation weight is outside [0,1].
	ErrInvalidGamma = errors.New("acoustic: gamma must be in [0,1]")

	// ErrIncompatibleModel is returned when two models cannot be merged.
	ErrIncompatibleModel = errors.New("acoustic: incompatible model")

	// ErrMacroNotFound is returned when an HMM references an undefined macro.
	ErrMacroNotFound = errors.New("acoustic: macro not found")

	// ErrDuplicateHMM is returned when appending an HMM whose name is taken.
	ErrDuplicateHMM = errors.New("acoustic: duplicate hmm")

	// ErrHMMNotFound is returned when no HMM has the requested name.
	ErrHMMNotFound = errors.New("acoustic: hmm not found")

	// ErrInvalidName is returned for phone names that are empty or contain
	// reserved characters.
	ErrInvalidName = errors.New("acoustic: invalid phone name")

	// ErrSyntax is returned for malformed HTK-ASCII input.
	ErrSyntax = errors.New("acoustic: htk syntax error")
)

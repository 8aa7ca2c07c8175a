package models

import "errors"

// Custom errors
var (
	ErrNoData           = errors.New("no bars provided")
	ErrInsufficientData = errors.New("insufficient bars for requested analysis")
	ErrSignalMismatch   = errors.New("signal count does not match bar count")
	ErrInvalidConfig    = errors.New("invalid engine configuration")
	ErrUnknownSymbol    = errors.New("no data loaded for symbol")
)

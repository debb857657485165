package types

import (
	"errors"
	"fmt"
)

var (
	ErrLogMissing    = errors.New("savings log not found")
	ErrParseFailure  = errors.New("unparseable log block")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrNoData        = errors.New("no data")
	ErrInvalidMetric = errors.New("metric undefined")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error in field %s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// LogWriteError reports a failed append to the savings log.
type LogWriteError struct {
	Path string
	Err  error
}

func (e LogWriteError) Error() string {
	return fmt.Sprintf("failed to write to %s: %v", e.Path, e.Err)
}

func (e LogWriteError) Unwrap() error {
	return e.Err
}

// ParseError carries a block that could not be decoded and the labels
// of the required fields it lacked.
type ParseError struct {
	Block   string
	Missing []string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("parse error: missing %v", e.Missing)
}

func (e ParseError) Unwrap() error {
	return ErrParseFailure
}

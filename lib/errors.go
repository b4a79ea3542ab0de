package lib

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrCorpNotFound = errors.New("corporation not found")

// ParseError : the input is missing, unreadable or not well-formed XML
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
func (e *ParseError) Cause() error  { return e.Err }

// MissingTextError : a field element has no text (only returned in strict mode)
type MissingTextError struct {
	Record int // 0-based index of the record element
	Field  string
	Line   int
}

func (e *MissingTextError) Error() string {
	return fmt.Sprintf("record %d: field '%s' has no text (line %d)", e.Record, e.Field, e.Line)
}

// IOError : the output could not be written
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
func (e *IOError) Cause() error  { return e.Err }

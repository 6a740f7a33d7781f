package rvcfg

import (
	"errors"
	"fmt"
)

var (
	// ErrUnterminatedBlock indicates a class body, array literal or string that never closes.
	ErrUnterminatedBlock = errors.New("unterminated block")

	// ErrMalformedArrayLiteral indicates an array literal that is not a valid structured literal.
	ErrMalformedArrayLiteral = errors.New("malformed array literal")

	// ErrDepthExceeded indicates class nesting deeper than ParseOptions.MaxDepth.
	ErrDepthExceeded = errors.New("class nesting too deep")

	// ErrUnencodable indicates a value that has no textual form in the config grammar.
	ErrUnencodable = errors.New("unencodable value")
)

// snippetSize is the amount of preceding text kept in a ParseError.
const snippetSize = 100

// ParseError describes a fatal parse failure.
type ParseError struct {
	Err     error  // Sentinel error (ErrUnterminatedBlock, ErrMalformedArrayLiteral, ErrDepthExceeded)
	Cause   error  // Underlying decoder error, if any
	Context string // Text preceding Offset
	Literal string // Offending array literal, if any
	Offset  int    // Byte offset of the last consumed character
	Line    int    // 1-based line of Offset
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err == ErrMalformedArrayLiteral {
		if e.Cause != nil {
			return fmt.Sprintf("%v at line %d (offset %d): %q: %v", e.Err, e.Line, e.Offset, e.Literal, e.Cause)
		}
		return fmt.Sprintf("%v at line %d (offset %d): %q", e.Err, e.Line, e.Offset, e.Literal)
	}

	return fmt.Sprintf("%v at line %d (offset %d) after %q", e.Err, e.Line, e.Offset, e.Context)
}

// Unwrap returns the sentinel error and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

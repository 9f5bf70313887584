package dosing

import "errors"

// ErrorKind tags a ParseError with the validation stage that rejected the
// input. Callers use the tag to decide whether an error is worth surfacing
// while the user is still mid-typing.
type ErrorKind string

const (
	ErrFormat    ErrorKind = "format"
	ErrAmount    ErrorKind = "amount"
	ErrRoute     ErrorKind = "route"
	ErrUnit      ErrorKind = "unit"
	ErrSubstance ErrorKind = "substance"
	ErrUnknown   ErrorKind = "unknown"
)

// ParseError is the single failure type crossing the parser boundary. Exactly
// one is produced per failed parse; the parser never panics.
type ParseError struct {
	Kind       ErrorKind `json:"type"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	Example    string    `json:"example,omitempty"`
}

func (e *ParseError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// AsParseError extracts a ParseError from err, if it carries one.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

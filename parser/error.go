package parser

import (
	"fmt"

	"frisbee/token"
)

// Error is a structured parse failure: the offending token, a message, and
// optionally the token kind that was expected instead.
type Error struct {
	At       token.Token
	Message  string
	Expected token.Kind
}

func (e Error) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("parse error at %s: %s (expected token <%s>)", e.At, e.Message, e.Expected)
	}
	return fmt.Sprintf("parse error at %s: %s", e.At, e.Message)
}

// Offset returns the byte position the error points at, for windowed
// display.
func (e Error) Offset() int {
	return e.At.First
}

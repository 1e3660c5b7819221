/*
Package scanner defines an interface for scanners to be used with the SymboScript
parser, together with an adapter for lexmachine.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package scanner

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/symboscript"
)

// tracer traces with key 'symbo.scanner'.
func tracer() tracing.Trace {
	return tracing.Select("symbo.scanner")
}

// EOF is the token type signalling end of input.
const EOF symboscript.TokType = -1

// Tokenizer is a scanner interface.
type Tokenizer interface {
	NextToken() symboscript.Token
	SetErrorHandler(func(error))
}

// Default error reporting function for scanners
func logError(e error) {
	tracer().Errorf("scanner error: " + e.Error())
}

// --- Default tokens --------------------------------------------------------

// DefaultToken is a very unsophisticated token type, used by the lexmachine
// scanner.
type DefaultToken struct {
	kind   symboscript.TokType
	lexeme string
	Val    interface{}
	span   symboscript.Span
}

// MakeDefaultToken creates a token from its components.
func MakeDefaultToken(typ symboscript.TokType, lexeme string, span symboscript.Span) DefaultToken {
	return DefaultToken{
		kind:   typ,
		lexeme: lexeme,
		span:   span,
	}
}

func (t DefaultToken) TokType() symboscript.TokType {
	return t.kind
}

func (t DefaultToken) Value() interface{} {
	return t.Val
}

func (t DefaultToken) Lexeme() string {
	return t.lexeme
}

func (t DefaultToken) Span() symboscript.Span {
	return t.span
}

func (t DefaultToken) String() string {
	return fmt.Sprintf("<tok %d %q %v>", t.kind, t.lexeme, t.span)
}

package syntax

import (
	"fmt"
	"strings"
	"sync"

	"github.com/npillmayer/symboscript"
	"github.com/npillmayer/symboscript/scanner"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// Token types of SymboScript.
const (
	EOF = scanner.EOF

	Ident symboscript.TokType = iota + 1
	Number
	String

	// punctuation
	Semicolon
	Comma
	Colon
	Dot
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket

	// operators
	Plus
	Minus
	Star
	Slash
	Caret
	Percent
	DotDot
	Amp
	Pipe
	Tilde
	ShiftLeft
	ShiftRight
	PlusPlus
	MinusMinus
	Question
	Bang
	AmpAmp
	PipePipe
	Assign
	ColonAssign
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	CaretAssign
	PercentAssign
	Equal
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual

	// keywords
	KwLet
	KwFn
	KwAsync
	KwScope
	KwContext
	KwIf
	KwElse
	KwWhile
	KwLoop
	KwFor
	KwIn
	KwReturn
	KwThrow
	KwBreak
	KwContinue
	KwYield
	KwImport
	KwAs
	KwTry
	KwCatch
	KwTrue
	KwFalse
	KwNone
	KwAwait
	KwDelete
	KwNew
	KwAnd
	KwOr
	KwXor
	KwNot
	KwBand
	KwBor
	KwBxor
	KwBnot
)

var operators = map[string]symboscript.TokType{
	";": Semicolon, ",": Comma, ":": Colon, ".": Dot,
	"(": LParen, ")": RParen, "{": LBrace, "}": RBrace, "[": LBracket, "]": RBracket,
	"+": Plus, "-": Minus, "*": Star, "/": Slash, "^": Caret, "%": Percent,
	"..": DotDot, "&": Amp, "|": Pipe, "~": Tilde, "<<": ShiftLeft, ">>": ShiftRight,
	"++": PlusPlus, "--": MinusMinus, "?": Question, "!": Bang, "&&": AmpAmp, "||": PipePipe,
	"=": Assign, ":=": ColonAssign, "+=": PlusAssign, "-=": MinusAssign, "*=": StarAssign,
	"/=": SlashAssign, "^=": CaretAssign, "%=": PercentAssign,
	"==": Equal, "!=": NotEqual, "<": Less, "<=": LessEqual, ">": Greater, ">=": GreaterEqual,
}

var keywords = map[string]symboscript.TokType{
	"let": KwLet, "fn": KwFn, "async": KwAsync, "scope": KwScope, "context": KwContext,
	"if": KwIf, "else": KwElse, "while": KwWhile, "loop": KwLoop, "for": KwFor, "in": KwIn,
	"return": KwReturn, "throw": KwThrow, "break": KwBreak, "continue": KwContinue,
	"yield": KwYield, "import": KwImport, "as": KwAs, "try": KwTry, "catch": KwCatch,
	"true": KwTrue, "false": KwFalse, "None": KwNone,
	"await": KwAwait, "delete": KwDelete, "new": KwNew,
	"and": KwAnd, "or": KwOr, "xor": KwXor, "not": KwNot,
	"band": KwBand, "bor": KwBor, "bxor": KwBxor, "bnot": KwBnot,
}

var tokenNames map[symboscript.TokType]string

// TokenName returns a printable name for a token type.
func TokenName(t symboscript.TokType) string {
	initTokens()
	switch t {
	case EOF:
		return "end of input"
	case Ident:
		return "identifier"
	case Number:
		return "number"
	case String:
		return "string"
	}
	if n, ok := tokenNames[t]; ok {
		return "`" + n + "`"
	}
	return fmt.Sprintf("token(%d)", int(t))
}

var tokenIds map[string]int // A map from the token names to their token types
var adapter *scanner.LMAdapter
var adapterErr error

var initOnce sync.Once // monitors one-time initialization
func initTokens() {
	initOnce.Do(func() {
		tokenIds = make(map[string]int)
		tokenNames = make(map[symboscript.TokType]string)
		tokenIds["ID"] = int(Ident)
		tokenIds["NUM"] = int(Number)
		tokenIds["STRING"] = int(String)
		var literals, kws []string
		for lit, t := range operators {
			tokenIds[lit] = int(t)
			tokenNames[t] = lit
			literals = append(literals, lit)
		}
		for kw, t := range keywords {
			tokenIds[kw] = int(t)
			tokenNames[t] = kw
			kws = append(kws, kw)
		}
		init := func(lexer *lexmachine.Lexer) {
			lexer.Add([]byte(`//[^\n]*`), scanner.Skip)
			lexer.Add([]byte(`/\*([^*]|(\*+[^*/]))*\*+/`), scanner.Skip)
			lexer.Add([]byte(`"([^"\\]|(\\.))*"`), makeToken("STRING"))
			lexer.Add([]byte(`'([^'\\]|(\\.))*'`), makeToken("STRING"))
			lexer.Add([]byte(`([a-z]|[A-Z]|_)([a-z]|[A-Z]|[0-9]|_)*`), makeToken("ID"))
			lexer.Add([]byte(`[0-9]+(\.[0-9]+)?`), makeToken("NUM"))
			lexer.Add([]byte(`\.[0-9]+`), makeToken("NUM"))
			lexer.Add([]byte(`( |\t|\n|\r)+`), scanner.Skip)
		}
		adapter, adapterErr = scanner.NewLMAdapter(init, literals, kws, tokenIds)
	})
}

func makeToken(s string) lexmachine.Action {
	id, ok := tokenIds[s]
	if !ok {
		panic(fmt.Errorf("unknown token: %s", s))
	}
	return scanner.MakeToken(s, id)
}

// Tokenize splits source into SymboScript tokens, excluding the final EOF token.
// Spans are byte offsets into source. Unrecognized input results in an error of
// kind symboscript.Lexical, reporting the first offending position.
func Tokenize(source string) ([]symboscript.Token, error) {
	initTokens()
	if adapterErr != nil {
		return nil, adapterErr
	}
	scan, err := adapter.Scanner(source)
	if err != nil {
		return nil, err
	}
	var lexErr *symboscript.Error
	scan.SetErrorHandler(func(e error) {
		tracer().Debugf("lexical error: %v", e)
		if lexErr != nil {
			return
		}
		span := symboscript.Span{}
		if ui, ok := e.(*machines.UnconsumedInput); ok {
			span = symboscript.Span{uint64(ui.StartTC), uint64(ui.FailTC)}
			if span.Len() == 0 {
				span[1]++
			}
		}
		lexErr = symboscript.Errorf(symboscript.Lexical, span, "unexpected input %q",
			excerpt(source, span))
	})
	var tokens []symboscript.Token
	for {
		token := scan.NextToken()
		if token.TokType() == EOF {
			break
		}
		tokens = append(tokens, token)
	}
	if lexErr != nil {
		return tokens, lexErr
	}
	return tokens, nil
}

func excerpt(source string, span symboscript.Span) string {
	from, to := int(span.From()), int(span.To())
	if to > len(source) {
		to = len(source)
	}
	if from > to {
		from = to
	}
	return source[from:to]
}

// unquote removes the quotes of a string lexeme and resolves escape sequences.
func unquote(lexeme string) string {
	if len(lexeme) < 2 {
		return lexeme
	}
	s := lexeme[1 : len(lexeme)-1]
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

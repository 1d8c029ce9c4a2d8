package lexer

import (
	"fmt"

	"github.com/raphamorim/jam/internal/diagnostics"
	"github.com/raphamorim/jam/internal/source"
	"github.com/raphamorim/jam/internal/tokens"
)

// Lexer scans Jam source bytes into a token stream in a single pass.
// Lookahead never exceeds two characters (peek and peekNext).
type Lexer struct {
	sourceCode  []byte
	Tokens      []tokens.Token
	current     int
	line        int
	diagnostics *diagnostics.DiagnosticBag
	FilePath    string
	aborted     bool
}

// New creates a lexer over the given source content.
func New(filepath, content string, diag *diagnostics.DiagnosticBag) *Lexer {
	return &Lexer{
		sourceCode:  []byte(content),
		Tokens:      make([]tokens.Token, 0),
		current:     0,
		line:        1,
		diagnostics: diag,
		FilePath:    filepath,
	}
}

func (lex *Lexer) atEOF() bool {
	return lex.current >= len(lex.sourceCode)
}

func (lex *Lexer) advance() byte {
	c := lex.sourceCode[lex.current]
	lex.current++
	return c
}

func (lex *Lexer) peek() byte {
	if lex.atEOF() {
		return 0
	}
	return lex.sourceCode[lex.current]
}

func (lex *Lexer) peekNext() byte {
	if lex.current+1 >= len(lex.sourceCode) {
		return 0
	}
	return lex.sourceCode[lex.current+1]
}

func (lex *Lexer) match(expected byte) bool {
	if lex.atEOF() || lex.sourceCode[lex.current] != expected {
		return false
	}
	lex.current++
	return true
}

func (lex *Lexer) push(kind tokens.TOKEN, lexeme string) {
	lex.Tokens = append(lex.Tokens, tokens.NewToken(kind, lexeme, lex.line))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

// skipWhitespace consumes spaces, carriage returns, tabs, newlines
// (counting lines) and // line comments.
func (lex *Lexer) skipWhitespace() {
	for {
		switch lex.peek() {
		case ' ', '\r', '\t':
			lex.advance()
		case '\n':
			lex.line++
			lex.advance()
		case '/':
			if lex.peekNext() == '/' {
				for lex.peek() != '\n' && !lex.atEOF() {
					lex.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

// identifier scans the remainder of an identifier-shaped word whose
// first byte is already consumed, then classifies it against the
// keyword and reserved type tables.
func (lex *Lexer) identifier() {
	start := lex.current - 1
	for isAlphaNumeric(lex.peek()) {
		lex.advance()
	}
	word := string(lex.sourceCode[start:lex.current])
	lex.push(tokens.LookupKeyword(word), word)
}

// number scans consecutive digits. The first digit (or a leading minus
// already in the buffer) is at start.
func (lex *Lexer) number(start int) {
	for isDigit(lex.peek()) {
		lex.advance()
	}
	lex.push(tokens.NUMBER_TOKEN, string(lex.sourceCode[start:lex.current]))
}

// stringLiteral scans until the closing quote. Bytes are preserved
// verbatim; there is no escape processing, so "\n" stays two bytes.
// Newlines inside the literal count toward line tracking.
func (lex *Lexer) stringLiteral() {
	start := lex.current
	startLine := lex.line

	for lex.peek() != '"' && !lex.atEOF() {
		if lex.peek() == '\n' {
			lex.line++
		}
		lex.advance()
	}

	if lex.atEOF() {
		lex.diagnostics.Add(
			diagnostics.NewError(fmt.Sprintf("unterminated string at line %d", lex.line)).
				WithCode(diagnostics.ErrUnterminatedString).
				WithPrimaryLabel(source.NewLocation(lex.FilePath, startLine), "string opened here is never closed").
				WithHelp("add a closing '\"'"),
		)
		lex.aborted = true
		return
	}

	value := string(lex.sourceCode[start:lex.current])
	lex.advance() // the closing quote

	lex.Tokens = append(lex.Tokens, tokens.NewToken(tokens.STRING_TOKEN, value, startLine))
}

func (lex *Lexer) unexpectedChar(c byte) {
	lex.diagnostics.Add(
		diagnostics.NewWarning(fmt.Sprintf("unexpected character '%c'", c)).
			WithCode(diagnostics.ErrUnexpectedChar).
			WithPrimaryLabel(source.NewLocation(lex.FilePath, lex.line), ""),
	)
}

// ScanTokens scans the whole input. The returned stream always ends in
// an EOF token carrying the final line number. Unexpected characters
// produce a side-channel diagnostic and scanning continues; an
// unterminated string aborts the scan.
func (lex *Lexer) ScanTokens() []tokens.Token {
	for !lex.atEOF() && !lex.aborted {
		lex.skipWhitespace()
		if lex.atEOF() {
			break
		}

		c := lex.advance()

		switch c {
		case '(':
			lex.push(tokens.OPEN_PAREN, "(")
		case ')':
			lex.push(tokens.CLOSE_PAREN, ")")
		case '{':
			lex.push(tokens.OPEN_CURLY, "{")
		case '}':
			lex.push(tokens.CLOSE_CURLY, "}")
		case '[':
			lex.push(tokens.OPEN_BRACKET, "[")
		case ']':
			lex.push(tokens.CLOSE_BRACKET, "]")
		case ',':
			lex.push(tokens.COMMA_TOKEN, ",")
		case ';':
			lex.push(tokens.SEMICOLON_TOKEN, ";")
		case ':':
			lex.push(tokens.COLON_TOKEN, ":")
		case '+':
			lex.push(tokens.PLUS_TOKEN, "+")
		case '"':
			lex.stringLiteral()
		case '=':
			if lex.match('=') {
				lex.push(tokens.DOUBLE_EQUAL_TOKEN, "==")
			} else {
				lex.push(tokens.EQUALS_TOKEN, "=")
			}
		case '!':
			if lex.match('=') {
				lex.push(tokens.NOT_EQUAL_TOKEN, "!=")
			} else {
				// lone '!' is not an operator in this dialect
				lex.unexpectedChar(c)
			}
		case '<':
			if lex.match('=') {
				lex.push(tokens.LESS_EQUAL_TOKEN, "<=")
			} else {
				lex.push(tokens.LESS_TOKEN, "<")
			}
		case '>':
			if lex.match('=') {
				lex.push(tokens.GREATER_EQUAL_TOKEN, ">=")
			} else {
				lex.push(tokens.GREATER_TOKEN, ">")
			}
		case '-':
			if lex.match('>') {
				lex.push(tokens.ARROW_TOKEN, "->")
			} else if isDigit(lex.peek()) {
				// the minus is part of the number lexeme
				lex.number(lex.current - 1)
			} else {
				lex.push(tokens.MINUS_TOKEN, "-")
			}
		default:
			if isDigit(c) {
				lex.number(lex.current - 1)
			} else if isAlpha(c) {
				lex.identifier()
			} else {
				lex.unexpectedChar(c)
			}
		}
	}

	lex.push(tokens.EOF_TOKEN, "")
	return lex.Tokens
}

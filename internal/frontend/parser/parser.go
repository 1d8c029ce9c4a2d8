package parser

import (
	"fmt"
	"strconv"

	"github.com/raphamorim/jam/internal/diagnostics"
	"github.com/raphamorim/jam/internal/frontend/ast"
	"github.com/raphamorim/jam/internal/source"
	"github.com/raphamorim/jam/internal/tokens"
)

// Parser holds temporary state during parsing of a single file.
// Parsing is recursive descent with four expression levels:
// expression -> comparison -> addition -> primary. The first failed
// expectation aborts the parse.
type Parser struct {
	tokens      []tokens.Token
	current     int
	diagnostics *diagnostics.DiagnosticBag
	filepath    string
	failed      bool
}

// Parse builds the ordered function list from a token stream.
func Parse(toks []tokens.Token, filepath string, diag *diagnostics.DiagnosticBag) []*ast.Function {
	p := &Parser{
		tokens:      toks,
		current:     0,
		diagnostics: diag,
		filepath:    filepath,
	}

	functions := make([]*ast.Function, 0)
	for !p.isAtEnd() && !p.failed {
		fn := p.parseFunction()
		if fn != nil {
			functions = append(functions, fn)
		}
	}
	return functions
}

func (p *Parser) peek() tokens.Token {
	return p.tokens[p.current]
}

func (p *Parser) peekNext() tokens.Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+1]
}

func (p *Parser) previous() tokens.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == tokens.EOF_TOKEN
}

func (p *Parser) advance() tokens.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(kind tokens.TOKEN) bool {
	if p.isAtEnd() {
		return kind == tokens.EOF_TOKEN
	}
	return p.peek().Kind == kind
}

func (p *Parser) match(kind tokens.TOKEN) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

// consume expects the next token to be of the given kind. A mismatch
// adds a diagnostic and aborts the parse.
func (p *Parser) consume(kind tokens.TOKEN, msg string) tokens.Token {
	if p.check(kind) {
		return p.advance()
	}
	p.error(msg)
	return p.peek()
}

func (p *Parser) error(msg string) {
	if p.failed {
		return
	}
	p.failed = true
	tok := p.peek()
	p.diagnostics.Add(
		diagnostics.NewError(msg).
			WithCode(diagnostics.ErrUnexpectedToken).
			WithPrimaryLabel(source.NewLocation(p.filepath, tok.Line), fmt.Sprintf("found %q", tok.Lexeme)),
	)
}

// parseFunction: [extern|export] 'fn' IDENT '(' params? ')' ('->' type)?
// (';' | '{' stmt* '}'). The prefix consumes one keyword at most, so a
// function can never be both extern and export.
func (p *Parser) parseFunction() *ast.Function {
	declLine := p.peek().Line

	isExtern := false
	isExport := false
	if p.match(tokens.EXTERN_TOKEN) {
		isExtern = true
	} else if p.match(tokens.EXPORT_TOKEN) {
		isExport = true
	}

	p.consume(tokens.FN_TOKEN, "expected 'fn' keyword")
	name := p.consume(tokens.IDENTIFIER_TOKEN, "expected function name").Lexeme
	p.consume(tokens.OPEN_PAREN, "expected '(' after function name")

	params := make([]ast.Param, 0)
	if !p.check(tokens.CLOSE_PAREN) && !p.failed {
		for {
			paramName := p.consume(tokens.IDENTIFIER_TOKEN, "expected parameter name").Lexeme
			p.consume(tokens.COLON_TOKEN, "expected ':' after parameter name")
			paramType := p.parseType()
			params = append(params, ast.Param{Name: paramName, Type: paramType})
			if !p.match(tokens.COMMA_TOKEN) || p.failed {
				break
			}
		}
	}

	p.consume(tokens.CLOSE_PAREN, "expected ')' after parameters")

	returnType := ""
	if p.match(tokens.ARROW_TOKEN) {
		returnType = p.parseType()
	}

	if isExtern {
		p.consume(tokens.SEMICOLON_TOKEN, "expected ';' after extern function declaration")
		return &ast.Function{
			Name:       name,
			Params:     params,
			ReturnType: returnType,
			Body:       nil,
			IsExtern:   true,
			DeclLine:   declLine,
		}
	}

	p.consume(tokens.OPEN_CURLY, "expected '{' before function body")

	body := make([]ast.Expression, 0)
	for !p.check(tokens.CLOSE_CURLY) && !p.isAtEnd() && !p.failed {
		body = append(body, p.parseExpression())
	}

	p.consume(tokens.CLOSE_CURLY, "expected '}' after function body")

	if p.failed {
		return nil
	}

	return &ast.Function{
		Name:       name,
		Params:     params,
		ReturnType: returnType,
		Body:       body,
		IsExport:   isExport,
		DeclLine:   declLine,
	}
}

// parseType: '[' ']' type | TYPE. Slice levels recurse.
func (p *Parser) parseType() string {
	if p.match(tokens.OPEN_BRACKET) {
		p.consume(tokens.CLOSE_BRACKET, "expected ']' after '['")
		return "[]" + p.parseType()
	}
	if p.match(tokens.TYPE_TOKEN) {
		return p.previous().Lexeme
	}
	p.errorWithCode(diagnostics.ErrExpectedType, "expected type")
	return ""
}

func (p *Parser) errorWithCode(code, msg string) {
	if p.failed {
		return
	}
	p.failed = true
	tok := p.peek()
	p.diagnostics.Add(
		diagnostics.NewError(msg).
			WithCode(code).
			WithPrimaryLabel(source.NewLocation(p.filepath, tok.Line), fmt.Sprintf("found %q", tok.Lexeme)),
	)
}

// parseExpression is the statement entry point for function bodies.
func (p *Parser) parseExpression() ast.Expression {
	line := p.peek().Line

	switch {
	case p.match(tokens.RETURN_TOKEN):
		value := p.parseComparison()
		p.consume(tokens.SEMICOLON_TOKEN, "expected ';' after return statement")
		return &ast.ReturnExpr{Value: value, ExprLine: line}

	case p.check(tokens.CONST_TOKEN) || p.check(tokens.VAR_TOKEN):
		isConst := p.advance().Kind == tokens.CONST_TOKEN
		name := p.consume(tokens.IDENTIFIER_TOKEN, "expected variable name").Lexeme

		typeName := "u8" // default when the annotation is omitted
		if p.match(tokens.COLON_TOKEN) {
			typeName = p.parseType()
		}

		var init ast.Expression
		if p.match(tokens.EQUALS_TOKEN) {
			init = p.parseComparison()
		}
		p.consume(tokens.SEMICOLON_TOKEN, "expected ';' after variable declaration")

		return &ast.VarDeclExpr{Name: name, Type: typeName, IsConst: isConst, Init: init, ExprLine: line}

	case p.match(tokens.IF_TOKEN):
		p.consume(tokens.OPEN_PAREN, "expected '(' after 'if'")
		cond := p.parseComparison()
		p.consume(tokens.CLOSE_PAREN, "expected ')' after if condition")

		thenBody := p.parseBlock("if")

		var elseBody []ast.Expression
		if p.match(tokens.ELSE_TOKEN) {
			elseBody = p.parseBlock("else")
		}

		return &ast.IfExpr{Cond: cond, Then: thenBody, Else: elseBody, ExprLine: line}

	case p.match(tokens.WHILE_TOKEN):
		p.consume(tokens.OPEN_PAREN, "expected '(' after 'while'")
		cond := p.parseComparison()
		p.consume(tokens.CLOSE_PAREN, "expected ')' after while condition")

		body := p.parseBlock("while")

		return &ast.WhileExpr{Cond: cond, Body: body, ExprLine: line}

	case p.match(tokens.FOR_TOKEN):
		varName := p.consume(tokens.IDENTIFIER_TOKEN, "expected variable name after 'for'").Lexeme
		p.consume(tokens.IN_TOKEN, "expected 'in' after for variable")
		start := p.parseComparison()
		p.consume(tokens.COLON_TOKEN, "expected ':' in for range")
		end := p.parseComparison()

		body := p.parseBlock("for")

		return &ast.ForExpr{VarName: varName, Start: start, End: end, Body: body, ExprLine: line}

	case p.match(tokens.BREAK_TOKEN):
		p.consume(tokens.SEMICOLON_TOKEN, "expected ';' after break")
		return &ast.BreakExpr{ExprLine: line}

	case p.match(tokens.CONTINUE_TOKEN):
		p.consume(tokens.SEMICOLON_TOKEN, "expected ';' after continue")
		return &ast.ContinueExpr{ExprLine: line}

	case p.check(tokens.IDENTIFIER_TOKEN) && p.peekNext().Kind == tokens.OPEN_PAREN:
		// call statement
		expr := p.parseComparison()
		p.consume(tokens.SEMICOLON_TOKEN, "expected ';' after function call")
		return expr
	}

	return p.parseComparison()
}

// parseBlock parses '{' stmt* '}'.
func (p *Parser) parseBlock(context string) []ast.Expression {
	p.consume(tokens.OPEN_CURLY, fmt.Sprintf("expected '{' after %s", context))
	body := make([]ast.Expression, 0)
	for !p.check(tokens.CLOSE_CURLY) && !p.isAtEnd() && !p.failed {
		body = append(body, p.parseExpression())
	}
	p.consume(tokens.CLOSE_CURLY, fmt.Sprintf("expected '}' after %s body", context))
	return body
}

// parseComparison: addition (cmp-op addition)?. At most one comparison
// operator per invocation; operators do not chain.
func (p *Parser) parseComparison() ast.Expression {
	line := p.peek().Line
	lhs := p.parseAddition()

	for _, kind := range []tokens.TOKEN{
		tokens.DOUBLE_EQUAL_TOKEN,
		tokens.NOT_EQUAL_TOKEN,
		tokens.LESS_TOKEN,
		tokens.LESS_EQUAL_TOKEN,
		tokens.GREATER_TOKEN,
		tokens.GREATER_EQUAL_TOKEN,
	} {
		if p.match(kind) {
			rhs := p.parseAddition()
			return &ast.BinaryExpr{Op: string(kind), X: lhs, Y: rhs, ExprLine: line}
		}
	}

	return lhs
}

// parseAddition: primary ('+' primary)?. Single operator, no chaining.
func (p *Parser) parseAddition() ast.Expression {
	line := p.peek().Line
	lhs := p.parsePrimary()

	if p.match(tokens.PLUS_TOKEN) {
		rhs := p.parsePrimary()
		return &ast.BinaryExpr{Op: "+", X: lhs, Y: rhs, ExprLine: line}
	}

	return lhs
}

// parsePrimary: NUMBER | TRUE | FALSE | STRING_LITERAL | '(' expr ')' |
// IDENT ('(' args? ')')?.
func (p *Parser) parsePrimary() ast.Expression {
	line := p.peek().Line

	switch {
	case p.match(tokens.NUMBER_TOKEN):
		lexeme := p.previous().Lexeme
		value, err := strconv.ParseInt(lexeme, 10, 64)
		if err != nil {
			p.errorAt(diagnostics.ErrNumberOutOfRange,
				fmt.Sprintf("integer literal %s out of 64-bit range", lexeme), p.previous().Line)
			return nil
		}
		return &ast.NumberExpr{Value: value, ExprLine: line}

	case p.match(tokens.TRUE_TOKEN):
		return &ast.BooleanExpr{Value: true, ExprLine: line}

	case p.match(tokens.FALSE_TOKEN):
		return &ast.BooleanExpr{Value: false, ExprLine: line}

	case p.match(tokens.STRING_TOKEN):
		return &ast.StringLiteralExpr{Value: p.previous().Lexeme, ExprLine: line}

	case p.match(tokens.OPEN_PAREN):
		expr := p.parseComparison()
		p.consume(tokens.CLOSE_PAREN, "expected ')' after expression")
		return expr

	case p.match(tokens.IDENTIFIER_TOKEN):
		name := p.previous().Lexeme

		if p.match(tokens.OPEN_PAREN) {
			args := make([]ast.Expression, 0)
			if !p.check(tokens.CLOSE_PAREN) && !p.failed {
				for {
					args = append(args, p.parseComparison())
					if !p.match(tokens.COMMA_TOKEN) || p.failed {
						break
					}
				}
			}
			p.consume(tokens.CLOSE_PAREN, "expected ')' after function arguments")
			return &ast.CallExpr{Callee: name, Args: args, ExprLine: line}
		}

		return &ast.VariableExpr{Name: name, ExprLine: line}
	}

	p.errorWithCode(diagnostics.ErrExpectedPrimary, "expected primary expression")
	return nil
}

func (p *Parser) errorAt(code, msg string, line int) {
	if p.failed {
		return
	}
	p.failed = true
	p.diagnostics.Add(
		diagnostics.NewError(msg).
			WithCode(code).
			WithPrimaryLabel(source.NewLocation(p.filepath, line), ""),
	)
}

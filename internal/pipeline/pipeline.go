package pipeline

import (
	"errors"
	"fmt"

	"github.com/llir/llvm/ir"

	"github.com/raphamorim/jam/internal/codegen"
	"github.com/raphamorim/jam/internal/diagnostics"
	"github.com/raphamorim/jam/internal/frontend/ast"
	"github.com/raphamorim/jam/internal/frontend/lexer"
	"github.com/raphamorim/jam/internal/frontend/parser"
	"github.com/raphamorim/jam/internal/source"
	"github.com/raphamorim/jam/internal/target"
	"github.com/raphamorim/jam/internal/tokens"
)

// Options controls a single compilation.
type Options struct {
	Target target.Target
	Debug  bool // dump the token stream
}

// Compile runs the full pipeline over one translation unit:
// bytes -> tokens -> AST -> IR. The first error at any stage halts the
// pipeline; diagnostics accumulate in bag.
func Compile(filepath, src string, opts Options, bag *diagnostics.DiagnosticBag) (*ir.Module, error) {
	bag.AddSourceContent(filepath, src)

	toks := ScanPhase(filepath, src, bag)
	if bag.HasErrors() {
		return nil, fmt.Errorf("scanning failed")
	}
	if opts.Debug {
		dumpTokens(toks)
	}

	functions := ParsePhase(toks, filepath, bag)
	if bag.HasErrors() {
		return nil, fmt.Errorf("parsing failed")
	}

	return CodegenPhase(functions, filepath, opts.Target, bag)
}

// ScanPhase tokenizes the source.
func ScanPhase(filepath, src string, bag *diagnostics.DiagnosticBag) []tokens.Token {
	lex := lexer.New(filepath, src, bag)
	return lex.ScanTokens()
}

// ParsePhase builds the function list.
func ParsePhase(toks []tokens.Token, filepath string, bag *diagnostics.DiagnosticBag) []*ast.Function {
	return parser.Parse(toks, filepath, bag)
}

// CodegenPhase lowers the function list to an IR module. Generation
// errors are recorded in the bag as well as returned.
func CodegenPhase(functions []*ast.Function, filepath string, tgt target.Target, bag *diagnostics.DiagnosticBag) (*ir.Module, error) {
	gen := codegen.New(tgt)
	module, err := gen.Generate(functions)
	if err != nil {
		diag := diagnostics.NewError(err.Error())
		var genErr *codegen.Error
		if errors.As(err, &genErr) {
			diag = diagnostics.NewError(genErr.Msg).WithCode(genErr.Code)
			if genErr.Line > 0 {
				diag.WithPrimaryLabel(source.NewLocation(filepath, genErr.Line), "")
			}
		}
		bag.Add(diag)
		return nil, err
	}
	return module, nil
}

func dumpTokens(toks []tokens.Token) {
	for _, tok := range toks {
		fmt.Printf("%4d  %-16s %q\n", tok.Line, string(tok.Kind), tok.Lexeme)
	}
}

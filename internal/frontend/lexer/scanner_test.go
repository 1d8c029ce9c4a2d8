package lexer

import (
	"strings"
	"testing"

	"github.com/raphamorim/jam/internal/diagnostics"
	"github.com/raphamorim/jam/internal/tokens"
)

func scan(t *testing.T, src string) ([]tokens.Token, *diagnostics.DiagnosticBag) {
	t.Helper()
	bag := diagnostics.NewDiagnosticBag()
	lex := New("test.jam", src, bag)
	return lex.ScanTokens(), bag
}

func kinds(toks []tokens.Token) []tokens.TOKEN {
	result := make([]tokens.TOKEN, len(toks))
	for i, tok := range toks {
		result[i] = tok.Kind
	}
	return result
}

func TestScanTokens(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []tokens.TOKEN
	}{
		{
			name:   "empty input",
			source: "",
			want:   []tokens.TOKEN{tokens.EOF_TOKEN},
		},
		{
			name:   "punctuation",
			source: "( ) { } [ ] , ; :",
			want: []tokens.TOKEN{
				tokens.OPEN_PAREN, tokens.CLOSE_PAREN,
				tokens.OPEN_CURLY, tokens.CLOSE_CURLY,
				tokens.OPEN_BRACKET, tokens.CLOSE_BRACKET,
				tokens.COMMA_TOKEN, tokens.SEMICOLON_TOKEN, tokens.COLON_TOKEN,
				tokens.EOF_TOKEN,
			},
		},
		{
			name:   "comparison operators",
			source: "= == != < <= > >=",
			want: []tokens.TOKEN{
				tokens.EQUALS_TOKEN, tokens.DOUBLE_EQUAL_TOKEN, tokens.NOT_EQUAL_TOKEN,
				tokens.LESS_TOKEN, tokens.LESS_EQUAL_TOKEN,
				tokens.GREATER_TOKEN, tokens.GREATER_EQUAL_TOKEN,
				tokens.EOF_TOKEN,
			},
		},
		{
			name:   "arrow and minus",
			source: "-> - a",
			want:   []tokens.TOKEN{tokens.ARROW_TOKEN, tokens.MINUS_TOKEN, tokens.IDENTIFIER_TOKEN, tokens.EOF_TOKEN},
		},
		{
			name:   "keywords",
			source: "fn return const var if else while for break continue in extern export",
			want: []tokens.TOKEN{
				tokens.FN_TOKEN, tokens.RETURN_TOKEN, tokens.CONST_TOKEN, tokens.VAR_TOKEN,
				tokens.IF_TOKEN, tokens.ELSE_TOKEN, tokens.WHILE_TOKEN, tokens.FOR_TOKEN,
				tokens.BREAK_TOKEN, tokens.CONTINUE_TOKEN, tokens.IN_TOKEN,
				tokens.EXTERN_TOKEN, tokens.EXPORT_TOKEN,
				tokens.EOF_TOKEN,
			},
		},
		{
			name:   "type names",
			source: "u8 u16 u32 i8 i16 i32 bool str",
			want: []tokens.TOKEN{
				tokens.TYPE_TOKEN, tokens.TYPE_TOKEN, tokens.TYPE_TOKEN, tokens.TYPE_TOKEN,
				tokens.TYPE_TOKEN, tokens.TYPE_TOKEN, tokens.TYPE_TOKEN, tokens.TYPE_TOKEN,
				tokens.EOF_TOKEN,
			},
		},
		{
			name:   "booleans",
			source: "true false",
			want:   []tokens.TOKEN{tokens.TRUE_TOKEN, tokens.FALSE_TOKEN, tokens.EOF_TOKEN},
		},
		{
			name:   "builtins stay identifiers",
			source: "print println printf",
			want:   []tokens.TOKEN{tokens.IDENTIFIER_TOKEN, tokens.IDENTIFIER_TOKEN, tokens.IDENTIFIER_TOKEN, tokens.EOF_TOKEN},
		},
		{
			name:   "line comment",
			source: "a // comment until end of line\nb",
			want:   []tokens.TOKEN{tokens.IDENTIFIER_TOKEN, tokens.IDENTIFIER_TOKEN, tokens.EOF_TOKEN},
		},
		{
			name:   "comment at end of input",
			source: "a // trailing",
			want:   []tokens.TOKEN{tokens.IDENTIFIER_TOKEN, tokens.EOF_TOKEN},
		},
		{
			name:   "small program",
			source: "fn main() -> u32 { return 0; }",
			want: []tokens.TOKEN{
				tokens.FN_TOKEN, tokens.IDENTIFIER_TOKEN, tokens.OPEN_PAREN, tokens.CLOSE_PAREN,
				tokens.ARROW_TOKEN, tokens.TYPE_TOKEN, tokens.OPEN_CURLY,
				tokens.RETURN_TOKEN, tokens.NUMBER_TOKEN, tokens.SEMICOLON_TOKEN,
				tokens.CLOSE_CURLY, tokens.EOF_TOKEN,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, bag := scan(t, tt.source)
			if bag.HasErrors() {
				t.Fatalf("unexpected errors:\n%s", bag.EmitAllToString())
			}
			got := kinds(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("token kinds = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScanLexemes(t *testing.T) {
	tests := []struct {
		name   string
		source string
		index  int
		want   string
	}{
		{"number", "1234", 0, "1234"},
		{"negative number keeps the minus", "-42", 0, "-42"},
		{"minus then space is an operator", "- 42", 0, "-"},
		{"string excludes quotes", `"hello"`, 0, "hello"},
		{"string keeps bytes verbatim", `"a\nb"`, 0, `a\nb`},
		{"identifier", "counter_2", 0, "counter_2"},
		{"punctuation reproduces itself", ";", 0, ";"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, bag := scan(t, tt.source)
			if bag.HasErrors() {
				t.Fatalf("unexpected errors:\n%s", bag.EmitAllToString())
			}
			if toks[tt.index].Lexeme != tt.want {
				t.Errorf("lexeme = %q, want %q", toks[tt.index].Lexeme, tt.want)
			}
		})
	}
}

func TestUnterminatedStringAborts(t *testing.T) {
	toks, bag := scan(t, "fn main() {\n  \"never closed\n}")
	if !bag.HasErrors() {
		t.Fatal("expected an error for the unterminated string")
	}
	// the scan still ends with EOF
	if toks[len(toks)-1].Kind != tokens.EOF_TOKEN {
		t.Errorf("last token = %s, want EOF", toks[len(toks)-1].Kind)
	}
}

func TestLoneBangIsSideChannel(t *testing.T) {
	toks, bag := scan(t, "a ! b")
	if bag.HasErrors() {
		t.Fatal("a lone '!' must not abort the scan")
	}
	if bag.WarningCount() == 0 {
		t.Error("expected a side-channel diagnostic for '!'")
	}
	got := kinds(toks)
	want := []tokens.TOKEN{tokens.IDENTIFIER_TOKEN, tokens.IDENTIFIER_TOKEN, tokens.EOF_TOKEN}
	if len(got) != len(want) {
		t.Fatalf("token kinds = %v, want %v (no token for '!')", got, want)
	}
}

func TestUnexpectedCharContinues(t *testing.T) {
	_, bag := scan(t, "a @ b # c")
	if bag.HasErrors() {
		t.Fatal("unexpected characters must not abort the scan")
	}
	if bag.WarningCount() != 2 {
		t.Errorf("warning count = %d, want 2", bag.WarningCount())
	}
}

// Scanning terminates for any ASCII input without an unterminated
// string, and the final token is always end-of-input.
func TestScannerTotality(t *testing.T) {
	inputs := []string{
		"", " ", "\n\n\n", "@#$%^&*", "fn fn fn", "((((",
		"1 + 2 == 3", "-<->=<=>", "// only a comment", `"" "" ""`,
		strings.Repeat("x ", 1000),
	}
	for _, input := range inputs {
		toks, _ := scan(t, input)
		if len(toks) == 0 {
			t.Fatalf("no tokens for %q", input)
		}
		if toks[len(toks)-1].Kind != tokens.EOF_TOKEN {
			t.Errorf("input %q: last token = %s, want EOF", input, toks[len(toks)-1].Kind)
		}
	}
}

// The line of every token equals the count of '\n' bytes before its
// first character plus one.
func TestLineTracking(t *testing.T) {
	src := "fn main() {\n  var x = 1;\n\n  return x;\n}"
	toks, bag := scan(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", bag.EmitAllToString())
	}

	wantLines := map[string]int{
		"fn":     1,
		"var":    2,
		"return": 4,
		"}":      5,
	}
	for _, tok := range toks {
		if want, ok := wantLines[tok.Lexeme]; ok && tok.Line != want {
			t.Errorf("token %q on line %d, want %d", tok.Lexeme, tok.Line, want)
		}
	}
}

func TestLineTrackingInsideStrings(t *testing.T) {
	toks, bag := scan(t, "\"a\nb\"\nc")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", bag.EmitAllToString())
	}
	if toks[0].Kind != tokens.STRING_TOKEN || toks[0].Line != 1 {
		t.Errorf("string token = %s line %d, want string literal on line 1", toks[0].Kind, toks[0].Line)
	}
	if toks[1].Lexeme != "c" || toks[1].Line != 3 {
		t.Errorf("token %q on line %d, want \"c\" on line 3", toks[1].Lexeme, toks[1].Line)
	}
}

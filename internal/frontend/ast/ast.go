package ast

// Node is the base interface for all AST nodes. Every node knows the
// 1-based source line it starts on.
type Node interface {
	INode()
	Line() int
}

// Expression represents any node that produces a value. Jam function
// bodies are flat lists of expressions; control-flow constructs are
// expressions that yield a dummy value.
type Expression interface {
	Node
	Expr()
}

// Param is a function parameter: a name and a textual type descriptor.
type Param struct {
	Name string
	Type string
}

// Function is a single top-level function definition.
//
// Invariants: IsExtern implies an empty body; IsExtern and IsExport are
// mutually exclusive (the parser accepts at most one prefix); the
// function named "main" is treated as exported regardless of flags.
type Function struct {
	Name       string
	Params     []Param
	ReturnType string // empty means void
	Body       []Expression
	IsExtern   bool
	IsExport   bool
	DeclLine   int
}

func (f *Function) INode()    {}
func (f *Function) Line() int { return f.DeclLine }

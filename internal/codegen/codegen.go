package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/raphamorim/jam/internal/cabi"
	"github.com/raphamorim/jam/internal/diagnostics"
	"github.com/raphamorim/jam/internal/frontend/ast"
	"github.com/raphamorim/jam/internal/target"
)

// loopContext carries the branch targets of the innermost loop during
// body lowering. Contexts form a stack through prev so nested loops
// restore correctly.
type loopContext struct {
	continueTarget *ir.Block
	breakTarget    *ir.Block
	prev           *loopContext
}

// Generator lowers a parsed function list into a single IR module.
type Generator struct {
	module *ir.Module
	target target.Target
	abi    *cabi.ABI

	funcs map[string]*ir.Func

	// per-function state, reset at every function boundary
	fn         *ir.Func
	block      *ir.Block // current insertion block
	env        map[string]*ir.InstAlloca
	loop       *loopContext
	localNames map[string]int

	// lazily declared C library functions
	printfFn *ir.Func
	putsFn   *ir.Func

	strCount int
	fmtCount int
}

// New creates a generator for the given target.
func New(t target.Target) *Generator {
	m := ir.NewModule()
	m.TargetTriple = t.TripleString()
	return &Generator{
		module: m,
		target: t,
		abi:    cabi.New(t),
		funcs:  make(map[string]*ir.Func),
	}
}

// Module returns the generated IR module.
func (g *Generator) Module() *ir.Module {
	return g.module
}

// Generate lowers every function in declaration order and verifies the
// resulting module. The first error halts generation.
func (g *Generator) Generate(functions []*ast.Function) (*ir.Module, error) {
	for _, fn := range functions {
		if _, err := g.genFunction(fn); err != nil {
			return nil, err
		}
	}
	if err := Verify(g.module); err != nil {
		return nil, err
	}
	return g.module, nil
}

// uniqueName returns name, suffixed with a counter when the name is
// already taken in the current function. Keeps allocas and blocks
// legible while staying unique.
func (g *Generator) uniqueName(name string) string {
	n, taken := g.localNames[name]
	g.localNames[name] = n + 1
	if !taken {
		return name
	}
	return fmt.Sprintf("%s.%d", name, n)
}

func (g *Generator) newBlock(name string) *ir.Block {
	return g.fn.NewBlock(g.uniqueName(name))
}

// Terminator helpers. A block holds at most one terminator; once a
// statement has terminated the insertion block (a return inside an if
// arm, a break), later emissions into it are dropped.

func (g *Generator) br(dst *ir.Block) {
	if g.block.Term == nil {
		g.block.NewBr(dst)
	}
}

func (g *Generator) condBr(cond value.Value, t, f *ir.Block) {
	if g.block.Term == nil {
		g.block.NewCondBr(cond, t, f)
	}
}

func (g *Generator) ret(v value.Value) {
	if g.block.Term == nil {
		g.block.NewRet(v)
	}
}

func (g *Generator) genFunction(fn *ast.Function) (*ir.Func, error) {
	params := make([]*ir.Param, 0, len(fn.Params))
	for _, p := range fn.Params {
		t, err := LowerType(p.Type)
		if err != nil {
			return nil, errf(diagnostics.ErrUnknownType, fn.DeclLine, "%v", err)
		}
		params = append(params, ir.NewParam(p.Name, t))
	}

	var retType types.Type = types.Void
	if fn.ReturnType != "" {
		t, err := LowerType(fn.ReturnType)
		if err != nil {
			return nil, errf(diagnostics.ErrUnknownType, fn.DeclLine, "%v", err)
		}
		retType = t
	}

	f := g.module.NewFunc(g.abi.ExternName(fn.Name), retType, params...)
	f.Linkage = g.abi.FunctionLinkage(fn)
	if g.abi.NeedsCAttributes(fn) {
		g.abi.ApplyFunctionAttributes(f)
	}
	g.funcs[fn.Name] = f

	// extern functions are declarations only
	if fn.IsExtern {
		return f, nil
	}

	g.fn = f
	g.env = make(map[string]*ir.InstAlloca)
	g.localNames = make(map[string]int)
	g.loop = nil
	g.block = g.newBlock("entry")

	// give every parameter a stack slot so the body can address it like
	// any other local
	for i, p := range f.Params {
		slot := g.block.NewAlloca(p.Type())
		slot.SetName(g.uniqueName(fn.Params[i].Name))
		g.block.NewStore(p, slot)
		g.env[fn.Params[i].Name] = slot
	}

	for _, expr := range fn.Body {
		if _, err := g.genExpr(expr); err != nil {
			return nil, err
		}
	}

	if g.block.Term == nil {
		if fn.ReturnType == "" {
			g.block.NewRet(nil)
		} else {
			// a non-void function that falls off its end (for instance the
			// merge block left after an if/else whose arms both return)
			// has no value to return
			g.block.NewUnreachable()
		}
	}

	if err := verifyFunc(f); err != nil {
		return nil, err
	}

	return f, nil
}

// dummy is the value yielded by statements used in expression position.
func dummy() value.Value {
	return constant.NewInt(types.I8, 0)
}

func (g *Generator) genExpr(e ast.Expression) (value.Value, error) {
	switch n := e.(type) {
	case *ast.NumberExpr:
		return constant.NewInt(numberType(n.Value), n.Value), nil
	case *ast.BooleanExpr:
		if n.Value {
			return constant.NewInt(types.I1, 1), nil
		}
		return constant.NewInt(types.I1, 0), nil
	case *ast.StringLiteralExpr:
		return g.genStringLiteral(n), nil
	case *ast.VariableExpr:
		return g.genVariable(n)
	case *ast.BinaryExpr:
		return g.genBinary(n)
	case *ast.CallExpr:
		return g.genCall(n)
	case *ast.ReturnExpr:
		return g.genReturn(n)
	case *ast.VarDeclExpr:
		return g.genVarDecl(n)
	case *ast.IfExpr:
		return g.genIf(n)
	case *ast.WhileExpr:
		return g.genWhile(n)
	case *ast.ForExpr:
		return g.genFor(n)
	case *ast.BreakExpr:
		if g.loop == nil {
			return nil, errf(diagnostics.ErrLoopControl, n.ExprLine, "break statement not inside a loop")
		}
		g.br(g.loop.breakTarget)
		return dummy(), nil
	case *ast.ContinueExpr:
		if g.loop == nil {
			return nil, errf(diagnostics.ErrLoopControl, n.ExprLine, "continue statement not inside a loop")
		}
		g.br(g.loop.continueTarget)
		return dummy(), nil
	}
	return nil, errf(diagnostics.ErrNotImplemented, 0, "cannot lower expression of type %T", e)
}

// genStringLiteral emits a private constant null-terminated global and
// wraps its address and byte length into a str slice value. The length
// excludes the trailing NUL.
func (g *Generator) genStringLiteral(n *ast.StringLiteralExpr) value.Value {
	data := constant.NewCharArrayFromString(n.Value + "\x00")
	global := g.module.NewGlobalDef(g.nextStrName(), data)
	global.Linkage = enum.LinkagePrivate
	global.Immutable = true

	zero := constant.NewInt(types.I64, 0)
	ptr := constant.NewGetElementPtr(global.ContentType, global, zero, zero)

	slice := g.block.NewInsertValue(constant.NewUndef(StrType()), ptr, 0)
	return g.block.NewInsertValue(slice, constant.NewInt(types.I64, int64(len(n.Value))), 1)
}

func (g *Generator) nextStrName() string {
	name := fmt.Sprintf("str.%d", g.strCount)
	g.strCount++
	return name
}

func (g *Generator) genVariable(n *ast.VariableExpr) (value.Value, error) {
	slot, ok := g.env[n.Name]
	if !ok {
		return nil, errf(diagnostics.ErrUnknownVariable, n.ExprLine, "unknown variable name: %s", n.Name)
	}
	return g.block.NewLoad(slot.ElemType, slot), nil
}

// genBinary lowers both operands and emits the operation. Ordered
// comparisons are unsigned regardless of the literal narrowing rules.
func (g *Generator) genBinary(n *ast.BinaryExpr) (value.Value, error) {
	x, err := g.genExpr(n.X)
	if err != nil {
		return nil, err
	}
	y, err := g.genExpr(n.Y)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "+":
		return g.block.NewAdd(x, y), nil
	case "==":
		return g.block.NewICmp(enum.IPredEQ, x, y), nil
	case "!=":
		return g.block.NewICmp(enum.IPredNE, x, y), nil
	case "<":
		return g.block.NewICmp(enum.IPredULT, x, y), nil
	case "<=":
		return g.block.NewICmp(enum.IPredULE, x, y), nil
	case ">":
		return g.block.NewICmp(enum.IPredUGT, x, y), nil
	case ">=":
		return g.block.NewICmp(enum.IPredUGE, x, y), nil
	}
	return nil, errf(diagnostics.ErrNotImplemented, n.ExprLine, "invalid binary operator: %s", n.Op)
}

func (g *Generator) genCall(n *ast.CallExpr) (value.Value, error) {
	if n.Callee == "print" || n.Callee == "println" || n.Callee == "printf" {
		return g.genPrintCall(n)
	}

	f, ok := g.funcs[n.Callee]
	if !ok {
		return nil, errf(diagnostics.ErrUnknownFunction, n.ExprLine, "unknown function referenced: %s", n.Callee)
	}

	if len(f.Params) != len(n.Args) {
		return nil, errf(diagnostics.ErrArgumentCount, n.ExprLine, "incorrect number of arguments passed to %s: want %d, have %d",
			n.Callee, len(f.Params), len(n.Args))
	}

	args := make([]value.Value, 0, len(n.Args))
	for _, arg := range n.Args {
		v, err := g.genExpr(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	return g.block.NewCall(f, args...), nil
}

// declarePrintf lazily declares the variadic C printf, reusing an
// existing declaration when the source already brought one in.
func (g *Generator) declarePrintf() *ir.Func {
	if g.printfFn == nil {
		if f, ok := g.funcs["printf"]; ok {
			g.printfFn = f
		} else {
			g.printfFn = g.abi.CreateExternFunction(g.module, "printf", types.I32,
				[]*ir.Param{ir.NewParam("format", types.NewPointer(types.I8))}, true)
		}
	}
	return g.printfFn
}

// declarePuts lazily declares the C puts, reusing an existing
// declaration when the source already brought one in.
func (g *Generator) declarePuts() *ir.Func {
	if g.putsFn == nil {
		if f, ok := g.funcs["puts"]; ok {
			g.putsFn = f
		} else {
			g.putsFn = g.abi.CreateExternFunction(g.module, "puts", types.I32,
				[]*ir.Param{ir.NewParam("s", types.NewPointer(types.I8))}, false)
		}
	}
	return g.putsFn
}

// stringPointer extracts the byte pointer from a str slice value, or
// passes non-slice values through.
func (g *Generator) stringPointer(v value.Value) value.Value {
	if _, ok := v.Type().(*types.StructType); ok {
		return g.block.NewExtractValue(v, 0)
	}
	return v
}

// genPrintCall intercepts the built-in print functions and lowers them
// onto the C library: println(x) uses puts, print(x) uses
// printf("%s", ...). Anything else is not implemented.
func (g *Generator) genPrintCall(n *ast.CallExpr) (value.Value, error) {
	printf := g.declarePrintf()
	puts := g.declarePuts()

	if n.Callee == "println" && len(n.Args) == 1 {
		arg, err := g.genExpr(n.Args[0])
		if err != nil {
			return nil, err
		}
		return g.block.NewCall(puts, g.stringPointer(arg)), nil
	}

	if n.Callee == "print" && len(n.Args) == 1 {
		arg, err := g.genExpr(n.Args[0])
		if err != nil {
			return nil, err
		}

		format := constant.NewCharArrayFromString("%s\x00")
		formatGlobal := g.module.NewGlobalDef(g.nextFmtName(), format)
		formatGlobal.Linkage = enum.LinkagePrivate
		formatGlobal.Immutable = true

		zero := constant.NewInt(types.I64, 0)
		formatPtr := constant.NewGetElementPtr(formatGlobal.ContentType, formatGlobal, zero, zero)

		return g.block.NewCall(printf, formatPtr, g.stringPointer(arg)), nil
	}

	return nil, errf(diagnostics.ErrNotImplemented, n.ExprLine, "complex print formatting not yet implemented")
}

func (g *Generator) nextFmtName() string {
	name := fmt.Sprintf("print_fmt.%d", g.fmtCount)
	g.fmtCount++
	return name
}

func (g *Generator) genReturn(n *ast.ReturnExpr) (value.Value, error) {
	v, err := g.genExpr(n.Value)
	if err != nil {
		return nil, err
	}
	g.ret(v)
	return v, nil
}

func (g *Generator) genVarDecl(n *ast.VarDeclExpr) (value.Value, error) {
	t, err := LowerType(n.Type)
	if err != nil {
		return nil, errf(diagnostics.ErrUnknownType, n.ExprLine, "%v", err)
	}

	slot := g.block.NewAlloca(t)
	slot.SetName(g.uniqueName(n.Name))

	if n.Init != nil {
		v, err := g.genExpr(n.Init)
		if err != nil {
			return nil, err
		}
		g.block.NewStore(v, slot)
	} else {
		g.block.NewStore(constant.NewZeroInitializer(t), slot)
	}

	g.env[n.Name] = slot
	return slot, nil
}

// coerceCond turns an integer condition into an i1 by comparing it
// against zero of its own type.
func (g *Generator) coerceCond(v value.Value, line int) (value.Value, error) {
	intType, ok := v.Type().(*types.IntType)
	if !ok {
		return nil, errf(diagnostics.ErrRangeTypes, line, "condition is not an integer")
	}
	return g.block.NewICmp(enum.IPredNE, v, constant.NewInt(intType, 0)), nil
}

func (g *Generator) genIf(n *ast.IfExpr) (value.Value, error) {
	condV, err := g.genExpr(n.Cond)
	if err != nil {
		return nil, err
	}
	cond, err := g.coerceCond(condV, n.ExprLine)
	if err != nil {
		return nil, err
	}

	thenBB := g.newBlock("then")
	elseBB := g.newBlock("else")
	mergeBB := g.newBlock("ifcont")

	g.condBr(cond, thenBB, elseBB)

	g.block = thenBB
	for _, expr := range n.Then {
		if _, err := g.genExpr(expr); err != nil {
			return nil, err
		}
	}
	g.br(mergeBB)

	g.block = elseBB
	for _, expr := range n.Else {
		if _, err := g.genExpr(expr); err != nil {
			return nil, err
		}
	}
	g.br(mergeBB)

	g.block = mergeBB
	return dummy(), nil
}

func (g *Generator) genWhile(n *ast.WhileExpr) (value.Value, error) {
	condBB := g.newBlock("whilecond")
	loopBB := g.newBlock("whileloop")
	afterBB := g.newBlock("afterloop")

	g.loop = &loopContext{continueTarget: condBB, breakTarget: afterBB, prev: g.loop}
	defer func() { g.loop = g.loop.prev }()

	g.br(condBB)

	g.block = condBB
	condV, err := g.genExpr(n.Cond)
	if err != nil {
		return nil, err
	}
	cond, err := g.coerceCond(condV, n.ExprLine)
	if err != nil {
		return nil, err
	}
	g.condBr(cond, loopBB, afterBB)

	g.block = loopBB
	for _, expr := range n.Body {
		if _, err := g.genExpr(expr); err != nil {
			return nil, err
		}
	}
	g.br(condBB)

	g.block = afterBB
	return dummy(), nil
}

func (g *Generator) genFor(n *ast.ForExpr) (value.Value, error) {
	startVal, err := g.genExpr(n.Start)
	if err != nil {
		return nil, err
	}
	endVal, err := g.genExpr(n.End)
	if err != nil {
		return nil, err
	}

	// the loop variable takes the start operand's type; the end operand
	// is cast to match when both are integers
	varInt, ok := startVal.Type().(*types.IntType)
	if !ok {
		return nil, errf(diagnostics.ErrRangeTypes, n.ExprLine, "type mismatch in for loop range")
	}
	if !varInt.Equal(endVal.Type()) {
		endInt, ok := endVal.Type().(*types.IntType)
		if !ok {
			return nil, errf(diagnostics.ErrRangeTypes, n.ExprLine, "type mismatch in for loop range")
		}
		if endInt.BitSize < varInt.BitSize {
			endVal = g.block.NewSExt(endVal, varInt)
		} else {
			endVal = g.block.NewTrunc(endVal, varInt)
		}
	}
	varType := varInt

	slot := g.block.NewAlloca(varType)
	slot.SetName(g.uniqueName(n.VarName))
	g.block.NewStore(startVal, slot)

	shadowed, wasBound := g.env[n.VarName]
	g.env[n.VarName] = slot

	condBB := g.newBlock("forcond")
	loopBB := g.newBlock("forloop")
	incrBB := g.newBlock("forincr")
	afterBB := g.newBlock("afterloop")

	g.loop = &loopContext{continueTarget: incrBB, breakTarget: afterBB, prev: g.loop}
	defer func() { g.loop = g.loop.prev }()

	g.br(condBB)

	g.block = condBB
	cur := g.block.NewLoad(slot.ElemType, slot)
	cond := g.block.NewICmp(enum.IPredSLT, cur, endVal)
	g.condBr(cond, loopBB, afterBB)

	g.block = loopBB
	for _, expr := range n.Body {
		if _, err := g.genExpr(expr); err != nil {
			return nil, err
		}
	}
	g.br(incrBB)

	g.block = incrBB
	cur = g.block.NewLoad(slot.ElemType, slot)
	next := g.block.NewAdd(cur, constant.NewInt(varType, 1))
	g.block.NewStore(next, slot)
	g.br(condBB)

	g.block = afterBB

	// the loop variable's binding does not outlive the loop
	if wasBound {
		g.env[n.VarName] = shadowed
	} else {
		delete(g.env, n.VarName)
	}

	return dummy(), nil
}

package cabi

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	"github.com/raphamorim/jam/internal/frontend/ast"
	"github.com/raphamorim/jam/internal/target"
)

// ABI maps Jam linkage modifiers and external-name conventions onto IR
// function attributes, linkage, and calling conventions for a target.
// It trusts its inputs: extern/export exclusivity is enforced by the
// parser.
type ABI struct {
	target target.Target
}

// New creates a C ABI helper for the given target.
func New(t target.Target) *ABI {
	return &ABI{target: t}
}

// CallingConvention returns the calling convention for C-compatible
// functions on this target. Windows with the MSVC ABI uses the
// Microsoft x64 convention; MinGW follows System V even on Windows.
func (a *ABI) CallingConvention() enum.CallingConv {
	if a.target.OS == target.OSWindows && a.target.ABI == target.ABIMSVC {
		return enum.CallingConvWin64
	}
	return enum.CallingConvC
}

// ApplyFunctionAttributes applies the target's C ABI attributes to a
// function.
func (a *ABI) ApplyFunctionAttributes(f *ir.Func) {
	f.CallingConv = a.CallingConvention()

	if a.target.OS == target.OSWindows && a.target.ABI == target.ABIMSVC {
		// default storage class; dllexport/dllimport are chosen at link
		// configuration time, not here
		f.DLLStorageClass = enum.DLLStorageClassNone
	}
}

// ExternName returns the platform-mangled symbol name for an extern
// function. Every target in scope uses identity mangling; this is the
// single point to evolve if that changes.
func (a *ABI) ExternName(name string) string {
	return name
}

// FunctionLinkage selects IR linkage for a function definition:
// extern, export, and main get external linkage, everything else is
// internal to the module.
func (a *ABI) FunctionLinkage(fn *ast.Function) enum.Linkage {
	if fn.IsExtern || fn.IsExport || fn.Name == "main" {
		return enum.LinkageExternal
	}
	return enum.LinkageInternal
}

// NeedsCAttributes reports whether a function crosses the C boundary
// and therefore needs the C calling convention applied.
func (a *ABI) NeedsCAttributes(fn *ast.Function) bool {
	return fn.IsExtern || fn.IsExport || fn.Name == "main"
}

// CreateExternFunction declares an external function in the module with
// external linkage, default visibility, and the target's C attributes.
func (a *ABI) CreateExternFunction(m *ir.Module, name string, ret types.Type, params []*ir.Param, variadic bool) *ir.Func {
	f := m.NewFunc(a.ExternName(name), ret, params...)
	f.Sig.Variadic = variadic
	f.Linkage = enum.LinkageExternal
	f.Visibility = enum.VisibilityDefault
	a.ApplyFunctionAttributes(f)
	return f
}

package codegen

import (
	"github.com/llir/llvm/ir"
)

// verifyFunc runs structural verification over a single function:
// every block of a defined function must carry exactly one terminator,
// every branch must target a block of the same function, and call
// instructions must match their callee's parameter count.
func verifyFunc(f *ir.Func) error {
	if len(f.Blocks) == 0 {
		// declaration, nothing to check
		return nil
	}

	blocks := make(map[*ir.Block]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		blocks[b] = true
	}

	for _, b := range f.Blocks {
		if b.Term == nil {
			return verifyErrf("verification of %s failed: block %q has no terminator", f.Name(), b.LocalName)
		}

		switch term := b.Term.(type) {
		case *ir.TermBr:
			if dst, ok := term.Target.(*ir.Block); ok && !blocks[dst] {
				return verifyErrf("verification of %s failed: branch in %q targets a foreign block", f.Name(), b.LocalName)
			}
		case *ir.TermCondBr:
			for _, t := range []interface{}{term.TargetTrue, term.TargetFalse} {
				if dst, ok := t.(*ir.Block); ok && !blocks[dst] {
					return verifyErrf("verification of %s failed: branch in %q targets a foreign block", f.Name(), b.LocalName)
				}
			}
		}

		for _, inst := range b.Insts {
			call, ok := inst.(*ir.InstCall)
			if !ok {
				continue
			}
			callee, ok := call.Callee.(*ir.Func)
			if !ok {
				continue
			}
			want := len(callee.Params)
			have := len(call.Args)
			if callee.Sig.Variadic {
				if have < want {
					return verifyErrf("verification of %s failed: call to %s has %d argument(s), want at least %d",
						f.Name(), callee.Name(), have, want)
				}
			} else if have != want {
				return verifyErrf("verification of %s failed: call to %s has %d argument(s), want %d",
					f.Name(), callee.Name(), have, want)
			}
		}
	}

	return nil
}

// Verify runs structural verification over every function of a module.
func Verify(m *ir.Module) error {
	for _, f := range m.Funcs {
		if err := verifyFunc(f); err != nil {
			return err
		}
	}
	return nil
}

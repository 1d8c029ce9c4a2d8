package codegen

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir/types"
)

// StrType returns the IR type of the built-in str slice:
// { ptr-to-i8, i64 length }.
func StrType() *types.StructType {
	return types.NewStruct(types.NewPointer(types.I8), types.I64)
}

// LowerType maps a textual Jam type descriptor to its IR type.
// Slice forms []T lower recursively to { ptr-to-T, i64 length }.
func LowerType(name string) (types.Type, error) {
	switch name {
	case "u8", "i8":
		return types.I8, nil
	case "u16", "i16":
		return types.I16, nil
	case "u32", "i32":
		return types.I32, nil
	case "bool":
		return types.I1, nil
	case "str":
		return StrType(), nil
	}

	if strings.HasPrefix(name, "[]") {
		elem, err := LowerType(name[2:])
		if err != nil {
			return nil, err
		}
		return types.NewStruct(types.NewPointer(elem), types.I64), nil
	}

	return nil, fmt.Errorf("unknown type: %s", name)
}

// numberType picks the narrowest integer type whose signed or unsigned
// range contains v.
func numberType(v int64) *types.IntType {
	switch {
	case v >= -128 && v <= 255:
		return types.I8
	case v >= -32768 && v <= 65535:
		return types.I16
	case v >= -2147483648 && v <= 4294967295:
		return types.I32
	default:
		return types.I64
	}
}

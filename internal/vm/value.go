package vm

import (
	"fmt"
	"strings"

	"quill/internal/bytecode"
)

type Value interface{}

// NativeFunction is a Go-implemented function exposed to quill code through a
// module. Arity -1 means variadic.
type NativeFunction struct {
	Name     string
	Arity    int
	Function func(args []Value) (Value, error)
}

// Module is a named bundle of native exports bound into an assembly at load
// time.
type Module struct {
	Name    string
	Exports map[string]Value
}

// Object is a class instance: its class definition plus per-instance fields.
type Object struct {
	Class  *bytecode.ClassDef
	Fields map[string]Value
}

// BoundMethod pairs a method definition with its receiver.
type BoundMethod struct {
	Recv *Object
	Def  *bytecode.MethodDef
}

// Array is a dynamic array.
type Array struct {
	Elements []Value
}

// Map is a string-keyed hash map.
type Map struct {
	Items map[string]Value
}

func NewArray(capacity int) *Array {
	return &Array{Elements: make([]Value, 0, capacity)}
}

func NewMap() *Map {
	return &Map{Items: make(map[string]Value)}
}

// ValueType returns the type of a value as a string.
func ValueType(val Value) string {
	switch val.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case float64:
		return "number"
	case string:
		return "string"
	case *Array:
		return "array"
	case *Map:
		return "map"
	case *Object:
		return "object"
	case *BoundMethod:
		return "method"
	case *NativeFunction:
		return "native_function"
	case *Module:
		return "module"
	default:
		return "unknown"
	}
}

// IsTruthy returns whether a value is considered true.
func IsTruthy(val Value) bool {
	switch v := val.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case *Array:
		return len(v.Elements) > 0
	case *Map:
		return len(v.Items) > 0
	default:
		return true
	}
}

// ToNumber converts a value to float64.
func ToNumber(val Value) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// ToString converts a value to its display representation.
func ToString(val Value) string {
	switch v := val.(type) {
	case nil:
		return "nil"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprintf("%g", v)
	case string:
		return v
	case *Array:
		elems := make([]string, len(v.Elements))
		for i, elem := range v.Elements {
			elems[i] = ToString(elem)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case *Map:
		pairs := make([]string, 0, len(v.Items))
		for k, item := range v.Items {
			pairs = append(pairs, fmt.Sprintf("%s: %s", k, ToString(item)))
		}
		return "{" + strings.Join(pairs, ", ") + "}"
	case *Object:
		return fmt.Sprintf("<%s>", v.Class.Qualified())
	case *BoundMethod:
		return fmt.Sprintf("<method %s.%s>", v.Recv.Class.Qualified(), v.Def.Name)
	case *NativeFunction:
		return fmt.Sprintf("<native %s>", v.Name)
	case *Module:
		return fmt.Sprintf("<module %s>", v.Name)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool, float64, string:
		return a == b
	case *Array:
		bv, ok := b.(*Array)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !valuesEqual(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

package vm

import (
	"strings"
	"testing"

	"quill/internal/bytecode"
)

// buildMethod assembles a method chunk by hand, the way the compiler would
// emit it.
func buildMethod(name string, params []string, locals int, constants []interface{}, code []byte) *bytecode.MethodDef {
	return &bytecode.MethodDef{
		Name:   name,
		Params: params,
		Locals: locals,
		Chunk: &bytecode.Chunk{
			Code:      code,
			Constants: constants,
		},
	}
}

func runChunk(t *testing.T, constants []interface{}, code []byte) Value {
	t.Helper()
	def := buildMethod("t", nil, 0, constants, code)
	got, err := New(nil).RunMethod(def, nil, nil)
	if err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	return got
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name      string
		constants []interface{}
		code      []byte
		expected  Value
	}{
		{
			name:      "addition",
			constants: []interface{}{10.0, 20.0},
			code: []byte{
				byte(bytecode.OpConstant), 0,
				byte(bytecode.OpConstant), 1,
				byte(bytecode.OpAdd),
				byte(bytecode.OpReturn),
			},
			expected: 30.0,
		},
		{
			name:      "subtraction",
			constants: []interface{}{50.0, 20.0},
			code: []byte{
				byte(bytecode.OpConstant), 0,
				byte(bytecode.OpConstant), 1,
				byte(bytecode.OpSub),
				byte(bytecode.OpReturn),
			},
			expected: 30.0,
		},
		{
			name:      "multiplication",
			constants: []interface{}{5.0, 6.0},
			code: []byte{
				byte(bytecode.OpConstant), 0,
				byte(bytecode.OpConstant), 1,
				byte(bytecode.OpMul),
				byte(bytecode.OpReturn),
			},
			expected: 30.0,
		},
		{
			name:      "modulo",
			constants: []interface{}{17.0, 5.0},
			code: []byte{
				byte(bytecode.OpConstant), 0,
				byte(bytecode.OpConstant), 1,
				byte(bytecode.OpMod),
				byte(bytecode.OpReturn),
			},
			expected: 2.0,
		},
		{
			name:      "negate",
			constants: []interface{}{7.0},
			code: []byte{
				byte(bytecode.OpConstant), 0,
				byte(bytecode.OpNegate),
				byte(bytecode.OpReturn),
			},
			expected: -7.0,
		},
		{
			name:      "string concat",
			constants: []interface{}{"foo", "bar"},
			code: []byte{
				byte(bytecode.OpConstant), 0,
				byte(bytecode.OpConstant), 1,
				byte(bytecode.OpAdd),
				byte(bytecode.OpReturn),
			},
			expected: "foobar",
		},
		{
			name:      "comparison",
			constants: []interface{}{1.0, 2.0},
			code: []byte{
				byte(bytecode.OpConstant), 0,
				byte(bytecode.OpConstant), 1,
				byte(bytecode.OpLess),
				byte(bytecode.OpReturn),
			},
			expected: true,
		},
		{
			name:      "equality",
			constants: []interface{}{"a", "a"},
			code: []byte{
				byte(bytecode.OpConstant), 0,
				byte(bytecode.OpConstant), 1,
				byte(bytecode.OpEqual),
				byte(bytecode.OpReturn),
			},
			expected: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runChunk(t, tt.constants, tt.code); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	def := buildMethod("t", nil, 0, []interface{}{1.0, 0.0}, []byte{
		byte(bytecode.OpConstant), 0,
		byte(bytecode.OpConstant), 1,
		byte(bytecode.OpDiv),
		byte(bytecode.OpReturn),
	})
	_, err := New(nil).RunMethod(def, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("err = %v, want division by zero", err)
	}
}

func TestLocals(t *testing.T) {
	// params a=4, b=3; return a - b
	def := buildMethod("sub", []string{"a", "b"}, 2, nil, []byte{
		byte(bytecode.OpGetLocal), 0,
		byte(bytecode.OpGetLocal), 1,
		byte(bytecode.OpSub),
		byte(bytecode.OpReturn),
	})
	got, err := New(nil).RunMethod(def, nil, []Value{4.0, 3.0})
	if err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	if got != 1.0 {
		t.Errorf("got %v, want 1", got)
	}
}

func TestArityMismatch(t *testing.T) {
	def := buildMethod("one", []string{"a"}, 1, nil, []byte{byte(bytecode.OpNil), byte(bytecode.OpReturn)})
	if _, err := New(nil).RunMethod(def, nil, nil); err == nil {
		t.Fatal("expected an arity error")
	}
}

func TestFields(t *testing.T) {
	cls := &bytecode.ClassDef{Namespace: "N", Name: "C"}
	recv := &Object{Class: cls, Fields: map[string]Value{"i": 10.0}}
	// i = i + 1; return i
	def := buildMethod("bump", nil, 0, []interface{}{"i", 1.0}, []byte{
		byte(bytecode.OpGetField), 0,
		byte(bytecode.OpConstant), 1,
		byte(bytecode.OpAdd),
		byte(bytecode.OpSetField), 0,
		byte(bytecode.OpPop),
		byte(bytecode.OpGetField), 0,
		byte(bytecode.OpReturn),
	})
	got, err := New(nil).RunMethod(def, recv, nil)
	if err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	if got != 11.0 {
		t.Errorf("got %v, want 11", got)
	}
	if recv.Fields["i"] != 11.0 {
		t.Errorf("field i = %v, want 11", recv.Fields["i"])
	}
}

func TestJumps(t *testing.T) {
	// if false { return 1 } return 2
	code := []byte{
		byte(bytecode.OpFalse),
		byte(bytecode.OpJumpIfFalse), 0, 8, // jump over the then branch
		byte(bytecode.OpConstant), 0,
		byte(bytecode.OpReturn),
		0, // padding so the target lands on the next opcode
		byte(bytecode.OpConstant), 1,
		byte(bytecode.OpReturn),
	}
	if got := runChunk(t, []interface{}{1.0, 2.0}, code); got != 2.0 {
		t.Errorf("got %v, want 2", got)
	}
}

func TestCollections(t *testing.T) {
	// return [10, 20][1]
	code := []byte{
		byte(bytecode.OpConstant), 0,
		byte(bytecode.OpConstant), 1,
		byte(bytecode.OpArray), 2,
		byte(bytecode.OpConstant), 2,
		byte(bytecode.OpIndex),
		byte(bytecode.OpReturn),
	}
	if got := runChunk(t, []interface{}{10.0, 20.0, 1.0}, code); got != 20.0 {
		t.Errorf("got %v, want 20", got)
	}
}

func TestNativeCall(t *testing.T) {
	double := &NativeFunction{
		Name:  "double",
		Arity: 1,
		Function: func(args []Value) (Value, error) {
			return args[0].(float64) * 2, nil
		},
	}
	def := buildMethod("t", nil, 0, []interface{}{double, 21.0}, []byte{
		byte(bytecode.OpConstant), 0, // callee
		byte(bytecode.OpConstant), 1, // arg
		byte(bytecode.OpCall), 1,
		byte(bytecode.OpReturn),
	})
	got, err := New(nil).RunMethod(def, nil, nil)
	if err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	if got != 42.0 {
		t.Errorf("got %v, want 42", got)
	}
}

func TestValueHelpers(t *testing.T) {
	truthy := []Value{true, 1.0, "x", &Array{Elements: []Value{nil}}}
	for _, v := range truthy {
		if !IsTruthy(v) {
			t.Errorf("IsTruthy(%v) = false", v)
		}
	}
	falsy := []Value{nil, false, 0.0, "", NewArray(0), NewMap()}
	for _, v := range falsy {
		if IsTruthy(v) {
			t.Errorf("IsTruthy(%v) = true", v)
		}
	}
	if got := ToString(&Array{Elements: []Value{1.0, "a"}}); got != "[1, a]" {
		t.Errorf("ToString = %q", got)
	}
	if ValueType(1.0) != "number" || ValueType(NewMap()) != "map" {
		t.Error("ValueType misclassified a value")
	}
}

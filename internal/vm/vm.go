package vm

import (
	"fmt"
	"os"

	"quill/internal/bytecode"
)

// VM executes method chunks against a loaded assembly. It is a plain stack
// machine: one run per invocation, no internal concurrency.
type VM struct {
	asm *Assembly
}

func New(asm *Assembly) *VM {
	return &VM{asm: asm}
}

// RunMethod executes a compiled method with the given receiver and arguments.
func (v *VM) RunMethod(def *bytecode.MethodDef, recv *Object, args []Value) (Value, error) {
	if len(args) != len(def.Params) {
		return nil, fmt.Errorf("%s expects %d argument(s), got %d", def.Name, len(def.Params), len(args))
	}
	locals := make([]Value, def.Locals)
	copy(locals, args)
	return v.run(def, recv, locals)
}

func (v *VM) run(def *bytecode.MethodDef, recv *Object, locals []Value) (Value, error) {
	chunk := def.Chunk
	code := chunk.Code
	var stack []Value
	ip := 0

	push := func(val Value) { stack = append(stack, val) }
	pop := func() Value {
		val := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return val
	}
	readByte := func() byte {
		b := code[ip]
		ip++
		return b
	}
	read16 := func() int {
		hi := code[ip]
		lo := code[ip+1]
		ip += 2
		return int(hi)<<8 | int(lo)
	}
	fail := func(format string, args ...interface{}) error {
		msg := fmt.Sprintf(format, args...)
		if pos := chunk.Pos(ip - 1); pos.Line > 0 {
			return fmt.Errorf("%s: line %d: %s", def.Name, pos.Line, msg)
		}
		return fmt.Errorf("%s: %s", def.Name, msg)
	}

	for ip < len(code) {
		op := bytecode.OpCode(readByte())
		switch op {
		case bytecode.OpConstant:
			push(chunk.Constants[readByte()])
		case bytecode.OpNil:
			push(nil)
		case bytecode.OpTrue:
			push(true)
		case bytecode.OpFalse:
			push(false)
		case bytecode.OpPop:
			pop()

		case bytecode.OpAdd:
			b, a := pop(), pop()
			if as, ok := a.(string); ok {
				push(as + ToString(b))
			} else if bs, ok := b.(string); ok {
				push(ToString(a) + bs)
			} else {
				an, bn, err := numOperands(a, b)
				if err != nil {
					return nil, fail("%v for '+'", err)
				}
				push(an + bn)
			}
		case bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod,
			bytecode.OpGreater, bytecode.OpLess, bytecode.OpGreaterEqual, bytecode.OpLessEqual:
			b, a := pop(), pop()
			an, bn, err := numOperands(a, b)
			if err != nil {
				return nil, fail("%v", err)
			}
			switch op {
			case bytecode.OpSub:
				push(an - bn)
			case bytecode.OpMul:
				push(an * bn)
			case bytecode.OpDiv:
				if bn == 0 {
					return nil, fail("division by zero")
				}
				push(an / bn)
			case bytecode.OpMod:
				if bn == 0 {
					return nil, fail("division by zero")
				}
				push(float64(int64(an) % int64(bn)))
			case bytecode.OpGreater:
				push(an > bn)
			case bytecode.OpLess:
				push(an < bn)
			case bytecode.OpGreaterEqual:
				push(an >= bn)
			case bytecode.OpLessEqual:
				push(an <= bn)
			}
		case bytecode.OpNegate:
			val := pop()
			n, ok := val.(float64)
			if !ok {
				return nil, fail("cannot negate %s", ValueType(val))
			}
			push(-n)
		case bytecode.OpNot:
			push(!IsTruthy(pop()))
		case bytecode.OpEqual:
			b, a := pop(), pop()
			push(valuesEqual(a, b))
		case bytecode.OpNotEqual:
			b, a := pop(), pop()
			push(!valuesEqual(a, b))

		case bytecode.OpJump:
			ip = read16()
		case bytecode.OpJumpIfFalse:
			target := read16()
			if !IsTruthy(pop()) {
				ip = target
			}
		case bytecode.OpLoop:
			ip = read16()

		case bytecode.OpGetLocal:
			push(locals[readByte()])
		case bytecode.OpSetLocal:
			locals[readByte()] = stack[len(stack)-1]

		case bytecode.OpGetField:
			name := chunk.Constants[readByte()].(string)
			if recv == nil {
				return nil, fail("no receiver for field %s", name)
			}
			push(recv.Fields[name])
		case bytecode.OpSetField:
			name := chunk.Constants[readByte()].(string)
			if recv == nil {
				return nil, fail("no receiver for field %s", name)
			}
			recv.Fields[name] = stack[len(stack)-1]

		case bytecode.OpGetModule:
			name := chunk.Constants[readByte()].(string)
			mod, ok := v.asm.modules[name]
			if !ok {
				return nil, fail("module %s is not bound", name)
			}
			push(mod)
		case bytecode.OpGetMember:
			name := chunk.Constants[readByte()].(string)
			member, err := getMember(pop(), name)
			if err != nil {
				return nil, fail("%v", err)
			}
			push(member)

		case bytecode.OpIndex:
			idx, obj := pop(), pop()
			switch o := obj.(type) {
			case *Array:
				i := int(ToNumber(idx))
				if i < 0 || i >= len(o.Elements) {
					return nil, fail("array index %d out of range (len %d)", i, len(o.Elements))
				}
				push(o.Elements[i])
			case *Map:
				push(o.Items[ToString(idx)])
			default:
				return nil, fail("cannot index %s", ValueType(obj))
			}
		case bytecode.OpArray:
			n := int(readByte())
			arr := NewArray(n)
			arr.Elements = append(arr.Elements, stack[len(stack)-n:]...)
			stack = stack[:len(stack)-n]
			push(arr)
		case bytecode.OpMap:
			n := int(readByte())
			m := NewMap()
			base := len(stack) - 2*n
			for i := 0; i < n; i++ {
				m.Items[ToString(stack[base+2*i])] = stack[base+2*i+1]
			}
			stack = stack[:base]
			push(m)

		case bytecode.OpCall:
			argc := int(readByte())
			args := make([]Value, argc)
			copy(args, stack[len(stack)-argc:])
			callee := stack[len(stack)-argc-1]
			stack = stack[:len(stack)-argc-1]
			result, err := v.call(callee, args)
			if err != nil {
				return nil, fail("%v", err)
			}
			push(result)

		case bytecode.OpLog:
			fmt.Fprintln(os.Stdout, ToString(pop()))

		case bytecode.OpReturn:
			if len(stack) == 0 {
				return nil, nil
			}
			return pop(), nil

		default:
			return nil, fail("unknown opcode %d", op)
		}
	}
	return nil, nil
}

func (v *VM) call(callee Value, args []Value) (Value, error) {
	switch fn := callee.(type) {
	case *NativeFunction:
		if fn.Arity >= 0 && len(args) != fn.Arity {
			return nil, fmt.Errorf("%s expects %d argument(s), got %d", fn.Name, fn.Arity, len(args))
		}
		return fn.Function(args)
	case *BoundMethod:
		return v.RunMethod(fn.Def, fn.Recv, args)
	default:
		return nil, fmt.Errorf("cannot call %s", ValueType(callee))
	}
}

func getMember(obj Value, name string) (Value, error) {
	switch o := obj.(type) {
	case *Module:
		member, ok := o.Exports[name]
		if !ok {
			return nil, fmt.Errorf("module %s has no member %s", o.Name, name)
		}
		return member, nil
	case *Object:
		if val, ok := o.Fields[name]; ok {
			return val, nil
		}
		if def := o.Class.Method(name); def != nil {
			return &BoundMethod{Recv: o, Def: def}, nil
		}
		return nil, fmt.Errorf("%s has no member %s", o.Class.Qualified(), name)
	case *Map:
		return o.Items[name], nil
	default:
		return nil, fmt.Errorf("%s has no members", ValueType(obj))
	}
}

func numOperands(a, b Value) (float64, float64, error) {
	an, aok := a.(float64)
	bn, bok := b.(float64)
	if !aok || !bok {
		return 0, 0, fmt.Errorf("operands must be numbers, got %s and %s", ValueType(a), ValueType(b))
	}
	return an, bn, nil
}

package compiler

import (
	"quill/internal/ast"
	"quill/internal/bytecode"
	"quill/internal/diag"
)

// methodCompiler walks one method body and emits its chunk. Identifier
// resolution order: local, then field of the enclosing class, then a module
// bound by a use declaration. Anything else is an undefined name.
type methodCompiler struct {
	chunk     *bytecode.Chunk
	bag       *diag.Bag
	fields    map[string]bool
	mods      map[string]bool
	locals    []string
	depths    []int
	depth     int
	maxLocals int
	fold      bool
}

func (mc *methodCompiler) emitOp(op bytecode.OpCode, line, col int) {
	mc.chunk.WriteOp(op, bytecode.DebugInfo{Line: line, Col: col})
}

func (mc *methodCompiler) emitByte(b byte, line, col int) {
	mc.chunk.WriteByte(b, bytecode.DebugInfo{Line: line, Col: col})
}

func (mc *methodCompiler) emitConstant(val interface{}, line, col int) {
	idx := mc.constIndex(val, line, col)
	mc.emitOp(bytecode.OpConstant, line, col)
	mc.emitByte(byte(idx), line, col)
}

// constIndex interns a constant and checks that its index fits the one-byte
// operand. Overflow is an error diagnostic, never a wrapped index.
func (mc *methodCompiler) constIndex(val interface{}, line, col int) int {
	idx := mc.chunk.AddConstant(val)
	if idx > 255 {
		mc.bag.Errorf(line, col, "too many constants in one method")
		return 0
	}
	return idx
}

// emitJump writes a jump with a placeholder target and returns the operand
// offset for patching.
func (mc *methodCompiler) emitJump(op bytecode.OpCode, line, col int) int {
	mc.emitOp(op, line, col)
	pos := len(mc.chunk.Code)
	mc.emitByte(0, line, col)
	mc.emitByte(0, line, col)
	return pos
}

func (mc *methodCompiler) patchJump(pos int) {
	target := len(mc.chunk.Code)
	mc.chunk.Code[pos] = byte((target >> 8) & 0xff)
	mc.chunk.Code[pos+1] = byte(target & 0xff)
}

func (mc *methodCompiler) emitLoop(target, line, col int) {
	mc.emitOp(bytecode.OpLoop, line, col)
	mc.emitByte(byte((target>>8)&0xff), line, col)
	mc.emitByte(byte(target&0xff), line, col)
}

func (mc *methodCompiler) addLocal(name string) int {
	mc.locals = append(mc.locals, name)
	mc.depths = append(mc.depths, mc.depth)
	if len(mc.locals) > mc.maxLocals {
		mc.maxLocals = len(mc.locals)
	}
	return len(mc.locals) - 1
}

func (mc *methodCompiler) resolveLocal(name string) int {
	for i := len(mc.locals) - 1; i >= 0; i-- {
		if mc.locals[i] == name {
			return i
		}
	}
	return -1
}

func (mc *methodCompiler) beginScope() {
	mc.depth++
}

func (mc *methodCompiler) endScope() {
	mc.depth--
	for len(mc.locals) > 0 && mc.depths[len(mc.depths)-1] > mc.depth {
		mc.locals = mc.locals[:len(mc.locals)-1]
		mc.depths = mc.depths[:len(mc.depths)-1]
	}
}

func (mc *methodCompiler) block(stmts []ast.Stmt) {
	mc.beginScope()
	for _, s := range stmts {
		s.Accept(mc)
	}
	mc.endScope()
}

// Statements.

func (mc *methodCompiler) VisitLetStmt(stmt *ast.Let) interface{} {
	stmt.Init.Accept(mc)
	slot := mc.addLocal(stmt.Name)
	if slot > 255 {
		mc.bag.Errorf(stmt.Line, stmt.Col, "too many local variables in one method")
	}
	mc.emitOp(bytecode.OpSetLocal, stmt.Line, stmt.Col)
	mc.emitByte(byte(slot), stmt.Line, stmt.Col)
	mc.emitOp(bytecode.OpPop, stmt.Line, stmt.Col)
	return nil
}

func (mc *methodCompiler) VisitExprStmt(stmt *ast.ExprStmt) interface{} {
	stmt.Expr.Accept(mc)
	mc.emitOp(bytecode.OpPop, 0, 0)
	return nil
}

func (mc *methodCompiler) VisitIfStmt(stmt *ast.If) interface{} {
	stmt.Cond.Accept(mc)
	elseJump := mc.emitJump(bytecode.OpJumpIfFalse, 0, 0)
	mc.block(stmt.Then)
	endJump := mc.emitJump(bytecode.OpJump, 0, 0)
	mc.patchJump(elseJump)
	if stmt.Else != nil {
		mc.block(stmt.Else)
	}
	mc.patchJump(endJump)
	return nil
}

func (mc *methodCompiler) VisitWhileStmt(stmt *ast.While) interface{} {
	loopStart := len(mc.chunk.Code)
	stmt.Cond.Accept(mc)
	exitJump := mc.emitJump(bytecode.OpJumpIfFalse, 0, 0)
	mc.block(stmt.Body)
	mc.emitLoop(loopStart, 0, 0)
	mc.patchJump(exitJump)
	return nil
}

func (mc *methodCompiler) VisitReturnStmt(stmt *ast.Return) interface{} {
	if stmt.Value != nil {
		stmt.Value.Accept(mc)
	} else {
		mc.emitOp(bytecode.OpNil, stmt.Line, stmt.Col)
	}
	mc.emitOp(bytecode.OpReturn, stmt.Line, stmt.Col)
	return nil
}

func (mc *methodCompiler) VisitLogStmt(stmt *ast.Log) interface{} {
	stmt.Expr.Accept(mc)
	mc.emitOp(bytecode.OpLog, 0, 0)
	return nil
}

// Expressions.

func (mc *methodCompiler) VisitLiteralExpr(expr *ast.Literal) interface{} {
	switch v := expr.Value.(type) {
	case nil:
		mc.emitOp(bytecode.OpNil, 0, 0)
	case bool:
		if v {
			mc.emitOp(bytecode.OpTrue, 0, 0)
		} else {
			mc.emitOp(bytecode.OpFalse, 0, 0)
		}
	default:
		mc.emitConstant(expr.Value, 0, 0)
	}
	return nil
}

func (mc *methodCompiler) VisitVariableExpr(expr *ast.Variable) interface{} {
	if slot := mc.resolveLocal(expr.Name); slot >= 0 {
		mc.emitOp(bytecode.OpGetLocal, expr.Line, expr.Col)
		mc.emitByte(byte(slot), expr.Line, expr.Col)
		return nil
	}
	if mc.fields[expr.Name] {
		idx := mc.constIndex(expr.Name, expr.Line, expr.Col)
		mc.emitOp(bytecode.OpGetField, expr.Line, expr.Col)
		mc.emitByte(byte(idx), expr.Line, expr.Col)
		return nil
	}
	if mc.mods[expr.Name] {
		idx := mc.constIndex(expr.Name, expr.Line, expr.Col)
		mc.emitOp(bytecode.OpGetModule, expr.Line, expr.Col)
		mc.emitByte(byte(idx), expr.Line, expr.Col)
		return nil
	}
	mc.bag.Errorf(expr.Line, expr.Col, "undefined name: %s", expr.Name)
	return nil
}

func (mc *methodCompiler) VisitAssignExpr(expr *ast.Assign) interface{} {
	expr.Value.Accept(mc)
	if slot := mc.resolveLocal(expr.Name); slot >= 0 {
		mc.emitOp(bytecode.OpSetLocal, expr.Line, expr.Col)
		mc.emitByte(byte(slot), expr.Line, expr.Col)
		return nil
	}
	if mc.fields[expr.Name] {
		idx := mc.constIndex(expr.Name, expr.Line, expr.Col)
		mc.emitOp(bytecode.OpSetField, expr.Line, expr.Col)
		mc.emitByte(byte(idx), expr.Line, expr.Col)
		return nil
	}
	if mc.mods[expr.Name] {
		mc.bag.Errorf(expr.Line, expr.Col, "cannot assign to module %s", expr.Name)
		return nil
	}
	mc.bag.Errorf(expr.Line, expr.Col, "undefined name: %s", expr.Name)
	return nil
}

func (mc *methodCompiler) VisitBinaryExpr(expr *ast.Binary) interface{} {
	if mc.fold {
		if val, ok := foldConst(expr); ok {
			mc.emitConstant(val, expr.Line, expr.Col)
			return nil
		}
	}
	expr.Left.Accept(mc)
	expr.Right.Accept(mc)
	mc.emitOp(binaryOps[expr.Operator], expr.Line, expr.Col)
	return nil
}

var binaryOps = map[string]bytecode.OpCode{
	"+": bytecode.OpAdd, "-": bytecode.OpSub, "*": bytecode.OpMul,
	"/": bytecode.OpDiv, "%": bytecode.OpMod,
	"==": bytecode.OpEqual, "!=": bytecode.OpNotEqual,
	">": bytecode.OpGreater, "<": bytecode.OpLess,
	">=": bytecode.OpGreaterEqual, "<=": bytecode.OpLessEqual,
}

func (mc *methodCompiler) VisitLogicalExpr(expr *ast.Logical) interface{} {
	expr.Left.Accept(mc)
	if expr.Operator == "&&" {
		falseJump := mc.emitJump(bytecode.OpJumpIfFalse, 0, 0)
		expr.Right.Accept(mc)
		endJump := mc.emitJump(bytecode.OpJump, 0, 0)
		mc.patchJump(falseJump)
		mc.emitOp(bytecode.OpFalse, 0, 0)
		mc.patchJump(endJump)
	} else {
		rhsJump := mc.emitJump(bytecode.OpJumpIfFalse, 0, 0)
		mc.emitOp(bytecode.OpTrue, 0, 0)
		endJump := mc.emitJump(bytecode.OpJump, 0, 0)
		mc.patchJump(rhsJump)
		expr.Right.Accept(mc)
		mc.patchJump(endJump)
	}
	return nil
}

func (mc *methodCompiler) VisitUnaryExpr(expr *ast.Unary) interface{} {
	if mc.fold {
		if val, ok := foldConst(expr); ok {
			mc.emitConstant(val, 0, 0)
			return nil
		}
	}
	expr.Operand.Accept(mc)
	if expr.Operator == "-" {
		mc.emitOp(bytecode.OpNegate, 0, 0)
	} else {
		mc.emitOp(bytecode.OpNot, 0, 0)
	}
	return nil
}

func (mc *methodCompiler) VisitCallExpr(expr *ast.Call) interface{} {
	expr.Callee.Accept(mc)
	for _, arg := range expr.Args {
		arg.Accept(mc)
	}
	mc.emitOp(bytecode.OpCall, expr.Line, expr.Col)
	mc.emitByte(byte(len(expr.Args)), expr.Line, expr.Col)
	return nil
}

func (mc *methodCompiler) VisitGetExpr(expr *ast.Get) interface{} {
	expr.Object.Accept(mc)
	idx := mc.constIndex(expr.Name, expr.Line, expr.Col)
	mc.emitOp(bytecode.OpGetMember, expr.Line, expr.Col)
	mc.emitByte(byte(idx), expr.Line, expr.Col)
	return nil
}

func (mc *methodCompiler) VisitIndexExpr(expr *ast.Index) interface{} {
	expr.Object.Accept(mc)
	expr.Index.Accept(mc)
	mc.emitOp(bytecode.OpIndex, expr.Line, expr.Col)
	return nil
}

func (mc *methodCompiler) VisitArrayExpr(expr *ast.Array) interface{} {
	for _, elem := range expr.Elements {
		elem.Accept(mc)
	}
	mc.emitOp(bytecode.OpArray, 0, 0)
	mc.emitByte(byte(len(expr.Elements)), 0, 0)
	return nil
}

func (mc *methodCompiler) VisitMapExpr(expr *ast.Map) interface{} {
	for i := range expr.Keys {
		expr.Keys[i].Accept(mc)
		expr.Values[i].Accept(mc)
	}
	mc.emitOp(bytecode.OpMap, 0, 0)
	mc.emitByte(byte(len(expr.Keys)), 0, 0)
	return nil
}

// foldConst evaluates constant scalar expressions at compile time. Used for
// field initializers (which must be constant) and for release-mode folding of
// constant arithmetic.
func foldConst(expr ast.Expr) (interface{}, bool) {
	switch e := expr.(type) {
	case *ast.Literal:
		switch e.Value.(type) {
		case nil, bool, float64, string:
			return e.Value, true
		}
		return nil, false
	case *ast.Unary:
		val, ok := foldConst(e.Operand)
		if !ok {
			return nil, false
		}
		if e.Operator == "-" {
			if n, isNum := val.(float64); isNum {
				return -n, true
			}
		}
		return nil, false
	case *ast.Binary:
		left, lok := foldConst(e.Left)
		right, rok := foldConst(e.Right)
		if !lok || !rok {
			return nil, false
		}
		ln, lnum := left.(float64)
		rn, rnum := right.(float64)
		if !lnum || !rnum {
			return nil, false
		}
		switch e.Operator {
		case "+":
			return ln + rn, true
		case "-":
			return ln - rn, true
		case "*":
			return ln * rn, true
		case "/":
			if rn == 0 {
				return nil, false
			}
			return ln / rn, true
		case "%":
			if rn == 0 {
				return nil, false
			}
			return float64(int64(ln) % int64(rn)), true
		}
		return nil, false
	default:
		return nil, false
	}
}

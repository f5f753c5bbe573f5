// Package ast defines the quill syntax tree. Nodes are exported and plainly
// constructible so callers can hand a pre-built tree straight to the compiler
// without going through the scanner and parser.
package ast

type Expr interface {
	Accept(visitor ExprVisitor) interface{}
}

// Literal expression: a number, string, bool, or nil constant.
type Literal struct {
	Value interface{}
}

func (l *Literal) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitLiteralExpr(l)
}

// Variable expression: x
type Variable struct {
	Name string
	Line int
	Col  int
}

func (v *Variable) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitVariableExpr(v)
}

// Assign expression: x = 42
type Assign struct {
	Name  string
	Value Expr
	Line  int
	Col   int
}

func (a *Assign) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitAssignExpr(a)
}

// Binary expression: a + b
type Binary struct {
	Left     Expr
	Operator string
	Right    Expr
	Line     int
	Col      int
}

func (b *Binary) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitBinaryExpr(b)
}

// Logical expression: a && b, a || b (short-circuiting)
type Logical struct {
	Left     Expr
	Operator string
	Right    Expr
}

func (l *Logical) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitLogicalExpr(l)
}

// Unary expression: !x, -x
type Unary struct {
	Operator string
	Operand  Expr
}

func (u *Unary) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitUnaryExpr(u)
}

// Call expression: callee(args...)
type Call struct {
	Callee Expr
	Args   []Expr
	Line   int
	Col    int
}

func (c *Call) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitCallExpr(c)
}

// Get expression: object.member
type Get struct {
	Object Expr
	Name   string
	Line   int
	Col    int
}

func (g *Get) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitGetExpr(g)
}

// Index expression: array[i] or map[key]
type Index struct {
	Object Expr
	Index  Expr
	Line   int
	Col    int
}

func (i *Index) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitIndexExpr(i)
}

// Array literal: [1, 2, 3]
type Array struct {
	Elements []Expr
}

func (a *Array) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitArrayExpr(a)
}

// Map literal: {"key": value, ...}
type Map struct {
	Keys   []Expr
	Values []Expr
}

func (m *Map) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitMapExpr(m)
}

type ExprVisitor interface {
	VisitLiteralExpr(expr *Literal) interface{}
	VisitVariableExpr(expr *Variable) interface{}
	VisitAssignExpr(expr *Assign) interface{}
	VisitBinaryExpr(expr *Binary) interface{}
	VisitLogicalExpr(expr *Logical) interface{}
	VisitUnaryExpr(expr *Unary) interface{}
	VisitCallExpr(expr *Call) interface{}
	VisitGetExpr(expr *Get) interface{}
	VisitIndexExpr(expr *Index) interface{}
	VisitArrayExpr(expr *Array) interface{}
	VisitMapExpr(expr *Map) interface{}
}

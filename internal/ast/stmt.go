package ast

// Stmt represents a statement inside a method body.
type Stmt interface {
	Accept(visitor StmtVisitor) interface{}
}

// Let declares a method-local variable: let x = expr
type Let struct {
	Name string
	Init Expr
	Line int
	Col  int
}

func (l *Let) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitLetStmt(l)
}

// ExprStmt wraps a raw expression as a statement.
type ExprStmt struct {
	Expr Expr
}

func (e *ExprStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitExprStmt(e)
}

// If statement with optional else branch.
type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (i *If) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitIfStmt(i)
}

// While loop.
type While struct {
	Cond Expr
	Body []Stmt
}

func (w *While) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitWhileStmt(w)
}

// Return statement with optional value.
type Return struct {
	Value Expr
	Line  int
	Col   int
}

func (r *Return) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitReturnStmt(r)
}

// Log prints an expression: log(expr)
type Log struct {
	Expr Expr
}

func (l *Log) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitLogStmt(l)
}

type StmtVisitor interface {
	VisitLetStmt(stmt *Let) interface{}
	VisitExprStmt(stmt *ExprStmt) interface{}
	VisitIfStmt(stmt *If) interface{}
	VisitWhileStmt(stmt *While) interface{}
	VisitReturnStmt(stmt *Return) interface{}
	VisitLogStmt(stmt *Log) interface{}
}

package ast

// Options tags a tree with the build flavor it was parsed for.
type Options struct {
	Debug bool
}

// File is one compilation unit: use declarations followed by namespaces.
type File struct {
	Path       string
	Options    Options
	Uses       []*Use
	Namespaces []*Namespace
}

// Use declares a module dependency: use math;
type Use struct {
	Name string
	Line int
	Col  int
}

// Namespace groups class declarations under a qualified name.
type Namespace struct {
	Name    string
	Classes []*Class
	Line    int
	Col     int
}

// Class declares fields and methods.
type Class struct {
	Name    string
	Fields  []*Field
	Methods []*Method
	Line    int
	Col     int
}

// Field declares per-instance state with a constant initializer:
// var i = 0;
type Field struct {
	Name string
	Init Expr
	Line int
	Col  int
}

// Method declares a callable member.
type Method struct {
	Name   string
	Params []string
	Body   []Stmt
	Line   int
	Col    int
}

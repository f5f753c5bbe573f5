// Package compiler lowers a syntax tree into an emitted image. A Compilation
// aggregates the tree, the target assembly name, the module reference set,
// and build options; Emit produces the image together with every diagnostic
// the semantic pass and the emitter reported.
package compiler

import (
	"quill/internal/ast"
	"quill/internal/bytecode"
	"quill/internal/diag"
	"quill/internal/module"
)

// Options selects the build flavor. Debug keeps per-instruction source
// tables and emits code exactly as written; release strips the tables and
// folds constant arithmetic.
type Options struct {
	Debug bool
}

type Compilation struct {
	name string
	file *ast.File
	refs []*module.Module
	opts Options
}

func NewCompilation(name string, file *ast.File, refs []*module.Module, opts Options) *Compilation {
	return &Compilation{name: name, file: file, refs: refs, opts: opts}
}

func (c *Compilation) Name() string     { return c.name }
func (c *Compilation) File() *ast.File  { return c.file }
func (c *Compilation) Options() Options { return c.opts }

// Emit runs semantic checks and code generation. Emission is all-or-nothing:
// any error-severity diagnostic means no image.
func (c *Compilation) Emit() (*bytecode.Image, []diag.Diagnostic) {
	bag := &diag.Bag{}

	bound := make(map[string]bool)
	var boundOrder []string
	for _, use := range c.file.Uses {
		if bound[use.Name] {
			bag.Warnf(use.Line, use.Col, "duplicate use of module %s", use.Name)
			continue
		}
		if c.ref(use.Name) == nil {
			bag.Errorf(use.Line, use.Col, "module not found: %s", use.Name)
			continue
		}
		bound[use.Name] = true
		boundOrder = append(boundOrder, use.Name)
	}

	img := &bytecode.Image{
		Name:    c.name,
		Modules: boundOrder,
		Debug:   c.opts.Debug,
	}
	seenClasses := make(map[string]bool)
	for _, ns := range c.file.Namespaces {
		for _, cls := range ns.Classes {
			qualified := ns.Name + "." + cls.Name
			if seenClasses[qualified] {
				bag.Errorf(cls.Line, cls.Col, "duplicate class %s", qualified)
				continue
			}
			seenClasses[qualified] = true
			img.Classes = append(img.Classes, c.compileClass(ns, cls, bound, bag))
		}
	}

	if bag.HasErrors() {
		return nil, bag.All()
	}
	if !c.opts.Debug {
		for ci := range img.Classes {
			for mi := range img.Classes[ci].Methods {
				img.Classes[ci].Methods[mi].Chunk.StripDebug()
			}
		}
	}
	return img, bag.All()
}

func (c *Compilation) ref(name string) *module.Module {
	for _, m := range c.refs {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (c *Compilation) compileClass(ns *ast.Namespace, cls *ast.Class, mods map[string]bool, bag *diag.Bag) bytecode.ClassDef {
	def := bytecode.ClassDef{Namespace: ns.Name, Name: cls.Name}
	fields := make(map[string]bool)
	for _, f := range cls.Fields {
		if fields[f.Name] {
			bag.Errorf(f.Line, f.Col, "duplicate field %s", f.Name)
			continue
		}
		fields[f.Name] = true
		init, ok := foldConst(f.Init)
		if !ok {
			bag.Errorf(f.Line, f.Col, "field initializer for %s must be a constant", f.Name)
			continue
		}
		def.Fields = append(def.Fields, bytecode.FieldDef{Name: f.Name, Init: init})
	}
	methods := make(map[string]bool)
	for _, m := range cls.Methods {
		if methods[m.Name] {
			bag.Errorf(m.Line, m.Col, "duplicate method %s", m.Name)
			continue
		}
		methods[m.Name] = true
		def.Methods = append(def.Methods, c.compileMethod(m, fields, mods, bag))
	}
	return def
}

func (c *Compilation) compileMethod(m *ast.Method, fields, mods map[string]bool, bag *diag.Bag) bytecode.MethodDef {
	mc := &methodCompiler{
		chunk:  bytecode.NewChunk(),
		bag:    bag,
		fields: fields,
		mods:   mods,
		fold:   !c.opts.Debug,
	}
	for _, p := range m.Params {
		mc.addLocal(p)
	}
	if len(m.Params) > 256 {
		bag.Errorf(m.Line, m.Col, "too many parameters in method %s", m.Name)
	}
	for _, stmt := range m.Body {
		stmt.Accept(mc)
	}
	// Implicit nil return for methods that fall off the end.
	mc.emitOp(bytecode.OpNil, 0, 0)
	mc.emitOp(bytecode.OpReturn, 0, 0)
	return bytecode.MethodDef{
		Name:   m.Name,
		Params: m.Params,
		Locals: mc.maxLocals,
		Chunk:  mc.chunk,
	}
}

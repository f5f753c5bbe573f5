package vm

import (
	"fmt"

	"quill/internal/bytecode"
)

// Assembly is a loaded image: its class table plus the module references
// resolved against the modules supplied at load time. Loaded assemblies live
// for the rest of the process; there is no unloading.
type Assembly struct {
	image   *bytecode.Image
	modules map[string]*Module
	types   []*Type
}

// Load decodes an emitted image and binds its module references. Every module
// name recorded in the image must appear in refs; a missing one fails the
// load. Duplicate refs are tolerated, first occurrence wins.
func Load(data []byte, refs []*Module) (*Assembly, error) {
	img, err := bytecode.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return NewAssembly(img, refs)
}

// NewAssembly binds an already-decoded image.
func NewAssembly(img *bytecode.Image, refs []*Module) (*Assembly, error) {
	byName := make(map[string]*Module, len(refs))
	for _, ref := range refs {
		if _, ok := byName[ref.Name]; !ok {
			byName[ref.Name] = ref
		}
	}
	asm := &Assembly{
		image:   img,
		modules: make(map[string]*Module, len(img.Modules)),
	}
	for _, name := range img.Modules {
		mod, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("load %s: module %s is not among the supplied references", img.Name, name)
		}
		asm.modules[name] = mod
	}
	for i := range img.Classes {
		asm.types = append(asm.types, &Type{asm: asm, def: &img.Classes[i]})
	}
	return asm, nil
}

func (a *Assembly) Name() string {
	return a.image.Name
}

// ExportedTypes returns every class compiled into the assembly, in
// declaration order.
func (a *Assembly) ExportedTypes() []*Type {
	return a.types
}

// Type looks up a class by its namespace-qualified name, e.g. "Fred.Joe".
// Returns nil when the assembly exports no such type.
func (a *Assembly) Type(qualified string) *Type {
	for _, t := range a.types {
		if t.Qualified() == qualified {
			return t
		}
	}
	return nil
}

// Type is an exported class of a loaded assembly.
type Type struct {
	asm *Assembly
	def *bytecode.ClassDef
}

func (t *Type) Name() string      { return t.def.Name }
func (t *Type) Namespace() string { return t.def.Namespace }
func (t *Type) Qualified() string { return t.def.Qualified() }

// Methods returns the method names the type exposes, in declaration order.
func (t *Type) Methods() []string {
	names := make([]string, len(t.def.Methods))
	for i := range t.def.Methods {
		names[i] = t.def.Methods[i].Name
	}
	return names
}

// New instantiates the type with every field set to its compiled initializer.
func (t *Type) New() *Instance {
	fields := make(map[string]Value, len(t.def.Fields))
	for _, f := range t.def.Fields {
		fields[f.Name] = f.Init
	}
	return &Instance{
		typ: t,
		obj: &Object{Class: t.def, Fields: fields},
	}
}

// Instance is a constructed object of an assembly type.
type Instance struct {
	typ *Type
	obj *Object
}

func (i *Instance) Type() *Type { return i.typ }

// Field reads a field's current value.
func (i *Instance) Field(name string) (Value, bool) {
	val, ok := i.obj.Fields[name]
	return val, ok
}

// Invoke runs a method on the instance. Unknown methods and arity mismatches
// are reported as errors, as are any runtime faults inside the method.
func (i *Instance) Invoke(method string, args ...Value) (Value, error) {
	def := i.typ.def.Method(method)
	if def == nil {
		return nil, fmt.Errorf("%s has no method %s", i.typ.Qualified(), method)
	}
	return New(i.typ.asm).RunMethod(def, i.obj, args)
}

package quill

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"quill/internal/ast"
	"quill/internal/bytecode"
	"quill/internal/compiler"
	"quill/internal/diag"
	"quill/internal/module"
	"quill/internal/parser"
	"quill/internal/vm"
)

// ErrNoSource reports a Compile call with no source origin configured.
var ErrNoSource = errors.New("no source configured")

type sourceKind int

const (
	srcNone sourceKind = iota
	srcText
	srcReader
	srcTree
)

// Compiler accumulates module references and one source origin, then compiles
// on demand. Each Compile call fully replaces the previous result. A Compiler
// is not safe for concurrent use; independent instances are.
type Compiler struct {
	name     string
	registry *module.Registry
	refs     []*module.Module

	// Source origin: exactly one case is active, selected by kind. Every
	// setter overwrites kind and clears the other payloads, so the last
	// setter wins.
	kind   sourceKind
	text   string
	reader io.Reader
	tree   *ast.File

	result *result
}

// result is one compile outcome. Never mutated after Compile returns; a
// recompile swaps in a whole new value.
type result struct {
	tree  *ast.File
	comp  *compiler.Compilation
	image *bytecode.Image
	asm   *vm.Assembly
	diags []diag.Diagnostic
	errs  []string // derived from diags on first Errors call
}

// Option configures a Compiler at construction.
type Option func(*Compiler)

// WithRegistry overrides the registry that named references resolve against.
// The default is the process-wide registry of builtin modules.
func WithRegistry(r *module.Registry) Option {
	return func(c *Compiler) { c.registry = r }
}

// New returns a Compiler that will emit an assembly with the given name. The
// name passes through to the image unvalidated.
func New(assemblyName string, opts ...Option) *Compiler {
	c := &Compiler{
		name:     assemblyName,
		registry: module.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddReference appends an already-resolved module to the reference set.
// Duplicates are tolerated, not rejected.
func (c *Compiler) AddReference(mod *module.Module) {
	c.refs = append(c.refs, mod)
}

// AddReferenceName resolves a module by name against the registry and appends
// it. Resolution failure leaves the reference set unchanged.
func (c *Compiler) AddReferenceName(name string) error {
	mod, err := c.registry.Lookup(name)
	if err != nil {
		return err
	}
	c.refs = append(c.refs, mod)
	return nil
}

// AddReferenceNames applies AddReferenceName across names in order. The first
// unresolvable name aborts the batch and its error is returned; names
// resolved before it stay added.
func (c *Compiler) AddReferenceNames(names ...string) error {
	for _, name := range names {
		if err := c.AddReferenceName(name); err != nil {
			return err
		}
	}
	return nil
}

// AddPackageReference resolves every module registered under a package name
// and appends them all, in registration order.
func (c *Compiler) AddPackageReference(pkg string) error {
	mods, err := c.registry.LookupPackage(pkg)
	if err != nil {
		return err
	}
	c.refs = append(c.refs, mods...)
	return nil
}

// References returns the accumulated reference set in insertion order.
func (c *Compiler) References() []*module.Module {
	out := make([]*module.Module, len(c.refs))
	copy(out, c.refs)
	return out
}

// SetSource makes literal source text the active origin.
func (c *Compiler) SetSource(text string) {
	c.kind = srcText
	c.text = text
	c.reader = nil
	c.tree = nil
}

// SetSourceReader makes a readable stream the active origin. The stream is
// drained once at compile time, honoring a UTF-8 or UTF-16 byte-order mark.
// Closing the stream remains the caller's responsibility.
func (c *Compiler) SetSourceReader(r io.Reader) {
	c.kind = srcReader
	c.reader = r
	c.text = ""
	c.tree = nil
}

// SetSyntaxTree makes a pre-built tree the active origin, bypassing the
// scanner and parser entirely.
func (c *Compiler) SetSyntaxTree(f *ast.File) {
	c.kind = srcTree
	c.tree = f
	c.text = ""
	c.reader = nil
}

// Compile runs the pipeline: obtain a syntax tree, build the compilation,
// emit, and on a clean emit load the image into the process.
//
// Compile returns an error only for configuration problems (no source origin,
// unreadable stream). Syntax and semantic errors are not errors here: they
// land in Diagnostics/Errors, HasErrors reports true, and Assembly stays nil.
func (c *Compiler) Compile(debug bool) error {
	c.result = nil

	opts := ast.Options{Debug: debug}
	res := &result{}
	switch c.kind {
	case srcNone:
		return ErrNoSource
	case srcTree:
		res.tree = c.tree
	case srcText, srcReader:
		text := c.text
		if c.kind == srcReader {
			decoded, err := readSource(c.reader)
			if err != nil {
				return err
			}
			text = decoded
		}
		tree, diags := parser.Parse(text, "<source>", opts)
		res.tree = tree
		res.diags = diags
	}

	res.comp = compiler.NewCompilation(c.name, res.tree, c.refs, compiler.Options{Debug: debug})
	if len(diag.Errors(res.diags)) == 0 {
		img, emitDiags := res.comp.Emit()
		res.diags = append(res.diags, emitDiags...)
		res.image = img
	}

	if len(diag.Errors(res.diags)) == 0 && res.image != nil {
		var buf bytes.Buffer
		if err := res.image.EncodeTo(&buf); err != nil {
			return err
		}
		refs := make([]*vm.Module, 0, len(c.refs))
		for _, m := range c.refs {
			refs = append(refs, m.Runtime())
		}
		asm, err := vm.Load(buf.Bytes(), refs)
		if err != nil {
			return fmt.Errorf("load assembly %s: %w", c.name, err)
		}
		res.asm = asm
	}

	c.result = res
	return nil
}

// readSource drains r fully, decoding a leading UTF-8 or UTF-16 byte-order
// mark when present. Plain bytes pass through as UTF-8.
func readSource(r io.Reader) (string, error) {
	decoder := unicode.UTF8.NewDecoder()
	data, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(decoder)))
	if err != nil {
		return "", fmt.Errorf("read source stream: %w", err)
	}
	return string(data), nil
}

// SyntaxTree returns the tree from the most recent compile, whether parsed or
// caller-supplied. Nil before the first compile.
func (c *Compiler) SyntaxTree() *ast.File {
	if c.result == nil {
		return nil
	}
	return c.result.tree
}

// Compilation returns the compilation object from the most recent compile.
func (c *Compiler) Compilation() *compiler.Compilation {
	if c.result == nil {
		return nil
	}
	return c.result.comp
}

// Image returns the emitted image, or nil when the last compile had errors.
func (c *Compiler) Image() *bytecode.Image {
	if c.result == nil {
		return nil
	}
	return c.result.image
}

// Assembly returns the loaded assembly. Non-nil exactly when the most recent
// compile ran and produced no error-severity diagnostic.
func (c *Compiler) Assembly() *vm.Assembly {
	if c.result == nil {
		return nil
	}
	return c.result.asm
}

// Diagnostics returns every diagnostic from the most recent compile,
// warnings and infos included.
func (c *Compiler) Diagnostics() []diag.Diagnostic {
	if c.result == nil {
		return nil
	}
	return c.result.diags
}

// Errors returns one "line(col): message" string per error-severity
// diagnostic of the most recent compile. Derived lazily and cached until the
// next compile.
func (c *Compiler) Errors() []string {
	if c.result == nil {
		return nil
	}
	if c.result.errs == nil {
		for _, d := range diag.Errors(c.result.diags) {
			c.result.errs = append(c.result.errs, d.String())
		}
	}
	return c.result.errs
}

// HasErrors reports whether the most recent compile produced an
// error-severity diagnostic. True when compilation never ran.
func (c *Compiler) HasErrors() bool {
	if c.result == nil {
		return true
	}
	return len(diag.Errors(c.result.diags)) > 0
}

package compiler

import (
	"fmt"
	"strings"
	"testing"

	"quill/internal/ast"
	"quill/internal/bytecode"
	"quill/internal/diag"
	"quill/internal/module"
	"quill/internal/parser"
)

func mustParse(t *testing.T, src string) *ast.File {
	t.Helper()
	file, diags := parser.Parse(src, "test.ql", ast.Options{})
	if len(diag.Errors(diags)) > 0 {
		t.Fatalf("parse errors: %v", diags)
	}
	return file
}

func emit(t *testing.T, src string, refs []*module.Module, opts Options) (*bytecode.Image, []diag.Diagnostic) {
	t.Helper()
	file := mustParse(t, src)
	file.Options.Debug = opts.Debug
	return NewCompilation("test", file, refs, opts).Emit()
}

func stdRefs(t *testing.T) []*module.Module {
	t.Helper()
	mods, err := module.Default().LookupPackage("std")
	if err != nil {
		t.Fatalf("LookupPackage(std): %v", err)
	}
	return mods
}

func findError(diags []diag.Diagnostic, substr string) bool {
	for _, d := range diag.Errors(diags) {
		if strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}

func TestEmitSimpleClass(t *testing.T) {
	img, diags := emit(t, `
namespace A {
	class B {
		var x = 1;
		fn M() { return x; }
	}
}`, nil, Options{})
	if len(diag.Errors(diags)) > 0 {
		t.Fatalf("diagnostics: %v", diags)
	}
	if img == nil {
		t.Fatal("no image")
	}
	if img.Name != "test" || len(img.Classes) != 1 {
		t.Fatalf("image = %+v", img)
	}
	cls := img.Classes[0]
	if cls.Qualified() != "A.B" {
		t.Errorf("qualified = %q", cls.Qualified())
	}
	if len(cls.Fields) != 1 || cls.Fields[0].Init != 1.0 {
		t.Errorf("fields = %+v", cls.Fields)
	}
	if cls.Method("M") == nil {
		t.Error("method M missing")
	}
}

func TestSemanticErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"module not found",
			"use crypto;\nnamespace A { class B { } }",
			"module not found: crypto",
		},
		{
			"undefined name",
			"namespace A { class B { fn M() { return y; } } }",
			"undefined name: y",
		},
		{
			"assign to undefined",
			"namespace A { class B { fn M() { y = 1; } } }",
			"undefined name: y",
		},
		{
			"assign to module",
			"use math;\nnamespace A { class B { fn M() { math = 1; } } }",
			"cannot assign to module math",
		},
		{
			"non-constant field initializer",
			"namespace A { class B { fn M() { } var x = other; } }",
			"must be a constant",
		},
		{
			"duplicate field",
			"namespace A { class B { var x = 1; var x = 2; } }",
			"duplicate field x",
		},
		{
			"duplicate method",
			"namespace A { class B { fn M() { } fn M() { } } }",
			"duplicate method M",
		},
		{
			"duplicate class",
			"namespace A { class B { } class B { } }",
			"duplicate class A.B",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, diags := emit(t, tt.src, stdRefs(t), Options{})
			if img != nil {
				t.Error("image emitted despite errors")
			}
			if !findError(diags, tt.want) {
				t.Errorf("diagnostics %v do not mention %q", diags, tt.want)
			}
		})
	}
}

func TestDuplicateUseWarns(t *testing.T) {
	img, diags := emit(t, "use math;\nuse math;\nnamespace A { class B { } }", stdRefs(t), Options{})
	if img == nil {
		t.Fatalf("diagnostics: %v", diags)
	}
	if len(diags) != 1 || diags[0].Severity != diag.SevWarning {
		t.Errorf("diagnostics = %v, want one warning", diags)
	}
	if len(img.Modules) != 1 {
		t.Errorf("bound modules = %v, want [math]", img.Modules)
	}
}

func TestBoundModulesFollowUseOrder(t *testing.T) {
	img, diags := emit(t, "use strings;\nuse math;\nnamespace A { class B { } }", stdRefs(t), Options{})
	if img == nil {
		t.Fatalf("diagnostics: %v", diags)
	}
	if len(img.Modules) != 2 || img.Modules[0] != "strings" || img.Modules[1] != "math" {
		t.Errorf("bound modules = %v", img.Modules)
	}
}

func TestReleaseFoldsConstants(t *testing.T) {
	src := "namespace A { class B { fn M() { return 2 * 3 + 4; } } }"
	release, diags := emit(t, src, nil, Options{Debug: false})
	if release == nil {
		t.Fatalf("diagnostics: %v", diags)
	}
	debug, diags := emit(t, src, nil, Options{Debug: true})
	if debug == nil {
		t.Fatalf("diagnostics: %v", diags)
	}

	rc := release.Classes[0].Method("M").Chunk
	dc := debug.Classes[0].Method("M").Chunk
	if len(rc.Code) >= len(dc.Code) {
		t.Errorf("release code (%d bytes) is not smaller than debug code (%d bytes)", len(rc.Code), len(dc.Code))
	}
	if len(rc.Constants) != 1 || rc.Constants[0] != 10.0 {
		t.Errorf("release constants = %v, want [10]", rc.Constants)
	}
	if rc.Debug != nil {
		t.Error("release chunk kept its debug table")
	}
	if len(dc.Debug) != len(dc.Code) {
		t.Error("debug chunk has no per-byte source table")
	}
}

func TestConstantFieldInitializers(t *testing.T) {
	img, diags := emit(t, `
namespace A {
	class B {
		var a = -5;
		var b = 2 * 3;
		var c = "s";
		var d = true;
		var e = nil;
	}
}`, nil, Options{})
	if img == nil {
		t.Fatalf("diagnostics: %v", diags)
	}
	got := img.Classes[0].Fields
	want := []bytecode.FieldDef{
		{Name: "a", Init: -5.0},
		{Name: "b", Init: 6.0},
		{Name: "c", Init: "s"},
		{Name: "d", Init: true},
		{Name: "e", Init: nil},
	}
	if len(got) != len(want) {
		t.Fatalf("fields = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("field %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestConstantPoolOverflowIsAnError(t *testing.T) {
	// 300 distinct literals in a debug build (no folding) push the constant
	// pool past the one-byte operand range.
	var b strings.Builder
	b.WriteString("namespace A { class B { fn M() { return 0")
	for i := 1; i < 300; i++ {
		fmt.Fprintf(&b, " + %d.5", i)
	}
	b.WriteString("; } } }")

	img, diags := emit(t, b.String(), nil, Options{Debug: true})
	if img != nil {
		t.Error("image emitted despite overflowing the constant pool")
	}
	if !findError(diags, "too many constants") {
		t.Errorf("diagnostics %v do not mention the constant pool limit", diags)
	}
}

func TestLocalSlotOverflowIsAnError(t *testing.T) {
	var b strings.Builder
	b.WriteString("namespace A { class B { fn M() {")
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&b, " let v%d = 0;", i)
	}
	b.WriteString(" } } }")

	img, diags := emit(t, b.String(), nil, Options{})
	if img != nil {
		t.Error("image emitted despite overflowing the local slots")
	}
	if !findError(diags, "too many local variables") {
		t.Errorf("diagnostics %v do not mention the local slot limit", diags)
	}
}

func TestMethodLocalCount(t *testing.T) {
	img, diags := emit(t, `
namespace A {
	class B {
		fn M(a, b) {
			let c = a + b;
			if c > 0 {
				let d = c;
				log(d);
			}
			return c;
		}
	}
}`, nil, Options{})
	if img == nil {
		t.Fatalf("diagnostics: %v", diags)
	}
	m := img.Classes[0].Method("M")
	if m.Locals != 4 {
		t.Errorf("locals = %d, want 4 (a, b, c, d)", m.Locals)
	}
	if len(m.Params) != 2 {
		t.Errorf("params = %v", m.Params)
	}
}

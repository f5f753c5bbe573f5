package module

import (
	"errors"
	"testing"

	"quill/internal/vm"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := &Module{Package: "p", Name: "a"}
	b := &Module{Package: "p", Name: "b"}
	c := &Module{Package: "q", Name: "c"}
	for _, m := range []*Module{a, b, c} {
		if err := r.Register(m); err != nil {
			t.Fatalf("Register(%s): %v", m.Name, err)
		}
	}

	if err := r.Register(&Module{Package: "p", Name: "a"}); err == nil {
		t.Error("re-registering a did not fail")
	}

	got, err := r.Lookup("b")
	if err != nil || got != b {
		t.Errorf("Lookup(b) = %v, %v", got, err)
	}
	if _, err := r.Lookup("zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(zzz) err = %v, want ErrNotFound", err)
	}

	mods, err := r.LookupPackage("p")
	if err != nil || len(mods) != 2 || mods[0] != a || mods[1] != b {
		t.Errorf("LookupPackage(p) = %v, %v", mods, err)
	}
	if _, err := r.LookupPackage("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LookupPackage(nope) err = %v, want ErrNotFound", err)
	}

	all := r.Modules()
	if len(all) != 3 || all[0] != a || all[2] != c {
		t.Errorf("Modules() = %v", all)
	}
}

func TestQualifiedAndRuntime(t *testing.T) {
	m := &Module{Package: "std", Name: "math", Exports: map[string]vm.Value{"PI": 3.14}}
	if m.Qualified() != "std.math" {
		t.Errorf("Qualified = %q", m.Qualified())
	}
	rt := m.Runtime()
	if rt.Name != "math" || rt.Exports["PI"] != 3.14 {
		t.Errorf("Runtime = %+v", rt)
	}
}

func TestDefaultRegistry(t *testing.T) {
	std, err := Default().LookupPackage("std")
	if err != nil {
		t.Fatalf("LookupPackage(std): %v", err)
	}
	wantStd := []string{"math", "strings", "json", "time"}
	if len(std) != len(wantStd) {
		t.Fatalf("std modules = %v", std)
	}
	for i, name := range wantStd {
		if std[i].Name != name {
			t.Errorf("std[%d] = %q, want %q", i, std[i].Name, name)
		}
	}
	for _, name := range []string{"uuid", "humanize", "ws", "db"} {
		m, err := Default().Lookup(name)
		if err != nil {
			t.Errorf("Lookup(%s): %v", name, err)
			continue
		}
		if m.Package != "ext" {
			t.Errorf("%s registered under %q, want ext", name, m.Package)
		}
	}
}

func callExport(t *testing.T, mod, name string, args ...vm.Value) vm.Value {
	t.Helper()
	m, err := Default().Lookup(mod)
	if err != nil {
		t.Fatalf("Lookup(%s): %v", mod, err)
	}
	fn, ok := m.Exports[name].(*vm.NativeFunction)
	if !ok {
		t.Fatalf("%s.%s is not a function", mod, name)
	}
	got, err := fn.Function(args)
	if err != nil {
		t.Fatalf("%s.%s: %v", mod, name, err)
	}
	return got
}

func TestMathExports(t *testing.T) {
	if got := callExport(t, "math", "sqrt", 9.0); got != 3.0 {
		t.Errorf("sqrt(9) = %v", got)
	}
	if got := callExport(t, "math", "pow", 2.0, 10.0); got != 1024.0 {
		t.Errorf("pow(2,10) = %v", got)
	}
	if got := callExport(t, "math", "abs", -4.0); got != 4.0 {
		t.Errorf("abs(-4) = %v", got)
	}
}

func TestStringsExports(t *testing.T) {
	if got := callExport(t, "strings", "upper", "abc"); got != "ABC" {
		t.Errorf("upper = %v", got)
	}
	parts := callExport(t, "strings", "split", "a,b,c", ",").(*vm.Array)
	if len(parts.Elements) != 3 || parts.Elements[1] != "b" {
		t.Errorf("split = %v", parts.Elements)
	}
	if got := callExport(t, "strings", "join", parts, "-"); got != "a-b-c" {
		t.Errorf("join = %v", got)
	}
}

func TestJSONExports(t *testing.T) {
	m := vm.NewMap()
	m.Items["n"] = 1.5
	m.Items["s"] = "x"
	encoded := callExport(t, "json", "encode", m).(string)

	decoded := callExport(t, "json", "decode", encoded).(*vm.Map)
	if decoded.Items["n"] != 1.5 || decoded.Items["s"] != "x" {
		t.Errorf("decode = %v", decoded.Items)
	}

	arr := callExport(t, "json", "decode", "[1, [2]]").(*vm.Array)
	if arr.Elements[0] != 1.0 {
		t.Errorf("decode array = %v", arr.Elements)
	}
	if inner := arr.Elements[1].(*vm.Array); inner.Elements[0] != 2.0 {
		t.Errorf("nested = %v", inner.Elements)
	}
}

func TestTimeFormat(t *testing.T) {
	got := callExport(t, "time", "format", 0.0, "2006-01-02")
	if got != "1970-01-01" {
		t.Errorf("format(0) = %v", got)
	}
}

func TestUUIDExports(t *testing.T) {
	id := callExport(t, "uuid", "new").(string)
	if got := callExport(t, "uuid", "valid", id); got != true {
		t.Errorf("valid(%q) = %v", id, got)
	}
	if got := callExport(t, "uuid", "valid", "not-a-uuid"); got != false {
		t.Errorf("valid(junk) = %v", got)
	}
}

func TestHumanizeExports(t *testing.T) {
	if got := callExport(t, "humanize", "comma", 1234567.0); got != "1,234,567" {
		t.Errorf("comma = %v", got)
	}
	if got := callExport(t, "humanize", "ordinal", 3.0); got != "3rd" {
		t.Errorf("ordinal = %v", got)
	}
}

package vm

import (
	"strings"
	"testing"

	"quill/internal/bytecode"
)

// counterImage builds the image the compiler would produce for a class with a
// numeric field and a method that increments and returns it.
func counterImage() *bytecode.Image {
	body := &bytecode.Chunk{
		Constants: []interface{}{"i", 1.0},
		Code: []byte{
			byte(bytecode.OpGetField), 0,
			byte(bytecode.OpConstant), 1,
			byte(bytecode.OpAdd),
			byte(bytecode.OpSetField), 0,
			byte(bytecode.OpPop),
			byte(bytecode.OpGetField), 0,
			byte(bytecode.OpReturn),
		},
	}
	return &bytecode.Image{
		Name: "counter",
		Classes: []bytecode.ClassDef{{
			Namespace: "Fred",
			Name:      "Joe",
			Fields:    []bytecode.FieldDef{{Name: "i", Init: 0.0}},
			Methods:   []bytecode.MethodDef{{Name: "GetNextInt", Chunk: body}},
		}},
	}
}

func TestLoadAndInvoke(t *testing.T) {
	data, err := counterImage().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	asm, err := Load(data, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if asm.Name() != "counter" {
		t.Errorf("Name = %q", asm.Name())
	}

	typ := asm.Type("Fred.Joe")
	if typ == nil {
		t.Fatalf("Type(Fred.Joe) = nil, exported: %v", asm.ExportedTypes())
	}
	if typ.Namespace() != "Fred" || typ.Name() != "Joe" {
		t.Errorf("type = %s.%s", typ.Namespace(), typ.Name())
	}

	inst := typ.New()
	for want := 1.0; want <= 3.0; want++ {
		got, err := inst.Invoke("GetNextInt")
		if err != nil {
			t.Fatalf("Invoke: %v", err)
		}
		if got != want {
			t.Errorf("GetNextInt = %v, want %v", got, want)
		}
	}
	if val, ok := inst.Field("i"); !ok || val != 3.0 {
		t.Errorf("field i = %v, %v", val, ok)
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	asm, err := NewAssembly(counterImage(), nil)
	if err != nil {
		t.Fatalf("NewAssembly: %v", err)
	}
	typ := asm.Type("Fred.Joe")
	a, b := typ.New(), typ.New()
	if _, err := a.Invoke("GetNextInt"); err != nil {
		t.Fatal(err)
	}
	got, err := b.Invoke("GetNextInt")
	if err != nil {
		t.Fatal(err)
	}
	if got != 1.0 {
		t.Errorf("fresh instance returned %v, want 1", got)
	}
}

func TestInvokeUnknownMethod(t *testing.T) {
	asm, err := NewAssembly(counterImage(), nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = asm.Type("Fred.Joe").New().Invoke("Missing")
	if err == nil || !strings.Contains(err.Error(), "no method Missing") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadRequiresReferencedModules(t *testing.T) {
	img := counterImage()
	img.Modules = []string{"math"}
	data, err := img.Encode()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Load(data, nil); err == nil {
		t.Fatal("load succeeded without the math module")
	}

	math := &Module{Name: "math", Exports: map[string]Value{"PI": 3.14159}}
	asm, err := Load(data, []*Module{math, math}) // duplicates are fine
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if asm.Type("Fred.Joe") == nil {
		t.Error("class table lost in round trip")
	}
}

func TestModuleMemberAccess(t *testing.T) {
	chunk := &bytecode.Chunk{
		Constants: []interface{}{"math", "PI"},
		Code: []byte{
			byte(bytecode.OpGetModule), 0,
			byte(bytecode.OpGetMember), 1,
			byte(bytecode.OpReturn),
		},
	}
	img := &bytecode.Image{
		Name:    "m",
		Modules: []string{"math"},
		Classes: []bytecode.ClassDef{{
			Namespace: "A",
			Name:      "B",
			Methods:   []bytecode.MethodDef{{Name: "Pi", Chunk: chunk}},
		}},
	}
	math := &Module{Name: "math", Exports: map[string]Value{"PI": 3.14159}}
	asm, err := NewAssembly(img, []*Module{math})
	if err != nil {
		t.Fatal(err)
	}
	got, err := asm.Type("A.B").New().Invoke("Pi")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got != 3.14159 {
		t.Errorf("got %v", got)
	}
}

func TestExportedTypesOrder(t *testing.T) {
	img := &bytecode.Image{
		Name: "multi",
		Classes: []bytecode.ClassDef{
			{Namespace: "A", Name: "First"},
			{Namespace: "A", Name: "Second"},
		},
	}
	asm, err := NewAssembly(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	types := asm.ExportedTypes()
	if len(types) != 2 || types[0].Qualified() != "A.First" || types[1].Qualified() != "A.Second" {
		t.Errorf("types = %v", types)
	}
	if asm.Type("A.Third") != nil {
		t.Error("lookup of a missing type did not return nil")
	}
}

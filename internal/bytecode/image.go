package bytecode

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Image is the emitted form of a compilation: everything needed to load the
// compiled classes into a VM. Images serialize with msgpack so emission can
// target an in-memory buffer or a file interchangeably.
type Image struct {
	Name    string     `msgpack:"name"`
	Modules []string   `msgpack:"modules"` // module references bound by use declarations
	Classes []ClassDef `msgpack:"classes"`
	Debug   bool       `msgpack:"debug"`
}

type ClassDef struct {
	Namespace string      `msgpack:"namespace"`
	Name      string      `msgpack:"name"`
	Fields    []FieldDef  `msgpack:"fields"`
	Methods   []MethodDef `msgpack:"methods"`
}

// FieldDef records a field and its constant initial value.
type FieldDef struct {
	Name string      `msgpack:"name"`
	Init interface{} `msgpack:"init"`
}

type MethodDef struct {
	Name   string   `msgpack:"name"`
	Params []string `msgpack:"params"`
	Locals int      `msgpack:"locals"` // local slot count, params included
	Chunk  *Chunk   `msgpack:"chunk"`
}

// Qualified returns the namespace-qualified class name.
func (c *ClassDef) Qualified() string {
	return c.Namespace + "." + c.Name
}

// Method looks up a method definition by name.
func (c *ClassDef) Method(name string) *MethodDef {
	for i := range c.Methods {
		if c.Methods[i].Name == name {
			return &c.Methods[i]
		}
	}
	return nil
}

func (i *Image) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(i)
	if err != nil {
		return nil, fmt.Errorf("encode image %s: %w", i.Name, err)
	}
	return data, nil
}

// EncodeTo streams the image into w, typically an in-memory buffer.
func (i *Image) EncodeTo(w io.Writer) error {
	if err := msgpack.NewEncoder(w).Encode(i); err != nil {
		return fmt.Errorf("encode image %s: %w", i.Name, err)
	}
	return nil
}

func DecodeImage(data []byte) (*Image, error) {
	var img Image
	if err := msgpack.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	img.normalize()
	return &img, nil
}

// normalize rewrites decoded constants into the VM's canonical scalar types:
// msgpack is free to hand integers back in any width.
func (i *Image) normalize() {
	for ci := range i.Classes {
		cls := &i.Classes[ci]
		for fi := range cls.Fields {
			cls.Fields[fi].Init = normalizeConst(cls.Fields[fi].Init)
		}
		for mi := range cls.Methods {
			ch := cls.Methods[mi].Chunk
			if ch == nil {
				continue
			}
			for k, v := range ch.Constants {
				ch.Constants[k] = normalizeConst(v)
			}
		}
	}
}

func normalizeConst(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

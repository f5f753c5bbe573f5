// Package module implements the native module registry. Modules are the
// metadata references of a compilation: a quill file can only `use` modules
// that the caller added to its reference set, and the registry plays the role
// of the process's already-loaded module universe.
package module

import (
	"errors"
	"fmt"
	"sync"

	"quill/internal/vm"
)

// ErrNotFound reports a reference lookup that matched nothing.
var ErrNotFound = errors.New("module not found")

// Module is a named bundle of native exports. Package groups related modules
// so they can be referenced together at package granularity.
type Module struct {
	Package string
	Name    string
	Exports map[string]vm.Value
}

// Qualified returns "package.name".
func (m *Module) Qualified() string {
	return m.Package + "." + m.Name
}

// Runtime converts the module into the VM's binding form.
func (m *Module) Runtime() *vm.Module {
	return &vm.Module{Name: m.Name, Exports: m.Exports}
}

// Registry holds registered modules in registration order. Lookups are by
// bare module name; package lookups return every module registered under the
// package.
type Registry struct {
	mu      sync.RWMutex
	ordered []*Module
	byName  map[string]*Module
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Module)}
}

func (r *Registry) Register(m *Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[m.Name]; exists {
		return fmt.Errorf("module %s is already registered", m.Name)
	}
	r.byName[m.Name] = m
	r.ordered = append(r.ordered, m)
	return nil
}

// Lookup resolves a module by name. Resolution failure is loud: a reference
// that silently went missing would only resurface later as a misleading
// "module not found" compile diagnostic.
func (r *Registry) Lookup(name string) (*Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return m, nil
}

// LookupPackage resolves every module registered under pkg, in registration
// order.
func (r *Registry) LookupPackage(pkg string) ([]*Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var mods []*Module
	for _, m := range r.ordered {
		if m.Package == pkg {
			mods = append(mods, m)
		}
	}
	if len(mods) == 0 {
		return nil, fmt.Errorf("%w: package %s", ErrNotFound, pkg)
	}
	return mods, nil
}

// Modules returns every registered module in registration order.
func (r *Registry) Modules() []*Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Module, len(r.ordered))
	copy(out, r.ordered)
	return out
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry with the builtin modules
// registered: the std package (math, strings, json, time), and the ext
// package (uuid, humanize, ws, db).
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
		for _, m := range []*Module{
			mathModule(),
			stringsModule(),
			jsonModule(),
			timeModule(),
			uuidModule(),
			humanizeModule(),
			wsModule(),
			dbModule(),
		} {
			// Names are distinct by construction.
			_ = defaultReg.Register(m)
		}
	})
	return defaultReg
}

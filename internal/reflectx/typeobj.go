// Package reflectx exposes class metadata to running Skizo code as
// reflection objects (Type, Method) and renders property-access templates
// against live instances.
package reflectx

import (
	"fmt"

	"github.com/KonstantinGeist/skizo-sub000/internal/gcheap"
	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// TypeObj is the reflection view of a class: the object a running program
// gets back from an expression like "obj type" or "SomeClass".
type TypeObj struct {
	class *metadata.Class
}

func NewTypeObj(class *metadata.Class) *TypeObj {
	return &TypeObj{class: class}
}

func (t *TypeObj) Class() *metadata.Class { return t.class }
func (t *TypeObj) Name() string           { return t.class.NiceName }
func (t *TypeObj) FlatName() string       { return t.class.FlatName }
func (t *TypeObj) IsValueType() bool      { return t.class.Flags.HasValueType() }
func (t *TypeObj) IsAbstract() bool       { return t.class.Flags.HasAbstract() }
func (t *TypeObj) IsStatic() bool         { return t.class.Flags.HasStatic() }

func (t *TypeObj) BaseType() *TypeObj {
	if t.class.BaseClass == nil {
		return nil
	}
	return NewTypeObj(t.class.BaseClass)
}

// Methods returns every instance method of this class, ctors and dtor
// excluded, as reflection Method objects.
func (t *TypeObj) Methods() []*MethodObj {
	out := make([]*MethodObj, 0, len(t.class.InstanceMethods))
	for _, m := range t.class.InstanceMethods {
		out = append(out, NewMethodObj(m))
	}
	return out
}

// MethodByName finds an instance method with the given name, reporting
// false if none exists, mirroring CClass::TryGetInstanceMethodByName.
func (t *TypeObj) MethodByName(name string) (*MethodObj, bool) {
	for _, m := range t.class.InstanceMethods {
		if m.Name == name {
			return NewMethodObj(m), true
		}
	}
	return nil, false
}

// Of resolves the TypeObj of a live heap instance. Boxed instances report
// the wrapped value type rather than the synthesized boxed wrapper class,
// matching CTemplate::Render's objClass normalization for boxed receivers.
func Of(cell *gcheap.Cell) (*TypeObj, error) {
	if cell == nil {
		return nil, fmt.Errorf("reflectx: Of called on a nil cell")
	}
	class, ok := cell.Class.(*metadata.Class)
	if !ok {
		return nil, fmt.Errorf("reflectx: cell's class info is not a *metadata.Class")
	}
	if class.Special == metadata.SpecialBoxed {
		class = class.WrappedClass
	}
	return NewTypeObj(class), nil
}

// MethodObj is the reflection view of a method.
type MethodObj struct {
	method *metadata.Method
}

func NewMethodObj(m *metadata.Method) *MethodObj { return &MethodObj{method: m} }

func (m *MethodObj) Method() *metadata.Method { return m.method }
func (m *MethodObj) Name() string             { return m.method.Name }
func (m *MethodObj) ParamCount() int          { return len(m.method.Sig.Params) }
func (m *MethodObj) IsStatic() bool           { return m.method.Sig.IsStatic }

// IsPropertyLike reports whether a method can be used as a template
// placeholder on its own: no parameters and a non-void return.
func (m *MethodObj) IsPropertyLike() bool {
	return len(m.method.Sig.Params) == 0 && m.method.Sig.Return != nil && m.method.Sig.Return.Prim != metadata.PrimVoid
}

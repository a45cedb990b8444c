package reflectx

import (
	"fmt"
	"testing"

	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

func intRef() *metadata.TypeRef   { return metadata.NewPrimRef(metadata.PrimInt) }
func stringClassRef(c *metadata.Class) *metadata.TypeRef {
	r := metadata.NewObjectRef(c.FlatName)
	r.Prim = metadata.PrimObject
	r.Resolved = c
	return r
}

func newPropertyMethod(name string, declaring, returns *metadata.Class) *metadata.Method {
	m := metadata.NewMethod(name, declaring)
	m.Sig.Return = stringClassRef(returns)
	declaring.AddMember(m)
	return m
}

func TestTypeObjBasics(t *testing.T) {
	base := metadata.NewClass("Animal", "Animal")
	dog := metadata.NewClass("Dog", "Dog")
	dog.BaseClass = base

	to := NewTypeObj(dog)
	if to.Name() != "Dog" {
		t.Fatalf("Name() = %q, want Dog", to.Name())
	}
	if to.BaseType().Name() != "Animal" {
		t.Fatalf("BaseType().Name() = %q, want Animal", to.BaseType().Name())
	}
}

func TestMethodByName(t *testing.T) {
	cls := metadata.NewClass("Point", "Point")
	nameClass := metadata.NewClass("string", "string")
	method := newPropertyMethod("name", cls, nameClass)
	cls.InstanceMethods = append(cls.InstanceMethods, method)

	to := NewTypeObj(cls)
	found, ok := to.MethodByName("name")
	if !ok {
		t.Fatal("expected to find method `name`")
	}
	if !found.IsPropertyLike() {
		t.Fatal("expected `name` to be property-like")
	}
}

func TestCreateTemplateRejectsAbstractClass(t *testing.T) {
	cls := metadata.NewClass("Shape", "Shape")
	cls.Flags.Set(metadata.FlagAbstract)

	_, err := CreateTemplate("{name}", cls)
	if err == nil {
		t.Fatal("expected abstract class to be rejected")
	}
}

func TestCreateTemplateParsesLiteralAndPlaceholder(t *testing.T) {
	person := metadata.NewClass("Person", "Person")
	nameClass := metadata.NewClass("string", "string")
	newPropertyMethod("name", person, nameClass)

	tmpl, err := CreateTemplate("Hello, {name}!", person)
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if len(tmpl.parts) != 3 {
		t.Fatalf("len(parts) = %d, want 3", len(tmpl.parts))
	}
	if tmpl.parts[0].literal != "Hello, " {
		t.Fatalf("parts[0].literal = %q", tmpl.parts[0].literal)
	}
	if tmpl.parts[2].literal != "!" {
		t.Fatalf("parts[2].literal = %q", tmpl.parts[2].literal)
	}
	if len(tmpl.parts[1].steps) != 1 || tmpl.parts[1].steps[0].method.Name != "name" {
		t.Fatalf("parts[1] did not resolve to the `name` method")
	}
}

func TestCreateTemplateRejectsUnclosedPlaceholder(t *testing.T) {
	cls := metadata.NewClass("X", "X")
	_, err := CreateTemplate("{unclosed", cls)
	if err == nil {
		t.Fatal("expected unclosed placeholder to be rejected")
	}
}

func TestCreateTemplateRejectsUnknownMethod(t *testing.T) {
	cls := metadata.NewClass("X", "X")
	_, err := CreateTemplate("{bogus}", cls)
	if err == nil {
		t.Fatal("expected unknown method reference to be rejected")
	}
}

func TestCreateTemplateChainsPropertyAccess(t *testing.T) {
	person := metadata.NewClass("Person", "Person")
	addr := metadata.NewClass("Address", "Address")
	cityClass := metadata.NewClass("string", "string")

	newPropertyMethod("address", person, addr)
	newPropertyMethod("city", addr, cityClass)

	tmpl, err := CreateTemplate("{address city}", person)
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if len(tmpl.parts[0].steps) != 2 {
		t.Fatalf("expected a two-step chain, got %d", len(tmpl.parts[0].steps))
	}
}

// fakeModel is a minimal ObjectModel: objects are ints encoded as uintptr
// keys into a lookup table of (class, displayString, propertyValues).
type fakeObj struct {
	class      *metadata.Class
	display    string
	properties map[string]uintptr
}

type fakeModel struct {
	objs    map[uintptr]*fakeObj
	nextID  uintptr
	strings map[string]uintptr
}

func newFakeModel() *fakeModel {
	return &fakeModel{objs: make(map[uintptr]*fakeObj), strings: make(map[string]uintptr), nextID: 1}
}

func (f *fakeModel) add(o *fakeObj) uintptr {
	id := f.nextID
	f.nextID++
	f.objs[id] = o
	return id
}

func (f *fakeModel) ClassOf(obj uintptr) (*metadata.Class, error) {
	o, ok := f.objs[obj]
	if !ok {
		return nil, fmt.Errorf("no such object %d", obj)
	}
	return o.class, nil
}

func (f *fakeModel) InvokeMethod(method *metadata.Method, self uintptr, args []uintptr) (uintptr, error) {
	o := f.objs[self]
	v, ok := o.properties[method.Name]
	if !ok {
		return 0, fmt.Errorf("object has no property %q", method.Name)
	}
	return v, nil
}

func (f *fakeModel) NewIntArg(v int) uintptr    { return f.add(&fakeObj{display: fmt.Sprint(v)}) }
func (f *fakeModel) NewStringArg(v string) uintptr { return f.add(&fakeObj{display: v}) }

func (f *fakeModel) ToDisplayString(class *metadata.Class, obj uintptr) (string, error) {
	o, ok := f.objs[obj]
	if !ok {
		return "", fmt.Errorf("no such object %d", obj)
	}
	return o.display, nil
}

func TestTemplateRenderSubstitutesProperty(t *testing.T) {
	person := metadata.NewClass("Person", "Person")
	nameClass := metadata.NewClass("string", "string")
	newPropertyMethod("name", person, nameClass)

	tmpl, err := CreateTemplate("Hello, {name}!", person)
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	om := newFakeModel()
	nameVal := om.add(&fakeObj{class: nameClass, display: "Ada"})
	obj := om.add(&fakeObj{class: person, properties: map[string]uintptr{"name": nameVal}})

	out, err := tmpl.Render(obj, om)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "Hello, Ada!" {
		t.Fatalf("Render() = %q, want %q", out, "Hello, Ada!")
	}
}

func TestTemplateRenderRejectsWrongType(t *testing.T) {
	person := metadata.NewClass("Person", "Person")
	other := metadata.NewClass("Other", "Other")
	newPropertyMethod("name", person, metadata.NewClass("string", "string"))

	tmpl, err := CreateTemplate("{name}", person)
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	om := newFakeModel()
	obj := om.add(&fakeObj{class: other})

	if _, err := tmpl.Render(obj, om); err == nil {
		t.Fatal("expected Render to reject an object of the wrong class")
	}
}

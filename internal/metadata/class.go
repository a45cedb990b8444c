package metadata

// SpecialClass tags a class as an array, failable, boxed primitive, and
// other compiler-synthesized shapes that need special-case handling.
type SpecialClass int

const (
	SpecialNone SpecialClass = iota
	SpecialArray
	SpecialFailable
	SpecialForeign
	SpecialBoxed
	SpecialMethodClass
	SpecialEventClass
	SpecialInterface
	SpecialBinaryBlob
	SpecialAlias
	SpecialClosureEnv
)

// ClassFlags are per-class flag bits.
type ClassFlags uint16

const (
	FlagValueType ClassFlags = 1 << iota
	FlagStatic
	FlagAbstract
	FlagCompilerGenerated
	FlagSizeCalculated
	FlagMethodsFinalized
	FlagInitialized
	FlagFreeVtable
)

// Set, Clear and Has let other core packages (the linker, the unwinder
// clearing "initialized" after a static-constructor abort) manipulate a
// class's flag bits without exposing the underlying uint16.
func (f *ClassFlags) Set(b ClassFlags)   { *f |= b }
func (f *ClassFlags) Clear(b ClassFlags) { *f &^= b }
func (f ClassFlags) Has(b ClassFlags) bool { return f&b != 0 }

func (f *ClassFlags) set(b ClassFlags)     { f.Set(b) }
func (f ClassFlags) has(b ClassFlags) bool { return f.Has(b) }
func (f *ClassFlags) clear(b ClassFlags)   { f.Clear(b) }

// GCInfo records where heap references live inside an instance of this
// class.
type GCInfo struct {
	Offsets     []int // byte offsets holding heap references
	ContentSize int   // size in bytes of one instance
	SizeForUse  int   // slot size when used as an array element
}

// Class is the runtime's class record: a type's fields, methods, and
// layout. A Class is created during parsing or by the type resolver,
// owned by its declaring domain, and lives until the domain is torn down.
type Class struct {
	FlatName string
	NiceName string

	Prim    PrimType
	Special SpecialClass
	Flags   ClassFlags

	BaseClass     *Class
	WrappedClass  *Class // array element / boxed value type / alias target / event handler / failable inner type

	InstanceFields       []*Field
	StaticFields         []*Field
	InstanceCtors        []*Method
	InstanceMethods      []*Method
	StaticMethods        []*Method
	Constants            []*Field
	InstanceDtor         *Method
	StaticCtor           *Method
	StaticDtor           *Method

	Members map[string]Member // name -> member, populated as members are added

	Interfaces []*Class // interfaces this class implements

	Vtable []uintptr // slots 1.. hold virtual-method code pointers once codegen runs; slot 0 is implicit (class pointer)

	InvokeMethod *Method // set only for method-classes (closures)

	GC GCInfo

	Attributes map[string]string

	// runtimeObject is the one-time reflection back-pointer published the
	// first time something asks reflectx for this class's Type object.
	runtimeObject interface{}
}

// Member is implemented by *Method and *Field so Members can hold either.
type Member interface {
	MemberName() string
}

// Field is an instance/static field or a constant.
type Field struct {
	Name     string
	Type     *TypeRef
	IsStatic bool
	IsConst  bool
	Offset   int // valid once the owning class is size-calculated

	// StaticValue holds the boxed runtime value of a static field or
	// constant. No package in this module assigns it, so it stays nil
	// unless an embedder sets it.
	StaticValue interface{}
}

func (f *Field) MemberName() string { return f.Name }

func NewClass(flatName, niceName string) *Class {
	return &Class{
		FlatName: flatName,
		NiceName: niceName,
		Members:  make(map[string]Member),
		Attributes: make(map[string]string),
	}
}

func (c *Class) AddMember(m Member) { c.Members[m.MemberName()] = m }

func (c *Class) Member(name string) (Member, bool) {
	m, ok := c.Members[name]
	return m, ok
}

// RuntimeObject returns the cached reflection Type object for this class,
// or nil if none has been published yet. Set via SetRuntimeObject.
func (c *Class) RuntimeObject() interface{} { return c.runtimeObject }

func (c *Class) SetRuntimeObject(v interface{}) { c.runtimeObject = v }

// IsAssignableTo implements the assignability check shared by downcast,
// unbox and is(): walk the base-class chain, and for boxed classes
// delegate to the wrapped class.
func (c *Class) IsAssignableTo(target *Class) bool {
	cur := c
	if cur.Special == SpecialBoxed {
		cur = cur.WrappedClass
	}
	for cur != nil {
		if cur == target {
			return true
		}
		for _, iface := range cur.Interfaces {
			if iface == target {
				return true
			}
		}
		cur = cur.BaseClass
	}
	return false
}

func (f ClassFlags) HasValueType() bool          { return f.has(FlagValueType) }
func (f ClassFlags) HasStatic() bool             { return f.has(FlagStatic) }
func (f ClassFlags) HasAbstract() bool           { return f.has(FlagAbstract) }
func (f ClassFlags) HasCompilerGenerated() bool   { return f.has(FlagCompilerGenerated) }
func (f ClassFlags) HasSizeCalculated() bool      { return f.has(FlagSizeCalculated) }
func (f ClassFlags) HasMethodsFinalized() bool    { return f.has(FlagMethodsFinalized) }
func (f ClassFlags) HasInitialized() bool         { return f.has(FlagInitialized) }
func (f ClassFlags) HasFreeVtable() bool          { return f.has(FlagFreeVtable) }

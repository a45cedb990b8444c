package resolve

import "github.com/KonstantinGeist/skizo-sub000/internal/metadata"

// SynthesizeBoxed returns the (cached) boxed reference wrapper around a
// value type. Boxed classes are never user-visible by name; reflection
// unboxes them, reporting the wrapped class (see internal/reflectx).
func (r *Resolver) SynthesizeBoxed(valueType *metadata.Class) *metadata.Class {
	key := flatName("boxed", valueType.FlatName)
	return r.reg.SynthesizedOrCreate(key, func() *metadata.Class {
		c := metadata.NewClass(key, valueType.NiceName /* nice name mirrors the wrapped type; never shown directly */)
		c.Special = metadata.SpecialBoxed
		c.WrappedClass = valueType
		c.Flags = metadata.FlagCompilerGenerated

		valueField := &metadata.Field{Name: "value", Type: elemRef(valueType)}
		c.InstanceFields = []*metadata.Field{valueField}

		ctor := metadata.NewMethod("create", c)
		ctor.Kind = metadata.MethodCtor
		ctor.Special = metadata.SpecialMethodBoxedCtor
		ctor.Sig = metadata.Signature{Params: []metadata.Param{{Name: "v", Type: elemRef(valueType)}}}
		c.InstanceCtors = append(c.InstanceCtors, ctor)

		for _, vm := range valueType.InstanceMethods {
			if boxedForwarderExcluded(vm, valueType) {
				continue
			}
			fwd := metadata.NewMethod(vm.Name, c)
			fwd.Special = metadata.SpecialMethodBoxedMethod
			fwd.Sig = vm.Sig
			c.InstanceMethods = append(c.InstanceMethods, fwd)
		}

		return c
	})
}

// boxedForwarderExcluded excludes operators whose first parameter is the
// wrapped value type itself: they don't make sense once the receiver is
// cast to an interface, so no forwarder is synthesized for them.
func boxedForwarderExcluded(m *metadata.Method, valueType *metadata.Class) bool {
	if len(m.Sig.Params) == 0 {
		return false
	}
	first := m.Sig.Params[0].Type
	return first != nil && first.Resolved == valueType
}

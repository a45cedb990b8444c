package resolve

import "github.com/KonstantinGeist/skizo-sub000/internal/metadata"

// SynthesizeFailable returns the (cached) failable struct for wrapped,
// one struct per wrapped type cached by wrapped-class name. Field order:
// error pointer, then the embedded value (value types) or a pointer
// (reference types).
func (r *Resolver) SynthesizeFailable(wrapped *metadata.Class) *metadata.Class {
	key := flatName("failable", wrapped.FlatName)
	return r.reg.SynthesizedOrCreate(key, func() *metadata.Class {
		c := metadata.NewClass(key, "failable["+wrapped.NiceName+"]")
		c.Special = metadata.SpecialFailable
		c.WrappedClass = wrapped
		c.Flags = metadata.FlagCompilerGenerated

		errField := &metadata.Field{Name: "error", Type: &metadata.TypeRef{Prim: metadata.PrimObject, ClassName: "Error"}}
		valField := &metadata.Field{Name: "value", Type: elemRef(wrapped)}
		c.InstanceFields = []*metadata.Field{errField, valField}

		createFromValue := metadata.NewMethod("createFromValue", c)
		createFromValue.Kind = metadata.MethodCtor
		createFromValue.Sig = metadata.Signature{Params: []metadata.Param{{Name: "v", Type: elemRef(wrapped)}}}
		createFromValue.Body.LiteralC = `self->error = NULL; self->value = v;`
		c.InstanceCtors = append(c.InstanceCtors, createFromValue)

		createFromError := metadata.NewMethod("createFromError", c)
		createFromError.Kind = metadata.MethodCtor
		createFromError.Sig = metadata.Signature{Params: []metadata.Param{{Name: "e", Type: &metadata.TypeRef{Prim: metadata.PrimObject, ClassName: "Error"}}}}
		createFromError.Body.LiteralC = `self->error = e;`
		c.InstanceCtors = append(c.InstanceCtors, createFromError)

		success := metadata.NewMethod("success", c)
		success.Sig = metadata.Signature{Return: metadata.NewPrimRef(metadata.PrimBool)}
		success.Body.LiteralC = `return self->error == NULL;`
		c.InstanceMethods = append(c.InstanceMethods, success)

		unwrap := metadata.NewMethod("unwrap", c)
		unwrap.Sig = metadata.Signature{Return: elemRef(wrapped)}
		unwrap.Body.LiteralC = `
			if (self->error != NULL) {
				_soX_abort(4); /* ErrFailableFailure */
			}
			return self->value;`
		c.InstanceMethods = append(c.InstanceMethods, unwrap)

		errorM := metadata.NewMethod("error", c)
		errorM.Sig = metadata.Signature{Return: &metadata.TypeRef{Prim: metadata.PrimObject, ClassName: "Error"}}
		errorM.Body.LiteralC = `return self->error;`
		c.InstanceMethods = append(c.InstanceMethods, errorM)

		return c
	})
}

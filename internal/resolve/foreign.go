package resolve

import "github.com/KonstantinGeist/skizo-sub000/internal/metadata"

// SynthesizeForeignProxy returns the (cached) local proxy class that
// forwards every call to an object exported by another domain. Forbidden
// inputs are rejected: value types, static classes, binary blobs, and the
// string class (strings are shared value-like across domains).
func (r *Resolver) SynthesizeForeignProxy(target *metadata.Class) (*metadata.Class, error) {
	if err := checkForeignEligible(target); err != nil {
		return nil, err
	}

	key := flatName("foreign", target.FlatName)
	return r.reg.SynthesizedOrCreate(key, func() *metadata.Class {
		c := metadata.NewClass(key, "foreign["+target.NiceName+"]")
		c.Special = metadata.SpecialForeign
		c.WrappedClass = target
		c.Flags = metadata.FlagCompilerGenerated

		c.InstanceFields = []*metadata.Field{
			{Name: "domainHandle", Type: metadata.NewPrimRef(metadata.PrimIntPtr)},
			{Name: "exportedName", Type: &metadata.TypeRef{Prim: metadata.PrimObject, ClassName: "string"}},
		}

		for _, tm := range target.InstanceMethods {
			stub := metadata.NewMethod(tm.Name, c)
			stub.Special = metadata.SpecialMethodForeignSync
			stub.Sig = tm.Sig
			c.InstanceMethods = append(c.InstanceMethods, stub)
		}

		return c
	}), nil
}

func checkForeignEligible(target *metadata.Class) error {
	switch {
	case target.Flags.HasValueType():
		return metadata.NewHostError("type-mismatch", "value types cannot be wrapped in a foreign proxy", "")
	case target.Flags.HasStatic():
		return metadata.NewHostError("type-mismatch", "static classes cannot be wrapped in a foreign proxy", "")
	case target.Special == metadata.SpecialBinaryBlob:
		return metadata.NewHostError("type-mismatch", "binary blobs cannot be wrapped in a foreign proxy", "")
	case target.NiceName == "string":
		return metadata.NewHostError("type-mismatch", "strings are shared value-like across domains and need no foreign proxy", "")
	}
	return nil
}

package resolve

import (
	"fmt"

	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// SynthesizeArray returns the (cached) array class for elem, creating it
// if this is the first request for that element type in this domain. One
// level of array nesting is synthesized per call; resolveArrayLevels
// calls this once per level, innermost first.
func (r *Resolver) SynthesizeArray(elem *metadata.Class) *metadata.Class {
	key := flatName("array", elem.FlatName)
	return r.reg.SynthesizedOrCreate(key, func() *metadata.Class {
		c := metadata.NewClass(key, "["+elem.NiceName+"]")
		c.Special = metadata.SpecialArray
		c.WrappedClass = elem
		c.Flags = metadata.FlagCompilerGenerated
		c.GC = metadata.GCInfo{} // arrays are GC-special-cased, see internal/gcheap

		lengthM := metadata.NewMethod("length", c)
		lengthM.Sig = metadata.Signature{Return: metadata.NewPrimRef(metadata.PrimInt)}
		lengthM.Body.LiteralC = arrayLengthBody()
		c.InstanceMethods = append(c.InstanceMethods, lengthM)

		getM := metadata.NewMethod("get", c)
		getM.Sig = metadata.Signature{
			Params: []metadata.Param{{Name: "index", Type: metadata.NewPrimRef(metadata.PrimInt)}},
			Return: elemRef(elem),
		}
		getM.Body.LiteralC = arrayGetBody()
		c.InstanceMethods = append(c.InstanceMethods, getM)

		setM := metadata.NewMethod("set", c)
		setM.Sig = metadata.Signature{
			Params: []metadata.Param{
				{Name: "index", Type: metadata.NewPrimRef(metadata.PrimInt)},
				{Name: "value", Type: elemRef(elem)},
			},
			Return: metadata.NewPrimRef(metadata.PrimVoid),
		}
		setM.Body.LiteralC = arraySetBody()
		c.InstanceMethods = append(c.InstanceMethods, setM)

		return c
	})
}

func elemRef(elem *metadata.Class) *metadata.TypeRef {
	return &metadata.TypeRef{Kind: metadata.RefNormal, Prim: metadata.PrimObject, ClassName: elem.NiceName, Resolved: elem}
}

// arrayLengthBody/arrayGetBody/arraySetBody hold the literal C bodies the
// code generator bridge emits verbatim for these resolver-synthesized
// methods, the same way classes with a structDef slice get their layout
// emitted verbatim. The inline range check aborts with ErrRangeCheck.
func arrayLengthBody() string {
	return `return ((SkizoArray*)self)->length;`
}

func arrayGetBody() string {
	return fmt.Sprintf(`
		SkizoArray* arr = (SkizoArray*)self;
		if (index < 0 || index >= arr->length) {
			_soX_abort(%d);
		}
		return arr->firstElement[index];`, int(metadata.ErrRangeCheck))
}

func arraySetBody() string {
	return fmt.Sprintf(`
		SkizoArray* arr = (SkizoArray*)self;
		if (index < 0 || index >= arr->length) {
			_soX_abort(%d);
		}
		arr->firstElement[index] = value;`, int(metadata.ErrRangeCheck))
}

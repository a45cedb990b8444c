// Package resolve implements the type resolver: it closes unresolved type
// references to concrete classes, synthesizing array, failable, boxed
// and foreign-proxy classes on demand.
package resolve

import (
	"fmt"

	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// Resolver closes type references against a single domain's registry.
type Resolver struct {
	reg *metadata.Registry
}

func New(reg *metadata.Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Resolve closes a type reference against the registry. On success ref is
// mutated in place to {kind=normal, array-level=0, primitive=object,
// class-name=<synthetic>, resolved-class=<concrete>}; non-object
// primitives with no array level are left untouched (they never need a
// synthesized class, see metadata.TypeRef.Equal).
func (r *Resolver) Resolve(ref *metadata.TypeRef) error {
	// Already resolved.
	if ref.IsResolved() {
		return nil
	}

	// Failable and foreign kinds are handled first. A failable reference
	// carries its array level into the inner reference, so the failable
	// wraps the array; a foreign reference synthesizes the proxy and then
	// wraps one array class per level around it. A plain array reference
	// resolves its element at level 0 and then wraps one synthesized array
	// per level, innermost first — see resolveArrayLevels below.
	switch ref.Kind {
	case metadata.RefFailable:
		return r.resolveFailable(ref)
	case metadata.RefForeign:
		return r.resolveForeign(ref)
	}

	if ref.ArrayLevel > 0 {
		return r.resolveArrayLevels(ref)
	}

	// Plain object reference.
	if ref.Prim != metadata.PrimObject {
		// Non-object primitive with no array/failable/foreign wrapping:
		// nothing to resolve.
		return nil
	}

	class, ok := r.reg.Lookup(ref.ClassName)
	if !ok {
		return fmt.Errorf("resolve: class %q not found", ref.ClassName)
	}
	if class.Special == metadata.SpecialAlias {
		aliasTarget := &metadata.TypeRef{
			Kind:      metadata.RefNormal,
			Prim:      metadata.PrimObject,
			ClassName: class.WrappedClass.NiceName,
		}
		if err := r.Resolve(aliasTarget); err != nil {
			return err
		}
		*ref = *aliasTarget
		return nil
	}

	ref.Resolved = class
	ref.Kind = metadata.RefNormal
	ref.ArrayLevel = 0
	return nil
}

// resolveArrayLevels synthesizes one array class per level, innermost
// first.
func (r *Resolver) resolveArrayLevels(ref *metadata.TypeRef) error {
	inner := &metadata.TypeRef{
		Kind:      ref.Kind,
		Prim:      ref.Prim,
		ClassName: ref.ClassName,
	}
	if err := r.Resolve(inner); err != nil {
		return err
	}
	elem := inner.Resolved
	if elem == nil {
		elem = primitiveClassFor(inner.Prim)
	}

	for i := 0; i < ref.ArrayLevel; i++ {
		elem = r.SynthesizeArray(elem)
	}

	ref.Resolved = elem
	ref.Kind = metadata.RefNormal
	ref.ArrayLevel = 0
	ref.Prim = metadata.PrimObject
	ref.ClassName = elem.NiceName
	return nil
}

func (r *Resolver) resolveFailable(ref *metadata.TypeRef) error {
	inner := &metadata.TypeRef{
		Kind:       metadata.RefNormal,
		Prim:       ref.Prim,
		ClassName:  ref.ClassName,
		ArrayLevel: ref.ArrayLevel,
	}
	if err := r.Resolve(inner); err != nil {
		return err
	}
	wrapped := inner.Resolved
	if wrapped == nil {
		wrapped = primitiveClassFor(inner.Prim)
	}
	failable := r.SynthesizeFailable(wrapped)
	ref.Resolved = failable
	ref.Kind = metadata.RefNormal
	ref.ArrayLevel = 0
	ref.Prim = metadata.PrimObject
	ref.ClassName = failable.NiceName
	return nil
}

func (r *Resolver) resolveForeign(ref *metadata.TypeRef) error {
	inner := &metadata.TypeRef{
		Kind:      metadata.RefNormal,
		Prim:      ref.Prim,
		ClassName: ref.ClassName,
	}
	if err := r.Resolve(inner); err != nil {
		return err
	}
	proxy, err := r.SynthesizeForeignProxy(inner.Resolved)
	if err != nil {
		return err
	}
	elem := proxy
	for i := 0; i < ref.ArrayLevel; i++ {
		elem = r.SynthesizeArray(elem)
	}
	ref.Resolved = elem
	ref.Kind = metadata.RefNormal
	ref.ArrayLevel = 0
	ref.Prim = metadata.PrimObject
	ref.ClassName = elem.NiceName
	return nil
}

// primitiveClassFor is a placeholder for the boxed-representation class of
// a bare primitive used as an array element or failable inner type
// without ever naming an object class (e.g. [int]). In a full build these
// classes are pre-registered by the domain bootstrap (System.Int, etc.);
// here we synthesize a minimal stand-in so array/failable synthesis has a
// concrete element class to key off of.
func primitiveClassFor(p metadata.PrimType) *metadata.Class {
	name := primName(p)
	c := metadata.NewClass(name, name)
	c.Prim = p
	c.Flags = metadata.FlagValueType | metadata.FlagSizeCalculated | metadata.FlagMethodsFinalized
	c.GC.ContentSize = primSize(p)
	c.GC.SizeForUse = c.GC.ContentSize
	return c
}

func primName(p metadata.PrimType) string {
	switch p {
	case metadata.PrimInt:
		return "int"
	case metadata.PrimFloat:
		return "float"
	case metadata.PrimBool:
		return "bool"
	case metadata.PrimChar:
		return "char"
	case metadata.PrimIntPtr:
		return "intptr"
	default:
		return "void"
	}
}

func primSize(p metadata.PrimType) int {
	switch p {
	case metadata.PrimInt, metadata.PrimFloat, metadata.PrimIntPtr:
		return 8
	case metadata.PrimBool:
		return 1
	case metadata.PrimChar:
		return 2
	default:
		return 0
	}
}

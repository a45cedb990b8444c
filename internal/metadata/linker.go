package metadata

import "fmt"

// PtrSize is the pointer width field layout aligns to. Targets 64-bit
// hosts; a 32-bit build would set this at init time, mirroring
// cmd_local/compile/internal/types.Widthptr.
const PtrSize = 8

// Link finalizes a closed set of classes (parsing and type resolution must
// already have reached a fixed point): builds vtables, lays out fields,
// and borrows attributes. Classes that already carry the methods-finalized
// flag are skipped, so a class passed to Link a second time is left as it
// is.
func Link(classes []*Class) error {
	for _, c := range classes {
		if err := checkBaseCycle(c); err != nil {
			return err
		}
	}
	for _, c := range classes {
		if c.Flags.HasMethodsFinalized() {
			continue
		}
		finalizeMethods(c)
		layoutFields(c)
		borrowAttributes(c)
		c.Flags.set(FlagMethodsFinalized)
		c.Flags.set(FlagSizeCalculated)
	}
	return nil
}

// checkBaseCycle walks the base-class chain starting from c and fails if c
// reappears.
func checkBaseCycle(c *Class) error {
	seen := map[*Class]bool{}
	cur := c
	for cur != nil {
		if seen[cur] {
			return fmt.Errorf("metadata: cycle in base-class chain starting at %q", c.NiceName)
		}
		seen[cur] = true
		cur = cur.BaseClass
	}
	return nil
}

// finalizeMethods copies inherited instance methods not overridden by c,
// preserving base ordering so inherited vtable indices stay stable, then
// assigns consecutive indices to c's own new virtual methods starting at
// the base class's count. Interface methods implemented by c are recorded
// into its interface cache.
func finalizeMethods(c *Class) {
	var finalized []*Method
	baseCount := 0

	if c.BaseClass != nil {
		if !c.BaseClass.Flags.HasMethodsFinalized() {
			finalizeMethods(c.BaseClass)
		}
		for _, baseM := range c.BaseClass.InstanceMethods {
			if override := findOverride(c.InstanceMethods, baseM); override != nil {
				override.VtableIndex = baseM.VtableIndex
				finalized = append(finalized, override)
				continue
			}
			finalized = append(finalized, baseM)
		}
		baseCount = len(c.BaseClass.InstanceMethods)
	}

	next := baseCount
	for _, m := range c.InstanceMethods {
		if containsMethod(finalized, m) {
			continue
		}
		m.VtableIndex = next
		next++
		finalized = append(finalized, m)
	}
	c.InstanceMethods = finalized

	for _, iface := range c.Interfaces {
		for _, ifaceMethod := range iface.InstanceMethods {
			if impl := findOverride(c.InstanceMethods, ifaceMethod); impl != nil {
				c.Members[interfaceCacheKey(iface, ifaceMethod)] = impl
			}
		}
	}
}

func interfaceCacheKey(iface *Class, m *Method) string {
	return "iface:" + iface.FlatName + "." + m.Name
}

func findOverride(candidates []*Method, base *Method) *Method {
	for _, m := range candidates {
		if m.Name == base.Name && m.SignatureEqual(base) {
			return m
		}
	}
	return nil
}

func containsMethod(list []*Method, m *Method) bool {
	for _, x := range list {
		if x == m {
			return true
		}
	}
	return false
}

// layoutFields walks instance fields in declaration order after inherited
// fields, accumulates pointer-aligned offsets, records reference-field
// offsets into the GC map (recursing into value-type fields' own GC
// maps), and sets content size / size-for-use.
func layoutFields(c *Class) {
	offset := 0
	var gcOffsets []int

	if c.BaseClass != nil {
		if !c.BaseClass.Flags.HasSizeCalculated() {
			layoutFields(c.BaseClass)
		}
		offset = c.BaseClass.GC.ContentSize
		gcOffsets = append(gcOffsets, c.BaseClass.GC.Offsets...)
	}

	for _, f := range c.InstanceFields {
		size := fieldSize(f)
		offset = alignUp(offset, PtrSize)
		f.Offset = offset
		if isReferenceField(f) {
			gcOffsets = append(gcOffsets, offset)
		} else if f.Type.Resolved != nil && f.Type.Resolved.Flags.HasValueType() {
			for _, inner := range f.Type.Resolved.GC.Offsets {
				gcOffsets = append(gcOffsets, offset+inner)
			}
		}
		offset += size
	}

	c.GC.Offsets = gcOffsets
	c.GC.ContentSize = alignUp(offset, PtrSize)
	if c.Flags.HasValueType() {
		c.GC.SizeForUse = c.GC.ContentSize
	} else {
		c.GC.SizeForUse = PtrSize
	}
}

func isReferenceField(f *Field) bool {
	if f.Type == nil || f.Type.Resolved == nil {
		return false
	}
	return !f.Type.Resolved.Flags.HasValueType()
}

func fieldSize(f *Field) int {
	if f.Type == nil || f.Type.Resolved == nil {
		return PtrSize
	}
	rc := f.Type.Resolved
	if rc.Flags.HasValueType() {
		return alignUp(rc.GC.ContentSize, PtrSize)
	}
	return PtrSize
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + (align - rem)
}

// borrowAttributes recursively borrows attributes from the base class
// unless this class already has that attribute name set.
func borrowAttributes(c *Class) {
	if c.BaseClass == nil {
		return
	}
	for k, v := range c.BaseClass.Attributes {
		if _, has := c.Attributes[k]; !has {
			c.Attributes[k] = v
		}
	}
}

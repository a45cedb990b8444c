package domain

import (
	"github.com/KonstantinGeist/skizo-sub000/internal/gcheap"
	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// classInfo adapts a *metadata.Class to gcheap.ClassInfo: the minimal
// view the collector needs to trace and free an object, kept separate
// from metadata.Class itself so gcheap never has to import metadata.
type classInfo struct {
	d *Domain
	c *metadata.Class
}

func (ci classInfo) GCOffsets() []int { return ci.c.GC.Offsets }
func (ci classInfo) ContentSize() int { return ci.c.GC.ContentSize }
func (ci classInfo) IsArray() bool    { return ci.c.Special == metadata.SpecialArray }

func (ci classInfo) ElementClass() gcheap.ClassInfo {
	if ci.c.WrappedClass == nil {
		return nil
	}
	return classInfo{d: ci.d, c: ci.c.WrappedClass}
}

func (ci classInfo) ElementIsReference() bool {
	return ci.c.WrappedClass != nil && !ci.c.WrappedClass.Flags.HasValueType()
}

// Destructor returns a closure invoking the class's instance destructor
// through the domain's compiled-code table, or nil if the class declares
// none. Called by gcheap's sweep for every unmarked cell about to be
// freed.
func (ci classInfo) Destructor() func(obj *gcheap.Cell) {
	dtor := ci.c.InstanceDtor
	if dtor == nil {
		return nil
	}
	d := ci.d
	return func(obj *gcheap.Cell) {
		_, _ = d.CallCode(dtor.CodePtr, gcheap.CellHandle(obj), nil)
	}
}

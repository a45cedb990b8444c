package dispatch

import (
	"fmt"

	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// ifaceCacheEntry is cached per receiver class: each class has its own
// cache, there is no global table.
type ifaceCacheEntry struct {
	codePtr uintptr
}

// IfaceCache holds one receiver-class→(interface-method→code pointer)
// cache per class, rather than a single global table.
type IfaceCache struct {
	reg     *Registry
	entries map[*metadata.Class]map[*metadata.Method]ifaceCacheEntry
}

func NewIfaceCache(reg *Registry) *IfaceCache {
	return &IfaceCache{reg: reg, entries: make(map[*metadata.Class]map[*metadata.Method]ifaceCacheEntry)}
}

// FindMethod resolves an interface call: on a cache miss, look up the
// receiver class's own instance method by name, verify signature equality
// with the interface method, assert a valid vtable index, read the
// vtable slot, and fill the cache.
func (ic *IfaceCache) FindMethod(receiverClass *metadata.Class, ifaceMethod *metadata.Method) (uintptr, error) {
	perClass, ok := ic.entries[receiverClass]
	if !ok {
		perClass = make(map[*metadata.Method]ifaceCacheEntry)
		ic.entries[receiverClass] = perClass
	}
	if e, ok := perClass[ifaceMethod]; ok {
		return e.codePtr, nil
	}

	impl := findInstanceMethod(receiverClass, ifaceMethod.Name)
	if impl == nil {
		return 0, fmt.Errorf("dispatch: %s has no method named %q implementing the interface", receiverClass.NiceName, ifaceMethod.Name)
	}
	if !impl.SignatureEqual(ifaceMethod) {
		return 0, fmt.Errorf("dispatch: %s.%s signature does not match the interface method", receiverClass.NiceName, ifaceMethod.Name)
	}
	if !impl.IsVirtual() {
		return 0, fmt.Errorf("dispatch: %s.%s has no vtable slot", receiverClass.NiceName, ifaceMethod.Name)
	}

	vt := ic.reg.Lookup(receiverClass)
	if vt == nil {
		return 0, fmt.Errorf("dispatch: %s has no registered vtable yet", receiverClass.NiceName)
	}
	codePtr := vt.Slot(impl.VtableIndex)

	perClass[ifaceMethod] = ifaceCacheEntry{codePtr: codePtr}
	return codePtr, nil
}

func findInstanceMethod(class *metadata.Class, name string) *metadata.Method {
	for _, m := range class.InstanceMethods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Invalidate drops every cached entry for receiverClass, so the next
// FindMethod for that class re-reads its vtable.
func (ic *IfaceCache) Invalidate(receiverClass *metadata.Class) {
	delete(ic.entries, receiverClass)
}

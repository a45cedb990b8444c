package gcheap

import "unsafe"

// CellHandle and CellFromHandle let callers outside this package treat a
// live Cell the same way emitted code treats an object reference: an
// opaque address. The cell itself stays reachable through the heap's own
// linked list (or a GC root) independent of anyone holding this uintptr,
// so the round trip never outlives the cell's real lifetime.
func CellHandle(c *Cell) uintptr {
	return uintptr(unsafe.Pointer(c))
}

func CellFromHandle(h uintptr) *Cell {
	if h == 0 {
		return nil
	}
	return (*Cell)(unsafe.Pointer(h)) //nolint:govet // deliberate pointer-shaped integer round trip, see CellHandle
}

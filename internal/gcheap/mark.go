package gcheap

// Collect runs one full mark-sweep cycle. It is synchronous on the
// domain thread; there is no concurrent or incremental phase.
func (h *Heap) Collect() {
	h.mu.Lock()
	roots := h.roots.snapshot()
	h.mu.Unlock()

	marked := make(map[*Cell]bool)
	for _, r := range roots {
		mark(r, marked)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.sweepLocked(marked)
	h.collections++

	// Threshold heuristic: if the post-collection live size exceeds the
	// previous threshold, double it; after a collection, halve it, clamped
	// to the minimum.
	if h.liveBytes > h.threshold {
		h.threshold *= 2
	} else {
		h.threshold /= 2
		if h.threshold < minThreshold {
			h.threshold = minThreshold
		}
	}
	h.bytesSinceGC = 0
}

// mark follows references using the GC map of the object's class,
// special-casing arrays (walk every element). String literals get no
// special treatment here; sweepLocked never frees them.
func mark(c *Cell, marked map[*Cell]bool) {
	if c == nil || marked[c] {
		return
	}
	marked[c] = true

	if c.Class != nil && c.Class.IsArray() {
		if c.Class.ElementIsReference() {
			for _, elem := range c.Elements {
				mark(elem, marked)
			}
		}
		// Value-element arrays hold no references unless the element
		// class itself has a GC map; not modeled at the Go-Cell level
		// here (see Cell doc comment) — full fidelity would recurse
		// into c.Class.ElementClass().GCOffsets() per slot.
		return
	}

	for _, ref := range c.Refs {
		mark(ref, marked)
	}
}

package gcheap

// sweepLocked walks the cell list, freeing every unmarked cell after
// invoking its class destructor (if any). String literals are never
// swept: cells with StringLiteral set are skipped whether or not mark
// reached them. Caller must hold h.mu.
func (h *Heap) sweepLocked(marked map[*Cell]bool) {
	cur := h.head
	var freed int64
	for cur != nil {
		next := cur.next
		if cur.StringLiteral || marked[cur] {
			cur = next
			continue
		}
		if cur.Class != nil {
			if dtor := cur.Class.Destructor(); dtor != nil {
				dtor(cur)
			}
		}
		h.unlink(cur)
		freed += int64(len(cur.Bytes))
		cur = next
	}
	h.liveBytes -= freed
	if h.liveBytes < 0 {
		h.liveBytes = 0
	}
}

// Teardown does a final collection with no roots to reclaim everything,
// then frees the string-literal sub-heap.
func (h *Heap) Teardown() {
	h.mu.Lock()
	h.roots.cells = nil
	h.mu.Unlock()

	h.Collect()

	h.mu.Lock()
	defer h.mu.Unlock()
	cur := h.head
	for cur != nil {
		next := cur.next
		h.unlink(cur)
		cur = next
	}
	h.liveBytes = 0
}

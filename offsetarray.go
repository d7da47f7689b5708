// Offset-array chain: a growable sequence of fixed-capacity EntryArray
// nodes linked via next_entry_array_offset. Two independent chains use
// this same shape: the global entry-array chain (anchored at the
// header's entry_array_offset, starting at 4096 capacity and doubling)
// and each Data object's per-data entry-array chain (anchored at the
// Data object's entry_array_offset once a second entry links to it,
// starting at 64 capacity and doubling).
//
// Grounded on original_source/writer.rs's allocate_new_array,
// append_to_entry_array, and append_to_data_entry_array.
package journal

const (
	globalChainInitialCapacity = 4096
	dataChainInitialCapacity   = 64
)

// offsetArrayChain walks or extends one offset-array chain.
type offsetArrayChain struct {
	jf *JournalFile
}

// tail walks from head to the last node in the chain, returning its
// offset and view. Returns ErrEmptyOffsetArray if head is 0.
func (c offsetArrayChain) tail(head uint64) (uint64, *EntryArrayObjectView, error) {
	if head == 0 {
		return 0, nil, ErrEmptyOffsetArray
	}
	offset := head
	for {
		view, hdr, err := c.jf.OffsetArrayRef(offset)
		if err != nil {
			return 0, nil, err
		}
		next := view.NextArrayOffset()
		if next == 0 {
			return offset, view, nil
		}
		if next <= offset {
			return 0, nil, ErrBadOffsetArrayOffset
		}
		_ = hdr
		offset = next
	}
}

// nextCapacity doubles the previous node's capacity, in items, for the
// next node allocated in the chain (or returns the chain's initial
// capacity if this is the first node).
func nextCapacity(prevCapacity uint64, initial uint64) uint64 {
	if prevCapacity == 0 {
		return initial
	}
	return prevCapacity * 2
}

// append adds value to the chain rooted at head, allocating a new node
// (with doubled capacity relative to the current tail) when the tail is
// full. Returns the (possibly unchanged) head offset — callers whose
// head offset lives in a Data object or the file header must persist
// the returned value back into that field themselves.
func (c offsetArrayChain) append(head uint64, initialCapacity, value uint64) (uint64, error) {
	if head == 0 {
		newHead, err := c.allocateNode(initialCapacity)
		if err != nil {
			return 0, err
		}
		view, _, err := c.jf.OffsetArrayMut(newHead)
		if err != nil {
			return 0, err
		}
		view.Set(0, value)
		return newHead, nil
	}

	tailOff, tailView, err := c.tail(head)
	if err != nil {
		return 0, err
	}
	hdr, err := c.jf.objectHeaderAt(tailOff)
	if err != nil {
		return 0, err
	}
	cap := tailView.Capacity(hdr.Size)

	used, err := c.usedSlots(tailOff, cap)
	if err != nil {
		return 0, err
	}
	if used < cap {
		mutView, _, err := c.jf.OffsetArrayMut(tailOff)
		if err != nil {
			return 0, err
		}
		mutView.Set(used, value)
		return head, nil
	}

	newCap := nextCapacity(cap, initialCapacity)
	newOff, err := c.allocateNode(newCap)
	if err != nil {
		return 0, err
	}
	mutTail, _, err := c.jf.OffsetArrayMut(tailOff)
	if err != nil {
		return 0, err
	}
	mutTail.SetNextArrayOffset(newOff)
	newView, _, err := c.jf.OffsetArrayMut(newOff)
	if err != nil {
		return 0, err
	}
	newView.Set(0, value)
	return head, nil
}

// usedSlots counts how many of a node's capacity slots are occupied.
// Offset-array nodes are append-only and zero-initialized, so the first
// zero slot marks the end — except slot value 0 is itself a valid
// offset only for "unused", since offset 0 always falls inside the
// header and can never be a real object.
func (c offsetArrayChain) usedSlots(nodeOffset, capacity uint64) (uint64, error) {
	view, _, err := c.jf.OffsetArrayRef(nodeOffset)
	if err != nil {
		return 0, err
	}
	var i uint64
	for ; i < capacity; i++ {
		if view.Get(i) == 0 {
			break
		}
	}
	return i, nil
}

func (c offsetArrayChain) allocateNode(capacity uint64) (uint64, error) {
	itemSize := uint64(8)
	if c.jf.header.Compact() {
		itemSize = 4
	}
	size := EntryArrayObjectSize + capacity*itemSize
	return c.jf.allocateObject(ObjectEntryArray, size)
}

// lowerBound returns the smallest logical index in [0, total) whose
// stored value satisfies shaped, where shaped is assumed false for a
// prefix and true for a suffix in logical index order (a standard
// monotone partition). Per §4.5, only as many nodes as necessary are
// visited: each node is first tested by its own last live entry and
// skipped whole when shaped does not yet hold there; the one node
// that actually contains the transition is then binary-searched.
// Returns ok=false if shaped never holds. Shared by directedPartitionPoint
// below and by JournalFile.DataObjectDirectedPartitionPoint (file.go),
// which composes a data object's inlined head_entry_offset with this
// chain to search across both as one logical sequence.
func (c offsetArrayChain) lowerBound(head uint64, initialCapacity, total uint64, shaped func(value uint64) bool) (idx uint64, ok bool, err error) {
	if total == 0 {
		return 0, false, nil
	}

	nodeOffset := head
	cap := initialCapacity
	base := uint64(0)
	for nodeOffset != 0 && base < total {
		view, _, err := c.jf.OffsetArrayRef(nodeOffset)
		if err != nil {
			return 0, false, err
		}
		nodeLen := cap
		if base+nodeLen > total {
			nodeLen = total - base
		}

		if !shaped(view.Get(nodeLen - 1)) {
			base += nodeLen
			nodeOffset = view.NextArrayOffset()
			cap *= 2
			continue
		}

		lo, hi := uint64(0), nodeLen
		for lo < hi {
			mid := lo + (hi-lo)/2
			if shaped(view.Get(mid)) {
				hi = mid
			} else {
				lo = mid + 1
			}
		}
		return base + lo, true, nil
	}
	return 0, false, nil
}

// directedPartitionPoint implements spec.md §4.5's directed_partition_point.
// The chain's logical sequence is always walked node-by-node from head
// (there is no previous-node pointer to walk the other way), but the
// predicate's expected shape flips with direction: Forward predicates
// are false for a prefix and true for a suffix (the partition point is
// the first true index, as returned directly by lowerBound); Backward
// predicates are true for a prefix and false for a suffix (the
// partition point is the last true index, one before lowerBound's
// first-false index under the negated predicate). total is the
// logical length of the sequence (the caller's n_entries or
// equivalent), supplied rather than derived since the chain itself
// does not store the partial length of its last node.
func (c offsetArrayChain) directedPartitionPoint(head uint64, initialCapacity, total uint64, predicate func(value uint64) bool, direction Direction) (idx uint64, ok bool, err error) {
	shaped := predicate
	if direction == Backward {
		shaped = func(value uint64) bool { return !predicate(value) }
	}
	lo, found, err := c.lowerBound(head, initialCapacity, total, shaped)
	if err != nil {
		return 0, false, err
	}
	if direction == Forward {
		return lo, found, nil
	}
	// Backward: found == false means shaped (the negated predicate) held
	// nowhere, i.e. the original predicate held everywhere, so the last
	// logical index is the answer.
	if !found {
		if total == 0 {
			return 0, false, nil
		}
		return total - 1, true, nil
	}
	if lo == 0 {
		return 0, false, nil
	}
	return lo - 1, true, nil
}

// forEach walks every value stored in the chain rooted at head, in
// append order, calling fn with each value and its logical index across
// the whole chain (not just within one node). Used by the File Index's
// scan-build pass to walk the global entry-array chain without
// duplicating the node-hopping logic.
func (c offsetArrayChain) forEach(head uint64, fn func(idx, value uint64) error) error {
	offset := head
	var idx uint64
	for offset != 0 {
		view, hdr, err := c.jf.OffsetArrayRef(offset)
		if err != nil {
			return err
		}
		cap := view.Capacity(hdr.Size)
		for i := uint64(0); i < cap; i++ {
			v := view.Get(i)
			if v == 0 {
				return nil
			}
			if err := fn(idx, v); err != nil {
				return err
			}
			idx++
		}
		offset = view.NextArrayOffset()
	}
	return nil
}

// Multi-File Query Planner: pages through several files' indexes in
// (timestamp, file order, position) order via a k-way merge, carrying a
// PaginationState across calls so a caller can fetch one page at a
// time without re-merging everything or returning the same entry twice.
//
// Grounded on
// original_source/src/crates/journal-engine/tests/multi_file_pagination.rs
// (the forward-non-overlapping scenario, reused with smaller values as
// planner_test.go's S4) and journal-index/tests/pagination.rs (the same-timestamp dedup
// scenario reused as S5). container/heap is stdlib — no pack library
// models a generic k-way merge frontier, so this is a justified stdlib
// case rather than a missed opportunity.
package journal

import "container/heap"

// FileSource is one file participating in a multi-file query. Order
// must be assigned consistently across calls (e.g. rotation sequence
// number) since it is the tie-break when two entries share a
// timestamp.
type FileSource struct {
	Path  string
	Index *FileIndex
	Order int
}

// MergedEntry is one result row, carrying which file it came from.
type MergedEntry struct {
	Source   string
	Entry    IndexedEntry
	Order    int
}

// PaginationState carries, for each file, the position of the last
// entry already returned between calls to ExecutePage; the next call
// resumes strictly past it. A file absent from the map has not
// been consumed yet for this query and starts from the query's anchor.
type PaginationState struct {
	FilePositions map[string]uint64
}

// NewPaginationState returns an empty state for a fresh query.
func NewPaginationState() PaginationState {
	return PaginationState{FilePositions: make(map[string]uint64)}
}

type mergeCursor struct {
	source  FileSource
	entries []IndexedEntry
	i       int
}

func (c *mergeCursor) peek() (IndexedEntry, bool) {
	if c.i >= len(c.entries) {
		return IndexedEntry{}, false
	}
	return c.entries[c.i], true
}

// heap of cursors, ordered by (timestamp, file order, position),
// ascending for Forward and descending for Backward.
type cursorHeap struct {
	cursors   []*mergeCursor
	direction Direction
}

func (h cursorHeap) Len() int { return len(h.cursors) }
func (h cursorHeap) Less(i, j int) bool {
	a, _ := h.cursors[i].peek()
	b, _ := h.cursors[j].peek()
	if a.Timestamp != b.Timestamp {
		if h.direction == Forward {
			return a.Timestamp < b.Timestamp
		}
		return a.Timestamp > b.Timestamp
	}
	oa, ob := h.cursors[i].source.Order, h.cursors[j].source.Order
	if oa != ob {
		if h.direction == Forward {
			return oa < ob
		}
		return oa > ob
	}
	if h.direction == Forward {
		return a.Position < b.Position
	}
	return a.Position > b.Position
}
func (h cursorHeap) Swap(i, j int) { h.cursors[i], h.cursors[j] = h.cursors[j], h.cursors[i] }
func (h *cursorHeap) Push(x any)   { h.cursors = append(h.cursors, x.(*mergeCursor)) }
func (h *cursorHeap) Pop() any {
	old := h.cursors
	n := len(old)
	item := old[n-1]
	h.cursors = old[:n-1]
	return item
}

// ExecutePage runs one page of a multi-file query: it applies params to
// each source (resuming from state, or from params' anchor if the
// source has no recorded position), merges the results in strict
// timestamp/order/position sequence, and returns at most params.Limit
// entries plus the state to pass to the next call. Monotonicity and
// no-duplicate-across-pages both fall out of state always advancing
// past the last position consumed from each file.
func ExecutePage(sources []FileSource, params QueryParams, state PaginationState) ([]MergedEntry, PaginationState, error) {
	if state.FilePositions == nil {
		state = NewPaginationState()
	}
	newState := PaginationState{FilePositions: make(map[string]uint64, len(state.FilePositions))}
	for k, v := range state.FilePositions {
		newState.FilePositions[k] = v
	}

	// A zero limit returns nothing, with the state unchanged (spec.md
	// B5), rather than the unbounded-fetch sentinel below.
	if params.Limit == 0 {
		return nil, newState, nil
	}

	h := &cursorHeap{direction: params.Direction}
	heap.Init(h)

	for _, src := range sources {
		p := params
		p.Limit = unboundedLimit
		if pos, ok := state.FilePositions[src.Path]; ok {
			rp := pos
			p.ResumePosition = &rp
		} else {
			p.ResumePosition = nil
		}
		entries, err := src.Index.FindLogEntries(p)
		if err != nil {
			return nil, state, err
		}
		if len(entries) == 0 {
			continue
		}
		heap.Push(h, &mergeCursor{source: src, entries: entries})
	}

	var out []MergedEntry
	for h.Len() > 0 {
		if params.Limit > 0 && len(out) >= params.Limit {
			break
		}
		// Pop-emit-advance-push: the popped cursor is always the actual
		// current minimum (heap.Pop swaps it to the back before removing
		// it), so there is no risk of evicting a different, still-live
		// cursor the way re-sorting a cursor left at index 0 in place
		// could. A cursor is only pushed back once confirmed non-empty.
		top := heap.Pop(h).(*mergeCursor)
		e, ok := top.peek()
		if !ok {
			continue
		}
		out = append(out, MergedEntry{Source: top.source.Path, Entry: e, Order: top.source.Order})
		newState.FilePositions[top.source.Path] = e.Position
		top.i++
		if _, ok := top.peek(); ok {
			heap.Push(h, top)
		}
	}

	return out, newState, nil
}

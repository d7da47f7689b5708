// File Index: a scan-built, in-memory index over one open file —
// (timestamp, offset, position) tuples in append order, plus a
// per-(field,value) inverted posting list, bloom-filter-pruned before
// any list is consulted. Supports single-file queries by anchor,
// direction, optional filter, optional after/before bounds, and a
// resume position so a caller can page through results without
// re-scanning.
//
// Grounded on jpl-au-folio/scan.go's scanm/sparse (one linear pass
// builds an in-memory position list without fully parsing every
// record) and jpl-au-folio/bloom.go (bloom filter repurposed from
// sparse-region ID pruning to posting-list pruning, see bloom.go).
// Query shape cross-checked against
// original_source/journal-index/tests/pagination.rs's
// LogQueryParamsBuilder/find_log_entries.
package journal

import (
	"bytes"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// IndexedEntry is one row of the File Index.
type IndexedEntry struct {
	Timestamp uint64
	Offset    uint64
	Position  uint64
}

// FileIndex is the scan-built index over one JournalFile.
type FileIndex struct {
	jf       *JournalFile
	entries  []IndexedEntry
	postings map[string][]uint64 // field=value -> positions, ascending
	bloom    *bloomFilter
}

// BuildFileIndex performs the one full linear pass over jf's global
// entry-array chain and every entry's data items.
func BuildFileIndex(jf *JournalFile) (*FileIndex, error) {
	idx := &FileIndex{
		jf:       jf,
		postings: make(map[string][]uint64),
		bloom:    newBloomFilter(),
	}

	head := jf.header.EntryArrayOffset
	if head == 0 {
		return idx, nil
	}

	chain := offsetArrayChain{jf}
	err := chain.forEach(head, func(position, entryOffset uint64) error {
		return idx.indexEntry(entryOffset, position)
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *FileIndex) indexEntry(entryOffset, position uint64) error {
	view, _, err := idx.jf.EntryRef(entryOffset)
	if err != nil {
		return err
	}
	idx.entries = append(idx.entries, IndexedEntry{
		Timestamp: view.Realtime(),
		Offset:    entryOffset,
		Position:  position,
	})

	dataIt, err := NewEntryDataIterator(idx.jf, entryOffset)
	if err != nil {
		return err
	}
	for {
		dOff, err := dataIt.Next()
		if err != nil {
			return err
		}
		if dOff == 0 {
			break
		}
		dView, dHdr, err := idx.jf.DataRef(dOff)
		if err != nil {
			return err
		}
		raw, err := decodePayload(idx.jf.opts.Codec, dHdr.Flags, dView.Payload(dHdr.Size))
		if err != nil {
			return err
		}
		eq := bytes.IndexByte(raw, '=')
		if eq < 0 {
			continue
		}
		key := string(raw)
		idx.postings[key] = append(idx.postings[key], position)
		idx.bloom.Add(key)
	}
	return nil
}

// Anchor selects where a query without a resume position starts.
type Anchor int

const (
	AnchorHead Anchor = iota
	AnchorTail
	AnchorTimestamp
)

// Direction selects whether a query walks forward or backward from its
// anchor.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Filter is a conjunction of disjunctions of "FIELD=value" terms:
// every inner slice must have at least one term match (OR), and all
// outer groups must be satisfied (AND) — the same shape journald's
// match expressions use.
type Filter [][]string

// unboundedLimit is the internal sentinel the Multi-File Query Planner
// passes when priming a per-file iterator: it wants every matching
// entry from each source so the k-way merge has full candidate lists
// to pick from, and applies the caller's real Limit itself while
// merging. An end caller's Limit is never implicitly unbounded: per
// spec.md B5, Limit == 0 returns no entries.
const unboundedLimit = -1

// QueryParams configures a single-file query.
type QueryParams struct {
	Anchor          Anchor
	AnchorTimestamp uint64
	Direction       Direction
	Filter          Filter
	After, Before   uint64 // realtime bounds; 0 means unbounded
	Limit           int    // 0 = no results (B5); negative = unbounded
	ResumePosition  *uint64
}

// QueryParamsBuilder builds a QueryParams fluently, mirroring
// original_source's LogQueryParamsBuilder.
type QueryParamsBuilder struct {
	p QueryParams
}

func NewQueryParamsBuilder(anchor Anchor, dir Direction) *QueryParamsBuilder {
	return &QueryParamsBuilder{p: QueryParams{Anchor: anchor, Direction: dir}}
}

func (b *QueryParamsBuilder) WithAnchorTimestamp(ts uint64) *QueryParamsBuilder {
	b.p.AnchorTimestamp = ts
	return b
}
func (b *QueryParamsBuilder) WithFilter(f Filter) *QueryParamsBuilder { b.p.Filter = f; return b }
func (b *QueryParamsBuilder) WithAfter(ts uint64) *QueryParamsBuilder { b.p.After = ts; return b }
func (b *QueryParamsBuilder) WithBefore(ts uint64) *QueryParamsBuilder {
	b.p.Before = ts
	return b
}
func (b *QueryParamsBuilder) WithLimit(n int) *QueryParamsBuilder { b.p.Limit = n; return b }
func (b *QueryParamsBuilder) WithResumePosition(p uint64) *QueryParamsBuilder {
	b.p.ResumePosition = &p
	return b
}
func (b *QueryParamsBuilder) Build() QueryParams { return b.p }

// matches reports whether the entry at position satisfies the filter,
// pruning each disjunction group with the bloom filter before touching
// the real posting-list map.
func (idx *FileIndex) matches(position uint64, f Filter) bool {
	if len(f) == 0 {
		return true
	}
	for _, group := range f {
		groupMatched := false
		for _, term := range group {
			if !idx.bloom.Contains(term) {
				continue
			}
			positions, ok := idx.postings[term]
			if !ok {
				continue
			}
			if containsPosition(positions, position) {
				groupMatched = true
				break
			}
		}
		if !groupMatched {
			return false
		}
	}
	return true
}

func containsPosition(sorted []uint64, p uint64) bool {
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= p })
	return i < len(sorted) && sorted[i] == p
}

// FindLogEntries runs params against the index, returning matching
// entries in the requested direction, honoring Limit (0 returns nothing
// per spec.md B5; negative is the planner's internal unbounded
// sentinel), the Anchor (Head, Tail, or an exact Timestamp — inclusive
// of a boundary entry in the direction of travel), and ResumePosition
// (skip all positions already seen, taking precedence over Anchor since
// it names a concrete prior stopping point).
func (idx *FileIndex) FindLogEntries(params QueryParams) ([]IndexedEntry, error) {
	if params.Limit == 0 {
		return nil, nil
	}

	start := 0
	end := len(idx.entries)

	switch {
	case params.ResumePosition != nil:
		rp := *params.ResumePosition
		if params.Direction == Forward {
			start = sort.Search(len(idx.entries), func(i int) bool { return idx.entries[i].Position > rp })
		} else {
			end = sort.Search(len(idx.entries), func(i int) bool { return idx.entries[i].Position >= rp })
		}
	case params.Anchor == AnchorTimestamp:
		if params.Direction == Forward {
			start = sort.Search(len(idx.entries), func(i int) bool { return idx.entries[i].Timestamp >= params.AnchorTimestamp })
		} else {
			end = sort.Search(len(idx.entries), func(i int) bool { return idx.entries[i].Timestamp > params.AnchorTimestamp })
		}
	case params.Anchor == AnchorTail && params.Direction == Forward:
		// Tail anchor forward has nowhere left to go (B8).
		start = end
	case params.Anchor == AnchorHead && params.Direction == Backward:
		// Head anchor backward has nowhere left to go (B8).
		end = start
	}

	var out []IndexedEntry
	step := func(i int) bool {
		e := idx.entries[i]
		if params.After != 0 && e.Timestamp < params.After {
			return true
		}
		if params.Before != 0 && e.Timestamp >= params.Before {
			return true
		}
		if !idx.matches(e.Position, params.Filter) {
			return true
		}
		out = append(out, e)
		return params.Limit < 0 || len(out) < params.Limit
	}

	if params.Direction == Forward {
		for i := start; i < end; i++ {
			if !step(i) {
				break
			}
		}
	} else {
		for i := end - 1; i >= start; i-- {
			if !step(i) {
				break
			}
		}
	}
	return out, nil
}

// logEntryJSON is the optional JSON projection of a query result,
// analogous to `journalctl -o json`.
type logEntryJSON struct {
	Timestamp uint64 `json:"realtime"`
	Offset    uint64 `json:"__offset"`
	Position  uint64 `json:"__position"`
}

// MarshalEntriesJSON renders entries as a JSON array for callers that
// want a debug/export view rather than typed Go values.
func MarshalEntriesJSON(entries []IndexedEntry) ([]byte, error) {
	out := make([]logEntryJSON, len(entries))
	for i, e := range entries {
		out[i] = logEntryJSON{Timestamp: e.Timestamp, Offset: e.Offset, Position: e.Position}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return b, nil
}

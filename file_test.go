// File Engine mechanics exercised directly against a Data object's own
// entry linkage, independent of the Writer/Index layers above it.
package journal

import "testing"

// TestDataObjectDirectedPartitionPointInlinedSingleEntry covers spec.md
// §4.6's n_entries == 1 case: the sequence is a single inlined
// head_entry_offset value, and the per-data entry-array chain is never
// allocated or touched.
func TestDataObjectDirectedPartitionPointInlinedSingleEntry(t *testing.T) {
	jf, w := openTestJournal(t, DefaultJournalFileOptions())

	e1 := addEntry(t, w, "MESSAGE", "only payload", 100)

	it, err := NewEntryDataIterator(jf, e1)
	if err != nil {
		t.Fatalf("NewEntryDataIterator: %v", err)
	}
	dOff, err := it.Next()
	if err != nil || dOff == 0 {
		t.Fatalf("data offset: %d, %v", dOff, err)
	}
	view, _, err := jf.DataRef(dOff)
	if err != nil {
		t.Fatalf("DataRef: %v", err)
	}
	if view.NEntries() != 1 {
		t.Fatalf("NEntries = %d, want 1", view.NEntries())
	}
	if view.EntryArrayOffset() != 0 {
		t.Fatalf("EntryArrayOffset = %d, want 0 (no chain allocated for a single entry)", view.EntryArrayOffset())
	}

	idx, ok, err := jf.DataObjectDirectedPartitionPoint(dOff, func(entryOffset uint64) bool { return entryOffset >= e1 }, Forward)
	if err != nil {
		t.Fatalf("DataObjectDirectedPartitionPoint: %v", err)
	}
	if !ok || idx != 0 {
		t.Errorf("Forward(>= e1) = (%d, %v), want (0, true)", idx, ok)
	}

	idx, ok, err = jf.DataObjectDirectedPartitionPoint(dOff, func(entryOffset uint64) bool { return entryOffset > e1 }, Forward)
	if err != nil {
		t.Fatalf("DataObjectDirectedPartitionPoint: %v", err)
	}
	if ok {
		t.Errorf("Forward(> e1) = (%d, %v), want ok=false (the only entry fails a strict threshold at itself)", idx, ok)
	}

	idx, ok, err = jf.DataObjectDirectedPartitionPoint(dOff, func(entryOffset uint64) bool { return entryOffset <= e1 }, Backward)
	if err != nil {
		t.Fatalf("DataObjectDirectedPartitionPoint: %v", err)
	}
	if !ok || idx != 0 {
		t.Errorf("Backward(<= e1) = (%d, %v), want (0, true)", idx, ok)
	}
}

// TestDataObjectDirectedPartitionPointComposedChain covers the
// n_entries >= 2 case: logical index 0 is the inlined head_entry_offset
// (never migrated into the chain), and later indices come from the
// per-data entry-array chain, searched as one composed sequence.
func TestDataObjectDirectedPartitionPointComposedChain(t *testing.T) {
	jf, w := openTestJournal(t, DefaultJournalFileOptions())

	var entries []uint64
	for i := 0; i < 5; i++ {
		e := addEntry(t, w, "MESSAGE", "shared payload", uint64(100+i))
		entries = append(entries, e)
	}

	it, err := NewEntryDataIterator(jf, entries[0])
	if err != nil {
		t.Fatalf("NewEntryDataIterator: %v", err)
	}
	dOff, err := it.Next()
	if err != nil || dOff == 0 {
		t.Fatalf("data offset: %d, %v", dOff, err)
	}
	view, _, err := jf.DataRef(dOff)
	if err != nil {
		t.Fatalf("DataRef: %v", err)
	}
	if view.NEntries() != 5 {
		t.Fatalf("NEntries = %d, want 5", view.NEntries())
	}
	if view.EntryOffset() != entries[0] {
		t.Fatalf("EntryOffset = %d, want first entry %d (head is never migrated)", view.EntryOffset(), entries[0])
	}

	// entries is already in ascending offset/seqnum order (append order),
	// matching the chain's own traversal order.
	for wantIdx, target := range entries {
		idx, ok, err := jf.DataObjectDirectedPartitionPoint(dOff, func(entryOffset uint64) bool { return entryOffset >= target }, Forward)
		if err != nil {
			t.Fatalf("Forward(>= entries[%d]): %v", wantIdx, err)
		}
		if !ok || int(idx) != wantIdx {
			t.Errorf("Forward(>= entries[%d]) = (%d, %v), want (%d, true)", wantIdx, idx, ok, wantIdx)
		}
	}

	// Backward from the last entry's offset finds the last index whose
	// entry offset does not exceed it - the final entry itself.
	idx, ok, err := jf.DataObjectDirectedPartitionPoint(dOff, func(entryOffset uint64) bool { return entryOffset <= entries[len(entries)-1] }, Backward)
	if err != nil {
		t.Fatalf("Backward(<= last): %v", err)
	}
	if !ok || int(idx) != len(entries)-1 {
		t.Errorf("Backward(<= last) = (%d, %v), want (%d, true)", idx, ok, len(entries)-1)
	}

	// Backward from the third entry's offset stops there, not later.
	idx, ok, err = jf.DataObjectDirectedPartitionPoint(dOff, func(entryOffset uint64) bool { return entryOffset <= entries[2] }, Backward)
	if err != nil {
		t.Fatalf("Backward(<= entries[2]): %v", err)
	}
	if !ok || idx != 2 {
		t.Errorf("Backward(<= entries[2]) = (%d, %v), want (2, true)", idx, ok)
	}

	idx, ok, err = jf.DataObjectDirectedPartitionPoint(dOff, func(entryOffset uint64) bool { return entryOffset < entries[0] }, Backward)
	if err != nil {
		t.Fatalf("Backward(< first): %v", err)
	}
	if ok {
		t.Errorf("Backward(< first) = (%d, %v), want ok=false", idx, ok)
	}
}

// TestDataObjectDirectedPartitionPointEmpty covers n_entries == 0: a
// freshly allocated Data object interned but not yet linked to any
// entry has no partition point.
func TestDataObjectDirectedPartitionPointEmpty(t *testing.T) {
	jf, w := openTestJournal(t, DefaultJournalFileOptions())
	_ = w

	off, err := jf.allocateObject(ObjectData, DataObjectSize)
	if err != nil {
		t.Fatalf("allocateObject: %v", err)
	}
	mut, _, err := jf.DataMut(off)
	if err != nil {
		t.Fatalf("DataMut: %v", err)
	}
	mut.SetNextHashOffset(0)

	idx, ok, err := jf.DataObjectDirectedPartitionPoint(off, func(uint64) bool { return true }, Forward)
	if err != nil {
		t.Fatalf("DataObjectDirectedPartitionPoint: %v", err)
	}
	if ok {
		t.Errorf("empty data object partition point = (%d, %v), want ok=false", idx, ok)
	}
}

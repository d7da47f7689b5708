// Offset-array chain mechanics: growth arithmetic (I5) exercised
// directly against small capacities, independent of the real 4096/64
// constants the Writer uses, so the doubling behavior itself is pinned
// down without paying for thousands of AddEntry calls.
package journal

import (
	"errors"
	"testing"
)

// TestOffsetArrayChainAppendPreservesOrder covers I5: values appended to
// a chain are retrievable, in append order, by walking nodes via
// next_entry_array_offset and slots within each node in index order.
func TestOffsetArrayChainAppendPreservesOrder(t *testing.T) {
	jf, _ := openTestJournal(t, DefaultJournalFileOptions())
	chain := offsetArrayChain{jf}

	const initialCapacity = 4
	var head uint64
	var err error
	want := []uint64{11, 22, 33, 44, 55, 66, 77, 88, 99}
	for _, v := range want {
		head, err = chain.append(head, initialCapacity, v)
		if err != nil {
			t.Fatalf("append(%d): %v", v, err)
		}
	}

	var got []uint64
	if err := chain.forEach(head, func(_, v uint64) error {
		got = append(got, v)
		return nil
	}); err != nil {
		t.Fatalf("forEach: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("forEach visited %d values, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d = %d, want %d", i, got[i], want[i])
		}
	}
}

// TestOffsetArrayChainDoublesNodeCapacity covers the geometric growth
// rule behind S3: each new node's capacity is double the previous
// node's, starting from the chain's initial capacity.
func TestOffsetArrayChainDoublesNodeCapacity(t *testing.T) {
	jf, _ := openTestJournal(t, DefaultJournalFileOptions())
	chain := offsetArrayChain{jf}

	const initialCapacity = 2
	var head uint64
	var err error
	// 2 + 4 = 6 values fill the first two nodes; values 7 and 8 go into
	// a third node: capacities 2, 4, 8.
	for i := uint64(1); i <= 8; i++ {
		head, err = chain.append(head, initialCapacity, i)
		if err != nil {
			t.Fatalf("append(%d): %v", i, err)
		}
	}

	var capacities []uint64
	offset := head
	for offset != 0 {
		view, hdr, err := jf.OffsetArrayRef(offset)
		if err != nil {
			t.Fatalf("OffsetArrayRef: %v", err)
		}
		capacities = append(capacities, view.Capacity(hdr.Size))
		offset = view.NextArrayOffset()
	}

	want := []uint64{2, 4, 8}
	if len(capacities) != len(want) {
		t.Fatalf("node capacities = %v, want %v", capacities, want)
	}
	for i := range want {
		if capacities[i] != want[i] {
			t.Errorf("node %d capacity = %d, want %d", i, capacities[i], want[i])
		}
	}
}

// TestOffsetArrayChainTailOnEmptyHead covers the ErrEmptyOffsetArray
// boundary: a chain that has never been appended to (head == 0) cannot
// be walked to a tail.
func TestOffsetArrayChainTailOnEmptyHead(t *testing.T) {
	jf, _ := openTestJournal(t, DefaultJournalFileOptions())
	chain := offsetArrayChain{jf}
	if _, _, err := chain.tail(0); !errors.Is(err, ErrEmptyOffsetArray) {
		t.Fatalf("tail(0) = %v, want ErrEmptyOffsetArray", err)
	}
}

// TestOffsetArrayChainDirectedPartitionPointForward covers spec.md
// §4.5's directed_partition_point in the Forward direction: with values
// spanning several nodes, it locates the first index whose value meets
// or exceeds a threshold, the same query shape the File Index uses to
// resume a forward scan from an anchor.
func TestOffsetArrayChainDirectedPartitionPointForward(t *testing.T) {
	jf, _ := openTestJournal(t, DefaultJournalFileOptions())
	chain := offsetArrayChain{jf}

	const initialCapacity = 2
	var head uint64
	var err error
	values := []uint64{10, 20, 30, 40, 50, 60, 70, 80} // three nodes: cap 2, 4, 8
	for _, v := range values {
		head, err = chain.append(head, initialCapacity, v)
		if err != nil {
			t.Fatalf("append(%d): %v", v, err)
		}
	}

	for _, tc := range []struct {
		threshold uint64
		wantIdx   uint64
		wantOK    bool
	}{
		{threshold: 0, wantIdx: 0, wantOK: true},
		{threshold: 35, wantIdx: 3, wantOK: true},  // first value >= 35 is 40 at index 3
		{threshold: 80, wantIdx: 7, wantOK: true},
		{threshold: 81, wantOK: false},
	} {
		idx, ok, err := chain.directedPartitionPoint(head, initialCapacity, uint64(len(values)),
			func(v uint64) bool { return v >= tc.threshold }, Forward)
		if err != nil {
			t.Fatalf("directedPartitionPoint(threshold=%d): %v", tc.threshold, err)
		}
		if ok != tc.wantOK {
			t.Fatalf("threshold=%d: ok = %v, want %v", tc.threshold, ok, tc.wantOK)
		}
		if ok && idx != tc.wantIdx {
			t.Errorf("threshold=%d: idx = %d, want %d", tc.threshold, idx, tc.wantIdx)
		}
	}
}

// TestOffsetArrayChainDirectedPartitionPointBackward covers the
// Backward direction: with the same monotone sequence, it locates the
// last index whose value does not exceed a threshold, the shape a
// backward scan's resume point needs.
func TestOffsetArrayChainDirectedPartitionPointBackward(t *testing.T) {
	jf, _ := openTestJournal(t, DefaultJournalFileOptions())
	chain := offsetArrayChain{jf}

	const initialCapacity = 2
	var head uint64
	var err error
	values := []uint64{10, 20, 30, 40, 50, 60, 70, 80}
	for _, v := range values {
		head, err = chain.append(head, initialCapacity, v)
		if err != nil {
			t.Fatalf("append(%d): %v", v, err)
		}
	}

	for _, tc := range []struct {
		threshold uint64
		wantIdx   uint64
		wantOK    bool
	}{
		{threshold: 100, wantIdx: 7, wantOK: true}, // every value <= 100, answer is the last index
		{threshold: 45, wantIdx: 3, wantOK: true},  // last value <= 45 is 40 at index 3
		{threshold: 9, wantOK: false},              // nothing is <= 9
	} {
		idx, ok, err := chain.directedPartitionPoint(head, initialCapacity, uint64(len(values)),
			func(v uint64) bool { return v <= tc.threshold }, Backward)
		if err != nil {
			t.Fatalf("directedPartitionPoint(threshold=%d): %v", tc.threshold, err)
		}
		if ok != tc.wantOK {
			t.Fatalf("threshold=%d: ok = %v, want %v", tc.threshold, ok, tc.wantOK)
		}
		if ok && idx != tc.wantIdx {
			t.Errorf("threshold=%d: idx = %d, want %d", tc.threshold, idx, tc.wantIdx)
		}
	}
}

func TestNextCapacityDoubling(t *testing.T) {
	if got := nextCapacity(0, 64); got != 64 {
		t.Errorf("nextCapacity(0, 64) = %d, want 64", got)
	}
	if got := nextCapacity(64, 64); got != 128 {
		t.Errorf("nextCapacity(64, 64) = %d, want 128", got)
	}
	if got := nextCapacity(4096, 4096); got != 8192 {
		t.Errorf("nextCapacity(4096, 4096) = %d, want 8192", got)
	}
}

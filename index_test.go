// File Index query semantics: boundary behaviors B5-B8 and the
// single-file scenarios S1 and S6.
package journal

import "testing"

// TestFindLogEntriesLimitZeroReturnsEmpty covers B5: Limit == 0 returns
// no entries, distinguishing it from the planner's internal "unbounded"
// sentinel which is always negative.
func TestFindLogEntriesLimitZeroReturnsEmpty(t *testing.T) {
	_, w := openTestJournal(t, DefaultJournalFileOptions())
	addEntry(t, w, "MESSAGE", "one", 1)
	addEntry(t, w, "MESSAGE", "two", 2)

	idx := buildIndex(t, w.jf)
	got, err := idx.FindLogEntries(QueryParams{Anchor: AnchorHead, Direction: Forward, Limit: 0})
	if err != nil {
		t.Fatalf("FindLogEntries: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("FindLogEntries(Limit=0) returned %d entries, want 0", len(got))
	}
}

// TestFindLogEntriesResumePastEndReturnsEmpty covers B6: a resume
// position at or beyond the last recorded position yields an empty
// result rather than panicking or wrapping around.
func TestFindLogEntriesResumePastEndReturnsEmpty(t *testing.T) {
	_, w := openTestJournal(t, DefaultJournalFileOptions())
	addEntry(t, w, "MESSAGE", "one", 1)
	addEntry(t, w, "MESSAGE", "two", 2)

	idx := buildIndex(t, w.jf)
	farPast := idx.entries[len(idx.entries)-1].Position + 100
	got, err := idx.FindLogEntries(QueryParams{
		Direction:      Forward,
		Limit:          -1,
		ResumePosition: &farPast,
	})
	if err != nil {
		t.Fatalf("FindLogEntries: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("FindLogEntries(resume past end) returned %d entries, want 0", len(got))
	}
}

// TestFieldIteratorOnEmptyFileStopsImmediately covers B7: iterating the
// field hash table of a file with nothing written yet terminates after
// zero iterations instead of erroring on an all-empty bucket array.
func TestFieldIteratorOnEmptyFileStopsImmediately(t *testing.T) {
	jf, _ := openTestJournal(t, DefaultJournalFileOptions())
	it := NewFieldIterator(jf)
	off, view, err := it.Next()
	if err != nil {
		t.Fatalf("Next on empty file: %v", err)
	}
	if off != 0 || view != nil {
		t.Fatalf("Next on empty file = (%d, %v), want (0, nil)", off, view)
	}

	idx := buildIndex(t, jf)
	if len(idx.entries) != 0 {
		t.Fatalf("BuildFileIndex on empty file found %d entries, want 0", len(idx.entries))
	}
}

// TestFindLogEntriesTailForwardAndHeadBackwardAreEmpty covers B8: a Tail
// anchor walking Forward, or a Head anchor walking Backward, both have
// nowhere to go and must return empty even when entries exist.
func TestFindLogEntriesTailForwardAndHeadBackwardAreEmpty(t *testing.T) {
	_, w := openTestJournal(t, DefaultJournalFileOptions())
	for i := 1; i <= 3; i++ {
		addEntry(t, w, "MESSAGE", "x", uint64(i*100))
	}
	idx := buildIndex(t, w.jf)

	tailForward, err := idx.FindLogEntries(QueryParams{Anchor: AnchorTail, Direction: Forward, Limit: -1})
	if err != nil {
		t.Fatalf("FindLogEntries(Tail,Forward): %v", err)
	}
	if len(tailForward) != 0 {
		t.Errorf("Tail+Forward returned %d entries, want 0", len(tailForward))
	}

	headBackward, err := idx.FindLogEntries(QueryParams{Anchor: AnchorHead, Direction: Backward, Limit: -1})
	if err != nil {
		t.Fatalf("FindLogEntries(Head,Backward): %v", err)
	}
	if len(headBackward) != 0 {
		t.Errorf("Head+Backward returned %d entries, want 0", len(headBackward))
	}
}

// TestFindLogEntriesRoundTripWithFilter covers S1: a single file's
// entries read back in write order, and a filter narrows the result to
// exactly the matching subset.
func TestFindLogEntriesRoundTripWithFilter(t *testing.T) {
	_, w := openTestJournal(t, DefaultJournalFileOptions())
	addEntryFields(t, w, []Field{{Name: "PRIORITY", Value: []byte("6")}, {Name: "MESSAGE", Value: []byte("low")}}, 100)
	addEntryFields(t, w, []Field{{Name: "PRIORITY", Value: []byte("3")}, {Name: "MESSAGE", Value: []byte("high")}}, 200)
	addEntryFields(t, w, []Field{{Name: "PRIORITY", Value: []byte("6")}, {Name: "MESSAGE", Value: []byte("low2")}}, 300)

	idx := buildIndex(t, w.jf)

	all, err := idx.FindLogEntries(QueryParams{Anchor: AnchorHead, Direction: Forward, Limit: -1})
	if err != nil {
		t.Fatalf("FindLogEntries(all): %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("FindLogEntries(all) = %d entries, want 3", len(all))
	}
	for i, want := range []uint64{100, 200, 300} {
		if all[i].Timestamp != want {
			t.Errorf("all[%d].Timestamp = %d, want %d", i, all[i].Timestamp, want)
		}
	}

	filtered, err := idx.FindLogEntries(QueryParams{
		Anchor:    AnchorHead,
		Direction: Forward,
		Filter:    Filter{{"PRIORITY=6"}},
		Limit:     -1,
	})
	if err != nil {
		t.Fatalf("FindLogEntries(filtered): %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("FindLogEntries(PRIORITY=6) = %d entries, want 2", len(filtered))
	}
	if filtered[0].Timestamp != 100 || filtered[1].Timestamp != 300 {
		t.Errorf("filtered timestamps = [%d, %d], want [100, 300]", filtered[0].Timestamp, filtered[1].Timestamp)
	}
}

// TestFindLogEntriesAnchorTimestampBoundary covers S6: anchoring exactly
// at an entry's timestamp is inclusive of that entry in the direction of
// travel.
func TestFindLogEntriesAnchorTimestampBoundary(t *testing.T) {
	_, w := openTestJournal(t, DefaultJournalFileOptions())
	addEntry(t, w, "MESSAGE", "a", 100)
	addEntry(t, w, "MESSAGE", "b", 200)
	addEntry(t, w, "MESSAGE", "c", 300)
	idx := buildIndex(t, w.jf)

	forward, err := idx.FindLogEntries(QueryParams{
		Anchor:          AnchorTimestamp,
		AnchorTimestamp: 200,
		Direction:       Forward,
		Limit:           -1,
	})
	if err != nil {
		t.Fatalf("FindLogEntries(forward from 200): %v", err)
	}
	if len(forward) != 2 || forward[0].Timestamp != 200 || forward[1].Timestamp != 300 {
		t.Fatalf("forward anchor at 200 = %v, want timestamps [200, 300]", forward)
	}

	backward, err := idx.FindLogEntries(QueryParams{
		Anchor:          AnchorTimestamp,
		AnchorTimestamp: 200,
		Direction:       Backward,
		Limit:           -1,
	})
	if err != nil {
		t.Fatalf("FindLogEntries(backward from 200): %v", err)
	}
	if len(backward) != 2 || backward[0].Timestamp != 200 || backward[1].Timestamp != 100 {
		t.Fatalf("backward anchor at 200 = %v, want timestamps [200, 100]", backward)
	}
}

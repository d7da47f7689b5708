// Shared test helpers: every other _test.go file in this package builds
// on openTestJournal/addEntry rather than repeating the Create/Attach
// dance, mirroring jpl-au-folio's openTestDB helper.
package journal

import (
	"path/filepath"
	"testing"
)

// openTestJournal creates a fresh, writable journal file in a temporary
// directory and attaches a Writer to it. Cleanup detaches the writer and
// closes the file when the test finishes.
func openTestJournal(t *testing.T, opts JournalFileOptions) (*JournalFile, *Writer) {
	t.Helper()
	dir := t.TempDir()
	jf, err := Create(filepath.Join(dir, "test.journal"), opts)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w, err := Attach(jf)
	if err != nil {
		jf.Close()
		t.Fatalf("Attach: %v", err)
	}
	t.Cleanup(func() {
		w.Detach()
		jf.Close()
	})
	return jf, w
}

// addEntry appends a single-field entry and fails the test on error,
// returning the new entry's object offset.
func addEntry(t *testing.T, w *Writer, name, value string, realtime uint64) uint64 {
	t.Helper()
	off, err := w.AddEntry([]Field{{Name: name, Value: []byte(value)}}, [16]byte{}, realtime, realtime)
	if err != nil {
		t.Fatalf("AddEntry(%s=%s): %v", name, value, err)
	}
	return off
}

// addEntryFields appends a multi-field entry.
func addEntryFields(t *testing.T, w *Writer, fields []Field, realtime uint64) uint64 {
	t.Helper()
	off, err := w.AddEntry(fields, [16]byte{}, realtime, realtime)
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	return off
}

// entryPayloads decodes every "FIELD=value" payload linked to the entry
// at entryOffset, in item order.
func entryPayloads(t *testing.T, jf *JournalFile, entryOffset uint64) []string {
	t.Helper()
	it, err := NewEntryDataIterator(jf, entryOffset)
	if err != nil {
		t.Fatalf("NewEntryDataIterator: %v", err)
	}
	var out []string
	for {
		dOff, err := it.Next()
		if err != nil {
			t.Fatalf("EntryDataIterator.Next: %v", err)
		}
		if dOff == 0 {
			break
		}
		view, hdr, err := jf.DataRef(dOff)
		if err != nil {
			t.Fatalf("DataRef(%d): %v", dOff, err)
		}
		raw, err := decodePayload(jf.opts.Codec, hdr.Flags, view.Payload(hdr.Size))
		if err != nil {
			t.Fatalf("decodePayload: %v", err)
		}
		out = append(out, string(raw))
	}
	return out
}

// buildIndex is a small wrapper so scenario tests read a little closer
// to plain English.
func buildIndex(t *testing.T, jf *JournalFile) *FileIndex {
	t.Helper()
	idx, err := BuildFileIndex(jf)
	if err != nil {
		t.Fatalf("BuildFileIndex: %v", err)
	}
	return idx
}

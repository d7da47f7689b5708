// Writer: the append protocol for adding one log entry. Interns each
// "FIELD=value" payload (deduplicating against the hash index), links
// every data object to the new entry, appends the entry to the global
// entry-array chain, and commits updated header counters — matching
// original_source/writer.rs's add_entry step by step.
//
// Field name validation (Supplemented feature #3 in SPEC_FULL.md)
// follows jpl-au-folio/set.go's validateDoc placement: validate the
// whole batch before any write begins, so a bad field never produces a
// half-written entry.
package journal

import (
	"fmt"
	"sort"
	"time"
)

// Writer attaches to one JournalFile for appending. Only one Writer may
// be attached to a file at a time — attach takes an exclusive OS-level
// lock (lock.go) enforcing this across processes too.
type Writer struct {
	jf      *JournalFile
	attached bool
}

// Attach creates a Writer over jf, failing with ErrWriterAttached if
// another writer (in this process or another) already holds the file's
// exclusive lock.
func Attach(jf *JournalFile) (*Writer, error) {
	if !jf.writable {
		return nil, fmt.Errorf("%w: file opened read-only", ErrIO)
	}
	if err := jf.lock.TryLock(); err != nil {
		return nil, err
	}
	jf.header.State = StateOnline
	if err := writeState(jf.f, StateOnline); err != nil {
		jf.lock.Unlock()
		return nil, err
	}
	return &Writer{jf: jf, attached: true}, nil
}

// Detach releases the writer's exclusive lock and marks the file
// archived-on-disk. The JournalFile itself is still open for reading
// afterward.
func (w *Writer) Detach() error {
	if !w.attached {
		return nil
	}
	w.attached = false
	w.jf.header.State = StateArchived
	if err := writeState(w.jf.f, StateArchived); err != nil {
		return err
	}
	return w.jf.lock.Unlock()
}

// Field is one "NAME=value" pair to attach to a new entry.
type Field struct {
	Name  string
	Value []byte
}

// fieldNameValid mirrors journald's token-safe field name constraint:
// uppercase ASCII letters, digits, and underscore, not starting with a
// digit.
func fieldNameValid(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		isUpper := c >= 'A' && c <= 'Z'
		isDigit := c >= '0' && c <= '9'
		if !(isUpper || isDigit || c == '_') {
			return false
		}
		if i == 0 && isDigit {
			return false
		}
	}
	return true
}

// AddEntry appends one new log entry containing fields, at the given
// realtime (microseconds since epoch) and monotonic timestamps. The
// entry's xor_hash is computed with the unkeyed hash discipline
// regardless of the file's keyed-hash flag — a documented oddity of the
// reference format preserved here rather than silently "fixed", since
// changing it would be an undocumented wire-format break.
func (w *Writer) AddEntry(fields []Field, bootID [16]byte, realtime, monotonic uint64) (uint64, error) {
	if !w.attached {
		return 0, ErrClosed
	}
	for _, f := range fields {
		if !fieldNameValid(f.Name) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFieldName, f.Name)
		}
	}
	if realtime == 0 {
		realtime = uint64(time.Now().UnixMicro())
	}

	jf := w.jf
	dataOffsets := make([]uint64, 0, len(fields))
	var xorHash uint64

	for _, f := range fields {
		payload := make([]byte, 0, len(f.Name)+1+len(f.Value))
		payload = append(payload, f.Name...)
		payload = append(payload, '=')
		payload = append(payload, f.Value...)

		tailBefore := jf.header.TailObjectOffset
		dataOffset, err := jf.internData(payload)
		if err != nil {
			return 0, err
		}
		fieldOffset, _, err := jf.internField(f.Name)
		if err != nil {
			return 0, err
		}
		if dataOffset > tailBefore {
			fView, _, err := jf.FieldMut(fieldOffset)
			if err != nil {
				return 0, err
			}
			prevHead := fView.HeadDataOffset()
			fView.SetHeadDataOffset(dataOffset)
			dView, _, err := jf.DataMut(dataOffset)
			if err != nil {
				return 0, err
			}
			dView.SetNextFieldOffset(prevHead)
		}
		dataOffsets = append(dataOffsets, dataOffset)

		h := jenkinsUnkeyed(payload)
		xorHash ^= uint64(h)
	}

	// The writer's canonical item order is ascending by offset, with
	// duplicates collapsed — spec.md §4.7 step 2 — even though xor_hash
	// above was already folded from the pre-dedup input payloads per
	// step 3. A repeated payload in one entry (e.g. the same field/value
	// pair twice) interns to the same data object both times; without
	// this dedup step that data object would be linked to the entry
	// twice, breaking the per-data entry-array chain's I5 arithmetic.
	dataOffsets = sortAndDedupOffsets(dataOffsets)

	entryOffset, err := jf.allocateEntry(dataOffsets, bootID, realtime, monotonic, xorHash)
	if err != nil {
		return 0, err
	}

	for _, dataOffset := range dataOffsets {
		if err := jf.linkDataToEntry(dataOffset, entryOffset); err != nil {
			return 0, err
		}
	}

	newHead, err := (offsetArrayChain{jf}).append(jf.header.EntryArrayOffset, globalChainInitialCapacity, entryOffset)
	if err != nil {
		return 0, err
	}
	jf.header.EntryArrayOffset = newHead

	jf.header.NEntries++
	jf.header.TailEntrySeqnum++
	if jf.header.HeadEntrySeqnum == 0 {
		jf.header.HeadEntrySeqnum = jf.header.TailEntrySeqnum
	}
	if jf.header.HeadEntryRealtime == 0 {
		jf.header.HeadEntryRealtime = realtime
	}
	jf.header.TailEntryRealtime = realtime
	jf.header.TailEntryMonotonic = monotonic
	copy(jf.header.TailEntryBootID[:], bootID[:])

	if err := jf.CommitHeader(); err != nil {
		return 0, err
	}
	return entryOffset, nil
}

// sortAndDedupOffsets sorts data-object offsets ascending and collapses
// adjacent duplicates, matching original_source/writer.rs's item-vector
// construction (sort by offset, then dedup) ahead of writing the entry's
// item list and linking each distinct data object to the entry exactly
// once.
func sortAndDedupOffsets(offsets []uint64) []uint64 {
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	out := offsets[:0]
	var prev uint64
	havePrev := false
	for _, o := range offsets {
		if havePrev && o == prev {
			continue
		}
		out = append(out, o)
		prev = o
		havePrev = true
	}
	return out
}

// jenkinsUnkeyed is the xor_hash discipline: always the unkeyed Jenkins
// lookup3 hash of the payload, never SipHash, even on a keyed-hash file.
func jenkinsUnkeyed(payload []byte) uint32 {
	return jenkinsLookup3(payload, 0)
}

// internData finds an existing Data object with an identical payload
// via the hash index, or allocates and links a new one.
func (jf *JournalFile) internData(payload []byte) (uint64, error) {
	h := hashPayload(jf.header, payload)
	bucket := h % jf.dataHT.Buckets()

	offset := jf.dataHT.Head(bucket)
	for offset != 0 {
		view, hdr, err := jf.DataRef(offset)
		if err != nil {
			return 0, err
		}
		if view.Hash() == h {
			existing := view.Payload(hdr.Size)
			decoded, err := decodePayload(jf.opts.Codec, hdr.Flags, existing)
			if err != nil {
				return 0, err
			}
			if string(decoded) == string(payload) {
				return offset, nil
			}
		}
		offset = view.NextHashOffset()
	}

	body := payload
	flags := uint8(0)
	if jf.opts.Codec != nil && len(payload) > 512 {
		enc, err := jf.opts.Codec.Encode(payload)
		if err == nil && len(enc) < len(payload) {
			body = enc
			flags = jf.opts.Codec.Flag()
		}
	}

	newOffset, err := jf.allocateObject(ObjectData, doFixedSize+uint64(len(body)))
	if err != nil {
		return 0, err
	}
	view, _, err := jf.DataMut(newOffset)
	if err != nil {
		return 0, err
	}
	buf, err := jf.windows.SliceMut(newOffset, doFixedSize+uint64(len(body)))
	if err != nil {
		return 0, err
	}
	buf[1] = flags // object header flags byte
	copy(buf[doFixedSize:], body)
	view.SetNextHashOffset(0)
	binaryPutHash(view, h)

	tail := jf.dataHT.Tail(bucket)
	if tail == 0 {
		jf.dataHT.SetHead(bucket, newOffset)
	} else {
		tailView, _, err := jf.DataMut(tail)
		if err != nil {
			return 0, err
		}
		tailView.SetNextHashOffset(newOffset)
	}
	jf.dataHT.SetTail(bucket, newOffset)

	return newOffset, nil
}

func binaryPutHash(view *DataObjectView, h uint64) {
	// Hash occupies the first 8 bytes of the Data object's fixed
	// portion; written directly since DataObjectView has no exported
	// SetHash (hash is set once, at creation, never updated).
	b := view.field(doOffHash)
	for i := 0; i < 8; i++ {
		b[i] = byte(h >> (8 * i))
	}
}

// internField finds or creates the Field object for name.
func (jf *JournalFile) internField(name string) (uint64, bool, error) {
	payload := []byte(name)
	h := hashPayload(jf.header, payload)
	bucket := h % jf.fieldHT.Buckets()

	offset := jf.fieldHT.Head(bucket)
	for offset != 0 {
		view, hdr, err := jf.FieldRef(offset)
		if err != nil {
			return 0, false, err
		}
		if view.Hash() == h && string(view.Payload(hdr.Size)) == name {
			return offset, false, nil
		}
		offset = view.NextHashOffset()
	}

	newOffset, err := jf.allocateObject(ObjectField, foFixedSize+uint64(len(payload)))
	if err != nil {
		return 0, false, err
	}
	view, _, err := jf.FieldMut(newOffset)
	if err != nil {
		return 0, false, err
	}
	buf, err := jf.windows.SliceMut(newOffset, foFixedSize+uint64(len(payload)))
	if err != nil {
		return 0, false, err
	}
	copy(buf[foFixedSize:], payload)
	b := buf[foOffHash:]
	for i := 0; i < 8; i++ {
		b[i] = byte(h >> (8 * i))
	}
	view.SetNextHashOffset(0)
	view.SetHeadDataOffset(0)

	tail := jf.fieldHT.Tail(bucket)
	if tail == 0 {
		jf.fieldHT.SetHead(bucket, newOffset)
	} else {
		tailView, _, err := jf.FieldMut(tail)
		if err != nil {
			return 0, false, err
		}
		tailView.SetNextHashOffset(newOffset)
	}
	jf.fieldHT.SetTail(bucket, newOffset)

	return newOffset, true, nil
}

// allocateEntry creates the Entry object and writes its data-item list.
func (jf *JournalFile) allocateEntry(dataOffsets []uint64, bootID [16]byte, realtime, monotonic, xorHash uint64) (uint64, error) {
	itemSize := uint64(16)
	if jf.header.Compact() {
		itemSize = 4
	}
	size := eoFixedSize + uint64(len(dataOffsets))*itemSize
	offset, err := jf.allocateObject(ObjectEntry, size)
	if err != nil {
		return 0, err
	}
	view, _, err := jf.EntryMut(offset)
	if err != nil {
		return 0, err
	}

	buf, err := jf.windows.SliceMut(offset, size)
	if err != nil {
		return 0, err
	}
	putU64(buf, eoOffSeqnum, jf.header.TailEntrySeqnum+1)
	putU64(buf, eoOffRealtime, realtime)
	putU64(buf, eoOffMonotonic, monotonic)
	copy(buf[eoOffBootID:eoOffBootID+16], bootID[:])
	view.SetXorHash(xorHash)

	for i, dOff := range dataOffsets {
		dView, dHdr, err := jf.DataRef(dOff)
		if err != nil {
			return 0, err
		}
		view.SetItem(uint64(i), dOff, dView.Hash())
		_ = dHdr
	}
	return offset, nil
}

func putU64(buf []byte, off int, v uint64) {
	for i := 0; i < 8; i++ {
		buf[off+i] = byte(v >> (8 * i))
	}
}

// linkDataToEntry implements the three-way branch from spec.md §4.7:
// if the data object has no entries yet, point head_entry_offset at
// this entry directly; if it has exactly one, start a new per-data
// entry-array chain holding this entry (the original head
// is not migrated into the chain itself, so the chain's logical length
// is n_entries-1); otherwise append to the existing chain.
func (jf *JournalFile) linkDataToEntry(dataOffset, entryOffset uint64) error {
	view, _, err := jf.DataMut(dataOffset)
	if err != nil {
		return err
	}
	n := view.NEntries()

	switch {
	case n == 0:
		view.SetEntryOffset(entryOffset)
	case n == 1:
		chain := offsetArrayChain{jf}
		newHead, err := chain.append(0, dataChainInitialCapacity, entryOffset)
		if err != nil {
			return err
		}
		view, _, err = jf.DataMut(dataOffset)
		if err != nil {
			return err
		}
		view.SetEntryArrayOffset(newHead)
	default:
		chain := offsetArrayChain{jf}
		newHead, err := chain.append(view.EntryArrayOffset(), dataChainInitialCapacity, entryOffset)
		if err != nil {
			return err
		}
		view, _, err = jf.DataMut(dataOffset)
		if err != nil {
			return err
		}
		view.SetEntryArrayOffset(newHead)
	}
	view.SetNEntries(n + 1)
	return nil
}

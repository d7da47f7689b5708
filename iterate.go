// Supplemented read-side iterators: enumerating every field in a file,
// every data object for a given field, and every data object linked to
// a given entry. The reference spec's point-lookup operations (find a
// specific field/value pair) leave these out, but they are the natural
// complement the File Index's scan-build pass needs, and
// original_source/file.rs exposes exactly these three iterator types.
package journal

import "fmt"

// FieldIterator walks every Field object in the file via the field hash
// table's buckets.
type FieldIterator struct {
	jf     *JournalFile
	bucket uint64
	next   uint64
}

// NewFieldIterator returns an iterator positioned before the first
// field.
func NewFieldIterator(jf *JournalFile) *FieldIterator {
	return &FieldIterator{jf: jf}
}

// Next advances to the next field, returning its offset and view, or
// (0, nil, nil) once exhausted.
func (it *FieldIterator) Next() (uint64, *FieldObjectView, error) {
	for it.next == 0 {
		if it.bucket >= it.jf.fieldHT.Buckets() {
			return 0, nil, nil
		}
		it.next = it.jf.fieldHT.Head(it.bucket)
		it.bucket++
	}
	offset := it.next
	view, _, err := it.jf.FieldRef(offset)
	if err != nil {
		return 0, nil, err
	}
	it.next = view.NextHashOffset()
	return offset, view, nil
}

// FieldDataIterator walks every Data object linked from one Field
// object's head_data_offset chain (the next_field_offset links, not the
// hash-dedup chain).
type FieldDataIterator struct {
	jf   *JournalFile
	next uint64
}

// NewFieldDataIterator starts iteration at the given field's head data
// offset.
func NewFieldDataIterator(jf *JournalFile, fieldOffset uint64) (*FieldDataIterator, error) {
	view, _, err := jf.FieldRef(fieldOffset)
	if err != nil {
		return nil, err
	}
	return &FieldDataIterator{jf: jf, next: view.HeadDataOffset()}, nil
}

func (it *FieldDataIterator) Next() (uint64, *DataObjectView, error) {
	if it.next == 0 {
		return 0, nil, nil
	}
	offset := it.next
	view, _, err := it.jf.DataRef(offset)
	if err != nil {
		return 0, nil, err
	}
	it.next = view.NextFieldOffset()
	return offset, view, nil
}

// EntryDataIterator walks every Data object offset referenced by one
// Entry object's item list.
type EntryDataIterator struct {
	jf    *JournalFile
	view  *EntryObjectView
	size  uint64
	index uint64
}

// NewEntryDataIterator starts iteration over the data items of the
// entry at entryOffset.
func NewEntryDataIterator(jf *JournalFile, entryOffset uint64) (*EntryDataIterator, error) {
	view, hdr, err := jf.EntryRef(entryOffset)
	if err != nil {
		return nil, err
	}
	return &EntryDataIterator{jf: jf, view: view, size: hdr.Size}, nil
}

func (it *EntryDataIterator) Next() (uint64, error) {
	n := it.view.NItems(it.size)
	if it.index >= n {
		return 0, nil
	}
	off := it.view.Item(it.index)
	it.index++
	if off == 0 {
		return 0, fmt.Errorf("%w: zero data item at index %d", ErrBadObjectLocation, it.index-1)
	}
	return off, nil
}

// Object header and the seven typed object views (Data, Field, Entry,
// DataHashTable, FieldHashTable, EntryArray, Tag) projected over raw
// byte slices. All offsets are little-endian and 8-byte aligned; the
// compact-vs-regular layout choice is isolated to exactly three places:
// entry-array nodes, per-entry data items, and per-data entry-array
// nodes, matching the reference file format's three variable-width
// sites. Every accessor is a zero-copy view: it reads directly out of
// the Window Manager's mmap'd slice rather than unmarshalling a struct.
package journal

import (
	"encoding/binary"
	"fmt"
)

// ObjectType discriminates the object kinds that may appear in the
// object arena.
type ObjectType uint8

const (
	ObjectUnused ObjectType = iota
	ObjectData
	ObjectField
	ObjectEntry
	ObjectDataHashTable
	ObjectFieldHashTable
	ObjectEntryArray
	ObjectTag
	objectTypeMax
)

func (t ObjectType) String() string {
	switch t {
	case ObjectUnused:
		return "unused"
	case ObjectData:
		return "data"
	case ObjectField:
		return "field"
	case ObjectEntry:
		return "entry"
	case ObjectDataHashTable:
		return "data_hash_table"
	case ObjectFieldHashTable:
		return "field_hash_table"
	case ObjectEntryArray:
		return "entry_array"
	case ObjectTag:
		return "tag"
	default:
		return fmt.Sprintf("objecttype(%d)", uint8(t))
	}
}

// Object payload flag bits (stored in the object header's flags byte).
const (
	ObjectCompressedXZ   uint8 = 1 << 0
	ObjectCompressedLZ4  uint8 = 1 << 1
	ObjectCompressedZstd uint8 = 1 << 2
	objectCompressedMask       = ObjectCompressedXZ | ObjectCompressedLZ4 | ObjectCompressedZstd
)

// Fixed sizes of the object header and each typed object's fixed
// portion, matching the reference layout exactly.
const (
	ObjectHeaderSize     = 16
	DataObjectSize       = 64
	FieldObjectSize      = 40
	EntryObjectSize      = 64
	HashTableItemSize    = 16 // HashItem: head_hash_offset, tail_hash_offset
	EntryArrayObjectSize = 24
	TagObjectSize        = 64
)

// objectHeader is the common 16-byte prefix of every object: type,
// flags, 6 bytes padding, then the object's total size including this
// header.
type objectHeader struct {
	Type  ObjectType
	Flags uint8
	Size  uint64
}

func readObjectHeader(buf []byte, offset uint64) (objectHeader, error) {
	if offset+ObjectHeaderSize > uint64(len(buf)) {
		return objectHeader{}, fmt.Errorf("%w: header at %d", ErrBadObjectLocation, offset)
	}
	b := buf[offset:]
	t := ObjectType(b[0])
	if t >= objectTypeMax {
		return objectHeader{}, fmt.Errorf("%w: %d", ErrBadObjectType, b[0])
	}
	return objectHeader{
		Type:  t,
		Flags: b[1],
		Size:  binary.LittleEndian.Uint64(b[8:16]),
	}, nil
}

func writeObjectHeader(buf []byte, offset uint64, h objectHeader) {
	b := buf[offset:]
	b[0] = byte(h.Type)
	b[1] = h.Flags
	for i := 2; i < 8; i++ {
		b[i] = 0
	}
	binary.LittleEndian.PutUint64(b[8:16], h.Size)
}

// DataObjectView is a zero-copy projection over a Data object: the
// payload (a "FIELD=value" pair), its hash, dedup/link chain offsets,
// and entry-linkage bookkeeping.
type DataObjectView struct {
	buf     []byte
	offset  uint64
	compact bool
}

const (
	doOffHash             = ObjectHeaderSize + 0
	doOffNextHash         = ObjectHeaderSize + 8
	doOffNextField        = ObjectHeaderSize + 16
	doOffEntryOffset      = ObjectHeaderSize + 24
	doOffEntryArrayOffset = ObjectHeaderSize + 32
	doOffNEntries         = ObjectHeaderSize + 40
	doFixedSize           = ObjectHeaderSize + 48 // = DataObjectSize
)

func newDataObjectView(buf []byte, offset uint64, compact bool) (*DataObjectView, error) {
	if offset+doFixedSize > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: data object at %d", ErrZerocopy, offset)
	}
	return &DataObjectView{buf: buf, offset: offset, compact: compact}, nil
}

func (d *DataObjectView) field(off int) []byte { return d.buf[d.offset+uint64(off):] }

func (d *DataObjectView) Hash() uint64        { return binary.LittleEndian.Uint64(d.field(doOffHash)) }
func (d *DataObjectView) NextHashOffset() uint64 {
	return binary.LittleEndian.Uint64(d.field(doOffNextHash))
}
func (d *DataObjectView) SetNextHashOffset(v uint64) {
	binary.LittleEndian.PutUint64(d.field(doOffNextHash), v)
}
func (d *DataObjectView) NextFieldOffset() uint64 {
	return binary.LittleEndian.Uint64(d.field(doOffNextField))
}
func (d *DataObjectView) SetNextFieldOffset(v uint64) {
	binary.LittleEndian.PutUint64(d.field(doOffNextField), v)
}
func (d *DataObjectView) EntryOffset() uint64 {
	return binary.LittleEndian.Uint64(d.field(doOffEntryOffset))
}
func (d *DataObjectView) SetEntryOffset(v uint64) {
	binary.LittleEndian.PutUint64(d.field(doOffEntryOffset), v)
}
func (d *DataObjectView) EntryArrayOffset() uint64 {
	return binary.LittleEndian.Uint64(d.field(doOffEntryArrayOffset))
}
func (d *DataObjectView) SetEntryArrayOffset(v uint64) {
	binary.LittleEndian.PutUint64(d.field(doOffEntryArrayOffset), v)
}
func (d *DataObjectView) NEntries() uint64 {
	return binary.LittleEndian.Uint64(d.field(doOffNEntries))
}
func (d *DataObjectView) SetNEntries(v uint64) {
	binary.LittleEndian.PutUint64(d.field(doOffNEntries), v)
}

// Payload returns the "FIELD=value" bytes, given the object's total size
// read from its header.
func (d *DataObjectView) Payload(objectSize uint64) []byte {
	start := d.offset + doFixedSize
	end := d.offset + objectSize
	return d.buf[start:end]
}

// FieldObjectView projects a Field object: a bare field name ("FIELD"),
// its hash, dedup chain, and the head of its per-field data list.
type FieldObjectView struct {
	buf    []byte
	offset uint64
}

const (
	foOffHash         = ObjectHeaderSize + 0
	foOffNextHash     = ObjectHeaderSize + 8
	foOffHeadDataOff  = ObjectHeaderSize + 16
	foFixedSize       = ObjectHeaderSize + 24 // = FieldObjectSize
)

func newFieldObjectView(buf []byte, offset uint64) (*FieldObjectView, error) {
	if offset+foFixedSize > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: field object at %d", ErrZerocopy, offset)
	}
	return &FieldObjectView{buf: buf, offset: offset}, nil
}

func (f *FieldObjectView) field(off int) []byte { return f.buf[f.offset+uint64(off):] }

func (f *FieldObjectView) Hash() uint64 { return binary.LittleEndian.Uint64(f.field(foOffHash)) }
func (f *FieldObjectView) NextHashOffset() uint64 {
	return binary.LittleEndian.Uint64(f.field(foOffNextHash))
}
func (f *FieldObjectView) SetNextHashOffset(v uint64) {
	binary.LittleEndian.PutUint64(f.field(foOffNextHash), v)
}
func (f *FieldObjectView) HeadDataOffset() uint64 {
	return binary.LittleEndian.Uint64(f.field(foOffHeadDataOff))
}
func (f *FieldObjectView) SetHeadDataOffset(v uint64) {
	binary.LittleEndian.PutUint64(f.field(foOffHeadDataOff), v)
}
func (f *FieldObjectView) Payload(objectSize uint64) []byte {
	return f.buf[f.offset+foFixedSize : f.offset+objectSize]
}

// EntryObjectView projects an Entry object: sequence number, realtime
// and monotonic timestamps, boot ID, the xor-hash of its data items, and
// (compact-or-regular) the list of data item references that follow.
type EntryObjectView struct {
	buf     []byte
	offset  uint64
	compact bool
}

const (
	eoOffSeqnum    = ObjectHeaderSize + 0
	eoOffRealtime  = ObjectHeaderSize + 8
	eoOffMonotonic = ObjectHeaderSize + 16
	eoOffBootID    = ObjectHeaderSize + 24
	eoOffXorHash   = ObjectHeaderSize + 40
	eoFixedSize    = ObjectHeaderSize + 48 // = EntryObjectSize
)

func newEntryObjectView(buf []byte, offset uint64, compact bool) (*EntryObjectView, error) {
	if offset+eoFixedSize > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: entry object at %d", ErrZerocopy, offset)
	}
	return &EntryObjectView{buf: buf, offset: offset, compact: compact}, nil
}

func (e *EntryObjectView) field(off int) []byte { return e.buf[e.offset+uint64(off):] }

func (e *EntryObjectView) Seqnum() uint64 { return binary.LittleEndian.Uint64(e.field(eoOffSeqnum)) }
func (e *EntryObjectView) Realtime() uint64 {
	return binary.LittleEndian.Uint64(e.field(eoOffRealtime))
}
func (e *EntryObjectView) Monotonic() uint64 {
	return binary.LittleEndian.Uint64(e.field(eoOffMonotonic))
}
func (e *EntryObjectView) BootID() [16]byte {
	var b [16]byte
	copy(b[:], e.field(eoOffBootID)[:16])
	return b
}
func (e *EntryObjectView) XorHash() uint64 {
	return binary.LittleEndian.Uint64(e.field(eoOffXorHash))
}
func (e *EntryObjectView) SetXorHash(v uint64) {
	binary.LittleEndian.PutUint64(e.field(eoOffXorHash), v)
}

// entryItemSize is one of the three compact/regular variable-width
// sites: a regular entry item is {data_offset u64, hash u64} = 16
// bytes; a compact entry item is {data_offset u32} = 4 bytes (the hash
// is recomputed on demand rather than cached).
func (e *EntryObjectView) entryItemSize() uint64 {
	if e.compact {
		return 4
	}
	return 16
}

// NItems returns how many data-item references follow the fixed header,
// given the object's total size.
func (e *EntryObjectView) NItems(objectSize uint64) uint64 {
	return (objectSize - eoFixedSize) / e.entryItemSize()
}

// Item returns the data object offset referenced by the i'th item.
func (e *EntryObjectView) Item(i uint64) uint64 {
	pos := e.offset + eoFixedSize + i*e.entryItemSize()
	if e.compact {
		return uint64(binary.LittleEndian.Uint32(e.buf[pos:]))
	}
	return binary.LittleEndian.Uint64(e.buf[pos:])
}

// SetItem writes the i'th data-item reference (and, in the regular
// layout, the associated hash immediately after it).
func (e *EntryObjectView) SetItem(i uint64, dataOffset, hash uint64) {
	pos := e.offset + eoFixedSize + i*e.entryItemSize()
	if e.compact {
		binary.LittleEndian.PutUint32(e.buf[pos:], uint32(dataOffset))
		return
	}
	binary.LittleEndian.PutUint64(e.buf[pos:], dataOffset)
	binary.LittleEndian.PutUint64(e.buf[pos+8:], hash)
}

// EntryArrayObjectView projects an EntryArray (offset-array chain) node:
// a pointer to the next node and a run of entry offsets. This is the
// second compact/regular variable-width site: items are u32 offsets in
// compact files, u64 otherwise.
type EntryArrayObjectView struct {
	buf     []byte
	offset  uint64
	compact bool
}

const (
	eaOffNextArray = ObjectHeaderSize + 0
	eaFixedSize    = ObjectHeaderSize + 8 // = EntryArrayObjectSize
)

func newEntryArrayObjectView(buf []byte, offset uint64, compact bool) (*EntryArrayObjectView, error) {
	if offset+eaFixedSize > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: entry array object at %d", ErrZerocopy, offset)
	}
	return &EntryArrayObjectView{buf: buf, offset: offset, compact: compact}, nil
}

func (a *EntryArrayObjectView) itemSize() uint64 {
	if a.compact {
		return 4
	}
	return 8
}

func (a *EntryArrayObjectView) NextArrayOffset() uint64 {
	return binary.LittleEndian.Uint64(a.buf[a.offset+eaOffNextArray:])
}
func (a *EntryArrayObjectView) SetNextArrayOffset(v uint64) {
	binary.LittleEndian.PutUint64(a.buf[a.offset+eaOffNextArray:], v)
}

// Capacity returns how many entry-offset slots this node has, given its
// total object size.
func (a *EntryArrayObjectView) Capacity(objectSize uint64) uint64 {
	return (objectSize - eaFixedSize) / a.itemSize()
}

func (a *EntryArrayObjectView) Get(i uint64) uint64 {
	pos := a.offset + eaFixedSize + i*a.itemSize()
	if a.compact {
		return uint64(binary.LittleEndian.Uint32(a.buf[pos:]))
	}
	return binary.LittleEndian.Uint64(a.buf[pos:])
}

func (a *EntryArrayObjectView) Set(i uint64, v uint64) {
	pos := a.offset + eaFixedSize + i*a.itemSize()
	if a.compact {
		binary.LittleEndian.PutUint32(a.buf[pos:], uint32(v))
		return
	}
	binary.LittleEndian.PutUint64(a.buf[pos:], v)
}

// HashTableView projects a DataHashTable or FieldHashTable object: a
// contiguous array of (head, tail) offset pairs, one per bucket. This is
// stable, non-windowed memory — the File Engine keeps a resident copy of
// the whole table for the file's lifetime rather than fetching it
// through the Window Manager, and CommitHeader writes that copy back to
// the file.
type HashTableView struct {
	buf     []byte
	offset  uint64
	buckets uint64
}

func newHashTableView(buf []byte, offset, size uint64) (*HashTableView, error) {
	buckets := size / HashTableItemSize
	if buckets == 0 {
		return nil, ErrMissingHashTable
	}
	if offset+size > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: hash table at %d", ErrZerocopy, offset)
	}
	return &HashTableView{buf: buf, offset: offset, buckets: buckets}, nil
}

func (h *HashTableView) Buckets() uint64 { return h.buckets }

func (h *HashTableView) bucketOffset(i uint64) uint64 {
	return h.offset + i*HashTableItemSize
}

func (h *HashTableView) Head(bucket uint64) uint64 {
	return binary.LittleEndian.Uint64(h.buf[h.bucketOffset(bucket):])
}
func (h *HashTableView) SetHead(bucket uint64, v uint64) {
	binary.LittleEndian.PutUint64(h.buf[h.bucketOffset(bucket):], v)
}
func (h *HashTableView) Tail(bucket uint64) uint64 {
	return binary.LittleEndian.Uint64(h.buf[h.bucketOffset(bucket)+8:])
}
func (h *HashTableView) SetTail(bucket uint64, v uint64) {
	binary.LittleEndian.PutUint64(h.buf[h.bucketOffset(bucket)+8:], v)
}

// TagObjectView projects an optional integrity/seal marker. The core
// engine preserves Tag objects found while walking the arena but does
// not interpret them; Sealer (seal.go) is the only component that
// writes meaningful content into one.
type TagObjectView struct {
	buf    []byte
	offset uint64
}

const (
	toOffSeqnum = ObjectHeaderSize + 0
	toOffEpoch  = ObjectHeaderSize + 8
	toOffTag    = ObjectHeaderSize + 16
	toFixedSize = ObjectHeaderSize + 16
)

func newTagObjectView(buf []byte, offset uint64) (*TagObjectView, error) {
	if offset+TagObjectSize > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: tag object at %d", ErrZerocopy, offset)
	}
	return &TagObjectView{buf: buf, offset: offset}, nil
}

func (t *TagObjectView) Seqnum() uint64 { return binary.LittleEndian.Uint64(t.buf[t.offset+toOffSeqnum:]) }
func (t *TagObjectView) Epoch() uint64  { return binary.LittleEndian.Uint64(t.buf[t.offset+toOffEpoch:]) }
func (t *TagObjectView) Tag() []byte    { return t.buf[t.offset+toOffTag : t.offset+TagObjectSize] }
func (t *TagObjectView) SetTag(b []byte) {
	copy(t.buf[t.offset+toOffTag:t.offset+TagObjectSize], b)
}

// alignTo8 rounds n up to the next multiple of 8, as every object in the
// arena must start on an 8-byte boundary.
func alignTo8(n uint64) uint64 {
	return (n + 7) &^ 7
}

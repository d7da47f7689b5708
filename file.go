// File Engine: composes the Window Manager, Object Codec, Value Guard,
// and hash-table maps into the single type a reader or writer attaches
// to. Hash tables are read once into resident byte slices for the
// file's lifetime (not served through the windowed LRU) since they are
// touched on every lookup and every insert; CommitHeader writes them
// back to the file together with the header.
//
// Grounded on jpl-au-folio/db.go's Open (os.OpenRoot, stat-then-create,
// crash-flag check, cached header) for the lifecycle shape, and on
// original_source's file.rs open()/create() contracts for the
// binary-specific validation (signature, incompatible flags,
// map_hash_table bounds checks).
package journal

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
)

// JournalFileOptions configures a new file's layout. Builder-styled
// with With* methods, mirroring the teacher's Config defaulting pattern
// and original_source's JournalFileOptions builder.
type JournalFileOptions struct {
	WindowSize          uint64
	MaxWindows          int
	DataHashBuckets     uint64
	FieldHashBuckets    uint64
	KeyedHash           bool
	Codec               PayloadCodec
	Sealer              Sealer
	DebugValueGuard     bool
}

// DefaultJournalFileOptions returns the defaults used when a caller does
// not override them, matching spec.md §4.4's stated defaults.
func DefaultJournalFileOptions() JournalFileOptions {
	return JournalFileOptions{
		WindowSize:       DefaultWindowSize,
		MaxWindows:       64,
		DataHashBuckets:  4096,
		FieldHashBuckets: 512,
		KeyedHash:        false,
		Codec:            DefaultPayloadCodec(),
		Sealer:           nil,
	}
}

func (o JournalFileOptions) WithWindowSize(n uint64) JournalFileOptions { o.WindowSize = n; return o }
func (o JournalFileOptions) WithDataHashBuckets(n uint64) JournalFileOptions {
	o.DataHashBuckets = n
	return o
}
func (o JournalFileOptions) WithFieldHashBuckets(n uint64) JournalFileOptions {
	o.FieldHashBuckets = n
	return o
}
func (o JournalFileOptions) WithKeyedHash(v bool) JournalFileOptions { o.KeyedHash = v; return o }
func (o JournalFileOptions) WithSealer(s Sealer) JournalFileOptions  { o.Sealer = s; return o }

// BucketUtilization reports how full the data and field hash tables are,
// used both for diagnostics and to drive rotation's bucket retuning
// (rotate.go), per original_source's journal-core BucketUtilization.
type BucketUtilization struct {
	DataBuckets, DataUsed   uint64
	FieldBuckets, FieldUsed uint64
}

func (u BucketUtilization) DataUtilization() float64 {
	if u.DataBuckets == 0 {
		return 0
	}
	return float64(u.DataUsed) / float64(u.DataBuckets)
}

func (u BucketUtilization) FieldUtilization() float64 {
	if u.FieldBuckets == 0 {
		return 0
	}
	return float64(u.FieldUsed) / float64(u.FieldBuckets)
}

// JournalFile is a single open journal file: not safe for concurrent
// use from multiple goroutines (spec.md §5's single-threaded
// cooperative model) — callers needing concurrency open independent
// JournalFiles over different files.
type JournalFile struct {
	path   string
	f      *os.File
	header *Header
	opts   JournalFileOptions

	windows *WindowManager
	guard   *ValueGuard

	dataHT  *HashTableView
	fieldHT *HashTableView

	writable bool
	lock     *fileLock
	writerMu sync.Mutex

	closed bool
}

// Create initialises a new, empty journal file at path.
func Create(path string, opts JournalFileOptions) (*JournalFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	opts = fillDefaults(opts)

	// Per spec.md §4.6's create contract, the DataHashTable and
	// FieldHashTable are themselves arena objects (with their own object
	// headers), not a bare bucket array bolted on after the file header -
	// the header's *HashTableOffset fields name the bucket array start,
	// just past each object's own header, matching every other object's
	// "header then payload" shape.
	dataHTBucketSize := opts.DataHashBuckets * HashTableItemSize
	fieldHTBucketSize := opts.FieldHashBuckets * HashTableItemSize

	dataObjOffset := alignTo8(HeaderSize)
	dataObjSize := alignTo8(ObjectHeaderSize + dataHTBucketSize)
	dataHTOffset := dataObjOffset + ObjectHeaderSize

	fieldObjOffset := alignTo8(dataObjOffset + dataObjSize)
	fieldObjSize := alignTo8(ObjectHeaderSize + fieldHTBucketSize)
	fieldHTOffset := fieldObjOffset + ObjectHeaderSize

	arenaStart := alignTo8(fieldObjOffset + fieldObjSize)

	var incompat uint32
	if opts.KeyedHash {
		incompat |= HeaderIncompatibleKeyedHash
	}

	h := &Header{
		IncompatibleFlags:    incompat,
		State:                StateOffline,
		HeaderSizeField:      HeaderSize,
		ArenaSize:            0,
		DataHashTableOffset:  dataHTOffset,
		DataHashTableSize:    dataHTBucketSize,
		FieldHashTableOffset: fieldHTOffset,
		FieldHashTableSize:   fieldHTBucketSize,
		// The two hash-table objects are pre-allocated below; the tail
		// starts at the second of them so the first real allocateObject
		// call continues the chain from its header, the same as any
		// other object-to-object append.
		TailObjectOffset: fieldObjOffset,
		NObjects:         2,
	}
	randFill(h.FileID[:])
	randFill(h.MachineID[:])
	randFill(h.SeqnumID[:])

	if err := f.Truncate(int64(arenaStart)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	dataObjHdr := make([]byte, ObjectHeaderSize)
	writeObjectHeader(dataObjHdr, 0, objectHeader{Type: ObjectDataHashTable, Size: dataObjSize})
	if _, err := f.WriteAt(dataObjHdr, int64(dataObjOffset)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	fieldObjHdr := make([]byte, ObjectHeaderSize)
	writeObjectHeader(fieldObjHdr, 0, objectHeader{Type: ObjectFieldHashTable, Size: fieldObjSize})
	if _, err := f.WriteAt(fieldObjHdr, int64(fieldObjOffset)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	if _, err := f.WriteAt(h.encode(), 0); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	jf, err := openHandle(path, f, h, opts, true)
	if err != nil {
		return nil, err
	}
	return jf, nil
}

// Open opens an existing journal file for reading, or read-write if
// writable is true.
func Open(path string, writable bool, opts JournalFileOptions) (*JournalFile, error) {
	flags := os.O_RDONLY
	if writable {
		flags = os.O_RDWR
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	hdrBuf := make([]byte, HeaderSize)
	if _, err := f.ReadAt(hdrBuf, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	h, err := decodeHeader(hdrBuf)
	if err != nil {
		f.Close()
		return nil, err
	}

	opts = fillDefaults(opts)
	return openHandle(path, f, h, opts, writable)
}

func openHandle(path string, f *os.File, h *Header, opts JournalFileOptions, writable bool) (*JournalFile, error) {
	wm := NewWindowManager(f, opts.WindowSize, opts.MaxWindows, writable)

	if err := mapHashTables(f, h); err != nil {
		f.Close()
		return nil, err
	}

	dataHTBuf, fieldHTBuf, err := readHashTableBytes(f, h)
	if err != nil {
		f.Close()
		return nil, err
	}
	dataHT, err := newHashTableView(dataHTBuf, 0, h.DataHashTableSize)
	if err != nil {
		f.Close()
		return nil, err
	}
	fieldHT, err := newHashTableView(fieldHTBuf, 0, h.FieldHashTableSize)
	if err != nil {
		f.Close()
		return nil, err
	}

	jf := &JournalFile{
		path:     path,
		f:        f,
		header:   h,
		opts:     opts,
		windows:  wm,
		guard:    NewValueGuard(opts.DebugValueGuard),
		dataHT:   dataHT,
		fieldHT:  fieldHT,
		writable: writable,
		lock:     &fileLock{f: f},
	}
	return jf, nil
}

// mapHashTables validates that the file's declared hash-table offsets
// and sizes are sane before anything tries to dereference them,
// matching original_source's map_hash_table helper (offset must be
// past the header, size must be large enough to hold at least one
// bucket).
func mapHashTables(f *os.File, h *Header) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	size := uint64(info.Size())

	check := func(offset, tsize uint64) error {
		if offset < HeaderSize {
			return ErrMissingHashTable
		}
		if tsize < HashTableItemSize {
			return ErrMissingHashTable
		}
		if offset+tsize > size {
			return fmt.Errorf("%w: table [%d,%d) beyond file size %d", ErrMissingHashTable, offset, offset+tsize, size)
		}
		return nil
	}
	if err := check(h.DataHashTableOffset, h.DataHashTableSize); err != nil {
		return err
	}
	return check(h.FieldHashTableOffset, h.FieldHashTableSize)
}

// readHashTableBytes loads both hash tables into owned, resident byte
// slices (not windowed) since they are consulted on every lookup.
func readHashTableBytes(f *os.File, h *Header) (data, field []byte, err error) {
	data = make([]byte, h.DataHashTableSize)
	if _, err = f.ReadAt(data, int64(h.DataHashTableOffset)); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	field = make([]byte, h.FieldHashTableSize)
	if _, err = f.ReadAt(field, int64(h.FieldHashTableOffset)); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return data, field, nil
}

func fillDefaults(o JournalFileOptions) JournalFileOptions {
	d := DefaultJournalFileOptions()
	if o.WindowSize == 0 {
		o.WindowSize = d.WindowSize
	}
	if o.MaxWindows == 0 {
		o.MaxWindows = d.MaxWindows
	}
	if o.DataHashBuckets == 0 {
		o.DataHashBuckets = d.DataHashBuckets
	}
	if o.FieldHashBuckets == 0 {
		o.FieldHashBuckets = d.FieldHashBuckets
	}
	if o.Codec == nil {
		o.Codec = d.Codec
	}
	return o
}

// Close flushes any pending windows and releases the backing file.
func (jf *JournalFile) Close() error {
	if jf.closed {
		return nil
	}
	jf.closed = true
	var err error
	if jf.writable {
		jf.header.State = StateOffline
		if werr := writeState(jf.f, StateOffline); werr != nil {
			err = werr
		}
	}
	if serr := jf.windows.Sync(); serr != nil && err == nil {
		err = serr
	}
	jf.windows.Close()
	jf.lock.setFile(nil)
	if cerr := jf.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Header returns the file's current header. Callers must not mutate
// the returned pointer's fields directly; use the Writer for mutation.
func (jf *JournalFile) Header() *Header { return jf.header }

// Path returns the filesystem path this engine was opened from.
func (jf *JournalFile) Path() string { return jf.path }

// BucketUtilization reports current hash table fill ratios.
func (jf *JournalFile) BucketUtilization() BucketUtilization {
	var u BucketUtilization
	u.DataBuckets = jf.dataHT.Buckets()
	u.FieldBuckets = jf.fieldHT.Buckets()
	for i := uint64(0); i < u.DataBuckets; i++ {
		if jf.dataHT.Head(i) != 0 {
			u.DataUsed++
		}
	}
	for i := uint64(0); i < u.FieldBuckets; i++ {
		if jf.fieldHT.Head(i) != 0 {
			u.FieldUsed++
		}
	}
	return u
}

// objectHeaderAt reads the generic object header at offset, validating
// that it names a known type and that its size is at least the object
// header size.
func (jf *JournalFile) objectHeaderAt(offset uint64) (objectHeader, error) {
	buf, err := jf.windows.Slice(offset, ObjectHeaderSize)
	if err != nil {
		return objectHeader{}, err
	}
	raw := make([]byte, ObjectHeaderSize)
	copy(raw, buf)
	sz := binary.LittleEndian.Uint64(raw[8:16])
	if sz < ObjectHeaderSize {
		return objectHeader{}, fmt.Errorf("%w: size %d at %d", ErrBadObjectLocation, sz, offset)
	}
	return readObjectHeader(raw, 0)
}

// withGuard acquires the Value Guard, runs fn, and releases it
// unconditionally afterward, narrowing the window in which a
// concurrent caller on the same engine could evict the backing window
// out from under an in-flight projection. Every typed accessor below
// follows spec.md's prescribed order under one hold: acquire, fetch
// the object header, validate its type, map the full range, project.
func (jf *JournalFile) withGuard(fn func() error) error {
	if err := jf.guard.Acquire(); err != nil {
		return err
	}
	defer jf.guard.Release()
	return fn()
}

// DataRef returns a read-only view of the Data object at offset.
func (jf *JournalFile) DataRef(offset uint64) (*DataObjectView, objectHeader, error) {
	var v *DataObjectView
	var hdr objectHeader
	err := jf.withGuard(func() error {
		var err error
		hdr, err = jf.objectHeaderAt(offset)
		if err != nil {
			return err
		}
		if hdr.Type != ObjectData {
			return fmt.Errorf("%w: expected data, got %s", ErrBadObjectType, hdr.Type)
		}
		buf, err := jf.windows.Slice(offset, hdr.Size)
		if err != nil {
			return err
		}
		v, err = newDataObjectView(buf, 0, jf.header.Compact())
		return err
	})
	return v, hdr, err
}

// DataMut returns a writable view of the Data object at offset.
func (jf *JournalFile) DataMut(offset uint64) (*DataObjectView, objectHeader, error) {
	var v *DataObjectView
	var hdr objectHeader
	err := jf.withGuard(func() error {
		var err error
		hdr, err = jf.objectHeaderAt(offset)
		if err != nil {
			return err
		}
		if hdr.Type != ObjectData {
			return fmt.Errorf("%w: expected data, got %s", ErrBadObjectType, hdr.Type)
		}
		buf, err := jf.windows.SliceMut(offset, hdr.Size)
		if err != nil {
			return err
		}
		v, err = newDataObjectView(buf, 0, jf.header.Compact())
		return err
	})
	return v, hdr, err
}

// FieldRef returns a read-only view of the Field object at offset.
func (jf *JournalFile) FieldRef(offset uint64) (*FieldObjectView, objectHeader, error) {
	var v *FieldObjectView
	var hdr objectHeader
	err := jf.withGuard(func() error {
		var err error
		hdr, err = jf.objectHeaderAt(offset)
		if err != nil {
			return err
		}
		if hdr.Type != ObjectField {
			return fmt.Errorf("%w: expected field, got %s", ErrBadObjectType, hdr.Type)
		}
		buf, err := jf.windows.Slice(offset, hdr.Size)
		if err != nil {
			return err
		}
		v, err = newFieldObjectView(buf, 0)
		return err
	})
	return v, hdr, err
}

// FieldMut returns a writable view of the Field object at offset.
func (jf *JournalFile) FieldMut(offset uint64) (*FieldObjectView, objectHeader, error) {
	var v *FieldObjectView
	var hdr objectHeader
	err := jf.withGuard(func() error {
		var err error
		hdr, err = jf.objectHeaderAt(offset)
		if err != nil {
			return err
		}
		if hdr.Type != ObjectField {
			return fmt.Errorf("%w: expected field, got %s", ErrBadObjectType, hdr.Type)
		}
		buf, err := jf.windows.SliceMut(offset, hdr.Size)
		if err != nil {
			return err
		}
		v, err = newFieldObjectView(buf, 0)
		return err
	})
	return v, hdr, err
}

// EntryRef returns a read-only view of the Entry object at offset.
func (jf *JournalFile) EntryRef(offset uint64) (*EntryObjectView, objectHeader, error) {
	var v *EntryObjectView
	var hdr objectHeader
	err := jf.withGuard(func() error {
		var err error
		hdr, err = jf.objectHeaderAt(offset)
		if err != nil {
			return err
		}
		if hdr.Type != ObjectEntry {
			return fmt.Errorf("%w: expected entry, got %s", ErrBadObjectType, hdr.Type)
		}
		buf, err := jf.windows.Slice(offset, hdr.Size)
		if err != nil {
			return err
		}
		v, err = newEntryObjectView(buf, 0, jf.header.Compact())
		return err
	})
	return v, hdr, err
}

// EntryMut returns a writable view of the Entry object at offset.
func (jf *JournalFile) EntryMut(offset uint64) (*EntryObjectView, objectHeader, error) {
	var v *EntryObjectView
	var hdr objectHeader
	err := jf.withGuard(func() error {
		var err error
		hdr, err = jf.objectHeaderAt(offset)
		if err != nil {
			return err
		}
		if hdr.Type != ObjectEntry {
			return fmt.Errorf("%w: expected entry, got %s", ErrBadObjectType, hdr.Type)
		}
		buf, err := jf.windows.SliceMut(offset, hdr.Size)
		if err != nil {
			return err
		}
		v, err = newEntryObjectView(buf, 0, jf.header.Compact())
		return err
	})
	return v, hdr, err
}

// OffsetArrayRef returns a read-only view of the EntryArray object at
// offset.
func (jf *JournalFile) OffsetArrayRef(offset uint64) (*EntryArrayObjectView, objectHeader, error) {
	var v *EntryArrayObjectView
	var hdr objectHeader
	err := jf.withGuard(func() error {
		var err error
		hdr, err = jf.objectHeaderAt(offset)
		if err != nil {
			return err
		}
		if hdr.Type != ObjectEntryArray {
			return fmt.Errorf("%w: expected entry array, got %s", ErrBadObjectType, hdr.Type)
		}
		buf, err := jf.windows.Slice(offset, hdr.Size)
		if err != nil {
			return err
		}
		v, err = newEntryArrayObjectView(buf, 0, jf.header.Compact())
		return err
	})
	return v, hdr, err
}

// OffsetArrayMut returns a writable view of the EntryArray object at
// offset.
func (jf *JournalFile) OffsetArrayMut(offset uint64) (*EntryArrayObjectView, objectHeader, error) {
	var v *EntryArrayObjectView
	var hdr objectHeader
	err := jf.withGuard(func() error {
		var err error
		hdr, err = jf.objectHeaderAt(offset)
		if err != nil {
			return err
		}
		if hdr.Type != ObjectEntryArray {
			return fmt.Errorf("%w: expected entry array, got %s", ErrBadObjectType, hdr.Type)
		}
		buf, err := jf.windows.SliceMut(offset, hdr.Size)
		if err != nil {
			return err
		}
		v, err = newEntryArrayObjectView(buf, 0, jf.header.Compact())
		return err
	})
	return v, hdr, err
}

// TagRef returns a read-only view of the Tag object at offset.
func (jf *JournalFile) TagRef(offset uint64) (*TagObjectView, objectHeader, error) {
	var v *TagObjectView
	var hdr objectHeader
	err := jf.withGuard(func() error {
		var err error
		hdr, err = jf.objectHeaderAt(offset)
		if err != nil {
			return err
		}
		if hdr.Type != ObjectTag {
			return fmt.Errorf("%w: expected tag, got %s", ErrBadObjectType, hdr.Type)
		}
		buf, err := jf.windows.Slice(offset, hdr.Size)
		if err != nil {
			return err
		}
		v, err = newTagObjectView(buf, 0)
		return err
	})
	return v, hdr, err
}

// DataObjectDirectedPartitionPoint implements spec.md §4.6's
// data_object_directed_partition_point: it navigates the given Data
// object's own entry references as one logical sequence of entry
// offsets, in the same monotone-predicate/direction convention as
// offsetArrayChain.directedPartitionPoint. When n_entries == 1 the
// sequence is inlined as the single head_entry_offset field and the
// chain is never touched at all; when n_entries >= 2, logical index 0
// is head_entry_offset (which linkDataToEntry never migrates into the
// chain — see writer.go) and indices 1..n_entries-1 come from the
// per-data entry-array chain.
func (jf *JournalFile) DataObjectDirectedPartitionPoint(dataOffset uint64, predicate func(entryOffset uint64) bool, direction Direction) (idx uint64, ok bool, err error) {
	view, _, err := jf.DataRef(dataOffset)
	if err != nil {
		return 0, false, err
	}
	n := view.NEntries()
	if n == 0 {
		return 0, false, nil
	}
	head := view.EntryOffset()

	shaped := predicate
	if direction == Backward {
		shaped = func(v uint64) bool { return !predicate(v) }
	}

	var lo uint64
	var found bool
	if shaped(head) {
		lo, found = 0, true
	} else if n > 1 {
		chainLo, chainFound, cerr := (offsetArrayChain{jf}).lowerBound(view.EntryArrayOffset(), dataChainInitialCapacity, n-1, shaped)
		if cerr != nil {
			return 0, false, cerr
		}
		if chainFound {
			lo, found = chainLo+1, true
		}
	}

	if direction == Forward {
		return lo, found, nil
	}
	if !found {
		return n - 1, true, nil
	}
	if lo == 0 {
		return 0, false, nil
	}
	return lo - 1, true, nil
}

// allocateObject grows the arena by size bytes (aligned to 8), writes a
// fresh object header there, and returns the new object's offset. The
// caller must hold the write lock; this does not touch the hash tables,
// but it does advance the header's tail-object offset, object count and
// arena size.
func (jf *JournalFile) allocateObject(typ ObjectType, size uint64) (uint64, error) {
	size = alignTo8(size)
	offset := jf.header.TailObjectOffset
	if offset == 0 {
		info, err := jf.f.Stat()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrIO, err)
		}
		offset = alignTo8(uint64(info.Size()))
	} else {
		prevHdr, err := jf.objectHeaderAt(offset)
		if err != nil {
			return 0, err
		}
		offset = alignTo8(offset + prevHdr.Size)
	}

	if err := jf.windows.EnsureMapped(offset + size); err != nil {
		return 0, err
	}
	buf, err := jf.windows.SliceMut(offset, size)
	if err != nil {
		return 0, err
	}
	for i := range buf {
		buf[i] = 0
	}
	writeObjectHeader(buf, 0, objectHeader{Type: typ, Size: size})

	jf.header.TailObjectOffset = offset
	jf.header.NObjects++
	jf.header.ArenaSize = offset + size - jf.firstArenaOffset()
	return offset, nil
}

// firstArenaOffset returns the byte offset where ordinary arena objects
// (Data, Field, Entry, EntryArray, Tag) begin - just past the
// FieldHashTable object, the second of the two objects Create
// pre-allocates. Derived from the header's recorded bucket-array
// offset/size rather than stored directly, since the object header
// that precedes the bucket array is not itself reflected in the header.
func (jf *JournalFile) firstArenaOffset() uint64 {
	fieldObjOffset := jf.header.FieldHashTableOffset - ObjectHeaderSize
	fieldObjSize := alignTo8(ObjectHeaderSize + jf.header.FieldHashTableSize)
	return alignTo8(fieldObjOffset + fieldObjSize)
}

// CommitHeader persists the in-memory header and both resident hash
// tables to disk, used after any mutation (writer append, rotation).
// Call Sync afterward to flush the mapped windows too.
func (jf *JournalFile) CommitHeader() error {
	if _, err := jf.f.WriteAt(jf.dataHT.buf, int64(jf.header.DataHashTableOffset)); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if _, err := jf.f.WriteAt(jf.fieldHT.buf, int64(jf.header.FieldHashTableOffset)); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	_, err := jf.f.WriteAt(jf.header.encode(), 0)
	return err
}

func (jf *JournalFile) Sync() error {
	if err := jf.CommitHeader(); err != nil {
		return err
	}
	return jf.windows.Sync()
}

// randFill fills b (always 16 bytes: a FileID, MachineID, or SeqnumID)
// with a fresh random UUID's bytes, so two files created back to back -
// or two files created without any rotation relationship at all - never
// collide. This matters beyond uniqueness bookkeeping: with KeyedHash
// on, the SipHash key is file_id, so a fixed FileID would mean every
// such file shares the same dedup hash key.
func randFill(b []byte) {
	id := uuid.New()
	copy(b, id[:])
}

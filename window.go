// Window Manager: a bounded LRU set of page-aligned memory-mapped
// windows over the backing file. Every read or write of an object goes
// through Slice/SliceMut rather than the raw file handle, so the rest
// of the engine never calls mmap itself.
//
// Grounded on other_examples' from-scratch journal reader, which maps
// the whole file read-only via github.com/edsrzf/mmap-go; this engine
// additionally needs writable windows (for the Writer) and a bounded
// handle count (a long-lived process walking many rotated files should
// not keep every file mapped forever), so windows are sized and evicted
// rather than mapping the whole file once.
package journal

import (
	"container/list"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// DefaultWindowSize is the size of each mapped window when the caller
// does not override it via JournalFileOptions.
const DefaultWindowSize = 8 * 1024 * 1024

// pageSize is used to align window start offsets; mmap implementations
// require the offset argument to be a multiple of the OS page size.
const pageSize = 4096

type window struct {
	base uint64
	m    mmap.MMap
}

// WindowManager owns the mmap windows for one open file.
type WindowManager struct {
	f          *os.File
	writable   bool
	windowSize uint64
	maxWindows int

	lru   *list.List // most-recently-used at front, elements are *window
	byOff map[uint64]*list.Element
}

// NewWindowManager creates a manager over f. windowSize is rounded up to
// a page boundary; maxWindows bounds how many windows stay mapped at
// once before the least-recently-used one is unmapped.
func NewWindowManager(f *os.File, windowSize uint64, maxWindows int, writable bool) *WindowManager {
	if windowSize == 0 {
		windowSize = DefaultWindowSize
	}
	windowSize = alignTo8(windowSize)
	if rem := windowSize % pageSize; rem != 0 {
		windowSize += pageSize - rem
	}
	if maxWindows <= 0 {
		maxWindows = 64
	}
	return &WindowManager{
		f:          f,
		writable:   writable,
		windowSize: windowSize,
		maxWindows: maxWindows,
		lru:        list.New(),
		byOff:      make(map[uint64]*list.Element),
	}
}

// windowBase picks the base of the window for [offset, offset+length):
// the windowSize-grid floor of offset when the request fits in that
// window, per spec.md §4.1. Requests aligned to the windowSize grid (the
// common case) land on the same base every time, which is what keeps
// the byOff map's keys stable across repeated accesses to one region;
// a request straddling a grid line gets the smallest page-aligned base
// whose window reaches the request's end. That base can lie past offset
// when the request starts off a page boundary and is nearly windowSize
// long; Slice rejects that case.
func (wm *WindowManager) windowBase(offset, length uint64) uint64 {
	floor := (offset / wm.windowSize) * wm.windowSize
	if floor+wm.windowSize >= offset+length {
		return floor
	}
	need := offset + length - wm.windowSize
	base := (need / pageSize) * pageSize
	if need%pageSize != 0 {
		base += pageSize
	}
	return base
}

// acquire returns the window covering [offset, offset+length), mapping
// it if necessary and marking it most-recently-used.
func (wm *WindowManager) acquire(offset, length uint64) (*window, error) {
	base := wm.windowBase(offset, length)
	if el, ok := wm.byOff[base]; ok {
		wm.lru.MoveToFront(el)
		return el.Value.(*window), nil
	}

	info, err := wm.f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	size := info.Size()
	if int64(base) >= size && !wm.writable {
		return nil, fmt.Errorf("%w: offset %d beyond file size %d", ErrBadObjectLocation, offset, size)
	}

	mapLen := int(wm.windowSize)
	if int64(base)+int64(mapLen) > size && !wm.writable {
		mapLen = int(size - int64(base))
	}
	if mapLen <= 0 {
		return nil, fmt.Errorf("%w: window too small at %d", ErrBadObjectLocation, offset)
	}

	prot := mmap.RDONLY
	if wm.writable {
		prot = mmap.RDWR
	}
	m, err := mmap.MapRegion(wm.f, mapLen, prot, 0, int64(base))
	if err != nil {
		return nil, fmt.Errorf("%w: mmap at %d: %w", ErrIO, base, err)
	}

	w := &window{base: base, m: m}
	el := wm.lru.PushFront(w)
	wm.byOff[base] = el
	wm.evictIfNeeded()
	return w, nil
}

func (wm *WindowManager) evictIfNeeded() {
	for wm.lru.Len() > wm.maxWindows {
		back := wm.lru.Back()
		if back == nil {
			return
		}
		w := back.Value.(*window)
		wm.lru.Remove(back)
		delete(wm.byOff, w.base)
		w.m.Unmap()
	}
}

// Slice returns a read-only view of length bytes starting at offset.
// The returned slice is only valid until the backing window is evicted;
// callers must not retain it past the enclosing Value Guard's release.
func (wm *WindowManager) Slice(offset, length uint64) ([]byte, error) {
	if length > wm.windowSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrWindowTooSmall, length, wm.windowSize)
	}
	w, err := wm.acquire(offset, length)
	if err != nil {
		return nil, err
	}
	if w.base > offset {
		return nil, fmt.Errorf("%w: no page-aligned window of %d bytes covers [%d,%d)", ErrWindowTooSmall, wm.windowSize, offset, offset+length)
	}
	rel := offset - w.base
	if rel+length > uint64(len(w.m)) {
		return nil, fmt.Errorf("%w: [%d,%d) exceeds window of %d bytes", ErrBadObjectLocation, offset, offset+length, len(w.m))
	}
	return w.m[rel : rel+length], nil
}

// SliceMut is Slice for a writable manager; it returns the same backing
// bytes so writes through the slice are reflected in the mapping.
func (wm *WindowManager) SliceMut(offset, length uint64) ([]byte, error) {
	if !wm.writable {
		return nil, fmt.Errorf("%w: manager opened read-only", ErrIO)
	}
	return wm.Slice(offset, length)
}

// Sync flushes all currently-mapped windows to the backing file.
func (wm *WindowManager) Sync() error {
	for el := wm.lru.Front(); el != nil; el = el.Next() {
		if err := el.Value.(*window).m.Flush(); err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
	return wm.f.Sync()
}

// Close unmaps every window. The manager must not be used afterwards.
func (wm *WindowManager) Close() error {
	var first error
	for el := wm.lru.Front(); el != nil; el = el.Next() {
		if err := el.Value.(*window).m.Unmap(); err != nil && first == nil {
			first = err
		}
	}
	wm.lru.Init()
	wm.byOff = make(map[uint64]*list.Element)
	return first
}

// EnsureMapped grows the backing file to at least size bytes via
// ftruncate-equivalent Truncate before a write that extends past EOF;
// callers allocating new objects call this before SliceMut.
func (wm *WindowManager) EnsureMapped(size uint64) error {
	info, err := wm.f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if uint64(info.Size()) >= size {
		return nil
	}
	if err := wm.f.Truncate(int64(size)); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

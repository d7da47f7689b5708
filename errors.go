// Package journal implements a systemd-journal-compatible binary log
// engine: an append-only, content-addressed, memory-mapped file format
// with hash-indexed deduplication and a k-way-merge multi-file query
// planner. Files written by this package interchange with the reference
// journal file format described in its on-disk layout.
package journal

import "errors"

// Sentinel errors returned by engine operations.
var (
	// ErrIO wraps an underlying filesystem or mmap failure.
	ErrIO = errors.New("journal: io error")

	// ErrBadMagic is returned when a file's signature does not match the
	// expected magic bytes.
	ErrBadMagic = errors.New("journal: invalid magic number")

	// ErrUnsupportedFlag is returned when a file declares an incompatible
	// flag this engine does not implement.
	ErrUnsupportedFlag = errors.New("journal: unsupported incompatible flag")

	// ErrBadObjectType is returned when an object header names a type
	// outside the known range, or a type other than the one a typed
	// accessor expects.
	ErrBadObjectType = errors.New("journal: invalid object type")

	// ErrBadObjectLocation is returned when an offset does not point at a
	// valid, in-bounds object.
	ErrBadObjectLocation = errors.New("journal: invalid object location")

	// ErrZerocopy is returned when a typed view cannot be projected onto a
	// byte slice (too short, misaligned, or truncated by the file size).
	ErrZerocopy = errors.New("journal: zero-copy projection failed")

	// ErrMissingHashTable is returned when a hash table offset is absent or
	// out of range at the point it is required.
	ErrMissingHashTable = errors.New("journal: missing hash table")

	// ErrGuardInUse is returned when a second object reference is acquired
	// while one is already outstanding on the same engine.
	ErrGuardInUse = errors.New("journal: value guard already in use")

	// ErrEmptyOffsetArray is returned when an offset-array chain is walked
	// but contains no entries.
	ErrEmptyOffsetArray = errors.New("journal: empty offset array list")

	// ErrBadOffsetArrayOffset is returned when an offset-array node points
	// at an invalid next-array offset.
	ErrBadOffsetArrayOffset = errors.New("journal: invalid offset array offset")

	// ErrUUIDSerde is returned when a 128-bit file or boot identifier
	// cannot be parsed or encoded.
	ErrUUIDSerde = errors.New("journal: uuid serialization error")

	// ErrClosed is returned by Writer.AddEntry once the writer has been
	// detached.
	ErrClosed = errors.New("journal: engine is closed")

	// ErrNotFound is returned when a query or lookup finds no match.
	ErrNotFound = errors.New("journal: not found")

	// ErrWriterAttached is returned when a second writer attempts to
	// attach to a file that already has one attached.
	ErrWriterAttached = errors.New("journal: writer already attached")

	// ErrInvalidFieldName is returned when a field name uses characters
	// outside the token-safe set.
	ErrInvalidFieldName = errors.New("journal: invalid field name")

	// ErrWindowTooSmall is returned when a slice request is longer than
	// the Window Manager's configured window size, or when no
	// page-aligned window of that size covers it; no single window can
	// ever cover it, regardless of eviction.
	ErrWindowTooSmall = errors.New("journal: requested slice exceeds window size")
)

// File header layout and validation.
//
// The header is a fixed 208-byte region at the start of every journal
// file: signature, compatible/incompatible flag words, four 128-bit
// identifiers, then a run of little-endian offsets and counters. Every
// field is read and written at its fixed byte position with
// encoding/binary rather than parsed, since this layout must interchange
// with the reference journal file format bit-for-bit.
package journal

import (
	"encoding/binary"
	"fmt"
	"os"
)

// HeaderSize is the fixed size of the file header in bytes.
const HeaderSize = 208

// Signature is the 8-byte magic every valid journal file begins with.
var Signature = [8]byte{'L', 'P', 'K', 'S', 'H', 'H', 'R', 'H'}

// Compatible flag bits. Unknown compatible flags may be ignored by a
// conforming reader.
const (
	HeaderCompatibleSealed uint32 = 1 << 0
)

// Incompatible flag bits. A reader that does not understand a set
// incompatible flag must refuse to open the file.
const (
	HeaderIncompatibleCompressedXZ   uint32 = 1 << 0
	HeaderIncompatibleCompressedLZ4  uint32 = 1 << 1
	HeaderIncompatibleKeyedHash      uint32 = 1 << 2
	HeaderIncompatibleCompressedZstd uint32 = 1 << 3
	HeaderIncompatibleCompact        uint32 = 1 << 4
)

// supportedIncompatibleFlags is the set this engine knows how to open.
const supportedIncompatibleFlags = HeaderIncompatibleCompressedXZ |
	HeaderIncompatibleCompressedLZ4 |
	HeaderIncompatibleKeyedHash |
	HeaderIncompatibleCompressedZstd |
	HeaderIncompatibleCompact

// State byte values.
const (
	StateOffline  uint8 = 0
	StateOnline   uint8 = 1
	StateArchived uint8 = 2
)

// Header mirrors the on-disk 208-byte region. Field order matches byte
// order exactly; do not reorder without updating the byte offsets below.
type Header struct {
	CompatibleFlags      uint32
	IncompatibleFlags    uint32
	State                uint8
	FileID               [16]byte
	MachineID            [16]byte
	TailEntryBootID      [16]byte
	SeqnumID             [16]byte
	HeaderSizeField      uint64
	ArenaSize            uint64
	DataHashTableOffset  uint64
	DataHashTableSize    uint64
	FieldHashTableOffset uint64
	FieldHashTableSize   uint64
	TailObjectOffset     uint64
	NObjects             uint64
	NEntries             uint64
	TailEntrySeqnum      uint64
	HeadEntrySeqnum      uint64
	EntryArrayOffset     uint64
	HeadEntryRealtime    uint64
	TailEntryRealtime    uint64
	TailEntryMonotonic   uint64
}

// byte offsets within the 208-byte header.
const (
	offSignature       = 0
	offCompatFlags     = 8
	offIncompatFlags   = 12
	offState           = 16
	offFileID          = 24
	offMachineID       = 40
	offTailBootID      = 56
	offSeqnumID        = 72
	offHeaderSize      = 88
	offArenaSize       = 96
	offDataHTOffset    = 104
	offDataHTSize      = 112
	offFieldHTOffset   = 120
	offFieldHTSize     = 128
	offTailObject      = 136
	offNObjects        = 144
	offNEntries        = 152
	offTailEntrySeqnum = 160
	offHeadEntrySeqnum = 168
	offEntryArray      = 176
	offHeadEntryRT     = 184
	offTailEntryRT     = 192
	offTailEntryMono   = 200
)

// decodeHeader parses the fixed header region and validates the
// signature and incompatible flags.
func decodeHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: short header", ErrZerocopy)
	}
	var sig [8]byte
	copy(sig[:], buf[offSignature:offSignature+8])
	if sig != Signature {
		return nil, ErrBadMagic
	}

	h := &Header{
		CompatibleFlags:      binary.LittleEndian.Uint32(buf[offCompatFlags:]),
		IncompatibleFlags:    binary.LittleEndian.Uint32(buf[offIncompatFlags:]),
		State:                buf[offState],
		HeaderSizeField:      binary.LittleEndian.Uint64(buf[offHeaderSize:]),
		ArenaSize:            binary.LittleEndian.Uint64(buf[offArenaSize:]),
		DataHashTableOffset:  binary.LittleEndian.Uint64(buf[offDataHTOffset:]),
		DataHashTableSize:    binary.LittleEndian.Uint64(buf[offDataHTSize:]),
		FieldHashTableOffset: binary.LittleEndian.Uint64(buf[offFieldHTOffset:]),
		FieldHashTableSize:   binary.LittleEndian.Uint64(buf[offFieldHTSize:]),
		TailObjectOffset:     binary.LittleEndian.Uint64(buf[offTailObject:]),
		NObjects:             binary.LittleEndian.Uint64(buf[offNObjects:]),
		NEntries:             binary.LittleEndian.Uint64(buf[offNEntries:]),
		TailEntrySeqnum:      binary.LittleEndian.Uint64(buf[offTailEntrySeqnum:]),
		HeadEntrySeqnum:      binary.LittleEndian.Uint64(buf[offHeadEntrySeqnum:]),
		EntryArrayOffset:     binary.LittleEndian.Uint64(buf[offEntryArray:]),
		HeadEntryRealtime:    binary.LittleEndian.Uint64(buf[offHeadEntryRT:]),
		TailEntryRealtime:    binary.LittleEndian.Uint64(buf[offTailEntryRT:]),
		TailEntryMonotonic:   binary.LittleEndian.Uint64(buf[offTailEntryMono:]),
	}
	copy(h.FileID[:], buf[offFileID:offFileID+16])
	copy(h.MachineID[:], buf[offMachineID:offMachineID+16])
	copy(h.TailEntryBootID[:], buf[offTailBootID:offTailBootID+16])
	copy(h.SeqnumID[:], buf[offSeqnumID:offSeqnumID+16])

	if h.IncompatibleFlags&^supportedIncompatibleFlags != 0 {
		return nil, fmt.Errorf("%w: 0x%x", ErrUnsupportedFlag, h.IncompatibleFlags&^supportedIncompatibleFlags)
	}
	return h, nil
}

// encode serialises the header to exactly HeaderSize bytes.
func (h *Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[offSignature:], Signature[:])
	binary.LittleEndian.PutUint32(buf[offCompatFlags:], h.CompatibleFlags)
	binary.LittleEndian.PutUint32(buf[offIncompatFlags:], h.IncompatibleFlags)
	buf[offState] = h.State
	copy(buf[offFileID:], h.FileID[:])
	copy(buf[offMachineID:], h.MachineID[:])
	copy(buf[offTailBootID:], h.TailEntryBootID[:])
	copy(buf[offSeqnumID:], h.SeqnumID[:])
	binary.LittleEndian.PutUint64(buf[offHeaderSize:], h.HeaderSizeField)
	binary.LittleEndian.PutUint64(buf[offArenaSize:], h.ArenaSize)
	binary.LittleEndian.PutUint64(buf[offDataHTOffset:], h.DataHashTableOffset)
	binary.LittleEndian.PutUint64(buf[offDataHTSize:], h.DataHashTableSize)
	binary.LittleEndian.PutUint64(buf[offFieldHTOffset:], h.FieldHashTableOffset)
	binary.LittleEndian.PutUint64(buf[offFieldHTSize:], h.FieldHashTableSize)
	binary.LittleEndian.PutUint64(buf[offTailObject:], h.TailObjectOffset)
	binary.LittleEndian.PutUint64(buf[offNObjects:], h.NObjects)
	binary.LittleEndian.PutUint64(buf[offNEntries:], h.NEntries)
	binary.LittleEndian.PutUint64(buf[offTailEntrySeqnum:], h.TailEntrySeqnum)
	binary.LittleEndian.PutUint64(buf[offHeadEntrySeqnum:], h.HeadEntrySeqnum)
	binary.LittleEndian.PutUint64(buf[offEntryArray:], h.EntryArrayOffset)
	binary.LittleEndian.PutUint64(buf[offHeadEntryRT:], h.HeadEntryRealtime)
	binary.LittleEndian.PutUint64(buf[offTailEntryRT:], h.TailEntryRealtime)
	binary.LittleEndian.PutUint64(buf[offTailEntryMono:], h.TailEntryMonotonic)
	return buf
}

// Compact reports whether the file uses 32-bit (compact) offsets in the
// three compact/regular branch points: entry-array nodes, entry items,
// and per-data entry-array nodes.
func (h *Header) Compact() bool {
	return h.IncompatibleFlags&HeaderIncompatibleCompact != 0
}

// KeyedHash reports whether the file uses keyed SipHash-1-3 (file-ID
// salted) instead of unkeyed Jenkins lookup3 for its hash index.
func (h *Header) KeyedHash() bool {
	return h.IncompatibleFlags&HeaderIncompatibleKeyedHash != 0
}

// writeState pokes the single state byte at its fixed offset directly,
// instead of re-encoding and rewriting the whole header, for the
// State-only transitions Attach/Detach/Close make on every call.
func writeState(f *os.File, state uint8) error {
	_, err := f.WriteAt([]byte{state}, offState)
	return err
}

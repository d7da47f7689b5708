// File header codec and validation: B1, B2, and round-trip fidelity.
package journal

import (
	"errors"
	"testing"
)

func validHeaderBuf(t *testing.T) []byte {
	t.Helper()
	h := &Header{
		CompatibleFlags:      HeaderCompatibleSealed,
		IncompatibleFlags:    HeaderIncompatibleCompact,
		State:                StateOnline,
		HeaderSizeField:      HeaderSize,
		ArenaSize:            128,
		DataHashTableOffset:  HeaderSize,
		DataHashTableSize:    HashTableItemSize * 4096,
		FieldHashTableOffset: HeaderSize + HashTableItemSize*4096,
		FieldHashTableSize:   HashTableItemSize * 512,
		TailObjectOffset:     4096,
		NObjects:             7,
		NEntries:             3,
		TailEntrySeqnum:      3,
		HeadEntrySeqnum:      1,
		EntryArrayOffset:     4096,
		HeadEntryRealtime:    1000,
		TailEntryRealtime:    3000,
		TailEntryMonotonic:   3000,
	}
	for i := range h.FileID {
		h.FileID[i] = byte(i)
	}
	for i := range h.MachineID {
		h.MachineID[i] = byte(i + 1)
	}
	for i := range h.SeqnumID {
		h.SeqnumID[i] = byte(i + 2)
	}
	return h.encode()
}

// TestDecodeHeaderRejectsBadMagic covers B1: a file whose first 8 bytes
// are not the expected signature must be refused outright, before any
// other field is trusted.
func TestDecodeHeaderRejectsBadMagic(t *testing.T) {
	buf := validHeaderBuf(t)
	copy(buf[offSignature:], []byte("NOTVALID"))
	if _, err := decodeHeader(buf); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("decodeHeader(bad magic) = %v, want ErrBadMagic", err)
	}
}

// TestDecodeHeaderRejectsUnsupportedIncompatibleFlag covers B2: an
// incompatible flag bit outside supportedIncompatibleFlags means this
// engine cannot safely interpret the arena, so opening must fail rather
// than silently misreading the file.
func TestDecodeHeaderRejectsUnsupportedIncompatibleFlag(t *testing.T) {
	h := &Header{
		IncompatibleFlags:    1 << 30,
		HeaderSizeField:      HeaderSize,
		DataHashTableOffset:  HeaderSize,
		DataHashTableSize:    HashTableItemSize,
		FieldHashTableOffset: HeaderSize + HashTableItemSize,
		FieldHashTableSize:   HashTableItemSize,
	}
	if _, err := decodeHeader(h.encode()); !errors.Is(err, ErrUnsupportedFlag) {
		t.Fatalf("decodeHeader(unknown incompatible flag) = %v, want ErrUnsupportedFlag", err)
	}
}

// TestHeaderEncodeDecodeRoundTrip checks that every field of the 208-byte
// header survives an encode/decode cycle unchanged, since this layout
// must interchange bit-for-bit with the reference format.
func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	want := &Header{
		CompatibleFlags:      HeaderCompatibleSealed,
		IncompatibleFlags:    HeaderIncompatibleCompact | HeaderIncompatibleKeyedHash,
		State:                StateArchived,
		HeaderSizeField:      HeaderSize,
		ArenaSize:            4096,
		DataHashTableOffset:  HeaderSize,
		DataHashTableSize:    HashTableItemSize * 4096,
		FieldHashTableOffset: HeaderSize + HashTableItemSize*4096,
		FieldHashTableSize:   HashTableItemSize * 512,
		TailObjectOffset:     8192,
		NObjects:             42,
		NEntries:             11,
		TailEntrySeqnum:      11,
		HeadEntrySeqnum:      1,
		EntryArrayOffset:     9000,
		HeadEntryRealtime:    500,
		TailEntryRealtime:    9999,
		TailEntryMonotonic:   9999,
	}
	for i := range want.FileID {
		want.FileID[i] = byte(200 + i)
	}
	for i := range want.MachineID {
		want.MachineID[i] = byte(100 + i)
	}
	for i := range want.TailEntryBootID {
		want.TailEntryBootID[i] = byte(50 + i)
	}
	for i := range want.SeqnumID {
		want.SeqnumID[i] = byte(10 + i)
	}

	got, err := decodeHeader(want.encode())
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if *got != *want {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", *got, *want)
	}
	if !got.Compact() {
		t.Error("Compact() = false, want true")
	}
	if !got.KeyedHash() {
		t.Error("KeyedHash() = false, want true")
	}
}

// Hash discipline for the hash index: unkeyed Jenkins lookup3, or, when
// a file opts into HeaderIncompatibleKeyedHash, SipHash-1-3 keyed by the
// file's 128-bit file ID. The choice is stamped in the header and never
// changes for the file's lifetime — mixing disciplines within one file
// would make its hash index internally inconsistent.
//
// github.com/dchest/siphash (used elsewhere in the retrieval pack for
// keyed per-record hashing, e.g. a content-addressed store keying on a
// random salt) was evaluated for the keyed path but only implements the
// fixed SipHash-2-4 rounds with no way to select c=1,d=3, so it is not
// imported here; both disciplines below are hand-ported from their
// public algorithm descriptions, keeping the pack's "16-byte key, two
// uint64 lanes" convention for the keyed case.
package journal

import "encoding/binary"

// hashPayload dispatches to the file's configured discipline.
func hashPayload(h *Header, payload []byte) uint64 {
	if h.KeyedHash() {
		k0 := binary.LittleEndian.Uint64(h.FileID[0:8])
		k1 := binary.LittleEndian.Uint64(h.FileID[8:16])
		return sipHash13(k0, k1, payload)
	}
	return uint64(jenkinsLookup3(payload, 0))
}

// sipHash13 computes SipHash with c=1 compression round and d=3
// finalization rounds, keyed by (k0, k1).
func sipHash13(k0, k1 uint64, data []byte) uint64 {
	v0 := k0 ^ 0x736f6d6570736575
	v1 := k1 ^ 0x646f72616e646f6d
	v2 := k0 ^ 0x6c7967656e657261
	v3 := k1 ^ 0x7465646279746573

	round := func() {
		v0 += v1
		v1 = v1<<13 | v1>>51
		v1 ^= v0
		v0 = v0<<32 | v0>>32
		v2 += v3
		v3 = v3<<16 | v3>>48
		v3 ^= v2
		v0 += v3
		v3 = v3<<21 | v3>>43
		v3 ^= v0
		v2 += v1
		v1 = v1<<17 | v1>>47
		v1 ^= v2
		v2 = v2<<32 | v2>>32
	}

	n := len(data)
	end := n - n%8
	var m uint64

	for i := 0; i < end; i += 8 {
		m = binary.LittleEndian.Uint64(data[i:])
		v3 ^= m
		round() // c = 1
		v0 ^= m
	}

	var last [8]byte
	copy(last[:], data[end:])
	last[7] = byte(n)
	m = binary.LittleEndian.Uint64(last[:])
	v3 ^= m
	round()
	v0 ^= m

	v2 ^= 0xff
	round() // d = 3
	round()
	round()

	return v0 ^ v1 ^ v2 ^ v3
}

// jenkinsLookup3 is Bob Jenkins' 1997 lookup3 one-at-a-time-ish hash,
// the unkeyed discipline reference journal files use by default. Ported
// directly from its canonical public-domain form; initval seeds the
// internal state the way the reference hash table seeds with 0.
func jenkinsLookup3(data []byte, initval uint32) uint32 {
	var a, b, c uint32 = 0xdeadbeef + uint32(len(data)) + initval, 0xdeadbeef + uint32(len(data)) + initval, 0xdeadbeef + uint32(len(data)) + initval

	mix := func() {
		a -= c
		a ^= rot(c, 4)
		c += b
		b -= a
		b ^= rot(a, 6)
		a += c
		c -= b
		c ^= rot(b, 8)
		b += a
		a -= c
		a ^= rot(c, 16)
		c += b
		b -= a
		b ^= rot(a, 19)
		a += c
		c -= b
		c ^= rot(b, 4)
		b += a
	}

	final := func() {
		c ^= b
		c -= rot(b, 14)
		a ^= c
		a -= rot(c, 11)
		b ^= a
		b -= rot(a, 25)
		c ^= b
		c -= rot(b, 16)
		a ^= c
		a -= rot(c, 4)
		b ^= a
		b -= rot(a, 14)
		c ^= b
		c -= rot(b, 24)
	}

	n := len(data)
	for n > 12 {
		a += le32(data[0:])
		b += le32(data[4:])
		c += le32(data[8:])
		mix()
		data = data[12:]
		n -= 12
	}

	// Remaining n < 13 bytes; total length was already folded into
	// a/b/c at initialization, so the tail is just zero-padded to a
	// full 12 bytes and added directly — missing high bytes contribute
	// zero, matching the canonical switch-on-length fallthrough. Empty
	// input returns c unmixed, as the canonical zero-length case does.
	if n == 0 {
		return c
	}
	var tail [12]byte
	copy(tail[:], data)
	a += le32(tail[0:])
	b += le32(tail[4:])
	c += le32(tail[8:])
	final()
	return c
}

func rot(x uint32, k uint) uint32 { return x<<k | x>>(32-k) }
func le32(b []byte) uint32        { return binary.LittleEndian.Uint32(b) }

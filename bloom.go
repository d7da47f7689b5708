// In-memory bloom filter for posting-list negative lookups.
//
// The File Index keeps one bloom filter per file, populated during the
// scan-build pass with every (field, value) key that has a posting list.
// A query whose filter term misses the filter can skip the posting-list
// map lookup and the linked traversal entirely. Sized for ~10k distinct
// keys at 1% false positive rate; rebuilt whenever the index is rebuilt.
package journal

import (
	"hash/fnv"
)

// Bloom filter sizing constants.
const (
	bloomSize = 11982 // bytes, ~96k bits for 10k entries at 1% FP
	bloomK    = 7      // number of hash functions
)

type bloomFilter struct {
	bits []byte
}

// newBloomFilter returns a zeroed bloom filter.
func newBloomFilter() *bloomFilter {
	return &bloomFilter{bits: make([]byte, bloomSize)}
}

// Add inserts a posting-list key (typically "FIELD=value") into the filter.
func (b *bloomFilter) Add(key string) {
	for _, pos := range bloomPositions(key) {
		b.bits[pos/8] |= 1 << (pos % 8)
	}
}

// Contains returns true if the key might have a posting list, false if it
// definitely does not.
func (b *bloomFilter) Contains(key string) bool {
	for _, pos := range bloomPositions(key) {
		if b.bits[pos/8]&(1<<(pos%8)) == 0 {
			return false
		}
	}
	return true
}

// Reset clears all bits, used before a full index rebuild.
func (b *bloomFilter) Reset() {
	clear(b.bits)
}

// bloomPositions returns bloomK bit positions using double hashing
// (FNV-64a + FNV-32a), the same scheme jpl-au-folio used for document IDs.
func bloomPositions(key string) [bloomK]uint {
	h64 := fnv.New64a()
	h64.Write([]byte(key))
	a := h64.Sum64()

	h32 := fnv.New32a()
	h32.Write([]byte(key))
	b := uint(h32.Sum32())

	nbits := uint(bloomSize * 8)
	var pos [bloomK]uint
	for i := range bloomK {
		pos[i] = (uint(a) + uint(i)*b) % nbits
	}
	return pos
}

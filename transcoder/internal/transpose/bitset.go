package transpose

// bitSet is a fixed-size set of element indexes.
type bitSet struct {
	bits []uint64
}

func newBitSet(n int) *bitSet {
	return &bitSet{bits: make([]uint64, (n+63)/64)}
}

func (b *bitSet) set(i int) {
	b.bits[i/64] |= 1 << (uint(i) % 64)
}

func (b *bitSet) has(i int) bool {
	return b.bits[i/64]&(1<<(uint(i)%64)) != 0
}

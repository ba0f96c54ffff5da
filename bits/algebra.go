package bits

import "crypto/rand"

// BitDecompose performs the MSB-first decomposition of an n-bit unsigned
// integer x into an n-length sequence of 0/1 bits.
func BitDecompose(x uint64, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		shift := uint(n - 1 - i)
		out[i] = byte((x >> shift) & 1)
	}
	return out
}

// Convert performs the MSB-first conversion of a BitString into an
// element of Z/M by treating the bits as a base-2 number and reducing
// modulo M = 2^N. Because Lambda > N in general, the higher bits fold
// into the result as modular overflow: this is a PRG-to-ring
// compressor, not a lossless embedding.
func Convert(b *BitString, p Params) uint64 {
	var v uint64
	for i := uint(0); i < b.Len; i++ {
		v = (v << 1) | uint64(b.Bit(i))
		// Once we have accumulated N bits worth of low-order value we are
		// already reduced mod M on every subsequent shift, so a plain
		// uint64 shift-accumulate naturally performs x mod 2^64 and the
		// final Reduce narrows that down to mod 2^N.
	}
	return p.Reduce(v)
}

// RandBit draws a single cryptographically secure random 0/1 bit.
func RandBit() byte {
	buf := make([]byte, 1)
	if _, err := rand.Read(buf); err != nil {
		panic(err.Error())
	}
	return buf[0] & 1
}

// RandBits draws `count` uniform random 0/1 bits from a CSPRNG.
func RandBits(count uint) *BitString {
	b := NewBitString(count)
	buf := make([]byte, (count+7)/8)
	if _, err := rand.Read(buf); err != nil {
		panic(err.Error())
	}
	for i := uint(0); i < count; i++ {
		byteIdx := i / 8
		bitIdx := 7 - (i % 8)
		b.SetBit(i, (buf[byteIdx]>>bitIdx)&1)
	}
	return b
}

// RandomSeed draws a fresh, uniformly random Lambda-bit seed.
func RandomSeed(lambda int) *BitString {
	return RandBits(uint(lambda))
}

// RandUint64 draws a uniformly random element of Z/M, M = 2^N.
func RandUint64(p Params) uint64 {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(err.Error())
	}
	var v uint64
	for _, b := range buf {
		v = (v << 8) | uint64(b)
	}
	return p.Reduce(v)
}

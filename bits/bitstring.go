package bits

import (
	"encoding/binary"
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// BitString is a fixed-length, MSB-first sequence of bits. It packs its
// storage in a bitset.BitSet rather than one byte per bit; Split and
// Concat below reimplement the bit-index math this requires (a reshape
// into rows is a Split into equal widths). Bit index 0 is
// the most significant bit.
type BitString struct {
	set *bitset.BitSet
	Len uint
}

// NewBitString allocates a zeroed BitString of the given length.
func NewBitString(length uint) *BitString {
	return &BitString{set: bitset.New(length), Len: length}
}

// Bit returns bit i (0 = MSB) as 0 or 1.
func (b *BitString) Bit(i uint) byte {
	if b.set.Test(b.Len - 1 - i) {
		return 1
	}
	return 0
}

// SetBit sets bit i (0 = MSB) to v (0 or 1).
func (b *BitString) SetBit(i uint, v byte) {
	if v != 0 {
		b.set.Set(b.Len - 1 - i)
	} else {
		b.set.Clear(b.Len - 1 - i)
	}
}

// FromBytes builds a BitString from a slice holding one 0/1 byte per bit,
// MSB-first — the interop shape used at the spec's boundary (e.g.
// bit_decomposition output) where index-friendly unpacked bits are wanted.
func FromBytes(oneBytePerBit []byte) *BitString {
	b := NewBitString(uint(len(oneBytePerBit)))
	for i, v := range oneBytePerBit {
		b.SetBit(uint(i), v&1)
	}
	return b
}

// FromPackedBytes builds a BitString of the given bit length from a
// standard big-endian packed byte slice (as produced by a hash digest).
func FromPackedBytes(packed []byte, length uint) *BitString {
	b := NewBitString(length)
	for i := uint(0); i < length; i++ {
		byteIdx := i / 8
		bitIdx := 7 - (i % 8)
		if int(byteIdx) >= len(packed) {
			break
		}
		v := (packed[byteIdx] >> bitIdx) & 1
		b.SetBit(i, v)
	}
	return b
}

// Bytes renders the BitString as one 0/1 byte per bit, MSB-first.
func (b *BitString) Bytes() []byte {
	out := make([]byte, b.Len)
	for i := uint(0); i < b.Len; i++ {
		out[i] = b.Bit(i)
	}
	return out
}

// Packed renders the BitString as big-endian packed bytes, zero-padded
// on the right to a byte boundary.
func (b *BitString) Packed() []byte {
	n := (b.Len + 7) / 8
	out := make([]byte, n)
	for i := uint(0); i < b.Len; i++ {
		if b.Bit(i) == 1 {
			byteIdx := i / 8
			bitIdx := 7 - (i % 8)
			out[byteIdx] |= 1 << bitIdx
		}
	}
	return out
}

// Xor returns the bitwise XOR of b with all others; all must share Len.
func (b *BitString) Xor(others ...*BitString) *BitString {
	out := NewBitString(b.Len)
	out.set = b.set.Clone()
	for _, o := range others {
		out.set.InPlaceSymmetricDifference(o.set)
	}
	return out
}

// Split partitions b into consecutive sub-strings of the given widths.
// sum(widths) must equal b.Len.
func Split(b *BitString, widths []uint) []*BitString {
	out := make([]*BitString, len(widths))
	offset := uint(0)
	for i, w := range widths {
		part := NewBitString(w)
		for j := uint(0); j < w; j++ {
			part.SetBit(j, b.Bit(offset+j))
		}
		out[i] = part
		offset += w
	}
	return out
}

// Concat joins bit strings end to end, MSB-first.
func Concat(parts ...*BitString) *BitString {
	total := uint(0)
	for _, p := range parts {
		total += p.Len
	}
	out := NewBitString(total)
	offset := uint(0)
	for _, p := range parts {
		for j := uint(0); j < p.Len; j++ {
			out.SetBit(offset+j, p.Bit(j))
		}
		offset += p.Len
	}
	return out
}

// Equal reports whether two bit strings have the same length and bits.
func (b *BitString) Equal(o *BitString) bool {
	return b.Len == o.Len && b.set.Equal(o.set)
}

// Clone returns an independent copy.
func (b *BitString) Clone() *BitString {
	return &BitString{set: b.set.Clone(), Len: b.Len}
}

// MarshalBinary renders b as a 4-byte big-endian bit length followed by
// its packed bytes. cbor (and anything else respecting
// encoding.BinaryMarshaler) uses this to encode a BitString as a byte
// string on the wire.
func (b *BitString) MarshalBinary() ([]byte, error) {
	out := make([]byte, 4+len(b.Packed()))
	binary.BigEndian.PutUint32(out[:4], uint32(b.Len))
	copy(out[4:], b.Packed())
	return out, nil
}

// UnmarshalBinary is the inverse of MarshalBinary.
func (b *BitString) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("bits: truncated BitString encoding, got %d bytes", len(data))
	}
	length := binary.BigEndian.Uint32(data[:4])
	decoded := FromPackedBytes(data[4:], uint(length))
	b.set = decoded.set
	b.Len = decoded.Len
	return nil
}

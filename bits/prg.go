package bits

import (
	"fmt"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"

	"fsscore/fsserr"
)

// Backend selects the hash construction behind the PRG. SHA3-256 is the
// default construction; the other two serve security parameters or
// batch sizes the fixed 256-bit SHA3 digest cannot.
type Backend int

const (
	// BackendSHA3 reads the leading bits of a single SHA3-256 digest.
	// Safe for output widths up to 256 bits, i.e. Lambda <= ~126.
	BackendSHA3 Backend = iota
	// BackendSHAKE256 reads an arbitrary-length SHAKE-256 stream, lifting
	// the 256-bit ceiling for larger Lambda.
	BackendSHAKE256
	// BackendBLAKE3 uses BLAKE3's extendable-output mode, offered as a
	// faster alternative for large batched keygen (keygen_eq/keygen_comp
	// with a large count).
	BackendBLAKE3
)

const maxSHA3OutputBits = 256

// domain tags, prepended to the seed before hashing so that G and H never
// collide on the same seed even though the underlying hash is shared.
const (
	tagG byte = 0x00
	tagH byte = 0x01
)

// PRG is a length-expanding pseudorandom generator built on a
// cryptographic hash, modelled as a random oracle.
type PRG struct {
	backend Backend
}

// NewPRG constructs a PRG using the given backend.
func NewPRG(backend Backend) *PRG {
	return &PRG{backend: backend}
}

// Expand hashes tag||seed and returns the leading widthBits bits of the
// resulting stream as a BitString. It fails if widthBits exceeds what the
// backend can produce (only possible for BackendSHA3).
func (g *PRG) Expand(tag byte, seed *BitString, widthBits uint) (*BitString, error) {
	seedBytes := seed.Packed()
	input := make([]byte, 0, len(seedBytes)+1)
	input = append(input, tag)
	input = append(input, seedBytes...)

	switch g.backend {
	case BackendSHA3:
		if widthBits > maxSHA3OutputBits {
			return nil, fmt.Errorf("bits: requested %d bits exceeds SHA3-256 capacity of %d: %w", widthBits, maxSHA3OutputBits, fsserr.ErrPRGWidthExceeded)
		}
		digest := sha3.Sum256(input)
		return FromPackedBytes(digest[:], widthBits), nil

	case BackendSHAKE256:
		h := sha3.NewShake256()
		_, _ = h.Write(input)
		out := make([]byte, (widthBits+7)/8)
		if _, err := h.Read(out); err != nil {
			return nil, err
		}
		return FromPackedBytes(out, widthBits), nil

	case BackendBLAKE3:
		h := blake3.New()
		_, _ = h.Write(input)
		digester := h.Digest()
		out := make([]byte, (widthBits+7)/8)
		if _, err := digester.Read(out); err != nil {
			return nil, err
		}
		return FromPackedBytes(out, widthBits), nil

	default:
		return nil, fmt.Errorf("bits: unknown PRG backend %d", g.backend)
	}
}

// G is the DPF expander: Lambda bits in, 2*(Lambda+1) bits out.
func (g *PRG) G(seed *BitString, lambda int) (*BitString, error) {
	return g.Expand(tagG, seed, uint(2*(lambda+1)))
}

// H is the DIF expander: Lambda bits in, 2*(Lambda+2) bits out.
func (g *PRG) H(seed *BitString, lambda int) (*BitString, error) {
	return g.Expand(tagH, seed, uint(2*(lambda+2)))
}

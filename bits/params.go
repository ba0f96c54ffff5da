// Package bits implements the L1 bit-algebra layer: the PRGs G and H, bit
// decomposition, the ring compressor Convert, and the packed bit
// containers correction words and PRG outputs are carried in.
package bits

// Params bundles the two global constants every layer above bits is
// parameterised by: the security parameter Lambda (PRG seed width, bits)
// and the input width N (bits). Both are fixed for the lifetime of a
// session and passed explicitly rather than held in package state, so
// that a process can run several independent FSS sessions side by side.
type Params struct {
	Lambda int
	N      int
}

// DefaultParams matches the reference construction's defaults.
var DefaultParams = Params{Lambda: 110, N: 32}

// Mask returns the bitmask for the ring modulus M = 2^N.
func (p Params) Mask() uint64 {
	if p.N >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(p.N)) - 1
}

// Reduce reduces x modulo M = 2^N.
func (p Params) Reduce(x uint64) uint64 {
	return x & p.Mask()
}

// Negate returns -x mod M.
func (p Params) Negate(x uint64) uint64 {
	return p.Reduce(-x)
}

// LambdaBytes returns ceil(Lambda/8).
func (p Params) LambdaBytes() int {
	return (p.Lambda + 7) / 8
}

// Validate checks that Lambda and N fall within the ranges the spec
// allows (Lambda in [64,256], N in [2,64]).
func (p Params) Validate() error {
	if p.Lambda < 64 || p.Lambda > 256 {
		return errInvalidLambda
	}
	if p.N < 2 || p.N > 64 {
		return errInvalidN
	}
	return nil
}

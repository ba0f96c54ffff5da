// Package eqdpf implements a tree-based Distributed Point Function for
// the equality predicate f_alpha(x) = 1{x = alpha}. The final
// correction word is a plain ring element of Z/2^n rather than a
// group element, matching this package's fixed-width ring arithmetic.
package eqdpf

import (
	"fmt"

	"fsscore/bits"
	"fsscore/fsserr"
)

// Key is one party's share of a DPF keypair.
type Key struct {
	PartyID uint8
	S0      *bits.BitString   // initial lambda-bit seed
	CW      []*bits.BitString // n correction words, each 2*(Lambda+1) bits
	CWn     uint64            // final leaf correction, an element of Z/2^n
}

// EqDPF is a DPF factory parameterised by (lambda, n) and a PRG backend.
type EqDPF struct {
	Params bits.Params
	prg    *bits.PRG
}

// New constructs an EqDPF. It validates Params eagerly, failing fast at
// construction rather than at the first Gen/Eval call.
func New(p bits.Params, backend bits.Backend) (*EqDPF, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if backend == bits.BackendSHA3 && 2*(p.Lambda+1) > 256 {
		return nil, fmt.Errorf("eqdpf: lambda=%d requires a PRG output of %d bits, exceeding SHA3-256 capacity: %w", p.Lambda, 2*(p.Lambda+1), fsserr.ErrPRGWidthExceeded)
	}
	return &EqDPF{Params: p, prg: bits.NewPRG(backend)}, nil
}

// Gen draws a fresh uniform alpha and builds the two key shares such that
// Eval(0,x,k0) + Eval(1,x,k1) == 1{x==alpha} (mod 2^n) for all x.
func (d *EqDPF) Gen() (alpha uint64, k0 *Key, k1 *Key, err error) {
	n := d.Params.N
	lambda := d.Params.Lambda

	alpha = bits.RandUint64(d.Params)
	alphaBits := bits.BitDecompose(alpha, n)

	s := make([][2]*bits.BitString, n+1)
	t := make([][2]byte, n+1)
	cw := make([]*bits.BitString, n)

	s[0][0] = bits.RandomSeed(lambda)
	s[0][1] = bits.RandomSeed(lambda)
	t[0][0], t[0][1] = 0, 1

	for i := 0; i < n; i++ {
		var g [2]*bits.BitString
		var sL, tL, sR, tR [2]*bits.BitString
		for b := 0; b < 2; b++ {
			gb, gerr := d.prg.G(s[i][b], lambda)
			if gerr != nil {
				return 0, nil, nil, gerr
			}
			g[b] = gb
			parts := bits.Split(gb, []uint{uint(lambda), 1, uint(lambda), 1})
			sL[b], tL[b], sR[b], tR[b] = parts[0], parts[1], parts[2], parts[3]
		}

		var sRand *bits.BitString
		if alphaBits[i] == 1 {
			sRand = sL[0].Xor(sL[1])
		} else {
			sRand = sR[0].Xor(sR[1])
		}

		cwi := truthTableDPF(sRand, alphaBits[i], lambda)
		cw[i] = cwi.Xor(g[0], g[1])

		for b := 0; b < 2; b++ {
			tau := g[b].Xor(maskVec(t[i][b], cw[i]))
			rows := bits.Split(tau, []uint{uint(lambda + 1), uint(lambda + 1)})
			row := rows[alphaBits[i]]
			next := bits.Split(row, []uint{uint(lambda), 1})
			s[i+1][b] = next[0]
			t[i+1][b] = next[1].Bit(0)
		}
	}

	s0n := bits.Convert(s[n][0], d.Params)
	s1n := bits.Convert(s[n][1], d.Params)
	cwN := d.Params.Reduce(1 - s0n + s1n)
	if t[n][1] == 1 {
		cwN = d.Params.Negate(cwN)
	}

	k0 = &Key{PartyID: 0, S0: s[0][0], CW: cw, CWn: cwN}
	k1 = &Key{PartyID: 1, S0: s[0][1], CW: cw, CWn: cwN}
	return alpha, k0, k1, nil
}

// Eval evaluates a DPF key at x and returns this party's additive share
// of 1{x == alpha} in Z/2^n.
func (d *EqDPF) Eval(k *Key, x uint64) (uint64, error) {
	n := d.Params.N
	lambda := d.Params.Lambda
	if len(k.CW) != n {
		return 0, fmt.Errorf("eqdpf: key has %d correction words, want %d: %w", len(k.CW), n, fsserr.ErrParamMismatch)
	}

	xBits := bits.BitDecompose(x, n)
	s := k.S0
	t := k.PartyID & 1

	for i := 0; i < n; i++ {
		g, err := d.prg.G(s, lambda)
		if err != nil {
			return 0, err
		}
		tau := g.Xor(maskVec(t, k.CW[i]))
		rows := bits.Split(tau, []uint{uint(lambda + 1), uint(lambda + 1)})
		row := rows[xBits[i]]
		next := bits.Split(row, []uint{uint(lambda), 1})
		s = next[0]
		t = next[1].Bit(0)
	}

	v := bits.Convert(s, d.Params)
	if t == 1 {
		v = d.Params.Reduce(v + k.CWn)
	}
	if k.PartyID == 1 {
		v = d.Params.Negate(v)
	}
	return v, nil
}

// truthTableDPF builds the 2x(Lambda+1) zero table whose row alphaBit
// equals sRand||1, flattened.
func truthTableDPF(sRand *bits.BitString, alphaBit byte, lambda int) *bits.BitString {
	one := bits.FromBytes([]byte{1})
	hot := bits.Concat(sRand, one)
	zero := bits.NewBitString(uint(lambda + 1))
	if alphaBit == 1 {
		return bits.Concat(zero, hot)
	}
	return bits.Concat(hot, zero)
}

// maskVec returns v if t==1, else a same-length zero vector: the "t *
// CW" multiply-by-bit idiom that applies a correction word only on the
// active path.
func maskVec(t byte, v *bits.BitString) *bits.BitString {
	if t == 1 {
		return v
	}
	return bits.NewBitString(v.Len)
}

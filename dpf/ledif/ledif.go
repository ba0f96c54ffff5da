// Package ledif implements a tree-based Distributed Interval Function
// for the comparison predicate f_alpha(x) = 1{x <= alpha}. It shares
// eqdpf's tree-walk shape but uses H instead of G, a wider per-level
// correction word that carries a leaf bit, and an XOR-accumulated (not
// ring-summed) output.
package ledif

import (
	"fmt"

	"fsscore/bits"
	"fsscore/fsserr"
)

// Key is one party's share of a DIF keypair. There is no separate final
// correction element: the leaf bit lives inside every level's CW.
type Key struct {
	PartyID uint8
	S0      *bits.BitString
	CW      []*bits.BitString // n correction words, each 2*(Lambda+2) bits
}

// LeDIF is a DIF factory parameterised by (lambda, n) and a PRG backend.
type LeDIF struct {
	Params bits.Params
	prg    *bits.PRG
}

// New constructs a LeDIF, validating Params eagerly.
func New(p bits.Params, backend bits.Backend) (*LeDIF, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if backend == bits.BackendSHA3 && 2*(p.Lambda+2) > 256 {
		return nil, fmt.Errorf("ledif: lambda=%d requires a PRG output of %d bits, exceeding SHA3-256 capacity: %w", p.Lambda, 2*(p.Lambda+2), fsserr.ErrPRGWidthExceeded)
	}
	return &LeDIF{Params: p, prg: bits.NewPRG(backend)}, nil
}

// Gen draws a fresh uniform alpha (the comparison threshold) and builds
// the two key shares such that Eval(0,x,k0) xor Eval(1,x,k1) == 1{x<=alpha}
// for all x.
func (d *LeDIF) Gen() (alpha uint64, k0 *Key, k1 *Key, err error) {
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
		var h [2]*bits.BitString
		var sL, sR [2]*bits.BitString
		for b := 0; b < 2; b++ {
			hb, herr := d.prg.H(s[i][b], lambda)
			if herr != nil {
				return 0, nil, nil, herr
			}
			h[b] = hb
			// Flat six-field parse used only to recover the raw seed
			// halves for the s_rand correction — distinct from the
			// row-major reshape used below for tree propagation. Both
			// parses read the same H(seed) buffer but slice it
			// differently.
			parts := bits.Split(hb, []uint{1, 1, uint(lambda), 1, uint(lambda), 1})
			sL[b], sR[b] = parts[2], parts[4]
		}

		var sRand *bits.BitString
		if alphaBits[i] == 1 {
			sRand = sL[0].Xor(sL[1])
		} else {
			sRand = sR[0].Xor(sR[1])
		}

		cwi := truthTableDIF(sRand, alphaBits[i], lambda)
		cw[i] = cwi.Xor(h[0], h[1])

		for b := 0; b < 2; b++ {
			tau := h[b].Xor(maskVec(t[i][b], cw[i]))
			rows := bits.Split(tau, []uint{uint(lambda + 2), uint(lambda + 2)})
			row := rows[alphaBits[i]]
			parts := bits.Split(row, []uint{1, uint(lambda), 1})
			s[i+1][b] = parts[1]
			t[i+1][b] = parts[2].Bit(0)
		}
	}

	k0 = &Key{PartyID: 0, S0: s[0][0], CW: cw}
	k1 = &Key{PartyID: 1, S0: s[0][1], CW: cw}
	return alpha, k0, k1, nil
}

// Eval evaluates a DIF key at x and returns this party's XOR share of
// 1{x <= alpha}.
func (d *LeDIF) Eval(k *Key, x uint64) (byte, error) {
	n := d.Params.N
	lambda := d.Params.Lambda
	if len(k.CW) != n {
		return 0, fmt.Errorf("ledif: key has %d correction words, want %d: %w", len(k.CW), n, fsserr.ErrParamMismatch)
	}

	xBits := bits.BitDecompose(x, n)
	s := k.S0
	t := k.PartyID & 1

	var sum byte
	for i := 0; i < n; i++ {
		h, err := d.prg.H(s, lambda)
		if err != nil {
			return 0, err
		}
		tau := h.Xor(maskVec(t, k.CW[i]))
		rows := bits.Split(tau, []uint{uint(lambda + 2), uint(lambda + 2)})
		row := rows[xBits[i]]
		parts := bits.Split(row, []uint{1, uint(lambda), 1})
		sigmaLeaf := parts[0].Bit(0)
		s = parts[1]
		t = parts[2].Bit(0)
		sum ^= sigmaLeaf
	}
	sum ^= t
	return sum & 1, nil
}

// truthTableDIF builds the level-i correction word: a 2x1 leaf table
// (row 1-alphaBit holds the literal alphaBit) concatenated column-wise
// with a 2x(Lambda+1) next-level table (row alphaBit holds sRand||1),
// flattened row-major.
func truthTableDIF(sRand *bits.BitString, alphaBit byte, lambda int) *bits.BitString {
	leafRow := [2]byte{0, 0}
	leafRow[1-alphaBit] = alphaBit

	one := bits.FromBytes([]byte{1})
	hot := bits.Concat(sRand, one)
	zero := bits.NewBitString(uint(lambda + 1))

	var next [2]*bits.BitString
	if alphaBit == 1 {
		next[0], next[1] = zero, hot
	} else {
		next[0], next[1] = hot, zero
	}

	row0 := bits.Concat(bits.FromBytes([]byte{leafRow[0]}), next[0])
	row1 := bits.Concat(bits.FromBytes([]byte{leafRow[1]}), next[1])
	return bits.Concat(row0, row1)
}

// maskVec returns v if t==1, else a same-length zero vector.
func maskVec(t byte, v *bits.BitString) *bits.BitString {
	if t == 1 {
		return v
	}
	return bits.NewBitString(v.Len)
}

// Package batch implements the bulk-keygen layer of the FSS core:
// producing count fresh primitives for each of the three primitive-store
// queues in one call, and serializing them to and from the wire. It is
// the batched counterpart of dpf/eqdpf and dpf/ledif's single-primitive
// Gen, producing independent (alpha, key0, key1) triples per lane.
package batch

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sync/errgroup"

	"fsscore/bits"
	"fsscore/dpf/eqdpf"
	"fsscore/dpf/ledif"
	"fsscore/store"
)

// wireHeader is the (lambda, n) record carried as the first field of
// every serialized batch. Lambda is a uint16 because
// bits.Params.Validate accepts Lambda = 256; N (at most 64) fits a uint8.
type wireHeader struct {
	Lambda uint16 `cbor:"1,keyasint"`
	N      uint8  `cbor:"2,keyasint"`
}

// EqBatch is a CBOR-serializable collection of party-0 and party-1
// equality primitives produced by one dealer call.
type EqBatch struct {
	Params bits.Params
	Party0 []store.EqPrimitive
	Party1 []store.EqPrimitive
}

// wireEqPrimitive is the on-the-wire shape of one EqPrimitive: BitString
// fields round-trip through their MarshalBinary/UnmarshalBinary methods,
// which cbor invokes automatically.
type wireEqPrimitive struct {
	AlphaShare uint64            `cbor:"1,keyasint"`
	S0         *bits.BitString   `cbor:"2,keyasint"`
	CW         []*bits.BitString `cbor:"3,keyasint"`
	CWn        uint64            `cbor:"4,keyasint"`
}

type wireEqBatch struct {
	Header wireHeader        `cbor:"1,keyasint"`
	Party0 []wireEqPrimitive `cbor:"2,keyasint"`
	Party1 []wireEqPrimitive `cbor:"3,keyasint"`
}

// CompBatch is the comparison-primitive analogue of EqBatch.
type CompBatch struct {
	Params bits.Params
	Party0 []store.CompPrimitive
	Party1 []store.CompPrimitive
}

type wireCompPrimitive struct {
	AlphaShare uint64            `cbor:"1,keyasint"`
	S0         *bits.BitString   `cbor:"2,keyasint"`
	CW         []*bits.BitString `cbor:"3,keyasint"`
}

type wireCompBatch struct {
	Header wireHeader          `cbor:"1,keyasint"`
	Party0 []wireCompPrimitive `cbor:"2,keyasint"`
	Party1 []wireCompPrimitive `cbor:"3,keyasint"`
}

// XorAddBatch is the xor-add-couple analogue of EqBatch.
type XorAddBatch struct {
	Params bits.Params
	Party0 []store.XorAddCouple
	Party1 []store.XorAddCouple
}

type wireXorAddBatch struct {
	Header wireHeader            `cbor:"1,keyasint"`
	Party0 []store.XorAddCouple `cbor:"2,keyasint"`
	Party1 []store.XorAddCouple `cbor:"3,keyasint"`
}

// KeygenEq produces count fresh fss_eq primitives, one DPF keypair per
// primitive, in parallel across lanes.
func KeygenEq(p bits.Params, backend bits.Backend, count int) (*EqBatch, error) {
	d, err := eqdpf.New(p, backend)
	if err != nil {
		return nil, err
	}

	party0 := make([]store.EqPrimitive, count)
	party1 := make([]store.EqPrimitive, count)

	var eg errgroup.Group
	for i := 0; i < count; i++ {
		i := i
		eg.Go(func() error {
			alpha, k0, k1, genErr := d.Gen()
			if genErr != nil {
				return genErr
			}
			alphaShare0, alphaShare1, splitErr := splitAdditive(alpha, p)
			if splitErr != nil {
				return splitErr
			}
			party0[i] = store.EqPrimitive{AlphaShare: alphaShare0, S0: k0.S0, CW: k0.CW, CWn: k0.CWn}
			party1[i] = store.EqPrimitive{AlphaShare: alphaShare1, S0: k1.S0, CW: k1.CW, CWn: k1.CWn}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &EqBatch{Params: p, Party0: party0, Party1: party1}, nil
}

// KeygenComp produces count fresh fss_comp primitives, one DIF keypair
// per primitive.
func KeygenComp(p bits.Params, backend bits.Backend, count int) (*CompBatch, error) {
	d, err := ledif.New(p, backend)
	if err != nil {
		return nil, err
	}

	party0 := make([]store.CompPrimitive, count)
	party1 := make([]store.CompPrimitive, count)

	var eg errgroup.Group
	for i := 0; i < count; i++ {
		i := i
		eg.Go(func() error {
			alpha, k0, k1, genErr := d.Gen()
			if genErr != nil {
				return genErr
			}
			alphaShare0, alphaShare1, splitErr := splitAdditive(alpha, p)
			if splitErr != nil {
				return splitErr
			}
			party0[i] = store.CompPrimitive{AlphaShare: alphaShare0, S0: k0.S0, CW: k0.CW}
			party1[i] = store.CompPrimitive{AlphaShare: alphaShare1, S0: k1.S0, CW: k1.CW}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &CompBatch{Params: p, Party0: party0, Party1: party1}, nil
}

// KeygenXorAdd produces count fresh xor_add_couple primitives: a random
// bit mu, shared both as an XOR share pair and as an additive share pair
// of the same bit. These feed the B2A conversion round of le.
func KeygenXorAdd(p bits.Params, count int) (*XorAddBatch, error) {
	party0 := make([]store.XorAddCouple, count)
	party1 := make([]store.XorAddCouple, count)

	for i := 0; i < count; i++ {
		mu := bits.RandBit()

		xorShare0 := bits.RandBit()
		xorShare1 := xorShare0 ^ mu

		addShare0, addShare1, err := splitAdditive(uint64(mu), p)
		if err != nil {
			return nil, err
		}

		party0[i] = store.XorAddCouple{XorShare: xorShare0, AddShare: addShare0}
		party1[i] = store.XorAddCouple{XorShare: xorShare1, AddShare: addShare1}
	}

	return &XorAddBatch{Params: p, Party0: party0, Party1: party1}, nil
}

// splitAdditive draws a uniform additive sharing (s0, s1) of v in Z/2^n
// such that (s0+s1) mod 2^n == v.
func splitAdditive(v uint64, p bits.Params) (uint64, uint64, error) {
	max := new(big.Int).Lsh(big.NewInt(1), uint(p.N))
	r, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0, 0, fmt.Errorf("batch: failed to draw randomness: %w", err)
	}
	s0 := p.Reduce(r.Uint64())
	s1 := p.Reduce(v - s0)
	return s0, s1, nil
}

// Marshal serializes an EqBatch to CBOR, prefixed with the (lambda, n)
// wire header.
func (b *EqBatch) Marshal() ([]byte, error) {
	w := wireEqBatch{
		Header: wireHeader{Lambda: uint16(b.Params.Lambda), N: uint8(b.Params.N)},
		Party0: toWireEq(b.Party0),
		Party1: toWireEq(b.Party1),
	}
	return cbor.Marshal(w)
}

// UnmarshalEqBatch is the inverse of (*EqBatch).Marshal.
func UnmarshalEqBatch(data []byte) (*EqBatch, error) {
	var w wireEqBatch
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	p := bits.Params{Lambda: int(w.Header.Lambda), N: int(w.Header.N)}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &EqBatch{Params: p, Party0: fromWireEq(w.Party0), Party1: fromWireEq(w.Party1)}, nil
}

func toWireEq(ps []store.EqPrimitive) []wireEqPrimitive {
	out := make([]wireEqPrimitive, len(ps))
	for i, p := range ps {
		out[i] = wireEqPrimitive{AlphaShare: p.AlphaShare, S0: p.S0, CW: p.CW, CWn: p.CWn}
	}
	return out
}

func fromWireEq(ws []wireEqPrimitive) []store.EqPrimitive {
	out := make([]store.EqPrimitive, len(ws))
	for i, w := range ws {
		out[i] = store.EqPrimitive{AlphaShare: w.AlphaShare, S0: w.S0, CW: w.CW, CWn: w.CWn}
	}
	return out
}

// Marshal serializes a CompBatch to CBOR, prefixed with the (lambda, n)
// wire header.
func (b *CompBatch) Marshal() ([]byte, error) {
	w := wireCompBatch{
		Header: wireHeader{Lambda: uint16(b.Params.Lambda), N: uint8(b.Params.N)},
		Party0: toWireComp(b.Party0),
		Party1: toWireComp(b.Party1),
	}
	return cbor.Marshal(w)
}

// UnmarshalCompBatch is the inverse of (*CompBatch).Marshal.
func UnmarshalCompBatch(data []byte) (*CompBatch, error) {
	var w wireCompBatch
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	p := bits.Params{Lambda: int(w.Header.Lambda), N: int(w.Header.N)}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &CompBatch{Params: p, Party0: fromWireComp(w.Party0), Party1: fromWireComp(w.Party1)}, nil
}

func toWireComp(ps []store.CompPrimitive) []wireCompPrimitive {
	out := make([]wireCompPrimitive, len(ps))
	for i, p := range ps {
		out[i] = wireCompPrimitive{AlphaShare: p.AlphaShare, S0: p.S0, CW: p.CW}
	}
	return out
}

func fromWireComp(ws []wireCompPrimitive) []store.CompPrimitive {
	out := make([]store.CompPrimitive, len(ws))
	for i, w := range ws {
		out[i] = store.CompPrimitive{AlphaShare: w.AlphaShare, S0: w.S0, CW: w.CW}
	}
	return out
}

// Marshal serializes an XorAddBatch to CBOR, prefixed with the
// (lambda, n) wire header.
func (b *XorAddBatch) Marshal() ([]byte, error) {
	w := wireXorAddBatch{
		Header: wireHeader{Lambda: uint16(b.Params.Lambda), N: uint8(b.Params.N)},
		Party0: b.Party0,
		Party1: b.Party1,
	}
	return cbor.Marshal(w)
}

// UnmarshalXorAddBatch is the inverse of (*XorAddBatch).Marshal.
func UnmarshalXorAddBatch(data []byte) (*XorAddBatch, error) {
	var w wireXorAddBatch
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	p := bits.Params{Lambda: int(w.Header.Lambda), N: int(w.Header.N)}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &XorAddBatch{Params: p, Party0: w.Party0, Party1: w.Party1}, nil
}

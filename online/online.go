// Package online implements the two-round (plus one conditional round)
// protocol that stitches DPF/DIF evaluation to the primitive store,
// turning additive shares of x and y into an additive share of
// 1{x=y} (eq) or 1{x<=y} (le). Each round of the protocol — mask
// build, key evaluation, and the boolean-to-arithmetic conversion for
// le — is its own function below.
package online

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"fsscore/bits"
	"fsscore/dpf/eqdpf"
	"fsscore/dpf/ledif"
	"fsscore/fsserr"
	"fsscore/store"
)

// PartyShare is a value in Z/M additively shared between party 0 and
// party 1.
type PartyShare struct {
	P0 uint64
	P1 uint64
}

// Recover reconstructs the shared value.
func (s PartyShare) Recover(p bits.Params) uint64 {
	return p.Reduce(s.P0 + s.P1)
}

// Online is the orchestrator: it holds the DPF/DIF factories needed to
// evaluate keys popped from the primitive store, parameterised by the
// same (lambda, n) the stores' keys were dealt under.
type Online struct {
	Params bits.Params
	dpf    *eqdpf.EqDPF
	dif    *ledif.LeDIF
}

// New constructs an Online orchestrator.
func New(p bits.Params, backend bits.Backend) (*Online, error) {
	d, err := eqdpf.New(p, backend)
	if err != nil {
		return nil, err
	}
	f, err := ledif.New(p, backend)
	if err != nil {
		return nil, err
	}
	return &Online{Params: p, dpf: d, dif: f}, nil
}

// maskBuildEq is round 1 for eq: peek the head fss_eq primitive (without
// consuming it) and return this party's masked-difference share.
func (o *Online) maskBuildEq(s *store.Store, x, y uint64) (uint64, error) {
	prim, err := s.PeekEq()
	if err != nil {
		return 0, err
	}
	return o.Params.Reduce(x - y + prim.AlphaShare), nil
}

// maskBuildComp is round 1 for le.
func (o *Online) maskBuildComp(s *store.Store, x, y uint64) (uint64, error) {
	prim, err := s.PeekComp()
	if err != nil {
		return 0, err
	}
	return o.Params.Reduce(x - y + prim.AlphaShare), nil
}

// evalEq is round 2 for eq: pop the fss_eq primitive the mask build round
// peeked, and evaluate the DPF at the reconstructed mask.
func (o *Online) evalEq(s *store.Store, partyID uint8, m uint64) (uint64, error) {
	prim, err := s.PopEq()
	if err != nil {
		return 0, err
	}
	k := &eqdpf.Key{PartyID: partyID, S0: prim.S0, CW: prim.CW, CWn: prim.CWn}
	return o.dpf.Eval(k, m)
}

// evalComp is round 2 for le.
func (o *Online) evalComp(s *store.Store, partyID uint8, m uint64) (byte, error) {
	prim, err := s.PopComp()
	if err != nil {
		return 0, err
	}
	k := &ledif.Key{PartyID: partyID, S0: prim.S0, CW: prim.CW}
	return o.dif.Eval(k, m)
}

// b2a is round 3, le only: pop one xor-add couple and return this
// party's masked-bit contribution plus the couple's additive share.
func (o *Online) b2a(s *store.Store, bShare byte) (xorMasked byte, addShare uint64, err error) {
	prim, err := s.PopXorAdd()
	if err != nil {
		return 0, 0, err
	}
	return bShare ^ prim.XorShare, prim.AddShare, nil
}

// b2aConvert is the rest of round 3 step 3: add_share*(1-2*mu) +
// party_id*mu, computed over Z/M via the ring negation trick.
func (o *Online) b2aConvert(partyID uint8, addShare uint64, mu byte) uint64 {
	if mu == 0 {
		return addShare
	}
	share := o.Params.Reduce(o.Params.Negate(addShare))
	if partyID == 1 {
		share = o.Params.Reduce(share + 1)
	}
	return share
}

// Eq runs the full eq protocol for one pair of additively shared scalars
// x, y: mask build against both parties' fss_eq queues, reconstruct the
// mask, then evaluate each party's DPF key at it.
func (o *Online) Eq(store0, store1 *store.Store, x, y PartyShare) (PartyShare, error) {
	m0, err := o.maskBuildEq(store0, x.P0, y.P0)
	if err != nil {
		return PartyShare{}, err
	}
	m1, err := o.maskBuildEq(store1, x.P1, y.P1)
	if err != nil {
		return PartyShare{}, err
	}
	m := o.Params.Reduce(m0 + m1)

	r0, err := o.evalEq(store0, 0, m)
	if err != nil {
		return PartyShare{}, err
	}
	r1, err := o.evalEq(store1, 1, m)
	if err != nil {
		return PartyShare{}, err
	}
	return PartyShare{P0: r0, P1: r1}, nil
}

// Le runs the full le protocol: mask build and DIF evaluation as in Eq,
// followed by the B2A conversion round that turns the XOR share of
// 1{x<=y} into an arithmetic one.
func (o *Online) Le(store0, store1 *store.Store, x, y PartyShare) (PartyShare, error) {
	m0, err := o.maskBuildComp(store0, x.P0, y.P0)
	if err != nil {
		return PartyShare{}, err
	}
	m1, err := o.maskBuildComp(store1, x.P1, y.P1)
	if err != nil {
		return PartyShare{}, err
	}
	m := o.Params.Reduce(m0 + m1)

	// Round 3 needs one xor-add couple per party; check before round 2
	// pops anything so an empty queue leaves every queue unchanged.
	if store0.LenXorAdd() == 0 || store1.LenXorAdd() == 0 {
		return PartyShare{}, fsserr.ErrEmptyStore
	}

	b0, err := o.evalComp(store0, 0, m)
	if err != nil {
		return PartyShare{}, err
	}
	b1, err := o.evalComp(store1, 1, m)
	if err != nil {
		return PartyShare{}, err
	}

	masked0, addShare0, err := o.b2a(store0, b0)
	if err != nil {
		return PartyShare{}, err
	}
	masked1, addShare1, err := o.b2a(store1, b1)
	if err != nil {
		return PartyShare{}, err
	}
	mu := masked0 ^ masked1

	r0 := o.b2aConvert(0, addShare0, mu)
	r1 := o.b2aConvert(1, addShare1, mu)
	return PartyShare{P0: r0, P1: r1}, nil
}

// EqBatch runs eq across every lane of x and y. The queue interaction
// (peek then pop of exactly len(x) primitives per party) happens up
// front in FIFO order so that lane i always pairs store0's i-th queued
// primitive with store1's i-th — only the CPU-bound DPF evaluation,
// which touches no shared state, is then parallelized across lanes.
// len(x) must equal len(y).
func (o *Online) EqBatch(store0, store1 *store.Store, x, y []PartyShare) ([]PartyShare, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("online: eq batch shape mismatch, len(x)=%d len(y)=%d: %w", len(x), len(y), fsserr.ErrShapeMismatch)
	}
	count := len(x)

	prims0, err := store0.PeekManyEq(count)
	if err != nil {
		return nil, err
	}
	prims1, err := store1.PeekManyEq(count)
	if err != nil {
		return nil, err
	}

	m := make([]uint64, count)
	for i := range x {
		m0 := o.Params.Reduce(x[i].P0 - y[i].P0 + prims0[i].AlphaShare)
		m1 := o.Params.Reduce(x[i].P1 - y[i].P1 + prims1[i].AlphaShare)
		m[i] = o.Params.Reduce(m0 + m1)
	}

	poppedDom0, err := store0.PopManyEq(count)
	if err != nil {
		return nil, err
	}
	poppedDom1, err := store1.PopManyEq(count)
	if err != nil {
		return nil, err
	}

	out := make([]PartyShare, count)
	var eg errgroup.Group
	for i := range x {
		i := i
		eg.Go(func() error {
			k0 := &eqdpf.Key{PartyID: 0, S0: poppedDom0[i].S0, CW: poppedDom0[i].CW, CWn: poppedDom0[i].CWn}
			k1 := &eqdpf.Key{PartyID: 1, S0: poppedDom1[i].S0, CW: poppedDom1[i].CW, CWn: poppedDom1[i].CWn}
			r0, err := o.dpf.Eval(k0, m[i])
			if err != nil {
				return err
			}
			r1, err := o.dpf.Eval(k1, m[i])
			if err != nil {
				return err
			}
			out[i] = PartyShare{P0: r0, P1: r1}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LeBatch runs le across every lane of x and y, following the same
// up-front batch dequeue discipline as EqBatch, plus a batched B2A
// conversion round using count xor-add couples per party.
func (o *Online) LeBatch(store0, store1 *store.Store, x, y []PartyShare) ([]PartyShare, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("online: le batch shape mismatch, len(x)=%d len(y)=%d: %w", len(x), len(y), fsserr.ErrShapeMismatch)
	}
	count := len(x)

	prims0, err := store0.PeekManyComp(count)
	if err != nil {
		return nil, err
	}
	prims1, err := store1.PeekManyComp(count)
	if err != nil {
		return nil, err
	}

	m := make([]uint64, count)
	for i := range x {
		m0 := o.Params.Reduce(x[i].P0 - y[i].P0 + prims0[i].AlphaShare)
		m1 := o.Params.Reduce(x[i].P1 - y[i].P1 + prims1[i].AlphaShare)
		m[i] = o.Params.Reduce(m0 + m1)
	}

	if store0.LenXorAdd() < count || store1.LenXorAdd() < count {
		return nil, fsserr.ErrEmptyStore
	}

	popped0, err := store0.PopManyComp(count)
	if err != nil {
		return nil, err
	}
	popped1, err := store1.PopManyComp(count)
	if err != nil {
		return nil, err
	}

	b0 := make([]byte, count)
	b1 := make([]byte, count)
	var eg errgroup.Group
	for i := range x {
		i := i
		eg.Go(func() error {
			k0 := &ledif.Key{PartyID: 0, S0: popped0[i].S0, CW: popped0[i].CW}
			k1 := &ledif.Key{PartyID: 1, S0: popped1[i].S0, CW: popped1[i].CW}
			var err error
			b0[i], err = o.dif.Eval(k0, m[i])
			if err != nil {
				return err
			}
			b1[i], err = o.dif.Eval(k1, m[i])
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	couples0, err := store0.PopManyXorAdd(count)
	if err != nil {
		return nil, err
	}
	couples1, err := store1.PopManyXorAdd(count)
	if err != nil {
		return nil, err
	}

	out := make([]PartyShare, count)
	for i := range x {
		mu := (b0[i] ^ couples0[i].XorShare) ^ (b1[i] ^ couples1[i].XorShare)
		r0 := o.b2aConvert(0, couples0[i].AddShare, mu)
		r1 := o.b2aConvert(1, couples1[i].AddShare, mu)
		out[i] = PartyShare{P0: r0, P1: r1}
	}
	return out, nil
}

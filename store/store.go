// Package store implements a per-party primitive store exposing three
// FIFO queues. Mask build peeks a primitive without consuming it; eval
// pops it. Both parties must dequeue in lock-step — the i-th pop on
// party 0 corresponds to the i-th pop on party 1, since they are two
// halves of the same dealer-produced key pair.
package store

import (
	"sync"

	"fsscore/bits"
	"fsscore/fsserr"
)

// EqPrimitive is one party's share of a pre-generated equality (DPF)
// tuple: an additive share of alpha plus the DPF key itself.
type EqPrimitive struct {
	AlphaShare uint64
	S0         *bits.BitString
	CW         []*bits.BitString
	CWn        uint64
}

// CompPrimitive is one party's share of a pre-generated comparison (DIF)
// tuple. There is no CWn: the leaf bit lives inside every CW.
type CompPrimitive struct {
	AlphaShare uint64
	S0         *bits.BitString
	CW         []*bits.BitString
}

// XorAddCouple is one correlated (xor-share, additive-share) pair of the
// same random bit, consumed during the B2A conversion round of le.
type XorAddCouple struct {
	XorShare byte
	AddShare uint64
}

// Store is a single party's primitive store. Each of the three queues is
// guarded by its own mutex; the queues are otherwise independent.
type Store struct {
	eqMu sync.Mutex
	eq   []EqPrimitive

	compMu sync.Mutex
	comp   []CompPrimitive

	xorAddMu sync.Mutex
	xorAdd   []XorAddCouple
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// PushEq appends a freshly dealt equality primitive to the fss_eq queue.
func (s *Store) PushEq(p EqPrimitive) {
	s.eqMu.Lock()
	defer s.eqMu.Unlock()
	s.eq = append(s.eq, p)
}

// PeekEq returns the head of fss_eq without consuming it.
func (s *Store) PeekEq() (EqPrimitive, error) {
	s.eqMu.Lock()
	defer s.eqMu.Unlock()
	if len(s.eq) == 0 {
		return EqPrimitive{}, fsserr.ErrEmptyStore
	}
	return s.eq[0], nil
}

// PopEq removes and returns the head of fss_eq.
func (s *Store) PopEq() (EqPrimitive, error) {
	s.eqMu.Lock()
	defer s.eqMu.Unlock()
	if len(s.eq) == 0 {
		return EqPrimitive{}, fsserr.ErrEmptyStore
	}
	p := s.eq[0]
	s.eq = s.eq[1:]
	return p, nil
}

// LenEq reports the number of primitives remaining in fss_eq.
func (s *Store) LenEq() int {
	s.eqMu.Lock()
	defer s.eqMu.Unlock()
	return len(s.eq)
}

// PeekManyEq returns the first count primitives of fss_eq without
// consuming them, atomically with respect to other fss_eq callers. A
// batched eq operation uses this (rather than count individual PeekEq
// calls) so that lane i always lines up with the i-th queued primitive
// on both parties, even when lanes are evaluated concurrently.
func (s *Store) PeekManyEq(count int) ([]EqPrimitive, error) {
	s.eqMu.Lock()
	defer s.eqMu.Unlock()
	if len(s.eq) < count {
		return nil, fsserr.ErrEmptyStore
	}
	out := make([]EqPrimitive, count)
	copy(out, s.eq[:count])
	return out, nil
}

// PopManyEq removes and returns the first count primitives of fss_eq.
func (s *Store) PopManyEq(count int) ([]EqPrimitive, error) {
	s.eqMu.Lock()
	defer s.eqMu.Unlock()
	if len(s.eq) < count {
		return nil, fsserr.ErrEmptyStore
	}
	out := make([]EqPrimitive, count)
	copy(out, s.eq[:count])
	s.eq = s.eq[count:]
	return out, nil
}

// PushComp appends a freshly dealt comparison primitive to the fss_comp
// queue.
func (s *Store) PushComp(p CompPrimitive) {
	s.compMu.Lock()
	defer s.compMu.Unlock()
	s.comp = append(s.comp, p)
}

// PeekComp returns the head of fss_comp without consuming it.
func (s *Store) PeekComp() (CompPrimitive, error) {
	s.compMu.Lock()
	defer s.compMu.Unlock()
	if len(s.comp) == 0 {
		return CompPrimitive{}, fsserr.ErrEmptyStore
	}
	return s.comp[0], nil
}

// PopComp removes and returns the head of fss_comp.
func (s *Store) PopComp() (CompPrimitive, error) {
	s.compMu.Lock()
	defer s.compMu.Unlock()
	if len(s.comp) == 0 {
		return CompPrimitive{}, fsserr.ErrEmptyStore
	}
	p := s.comp[0]
	s.comp = s.comp[1:]
	return p, nil
}

// LenComp reports the number of primitives remaining in fss_comp.
func (s *Store) LenComp() int {
	s.compMu.Lock()
	defer s.compMu.Unlock()
	return len(s.comp)
}

// PeekManyComp returns the first count primitives of fss_comp without
// consuming them, atomically with respect to other fss_comp callers.
func (s *Store) PeekManyComp(count int) ([]CompPrimitive, error) {
	s.compMu.Lock()
	defer s.compMu.Unlock()
	if len(s.comp) < count {
		return nil, fsserr.ErrEmptyStore
	}
	out := make([]CompPrimitive, count)
	copy(out, s.comp[:count])
	return out, nil
}

// PopManyComp removes and returns the first count primitives of
// fss_comp.
func (s *Store) PopManyComp(count int) ([]CompPrimitive, error) {
	s.compMu.Lock()
	defer s.compMu.Unlock()
	if len(s.comp) < count {
		return nil, fsserr.ErrEmptyStore
	}
	out := make([]CompPrimitive, count)
	copy(out, s.comp[:count])
	s.comp = s.comp[count:]
	return out, nil
}

// PushXorAdd appends a freshly dealt xor-add couple to the
// xor_add_couple queue.
func (s *Store) PushXorAdd(c XorAddCouple) {
	s.xorAddMu.Lock()
	defer s.xorAddMu.Unlock()
	s.xorAdd = append(s.xorAdd, c)
}

// PopXorAdd removes and returns the head of xor_add_couple. Unlike the
// DPF/DIF queues, xor-add couples are always consumed by pop, never
// peeked — they are single-use correction material for one B2A
// conversion, not shared across mask-build and eval rounds.
func (s *Store) PopXorAdd() (XorAddCouple, error) {
	s.xorAddMu.Lock()
	defer s.xorAddMu.Unlock()
	if len(s.xorAdd) == 0 {
		return XorAddCouple{}, fsserr.ErrEmptyStore
	}
	c := s.xorAdd[0]
	s.xorAdd = s.xorAdd[1:]
	return c, nil
}

// LenXorAdd reports the number of couples remaining in xor_add_couple.
func (s *Store) LenXorAdd() int {
	s.xorAddMu.Lock()
	defer s.xorAddMu.Unlock()
	return len(s.xorAdd)
}

// PopManyXorAdd removes and returns the first count couples of
// xor_add_couple.
func (s *Store) PopManyXorAdd(count int) ([]XorAddCouple, error) {
	s.xorAddMu.Lock()
	defer s.xorAddMu.Unlock()
	if len(s.xorAdd) < count {
		return nil, fsserr.ErrEmptyStore
	}
	out := make([]XorAddCouple, count)
	copy(out, s.xorAdd[:count])
	s.xorAdd = s.xorAdd[count:]
	return out, nil
}

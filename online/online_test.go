package online_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsscore/batch"
	"fsscore/bits"
	"fsscore/fsserr"
	"fsscore/online"
	"fsscore/store"
)

// fixture builds an Online orchestrator plus a pair of per-party stores
// pre-loaded with count primitives of every kind.
func fixture(t *testing.T, p bits.Params, count int) (*online.Online, *store.Store, *store.Store) {
	t.Helper()
	o, err := online.New(p, bits.BackendSHA3)
	require.NoError(t, err)

	s0, s1 := store.New(), store.New()

	eqB, err := batch.KeygenEq(p, bits.BackendSHA3, count)
	require.NoError(t, err)
	compB, err := batch.KeygenComp(p, bits.BackendSHA3, count)
	require.NoError(t, err)
	xorAddB, err := batch.KeygenXorAdd(p, count)
	require.NoError(t, err)

	for i := 0; i < count; i++ {
		s0.PushEq(eqB.Party0[i])
		s1.PushEq(eqB.Party1[i])
		s0.PushComp(compB.Party0[i])
		s1.PushComp(compB.Party1[i])
		s0.PushXorAdd(xorAddB.Party0[i])
		s1.PushXorAdd(xorAddB.Party1[i])
	}
	return o, s0, s1
}

// splitShare draws a uniform additive sharing of v.
func splitShare(t *testing.T, v uint64, p bits.Params) online.PartyShare {
	t.Helper()
	s0 := bits.RandUint64(p)
	s1 := p.Reduce(v - s0)
	return online.PartyShare{P0: s0, P1: s1}
}

// eq soundness: matching shares recover 1, mismatching shares recover 0.
func TestEqSoundness(t *testing.T) {
	p := bits.Params{Lambda: 110, N: 8}
	o, s0, s1 := fixture(t, p, 2)

	x := splitShare(t, 42, p)
	y := splitShare(t, 42, p)
	r, err := o.Eq(s0, s1, x, y)
	require.NoError(t, err)
	assert.EqualValues(t, 1, r.Recover(p))

	y2 := splitShare(t, 43, p)
	r, err = o.Eq(s0, s1, x, y2)
	require.NoError(t, err)
	assert.EqualValues(t, 0, r.Recover(p))
}

// le soundness, including the x==y boundary.
func TestLeSoundness(t *testing.T) {
	p := bits.Params{Lambda: 110, N: 8}
	o, s0, s1 := fixture(t, p, 3)

	x := splitShare(t, 0, p)
	y := splitShare(t, 255, p)
	r, err := o.Le(s0, s1, x, y)
	require.NoError(t, err)
	assert.EqualValues(t, 1, r.Recover(p))

	x2 := splitShare(t, 255, p)
	y2 := splitShare(t, 0, p)
	r, err = o.Le(s0, s1, x2, y2)
	require.NoError(t, err)
	assert.EqualValues(t, 0, r.Recover(p))

	x3 := splitShare(t, 100, p)
	y3 := splitShare(t, 100, p)
	r, err = o.Le(s0, s1, x3, y3)
	require.NoError(t, err)
	assert.EqualValues(t, 1, r.Recover(p))
}

// The recovered result is independent of the specific randomness used
// to share x and y.
func TestEqResultIndependentOfSharingRandomness(t *testing.T) {
	p := bits.Params{Lambda: 110, N: 8}
	o, s0, s1 := fixture(t, p, 2)

	x1 := splitShare(t, 7, p)
	y1 := splitShare(t, 7, p)
	r1, err := o.Eq(s0, s1, x1, y1)
	require.NoError(t, err)

	x2 := splitShare(t, 7, p)
	y2 := splitShare(t, 7, p)
	r2, err := o.Eq(s0, s1, x2, y2)
	require.NoError(t, err)

	assert.Equal(t, r1.Recover(p), r2.Recover(p))
}

// A batch of random pairs, n=32: every elementwise recovered result
// equals the plaintext predicate.
func TestEqBatchOfRandomPairs(t *testing.T) {
	p := bits.Params{Lambda: 110, N: 32}
	const count = 32
	o, s0, s1 := fixture(t, p, count)

	xs := make([]online.PartyShare, count)
	ys := make([]online.PartyShare, count)
	want := make([]uint64, count)
	for i := 0; i < count; i++ {
		xv := bits.RandUint64(p)
		yv := xv
		if i%2 == 0 {
			yv = bits.RandUint64(p)
		}
		xs[i] = splitShare(t, xv, p)
		ys[i] = splitShare(t, yv, p)
		if xv == yv {
			want[i] = 1
		}
	}

	results, err := o.EqBatch(s0, s1, xs, ys)
	require.NoError(t, err)
	for i := range results {
		assert.Equalf(t, want[i], results[i].Recover(p), "lane %d", i)
	}
}

func TestLeBatchOfRandomPairs(t *testing.T) {
	p := bits.Params{Lambda: 110, N: 16}
	const count = 16
	o, s0, s1 := fixture(t, p, count)

	xs := make([]online.PartyShare, count)
	ys := make([]online.PartyShare, count)
	want := make([]uint64, count)
	for i := 0; i < count; i++ {
		xv := bits.RandUint64(p)
		yv := bits.RandUint64(p)
		xs[i] = splitShare(t, xv, p)
		ys[i] = splitShare(t, yv, p)
		if xv <= yv {
			want[i] = 1
		}
	}

	results, err := o.LeBatch(s0, s1, xs, ys)
	require.NoError(t, err)
	for i := range results {
		assert.Equalf(t, want[i], results[i].Recover(p), "lane %d", i)
	}
}

func TestEqBatchRejectsShapeMismatch(t *testing.T) {
	p := bits.Params{Lambda: 110, N: 8}
	o, s0, s1 := fixture(t, p, 1)

	_, err := o.EqBatch(s0, s1, []online.PartyShare{{}}, []online.PartyShare{{}, {}})
	assert.True(t, errors.Is(err, fsserr.ErrShapeMismatch))
}

// Draining fss_eq then invoking eq surfaces "empty store"; a subsequent
// refill and retry succeeds with identical output.
func TestEqQueueDrainThenRefillAndRetry(t *testing.T) {
	p := bits.Params{Lambda: 110, N: 8}
	o, s0, s1 := fixture(t, p, 1)

	x := splitShare(t, 5, p)
	y := splitShare(t, 5, p)

	_, err := o.Eq(s0, s1, x, y)
	require.NoError(t, err)

	_, err = o.Eq(s0, s1, x, y)
	assert.True(t, errors.Is(err, fsserr.ErrEmptyStore))

	eqB, err := batch.KeygenEq(p, bits.BackendSHA3, 1)
	require.NoError(t, err)
	s0.PushEq(eqB.Party0[0])
	s1.PushEq(eqB.Party1[0])

	r, err := o.Eq(s0, s1, x, y)
	require.NoError(t, err)
	assert.EqualValues(t, 1, r.Recover(p))
}

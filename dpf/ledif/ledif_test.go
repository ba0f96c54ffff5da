package ledif_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsscore/bits"
	"fsscore/dpf/ledif"
)

func newFactory(t *testing.T, n int) *ledif.LeDIF {
	t.Helper()
	d, err := ledif.New(bits.Params{Lambda: 110, N: n}, bits.BackendSHA3)
	require.NoError(t, err)
	return d
}

// For every alpha and every x, the two parties' evaluations xor to
// 1{x<=alpha}.
func TestDIFCorrectnessForAllX(t *testing.T) {
	d := newFactory(t, 8)
	alpha, k0, k1, err := d.Gen()
	require.NoError(t, err)

	for x := uint64(0); x < 256; x++ {
		y0, err := d.Eval(k0, x)
		require.NoError(t, err)
		y1, err := d.Eval(k1, x)
		require.NoError(t, err)

		want := byte(0)
		if x <= alpha {
			want = 1
		}
		assert.Equalf(t, want, y0^y1, "x=%d alpha=%d", x, alpha)
	}
}

// x==alpha is always on the <= side; alpha+1 (when it exists) is always
// on the other side of the boundary, and alpha-1 (when it exists) is
// back on the <= side.
func TestDIFBoundaryCases(t *testing.T) {
	d := newFactory(t, 8)
	alpha, k0, k1, err := d.Gen()
	require.NoError(t, err)

	y0, err := d.Eval(k0, alpha)
	require.NoError(t, err)
	y1, err := d.Eval(k1, alpha)
	require.NoError(t, err)
	assert.EqualValues(t, 1, y0^y1)

	if alpha < 255 {
		y0, err = d.Eval(k0, alpha+1)
		require.NoError(t, err)
		y1, err = d.Eval(k1, alpha+1)
		require.NoError(t, err)
		assert.EqualValues(t, 0, y0^y1)
	}
	if alpha > 0 {
		y0, err = d.Eval(k0, alpha-1)
		require.NoError(t, err)
		y1, err = d.Eval(k1, alpha-1)
		require.NoError(t, err)
		assert.EqualValues(t, 1, y0^y1)
	}
}

func TestDIFRejectsWrongWidthKey(t *testing.T) {
	d8 := newFactory(t, 8)
	d16 := newFactory(t, 16)

	_, k0, _, err := d8.Gen()
	require.NoError(t, err)

	_, err = d16.Eval(k0, 1)
	assert.Error(t, err)
}

func TestDIFBatchOfRandomPairs(t *testing.T) {
	d := newFactory(t, 32)
	for i := 0; i < 16; i++ {
		alpha, k0, k1, err := d.Gen()
		require.NoError(t, err)

		y0, err := d.Eval(k0, alpha)
		require.NoError(t, err)
		y1, err := d.Eval(k1, alpha)
		require.NoError(t, err)
		assert.EqualValues(t, 1, y0^y1)
	}
}

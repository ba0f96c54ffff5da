package bits_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsscore/bits"
)

func TestBitDecomposeMSBFirst(t *testing.T) {
	got := bits.BitDecompose(0b1010, 4)
	assert.Equal(t, []byte{1, 0, 1, 0}, got)
}

func TestBitDecomposeZeroPadded(t *testing.T) {
	got := bits.BitDecompose(5, 8)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 1, 0, 1}, got)
}

func TestBitStringPackedRoundTrip(t *testing.T) {
	src := []byte{1, 1, 0, 0, 1, 0, 1, 1, 1, 0}
	bs := bits.FromBytes(src)
	require.Equal(t, uint(len(src)), bs.Len)
	assert.Equal(t, src, bs.Bytes())

	packed := bs.Packed()
	unpacked := bits.FromPackedBytes(packed, bs.Len)
	assert.True(t, bs.Equal(unpacked))
}

func TestBitStringSplitConcat(t *testing.T) {
	bs := bits.FromBytes([]byte{1, 0, 1, 1, 0, 0, 1, 0})
	parts := bits.Split(bs, []uint{3, 5})
	assert.Equal(t, []byte{1, 0, 1}, parts[0].Bytes())
	assert.Equal(t, []byte{1, 0, 0, 1, 0}, parts[1].Bytes())

	rejoined := bits.Concat(parts...)
	assert.True(t, bs.Equal(rejoined))
}

func TestBitStringXor(t *testing.T) {
	a := bits.FromBytes([]byte{1, 0, 1, 0})
	b := bits.FromBytes([]byte{1, 1, 0, 0})
	got := a.Xor(b)
	assert.Equal(t, []byte{0, 1, 1, 0}, got.Bytes())
}

func TestConvertOverflowIsIntentional(t *testing.T) {
	p := bits.Params{Lambda: 8, N: 4}
	// 9 bits worth of 1s, value 511, mod 16 = 15.
	allOnes := bits.FromBytes([]byte{1, 1, 1, 1, 1, 1, 1, 1, 1})
	assert.EqualValues(t, 15, bits.Convert(allOnes, p))
}

func TestParamsMaskAndReduce(t *testing.T) {
	p := bits.Params{Lambda: 110, N: 8}
	assert.EqualValues(t, 0xFF, p.Mask())
	assert.EqualValues(t, 0x03, p.Reduce(0x103))
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, bits.Params{Lambda: 110, N: 32}.Validate())
	assert.Error(t, bits.Params{Lambda: 32, N: 32}.Validate())
	assert.Error(t, bits.Params{Lambda: 110, N: 0}.Validate())
}

func TestPRGWidths(t *testing.T) {
	prg := bits.NewPRG(bits.BackendSHA3)
	seed := bits.RandomSeed(110)

	g, err := prg.G(seed, 110)
	require.NoError(t, err)
	assert.EqualValues(t, 2*(110+1), g.Len)

	h, err := prg.H(seed, 110)
	require.NoError(t, err)
	assert.EqualValues(t, 2*(110+2), h.Len)
}

func TestPRGDeterministic(t *testing.T) {
	prg := bits.NewPRG(bits.BackendSHA3)
	seed := bits.RandomSeed(110)

	a, err := prg.G(seed, 110)
	require.NoError(t, err)
	b, err := prg.G(seed, 110)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestPRGDomainSeparatesGFromH(t *testing.T) {
	prg := bits.NewPRG(bits.BackendSHA3)
	seed := bits.RandomSeed(110)

	g, err := prg.G(seed, 110)
	require.NoError(t, err)
	h, err := prg.H(seed, 110)
	require.NoError(t, err)
	minLen := len(g.Bytes())
	if hb := h.Bytes(); len(hb) < minLen {
		minLen = len(hb)
	}
	assert.NotEqual(t, g.Bytes()[:minLen], h.Bytes()[:minLen])
}

func TestPRGSHA3RejectsTooWideRequest(t *testing.T) {
	prg := bits.NewPRG(bits.BackendSHA3)
	seed := bits.RandomSeed(200)
	_, err := prg.Expand(0x00, seed, 300)
	assert.Error(t, err)
}

func TestPRGSHAKE256SupportsWideLambda(t *testing.T) {
	prg := bits.NewPRG(bits.BackendSHAKE256)
	seed := bits.RandomSeed(256)
	out, err := prg.G(seed, 256)
	require.NoError(t, err)
	assert.EqualValues(t, 2*(256+1), out.Len)
}

func TestPRGBlake3Backend(t *testing.T) {
	prg := bits.NewPRG(bits.BackendBLAKE3)
	seed := bits.RandomSeed(110)
	out, err := prg.G(seed, 110)
	require.NoError(t, err)
	assert.EqualValues(t, 2*(110+1), out.Len)
}

func TestRandBitsLength(t *testing.T) {
	b := bits.RandBits(37)
	assert.EqualValues(t, 37, b.Len)
}

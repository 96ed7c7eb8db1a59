package layers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"densenet/nn"
	"densenet/tensor"
)

func TestDropout_RateZeroIsIdentity(t *testing.T) {
	d, err := NewDropout(0, rand.NewSource(1))
	require.NoError(t, err)
	x := tensor.Uniform(4, 5, -1, 1, rand.NewSource(2))

	out, err := d.Forward(x, true)
	require.NoError(t, err)
	assert.True(t, mat.Equal(x, out))

	out, err = d.Forward(x, false)
	require.NoError(t, err)
	assert.True(t, mat.Equal(x, out))
}

func TestDropout_RateOneDropsEverything(t *testing.T) {
	d, err := NewDropout(1, rand.NewSource(1))
	require.NoError(t, err)
	x := tensor.Ones(3, 3)

	out, err := d.Forward(x, true)
	require.NoError(t, err)
	assert.Zero(t, mat.Sum(out))

	out, err = d.Forward(x, false)
	require.NoError(t, err)
	assert.Zero(t, mat.Sum(out))
}

func TestDropout_ZeroFractionTracksRate(t *testing.T) {
	const rate = 0.3
	d, err := NewDropout(rate, rand.NewSource(11))
	require.NoError(t, err)

	out, err := d.Forward(tensor.Ones(200, 50), true)
	require.NoError(t, err)
	zeros := 0
	for _, v := range out.RawMatrix().Data {
		switch v {
		case 0:
			zeros++
		case 1:
		default:
			t.Fatalf("unexpected masked value %v", v)
		}
	}
	frac := float64(zeros) / (200 * 50)
	assert.InDelta(t, rate, frac, 0.03)
}

func TestDropout_InferenceScalesAndKeepsMask(t *testing.T) {
	d, err := NewDropout(0.25, rand.NewSource(4))
	require.NoError(t, err)
	x := tensor.Ones(2, 8)

	trained, err := d.Forward(x, true)
	require.NoError(t, err)
	mask := mat.DenseCopyOf(trained)

	out, err := d.Forward(tensor.Fill(5, 3, 2), false)
	require.NoError(t, err)
	assert.True(t, mat.Equal(tensor.Fill(5, 3, 1.5), out))

	grad, err := d.Backward(tensor.Fill(2, 8, 3))
	require.NoError(t, err)
	var want mat.Dense
	want.Scale(3, mask)
	assert.True(t, mat.Equal(&want, grad), "backward uses the mask of the last training forward")
}

func TestDropout_Errors(t *testing.T) {
	for _, rate := range []float64{-0.1, 1.1, math.NaN()} {
		_, err := NewDropout(rate, nil)
		assert.ErrorIs(t, err, nn.ErrInvalidRate, "rate %v", rate)
	}

	d, err := NewDropout(0.5, nil)
	require.NoError(t, err)
	_, err = d.Backward(tensor.Ones(1, 1))
	assert.ErrorIs(t, err, nn.ErrNoForward)

	_, err = d.Forward(tensor.Ones(2, 2), true)
	require.NoError(t, err)
	_, err = d.Backward(tensor.Ones(2, 3))
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
}

func TestDropout_Shape(t *testing.T) {
	d, err := NewDropout(0.5, nil)
	require.NoError(t, err)
	d.SetInputShape(nn.Shape{-1, 128})
	assert.True(t, d.OutputShape().Equal(nn.Shape{-1, 128}))
	assert.Zero(t, d.Parameters())
	assert.Nil(t, d.Trainable())
	assert.Equal(t, "Dropout", d.Tag())
	assert.Equal(t, 0.5, d.Rate())
}

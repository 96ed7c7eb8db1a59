package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"densenet/nn"
	"densenet/nn/layers"
	"densenet/tensor"
)

func handDense(t *testing.T, lr float64) *layers.Dense {
	t.Helper()
	d, err := layers.NewDense(2, "linear", lr, rand.NewSource(1))
	require.NoError(t, err)
	w := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		1, 1,
	})
	require.NoError(t, d.SetWeights(w, mat.NewDense(1, 2, nil)))
	return d
}

func step(t *testing.T, d *layers.Dense) {
	t.Helper()
	_, err := d.Forward(mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}), true)
	require.NoError(t, err)
	_, err = d.Backward(tensor.Ones(2, 2))
	require.NoError(t, err)
}

func TestSGD_UpdateByHand(t *testing.T) {
	d := handDense(t, 0)
	step(t, d)

	require.NoError(t, NewSGD(1).Update(d))
	// W - XᵗG with G all ones; B - colSum(G).
	assert.Equal(t, []float64{-4, -5, -7, -6, -8, -8}, d.W.RawMatrix().Data)
	assert.Equal(t, []float64{-2, -2}, d.B.RawMatrix().Data)

	_, delta := d.Cache()
	assert.Zero(t, mat.Sum(delta), "delta is cleared after the update")

	w := mat.DenseCopyOf(d.W)
	require.NoError(t, NewSGD(1).Update(d))
	assert.True(t, mat.Equal(w, d.W), "a second update without backward is a no-op")
}

func TestSGD_LayerRateOverridesGlobal(t *testing.T) {
	d := handDense(t, 0.5)
	step(t, d)

	require.NoError(t, NewSGD(100).Update(d))
	assert.Equal(t, []float64{-1.5, -2.5, -3.5, -2.5, -3.5, -3.5}, d.W.RawMatrix().Data)
	assert.Equal(t, []float64{-1, -1}, d.B.RawMatrix().Data)
}

func TestSGD_SkipsUntrainedAndParameterless(t *testing.T) {
	opt := NewSGD(0.1)

	in, err := layers.NewInput(3)
	require.NoError(t, err)
	assert.NoError(t, opt.Update(in))

	drop, err := layers.NewDropout(0.5, nil)
	require.NoError(t, err)
	assert.NoError(t, opt.Update(drop))

	unbuilt, err := layers.NewDense(2, "relu", 0, nil)
	require.NoError(t, err)
	assert.NoError(t, opt.Update(unbuilt))
	assert.False(t, unbuilt.Built())

	noBackward := handDense(t, 0)
	_, err = noBackward.Forward(mat.NewDense(1, 3, nil), true)
	require.NoError(t, err)
	w := mat.DenseCopyOf(noBackward.W)
	assert.NoError(t, opt.Update(noBackward))
	assert.True(t, mat.Equal(w, noBackward.W))
}

func TestSGD_RowMismatch(t *testing.T) {
	d := handDense(t, 0)
	step(t, d)
	_, err := d.Forward(mat.NewDense(3, 3, nil), true)
	require.NoError(t, err)
	assert.ErrorIs(t, NewSGD(1).Update(d), nn.ErrShapeMismatch)
}

func TestSGD_ZeroValueUsesDefaultRate(t *testing.T) {
	d := handDense(t, 0)
	step(t, d)

	require.NoError(t, (&SGD{}).Update(d))
	// W - 0.01·XᵗG, XᵗG = [[5,5],[7,7],[9,9]]
	assert.True(t, mat.EqualApprox(mat.NewDense(3, 2, []float64{
		0.95, -0.05,
		-0.07, 0.93,
		0.91, 0.91,
	}), d.W, 1e-12))
	assert.True(t, mat.EqualApprox(mat.NewDense(1, 2, []float64{-0.02, -0.02}), d.B, 1e-12))
}

func TestNewSGD_DefaultRate(t *testing.T) {
	assert.Equal(t, DefaultLearningRate, NewSGD(0).LearningRate)
	assert.Equal(t, DefaultLearningRate, NewSGD(-1).LearningRate)
	assert.Equal(t, 0.2, NewSGD(0.2).LearningRate)
}

package layers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"densenet/nn"
)

func TestNewInput(t *testing.T) {
	in, err := NewInput(784)
	require.NoError(t, err)
	assert.True(t, in.OutputShape().Equal(nn.Shape{-1, 784}))
	assert.True(t, in.InputShape().Equal(nn.Shape{-1, 784}))

	in, err = NewInput(32, 10)
	require.NoError(t, err)
	assert.True(t, in.OutputShape().Equal(nn.Shape{32, 10}))

	_, err = NewInput()
	assert.ErrorIs(t, err, nn.ErrInvalidShape)
	_, err = NewInput(1, 28, 28)
	assert.ErrorIs(t, err, nn.ErrInvalidShape)
}

func TestInput_ForwardBackward(t *testing.T) {
	in, err := NewInput(3)
	require.NoError(t, err)
	x := mat.NewDense(2, 3, nil)

	out, err := in.Forward(x, true)
	require.NoError(t, err)
	assert.Same(t, x, out)

	_, err = in.Forward(mat.NewDense(2, 4, nil), false)
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)

	g := mat.NewDense(2, 3, nil)
	back, err := in.Backward(g)
	require.NoError(t, err)
	assert.Same(t, g, back)

	assert.Zero(t, in.Parameters())
	assert.Nil(t, in.Trainable())
	assert.Equal(t, "Input", in.Tag())
}

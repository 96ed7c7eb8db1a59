package optim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"densenet/nn"
	"densenet/tensor"
)

// DefaultLearningRate is used when SGD is created with a non-positive rate.
const DefaultLearningRate = 0.01

// SGD implements plain stochastic gradient descent.
//
// Update rule for a layer with input X and cached delta D:
//
//	W = W - lr * Xᵗ·D
//	B = B - lr * colSum(D)
//
// lr is the layer's own override when nonzero, otherwise LearningRate,
// which falls back to DefaultLearningRate when not positive.
type SGD struct {
	LearningRate float64
}

// NewSGD creates an SGD optimizer.
func NewSGD(lr float64) *SGD {
	if lr <= 0 {
		lr = DefaultLearningRate
	}
	return &SGD{LearningRate: lr}
}

// Update steps the layer's parameters and clears its delta. Layers without
// trainable state, and trainable layers that have not been built or have
// not run backward yet, are left untouched.
func (o *SGD) Update(layer nn.Layer) error {
	tr := layer.Trainable()
	if tr == nil {
		return nil
	}
	w, b := tr.Params()
	input, delta := tr.Cache()
	if w == nil || input == nil || delta == nil {
		return nil
	}
	ir, _ := input.Dims()
	if dr, _ := delta.Dims(); ir != dr {
		return fmt.Errorf("%w: input has %d rows, delta has %d", nn.ErrShapeMismatch, ir, dr)
	}

	lr := tr.LearningRate()
	if lr == 0 {
		lr = o.LearningRate
	}
	if lr <= 0 {
		lr = DefaultLearningRate
	}

	var gw mat.Dense
	gw.Mul(input.T(), delta)
	w.Sub(w, scaled(lr, &gw))
	b.Sub(b, scaled(lr, tensor.ColSum(delta)))
	tr.ZeroDelta()
	return nil
}

func scaled(s float64, m mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Scale(s, m)
	return &out
}

package layers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"densenet/nn"
)

// Input declares the feature layout fed into the network.
type Input struct {
	shape nn.Shape
}

// NewInput accepts a 1-D shape (features), read as (-1, features), or a
// full 2-D (batch, features) shape.
func NewInput(shape ...int) (*Input, error) {
	switch len(shape) {
	case 1:
		return &Input{shape: nn.Shape{-1, shape[0]}}, nil
	case 2:
		return &Input{shape: nn.Shape{shape[0], shape[1]}}, nil
	}
	return nil, fmt.Errorf("%w: input shape must be 1D or 2D, got %v", nn.ErrInvalidShape, shape)
}

func (l *Input) Forward(x *mat.Dense, _ bool) (*mat.Dense, error) {
	if f := l.shape.Features(); f > 0 {
		if _, c := x.Dims(); c != f {
			return nil, fmt.Errorf("%w: input has %d features, want %d", nn.ErrShapeMismatch, c, f)
		}
	}
	return x, nil
}

// Backward terminates the chain; the gradient is passed through unchanged.
func (l *Input) Backward(grad *mat.Dense) (*mat.Dense, error) { return grad, nil }

func (l *Input) InputShape() nn.Shape     { return l.shape }
func (l *Input) OutputShape() nn.Shape    { return l.shape }
func (l *Input) SetInputShape(s nn.Shape) { l.shape = s }
func (l *Input) Parameters() int          { return 0 }
func (l *Input) Tag() string              { return "Input" }
func (l *Input) Trainable() nn.Trainable  { return nil }

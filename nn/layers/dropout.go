package layers

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"densenet/nn"
	"densenet/tensor"
)

// Dropout zeroes each element with probability rate during training and
// scales by the keep probability at inference.
type Dropout struct {
	rate       float64
	keep       distuv.Bernoulli
	inputShape nn.Shape

	// mask is only valid right after a training-mode Forward.
	mask *mat.Dense
}

// NewDropout(rate, src) fails unless 0 <= rate <= 1. src drives mask
// sampling; nil uses a time-based seed.
func NewDropout(rate float64, src rand.Source) (*Dropout, error) {
	if !(rate >= 0 && rate <= 1) {
		return nil, fmt.Errorf("%w: got %v", nn.ErrInvalidRate, rate)
	}
	if src == nil {
		src = rand.NewSource(uint64(time.Now().UnixNano()))
	}
	return &Dropout{
		rate: rate,
		keep: distuv.Bernoulli{P: 1 - rate, Src: src},
	}, nil
}

// Rate returns the drop probability.
func (l *Dropout) Rate() float64 { return l.rate }

func (l *Dropout) Forward(x *mat.Dense, train bool) (*mat.Dense, error) {
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	if !train {
		out.Scale(1-l.rate, x)
		return out, nil
	}
	l.mask = mat.NewDense(r, c, nil)
	l.mask.Apply(func(_, _ int, _ float64) float64 {
		return l.keep.Rand()
	}, l.mask)
	out.MulElem(x, l.mask)
	return out, nil
}

// Backward applies the mask drawn by the last training-mode Forward.
func (l *Dropout) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if l.mask == nil {
		return nil, fmt.Errorf("dropout: %w", nn.ErrNoForward)
	}
	if !tensor.SameShape(grad, l.mask) {
		gr, gc := grad.Dims()
		mr, mc := l.mask.Dims()
		return nil, fmt.Errorf("%w: gradient (%d, %d) vs mask (%d, %d)", nn.ErrShapeMismatch, gr, gc, mr, mc)
	}
	var out mat.Dense
	out.MulElem(grad, l.mask)
	return &out, nil
}

func (l *Dropout) InputShape() nn.Shape     { return l.inputShape }
func (l *Dropout) OutputShape() nn.Shape    { return l.inputShape }
func (l *Dropout) SetInputShape(s nn.Shape) { l.inputShape = s }
func (l *Dropout) Parameters() int          { return 0 }
func (l *Dropout) Tag() string              { return "Dropout" }
func (l *Dropout) Trainable() nn.Trainable  { return nil }

package layers

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"densenet/nn"
	"densenet/tensor"
)

// Dense is a fully-connected layer followed by its own activation.
// Parameters are built on the first forward call from the observed input
// width, and never rebuilt afterwards.
type Dense struct {
	units        int
	learningRate float64
	activation   nn.Activation
	src          rand.Source

	inputShape  nn.Shape
	outputShape nn.Shape

	// W is (in × units), B is (1 × units); both nil until built.
	W, B *mat.Dense

	lastInput *mat.Dense
	delta     *mat.Dense
}

// NewDense(units, activation, lr, src) sets up an unbuilt layer. A nonzero
// learningRate overrides the optimizer's rate for this layer. src seeds
// weight initialisation; nil uses a time-based seed.
func NewDense(units int, activation string, learningRate float64, src rand.Source) (*Dense, error) {
	if units <= 0 {
		return nil, fmt.Errorf("%w: dense units must be positive, got %d", nn.ErrInvalidShape, units)
	}
	act, err := nn.NewActivation(activation)
	if err != nil {
		return nil, err
	}
	if src == nil {
		src = rand.NewSource(uint64(time.Now().UnixNano()))
	}
	return &Dense{
		units:        units,
		learningRate: learningRate,
		activation:   act,
		src:          src,
		outputShape:  nn.Shape{-1, units},
	}, nil
}

// Built reports whether W and B exist.
func (l *Dense) Built() bool { return l.W != nil }

// build draws W and B from U(±1/√in).
func (l *Dense) build(in int) {
	limit := 1 / math.Sqrt(float64(in))
	l.W = tensor.Uniform(in, l.units, -limit, limit, l.src)
	l.B = tensor.Uniform(1, l.units, -limit, limit, l.src)
	l.delta = nil
	l.inputShape = nn.Shape{-1, in}
}

// SetWeights installs explicit parameters and marks the layer built.
func (l *Dense) SetWeights(w, b *mat.Dense) error {
	in, units := w.Dims()
	if units != l.units {
		return fmt.Errorf("%w: weights have %d columns, layer has %d units", nn.ErrShapeMismatch, units, l.units)
	}
	if f := l.inputShape.Features(); f > 0 && f != in {
		return fmt.Errorf("%w: weights have %d rows, declared input has %d features", nn.ErrShapeMismatch, in, f)
	}
	if br, bc := b.Dims(); br != 1 || bc != l.units {
		return fmt.Errorf("%w: bias must be (1, %d), got (%d, %d)", nn.ErrShapeMismatch, l.units, br, bc)
	}
	l.W = mat.DenseCopyOf(w)
	l.B = mat.DenseCopyOf(b)
	l.delta = nil
	l.inputShape = nn.Shape{-1, in}
	return nil
}

// Forward computes activation(x·W + B).
func (l *Dense) Forward(x *mat.Dense, _ bool) (*mat.Dense, error) {
	_, in := x.Dims()
	if !l.Built() {
		if f := l.inputShape.Features(); f > 0 && f != in {
			return nil, fmt.Errorf("%w: input has %d features, declared %d", nn.ErrShapeMismatch, in, f)
		}
		l.build(in)
	}
	if wr, _ := l.W.Dims(); wr != in {
		return nil, fmt.Errorf("%w: input has %d features, weights expect %d", nn.ErrShapeMismatch, in, wr)
	}
	l.lastInput = x

	var z mat.Dense
	z.Mul(x, l.W)
	if err := tensor.AddRowVector(&z, l.B); err != nil {
		return nil, err
	}
	return l.activation.Forward(&z), nil
}

// Backward runs the activation backward to obtain delta, caches it for the
// optimizer, and returns delta·Wᵗ.
func (l *Dense) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if l.lastInput == nil {
		return nil, nn.ErrNoForward
	}
	delta, err := l.activation.Backward(grad)
	if err != nil {
		return nil, err
	}
	l.delta = delta
	var dx mat.Dense
	dx.Mul(delta, l.W.T())
	return &dx, nil
}

func (l *Dense) InputShape() nn.Shape  { return l.inputShape }
func (l *Dense) OutputShape() nn.Shape { return l.outputShape }
func (l *Dense) Tag() string           { return "Dense" }

// SetInputShape is ignored once the layer is built.
func (l *Dense) SetInputShape(s nn.Shape) {
	if !l.Built() {
		l.inputShape = s
	}
}

// Parameters is in·units + units; in counts as 0 while unknown.
func (l *Dense) Parameters() int {
	in := l.inputShape.Features()
	if l.Built() {
		in, _ = l.W.Dims()
	}
	if in < 0 {
		in = 0
	}
	return in*l.units + l.units
}

// Units returns the output width.
func (l *Dense) Units() int { return l.units }

// Activation returns the owned activation.
func (l *Dense) Activation() nn.Activation { return l.activation }

func (l *Dense) Trainable() nn.Trainable { return l }

func (l *Dense) Params() (*mat.Dense, *mat.Dense) { return l.W, l.B }
func (l *Dense) Cache() (*mat.Dense, *mat.Dense)  { return l.lastInput, l.delta }
func (l *Dense) LearningRate() float64            { return l.learningRate }

// ZeroDelta replaces the cached delta with zeros so a repeated update is a
// no-op. The old matrix may be shared with the caller and is left intact.
func (l *Dense) ZeroDelta() {
	if l.delta != nil {
		r, c := l.delta.Dims()
		l.delta = mat.NewDense(r, c, nil)
	}
}

package nn

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"densenet/tensor"
)

// Activation is a stateful elementwise (or row-wise) transform owned by a
// Dense layer. Forward caches its output; Backward consumes that cache, so
// the two must be called in strict alternation on a given instance.
type Activation interface {
	Forward(x *mat.Dense) *mat.Dense
	// Backward takes the gradient of the loss w.r.t. the activation output
	// and returns the gradient w.r.t. its input.
	Backward(grad *mat.Dense) (*mat.Dense, error)
	Name() string
}

// SupportedActivations maps a lower-case name to its constructor.
var SupportedActivations = map[string]func() Activation{
	"relu":    func() Activation { return &ReLU{} },
	"sigmoid": func() Activation { return &Sigmoid{} },
	"tanh":    func() Activation { return &Tanh{} },
	"softmax": func() Activation { return &Softmax{} },
	"linear":  func() Activation { return &Linear{} },
}

// NewActivation creates an activation by case-insensitive name.
func NewActivation(name string) (Activation, error) {
	ctor, ok := SupportedActivations[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
	}
	return ctor(), nil
}

// cached holds the last forward output shared by every activation that
// derives its gradient from Y.
type cached struct {
	output *mat.Dense
}

func (c *cached) check(grad *mat.Dense) error {
	if c.output == nil {
		return ErrNoForward
	}
	if !tensor.SameShape(c.output, grad) {
		gr, gc := grad.Dims()
		or, oc := c.output.Dims()
		return fmt.Errorf("%w: gradient (%d, %d) vs output (%d, %d)", ErrShapeMismatch, gr, gc, or, oc)
	}
	return nil
}

// ReLU computes max(x, 0).
type ReLU struct{ cached }

func (a *ReLU) Forward(x *mat.Dense) *mat.Dense {
	r, c := x.Dims()
	a.output = mat.NewDense(r, c, nil)
	a.output.Apply(func(_, _ int, v float64) float64 {
		return math.Max(v, 0)
	}, x)
	return a.output
}

// Backward masks on the cached output: y > 0 exactly when x > 0.
func (a *ReLU) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if err := a.check(grad); err != nil {
		return nil, fmt.Errorf("relu: %w", err)
	}
	r, c := grad.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, g float64) float64 {
		if a.output.At(i, j) > 0 {
			return g
		}
		return 0
	}, grad)
	return out, nil
}

func (a *ReLU) Name() string { return "relu" }

// Sigmoid computes 1 / (1 + exp(-x)).
type Sigmoid struct{ cached }

func (a *Sigmoid) Forward(x *mat.Dense) *mat.Dense {
	r, c := x.Dims()
	a.output = mat.NewDense(r, c, nil)
	a.output.Apply(func(_, _ int, v float64) float64 {
		return 1.0 / (1.0 + math.Exp(-v))
	}, x)
	return a.output
}

func (a *Sigmoid) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if err := a.check(grad); err != nil {
		return nil, fmt.Errorf("sigmoid: %w", err)
	}
	r, c := grad.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, g float64) float64 {
		y := a.output.At(i, j)
		return (y - y*y) * g
	}, grad)
	return out, nil
}

func (a *Sigmoid) Name() string { return "sigmoid" }

// Tanh computes the hyperbolic tangent.
type Tanh struct{ cached }

func (a *Tanh) Forward(x *mat.Dense) *mat.Dense {
	r, c := x.Dims()
	a.output = mat.NewDense(r, c, nil)
	a.output.Apply(func(_, _ int, v float64) float64 {
		return math.Tanh(v)
	}, x)
	return a.output
}

func (a *Tanh) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if err := a.check(grad); err != nil {
		return nil, fmt.Errorf("tanh: %w", err)
	}
	r, c := grad.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, g float64) float64 {
		y := a.output.At(i, j)
		return (1 - y*y) * g
	}, grad)
	return out, nil
}

func (a *Tanh) Name() string { return "tanh" }

// Softmax normalises each row into a probability distribution.
type Softmax struct{ cached }

// Forward subtracts the row max before exponentiating so large logits
// cannot overflow.
func (a *Softmax) Forward(x *mat.Dense) *mat.Dense {
	r, c := x.Dims()
	a.output = mat.NewDense(r, c, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, x)
		floats.AddConst(-floats.Max(row), row)
		for j, v := range row {
			row[j] = math.Exp(v)
		}
		floats.Scale(1/floats.Sum(row), row)
		a.output.SetRow(i, row)
	}
	return a.output
}

// Backward applies the exact per-sample Jacobian diag(y) - yᵗy to each
// gradient row.
func (a *Softmax) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if err := a.check(grad); err != nil {
		return nil, fmt.Errorf("softmax: %w", err)
	}
	r, c := grad.Dims()
	out := mat.NewDense(r, c, nil)
	jac := mat.NewDense(c, c, nil)
	var dx mat.VecDense
	for i := 0; i < r; i++ {
		y := a.output.RowView(i)
		jac.Outer(-1, y, y)
		for k := 0; k < c; k++ {
			jac.Set(k, k, jac.At(k, k)+y.AtVec(k))
		}
		dx.MulVec(jac, grad.RowView(i))
		out.SetRow(i, dx.RawVector().Data)
	}
	return out, nil
}

func (a *Softmax) Name() string { return "softmax" }

// Linear is the identity activation.
type Linear struct{ cached }

func (a *Linear) Forward(x *mat.Dense) *mat.Dense {
	a.output = x
	return x
}

func (a *Linear) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if err := a.check(grad); err != nil {
		return nil, fmt.Errorf("linear: %w", err)
	}
	return grad, nil
}

func (a *Linear) Name() string { return "linear" }

package nn

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"densenet/tensor"
)

// BCEEpsilon bounds predictions away from 0 and 1 before taking logs.
const BCEEpsilon = 1e-7

// Loss is a stateless scalar objective over (prediction, target) pairs.
// Forward averages a per-sample error over the batch; Backward returns the
// gradient of that average w.r.t. the prediction.
type Loss interface {
	Forward(pred, target *mat.Dense) (float64, error)
	Backward(pred, target *mat.Dense) (*mat.Dense, error)
	Name() string
}

// NewLoss creates a loss by name.
func NewLoss(name string) (Loss, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mse", "mean_squared_error", "meansquarederror":
		return MeanSquaredError{}, nil
	case "mae", "mean_absolute_error", "meanabsoluteerror":
		return MeanAbsoluteError{}, nil
	case "bce", "binary_crossentropy", "binarycrossentropy":
		return BinaryCrossEntropy{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLoss, name)
}

func checkPair(pred, target *mat.Dense) (int, error) {
	if !tensor.SameShape(pred, target) {
		pr, pc := pred.Dims()
		tr, tc := target.Dims()
		return 0, fmt.Errorf("%w: prediction (%d, %d) vs target (%d, %d)", ErrShapeMismatch, pr, pc, tr, tc)
	}
	n, _ := pred.Dims()
	return n, nil
}

// diff returns pred - target.
func diff(pred, target *mat.Dense) *mat.Dense {
	var d mat.Dense
	d.Sub(pred, target)
	return &d
}

// MeanSquaredError is sum((p - t)²) / batch.
type MeanSquaredError struct{}

func (MeanSquaredError) Forward(pred, target *mat.Dense) (float64, error) {
	n, err := checkPair(pred, target)
	if err != nil {
		return 0, err
	}
	d := diff(pred, target).RawMatrix().Data
	return floats.Dot(d, d) / float64(n), nil
}

func (MeanSquaredError) Backward(pred, target *mat.Dense) (*mat.Dense, error) {
	n, err := checkPair(pred, target)
	if err != nil {
		return nil, err
	}
	d := diff(pred, target)
	d.Scale(1/float64(n), d)
	return d, nil
}

func (MeanSquaredError) Name() string { return "mean_squared_error" }

// MeanAbsoluteError is sum(|p - t|) / batch.
type MeanAbsoluteError struct{}

func (MeanAbsoluteError) Forward(pred, target *mat.Dense) (float64, error) {
	n, err := checkPair(pred, target)
	if err != nil {
		return 0, err
	}
	return floats.Norm(diff(pred, target).RawMatrix().Data, 1) / float64(n), nil
}

// Backward uses the subgradient sign(p - t), taking 0 where p == t.
func (MeanAbsoluteError) Backward(pred, target *mat.Dense) (*mat.Dense, error) {
	n, err := checkPair(pred, target)
	if err != nil {
		return nil, err
	}
	d := diff(pred, target)
	inv := 1 / float64(n)
	d.Apply(func(_, _ int, v float64) float64 {
		switch {
		case v > 0:
			return inv
		case v < 0:
			return -inv
		}
		return 0
	}, d)
	return d, nil
}

func (MeanAbsoluteError) Name() string { return "mean_absolute_error" }

// BinaryCrossEntropy is -sum(t·log p + (1-t)·log(1-p)) / batch with p
// clipped into [BCEEpsilon, 1-BCEEpsilon].
type BinaryCrossEntropy struct{}

func (BinaryCrossEntropy) Forward(pred, target *mat.Dense) (float64, error) {
	n, err := checkPair(pred, target)
	if err != nil {
		return 0, err
	}
	p := tensor.Clip(pred, BCEEpsilon, 1-BCEEpsilon)
	r, c := p.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			pv, tv := p.At(i, j), target.At(i, j)
			sum += tv*math.Log(pv) + (1-tv)*math.Log(1-pv)
		}
	}
	return -sum / float64(n), nil
}

// Backward differentiates the clipped loss: (p - t) / (p(1-p)) / batch.
func (BinaryCrossEntropy) Backward(pred, target *mat.Dense) (*mat.Dense, error) {
	n, err := checkPair(pred, target)
	if err != nil {
		return nil, err
	}
	p := tensor.Clip(pred, BCEEpsilon, 1-BCEEpsilon)
	inv := 1 / float64(n)
	p.Apply(func(i, j int, pv float64) float64 {
		return (pv - target.At(i, j)) / (pv * (1 - pv)) * inv
	}, p)
	return p, nil
}

func (BinaryCrossEntropy) Name() string { return "binary_crossentropy" }

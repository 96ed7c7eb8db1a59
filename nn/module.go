package nn

import (
	"gonum.org/v1/gonum/mat"
)

// Layer defines a single layer in the network.
type Layer interface {
	// Forward maps a (batch, features) input to the layer output. train
	// selects training behaviour for layers such as Dropout.
	Forward(x *mat.Dense, train bool) (*mat.Dense, error)
	// Backward takes the gradient of the loss with respect to the layer's
	// output and returns the gradient with respect to its input. It relies
	// on the caches left by the immediately preceding Forward.
	Backward(grad *mat.Dense) (*mat.Dense, error)
	InputShape() Shape
	OutputShape() Shape
	// SetInputShape declares the shape produced by the previous layer.
	SetInputShape(s Shape)
	Parameters() int
	// Tag is the layer type name, e.g. "Dense".
	Tag() string
	// Trainable returns the layer's trainable state, or nil when the layer
	// has nothing to update.
	Trainable() Trainable
}

// Trainable exposes the parameters of a layer together with the input and
// output-delta cached by its last forward/backward pair.
type Trainable interface {
	// Params returns the weight and bias matrices, updated in place. Both
	// are nil until the layer has been built.
	Params() (weights, bias *mat.Dense)
	// Cache returns the input of the last forward and the delta of the
	// last backward.
	Cache() (input, delta *mat.Dense)
	// LearningRate is a per-layer override; 0 means use the optimizer's.
	LearningRate() float64
	// ZeroDelta clears the cached delta after it has been applied.
	ZeroDelta()
}

// Optimizer mutates a layer's trainable parameters.
type Optimizer interface {
	Update(layer Layer) error
}

// Reporter receives progress from Sequential.Fit.
type Reporter interface {
	EpochStart(epoch, epochs int)
	BatchEnd(batch, batches int, loss, accuracy float64)
	EpochEnd(batches int, meanLoss, meanAccuracy float64)
}

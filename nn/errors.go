package nn

import "errors"

// Common errors.
var (
	ErrInvalidShape      = errors.New("invalid shape")
	ErrInvalidRate       = errors.New("dropout rate must be in [0, 1]")
	ErrUnknownActivation = errors.New("unknown activation function")
	ErrUnknownLoss       = errors.New("unknown loss function")
	ErrShapeMismatch     = errors.New("shape mismatch")
	ErrNoForward         = errors.New("backward called without a preceding forward")
	ErrNotCompiled       = errors.New("model is not compiled")
	ErrBatchTooLarge     = errors.New("batch size exceeds the number of samples")
)

package nn

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"densenet/tensor"
	"densenet/utils"
)

// History records the mean loss and accuracy of every epoch run by Fit.
type History struct {
	Loss     []float64
	Accuracy []float64
}

// Sequential chains Layers in order and trains them with a bound
// Optimizer and Loss.
type Sequential struct {
	layers []Layer
	names  []string
	counts map[string]int

	optimizer Optimizer
	loss      Loss
	reporter  Reporter
	stats     utils.TimingStats
}

// NewSequential returns an empty model.
func NewSequential() *Sequential {
	return &Sequential{counts: make(map[string]int)}
}

// Add appends a layer. Every layer after the first has its input shape
// declared from the previous layer's output shape, and each layer is named
// after its type plus a per-model counter.
func (s *Sequential) Add(layer Layer) {
	if n := len(s.layers); n > 0 {
		layer.SetInputShape(s.layers[n-1].OutputShape().Clone())
	}
	tag := layer.Tag()
	s.counts[tag]++
	s.layers = append(s.layers, layer)
	s.names = append(s.names, tag+strconv.Itoa(s.counts[tag]))
}

// Compile binds the optimizer and loss. It must precede Fit.
func (s *Sequential) Compile(optimizer Optimizer, loss Loss) error {
	if optimizer == nil || loss == nil {
		return fmt.Errorf("compile: optimizer and loss are required")
	}
	s.optimizer = optimizer
	s.loss = loss
	return nil
}

// SetReporter installs a progress sink for Fit. nil disables reporting.
func (s *Sequential) SetReporter(r Reporter) { s.reporter = r }

// Layers returns the layer stack in order.
func (s *Sequential) Layers() []Layer { return s.layers }

// Names returns the per-model layer names, parallel to Layers.
func (s *Sequential) Names() []string { return s.names }

// Stats returns the timing accumulated by Fit.
func (s *Sequential) Stats() *utils.TimingStats { return &s.stats }

// forward runs every layer in training mode.
func (s *Sequential) forward(x *mat.Dense) (*mat.Dense, error) {
	return s.run(x, true)
}

// Predict runs every layer in inference mode.
func (s *Sequential) Predict(x *mat.Dense) (*mat.Dense, error) {
	return s.run(x, false)
}

func (s *Sequential) run(x *mat.Dense, train bool) (*mat.Dense, error) {
	if len(s.layers) == 0 {
		return nil, fmt.Errorf("model has no layers")
	}
	out := x
	var err error
	for i, layer := range s.layers {
		out, err = layer.Forward(out, train)
		if err != nil {
			return nil, fmt.Errorf("%s forward: %w", s.names[i], err)
		}
	}
	return out, nil
}

// backward feeds grad through the layers in reverse and returns the
// gradient with respect to the model input.
func (s *Sequential) backward(grad *mat.Dense) (*mat.Dense, error) {
	out := grad
	var err error
	for i := len(s.layers) - 1; i >= 0; i-- {
		out, err = s.layers[i].Backward(out)
		if err != nil {
			return nil, fmt.Errorf("%s backward: %w", s.names[i], err)
		}
	}
	return out, nil
}

// update asks the optimizer to step every layer once.
func (s *Sequential) update() error {
	for i, layer := range s.layers {
		if err := s.optimizer.Update(layer); err != nil {
			return fmt.Errorf("%s update: %w", s.names[i], err)
		}
	}
	return nil
}

// Fit trains on contiguous mini-batches of x and y for the given number of
// epochs. Batches are taken in row order every epoch; rows past the last
// full batch are not used.
func (s *Sequential) Fit(x, y *mat.Dense, epochs, batchSize int) (*History, error) {
	if s.optimizer == nil || s.loss == nil {
		return nil, ErrNotCompiled
	}
	n, _ := x.Dims()
	if yn, _ := y.Dims(); yn != n {
		return nil, fmt.Errorf("%w: %d input rows vs %d target rows", ErrShapeMismatch, n, yn)
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if epochs < 0 {
		return nil, fmt.Errorf("epochs must be non-negative, got %d", epochs)
	}
	if batchSize > n {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, batchSize, n)
	}

	batches := n / batchSize
	hist := &History{}
	start := time.Now()
	defer func() { s.stats.TotalTime += time.Since(start) }()

	for epoch := 0; epoch < epochs; epoch++ {
		if s.reporter != nil {
			s.reporter.EpochStart(epoch+1, epochs)
		}
		totalLoss, totalAcc := 0.0, 0.0
		for i := 0; i < batches; i++ {
			loss, acc, err := s.step(x, y, i*batchSize, (i+1)*batchSize)
			if err != nil {
				return hist, fmt.Errorf("epoch %d batch %d: %w", epoch+1, i+1, err)
			}
			totalLoss += loss
			totalAcc += acc
			if s.reporter != nil {
				s.reporter.BatchEnd(i+1, batches, loss, acc)
			}
		}
		meanLoss := totalLoss / float64(batches)
		meanAcc := totalAcc / float64(batches)
		hist.Loss = append(hist.Loss, meanLoss)
		hist.Accuracy = append(hist.Accuracy, meanAcc)
		if s.reporter != nil {
			s.reporter.EpochEnd(batches, meanLoss, meanAcc)
		}
	}
	return hist, nil
}

// step runs one forward/backward/update cycle on rows [from, to).
func (s *Sequential) step(x, y *mat.Dense, from, to int) (float64, float64, error) {
	xb, err := tensor.RowBlock(x, from, to)
	if err != nil {
		return 0, 0, err
	}
	yb, err := tensor.RowBlock(y, from, to)
	if err != nil {
		return 0, 0, err
	}

	t := time.Now()
	pred, err := s.forward(xb)
	if err != nil {
		return 0, 0, err
	}
	s.stats.ForwardPassTime += time.Since(t)

	t = time.Now()
	loss, err := s.loss.Forward(pred, yb)
	if err != nil {
		return 0, 0, err
	}
	acc := tensor.Accuracy(pred, yb)
	grad, err := s.loss.Backward(pred, yb)
	if err != nil {
		return 0, 0, err
	}
	s.stats.LossComputationTime += time.Since(t)

	t = time.Now()
	if _, err := s.backward(grad); err != nil {
		return 0, 0, err
	}
	s.stats.BackwardPassTime += time.Since(t)

	t = time.Now()
	if err := s.update(); err != nil {
		return 0, 0, err
	}
	s.stats.UpdateTime += time.Since(t)
	s.stats.Steps++
	return loss, acc, nil
}

// Evaluate returns the loss and accuracy of inference-mode predictions.
func (s *Sequential) Evaluate(x, y *mat.Dense) (float64, float64, error) {
	if s.loss == nil {
		return 0, 0, ErrNotCompiled
	}
	pred, err := s.Predict(x)
	if err != nil {
		return 0, 0, err
	}
	loss, err := s.loss.Forward(pred, y)
	if err != nil {
		return 0, 0, err
	}
	return loss, tensor.Accuracy(pred, y), nil
}

// Parameters sums the parameter count of every layer.
func (s *Sequential) Parameters() int {
	total := 0
	for _, layer := range s.layers {
		total += layer.Parameters()
	}
	return total
}

// Summary writes a table of layers, shapes and parameter counts.
func (s *Sequential) Summary(w io.Writer) {
	rule := strings.Repeat("_", 65)
	double := strings.Repeat("=", 65)
	fmt.Fprintln(w, "Model: Sequential")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-14s %-18s %-18s %-14s\n", "Layer", "Input Shape", "Output Shape", "Param #")
	fmt.Fprintln(w, double)
	for i, layer := range s.layers {
		fmt.Fprintf(w, "%-14s %-18s %-18s %-14d\n",
			s.names[i], layer.InputShape(), layer.OutputShape(), layer.Parameters())
	}
	fmt.Fprintln(w, double)
	fmt.Fprintf(w, "Total params: %d\n", s.Parameters())
}

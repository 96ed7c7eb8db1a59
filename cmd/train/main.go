// densenet-train: trains a feed-forward network on MNIST CSV files or on
// synthetic data.
//
// Usage:
//
//	densenet-train --data=./dataset --arch="784 128:relu:0.2 dropout:0.5 10:softmax:0.05" --epochs=100 --batch=32
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"densenet/dataset"
	"densenet/nn"
	"densenet/nn/layers"
	"densenet/nn/optim"
	"densenet/tensor"
	"densenet/utils"
)

var (
	dataRoot     = flag.String("data", "", "Directory holding mnist_train.csv and mnist_test.csv (empty: synthetic data)")
	oneHot       = flag.Bool("onehot", true, "One-hot encode labels")
	arch         = flag.String("arch", "784 128:relu:0.2 dropout:0.5 10:softmax:0.05", "Architecture: input size, then units:activation[:lr] or dropout:rate")
	epochs       = flag.Int("epochs", 5, "Number of training epochs")
	batchSize    = flag.Int("batch", 32, "Mini-batch size")
	learningRate = flag.Float64("lr", 0.01, "Global learning rate")
	lossName     = flag.String("loss", "mse", "Loss: mse, mae, bce")
	seed         = flag.Uint64("seed", 42, "Random seed")
	samples      = flag.Int("samples", 1000, "Number of synthetic samples")
	verbose      = flag.Bool("verbose", true, "Verbose output")
	show         = flag.Int("show", 20, "Test predictions to print")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	specs, err := utils.ParseArchitecture(*arch)
	if err != nil {
		fail(err)
	}
	cfg := &utils.Config{
		Architecture: specs,
		DataRoot:     *dataRoot,
		OneHot:       *oneHot,
		BatchSize:    *batchSize,
		Epochs:       *epochs,
		LearningRate: *learningRate,
		Loss:         *lossName,
		Seed:         *seed,
		Samples:      *samples,
	}
	if err := utils.ValidateConfig(cfg); err != nil {
		fail(err)
	}
	if err := run(cfg); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func run(cfg *utils.Config) error {
	src := rand.NewSource(cfg.Seed)

	start := time.Now()
	data, err := loadData(cfg, src)
	if err != nil {
		return err
	}
	loadTime := time.Since(start)

	start = time.Now()
	model, err := buildModel(cfg.Architecture, src)
	if err != nil {
		return err
	}
	loss, err := nn.NewLoss(cfg.Loss)
	if err != nil {
		return err
	}
	if err := model.Compile(optim.NewSGD(cfg.LearningRate), loss); err != nil {
		return err
	}
	model.SetReporter(utils.NewConsoleReporter())
	stats := model.Stats()
	stats.DataLoadingTime = loadTime
	stats.ModelInitTime = time.Since(start)

	if utils.Verbose {
		model.Summary(utils.Output)
		fmt.Fprintln(utils.Output)
	}

	if _, err := model.Fit(data.TrainX, data.TrainY, cfg.Epochs, cfg.BatchSize); err != nil {
		return err
	}

	testLoss, testAcc, err := model.Evaluate(data.TestX, data.TestY)
	if err != nil {
		return err
	}
	fmt.Fprintf(utils.Output, "\ntest accuracy: %.4f%%\n", testAcc*100)
	fmt.Fprintf(utils.Output, "test loss: %.6f\n", testLoss)

	if err := showPredictions(model, data.TestX, data.TestY, *show); err != nil {
		return err
	}
	utils.PrintTimingStats(stats)
	return nil
}

func loadData(cfg *utils.Config, src rand.Source) (*dataset.Split, error) {
	if cfg.DataRoot != "" {
		data, err := dataset.LoadMNIST(cfg.DataRoot, cfg.OneHot)
		if err != nil {
			return nil, err
		}
		dataset.Normalize(data.TrainX, 255)
		dataset.Normalize(data.TestX, 255)
		return data, nil
	}

	features := cfg.Architecture[0].Units
	classes := cfg.Architecture[len(cfg.Architecture)-1].Units
	if utils.Verbose {
		fmt.Fprintf(utils.Output, "Generating %d synthetic samples...\n", cfg.Samples)
	}
	trainX, trainY := dataset.Separable(src, cfg.Samples, features, classes)
	testN := cfg.Samples / 5
	if testN == 0 {
		testN = 1
	}
	testX, testY := dataset.Separable(src, testN, features, classes)
	return &dataset.Split{TrainX: trainX, TrainY: trainY, TestX: testX, TestY: testY}, nil
}

func buildModel(specs []utils.LayerSpec, src rand.Source) (*nn.Sequential, error) {
	model := nn.NewSequential()
	for _, spec := range specs {
		var (
			layer nn.Layer
			err   error
		)
		switch spec.Kind {
		case utils.KindInput:
			layer, err = layers.NewInput(spec.Units)
		case utils.KindDense:
			layer, err = layers.NewDense(spec.Units, spec.Activation, spec.LearningRate, src)
		case utils.KindDropout:
			layer, err = layers.NewDropout(spec.Rate, src)
		default:
			err = fmt.Errorf("unknown layer kind %q", spec.Kind)
		}
		if err != nil {
			return nil, err
		}
		model.Add(layer)
	}
	return model, nil
}

func showPredictions(model *nn.Sequential, x, y *mat.Dense, n int) error {
	rows, _ := x.Dims()
	if n > rows {
		n = rows
	}
	if n <= 0 {
		return nil
	}
	head, err := tensor.RowBlock(x, 0, n)
	if err != nil {
		return err
	}
	pred, err := model.Predict(head)
	if err != nil {
		return err
	}
	want, err := tensor.RowBlock(y, 0, n)
	if err != nil {
		return err
	}
	got, truth := labels(pred), labels(want)
	fmt.Fprintf(utils.Output, "First %d test samples:\n", n)
	for i := range got {
		verdict := "correct"
		if got[i] != truth[i] {
			verdict = "WRONG"
		}
		fmt.Fprintf(utils.Output, "label: %d, pred: %d, %s\n", truth[i], got[i], verdict)
	}
	return nil
}

// labels reads class indices from one-hot rows or a scalar column.
func labels(m *mat.Dense) []int {
	if _, c := m.Dims(); c > 1 {
		return tensor.Argmax(m)
	}
	r, _ := m.Dims()
	out := make([]int, r)
	for i := range out {
		out[i] = int(m.At(i, 0) + 0.5)
	}
	return out
}

package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// Layer kinds produced by ParseArchitecture.
const (
	KindInput   = "input"
	KindDense   = "dense"
	KindDropout = "dropout"
)

// LayerSpec is one parsed entry of an architecture string.
type LayerSpec struct {
	Kind         string
	Units        int
	Activation   string
	LearningRate float64
	Rate         float64
}

// Config holds training configuration
type Config struct {
	Architecture []LayerSpec
	DataRoot     string
	OneHot       bool
	BatchSize    int
	Epochs       int
	LearningRate float64
	Loss         string
	Seed         uint64
	Samples      int
}

// ParseArchitecture parses an architecture string into layer specs.
//
// The first field is the input feature count. Each following field is
// either "units:activation[:lr]" for a Dense layer or "dropout:rate":
//
//	784 128:relu:0.2 dropout:0.5 10:softmax:0.05
func ParseArchitecture(archStr string) ([]LayerSpec, error) {
	fields := strings.Fields(archStr)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty architecture")
	}
	in, err := strconv.Atoi(fields[0])
	if err != nil || in <= 0 {
		return nil, fmt.Errorf("input size %q must be a positive integer", fields[0])
	}
	specs := []LayerSpec{{Kind: KindInput, Units: in}}
	for _, f := range fields[1:] {
		spec, err := parseLayer(f)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseLayer(f string) (LayerSpec, error) {
	parts := strings.Split(f, ":")
	if strings.EqualFold(parts[0], KindDropout) {
		if len(parts) != 2 {
			return LayerSpec{}, fmt.Errorf("dropout layer %q must be dropout:rate", f)
		}
		rate, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return LayerSpec{}, fmt.Errorf("dropout rate in %q: %w", f, err)
		}
		return LayerSpec{Kind: KindDropout, Rate: rate}, nil
	}
	if len(parts) > 3 {
		return LayerSpec{}, fmt.Errorf("dense layer %q must be units:activation[:lr]", f)
	}
	units, err := strconv.Atoi(parts[0])
	if err != nil {
		return LayerSpec{}, fmt.Errorf("units in %q: %w", f, err)
	}
	spec := LayerSpec{Kind: KindDense, Units: units, Activation: "linear"}
	if len(parts) > 1 {
		spec.Activation = strings.ToLower(parts[1])
	}
	if len(parts) > 2 {
		spec.LearningRate, err = strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return LayerSpec{}, fmt.Errorf("learning rate in %q: %w", f, err)
		}
	}
	return spec, nil
}

// ValidateConfig validates training configuration
func ValidateConfig(config *Config) error {
	if len(config.Architecture) < 2 {
		return fmt.Errorf("architecture must have at least 2 layers (input and output)")
	}

	if config.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}

	if config.Epochs < 0 {
		return fmt.Errorf("epochs must not be negative")
	}

	if config.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive")
	}

	if config.DataRoot == "" && config.Samples < config.BatchSize {
		return fmt.Errorf("synthetic samples (%d) must be at least the batch size (%d)", config.Samples, config.BatchSize)
	}

	return nil
}

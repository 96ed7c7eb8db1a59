package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArchitecture(t *testing.T) {
	specs, err := ParseArchitecture("784 128:relu:0.2 dropout:0.5 10:Softmax:0.05 3")
	require.NoError(t, err)
	assert.Equal(t, []LayerSpec{
		{Kind: KindInput, Units: 784},
		{Kind: KindDense, Units: 128, Activation: "relu", LearningRate: 0.2},
		{Kind: KindDropout, Rate: 0.5},
		{Kind: KindDense, Units: 10, Activation: "softmax", LearningRate: 0.05},
		{Kind: KindDense, Units: 3, Activation: "linear"},
	}, specs)
}

func TestParseArchitecture_Errors(t *testing.T) {
	for _, arch := range []string{
		"",
		"abc 10:relu",
		"0 10:relu",
		"784 x:relu",
		"784 10:relu:fast",
		"784 10:relu:0.1:extra",
		"784 dropout",
		"784 dropout:half",
	} {
		_, err := ParseArchitecture(arch)
		assert.Error(t, err, "%q", arch)
	}
}

func TestValidateConfig(t *testing.T) {
	specs, err := ParseArchitecture("4 3:softmax")
	require.NoError(t, err)
	valid := Config{Architecture: specs, BatchSize: 8, Epochs: 1, LearningRate: 0.1, Samples: 100}
	require.NoError(t, ValidateConfig(&valid))

	cases := map[string]func(c *Config){
		"single layer":      func(c *Config) { c.Architecture = c.Architecture[:1] },
		"zero batch":        func(c *Config) { c.BatchSize = 0 },
		"negative epochs":   func(c *Config) { c.Epochs = -1 },
		"zero rate":         func(c *Config) { c.LearningRate = 0 },
		"too few synthetic": func(c *Config) { c.Samples = 4 },
	}
	for name, mutate := range cases {
		c := valid
		mutate(&c)
		assert.Error(t, ValidateConfig(&c), name)
	}

	withData := valid
	withData.Samples = 0
	withData.DataRoot = "/data"
	assert.NoError(t, ValidateConfig(&withData))
}

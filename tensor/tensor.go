package tensor

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// EPS is the tolerance used when comparing labels and maxima.
const EPS = 1e-6

// Fill returns an r×c matrix with every element set to v.
func Fill(r, c int, v float64) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = v
	}
	return mat.NewDense(r, c, data)
}

// Ones returns an r×c matrix of ones.
func Ones(r, c int) *mat.Dense {
	return Fill(r, c, 1)
}

// Uniform returns an r×c matrix drawn from U(min, max) using src.
func Uniform(r, c int, min, max float64, src rand.Source) *mat.Dense {
	dist := distuv.Uniform{Min: min, Max: max, Src: src}
	data := make([]float64, r*c)
	for i := range data {
		data[i] = dist.Rand()
	}
	return mat.NewDense(r, c, data)
}

// SameShape reports whether a and b have identical dimensions.
func SameShape(a, b mat.Matrix) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	return ar == br && ac == bc
}

// RowBlock copies the contiguous rows [from, to) of m.
func RowBlock(m *mat.Dense, from, to int) (*mat.Dense, error) {
	r, c := m.Dims()
	if from < 0 || to > r || from >= to {
		return nil, fmt.Errorf("row block [%d, %d) out of range for %d rows", from, to, r)
	}
	return mat.DenseCopyOf(m.Slice(from, to, 0, c)), nil
}

// ColSum returns the 1×c row of column sums of m.
func ColSum(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(1, c, nil)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		out.Set(0, j, floats.Sum(col))
	}
	return out
}

// AddRowVector adds the 1×c row b to every row of m in place.
func AddRowVector(m *mat.Dense, b mat.Matrix) error {
	_, c := m.Dims()
	br, bc := b.Dims()
	if br != 1 || bc != c {
		return fmt.Errorf("cannot broadcast (%d, %d) over %d columns", br, bc, c)
	}
	m.Apply(func(_, j int, v float64) float64 {
		return v + b.At(0, j)
	}, m)
	return nil
}

// Clip returns a copy of m with every element clamped into [lo, hi].
func Clip(m mat.Matrix, lo, hi float64) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, _ int, v float64) float64 {
		return math.Min(math.Max(v, lo), hi)
	}, m)
	return out
}

// Argmax returns, per row of m, the index of the first maximal column.
func Argmax(m mat.Matrix) []int {
	r, c := m.Dims()
	out := make([]int, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		out[i] = floats.MaxIdx(row)
	}
	return out
}

// Accuracy compares predictions against ground truth.
// Multi-column inputs are treated as one-hot and compared by argmax.
// Single-column inputs are compared after rounding the prediction, which
// covers both sigmoid outputs against 0/1 targets and scalar class labels.
func Accuracy(pred, truth mat.Matrix) float64 {
	r, c := pred.Dims()
	if r == 0 {
		return 0
	}
	correct := 0
	if c > 1 {
		p, t := Argmax(pred), Argmax(truth)
		for i := range p {
			if p[i] == t[i] {
				correct++
			}
		}
	} else {
		for i := 0; i < r; i++ {
			if math.Abs(math.Round(pred.At(i, 0))-truth.At(i, 0)) < EPS {
				correct++
			}
		}
	}
	return float64(correct) / float64(r)
}

// ToCategorical one-hot encodes a column of integer labels.
func ToCategorical(labels mat.Matrix, numClasses int) (*mat.Dense, error) {
	r, _ := labels.Dims()
	out := mat.NewDense(r, numClasses, nil)
	for i := 0; i < r; i++ {
		k := int(labels.At(i, 0))
		if k < 0 || k >= numClasses {
			return nil, fmt.Errorf("label %d at row %d outside [0, %d)", k, i, numClasses)
		}
		out.Set(i, k, 1)
	}
	return out, nil
}

// Reshape reinterprets the row-major elements of m as an h×w matrix.
func Reshape(m mat.Matrix, h, w int) (*mat.Dense, error) {
	r, c := m.Dims()
	if h*w != r*c {
		return nil, fmt.Errorf("reshape: shape (%d, %d) cannot match size %d", h, w, r*c)
	}
	data := make([]float64, 0, r*c)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		data = append(data, mat.Row(row, i, m)...)
	}
	return mat.NewDense(h, w, data), nil
}

// Resize scales m to h×w by nearest-neighbour sampling.
func Resize(m mat.Matrix, h, w int) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(h, w, nil)
	for i := 0; i < h; i++ {
		x := i * r / h
		for j := 0; j < w; j++ {
			out.Set(i, j, m.At(x, j*c/w))
		}
	}
	return out
}

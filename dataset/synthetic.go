package dataset

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Synthetic draws n standard-normal samples with uniformly random one-hot
// labels, for exercising the trainer without data files.
func Synthetic(src rand.Source, n, features, classes int) (*mat.Dense, *mat.Dense) {
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	pick := rand.New(src)

	x := mat.NewDense(n, features, nil)
	y := mat.NewDense(n, classes, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < features; j++ {
			x.Set(i, j, norm.Rand())
		}
		y.Set(i, pick.Intn(classes), 1)
	}
	return x, y
}

// Separable draws n samples whose one-hot label is the index of the
// largest of the first `classes` features, so a small network can learn it.
func Separable(src rand.Source, n, features, classes int) (*mat.Dense, *mat.Dense) {
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	x := mat.NewDense(n, features, nil)
	y := mat.NewDense(n, classes, nil)
	for i := 0; i < n; i++ {
		best := 0
		for j := 0; j < features; j++ {
			v := norm.Rand()
			x.Set(i, j, v)
			if j < classes && v > x.At(i, best) {
				best = j
			}
		}
		y.Set(i, best, 1)
	}
	return x, y
}

// XORLike is a 4-sample binary classification set with a single 0/1
// target column.
func XORLike() (*mat.Dense, *mat.Dense) {
	x := mat.NewDense(4, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
	})
	y := mat.NewDense(4, 1, []float64{0, 1, 1, 0})
	return x, y
}

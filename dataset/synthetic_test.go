package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestSynthetic(t *testing.T) {
	x, y := Synthetic(rand.NewSource(1), 50, 6, 3)
	r, c := x.Dims()
	assert.Equal(t, [2]int{50, 6}, [2]int{r, c})
	r, c = y.Dims()
	assert.Equal(t, [2]int{50, 3}, [2]int{r, c})
	for i := 0; i < 50; i++ {
		assert.Equal(t, 1.0, floats.Sum(mat.Row(nil, i, y)))
	}
}

func TestSeparable_LabelIsArgmaxOfLeadingFeatures(t *testing.T) {
	x, y := Separable(rand.NewSource(2), 40, 5, 3)
	for i := 0; i < 40; i++ {
		lead := mat.Row(nil, i, x)[:3]
		label := floats.MaxIdx(mat.Row(nil, i, y))
		assert.Equal(t, floats.MaxIdx(lead), label, "row %d", i)
	}
}

func TestXORLike(t *testing.T) {
	x, y := XORLike()
	for i := 0; i < 4; i++ {
		want := 0.0
		if x.At(i, 0) != x.At(i, 1) {
			want = 1
		}
		assert.Equal(t, want, y.At(i, 0))
	}
}

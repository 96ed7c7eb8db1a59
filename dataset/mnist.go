package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const (
	// MNISTFeatures is the pixel count of a 28×28 digit.
	MNISTFeatures = 28 * 28
	// MNISTClasses is the number of digit labels.
	MNISTClasses = 10
)

// Split holds the four matrices consumed by training and evaluation.
type Split struct {
	TrainX, TrainY *mat.Dense
	TestX, TestY   *mat.Dense
}

// LoadMNIST reads mnist_train.csv and mnist_test.csv from dir. Each file
// starts with a header line; every record is the label followed by the
// pixel values. Labels are one-hot encoded when oneHot is set, otherwise
// kept as a single float column.
func LoadMNIST(dir string, oneHot bool) (*Split, error) {
	trainX, trainY, err := loadFile(filepath.Join(dir, "mnist_train.csv"), oneHot)
	if err != nil {
		return nil, err
	}
	testX, testY, err := loadFile(filepath.Join(dir, "mnist_test.csv"), oneHot)
	if err != nil {
		return nil, err
	}
	return &Split{TrainX: trainX, TrainY: trainY, TestX: testX, TestY: testY}, nil
}

func loadFile(path string, oneHot bool) (*mat.Dense, *mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open dataset: %w", err)
	}
	defer f.Close()
	x, y, err := ParseCSV(bufio.NewReader(f), MNISTFeatures, MNISTClasses, oneHot, true)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return x, y, nil
}

// ParseCSV reads label-first records of the given feature width. header
// skips the first line.
func ParseCSV(r io.Reader, features, classes int, oneHot, header bool) (*mat.Dense, *mat.Dense, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = features + 1
	cr.ReuseRecord = true

	if header {
		if _, err := cr.Read(); err != nil {
			return nil, nil, fmt.Errorf("reading header: %w", err)
		}
	}

	var xs, ys []float64
	rows := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		label, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: label: %w", rows+1, err)
		}
		if label < 0 || label >= classes {
			return nil, nil, fmt.Errorf("row %d: label %d outside [0, %d)", rows+1, label, classes)
		}
		if oneHot {
			row := make([]float64, classes)
			row[label] = 1
			ys = append(ys, row...)
		} else {
			ys = append(ys, float64(label))
		}
		for j, cell := range record[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d col %d: %w", rows+1, j+1, err)
			}
			xs = append(xs, v)
		}
		rows++
	}
	if rows == 0 {
		return nil, nil, fmt.Errorf("no records")
	}
	yCols := 1
	if oneHot {
		yCols = classes
	}
	return mat.NewDense(rows, features, xs), mat.NewDense(rows, yCols, ys), nil
}

// Normalize divides every element of m by scale in place, e.g. 255 for
// 8-bit pixels.
func Normalize(m *mat.Dense, scale float64) {
	m.Scale(1/scale, m)
}

package dataset

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Example is a single labeled feature vector.
type Example struct {
	Features []float64
	Label    int
}

// Dataset is an ordered, in-memory sequence of Examples.
type Dataset struct {
	inputs  int
	classes int
	x       *mat.Dense // nil when the dataset has no rows
	y       []int
}

// New builds a Dataset from raw rows of inputs+1 columns, the last column being
// the class label. The rows are copied.
func New(inputs, classes int, rows [][]float64) (*Dataset, error) {
	if inputs <= 0 {
		return nil, ErrInvalidInputs
	}
	d := &Dataset{
		inputs:  inputs,
		classes: classes,
		y:       make([]int, len(rows)),
	}
	if len(rows) == 0 {
		return d, nil
	}

	data := make([]float64, 0, len(rows)*inputs)
	for i, row := range rows {
		if len(row) != inputs+1 {
			return nil, &ErrDimensionMismatch{Row: i, Expected: inputs + 1, Actual: len(row)}
		}
		label, err := checkLabel(i, row[inputs], classes)
		if err != nil {
			return nil, err
		}
		data = append(data, row[:inputs]...)
		d.y[i] = label
	}
	d.x = mat.NewDense(len(rows), inputs, data)
	return d, nil
}

// FromExamples builds a Dataset from Examples. The feature vectors are copied.
func FromExamples(inputs, classes int, examples []Example) (*Dataset, error) {
	rows := make([][]float64, len(examples))
	for i, ex := range examples {
		row := make([]float64, 0, len(ex.Features)+1)
		row = append(row, ex.Features...)
		rows[i] = append(row, float64(ex.Label))
	}
	return New(inputs, classes, rows)
}

func checkLabel(row int, v float64, classes int) (int, error) {
	if v != math.Trunc(v) || v < 0 || v >= float64(classes) {
		return 0, &LabelError{Row: row, Value: v, Classes: classes}
	}
	return int(v), nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.y)
}

// Inputs returns the dimensionality of the feature vectors.
func (d *Dataset) Inputs() int {
	return d.inputs
}

// Classes returns the number of classes.
func (d *Dataset) Classes() int {
	return d.classes
}

// Row returns the feature vector of row i. The slice aliases the dataset
// storage and must not be modified.
func (d *Dataset) Row(i int) []float64 {
	return d.x.RawRowView(i)
}

// Label returns the class label of row i.
func (d *Dataset) Label(i int) int {
	return d.y[i]
}

// Example returns row i as an Example (features alias the dataset storage).
func (d *Dataset) Example(i int) Example {
	return Example{Features: d.Row(i), Label: d.y[i]}
}

// Rows returns all feature vectors in order. The slices alias the dataset
// storage.
func (d *Dataset) Rows() [][]float64 {
	rows := make([][]float64, d.Len())
	for i := range rows {
		rows[i] = d.Row(i)
	}
	return rows
}

// Labels returns the label column.
func (d *Dataset) Labels() []int {
	return d.y
}

// Slice returns the rows [from, to) as a Dataset sharing storage with d.
func (d *Dataset) Slice(from, to int) *Dataset {
	s := &Dataset{
		inputs:  d.inputs,
		classes: d.classes,
		y:       d.y[from:to:to],
	}
	if to > from {
		s.x = d.x.Slice(from, to, 0, d.inputs).(*mat.Dense)
	}
	return s
}

// Shuffle randomizes the row order in place with a Fisher-Yates pass driven by rng.
func (d *Dataset) Shuffle(rng *rand.Rand) {
	for i := 1; i < d.Len(); i++ {
		p := rng.Intn(i + 1)
		if p == i {
			continue
		}
		d.swap(i, p)
	}
}

func (d *Dataset) swap(i, j int) {
	ri, rj := d.x.RawRowView(i), d.x.RawRowView(j)
	for c := range ri {
		ri[c], rj[c] = rj[c], ri[c]
	}
	d.y[i], d.y[j] = d.y[j], d.y[i]
}

// SplitSizes returns the number of training and validation rows for a dataset
// of n rows when cvSplit percent is reserved for validation.
func SplitSizes(n, cvSplit int) (train, valid int) {
	train = n * (100 - cvSplit) / 100
	return train, n - train
}

// Split partitions the dataset into a training prefix and a validation suffix.
func (d *Dataset) Split(cvSplit int) (train, valid *Dataset, err error) {
	if cvSplit < 0 || cvSplit > 100 {
		return nil, nil, ErrInvalidSplit
	}
	n, _ := SplitSizes(d.Len(), cvSplit)
	return d.Slice(0, n), d.Slice(n, d.Len()), nil
}

// Package predictor applies a tuned classifier to a dataset split and measures
// its error rate.
package predictor

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/vecknn/classifier"
	"github.com/hupe1980/vecknn/dataset"
)

// cancelCheckInterval is the number of rows classified between context checks.
const cancelCheckInterval = 64

// RowSink receives each evaluated row with its predicted label.
type RowSink interface {
	WriteRow(features []float64, label int) error
}

// Result is the outcome of evaluating a split.
type Result struct {
	Split         string
	Param         classifier.Param
	Total         int
	Misclassified int
	ErrorRate     float64 // Misclassified / Total, 0 for an empty split
	Predictions   []int
	Errors        *roaring.Bitmap // row indices of misclassified rows
}

// Accuracy returns 1 - ErrorRate.
func (r *Result) Accuracy() float64 {
	return 1 - r.ErrorRate
}

func (r *Result) String() string {
	return fmt.Sprintf("%s: %d/%d misclassified (error %f)", r.Split, r.Misclassified, r.Total, r.ErrorRate)
}

// Evaluate classifies every row of split with p, compares each prediction with
// the row's label and, when sink is not nil, emits the row's features with the
// predicted label. It is deterministic for a fixed classifier and split.
func Evaluate(ctx context.Context, clf classifier.Classifier, p classifier.Param, split *dataset.Dataset, name string, sink RowSink) (*Result, error) {
	res := &Result{
		Split:       name,
		Param:       p,
		Total:       split.Len(),
		Predictions: make([]int, split.Len()),
		Errors:      roaring.New(),
	}

	for i := 0; i < split.Len(); i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row := split.Row(i)
		c := clf.Classify(row, p)
		res.Predictions[i] = c

		if c != split.Label(i) {
			res.Misclassified++
			res.Errors.Add(uint32(i))
		}

		if sink != nil {
			if err := sink.WriteRow(row, c); err != nil {
				return nil, fmt.Errorf("write prediction row %d: %w", i, err)
			}
		}
	}

	if res.Total > 0 {
		res.ErrorRate = float64(res.Misclassified) / float64(res.Total)
	}
	return res, nil
}

// ErrorRate is a convenience wrapper returning only the error rate of Evaluate.
func ErrorRate(ctx context.Context, clf classifier.Classifier, p classifier.Param, split *dataset.Dataset) (float64, error) {
	res, err := Evaluate(ctx, clf, p, split, "", nil)
	if err != nil {
		return 0, err
	}
	return res.ErrorRate, nil
}

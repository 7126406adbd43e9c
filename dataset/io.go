package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Read parses exactly rows CSV records of inputs+1 numeric columns from r. The
// last column is the class label. Extra records after rows are ignored.
func Read(r io.Reader, rows, inputs, classes int) (*Dataset, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	data := make([][]float64, 0, rows)
	for len(data) < rows {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: read %d of %d", ErrShortData, len(data), rows)
		}
		if err != nil {
			return nil, err
		}
		if len(rec) != inputs+1 {
			return nil, &ErrDimensionMismatch{Row: len(data), Expected: inputs + 1, Actual: len(rec)}
		}

		row := make([]float64, len(rec))
		for j, s := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %d: %w", len(data), j, err)
			}
			row[j] = v
		}
		data = append(data, row)
	}

	return New(inputs, classes, data)
}

// PredictionWriter writes rows of features followed by a predicted label, one
// row per line: every feature formatted like %f and a trailing comma, then the
// integer label.
type PredictionWriter struct {
	w   *bufio.Writer
	buf []byte
}

// NewPredictionWriter creates a PredictionWriter on top of w.
func NewPredictionWriter(w io.Writer) *PredictionWriter {
	return &PredictionWriter{w: bufio.NewWriter(w)}
}

// WriteRow writes one prediction row.
func (pw *PredictionWriter) WriteRow(features []float64, label int) error {
	b := pw.buf[:0]
	for _, v := range features {
		b = strconv.AppendFloat(b, v, 'f', 6, 64)
		b = append(b, ',')
	}
	b = strconv.AppendInt(b, int64(label), 10)
	b = append(b, '\n')
	pw.buf = b

	_, err := pw.w.Write(b)
	return err
}

// Flush writes any buffered data to the underlying writer.
func (pw *PredictionWriter) Flush() error {
	return pw.w.Flush()
}

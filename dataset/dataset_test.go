package dataset

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	d, err := New(2, 2, [][]float64{
		{0, 0, 0},
		{1, 1, 1},
		{2, 2, 1},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, d.Len())
	assert.Equal(t, 2, d.Inputs())
	assert.Equal(t, 2, d.Classes())
	assert.Equal(t, []float64{1, 1}, d.Row(1))
	assert.Equal(t, 1, d.Label(2))
	assert.Equal(t, Example{Features: []float64{2, 2}, Label: 1}, d.Example(2))
	assert.Equal(t, []int{0, 1, 1}, d.Labels())
}

func TestNew_Errors(t *testing.T) {
	t.Run("LabelOutOfRange", func(t *testing.T) {
		_, err := New(1, 2, [][]float64{{0, 2}})
		assert.ErrorIs(t, err, ErrInvalidLabel)

		var le *LabelError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, 0, le.Row)
	})

	t.Run("NegativeLabel", func(t *testing.T) {
		_, err := New(1, 2, [][]float64{{0, -1}})
		assert.ErrorIs(t, err, ErrInvalidLabel)
	})

	t.Run("FractionalLabel", func(t *testing.T) {
		_, err := New(1, 3, [][]float64{{0, 1.5}})
		assert.ErrorIs(t, err, ErrInvalidLabel)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := New(2, 2, [][]float64{{0, 0, 0}, {1, 1}})
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 1, dm.Row)
		assert.Equal(t, 3, dm.Expected)
		assert.Equal(t, 2, dm.Actual)
	})

	t.Run("NoInputs", func(t *testing.T) {
		_, err := New(0, 2, nil)
		assert.ErrorIs(t, err, ErrInvalidInputs)
	})
}

func TestFromExamples(t *testing.T) {
	d, err := FromExamples(2, 3, []Example{
		{Features: []float64{1, 2}, Label: 2},
		{Features: []float64{3, 4}, Label: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, d.Rows())
	assert.Equal(t, []int{2, 0}, d.Labels())
}

func TestSplit(t *testing.T) {
	rows := make([][]float64, 10)
	for i := range rows {
		rows[i] = []float64{float64(i), 0}
	}
	d, err := New(1, 1, rows)
	require.NoError(t, err)

	train, valid, err := d.Split(20)
	require.NoError(t, err)
	assert.Equal(t, 8, train.Len())
	assert.Equal(t, 2, valid.Len())
	assert.Equal(t, []float64{8}, valid.Row(0))
	assert.Equal(t, []float64{7}, train.Row(7))

	train, valid, err = d.Split(0)
	require.NoError(t, err)
	assert.Equal(t, 10, train.Len())
	assert.Equal(t, 0, valid.Len())

	train, valid, err = d.Split(100)
	require.NoError(t, err)
	assert.Equal(t, 0, train.Len())
	assert.Equal(t, 10, valid.Len())

	_, _, err = d.Split(101)
	assert.ErrorIs(t, err, ErrInvalidSplit)
}

func TestSplitSizes(t *testing.T) {
	train, valid := SplitSizes(7, 20)
	assert.Equal(t, 5, train)
	assert.Equal(t, 2, valid)
}

func TestShuffle(t *testing.T) {
	rows := make([][]float64, 50)
	for i := range rows {
		rows[i] = []float64{float64(i), float64(i % 3)}
	}
	a, err := New(1, 3, rows)
	require.NoError(t, err)
	b, err := New(1, 3, rows)
	require.NoError(t, err)

	a.Shuffle(rand.New(rand.NewSource(3)))
	b.Shuffle(rand.New(rand.NewSource(3)))

	assert.Equal(t, a.Rows(), b.Rows())

	before := make([][]float64, len(rows))
	for i := range rows {
		before[i] = rows[i][:1]
	}
	assert.NotEqual(t, before, a.Rows())

	// Labels travel with their rows.
	seen := make(map[float64]bool)
	for i := 0; i < a.Len(); i++ {
		v := a.Row(i)[0]
		seen[v] = true
		assert.Equal(t, int(v)%3, a.Label(i))
	}
	assert.Len(t, seen, 50)
}

func TestRead(t *testing.T) {
	in := "0.5,1,0\n1.5, 2,1\n\n3,4,1\nignored,row,0\n"

	d, err := Read(strings.NewReader(in), 3, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, []float64{1.5, 2}, d.Row(1))
	assert.Equal(t, []int{0, 1, 1}, d.Labels())
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(strings.NewReader("1,0\n"), 2, 1, 2)
	assert.ErrorIs(t, err, ErrShortData)

	_, err = Read(strings.NewReader("1,2,0\n"), 1, 1, 2)
	var dm *ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)

	_, err = Read(strings.NewReader("x,0\n"), 1, 1, 2)
	assert.Error(t, err)

	_, err = Read(strings.NewReader("1,5\n"), 1, 1, 2)
	assert.ErrorIs(t, err, ErrInvalidLabel)
}

func TestPredictionWriter(t *testing.T) {
	var buf bytes.Buffer
	pw := NewPredictionWriter(&buf)

	require.NoError(t, pw.WriteRow([]float64{1, -0.25}, 1))
	require.NoError(t, pw.WriteRow([]float64{3.1234567}, 0))
	require.NoError(t, pw.Flush())

	assert.Equal(t, "1.000000,-0.250000,1\n3.123457,0\n", buf.String())
}

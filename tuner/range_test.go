package tuner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKRange(t *testing.T) {
	r, err := ParseKRange("3..7")
	require.NoError(t, err)
	assert.Equal(t, KRange{Min: 3, Max: 7}, r)
	assert.Equal(t, "3..7", r.String())

	for _, bad := range []string{"3", "3..x", "a..7", "1..2..3", ""} {
		_, err := ParseKRange(bad)
		assert.ErrorIs(t, err, ErrInvalidRange, bad)
	}
}

func TestKRange(t *testing.T) {
	assert.NoError(t, KRange{Min: 1, Max: 1}.Validate())
	assert.ErrorIs(t, KRange{Min: 0, Max: 3}.Validate(), ErrInvalidRange)
	assert.ErrorIs(t, KRange{Min: 5, Max: 3}.Validate(), ErrInvalidRange)

	assert.True(t, KRange{Min: 4, Max: 4}.Degenerate())
	assert.False(t, DefaultKRange.Degenerate())
	assert.Equal(t, []int{3, 4, 5, 6, 7}, DefaultKRange.Values())
	assert.Nil(t, KRange{Min: 5, Max: 3}.Values())
}

func TestParseDRange(t *testing.T) {
	r, err := ParseDRange("0.5..0.25..2")
	require.NoError(t, err)
	assert.Equal(t, DRange{Min: 0.5, Step: 0.25, Max: 2}, r)
	assert.Equal(t, "0.5..0.25..2", r.String())

	for _, bad := range []string{"1..2", "1..x..2", "1..2..3..4"} {
		_, err := ParseDRange(bad)
		assert.ErrorIs(t, err, ErrInvalidRange, bad)
	}

	// strconv accepts these; Validate must not.
	for _, nonFinite := range []string{"0..1..Inf", "0..NaN..1", "-Inf..1..0", "NaN..1..NaN", "0..Inf..1"} {
		r, err := ParseDRange(nonFinite)
		require.NoError(t, err, nonFinite)
		assert.ErrorIs(t, r.Validate(), ErrInvalidRange, nonFinite)
		assert.Nil(t, r.Values(), nonFinite)
	}
}

func TestDRange(t *testing.T) {
	t.Run("Values", func(t *testing.T) {
		got := DRange{Min: 0.1, Step: 0.1, Max: 0.3}.Values()
		require.Len(t, got, 3)
		assert.InDeltaSlice(t, []float64{0.1, 0.2, 0.3}, got, 1e-12)
	})

	t.Run("MaxNotOnGrid", func(t *testing.T) {
		got := DRange{Min: 1, Step: 0.4, Max: 2}.Values()
		assert.InDeltaSlice(t, []float64{1, 1.4, 1.8}, got, 1e-12)
	})

	t.Run("Degenerate", func(t *testing.T) {
		r := DRange{Min: 2, Max: 2}
		assert.True(t, r.Degenerate())
		assert.NoError(t, r.Validate())
		assert.Equal(t, []float64{2}, r.Values())
	})

	t.Run("Invalid", func(t *testing.T) {
		assert.ErrorIs(t, DRange{Min: 1, Step: 0, Max: 2}.Validate(), ErrInvalidRange)
		assert.ErrorIs(t, DRange{Min: 1, Step: -1, Max: 2}.Validate(), ErrInvalidRange)
		assert.ErrorIs(t, DRange{Min: 3, Step: 1, Max: 2}.Validate(), ErrInvalidRange)
		assert.Nil(t, DRange{Min: 1, Step: 0, Max: 2}.Values())
	})

	t.Run("NonFinite", func(t *testing.T) {
		tests := []DRange{
			{Min: 0, Step: 1, Max: math.Inf(1)},
			{Min: 0, Step: math.NaN(), Max: 1},
			{Min: math.NaN(), Step: 1, Max: 1},
			{Min: math.Inf(-1), Step: 1, Max: 0},
			{Min: 0, Step: math.Inf(1), Max: 1},
			{Min: math.NaN(), Step: 0, Max: math.NaN()},
		}
		for _, r := range tests {
			assert.ErrorIs(t, r.Validate(), ErrInvalidRange, r.String())
			assert.Nil(t, r.Values(), r.String())
		}
	})

	t.Run("TooManyValues", func(t *testing.T) {
		r := DRange{Min: 0, Step: 1e-9, Max: 1}
		assert.ErrorIs(t, r.Validate(), ErrInvalidRange)
		assert.Nil(t, r.Values())

		r = DRange{Min: 0, Step: 1, Max: MaxDValues - 1}
		assert.NoError(t, r.Validate())
		assert.Len(t, r.Values(), MaxDValues)
	})
}

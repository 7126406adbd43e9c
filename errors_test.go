package vecknn

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hupe1980/vecknn/blobstore"
	"github.com/hupe1980/vecknn/config"
	"github.com/hupe1980/vecknn/dataset"
	"github.com/hupe1980/vecknn/tuner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"NotFound", fmt.Errorf("open: %w", blobstore.ErrNotFound), ErrNotFound},
		{"NoValidation", tuner.ErrNoValidation, ErrNoValidation},
		{"InvalidRange", fmt.Errorf("k: %w", tuner.ErrInvalidRange), ErrInvalidConfig},
		{"Config", config.ErrInvalidConfig, ErrInvalidConfig},
		{"Split", dataset.ErrInvalidSplit, ErrInvalidConfig},
		{"Inputs", dataset.ErrInvalidInputs, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	t.Run("DimensionMismatch", func(t *testing.T) {
		src := fmt.Errorf("load: %w", &dataset.ErrDimensionMismatch{Row: 4, Expected: 5, Actual: 3})

		var dm *ErrDimensionMismatch
		require.True(t, errors.As(translateError(src), &dm))
		assert.Equal(t, 4, dm.Row)
		assert.Equal(t, 5, dm.Expected)
		assert.Equal(t, 3, dm.Actual)
		assert.Equal(t, src, errors.Unwrap(dm))
	})

	t.Run("InvalidLabel", func(t *testing.T) {
		got := translateError(&dataset.LabelError{Row: 2, Value: 1.5, Classes: 3})

		var le *ErrInvalidLabel
		require.True(t, errors.As(got, &le))
		assert.Equal(t, 2, le.Row)
		assert.Equal(t, 1.5, le.Value)
		assert.ErrorIs(t, got, ErrInvalidConfig)
		assert.ErrorIs(t, got, dataset.ErrInvalidLabel)
		assert.Contains(t, got.Error(), "row 2")
	})

	t.Run("PassThrough", func(t *testing.T) {
		src := errors.New("disk on fire")
		assert.Equal(t, src, translateError(src))
	})
}

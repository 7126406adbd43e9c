package vecknn

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/vecknn/blobstore"
	"github.com/hupe1980/vecknn/config"
	"github.com/hupe1980/vecknn/dataset"
	"github.com/hupe1980/vecknn/internal/compress"
	"github.com/hupe1980/vecknn/testutil"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	separablePatterns = "0,0,0\n0.1,0,0\n5,5,1\n5.1,5,1\n"
	separableTests    = "0.05,0,0\n5.05,5,1\n"
)

func newConfig(t *testing.T, mutate func(*config.Config)) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Inputs:      2,
		Classes:     2,
		Patterns:    4,
		Tests:       2,
		Seed:        1,
		SeedSet:     true,
		Split:       0,
		K:           "1..1",
		Parallelism: 1,
	}
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func separableStore() *blobstore.MemoryStore {
	s := blobstore.NewMemoryStore()
	s.Put("sep.in", []byte(separablePatterns))
	s.Put("sep.test", []byte(separableTests))
	return s
}

// clusterStore holds 40 patterns and 10 tests of two well separated classes.
func clusterStore() *blobstore.MemoryStore {
	rng := testutil.NewRNG(7)
	s := blobstore.NewMemoryStore()
	s.Put("clu.in", []byte(testutil.CSV(rng.Clusters(20, 3, 2, 0.5, 50))))
	s.Put("clu.test", []byte(testutil.CSV(rng.Clusters(5, 3, 2, 0.5, 50))))
	return s
}

func clusterConfig(t *testing.T, mutate func(*config.Config)) *config.Config {
	return newConfig(t, func(c *config.Config) {
		c.Inputs = 3
		c.Patterns = 40
		c.Tests = 10
		c.Split = 25
		c.K = "1..5"
		if mutate != nil {
			mutate(c)
		}
	})
}

func TestStem(t *testing.T) {
	tests := []struct {
		arg   string
		stem  string
		codec compress.Codec
	}{
		{"iris", "iris", compress.None},
		{"iris.in", "iris", compress.None},
		{"data/iris.in", "data/iris", compress.None},
		{"iris.in.zst", "iris", compress.ZSTD},
		{"iris.in.lz4", "iris", compress.LZ4},
		{"iris.test", "iris.test", compress.None},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			stem, codec := Stem(tt.arg)
			assert.Equal(t, tt.stem, stem)
			assert.Equal(t, tt.codec, codec)
		})
	}
}

func TestRun_Separable(t *testing.T) {
	store := separableStore()
	r := New(WithStore(store))

	rep, err := r.Run(context.Background(), "sep", newConfig(t, nil))
	require.NoError(t, err)

	assert.False(t, rep.Selection.Swept)
	assert.True(t, math.IsNaN(rep.Selection.Error))
	assert.Equal(t, 1, rep.Selection.Param.K)

	assert.Equal(t, 4, rep.Train.Total)
	assert.Equal(t, 0.0, rep.Train.ErrorRate)
	assert.Nil(t, rep.Valid)
	require.NotNil(t, rep.Test)
	assert.Equal(t, 0, rep.Test.Misclassified)
	assert.Equal(t, []int{0, 1}, rep.Test.Predictions)

	assert.Equal(t, "sep.predic", rep.PredictionFile)
	predic, ok := store.Get("sep.predic")
	require.True(t, ok)
	assert.Equal(t, "0.050000,0.000000,0\n5.050000,5.000000,1\n", string(predic))

	var buf bytes.Buffer
	n, err := rep.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "Total patterns = 4\n"+
		"Train patterns = 4\n"+
		"Validation patterns = 0\n"+
		"Error on TRAIN:\t0.000000\n"+
		"Error on TEST:\t0.000000\n", buf.String())
}

func TestRun_SweepK(t *testing.T) {
	store := clusterStore()
	r := New(WithStore(store), WithParallelism(3))

	rep, err := r.Run(context.Background(), "clu", clusterConfig(t, nil))
	require.NoError(t, err)

	assert.True(t, rep.Selection.Swept)
	assert.Equal(t, 1, rep.Selection.Param.K)
	assert.Equal(t, 0.0, rep.Selection.Error)
	assert.Len(t, rep.Selection.Trials, 5)

	assert.Equal(t, 30, rep.Train.Total)
	require.NotNil(t, rep.Valid)
	assert.Equal(t, 10, rep.Valid.Total)
	assert.Equal(t, 0.0, rep.Valid.ErrorRate)
	assert.Equal(t, 0.0, rep.Test.ErrorRate)

	var buf bytes.Buffer
	_, err = rep.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Train patterns = 30\nValidation patterns = 10\nbest K = 1\n")
	assert.Contains(t, buf.String(), "Error on VALID:\t0.000000\n")
}

func TestRun_ClampsK(t *testing.T) {
	r := New(WithStore(clusterStore()))

	rep, err := r.Run(context.Background(), "clu", clusterConfig(t, func(c *config.Config) {
		c.K = "1..100"
		c.Tests = 0
	}))
	require.NoError(t, err)

	assert.Len(t, rep.Selection.Trials, 30)
	assert.Nil(t, rep.Test)
	assert.Empty(t, rep.PredictionFile)

	var buf bytes.Buffer
	_, err = rep.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "best K = ")
	assert.NotContains(t, buf.String(), "Error on TEST")

	t.Run("CollapsedRange", func(t *testing.T) {
		rep, err := New(WithStore(clusterStore())).Run(context.Background(), "clu", clusterConfig(t, func(c *config.Config) {
			c.K = "30..40"
		}))
		require.NoError(t, err)

		assert.True(t, rep.Selection.Swept)
		assert.Equal(t, 30, rep.Selection.Param.K)
		assert.Len(t, rep.Selection.Trials, 1)

		var buf bytes.Buffer
		_, err = rep.WriteTo(&buf)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "Validation patterns = 10\nbest K = 30\n")
	})
}

func TestRun_Ball(t *testing.T) {
	r := New(WithStore(clusterStore()))

	rep, err := r.Run(context.Background(), "clu", clusterConfig(t, func(c *config.Config) {
		c.Ball = true
		c.D = "0.5..0.5..2"
	}))
	require.NoError(t, err)

	assert.True(t, rep.Selection.Swept)
	assert.InDelta(t, 0.5, rep.Selection.Param.D, 1e-12)
	assert.Len(t, rep.Selection.Trials, 4)
	assert.Equal(t, 0.0, rep.Valid.ErrorRate)

	var buf bytes.Buffer
	_, err = rep.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "best D = 0.500000\n")
	assert.NotContains(t, buf.String(), "best K")
}

func TestRun_BallNestedK(t *testing.T) {
	cfg := clusterConfig(t, func(c *config.Config) {
		c.Ball = true
		c.D = "0.5..0.5..2"
	})

	flat, err := New(WithStore(clusterStore())).Run(context.Background(), "clu", cfg)
	require.NoError(t, err)
	nested, err := New(WithStore(clusterStore()), WithNestedK(true)).Run(context.Background(), "clu", cfg)
	require.NoError(t, err)

	assert.Equal(t, flat.Selection.Param, nested.Selection.Param)
	assert.Len(t, nested.Selection.Trials, 4*5)
}

func TestRun_Deterministic(t *testing.T) {
	cfg := clusterConfig(t, func(c *config.Config) {
		c.Seed = 99
		c.Split = 50
	})

	a, err := New(WithStore(clusterStore())).Run(context.Background(), "clu", cfg)
	require.NoError(t, err)
	b, err := New(WithStore(clusterStore()), WithPruning(false)).Run(context.Background(), "clu", cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Selection, b.Selection)
	assert.Equal(t, a.Train.Predictions, b.Train.Predictions)
	assert.Equal(t, a.Valid.Predictions, b.Valid.Predictions)
	assert.Equal(t, a.Test.Predictions, b.Test.Predictions)
}

func TestRun_WallClockSeed(t *testing.T) {
	cfg := newConfig(t, func(c *config.Config) {
		c.Seed = 0
		c.SeedSet = false
	})
	r := New(WithStore(separableStore()), WithClock(func() time.Time { return time.Unix(0, 42) }))

	rep, err := r.Run(context.Background(), "sep", cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(42), rep.Seed)
}

func TestRun_Compressed(t *testing.T) {
	compressed := func(t *testing.T, c compress.Codec, data string) []byte {
		t.Helper()
		var buf closeBuffer
		w, err := compress.NewWriter(&buf, c)
		require.NoError(t, err)
		_, err = io.WriteString(w, data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		return buf.Bytes()
	}
	decompressed := func(t *testing.T, c compress.Codec, data []byte) string {
		t.Helper()
		r, err := compress.NewReader(io.NopCloser(bytes.NewReader(data)), c)
		require.NoError(t, err)
		defer r.Close()
		out, err := io.ReadAll(r)
		require.NoError(t, err)
		return string(out)
	}

	t.Run("Option", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		store.Put("sep.in.zst", compressed(t, compress.ZSTD, separablePatterns))
		store.Put("sep.test.zst", compressed(t, compress.ZSTD, separableTests))

		rep, err := New(WithStore(store), WithCodec(compress.ZSTD)).Run(context.Background(), "sep", newConfig(t, nil))
		require.NoError(t, err)
		assert.Equal(t, "sep.predic.zst", rep.PredictionFile)

		predic, ok := store.Get("sep.predic.zst")
		require.True(t, ok)
		assert.Equal(t, "0.050000,0.000000,0\n5.050000,5.000000,1\n", decompressed(t, compress.ZSTD, predic))
	})

	t.Run("ConfigOverridesOption", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		store.Put("sep.in.lz4", compressed(t, compress.LZ4, separablePatterns))
		store.Put("sep.test.lz4", compressed(t, compress.LZ4, separableTests))

		cfg := newConfig(t, func(c *config.Config) { c.Compress = "lz4" })
		rep, err := New(WithStore(store), WithCodec(compress.ZSTD)).Run(context.Background(), "sep", cfg)
		require.NoError(t, err)

		predic, ok := store.Get(rep.PredictionFile)
		require.True(t, ok)
		assert.Equal(t, "0.050000,0.000000,0\n5.050000,5.000000,1\n", decompressed(t, compress.LZ4, predic))
	})
}

func TestRun_Errors(t *testing.T) {
	t.Run("NoValidation", func(t *testing.T) {
		cfg := newConfig(t, func(c *config.Config) { c.K = "1..3" })
		_, err := New(WithStore(separableStore())).Run(context.Background(), "sep", cfg)
		assert.ErrorIs(t, err, ErrNoValidation)
	})

	t.Run("NoValidationBall", func(t *testing.T) {
		cfg := newConfig(t, func(c *config.Config) {
			c.Ball = true
			c.D = "0.1..0.1..0.5"
		})
		_, err := New(WithStore(separableStore())).Run(context.Background(), "sep", cfg)
		assert.ErrorIs(t, err, ErrNoValidation)
	})

	t.Run("NilConfig", func(t *testing.T) {
		_, err := New(WithStore(separableStore())).Run(context.Background(), "sep", nil)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("InvalidRange", func(t *testing.T) {
		cfg := newConfig(t, nil)
		cfg.K = "5..1"
		_, err := New(WithStore(separableStore())).Run(context.Background(), "sep", cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := New(WithStore(blobstore.NewMemoryStore())).Run(context.Background(), "sep", newConfig(t, nil))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ShortData", func(t *testing.T) {
		cfg := newConfig(t, func(c *config.Config) { c.Patterns = 10 })
		_, err := New(WithStore(separableStore())).Run(context.Background(), "sep", cfg)
		assert.ErrorIs(t, err, dataset.ErrShortData)
	})

	t.Run("InvalidLabel", func(t *testing.T) {
		store := separableStore()
		store.Put("sep.test", []byte("0.05,0,0\n5.05,5,7\n"))

		_, err := New(WithStore(store)).Run(context.Background(), "sep", newConfig(t, nil))
		var le *ErrInvalidLabel
		require.True(t, errors.As(err, &le))
		assert.Equal(t, 1, le.Row)
		assert.Equal(t, 7.0, le.Value)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		store := separableStore()
		store.Put("sep.in", []byte("0,0,0\n0.1,0\n5,5,1\n5.1,5,1\n"))

		_, err := New(WithStore(store)).Run(context.Background(), "sep", newConfig(t, nil))
		var dm *ErrDimensionMismatch
		require.True(t, errors.As(err, &dm))
		assert.Equal(t, 1, dm.Row)
		assert.Equal(t, 3, dm.Expected)
		assert.Equal(t, 2, dm.Actual)
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(WithStore(separableStore())).Run(ctx, "sep", newConfig(t, nil))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// cancelOnEvaluate cancels the run once the given split was evaluated.
type cancelOnEvaluate struct {
	NoopMetricsCollector
	split  string
	cancel context.CancelFunc
}

func (c *cancelOnEvaluate) RecordEvaluate(split string, _, _ int, _ time.Duration) {
	if split == c.split {
		c.cancel()
	}
}

func TestRun_FailedRunKeepsPredictions(t *testing.T) {
	const previous = "1.000000,1.000000,1\n"

	t.Run("Memory", func(t *testing.T) {
		store := separableStore()
		store.Put("sep.predic", []byte(previous))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		metrics := &cancelOnEvaluate{split: SplitTrain, cancel: cancel}

		_, err := New(WithStore(store), WithMetricsCollector(metrics)).Run(ctx, "sep", newConfig(t, nil))
		require.ErrorIs(t, err, context.Canceled)

		predic, ok := store.Get("sep.predic")
		require.True(t, ok)
		assert.Equal(t, previous, string(predic))
	})

	t.Run("MemoryNoPrevious", func(t *testing.T) {
		store := separableStore()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		metrics := &cancelOnEvaluate{split: SplitTrain, cancel: cancel}

		_, err := New(WithStore(store), WithMetricsCollector(metrics)).Run(ctx, "sep", newConfig(t, nil))
		require.ErrorIs(t, err, context.Canceled)

		_, ok := store.Get("sep.predic")
		assert.False(t, ok)
	})

	t.Run("LocalWriteError", func(t *testing.T) {
		dir := t.TempDir()
		for name, content := range map[string]string{
			"sep.in":     separablePatterns,
			"sep.test":   separableTests,
			"sep.predic": previous,
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
		}

		store := failingWrites{blobstore.NewLocalStore(dir)}
		_, err := New(WithStore(store)).Run(context.Background(), "sep", newConfig(t, nil))
		require.ErrorIs(t, err, errDiskFull)

		predic, err := os.ReadFile(filepath.Join(dir, "sep.predic"))
		require.NoError(t, err)
		assert.Equal(t, previous, string(predic))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 3, "no temporary file is left behind")
	})
}

var errDiskFull = errors.New("disk full")

// failingWrites wraps a store so that every write to a created blob fails.
type failingWrites struct {
	*blobstore.LocalStore
}

func (s failingWrites) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	w, err := s.LocalStore.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return failingBlob{w}, nil
}

type failingBlob struct {
	blobstore.WritableBlob
}

func (failingBlob) Write([]byte) (int, error) { return 0, errDiskFull }

func TestRun_LogFields(t *testing.T) {
	var buf bytes.Buffer
	r := New(WithStore(clusterStore()), WithLogger(bufferLogger(&buf)))

	_, err := r.Run(context.Background(), "clu", clusterConfig(t, nil))
	require.NoError(t, err)

	var evaluated int
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "run started") {
			assert.Contains(t, line, "stem=clu")
			assert.Contains(t, line, "dimension=3")
		}
		if strings.Contains(line, "evaluate completed") {
			evaluated++
			assert.Contains(t, line, "k=1")
			assert.Contains(t, line, "dimension=3")
		}
	}
	assert.Equal(t, 3, evaluated)
}

func TestRun_Metrics(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	r := New(WithStore(separableStore()), WithMetricsCollector(metrics))

	_, err := r.Run(context.Background(), "sep", newConfig(t, nil))
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.LoadCount)
	assert.Equal(t, int64(6), stats.LoadRows)
	assert.Equal(t, int64(1), stats.SweepCount)
	assert.Equal(t, int64(0), stats.SweepTrials)
	assert.Equal(t, int64(2), stats.EvaluateCount)
	assert.Equal(t, int64(6), stats.EvaluateRows)
	assert.Equal(t, int64(0), stats.Misclassified)
	assert.Positive(t, stats.DistancesTotal)
}

func TestLoadConfig(t *testing.T) {
	t.Run("File", func(t *testing.T) {
		store := separableStore()
		store.Put("sep.cfg", []byte("inputs=2\nclasses=2\npatterns=4\ntests=2\nseed=1\nsplit=0\nk=1..1\n"))
		r := New(WithStore(store))

		cfg, err := r.LoadConfig(context.Background(), "sep", nil)
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Patterns)
		assert.True(t, cfg.SeedSet)

		rep, err := r.Run(context.Background(), "sep", cfg)
		require.NoError(t, err)
		assert.Equal(t, 0.0, rep.Test.ErrorRate)
	})

	t.Run("FlagsWithoutFile", func(t *testing.T) {
		fs := pflag.NewFlagSet("vecknn", pflag.ContinueOnError)
		config.RegisterFlags(fs)
		require.NoError(t, fs.Parse([]string{"--inputs=2", "--classes=2", "--patterns=4", "--split=0", "--k=1..1"}))

		cfg, err := New(WithStore(separableStore())).LoadConfig(context.Background(), "sep", fs)
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Inputs)
		assert.Equal(t, 0, cfg.Tests)
		assert.False(t, cfg.SeedSet)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		store := separableStore()
		store.Put("sep.cfg", []byte("inputs=2\nclasses=2\npatterns=4\nbogus=1\n"))

		_, err := New(WithStore(store)).LoadConfig(context.Background(), "sep", nil)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.True(t, strings.Contains(err.Error(), "bogus"))
	})
}

type closeBuffer struct {
	bytes.Buffer
}

func (b *closeBuffer) Close() error { return nil }

package vecknn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/hupe1980/vecknn/blobstore"
	"github.com/hupe1980/vecknn/classifier"
	"github.com/hupe1980/vecknn/config"
	"github.com/hupe1980/vecknn/dataset"
	"github.com/hupe1980/vecknn/internal/compress"
	"github.com/hupe1980/vecknn/predictor"
	"github.com/hupe1980/vecknn/tuner"
	"github.com/spf13/pflag"
)

// File suffixes of a run.
const (
	SuffixConfig      = ".cfg"
	SuffixPatterns    = ".in"
	SuffixTests       = ".test"
	SuffixPredictions = ".predic"
)

// Split names used in reports, logs and metrics.
const (
	SplitTrain = "TRAIN"
	SplitValid = "VALID"
	SplitTest  = "TEST"
)

// Runner loads a dataset, tunes a classifier on it and evaluates the result.
type Runner struct {
	opts options
}

// New creates a Runner.
func New(optFns ...Option) *Runner {
	return &Runner{opts: applyOptions(optFns)}
}

// Stem strips a compression suffix and then the ".in" suffix from a command
// line argument. The returned codec is None when arg has no known compression
// suffix.
func Stem(arg string) (string, compress.Codec) {
	c := compress.Detect(arg)
	stem := strings.TrimSuffix(arg, c.Suffix())
	return strings.TrimSuffix(stem, SuffixPatterns), c
}

// LoadConfig reads `<stem>.cfg` from the store and overlays the environment
// and the flags changed in fs. A missing cfg file is not an error; fs may be
// nil.
func (r *Runner) LoadConfig(ctx context.Context, stem string, fs *pflag.FlagSet) (*config.Config, error) {
	rc, err := blobstore.OpenReader(ctx, r.opts.store, stem+SuffixConfig)
	if errors.Is(err, blobstore.ErrNotFound) {
		cfg, err := config.Load(nil, fs)
		return cfg, translateError(err)
	}
	if err != nil {
		return nil, translateError(err)
	}
	defer rc.Close()

	cfg, err := config.Load(rc, fs)
	return cfg, translateError(err)
}

// Report is the outcome of a run.
type Report struct {
	Stem     string
	Config   *config.Config
	Strategy classifier.Strategy
	Seed     int64

	// Selection holds the chosen K or D and the sweep trials.
	Selection *tuner.Selection

	Train *predictor.Result
	Valid *predictor.Result // nil when the validation split is 0
	Test  *predictor.Result // nil when no test patterns are configured

	// PredictionFile names the written predictions, empty without tests.
	PredictionFile string
}

// WriteTo prints the pattern counts, the selected parameter and the error of
// every evaluated split.
func (rep *Report) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Total patterns = %d\n", rep.Config.Patterns)
	fmt.Fprintf(&buf, "Train patterns = %d\n", rep.Config.TrainPatterns())
	fmt.Fprintf(&buf, "Validation patterns = %d\n", rep.Config.ValidPatterns())

	switch {
	case rep.Strategy == classifier.StrategyBall:
		fmt.Fprintf(&buf, "best D = %f\n", rep.Selection.Param.D)
	case rep.Selection.Swept:
		fmt.Fprintf(&buf, "best K = %d\n", rep.Selection.Param.K)
	}

	for _, res := range []*predictor.Result{rep.Train, rep.Valid, rep.Test} {
		if res != nil {
			fmt.Fprintf(&buf, "Error on %s:\t%f\n", res.Split, res.ErrorRate)
		}
	}

	return buf.WriteTo(w)
}

// Run executes one run for stem with cfg:
//
//  1. load and shuffle `<stem>.in`, then hold out the validation split
//  2. load `<stem>.test` when tests > 0
//  3. sweep K (or D in ball mode) on the validation split
//  4. evaluate the chosen value on every split and write `<stem>.predic`
func (r *Runner) Run(ctx context.Context, stem string, cfg *config.Config) (*Report, error) {
	rep, err := r.run(ctx, stem, cfg)
	if err != nil {
		return nil, translateError(err)
	}
	return rep, nil
}

func (r *Runner) run(ctx context.Context, stem string, cfg *config.Config) (*Report, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec := r.opts.codec
	if cfg.Compress != "" {
		c, err := compress.Parse(cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		codec = c
	}

	seed := cfg.Seed
	if !cfg.SeedSet {
		seed = r.opts.now().UnixNano()
	}

	rep := &Report{
		Stem:     stem,
		Config:   cfg,
		Strategy: classifier.StrategyNeighbors,
		Seed:     seed,
	}
	if cfg.Ball {
		rep.Strategy = classifier.StrategyBall
	}

	logger := r.opts.logger.WithStem(stem).WithDimension(cfg.Inputs)
	logger.InfoContext(ctx, "run started",
		"strategy", rep.Strategy.String(),
		"seed", seed,
		"patterns", cfg.Patterns,
		"tests", cfg.Tests,
		"split", cfg.Split,
	)

	data, err := r.load(ctx, logger, stem+SuffixPatterns+codec.Suffix(), cfg.Patterns, cfg, codec)
	if err != nil {
		return nil, err
	}
	data.Shuffle(rand.New(rand.NewSource(seed)))

	train, valid, err := data.Split(cfg.Split)
	if err != nil {
		return nil, err
	}

	var test *dataset.Dataset
	if cfg.Tests > 0 {
		test, err = r.load(ctx, logger, stem+SuffixTests+codec.Suffix(), cfg.Tests, cfg, codec)
		if err != nil {
			return nil, err
		}
	}

	pruning := r.opts.pruning && !cfg.NoPruning
	clf, err := classifier.New(rep.Strategy, train, classifier.WithPruning(pruning))
	if err != nil {
		return nil, err
	}

	rep.Selection, err = r.sweep(ctx, logger, clf, cfg, train, valid)
	if err != nil {
		return nil, err
	}

	p := rep.Selection.Param
	evalLogger := logger
	if rep.Strategy == classifier.StrategyNeighbors {
		evalLogger = logger.WithK(p.K)
	}
	if rep.Train, err = r.evaluate(ctx, evalLogger, clf, p, train, SplitTrain, nil); err != nil {
		return nil, err
	}
	if cfg.Split > 0 {
		if rep.Valid, err = r.evaluate(ctx, evalLogger, clf, p, valid, SplitValid, nil); err != nil {
			return nil, err
		}
	}
	if test != nil {
		name := stem + SuffixPredictions + codec.Suffix()
		if rep.Test, err = r.predict(ctx, evalLogger, clf, p, test, name, codec); err != nil {
			return nil, err
		}
		rep.PredictionFile = name
	}

	if n, ok := clf.(*classifier.Neighbors); ok {
		stats := n.Stats()
		r.opts.metricsCollector.RecordDistances(stats.Computed, stats.Pruned)
		logger.DebugContext(ctx, "distance computations",
			"computed", stats.Computed,
			"pruned", stats.Pruned,
		)
	}

	return rep, nil
}

func (r *Runner) sweep(ctx context.Context, logger *Logger, clf classifier.Classifier, cfg *config.Config, train, valid *dataset.Dataset) (*tuner.Selection, error) {
	parallelism := r.opts.parallelism
	if parallelism <= 0 {
		parallelism = cfg.Parallelism
	}

	t := tuner.New(
		tuner.WithLogger(logger.Logger),
		tuner.WithParallelism(parallelism),
		tuner.WithNestedK(r.opts.nestedK || cfg.NestedK),
		tuner.WithMaxK(train.Len()),
	)

	var (
		sel   *tuner.Selection
		err   error
		param string
		start = time.Now()
	)
	if cfg.Ball {
		param = "d"
		sel, err = t.SweepD(ctx, clf, valid, cfg.DRange, cfg.KRange)
	} else {
		param = "k"
		sel, err = t.SweepK(ctx, clf, valid, cfg.KRange)
	}
	elapsed := time.Since(start)

	if err != nil {
		logger.LogSweep(ctx, param, 0, 0, elapsed, err)
		r.opts.metricsCollector.RecordSweep(0, 0, elapsed, err)
		return nil, err
	}

	logger.LogSweep(ctx, sel.Param.String(), len(sel.Trials), sel.Error, elapsed, nil)
	r.opts.metricsCollector.RecordSweep(len(sel.Trials), sel.Error, elapsed, nil)
	return sel, nil
}

func (r *Runner) evaluate(ctx context.Context, logger *Logger, clf classifier.Classifier, p classifier.Param, split *dataset.Dataset, name string, sink predictor.RowSink) (*predictor.Result, error) {
	start := time.Now()
	res, err := predictor.Evaluate(ctx, clf, p, split, name, sink)
	if err != nil {
		logger.LogEvaluate(ctx, name, split.Len(), 0, err)
		return nil, err
	}

	logger.LogEvaluate(ctx, name, res.Total, res.Misclassified, nil)
	r.opts.metricsCollector.RecordEvaluate(name, res.Total, res.Misclassified, time.Since(start))
	return res, nil
}

// predict evaluates the test split and writes the predictions to name. The
// blob is aborted on any error so an earlier prediction file survives.
func (r *Runner) predict(ctx context.Context, logger *Logger, clf classifier.Classifier, p classifier.Param, test *dataset.Dataset, name string, codec compress.Codec) (*predictor.Result, error) {
	blob, err := r.opts.store.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	res, err := r.writePredictions(ctx, logger, clf, p, test, blob, codec)
	if err != nil {
		if aerr := blob.Abort(); aerr != nil {
			logger.WarnContext(ctx, "abort prediction file", "name", name, "error", aerr)
		}
		return nil, err
	}
	if err := blob.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", name, err)
	}
	return res, nil
}

func (r *Runner) writePredictions(ctx context.Context, logger *Logger, clf classifier.Classifier, p classifier.Param, test *dataset.Dataset, blob io.Writer, codec compress.Codec) (*predictor.Result, error) {
	w, err := compress.NewWriter(writeOnly{blob}, codec)
	if err != nil {
		return nil, err
	}

	pw := dataset.NewPredictionWriter(w)
	res, err := r.evaluate(ctx, logger, clf, p, test, SplitTest, pw)
	if err == nil {
		err = pw.Flush()
	}
	// Finishes the codec frame; the blob itself stays open.
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// writeOnly has a no-op Close.
type writeOnly struct {
	io.Writer
}

func (writeOnly) Close() error { return nil }

func (r *Runner) load(ctx context.Context, logger *Logger, name string, rows int, cfg *config.Config, codec compress.Codec) (*dataset.Dataset, error) {
	start := time.Now()
	d, err := r.read(ctx, name, rows, cfg.Inputs, cfg.Classes, codec)
	elapsed := time.Since(start)

	n := 0
	if d != nil {
		n = d.Len()
	}
	logger.LogLoad(ctx, name, n, elapsed, err)
	r.opts.metricsCollector.RecordLoad(name, n, elapsed, err)

	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return d, nil
}

func (r *Runner) read(ctx context.Context, name string, rows, inputs, classes int, codec compress.Codec) (*dataset.Dataset, error) {
	rc, err := blobstore.OpenReader(ctx, r.opts.store, name)
	if err != nil {
		return nil, err
	}
	zr, err := compress.NewReader(rc, codec)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	defer zr.Close()

	return dataset.Read(zr, rows, inputs, classes)
}

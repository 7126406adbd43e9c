package tuner

import (
	"context"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/hupe1980/vecknn/classifier"
	"github.com/hupe1980/vecknn/dataset"
	"github.com/hupe1980/vecknn/predictor"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// progressInterval throttles the sweep progress log.
const progressInterval = 2 * time.Second

// Trial is one evaluated sweep value.
type Trial struct {
	Param classifier.Param
	Error float64
}

// Selection is the outcome of a sweep.
type Selection struct {
	// Param is the chosen hyperparameter.
	Param classifier.Param
	// Error is the validation error of Param. NaN when the sweep was skipped.
	Error float64
	// Swept is false when a degenerate range was used directly.
	Swept bool
	// Trials lists every evaluated value in sweep order.
	Trials []Trial
}

// Tuner runs hyperparameter sweeps.
type Tuner struct {
	logger      *slog.Logger
	parallelism int
	nestedK     bool
	maxK        int
	progress    *rate.Sometimes
}

// Option configures a Tuner.
type Option func(*Tuner)

// WithLogger sets the logger for sweep progress and results.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tuner) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithParallelism sets how many sweep values are evaluated concurrently.
// Values <= 1 evaluate sequentially.
func WithParallelism(n int) Option {
	return func(t *Tuner) {
		t.parallelism = n
	}
}

// WithNestedK repeats every radius of a D-sweep once per K of the K range.
// The ball classifier ignores K, so the chosen radius is unchanged; only the
// trial count grows.
func WithNestedK(enabled bool) Option {
	return func(t *Tuner) {
		t.nestedK = enabled
	}
}

// WithMaxK caps the K values of a K-sweep at n, normally the number of
// training rows. A single-valued range is used as given, and a swept range
// stays swept even when the cap leaves one value. n < 1 disables the cap.
func WithMaxK(n int) Option {
	return func(t *Tuner) {
		t.maxK = n
	}
}

// New creates a Tuner.
func New(optFns ...Option) *Tuner {
	t := &Tuner{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		parallelism: 1,
		progress:    &rate.Sometimes{Interval: progressInterval},
	}
	for _, fn := range optFns {
		fn(t)
	}
	return t
}

// ClampK lowers the range so that no K exceeds the number of training rows.
func ClampK(r KRange, trainRows int, logger *slog.Logger) KRange {
	if trainRows < 1 {
		return r
	}
	if r.Max > trainRows {
		if logger != nil {
			logger.Warn("maxK is too big, truncating to number of train patterns",
				"max_k", r.Max,
				"train_patterns", trainRows,
			)
		}
		r.Max = trainRows
	}
	if r.Min > r.Max {
		r.Min = r.Max
	}
	return r
}

// SweepK selects K for a k-NN classifier from r using the validation split.
func (t *Tuner) SweepK(ctx context.Context, clf classifier.Classifier, valid *dataset.Dataset, r KRange) (*Selection, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.Degenerate() {
		return &Selection{Param: classifier.Param{K: r.Min}, Error: math.NaN()}, nil
	}
	if valid.Len() == 0 {
		return nil, ErrNoValidation
	}
	r = ClampK(r, t.maxK, t.logger)

	params := make([]classifier.Param, 0, r.Max-r.Min+1)
	for _, k := range r.Values() {
		params = append(params, classifier.Param{K: k})
	}

	sel, err := t.sweep(ctx, clf, valid, params)
	if err != nil {
		return nil, err
	}
	t.logger.InfoContext(ctx, "best K selected", "k", sel.Param.K, "valid_error", sel.Error, "range", r.String())
	return sel, nil
}

// SweepD selects the radius for a ball classifier from d using the validation
// split. k is only used for the nested loop enabled by WithNestedK.
func (t *Tuner) SweepD(ctx context.Context, clf classifier.Classifier, valid *dataset.Dataset, d DRange, k KRange) (*Selection, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Degenerate() {
		return &Selection{Param: classifier.Param{D: d.Min}, Error: math.NaN()}, nil
	}
	if valid.Len() == 0 {
		return nil, ErrNoValidation
	}

	ks := []int{0}
	if t.nestedK {
		if err := k.Validate(); err != nil {
			return nil, err
		}
		ks = k.Values()
	}

	var params []classifier.Param
	for _, radius := range d.Values() {
		for _, kk := range ks {
			params = append(params, classifier.Param{K: kk, D: radius})
		}
	}

	sel, err := t.sweep(ctx, clf, valid, params)
	if err != nil {
		return nil, err
	}
	sel.Param.K = 0
	t.logger.InfoContext(ctx, "best D selected", "d", sel.Param.D, "valid_error", sel.Error, "range", d.String())
	return sel, nil
}

// sweep evaluates params on valid and reduces in order: the first param with
// the strictly lowest error wins.
func (t *Tuner) sweep(ctx context.Context, clf classifier.Classifier, valid *dataset.Dataset, params []classifier.Param) (*Selection, error) {
	errs := make([]float64, len(params))

	eval := func(ctx context.Context, i int) error {
		e, err := predictor.ErrorRate(ctx, clf, params[i], valid)
		if err != nil {
			return err
		}
		errs[i] = e
		t.logger.DebugContext(ctx, "sweep trial", "param", params[i].String(), "valid_error", e)
		t.progress.Do(func() {
			t.logger.InfoContext(ctx, "sweep in progress", "param", params[i].String(), "total", len(params))
		})
		return nil
	}

	if t.parallelism > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(t.parallelism)
		for i := range params {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return eval(gctx, i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range params {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := eval(ctx, i); err != nil {
				return nil, err
			}
		}
	}

	sel := &Selection{
		Error:  math.Inf(1),
		Swept:  true,
		Trials: make([]Trial, len(params)),
	}
	for i, p := range params {
		sel.Trials[i] = Trial{Param: p, Error: errs[i]}
		if errs[i] < sel.Error {
			sel.Error = errs[i]
			sel.Param = p
		}
	}
	return sel, nil
}

package classifier

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecknn/dataset"
)

// ErrUnknownStrategy is returned by New for an unsupported Strategy.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Param carries the hyperparameter of a classification: K for Neighbors, D for
// Ball. Each classifier ignores the field it does not use.
type Param struct {
	K int
	D float64
}

func (p Param) String() string {
	return fmt.Sprintf("K=%d D=%g", p.K, p.D)
}

// Classifier predicts the class of a query vector.
//
// Implementations are safe for concurrent use; the training data is read-only.
type Classifier interface {
	Classify(query []float64, p Param) int
}

// Strategy selects a classifier implementation.
type Strategy int

const (
	StrategyNeighbors Strategy = iota
	StrategyBall
)

func (s Strategy) String() string {
	switch s {
	case StrategyNeighbors:
		return "knn"
	case StrategyBall:
		return "ball"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

type options struct {
	pruning bool
}

// Option configures a classifier.
type Option func(*options)

// WithPruning enables or disables origin-distance pruning for Neighbors.
// Pruning is enabled by default; it never changes a prediction.
func WithPruning(enabled bool) Option {
	return func(o *options) {
		o.pruning = enabled
	}
}

func applyOptions(optFns []Option) options {
	o := options{pruning: true}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// New returns the classifier for the given strategy trained on train.
func New(s Strategy, train *dataset.Dataset, optFns ...Option) (Classifier, error) {
	switch s {
	case StrategyNeighbors:
		return NewNeighbors(train, optFns...), nil
	case StrategyBall:
		return NewBall(train), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, s)
	}
}

// Package tuner selects the hyperparameter of a classifier by sweeping a range
// and minimizing the error on a validation split.
//
// A K-sweep evaluates every K in [Min, Max] with the k-NN classifier; a D-sweep
// evaluates every radius Min, Min+Step, ... up to Max with the ball classifier.
// The value with the strictly lowest validation error wins, so among equal
// errors the first value in sweep order is kept. Degenerate ranges (Min == Max)
// skip the sweep and never touch the validation split.
//
// Sweeps can evaluate values concurrently (WithParallelism); the reduction is
// always performed in sweep order, so the result does not depend on the
// parallelism.
package tuner

// Package dataset holds labeled feature vectors in memory.
//
// A Dataset stores its features in a gonum dense matrix (one row per example)
// and its labels in a parallel slice. Rows are shuffled once after loading and
// then split into a training prefix and a validation suffix; the split views
// share storage with the parent and are never mutated afterwards.
//
// # Usage
//
//	d, _ := dataset.Read(r, patterns, inputs, classes)
//	d.Shuffle(rand.New(rand.NewSource(seed)))
//	train, valid, _ := d.Split(cvSplit)
package dataset

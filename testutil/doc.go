// Package testutil provides testing utilities for vecknn.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG that generates labeled rows and a
// formatter that renders them as data file content.
//
// # Labeled Rows
//
//	rng := testutil.NewRNG(seed)
//	rows := rng.Clusters(50, 4, 3, 0.5, 10) // 150 rows, 4 features, 3 classes
//	content := testutil.CSV(rows)
package testutil

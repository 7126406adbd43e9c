// Package vecknn classifies tabular data with a tuned k-nearest-neighbor or
// fixed-radius (ball) classifier.
//
// A run reads `<stem>.in` (training patterns) and `<stem>.test` (test
// patterns), shuffles the training patterns, holds out a validation split,
// sweeps K (or the radius D) on that split, and reports the error rate of the
// selected value on the training, validation and test splits. Test predictions
// are written to `<stem>.predic`.
//
// # Quick Start
//
//	r := vecknn.New(vecknn.WithLogLevel(slog.LevelInfo))
//	cfg, _ := r.LoadConfig(ctx, "iris", nil)  // reads iris.cfg if present
//	report, _ := r.Run(ctx, "iris", cfg)
//	report.WriteTo(os.Stdout)
//
// # Data Files
//
// Data files are CSV with inputs+1 columns per row, the last column being the
// class label, an integer in [0, classes). Prediction rows have the same
// layout, with features printed to six decimals and the predicted label last.
//
// Files can live on the local file system, in S3 or in MinIO (see
// blobstore), and may be zstd or lz4 compressed (`.zst`, `.lz4`).
//
// # Classifiers
//
// The k-NN classifier keeps the K closest training rows in a bounded heap and
// skips rows whose distance to the all-ones reference point proves they cannot
// enter it. The ball classifier counts, per class, the training rows within
// distance D. Both break vote ties by the closest row of each class, then by
// the lowest class index.
//
// # Observability
//
// Structured logging uses log/slog (see Logger, NewFileLogger). Metrics are
// collected through MetricsCollector, with an in-memory and a Prometheus
// implementation.
package vecknn

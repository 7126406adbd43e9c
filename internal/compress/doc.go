// Package compress wraps dataset and prediction streams in zstd or lz4
// framing. The codec is chosen explicitly or from the file name suffix.
package compress

// Package blobstore abstracts where datasets are read from and predictions are
// written to.
//
// A Store opens named blobs for reading and creates them for writing. Names
// are slash separated and relative to the store root.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, reads are memory mapped
//   - MemoryStore: in-process map, used in tests
//   - s3.Store: Amazon S3
//   - minio.Store: MinIO and other S3-compatible services
//
// Blobs that can stream a byte range in one request implement RangeReader;
// OpenReader uses it to avoid a request per read.
package blobstore

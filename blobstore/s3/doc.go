// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", "datasets/iris")
//	if err != nil { ... }
//
//	r, err := blobstore.OpenReader(ctx, store, "iris.in")
//
// Reads stream the object with a single ranged GET. Writes go through the
// SDK upload manager, switching to multipart uploads for large predictions.
package s3

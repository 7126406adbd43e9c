package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrAborted is the error seen by a pending upload whose blob was aborted.
var ErrAborted = errors.New("blobstore: write aborted")

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error that satisfies errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// Store reads and writes named blobs.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates or truncates a blob. The content becomes visible when
	// the returned blob is closed; an aborted blob leaves any previous
	// content in place.
	Create(ctx context.Context, name string) (WritableBlob, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.ReaderAt
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// RangeReader is implemented by blobs that stream a byte range in a single
// request.
type RangeReader interface {
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

// WritableBlob is a blob being written. Exactly one of Close or Abort
// finishes it.
type WritableBlob interface {
	io.Writer
	// Close publishes the written content.
	io.Closer
	// Abort discards the written content without publishing it.
	Abort() error
}

// OpenReader opens name and returns a sequential reader over the whole blob.
// Closing the reader closes the blob.
func OpenReader(ctx context.Context, s Store, name string) (io.ReadCloser, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	if rr, ok := b.(RangeReader); ok && b.Size() > 0 {
		rc, err := rr.ReadRange(ctx, 0, b.Size())
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		return &blobReader{Reader: rc, body: rc, blob: b}, nil
	}

	return &blobReader{Reader: io.NewSectionReader(b, 0, b.Size()), blob: b}, nil
}

type blobReader struct {
	io.Reader
	body io.Closer
	blob Blob
}

func (r *blobReader) Close() error {
	var err error
	if r.body != nil {
		err = r.body.Close()
	}
	if cerr := r.blob.Close(); err == nil {
		err = cerr
	}
	return err
}

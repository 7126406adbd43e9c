package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/hupe1980/vecknn/blobstore"
	"github.com/hupe1980/vecknn/blobstore/minio"
	"github.com/hupe1980/vecknn/blobstore/s3"
	"github.com/hupe1980/vecknn/config"
)

// Supported location schemes.
const (
	schemeLocal = ""
	schemeS3    = "s3"
	schemeMinio = "minio"
)

var errInvalidLocation = errors.New("invalid location")

// location is a parsed `<stem>[.in]` argument.
type location struct {
	scheme string
	bucket string
	// prefix is the directory (local) or key prefix (object stores) of the
	// data files.
	prefix string
	// name is the last path element, still carrying its suffixes.
	name string
}

// parseLocation splits arg into a store root and a file name. Plain paths
// stay on the local file system; s3://bucket/prefix/name and
// minio://bucket/prefix/name address object stores.
func parseLocation(arg string) (location, error) {
	if !strings.Contains(arg, "://") {
		dir, name := filepath.Split(arg)
		if name == "" {
			return location{}, fmt.Errorf("%w: %q has no file name", errInvalidLocation, arg)
		}
		if dir == "" {
			dir = "."
		}
		return location{scheme: schemeLocal, prefix: filepath.Clean(dir), name: name}, nil
	}

	u, err := url.Parse(arg)
	if err != nil {
		return location{}, fmt.Errorf("%w: %w", errInvalidLocation, err)
	}
	switch u.Scheme {
	case schemeS3, schemeMinio:
	default:
		return location{}, fmt.Errorf("%w: unsupported scheme %q", errInvalidLocation, u.Scheme)
	}
	if u.Host == "" {
		return location{}, fmt.Errorf("%w: %q has no bucket", errInvalidLocation, arg)
	}

	dir, name := path.Split(strings.TrimPrefix(u.Path, "/"))
	if name == "" {
		return location{}, fmt.Errorf("%w: %q has no file name", errInvalidLocation, arg)
	}
	return location{
		scheme: u.Scheme,
		bucket: u.Host,
		prefix: strings.TrimSuffix(dir, "/"),
		name:   name,
	}, nil
}

// openStore returns the store rooted at loc. MinIO connects with mc; S3 uses
// the default AWS credential chain.
func openStore(ctx context.Context, loc location, mc config.MinioConfig) (blobstore.Store, error) {
	switch loc.scheme {
	case schemeLocal:
		return blobstore.NewLocalStore(loc.prefix), nil
	case schemeS3:
		s, err := s3.New(ctx, loc.bucket, loc.prefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	case schemeMinio:
		if mc.Endpoint == "" {
			return nil, fmt.Errorf("%w: no MinIO endpoint, set --minio-endpoint or MINIO_ENDPOINT", errInvalidLocation)
		}
		s, err := minio.New(minio.Config{
			Endpoint:  mc.Endpoint,
			AccessKey: mc.AccessKey,
			SecretKey: mc.SecretKey,
			Region:    mc.Region,
			Secure:    mc.Secure,
		}, loc.bucket, loc.prefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", errInvalidLocation, loc.scheme)
	}
}

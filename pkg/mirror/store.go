// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package mirror

import (
	"context"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// Store is a destination for mirrored files.
type Store interface {
	Writer(ctx context.Context, p string) (io.WriteCloser, error)
	URL(p string) *url.URL
	Close() error
}

// Open returns the Store for dest, either gs://bucket/prefix or a local path.
func Open(ctx context.Context, dest string, opts ...option.ClientOption) (Store, error) {
	u, err := url.Parse(dest)
	if err != nil {
		return nil, errors.Wrap(err, "parsing destination")
	}
	switch u.Scheme {
	case "gs":
		s, err := NewGCSStore(ctx, dest, opts...)
		return s, errors.Wrap(err, "creating GCS store")
	case "file", "":
		dir := u.Path
		if dir == "" {
			return nil, errors.New("empty destination path")
		}
		fs := osfs.New(dir)
		if err := fs.MkdirAll(".", 0755); err != nil {
			return nil, errors.Wrapf(err, "creating %s", dir)
		}
		return NewFilesystemStore(fs), nil
	default:
		return nil, errors.Errorf("unsupported scheme: '%s'", u.Scheme)
	}
}

// GCSStore writes objects under a bucket prefix.
type GCSStore struct {
	gcsClient *gcs.Client
	bucket    string
	prefix    string
}

// splitGCS splits gs://bucket/prefix into its bucket and prefix.
func splitGCS(dest string) (bucket, prefix string, err error) {
	bucket, prefix, _ = strings.Cut(strings.TrimPrefix(dest, "gs://"), "/")
	if bucket == "" {
		return "", "", errors.Errorf("no bucket in %q", dest)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// NewGCSStore creates a GCSStore for gs://bucket/prefix.
func NewGCSStore(ctx context.Context, dest string, opts ...option.ClientOption) (*GCSStore, error) {
	bucket, prefix, err := splitGCS(dest)
	if err != nil {
		return nil, err
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create GCS client")
	}
	return &GCSStore{gcsClient: client, bucket: bucket, prefix: prefix}, nil
}

func (s *GCSStore) objectPath(p string) string {
	return path.Join(s.prefix, p)
}

func (s *GCSStore) URL(p string) *url.URL {
	return &url.URL{Scheme: "gs", Host: s.bucket, Path: "/" + s.objectPath(p)}
}

// Writer returns a writer for the object at p. The object is committed on Close.
func (s *GCSStore) Writer(ctx context.Context, p string) (io.WriteCloser, error) {
	return s.gcsClient.Bucket(s.bucket).Object(s.objectPath(p)).NewWriter(ctx), nil
}

func (s *GCSStore) Close() error {
	return s.gcsClient.Close()
}

var _ Store = &GCSStore{}

// FilesystemStore writes files into a billy.Filesystem.
type FilesystemStore struct {
	fs billy.Filesystem
}

// NewFilesystemStore creates a new FilesystemStore.
func NewFilesystemStore(fs billy.Filesystem) *FilesystemStore {
	return &FilesystemStore{fs: fs}
}

func (s *FilesystemStore) URL(p string) *url.URL {
	return &url.URL{Scheme: "file", Path: filepath.Join(s.fs.Root(), filepath.FromSlash(p))}
}

// Writer creates the file at p and its parent directories.
func (s *FilesystemStore) Writer(_ context.Context, p string) (io.WriteCloser, error) {
	if err := s.fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return nil, errors.Wrapf(err, "creating parent of %s", p)
	}
	f, err := s.fs.Create(p)
	if err != nil {
		return nil, errors.Wrapf(err, "creating writer for %s", p)
	}
	return f, nil
}

func (s *FilesystemStore) Close() error { return nil }

var _ Store = &FilesystemStore{}

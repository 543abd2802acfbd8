// Package storage implements disk-backed object buckets with public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"crwn/internal/observability"
)

// Bucket names used by the application.
const (
	BucketAvatars   = "avatars"
	BucketPostMedia = "post-media"
)

// ErrInvalidPath is returned for object paths that escape their bucket.
var ErrInvalidPath = errors.New("invalid object path")

// ErrUnknownBucket is returned when a bucket was never registered.
var ErrUnknownBucket = errors.New("unknown bucket")

// Bucket is a named container of objects.
type Bucket interface {
	Name() string
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
	PublicURL(objectPath string) string
	Remove(ctx context.Context, paths ...string) error
}

// Store owns the buckets under one root directory.
type Store struct {
	root      string
	publicURL string

	mu      sync.RWMutex
	buckets map[string]*DiskBucket
}

// NewStore creates a store rooted at dir. Buckets are served under publicURL/<bucket>/<path>.
func NewStore(dir, publicURL string, names ...string) (*Store, error) {
	if len(names) == 0 {
		names = []string{BucketAvatars, BucketPostMedia}
	}
	s := &Store{
		root:      dir,
		publicURL: strings.TrimRight(publicURL, "/"),
		buckets:   make(map[string]*DiskBucket, len(names)),
	}
	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(dir, name), 0o750); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", name, err)
		}
		s.buckets[name] = &DiskBucket{name: name, dir: filepath.Join(dir, name), baseURL: s.publicURL + "/" + name}
	}
	return s, nil
}

// Bucket returns the named bucket.
func (s *Store) Bucket(name string) (Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buckets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBucket, name)
	}
	return b, nil
}

// Resolve maps a bucket object to its file on disk, for serving.
func (s *Store) Resolve(bucket, objectPath string) (string, error) {
	s.mu.RLock()
	b, ok := s.buckets[bucket]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
	}
	return b.file(objectPath)
}

// DiskBucket stores objects as files below its directory.
type DiskBucket struct {
	name    string
	dir     string
	baseURL string
}

func (b *DiskBucket) Name() string { return b.name }

// Upload writes data at objectPath, replacing any existing object, and returns the path.
func (b *DiskBucket) Upload(ctx context.Context, objectPath string, data []byte, _ string) (string, error) {
	span, _ := observability.StartSpan(ctx, "storage.upload")
	defer span.End()

	clean, err := CleanPath(objectPath)
	if err != nil {
		observability.StorageUploads.WithLabelValues(b.name, "error").Inc()
		return "", err
	}
	if err := ctx.Err(); err != nil {
		observability.StorageUploads.WithLabelValues(b.name, "error").Inc()
		return "", err
	}
	err = writeBytesToFile(filepath.Join(b.dir, filepath.FromSlash(clean)), data)
	observability.StorageUploads.WithLabelValues(b.name, observability.Outcome(err)).Inc()
	if err != nil {
		span.SetError(err)
		return "", fmt.Errorf("upload %s/%s: %w", b.name, clean, err)
	}
	return clean, nil
}

// PublicURL returns the URL an object is served at. The object need not exist.
func (b *DiskBucket) PublicURL(objectPath string) string {
	clean, err := CleanPath(objectPath)
	if err != nil {
		return ""
	}
	return b.baseURL + "/" + clean
}

// Remove deletes the given objects. Missing objects are ignored.
func (b *DiskBucket) Remove(_ context.Context, paths ...string) error {
	var errs []error
	for _, p := range paths {
		f, err := b.file(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *DiskBucket) file(objectPath string) (string, error) {
	clean, err := CleanPath(objectPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.dir, filepath.FromSlash(clean)), nil
}

// CleanPath normalizes an object path and rejects absolute or escaping paths.
func CleanPath(objectPath string) (string, error) {
	p := strings.TrimSpace(strings.ReplaceAll(objectPath, "\\", "/"))
	if p == "" || strings.HasPrefix(p, "/") {
		return "", ErrInvalidPath
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidPath
	}
	return clean, nil
}

func writeBytesToFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}

// Provider resolves buckets by name.
type Provider interface {
	Bucket(name string) (Bucket, error)
}

// BucketSet is a fixed set of buckets keyed by name.
type BucketSet map[string]Bucket

func (s BucketSet) Bucket(name string) (Bucket, error) {
	b, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBucket, name)
	}
	return b, nil
}

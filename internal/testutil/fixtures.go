// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"

	"crwn/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// SQLiteDB returns a migrated in-memory database private to the test.
func SQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// ErrUploadFailed is returned by a MemoryBucket configured to fail.
var ErrUploadFailed = errors.New("upload failed")

// MemoryBucket is an in-memory object bucket.
type MemoryBucket struct {
	BucketName string
	BaseURL    string
	// FailAfter is the number of uploads that succeed before every later one fails. Negative never fails.
	FailAfter int

	mu      sync.Mutex
	Objects map[string][]byte
	uploads int
}

// NewMemoryBucket creates a bucket that never fails.
func NewMemoryBucket(name string) *MemoryBucket {
	return &MemoryBucket{
		BucketName: name,
		BaseURL:    "http://storage.test/" + name,
		FailAfter:  -1,
		Objects:    make(map[string][]byte),
	}
}

// NewFailingBucket creates a bucket whose uploads fail after n successes.
func NewFailingBucket(name string, n int) *MemoryBucket {
	b := NewMemoryBucket(name)
	b.FailAfter = n
	return b
}

func (b *MemoryBucket) Name() string { return b.BucketName }

func (b *MemoryBucket) Upload(_ context.Context, objectPath string, data []byte, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailAfter >= 0 && b.uploads >= b.FailAfter {
		return "", ErrUploadFailed
	}
	b.uploads++
	b.Objects[objectPath] = data
	return objectPath, nil
}

func (b *MemoryBucket) PublicURL(objectPath string) string {
	return b.BaseURL + "/" + objectPath
}

func (b *MemoryBucket) Remove(_ context.Context, paths ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range paths {
		delete(b.Objects, p)
	}
	return nil
}

// Count returns the number of stored objects.
func (b *MemoryBucket) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Objects)
}

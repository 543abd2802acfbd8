package storage

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crwn/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), "http://localhost:3000/storage/v1/object/public/")
	require.NoError(t, err)
	return s
}

func TestStore_UploadAndPublicURL(t *testing.T) {
	s := newTestStore(t)
	b, err := s.Bucket(BucketAvatars)
	require.NoError(t, err)

	p, err := b.Upload(context.Background(), "7-1700000000.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "7-1700000000.jpg", p)
	assert.Equal(t, "http://localhost:3000/storage/v1/object/public/avatars/7-1700000000.jpg", b.PublicURL(p))

	file, err := s.Resolve(BucketAvatars, p)
	require.NoError(t, err)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
}

func TestStore_NestedPathsAndRemove(t *testing.T) {
	s := newTestStore(t)
	b, err := s.Bucket(BucketPostMedia)
	require.NoError(t, err)
	ctx := context.Background()

	p, err := b.Upload(ctx, "3/12/1700000000-0.jpg", []byte("a"), "image/jpeg")
	require.NoError(t, err)
	file, err := s.Resolve(BucketPostMedia, p)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filepath.ToSlash(file), "post-media/3/12/1700000000-0.jpg"))

	require.NoError(t, b.Remove(ctx, p, "missing.jpg"))
	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_UnknownBucket(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Bucket("private")
	assert.ErrorIs(t, err, ErrUnknownBucket)
	_, err = s.Resolve("private", "x.jpg")
	assert.ErrorIs(t, err, ErrUnknownBucket)
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "a.jpg", want: "a.jpg"},
		{in: "1/2/./3.jpg", want: "1/2/3.jpg"},
		{in: `1\2.jpg`, want: "1/2.jpg"},
		{in: "", wantErr: true},
		{in: "/etc/passwd", wantErr: true},
		{in: "../x.jpg", wantErr: true},
		{in: "a/../../x.jpg", wantErr: true},
		{in: "..", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanPath(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiskBucket_RejectsEscapingUpload(t *testing.T) {
	s := newTestStore(t)
	b, err := s.Bucket(BucketAvatars)
	require.NoError(t, err)

	_, err = b.Upload(context.Background(), "../post-media/x.jpg", []byte("x"), "image/jpeg")
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.Empty(t, b.PublicURL("../x.jpg"))
}

func TestNormalizeImage(t *testing.T) {
	out, err := NormalizeImage(testutil.TinyPNG(t, 40, 20), 1<<20)
	require.NoError(t, err)
	assert.Equal(t, 40, out.Width)
	assert.Equal(t, 20, out.Height)
	assert.NotEmpty(t, out.WebP)

	decoded, err := jpeg.Decode(bytes.NewReader(out.JPEG))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 20), decoded.Bounds())
}

func TestNormalizeImage_ScalesDown(t *testing.T) {
	out, err := NormalizeImage(testutil.TinyPNG(t, MasterMaxSize*2, 100), 0)
	require.NoError(t, err)
	assert.Equal(t, MasterMaxSize, out.Width)
	assert.Equal(t, 50, out.Height)
}

func TestNormalizeImage_Rejects(t *testing.T) {
	_, err := NormalizeImage(nil, 0)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = NormalizeImage(testutil.TinyPNG(t, 4, 4), 10)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = NormalizeImage([]byte("plain text, not an image"), 0)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestWebPSibling(t *testing.T) {
	assert.Equal(t, "3/12/1-0.webp", WebPSibling("3/12/1-0.jpg"))
}

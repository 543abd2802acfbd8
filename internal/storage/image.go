package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders
	"image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MasterMaxSize bounds the longest edge of a normalized image.
	MasterMaxSize = 2048
	JPEGQuality   = 82
	WebPQuality   = 70
)

var (
	ErrImageTooLarge    = errors.New("image exceeds maximum upload size")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrEmptyImage       = errors.New("image is empty")
)

// NormalizedImage holds a re-encoded image ready for upload.
type NormalizedImage struct {
	JPEG   []byte
	WebP   []byte
	Width  int
	Height int
}

// NormalizeImage validates raw image bytes and re-encodes them as JPEG and WebP,
// scaling down so neither edge exceeds MasterMaxSize.
func NormalizeImage(data []byte, maxBytes int64) (*NormalizedImage, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, ErrImageTooLarge
	}
	if !IsAllowedImageMIME(http.DetectContentType(data)) {
		return nil, ErrUnsupportedImage
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	img := resizeToFit(src, MasterMaxSize, MasterMaxSize)

	jpg, err := encodeJPEG(img, JPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	wp, err := encodeWebP(img, WebPQuality)
	if err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	b := img.Bounds()
	return &NormalizedImage{JPEG: jpg, WebP: wp, Width: b.Dx(), Height: b.Dy()}, nil
}

// WebPSibling returns the object path of the WebP rendition for a JPEG object.
func WebPSibling(objectPath string) string {
	return strings.TrimSuffix(objectPath, ".jpg") + ".webp"
}

// IsAllowedImageMIME reports whether contentType is an accepted upload type.
func IsAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrCameraUnavailable covers permission denied and missing devices.
var ErrCameraUnavailable = errors.New("camera unavailable")

// errStreamStopped is returned by Frame after Stop.
var errStreamStopped = errors.New("stream stopped")

const (
	// Preferred frame bounds for the user-facing camera.
	IdealWidth  = 1280
	IdealHeight = 720
	// JPEGQuality matches the 0.8 quality used for the analysis upload.
	JPEGQuality = 80
)

// Camera acquires a video-only feed.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open feed. Stop releases the device and must be safe to call twice.
type Stream interface {
	Frame() (image.Image, error)
	Stop()
}

// StillCamera serves a fixed image as its feed. It stands in for a webcam in
// the CLI and in tests.
type StillCamera struct {
	load func() ([]byte, error)
}

// NewFileCamera reads the feed image from path when opened.
func NewFileCamera(path string) *StillCamera {
	return &StillCamera{load: func() ([]byte, error) { return os.ReadFile(path) }}
}

// NewStillCamera serves data, which may be JPEG, PNG, GIF or WebP.
func NewStillCamera(data []byte) *StillCamera {
	return &StillCamera{load: func() ([]byte, error) { return data, nil }}
}

func (c *StillCamera) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := c.load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode feed image: %v", ErrCameraUnavailable, err)
	}
	return &stillStream{img: img}, nil
}

type stillStream struct {
	mu      sync.Mutex
	img     image.Image
	stopped bool
}

func (s *stillStream) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, errStreamStopped
	}
	return s.img, nil
}

func (s *stillStream) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// NoCamera always fails to open, as when permission is denied.
type NoCamera struct {
	Reason string
}

func (c NoCamera) Open(context.Context) (Stream, error) {
	reason := c.Reason
	if reason == "" {
		reason = "permission denied"
	}
	return nil, fmt.Errorf("%w: %s", ErrCameraUnavailable, reason)
}

// EncodeFrame downscales img to fit the ideal bounds and returns base64 JPEG.
func EncodeFrame(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("no frame")
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return "", fmt.Errorf("empty frame")
	}

	src := img
	if b.Dx() > IdealWidth || b.Dy() > IdealHeight {
		scale := min(float64(IdealWidth)/float64(b.Dx()), float64(IdealHeight)/float64(b.Dy()))
		w := max(1, int(float64(b.Dx())*scale))
		h := max(1, int(float64(b.Dy())*scale))
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return "", fmt.Errorf("encode frame: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

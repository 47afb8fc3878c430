package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// ProfilePictureSize bounds both sides of a stored profile picture.
const ProfilePictureSize = 256

// MaxImageSide bounds both sides of an upload before it is decoded.
const MaxImageSide = 4096

var ErrImageTooLarge = errors.New("image dimensions too large")

// Thumbnail decodes an uploaded image (honouring EXIF orientation), fits it
// inside size x size and re-encodes it as JPEG. The header is checked first so
// a small file claiming huge dimensions is rejected without allocating pixels.
func Thumbnail(r io.Reader, size int) (*bytes.Buffer, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxImageSide || cfg.Height > MaxImageSide {
		return nil, fmt.Errorf("%dx%d: %w", cfg.Width, cfg.Height, ErrImageTooLarge)
	}
	img, err := imaging.Decode(io.MultiReader(&head, r), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	img = imaging.Fit(img, size, size, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return &buf, nil
}

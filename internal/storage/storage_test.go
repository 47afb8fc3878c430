package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSStorePutGet(t *testing.T) {
	base := t.TempDir()
	s, err := NewFSStore(base)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	key, err := s.Put("profiles/7.jpg", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if key != "profiles/7.jpg" {
		t.Fatalf("key = %q", key)
	}
	rc, err := s.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "hello" {
		t.Fatalf("body = %q", b)
	}
}

func TestFSStoreConfinesKeys(t *testing.T) {
	base := t.TempDir()
	s, _ := NewFSStore(filepath.Join(base, "blobs"))
	key, err := s.Put("../../escape.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if key != "escape.txt" {
		t.Fatalf("key = %q", key)
	}
	if _, err := os.Stat(filepath.Join(base, "blobs", "escape.txt")); err != nil {
		t.Fatalf("blob not under root: %v", err)
	}
	if _, err := s.Put("", strings.NewReader("x")); err == nil {
		t.Fatal("empty key accepted")
	}
}

func TestFSStoreMissing(t *testing.T) {
	s, _ := NewFSStore(t.TempDir())
	if _, err := s.Get("nope.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestThumbnailFitsAndEncodesJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 800, 400))
	for x := 0; x < 800; x++ {
		src.Set(x, 10, color.RGBA{R: 200, A: 255})
	}
	var in bytes.Buffer
	if err := png.Encode(&in, src); err != nil {
		t.Fatalf("png: %v", err)
	}

	out, err := Thumbnail(&in, ProfilePictureSize)
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if format != "jpeg" || cfg.Width != 256 || cfg.Height != 128 {
		t.Fatalf("got %s %dx%d", format, cfg.Width, cfg.Height)
	}
}

func TestThumbnailRejectsNonImages(t *testing.T) {
	if _, err := Thumbnail(strings.NewReader("not an image"), 64); err == nil {
		t.Fatal("expected decode error")
	}
}

// pngClaiming returns a 1x1 PNG whose header declares w x h.
func pngClaiming(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("png: %v", err)
	}
	b := buf.Bytes()
	// signature(8) length(4) "IHDR"(4) width(4) height(4) ... crc over type+data
	binary.BigEndian.PutUint32(b[16:20], w)
	binary.BigEndian.PutUint32(b[20:24], h)
	binary.BigEndian.PutUint32(b[29:33], crc32.ChecksumIEEE(b[12:29]))
	return b
}

func TestThumbnailRejectsHugeDimensions(t *testing.T) {
	for _, dims := range [][2]uint32{{50000, 50000}, {MaxImageSide + 1, 10}, {10, MaxImageSide + 1}} {
		_, err := Thumbnail(bytes.NewReader(pngClaiming(t, dims[0], dims[1])), ProfilePictureSize)
		if !errors.Is(err, ErrImageTooLarge) {
			t.Fatalf("%dx%d: got %v, want ErrImageTooLarge", dims[0], dims[1], err)
		}
	}
}

func TestThumbnailAcceptsMaxSide(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, MaxImageSide, 16))
	var in bytes.Buffer
	if err := png.Encode(&in, src); err != nil {
		t.Fatalf("png: %v", err)
	}
	out, err := Thumbnail(&in, ProfilePictureSize)
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	cfg, _, err := image.DecodeConfig(out)
	if err != nil || cfg.Width != ProfilePictureSize || cfg.Height != 1 {
		t.Fatalf("result %+v, %v", cfg, err)
	}
}

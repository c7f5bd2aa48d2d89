// Package upload stores user supplied images on local disk under a public root.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmptyFile = errors.New("file is empty")
	ErrTooLarge  = errors.New("file is too large")
	ErrNotImage  = errors.New("file is not an image")
)

// Store writes files below Dir. Returned paths are URL paths relative to the
// public root, e.g. /slips/slip-1700000000000-receipt.png.
type Store struct {
	Dir      string
	MaxBytes int64
	now      func() time.Time
}

// NewStore creates a store rooted at dir accepting files up to maxBytes
func NewStore(dir string, maxBytes int64) *Store {
	return &Store{Dir: dir, MaxBytes: maxBytes, now: time.Now}
}

// SaveImage validates fh as an image and writes it to <Dir>/<subdir>/<prefix>-<unix ms>-<name>
func (s *Store) SaveImage(fh *multipart.FileHeader, subdir, prefix string) (string, error) {
	if fh == nil || fh.Size == 0 {
		return "", ErrEmptyFile
	}
	if s.MaxBytes > 0 && fh.Size > s.MaxBytes {
		return "", ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect type: %w", err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	dir := filepath.Join(s.Dir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%s-%d-%s", prefix, s.now().UnixMilli(), cleanName(fh.Filename, mt.Extension()))
	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	return path.Join("/", filepath.ToSlash(subdir), name), nil
}

// Remove deletes a file previously returned by SaveImage
func (s *Store) Remove(publicPath string) error {
	rel := filepath.FromSlash(strings.TrimPrefix(path.Clean("/"+publicPath), "/"))
	if rel == "" || rel == "." {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, rel))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// cleanName keeps the base name, replaces spaces with underscores and drops
// anything outside [A-Za-z0-9._-]
func cleanName(name, ext string) string {
	name = strings.ReplaceAll(filepath.Base(filepath.FromSlash(name)), " ", "_")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		out = "upload" + ext
	}
	return out
}

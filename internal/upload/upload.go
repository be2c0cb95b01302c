package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnsupportedType is returned for files that are not common image formats.
var ErrUnsupportedType = errors.New("only image files are allowed")

// ErrTooLarge is returned when the file exceeds the configured size cap.
var ErrTooLarge = errors.New("file exceeds maximum size")

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".webp": true,
}

// Store saves uploaded company photos under a content directory and hands
// back the public path they are served from.
type Store struct {
	Dir      string
	MaxBytes int64
}

// NewStore creates the upload directory if needed.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{Dir: dir, MaxBytes: maxBytes}, nil
}

// SavePhoto validates and persists an uploaded photo, returning its public
// URL path. File names are timestamp-based so uploads never collide or leak
// the original name.
func (s *Store) SavePhoto(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}
	if s.MaxBytes > 0 && file.Size > s.MaxBytes {
		return "", ErrTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}

	return "/uploads/" + name, nil
}

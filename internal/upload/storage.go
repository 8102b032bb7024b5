package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxBytes is the largest accepted upload (5 MiB).
const DefaultMaxBytes int64 = 5 << 20

var (
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("upload too large")
	// ErrEmpty is returned for zero-byte uploads.
	ErrEmpty = errors.New("upload is empty")
)

// Storage keeps uploaded files in a directory on disk.
type Storage struct {
	dir      string
	maxBytes int64
}

// New creates the upload directory if needed.
func New(dir string, maxBytes int64) (*Storage, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Storage{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the directory files are written to.
func (s *Storage) Dir() string {
	return s.dir
}

// MaxBytes returns the size limit of a single upload.
func (s *Storage) MaxBytes() int64 {
	return s.maxBytes
}

// Save writes r under a generated name derived from originalName and returns that name.
func (s *Storage) Save(originalName string, r io.Reader) (string, error) {
	name := GenerateName(originalName)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		err = fmt.Errorf("write file: %w", err)
	case closeErr != nil:
		err = fmt.Errorf("close file: %w", closeErr)
	case n > s.maxBytes:
		err = ErrTooLarge
	case n == 0:
		err = ErrEmpty
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return name, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Storage) Remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// GenerateName keeps the base name and extension of the client's file and
// inserts a unique suffix: "cat.gif" becomes "cat-<id>.gif".
func GenerateName(originalName string) string {
	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	rawExt := filepath.Ext(base)
	stem := keepSafe(strings.TrimSuffix(base, rawExt))
	if stem == "" {
		stem = "upload"
	}
	ext := keepSafe(strings.ToLower(strings.TrimPrefix(rawExt, ".")))
	if ext != "" {
		ext = "." + ext
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return stem + "-" + id + ext
}

func keepSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, s)
}

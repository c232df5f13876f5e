// Package images downloads, downsizes and stores cover images.
package images

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ErrNotFound is returned when no cover is cached for an id.
var ErrNotFound = errors.New("image not found")

const (
	coverExt    = ".jpg"
	blurHashExt = ".blurhash"
)

// Storage keeps one JPEG per id plus an optional BlurHash sidecar. All file
// access goes through an os.Root so ids cannot name files outside the
// directory. Writes replace files by rename, so readers never see a partial
// image.
type Storage struct {
	dir  string
	root *os.Root
}

// NewStorage opens dir, creating it if needed.
func NewStorage(dir string) (*Storage, error) {
	if dir == "" {
		return nil, errors.New("cover directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cover directory: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open cover directory: %w", err)
	}
	return &Storage{dir: dir, root: root}, nil
}

// Close releases the directory handle.
func (s *Storage) Close() error {
	return s.root.Close()
}

// Dir returns the storage directory.
func (s *Storage) Dir() string {
	return s.dir
}

// Save stores JPEG data for id, replacing any previous image.
func (s *Storage) Save(id string, data []byte) error {
	if len(data) == 0 {
		return errors.New("image data cannot be empty")
	}
	return s.write(id, coverExt, data)
}

// SaveBlurHash stores the placeholder hash for id.
func (s *Storage) SaveBlurHash(id, hash string) error {
	return s.write(id, blurHashExt, []byte(hash))
}

func (s *Storage) write(id, ext string, data []byte) error {
	if err := validID(id); err != nil {
		return err
	}
	name := id + ext
	tmp := "." + name + ".tmp"
	if err := s.root.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := s.root.Rename(tmp, name); err != nil {
		_ = s.root.Remove(tmp)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// Get returns the image for id, or an error wrapping ErrNotFound.
func (s *Storage) Get(id string) ([]byte, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	data, err := s.root.ReadFile(id + coverExt)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("cover %s: %w", id, ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("read cover %s: %w", id, err)
	}
	return data, nil
}

// Exists reports whether an image is cached for id.
func (s *Storage) Exists(id string) bool {
	if validID(id) != nil {
		return false
	}
	_, err := s.root.Stat(id + coverExt)
	return err == nil
}

// BlurHash returns the placeholder hash for id, or "" if none is stored.
func (s *Storage) BlurHash(id string) string {
	if validID(id) != nil {
		return ""
	}
	data, err := s.root.ReadFile(id + blurHashExt)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Hash returns the hex SHA-256 of the stored image, used as an ETag.
func (s *Storage) Hash(id string) (string, error) {
	data, err := s.Get(id)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// validID rejects empty ids and anything with a path separator.
func validID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid image id %q", id)
	}
	return nil
}

// Package local stores media on the local filesystem under one root directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/angelmondragon/photoalbum-backend/pkg/storage"
	"github.com/google/uuid"
)

// Store writes blobs below root. Locations are absolute file paths.
type Store struct {
	root string
}

// New resolves root to an absolute path. The directory itself is created on
// the first Put.
func New(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("local storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving storage root %q: %w", root, err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string {
	return s.root
}

// Put streams r into a temp file next to the destination, fsyncs it and
// renames it into place, so readers never observe a partial file.
func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader) (string, int64, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", 0, err
	}
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	fullPath := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", 0, fmt.Errorf("creating directory for %s: %w", key, err)
	}

	tmpPath := fullPath + "." + uuid.NewString()[:8] + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", 0, fmt.Errorf("creating temp file: %w", err)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("writing %s: %w", key, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("fsync %s: %w", key, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("closing %s: %w", key, err)
	}

	if _, err := os.Stat(fullPath); err == nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("storage location %s already exists", fullPath)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("renaming into %s: %w", key, err)
	}

	return fullPath, written, nil
}

// Open returns the file at location. The Body is an *os.File and therefore
// seekable.
func (s *Store) Open(ctx context.Context, location string) (*storage.Object, error) {
	fullPath, err := s.resolve(location)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("opening %s: %w", location, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", location, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, storage.ErrNotFound
	}

	return &storage.Object{Body: f, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (s *Store) Delete(ctx context.Context, location string) error {
	fullPath, err := s.resolve(location)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", location, err)
	}
	return nil
}

// Ping checks the root is usable. A root that does not exist yet is fine.
func (s *Store) Ping(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat storage root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root %s is not a directory", s.root)
	}
	return nil
}

func (s *Store) resolve(location string) (string, error) {
	if !filepath.IsAbs(location) {
		location = filepath.Join(s.root, location)
	}
	clean := filepath.Clean(location)
	rel, err := filepath.Rel(s.root, clean)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("location %q is outside storage root", location)
	}
	return clean, nil
}

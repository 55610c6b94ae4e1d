// Package storage defines where media bytes live. Metadata records point at
// blobs by the location string returned from Put.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned by Open when no blob exists at the location.
var ErrNotFound = errors.New("storage: object not found")

// Store writes and reads media bytes.
type Store interface {
	// Put writes r under key and returns the fully resolved location plus
	// the number of bytes written.
	Put(ctx context.Context, key, contentType string, r io.Reader) (location string, written int64, err error)
	// Open returns the blob at location or ErrNotFound.
	Open(ctx context.Context, location string) (*Object, error)
	// Delete removes the blob at location. A missing blob is not an error.
	Delete(ctx context.Context, location string) error
	Ping(ctx context.Context) error
}

// Object is an open blob. Callers must close Body.
type Object struct {
	Body    io.ReadCloser
	Size    int64
	ModTime time.Time
}

// Key builds the storage key for a media file: partitioned by year, then
// month, then album.
func Key(year, month int, albumSlug, filename string) string {
	return path.Join(fmt.Sprint(year), fmt.Sprint(month), albumSlug, filename)
}

// ValidateKey rejects keys that are absolute or escape their root.
func ValidateKey(key string) error {
	if key == "" {
		return errors.New("storage: key is required")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return fmt.Errorf("storage: key %q must be relative", key)
	}
	clean := path.Clean(key)
	if clean != key || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("storage: key %q is not canonical", key)
	}
	return nil
}

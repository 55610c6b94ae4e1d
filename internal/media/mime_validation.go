package media

import (
	"fmt"
	"io"
	"mime"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type mimeGroup string

const (
	mimeGroupImages mimeGroup = "images"
	mimeGroupVideos mimeGroup = "videos"
)

const octetStream = "application/octet-stream"

var mimeGroupTypes = map[mimeGroup][]string{
	mimeGroupImages: {"image/jpeg", "image/png", "image/gif", "image/webp"},
	// video/mov and video/avi are non-standard but sent by some browsers.
	mimeGroupVideos: {"video/mp4", "video/mov", "video/quicktime", "video/avi", "video/x-msvideo"},
}

var allowedMimeTypes = buildAllowedMimeTypes()

func buildAllowedMimeTypes() map[string]struct{} {
	set := make(map[string]struct{})
	for _, types := range mimeGroupTypes {
		for _, value := range types {
			set[value] = struct{}{}
		}
	}
	return set
}

// AllowedMimeTypes lists the accepted types in sorted order.
func AllowedMimeTypes() []string {
	list := make([]string, 0, len(allowedMimeTypes))
	for value := range allowedMimeTypes {
		list = append(list, value)
	}
	sort.Strings(list)
	return list
}

// IsAllowedMime reports whether value, already normalized, may be stored.
func IsAllowedMime(value string) bool {
	_, ok := allowedMimeTypes[value]
	return ok
}

// normalizeMimeType strips parameters and lower-cases a declared type.
// An empty result means the caller declared nothing usable.
func normalizeMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", nil
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	return strings.ToLower(mediaType), nil
}

// detectMimeType sniffs the leading bytes of r.
func detectMimeType(r io.Reader) (string, error) {
	detected, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("detecting mime type: %w", err)
	}
	mediaType, _, err := mime.ParseMediaType(detected.String())
	if err != nil {
		return strings.ToLower(detected.String()), nil
	}
	return strings.ToLower(mediaType), nil
}

// needsDetection reports whether the declared type carries no information.
func needsDetection(declared string) bool {
	return declared == "" || declared == octetStream
}

func allowedMimeDescription() string {
	return humanReadableList([]string{string(mimeGroupImages), string(mimeGroupVideos)})
}

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return fmt.Sprintf("%s or %s", items[0], items[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}

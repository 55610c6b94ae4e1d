package media

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const maxSlugLength = 64

var extensionsByMime = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"video/mp4":       ".mp4",
	"video/mov":       ".mov",
	"video/quicktime": ".mov",
	"video/avi":       ".avi",
	"video/x-msvideo": ".avi",
}

// generateFilename returns "<unix-millis>-<random><ext>". The extension comes
// from the original name when it has a sane one, else from the MIME type.
func generateFilename(originalName, mimeType string, now time.Time) string {
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:12], extensionFor(originalName, mimeType))
}

func extensionFor(originalName, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if len(ext) > 1 && len(ext) <= 6 && isAlphanumeric(ext[1:]) {
		return ext
	}
	return extensionsByMime[mimeType]
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

// albumSlug maps an album name onto one safe path segment. Distinct names
// may share a slug; the generated filename keeps paths unique.
func albumSlug(album string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(album)) {
		switch {
		case r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastDash = false
		case !lastDash && b.Len() > 0:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return "album"
	}
	return slug
}

// displayName keeps the base name of an uploaded file, dropping any client
// supplied directories.
func displayName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	if name == "" {
		return "upload"
	}
	return name
}

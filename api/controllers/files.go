package controllers

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/angelmondragon/photoalbum-backend/api/responses"
	"github.com/angelmondragon/photoalbum-backend/internal/media"
	"github.com/angelmondragon/photoalbum-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type FileService interface {
	OpenFile(ctx context.Context, rawID string) (*media.File, error)
}

// File streams the bytes of the {id} media file inline.
func File(svc FileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		file, err := svc.OpenFile(ctx, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer file.Object.Body.Close()

		record := file.Record
		w.Header().Set("Content-Type", record.MimeType)
		w.Header().Set("Content-Disposition", inlineDisposition(record.OriginalName))
		w.Header().Set("X-Content-Type-Options", "nosniff")

		if rs, ok := file.Object.Body.(io.ReadSeeker); ok {
			http.ServeContent(w, r, record.Filename, file.Object.ModTime, rs)
			return
		}

		if file.Object.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(file.Object.Size, 10))
		}
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := io.Copy(w, file.Object.Body); err != nil && logg != nil {
			logg.Warn(logg.WithFields(ctx, map[string]any{"media_id": record.ID.String(), "error": err.Error()}), "media.file.stream_interrupted")
		}
	}
}

func inlineDisposition(filename string) string {
	if value := mime.FormatMediaType("inline", map[string]string{"filename": filename}); value != "" {
		return value
	}
	return "inline"
}

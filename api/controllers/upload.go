package controllers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/angelmondragon/photoalbum-backend/api/responses"
	"github.com/angelmondragon/photoalbum-backend/api/validators"
	"github.com/angelmondragon/photoalbum-backend/internal/media"
	"github.com/angelmondragon/photoalbum-backend/pkg/logger"
)

type UploadService interface {
	Upload(ctx context.Context, req media.UploadRequest) (*media.UploadResult, error)
}

// UploadLimits bounds a multipart upload request.
type UploadLimits struct {
	MaxRequestBytes int64
	MemoryBytes     int64
}

// Upload accepts multipart `files` plus albumName, year and month.
func Upload(svc UploadService, limits UploadLimits, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if limits.MaxRequestBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, limits.MaxRequestBytes)
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		form, err := validators.ParseUploadForm(r, limits.MemoryBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payloads := make([]media.Payload, 0, len(form.Files))
		for _, fh := range form.Files {
			payloads = append(payloads, payloadFromHeader(fh))
		}

		result, err := svc.Upload(r.Context(), media.UploadRequest{
			AlbumName: form.AlbumName,
			Year:      form.Year,
			Month:     form.Month,
			Files:     payloads,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func payloadFromHeader(fh *multipart.FileHeader) media.Payload {
	return media.Payload{
		OriginalName: fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

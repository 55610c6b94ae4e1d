package validators

import (
	"errors"
	"io"
	"math"
	"mime/multipart"
	"net/http"

	pkgerrors "github.com/angelmondragon/photoalbum-backend/pkg/errors"
	"github.com/angelmondragon/photoalbum-backend/pkg/validate"
)

// UploadFilesField is the multipart field carrying the uploaded files.
const UploadFilesField = "files"

// UploadForm is a parsed multipart upload request.
type UploadForm struct {
	AlbumName string `form:"albumName" validate:"required,max=255"`
	Year      int    `form:"year"`
	Month     int    `form:"month"`
	Files     []*multipart.FileHeader
}

// ParseUploadForm parses a multipart upload. The request body must already be
// bounded with http.MaxBytesReader; exceeding it maps to PAYLOAD_TOO_LARGE.
// Range checks on year and month belong to the media service.
func ParseUploadForm(r *http.Request, maxMemory int64) (*UploadForm, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.New(pkgerrors.CodePayloadTooLarge, "request body too large").
				WithDetails(map[string]any{"limitBytes": tooLarge.Limit})
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request must be multipart/form-data")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}

	form := &UploadForm{
		AlbumName: SanitizeString(r.FormValue("albumName"), 0),
	}
	if r.MultipartForm != nil {
		form.Files = r.MultipartForm.File[UploadFilesField]
	}
	if len(form.Files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "No files uploaded")
	}

	if err := validate.Struct(form); err != nil {
		return nil, err
	}

	year, err := ParseFormInt(r, "year", math.MinInt, math.MaxInt)
	if err != nil {
		return nil, err
	}
	month, err := ParseFormInt(r, "month", math.MinInt, math.MaxInt)
	if err != nil {
		return nil, err
	}
	form.Year, form.Month = year, month
	return form, nil
}

// AlbumQuery reads the optional album filter.
func AlbumQuery(r *http.Request) string {
	return SanitizeString(r.URL.Query().Get("album"), 255)
}

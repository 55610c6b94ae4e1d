package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/photoalbum-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/photoalbum-backend/pkg/errors"
	"github.com/angelmondragon/photoalbum-backend/pkg/validate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DefaultMinYear = 1900
	DefaultMaxYear = 2100

	MinMonth = 0
	MaxMonth = 11
)

// Store is the media metadata store. Every backend keeps these orderings:
// listings by uploaded_at then id, years descending, months and album names
// ascending.
type Store interface {
	CreateMediaFile(ctx context.Context, in NewMediaFile) (*models.MediaFile, error)
	// GetMediaFile returns (nil, nil) when no record has the id.
	GetMediaFile(ctx context.Context, id uuid.UUID) (*models.MediaFile, error)
	// GetMediaFilesByAlbumYearMonth lists one album's month. An empty album
	// lists every album in that month.
	GetMediaFilesByAlbumYearMonth(ctx context.Context, album string, year, month int) ([]models.MediaFile, error)
	GetYearsWithMedia(ctx context.Context) ([]int, error)
	GetMonthsWithMediaForYear(ctx context.Context, year int) ([]models.MonthCount, error)
	GetAlbumNames(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// NewMediaFile is everything a caller supplies to create a record. The store
// assigns the id and upload time.
type NewMediaFile struct {
	AlbumName    string `json:"albumName" validate:"required,max=255"`
	Year         int    `json:"year"`
	Month        int    `json:"month" validate:"min=0,max=11"`
	Filename     string `json:"filename" validate:"required,max=255"`
	OriginalName string `json:"originalName" validate:"required,max=1024"`
	MimeType     string `json:"mimeType" validate:"required,mediamime"`
	Size         int64  `json:"size" validate:"gt=0"`
	FilePath     string `json:"filePath" validate:"required"`
}

// YearRange bounds the years a record may carry.
type YearRange struct {
	Min int
	Max int
}

// DefaultYearRange is 1900 through 2100.
func DefaultYearRange() YearRange {
	return YearRange{Min: DefaultMinYear, Max: DefaultMaxYear}
}

func (r YearRange) normalized() YearRange {
	if r.Min == 0 && r.Max == 0 {
		return DefaultYearRange()
	}
	return r
}

// Contains reports whether year is within the range, inclusive.
func (r YearRange) Contains(year int) bool {
	r = r.normalized()
	return year >= r.Min && year <= r.Max
}

// CheckYear returns a VALIDATION_ERROR for years outside the range.
func (r YearRange) CheckYear(year int) error {
	r = r.normalized()
	if !r.Contains(year) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("year must be between %d and %d", r.Min, r.Max)).
			WithDetails(map[string]any{"field": "year", "min": r.Min, "max": r.Max})
	}
	return nil
}

// CheckMonth returns a VALIDATION_ERROR for months outside 0..11.
func CheckMonth(month int) error {
	if month < MinMonth || month > MaxMonth {
		return pkgerrors.New(pkgerrors.CodeValidation, "month must be between 0 and 11").
			WithDetails(map[string]any{"field": "month", "min": MinMonth, "max": MaxMonth})
	}
	return nil
}

func init() {
	validate.RegisterValidation("mediamime", func(fl validator.FieldLevel) bool {
		return IsAllowedMime(fl.Field().String())
	})
}

// prepare trims and validates in, then builds the immutable record.
func prepare(in NewMediaFile, years YearRange, now time.Time) (*models.MediaFile, error) {
	in.AlbumName = strings.TrimSpace(in.AlbumName)
	in.OriginalName = strings.TrimSpace(in.OriginalName)

	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := years.CheckYear(in.Year); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating media id")
	}

	return &models.MediaFile{
		ID:           id,
		AlbumName:    in.AlbumName,
		Year:         in.Year,
		Month:        in.Month,
		Filename:     in.Filename,
		OriginalName: in.OriginalName,
		MimeType:     in.MimeType,
		Size:         in.Size,
		FilePath:     in.FilePath,
		UploadedAt:   now.UTC().Truncate(time.Microsecond),
	}, nil
}

func duplicatePathError(path string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "a media file already exists at this path").
		WithDetails(map[string]any{"filePath": path})
}

package media

import (
	"context"
	"time"

	"github.com/angelmondragon/photoalbum-backend/pkg/db"
	"github.com/angelmondragon/photoalbum-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/photoalbum-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists media metadata in the media_files table.
type Repository struct {
	db    *gorm.DB
	years YearRange
	now   func() time.Time
}

// NewRepository constructs a media repository bound to the provided GORM DB.
func NewRepository(conn *gorm.DB, years YearRange) *Repository {
	return &Repository{db: conn, years: years.normalized(), now: time.Now}
}

func (r *Repository) CreateMediaFile(ctx context.Context, in NewMediaFile) (*models.MediaFile, error) {
	record, err := prepare(in, r.years, r.now())
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if db.IsUniqueViolation(err, "file_path") {
			return nil, duplicatePathError(record.FilePath)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting media file")
	}
	return record, nil
}

func (r *Repository) GetMediaFile(ctx context.Context, id uuid.UUID) (*models.MediaFile, error) {
	var record models.MediaFile
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&record).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading media file")
	}
	return &record, nil
}

func (r *Repository) GetMediaFilesByAlbumYearMonth(ctx context.Context, album string, year, month int) ([]models.MediaFile, error) {
	query := r.db.WithContext(ctx).Where("year = ? AND month = ?", year, month)
	if album != "" {
		query = query.Where("album_name = ?", album)
	}

	files := make([]models.MediaFile, 0)
	if err := query.Order("uploaded_at ASC").Order("id ASC").Find(&files).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing media files")
	}
	if files == nil {
		files = []models.MediaFile{}
	}
	return files, nil
}

func (r *Repository) GetYearsWithMedia(ctx context.Context) ([]int, error) {
	years := make([]int, 0)
	err := r.db.WithContext(ctx).
		Model(&models.MediaFile{}).
		Distinct("year").
		Order("year DESC").
		Pluck("year", &years).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing years")
	}
	if years == nil {
		years = []int{}
	}
	return years, nil
}

func (r *Repository) GetMonthsWithMediaForYear(ctx context.Context, year int) ([]models.MonthCount, error) {
	counts := make([]models.MonthCount, 0)
	err := r.db.WithContext(ctx).
		Model(&models.MediaFile{}).
		Select("month, COUNT(*) AS count").
		Where("year = ?", year).
		Group("month").
		Order("month ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting months")
	}
	if counts == nil {
		counts = []models.MonthCount{}
	}
	return counts, nil
}

func (r *Repository) GetAlbumNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	err := r.db.WithContext(ctx).
		Model(&models.MediaFile{}).
		Distinct("album_name").
		Order("album_name ASC").
		Pluck("album_name", &names).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing albums")
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

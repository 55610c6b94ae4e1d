package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/photoalbum-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/photoalbum-backend/pkg/errors"
	"github.com/angelmondragon/photoalbum-backend/pkg/logger"
	"github.com/angelmondragon/photoalbum-backend/pkg/metrics"
	"github.com/angelmondragon/photoalbum-backend/pkg/storage"
	"github.com/google/uuid"
)

const (
	DefaultMaxFileBytes = 100 * 1024 * 1024

	msgFileNotFound       = "File not found"
	msgFileNotFoundOnDisk = "File not found on disk"
)

// ServiceConfig tunes ingestion limits.
type ServiceConfig struct {
	Years        YearRange
	MaxFileBytes int64
}

// Service ties the metadata store to blob storage: ingestion, navigation
// queries and file resolution.
type Service struct {
	store        Store
	blobs        storage.Store
	logg         *logger.Logger
	metrics      *metrics.IngestMetrics
	years        YearRange
	maxFileBytes int64
	now          func() time.Time
}

// NewService constructs the media service. logg and m may be nil.
func NewService(store Store, blobs storage.Store, cfg ServiceConfig, logg *logger.Logger, m *metrics.IngestMetrics) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("media store required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob storage required")
	}
	maxFileBytes := cfg.MaxFileBytes
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		store:        store,
		blobs:        blobs,
		logg:         logg,
		metrics:      m,
		years:        cfg.Years.normalized(),
		maxFileBytes: maxFileBytes,
		now:          time.Now,
	}, nil
}

// Years returns the accepted year range.
func (s *Service) Years() YearRange {
	return s.years
}

func (s *Service) ListYears(ctx context.Context) ([]int, error) {
	return s.store.GetYearsWithMedia(ctx)
}

func (s *Service) ListMonths(ctx context.Context, year int) ([]models.MonthCount, error) {
	if err := s.years.CheckYear(year); err != nil {
		return nil, err
	}
	return s.store.GetMonthsWithMediaForYear(ctx, year)
}

// ListMedia lists one album's month, or every album's when album is blank.
func (s *Service) ListMedia(ctx context.Context, album string, year, month int) ([]models.MediaFile, error) {
	if err := s.years.CheckYear(year); err != nil {
		return nil, err
	}
	if err := CheckMonth(month); err != nil {
		return nil, err
	}
	return s.store.GetMediaFilesByAlbumYearMonth(ctx, strings.TrimSpace(album), year, month)
}

func (s *Service) ListAlbums(ctx context.Context) ([]string, error) {
	return s.store.GetAlbumNames(ctx)
}

// File is a resolved media record with its open bytes. Callers close Object.Body.
type File struct {
	Record models.MediaFile
	Object *storage.Object
}

// OpenFile resolves id to its record and bytes. Unknown or malformed ids and
// missing bytes are both NOT_FOUND, with distinct messages.
func (s *Service) OpenFile(ctx context.Context, rawID string) (*File, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgFileNotFound)
	}

	record, err := s.store.GetMediaFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgFileNotFound)
	}

	obj, err := s.blobs.Open(ctx, record.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ctx = s.logg.WithMediaID(ctx, record.ID.String())
			s.logg.Warn(s.logg.WithField(ctx, "file_path", record.FilePath), "media.file.missing_bytes")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgFileNotFoundOnDisk)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "opening media bytes")
	}

	return &File{Record: *record, Object: obj}, nil
}

// Ping checks both the metadata store and blob storage.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("media store: %w", err)
	}
	if err := s.blobs.Ping(ctx); err != nil {
		return fmt.Errorf("blob storage: %w", err)
	}
	return nil
}

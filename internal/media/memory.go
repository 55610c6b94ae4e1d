package media

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/angelmondragon/photoalbum-backend/pkg/db/models"
	"github.com/google/uuid"
)

// MemoryStore keeps records in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.MediaFile
	byPath  map[string]uuid.UUID
	ordered []*models.MediaFile
	years   YearRange
	now     func() time.Time
}

func NewMemoryStore(years YearRange) *MemoryStore {
	return &MemoryStore{
		byID:   make(map[uuid.UUID]*models.MediaFile),
		byPath: make(map[string]uuid.UUID),
		years:  years.normalized(),
		now:    time.Now,
	}
}

func (s *MemoryStore) CreateMediaFile(ctx context.Context, in NewMediaFile) (*models.MediaFile, error) {
	record, err := prepare(in, s.years, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byPath[record.FilePath]; exists {
		return nil, duplicatePathError(record.FilePath)
	}
	s.byID[record.ID] = record
	s.byPath[record.FilePath] = record.ID
	s.ordered = append(s.ordered, record)

	out := *record
	return &out, nil
}

func (s *MemoryStore) GetMediaFile(ctx context.Context, id uuid.UUID) (*models.MediaFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	out := *record
	return &out, nil
}

func (s *MemoryStore) GetMediaFilesByAlbumYearMonth(ctx context.Context, album string, year, month int) ([]models.MediaFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MediaFile, 0)
	for _, record := range s.ordered {
		if record.Year != year || record.Month != month {
			continue
		}
		if album != "" && record.AlbumName != album {
			continue
		}
		out = append(out, *record)
	}
	sortByUpload(out)
	return out, nil
}

func (s *MemoryStore) GetYearsWithMedia(ctx context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int]struct{})
	years := make([]int, 0)
	for _, record := range s.ordered {
		if _, ok := seen[record.Year]; ok {
			continue
		}
		seen[record.Year] = struct{}{}
		years = append(years, record.Year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

func (s *MemoryStore) GetMonthsWithMediaForYear(ctx context.Context, year int) ([]models.MonthCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts [MaxMonth + 1]int64
	for _, record := range s.ordered {
		if record.Year == year && record.Month >= MinMonth && record.Month <= MaxMonth {
			counts[record.Month]++
		}
	}

	out := make([]models.MonthCount, 0)
	for month, count := range counts {
		if count > 0 {
			out = append(out, models.MonthCount{Month: month, Count: count})
		}
	}
	return out, nil
}

func (s *MemoryStore) GetAlbumNames(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, record := range s.ordered {
		if _, ok := seen[record.AlbumName]; ok {
			continue
		}
		seen[record.AlbumName] = struct{}{}
		names = append(names, record.AlbumName)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func sortByUpload(files []models.MediaFile) {
	slices.SortStableFunc(files, func(a, b models.MediaFile) int {
		if c := a.UploadedAt.Compare(b.UploadedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
}

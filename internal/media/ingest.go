package media

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/photoalbum-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/photoalbum-backend/pkg/errors"
	"github.com/angelmondragon/photoalbum-backend/pkg/storage"
)

// Payload is one uploaded file as received from the transport.
type Payload struct {
	OriginalName string
	MimeType     string
	Size         int64
	Open         func() (io.ReadCloser, error)
}

// UploadRequest is a batch of files destined for one album month.
type UploadRequest struct {
	AlbumName string
	Year      int
	Month     int
	Files     []Payload
}

// UploadResult is returned after every file of a batch has been stored.
type UploadResult struct {
	Message string             `json:"message"`
	Files   []models.MediaFile `json:"files"`
}

type plannedFile struct {
	payload  Payload
	name     string
	mimeType string
}

// Upload validates the whole batch before touching storage, then stores the
// files one at a time. A failure midway leaves earlier files committed; the
// bytes of the failing file are removed.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (result *UploadResult, err error) {
	start := s.now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
			s.metrics.IncRejection(string(pkgerrors.CodeOf(err)))
		}
		s.metrics.ObserveBatch(outcome, time.Since(start))
	}()

	if len(req.Files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "No files uploaded")
	}

	album := strings.TrimSpace(req.AlbumName)
	if album == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "albumName is required").
			WithDetails(map[string]any{"field": "albumName"})
	}
	if utf8.RuneCountInString(album) > 255 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "albumName must be at most 255 characters").
			WithDetails(map[string]any{"field": "albumName"})
	}
	if err := s.years.CheckYear(req.Year); err != nil {
		return nil, err
	}
	if err := CheckMonth(req.Month); err != nil {
		return nil, err
	}

	planned := make([]plannedFile, 0, len(req.Files))
	for i, payload := range req.Files {
		file, err := s.checkPayload(i, payload)
		if err != nil {
			return nil, err
		}
		planned = append(planned, file)
	}

	ctx = s.logg.WithAlbum(ctx, album, req.Year, req.Month)
	slug := albumSlug(album)

	stored := make([]models.MediaFile, 0, len(planned))
	for _, file := range planned {
		if err := ctx.Err(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upload cancelled")
		}
		record, err := s.storeOne(ctx, album, req.Year, req.Month, slug, file)
		if err != nil {
			s.logg.Error(s.logg.WithField(ctx, "stored_before_failure", len(stored)), "media.upload.failed", err)
			return nil, err
		}
		s.metrics.ObserveFile(record.MimeType, record.Size)
		stored = append(stored, *record)
	}

	s.logg.Info(s.logg.WithField(ctx, "files", len(stored)), "media.upload.completed")

	return &UploadResult{
		Message: fmt.Sprintf("Uploaded %d files", len(stored)),
		Files:   stored,
	}, nil
}

func (s *Service) checkPayload(index int, payload Payload) (plannedFile, error) {
	name := displayName(payload.OriginalName)
	details := map[string]any{"index": index, "file": name}

	if payload.Open == nil {
		return plannedFile{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file %q has no content", name)).WithDetails(details)
	}
	if payload.Size <= 0 {
		return plannedFile{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file %q is empty", name)).WithDetails(details)
	}
	if payload.Size > s.maxFileBytes {
		details["maxBytes"] = s.maxFileBytes
		return plannedFile{}, pkgerrors.New(pkgerrors.CodePayloadTooLarge, fmt.Sprintf("file %q exceeds the %d MB limit", name, s.maxFileBytes/(1024*1024))).WithDetails(details)
	}

	mimeType, err := normalizeMimeType(payload.MimeType)
	if err != nil || needsDetection(mimeType) {
		mimeType, err = s.sniff(payload)
		if err != nil {
			return plannedFile{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading upload")
		}
	}

	if !IsAllowedMime(mimeType) {
		details["mimeType"] = mimeType
		details["allowed"] = AllowedMimeTypes()
		return plannedFile{}, pkgerrors.New(pkgerrors.CodeUnsupportedMedia, fmt.Sprintf("file %q has type %s; only %s are allowed", name, mimeType, allowedMimeDescription())).WithDetails(details)
	}

	return plannedFile{payload: payload, name: name, mimeType: mimeType}, nil
}

func (s *Service) sniff(payload Payload) (string, error) {
	rc, err := payload.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return detectMimeType(rc)
}

func (s *Service) storeOne(ctx context.Context, album string, year, month int, slug string, file plannedFile) (*models.MediaFile, error) {
	filename := generateFilename(file.name, file.mimeType, s.now())
	key := storage.Key(year, month, slug, filename)

	body, err := file.payload.Open()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading upload")
	}
	location, written, err := s.blobs.Put(ctx, key, file.mimeType, io.LimitReader(body, s.maxFileBytes+1))
	body.Close()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing media bytes")
	}
	if written > s.maxFileBytes {
		s.removeBlob(ctx, location)
		return nil, pkgerrors.New(pkgerrors.CodePayloadTooLarge, fmt.Sprintf("file %q exceeds the %d MB limit", file.name, s.maxFileBytes/(1024*1024))).
			WithDetails(map[string]any{"file": file.name, "maxBytes": s.maxFileBytes})
	}

	record, err := s.store.CreateMediaFile(ctx, NewMediaFile{
		AlbumName:    album,
		Year:         year,
		Month:        month,
		Filename:     filename,
		OriginalName: file.name,
		MimeType:     file.mimeType,
		Size:         written,
		FilePath:     location,
	})
	if err != nil {
		s.removeBlob(ctx, location)
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording media file")
		}
		return nil, err
	}
	return record, nil
}

func (s *Service) removeBlob(ctx context.Context, location string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), location); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"file_path": location, "cleanup_error": err.Error()}), "media.upload.orphaned_bytes")
	}
}

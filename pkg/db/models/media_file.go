package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaFile is the metadata record of one uploaded photo or video. Records are
// immutable once created.
type MediaFile struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AlbumName    string    `gorm:"column:album_name;not null" json:"albumName"`
	Year         int       `gorm:"column:year;not null" json:"year"`
	Month        int       `gorm:"column:month;not null" json:"month"`
	Filename     string    `gorm:"column:filename;not null" json:"filename"`
	OriginalName string    `gorm:"column:original_name;not null" json:"originalName"`
	MimeType     string    `gorm:"column:mime_type;not null" json:"mimeType"`
	Size         int64     `gorm:"column:size;not null" json:"size"`
	FilePath     string    `gorm:"column:file_path;not null;uniqueIndex" json:"filePath"`
	UploadedAt   time.Time `gorm:"column:uploaded_at;not null" json:"uploadedAt"`
}

func (MediaFile) TableName() string {
	return "media_files"
}

// MonthCount is one row of the per-year month histogram.
type MonthCount struct {
	Month int   `gorm:"column:month" json:"month"`
	Count int64 `gorm:"column:count" json:"count"`
}

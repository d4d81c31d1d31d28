package model

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FileType string

const (
	FileTypeDocument FileType = "document"
	FileTypeImage    FileType = "image"
	FileTypeVideo    FileType = "video"
	FileTypeAudio    FileType = "audio"
	FileTypeOther    FileType = "other"
)

// FileTypes lists every bucket in a stable order.
var FileTypes = []FileType{FileTypeDocument, FileTypeImage, FileTypeVideo, FileTypeAudio, FileTypeOther}

func (t FileType) Valid() bool {
	switch t {
	case FileTypeDocument, FileTypeImage, FileTypeVideo, FileTypeAudio, FileTypeOther:
		return true
	}
	return false
}

var extensionTypes = map[string]FileType{
	"pdf": FileTypeDocument, "doc": FileTypeDocument, "docx": FileTypeDocument, "txt": FileTypeDocument,
	"xls": FileTypeDocument, "xlsx": FileTypeDocument, "csv": FileTypeDocument, "rtf": FileTypeDocument,
	"ods": FileTypeDocument, "ppt": FileTypeDocument, "odp": FileTypeDocument, "md": FileTypeDocument,
	"html": FileTypeDocument, "htm": FileTypeDocument, "epub": FileTypeDocument, "pages": FileTypeDocument,
	"fig": FileTypeDocument, "psd": FileTypeDocument, "ai": FileTypeDocument, "indd": FileTypeDocument,
	"xd": FileTypeDocument, "sketch": FileTypeDocument, "afdesign": FileTypeDocument,
	"afphoto": FileTypeDocument,

	"jpg": FileTypeImage, "jpeg": FileTypeImage, "png": FileTypeImage, "gif": FileTypeImage,
	"bmp": FileTypeImage, "svg": FileTypeImage, "webp": FileTypeImage,

	"mp4": FileTypeVideo, "avi": FileTypeVideo, "mov": FileTypeVideo, "mkv": FileTypeVideo,
	"webm": FileTypeVideo,

	"mp3": FileTypeAudio, "wav": FileTypeAudio, "ogg": FileTypeAudio, "flac": FileTypeAudio,
}

// ClassifyFile derives the type bucket and the lower-cased extension from a file name.
// Unknown or missing extensions fall back to FileTypeOther.
func ClassifyFile(name string) (FileType, string) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return FileTypeOther, ""
	}
	if t, ok := extensionTypes[ext]; ok {
		return t, ext
	}
	return FileTypeOther, ext
}

// File is the metadata record of an uploaded blob.
type File struct {
	ID         string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID    string      `gorm:"type:varchar(36);index;not null" json:"owner_id"`
	Owner      *User       `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	AccountID  string      `gorm:"type:varchar(36);not null" json:"account_id"`
	Name       string      `gorm:"not null" json:"name"`
	Type       FileType    `gorm:"type:varchar(16);index;not null" json:"type"`
	Extension  string      `gorm:"type:varchar(32)" json:"extension"`
	URL        string      `gorm:"not null" json:"url"`
	Size       int64       `gorm:"not null;default:0" json:"size"`
	BlobID     string      `gorm:"type:varchar(36);not null" json:"bucket_file_id"`
	Shares     []FileShare `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE" json:"-"`
	SharedWith []string    `gorm:"-" json:"users"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// FileShare grants a user, identified by email, read access to a file.
type FileShare struct {
	FileID string `gorm:"primaryKey;type:varchar(36)"`
	Email  string `gorm:"primaryKey"`
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

func (f *File) AfterFind(tx *gorm.DB) error {
	f.SharedWith = make([]string, 0, len(f.Shares))
	for _, s := range f.Shares {
		f.SharedWith = append(f.SharedWith, s.Email)
	}
	return nil
}

// SharedWithEmail reports whether email is among the users the file is shared with.
func (f *File) SharedWithEmail(email string) bool {
	for _, e := range f.SharedWith {
		if e == email {
			return true
		}
	}
	return false
}

// FileList is one page of files plus the number of files matching the filter.
type FileList struct {
	Documents []File `json:"documents"`
	Total     int64  `json:"total"`
}

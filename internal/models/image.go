package models

import (
	"strings"
	"time"
)

// Image represents an uploaded image file and its database record.
//
// Lifecycle: created temporary+unattached on upload; attached to a post when
// its storage key appears in that post's content; detached back to
// temporary+unattached when removed from the content; soft-deleted explicitly
// or by the cleanup job; hard-deleted by the cleanup job after the purge TTL.
type Image struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	StorageKey       string     `gorm:"size:500;not null;uniqueIndex" json:"storage_key"`
	OriginalFilename string     `gorm:"size:255;not null" json:"original_filename"`
	FileSize         int64      `gorm:"not null" json:"file_size"`
	MimeType         string     `gorm:"size:50" json:"mime_type"`
	Width            int        `json:"width"`
	Height           int        `json:"height"`
	AltText          string     `gorm:"size:200" json:"alt_text"`
	Caption          string     `gorm:"size:500" json:"caption"`
	PostID           *uint      `gorm:"index" json:"post_id"`
	IsTemporary      bool       `gorm:"default:true;index" json:"is_temporary"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// Filename returns the bare file name portion of the storage key.
func (i *Image) Filename() string {
	if idx := strings.LastIndex(i.StorageKey, "/"); idx >= 0 {
		return i.StorageKey[idx+1:]
	}
	return i.StorageKey
}

// URL builds the public URL for the image under the given site base URL.
func (i *Image) URL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/uploads/" + i.StorageKey
}

package model

import (
	"time"
)

// UploadedFile is the record of a file hosted for scripts to download
type UploadedFile struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	OriginalName string    `gorm:"size:255" json:"originalName"`
	StoredName   string    `gorm:"size:255;uniqueIndex" json:"storedName"`
	MimeType     string    `gorm:"size:255" json:"mimeType"`
	Size         int64     `json:"size"`
	Backend      string    `gorm:"size:16" json:"backend"`
	CreatedAt    time.Time `json:"createdAt"`
	// URL is the public download path, filled by handlers
	URL string `gorm:"-" json:"url"`
}

// FilesStore is the abstraction used by handlers.
type FilesStore interface {
	List() ([]UploadedFile, error)
	Get(id string) (*UploadedFile, error)
	Create(file UploadedFile) (*UploadedFile, error)
	Delete(id string) error
}

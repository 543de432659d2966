package models

import "time"

// FileType classifies an uploaded media file.
type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypeVideo FileType = "video"
)

// Media describes one uploaded file owned by a capsule. The bytes live in the
// file store at StoragePath; UserID is a denormalised copy of the capsule owner.
type Media struct {
	ID           string    `json:"id"`
	CapsuleID    string    `json:"capsuleId"`
	UserID       string    `json:"user"`
	OriginalName string    `json:"originalFilename"`
	StoredName   string    `json:"filename"`
	FileType     FileType  `json:"fileType"`
	StoragePath  string    `json:"path"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	Checksum     string    `json:"checksum"`
	CreatedAt    time.Time `json:"createdAt"`
}

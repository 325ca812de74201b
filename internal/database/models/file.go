package models

import "github.com/google/uuid"

// File is the metadata row for an object stored in the S3 bucket; Path is
// the object key.
type File struct {
	Base
	ProjectID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	TaskID     *uuid.UUID `gorm:"type:uuid;index" json:"task_id,omitempty"`
	Name       string     `gorm:"not null" json:"name"`
	Type       string     `json:"type"`
	Size       int64      `json:"size"`
	Path       string     `gorm:"not null" json:"path"`
	UploadedBy uuid.UUID  `gorm:"type:uuid;not null" json:"uploaded_by"`

	Uploader *User `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
}

func (File) TableName() string {
	return "files"
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UploadKind string

const (
	UploadKindProfile UploadKind = "profile"
	UploadKindPost    UploadKind = "post"
)

type Upload struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Kind             UploadKind `gorm:"type:text;not null" json:"kind"`
	Filename         string     `gorm:"type:text" json:"filename"`
	OriginalFilename string     `gorm:"type:text" json:"original_filename"`
	FilePath         string     `gorm:"type:text" json:"-"`
	Size             int64      `json:"size"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (Upload) TableName() string {
	return "uploads"
}

func (u *Upload) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

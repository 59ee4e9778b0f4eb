package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attachment stores file metadata only; the object store itself lives
// behind a separate upload service.
type Attachment struct {
	ID         uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	TaskID     uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`
	FileName   string    `gorm:"type:varchar(500);not null" json:"file_name"`
	FileSize   int64     `gorm:"not null" json:"file_size"`
	MimeType   string    `gorm:"type:varchar(100)" json:"mime_type"`
	UploaderID uuid.UUID `gorm:"type:uuid;not null" json:"uploader_id"`
	UploadedAt time.Time `json:"uploaded_at"`

	// Relations
	Uploader User `gorm:"foreignKey:UploaderID" json:"uploader,omitempty"`
}

func (a *Attachment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.UploadedAt.IsZero() {
		a.UploadedAt = time.Now()
	}
	return nil
}

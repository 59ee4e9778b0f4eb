package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Label struct {
	ID        uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_labels_project_name" json:"project_id"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_labels_project_name" json:"name"`
	Color     string    `gorm:"type:varchar(20)" json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Label) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
